package core

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/IvanShishkin/docsentry/internal/ai"
	"github.com/IvanShishkin/docsentry/internal/config"
	"github.com/IvanShishkin/docsentry/internal/explain"
	"github.com/IvanShishkin/docsentry/internal/extractor"
	"github.com/IvanShishkin/docsentry/internal/learned"
	"github.com/IvanShishkin/docsentry/internal/mediatype"
	"github.com/IvanShishkin/docsentry/internal/metrics"
	"github.com/IvanShishkin/docsentry/internal/sanitize"
	"github.com/IvanShishkin/docsentry/internal/scoring"
	"github.com/IvanShishkin/docsentry/internal/signatures"
	"github.com/IvanShishkin/docsentry/pkg/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/IvanShishkin/docsentry/internal/core"

// NudgeIncrement is added to a benign pre-scan risk when the sanitizer
// changed the document
const NudgeIncrement = 0.1

// FallbackMessage accompanies the finding of a failed scan
const FallbackMessage = "Scanner fallback path used."

// Scan passes, used as metric labels
const (
	PassPre  = "pre"
	PassPost = "post"
)

// Submission is one document handed to Process
type Submission struct {
	Data        []byte
	Filename    string
	ContentType string
	// References are opaque caller identifiers copied into the report
	References map[string]string
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLearnedTable sets the learned-score capability table
func WithLearnedTable(t *learned.Table) Option {
	return func(s *Scanner) { s.learned = t }
}

// WithMetrics enables metrics collection
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithDispatcher replaces the sanitizer dispatcher
func WithDispatcher(d *sanitize.Dispatcher) Option {
	return func(s *Scanner) { s.dispatcher = d }
}

// WithMatcher replaces the rule matcher loaded from configuration
func WithMatcher(m *signatures.Matcher) Option {
	return func(s *Scanner) { s.matcher = m }
}

// Scanner is the document scanning engine. All state is built in
// NewScanner and only read afterwards, so one Scanner serves concurrent
// callers.
type Scanner struct {
	config     *config.Config
	logger     *zap.Logger
	matcher    *signatures.Matcher
	extractor  *extractor.Extractor
	learned    *learned.Table
	dispatcher *sanitize.Dispatcher
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// NewScanner creates a new scanner instance
func NewScanner(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Scanner, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scanner{
		config: cfg,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.matcher == nil {
		rules, err := signatures.NewLoader(cfg.RulesPath).Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
		s.matcher = signatures.NewMatcher(rules)
	}
	s.logger.Info("Loaded rules",
		zap.Int("tokens", len(s.matcher.Rules().SuspiciousTokens)),
		zap.Int("structural", len(s.matcher.Rules().Structural)))

	s.extractor = extractor.New(s.matcher, cfg.Sanitizer.ZipMaxEntries, logger)

	if s.dispatcher == nil {
		s.dispatcher = sanitize.NewDispatcher(NewRegistry(cfg.Sanitizer), logger)
	}

	if s.learned == nil {
		s.learned = s.defaultLearnedTable()
	}

	return s, nil
}

// defaultLearnedTable registers the Anthropic scorer when enabled
func (s *Scanner) defaultLearnedTable() *learned.Table {
	table := learned.NewTable()
	if s.config.AI.Enabled {
		scorer, err := ai.NewScorer(&s.config.AI, s.matcher, s.logger)
		if err != nil {
			// graceful degradation: scan without the learned signal
			s.logger.Warn("Learned scorer disabled", zap.Error(err))
		} else {
			_ = table.Register(learned.Wildcard, scorer)
			s.logger.Info("Learned scorer enabled", zap.String("model", s.config.AI.Model))
		}
	}
	return table.Seal()
}

// Matcher returns the active rule matcher
func (s *Scanner) Matcher() *signatures.Matcher {
	return s.matcher
}

// Extractor returns the signal extractor
func (s *Scanner) Extractor() *extractor.Extractor {
	return s.extractor
}

// Scan runs the pre-scan only. It never fails: internal errors produce the
// fallback result.
func (s *Scanner) Scan(ctx context.Context, data []byte, filename, contentType string) *models.ScanResult {
	artifact := models.NewArtifact(data, filename, mediatype.Resolve(filename, contentType, data))
	return s.scanArtifact(ctx, artifact, PassPre)
}

// Sanitize cleans data according to its extension. Unsupported extensions
// and sanitizer failures return the original bytes.
func (s *Scanner) Sanitize(ext string, data []byte) *models.SanitizationOutcome {
	ext = models.CleanExtension(ext)
	name := "document"
	if ext != "" {
		name += "." + ext
	}
	return s.sanitizeArtifact(models.NewArtifact(data, name, mediatype.ForExtension(ext)))
}

func (s *Scanner) sanitizeArtifact(original *models.FileArtifact) *models.SanitizationOutcome {
	out := s.dispatcher.Sanitize(original)

	result := "unchanged"
	switch {
	case out.Engine == sanitize.EnginePassthrough:
		result = "passthrough"
	case out.Error != "":
		result = "error"
	case out.Changed:
		result = "changed"
	}
	s.metrics.ObserveSanitizer(out.Engine, result, out.Removed)

	return out
}

// scanArtifact runs extractor, learned adapter, aggregator and translator
func (s *Scanner) scanArtifact(ctx context.Context, artifact *models.FileArtifact, pass string) (result *models.ScanResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("scan panic: %v", r)
			s.logger.Error("Scan failed, returning fallback",
				zap.String("file", artifact.Filename()),
				zap.Error(err))
			s.metrics.IncrementFallback()
			result = s.fallback(artifact, err)
		}
	}()

	ext := artifact.Extension()
	x := s.extractor.Extract(ctx, artifact.View(), ext)

	var notes []string
	lr := learned.Consult(ctx, s.learned, artifact)
	if lr.Err != nil {
		s.logger.Warn("Learned score unavailable",
			zap.String("file", artifact.Filename()),
			zap.Error(lr.Err))
		s.metrics.IncrementLearnedError(string(artifact.Family()))
		notes = append(notes, "learned score unavailable: "+lr.Err.Error())
	}

	score := scoring.Aggregate(x.Entropy, x.Rules, artifact.Family(), lr.Value())

	result = &models.ScanResult{
		Verdict:         score.Verdict,
		RiskScore:       score.Risk,
		Signals:         score.Signals(x.Signals()),
		Findings:        explain.Translate(x.Findings),
		Recommendations: Recommendations(ext, score.Verdict),
		Metadata:        metadataOf(artifact, notes),
	}

	s.metrics.ObserveScan(pass, string(result.Verdict), result.RiskScore)
	s.logger.Debug("Scanned document",
		zap.String("pass", pass),
		zap.String("file", artifact.Filename()),
		zap.String("verdict", string(result.Verdict)),
		zap.Float64("risk", result.RiskScore),
		zap.Int("findings", len(result.Findings)))

	return result
}

// fallback is the well-formed result of a failed scan
func (s *Scanner) fallback(artifact *models.FileArtifact, err error) *models.ScanResult {
	md := metadataOf(artifact, nil)
	md.Error = err.Error()
	return &models.ScanResult{
		Verdict:   models.VerdictBenign,
		RiskScore: 0,
		Signals:   models.SignalSet{},
		Findings: []models.Finding{{
			ID:       models.FindingFallback,
			Severity: models.SeverityInfo,
			Message:  FallbackMessage,
		}},
		Recommendations: Recommendations(artifact.Extension(), models.VerdictBenign),
		Metadata:        md,
	}
}

func metadataOf(a *models.FileArtifact, notes []string) models.ScanMetadata {
	return models.ScanMetadata{
		Filename:  a.Filename(),
		MediaType: a.MediaType(),
		Extension: a.Extension(),
		Size:      a.Size(),
		SHA256:    a.SHA256(),
		Notes:     notes,
	}
}

// Process runs received -> pre_scanned -> sanitized -> post_scanned ->
// reconciled. Every stage is entered and recorded; a failing stage is
// replaced by its fail-open result and the machine moves on.
func (s *Scanner) Process(ctx context.Context, sub Submission) *models.Report {
	ctx, span := s.tracer.Start(ctx, "docsentry.process",
		trace.WithAttributes(attribute.String("document.filename", sub.Filename)))
	defer span.End()

	rep := &models.Report{
		Version:    models.ReportVersion,
		Engine:     models.ReportEngine,
		References: copyReferences(sub.References),
		StartedAt:  time.Now().UTC(),
	}

	var (
		original *models.FileArtifact
		pre      *models.ScanResult
		outcome  *models.SanitizationOutcome
		post     *models.ScanResult
	)

	s.stage(ctx, rep, models.StageReceived, func(ctx context.Context) error {
		original = models.NewArtifact(sub.Data, sub.Filename, mediatype.Resolve(sub.Filename, sub.ContentType, sub.Data))
		span.SetAttributes(attribute.String("document.sha256", original.SHA256()))
		return nil
	})
	if original == nil {
		original = models.NewArtifact(sub.Data, sub.Filename, mediatype.Default)
	}
	rep.Original = metadataOf(original, nil)

	s.stage(ctx, rep, models.StagePreScanned, func(ctx context.Context) error {
		pre = s.scanArtifact(ctx, original, PassPre)
		return stageError(pre.Metadata.Error)
	})
	if pre == nil {
		pre = s.fallback(original, errors.New("pre-scan did not complete"))
	}

	s.stage(ctx, rep, models.StageSanitized, func(ctx context.Context) error {
		outcome = s.sanitizeArtifact(original)
		if outcome.Changed && pre.Verdict == models.VerdictBenign {
			s.nudge(pre, original.Extension())
			rep.Nudged = true
		}
		return stageError(outcome.Error)
	})
	if outcome == nil {
		outcome = passthroughOutcome(original, "sanitizer did not complete")
	}
	pre.Sanitization = outcome

	s.stage(ctx, rep, models.StagePostScanned, func(ctx context.Context) error {
		post = s.scanArtifact(ctx, outcome.Artifact, PassPost)
		return stageError(post.Metadata.Error)
	})
	if post == nil {
		post = s.fallback(outcome.Artifact, errors.New("post-scan did not complete"))
	}

	s.stage(ctx, rep, models.StageReconciled, func(ctx context.Context) error {
		rep.PreScan = pre
		rep.Sanitizer = outcome
		rep.PostCleanScan = &models.PostCleanScan{
			Filename:   outcome.Artifact.Filename(),
			DeltaRisk:  post.RiskScore - pre.RiskScore,
			ScanResult: post,
		}
		rep.Recommendations = pre.Recommendations
		return nil
	})

	rep.FinishedAt = time.Now().UTC()
	span.SetAttributes(
		attribute.String("document.verdict", string(pre.Verdict)),
		attribute.Float64("document.risk", pre.RiskScore),
		attribute.Bool("document.changed", outcome.Changed))

	s.logger.Info("Document processed",
		zap.String("file", original.Filename()),
		zap.String("sha256", original.SHA256()),
		zap.String("verdict", string(pre.Verdict)),
		zap.Float64("risk", pre.RiskScore),
		zap.Strings("removed", outcome.Removed),
		zap.Bool("nudged", rep.Nudged))

	return rep
}

// nudge raises a benign pre-scan risk after the sanitizer changed the file
func (s *Scanner) nudge(pre *models.ScanResult, ext string) {
	pre.RiskScore = scoring.Clamp(pre.RiskScore + NudgeIncrement)
	pre.Verdict = models.VerdictFor(pre.RiskScore)
	pre.Recommendations = Recommendations(ext, pre.Verdict)
	pre.Metadata.Notes = append(pre.Metadata.Notes, "risk raised because the sanitizer removed content")
}

// stage runs fn as one traced, timed step, converting panics into errors
func (s *Scanner) stage(ctx context.Context, rep *models.Report, stage models.Stage, fn func(context.Context) error) {
	ctx, span := s.tracer.Start(ctx, "docsentry."+string(stage))
	defer span.End()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panic: %v", stage, r)
			}
		}()
		return fn(ctx)
	}()
	elapsed := time.Since(start)

	record := models.StageRecord{Stage: stage, Duration: elapsed}
	if err != nil {
		record.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("Stage completed with error",
			zap.String("stage", string(stage)),
			zap.Error(err))
	}
	rep.Stages = append(rep.Stages, record)
	s.metrics.ObserveStage(string(stage), elapsed)
}

func stageError(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}

// passthroughOutcome keeps the original bytes under the clean name
func passthroughOutcome(original *models.FileArtifact, reason string) *models.SanitizationOutcome {
	clean := models.NewArtifact(original.View(), sanitize.CleanFilename(original), original.MediaType())
	return &models.SanitizationOutcome{
		Artifact: clean,
		Engine:   sanitize.EnginePassthrough,
		Removed:  []string{},
		Error:    reason,
		Changed:  false,
		SHA256:   clean.SHA256(),
	}
}

func copyReferences(refs map[string]string) map[string]string {
	if len(refs) == 0 {
		return nil
	}
	out := make(map[string]string, len(refs))
	for k, v := range refs {
		out[k] = v
	}
	return out
}

// ProcessBatch runs Process for every submission with at most workers in
// flight. Reports keep the submission order.
func (s *Scanner) ProcessBatch(ctx context.Context, subs []Submission, workers int) []*models.Report {
	if workers <= 0 {
		workers = s.config.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	reports := make([]*models.Report, len(subs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range subs {
		g.Go(func() error {
			reports[i] = s.Process(gctx, subs[i])
			return nil
		})
	}
	_ = g.Wait()

	return reports
}
