package ai

import (
	"context"

	"github.com/IvanShishkin/docsentry/internal/config"
	"github.com/IvanShishkin/docsentry/internal/extractor"
	"github.com/IvanShishkin/docsentry/internal/heuristic"
	"github.com/IvanShishkin/docsentry/internal/signatures"
	"github.com/IvanShishkin/docsentry/pkg/models"
	"go.uber.org/zap"
)

// completer is the part of Client the scorer depends on
type completer interface {
	Score(ctx context.Context, features *FeatureSummary) (*ScoreResponse, error)
}

// Scorer is a learned-score provider backed by the Anthropic API
type Scorer struct {
	client  completer
	matcher *signatures.Matcher
	logger  *zap.Logger
}

// NewScorer creates a scorer from the AI configuration
func NewScorer(cfg *config.AIConfig, matcher *signatures.Matcher, logger *zap.Logger) (*Scorer, error) {
	client, err := NewClient(cfg.Model, cfg.APIToken, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return newScorer(client, matcher, logger), nil
}

func newScorer(client completer, matcher *signatures.Matcher, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{client: client, matcher: matcher, logger: logger}
}

// Score summarizes the artifact and returns the model's probability
func (s *Scorer) Score(ctx context.Context, artifact *models.FileArtifact) (float64, error) {
	features := s.Features(artifact)

	resp, err := s.client.Score(ctx, features)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Learned score",
		zap.String("file", artifact.Filename()),
		zap.Float64("probability", resp.Probability),
		zap.String("reason", resp.Reason),
		zap.Int("tokens", resp.TokensUsed))

	return resp.Probability, nil
}

// Features builds the summary sent to the model
func (s *Scorer) Features(artifact *models.FileArtifact) *FeatureSummary {
	data := artifact.View()
	text := extractor.DecodeWindow(data)
	hits := s.matcher.TokenHits(text)

	window := data
	if len(window) > heuristic.EntropyWindow {
		window = window[:heuristic.EntropyWindow]
	}

	f := &FeatureSummary{
		Filename:    artifact.Filename(),
		Family:      string(artifact.Family()),
		Subtype:     string(artifact.Subtype()),
		Size:        artifact.Size(),
		Entropy:     heuristic.NormalizedEntropy(data),
		PeakEntropy: heuristic.GetMaxChunkEntropy(window, 512),
		RuleScore:   extractor.RuleScore(len(hits)),
		TokenHits:   hits,
	}

	if _, marker, ok := s.matcher.MatchFamily(artifact.Family(), data, text); ok {
		f.StructuralMatch = marker
	}

	return f
}
