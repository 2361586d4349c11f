package sanitize

import (
	"fmt"

	"github.com/IvanShishkin/docsentry/pkg/models"
	"go.uber.org/zap"
)

// Dispatcher routes artifacts to format engines and never fails
type Dispatcher struct {
	registry *Registry
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over registry
func NewDispatcher(registry *Registry, logger *zap.Logger) *Dispatcher {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Registry returns the capability table
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// CleanFilename is the name given to the sanitized copy of an artifact
func CleanFilename(original *models.FileArtifact) string {
	name := original.SHA256() + "_clean"
	if ext := original.Extension(); ext != "" {
		name += "." + ext
	}
	return name
}

// Sanitize runs the engine registered for the artifact's extension.
// Unsupported types pass through untouched without error. Engine errors,
// panics and empty output yield a byte-identical copy with Error set.
// Changed is always derived from the content hashes.
func (d *Dispatcher) Sanitize(original *models.FileArtifact) *models.SanitizationOutcome {
	engine, ok := d.registry.Lookup(original.Extension())
	if !ok {
		return d.outcome(original, original.View(), EnginePassthrough, nil, []string{NoteUnsupported}, nil)
	}

	res, err := d.run(engine, original.Bytes())
	if err == nil && (res == nil || len(res.Data) == 0) {
		err = ErrEmptyOutput
	}
	if err != nil {
		d.logger.Warn("Sanitizer failed, keeping original",
			zap.String("engine", engine.Name()),
			zap.String("file", original.Filename()),
			zap.Error(err))
		return d.outcome(original, original.View(), engine.Name(), nil, nil, err)
	}

	return d.outcome(original, res.Data, engine.Name(), res.Removed, res.Notes, nil)
}

// run calls the engine, converting a panic into an error
func (d *Dispatcher) run(engine Sanitizer, data []byte) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%s sanitizer panic: %v", engine.Name(), r)
		}
	}()
	return engine.Sanitize(data)
}

func (d *Dispatcher) outcome(original *models.FileArtifact, data []byte, engine string, removed, notes []string, err error) *models.SanitizationOutcome {
	clean := models.NewArtifact(data, CleanFilename(original), original.MediaType())

	out := &models.SanitizationOutcome{
		Artifact: clean,
		Engine:   engine,
		Removed:  dedupe(removed),
		Notes:    notes,
		Changed:  clean.SHA256() != original.SHA256(),
		SHA256:   clean.SHA256(),
	}
	if err != nil {
		out.Error = err.Error()
		out.Removed = []string{}
	}
	return out
}
