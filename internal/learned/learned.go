// Package learned is the plug-in point for optional model-based scores.
// A Table maps format families to scorers; it is filled at start-up and
// only read afterwards, so lookups need no locking.
package learned

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/IvanShishkin/docsentry/pkg/models"
)

// Wildcard registers a scorer for every family without a specific entry
const Wildcard models.Family = "*"

var (
	// ErrSealed is returned when registering into a sealed table
	ErrSealed = errors.New("learned: table is sealed")
	// ErrNotFinite is returned for a NaN or infinite score
	ErrNotFinite = errors.New("learned: score is not finite")
)

// Scorer produces a maliciousness probability for an artifact
type Scorer interface {
	Score(ctx context.Context, artifact *models.FileArtifact) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface
type ScorerFunc func(ctx context.Context, artifact *models.FileArtifact) (float64, error)

// Score calls f
func (f ScorerFunc) Score(ctx context.Context, artifact *models.FileArtifact) (float64, error) {
	return f(ctx, artifact)
}

// Result is the explicit outcome of consulting the table
type Result struct {
	Score     float64
	Available bool
	Err       error
}

// Value returns a pointer to the score when available, else nil
func (r Result) Value() *float64 {
	if !r.Available {
		return nil
	}
	v := r.Score
	return &v
}

// Table is the capability lookup keyed by format family
type Table struct {
	scorers map[models.Family]Scorer
	sealed  bool
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{scorers: make(map[models.Family]Scorer)}
}

// Register binds a scorer to a family
func (t *Table) Register(family models.Family, s Scorer) error {
	if t.sealed {
		return ErrSealed
	}
	t.scorers[family] = s
	return nil
}

// Seal makes the table read-only
func (t *Table) Seal() *Table {
	t.sealed = true
	return t
}

// Lookup returns the scorer for family, falling back to the wildcard entry
func (t *Table) Lookup(family models.Family) (Scorer, bool) {
	if t == nil {
		return nil, false
	}
	if s, ok := t.scorers[family]; ok {
		return s, true
	}
	s, ok := t.scorers[Wildcard]
	return s, ok
}

// Len returns the number of registered entries
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.scorers)
}

// Consult asks the scorer for the artifact's family. A missing scorer is a
// normal outcome; a failing or panicking scorer is reported through Err and
// never stops the scan.
func Consult(ctx context.Context, t *Table, artifact *models.FileArtifact) (res Result) {
	s, ok := t.Lookup(artifact.Family())
	if !ok || s == nil {
		return Result{}
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("learned scorer panic: %v", r)}
		}
	}()

	score, err := s.Score(ctx, artifact)
	if err != nil {
		return Result{Err: fmt.Errorf("learned scorer failed: %w", err)}
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return Result{Err: fmt.Errorf("learned scorer failed: %w: %v", ErrNotFinite, score)}
	}

	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	return Result{Score: score, Available: true}
}
