package learned

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/IvanShishkin/docsentry/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constScorer(v float64) Scorer {
	return ScorerFunc(func(context.Context, *models.FileArtifact) (float64, error) {
		return v, nil
	})
}

func TestConsult_NoScorer(t *testing.T) {
	res := Consult(context.Background(), NewTable(), models.NewArtifact([]byte("x"), "a.pdf", ""))
	assert.False(t, res.Available)
	assert.NoError(t, res.Err)
	assert.Nil(t, res.Value())
}

func TestConsult_NilTable(t *testing.T) {
	res := Consult(context.Background(), nil, models.NewArtifact([]byte("x"), "a.pdf", ""))
	assert.False(t, res.Available)
	assert.NoError(t, res.Err)
}

func TestConsult_FamilyAndWildcard(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Register(models.FamilyPDF, constScorer(0.9)))
	require.NoError(t, table.Register(Wildcard, constScorer(0.1)))
	table.Seal()

	pdf := Consult(context.Background(), table, models.NewArtifact([]byte("x"), "a.pdf", ""))
	require.True(t, pdf.Available)
	assert.Equal(t, 0.9, pdf.Score)

	rtf := Consult(context.Background(), table, models.NewArtifact([]byte("x"), "a.rtf", ""))
	require.True(t, rtf.Available)
	assert.Equal(t, 0.1, rtf.Score)
	assert.Equal(t, 0.1, *rtf.Value())
}

func TestConsult_Clamps(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Register(Wildcard, constScorer(3)))

	res := Consult(context.Background(), table, models.NewArtifact(nil, "a.bin", ""))
	assert.Equal(t, 1.0, res.Score)
}

func TestConsult_NonFiniteIsAnError(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		table := NewTable()
		require.NoError(t, table.Register(Wildcard, constScorer(v)))

		res := Consult(context.Background(), table, models.NewArtifact(nil, "a.pdf", ""))
		assert.False(t, res.Available, "score %v", v)
		assert.Nil(t, res.Value(), "score %v", v)
		assert.ErrorIs(t, res.Err, ErrNotFinite, "score %v", v)
	}
}

func TestConsult_ErrorAndPanic(t *testing.T) {
	failing := NewTable()
	require.NoError(t, failing.Register(Wildcard, ScorerFunc(func(context.Context, *models.FileArtifact) (float64, error) {
		return 0, errors.New("model offline")
	})))

	res := Consult(context.Background(), failing, models.NewArtifact(nil, "a.pdf", ""))
	assert.False(t, res.Available)
	assert.ErrorContains(t, res.Err, "model offline")

	panicking := NewTable()
	require.NoError(t, panicking.Register(Wildcard, ScorerFunc(func(context.Context, *models.FileArtifact) (float64, error) {
		panic("boom")
	})))

	res = Consult(context.Background(), panicking, models.NewArtifact(nil, "a.pdf", ""))
	assert.False(t, res.Available)
	assert.ErrorContains(t, res.Err, "boom")
}

func TestTable_Sealed(t *testing.T) {
	table := NewTable().Seal()
	assert.ErrorIs(t, table.Register(models.FamilyPDF, constScorer(0)), ErrSealed)
	assert.Equal(t, 0, table.Len())
}
