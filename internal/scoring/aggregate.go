// Package scoring combines the extractor signals into one calibrated risk
// score. The weights are fixed; changing any of them changes verdicts.
package scoring

import (
	"math"

	"github.com/IvanShishkin/docsentry/pkg/models"
)

// Per-family bias added to the tree-like component
const (
	BiasPDF   = 0.05
	BiasRTF   = 0.05
	BiasOOXML = 0.08
)

// Component weights
const (
	TreeEntropyWeight = 0.5
	TreeRulesWeight   = 0.7

	EnsembleTreeWeight    = 0.6
	EnsembleEntropyWeight = 0.4

	DeepEntropyWeight = 0.5
	DeepRulesWeight   = 0.6

	MetaTreeWeight     = 0.25
	MetaEnsembleWeight = 0.35
	MetaDeepWeight     = 0.3
	MetaRulesWeight    = 0.1

	BlendMetaWeight    = 0.7
	BlendLearnedWeight = 0.3
)

// Score is the full breakdown of one aggregation
type Score struct {
	Tree     float64
	Ensemble float64
	Deep     float64
	Meta     float64
	Learned  *float64
	Risk     float64
	Verdict  models.Verdict
}

// Clamp bounds v to [0,1]. NaN maps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TypeBias returns the bias for a format family
func TypeBias(family models.Family) float64 {
	switch family {
	case models.FamilyPDF:
		return BiasPDF
	case models.FamilyRTF:
		return BiasRTF
	case models.FamilyOOXML:
		return BiasOOXML
	default:
		return 0
	}
}

// Aggregate computes the risk for the given entropy and rule signals. A nil
// learned score leaves the meta score as the risk.
func Aggregate(entropy, rules float64, family models.Family, learned *float64) Score {
	entropy = Clamp(entropy)
	rules = Clamp(rules)

	var s Score
	s.Tree = Clamp(TreeEntropyWeight*entropy + TreeRulesWeight*rules + TypeBias(family))
	s.Ensemble = Clamp(EnsembleTreeWeight*s.Tree + EnsembleEntropyWeight*entropy)
	s.Deep = Clamp(DeepEntropyWeight*entropy + DeepRulesWeight*rules)
	s.Meta = Clamp(MetaTreeWeight*s.Tree + MetaEnsembleWeight*s.Ensemble + MetaDeepWeight*s.Deep + MetaRulesWeight*rules)

	s.Risk = s.Meta
	if learned != nil {
		l := Clamp(*learned)
		s.Learned = &l
		s.Risk = Clamp(BlendMetaWeight*s.Meta + BlendLearnedWeight*l)
	}

	s.Verdict = models.VerdictFor(s.Risk)
	return s
}

// Signals merges the aggregation components into the base signal set
func (s Score) Signals(base models.SignalSet) models.SignalSet {
	out := base.Clone()
	out[models.SignalTree] = s.Tree
	out[models.SignalEnsemble] = s.Ensemble
	out[models.SignalDeep] = s.Deep
	out[models.SignalMeta] = s.Meta
	if s.Learned != nil {
		out[models.SignalLearned] = *s.Learned
	}
	return out
}
