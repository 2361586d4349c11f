package models

// SignalName identifies one numeric signal of a scan
type SignalName string

const (
	SignalEntropy  SignalName = "entropy"
	SignalRules    SignalName = "rules"
	SignalTree     SignalName = "tree"
	SignalEnsemble SignalName = "ensemble"
	SignalDeep     SignalName = "deep"
	SignalLearned  SignalName = "learned"
	SignalMeta     SignalName = "meta"
)

// SignalSet maps signal names to values in [0,1]
type SignalSet map[SignalName]float64

// Get returns the value of name and whether it is present
func (s SignalSet) Get(name SignalName) (float64, bool) {
	v, ok := s[name]
	return v, ok
}

// Clone returns an independent copy
func (s SignalSet) Clone() SignalSet {
	out := make(SignalSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Verdict is the binary classification of a scan
type Verdict string

const (
	VerdictBenign    Verdict = "benign"
	VerdictMalicious Verdict = "malicious"
)

// MaliciousThreshold is the risk at or above which a file is malicious
const MaliciousThreshold = 0.5

// VerdictFor applies the decision threshold to a risk score
func VerdictFor(risk float64) Verdict {
	if risk >= MaliciousThreshold {
		return VerdictMalicious
	}
	return VerdictBenign
}
