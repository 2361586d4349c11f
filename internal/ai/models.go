package ai

// FeatureSummary is the compact description of a document sent to the
// model. It never carries document content.
type FeatureSummary struct {
	Filename        string   `json:"filename"`
	Family          string   `json:"family"`
	Subtype         string   `json:"subtype,omitempty"`
	Size            int      `json:"size"`
	Entropy         float64  `json:"entropy"`
	PeakEntropy     float64  `json:"peak_chunk_entropy"`
	RuleScore       float64  `json:"rule_score"`
	TokenHits       []string `json:"token_hits,omitempty"`
	StructuralMatch string   `json:"structural_marker,omitempty"`
}

// ScoreResponse is the model's probability estimate
type ScoreResponse struct {
	Probability float64 `json:"probability"`
	Reason      string  `json:"reason"`
	TokensUsed  int     `json:"tokens_used"`
}

// CostEstimate contains the estimated cost of scoring a batch
type CostEstimate struct {
	Model            string
	Documents        int
	EstimatedTokens  int
	EstimatedCostUSD float64
}

// TokenPricing contains pricing per million tokens for each model
type TokenPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// ModelPricing returns pricing for a model
func ModelPricing(model string) TokenPricing {
	switch model {
	case "haiku", "claude-3-haiku", "claude-3-5-haiku-latest":
		return TokenPricing{InputPerMillion: 0.25, OutputPerMillion: 1.25}
	case "opus", "claude-3-opus":
		return TokenPricing{InputPerMillion: 15.0, OutputPerMillion: 75.0}
	default: // sonnet
		return TokenPricing{InputPerMillion: 3.0, OutputPerMillion: 15.0}
	}
}

// EstimateCost calculates the estimated cost of scoring documents
func EstimateCost(model string, documents int) *CostEstimate {
	const (
		inputTokens  = 650 // system + feature summary
		outputTokens = 60  // response
	)

	pricing := ModelPricing(model)
	in := float64(documents * inputTokens)
	out := float64(documents * outputTokens)

	return &CostEstimate{
		Model:            model,
		Documents:        documents,
		EstimatedTokens:  documents * (inputTokens + outputTokens),
		EstimatedCostUSD: (in/1_000_000)*pricing.InputPerMillion + (out/1_000_000)*pricing.OutputPerMillion,
	}
}
