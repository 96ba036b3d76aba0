package ledger

// stateVersion identifies the snapshot layout. Snapshots written before the
// field existed carry no version and are read as version 1.
const stateVersion = 1

// State is the serializable form of a Ledger: exactly the four learning
// structures plus the layout version, as they appear on disk.
type State struct {
	Version               int                `json:"version"`
	FeedbackWeights       map[string]float64 `json:"feedback_weights"`
	ConfidenceAdjustments map[string]float64 `json:"confidence_adjustments"`
	NegativeQueries       []string           `json:"negative_feedback_queries"`
	PositiveQueries       []string           `json:"positive_feedback_queries"`
}

// Stats is the read-only feedback summary exposed to callers.
type Stats struct {
	TotalFeedback         int                `json:"total_feedback_processed"`
	PositiveCount         int                `json:"positive_count"`
	NegativeCount         int                `json:"negative_count"`
	ConfidenceAdjustments map[string]float64 `json:"confidence_adjustments"`
}
