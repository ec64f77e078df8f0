package models

// RefreshRequest asks for a cached analysis to be dropped and recomputed.
// An empty Mode drops both modes and recomputes the full analysis.
type RefreshRequest struct {
	Symbol string `json:"symbol"`
	Mode   string `json:"mode,omitempty"`
}
