package types

// ParsedQuery is the structured intent extracted from a free-text query.
// Immutable once parsed; absent data yields zero values, never an error.
type ParsedQuery struct {
	Count         int    `json:"count"`
	Category      string `json:"category"`
	City          string `json:"city"`
	OriginalQuery string `json:"original_query"`
}

// SearchRequest is the discover search payload.
type SearchRequest struct {
	Query    string `json:"query"`
	UserID   string `json:"userId,omitempty"`
	Language string `json:"language,omitempty"`
}

// SearchResponse is the discover search payload returned to the client.
type SearchResponse struct {
	Success        bool            `json:"success"`
	Acknowledgment string          `json:"acknowledgment"`
	Categories     []CategoryGroup `json:"categories,omitempty"`
	Places         []PlaceResult   `json:"places"`
	OverallSummary string          `json:"overall_summary"`
	QuotaRemaining int             `json:"quota_remaining"`
	Stage          string          `json:"stage"`
	Error          string          `json:"error,omitempty"`
}
