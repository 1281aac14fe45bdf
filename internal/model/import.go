package model

// Import outcome statuses.
const (
	ImportSuccess = "success"
	ImportSkipped = "skipped"
	ImportError   = "error"
)

// ImportOutcome records what happened to a single row of a bulk admin import.
// Row is the 1-based line number in the source sheet (the header is line 1).
type ImportOutcome struct {
	Row     int    `json:"row"`
	Status  string `json:"status"`
	AdminID string `json:"adminId,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}
