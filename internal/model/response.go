package model

// Page is a zero-based page of results with the total-count metadata the web
// client needs to render pagination controls.
type Page[T any] struct {
	Content          []T   `json:"content"`
	Number           int   `json:"number"`
	Size             int   `json:"size"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	NumberOfElements int   `json:"numberOfElements"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	Empty            bool  `json:"empty"`
}

// NewPage assembles a Page from one slice of content and the total row count.
func NewPage[T any](content []T, number, size int, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &Page[T]{
		Content:          content,
		Number:           number,
		Size:             size,
		TotalElements:    total,
		TotalPages:       totalPages,
		NumberOfElements: len(content),
		First:            number == 0,
		Last:             number >= totalPages-1,
		Empty:            len(content) == 0,
	}
}

// StatusResponse is the {status, message} envelope used by the password
// endpoints.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LoginResponse is the body returned by the login endpoint, for both success
// and failure.
type LoginResponse struct {
	Status              string  `json:"status"`
	Token               *string `json:"token"`
	Role                *string `json:"role"`
	AdminID             *string `json:"adminId"`
	NeedsPasswordChange bool    `json:"needsPasswordChange"`
	Message             string  `json:"message"`
}

// ImportResponse wraps the per-row outcomes of a bulk upload.
type ImportResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Results []ImportOutcome `json:"results"`
}

// ErrorResponse is the {error} envelope used for upload failures and for
// middleware-level rejections.
type ErrorResponse struct {
	Error string `json:"error"`
}
