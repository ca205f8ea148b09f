package model

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListResponse is the standard envelope for list endpoints.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}
