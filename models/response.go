package models

import "encoding/json"

const (
	ResponseSuccess = "success"
	ResponseError   = "error"
)

// Pagination describes the page a list response holds
type Pagination struct {
	CurrentPage      int `json:"current_page"`
	StandardPageSize int `json:"standard_page_size"`
	TotalPages       int `json:"total_pages"`
}

type Summary struct {
	ActiveCount int64 `json:"active_count"`
}

// Envelope is the JSON body every API response is wrapped in. Data holds
// the payload on success and the error list otherwise.
type Envelope struct {
	Status     string
	HTTPStatus int
	Data       any
	Message    string
	Pagination *Pagination
	Summary    *Summary
}

// EnvelopeOption adds optional sections to an Envelope
type EnvelopeOption func(*Envelope)

func WithPagination(currentPage, pageSize, totalPages int) EnvelopeOption {
	return func(e *Envelope) {
		e.Pagination = &Pagination{CurrentPage: currentPage, StandardPageSize: pageSize, TotalPages: totalPages}
	}
}

func WithSummary(activeCount int64) EnvelopeOption {
	return func(e *Envelope) {
		e.Summary = &Summary{ActiveCount: activeCount}
	}
}

// Responsify wraps data in an Envelope. Statuses below 400 produce a
// success envelope carrying data; anything else an error envelope where
// data is the list of errors.
func Responsify(data any, message string, httpStatus int, opts ...EnvelopeOption) *Envelope {
	e := &Envelope{
		Status:     ResponseSuccess,
		HTTPStatus: httpStatus,
		Data:       data,
		Message:    message,
	}
	if httpStatus >= 400 {
		e.Status = ResponseError
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Envelope) MarshalJSON() ([]byte, error) {
	var message any
	if e.Message != "" {
		message = e.Message
	}

	body := map[string]any{
		"status":      e.Status,
		"http_status": e.HTTPStatus,
		"message":     message,
	}
	if e.Status == ResponseError {
		body["errors"] = e.Data
	} else {
		body["data"] = e.Data
	}
	if e.Pagination != nil {
		body["pagination"] = e.Pagination
	}
	if e.Summary != nil {
		body["summary"] = e.Summary
	}
	return json.Marshal(body)
}

// UploadedFile describes a file stored under the upload folder
type UploadedFile struct {
	OriginalName string `json:"original_name"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Path         string `json:"path"`
}
