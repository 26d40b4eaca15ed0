// Package transport defines the collaborators a form talks to: a schema source
// and a submission endpoint, together with the errors they report. HTTPClient
// speaks the archetype backend API; DirFetcher serves schemas from files.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/values"
)

// ErrNotFound reports that the schema source has no form for the identifier.
var ErrNotFound = errors.New("transport: form not found")

// SchemaFetcher resolves form identifiers into schemas.
type SchemaFetcher interface {
	FetchSchema(ctx context.Context, formID string) (model.Schema, error)
}

// SchemaFetcherFunc adapts a function into a SchemaFetcher.
type SchemaFetcherFunc func(ctx context.Context, formID string) (model.Schema, error)

// FetchSchema calls fn.
func (fn SchemaFetcherFunc) FetchSchema(ctx context.Context, formID string) (model.Schema, error) {
	return fn(ctx, formID)
}

// Submitter delivers a completed value tree. The tree is sent unmodified;
// subject identifies who the record is about and may be empty.
type Submitter interface {
	Submit(ctx context.Context, formID string, tree values.Tree, subject string) (Result, error)
}

// Result is the acknowledgement of a stored submission.
type Result struct {
	RecordID string `json:"record_id"`
	FormID   string `json:"archetype_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
}

// NetworkError wraps transport failures and unexpected responses.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("transport: %s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("transport: %s %s: status %d", e.Op, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("transport: %s %s: %v", e.Op, e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// SubmissionError is returned when the submission endpoint refuses a tree.
// Fields carries the messages the backend keyed by field path, if any.
type SubmissionError struct {
	Status      int
	Description string
	Fields      map[string][]string
}

func (e *SubmissionError) Error() string {
	if e.Status == 0 {
		return "transport: submission failed: " + e.Description
	}
	return fmt.Sprintf("transport: submission failed (status %d): %s", e.Status, e.Description)
}
