package orchestrator

import "fmt"

// SchemaLoadError reports that a form could not be shown because its schema
// failed to load. Err is typically transport.ErrNotFound or a
// *transport.NetworkError.
type SchemaLoadError struct {
	FormID string
	Err    error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("orchestrator: load schema %q: %v", e.FormID, e.Err)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Err
}
