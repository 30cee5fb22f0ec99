// Package store adapts external record stores to the repeat sync.
package store

import (
	"context"
	"fmt"
	"strings"

	"repeat-task-service/internal/repeat-manager/recurrence"
)

// RecordStore is where templates are read from and instances are created.
type RecordStore interface {
	// QueryTemplates returns every record flagged as a repeat template.
	// Records that cannot be read are left out and reported in a
	// RecordErrors returned next to the readable ones.
	QueryTemplates(ctx context.Context) ([]recurrence.Record, error)
	// CreateInstance creates a new record from props and returns its id.
	CreateInstance(ctx context.Context, props recurrence.Properties) (string, error)
}

// APIError is a non-2xx answer from a remote record store.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("record store returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("record store returned status %d (%s): %s", e.Status, e.Code, e.Message)
}

// RecordErrors lists stored records that could not be read. A store returns
// it together with the records it did read.
type RecordErrors []error

func (e RecordErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d unreadable records: %s", len(e), strings.Join(msgs, "; "))
}

func (e RecordErrors) Unwrap() []error { return e }
