package domain

import "context"

type gridEventKey struct{}

// GridEvent collects what one request did to a grid session.
// The handler puts a mutable pointer into the context before calling the service;
// the service fills it in; the handler reads it for response headers and the request log.
type GridEvent struct {
	Reset     string // reason the column view was rebuilt, "" if kept
	Rows      int
	Malformed int
	Edit      string
	Applied   bool
}

// NewContextWithEvent returns a context with an embedded grid event collector.
func NewContextWithEvent(ctx context.Context) (context.Context, *GridEvent) {
	e := &GridEvent{}
	return context.WithValue(ctx, gridEventKey{}, e), e
}

// EventFromContext extracts the grid event collector from context. Returns nil if not set.
func EventFromContext(ctx context.Context) *GridEvent {
	e, _ := ctx.Value(gridEventKey{}).(*GridEvent)
	return e
}

// RecordIngest records the outcome of an ingest.
func (e *GridEvent) RecordIngest(reset string, rows, malformed int) {
	if e != nil {
		e.Reset = reset
		e.Rows = rows
		e.Malformed = malformed
	}
}

// RecordEdit records the outcome of a column or row edit.
func (e *GridEvent) RecordEdit(kind string, applied bool) {
	if e != nil {
		e.Edit = kind
		e.Applied = applied
	}
}
