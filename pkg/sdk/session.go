package resultgrid

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/resultgrid/internal/domain/envelope"
)

// Session is a handle to one grid session. Calls on the same session are
// applied one at a time, in arrival order.
type Session struct {
	id   string
	grid gridUseCase
	obs  *observer
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Ingest replaces the result set with a raw search envelope. entities are the
// selected entity types; none means all entity types.
func (s *Session) Ingest(ctx context.Context, data []byte, entities ...string) (_ View, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ingest", s.id, start, err) }()

	env, err := envelope.Decode(data)
	if err != nil {
		return View{}, fmt.Errorf("ingest: %w", err)
	}
	snap, err := s.grid.Ingest(ctx, s.id, &env, entities)
	if err != nil {
		return View{}, fmt.Errorf("ingest: %w", err)
	}
	return fromSnapshot(&snap), nil
}

// View renders the current state of the session.
func (s *Session) View(ctx context.Context) (_ View, err error) {
	start := time.Now()
	defer func() { s.obs.observe("view", s.id, start, err) }()

	snap, err := s.grid.Snapshot(ctx, s.id)
	if err != nil {
		return View{}, fmt.Errorf("view: %w", err)
	}
	return fromSnapshot(&snap), nil
}

// Reorder moves the rendered column at index from to index to.
// applied is false when the move was ignored (pinned or out of range).
func (s *Session) Reorder(ctx context.Context, from, to int) (_ View, applied bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("reorder", s.id, start, err) }()

	snap, applied, err := s.grid.Reorder(ctx, s.id, from, to)
	if err != nil {
		return View{}, false, fmt.Errorf("reorder: %w", err)
	}
	return fromSnapshot(&snap), applied, nil
}

// Resize sets the width of the rendered column titled title.
func (s *Session) Resize(ctx context.Context, title string, width int) (_ View, applied bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("resize", s.id, start, err) }()

	snap, applied, err := s.grid.Resize(ctx, s.id, title, width)
	if err != nil {
		return View{}, false, fmt.Errorf("resize: %w", err)
	}
	return fromSnapshot(&snap), applied, nil
}

// Select replaces the visible columns with keys. A group key selects all its children.
func (s *Session) Select(ctx context.Context, keys ...string) (_ View, err error) {
	start := time.Now()
	defer func() { s.obs.observe("select", s.id, start, err) }()

	if keys == nil {
		keys = []string{}
	}
	snap, err := s.grid.Select(ctx, s.id, keys)
	if err != nil {
		return View{}, fmt.Errorf("select: %w", err)
	}
	return fromSnapshot(&snap), nil
}

// Toggle shows or hides one column by key.
func (s *Session) Toggle(ctx context.Context, key string, visible bool) (_ View, applied bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("toggle", s.id, start, err) }()

	snap, applied, err := s.grid.Toggle(ctx, s.id, key, visible)
	if err != nil {
		return View{}, false, fmt.Errorf("toggle: %w", err)
	}
	return fromSnapshot(&snap), applied, nil
}

// ToggleExpand expands or collapses the record with primary key value pk.
func (s *Session) ToggleExpand(ctx context.Context, pk string) (_ View, applied bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("expand", s.id, start, err) }()

	snap, applied, err := s.grid.ToggleExpand(ctx, s.id, pk)
	if err != nil {
		return View{}, false, fmt.Errorf("toggle expand: %w", err)
	}
	return fromSnapshot(&snap), applied, nil
}

// Detail returns the property tree of the record with primary key value pk.
func (s *Session) Detail(ctx context.Context, pk string) (_ []DetailItem, err error) {
	start := time.Now()
	defer func() { s.obs.observe("detail", s.id, start, err) }()

	items, err := s.grid.Detail(ctx, s.id, pk)
	if err != nil {
		return nil, fmt.Errorf("detail: %w", err)
	}
	return fromDetail(items), nil
}

// Close ends the session.
func (s *Session) Close(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("close", s.id, start, err) }()

	if err = s.grid.Delete(ctx, s.id); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}
