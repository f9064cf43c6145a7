// Package grid orchestrates grid sessions: the ingest pipeline (parse, derive schema,
// flatten, reconcile the column view), column edits and row expansion.
package grid

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resultgrid/internal/domain"
	"github.com/kailas-cloud/resultgrid/internal/domain/column"
	"github.com/kailas-cloud/resultgrid/internal/domain/detail"
	"github.com/kailas-cloud/resultgrid/internal/domain/envelope"
	"github.com/kailas-cloud/resultgrid/internal/domain/hit"
	"github.com/kailas-cloud/resultgrid/internal/domain/nav"
	"github.com/kailas-cloud/resultgrid/internal/domain/row"
	"github.com/kailas-cloud/resultgrid/internal/domain/session"
	"github.com/kailas-cloud/resultgrid/internal/domain/view"
	"github.com/kailas-cloud/resultgrid/internal/logger"
	"github.com/kailas-cloud/resultgrid/internal/metrics"
	"github.com/kailas-cloud/resultgrid/internal/usecase/expand"
	"github.com/kailas-cloud/resultgrid/internal/usecase/flatten"
	"github.com/kailas-cloud/resultgrid/internal/usecase/parse"
	"github.com/kailas-cloud/resultgrid/internal/usecase/schema"
)

// Edit kinds used in metrics and events.
const (
	EditReorder = "reorder"
	EditResize  = "resize"
	EditSelect  = "select"
	EditToggle  = "toggle"
	EditExpand  = "expand"
)

// Config tunes the grid pipeline.
type Config struct {
	ColumnWidth    int
	VisibleColumns int
	MaxRecords     int
	DateLayout     string
}

// Service handles grid sessions.
type Service struct {
	store      SessionStore
	cfg        Config
	formatDate flatten.DateFormatter
	logger     *zap.Logger
}

// New creates a grid service.
func New(store SessionStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.ColumnWidth <= 0 {
		cfg.ColumnWidth = view.DefaultWidth
	}
	if cfg.VisibleColumns <= 0 {
		cfg.VisibleColumns = view.DefaultVisible
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = "2006-01-02 15:04"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		cfg:        cfg,
		formatDate: flatten.Layout(cfg.DateLayout),
		logger:     logger,
	}
}

// RowView is one display row with its render metadata.
type RowView struct {
	Key        int
	PrimaryKey hit.Identifier
	Cells      map[string]row.Cell
	Spans      map[string]int
	Links      [2]nav.Link
	GroupID    *int
	Anchor     bool
	Expand     detail.Control
}

// Snapshot is the render model of a session.
type Snapshot struct {
	SessionID   string
	Filters     []string
	AllEntities bool
	Columns     []view.Column
	Tree        []view.Column
	Checked     []view.Column
	Rows        []RowView
	Records     int
	Malformed   int
}

// Create starts an empty session.
func (s *Service) Create(ctx context.Context) (Snapshot, error) {
	sess, err := s.store.Create(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("create session: %w", err)
	}
	metrics.SessionsActive.Set(float64(s.store.Len()))
	s.log(ctx).Debug("session created", zap.String("session", sess.ID()))

	sess.Lock()
	defer sess.Unlock()
	return render(sess), nil
}

// Snapshot returns the current render model. Every call is a new render pass.
func (s *Service) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	var snap Snapshot
	err := s.with(ctx, id, func(sess *session.Session) error {
		snap = render(sess)
		return nil
	})
	return snap, err
}

// Delete ends a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	metrics.SessionsActive.Set(float64(s.store.Len()))
	return nil
}

// Ingest runs a new result set through the pipeline. filters are the selected entity
// type names; none means all entity types. The column view is rebuilt in all-entities
// mode, on a filter change or when the derived schema differs; otherwise user edits
// survive and only rows are refreshed. An empty result set keeps the view unless the
// filter changed.
func (s *Service) Ingest(ctx context.Context, id string, env *envelope.Envelope, filters []string) (Snapshot, error) {
	filters = normalizeFilters(filters)
	var snap Snapshot
	err := s.with(ctx, id, func(sess *session.Session) error {
		st := sess.State()
		log := s.log(ctx).With(zap.String("session", id))

		parsed := parse.Parse(env, filters, parse.Options{MaxRecords: s.cfg.MaxRecords})
		if n := len(parsed.Malformed); n > 0 {
			metrics.MalformedRecordsTotal.Add(float64(n))
			log.Warn("malformed records rendered partially", zap.Int("count", n))
			log.Debug("malformed record uris", zap.Strings("uris", parsed.Malformed))
		}
		if parsed.Truncated {
			log.Info("result set truncated", zap.Int("max_records", s.cfg.MaxRecords))
		}

		all := len(filters) == 0
		filterChanged := st.FilterChanged(filters)

		var derived column.Schema
		switch {
		case all:
			derived = column.AllEntities()
		case len(parsed.Records) > 0:
			derived = schema.Derive(&parsed.Records[0], parsed.PrimaryKeys, parsed.EntityTitle)
		case filterChanged:
			derived = column.Schema{}
		default:
			derived = st.Schema
		}

		reason := schema.Decide(st.Schema, derived, !st.View.IsZero(), all, filterChanged)
		if reason != schema.ReasonNone {
			st.Schema = derived
			st.View = view.Default(derived, view.Options{Width: s.cfg.ColumnWidth, Visible: s.cfg.VisibleColumns})
			clear(st.Expanded)
			metrics.SchemaResetsTotal.WithLabelValues(string(reason)).Inc()
			log.Info("column view rebuilt",
				zap.String("reason", string(reason)),
				zap.Int("columns", len(derived.Leaves())),
			)
		}

		st.Filters = filters
		st.Records = parsed.Records
		st.PrimaryKeys = parsed.PrimaryKeys
		st.Malformed = len(parsed.Malformed)
		st.Rows = flatten.Rows(st.Records, st.Schema, flatten.Options{
			AllEntities: all,
			PrimaryKeys: st.PrimaryKeys,
			FormatDate:  s.formatDate,
		})
		for pk := range st.Expanded {
			if !st.HasRecord(pk) {
				delete(st.Expanded, pk)
			}
		}

		metrics.RowsFlattened.Observe(float64(len(st.Rows)))
		domain.EventFromContext(ctx).RecordIngest(string(reason), len(st.Rows), st.Malformed)
		snap = render(sess)
		return nil
	})
	return snap, err
}

// Reorder moves the rendered column at from to to. Pinned or out-of-range moves are
// stale edits: the snapshot is returned unchanged with applied=false.
func (s *Service) Reorder(ctx context.Context, id string, from, to int) (Snapshot, bool, error) {
	return s.edit(ctx, id, EditReorder, func(st *session.State) (bool, error) {
		next, ok := st.View.Reorder(from, to)
		st.View = next
		return ok, nil
	})
}

// Resize sets the width of the rendered column titled title.
func (s *Service) Resize(ctx context.Context, id, title string, width int) (Snapshot, bool, error) {
	if title == "" || width <= 0 {
		return Snapshot{}, false, fmt.Errorf("resize %q to %d: %w", title, width, domain.ErrInvalidEdit)
	}
	return s.edit(ctx, id, EditResize, func(st *session.State) (bool, error) {
		next, ok := st.View.Resize(title, width)
		st.View = next
		return ok, nil
	})
}

// Select replaces the visible column set with keys (checkbox tree selection).
func (s *Service) Select(ctx context.Context, id string, keys []string) (Snapshot, error) {
	snap, _, err := s.edit(ctx, id, EditSelect, func(st *session.State) (bool, error) {
		st.View = st.View.Select(keys)
		return true, nil
	})
	return snap, err
}

// Toggle shows or hides one column by key.
func (s *Service) Toggle(ctx context.Context, id, key string, visible bool) (Snapshot, bool, error) {
	if key == "" {
		return Snapshot{}, false, fmt.Errorf("toggle column: empty key: %w", domain.ErrInvalidEdit)
	}
	return s.edit(ctx, id, EditToggle, func(st *session.State) (bool, error) {
		next, ok := st.View.Toggle(key, visible)
		st.View = next
		return ok, nil
	})
}

// ToggleExpand flips the expanded state of the record with primary key value pk.
func (s *Service) ToggleExpand(ctx context.Context, id, pk string) (Snapshot, bool, error) {
	return s.edit(ctx, id, EditExpand, func(st *session.State) (bool, error) {
		if !st.HasRecord(pk) {
			return false, fmt.Errorf("expand %q: %w", pk, domain.ErrRecordNotFound)
		}
		if st.Expanded[pk] {
			delete(st.Expanded, pk)
		} else {
			st.Expanded[pk] = true
		}
		return true, nil
	})
}

// Detail returns the property tree of the record with primary key value pk, built fresh.
func (s *Service) Detail(ctx context.Context, id, pk string) ([]detail.Item, error) {
	var items []detail.Item
	err := s.with(ctx, id, func(sess *session.Session) error {
		var err error
		items, err = expand.Detail(sess.State().Records, pk)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("detail: %w", err)
	}
	return items, nil
}

func (s *Service) edit(
	ctx context.Context, id, kind string, fn func(st *session.State) (bool, error),
) (Snapshot, bool, error) {
	var (
		snap    Snapshot
		applied bool
	)
	err := s.with(ctx, id, func(sess *session.Session) error {
		var err error
		applied, err = fn(sess.State())
		if err != nil {
			return err
		}
		metrics.ColumnEditsTotal.WithLabelValues(kind, metrics.EditOutcome(applied)).Inc()
		domain.EventFromContext(ctx).RecordEdit(kind, applied)
		if !applied {
			s.log(ctx).Debug("stale edit ignored", zap.String("session", id), zap.String("kind", kind))
		}
		snap = render(sess)
		return nil
	})
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, applied, nil
}

// with runs fn while holding the session lock, so events of one session apply in order.
func (s *Service) with(ctx context.Context, id string, fn func(sess *session.Session) error) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	sess.Lock()
	defer sess.Unlock()
	return fn(sess)
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// render builds the render model. The expand controls come from a fresh render pass.
func render(sess *session.Session) Snapshot {
	st := sess.State()
	leaves := st.View.RenderedLeaves()
	pass := detail.NewPass(st.Expanded)

	rows := make([]RowView, len(st.Rows))
	for i := range st.Rows {
		r := &st.Rows[i]
		rv := RowView{
			Key:        r.Key,
			PrimaryKey: r.PrimaryKey,
			Cells:      make(map[string]row.Cell, len(leaves)),
			Spans:      make(map[string]int, len(leaves)),
			Links:      r.Links,
			Anchor:     r.IsAnchor(),
			Expand:     pass.Control(r),
		}
		if r.Group != nil {
			gid := r.Group.ID
			rv.GroupID = &gid
		}
		for _, c := range leaves {
			rv.Cells[c.DataKey] = r.Cell(c.DataKey)
			rv.Spans[c.DataKey] = r.Span(c.DataKey)
		}
		rows[i] = rv
	}

	return Snapshot{
		SessionID:   sess.ID(),
		Filters:     slices.Clone(st.Filters),
		AllEntities: st.AllEntities(),
		Columns:     st.View.Rendered(),
		Tree:        st.View.Tree(),
		Checked:     st.View.Checked(),
		Rows:        rows,
		Records:     len(st.Records),
		Malformed:   st.Malformed,
	}
}

func normalizeFilters(filters []string) []string {
	out := make([]string, 0, len(filters))
	for _, f := range filters {
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
