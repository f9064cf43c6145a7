package grid

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/resultgrid/internal/domain"
	"github.com/kailas-cloud/resultgrid/internal/domain/envelope"
	"github.com/kailas-cloud/resultgrid/internal/domain/session"
	"github.com/kailas-cloud/resultgrid/internal/domain/view"
)

// --- Mocks ---

type mockStore struct {
	sessions map[string]*session.Session
	next     int
	err      error
}

func newMockStore() *mockStore {
	return &mockStore{sessions: make(map[string]*session.Session)}
}

func (m *mockStore) Create(_ context.Context) (*session.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.next++
	s := session.New(fmt.Sprintf("s-%d", m.next), time.Now())
	m.sessions[s.ID()] = s
	return s, nil
}

func (m *mockStore) Get(_ context.Context, id string) (*session.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockStore) Len() int { return len(m.sessions) }

// --- Fixtures ---

func customers(t *testing.T, props ...string) *envelope.Envelope {
	t.Helper()
	env := &envelope.Envelope{
		EntityDefinitions: []envelope.EntityDefinition{{Name: "Customer", PrimaryKey: "customerId"}},
	}
	for i, p := range props {
		id := fmt.Sprint(i + 1)
		env.Results = append(env.Results, envelope.Hit{
			URI:              "/customers/" + id + ".json",
			Format:           "json",
			CreatedOn:        "2020-05-01T10:00:00Z",
			PrimaryKey:       &envelope.PrimaryKey{PropertyPath: "customerId", PropertyValue: []byte(id)},
			EntityName:       "Customer",
			EntityProperties: []byte(`{"Customer": ` + p + `}`),
		})
	}
	return env
}

const wide = `{"name": "Ann", "email": "a@x", "phone": "1", "city": "Oslo", "zip": "0150", "customerId": 1, "status": "gold"}`

func setup(t *testing.T) (*Service, string) {
	t.Helper()
	svc := New(newMockStore(), Config{}, nil)
	snap, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return svc, snap.SessionID
}

func titles(cols []view.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Title
	}
	return out
}

// --- Tests ---

func TestIngest_AllEntities(t *testing.T) {
	svc, id := setup(t)
	ctx, ev := domain.NewContextWithEvent(context.Background())

	snap, err := svc.Ingest(ctx, id, customers(t, wide, wide), nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	want := []string{"Identifier", "Entity", "File Type", "Created", "Detail View"}
	if diff := cmp.Diff(want, titles(snap.Columns)); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if !snap.AllEntities || len(snap.Rows) != 2 {
		t.Errorf("all=%v rows=%d", snap.AllEntities, len(snap.Rows))
	}
	if got := snap.Rows[0].Cells["created"].Text; got != "2020-05-01 10:00" {
		t.Errorf("created = %q", got)
	}
	if ev.Reset != "all_entities" || ev.Rows != 2 {
		t.Errorf("event = %+v", ev)
	}
}

func TestIngest_FilterSwitchResetsView(t *testing.T) {
	svc, id := setup(t)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, id, customers(t, wide), nil); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Resize(ctx, id, "Entity", 400); err != nil {
		t.Fatal(err)
	}

	snap, err := svc.Ingest(ctx, id, customers(t, wide), []string{"Customer"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"customerId", "name", "email", "phone", "city"}
	if diff := cmp.Diff(want, titles(snap.Columns)); diff != "" {
		t.Errorf("rendered mismatch (-want +got):\n%s", diff)
	}
	if len(snap.Tree) != 7 {
		t.Errorf("tree len = %d, want 7", len(snap.Tree))
	}
	for _, c := range snap.Columns {
		if c.Width != view.DefaultWidth {
			t.Errorf("%s width = %d, customization should be discarded", c.Title, c.Width)
		}
	}
}

func TestIngest_SameSchemaKeepsEdits(t *testing.T) {
	svc, id := setup(t)
	ctx := context.Background()
	filter := []string{"Customer"}

	if _, err := svc.Ingest(ctx, id, customers(t, wide), filter); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := svc.Resize(ctx, id, "email", 220); !ok {
		t.Fatal("resize should apply")
	}
	if _, ok, _ := svc.Reorder(ctx, id, 1, 3); !ok {
		t.Fatal("reorder should apply")
	}
	before, _ := svc.Snapshot(ctx, id)

	next := `{"name": "Bob", "email": "b@x", "phone": "2", "city": "Bergen", "zip": "5003", "customerId": 2, "status": "new"}`
	ctxEv, ev := domain.NewContextWithEvent(ctx)
	after, err := svc.Ingest(ctxEv, id, customers(t, next, next), filter)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before.Columns, after.Columns); diff != "" {
		t.Errorf("column view should survive a refresh (-before +after):\n%s", diff)
	}
	if len(after.Rows) != 2 || after.Rows[0].Cells["name"].Text != "Bob" {
		t.Errorf("rows not refreshed: %+v", after.Rows)
	}
	if ev.Reset != "" {
		t.Errorf("reset = %q, want none", ev.Reset)
	}
}

func TestIngest_SchemaChangeResets(t *testing.T) {
	svc, id := setup(t)
	ctx := context.Background()
	filter := []string{"Customer"}

	_, _ = svc.Ingest(ctx, id, customers(t, `{"customerId": 1, "name": "Ann"}`), filter)
	_, _, _ = svc.Resize(ctx, id, "name", 300)

	ctxEv, ev := domain.NewContextWithEvent(ctx)
	snap, err := svc.Ingest(ctxEv, id, customers(t, `{"customerId": 1, "name": "Ann", "age": 3}`), filter)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Reset != "schema_changed" {
		t.Errorf("reset = %q, want schema_changed", ev.Reset)
	}
	if snap.Columns[1].Width != view.DefaultWidth || len(snap.Columns) != 3 {
		t.Errorf("columns = %+v", snap.Columns)
	}
}

func TestIngest_EmptyResultSet(t *testing.T) {
	svc, id := setup(t)
	ctx := context.Background()

	_, _ = svc.Ingest(ctx, id, customers(t, wide), []string{"Customer"})
	kept, err := svc.Ingest(ctx, id, customers(t), []string{"Customer"})
	if err != nil {
		t.Fatal(err)
	}
	if len(kept.Columns) != 5 || len(kept.Rows) != 0 {
		t.Errorf("empty refresh should keep columns and clear rows: cols=%d rows=%d",
			len(kept.Columns), len(kept.Rows))
	}

	other, _ := svc.Ingest(ctx, id, customers(t), []string{"Order"})
	if len(other.Columns) != 0 {
		t.Errorf("filter change with no results should reset to an empty view, got %v", titles(other.Columns))
	}
}

func TestEdits_StaleAndInvalid(t *testing.T) {
	svc, id := setup(t)
	ctx := context.Background()
	base, _ := svc.Ingest(ctx, id, customers(t, wide), []string{"Customer"})

	snap, ok, err := svc.Reorder(ctx, id, 0, 2)
	if err != nil || ok {
		t.Errorf("pinned reorder: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(base.Columns, snap.Columns); diff != "" {
		t.Errorf("pinned reorder changed columns:\n%s", diff)
	}

	if _, ok, err := svc.Resize(ctx, id, "status", 100); err != nil || ok {
		t.Errorf("hidden column resize: ok=%v err=%v", ok, err)
	}
	if _, _, err := svc.Resize(ctx, id, "name", 0); !errors.Is(err, domain.ErrInvalidEdit) {
		t.Errorf("expected ErrInvalidEdit, got %v", err)
	}
	if _, _, err := svc.Toggle(ctx, id, "", true); !errors.Is(err, domain.ErrInvalidEdit) {
		t.Errorf("expected ErrInvalidEdit, got %v", err)
	}
}

func TestToggleAndSelect(t *testing.T) {
	svc, id := setup(t)
	ctx := context.Background()
	base, _ := svc.Ingest(ctx, id, customers(t, wide), []string{"Customer"})

	hidden, ok, err := svc.Toggle(ctx, id, base.Columns[2].Key, false)
	if err != nil || !ok {
		t.Fatalf("toggle: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]string{"customerId", "name", "phone", "city"}, titles(hidden.Columns)); diff != "" {
		t.Errorf("rendered mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(base.Tree, hidden.Tree); diff != "" {
		t.Errorf("tree should be untouched:\n%s", diff)
	}
	if _, ok := hidden.Rows[0].Cells["email"]; ok {
		t.Error("hidden column should not be rendered in rows")
	}

	sel, err := svc.Select(ctx, id, []string{base.Tree[0].Key, base.Tree[6].Key})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"customerId", "status"}, titles(sel.Columns)); diff != "" {
		t.Errorf("selected mismatch (-want +got):\n%s", diff)
	}
}

const nested = `{
	"customerId": 1,
	"name": "Ann",
	"addresses": [
		{"Address": {"street": "Main", "city": "Oslo"}},
		{"Address": {"street": "Side", "city": "Bergen"}},
		{"Address": {"street": "Back", "city": "Tromso"}}
	]
}`

func TestExpandControls(t *testing.T) {
	svc, id := setup(t)
	ctx := context.Background()

	snap, err := svc.Ingest(ctx, id, customers(t, nested), []string{"Customer"})
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(snap.Rows))
	}
	wantSpan := []int{3, 0, 0}
	for i, r := range snap.Rows {
		if r.Spans["addresses.city"] != wantSpan[i] || r.Spans["name"] != 1 {
			t.Errorf("row %d spans = %v", i, r.Spans)
		}
		if r.Expand.Show != (i == 0) {
			t.Errorf("row %d expand show = %v", i, r.Expand.Show)
		}
		if r.GroupID == nil || *r.GroupID != 0 {
			t.Errorf("row %d group = %v", i, r.GroupID)
		}
	}

	snap, ok, err := svc.ToggleExpand(ctx, id, "1")
	if err != nil || !ok {
		t.Fatalf("expand: ok=%v err=%v", ok, err)
	}
	if !snap.Rows[0].Expand.Expanded || snap.Rows[1].Expand.Show {
		t.Errorf("controls after expand = %+v / %+v", snap.Rows[0].Expand, snap.Rows[1].Expand)
	}

	// Collapse and re-expand: every snapshot is a fresh pass, the last toggle wins.
	_, _, _ = svc.ToggleExpand(ctx, id, "1")
	snap, _, _ = svc.ToggleExpand(ctx, id, "1")
	if !snap.Rows[0].Expand.Expanded {
		t.Error("re-expanded row should be expanded")
	}

	if _, _, err := svc.ToggleExpand(ctx, id, "404"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestDetail(t *testing.T) {
	svc, id := setup(t)
	ctx := context.Background()
	_, _ = svc.Ingest(ctx, id, customers(t, nested), []string{"Customer"})

	items, err := svc.Detail(ctx, id, "1")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 || items[2].Property != "addresses" || len(items[2].Children) != 3 {
		t.Errorf("detail = %+v", items)
	}
	if _, err := svc.Detail(ctx, id, "9"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestSessionErrors(t *testing.T) {
	svc, id := setup(t)
	ctx := context.Background()

	if _, err := svc.Snapshot(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Reorder(ctx, id, 1, 2); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}

	store := newMockStore()
	store.err = domain.ErrTooManySessions
	if _, err := New(store, Config{}, nil).Create(ctx); !errors.Is(err, domain.ErrTooManySessions) {
		t.Errorf("expected ErrTooManySessions, got %v", err)
	}
}

func TestNormalizeFilters(t *testing.T) {
	got := normalizeFilters([]string{"B", "", "A", "B"})
	if diff := cmp.Diff([]string{"B", "A"}, got); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
}
