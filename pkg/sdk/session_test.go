package resultgrid

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/resultgrid/internal/domain"
	"github.com/kailas-cloud/resultgrid/internal/domain/detail"
	"github.com/kailas-cloud/resultgrid/internal/domain/envelope"
	"github.com/kailas-cloud/resultgrid/internal/domain/hit"
	"github.com/kailas-cloud/resultgrid/internal/domain/nav"
	"github.com/kailas-cloud/resultgrid/internal/domain/row"
	"github.com/kailas-cloud/resultgrid/internal/domain/view"
	griduc "github.com/kailas-cloud/resultgrid/internal/usecase/grid"
)

func sampleSnapshot() griduc.Snapshot {
	gid := 4
	pk := hit.Identifier{Name: "customerId", Value: "7"}
	return griduc.Snapshot{
		SessionID: "s-1",
		Filters:   []string{"Customer"},
		Columns: []view.Column{
			{Title: "customerId", Key: "0-0", DataKey: "customerid", Width: 150, Visible: true},
			{Title: "addresses", Key: "0-1", Visible: true, Children: []view.Column{
				{Title: "city", Key: "0-1-0", DataKey: "addresses.city", Width: 150, Visible: true},
			}},
		},
		Rows: []griduc.RowView{{
			Key:        0,
			PrimaryKey: pk,
			Cells:      map[string]row.Cell{"addresses.city": {Text: "Oslo"}},
			Spans:      map[string]int{"addresses.city": 2, "customerid": 1},
			Links:      nav.DetailLinks(pk, "/c/7.json"),
			GroupID:    &gid,
			Anchor:     true,
			Expand:     detail.Control{Show: true},
		}},
		Records: 1,
	}
}

// --- Session ---

func TestSession_Ingest(t *testing.T) {
	mock := &mockGridUC{
		ingestFn: func(_ context.Context, id string, env *envelope.Envelope, filters []string) (griduc.Snapshot, error) {
			if id != "s-1" {
				t.Errorf("id = %q, want s-1", id)
			}
			if len(env.Results) != 1 || env.Results[0].URI != "/c/7.json" {
				t.Errorf("envelope = %+v", env)
			}
			if len(filters) != 1 || filters[0] != "Customer" {
				t.Errorf("filters = %v", filters)
			}
			return sampleSnapshot(), nil
		},
	}

	s := &Session{id: "s-1", grid: mock}
	v, err := s.Ingest(context.Background(), []byte(`{"results": [{"uri": "/c/7.json"}]}`), "Customer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Columns) != 2 || !v.Columns[1].IsGroup() || v.Columns[1].Children[0].DataKey != "addresses.city" {
		t.Errorf("columns = %+v", v.Columns)
	}
	r := v.Rows[0]
	if r.GroupID != 4 || !r.Anchor || !r.ShowExpand || r.Expanded {
		t.Errorf("row = %+v", r)
	}
	if r.Span("addresses.city") != 2 || r.Span("missing") != 1 {
		t.Errorf("spans city=%d missing=%d", r.Span("addresses.city"), r.Span("missing"))
	}
	if len(r.Links) != 2 || r.Links[1].Mode != "source" || r.Links[0].Path != "/detail/7/%2Fc%2F7.json" {
		t.Errorf("links = %+v", r.Links)
	}
}

func TestSession_Ingest_InvalidEnvelope(t *testing.T) {
	s := &Session{id: "s-1", grid: &mockGridUC{}}
	_, err := s.Ingest(context.Background(), []byte(`{"results": `))
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestSession_EditsForwardApplied(t *testing.T) {
	mock := &mockGridUC{
		reorderFn: func(_ context.Context, _ string, from, to int) (griduc.Snapshot, bool, error) {
			return sampleSnapshot(), from > 0 && to > 0, nil
		},
		resizeFn: func(_ context.Context, _ string, title string, width int) (griduc.Snapshot, bool, error) {
			if title == "" || width <= 0 {
				return griduc.Snapshot{}, false, domain.ErrInvalidEdit
			}
			return sampleSnapshot(), true, nil
		},
		toggleFn: func(_ context.Context, _ string, key string, visible bool) (griduc.Snapshot, bool, error) {
			return sampleSnapshot(), key == "0-1" && !visible, nil
		},
	}
	s := &Session{id: "s-1", grid: mock}
	ctx := context.Background()

	if _, applied, err := s.Reorder(ctx, 0, 1); err != nil || applied {
		t.Errorf("reorder pinned: applied=%v err=%v", applied, err)
	}
	if _, applied, err := s.Reorder(ctx, 1, 2); err != nil || !applied {
		t.Errorf("reorder: applied=%v err=%v", applied, err)
	}
	if _, _, err := s.Resize(ctx, "city", 0); !errors.Is(err, ErrInvalidEdit) {
		t.Errorf("expected ErrInvalidEdit, got %v", err)
	}
	if _, applied, err := s.Toggle(ctx, "0-1", false); err != nil || !applied {
		t.Errorf("toggle: applied=%v err=%v", applied, err)
	}
}

func TestSession_SelectNilKeys(t *testing.T) {
	mock := &mockGridUC{
		selectFn: func(_ context.Context, _ string, keys []string) (griduc.Snapshot, error) {
			if keys == nil {
				t.Error("keys should be an empty selection, not nil")
			}
			return griduc.Snapshot{SessionID: "s-1"}, nil
		},
	}
	s := &Session{id: "s-1", grid: mock}
	if _, err := s.Select(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSession_Detail(t *testing.T) {
	link := nav.Nested("/detail/7/x", hit.Value{})
	mock := &mockGridUC{
		detailFn: func(_ context.Context, _, pk string) ([]detail.Item, error) {
			if pk != "7" {
				return nil, domain.ErrRecordNotFound
			}
			return []detail.Item{
				{Key: "0", Property: "name", Value: "Ann"},
				{Key: "1", Property: "tags", Link: &link, Children: []detail.Item{
					{Key: "2", Property: "0", Value: "vip", Depth: 1},
				}},
			}, nil
		},
	}
	s := &Session{id: "s-1", grid: mock}

	items, err := s.Detail(context.Background(), "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[1].Link == nil || items[1].Children[0].Value != "vip" {
		t.Errorf("items = %+v", items)
	}

	if _, err := s.Detail(context.Background(), "8"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestSession_Close(t *testing.T) {
	deleted := ""
	mock := &mockGridUC{
		deleteFn: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	s := &Session{id: "s-9", grid: mock}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "s-9" {
		t.Errorf("deleted = %q, want s-9", deleted)
	}
}
