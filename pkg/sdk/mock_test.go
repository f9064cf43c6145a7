package resultgrid

import (
	"context"

	"github.com/kailas-cloud/resultgrid/internal/domain/detail"
	"github.com/kailas-cloud/resultgrid/internal/domain/envelope"
	griduc "github.com/kailas-cloud/resultgrid/internal/usecase/grid"
)

// --- gridUseCase mock ---

type mockGridUC struct {
	createFn   func(ctx context.Context) (griduc.Snapshot, error)
	snapshotFn func(ctx context.Context, id string) (griduc.Snapshot, error)
	deleteFn   func(ctx context.Context, id string) error
	ingestFn   func(ctx context.Context, id string, env *envelope.Envelope, filters []string) (griduc.Snapshot, error)
	reorderFn  func(ctx context.Context, id string, from, to int) (griduc.Snapshot, bool, error)
	resizeFn   func(ctx context.Context, id, title string, width int) (griduc.Snapshot, bool, error)
	selectFn   func(ctx context.Context, id string, keys []string) (griduc.Snapshot, error)
	toggleFn   func(ctx context.Context, id, key string, visible bool) (griduc.Snapshot, bool, error)
	expandFn   func(ctx context.Context, id, pk string) (griduc.Snapshot, bool, error)
	detailFn   func(ctx context.Context, id, pk string) ([]detail.Item, error)
}

func (m *mockGridUC) Create(ctx context.Context) (griduc.Snapshot, error) {
	return m.createFn(ctx)
}

func (m *mockGridUC) Snapshot(ctx context.Context, id string) (griduc.Snapshot, error) {
	return m.snapshotFn(ctx, id)
}

func (m *mockGridUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockGridUC) Ingest(
	ctx context.Context, id string, env *envelope.Envelope, filters []string,
) (griduc.Snapshot, error) {
	return m.ingestFn(ctx, id, env, filters)
}

func (m *mockGridUC) Reorder(ctx context.Context, id string, from, to int) (griduc.Snapshot, bool, error) {
	return m.reorderFn(ctx, id, from, to)
}

func (m *mockGridUC) Resize(ctx context.Context, id, title string, width int) (griduc.Snapshot, bool, error) {
	return m.resizeFn(ctx, id, title, width)
}

func (m *mockGridUC) Select(ctx context.Context, id string, keys []string) (griduc.Snapshot, error) {
	return m.selectFn(ctx, id, keys)
}

func (m *mockGridUC) Toggle(ctx context.Context, id, key string, visible bool) (griduc.Snapshot, bool, error) {
	return m.toggleFn(ctx, id, key, visible)
}

func (m *mockGridUC) ToggleExpand(ctx context.Context, id, pk string) (griduc.Snapshot, bool, error) {
	return m.expandFn(ctx, id, pk)
}

func (m *mockGridUC) Detail(ctx context.Context, id, pk string) ([]detail.Item, error) {
	return m.detailFn(ctx, id, pk)
}
