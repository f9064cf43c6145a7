package resultgrid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resultgrid/internal/domain/detail"
	"github.com/kailas-cloud/resultgrid/internal/domain/envelope"
	sessionrepo "github.com/kailas-cloud/resultgrid/internal/repository/session"
	griduc "github.com/kailas-cloud/resultgrid/internal/usecase/grid"
	healthuc "github.com/kailas-cloud/resultgrid/internal/usecase/health"
)

// Internal interfaces, swapped out in tests.
type gridUseCase interface {
	Create(ctx context.Context) (griduc.Snapshot, error)
	Snapshot(ctx context.Context, id string) (griduc.Snapshot, error)
	Delete(ctx context.Context, id string) error
	Ingest(ctx context.Context, id string, env *envelope.Envelope, filters []string) (griduc.Snapshot, error)
	Reorder(ctx context.Context, id string, from, to int) (griduc.Snapshot, bool, error)
	Resize(ctx context.Context, id, title string, width int) (griduc.Snapshot, bool, error)
	Select(ctx context.Context, id string, keys []string) (griduc.Snapshot, error)
	Toggle(ctx context.Context, id, key string, visible bool) (griduc.Snapshot, bool, error)
	ToggleExpand(ctx context.Context, id, pk string) (griduc.Snapshot, bool, error)
	Detail(ctx context.Context, id, pk string) ([]detail.Item, error)
}

type sessionCounter interface {
	Len() int
}

// Client is the resultgrid SDK entry point.
type Client struct {
	grid      gridUseCase
	healthSvc healthUseCase
	sessions  sessionCounter
	obs       *observer
	stop      context.CancelFunc
}

// New creates a Client with an in-memory session store.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.columnWidth < 0 || cfg.visibleColumns < 0 || cfg.maxRecords < 0 {
		return nil, errors.New("resultgrid: column width, visible columns and max records must not be negative")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireClient(cfg, obs), nil
}

func wireClient(cfg *clientConfig, obs *observer) *Client {
	store := sessionrepo.New(cfg.sessionTTL, cfg.maxSessions)

	// The SDK logs through slog; the grid service stays quiet.
	gridSvc := griduc.New(store, griduc.Config{
		ColumnWidth:    cfg.columnWidth,
		VisibleColumns: cfg.visibleColumns,
		MaxRecords:     cfg.maxRecords,
		DateLayout:     cfg.dateLayout,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.sessionTTL > 0 && cfg.sweepInterval > 0 {
		go store.Run(ctx, cfg.sweepInterval, func(removed, remaining int) {
			if removed > 0 && obs.logger != nil {
				obs.logger.Debug("expired sessions swept", "removed", removed, "remaining", remaining)
			}
		})
	}

	return &Client{
		grid:      gridSvc,
		healthSvc: healthuc.New(store, store, cfg.maxSessions),
		sessions:  store,
		obs:       obs,
		stop:      cancel,
	}
}

// Close stops the background session sweep. Open sessions stay usable until
// the Client is garbage collected.
func (c *Client) Close() {
	if c.stop != nil {
		c.stop()
	}
}

// Sessions returns the number of open sessions.
func (c *Client) Sessions() int {
	return c.sessions.Len()
}

// NewSession opens an empty grid session.
func (c *Client) NewSession(ctx context.Context) (_ *Session, err error) {
	start := time.Now()
	defer func() { c.obs.observe("create", "", start, err) }()

	snap, err := c.grid.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	return c.Session(snap.SessionID), nil
}

// Session returns a handle to an existing session. Calls on a handle whose
// session expired fail with ErrSessionNotFound.
func (c *Client) Session(id string) *Session {
	return &Session{id: id, grid: c.grid, obs: c.obs}
}
