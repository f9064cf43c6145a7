package resultgrid

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	columnWidth    int
	visibleColumns int
	maxRecords     int
	dateLayout     string

	sessionTTL    time.Duration
	sweepInterval time.Duration
	maxSessions   int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		sessionTTL:    30 * time.Minute,
		sweepInterval: time.Minute,
		maxSessions:   1000,
	}
}

// WithColumnWidth sets the initial width of every column. Default: 150.
func WithColumnWidth(width int) Option {
	return optionFunc(func(c *clientConfig) {
		c.columnWidth = width
	})
}

// WithVisibleColumns sets how many top-level columns a fresh view shows. Default: 5.
func WithVisibleColumns(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.visibleColumns = n
	})
}

// WithMaxRecords caps the hits kept per ingested result set. 0 keeps all.
func WithMaxRecords(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRecords = n
	})
}

// WithDateLayout sets the Go time layout of the Created column.
// Default: "2006-01-02 15:04".
func WithDateLayout(layout string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dateLayout = layout
	})
}

// WithSessionTTL expires sessions idle for longer than ttl and sweeps
// them every interval. A zero interval disables the background sweep;
// expired sessions are then only dropped on access.
func WithSessionTTL(ttl, interval time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.sessionTTL = ttl
		c.sweepInterval = interval
	})
}

// WithMaxSessions caps the number of open sessions. Default: 1000.
func WithMaxSessions(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxSessions = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
