package runctx

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xdjs/artist-bio-gen/internal/db"
	"github.com/xdjs/artist-bio-gen/internal/pause"
	"github.com/xdjs/artist-bio-gen/internal/quota"
	"github.com/xdjs/artist-bio-gen/internal/resultlog"
)

// State is the run's top-level state machine.
type State string

const (
	StateInit      State = "INIT"
	StateAcquiring State = "ACQUIRING"
	StateRunning   State = "RUNNING"
	StatePaused    State = "PAUSED"
	StateDraining  State = "DRAINING"
	StateDone      State = "DONE"
	StateAborted   State = "ABORTED"
)

// Config describes what the Resource Context should acquire.
type Config struct {
	ResultLogPath string
	PromptID      string
	Version       string
	Resume        bool

	QuotaEnabled       bool
	DailyLimitRequests *int
	PauseThreshold     float64
	QuotaStatePath     string

	TestMode     bool
	SkipExisting bool
}

// Context is the scoped lifecycle owner for one run. Its resources'
// lifetimes equal the run; the Orchestrator borrows them but never owns
// them.
type Context struct {
	mu    sync.Mutex
	state State
	cfg   Config

	ResultLog       *resultlog.Log
	QuotaMonitor    *quota.Monitor
	PauseController *pause.Controller
	ArtistRepo      *db.ArtistRepo

	pool     *pgxpool.Pool
	ownsPool bool
	logger   *slog.Logger
}

// Acquire moves the context through INIT -> ACQUIRING -> RUNNING,
// opening the result log, optionally constructing the quota monitor and
// pause controller, and wrapping an externally supplied pool (ownsPool
// controls whether Close() also closes it).
func Acquire(cfg Config, pool *pgxpool.Pool, ownsPool bool, logger *slog.Logger) (*Context, error) {
	rc := &Context{state: StateInit, cfg: cfg, logger: logger, pool: pool, ownsPool: ownsPool}
	rc.state = StateAcquiring

	log, err := resultlog.Open(cfg.ResultLogPath, cfg.PromptID, cfg.Version, cfg.Resume)
	if err != nil {
		rc.state = StateAborted
		return nil, fmt.Errorf("acquire result log: %w", err)
	}
	rc.ResultLog = log

	if cfg.QuotaEnabled {
		monitor := quota.NewMonitor(cfg.DailyLimitRequests, cfg.PauseThreshold)
		if cfg.QuotaStatePath != "" {
			if _, loadErr := monitor.LoadState(cfg.QuotaStatePath); loadErr != nil && logger != nil {
				logger.Warn("failed to load quota state, starting fresh", "error", loadErr)
			}
		}
		rc.QuotaMonitor = monitor
		rc.PauseController = pause.NewController()
	}

	if pool != nil {
		rc.ArtistRepo = db.NewArtistRepo(pool)
	}

	rc.state = StateRunning
	return rc, nil
}

// Abort moves the context to ABORTED from any non-terminal state. It is
// safe to call more than once.
func (c *Context) Abort(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAborted || c.state == StateDone {
		return
	}
	c.state = StateAborted
	if c.logger != nil {
		c.logger.Error("resource context aborted", "error", cause)
	}
}

// MarkPaused and MarkRunning record the gate's transitions for State().
// They do not themselves pause/resume — the Pause Controller is the
// source of truth; these just keep the reported top-level state in sync.
func (c *Context) MarkPaused() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning {
		c.state = StatePaused
	}
}

func (c *Context) MarkRunning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePaused {
		c.state = StateRunning
	}
}

// State reports the current top-level state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close tears everything down in reverse acquisition order: quota state
// is persisted, the result log is closed, and an owned pool is closed.
// Errors are logged, never propagated — the caller's run outcome is
// already decided by the time Close runs.
func (c *Context) Close() {
	c.mu.Lock()
	if c.state != StateAborted {
		c.state = StateDraining
	}
	c.mu.Unlock()

	if c.QuotaMonitor != nil && c.cfg.QuotaStatePath != "" {
		if err := c.QuotaMonitor.PersistState(c.cfg.QuotaStatePath); err != nil && c.logger != nil {
			c.logger.Error("failed to persist quota state", "error", err)
		}
	}
	if c.ResultLog != nil {
		if err := c.ResultLog.Close(); err != nil && c.logger != nil {
			c.logger.Error("failed to close result log", "error", err)
		}
	}
	if c.ownsPool && c.pool != nil {
		c.pool.Close()
	}

	c.mu.Lock()
	if c.state != StateAborted {
		c.state = StateDone
	}
	c.mu.Unlock()
}
