package database

import (
	"time"

	"go.uber.org/zap"

	"github.com/vitrina-host/vitrina/internal/logging"
)

var (
	nowFunc       = time.Now
	sweepInterval = time.Hour
)

// SessionSweeper periodically removes expired admin sessions.
type SessionSweeper struct {
	stopChan chan struct{}
}

// NewSessionSweeper creates a new session sweeper.
func NewSessionSweeper() *SessionSweeper {
	return &SessionSweeper{
		stopChan: make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (ss *SessionSweeper) Start() {
	logging.L().Info("starting session sweeper")
	go ss.run()
}

// Stop gracefully stops the sweeper.
func (ss *SessionSweeper) Stop() {
	close(ss.stopChan)
}

func (ss *SessionSweeper) run() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	// Run immediately on start
	ss.sweepExpiredSessions()

	for {
		select {
		case <-ticker.C:
			ss.sweepExpiredSessions()
		case <-ss.stopChan:
			return
		}
	}
}

func (ss *SessionSweeper) sweepExpiredSessions() {
	res, err := DB.Exec(`DELETE FROM admin_sessions WHERE expires_at < $1`, nowFunc())
	if err != nil {
		logging.L().Warn("failed to sweep expired sessions", zap.Error(err))
		return
	}

	if removed, err := res.RowsAffected(); err == nil && removed > 0 {
		logging.L().Info("removed expired sessions", zap.Int64("count", removed))
	}
}
