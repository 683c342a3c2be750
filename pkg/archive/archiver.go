package archive

import (
	"context"
	"sync"

	"github.com/open-teleop/dronecontrols/domain/drone"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
)

// Archiver saves recordings on its own goroutine so the tick loop never waits
// on the database.
type Archiver struct {
	store   *Store
	logger  customlog.Logger
	queue   chan drone.Recording
	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	onSaved func(*Recording)
}

// NewArchiver creates an archiver with room for queueSize pending recordings.
func NewArchiver(store *Store, queueSize int, logger customlog.Logger) *Archiver {
	if logger == nil {
		logger = customlog.NewNopLogger()
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Archiver{
		store:  store,
		logger: logger,
		queue:  make(chan drone.Recording, queueSize),
		done:   make(chan struct{}),
	}
}

// OnSaved registers a callback run after each successful save.
func (a *Archiver) OnSaved(fn func(*Recording)) {
	a.onSaved = fn
}

// Submit queues rec. It reports false when the archiver is closed or full.
func (a *Archiver) Submit(rec drone.Recording) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}
	select {
	case a.queue <- rec:
		return true
	default:
		a.logger.Warnf("Archive queue full, dropping recording %s", rec.ID)
		return false
	}
}

// Run saves queued recordings until Close is called, then drains what is left.
// ctx bounds each save.
func (a *Archiver) Run(ctx context.Context) {
	defer close(a.done)
	for rec := range a.queue {
		row, err := a.store.Save(ctx, rec)
		if err != nil {
			a.logger.Errorf("Failed to archive recording: %v", err)
			continue
		}
		if a.onSaved != nil {
			a.onSaved(row)
		}
	}
}

// Close stops accepting recordings and waits for Run to finish the queue.
func (a *Archiver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	<-a.done
}
