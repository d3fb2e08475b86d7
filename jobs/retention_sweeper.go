package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
	"nimbusdrive/services"
	"nimbusdrive/store"
)

// RetentionSweeper permanently purges recycle-bin files whose retention
// window has elapsed. Sweeps run synchronously on a ticker, so two sweeps
// never overlap; retention and interval are injected so tests can run with
// second-scale windows.
type RetentionSweeper struct {
	store     store.Store
	content   services.ContentStore
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewRetentionSweeper(st store.Store, content services.ContentStore, retention, interval time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		store:     st,
		content:   content,
		retention: retention,
		interval:  interval,
		logger:    log.New(log.Writer(), "[RETENTION_SWEEPER] ", log.LstdFlags),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start sweeps once immediately, then on every interval tick until Stop.
// Blocks; run it in its own goroutine.
func (rs *RetentionSweeper) Start() {
	rs.mu.Lock()
	rs.started = true
	rs.mu.Unlock()
	defer close(rs.done)
	rs.logger.Printf("starting, retention %s, interval %s", rs.retention, rs.interval)

	rs.sweep()

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rs.sweep()
		case <-rs.stop:
			rs.logger.Println("stopped")
			return
		}
	}
}

// Stop asks the sweeper to finish. The current file being purged completes;
// remaining files wait for the next process start. Safe to call more than
// once, and returns immediately when Start never ran.
func (rs *RetentionSweeper) Stop() {
	rs.stopOnce.Do(func() { close(rs.stop) })
	rs.mu.Lock()
	started := rs.started
	rs.mu.Unlock()
	if started {
		<-rs.done
	}
}

func (rs *RetentionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	purged, err := rs.RunOnce(ctx)
	if err != nil {
		rs.logger.Printf("sweep failed: %v", err)
		return
	}
	if purged > 0 {
		rs.logger.Printf("purged %d expired files", purged)
	}
}

// RunOnce purges every recycle-bin file deleted before now-retention and
// returns how many rows it removed. A content-store failure on one file is
// logged and does not keep its row alive or block the rest of the batch.
func (rs *RetentionSweeper) RunOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-rs.retention)
	expired, err := rs.store.DeletedFilesBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, file := range expired {
		select {
		case <-rs.stop:
			return purged, nil
		case <-ctx.Done():
			return purged, ctx.Err()
		default:
		}

		if err := rs.purge(ctx, file); err != nil {
			rs.logger.Printf("failed to purge file %s: %v", file.ID.Hex(), err)
			continue
		}
		purged++
	}
	return purged, nil
}

func (rs *RetentionSweeper) purge(ctx context.Context, file models.File) error {
	if err := rs.content.Delete(ctx, file.Locator); err != nil {
		rs.logger.Printf("failed to delete content %s: %v", file.Locator, err)
	}

	return rs.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := rs.store.DeleteFiles(ctx, []primitive.ObjectID{file.ID}); err != nil {
			return err
		}
		if err := rs.store.DeleteSharesForTargets(ctx, []models.Target{models.FileTarget(file.ID)}); err != nil {
			return err
		}
		return rs.store.AdjustUsedStorage(ctx, file.OwnerID, -file.Size)
	})
}

// SetRetention changes the window for subsequent sweeps.
func (rs *RetentionSweeper) SetRetention(retention time.Duration) {
	rs.retention = retention
}
