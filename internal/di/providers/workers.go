package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark-server/internal/config"
	"github.com/shelfmark/shelfmark-server/internal/logger"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

// BinPurgeWorker runs the background sweep that permanently deletes binned
// books whose retention window has elapsed.
type BinPurgeWorker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (w *BinPurgeWorker) Shutdown() error {
	w.cancel()
	select {
	case <-w.done:
	case <-time.After(shutdownTimeout):
	}
	return nil
}

// ProvideBinPurgeWorker provides the retention purge sweep.
func ProvideBinPurgeWorker(i do.Injector) (*BinPurgeWorker, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	binService := do.MustInvoke[*service.BinService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	worker := &BinPurgeWorker{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(worker.done)

		ticker := time.NewTicker(cfg.Bin.PurgeInterval)
		defer ticker.Stop()

		// One sweep at startup catches anything that expired while the
		// server was down.
		runPurgeSweep(ctx, storeHandle, binService, log)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runPurgeSweep(ctx, storeHandle, binService, log)
			}
		}
	}()

	log.Info("Bin purge worker started", "interval", cfg.Bin.PurgeInterval)

	return worker, nil
}

// runPurgeSweep purges expired bin entries for every known user. Per-user
// failures are logged and skipped so one bad catalogue cannot stall the rest.
func runPurgeSweep(ctx context.Context, storeHandle *StoreHandle, binService *service.BinService, log *logger.Logger) {
	userIDs, err := storeHandle.UserIDs(ctx)
	if err != nil {
		log.Error("Purge sweep could not list users", "error", err)
		return
	}

	total := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}

		removed, err := binService.PurgeExpired(ctx, userID)
		if err != nil {
			log.Error("Purge sweep failed for user", "user_id", userID, "error", err)
			continue
		}
		total += removed
	}

	if total > 0 {
		log.Info("Purge sweep removed expired books", "removed", total, "users", len(userIDs))
	}
}
