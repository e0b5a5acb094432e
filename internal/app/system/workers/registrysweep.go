// internal/app/system/workers/registrysweep.go
package workers

import (
	"sync"
	"time"

	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"go.uber.org/zap"
)

// RegistrySweep is a background worker that drops expired entries from
// the hierarchy registry. Lookups already ignore expired entries; the
// sweep just keeps the map from growing with users who stopped logging in.
type RegistrySweep struct {
	registry *hierarchy.Registry
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewRegistrySweep creates a new registry sweep worker.
func NewRegistrySweep(registry *hierarchy.Registry, logger *zap.Logger, interval time.Duration) *RegistrySweep {
	return &RegistrySweep{
		registry: registry,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *RegistrySweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("registry sweep worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *RegistrySweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("registry sweep worker stopped")
}

func (w *RegistrySweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if dropped := w.registry.SweepExpired(); dropped > 0 {
				w.log.Info("swept expired hierarchy entries", zap.Int("dropped", dropped))
			}
		}
	}
}
