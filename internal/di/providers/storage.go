package providers

import (
	"github.com/samber/do/v2"

	"github.com/readaloudapp/readaloud-server/internal/config"
	"github.com/readaloudapp/readaloud-server/internal/logger"
	"github.com/readaloudapp/readaloud-server/internal/store"
)

// StoreHandle wraps the segment cache so shutdown closes the database cleanly.
type StoreHandle struct {
	*store.Store
}

// The container closes the cache during injector.Shutdown; nothing else
// should close it.
var _ do.ShutdownerWithError = (*StoreHandle)(nil)

// Shutdown implements do.ShutdownerWithError.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the badger-backed segment cache.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := store.Open(cfg.Cache, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Segment cache ready", "path", cfg.Cache.Path, "in_memory", cfg.Cache.InMemory)
	return &StoreHandle{Store: st}, nil
}
