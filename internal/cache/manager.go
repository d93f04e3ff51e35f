package cache

import (
	"context"
	stderrors "errors"

	"pescan/internal/logging"
	"pescan/internal/malapi"
)

// Fetcher retrieves a fresh manifest from the reference source
type Fetcher interface {
	Fetch(ctx context.Context) (*malapi.Manifest, error)
}

// Manager decides the authoritative manifest for an invocation: the
// persisted store when it is valid (offline-first), a fresh fetch when
// the store is missing, invalid, or a refresh was requested, and the
// stale store as a degraded fallback when a refresh fails.
type Manager struct {
	store   *Store
	fetcher Fetcher
	logger  *logging.Logger
}

// NewManager creates a manager over the given store and fetcher
func NewManager(store *Store, fetcher Fetcher, logger *logging.Logger) *Manager {
	return &Manager{
		store:   store,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Load returns the manifest to use for this invocation. The returned
// manifest is read-only for the remainder of the process. Load fails only
// when a refresh is needed and neither the network nor a previously valid
// store can supply the data.
func (m *Manager) Load(ctx context.Context, forceRefresh bool) (*malapi.Manifest, error) {
	if !forceRefresh {
		manifest, err := m.store.Load()
		if err == nil {
			m.logger.Debug("using persisted reference data", map[string]interface{}{
				"path":       m.store.Path(),
				"categories": len(manifest.Categories),
			})
			return manifest, nil
		}
		if !stderrors.Is(err, ErrNoStore) {
			m.logger.Warn("persisted reference data is unusable, refreshing", map[string]interface{}{
				"path":  m.store.Path(),
				"error": err.Error(),
			})
		}
	}

	fetched, fetchErr := m.fetcher.Fetch(ctx)
	if fetchErr != nil {
		if fallback, err := m.store.Load(); err == nil {
			m.logger.Warn("refresh failed, using possibly stale reference data", map[string]interface{}{
				"path":  m.store.Path(),
				"error": fetchErr.Error(),
			})
			return fallback, nil
		}
		return nil, fetchErr
	}

	if err := m.store.Save(fetched); err != nil {
		// The scan does not depend on the write; warn and carry on.
		m.logger.Warn("could not persist refreshed reference data", map[string]interface{}{
			"path":  m.store.Path(),
			"error": err.Error(),
		})
	} else {
		m.logger.Info("reference data refreshed", map[string]interface{}{
			"path":       m.store.Path(),
			"categories": len(fetched.Categories),
		})
	}

	return fetched, nil
}
