package assistant

import (
	"sync"

	"github.com/studioverse/tutormind/internal/errs"
	"github.com/studioverse/tutormind/internal/logger"
)

// KeyRegistry maps tenants to their model API keys. A tenant with no key on
// file cannot generate answers, which surfaces as an access problem rather
// than an upstream one.
type KeyRegistry struct {
	mu       sync.RWMutex
	byTenant map[string]string
	fallback string
}

// NewKeyRegistry creates a registry. The fallback key serves requests that
// carry no tenant id; pass "" to require an explicit tenant.
func NewKeyRegistry(fallback string) *KeyRegistry {
	return &KeyRegistry{
		byTenant: make(map[string]string),
		fallback: fallback,
	}
}

// SetKey registers or replaces a tenant's API key.
func (r *KeyRegistry) SetKey(tenantID, apiKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTenant[tenantID] = apiKey
}

// KeyFor resolves the API key for a tenant. An empty tenant id uses the
// fallback key.
func (r *KeyRegistry) KeyFor(tenantID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tenantID == "" {
		if r.fallback == "" {
			logger.Warn("Request without tenant id and no fallback key configured")
			return "", errs.ErrAccessDenied
		}
		return r.fallback, nil
	}
	key, ok := r.byTenant[tenantID]
	if !ok || key == "" {
		logger.Warn("No API key on file for tenant %s", tenantID)
		return "", errs.ErrAccessDenied
	}
	return key, nil
}
