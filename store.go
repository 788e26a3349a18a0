package main

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// ownershipStore tracks which subdomains each domain document owns. Reads
// go through a TTL cache keyed by tenant ID; every mutation invalidates the
// tenant's entry so later reads see the stored state.
type ownershipStore struct {
	persist *persistence
	cache   *cache.Cache

	// serializes read-modify-write cycles on the subdomain lists
	mu sync.Mutex
}

func newOwnershipStore(p *persistence, ttl, cleanup time.Duration) *ownershipStore {
	return &ownershipStore{
		persist: p,
		cache:   cache.New(ttl, cleanup),
	}
}

func (o *ownershipStore) listSubdomains(tenantID string) ([]string, error) {
	if v, ok := o.cache.Get(tenantID); ok {
		cached := v.([]string)
		return append([]string(nil), cached...), nil
	}

	_, subs, err := o.persist.getDomain(tenantID)
	if err != nil {
		return nil, err
	}

	o.cache.Set(tenantID, subs, cache.DefaultExpiration)
	return append([]string(nil), subs...), nil
}

func (o *ownershipStore) listBaseSubdomains(tenantID string) ([]string, error) {
	subs, err := o.listSubdomains(tenantID)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(subs))
	for _, s := range subs {
		if !strings.Contains(s, ".") {
			out = append(out, s)
		}
	}
	return out, nil
}

// assertOwnership lowercases name and checks that its trailing dot-segment
// is a base subdomain of the tenant. It returns the normalized name.
func (o *ownershipStore) assertOwnership(tenantID, name string) (string, error) {
	name = normalizeLabel(name)

	subs, err := o.listSubdomains(tenantID)
	if err != nil {
		return "", err
	}

	base := baseOf(name)
	for _, s := range subs {
		if s == base {
			return name, nil
		}
	}
	return "", errOwnershipMismatch
}

// addSubdomain registers name under the tenant if it is not tracked yet.
// Idempotent; returns the normalized name.
func (o *ownershipStore) addSubdomain(tenantID, name string) (string, error) {
	name, err := o.assertOwnership(tenantID, name)
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	_, subs, err := o.persist.getDomain(tenantID)
	if err != nil {
		return "", err
	}
	for _, s := range subs {
		if s == name {
			return name, nil
		}
	}

	subs = append(subs, name)
	if err := o.persist.saveSubdomains(tenantID, subs); err != nil {
		return "", err
	}

	o.cache.Delete(tenantID)
	return name, nil
}

// removeSubdomain drops a leaf subdomain from the tracked set. Base
// subdomains represent provisioning, not record presence, so removing a
// bare label is a no-op.
func (o *ownershipStore) removeSubdomain(tenantID, name string) error {
	name = normalizeLabel(name)
	if !strings.Contains(name, ".") {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	_, subs, err := o.persist.getDomain(tenantID)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(subs))
	for _, s := range subs {
		if s != name {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(subs) {
		return nil
	}

	if err := o.persist.saveSubdomains(tenantID, kept); err != nil {
		return err
	}

	o.cache.Delete(tenantID)
	return nil
}
