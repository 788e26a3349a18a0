package main

import (
	"sort"
	"strings"
	"sync"
)

// zoneService holds the managed zone's record sets: an in-memory map for
// serving, backed by the records table. Change batches mutate both, DB
// first, under one lock.
type zoneService struct {
	mu      sync.RWMutex
	sets    map[string]recordSet
	persist *persistence
}

func newZoneService(p *persistence) (*zoneService, error) {
	z := &zoneService{
		sets:    make(map[string]recordSet),
		persist: p,
	}

	loaded, err := p.loadRecordSets()
	if err != nil {
		return nil, err
	}
	for _, rs := range loaded {
		z.sets[setKey(rs.Name, rs.Type)] = rs
	}
	return z, nil
}

func setKey(name, recordType string) string {
	return normalizeName(name) + "|" + strings.ToUpper(strings.TrimSpace(recordType))
}

// setsAtName returns every record set stored at the exact fully-qualified
// name, any type.
func (z *zoneService) setsAtName(fqdn string) []recordSet {
	fqdn = normalizeName(fqdn)

	z.mu.RLock()
	defer z.mu.RUnlock()

	out := make([]recordSet, 0, 2)
	for _, rs := range z.sets {
		if rs.Name == fqdn {
			out = append(out, rs)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// setsFor returns the record sets at (name, type). The zone keeps at most
// one set per pair, but callers treat the result as a list the way the
// change API does.
func (z *zoneService) setsFor(fqdn, recordType string) []recordSet {
	key := setKey(fqdn, recordType)

	z.mu.RLock()
	defer z.mu.RUnlock()

	if rs, ok := z.sets[key]; ok {
		return []recordSet{rs}
	}
	return nil
}

func (z *zoneService) hasName(fqdn string) bool {
	fqdn = normalizeName(fqdn)

	z.mu.RLock()
	defer z.mu.RUnlock()

	for _, rs := range z.sets {
		if rs.Name == fqdn {
			return true
		}
	}
	return false
}

// applyChange applies deletes then adds as one unit. The memory map is only
// touched after the transaction commits.
func (z *zoneService) applyChange(batch changeBatch) error {
	normalized := changeBatch{
		Deletes: make([]recordSet, 0, len(batch.Deletes)),
		Adds:    make([]recordSet, 0, len(batch.Adds)),
	}
	for _, rs := range batch.Deletes {
		rs.Name = normalizeName(rs.Name)
		rs.Type = strings.ToUpper(strings.TrimSpace(rs.Type))
		normalized.Deletes = append(normalized.Deletes, rs)
	}
	for _, rs := range batch.Adds {
		rs.Name = normalizeName(rs.Name)
		rs.Type = strings.ToUpper(strings.TrimSpace(rs.Type))
		normalized.Adds = append(normalized.Adds, rs)
	}

	z.mu.Lock()
	defer z.mu.Unlock()

	if err := z.persist.applyRecordChange(normalized); err != nil {
		return err
	}

	for _, rs := range normalized.Deletes {
		delete(z.sets, setKey(rs.Name, rs.Type))
	}
	for _, rs := range normalized.Adds {
		z.sets[setKey(rs.Name, rs.Type)] = rs
	}
	return nil
}
