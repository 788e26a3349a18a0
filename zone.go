package main

import (
	"strings"
	"sync"
	"time"
)

// reconciler translates logical per-tenant record operations into zone
// change batches and formats zone state back into the API shape.
type reconciler struct {
	owners *ownershipStore
	zone   *zoneService
	parent string
	ttl    uint32

	// one mutex per (name, type) pair so the read-old/delete/add sequence
	// of concurrent mutations cannot interleave
	locks sync.Map
}

func newReconciler(owners *ownershipStore, zone *zoneService, parentDomain string, ttl uint32) *reconciler {
	return &reconciler{
		owners: owners,
		zone:   zone,
		parent: strings.ToLower(strings.Trim(strings.TrimSpace(parentDomain), ".")),
		ttl:    ttl,
	}
}

func (r *reconciler) fqdn(name string) string {
	return normalizeName(name + "." + r.parent)
}

func (r *reconciler) lockEntry(key string) func() {
	v, _ := r.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (r *reconciler) recordsByType(tenantID, rawType, name string) ([]recordSet, error) {
	t, err := validateRecordType(rawType)
	if err != nil {
		return nil, err
	}

	name, err = r.owners.assertOwnership(tenantID, name)
	if err != nil {
		return nil, err
	}
	return r.zone.setsFor(r.fqdn(name), strings.ToUpper(t)), nil
}

// formatRecords is the inverse of write-time normalization: parent suffix
// stripped, name lowercased, data joined with newlines, type uppercased.
func (r *reconciler) formatRecords(sets []recordSet) []apiRecord {
	suffix := "." + r.parent + "."

	out := make([]apiRecord, 0, len(sets))
	for _, rs := range sets {
		name := strings.ToLower(strings.TrimSuffix(rs.Name, suffix))
		out = append(out, apiRecord{
			Name: name,
			Data: strings.Join(rs.Data, "\n"),
			Type: strings.ToUpper(rs.Type),
		})
	}
	return out
}

func (r *reconciler) listAllRecords(tenantID string) ([]apiRecord, error) {
	subs, err := r.owners.listSubdomains(tenantID)
	if err != nil {
		return nil, err
	}

	out := make([]apiRecord, 0, len(subs))
	for _, sub := range subs {
		out = append(out, r.formatRecords(r.zone.setsAtName(r.fqdn(sub)))...)
	}
	return out, nil
}

// upsertRecord replaces whatever is stored at (type, name) with the new
// value. Registers the subdomain first, so a write to an unseen leaf also
// starts tracking it. Always a full delete-then-add, even if the value is
// unchanged.
func (r *reconciler) upsertRecord(tenantID, rawType, rawName, rawValue string) error {
	t, err := validateRecordType(rawType)
	if err != nil {
		return err
	}

	values := splitRecordValues(rawValue)
	if len(values) == 0 {
		return errEmptyRecordData
	}

	name, err := r.owners.addSubdomain(tenantID, rawName)
	if err != nil {
		return err
	}

	fqdn := r.fqdn(name)
	recordType := strings.ToUpper(t)

	unlock := r.lockEntry(fqdn + "|" + recordType)
	defer unlock()

	old := r.zone.setsFor(fqdn, recordType)
	return r.zone.applyChange(changeBatch{
		Deletes: old,
		Adds: []recordSet{{
			Name:      fqdn,
			Type:      recordType,
			Data:      values,
			TTL:       r.ttl,
			UpdatedAt: time.Now().UTC(),
		}},
	})
}

// deleteRecord removes every record stored at (type, name). When the last
// record under a leaf subdomain's name disappears, the leaf is dropped from
// the tracked set; base subdomains are never dropped.
func (r *reconciler) deleteRecord(tenantID, rawType, rawName string) error {
	t, err := validateRecordType(rawType)
	if err != nil {
		return err
	}

	name, err := r.owners.assertOwnership(tenantID, rawName)
	if err != nil {
		return err
	}

	fqdn := r.fqdn(name)
	recordType := strings.ToUpper(t)

	unlock := r.lockEntry(fqdn + "|" + recordType)
	defer unlock()

	if old := r.zone.setsFor(fqdn, recordType); len(old) > 0 {
		if err := r.zone.applyChange(changeBatch{Deletes: old}); err != nil {
			return err
		}
	}

	if strings.Contains(name, ".") && len(r.zone.setsAtName(fqdn)) == 0 {
		return r.owners.removeSubdomain(tenantID, name)
	}
	return nil
}
