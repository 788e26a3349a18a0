package main

import (
	"errors"
	"testing"
)

func TestUpsertRecordAndReadBack(t *testing.T) {
	s := newTestServer(t)
	id := mustProvision(t, s, "mylab")

	if err := s.rec.upsertRecord(id, "A", "www.mylab", "1.2.3.4\n5.6.7.8"); err != nil {
		t.Fatalf("upsertRecord: %v", err)
	}

	sets, err := s.rec.recordsByType(id, "a", "www.mylab")
	if err != nil {
		t.Fatalf("recordsByType: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("expected one record set, got %d", len(sets))
	}
	if sets[0].Name != "www.mylab.u-tokyo.app." || sets[0].Type != "A" {
		t.Fatalf("unexpected set identity: %#v", sets[0])
	}
	if len(sets[0].Data) != 2 || sets[0].Data[0] != "1.2.3.4" {
		t.Fatalf("unexpected set data: %#v", sets[0].Data)
	}
	if sets[0].TTL != s.cfg.DefaultTTL {
		t.Fatalf("expected default TTL %d, got %d", s.cfg.DefaultTTL, sets[0].TTL)
	}

	subs, err := s.owners.listSubdomains(id)
	if err != nil {
		t.Fatalf("listSubdomains: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("leaf should be tracked after write, got %#v", subs)
	}
}

func TestUpsertRecordReplacesExistingSet(t *testing.T) {
	s := newTestServer(t)
	id := mustProvision(t, s, "mylab")

	if err := s.rec.upsertRecord(id, "txt", "mylab", "v=spf1 -all"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.rec.upsertRecord(id, "txt", "mylab", "verification=abc"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	sets, err := s.rec.recordsByType(id, "txt", "mylab")
	if err != nil {
		t.Fatalf("recordsByType: %v", err)
	}
	if len(sets) != 1 || len(sets[0].Data) != 1 || sets[0].Data[0] != "verification=abc" {
		t.Fatalf("expected full replacement, got %#v", sets)
	}
}

func TestUpsertRecordValidation(t *testing.T) {
	s := newTestServer(t)
	id := mustProvision(t, s, "mylab")

	if err := s.rec.upsertRecord(id, "ptr", "www.mylab", "1.2.3.4"); !errors.Is(err, errInvalidType) {
		t.Fatalf("expected errInvalidType, got %v", err)
	}
	if err := s.rec.upsertRecord(id, "a", "www.mylab", " \n "); !errors.Is(err, errEmptyRecordData) {
		t.Fatalf("expected errEmptyRecordData, got %v", err)
	}
	if err := s.rec.upsertRecord(id, "a", "www.otherlab", "1.2.3.4"); !errors.Is(err, errOwnershipMismatch) {
		t.Fatalf("expected errOwnershipMismatch, got %v", err)
	}
}

func TestDeleteRecordDropsLeafTracking(t *testing.T) {
	s := newTestServer(t)
	id := mustProvision(t, s, "mylab")

	if err := s.rec.upsertRecord(id, "a", "www.mylab", "1.2.3.4"); err != nil {
		t.Fatalf("upsertRecord: %v", err)
	}
	if err := s.rec.deleteRecord(id, "a", "www.mylab"); err != nil {
		t.Fatalf("deleteRecord: %v", err)
	}

	subs, err := s.owners.listSubdomains(id)
	if err != nil {
		t.Fatalf("listSubdomains: %v", err)
	}
	if len(subs) != 1 || subs[0] != "mylab" {
		t.Fatalf("empty leaf should be untracked, got %#v", subs)
	}
}

func TestDeleteRecordKeepsLeafWithOtherTypes(t *testing.T) {
	s := newTestServer(t)
	id := mustProvision(t, s, "mylab")

	if err := s.rec.upsertRecord(id, "a", "www.mylab", "1.2.3.4"); err != nil {
		t.Fatalf("upsert a: %v", err)
	}
	if err := s.rec.upsertRecord(id, "txt", "www.mylab", "hello"); err != nil {
		t.Fatalf("upsert txt: %v", err)
	}
	if err := s.rec.deleteRecord(id, "a", "www.mylab"); err != nil {
		t.Fatalf("deleteRecord: %v", err)
	}

	subs, err := s.owners.listSubdomains(id)
	if err != nil {
		t.Fatalf("listSubdomains: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("leaf with remaining records must stay tracked, got %#v", subs)
	}
}

func TestDeleteRecordKeepsBaseTracking(t *testing.T) {
	s := newTestServer(t)
	id := mustProvision(t, s, "mylab")

	if err := s.rec.upsertRecord(id, "a", "mylab", "1.2.3.4"); err != nil {
		t.Fatalf("upsertRecord: %v", err)
	}
	if err := s.rec.deleteRecord(id, "a", "mylab"); err != nil {
		t.Fatalf("deleteRecord: %v", err)
	}

	sets, err := s.rec.recordsByType(id, "a", "mylab")
	if err != nil {
		t.Fatalf("recordsByType: %v", err)
	}
	if len(sets) != 0 {
		t.Fatalf("expected no sets after delete, got %#v", sets)
	}

	subs, err := s.owners.listSubdomains(id)
	if err != nil {
		t.Fatalf("listSubdomains: %v", err)
	}
	if len(subs) != 1 || subs[0] != "mylab" {
		t.Fatalf("base subdomain must survive record deletion, got %#v", subs)
	}
}

func TestDeleteRecordNoSetIsNoop(t *testing.T) {
	s := newTestServer(t)
	id := mustProvision(t, s, "mylab")

	if err := s.rec.deleteRecord(id, "cname", "mylab"); err != nil {
		t.Fatalf("delete of absent set should succeed, got %v", err)
	}
}

func TestFormatRecords(t *testing.T) {
	s := newTestServer(t)

	got := s.rec.formatRecords([]recordSet{{
		Name: "www.mylab.u-tokyo.app.",
		Type: "a",
		Data: []string{"1.2.3.4", "5.6.7.8"},
	}})
	if len(got) != 1 {
		t.Fatalf("expected one record, got %d", len(got))
	}
	if got[0].Name != "www.mylab" || got[0].Type != "A" || got[0].Data != "1.2.3.4\n5.6.7.8" {
		t.Fatalf("unexpected formatted record: %#v", got[0])
	}
}

func TestListAllRecords(t *testing.T) {
	s := newTestServer(t)
	id := mustProvision(t, s, "mylab")

	if err := s.rec.upsertRecord(id, "a", "mylab", "1.2.3.4"); err != nil {
		t.Fatalf("upsert base: %v", err)
	}
	if err := s.rec.upsertRecord(id, "cname", "www.mylab", "mylab.u-tokyo.app."); err != nil {
		t.Fatalf("upsert leaf: %v", err)
	}

	records, err := s.rec.listAllRecords(id)
	if err != nil {
		t.Fatalf("listAllRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %#v", records)
	}
}
