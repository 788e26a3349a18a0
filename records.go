package main

import (
	"errors"
	"strings"
)

var (
	errInvalidType       = errors.New("invalid record type")
	errInvalidName       = errors.New("invalid subdomain name")
	errOwnershipMismatch = errors.New("subdomain is not owned by this domain")
	errTenantNotFound    = errors.New("domain not found")
	errAlreadyExists     = errors.New("subdomain already exists")
	errNotBaseLabel      = errors.New("name must be a base subdomain without dots")
	errEmptyRecordData   = errors.New("record data is empty")
)

var recordTypes = map[string]struct{}{
	"a":     {},
	"cname": {},
	"aaaa":  {},
	"caa":   {},
	"txt":   {},
	"mx":    {},
	"ns":    {},
	"spf":   {},
	"srv":   {},
	"sshfp": {},
}

// validateRecordType lowercases the raw type and checks it against the
// supported whitelist.
func validateRecordType(raw string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := recordTypes[t]; !ok {
		return "", errInvalidType
	}
	return t, nil
}

// splitRecordValues turns the newline-delimited API value into the ordered
// list of data strings the zone stores. Lines are trimmed, empty lines
// dropped, order preserved.
func splitRecordValues(raw string) []string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
