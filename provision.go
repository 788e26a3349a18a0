package main

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var baseLabelPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// provisioner creates domain documents for newly claimed base subdomains.
type provisioner struct {
	persist *persistence
}

// subdomainExists reports whether any tenant already tracks the given base
// label. Dotted names are rejected outright.
func (pr *provisioner) subdomainExists(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if strings.Contains(name, ".") {
		return false, errNotBaseLabel
	}
	name = strings.ToLower(name)

	domains, err := pr.persist.listDomains()
	if err != nil {
		return false, err
	}

	for _, d := range domains {
		subs, err := unmarshalStrings(d.SubdomainsJSON)
		if err != nil {
			return false, err
		}
		for _, s := range subs {
			if s == name {
				return true, nil
			}
		}
	}
	return false, nil
}

// createSubdomain provisions a new domain document owning exactly the
// requested base label and returns its generated ID.
func (pr *provisioner) createSubdomain(name, ownerID string) (string, error) {
	name = strings.TrimSpace(name)
	if !baseLabelPattern.MatchString(name) {
		return "", errInvalidName
	}

	exists, err := pr.subdomainExists(name)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errAlreadyExists
	}

	id := uuid.NewString()
	if err := pr.persist.createDomain(id, ownerID, []string{name}); err != nil {
		return "", err
	}
	return id, nil
}
