// Package rules loads the embedded processing rules: vendor identification
// rules per library system and default bibliographic locations.
package rules

import (
	"embed"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/vendors"
)

//go:embed data/*.yaml
var dataFS embed.FS

// VendorRules returns the vendor identification rules for a system, in
// evaluation order.
func VendorRules(system bibs.System) ([]vendors.Rule, error) {
	path := fmt.Sprintf("data/vendors_%s.yaml", system)
	raw, err := dataFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vendor rules for %s: %w", system, err)
	}
	var rules []vendors.Rule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parsing vendor rules for %s: %w", system, err)
	}
	return rules, nil
}

// Identifier builds a vendor identifier from a system's embedded rules.
func Identifier(system bibs.System) (*vendors.Identifier, error) {
	loaded, err := VendorRules(system)
	if err != nil {
		return nil, err
	}
	return vendors.NewIdentifier(loaded), nil
}

// DefaultLocation returns the default bibliographic location for a system
// and collection, or "" when the system does not stamp one.
func DefaultLocation(system bibs.System, collection bibs.Collection) (string, error) {
	raw, err := dataFS.ReadFile("data/locations.yaml")
	if err != nil {
		return "", fmt.Errorf("reading default locations: %w", err)
	}
	var locations map[string]map[string]string
	if err := yaml.Unmarshal(raw, &locations); err != nil {
		return "", fmt.Errorf("parsing default locations: %w", err)
	}
	return locations[string(system)][string(collection)], nil
}
