// Package vendors identifies which vendor produced an incoming MARC record.
// Vendors stamp their records with characteristic fields; a rule lists the
// marks to look for and the processing profile that applies when they all
// match.
package vendors

import (
	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/logging"
	"github.com/bookops/overload/pkg/marc"
)

// TagMark is one field a vendor's records carry: the first field with Tag
// must hold Value in subfield Code.
type TagMark struct {
	Tag   string `yaml:"tag"`
	Code  string `yaml:"code"`
	Value string `yaml:"value"`
}

// Rule identifies a vendor and carries its processing profile. A record
// belongs to the vendor when every mark in Tags matches, or every mark in
// AlternateTags does. Rules are tried in order; the first hit wins.
type Rule struct {
	Name          string             `yaml:"name"`
	Tags          []TagMark          `yaml:"tags"`
	AlternateTags []TagMark          `yaml:"alternate_tags"`
	Matchpoints   MatchpointNames    `yaml:"matchpoints"`
	BibFields     []bibs.VendorField `yaml:"bib_fields"`
}

// MatchpointNames is the YAML shape of a rule's matchpoints.
type MatchpointNames struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
	Tertiary  string `yaml:"tertiary"`
}

func (m MatchpointNames) toMatchpoints() bibs.Matchpoints {
	return bibs.Matchpoints{
		Primary:   bibs.Matchpoint(m.Primary),
		Secondary: bibs.Matchpoint(m.Secondary),
		Tertiary:  bibs.Matchpoint(m.Tertiary),
	}
}

// Identifier matches records against a system's vendor rules.
type Identifier struct {
	rules   []Rule
	unknown bibs.VendorInfo
}

// NewIdentifier creates an Identifier from a rule list. A rule named
// UNKNOWN supplies the fallback profile; without one the fallback carries
// an ISBN matchpoint and nothing else.
func NewIdentifier(rules []Rule) *Identifier {
	id := &Identifier{
		unknown: bibs.VendorInfo{
			Name:        bibs.UnknownVendor,
			Matchpoints: bibs.Matchpoints{Primary: bibs.MatchpointISBN},
		},
	}
	for _, rule := range rules {
		if rule.Name == bibs.UnknownVendor {
			id.unknown = rule.vendorInfo()
			continue
		}
		id.rules = append(id.rules, rule)
	}
	return id
}

func (r Rule) vendorInfo() bibs.VendorInfo {
	return bibs.VendorInfo{
		Name:        r.Name,
		Matchpoints: r.Matchpoints.toMatchpoints(),
		BibFields:   r.BibFields,
	}
}

// Identify returns the profile of the vendor whose marks the record
// carries, falling back to the UNKNOWN profile.
func (id *Identifier) Identify(record *marc.Record) bibs.VendorInfo {
	for _, rule := range id.rules {
		if marksMatch(record, rule.Tags) || marksMatch(record, rule.AlternateTags) {
			return rule.vendorInfo()
		}
	}
	logging.Debug().Msg("no vendor rule matched, using unknown profile")
	return id.unknown
}

// marksMatch reports whether the record carries every mark: the first field
// for each tag must exist and hold the expected subfield value.
func marksMatch(record *marc.Record, marks []TagMark) bool {
	if len(marks) == 0 {
		return false
	}
	for _, mark := range marks {
		field := record.Get(mark.Tag)
		if field == nil || field.Get(mark.Code) != mark.Value {
			return false
		}
	}
	return true
}
