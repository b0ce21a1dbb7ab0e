package bibs

// VendorField is a MARC field a vendor's processing profile injects into
// cataloging records verbatim.
type VendorField struct {
	Tag   string `yaml:"tag"`
	Ind1  string `yaml:"ind1"`
	Ind2  string `yaml:"ind2"`
	Code  string `yaml:"code"`
	Value string `yaml:"value"`
}

// VendorInfo is a vendor's processing profile: the matchpoints its records
// are matched on and the fields added to its records during cataloging.
type VendorInfo struct {
	Name        string
	Matchpoints Matchpoints
	BibFields   []VendorField
}

// UnknownVendor is the profile applied when no vendor rule matches a record.
const UnknownVendor = "UNKNOWN"
