// Package asinfo holds the merged per-ASN data model, the immutable dataset
// snapshot built from it, and the concurrency-safe store through which the
// snapshot is published to readers.
package asinfo

// Mode selects how much of the upstream data is loaded into a snapshot.
type Mode string

const (
	// ModeFull loads every dataset, including hegemony scores, the PeeringDB
	// dump and APNIC population estimates.
	ModeFull Mode = "full"
	// ModeSimplified skips the heavy auxiliary datasets to reduce memory use.
	ModeSimplified Mode = "simplified"
)

// As2Org carries the CAIDA as2org organization mapping for an ASN.
type As2Org struct {
	OrgID   string `json:"org_id"`
	OrgName string `json:"org_name"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Hegemony carries IIJ IHR AS hegemony scores. Fractions are in [0,1].
type Hegemony struct {
	ASN  uint32  `json:"asn"`
	IPv4 float64 `json:"ipv4"`
	IPv6 float64 `json:"ipv6"`
}

// PeeringDB carries the network record from the PeeringDB dump.
type PeeringDB struct {
	ASN      uint32 `json:"asn"`
	Name     string `json:"name"`
	AKA      string `json:"aka"`
	NameLong string `json:"name_long"`
	Website  string `json:"website"`
	IRRAsSet string `json:"irr_as_set"`
}

// Population carries APNIC per-AS user population estimates.
type Population struct {
	UserCount      int64   `json:"user_count"`
	SampleCount    int64   `json:"sample_count"`
	PercentGlobal  float64 `json:"percent_global"`
	PercentCountry float64 `json:"percent_country"`
}

// Record is the merged metadata for one autonomous system. The nested
// sub-records are nil when the corresponding dataset did not cover the ASN or
// was not loaded; nil is meaningful and distinct from an all-zero value.
type Record struct {
	ASN         uint32      `json:"asn"`
	Name        string      `json:"name"`
	CountryCode string      `json:"country"`
	As2Org      *As2Org     `json:"as2org,omitempty"`
	Hegemony    *Hegemony   `json:"hegemony,omitempty"`
	PeeringDB   *PeeringDB  `json:"peeringdb,omitempty"`
	Population  *Population `json:"population,omitempty"`
}

// Simplified is the flat reduced shape used by CSV exports and legacy API
// responses.
type Simplified struct {
	ASN         uint32 `json:"asn"`
	ASName      string `json:"as_name"`
	OrgID       string `json:"org_id"`
	OrgName     string `json:"org_name"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	DataSource  string `json:"data_source"`
}

// Simplify flattens a record into the reduced shape. The country name is the
// caller's to supply since it is derived from a static table, not stored.
func (r *Record) Simplify(countryName string) Simplified {
	s := Simplified{
		ASN:         r.ASN,
		ASName:      r.Name,
		CountryCode: r.CountryCode,
		CountryName: countryName,
	}
	if r.As2Org != nil {
		s.OrgID = r.As2Org.OrgID
		s.OrgName = r.As2Org.OrgName
	}
	return s
}
