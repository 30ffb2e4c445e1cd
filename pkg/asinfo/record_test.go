package asinfo

import "testing"

func TestSimplify(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		cname  string
		want   Simplified
	}{
		{
			"with organization",
			Record{ASN: 13335, Name: "CLOUDFLARENET", CountryCode: "US", As2Org: &As2Org{OrgID: "CLOUD14-ARIN", OrgName: "Cloudflare, Inc."}},
			"United States",
			Simplified{ASN: 13335, ASName: "CLOUDFLARENET", OrgID: "CLOUD14-ARIN", OrgName: "Cloudflare, Inc.", CountryCode: "US", CountryName: "United States"},
		},
		{
			"without organization",
			Record{ASN: 3333, Name: "RIPE-NCC-AS", CountryCode: "NL"},
			"Netherlands",
			Simplified{ASN: 3333, ASName: "RIPE-NCC-AS", CountryCode: "NL", CountryName: "Netherlands"},
		},
		{
			"unknown country",
			Record{ASN: 64512, Name: "PRIVATE"},
			"",
			Simplified{ASN: 64512, ASName: "PRIVATE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Simplify(tt.cname); got != tt.want {
				t.Errorf("unexpected result:\n got %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

// TestSimplifyDropsAuxiliaryData ensures the flat shape never leaks full-mode
// datasets regardless of what the record carries.
func TestSimplifyDropsAuxiliaryData(t *testing.T) {
	rec := Record{
		ASN:         13335,
		Name:        "CLOUDFLARENET",
		CountryCode: "US",
		Hegemony:    &Hegemony{ASN: 13335, IPv4: 0.01, IPv6: 0.02},
		PeeringDB:   &PeeringDB{ASN: 13335, Name: "Cloudflare"},
		Population:  &Population{UserCount: 100},
	}

	got := rec.Simplify("United States")
	want := Simplified{ASN: 13335, ASName: "CLOUDFLARENET", CountryCode: "US", CountryName: "United States"}
	if got != want {
		t.Errorf("unexpected result:\n got %+v\nwant %+v", got, want)
	}
}
