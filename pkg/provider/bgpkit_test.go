package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/asnlab/asninfo/pkg/asinfo"
	"github.com/asnlab/asninfo/pkg/config"
)

const asnamesBody = `3333 RIPE-NCC-AS, NL
13335 CLOUDFLARENET, US
15169 GOOGLE, US
64512 PRIVATE-USE
`

// upstreams spins up one httptest server that plays all five dataset
// endpoints, with per-path overrides for failure injection.
func upstreams(t *testing.T, overrides map[string]http.HandlerFunc) (config.ProviderConfig, *httptest.Server) {
	t.Helper()

	bodies := map[string]string{
		"/asnames":    asnamesBody,
		"/as2org":     `{"asn":13335,"org_id":"CLOUD14-ARIN","org_name":"Cloudflare, Inc.","name":"CLOUDFLARENET","country":"US"}` + "\n",
		"/hegemony":   `{"asn":13335,"ipv4":0.0123,"ipv6":0.0456}` + "\n",
		"/peeringdb":  `{"asn":13335,"name":"Cloudflare","aka":"","name_long":"Cloudflare, Inc.","website":"https://cloudflare.com","irr_as_set":"AS-CLOUDFLARE"}` + "\n",
		"/population": `{"asn":15169,"user_count":1000,"sample_count":50,"percent_global":0.5,"percent_country":1.5}` + "\n",
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, found := overrides[r.URL.Path]; found {
			h(w, r)
			return
		}
		body, found := bodies[r.URL.Path]
		if !found {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return config.ProviderConfig{
		ASNamesURL:    srv.URL + "/asnames",
		As2OrgURL:     srv.URL + "/as2org",
		HegemonyURL:   srv.URL + "/hegemony",
		PeeringDBURL:  srv.URL + "/peeringdb",
		PopulationURL: srv.URL + "/population",
		TimeoutSecs:   5,
	}, srv
}

func fail(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "upstream exploded", http.StatusInternalServerError)
}

func TestFetchFullMode(t *testing.T) {
	cfg, _ := upstreams(t, nil)
	p := NewBGPKit(cfg, zap.NewNop())

	snap, err := p.Fetch(context.Background(), asinfo.ModeFull)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Len() != 4 {
		t.Fatalf("expected 4 records, got %d", snap.Len())
	}
	if snap.Mode() != asinfo.ModeFull {
		t.Errorf("expected full mode, got %s", snap.Mode())
	}

	rec := snap.Get(13335)
	if rec == nil {
		t.Fatal("expected record for AS13335")
	}
	if rec.Name != "CLOUDFLARENET" || rec.CountryCode != "US" {
		t.Errorf("unexpected primary fields: %+v", rec)
	}
	if rec.As2Org == nil || rec.As2Org.OrgName != "Cloudflare, Inc." {
		t.Errorf("unexpected as2org: %+v", rec.As2Org)
	}
	if rec.Hegemony == nil || rec.Hegemony.IPv4 != 0.0123 || rec.Hegemony.IPv6 != 0.0456 {
		t.Errorf("unexpected hegemony: %+v", rec.Hegemony)
	}
	if rec.PeeringDB == nil || rec.PeeringDB.IRRAsSet != "AS-CLOUDFLARE" {
		t.Errorf("unexpected peeringdb: %+v", rec.PeeringDB)
	}

	// Population only covers AS15169 in the fixture.
	if rec.Population != nil {
		t.Errorf("expected absent population for AS13335, got %+v", rec.Population)
	}
	if g := snap.Get(15169); g == nil || g.Population == nil || g.Population.UserCount != 1000 {
		t.Errorf("unexpected population for AS15169: %+v", g)
	}
}

// TestFetchSimplifiedMode verifies the heavy datasets are never requested and
// their fields stay absent.
func TestFetchSimplifiedMode(t *testing.T) {
	heavyHit := false
	poison := func(w http.ResponseWriter, r *http.Request) {
		heavyHit = true
		fail(w, r)
	}
	cfg, _ := upstreams(t, map[string]http.HandlerFunc{
		"/hegemony": poison, "/peeringdb": poison, "/population": poison,
	})
	p := NewBGPKit(cfg, zap.NewNop())

	snap, err := p.Fetch(context.Background(), asinfo.ModeSimplified)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if heavyHit {
		t.Error("simplified mode requested a heavy dataset")
	}

	for _, rec := range snap.All() {
		if rec.Hegemony != nil || rec.PeeringDB != nil || rec.Population != nil {
			t.Errorf("AS%d carries auxiliary data in simplified mode", rec.ASN)
		}
	}
}

// TestFetchPrimaryFailure confirms an unreachable registry fails the fetch
// outright with no snapshot.
func TestFetchPrimaryFailure(t *testing.T) {
	cfg, _ := upstreams(t, map[string]http.HandlerFunc{"/asnames": fail})
	p := NewBGPKit(cfg, zap.NewNop())

	if snap, err := p.Fetch(context.Background(), asinfo.ModeFull); err == nil {
		t.Fatalf("expected error, got snapshot with %d records", snap.Len())
	}
}

// TestFetchAuxiliaryFailure confirms a failed auxiliary dataset degrades to
// absent fields while the primary data still loads.
func TestFetchAuxiliaryFailure(t *testing.T) {
	cfg, _ := upstreams(t, map[string]http.HandlerFunc{"/hegemony": fail, "/population": fail})
	p := NewBGPKit(cfg, zap.NewNop())

	snap, err := p.Fetch(context.Background(), asinfo.ModeFull)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := snap.Get(13335)
	if rec == nil || rec.Name != "CLOUDFLARENET" {
		t.Fatalf("primary data missing: %+v", rec)
	}
	if rec.Hegemony != nil {
		t.Errorf("expected absent hegemony after source failure, got %+v", rec.Hegemony)
	}
	if rec.PeeringDB == nil {
		t.Error("expected peeringdb to survive unrelated failures")
	}
}

func TestParseASNameLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		asn     uint32
		asname  string
		country string
		ok      bool
	}{
		{"plain", "13335 CLOUDFLARENET, US", 13335, "CLOUDFLARENET", "US", true},
		{"name with commas", "3356 LEVEL3 Level 3 Parent, LLC, US", 3356, "LEVEL3 Level 3 Parent, LLC", "US", true},
		{"no country", "64512 PRIVATE-USE", 64512, "PRIVATE-USE", "", true},
		{"lowercase country normalized", "3333 RIPE-NCC-AS, nl", 3333, "RIPE-NCC-AS", "NL", true},
		{"comment", "# header", 0, "", "", false},
		{"blank", "   ", 0, "", "", false},
		{"not a number", "ASN name, US", 0, "", "", false},
		{"asn overflow", "4294967296 TOOBIG, US", 0, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asn, name, country, ok := parseASNameLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if asn != tt.asn || name != tt.asname || country != tt.country {
				t.Errorf("got (%d, %q, %q), want (%d, %q, %q)", asn, name, country, tt.asn, tt.asname, tt.country)
			}
		})
	}
}
