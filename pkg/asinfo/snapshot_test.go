package asinfo

import (
	"testing"
	"time"
)

func testSnapshot(t *testing.T, mode Mode) *Snapshot {
	t.Helper()
	records := map[uint32]*Record{
		13335: {ASN: 13335, Name: "CLOUDFLARENET", CountryCode: "US", As2Org: &As2Org{OrgID: "CLOUD14-ARIN", OrgName: "Cloudflare, Inc."}},
		3333:  {ASN: 3333, Name: "RIPE-NCC-AS", CountryCode: "NL"},
		15169: {ASN: 15169, Name: "GOOGLE", CountryCode: "US"},
	}
	return NewSnapshot(records, mode, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

// TestSnapshotLookup verifies deduplication, omission of missing ASNs and the
// ascending-ASN ordering of results.
func TestSnapshotLookup(t *testing.T) {
	snap := testSnapshot(t, ModeFull)

	tests := []struct {
		name string
		asns []uint32
		want []uint32
	}{
		{"single hit", []uint32{13335}, []uint32{13335}},
		{"duplicates collapse", []uint32{13335, 13335, 13335}, []uint32{13335}},
		{"missing ASN omitted", []uint32{13335, 9999}, []uint32{13335}},
		{"all missing", []uint32{1, 2, 3}, nil},
		{"ascending order regardless of input order", []uint32{15169, 3333, 13335}, []uint32{3333, 13335, 15169}},
		{"empty input", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snap.Lookup(tt.asns)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d records, got %d", len(tt.want), len(got))
			}
			for i, rec := range got {
				if rec.ASN != tt.want[i] {
					t.Errorf("result %d: expected AS%d, got AS%d", i, tt.want[i], rec.ASN)
				}
			}
		})
	}
}

// TestSnapshotLookupDeterministic confirms repeated lookups over the same
// snapshot and input set return identical results.
func TestSnapshotLookupDeterministic(t *testing.T) {
	snap := testSnapshot(t, ModeFull)
	query := []uint32{15169, 13335, 15169, 3333, 9999}

	first := snap.Lookup(query)
	for i := 0; i < 10; i++ {
		again := snap.Lookup(query)
		if len(again) != len(first) {
			t.Fatalf("result length changed: %d vs %d", len(again), len(first))
		}
		for i := range again {
			if again[i].ASN != first[i].ASN {
				t.Fatalf("result %d changed: AS%d vs AS%d", i, again[i].ASN, first[i].ASN)
			}
		}
	}
}

// TestSnapshotAll checks that the export view is sorted by ascending ASN.
func TestSnapshotAll(t *testing.T) {
	snap := testSnapshot(t, ModeSimplified)

	all := snap.All()
	if len(all) != snap.Len() {
		t.Fatalf("expected %d records, got %d", snap.Len(), len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ASN >= all[i].ASN {
			t.Errorf("records out of order: AS%d before AS%d", all[i-1].ASN, all[i].ASN)
		}
	}
}

func TestSnapshotGet(t *testing.T) {
	snap := testSnapshot(t, ModeFull)

	if rec := snap.Get(13335); rec == nil || rec.Name != "CLOUDFLARENET" {
		t.Fatalf("expected CLOUDFLARENET, got %v", rec)
	}
	if rec := snap.Get(9999); rec != nil {
		t.Fatalf("expected nil for missing ASN, got %v", rec)
	}
}

func TestSnapshotMetadata(t *testing.T) {
	snap := testSnapshot(t, ModeSimplified)

	if snap.Mode() != ModeSimplified {
		t.Errorf("expected simplified mode, got %s", snap.Mode())
	}
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if !snap.UpdatedAt().Equal(want) {
		t.Errorf("expected updatedAt %v, got %v", want, snap.UpdatedAt())
	}
}
