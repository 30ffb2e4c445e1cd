package asinfo

import (
	"sort"
	"time"
)

// Snapshot is an immutable point-in-time view of the merged ASN dataset.
// It is built once by a provider fetch and never mutated afterwards; refreshes
// supersede it with a new snapshot rather than editing records in place.
type Snapshot struct {
	records   map[uint32]*Record
	mode      Mode
	updatedAt time.Time
}

// NewSnapshot constructs a snapshot over the given record map. The caller
// hands over ownership of the map and must not modify it afterwards.
func NewSnapshot(records map[uint32]*Record, mode Mode, updatedAt time.Time) *Snapshot {
	return &Snapshot{records: records, mode: mode, updatedAt: updatedAt}
}

// Mode reports whether the snapshot was loaded in full or simplified mode.
func (s *Snapshot) Mode() Mode {
	return s.mode
}

// UpdatedAt reports when the snapshot was successfully constructed.
func (s *Snapshot) UpdatedAt() time.Time {
	return s.updatedAt
}

// Len reports the number of ASNs in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Get returns the record for one ASN, or nil when absent.
func (s *Snapshot) Get(asn uint32) *Record {
	return s.records[asn]
}

// Lookup returns the records for the requested ASNs that exist in the
// snapshot. Duplicates in the input collapse to one result and missing ASNs
// are silently omitted. Results are ordered by ascending ASN so the output is
// deterministic for a given snapshot and input set.
func (s *Snapshot) Lookup(asns []uint32) []*Record {
	seen := make(map[uint32]struct{}, len(asns))
	found := make([]*Record, 0, len(asns))
	for _, asn := range asns {
		if _, dup := seen[asn]; dup {
			continue
		}
		seen[asn] = struct{}{}
		if rec, ok := s.records[asn]; ok {
			found = append(found, rec)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ASN < found[j].ASN })
	return found
}

// All returns every record ordered by ascending ASN. Used by the export path.
func (s *Snapshot) All() []*Record {
	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ASN < out[j].ASN })
	return out
}
