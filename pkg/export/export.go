// Package export writes a dataset snapshot to JSON, JSONL, or CSV. The CSV
// shape is always the simplified schema regardless of how the snapshot was
// loaded.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/asnlab/asninfo/pkg/asinfo"
	"github.com/asnlab/asninfo/pkg/countries"
)

// Format is the export file format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
)

// csvHeader is the fixed simplified CSV schema.
var csvHeader = []string{"asn", "as_name", "org_id", "org_name", "country_code", "country_name", "data_source"}

// DetectFormat picks the export format from the output path by substring, so
// compressed paths like "asninfo.jsonl.gz" still resolve. ".jsonl" is checked
// before ".json".
func DetectFormat(path string) (Format, error) {
	switch {
	case strings.Contains(path, ".jsonl"):
		return FormatJSONL, nil
	case strings.Contains(path, ".csv"):
		return FormatCSV, nil
	case strings.Contains(path, ".json"):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format for %q: choose a csv, json or jsonl path", path)
	}
}

// Write exports the snapshot's records, ordered by ascending ASN. CSV always
// uses the simplified schema; the simplified flag additionally forces the flat
// shape for JSON and JSONL.
func Write(w io.Writer, snap *asinfo.Snapshot, format Format, simplified bool) error {
	records := snap.All()

	switch format {
	case FormatCSV:
		return writeCSV(w, records)
	case FormatJSON:
		enc := json.NewEncoder(w)
		if simplified {
			return enc.Encode(simplify(records))
		}
		return enc.Encode(withCountryNames(records))
	case FormatJSONL:
		enc := json.NewEncoder(w)
		if simplified {
			for _, rec := range simplify(records) {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			return nil
		}
		for _, rec := range withCountryNames(records) {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// recordOut mirrors the API output shape: the full record plus the derived
// country name.
type recordOut struct {
	*asinfo.Record
	CountryName string `json:"country_name"`
}

func withCountryNames(records []*asinfo.Record) []recordOut {
	out := make([]recordOut, 0, len(records))
	for _, rec := range records {
		out = append(out, recordOut{Record: rec, CountryName: countries.Name(rec.CountryCode)})
	}
	return out
}

func simplify(records []*asinfo.Record) []asinfo.Simplified {
	out := make([]asinfo.Simplified, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Simplify(countries.Name(rec.CountryCode)))
	}
	return out
}

func writeCSV(w io.Writer, records []*asinfo.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		s := rec.Simplify(countries.Name(rec.CountryCode))
		row := []string{
			strconv.FormatUint(uint64(s.ASN), 10),
			stripQuotes(s.ASName),
			s.OrgID,
			stripQuotes(s.OrgName),
			s.CountryCode,
			s.CountryName,
			s.DataSource,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// stripQuotes removes double quotes from free-text names, matching the shape
// of the historical CSV dumps.
func stripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
