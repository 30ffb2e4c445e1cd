package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/asnlab/asninfo/pkg/asinfo"
	"github.com/asnlab/asninfo/pkg/config"
)

// BGPKit fetches and merges the public ASN datasets: the RIPE asnames registry
// as the primary source, the as2org organization mapping, and in full mode the
// IHR hegemony scores, the PeeringDB dump and APNIC population estimates.
type BGPKit struct {
	cfg    config.ProviderConfig
	client *http.Client
	logger *zap.Logger
}

// NewBGPKit builds a provider over the configured upstream endpoints.
func NewBGPKit(cfg config.ProviderConfig, logger *zap.Logger) *BGPKit {
	return &BGPKit{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second},
		logger: logger,
	}
}

// Fetch implements Provider. The asnames registry failing fails the whole
// fetch; any other dataset failing only leaves its fields absent.
func (p *BGPKit) Fetch(ctx context.Context, mode asinfo.Mode) (*asinfo.Snapshot, error) {
	records, err := p.fetchASNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch asnames registry: %w", err)
	}

	if err := p.fetchAs2Org(ctx, records); err != nil {
		p.logger.Warn("as2org dataset unavailable, org fields will be absent", zap.Error(err))
	}

	if mode == asinfo.ModeFull {
		if err := p.fetchHegemony(ctx, records); err != nil {
			p.logger.Warn("hegemony dataset unavailable, hegemony fields will be absent", zap.Error(err))
		}
		if err := p.fetchPeeringDB(ctx, records); err != nil {
			p.logger.Warn("peeringdb dataset unavailable, peeringdb fields will be absent", zap.Error(err))
		}
		if err := p.fetchPopulation(ctx, records); err != nil {
			p.logger.Warn("population dataset unavailable, population fields will be absent", zap.Error(err))
		}
	}

	return asinfo.NewSnapshot(records, mode, time.Now().UTC()), nil
}

// get issues one upstream request and hands the body to the caller.
func (p *BGPKit) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return resp.Body, nil
}

// fetchASNames loads the primary registry. Each line has the form
// "13335 CLOUDFLARENET, US"; the country code is the suffix after the last
// comma and names may themselves contain commas.
func (p *BGPKit) fetchASNames(ctx context.Context) (map[uint32]*asinfo.Record, error) {
	body, err := p.get(ctx, p.cfg.ASNamesURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	records := make(map[uint32]*asinfo.Record)
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		asn, name, country, ok := parseASNameLine(scanner.Text())
		if !ok {
			continue
		}
		records[asn] = &asinfo.Record{ASN: asn, Name: name, CountryCode: country}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read asnames body: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("asnames registry at %s yielded no records", p.cfg.ASNamesURL)
	}
	return records, nil
}

// parseASNameLine splits one registry line into its ASN, name and country
// code. Malformed lines report ok=false and are skipped.
func parseASNameLine(line string) (asn uint32, name, country string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return 0, "", "", false
	}

	numText, rest, found := strings.Cut(line, " ")
	if !found {
		return 0, "", "", false
	}
	num, err := strconv.ParseUint(numText, 10, 32)
	if err != nil {
		return 0, "", "", false
	}

	name = strings.TrimSpace(rest)
	if idx := strings.LastIndex(name, ","); idx >= 0 {
		code := strings.TrimSpace(name[idx+1:])
		if len(code) == 2 {
			country = strings.ToUpper(code)
			name = strings.TrimSpace(name[:idx])
		}
	}
	return uint32(num), name, country, true
}

// decodeJSONL streams newline-delimited JSON, invoking fn per decoded line.
func decodeJSONL[T any](body io.Reader, fn func(T)) error {
	dec := json.NewDecoder(body)
	for {
		var item T
		if err := dec.Decode(&item); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		fn(item)
	}
}

func (p *BGPKit) fetchAs2Org(ctx context.Context, records map[uint32]*asinfo.Record) error {
	body, err := p.get(ctx, p.cfg.As2OrgURL)
	if err != nil {
		return err
	}
	defer body.Close()

	type as2orgEntry struct {
		ASN     uint32 `json:"asn"`
		OrgID   string `json:"org_id"`
		OrgName string `json:"org_name"`
		Name    string `json:"name"`
		Country string `json:"country"`
	}
	return decodeJSONL(body, func(e as2orgEntry) {
		if rec, found := records[e.ASN]; found {
			rec.As2Org = &asinfo.As2Org{OrgID: e.OrgID, OrgName: e.OrgName, Name: e.Name, Country: e.Country}
		}
	})
}

func (p *BGPKit) fetchHegemony(ctx context.Context, records map[uint32]*asinfo.Record) error {
	body, err := p.get(ctx, p.cfg.HegemonyURL)
	if err != nil {
		return err
	}
	defer body.Close()

	type hegemonyEntry struct {
		ASN  uint32  `json:"asn"`
		IPv4 float64 `json:"ipv4"`
		IPv6 float64 `json:"ipv6"`
	}
	return decodeJSONL(body, func(e hegemonyEntry) {
		if rec, found := records[e.ASN]; found {
			rec.Hegemony = &asinfo.Hegemony{ASN: e.ASN, IPv4: e.IPv4, IPv6: e.IPv6}
		}
	})
}

func (p *BGPKit) fetchPeeringDB(ctx context.Context, records map[uint32]*asinfo.Record) error {
	body, err := p.get(ctx, p.cfg.PeeringDBURL)
	if err != nil {
		return err
	}
	defer body.Close()

	type peeringdbEntry struct {
		ASN      uint32 `json:"asn"`
		Name     string `json:"name"`
		AKA      string `json:"aka"`
		NameLong string `json:"name_long"`
		Website  string `json:"website"`
		IRRAsSet string `json:"irr_as_set"`
	}
	return decodeJSONL(body, func(e peeringdbEntry) {
		if rec, found := records[e.ASN]; found {
			rec.PeeringDB = &asinfo.PeeringDB{
				ASN: e.ASN, Name: e.Name, AKA: e.AKA,
				NameLong: e.NameLong, Website: e.Website, IRRAsSet: e.IRRAsSet,
			}
		}
	})
}

func (p *BGPKit) fetchPopulation(ctx context.Context, records map[uint32]*asinfo.Record) error {
	body, err := p.get(ctx, p.cfg.PopulationURL)
	if err != nil {
		return err
	}
	defer body.Close()

	type populationEntry struct {
		ASN            uint32  `json:"asn"`
		UserCount      int64   `json:"user_count"`
		SampleCount    int64   `json:"sample_count"`
		PercentGlobal  float64 `json:"percent_global"`
		PercentCountry float64 `json:"percent_country"`
	}
	return decodeJSONL(body, func(e populationEntry) {
		if rec, found := records[e.ASN]; found {
			rec.Population = &asinfo.Population{
				UserCount: e.UserCount, SampleCount: e.SampleCount,
				PercentGlobal: e.PercentGlobal, PercentCountry: e.PercentCountry,
			}
		}
	})
}
