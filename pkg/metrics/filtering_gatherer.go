package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// filteringGatherer wraps another Gatherer and drops metric families whose
// names carry any of the configured prefixes. Used to trim the default Go
// runtime registry down to what the dashboards actually consume.
type filteringGatherer struct {
	inner        prometheus.Gatherer
	dropPrefixes []string
}

func (f filteringGatherer) Gather() ([]*io_prometheus_client.MetricFamily, error) {
	mfs, err := f.inner.Gather()
	if err != nil {
		return nil, err
	}
	out := make([]*io_prometheus_client.MetricFamily, 0, len(mfs))
	for _, mf := range mfs {
		if !f.dropped(mf.GetName()) {
			out = append(out, mf)
		}
	}
	return out, nil
}

func (f filteringGatherer) dropped(name string) bool {
	for _, p := range f.dropPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
