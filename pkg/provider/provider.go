// Package provider retrieves the upstream ASN datasets and merges them into a
// single immutable snapshot. The primary registry (ASN, name, country) must
// load for a fetch to succeed; the auxiliary datasets degrade gracefully,
// leaving only their fields absent when their source is unreachable.
package provider

import (
	"context"

	"github.com/asnlab/asninfo/pkg/asinfo"
)

// Provider produces a fully-populated dataset snapshot. Implementations do not
// retry; retry policy belongs to the caller.
type Provider interface {
	Fetch(ctx context.Context, mode asinfo.Mode) (*asinfo.Snapshot, error)
}
