package aws

import (
	"context"
	"errors"
)

// ErrHostedZoneNotFound indicates no hosted zone exists with the requested name.
var ErrHostedZoneNotFound = errors.New("hosted zone not found")

// ChangeAction is the Route53 change batch action for a record set.
type ChangeAction string

const (
	ChangeActionUpsert ChangeAction = "UPSERT"
	ChangeActionDelete ChangeAction = "DELETE"
)

// ZoneClient defines the interface for Route53 operations
type ZoneClient interface {
	// HostedZoneIDByName looks up a hosted zone by its exact DNS name.
	// Returns ErrHostedZoneNotFound if no zone matches.
	HostedZoneIDByName(ctx context.Context, name string) (zoneID string, err error)

	// ChangeRecordSet submits a single record set change to the zone and
	// returns the change ID for propagation tracking
	ChangeRecordSet(ctx context.Context, zoneID string, action ChangeAction, record DNSRecord) (changeID string, err error)

	// ChangeStatus reports whether the change has fully propagated to all
	// authoritative name servers
	ChangeStatus(ctx context.Context, changeID string) (propagated bool, err error)
}

// DNSRecord represents a Route53 DNS record
type DNSRecord struct {
	Name  string
	Type  string // CNAME for ACM validation
	Value string
	TTL   int64
}
