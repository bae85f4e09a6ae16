package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/michelfeldheim/cert-orchestrator/internal/aws"
)

var (
	// ErrZoneNotFound indicates a recognized domain has no hosted zone.
	ErrZoneNotFound = errors.New("no hosted zone found for domain")

	// ErrCredentials indicates the delegation role could not be assumed.
	ErrCredentials = errors.New("failed to obtain zone credentials")
)

// HostedZoneTarget binds a domain name to the hosted zone holding its records
// and the client authorized to mutate that zone.
type HostedZoneTarget struct {
	Domain string
	ZoneID string
	Zones  aws.ZoneClient
}

// ZoneClientFactory builds a ZoneClient operating with credentials assumed
// from the given role. Called at most once per invocation; the credentials
// are short lived and never cached across invocations.
type ZoneClientFactory func(ctx context.Context, roleArn string) (aws.ZoneClient, error)

// zoneMatcher pairs one recognized domain pattern with the way its zone is
// located. Matchers are an ordered list so a new zone category is a data
// change, not a control flow change.
type zoneMatcher struct {
	category string
	domain   string
	resolve  func(ctx context.Context) (HostedZoneTarget, error)
}

// ZoneResolver locates the hosted zone owning a validation record's domain.
// Three categories are recognized: the environment zone (pre-supplied ID, no
// lookup), the application zone (lookup by name, default credentials) and the
// root zone (lookup by name, assumed delegation role credentials).
type ZoneResolver struct {
	logger   logr.Logger
	matchers []zoneMatcher
}

// NewZoneResolver builds the matcher list for one certificate request.
func NewZoneResolver(req Request, zones aws.ZoneClient, assumed ZoneClientFactory, logger logr.Logger) *ZoneResolver {
	r := &ZoneResolver{logger: logger}

	if req.EnvHostedZoneID != "" {
		envDomain := req.EnvironmentDomain()
		envZoneID := req.EnvHostedZoneID
		r.matchers = append(r.matchers, zoneMatcher{
			category: "environment",
			domain:   envDomain,
			resolve: func(ctx context.Context) (HostedZoneTarget, error) {
				return HostedZoneTarget{Domain: envDomain, ZoneID: envZoneID, Zones: zones}, nil
			},
		})
	}

	appDomain := req.ApplicationDomain()
	r.matchers = append(r.matchers, zoneMatcher{
		category: "application",
		domain:   appDomain,
		resolve: func(ctx context.Context) (HostedZoneTarget, error) {
			return lookupTarget(ctx, zones, appDomain)
		},
	})

	if req.RootDNSRole != "" {
		rootDomain := req.RootDomain()
		roleArn := req.RootDNSRole
		r.matchers = append(r.matchers, zoneMatcher{
			category: "root",
			domain:   rootDomain,
			resolve: func(ctx context.Context) (HostedZoneTarget, error) {
				client, err := assumed(ctx, roleArn)
				if err != nil {
					return HostedZoneTarget{}, fmt.Errorf("%w: assume %s: %w", ErrCredentials, roleArn, err)
				}
				return lookupTarget(ctx, client, rootDomain)
			},
		})
	}

	return r
}

// Resolve returns the target zone for a domain, or ok=false when the domain
// matches none of the recognized categories and is not part of this
// deployment's validation set.
func (r *ZoneResolver) Resolve(ctx context.Context, domain string) (HostedZoneTarget, bool, error) {
	name := strings.TrimSuffix(domain, ".")
	for _, m := range r.matchers {
		if name != m.domain {
			continue
		}
		target, err := m.resolve(ctx)
		if err != nil {
			return HostedZoneTarget{}, false, err
		}
		r.logger.Info("Resolved hosted zone",
			"category", m.category,
			"domain", name,
			"zoneId", target.ZoneID)
		return target, true, nil
	}
	return HostedZoneTarget{}, false, nil
}

// lookupTarget finds a zone by exact DNS name. A single best-effort call:
// zone existence is stable, so retries belong to record operations.
func lookupTarget(ctx context.Context, client aws.ZoneClient, domain string) (HostedZoneTarget, error) {
	zoneID, err := client.HostedZoneIDByName(ctx, domain)
	if err != nil {
		if errors.Is(err, aws.ErrHostedZoneNotFound) {
			return HostedZoneTarget{}, fmt.Errorf("%w: %s", ErrZoneNotFound, domain)
		}
		return HostedZoneTarget{}, fmt.Errorf("failed to locate hosted zone for %s: %w", domain, err)
	}
	return HostedZoneTarget{Domain: domain, ZoneID: zoneID, Zones: client}, nil
}
