// Package workflow drives the certificate lifecycle: request a DNS-validated
// certificate, publish its validation records across the matched hosted
// zones, wait for issuance, and symmetrically tear everything down.
package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/michelfeldheim/cert-orchestrator/internal/aws"
	"github.com/michelfeldheim/cert-orchestrator/internal/cfn"
	"github.com/michelfeldheim/cert-orchestrator/internal/retry"
)

// validationRecordTTL is the TTL for validation CNAMEs. They are short lived
// by design so teardown does not leave long-cached records behind.
const validationRecordTTL = 60

var (
	// ErrValidationOptionsTimeout indicates the CA never reported all
	// validation records within the polling budget, on either the create or
	// the teardown path.
	ErrValidationOptionsTimeout = errors.New("timed out waiting for validation options")

	// ErrCertificateValidationTimeout indicates the certificate was never
	// issued within the polling budget.
	ErrCertificateValidationTimeout = errors.New("timed out waiting for certificate validation")

	// ErrCertificateStillInUse indicates consumers were still attached after
	// the teardown polling budget was spent.
	ErrCertificateStillInUse = errors.New("certificate still in use")
)

// Request is one certificate lifecycle request, immutable per invocation.
type Request struct {
	RequestID               string
	AppName                 string
	EnvName                 string
	DomainName              string
	SubjectAlternativeNames []string
	EnvHostedZoneID         string
	RootDNSRole             string
	Region                  string
}

// EnvironmentDomain is the certificate's primary domain, scoped to one
// environment of one application.
func (r Request) EnvironmentDomain() string {
	return fmt.Sprintf("%s.%s.%s", r.EnvName, r.AppName, r.DomainName)
}

// ApplicationDomain is the application-level domain shared by environments.
func (r Request) ApplicationDomain() string {
	return fmt.Sprintf("%s.%s", r.AppName, r.DomainName)
}

// RootDomain is the bare domain, owned by a separate account reachable only
// through the delegation role.
func (r Request) RootDomain() string {
	return r.DomainName
}

// requestedDomains lists every domain name the certificate must cover.
func (r Request) requestedDomains() []string {
	return append([]string{r.EnvironmentDomain()}, r.SubjectAlternativeNames...)
}

func requestFromEvent(event cfn.Event) Request {
	p := event.ResourceProperties
	return Request{
		RequestID:               event.RequestID,
		AppName:                 p.AppName,
		EnvName:                 p.EnvName,
		DomainName:              p.DomainName,
		SubjectAlternativeNames: p.SubjectAlternativeNames,
		EnvHostedZoneID:         p.EnvHostedZoneID,
		RootDNSRole:             p.RootDNSRole,
		Region:                  p.Region,
	}
}

// Config carries the polling profiles and fan-out bounds. All waiting is
// explicit polling with injectable jitter and sleep so tests can simulate
// many attempts without wall-clock delay.
type Config struct {
	ValidationOptionsPoller retry.Poller
	ValidatedPoller         retry.Poller
	TeardownPoller          retry.Poller
	PropagationPoller       retry.Poller

	// FanOutLimit bounds concurrent record operations across zones.
	FanOutLimit int

	// ToleratedDeleteCodes are API error codes treated as "already gone"
	// during teardown.
	ToleratedDeleteCodes []string
}

// DefaultConfig returns the production polling profiles.
func DefaultConfig() Config {
	return Config{
		ValidationOptionsPoller: retry.Poller{MaxAttempts: 10, DelayFactor: 150 * time.Millisecond},
		ValidatedPoller:         retry.Poller{MaxAttempts: 19, Delay: 30 * time.Second},
		TeardownPoller:          retry.Poller{MaxAttempts: 10, Delay: 30 * time.Second},
		PropagationPoller:       retry.Poller{MaxAttempts: 10, Delay: 30 * time.Second},
		FanOutLimit:             4,
		ToleratedDeleteCodes:    aws.DefaultToleratedDeleteCodes,
	}
}

// Workflow runs the create/validate and delete/unpublish sequences for one
// lifecycle event. It holds no mutable state across invocations, so a single
// instance is safe to use concurrently for unrelated requests.
type Workflow struct {
	certificates aws.CertificateClient
	zones        aws.ZoneClient
	assumedZones ZoneClientFactory
	records      RecordReconciler
	config       Config
	logger       logr.Logger
}

// NewWorkflow wires the workflow. The assumed factory is only invoked when a
// request carries a delegation role.
func NewWorkflow(certificates aws.CertificateClient, zones aws.ZoneClient, assumed ZoneClientFactory, config Config, logger logr.Logger) *Workflow {
	if config.FanOutLimit <= 0 {
		config.FanOutLimit = 4
	}
	if len(config.ToleratedDeleteCodes) == 0 {
		config.ToleratedDeleteCodes = aws.DefaultToleratedDeleteCodes
	}
	return &Workflow{
		certificates: certificates,
		zones:        zones,
		assumedZones: assumed,
		records:      RecordReconciler{Propagation: config.PropagationPoller, Logger: logger},
		config:       config,
		logger:       logger,
	}
}

// Provision requests the certificate, publishes validation records into every
// matched hosted zone and waits until the CA reports the certificate issued.
// Returns the certificate ARN as the physical identifier.
func (w *Workflow) Provision(ctx context.Context, event cfn.Event) (string, error) {
	req := requestFromEvent(event)
	logger := w.logger.WithValues("requestId", req.RequestID, "domain", req.EnvironmentDomain())

	arn, err := w.certificates.RequestCertificate(ctx, req.EnvironmentDomain(), req.SubjectAlternativeNames, idempotencyToken(req.RequestID), map[string]string{
		"managed-by":  "cert-orchestrator",
		"application": req.AppName,
		"environment": req.EnvName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to request certificate: %w", err)
	}
	logger.Info("Requested certificate", "arn", arn)

	details, err := w.waitForValidationOptions(ctx, arn, req.requestedDomains())
	if err != nil {
		return "", err
	}

	resolver := NewZoneResolver(req, w.zones, w.assumedZones, logger)
	operations, err := w.matchedOperations(ctx, resolver, details.ValidationOptions)
	if err != nil {
		return "", err
	}
	logger.Info("Publishing validation records", "count", len(operations))

	if err := w.fanOut(ctx, operations, func(ctx context.Context, op recordOperation) error {
		return w.records.Apply(ctx, aws.ChangeActionUpsert, op.target, op.record)
	}); err != nil {
		return "", err
	}

	if err := w.waitForValidated(ctx, arn); err != nil {
		return "", err
	}
	logger.Info("Certificate issued", "arn", arn)
	return arn, nil
}

// Decommission removes the validation records and deletes the certificate.
// The steps tolerate resources that are already gone, so a retried Delete is
// safe to re-run end to end.
func (w *Workflow) Decommission(ctx context.Context, event cfn.Event) error {
	req := requestFromEvent(event)
	arn := event.PhysicalResourceID
	logger := w.logger.WithValues("requestId", req.RequestID, "arn", arn)

	// A physical ID that is not a certificate ARN means the create flow
	// never completed; there is nothing to delete.
	if !aws.IsCertificateARN(arn) {
		logger.Info("Physical resource is not a certificate, skipping deletion")
		return nil
	}

	details, gone, err := w.waitForDeletable(ctx, arn)
	if err != nil {
		return err
	}
	if gone {
		logger.Info("Certificate already deleted")
		return nil
	}

	resolver := NewZoneResolver(req, w.zones, w.assumedZones, logger)
	operations, err := w.matchedOperations(ctx, resolver, details.ValidationOptions)
	if err != nil {
		return err
	}
	logger.Info("Removing validation records", "count", len(operations))

	if err := w.fanOut(ctx, operations, func(ctx context.Context, op recordOperation) error {
		err := w.records.Apply(ctx, aws.ChangeActionDelete, op.target, op.record)
		if err != nil && aws.IsToleratedDelete(err, w.config.ToleratedDeleteCodes) {
			logger.Info("Validation record already absent", "name", op.record.Name, "zoneId", op.target.ZoneID)
			return nil
		}
		return err
	}); err != nil {
		return err
	}

	if err := w.certificates.DeleteCertificate(ctx, arn); err != nil {
		if aws.IsToleratedDelete(err, w.config.ToleratedDeleteCodes) {
			logger.Info("Certificate already deleted")
			return nil
		}
		return fmt.Errorf("failed to delete certificate: %w", err)
	}
	logger.Info("Certificate deleted")
	return nil
}

// waitForValidationOptions polls until every requested domain's validation
// option carries a resource record.
func (w *Workflow) waitForValidationOptions(ctx context.Context, arn string, wanted []string) (*aws.CertificateDetails, error) {
	var details *aws.CertificateDetails
	err := w.config.ValidationOptionsPoller.Wait(ctx, func(ctx context.Context) (bool, error) {
		d, err := w.certificates.DescribeCertificate(ctx, arn)
		if err != nil {
			return false, err
		}
		details = d
		return wantedOptionsPopulated(d.ValidationOptions, wanted), nil
	})
	if errors.Is(err, retry.ErrExhaustedRetries) {
		return nil, fmt.Errorf("%w: %s", ErrValidationOptionsTimeout, arn)
	}
	if err != nil {
		return nil, err
	}
	return details, nil
}

// waitForValidated polls until the CA reports the certificate issued. A
// terminal CA state fails immediately.
func (w *Workflow) waitForValidated(ctx context.Context, arn string) error {
	err := w.config.ValidatedPoller.Wait(ctx, func(ctx context.Context) (bool, error) {
		d, err := w.certificates.DescribeCertificate(ctx, arn)
		if err != nil {
			return false, err
		}
		switch d.Status {
		case "ISSUED":
			return true, nil
		case "PENDING_VALIDATION":
			return false, nil
		case "FAILED", "VALIDATION_TIMED_OUT", "REVOKED":
			return false, fmt.Errorf("certificate in failed state: %s", d.Status)
		default:
			return false, nil
		}
	})
	if errors.Is(err, retry.ErrExhaustedRetries) {
		return fmt.Errorf("%w: %s", ErrCertificateValidationTimeout, arn)
	}
	return err
}

// waitForDeletable polls until the certificate has no consumers and all its
// validation options are populated. Consumers detaching during stack
// teardown is expected long-running behavior, not an error, until the budget
// runs out; exhaustion reports whether consumers or missing validation
// records held the teardown up. gone=true means the certificate no longer
// exists at all.
func (w *Workflow) waitForDeletable(ctx context.Context, arn string) (details *aws.CertificateDetails, gone bool, err error) {
	err = w.config.TeardownPoller.Wait(ctx, func(ctx context.Context) (bool, error) {
		d, describeErr := w.certificates.DescribeCertificate(ctx, arn)
		if describeErr != nil {
			if aws.IsToleratedDelete(describeErr, w.config.ToleratedDeleteCodes) {
				gone = true
				return true, nil
			}
			return false, describeErr
		}
		details = d
		return len(d.InUseBy) == 0 && allOptionsPopulated(d.ValidationOptions), nil
	})
	if errors.Is(err, retry.ErrExhaustedRetries) {
		if details != nil && len(details.InUseBy) > 0 {
			return nil, false, fmt.Errorf("%w: %s (consumers attached: %d)", ErrCertificateStillInUse, arn, len(details.InUseBy))
		}
		return nil, false, fmt.Errorf("%w: %s (validation records never reported)", ErrValidationOptionsTimeout, arn)
	}
	if err != nil {
		return nil, false, err
	}
	return details, gone, nil
}

// recordOperation pairs one validation record with its resolved target zone.
type recordOperation struct {
	target HostedZoneTarget
	record aws.DNSRecord
}

// matchedOperations resolves each populated validation option to its hosted
// zone. Options matching no recognized category are dropped: the CA may
// return informational options this deployment does not own. Options are
// deduplicated by domain so no record is written to two zones.
func (w *Workflow) matchedOperations(ctx context.Context, resolver *ZoneResolver, options []aws.ValidationOption) ([]recordOperation, error) {
	seen := make(map[string]bool)
	var operations []recordOperation
	for _, option := range options {
		if option.Record == nil {
			continue
		}
		domain := strings.TrimSuffix(option.Domain, ".")
		if seen[domain] {
			continue
		}
		seen[domain] = true

		target, ok, err := resolver.Resolve(ctx, option.Domain)
		if err != nil {
			return nil, err
		}
		if !ok {
			w.logger.Info("Dropping validation option for unrecognized domain", "domain", option.Domain)
			continue
		}
		operations = append(operations, recordOperation{
			target: target,
			record: aws.DNSRecord{
				Name:  option.Record.Name,
				Type:  option.Record.Type,
				Value: option.Record.Value,
				TTL:   validationRecordTTL,
			},
		})
	}
	return operations, nil
}

// fanOut runs one record operation per matched zone with bounded
// concurrency. The first hard error aborts the join; completed changes are
// left in place for forward progress on the next invocation.
func (w *Workflow) fanOut(ctx context.Context, operations []recordOperation, apply func(ctx context.Context, op recordOperation) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.FanOutLimit)
	for _, op := range operations {
		op := op
		g.Go(func() error {
			return apply(ctx, op)
		})
	}
	return g.Wait()
}

// idempotencyToken derives a deterministic token from the request ID so a
// retried invocation of the same logical request reuses the certificate
// instead of creating a duplicate. ACM limits tokens to 32 characters.
func idempotencyToken(requestID string) string {
	hash := sha256.Sum256([]byte(requestID))
	return hex.EncodeToString(hash[:16])
}

// wantedOptionsPopulated reports whether every requested domain has a
// validation option with a populated record.
func wantedOptionsPopulated(options []aws.ValidationOption, wanted []string) bool {
	populated := make(map[string]bool)
	for _, option := range options {
		if option.Record != nil {
			populated[strings.TrimSuffix(option.Domain, ".")] = true
		}
	}
	for _, domain := range wanted {
		if !populated[strings.TrimSuffix(domain, ".")] {
			return false
		}
	}
	return true
}

// allOptionsPopulated reports whether every option the CA returned carries a
// record, including ones outside the requested set.
func allOptionsPopulated(options []aws.ValidationOption) bool {
	for _, option := range options {
		if option.Record == nil {
			return false
		}
	}
	return true
}
