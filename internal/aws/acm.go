package aws

import (
	"context"
)

// CertificateClient defines the interface for ACM operations
type CertificateClient interface {
	// RequestCertificate requests a DNS-validated certificate for the domain
	// and its subject alternative names. The idempotency token makes retried
	// requests return the existing certificate instead of creating a new one.
	RequestCertificate(ctx context.Context, domain string, alternativeNames []string, idempotencyToken string, tags map[string]string) (certArn string, err error)

	// DescribeCertificate gets the current status, validation options and
	// consumers of a certificate
	DescribeCertificate(ctx context.Context, certArn string) (*CertificateDetails, error)

	// DeleteCertificate deletes an ACM certificate
	DeleteCertificate(ctx context.Context, certArn string) error
}

// CertificateDetails represents ACM certificate information
type CertificateDetails struct {
	Arn     string
	Domain  string
	Status  string // PENDING_VALIDATION, ISSUED, FAILED, etc.
	InUseBy []string

	// One option per requested domain name (primary + each SAN). ACM may
	// also include informational options for names outside the request.
	ValidationOptions []ValidationOption
}

// ValidationOption binds a domain name to the DNS record that proves
// ownership of it. Record is nil until ACM has generated it.
type ValidationOption struct {
	Domain string
	Record *ValidationRecord
}

// ValidationRecord represents a DNS validation record for ACM
type ValidationRecord struct {
	Name  string
	Type  string // CNAME
	Value string
}
