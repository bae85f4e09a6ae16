package aws

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/smithy-go"
)

// RequestCertificateCall records the arguments of one RequestCertificate call.
type RequestCertificateCall struct {
	Domain           string
	AlternativeNames []string
	IdempotencyToken string
}

// MockCertificateClient is a mock implementation for testing. Safe for
// concurrent use; the workflow fans out against shared clients.
type MockCertificateClient struct {
	mu sync.Mutex

	Certificates map[string]*CertificateDetails

	RequestCalls  []RequestCertificateCall
	DescribeCalls int
	DeleteCalls   int

	RequestErr  error
	DescribeErr error
	DeleteErr   error

	// RecordsPending makes requested certificates start without validation
	// records, as ACM does for a short window after a request.
	RecordsPending bool

	// OnDescribe is invoked with the 1-based describe count before each
	// describe returns, so tests can simulate state changing between polls.
	OnDescribe func(call int, details *CertificateDetails)
}

func NewMockCertificateClient() *MockCertificateClient {
	return &MockCertificateClient{
		Certificates: make(map[string]*CertificateDetails),
	}
}

func (m *MockCertificateClient) RequestCertificate(ctx context.Context, domain string, alternativeNames []string, idempotencyToken string, tags map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RequestErr != nil {
		return "", m.RequestErr
	}
	m.RequestCalls = append(m.RequestCalls, RequestCertificateCall{
		Domain:           domain,
		AlternativeNames: alternativeNames,
		IdempotencyToken: idempotencyToken,
	})

	// Same token yields the same certificate, as ACM guarantees.
	arn := fmt.Sprintf("arn:aws:acm:us-east-1:123456789012:certificate/%s", idempotencyToken)
	if _, ok := m.Certificates[arn]; ok {
		return arn, nil
	}

	details := &CertificateDetails{
		Arn:    arn,
		Domain: domain,
		Status: "PENDING_VALIDATION",
	}
	for _, name := range append([]string{domain}, alternativeNames...) {
		option := ValidationOption{Domain: name}
		if !m.RecordsPending {
			option.Record = validationRecordFor(name)
		}
		details.ValidationOptions = append(details.ValidationOptions, option)
	}
	m.Certificates[arn] = details
	return arn, nil
}

func (m *MockCertificateClient) DescribeCertificate(ctx context.Context, certArn string) (*CertificateDetails, error) {
	m.mu.Lock()
	m.DescribeCalls++
	call := m.DescribeCalls
	if m.DescribeErr != nil {
		m.mu.Unlock()
		return nil, m.DescribeErr
	}
	cert, ok := m.Certificates[certArn]
	m.mu.Unlock()

	if !ok {
		return nil, notFoundError("certificate", certArn)
	}
	// Invoked unlocked so the callback may call back into the mock, e.g.
	// PopulateRecords.
	if m.OnDescribe != nil {
		m.OnDescribe(call, cert)
	}
	return cert, nil
}

func (m *MockCertificateClient) DeleteCertificate(ctx context.Context, certArn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.Certificates[certArn]; !ok {
		return notFoundError("certificate", certArn)
	}
	delete(m.Certificates, certArn)
	return nil
}

// PopulateRecords fills in the validation record of every pending option.
func (m *MockCertificateClient) PopulateRecords(certArn string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cert, ok := m.Certificates[certArn]
	if !ok {
		return
	}
	for i := range cert.ValidationOptions {
		if cert.ValidationOptions[i].Record == nil {
			cert.ValidationOptions[i].Record = validationRecordFor(cert.ValidationOptions[i].Domain)
		}
	}
}

func validationRecordFor(domain string) *ValidationRecord {
	return &ValidationRecord{
		Name:  fmt.Sprintf("_mockvalidation.%s.", domain),
		Type:  "CNAME",
		Value: fmt.Sprintf("_%s.acm-validations.aws.", domain),
	}
}

// RecordChange records one record set change applied to a zone.
type RecordChange struct {
	ZoneID string
	Record DNSRecord
}

// MockZoneClient is a mock implementation for testing. Safe for concurrent
// use; the workflow applies record changes from multiple goroutines.
type MockZoneClient struct {
	mu sync.Mutex

	ZoneIDByName map[string]string // zone DNS name -> zone ID
	Records      map[string]DNSRecord

	Upserts []RecordChange
	Deletes []RecordChange

	LookupErr error
	ChangeErr error

	// PropagationPolls is how many ChangeStatus calls a change stays
	// PENDING before reporting INSYNC.
	PropagationPolls int

	changeSeq   int
	statusCalls map[string]int
}

func NewMockZoneClient() *MockZoneClient {
	return &MockZoneClient{
		ZoneIDByName: make(map[string]string),
		Records:      make(map[string]DNSRecord),
		statusCalls:  make(map[string]int),
	}
}

func (m *MockZoneClient) HostedZoneIDByName(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LookupErr != nil {
		return "", m.LookupErr
	}
	zoneID, ok := m.ZoneIDByName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrHostedZoneNotFound, name)
	}
	return zoneID, nil
}

func (m *MockZoneClient) ChangeRecordSet(ctx context.Context, zoneID string, action ChangeAction, record DNSRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ChangeErr != nil {
		return "", m.ChangeErr
	}

	key := recordKey(zoneID, record.Name, record.Type)
	switch action {
	case ChangeActionUpsert:
		m.Records[key] = record
		m.Upserts = append(m.Upserts, RecordChange{ZoneID: zoneID, Record: record})
	case ChangeActionDelete:
		if _, ok := m.Records[key]; !ok {
			return "", &smithy.GenericAPIError{
				Code:    "InvalidChangeBatch",
				Message: fmt.Sprintf("tried to delete resource record set %s but it was not found", record.Name),
			}
		}
		delete(m.Records, key)
		m.Deletes = append(m.Deletes, RecordChange{ZoneID: zoneID, Record: record})
	default:
		return "", fmt.Errorf("unsupported change action: %s", action)
	}

	m.changeSeq++
	return fmt.Sprintf("change-%d", m.changeSeq), nil
}

func (m *MockZoneClient) ChangeStatus(ctx context.Context, changeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statusCalls[changeID]++
	return m.statusCalls[changeID] > m.PropagationPolls, nil
}

func recordKey(zoneID, name, recordType string) string {
	return fmt.Sprintf("%s:%s:%s", zoneID, name, recordType)
}

func notFoundError(kind, id string) error {
	return &smithy.GenericAPIError{
		Code:    "ResourceNotFoundException",
		Message: fmt.Sprintf("%s not found: %s", kind, id),
	}
}
