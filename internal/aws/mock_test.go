package aws

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestMockCertificateClient_SameTokenSameCertificate(t *testing.T) {
	m := NewMockCertificateClient()
	ctx := context.Background()

	first, err := m.RequestCertificate(ctx, "test.app.example.com", nil, "token-1", nil)
	if err != nil {
		t.Fatalf("RequestCertificate() error = %v", err)
	}
	second, err := m.RequestCertificate(ctx, "test.app.example.com", nil, "token-1", nil)
	if err != nil {
		t.Fatalf("RequestCertificate() error = %v", err)
	}
	if first != second {
		t.Errorf("same token produced different ARNs: %s vs %s", first, second)
	}
	if len(m.Certificates) != 1 {
		t.Errorf("expected 1 certificate, got %d", len(m.Certificates))
	}
}

func TestMockCertificateClient_NotFoundCode(t *testing.T) {
	m := NewMockCertificateClient()

	_, err := m.DescribeCertificate(context.Background(), "arn:aws:acm:us-east-1:123456789012:certificate/missing")
	if code := ErrorCode(err); code != "ResourceNotFoundException" {
		t.Errorf("ErrorCode() = %q, want ResourceNotFoundException", code)
	}
}

func TestMockZoneClient_DeleteAbsentRecord(t *testing.T) {
	m := NewMockZoneClient()

	record := DNSRecord{Name: "_abc.example.com.", Type: "CNAME", Value: "x", TTL: 60}
	_, err := m.ChangeRecordSet(context.Background(), "Z-ENV", ChangeActionDelete, record)
	if code := ErrorCode(err); code != "InvalidChangeBatch" {
		t.Errorf("ErrorCode() = %q, want InvalidChangeBatch", code)
	}
}

// The workflow applies record changes to a shared client from multiple
// goroutines, so the mock must hold up under the race detector.
func TestMockZoneClient_ConcurrentChanges(t *testing.T) {
	m := NewMockZoneClient()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record := DNSRecord{
				Name:  fmt.Sprintf("_record%d.example.com.", i),
				Type:  "CNAME",
				Value: "x",
				TTL:   60,
			}
			changeID, err := m.ChangeRecordSet(ctx, "Z-ENV", ChangeActionUpsert, record)
			if err != nil {
				t.Errorf("upsert %d: %v", i, err)
				return
			}
			if _, err := m.ChangeStatus(ctx, changeID); err != nil {
				t.Errorf("status %d: %v", i, err)
				return
			}
			if _, err := m.ChangeRecordSet(ctx, "Z-ENV", ChangeActionDelete, record); err != nil {
				t.Errorf("delete %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if len(m.Upserts) != 8 {
		t.Errorf("expected 8 upserts, got %d", len(m.Upserts))
	}
	if len(m.Deletes) != 8 {
		t.Errorf("expected 8 deletes, got %d", len(m.Deletes))
	}
	if len(m.Records) != 0 {
		t.Errorf("expected no records left, got %d", len(m.Records))
	}
}

func TestMockCertificateClient_ConcurrentDescribes(t *testing.T) {
	m := NewMockCertificateClient()
	ctx := context.Background()

	arn, err := m.RequestCertificate(ctx, "test.app.example.com", nil, "token-1", nil)
	if err != nil {
		t.Fatalf("RequestCertificate() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.DescribeCertificate(ctx, arn); err != nil {
				t.Errorf("DescribeCertificate() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if m.DescribeCalls != 8 {
		t.Errorf("expected 8 describe calls, got %d", m.DescribeCalls)
	}
}

func TestMockZoneClient_PropagationPolls(t *testing.T) {
	m := NewMockZoneClient()
	m.PropagationPolls = 2
	ctx := context.Background()

	record := DNSRecord{Name: "_abc.example.com.", Type: "CNAME", Value: "x", TTL: 60}
	changeID, err := m.ChangeRecordSet(ctx, "Z-ENV", ChangeActionUpsert, record)
	if err != nil {
		t.Fatalf("ChangeRecordSet() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		done, err := m.ChangeStatus(ctx, changeID)
		if err != nil {
			t.Fatalf("ChangeStatus() error = %v", err)
		}
		if done {
			t.Fatalf("change propagated after %d polls, want pending", i+1)
		}
	}
	done, err := m.ChangeStatus(ctx, changeID)
	if err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}
	if !done {
		t.Error("change still pending after the propagation window")
	}
}
