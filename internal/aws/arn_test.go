package aws

import (
	"testing"
)

func TestIsCertificateARN(t *testing.T) {
	tests := []struct {
		name string
		arn  string
		want bool
	}{
		{
			name: "valid certificate ARN",
			arn:  "arn:aws:acm:us-east-1:123456789012:certificate/12345678-1234-1234-1234-123456789012",
			want: true,
		},
		{
			name: "valid ARN in another partition",
			arn:  "arn:aws-cn:acm:cn-north-1:123456789012:certificate/abc",
			want: true,
		},
		{
			name: "placeholder physical id",
			arn:  "RESOURCE_NOT_CREATED",
			want: false,
		},
		{
			name: "empty string",
			arn:  "",
			want: false,
		},
		{
			name: "wrong service",
			arn:  "arn:aws:iam:us-east-1:123456789012:certificate/abc",
			want: false,
		},
		{
			name: "wrong resource type",
			arn:  "arn:aws:acm:us-east-1:123456789012:private-ca/abc",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCertificateARN(tt.arn); got != tt.want {
				t.Errorf("IsCertificateARN(%q) = %v, want %v", tt.arn, got, tt.want)
			}
		})
	}
}

func TestExtractRegionFromARN(t *testing.T) {
	region, err := ExtractRegionFromARN("arn:aws:acm:eu-west-1:123456789012:certificate/abc")
	if err != nil {
		t.Fatalf("ExtractRegionFromARN() error = %v", err)
	}
	if region != "eu-west-1" {
		t.Errorf("region = %v, want eu-west-1", region)
	}

	if _, err := ExtractRegionFromARN("not-an-arn"); err == nil {
		t.Error("expected error for malformed ARN")
	}
}
