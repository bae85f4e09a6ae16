package aws

import (
	"fmt"
	"strings"
)

// IsCertificateARN reports whether s is a well-formed ACM certificate ARN.
// Certificate ARNs follow the pattern:
// arn:<partition>:acm:<region>:<account>:certificate/<id>
func IsCertificateARN(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return false
	}
	if parts[0] != "arn" || parts[2] != "acm" {
		return false
	}
	return strings.HasPrefix(parts[5], "certificate/")
}

// ExtractRegionFromARN returns the region segment of a certificate ARN.
// Example: arn:aws:acm:us-east-1:123456789012:certificate/abc -> us-east-1
func ExtractRegionFromARN(arn string) (string, error) {
	if !IsCertificateARN(arn) {
		return "", fmt.Errorf("invalid certificate ARN format: %s", arn)
	}
	return strings.Split(arn, ":")[3], nil
}
