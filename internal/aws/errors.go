package aws

import (
	"errors"

	"github.com/aws/smithy-go"
)

// DefaultToleratedDeleteCodes are the API error codes treated as "already
// gone" during teardown: ACM reports a deleted certificate with
// ResourceNotFoundException, Route53 reports a missing record set inside an
// InvalidChangeBatch. The set is configuration, not a constant, because the
// not-found surface of both services has changed before.
var DefaultToleratedDeleteCodes = []string{
	"ResourceNotFoundException",
	"InvalidChangeBatch",
}

// ErrorCode extracts the API error code from an AWS SDK error chain, or ""
// when the error did not originate from the service.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsToleratedDelete reports whether err is one of the given not-found-class
// codes. Classification is structural, never by message comparison.
func IsToleratedDelete(err error, codes []string) bool {
	code := ErrorCode(err)
	if code == "" {
		return false
	}
	for _, tolerated := range codes {
		if code == tolerated {
			return true
		}
	}
	return false
}
