package aws

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
)

func TestIsToleratedDelete(t *testing.T) {
	codes := DefaultToleratedDeleteCodes

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "acm resource not found",
			err:  &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "certificate not found"},
			want: true,
		},
		{
			name: "route53 record already absent",
			err:  &smithy.GenericAPIError{Code: "InvalidChangeBatch", Message: "record set not found"},
			want: true,
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("failed to delete: %w", &smithy.GenericAPIError{Code: "ResourceNotFoundException"}),
			want: true,
		},
		{
			name: "access denied is not tolerated",
			err:  &smithy.GenericAPIError{Code: "AccessDenied"},
			want: false,
		},
		{
			name: "non api error",
			err:  errors.New("connection reset"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsToleratedDelete(tt.err, codes); got != tt.want {
				t.Errorf("IsToleratedDelete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsToleratedDelete_ConfiguredCodes(t *testing.T) {
	err := &smithy.GenericAPIError{Code: "Throttling"}
	if IsToleratedDelete(err, DefaultToleratedDeleteCodes) {
		t.Error("Throttling should not be tolerated by default")
	}
	if !IsToleratedDelete(err, []string{"Throttling"}) {
		t.Error("configured code should be tolerated")
	}
}

func TestErrorCode(t *testing.T) {
	if code := ErrorCode(&smithy.GenericAPIError{Code: "AccessDenied"}); code != "AccessDenied" {
		t.Errorf("ErrorCode() = %v, want AccessDenied", code)
	}
	if code := ErrorCode(errors.New("plain")); code != "" {
		t.Errorf("ErrorCode() = %v, want empty", code)
	}
}
