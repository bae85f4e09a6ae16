package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// AssumeRoleConfig returns a copy of cfg whose credentials are assumed from
// roleArn via STS. The assumption is verified eagerly so a bad role or trust
// policy fails here instead of on the first API call. Credentials are short
// lived and must not be reused across invocations.
func AssumeRoleConfig(ctx context.Context, cfg aws.Config, roleArn string) (aws.Config, error) {
	provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), roleArn)
	cache := aws.NewCredentialsCache(provider)

	if _, err := cache.Retrieve(ctx); err != nil {
		return aws.Config{}, fmt.Errorf("failed to assume role %s: %w", roleArn, err)
	}

	out := cfg.Copy()
	out.Credentials = cache
	return out, nil
}
