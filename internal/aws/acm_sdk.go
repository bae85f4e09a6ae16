package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	"github.com/aws/aws-sdk-go-v2/service/acm/types"
)

// SDKCertificateClient implements CertificateClient using AWS SDK v2
type SDKCertificateClient struct {
	client *acm.Client
}

// NewSDKCertificateClient creates a new ACM client using the provided AWS config
func NewSDKCertificateClient(cfg aws.Config) *SDKCertificateClient {
	return &SDKCertificateClient{
		client: acm.NewFromConfig(cfg),
	}
}

func (c *SDKCertificateClient) RequestCertificate(ctx context.Context, domain string, alternativeNames []string, idempotencyToken string, tags map[string]string) (string, error) {
	var acmTags []types.Tag
	for k, v := range tags {
		acmTags = append(acmTags, types.Tag{
			Key:   aws.String(k),
			Value: aws.String(v),
		})
	}

	input := &acm.RequestCertificateInput{
		DomainName:       aws.String(domain),
		ValidationMethod: types.ValidationMethodDns,
		IdempotencyToken: aws.String(idempotencyToken),
		Tags:             acmTags,
	}
	if len(alternativeNames) > 0 {
		input.SubjectAlternativeNames = alternativeNames
	}

	result, err := c.client.RequestCertificate(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to request certificate: %w", err)
	}

	return aws.ToString(result.CertificateArn), nil
}

func (c *SDKCertificateClient) DescribeCertificate(ctx context.Context, arn string) (*CertificateDetails, error) {
	input := &acm.DescribeCertificateInput{
		CertificateArn: aws.String(arn),
	}

	result, err := c.client.DescribeCertificate(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to describe certificate: %w", err)
	}

	details := &CertificateDetails{
		Arn:     arn,
		Domain:  aws.ToString(result.Certificate.DomainName),
		Status:  string(result.Certificate.Status),
		InUseBy: result.Certificate.InUseBy,
	}
	for _, dvo := range result.Certificate.DomainValidationOptions {
		option := ValidationOption{Domain: aws.ToString(dvo.DomainName)}
		if dvo.ResourceRecord != nil {
			option.Record = &ValidationRecord{
				Name:  aws.ToString(dvo.ResourceRecord.Name),
				Type:  string(dvo.ResourceRecord.Type),
				Value: aws.ToString(dvo.ResourceRecord.Value),
			}
		}
		details.ValidationOptions = append(details.ValidationOptions, option)
	}

	return details, nil
}

func (c *SDKCertificateClient) DeleteCertificate(ctx context.Context, arn string) error {
	input := &acm.DeleteCertificateInput{
		CertificateArn: aws.String(arn),
	}

	_, err := c.client.DeleteCertificate(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to delete certificate: %w", err)
	}

	return nil
}
