package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
)

// SDKZoneClient implements ZoneClient using AWS SDK v2
type SDKZoneClient struct {
	client *route53.Client
}

// NewSDKZoneClient creates a new Route53 client using the provided AWS config
func NewSDKZoneClient(cfg aws.Config) *SDKZoneClient {
	return &SDKZoneClient{
		client: route53.NewFromConfig(cfg),
	}
}

func (c *SDKZoneClient) HostedZoneIDByName(ctx context.Context, name string) (string, error) {
	input := &route53.ListHostedZonesByNameInput{
		DNSName:  aws.String(name),
		MaxItems: aws.Int32(1),
	}

	result, err := c.client.ListHostedZonesByName(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to list hosted zones: %w", err)
	}

	for _, zone := range result.HostedZones {
		// Route53 returns zone names with a trailing dot
		if strings.TrimSuffix(aws.ToString(zone.Name), ".") == strings.TrimSuffix(name, ".") {
			return normalizeZoneID(aws.ToString(zone.Id)), nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrHostedZoneNotFound, name)
}

func (c *SDKZoneClient) ChangeRecordSet(ctx context.Context, zoneID string, action ChangeAction, record DNSRecord) (string, error) {
	input := &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(normalizeZoneID(zoneID)),
		ChangeBatch: &types.ChangeBatch{
			Changes: []types.Change{
				{
					Action: types.ChangeAction(action),
					ResourceRecordSet: &types.ResourceRecordSet{
						Name: aws.String(record.Name),
						Type: types.RRType(record.Type),
						TTL:  aws.Int64(record.TTL),
						ResourceRecords: []types.ResourceRecord{
							{Value: aws.String(record.Value)},
						},
					},
				},
			},
		},
	}

	result, err := c.client.ChangeResourceRecordSets(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to change record set: %w", err)
	}
	if result.ChangeInfo == nil || result.ChangeInfo.Id == nil {
		return "", fmt.Errorf("route53 returned no change info for %s", record.Name)
	}

	return aws.ToString(result.ChangeInfo.Id), nil
}

func (c *SDKZoneClient) ChangeStatus(ctx context.Context, changeID string) (bool, error) {
	result, err := c.client.GetChange(ctx, &route53.GetChangeInput{
		Id: aws.String(changeID),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get change status: %w", err)
	}
	if result.ChangeInfo == nil {
		return false, fmt.Errorf("route53 returned no change info for %s", changeID)
	}

	return result.ChangeInfo.Status == types.ChangeStatusInsync, nil
}

// normalizeZoneID ensures the zone ID has the correct format
func normalizeZoneID(zoneID string) string {
	// Remove /hostedzone/ prefix if present
	return strings.TrimPrefix(zoneID, "/hostedzone/")
}
