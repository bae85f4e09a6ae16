package cfn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
)

// ErrDelivery indicates the callback could not be delivered to the host.
var ErrDelivery = errors.New("callback delivery failed")

// Reporter delivers completion callbacks to the host-supplied endpoint.
// Delivery is a single attempt: retrying could hand the host duplicate or
// out-of-order signals for the same physical resource.
type Reporter struct {
	Client *http.Client
	Logger logr.Logger
}

// Report serializes the response and PUTs it to the callback URL.
func (r *Reporter) Report(ctx context.Context, callbackURL string, response Response) error {
	body, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("%w: marshal response: %v", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrDelivery, err)
	}
	// The host's pre-signed URL rejects a content type it did not sign for.
	req.Header.Set("Content-Type", "")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: host responded with status %d", ErrDelivery, resp.StatusCode)
	}

	r.Logger.Info("Delivered callback to host",
		"status", response.Status,
		"physicalResourceId", response.PhysicalResourceID,
		"requestId", response.RequestID)
	return nil
}
