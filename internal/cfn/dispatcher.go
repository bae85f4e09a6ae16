package cfn

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

// ErrUnsupportedRequestType indicates a lifecycle type this handler does not
// implement.
var ErrUnsupportedRequestType = errors.New("unsupported request type")

// CertificateProvisioner is the lifecycle workflow the dispatcher routes to.
type CertificateProvisioner interface {
	// Provision runs the create/update flow and returns the certificate ARN.
	Provision(ctx context.Context, event Event) (arn string, err error)

	// Decommission runs the delete flow for the event's physical resource.
	Decommission(ctx context.Context, event Event) error
}

// Dispatcher routes lifecycle events to the certificate workflow and
// guarantees that exactly one callback is reported per invocation, whatever
// the routed call does - the host blocks indefinitely otherwise.
type Dispatcher struct {
	Provisioner CertificateProvisioner
	Reporter    *Reporter
	Logger      logr.Logger
}

// Handle processes one event end to end. The returned error reflects callback
// delivery only; workflow failures are reported to the host, not returned.
func (d *Dispatcher) Handle(ctx context.Context, event Event) error {
	response := Response{
		Status:             StatusSuccess,
		PhysicalResourceID: event.PhysicalResourceID,
		StackID:            event.StackID,
		RequestID:          event.RequestID,
		LogicalResourceID:  event.LogicalResourceID,
	}
	if response.PhysicalResourceID == "" {
		response.PhysicalResourceID = PhysicalResourceIDNotCreated
	}

	if err := d.route(ctx, event, &response); err != nil {
		d.Logger.Error(err, "Lifecycle operation failed",
			"requestType", event.RequestType,
			"requestId", event.RequestID,
			"logicalResourceId", event.LogicalResourceID)
		response.Status = StatusFailed
		response.Reason = err.Error()
		response.Data = nil
	}

	return d.Reporter.Report(ctx, event.ResponseURL, response)
}

// route runs the flow for the event's request type, converting panics into
// errors so no code path can escape without a report.
func (d *Dispatcher) route(ctx context.Context, event Event, response *Response) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error handling %s: %v", event.RequestType, r)
		}
	}()

	switch event.RequestType {
	case RequestTypeCreate, RequestTypeUpdate:
		arn, err := d.Provisioner.Provision(ctx, event)
		if err != nil {
			return err
		}
		response.PhysicalResourceID = arn
		response.Data = map[string]string{"Arn": arn}
		return nil
	case RequestTypeDelete:
		return d.Provisioner.Decommission(ctx, event)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedRequestType, event.RequestType)
	}
}
