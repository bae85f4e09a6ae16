package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/michelfeldheim/cert-orchestrator/internal/aws"
	"github.com/michelfeldheim/cert-orchestrator/internal/retry"
)

// ErrPropagationTimeout indicates a record change never reached INSYNC within
// the polling budget.
var ErrPropagationTimeout = errors.New("record change propagation timed out")

// RecordReconciler applies or removes a single validation record in a zone
// and waits for the change to propagate. It surfaces zone API errors as-is;
// classifying "already absent" as tolerable is the workflow's call.
type RecordReconciler struct {
	Propagation retry.Poller
	Logger      logr.Logger
}

// Apply submits one record set change and blocks until the zone reports it
// fully propagated.
func (r *RecordReconciler) Apply(ctx context.Context, action aws.ChangeAction, target HostedZoneTarget, record aws.DNSRecord) error {
	changeID, err := target.Zones.ChangeRecordSet(ctx, target.ZoneID, action, record)
	if err != nil {
		return fmt.Errorf("failed to %s record %s in zone %s: %w", action, record.Name, target.ZoneID, err)
	}

	r.Logger.Info("Submitted record change",
		"action", string(action),
		"name", record.Name,
		"zoneId", target.ZoneID,
		"changeId", changeID)

	err = r.Propagation.Wait(ctx, func(ctx context.Context) (bool, error) {
		return target.Zones.ChangeStatus(ctx, changeID)
	})
	if errors.Is(err, retry.ErrExhaustedRetries) {
		return fmt.Errorf("%w: change %s for %s in zone %s", ErrPropagationTimeout, changeID, record.Name, target.ZoneID)
	}
	if err != nil {
		return fmt.Errorf("failed waiting for change %s: %w", changeID, err)
	}

	r.Logger.Info("Record change propagated",
		"name", record.Name,
		"zoneId", target.ZoneID)
	return nil
}
