package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-backend/internal/pkg/logging"
)

// PlacementState is a step of the placement pipeline.
type PlacementState string

const (
	StateOpen       PlacementState = "OPEN"
	StateValidating PlacementState = "VALIDATING"
	StateReserving  PlacementState = "RESERVING"
	StateCommitted  PlacementState = "COMMITTED"
	StateFailed     PlacementState = "FAILED"
)

// validTransitions defines the placement state machine.
var validTransitions = map[PlacementState][]PlacementState{
	StateOpen:       {StateValidating},
	StateValidating: {StateReserving, StateFailed},
	StateReserving:  {StateCommitted, StateFailed},
	StateCommitted:  {},
	StateFailed:     {},
}

// placement tracks one run of the pipeline.
type placement struct {
	cartID uuid.UUID
	state  PlacementState
	logger *zap.Logger
}

func newPlacement(ctx context.Context, cartID uuid.UUID) *placement {
	logger := logging.FromContext(ctx).With(zap.Stringer("cart_id", cartID))
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		logger = logger.With(zap.Stringer("trace_id", sc.TraceID()))
	}
	return &placement{cartID: cartID, state: StateOpen, logger: logger}
}

func (p *placement) advance(to PlacementState) error {
	for _, next := range validTransitions[p.state] {
		if next == to {
			p.logger.Debug("placement state", zap.String("from", string(p.state)), zap.String("to", string(to)))
			p.state = to
			return nil
		}
	}
	return fmt.Errorf("cannot transition placement from %s to %s", p.state, to)
}

// fail moves a placement that has not committed to FAILED. A failure that
// happens before validation starts stays OPEN, since nothing ran.
func (p *placement) fail(err error) {
	if p.state == StateOpen || p.state == StateCommitted || p.state == StateFailed {
		return
	}
	p.logger.Warn("order placement failed", zap.String("state", string(p.state)), zap.Error(err))
	p.state = StateFailed
}
