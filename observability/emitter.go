package observability

import (
	"log/slog"

	"bondvest/core/events"
	"bondvest/core/types"
)

// eventPayload is satisfied by typed events that carry a generic form.
type eventPayload interface {
	Event() *types.Event
}

// BondEmitter bridges the engine's typed events into the daemon: every event
// is logged, counted, and forwarded in generic form to the configured sink so
// RPC callers can observe what an operation produced.
type BondEmitter struct {
	log  *slog.Logger
	sink func(*types.Event)
}

// NewBondEmitter builds an emitter over the given logger and event sink. Both
// are optional; nil arguments disable the respective output.
func NewBondEmitter(log *slog.Logger, sink func(*types.Event)) *BondEmitter {
	return &BondEmitter{log: log, sink: sink}
}

// Emit implements the events.Emitter interface.
func (e *BondEmitter) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	switch evt.EventType() {
	case events.TypeBondSwapIssued:
		Bond().Issuance.WithLabelValues("swap").Inc()
	case events.TypeBondLiquidityIssued:
		Bond().Issuance.WithLabelValues("liquidity").Inc()
	}
	payload, ok := evt.(eventPayload)
	if !ok {
		if e.log != nil {
			e.log.Info("engine event", "type", evt.EventType())
		}
		return
	}
	generic := payload.Event()
	if e.log != nil {
		attrs := make([]any, 0, 2+2*len(generic.Attributes))
		attrs = append(attrs, "type", generic.Type)
		for k, v := range generic.Attributes {
			attrs = append(attrs, k, v)
		}
		e.log.Info("engine event", attrs...)
	}
	if e.sink != nil {
		e.sink(generic)
	}
}
