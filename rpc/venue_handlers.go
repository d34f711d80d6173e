package rpc

import (
	"encoding/json"

	"bondvest/core/events"
	"bondvest/core/types"
	"bondvest/observability"
)

// venueEventParams carries a single venue callback as posted by the venue
// bridge. Deltas are signed decimal strings from the initiator's perspective.
type venueEventParams struct {
	Venue       string `json:"venue"`
	Delta0      string `json:"delta0"`
	Delta1      string `json:"delta1"`
	Beneficiary string `json:"beneficiary"`
}

type venueEventResult struct {
	Events []eventResult `json:"events"`
}

type eventResult struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (s *Server) handleNotifySwap(params []json.RawMessage) (interface{}, *RPCError) {
	return s.handleVenueEvent(params, true)
}

func (s *Server) handleNotifyLiquidity(params []json.RawMessage) (interface{}, *RPCError) {
	return s.handleVenueEvent(params, false)
}

func (s *Server) handleVenueEvent(params []json.RawMessage, swap bool) (interface{}, *RPCError) {
	var p venueEventParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	venue, err := parseAddr(p.Venue)
	if err != nil {
		return nil, invalidParams("venue", err)
	}
	delta0, err := parseAmount(p.Delta0)
	if err != nil {
		return nil, invalidParams("delta0", err)
	}
	delta1, err := parseAmount(p.Delta1)
	if err != nil {
		return nil, invalidParams("delta1", err)
	}
	beneficiary, err := parseAddr(p.Beneficiary)
	if err != nil {
		return nil, invalidParams("beneficiary", err)
	}

	// Drain anything a previous operation buffered so the response only
	// carries this event's outcome.
	s.state.DrainEvents()
	if swap {
		s.engine.OnSwap(venue, delta0, delta1, beneficiary[:])
	} else {
		s.engine.OnLiquidityAdded(venue, delta0, delta1, beneficiary[:])
	}

	drained := s.state.DrainEvents()
	result := venueEventResult{Events: make([]eventResult, 0, len(drained))}
	for _, evt := range drained {
		if evt.Type == events.TypeBondIssuanceSkipped {
			observability.Bond().IssuanceSkipped.WithLabelValues(evt.Attributes["reason"]).Inc()
		}
		result.Events = append(result.Events, eventResult{Type: evt.Type, Attributes: cloneAttributes(evt)})
	}
	return result, nil
}

func cloneAttributes(evt types.Event) map[string]string {
	if len(evt.Attributes) == 0 {
		return nil
	}
	out := make(map[string]string, len(evt.Attributes))
	for k, v := range evt.Attributes {
		out[k] = v
	}
	return out
}
