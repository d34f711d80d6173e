package rpc

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bondvest/core/state"
	"bondvest/native/bond"
	"bondvest/native/claimnft"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// Server exposes the bond engine and the claim ownership registry over
// JSON-RPC 2.0.
type Server struct {
	engine *bond.Engine
	state  *state.Manager
	claims *claimnft.Registry
}

// NewServer wires the RPC surface to the engine, its state manager and the
// claim registry.
func NewServer(engine *bond.Engine, st *state.Manager, claims *claimnft.Registry) *Server {
	return &Server{engine: engine, state: st, claims: claims}
}

// Router builds the HTTP handler: JSON-RPC on POST /, health and prometheus
// metrics alongside.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

// Start serves the router on the given address.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Router())
}

// RPCRequest is a JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCResponse is a JSON-RPC 2.0 response envelope.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, nil, codeParseError, "unable to read request body")
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != jsonRPCVersion || strings.TrimSpace(req.Method) == "" {
		writeError(w, req.ID, codeInvalidRequest, "malformed JSON-RPC request")
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
		return
	}
	result, rpcErr := handler(req.Params)
	// Events produced by the operation were already logged and counted at the
	// emitter; discard the buffered copies unless the handler returned them.
	s.state.DrainEvents()
	if rpcErr != nil {
		writeError(w, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}
	writeResult(w, req.ID, result)
}

type methodFunc func(params []json.RawMessage) (interface{}, *RPCError)

func (s *Server) methods() map[string]methodFunc {
	return map[string]methodFunc{
		"bond_createCampaign":  s.handleCreateCampaign,
		"bond_getCampaign":     s.handleGetCampaign,
		"bond_notifySwap":      s.handleNotifySwap,
		"bond_notifyLiquidity": s.handleNotifyLiquidity,
		"bond_claim":           s.handleClaim,
		"bond_getClaim":        s.handleGetClaim,
		"bond_vestedAt":        s.handleVestedAt,
		"bond_setDelegate":     s.handleSetDelegate,
		"bond_setOperator":     s.handleSetOperator,
		"claim_transferFrom":   s.handleTransferClaim,
		"claim_approve":        s.handleApproveClaim,
		"claim_setOperator":    s.handleClaimSetOperator,
		"claim_ownerOf":        s.handleClaimOwner,
	}
}

func decodeParams(params []json.RawMessage, out interface{}) *RPCError {
	if len(params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected a single params object"}
	}
	if err := json.Unmarshal(params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	return nil
}

func writeResult(w http.ResponseWriter, id, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	})
}
