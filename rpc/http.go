package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"synthmint/native/synth"
	"synthmint/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20

	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// Server exposes the engine over JSON-RPC 2.0 on a single POST endpoint.
type Server struct {
	engine  *synth.Engine
	logger  *slog.Logger
	metrics *metrics.SynthMetrics
}

func NewServer(engine *synth.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, logger: logger}
}

// SetMetrics wires operation counters into the server. A nil registry leaves
// recording disabled.
func (s *Server) SetMetrics(m *metrics.SynthMetrics) { s.metrics = m }

// Handler returns the HTTP handler serving the RPC endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return mux
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps engine sentinel errors onto RPC error codes.
// Validation failures map to invalid params; everything else surfaces as a
// server error carrying the engine's message.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, synth.ErrInvalidAmount), errors.Is(err, synth.ErrUnsupportedAsset):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	default:
		writeError(w, http.StatusOK, id, codeServerError, err.Error(), nil)
	}
}

// completeOp finishes a mutating handler: it records the outcome, logs the
// failure if any, and writes the response.
func (s *Server) completeOp(w http.ResponseWriter, req *RPCRequest, op string, err error) {
	if err != nil {
		s.metrics.ObserveOperation(op, "error")
		if errors.Is(err, synth.ErrHealthCheckFailed) {
			s.metrics.ObserveHealthCheckFailure()
		}
		s.logger.Warn("engine operation failed", "op", op, "error", err)
		writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.ObserveOperation(op, "ok")
	if op == "liquidate" {
		s.metrics.ObserveLiquidation()
	}
	writeResult(w, req.ID, statusOK)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	switch req.Method {
	case "synth_depositCollateral":
		s.handleDepositCollateral(w, req)
	case "synth_mint":
		s.handleMint(w, req)
	case "synth_depositAndMint":
		s.handleDepositAndMint(w, req)
	case "synth_redeemCollateral":
		s.handleRedeemCollateral(w, req)
	case "synth_redeemForStable":
		s.handleRedeemForStable(w, req)
	case "synth_burn":
		s.handleBurn(w, req)
	case "synth_liquidate":
		s.handleLiquidate(w, req)
	case "synth_getAccountInformation":
		s.handleGetAccountInformation(w, req)
	case "synth_getCollateralValue":
		s.handleGetCollateralValue(w, req)
	case "synth_getCollateralBalance":
		s.handleGetCollateralBalance(w, req)
	case "synth_listCollateral":
		s.handleListCollateral(w, req)
	case "synth_getParams":
		s.handleGetParams(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
	}
}
