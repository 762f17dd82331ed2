// Package jsonrpc serves the exchange API over HTTP JSON-RPC 2.0.
package jsonrpc

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Server represents a JSON-RPC server.
type Server struct {
	handler *Handler
	logger  *zap.Logger
}

// NewServer creates a new JSON-RPC server instance.
func NewServer(handler *Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{handler: handler, logger: logger}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, Response{
			JsonRPC: "2.0",
			Error:   &Error{Code: CodeParseError, Message: "Parse error"},
		})
		return
	}
	if req.Method == "" {
		writeResponse(w, Response{
			JsonRPC: "2.0",
			Error:   &Error{Code: CodeInvalidRequest, Message: "missing method"},
			ID:      req.ID,
		})
		return
	}

	result, rpcErr := s.handler.Handle(r.Context(), req.Method, req.Params)
	if rpcErr != nil {
		s.logger.Debug("rpc call failed",
			zap.String("method", req.Method),
			zap.Int("code", rpcErr.Code),
			zap.String("error", rpcErr.Message))
		writeResponse(w, Response{JsonRPC: "2.0", Error: rpcErr, ID: req.ID})
		return
	}

	writeResponse(w, Response{JsonRPC: "2.0", Result: result, ID: req.ID})
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
