package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-anatomy/pkg/logging"
	"github.com/dd0wney/cluso-anatomy/pkg/metrics"
)

// GraphQLRequest represents a GraphQL HTTP request
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLResponse represents a GraphQL HTTP response
type GraphQLResponse struct {
	Data   any            `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message string `json:"message"`
}

// HandlerOption configures a GraphQLHandler.
type HandlerOption func(*GraphQLHandler)

// WithMaxDepth sets the query depth limit. Zero disables it.
func WithMaxDepth(depth int) HandlerOption {
	return func(h *GraphQLHandler) { h.maxDepth = depth }
}

// WithTimeout bounds each request's execution time.
func WithTimeout(d time.Duration) HandlerOption {
	return func(h *GraphQLHandler) { h.timeout = d }
}

// WithLimits caps traversal arguments such as neighbourhood hops.
func WithLimits(config LimitConfig) HandlerOption {
	return func(h *GraphQLHandler) { h.limits = config }
}

// WithMaxBodyBytes caps the request body size.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *GraphQLHandler) { h.maxBodyBytes = n }
}

// WithHandlerLogger sets the request logger.
func WithHandlerLogger(logger logging.Logger) HandlerOption {
	return func(h *GraphQLHandler) { h.logger = logger }
}

// WithHandlerMetrics records query counts and latency.
func WithHandlerMetrics(registry *metrics.Registry) HandlerOption {
	return func(h *GraphQLHandler) { h.metrics = registry }
}

// GraphQLHandler handles GraphQL HTTP requests
type GraphQLHandler struct {
	schema       graphql.Schema
	maxDepth     int
	limits       LimitConfig
	maxBodyBytes int64
	timeout      time.Duration
	logger       logging.Logger
	metrics      *metrics.Registry
}

// NewGraphQLHandler creates a new GraphQL HTTP handler
func NewGraphQLHandler(schema graphql.Schema, opts ...HandlerOption) *GraphQLHandler {
	h := &GraphQLHandler{
		schema:       schema,
		maxDepth:     DefaultMaxDepth,
		limits:       DefaultLimitConfig(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.OrDefault(h.logger).With(logging.Component("graphql"))
	return h
}

// ServeHTTP handles HTTP requests for GraphQL queries
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.maxBodyBytes > 0 {
		if r.ContentLength > h.maxBodyBytes {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	operation := req.OperationName
	if operation == "" {
		operation = "anonymous"
	}

	start := time.Now()
	result := Execute(ctx, h.schema, Request{
		Query:         req.Query,
		Variables:     req.Variables,
		OperationName: req.OperationName,
		MaxDepth:      h.maxDepth,
		Limits:        h.limits,
	})
	elapsed := time.Since(start)

	response := GraphQLResponse{
		Data: result.Data,
	}

	status := metrics.StatusSuccess
	if result.HasErrors() {
		status = metrics.StatusError
		response.Errors = make([]GraphQLError, len(result.Errors))
		for i, err := range result.Errors {
			response.Errors[i] = GraphQLError{
				Message: err.Message,
			}
		}
		h.logger.Debug("query returned errors",
			logging.String("operation", operation),
			logging.Count(len(result.Errors)),
			logging.String("first_error", result.Errors[0].Message))
	}
	if h.metrics != nil {
		h.metrics.RecordQuery(operation, status, elapsed)
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Warn("failed to write response", logging.Error(err))
	}
}
