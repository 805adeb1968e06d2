package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// Request is a GraphQL HTTP request body.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Response is a GraphQL HTTP response body.
type Response struct {
	Data   any     `json:"data,omitempty"`
	Errors []Error `json:"errors,omitempty"`
}

// Error is one GraphQL error.
type Error struct {
	Message string `json:"message"`
}

// Handler serves POST /graphql.
type Handler struct {
	schema   graphql.Schema
	maxDepth int
	logger   logging.Logger
	guard    func(*http.Request) error
}

// NewHandler creates a handler. maxDepth <= 0 uses DefaultMaxDepth.
func NewHandler(schema graphql.Schema, maxDepth int, logger logging.Logger) *Handler {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handler{
		schema:   schema,
		maxDepth: maxDepth,
		logger:   logger.With(logging.Component("graphql")),
	}
}

// SetMutationGuard installs a check run before any mutation. A non-nil
// error rejects the whole request.
func (h *Handler) SetMutationGuard(guard func(*http.Request) error) {
	h.guard = guard
}

// Execute runs one request after the depth and mutation checks.
func (h *Handler) Execute(r *http.Request, req Request) Response {
	if err := ValidateQueryDepth(req.Query, h.maxDepth); err != nil {
		return Response{Errors: []Error{{Message: err.Error()}}}
	}
	if h.guard != nil {
		mutation, err := IsMutation(req.Query, req.OperationName)
		if err != nil {
			return Response{Errors: []Error{{Message: err.Error()}}}
		}
		if mutation {
			if err := h.guard(r); err != nil {
				return Response{Errors: []Error{{Message: "mutation not permitted: " + err.Error()}}}
			}
		}
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	resp := Response{Data: result.Data}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, Error{Message: e.Message})
	}
	if len(resp.Errors) > 0 {
		h.logger.Debug("query returned errors",
			logging.Count(len(resp.Errors)),
			logging.String("first", resp.Errors[0].Message),
		)
	}
	return resp
}

// ServeHTTP handles POST requests with a JSON body.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.Execute(r, req)); err != nil {
		h.logger.Warn("encode response", logging.Error(err))
	}
}
