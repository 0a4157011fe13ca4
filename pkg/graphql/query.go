package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
)

// Request is one query execution.
type Request struct {
	Query         string
	Variables     map[string]any
	OperationName string
	// MaxDepth rejects deeper queries before execution. Zero disables the check.
	MaxDepth int
	// Limits caps traversal arguments. The zero value means DefaultLimitConfig.
	Limits LimitConfig
}

// Execute runs a query against schema. Leases taken on cached networks while
// resolving are released before Execute returns.
func Execute(ctx context.Context, schema graphql.Schema, req Request) *graphql.Result {
	if req.MaxDepth > 0 {
		if err := ValidateQueryDepth(req.Query, req.MaxDepth); err != nil {
			return &graphql.Result{
				Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)},
			}
		}
	}

	limits := req.Limits
	if limits == (LimitConfig{}) {
		limits = DefaultLimitConfig()
	}
	if err := ValidateLimitConfig(limits); err != nil {
		return &graphql.Result{
			Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)},
		}
	}
	ctx = withLimits(ctx, limits)

	ctx, leases := withLeaseSet(ctx)
	defer leases.releaseAll()

	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

// ExecuteQuery executes a GraphQL query against a schema
func ExecuteQuery(query string, schema graphql.Schema) *graphql.Result {
	return Execute(context.Background(), schema, Request{Query: query})
}
