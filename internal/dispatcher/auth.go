package dispatcher

import (
	"context"
	"net/http"
	"strings"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/operator"
	"github.com/federationserver/federationserver/internal/response"
)

type contextKey string

const operatorContextKey contextKey = "federation_operator"

// OperatorGetter is the narrow capability the authenticator needs from
// OperatorManager.
type OperatorGetter interface {
	GetOperatorByAPIKey(ctx context.Context, apiKey string) (*operator.Operator, error)
	GetMasterOperator(ctx context.Context, masterAPIKey string) (*operator.Operator, error)
}

const apiKeyLength = 32

// Authenticate implements the five-state authenticator of spec.md §4.10:
// absent → anonymous (nil, nil); bad length → invalid-argument; matches the
// master key → the master operator; matches a stored, enabled operator →
// that operator; matches a stored, disabled operator → forbidden; no match
// → unauthorized.
func Authenticate(ctx context.Context, r *http.Request, operators OperatorGetter, masterAPIKey string) (*operator.Operator, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, apierr.New(apierr.InvalidArgument, "Authorization header must be in the form 'Bearer <api_key>'")
	}
	apiKey := strings.TrimPrefix(header, prefix)

	if len(apiKey) != apiKeyLength {
		return nil, apierr.New(apierr.InvalidArgument, "api key must be 32 characters")
	}

	if apiKey == masterAPIKey {
		return operators.GetMasterOperator(ctx, masterAPIKey)
	}

	op, err := operators.GetOperatorByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, apierr.New(apierr.Unauthorized, "invalid api key")
	}
	if op.Disabled {
		return nil, apierr.New(apierr.Forbidden, "operator is disabled")
	}
	return op, nil
}

// WithOperator returns a context carrying the authenticated operator
// (nil for an anonymous caller).
func WithOperator(ctx context.Context, op *operator.Operator) context.Context {
	return context.WithValue(ctx, operatorContextKey, op)
}

// OperatorFromContext retrieves the operator stored by WithOperator, if any.
func OperatorFromContext(ctx context.Context) *operator.Operator {
	op, _ := ctx.Value(operatorContextKey).(*operator.Operator)
	return op
}

// AuthMiddleware resolves the caller's operator (or anonymous) once per
// request and stores it in context; it never itself rejects a request —
// individual handlers decide whether an operator is required and whether
// its permissions satisfy the route.
func AuthMiddleware(operators OperatorGetter, masterAPIKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op, err := Authenticate(r.Context(), r, operators, masterAPIKey)
			if err != nil {
				response.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), op)))
		})
	}
}

// RequireOperator returns the operator from ctx or an Unauthorized error if
// the caller is anonymous, for routes with req auth (spec.md §4.11).
func RequireOperator(ctx context.Context) (*operator.Operator, error) {
	op := OperatorFromContext(ctx)
	if op == nil {
		return nil, apierr.New(apierr.Unauthorized, "this route requires authentication")
	}
	return op, nil
}
