package dispatcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/operator"
)

type fakeOperatorGetter struct {
	byKey    map[string]*operator.Operator
	master   *operator.Operator
	masterAt string
}

func (f *fakeOperatorGetter) GetOperatorByAPIKey(ctx context.Context, apiKey string) (*operator.Operator, error) {
	return f.byKey[apiKey], nil
}

func (f *fakeOperatorGetter) GetMasterOperator(ctx context.Context, masterAPIKey string) (*operator.Operator, error) {
	return f.master, nil
}

func requestWithAuth(header string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/entities", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func TestAuthenticateAnonymousWhenHeaderAbsent(t *testing.T) {
	op, err := Authenticate(context.Background(), requestWithAuth(""), &fakeOperatorGetter{}, "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if op != nil {
		t.Errorf("expected nil operator for an anonymous caller, got %v", op)
	}
}

func TestAuthenticateRejectsMissingBearerPrefix(t *testing.T) {
	_, err := Authenticate(context.Background(), requestWithAuth(strings.Repeat("a", 32)), &fakeOperatorGetter{}, "")
	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.InvalidArgument {
		t.Fatalf("expected invalid_argument for a missing Bearer prefix, got %v", err)
	}
}

func TestAuthenticateRejectsWrongLengthKey(t *testing.T) {
	_, err := Authenticate(context.Background(), requestWithAuth("Bearer short"), &fakeOperatorGetter{}, "")
	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.InvalidArgument {
		t.Fatalf("expected invalid_argument for a short key, got %v", err)
	}
}

func TestAuthenticateMatchesMasterKey(t *testing.T) {
	masterKey := strings.Repeat("m", 32)
	master := &operator.Operator{UUID: uuid.New(), Name: operator.MasterOperatorName}
	g := &fakeOperatorGetter{master: master}

	op, err := Authenticate(context.Background(), requestWithAuth("Bearer "+masterKey), g, masterKey)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if op != master {
		t.Errorf("expected the master operator, got %v", op)
	}
}

func TestAuthenticateMatchesStoredEnabledOperator(t *testing.T) {
	key := strings.Repeat("k", 32)
	want := &operator.Operator{UUID: uuid.New(), Name: "alice"}
	g := &fakeOperatorGetter{byKey: map[string]*operator.Operator{key: want}}

	op, err := Authenticate(context.Background(), requestWithAuth("Bearer "+key), g, "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if op != want {
		t.Errorf("expected %v, got %v", want, op)
	}
}

func TestAuthenticateRejectsDisabledOperator(t *testing.T) {
	key := strings.Repeat("k", 32)
	disabled := &operator.Operator{UUID: uuid.New(), Name: "alice", Disabled: true}
	g := &fakeOperatorGetter{byKey: map[string]*operator.Operator{key: disabled}}

	_, err := Authenticate(context.Background(), requestWithAuth("Bearer "+key), g, "")
	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.Forbidden {
		t.Fatalf("expected forbidden for a disabled operator, got %v", err)
	}
}

func TestAuthenticateRejectsUnknownKey(t *testing.T) {
	key := strings.Repeat("k", 32)
	_, err := Authenticate(context.Background(), requestWithAuth("Bearer "+key), &fakeOperatorGetter{}, "")
	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.Unauthorized {
		t.Fatalf("expected unauthorized for an unknown key, got %v", err)
	}
}

func TestRequireOperatorFailsForAnonymousContext(t *testing.T) {
	_, err := RequireOperator(context.Background())
	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.Unauthorized {
		t.Fatalf("expected unauthorized for an anonymous context, got %v", err)
	}
}

func TestWithOperatorRoundTripsThroughContext(t *testing.T) {
	want := &operator.Operator{UUID: uuid.New(), Name: "alice"}
	ctx := WithOperator(context.Background(), want)
	if got := OperatorFromContext(ctx); got != want {
		t.Errorf("OperatorFromContext = %v, want %v", got, want)
	}
}
