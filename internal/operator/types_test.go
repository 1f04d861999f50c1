package operator

import (
	"context"
	"testing"

	"github.com/federationserver/federationserver/internal/apierr"
)

func TestIsMaster(t *testing.T) {
	master := Operator{Name: MasterOperatorName}
	if !master.IsMaster() {
		t.Error("operator named MasterOperatorName should report IsMaster")
	}

	other := Operator{Name: "alice"}
	if other.IsMaster() {
		t.Error("an ordinary operator should not report IsMaster")
	}
}

func TestRedactedClearsAPIKeyOnly(t *testing.T) {
	o := Operator{
		Name:            "alice",
		APIKey:          "secret-key-value",
		ManageOperators: true,
	}
	r := o.Redacted()

	if r.APIKey != "" {
		t.Errorf("Redacted().APIKey = %q, want empty", r.APIKey)
	}
	if r.Name != o.Name || r.ManageOperators != o.ManageOperators {
		t.Error("Redacted should leave every field but APIKey untouched")
	}
	if o.APIKey == "" {
		t.Error("Redacted should return a copy, not mutate the receiver")
	}
}

func TestNewAPIKeyLengthAndAlphabet(t *testing.T) {
	key, err := newAPIKey()
	if err != nil {
		t.Fatalf("newAPIKey: %v", err)
	}
	if len(key) != apiKeyLength {
		t.Errorf("len(key) = %d, want %d", len(key), apiKeyLength)
	}
	for _, r := range key {
		found := false
		for _, a := range apiKeyAlphabet {
			if r == a {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("key contains character %q outside apiKeyAlphabet", r)
		}
	}
}

func TestNewAPIKeyIsNotConstant(t *testing.T) {
	a, err := newAPIKey()
	if err != nil {
		t.Fatalf("newAPIKey: %v", err)
	}
	b, err := newAPIKey()
	if err != nil {
		t.Fatalf("newAPIKey: %v", err)
	}
	if a == b {
		t.Error("two successive calls to newAPIKey produced the same key")
	}
}

func TestCreateOperatorRejectsEmptyName(t *testing.T) {
	s := &Service{}
	_, err := s.CreateOperator(context.Background(), "", false, false, false)
	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.InvalidArgument {
		t.Fatalf("expected invalid_argument, got %v", err)
	}
}

func TestCreateOperatorRejectsReservedName(t *testing.T) {
	s := &Service{}
	_, err := s.CreateOperator(context.Background(), MasterOperatorName, false, false, false)
	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.InvalidArgument {
		t.Fatalf("expected invalid_argument for the reserved master name, got %v", err)
	}
}
