package dispatcher

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestReadParamsQueryString(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/entities?limit=25&public=true", nil)
	p, err := ReadParams(r)
	if err != nil {
		t.Fatalf("ReadParams: %v", err)
	}
	if got := p.GetInt("limit", 0); got != 25 {
		t.Errorf("limit = %d, want 25", got)
	}
	if got := p.GetBool("public", false); !got {
		t.Error("public = false, want true")
	}
}

func TestReadParamsFormTakesPrecedenceOverQuery(t *testing.T) {
	form := url.Values{"name": {"from-form"}}
	r := httptest.NewRequest(http.MethodPost, "/operators?name=from-query",
		strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p, err := ReadParams(r)
	if err != nil {
		t.Fatalf("ReadParams: %v", err)
	}
	if got := p.Get("name"); got != "from-form" {
		t.Errorf("name = %q, want form value to win over query", got)
	}
}

func TestReadParamsJSONBody(t *testing.T) {
	body := `{"text_content": "abuse report", "confidential": true}`
	r := httptest.NewRequest(http.MethodPost, "/evidence", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	p, err := ReadParams(r)
	if err != nil {
		t.Fatalf("ReadParams: %v", err)
	}
	if got := p.Get("text_content"); got != "abuse report" {
		t.Errorf("text_content = %q", got)
	}
	if got := p.GetBool("confidential", false); !got {
		t.Error("confidential = false, want true")
	}
}

func TestReadParamsMalformedJSONIsAnError(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/evidence", strings.NewReader(`{not json`))
	r.Header.Set("Content-Type", "application/json")

	if _, err := ReadParams(r); err == nil {
		t.Fatal("expected an error for malformed JSON body")
	}
}

func TestParamsGetOptionalReportsAbsence(t *testing.T) {
	p := Params{}
	if _, ok := p.GetOptional("missing"); ok {
		t.Error("GetOptional should report false for an absent key")
	}
}

func TestParamsGetIntFallsBackOnMalformedValue(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/audit?limit=not-a-number", nil)
	p, err := ReadParams(r)
	if err != nil {
		t.Fatalf("ReadParams: %v", err)
	}
	if got := p.GetInt("limit", 10); got != 10 {
		t.Errorf("GetInt with malformed value = %d, want default 10", got)
	}
}
