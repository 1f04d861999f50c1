package dispatcher

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/federationserver/federationserver/internal/apierr"
)

// Params is the merged set of request parameters: query string, form body,
// and a parsed JSON body, combined with precedence form > query > JSON on
// conflicting scalar keys (spec.md §4.10).
type Params struct {
	values map[string]string
}

// ReadParams merges r's query string, form body and JSON body per
// spec.md §4.10. A malformed JSON body yields invalid-argument; a missing
// or non-JSON body is not an error, since GETs and multipart uploads carry
// no JSON payload.
func ReadParams(r *http.Request) (Params, error) {
	merged := map[string]string{}

	// Lowest precedence first: JSON body.
	if isJSONRequest(r) {
		body, err := peekBody(r)
		if err != nil {
			return Params{}, apierr.Wrap(apierr.InvalidArgument, "read request body", err)
		}
		if len(body) > 0 {
			var decoded map[string]interface{}
			if err := json.Unmarshal(body, &decoded); err != nil {
				return Params{}, apierr.New(apierr.InvalidArgument, "malformed JSON body")
			}
			for k, v := range decoded {
				merged[k] = stringify(v)
			}
		}
	}

	// Middle precedence: query string.
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			merged[k] = vs[0]
		}
	}

	// Highest precedence: form body (url-encoded or multipart), parsed
	// without consuming a JSON body (ParseForm is a no-op for
	// application/json content types).
	if !isJSONRequest(r) {
		if err := r.ParseMultipartForm(0); err != nil && err != http.ErrNotMultipart {
			if err := r.ParseForm(); err != nil {
				return Params{}, apierr.Wrap(apierr.InvalidArgument, "parse form body", err)
			}
		}
		for k, vs := range r.Form {
			if len(vs) > 0 {
				merged[k] = vs[0]
			}
		}
	}

	return Params{values: merged}, nil
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// peekBody reads and restores r.Body so downstream multipart parsing (for
// /attachments) is unaffected when the content type is not JSON.
func peekBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(strings.NewReader(string(data)))
	return data, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// Get returns the value for key, or "" if absent.
func (p Params) Get(key string) string {
	return p.values[key]
}

// GetOptional returns the value for key and whether it was present.
func (p Params) GetOptional(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// GetInt parses key as an int, returning def if absent or malformed.
func (p Params) GetInt(key string, def int) int {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// GetBool parses key as a bool, returning def if absent or malformed.
func (p Params) GetBool(key string, def bool) bool {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
