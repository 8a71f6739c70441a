package http

import (
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// sanitizeInput removes control characters (except tab, newline and
// carriage return) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// isJSONBody reports whether the request declares a JSON payload.
func isJSONBody(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// wantsJSON reports whether the caller should get a JSON response. A JSON
// body or an Accept header ranking application/json above text/html decides
// it. Without an explicit preference reads get the page and writes get JSON,
// so only browsers (which list text/html) are redirected after a POST.
func wantsJSON(r *http.Request) bool {
	if isJSONBody(r) {
		return true
	}
	switch preferredType(r.Header.Get("Accept")) {
	case "application/json":
		return true
	case "text/html":
		return false
	}
	return r.Method != http.MethodGet && r.Method != http.MethodHead
}

// preferredType picks application/json or text/html from an Accept header by
// quality, earliest first on ties. Wildcards express no preference.
func preferredType(accept string) string {
	best, bestQ := "", 0.0
	for _, part := range strings.Split(accept, ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil || (mt != "application/json" && mt != "text/html") {
			continue
		}
		q := 1.0
		if v, ok := params["q"]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q = f
			}
		}
		if q > bestQ {
			best, bestQ = mt, q
		}
	}
	return best
}

// parseSavedParam reads the saved-at marker carried by the post-save redirect.
func parseSavedParam(r *http.Request) time.Time {
	v := r.URL.Query().Get("saved")
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
