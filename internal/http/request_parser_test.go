package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"costeapp/internal/core"
)

func newParser(t *testing.T, method, target, contentType, body string) (*RequestBodyParser, *http.Request) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return NewRequestBodyParser(httptest.NewRecorder(), req), req
}

func TestBulkRows(t *testing.T) {
	const form = "application/x-www-form-urlencoded"

	tests := []struct {
		name        string
		contentType string
		body        string
		want        []core.FixedCostInput
		wantErr     error
	}{
		{
			name:        "form rows ordered by index",
			contentType: form,
			body: url.Values{
				"fixedCosts[1].id":          {"2"},
				"fixedCosts[1].costName":    {"Internet"},
				"fixedCosts[1].monthlyCost": {"30"},
				"fixedCosts[0].id":          {"1"},
				"fixedCosts[0].costName":    {"  Renta "},
				"fixedCosts[0].monthlyCost": {"500.00"},
				"unrelated":                 {"x"},
			}.Encode(),
			want: []core.FixedCostInput{
				{Index: 0, ID: "1", CostName: "Renta", MonthlyCost: "500.00"},
				{Index: 1, ID: "2", CostName: "Internet", MonthlyCost: "30"},
			},
		},
		{
			name:        "form gaps keep their index",
			contentType: form,
			body:        "fixedCosts[0].id=1&fixedCosts[3].id=4",
			want:        []core.FixedCostInput{{Index: 0, ID: "1"}, {Index: 3, ID: "4"}},
		},
		{
			name:        "malformed keys ignored",
			contentType: form,
			body:        "fixedCosts[x].id=1&fixedCosts[0].color=red&fixedCosts[-1].id=3",
			want:        []core.FixedCostInput{},
		},
		{
			name:        "control characters stripped",
			contentType: form,
			body:        "fixedCosts[0].costName=Lu%00z",
			want:        []core.FixedCostInput{{CostName: "Luz"}},
		},
		{
			name:        "json rows with numbers",
			contentType: "application/json",
			body:        `{"fixedCosts":[{"id":1,"costName":"Renta","monthlyCost":500.5},{"id":"2","costName":"Gas","monthlyCost":"12,30"}]}`,
			want: []core.FixedCostInput{
				{ID: "1", CostName: "Renta", MonthlyCost: "500.5"},
				{ID: "2", CostName: "Gas", MonthlyCost: "12,30"},
			},
		},
		{
			name:        "json null fields become empty",
			contentType: "application/json",
			body:        `{"fixedCosts":[{"id":1,"costName":null,"monthlyCost":"1"}]}`,
			want:        []core.FixedCostInput{{ID: "1", MonthlyCost: "1"}},
		},
		{
			name: "json detected without content type",
			body: `{"fixedCosts":[{"id":3,"costName":"Agua","monthlyCost":"8"}]}`,
			want: []core.FixedCostInput{{ID: "3", CostName: "Agua", MonthlyCost: "8"}},
		},
		{
			name:        "json without list",
			contentType: "application/json",
			body:        `{}`,
			want:        nil,
		},
		{
			name:        "json boolean amount rejected",
			contentType: "application/json",
			body:        `{"fixedCosts":[{"id":1,"costName":"x","monthlyCost":true}]}`,
			wantErr:     errMalformedBody,
		},
		{
			name:        "broken json",
			contentType: "application/json",
			body:        `{"fixedCosts":[`,
			wantErr:     errMalformedBody,
		},
		{
			name:        "too many form rows",
			contentType: form,
			body:        fmt.Sprintf("fixedCosts[%d].id=1", maxBulkRows),
			wantErr:     errTooManyRows,
		},
		{
			name:        "empty body",
			contentType: form,
			body:        "",
			want:        []core.FixedCostInput{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newParser(t, http.MethodPost, "/fixed-costs", tt.contentType, tt.body)
			got, err := p.BulkRows()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("BulkRows() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BulkRows() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BulkRows() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestBulkRows_TooManyJSONRows(t *testing.T) {
	rows := make([]string, maxBulkRows+1)
	for i := range rows {
		rows[i] = `{"id":1}`
	}
	body := `{"fixedCosts":[` + strings.Join(rows, ",") + `]}`
	p, _ := newParser(t, http.MethodPost, "/fixed-costs", "application/json", body)

	if _, err := p.BulkRows(); !errors.Is(err, errTooManyRows) {
		t.Fatalf("BulkRows() error = %v, want errTooManyRows", err)
	}
}

func TestDeleteID(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		want        int64
		wantErr     bool
	}{
		{"json body", http.MethodDelete, "/fixed-costs/delete", "application/json", `{"id":2}`, 2, false},
		{"json string id", http.MethodDelete, "/fixed-costs/delete", "application/json", `{"id":"5"}`, 5, false},
		{"form body", http.MethodPost, "/fixed-costs/delete", "application/x-www-form-urlencoded", "id=3", 3, false},
		{"query string", http.MethodDelete, "/fixed-costs/delete?id=4", "", "", 4, false},
		{"missing", http.MethodDelete, "/fixed-costs/delete", "", "", 0, true},
		{"zero", http.MethodPost, "/fixed-costs/delete", "application/x-www-form-urlencoded", "id=0", 0, true},
		{"not a number", http.MethodDelete, "/fixed-costs/delete", "application/json", `{"id":"abc"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, req := newParser(t, tt.method, tt.target, tt.contentType, tt.body)
			got, err := p.DeleteID(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DeleteID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DeleteID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_BodyTooLarge(t *testing.T) {
	body := "fixedCosts[0].costName=" + strings.Repeat("a", maxBodyBytes+1)
	p, _ := newParser(t, http.MethodPost, "/fixed-costs", "application/x-www-form-urlencoded", body)

	if err := p.Parse(); !errors.Is(err, errMalformedBody) {
		t.Fatalf("Parse() error = %v, want errMalformedBody", err)
	}
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		accept      string
		contentType string
		want        bool
	}{
		{"application/json", "", true},
		{"text/html,application/xhtml+xml,application/json;q=0.9", "", false},
		{"application/json, text/plain, */*", "", true},
		{"", "", false},
		{"", "application/json; charset=utf-8", true},
		{"*/*", "", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/fixed-costs", nil)
		req.Header.Set("Accept", tt.accept)
		req.Header.Set("Content-Type", tt.contentType)
		if got := wantsJSON(req); got != tt.want {
			t.Errorf("wantsJSON(accept=%q, content-type=%q) = %v, want %v", tt.accept, tt.contentType, got, tt.want)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x01b\tc \n"); got != "ab\tc" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}
