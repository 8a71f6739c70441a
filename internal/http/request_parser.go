package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"costeapp/internal/core"
)

const (
	maxBodyBytes = 1 << 20
	maxBulkRows  = 500
)

var (
	errMalformedBody = errors.New("malformed request body")
	errTooManyRows   = fmt.Errorf("more than %d rows submitted", maxBulkRows)
)

// RequestBodyParser reads a JSON or form-encoded body once and answers
// lookups against whichever it turned out to be.
type RequestBodyParser struct {
	body     []byte
	isJSON   bool
	jsonData map[string]json.RawMessage
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{isJSON: isJSONBody(r)}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	}
	return p
}

// Parse decodes the body. It is safe to call more than once.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.isJSON || trimmed[0] == '{' {
		p.isJSON = true
		if err := json.Unmarshal(trimmed, &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return p.err
	}

	form, err := url.ParseQuery(string(trimmed))
	if err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
		return p.err
	}
	p.formData = form
	return nil
}

// Get returns a scalar value by key. JSON numbers come back as their literal
// text so amounts keep the precision the client sent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		var v flexString
		if raw, ok := p.jsonData[key]; ok && json.Unmarshal(raw, &v) == nil {
			return sanitizeInput(string(v))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON reports whether the body was decoded as JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.isJSON
}

// BulkRows extracts the submitted rows in order. Form rows are keyed
// fixedCosts[i].field and ordered by i; each row keeps its i so field errors
// name the path the client sent. A missing
// list yields no rows, which validation reports as an empty batch.
func (p *RequestBodyParser) BulkRows() ([]core.FixedCostInput, error) {
	if err := p.Parse(); err != nil {
		return nil, err
	}
	if p.jsonData != nil {
		return p.jsonRows()
	}
	return p.formRows()
}

type jsonRow struct {
	ID          flexString `json:"id"`
	CostName    flexString `json:"costName"`
	MonthlyCost flexString `json:"monthlyCost"`
}

func (p *RequestBodyParser) jsonRows() ([]core.FixedCostInput, error) {
	raw, ok := p.jsonData[core.ChangedFixedCostsKey]
	if !ok {
		return nil, nil
	}
	var rows []jsonRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if len(rows) > maxBulkRows {
		return nil, errTooManyRows
	}

	out := make([]core.FixedCostInput, len(rows))
	for i, r := range rows {
		out[i] = core.FixedCostInput{
			ID:          sanitizeInput(string(r.ID)),
			CostName:    sanitizeInput(string(r.CostName)),
			MonthlyCost: sanitizeInput(string(r.MonthlyCost)),
		}
	}
	return out, nil
}

func (p *RequestBodyParser) formRows() ([]core.FixedCostInput, error) {
	byIndex := map[int]*core.FixedCostInput{}
	for key, values := range p.formData {
		idx, field, ok := parseRowKey(key)
		if !ok || len(values) == 0 {
			continue
		}
		if idx >= maxBulkRows {
			return nil, errTooManyRows
		}
		row := byIndex[idx]
		if row == nil {
			row = &core.FixedCostInput{Index: idx}
			byIndex[idx] = row
		}
		v := sanitizeInput(values[0])
		switch field {
		case core.CostIDKey:
			row.ID = v
		case core.CostNameKey:
			row.CostName = v
		case core.MonthlyCostKey:
			row.MonthlyCost = v
		}
	}

	indexes := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]core.FixedCostInput, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, *byIndex[i])
	}
	return out, nil
}

// parseRowKey splits "fixedCosts[3].costName" into (3, "costName").
func parseRowKey(key string) (int, string, bool) {
	rest, ok := strings.CutPrefix(key, core.ChangedFixedCostsKey+"[")
	if !ok {
		return 0, "", false
	}
	idxStr, field, ok := strings.Cut(rest, "].")
	if !ok {
		return 0, "", false
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return 0, "", false
	}
	switch field {
	case core.CostIDKey, core.CostNameKey, core.MonthlyCostKey:
		return idx, field, true
	}
	return 0, "", false
}

// DeleteID finds the target id in the body, falling back to the query string.
func (p *RequestBodyParser) DeleteID(r *http.Request) (int64, error) {
	if err := p.Parse(); err != nil {
		return 0, err
	}
	v := p.Get(core.CostIDKey)
	if v == "" {
		v = r.URL.Query().Get(core.CostIDKey)
	}
	return core.ParseID(v)
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}
