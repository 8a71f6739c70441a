package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/fixed-costs").
		JSON(map[string]int{"id": 7}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("Location") != "/fixed-costs" {
		t.Error("custom header not written")
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("responses default to no-store")
	}
	if strings.TrimSpace(w.Body.String()) != `{"id":7}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestResponseBuilder_JSONEncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().JSON(math.Inf(1)).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Status code = %d, want 500", w.Code)
	}
	var body APIError
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Code != CodeInternal {
		t.Fatalf("unexpected body %q (%v)", w.Body.String(), err)
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		builder    *ResponseBuilder
		wantStatus int
		wantCode   string
	}{
		{"not found", NotFoundJSON("gone"), http.StatusNotFound, CodeNotFound},
		{"bad request", BadRequestJSON("nope"), http.StatusBadRequest, CodeBadRequest},
		{"internal", InternalErrorJSON(), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			var body APIError
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.wantCode || body.Error == "" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestFieldErrorsJSON(t *testing.T) {
	w := httptest.NewRecorder()
	FieldErrorsJSON(map[string]string{"fixedCosts[1].costName": "El concepto es obligatorio"}).Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Status code = %d, want 422", w.Code)
	}
	want := `{"fieldErrors":{"fixedCosts[1].costName":"El concepto es obligatorio"}}`
	if strings.TrimSpace(w.Body.String()) != want {
		t.Errorf("Body = %s, want %s", w.Body.String(), want)
	}
}

func TestResponseBuilder_HTML(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Status(http.StatusUnprocessableEntity).HTML([]byte("<p>x</p>")).Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status code = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Body.String() != "<p>x</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
}
