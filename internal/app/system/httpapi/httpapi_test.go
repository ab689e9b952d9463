package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestDecode_RejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x","bogus":1}`))
	err := Decode(httptest.NewRecorder(), req, &dst)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Errorf("expected 400 validation error, got %v", err)
	}
}

func TestDecode_ValidBody(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}`))
	if err := Decode(httptest.NewRecorder(), req, &dst); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if dst.Name != "x" {
		t.Errorf("Name = %q, want %q", dst.Name, "x")
	}
}

func TestWriteError_Taxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("criteria.understanding", "must be between 1 and 5"), 400},
		{"unauthorized", Unauthorized(), 401},
		{"forbidden", Forbidden("not an instructor of this group"), 403},
		{"not found", NotFound("session not found"), 404},
		{"conflict", Conflict("student_id", "abc", "evaluation already exists"), 409},
		{"state", State("group is not completed", map[string]int{"total_sessions": 3}), 400},
		{"unexpected", errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, zap.NewNop(), tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body["error"] == "" {
				t.Error("expected error message in body")
			}
		})
	}
}

func TestWriteError_HidesInternalDetailInProd(t *testing.T) {
	Configure("prod")
	defer Configure("dev")

	rec := httptest.NewRecorder()
	WriteError(rec, zap.NewNop(), errors.New("dsn=mongodb://secret"))
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("internal error detail leaked in prod mode")
	}
}
