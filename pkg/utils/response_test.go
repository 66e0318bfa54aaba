package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zhouzirui/peoplemap/backend/pkg/apperr"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body err: %v", err)
	}
	return body["error"]
}

func TestRespondAppErrorInput(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondAppError(rr, nil, apperr.Required("email"), "submit failed")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got != "email is required" {
		t.Fatalf("unexpected error body %q", got)
	}
}

func TestRespondAppErrorHidesUpstreamDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondAppError(rr, nil, apperr.Upstream("append row", errors.New("secret quota detail")), "submit failed")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got != "submit failed" {
		t.Fatalf("unexpected error body %q", got)
	}
}

func TestSendSSEEvent(t *testing.T) {
	rr := httptest.NewRecorder()
	SetupSSEHeaders(rr)
	if err := SendSSEEvent(rr, rr, "receive_message", map[string]string{"message": "hi"}); err != nil {
		t.Fatalf("SendSSEEvent err: %v", err)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if !strings.Contains(rr.Body.String(), "event: receive_message\ndata: {\"message\":\"hi\"}\n\n") {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}
