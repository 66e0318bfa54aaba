package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/peoplemap/backend/internal/model/person"
	directoryService "github.com/zhouzirui/peoplemap/backend/internal/service/directory"
)

type downSource struct{}

func (downSource) Fetch(context.Context) ([]person.Person, error) { return nil, errors.New("503 from sheets") }
func (downSource) Count(context.Context) (int, error)             { return 0, errors.New("503 from sheets") }
func (downSource) Append(context.Context, person.Row) error       { return errors.New("503 from sheets") }

func setupRouter(src person.Source) *chi.Mux {
	handler := New(directoryService.NewService(src, nil), nil)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func scenarioSource() *person.MemorySource {
	return person.NewMemorySource(
		person.Row{"0", "First", "", "", "first@x.org", "40.0", "-73.0", "X", ""},
		person.Row{"1", "Second", "", "", "second@y.org", "41.0", "-74.0", "Y", ""},
	)
}

func doRequest(r http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestNearbyScenario(t *testing.T) {
	r := setupRouter(scenarioSource())
	resp := doRequest(r, http.MethodGet, "/nearby?lat=40.0&lon=-73.0&radius=50", nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(got) != 1 || got[0]["id"] != "0" || got[0]["distance_km"] != 0.0 {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestNearbyInvalidParams(t *testing.T) {
	r := setupRouter(scenarioSource())
	for _, target := range []string{
		"/nearby?lon=-73",
		"/nearby?lat=40",
		"/nearby?lat=abc&lon=-73",
		"/nearby?lat=40&lon=-73&radius=far",
		"/nearby?lat=NaN&lon=-73",
	} {
		if resp := doRequest(r, http.MethodGet, target, nil); resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.Code)
		}
	}
}

func TestNearbyDefaultRadius(t *testing.T) {
	src := person.NewMemorySource(
		person.Row{"0", "Close", "", "", "", "40.05", "-73.0", "", ""},
		person.Row{"1", "Far", "", "", "", "40.2", "-73.0", "", ""},
	)
	resp := doRequest(setupRouter(src), http.MethodGet, "/nearby?lat=40&lon=-73", nil)

	var got []person.Nearby
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(got) != 1 || got[0].ID != "0" {
		t.Fatalf("expected only the record within 10km, got %+v", got)
	}
}

func TestSubmitMissingEmail(t *testing.T) {
	r := setupRouter(person.NewMemorySource())
	resp := doRequest(r, http.MethodPost, "/submit", []byte(`{"name":"Ada","organization":"X"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != "{\"error\":\"email is required\"}\n" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSubmitSuccess(t *testing.T) {
	src := scenarioSource()
	r := setupRouter(src)
	resp := doRequest(r, http.MethodPost, "/submit", []byte(`{"name":"Ada","email":"a@x.org","organization":"X","latitude":40.25,"longitude":-73.5}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	rows := src.Rows()
	last := rows[len(rows)-1]
	if last[person.ColID] != "2" || last[person.ColLatitude] != "40.25" || last[person.ColLongitude] != "-73.5" {
		t.Fatalf("unexpected appended row %v", last)
	}
}

func TestSubmitInvalidBody(t *testing.T) {
	resp := doRequest(setupRouter(person.NewMemorySource()), http.MethodPost, "/submit", []byte(`{`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUpstreamFailureIsGeneric500(t *testing.T) {
	r := setupRouter(downSource{})
	for _, c := range []struct {
		method, target string
		body           []byte
	}{
		{http.MethodGet, "/organizations", nil},
		{http.MethodGet, "/search?q=a", nil},
		{http.MethodGet, "/nearby?lat=1&lon=1", nil},
		{http.MethodGet, "/check_profile_exists?email=a@b.c", nil},
		{http.MethodPost, "/submit", []byte(`{"name":"n","email":"e","organization":"o"}`)},
	} {
		resp := doRequest(r, c.method, c.target, c.body)
		if resp.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", c.target, resp.Code)
		}
		if bytes.Contains(resp.Body.Bytes(), []byte("503 from sheets")) {
			t.Fatalf("%s: upstream detail leaked: %s", c.target, resp.Body.String())
		}
	}
}

func TestOrganizationsAndSearch(t *testing.T) {
	r := setupRouter(scenarioSource())

	resp := doRequest(r, http.MethodGet, "/organizations", nil)
	if body := resp.Body.String(); body != "[\"X\",\"Y\"]\n" {
		t.Fatalf("unexpected organizations body %q", body)
	}

	resp = doRequest(r, http.MethodGet, "/search?q=SECOND", nil)
	var got []person.Person
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("unexpected search results %+v", got)
	}

	resp = doRequest(r, http.MethodGet, "/search?q=nobody", nil)
	if body := resp.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", body)
	}
}

func TestCheckProfileExists(t *testing.T) {
	r := setupRouter(scenarioSource())

	resp := doRequest(r, http.MethodGet, "/check_profile_exists?email=FIRST@x.org", nil)
	if body := resp.Body.String(); body != "{\"exists\":true}\n" {
		t.Fatalf("unexpected body %q", body)
	}
	resp = doRequest(r, http.MethodGet, "/check_profile_exists?email=ghost@x.org", nil)
	if body := resp.Body.String(); body != "{\"exists\":false}\n" {
		t.Fatalf("unexpected body %q", body)
	}
	resp = doRequest(r, http.MethodGet, "/check_profile_exists", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
