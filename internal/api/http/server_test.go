package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediatrack/searchservice/internal/domain"
	"mediatrack/searchservice/internal/search"
)

type stubSearchService struct {
	response    domain.SearchResponse
	err         error
	lastRequest domain.SearchRequest
	lastSources []string
	calls       int
}

func (s *stubSearchService) Search(_ context.Context, request domain.SearchRequest, sources []string) (domain.SearchResponse, error) {
	s.calls++
	s.lastRequest = request
	s.lastSources = sources
	if s.err != nil {
		return domain.SearchResponse{}, s.err
	}
	return s.response, nil
}

func (s *stubSearchService) Sources() []domain.SourceInfo {
	return []domain.SourceInfo{
		{Name: "tmdb", Label: "TMDB", Categories: []domain.MediaCategory{domain.CategoryMovie}, Enabled: true},
	}
}

func (s *stubSearchService) SourceDiagnostics() []domain.SourceDiagnostics {
	return []domain.SourceDiagnostics{{Name: "tmdb", Label: "TMDB", Enabled: true}}
}

func doRequest(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(method, target, nil))
	return recorder
}

func TestSearchEndpointOK(t *testing.T) {
	stub := &stubSearchService{
		response: domain.SearchResponse{
			Query:      "dune",
			Items:      []domain.SearchResult{{Title: "Dune", Category: domain.CategoryMovie}},
			TotalItems: 1,
			Limit:      25,
		},
	}
	handler := NewServer(stub).Handler()

	recorder := doRequest(t, handler, http.MethodGet, "/search?q=dune&limit=25&offset=0&categories=movie,tv&sources=tmdb,omdb&sortBy=date&nocache=1")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", recorder.Code, recorder.Body.String())
	}

	var decoded domain.SearchResponse
	if err := json.NewDecoder(recorder.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.TotalItems != 1 || len(decoded.Items) != 1 || decoded.Items[0].Title != "Dune" {
		t.Fatalf("unexpected payload: %#v", decoded)
	}

	request := stub.lastRequest
	if request.Query != "dune" || request.Limit != 25 || request.Offset != 0 {
		t.Errorf("unexpected request passed through: %#v", request)
	}
	if len(request.Categories) != 2 || request.Categories[0] != domain.CategoryMovie {
		t.Errorf("categories not parsed: %#v", request.Categories)
	}
	if request.SortBy != domain.SearchSortByDate || !request.NoCache {
		t.Errorf("sort/nocache not parsed: %#v", request)
	}
	if len(stub.lastSources) != 2 || stub.lastSources[0] != "tmdb" {
		t.Errorf("sources not parsed: %#v", stub.lastSources)
	}
}

func TestSearchEndpointValidation(t *testing.T) {
	handler := NewServer(&stubSearchService{}).Handler()

	cases := []struct {
		name   string
		target string
		status int
	}{
		{"missing query", "/search", http.StatusBadRequest},
		{"blank query", "/search?q=%20%20", http.StatusBadRequest},
		{"zero limit", "/search?q=dune&limit=0", http.StatusBadRequest},
		{"negative limit", "/search?q=dune&limit=-5", http.StatusBadRequest},
		{"non-numeric limit", "/search?q=dune&limit=abc", http.StatusBadRequest},
		{"negative offset", "/search?q=dune&offset=-1", http.StatusBadRequest},
		{"unknown category", "/search?q=dune&categories=podcast", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := doRequest(t, handler, http.MethodGet, tc.target)
			if recorder.Code != tc.status {
				t.Fatalf("status = %d, want %d: %s", recorder.Code, tc.status, recorder.Body.String())
			}
		})
	}
}

func TestSearchEndpointServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown source", search.ErrUnknownSource, http.StatusBadRequest},
		{"unknown category", search.ErrUnknownCategory, http.StatusBadRequest},
		{"no sources", search.ErrNoSources, http.StatusServiceUnavailable},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewServer(&stubSearchService{err: tc.err}).Handler()
			recorder := doRequest(t, handler, http.MethodGet, "/search?q=dune")
			if recorder.Code != tc.status {
				t.Fatalf("status = %d, want %d", recorder.Code, tc.status)
			}
		})
	}
}

func TestSearchEndpointMethodNotAllowed(t *testing.T) {
	handler := NewServer(&stubSearchService{}).Handler()
	recorder := doRequest(t, handler, http.MethodPost, "/search?q=dune")
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusMethodNotAllowed)
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := NewServer(&stubSearchService{}).Handler()
	recorder := doRequest(t, handler, http.MethodGet, "/health")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode health payload: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestSourcesEndpoint(t *testing.T) {
	handler := NewServer(&stubSearchService{}).Handler()
	recorder := doRequest(t, handler, http.MethodGet, "/search/sources")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	var payload struct {
		Items []domain.SourceInfo `json:"items"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].Name != "tmdb" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestSourcesHealthEndpoint(t *testing.T) {
	handler := NewServer(&stubSearchService{}).Handler()
	recorder := doRequest(t, handler, http.MethodGet, "/search/sources/health")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	var payload struct {
		Items []domain.SourceDiagnostics `json:"items"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].Name != "tmdb" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	handler := NewServer(&stubSearchService{}).Handler()
	recorder := doRequest(t, handler, http.MethodGet, "/search/categories")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	var payload struct {
		Items []domain.MediaCategory `json:"items"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Items) != len(domain.AllCategories()) {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestSourceTestEndpoint(t *testing.T) {
	stub := &stubSearchService{
		response: domain.SearchResponse{
			Items: []domain.SearchResult{
				{Title: "The Fellowship of the Ring"},
				{Title: "The Two Towers"},
				{Title: "The Return of the King"},
				{Title: "Extra"},
			},
			Sources:   []domain.SourceStatus{{Name: "tmdb", OK: true, Count: 4}},
			ElapsedMS: 12,
		},
	}
	handler := NewServer(stub).Handler()

	recorder := doRequest(t, handler, http.MethodGet, "/search/sources/test?source=TMDB")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}

	var payload struct {
		Source string   `json:"source"`
		OK     bool     `json:"ok"`
		Count  int      `json:"count"`
		Sample []string `json:"sample"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Source != "tmdb" || !payload.OK || payload.Count != 4 {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if len(payload.Sample) != 3 {
		t.Fatalf("sample must cap at 3 titles: %#v", payload.Sample)
	}
	if !stub.lastRequest.NoCache {
		t.Fatalf("source test must bypass the cache")
	}
	if stub.lastRequest.Query != "the lord of the rings" {
		t.Fatalf("expected the default probe query, got %q", stub.lastRequest.Query)
	}
}

func TestSourceTestEndpointRequiresSource(t *testing.T) {
	handler := NewServer(&stubSearchService{}).Handler()
	recorder := doRequest(t, handler, http.MethodGet, "/search/sources/test")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
}

func TestSourceTestEndpointReportsFailure(t *testing.T) {
	handler := NewServer(&stubSearchService{err: search.ErrUnknownSource}).Handler()
	recorder := doRequest(t, handler, http.MethodGet, "/search/sources/test?source=bogus")
	if recorder.Code != http.StatusOK {
		t.Fatalf("probe failures report in the body, status = %d", recorder.Code)
	}
	var payload struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.OK || payload.Error == "" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestUnknownPathReturns404(t *testing.T) {
	handler := NewServer(&stubSearchService{}).Handler()
	recorder := doRequest(t, handler, http.MethodGet, "/search/bogus")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusNotFound)
	}
}
