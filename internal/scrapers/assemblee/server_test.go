package assemblee

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"anscrutins/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

// fakeSite serves html pages keyed by their request uri and counts how often each was requested.
type fakeSite struct {
	mutex sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newFakeSite(t testing.TB) (*fakeSite, *httptest.Server) {
	site := &fakeSite{
		pages: map[string]string{},
		hits:  map[string]int{},
	}
	server := httptest.NewServer(site)
	t.Cleanup(server.Close)
	return site, server
}

func (s *fakeSite) set(uri, body string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pages[uri] = body
}

func (s *fakeSite) hitCount(uri string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.hits[uri]
}

func (s *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	s.hits[r.URL.RequestURI()]++
	body, ok := s.pages[r.URL.RequestURI()]
	s.mutex.Unlock()

	if !ok {
		http.Error(w, "not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}

func newTestClient(t testing.TB, baseUrl string, renderer Renderer) (*Client, *telemetry.Recorder) {
	recorder := telemetry.NewRecorder()
	client, err := NewClient(ClientOptions{
		BaseUrl:  baseUrl,
		Renderer: renderer,
		Tel:      recorder,
	})
	require.NoError(t, err)
	return client, recorder
}
