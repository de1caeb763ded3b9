package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(relays []Relay) *Client {
	return NewClient(ClientConfig{
		Relays:             relays,
		DirectProbeTimeout: 1 * time.Second,
		RelayTimeout:       1 * time.Second,
		RequestTimeout:     1 * time.Second,
	})
}

// relayFor builds a Relay pointing at a httptest server that forwards the
// "url" query parameter semantics of real relay services.
func relayFor(name, baseURL string) Relay {
	return Relay{Name: name, URLTemplate: baseURL + "/raw?url={url}"}
}

func TestMemory(t *testing.T) {
	m := NewMemory()

	if _, ok := m.Route("example.com"); ok {
		t.Fatal("empty memory should have no routes")
	}

	m.Remember("example.com", RouteDirect)
	route, ok := m.Route("example.com")
	if !ok || route != RouteDirect {
		t.Errorf("expected remembered direct route, got %q (ok=%v)", route, ok)
	}

	m.Remember("example.com", "allorigins")
	route, _ = m.Route("example.com")
	if route != "allorigins" {
		t.Errorf("expected last write to win, got %q", route)
	}

	m.Forget("example.com")
	if _, ok := m.Route("example.com"); ok {
		t.Error("forgotten route should be gone")
	}

	m.Remember("a.com", RouteDirect)
	m.Remember("b.com", "corsproxy")
	m.Reset()
	if _, ok := m.Route("a.com"); ok {
		t.Error("reset should clear all routes")
	}
}

func TestRelay_BuildURL(t *testing.T) {
	relay := Relay{Name: "allorigins", URLTemplate: "https://api.allorigins.win/raw?url={url}"}

	got := relay.BuildURL("https://example.com/feed.xml?x=1")
	want := "https://api.allorigins.win/raw?url=" + url.QueryEscape("https://example.com/feed.xml?x=1")
	if got != want {
		t.Errorf("BuildURL = %q, want %q", got, want)
	}
}

func TestClient_Get_DirectSuccessRemembered(t *testing.T) {
	var directCalls int64
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&directCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer origin.Close()

	c := newTestClient(nil)
	resp, err := c.Get(context.Background(), origin.URL+"/api", Options{UseRelay: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("expected 2xx, got %d", resp.StatusCode)
	}
	if resp.Via != RouteDirect {
		t.Errorf("expected via=direct, got %q", resp.Via)
	}

	host, _ := url.Parse(origin.URL)
	route, ok := c.Memory().Route(host.Hostname())
	if !ok || route != RouteDirect {
		t.Errorf("expected direct route remembered, got %q (ok=%v)", route, ok)
	}
}

func TestClient_Get_FallsBackToRelayAndSkipsProbeNextTime(t *testing.T) {
	// Origin that is unreachable: start a server just to grab a free port,
	// then close it so direct attempts get connection refused.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	var relayCalls int64
	relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&relayCalls, 1)
		if r.URL.Query().Get("url") == "" {
			t.Error("relay request missing url parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"via":"relay"}`)
	}))
	defer relaySrv.Close()

	c := newTestClient([]Relay{relayFor("testrelay", relaySrv.URL)})

	target := deadURL + "/api/items"
	resp, err := c.Get(context.Background(), target, Options{UseRelay: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Via != "testrelay" {
		t.Errorf("expected via=testrelay, got %q", resp.Via)
	}

	host, _ := url.Parse(deadURL)
	route, ok := c.Memory().Route(host.Hostname())
	if !ok || route != "testrelay" {
		t.Fatalf("expected relay remembered for host, got %q (ok=%v)", route, ok)
	}

	// Second request to the same host must go straight to the relay: exactly
	// one more relay call, no direct probe delay.
	if _, err := c.Get(context.Background(), target, Options{UseRelay: true}); err != nil {
		t.Fatalf("unexpected error on remembered-relay request: %v", err)
	}
	if got := atomic.LoadInt64(&relayCalls); got != 2 {
		t.Errorf("expected 2 relay calls, got %d", got)
	}
}

func TestClient_Get_ErrorStatusTriggersRelay(t *testing.T) {
	// Origin is reachable but refuses with 429, the way rate-limited APIs do.
	blocking := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer blocking.Close()

	relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"via":"relay"}`)
	}))
	defer relaySrv.Close()

	c := newTestClient([]Relay{relayFor("testrelay", relaySrv.URL)})

	resp, err := c.Get(context.Background(), blocking.URL+"/api", Options{UseRelay: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Via != "testrelay" {
		t.Errorf("expected the refusing origin to fall back to the relay, got via=%q", resp.Via)
	}

	host, _ := url.Parse(blocking.URL)
	if route, ok := c.Memory().Route(host.Hostname()); !ok || route != "testrelay" {
		t.Errorf("expected relay remembered after refused probe, got %q (ok=%v)", route, ok)
	}
}

func TestClient_Get_RejectsHTMLMasquerade(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	badRelay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Relay error page served with a 200, the exact failure mode the
		// content-type guard exists for.
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>Too many requests</body></html>")
	}))
	defer badRelay.Close()

	goodRelay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel></channel></rss>`)
	}))
	defer goodRelay.Close()

	c := newTestClient([]Relay{
		relayFor("bad", badRelay.URL),
		relayFor("good", goodRelay.URL),
	})

	resp, err := c.Get(context.Background(), deadURL+"/feed.xml", Options{UseRelay: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Via != "good" {
		t.Errorf("expected the HTML masquerade relay to be skipped, got via=%q", resp.Via)
	}
}

func TestClient_Get_AllRelaysFailed(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	failingRelay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failingRelay.Close()

	c := newTestClient([]Relay{relayFor("failing", failingRelay.URL)})

	_, err := c.Get(context.Background(), deadURL+"/api", Options{UseRelay: true})
	if err == nil {
		t.Fatal("expected error when every path fails")
	}
	if !errors.Is(err, ErrAllRelaysFailed) {
		t.Errorf("expected ErrAllRelaysFailed, got %v", err)
	}
	// The error must name the original URL, not the relay URL.
	if !strings.Contains(err.Error(), deadURL) {
		t.Errorf("expected error to mention %q, got %v", deadURL, err)
	}
}

func TestClient_GetJSON(t *testing.T) {
	t.Run("decodes payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"hits":[{"title":"hello"}]}`)
		}))
		defer srv.Close()

		var payload struct {
			Hits []struct {
				Title string `json:"title"`
			} `json:"hits"`
		}
		c := newTestClient(nil)
		if err := c.GetJSON(context.Background(), srv.URL, Options{}, &payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(payload.Hits) != 1 || payload.Hits[0].Title != "hello" {
			t.Errorf("unexpected payload: %+v", payload)
		}
	})

	t.Run("non-2xx becomes StatusError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		var payload map[string]any
		c := newTestClient(nil)
		err := c.GetJSON(context.Background(), srv.URL, Options{}, &payload)

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if statusErr.StatusCode != http.StatusTooManyRequests {
			t.Errorf("expected status 429, got %d", statusErr.StatusCode)
		}
	})
}

func TestIsHTMLMasquerade(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		target      string
		expected    bool
	}{
		{"html for json endpoint", "text/html; charset=utf-8", "https://a.com/api/items", true},
		{"html for html page", "text/html", "https://a.com/page.html", false},
		{"json passes", "application/json", "https://a.com/api/items", false},
		{"xml passes", "application/rss+xml", "https://a.com/feed.xml", false},
		{"empty content type passes", "", "https://a.com/api", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHTMLMasquerade(tt.contentType, tt.target); got != tt.expected {
				t.Errorf("isHTMLMasquerade(%q, %q) = %v, expected %v", tt.contentType, tt.target, got, tt.expected)
			}
		})
	}
}

