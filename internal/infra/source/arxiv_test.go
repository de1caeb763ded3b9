package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testArxivAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query Results</title>
  <entry>
    <id>http://arxiv.org/abs/2608.01234v1</id>
    <title>Efficient Attention for
      Long Contexts</title>
    <summary>  We propose a method
      for efficient attention.  </summary>
    <published>2026-08-01T08:00:00Z</published>
    <link href="http://arxiv.org/abs/2608.01234v1" rel="alternate" type="text/html"/>
    <author><name>A. Researcher</name></author>
    <author><name>B. Scientist</name></author>
    <author><name>C. Engineer</name></author>
    <author><name>D. Student</name></author>
  </entry>
</feed>`

func TestArxivFetchItems(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, testArxivAtom)
	}))
	defer srv.Close()

	a := NewArxiv(newTestClient(), newTestCache(), "cat:cs.AI+OR+cat:cs.LG", 20, 30*time.Minute)
	a.baseURL = srv.URL

	items, err := a.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	p := items[0]
	if p.ID != "arxiv-2608.01234v1" {
		t.Errorf("id = %q", p.ID)
	}
	if p.Title != "Efficient Attention for Long Contexts" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Author != "A. Researcher, B. Scientist, C. Engineer, D. Student" {
		t.Errorf("author = %q", p.Author)
	}
	if p.Type != "paper" {
		t.Errorf("type = %q", p.Type)
	}
	if p.Extra["pdf_url"] != "http://arxiv.org/pdf/2608.01234v1" {
		t.Errorf("pdf_url = %v", p.Extra["pdf_url"])
	}
	if !strings.Contains(gotQuery, "sortBy=submittedDate") {
		t.Errorf("query = %s", gotQuery)
	}
}

func TestArxivFallsBackToRelay(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer origin.Close()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, testArxivAtom)
	}))
	defer relay.Close()

	a := NewArxiv(newRelayClient(relay.URL), newTestCache(), "cat:cs.AI", 20, 30*time.Minute)
	a.baseURL = origin.URL

	items, err := a.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 1 || items[0].ID != "arxiv-2608.01234v1" {
		t.Fatalf("items = %+v", items)
	}
}

func TestArxivID(t *testing.T) {
	if got := arxivID("http://arxiv.org/abs/2608.01234v1"); got != "2608.01234v1" {
		t.Errorf("arxivID = %q", got)
	}
	if got := arxivID("https://example.com/paper"); got == "" {
		t.Error("fallback id empty")
	}
}
