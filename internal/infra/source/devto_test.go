package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestDevtoFetchesTagsConcurrently(t *testing.T) {
	var (
		mu   sync.Mutex
		tags []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := r.URL.Query().Get("tag")
		mu.Lock()
		tags = append(tags, tag)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[{"id":%d,"title":"Post about %s","url":"https://dev.to/%s/1",
			"description":"intro","published_at":"2026-08-01T10:00:00Z",
			"positive_reactions_count":30,"comments_count":4,"tag_list":["%s"],
			"user":{"name":"Casey"}}]`, len(tag), tag, tag, tag)
	}))
	defer srv.Close()

	d := NewDevto(newTestClient(), newTestCache(), []string{"ai", "llm", "mlops"}, 20, 10*time.Minute)
	d.baseURL = srv.URL

	items, err := d.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if len(tags) != 3 {
		t.Errorf("hit %d tag pages, want 3", len(tags))
	}
	for _, it := range items {
		if it.Source != "devto" || it.SourceName != "DEV Community" {
			t.Errorf("identity fields: %+v", it)
		}
	}
}

func TestDevtoFailedTagDropsOnlyThatTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tag") == "llm" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `[{"id":1,"title":"ok","url":"https://dev.to/a/1","published_at":"2026-08-01T10:00:00Z","user":{"name":"x"}}]`)
	}))
	defer srv.Close()

	d := NewDevto(newTestClient(), newTestCache(), []string{"ai", "llm"}, 20, 10*time.Minute)
	d.baseURL = srv.URL

	items, err := d.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d items, want 1 from the healthy tag", len(items))
	}
}

func TestDevtoDeduplicatesAcrossTagPages(t *testing.T) {
	// The same article tagged with both configured tags shows up on both
	// tag pages.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":7,"title":"Tagged twice","url":"https://dev.to/a/7",
			"published_at":"2026-08-01T10:00:00Z","tag_list":["ai","llm"],"user":{"name":"x"}}]`)
	}))
	defer srv.Close()

	d := NewDevto(newTestClient(), newTestCache(), []string{"ai", "llm"}, 20, 10*time.Minute)
	d.baseURL = srv.URL

	items, err := d.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].ID != "devto-7" {
		t.Errorf("id = %q", items[0].ID)
	}
}

func TestDevtoCapsMergedItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[`)
		for i := 0; i < 4; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":%d,"title":"p%d","url":"https://dev.to/%s/%d","published_at":"2026-08-01T10:00:00Z","user":{}}`,
				i, i, r.URL.Query().Get("tag"), i)
		}
		fmt.Fprint(w, `]`)
	}))
	defer srv.Close()

	d := NewDevto(newTestClient(), newTestCache(), []string{"ai", "llm"}, 5, 10*time.Minute)
	d.baseURL = srv.URL

	items, err := d.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("got %d items, want the cap of 5", len(items))
	}
}
