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

func TestRedditFetchItems(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"children":[
			{"data":{"id":"aaa","title":"Pinned rules","stickied":true,"subreddit":"artificial"}},
			{"data":{"id":"bbb","title":"New model drops","url":"https://blog.example/model",
			 "author":"u1","created_utc":1754042400,"score":420,"num_comments":130,"subreddit":"artificial"}},
			{"data":{"id":"ccc","title":"Discussion thread","url":"","permalink":"/r/MachineLearning/comments/ccc/",
			 "selftext":"What do you all think","author":"u2","created_utc":1754042000,"score":55,"num_comments":40,"subreddit":"MachineLearning"}}
		]}}`)
	}))
	defer srv.Close()

	r := NewReddit(newTestClient(), newTestCache(), "artificial+MachineLearning", 20, 10*time.Minute)
	r.baseURL = srv.URL

	items, err := r.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}

	if gotPath != "/r/artificial+MachineLearning/hot.json" {
		t.Errorf("path = %q", gotPath)
	}
	// Stickied post is skipped.
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != "reddit-bbb" || items[0].SourceName != "r/artificial" {
		t.Errorf("first item: %+v", items[0])
	}
	// Items carry their subreddit as the tag.
	if len(items[0].Tags) != 1 || items[0].Tags[0] != "artificial" {
		t.Errorf("tags = %v", items[0].Tags)
	}
	// Self posts link to the thread.
	if !strings.HasPrefix(items[1].URL, defaultRedditBaseURL+"/r/MachineLearning/") {
		t.Errorf("permalink fallback = %q", items[1].URL)
	}
	if items[1].PublishedAt != time.Unix(1754042000, 0).UTC() {
		t.Errorf("publishedAt = %v", items[1].PublishedAt)
	}
}

func TestRedditRelativeURLFallsBackToPermalink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"children":[
			{"data":{"id":"xp","title":"Crosspost","url":"/r/artificial/comments/xp/",
			 "permalink":"/r/artificial/comments/xp/","subreddit":"artificial"}}
		]}}`)
	}))
	defer srv.Close()

	r := NewReddit(newTestClient(), newTestCache(), "artificial", 20, 10*time.Minute)
	r.baseURL = srv.URL

	items, err := r.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if items[0].URL != defaultRedditBaseURL+"/r/artificial/comments/xp/" {
		t.Errorf("url = %q", items[0].URL)
	}
}

func TestRedditHonorsItemLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"children":[`)
		for i := 0; i < 10; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"data":{"id":"p%d","title":"t%d","url":"https://x.example/%d","subreddit":"artificial"}}`, i, i, i)
		}
		fmt.Fprint(w, `]}}`)
	}))
	defer srv.Close()

	r := NewReddit(newTestClient(), newTestCache(), "artificial", 3, 10*time.Minute)
	r.baseURL = srv.URL

	items, err := r.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("got %d items, want 3", len(items))
	}
}
