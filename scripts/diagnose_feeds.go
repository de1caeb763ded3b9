// Command diagnose_feeds probes every configured RSS/Atom feed directly
// (no relay fallback) and writes text and JSON reports. Run it when the
// worker logs persistent fetch failures to separate dead feeds from
// feeds that merely need the relay chain.
//
// Usage: go run ./scripts/diagnose_feeds.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"

	"ai-digest/internal/config"
)

type feedDiagnostic struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Status       string `json:"status"` // "OK", "HTTP_ERROR", "PARSE_ERROR", "EMPTY", "TIMEOUT", "REDIRECT"
	HTTPCode     int    `json:"http_code"`
	ItemCount    int    `json:"item_count"`
	LatestDate   string `json:"latest_date"`
	ErrorMessage string `json:"error_message,omitempty"`
	FeedType     string `json:"feed_type"` // "rss", "atom", "json", ""
	RedirectURL  string `json:"redirect_url,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if len(cfg.Feeds) == 0 {
		log.Fatal("No feeds configured")
	}

	log.Printf("Diagnosing %d feeds...", len(cfg.Feeds))

	diagnostics := make([]feedDiagnostic, 0, len(cfg.Feeds))
	for i, feed := range cfg.Feeds {
		log.Printf("[%d/%d] %s", i+1, len(cfg.Feeds), feed.Name)
		diagnostics = append(diagnostics, diagnoseFeed(feed.Name, feed.URL, 30*time.Second))

		// Rate limiting to be nice to servers
		time.Sleep(500 * time.Millisecond)
	}

	generateReport(diagnostics)
	generateJSONReport(diagnostics)
}

func diagnoseFeed(name, url string, timeout time.Duration) feedDiagnostic {
	diag := feedDiagnostic{Name: name, URL: url}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		diag.Status = "REQUEST_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}
	req.Header.Set("User-Agent", "ai-digest-diagnostic/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	start := time.Now()
	resp, err := client.Do(req)
	diag.ResponseTime = time.Since(start).Milliseconds()

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			diag.Status = "TIMEOUT"
			diag.ErrorMessage = fmt.Sprintf("request timeout after %v", timeout)
		} else {
			diag.Status = "HTTP_ERROR"
			diag.ErrorMessage = err.Error()
		}
		return diag
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	diag.HTTPCode = resp.StatusCode
	if resp.Request.URL.String() != url {
		diag.RedirectURL = resp.Request.URL.String()
		diag.Status = "REDIRECT"
	}
	if resp.StatusCode != http.StatusOK {
		diag.Status = "HTTP_ERROR"
		diag.ErrorMessage = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status)
		return diag
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		diag.Status = "PARSE_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	diag.FeedType = parsed.FeedType
	diag.ItemCount = len(parsed.Items)
	if diag.ItemCount == 0 {
		diag.Status = "EMPTY"
		diag.ErrorMessage = "feed has no items"
		return diag
	}
	if t := parsed.Items[0].PublishedParsed; t != nil {
		diag.LatestDate = t.Format(time.RFC3339)
	}

	if diag.Status == "" {
		diag.Status = "OK"
	}
	return diag
}

func healthy(d feedDiagnostic) bool {
	return d.Status == "OK" || d.Status == "REDIRECT"
}

func generateReport(diagnostics []feedDiagnostic) {
	f, err := os.Create("feed_diagnostic_report.txt")
	if err != nil {
		log.Printf("Failed to create report file: %v", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close report file: %v", err)
		}
	}()

	writef := func(format string, args ...interface{}) {
		if _, err := fmt.Fprintf(f, format, args...); err != nil {
			log.Printf("Failed to write to report: %v", err)
		}
	}

	statusCount := make(map[string]int)
	var okCount, errorCount int
	for _, d := range diagnostics {
		statusCount[d.Status]++
		if healthy(d) {
			okCount++
		} else {
			errorCount++
		}
	}

	writef("===============================================\n")
	writef("Feed Diagnostic Report\n")
	writef("Generated: %s\n", time.Now().Format(time.RFC3339))
	writef("Total Feeds: %d\n", len(diagnostics))
	writef("===============================================\n\n")

	writef("SUMMARY:\n")
	writef("  Working: %d (%.1f%%)\n", okCount, float64(okCount)/float64(len(diagnostics))*100)
	writef("  Broken: %d (%.1f%%)\n", errorCount, float64(errorCount)/float64(len(diagnostics))*100)
	writef("\nSTATUS BREAKDOWN:\n")
	for status, count := range statusCount {
		writef("  %s: %d\n", status, count)
	}

	writef("\nWORKING FEEDS (%d):\n", okCount)
	writef("-----------------------------------------------\n")
	for _, d := range diagnostics {
		if !healthy(d) {
			continue
		}
		writef("Name: %s\n", d.Name)
		writef("  URL: %s\n", d.URL)
		writef("  Type: %s | Items: %d | Latest: %s\n", d.FeedType, d.ItemCount, d.LatestDate)
		writef("  Response: %dms | HTTP: %d\n", d.ResponseTime, d.HTTPCode)
		if d.RedirectURL != "" {
			writef("  Redirected to: %s\n", d.RedirectURL)
		}
		writef("\n")
	}

	writef("\nBROKEN FEEDS (%d):\n", errorCount)
	writef("-----------------------------------------------\n")
	for _, d := range diagnostics {
		if healthy(d) {
			continue
		}
		writef("Name: %s\n", d.Name)
		writef("  URL: %s\n", d.URL)
		writef("  Status: %s | HTTP: %d\n", d.Status, d.HTTPCode)
		writef("  Error: %s\n", d.ErrorMessage)
		writef("  Response: %dms\n\n", d.ResponseTime)
	}

	log.Println("Text report generated: feed_diagnostic_report.txt")
}

func generateJSONReport(diagnostics []feedDiagnostic) {
	f, err := os.Create("feed_diagnostic_report.json")
	if err != nil {
		log.Printf("Failed to create JSON report: %v", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close JSON report file: %v", err)
		}
	}()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(diagnostics); err != nil {
		log.Printf("Failed to write JSON report: %v", err)
		return
	}

	log.Println("JSON report generated: feed_diagnostic_report.json")
}
