package entity

import (
	"errors"
	"testing"
	"time"
)

func validItem() Item {
	return Item{
		ID:          "hn-8863",
		Title:       "My YC app: Dropbox",
		URL:         "https://news.ycombinator.com/item?id=8863",
		Source:      "hackernews",
		SourceName:  "Hacker News",
		PublishedAt: time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC),
		Type:        TypeNews,
	}
}

func TestItemValidate(t *testing.T) {
	item := validItem()
	if err := item.Validate(); err != nil {
		t.Fatalf("Validate() on valid item = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Item)
		field  string
	}{
		{"missing title", func(i *Item) { i.Title = "" }, "title"},
		{"missing url", func(i *Item) { i.URL = "" }, "url"},
		{"missing source", func(i *Item) { i.Source = "" }, "source"},
		{"unknown type", func(i *Item) { i.Type = "podcast" }, "type"},
		{"empty type", func(i *Item) { i.Type = "" }, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(&item)

			err := item.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %T, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
			if !errors.Is(err, ErrValidationFailed) {
				t.Error("error does not unwrap to ErrValidationFailed")
			}
		})
	}
}
