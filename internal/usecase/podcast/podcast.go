// Package podcast follows AI podcast and talk channels through their
// YouTube upload feeds.
package podcast

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"ai-digest/internal/config"
	"ai-digest/internal/infra/cache"
	"ai-digest/internal/infra/transport"
	"ai-digest/internal/observability/logging"
)

const (
	defaultYouTubeFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id="
	maxVideosPerChannel   = 5
)

// Video is one recent upload of a followed channel.
type Video struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	VideoID     string    `json:"videoId"`
	PublishedAt time.Time `json:"publishedAt"`
	Thumbnail   string    `json:"thumbnail"`
	Description string    `json:"description"`
}

// ChannelVideos groups the fetch outcome per channel. Channels whose
// feed failed map to an empty slice.
type ChannelVideos struct {
	ByChannel  map[string][]Video `json:"byChannel"`
	ErrorCount int                `json:"errorCount"`
}

// Service fetches channel upload feeds with per-channel caching.
type Service struct {
	client   *transport.Client
	cache    *cache.Cache
	parser   *gofeed.Parser
	feedURL  string
	channels []config.Channel
	ttl      time.Duration
}

// NewService creates the podcast service.
func NewService(client *transport.Client, c *cache.Cache, channels []config.Channel, ttl time.Duration) *Service {
	return &Service{
		client:   client,
		cache:    c,
		parser:   gofeed.NewParser(),
		feedURL:  defaultYouTubeFeedURL,
		channels: channels,
		ttl:      ttl,
	}
}

// FetchAll fetches every followed channel concurrently. A channel whose
// feed fails contributes an empty video list and bumps ErrorCount.
func (s *Service) FetchAll(ctx context.Context) ChannelVideos {
	logger := logging.FromContext(ctx)

	out := ChannelVideos{ByChannel: make(map[string][]Video, len(s.channels))}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, ch := range s.channels {
		ch := ch
		wg.Add(1)
		go func() {
			defer wg.Done()
			videos, err := s.FetchChannel(ctx, ch.ChannelID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("channel feed failed",
					slog.String("channel", ch.Name),
					slog.String("error", err.Error()))
				out.ByChannel[ch.ChannelID] = []Video{}
				out.ErrorCount++
				return
			}
			out.ByChannel[ch.ChannelID] = videos
		}()
	}
	wg.Wait()

	return out
}

// FetchChannel returns the latest uploads of one channel. YouTube feeds
// are unreachable from many networks, so the fetch is relay-capable.
func (s *Service) FetchChannel(ctx context.Context, channelID string) ([]Video, error) {
	key := "podcast-yt:" + channelID
	var cached []Video
	if s.cache.Get(key, &cached) {
		return cached, nil
	}

	body, err := s.client.GetBody(ctx, s.feedURL+channelID, transport.Options{
		UseRelay: true,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, err)
	}

	feed, err := s.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("channel %s: parse: %w", channelID, err)
	}

	videos := make([]Video, 0, maxVideosPerChannel)
	for _, fi := range feed.Items {
		if len(videos) >= maxVideosPerChannel {
			break
		}
		videos = append(videos, mapEntry(fi))
	}

	s.cache.Set(key, videos, s.ttl)
	return videos, nil
}

func mapEntry(fi *gofeed.Item) Video {
	id := videoID(fi)

	published := time.Time{}
	if fi.PublishedParsed != nil {
		published = *fi.PublishedParsed
	}

	thumbnail := mediaThumbnail(fi)
	if thumbnail == "" {
		thumbnail = "https://i.ytimg.com/vi/" + id + "/mqdefault.jpg"
	}

	description := mediaDescription(fi)
	if description == "" {
		description = fi.Description
	}

	return Video{
		Title:       fi.Title,
		URL:         "https://www.youtube.com/watch?v=" + id,
		VideoID:     id,
		PublishedAt: published,
		Thumbnail:   thumbnail,
		Description: description,
	}
}

// videoID reads the yt:videoId extension, falling back to the entry id
// of the form "yt:video:<id>".
func videoID(fi *gofeed.Item) string {
	if exts, ok := fi.Extensions["yt"]["videoId"]; ok && len(exts) > 0 {
		return exts[0].Value
	}
	if i := strings.LastIndex(fi.GUID, ":"); i >= 0 {
		return fi.GUID[i+1:]
	}
	return fi.GUID
}

func mediaThumbnail(fi *gofeed.Item) string {
	for _, group := range fi.Extensions["media"]["group"] {
		for _, thumb := range group.Children["thumbnail"] {
			if url := thumb.Attrs["url"]; url != "" {
				return url
			}
		}
	}
	return ""
}

func mediaDescription(fi *gofeed.Item) string {
	for _, group := range fi.Extensions["media"]["group"] {
		for _, desc := range group.Children["description"] {
			if desc.Value != "" {
				return desc.Value
			}
		}
	}
	return ""
}
