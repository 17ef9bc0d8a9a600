package upstream

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"cryptotools/config"
	"cryptotools/internal/metrics"
	"cryptotools/internal/models"
	"cryptotools/logger"
)

const (
	unknownTime        = "Unknown time"
	summaryUnavailable = "Summary unavailable."
	publishedFormat    = "2006-01-02 15:04 UTC"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// NewsReader polls the fixed set of RSS feeds in sequence and normalizes
// each entry. A feed failing is logged and skipped; the fetch as a whole
// fails only when every feed does.
type NewsReader struct {
	parser *gofeed.Parser
	policy *bluemonday.Policy
	feeds  []config.Feed
	log    *logger.Log
}

func NewNewsReader(feeds []config.Feed, timeout time.Duration, userAgent string, log *logger.Log) *NewsReader {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: timeout}
	return &NewsReader{
		parser: parser,
		policy: bluemonday.StrictPolicy(),
		feeds:  feeds,
		log:    log,
	}
}

// Fetch reads up to perFeedLimit entries from every feed. Entries without a
// resolvable timestamp still come back, flagged with "Unknown time"; the
// resolver decides what freshness filtering to apply.
func (r *NewsReader) Fetch(ctx context.Context, perFeedLimit int) ([]models.NewsItem, error) {
	var items []models.NewsItem
	failures := 0

	for _, feed := range r.feeds {
		parsed, err := r.parser.ParseURLWithContext(feed.URL, ctx)
		metrics.ObserveUpstream("news", err)
		if err != nil {
			failures++
			r.log.WithComponent("news").WithError(err).WithFields(logger.Fields{
				"feed": feed.Name,
			}).Warn("feed fetch failed")
			continue
		}

		entries := parsed.Items
		if len(entries) > perFeedLimit {
			entries = entries[:perFeedLimit]
		}
		for _, entry := range entries {
			items = append(items, r.normalize(feed.Name, entry))
		}
	}

	if failures == len(r.feeds) {
		return nil, fmt.Errorf("all %d news feeds failed", failures)
	}
	return items, nil
}

func (r *NewsReader) normalize(source string, entry *gofeed.Item) models.NewsItem {
	item := models.NewsItem{
		Title:  entry.Title,
		Source: source,
		URL:    entry.Link,
		Image:  entryImage(entry),
	}
	if item.Title == "" {
		item.Title = "Untitled"
	}

	published := entry.PublishedParsed
	if published == nil {
		published = entry.UpdatedParsed
	}
	if published != nil {
		ts := published.Unix()
		item.PublishedAt = &ts
		item.PublishedDisplay = published.UTC().Format(publishedFormat)
	} else {
		item.PublishedDisplay = unknownTime
	}

	summary := entry.Description
	if summary == "" {
		summary = entry.Content
	}
	item.Summary = r.cleanText(summary)
	if item.Summary == "" {
		item.Summary = summaryUnavailable
	}
	return item
}

// cleanText strips markup, unescapes entities and collapses whitespace.
func (r *NewsReader) cleanText(text string) string {
	if text == "" {
		return ""
	}
	text = r.policy.Sanitize(text)
	text = html.UnescapeString(text)
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}

// entryImage prefers a media thumbnail, then media content, then the
// feed-level item image.
func entryImage(entry *gofeed.Item) string {
	if media, ok := entry.Extensions["media"]; ok {
		for _, key := range []string{"thumbnail", "content"} {
			for _, ext := range media[key] {
				if url := ext.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}
	if entry.Image != nil {
		return entry.Image.URL
	}
	return ""
}
