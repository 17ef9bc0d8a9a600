package models

// NewsItem is a normalized feed entry. Summary is plain text with HTML
// stripped and entities unescaped. PublishedAt is epoch seconds; it is nil
// when the feed gave no resolvable timestamp, in which case
// PublishedDisplay reads "Unknown time".
type NewsItem struct {
	Title            string `json:"title"`
	Source           string `json:"source"`
	Summary          string `json:"summary"`
	Image            string `json:"image,omitempty"`
	URL              string `json:"url,omitempty"`
	PublishedAt      *int64 `json:"published_ts"`
	PublishedDisplay string `json:"published_str"`
}
