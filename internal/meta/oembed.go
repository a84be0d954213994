package meta

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// postURLPatterns match the shareable URL shapes for posts, reels and IGTV.
var postURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(www\.)?instagram\.com/p/[A-Za-z0-9_-]+/?`),
	regexp.MustCompile(`^https?://(www\.)?instagram\.com/reel/[A-Za-z0-9_-]+/?`),
	regexp.MustCompile(`^https?://(www\.)?instagram\.com/tv/[A-Za-z0-9_-]+/?`),
}

var captionParagraph = regexp.MustCompile(`<p[^>]*>(.*?)</p>`)
var htmlTag = regexp.MustCompile(`<[^>]*>`)

// IsValidPostURL reports whether url looks like an embeddable post URL.
func IsValidPostURL(url string) bool {
	for _, pattern := range postURLPatterns {
		if pattern.MatchString(url) {
			return true
		}
	}
	return false
}

// OEmbed is the embeddable representation of a personal post.
type OEmbed struct {
	HTML         string `json:"html"`
	ThumbnailURL string `json:"thumbnail_url"`
	AuthorName   string `json:"author_name"`
	Type         string `json:"type"`
	Title        string `json:"title"`
}

// FetchOEmbed looks up the oEmbed snippet for a post URL using the app
// access token (app-id|app-secret). No user credential is involved, so
// embed validation works without the vault.
func (c *Client) FetchOEmbed(ctx context.Context, postURL string) (OEmbed, error) {
	params := url.Values{}
	params.Set("url", postURL)
	params.Set("access_token", c.cfg.AppID+"|"+c.cfg.AppSecret)
	// The embed script is loaded once globally by the widget loader.
	params.Set("omitscript", "true")

	var out OEmbed
	if err := c.get(ctx, "/instagram_oembed", params, &out); err != nil {
		return OEmbed{}, fmt.Errorf("fetch oembed: %w", err)
	}
	if out.Type == "" {
		out.Type = "rich"
	}
	return out, nil
}

// ExtractCaption pulls the caption text out of an oEmbed HTML snippet.
// Returns an empty string when no paragraph is present.
func ExtractCaption(html string) string {
	match := captionParagraph.FindStringSubmatch(html)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(htmlTag.ReplaceAllString(match[1], ""))
}
