package meta

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/feedgrid/feedgrid/internal/models"
)

// MediaItem is one media record as returned by the Business Graph source.
// Fields are optional upstream; defaults are applied during normalization.
type MediaItem struct {
	ID           string `json:"id"`
	Caption      string `json:"caption"`
	MediaType    string `json:"media_type"`
	MediaURL     string `json:"media_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Permalink    string `json:"permalink"`
	Timestamp    string `json:"timestamp"`
}

// ListMedia fetches up to limit media items for a business account.
func (c *Client) ListMedia(ctx context.Context, businessAccountID, accessToken string, limit int) ([]MediaItem, error) {
	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("fields", "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp")
	params.Set("limit", strconv.Itoa(limit))

	var out struct {
		Data []MediaItem `json:"data"`
	}
	if err := c.get(ctx, "/"+businessAccountID+"/media", params, &out); err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return out.Data, nil
}

// NormalizeMedia maps raw media records onto the unified Post shape.
// An unrecognized or missing media type defaults to image; the thumbnail
// falls back to the media URL when absent.
func NormalizeMedia(items []MediaItem) []models.Post {
	posts := make([]models.Post, 0, len(items))
	for _, item := range items {
		postType := models.PostTypeImage
		if strings.EqualFold(item.MediaType, "VIDEO") {
			postType = models.PostTypeVideo
		}

		thumbnail := item.ThumbnailURL
		if thumbnail == "" {
			thumbnail = item.MediaURL
		}

		posts = append(posts, models.Post{
			ID:        item.ID,
			Type:      postType,
			URL:       item.MediaURL,
			Thumbnail: thumbnail,
			Caption:   item.Caption,
			Permalink: item.Permalink,
			Timestamp: item.Timestamp,
		})
	}
	return posts
}
