// Package models defines the core data structures for widgets,
// social connections, embeds and cached feeds.
package models

import "time"

// Widget type identifiers.
const (
	// WidgetInstagramBusiness serves media fetched from the Business Graph API
	// through a linked SocialConnection.
	WidgetInstagramBusiness = "instagram_business"
	// WidgetInstagramPersonal serves manually added oEmbed posts.
	WidgetInstagramPersonal = "instagram_personal"
)

// Post media type identifiers for the normalized feed.
const (
	PostTypeImage = "image"
	PostTypeVideo = "video"
	PostTypeEmbed = "embed"
)

// Widget is one embeddable feed configuration owned by a user.
type Widget struct {
	// ID is the unique identifier for the widget.
	ID string `json:"id"`
	// UserID is the owning user.
	UserID string `json:"user_id"`
	// ConnectionID optionally references a SocialConnection. It is a weak
	// reference: the connection may be deleted out from under the widget.
	ConnectionID *string `json:"connection_id,omitempty"`
	// Type is one of the Widget* type identifiers.
	Type string `json:"widget_type"`
	// Name is the user-chosen display name.
	Name string `json:"name"`
	// Layout selects the rendering layout ("grid", "carousel", ...).
	Layout string `json:"layout"`
	// Theme selects the color theme ("light", "dark").
	Theme string `json:"theme"`
	// PostCount is the number of posts the feed should contain.
	PostCount int `json:"post_count"`
	// Active controls public visibility; inactive widgets are served as 404.
	Active bool `json:"is_active"`
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// SocialConnection links a user to one external business account.
// AccessToken always holds the encrypted blob, never plaintext.
type SocialConnection struct {
	// ID is the unique identifier for the connection.
	ID string `json:"id"`
	// UserID is the owning user.
	UserID string `json:"user_id"`
	// Provider tags the connection kind (currently "instagram_business").
	Provider string `json:"provider"`
	// PageID and PageName identify the external page the token belongs to.
	PageID   string `json:"page_id"`
	PageName string `json:"page_name"`
	// BusinessAccountID and Username identify the linked business account.
	BusinessAccountID string `json:"ig_business_account_id"`
	Username          string `json:"ig_username"`
	// AccessToken is the vault-encrypted page token.
	AccessToken string `json:"-"`
	// TokenExpiry is the absolute expiry of the stored token.
	TokenExpiry time.Time `json:"token_expiry"`
	// CreatedAt is when the connection was established.
	CreatedAt time.Time `json:"connected_at"`
}

// WidgetEmbed is one manually added personal post for an
// instagram_personal widget.
type WidgetEmbed struct {
	ID string `json:"id"`
	// WidgetID is the owning widget. The same PostURL may appear
	// at most once per widget.
	WidgetID string `json:"widget_id"`
	PostURL  string `json:"post_url"`
	// HTML is the raw oEmbed snippet returned by the provider.
	HTML      string    `json:"oembed_html"`
	Thumbnail string    `json:"thumbnail_url"`
	Caption   string    `json:"caption"`
	Author    string    `json:"author_name"`
	CreatedAt time.Time `json:"created_at"`
}

// WidgetCache is the single cached feed row for a widget.
type WidgetCache struct {
	WidgetID string
	// Posts is the normalized payload, fully replaced on every write.
	Posts []Post
	// CachedAt is monotonically non-decreasing per widget.
	CachedAt time.Time
}

// Post is the normalized feed item. Type is one of the PostType*
// identifiers; embed posts carry HTML instead of a media URL.
type Post struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	URL       string `json:"url,omitempty"`
	Permalink string `json:"permalink,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	// HTML is set only for embed posts.
	HTML string `json:"html,omitempty"`
	// Author is set only for embed posts.
	Author string `json:"author,omitempty"`
}

// WidgetSummary is the public subset of a widget returned with a feed.
type WidgetSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Layout string `json:"layout"`
	Theme  string `json:"theme"`
}

// FeedResult is the public feed endpoint payload.
type FeedResult struct {
	Widget WidgetSummary `json:"widget"`
	Posts  []Post        `json:"posts"`
	// Cached reports whether the payload was served from the cache row.
	Cached bool `json:"cached"`
}

// Page is one external page as returned by the account listing call.
type Page struct {
	ID   string
	Name string
	// AccessToken is the page-scoped plaintext token; it exists only in
	// memory and must be encrypted before persistence.
	AccessToken string
	// BusinessAccountID is set when the listing already reports a linked
	// business account.
	BusinessAccountID string
}

// BusinessAccount is the resolved business account for a page.
type BusinessAccount struct {
	ID                string
	Username          string
	ProfilePictureURL string
}
