package meta

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/feedgrid/feedgrid/internal/apperr"
	"github.com/feedgrid/feedgrid/internal/models"
)

// oauthScopes are requested during authorization.
var oauthScopes = []string{
	"pages_show_list",
	"pages_read_engagement",
	"instagram_basic",
	"instagram_content_publish",
	"business_management",
}

// AuthorizationURL builds the provider authorization redirect target
// embedding the given anti-forgery state. The caller is responsible for
// persisting and validating the state on callback.
func (c *Client) AuthorizationURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.cfg.AppID)
	params.Set("redirect_uri", c.cfg.RedirectURI)
	params.Set("scope", strings.Join(oauthScopes, ","))
	params.Set("response_type", "code")
	params.Set("state", state)

	return "https://www.facebook.com/v18.0/dialog/oauth?" + params.Encode()
}

// LongLivedToken is the result of a token upgrade or refresh. ExpiresIn is
// whatever the upstream actually returned, in seconds; no fixed duration is
// assumed.
type LongLivedToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ExpiresAt converts the relative lifetime into an absolute expiry.
func (t LongLivedToken) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// ExchangeCode trades the authorization code for a short-lived token.
// An expired or reused code surfaces as apperr.ErrOAuth.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	params := url.Values{}
	params.Set("client_id", c.cfg.AppID)
	params.Set("client_secret", c.cfg.AppSecret)
	params.Set("redirect_uri", c.cfg.RedirectURI)
	params.Set("code", code)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.get(ctx, "/oauth/access_token", params, &out); err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: exchange returned no token", apperr.ErrOAuth)
	}
	return out.AccessToken, nil
}

// UpgradeToken trades a short-lived token for a long-lived one (~60 days,
// but the actual expires_in from the response is what counts).
func (c *Client) UpgradeToken(ctx context.Context, shortToken string) (LongLivedToken, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", c.cfg.AppID)
	params.Set("client_secret", c.cfg.AppSecret)
	params.Set("fb_exchange_token", shortToken)

	var out LongLivedToken
	if err := c.get(ctx, "/oauth/access_token", params, &out); err != nil {
		return LongLivedToken{}, fmt.Errorf("upgrade token: %w", err)
	}
	if out.AccessToken == "" {
		return LongLivedToken{}, fmt.Errorf("%w: upgrade returned no token", apperr.ErrOAuth)
	}
	return out, nil
}

// RefreshToken exchanges the current long-lived token for a fresh one.
// Must be invoked before expiry; an already-expired token surfaces as the
// retryable apperr.ErrTokenExpired, a credential problem as apperr.ErrOAuth.
func (c *Client) RefreshToken(ctx context.Context, currentToken string) (LongLivedToken, error) {
	return c.UpgradeToken(ctx, currentToken)
}

// ListPages returns the pages the token holder manages, in upstream order,
// each with its page-scoped token and any already-linked business account.
func (c *Client) ListPages(ctx context.Context, accessToken string) ([]models.Page, error) {
	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("fields", "id,name,access_token,instagram_business_account")

	var out struct {
		Data []struct {
			ID                       string `json:"id"`
			Name                     string `json:"name"`
			AccessToken              string `json:"access_token"`
			InstagramBusinessAccount *struct {
				ID string `json:"id"`
			} `json:"instagram_business_account"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/me/accounts", params, &out); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	pages := make([]models.Page, 0, len(out.Data))
	for _, p := range out.Data {
		page := models.Page{ID: p.ID, Name: p.Name, AccessToken: p.AccessToken}
		if p.InstagramBusinessAccount != nil {
			page.BusinessAccountID = p.InstagramBusinessAccount.ID
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// ResolveBusinessAccount looks up the business account linked to a page.
// A page without a linked account returns found=false with a nil error;
// only a failed request returns an error. Callers can therefore tell
// "no account" apart from "could not find out".
func (c *Client) ResolveBusinessAccount(ctx context.Context, pageID, pageToken string) (models.BusinessAccount, bool, error) {
	params := url.Values{}
	params.Set("access_token", pageToken)
	params.Set("fields", "instagram_business_account")

	var link struct {
		InstagramBusinessAccount *struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	}
	if err := c.get(ctx, "/"+pageID, params, &link); err != nil {
		return models.BusinessAccount{}, false, fmt.Errorf("resolve business account: %w", err)
	}
	if link.InstagramBusinessAccount == nil {
		return models.BusinessAccount{}, false, nil
	}

	params = url.Values{}
	params.Set("access_token", pageToken)
	params.Set("fields", "id,username,profile_picture_url")

	var account struct {
		ID                string `json:"id"`
		Username          string `json:"username"`
		ProfilePictureURL string `json:"profile_picture_url"`
	}
	if err := c.get(ctx, "/"+link.InstagramBusinessAccount.ID, params, &account); err != nil {
		return models.BusinessAccount{}, false, fmt.Errorf("fetch business account: %w", err)
	}

	return models.BusinessAccount{
		ID:                account.ID,
		Username:          account.Username,
		ProfilePictureURL: account.ProfilePictureURL,
	}, true, nil
}
