package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feedgrid/feedgrid/internal/apperr"
	"github.com/feedgrid/feedgrid/internal/models"
	"github.com/feedgrid/feedgrid/internal/service"
)

type fakeFeedService struct {
	getFeed func(ctx context.Context, widgetID string) (*models.FeedResult, error)
}

func (f *fakeFeedService) GetFeed(ctx context.Context, widgetID string) (*models.FeedResult, error) {
	return f.getFeed(ctx, widgetID)
}

type fakeWidgetService struct {
	list        func(ctx context.Context, userID string) ([]models.Widget, error)
	create      func(ctx context.Context, userID string, params service.CreateWidgetParams) (*models.Widget, error)
	update      func(ctx context.Context, userID, widgetID string, params service.UpdateWidgetParams) (*models.Widget, error)
	delete      func(ctx context.Context, userID, widgetID string) error
	addEmbed    func(ctx context.Context, userID, widgetID, postURL string) (*models.WidgetEmbed, error)
	removeEmbed func(ctx context.Context, userID, widgetID, embedID string) error
}

func (f *fakeWidgetService) List(ctx context.Context, userID string) ([]models.Widget, error) {
	return f.list(ctx, userID)
}

func (f *fakeWidgetService) Create(ctx context.Context, userID string, params service.CreateWidgetParams) (*models.Widget, error) {
	return f.create(ctx, userID, params)
}

func (f *fakeWidgetService) Update(ctx context.Context, userID, widgetID string, params service.UpdateWidgetParams) (*models.Widget, error) {
	return f.update(ctx, userID, widgetID, params)
}

func (f *fakeWidgetService) Delete(ctx context.Context, userID, widgetID string) error {
	return f.delete(ctx, userID, widgetID)
}

func (f *fakeWidgetService) AddEmbed(ctx context.Context, userID, widgetID, postURL string) (*models.WidgetEmbed, error) {
	return f.addEmbed(ctx, userID, widgetID, postURL)
}

func (f *fakeWidgetService) RemoveEmbed(ctx context.Context, userID, widgetID, embedID string) error {
	return f.removeEmbed(ctx, userID, widgetID, embedID)
}

type fakeSocialService struct {
	initiate       func(userID string) (string, error)
	handleCallback func(ctx context.Context, state, code string) (*models.SocialConnection, error)
	refresh        func(ctx context.Context, userID, connectionID string) error
	list           func(ctx context.Context, userID string) ([]models.SocialConnection, error)
	disconnect     func(ctx context.Context, userID, connectionID string) error
}

func (f *fakeSocialService) Initiate(userID string) (string, error) {
	return f.initiate(userID)
}

func (f *fakeSocialService) HandleCallback(ctx context.Context, state, code string) (*models.SocialConnection, error) {
	return f.handleCallback(ctx, state, code)
}

func (f *fakeSocialService) Refresh(ctx context.Context, userID, connectionID string) error {
	return f.refresh(ctx, userID, connectionID)
}

func (f *fakeSocialService) List(ctx context.Context, userID string) ([]models.SocialConnection, error) {
	return f.list(ctx, userID)
}

func (f *fakeSocialService) Disconnect(ctx context.Context, userID, connectionID string) error {
	return f.disconnect(ctx, userID, connectionID)
}

type fakeVerifier struct {
	verify func(ctx context.Context, token string) (string, error)
}

func (f *fakeVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	return f.verify(ctx, token)
}

func okVerifier() *fakeVerifier {
	return &fakeVerifier{verify: func(ctx context.Context, token string) (string, error) {
		if token == "good-token" {
			return "u1", nil
		}
		return "", fmt.Errorf("%w: token", apperr.ErrNotFound)
	}}
}

func newTestRouter(feed FeedService, widgets WidgetService, social ConnectionService) http.Handler {
	if feed == nil {
		feed = &fakeFeedService{}
	}
	if widgets == nil {
		widgets = &fakeWidgetService{}
	}
	if social == nil {
		social = &fakeSocialService{}
	}
	return NewRouter(
		&FeedHandler{FeedService: feed},
		&WidgetHandler{WidgetService: widgets},
		&SocialHandler{ConnectionService: social},
		okVerifier(),
		zap.NewNop(),
	)
}

func TestFeedEndpoint(t *testing.T) {
	feed := &fakeFeedService{getFeed: func(ctx context.Context, widgetID string) (*models.FeedResult, error) {
		assert.Equal(t, "w1", widgetID)
		return &models.FeedResult{
			Widget: models.WidgetSummary{ID: "w1", Name: "My Feed", Layout: "grid", Theme: "light"},
			Posts:  []models.Post{{ID: "m1", Type: models.PostTypeImage, URL: "https://cdn/1.jpg"}},
			Cached: true,
		}, nil
	}}
	router := newTestRouter(feed, nil, nil)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/widgets/w1/feed", nil))

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))

	var body struct {
		Success bool                 `json:"success"`
		Widget  models.WidgetSummary `json:"widget"`
		Posts   []models.Post        `json:"posts"`
		Cached  bool                 `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.Cached)
	assert.Equal(t, "My Feed", body.Widget.Name)
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "m1", body.Posts[0].ID)
}

func TestFeedEndpoint_NotFound(t *testing.T) {
	feed := &fakeFeedService{getFeed: func(ctx context.Context, widgetID string) (*models.FeedResult, error) {
		// Inactive and nonexistent widgets surface identically.
		return nil, fmt.Errorf("%w: widget %s", apperr.ErrNotFound, widgetID)
	}}
	router := newTestRouter(feed, nil, nil)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/widgets/missing/feed", nil))

	require.Equal(t, http.StatusNotFound, res.Code)
	assert.JSONEq(t, `{"error":"not found"}`, res.Body.String())
}

func TestFeedEndpoint_UpstreamFailure(t *testing.T) {
	feed := &fakeFeedService{getFeed: func(ctx context.Context, widgetID string) (*models.FeedResult, error) {
		return nil, fmt.Errorf("%w: status 500: internal detail", apperr.ErrUpstream)
	}}
	router := newTestRouter(feed, nil, nil)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/widgets/w1/feed", nil))

	require.Equal(t, http.StatusBadGateway, res.Code)
	// The upstream error detail stays server-side.
	assert.NotContains(t, res.Body.String(), "internal detail")
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"unknown token", "Bearer bad-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/widgets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			res := httptest.NewRecorder()
			router.ServeHTTP(res, req)
			assert.Equal(t, http.StatusUnauthorized, res.Code)
		})
	}
}

func TestWidgetCreateEndpoint(t *testing.T) {
	widgets := &fakeWidgetService{create: func(ctx context.Context, userID string, params service.CreateWidgetParams) (*models.Widget, error) {
		assert.Equal(t, "u1", userID)
		assert.Equal(t, "My Feed", params.Name)
		return &models.Widget{ID: "w1", UserID: userID, Name: params.Name, Type: params.Type}, nil
	}}
	router := newTestRouter(nil, widgets, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/widgets",
		strings.NewReader(`{"name":"My Feed","widget_type":"instagram_personal"}`))
	req.Header.Set("Authorization", "Bearer good-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)

	var body struct {
		Widget models.Widget `json:"widget"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "w1", body.Widget.ID)
}

func TestWidgetCreateEndpoint_Invalid(t *testing.T) {
	widgets := &fakeWidgetService{create: func(ctx context.Context, userID string, params service.CreateWidgetParams) (*models.Widget, error) {
		return nil, fmt.Errorf("%w: name and widget type are required", apperr.ErrInvalid)
	}}
	router := newTestRouter(nil, widgets, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/widgets", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer good-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestAddEmbedEndpoint_Duplicate(t *testing.T) {
	widgets := &fakeWidgetService{addEmbed: func(ctx context.Context, userID, widgetID, postURL string) (*models.WidgetEmbed, error) {
		return nil, fmt.Errorf("%w: post already added", apperr.ErrDuplicate)
	}}
	router := newTestRouter(nil, widgets, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/widgets/w1/embeds",
		strings.NewReader(`{"post_url":"https://www.instagram.com/p/ABC/"}`))
	req.Header.Set("Authorization", "Bearer good-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestAddEmbedEndpoint_MissingURL(t *testing.T) {
	router := newTestRouter(nil, &fakeWidgetService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/widgets/w1/embeds", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer good-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestSocialConnectEndpoint(t *testing.T) {
	social := &fakeSocialService{initiate: func(userID string) (string, error) {
		assert.Equal(t, "u1", userID)
		return "https://www.facebook.com/v18.0/dialog/oauth?state=s1", nil
	}}
	router := newTestRouter(nil, nil, social)

	req := httptest.NewRequest(http.MethodGet, "/api/social/connect", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "https://www.facebook.com/v18.0/dialog/oauth?state=s1", res.Header().Get("Location"))
}

func TestSocialCallbackRedirects(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		callbackErr  error
		wantLocation string
	}{
		{
			name:         "provider denied",
			target:       "/api/social/callback?error=access_denied",
			wantLocation: "/dashboard/social?error=access_denied",
		},
		{
			name:         "missing code",
			target:       "/api/social/callback?state=s1",
			wantLocation: "/dashboard/social?error=no_code",
		},
		{
			name:         "exchange failed",
			target:       "/api/social/callback?state=s1&code=c1",
			callbackErr:  fmt.Errorf("%w: unknown or expired oauth state", apperr.ErrOAuth),
			wantLocation: "/dashboard/social?error=connect_failed",
		},
		{
			name:         "connected",
			target:       "/api/social/callback?state=s1&code=c1",
			wantLocation: "/dashboard/social?success=connected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			social := &fakeSocialService{handleCallback: func(ctx context.Context, state, code string) (*models.SocialConnection, error) {
				if tt.callbackErr != nil {
					return nil, tt.callbackErr
				}
				return &models.SocialConnection{ID: "c1"}, nil
			}}
			router := newTestRouter(nil, nil, social)

			res := httptest.NewRecorder()
			router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, tt.target, nil))

			require.Equal(t, http.StatusFound, res.Code)
			assert.Equal(t, tt.wantLocation, res.Header().Get("Location"))
		})
	}
}

func TestConnectionsEndpoint_StripsAndDefaults(t *testing.T) {
	social := &fakeSocialService{list: func(ctx context.Context, userID string) ([]models.SocialConnection, error) {
		return nil, nil
	}}
	router := newTestRouter(nil, nil, social)

	req := httptest.NewRequest(http.MethodGet, "/api/social/connections", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"connections":[]}`, res.Body.String())
}

func TestDisconnectEndpoint(t *testing.T) {
	var gotUser, gotConnection string
	social := &fakeSocialService{disconnect: func(ctx context.Context, userID, connectionID string) error {
		gotUser, gotConnection = userID, connectionID
		return nil
	}}
	router := newTestRouter(nil, nil, social)

	req := httptest.NewRequest(http.MethodDelete, "/api/social/connections/c1", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, "c1", gotConnection)
}
