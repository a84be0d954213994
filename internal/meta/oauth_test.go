package meta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newGraphClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client, srv
}

func TestAuthorizationURL(t *testing.T) {
	client, err := NewClient(testConfig("http://graph.test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := client.AuthorizationURL("state-123")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	q := parsed.Query()
	if q.Get("client_id") != "app-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "state-123" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
	if !strings.Contains(q.Get("scope"), "instagram_basic") {
		t.Errorf("scope = %q; missing instagram_basic", q.Get("scope"))
	}
}

func TestExchangeCode(t *testing.T) {
	client, _ := newGraphClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("code"); got != "auth-code" {
			t.Errorf("code = %q", got)
		}
		_, _ = w.Write([]byte(`{"access_token":"short-token"}`))
	})

	token, err := client.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "short-token" {
		t.Errorf("token = %q; want short-token", token)
	}
}

func TestUpgradeToken_ReadsActualExpiry(t *testing.T) {
	client, _ := newGraphClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("grant_type"); got != "fb_exchange_token" {
			t.Errorf("grant_type = %q", got)
		}
		_, _ = w.Write([]byte(`{"access_token":"long-token","expires_in":5184000}`))
	})

	token, err := client.UpgradeToken(context.Background(), "short-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.AccessToken != "long-token" {
		t.Errorf("access token = %q", token.AccessToken)
	}
	// The client must not assume a fixed duration.
	if token.ExpiresIn != 5184000 {
		t.Errorf("expires_in = %d; want 5184000", token.ExpiresIn)
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	want := now.Add(5184000 * time.Second)
	if got := token.ExpiresAt(now); !got.Equal(want) {
		t.Errorf("expires at = %v; want %v", got, want)
	}
}

func TestListPages(t *testing.T) {
	client, _ := newGraphClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/accounts" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[
			{"id":"p1","name":"First","access_token":"pt1"},
			{"id":"p2","name":"Second","access_token":"pt2","instagram_business_account":{"id":"ig2"}}
		]}`))
	})

	pages, err := client.ListPages(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].BusinessAccountID != "" {
		t.Errorf("page 0 should have no business account, got %q", pages[0].BusinessAccountID)
	}
	if pages[1].BusinessAccountID != "ig2" {
		t.Errorf("page 1 business account = %q; want ig2", pages[1].BusinessAccountID)
	}
}

func TestResolveBusinessAccount_Found(t *testing.T) {
	client, _ := newGraphClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page-1":
			_, _ = w.Write([]byte(`{"instagram_business_account":{"id":"ig-1"}}`))
		case "/ig-1":
			_, _ = w.Write([]byte(`{"id":"ig-1","username":"brand","profile_picture_url":"https://cdn/pic.jpg"}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	})

	account, found, err := client.ResolveBusinessAccount(context.Background(), "page-1", "page-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected account to be found")
	}
	if account.ID != "ig-1" || account.Username != "brand" {
		t.Errorf("unexpected account: %+v", account)
	}
}

func TestResolveBusinessAccount_Absent(t *testing.T) {
	// A page without a linked account is not an error.
	client, _ := newGraphClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, found, err := client.ResolveBusinessAccount(context.Background(), "page-1", "page-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected account to be absent")
	}
}

func TestResolveBusinessAccount_RequestError(t *testing.T) {
	// A failed request is distinguishable from an absent account.
	client, _ := newGraphClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, found, err := client.ResolveBusinessAccount(context.Background(), "page-1", "page-token")
	if err == nil {
		t.Fatal("expected an error")
	}
	if found {
		t.Fatal("found must be false on error")
	}
}

func TestFetchOEmbed(t *testing.T) {
	client, _ := newGraphClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("access_token"); got != "app-id|app-secret" {
			t.Errorf("access_token = %q; want app credentials", got)
		}
		if got := q.Get("omitscript"); got != "true" {
			t.Errorf("omitscript = %q", got)
		}
		_, _ = w.Write([]byte(`{"html":"<blockquote><p>hi</p></blockquote>","thumbnail_url":"https://cdn/t.jpg","author_name":"someone"}`))
	})

	oembed, err := client.FetchOEmbed(context.Background(), "https://www.instagram.com/p/Cabc/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oembed.AuthorName != "someone" {
		t.Errorf("author = %q", oembed.AuthorName)
	}
	if oembed.Type != "rich" {
		t.Errorf("type = %q; want rich default", oembed.Type)
	}
}
