package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/ficscrape/ao3fetch/internal/config"
	"github.com/ficscrape/ao3fetch/internal/transport"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.WithDefault().
		WithTimeout(5 * time.Second).
		Build()
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}
	return cfg
}

func mustParse(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return *u
}

func TestNew_Succeeds(t *testing.T) {
	client, err := transport.New(testConfig(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected non-nil client")
	}
	if client.BaseOrigin().Host != "archiveofourown.org" {
		t.Errorf("unexpected base origin: %s", client.BaseOrigin().Host)
	}
}

func TestGet_DoesNotFollowRedirects(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Location", "/elsewhere")
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	client, cerr := transport.New(testConfig(t))
	if cerr != nil {
		t.Fatalf("unexpected error: %v", cerr)
	}

	resp, err := client.Get(context.Background(), mustParse(t, server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected raw 302 response, got %d", resp.StatusCode)
	}
	if hits != 1 {
		t.Errorf("expected exactly 1 request, got %d", hits)
	}
}

func TestGet_AppliesUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg, err := config.WithDefault().WithUserAgent("ao3fetch-test-agent").Build()
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}
	client, cerr := transport.New(cfg)
	if cerr != nil {
		t.Fatalf("unexpected error: %v", cerr)
	}

	resp, gerr := client.Get(context.Background(), mustParse(t, server.URL))
	if gerr != nil {
		t.Fatalf("unexpected error: %v", gerr)
	}
	resp.Body.Close()

	if gotAgent != "ao3fetch-test-agent" {
		t.Errorf("expected configured user agent, got %q", gotAgent)
	}
}

func TestClient_PersistsCookiesAcrossRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/set":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123"})
			w.WriteHeader(http.StatusOK)
		case "/check":
			cookie, err := r.Cookie("session")
			if err != nil || cookie.Value != "abc123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	client, cerr := transport.New(testConfig(t))
	if cerr != nil {
		t.Fatalf("unexpected error: %v", cerr)
	}

	resp, err := client.Get(context.Background(), mustParse(t, server.URL+"/set"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	resp, err = client.Get(context.Background(), mustParse(t, server.URL+"/check"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected session cookie to be replayed, got status %d", resp.StatusCode)
	}
}

func TestPostForm_SendsFormBody(t *testing.T) {
	var gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, cerr := transport.New(testConfig(t))
	if cerr != nil {
		t.Fatalf("unexpected error: %v", cerr)
	}

	resp, err := client.PostForm(context.Background(), mustParse(t, server.URL), "user=abc&commit=Log+In")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("unexpected content type: %q", gotContentType)
	}
	if gotBody != "user=abc&commit=Log+In" {
		t.Errorf("unexpected body: %q", gotBody)
	}
}
