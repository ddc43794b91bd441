package tipstrr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Vodeneev/tipstrr-export/internal/pkg/config"
)

func testTipstrrConfig(serverURL string) *config.TipstrrConfig {
	return &config.TipstrrConfig{
		BaseURL:   serverURL,
		LoginURL:  serverURL + "/login",
		Tipster:   "freguli",
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
		PageDelay: time.Millisecond,
		TipDelay:  time.Millisecond,
	}
}

// listingHandler serves /api/portfolio/freguli/tips/completed backed by total
// generated stubs, and counts listing requests.
func listingHandler(t *testing.T, total int, requests *int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		*requests++
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		var batch []TipStub
		for i := skip; i < total && i < skip+pageSize; i++ {
			batch = append(batch, TipStub{Reference: fmt.Sprintf("tip-%d", i)})
		}
		if batch == nil {
			batch = []TipStub{}
		}
		json.NewEncoder(w).Encode(batch)
	}
}

func TestFetchTipsAll(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/api/portfolio/freguli/tips/completed", listingHandler(t, 25, &requests))

	client := NewClient(testTipstrrConfig(server.URL))
	tips, err := client.FetchTips(context.Background(), 0)
	if err != nil {
		t.Fatalf("FetchTips: %v", err)
	}
	if len(tips) != 25 {
		t.Errorf("got %d tips, want 25", len(tips))
	}
	// 25 items: pages of 10, 10, 5; the short page ends pagination.
	if requests != 3 {
		t.Errorf("issued %d listing requests, want 3", requests)
	}
	if tips[0].Reference != "tip-0" || tips[24].Reference != "tip-24" {
		t.Errorf("listing order not preserved: first %q last %q", tips[0].Reference, tips[24].Reference)
	}
}

func TestFetchTipsTarget(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/api/portfolio/freguli/tips/completed", listingHandler(t, 25, &requests))

	client := NewClient(testTipstrrConfig(server.URL))
	tips, err := client.FetchTips(context.Background(), 15)
	if err != nil {
		t.Fatalf("FetchTips: %v", err)
	}
	if len(tips) != 15 {
		t.Errorf("got %d tips, want exactly 15", len(tips))
	}
	// The second page overshoots the target; a third must never be requested.
	if requests != 2 {
		t.Errorf("issued %d listing requests, want 2", requests)
	}
}

func TestFetchTipsTargetOnPageBoundary(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/api/portfolio/freguli/tips/completed", listingHandler(t, 25, &requests))

	client := NewClient(testTipstrrConfig(server.URL))
	tips, err := client.FetchTips(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchTips: %v", err)
	}
	if len(tips) != 10 {
		t.Errorf("got %d tips, want 10", len(tips))
	}
	if requests != 1 {
		t.Errorf("issued %d listing requests, want 1", requests)
	}
}

func TestFetchTipsShortPageEndsPagination(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/api/portfolio/freguli/tips/completed", listingHandler(t, 7, &requests))

	client := NewClient(testTipstrrConfig(server.URL))
	tips, err := client.FetchTips(context.Background(), 20)
	if err != nil {
		t.Fatalf("FetchTips: %v", err)
	}
	if len(tips) != 7 {
		t.Errorf("got %d tips, want 7 (source exhausted)", len(tips))
	}
	if requests != 1 {
		t.Errorf("issued %d listing requests, want 1", requests)
	}
}

func TestFetchTipsFirstPageFailureAborts(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/api/portfolio/freguli/tips/completed", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := NewClient(testTipstrrConfig(server.URL))
	if _, err := client.FetchTips(context.Background(), 0); err == nil {
		t.Fatal("expected an error when the first listing page fails")
	}
}

func TestFetchTipsLaterPageFailureKeepsCollected(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/api/portfolio/freguli/tips/completed", func(w http.ResponseWriter, r *http.Request) {
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		if skip > 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var batch []TipStub
		for i := 0; i < pageSize; i++ {
			batch = append(batch, TipStub{Reference: fmt.Sprintf("tip-%d", i)})
		}
		json.NewEncoder(w).Encode(batch)
	})

	client := NewClient(testTipstrrConfig(server.URL))
	tips, err := client.FetchTips(context.Background(), 0)
	if err != nil {
		t.Fatalf("FetchTips: %v", err)
	}
	if len(tips) != 10 {
		t.Errorf("got %d tips, want the 10 collected before the failure", len(tips))
	}
}

func TestFetchTipsNonArrayBodyStops(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/api/portfolio/freguli/tips/completed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"unexpected shape"}`))
	})

	client := NewClient(testTipstrrConfig(server.URL))
	tips, err := client.FetchTips(context.Background(), 0)
	if err != nil {
		t.Fatalf("FetchTips: %v", err)
	}
	if len(tips) != 0 {
		t.Errorf("got %d tips, want 0", len(tips))
	}
}

func TestLoginSuccess(t *testing.T) {
	var gotContentType, gotOrigin string
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotOrigin = r.Header.Get("Origin")
		r.ParseForm()
		if r.PostFormValue("username") != "user@example.com" || r.PostFormValue("password") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
	})

	client := NewClient(testTipstrrConfig(server.URL))
	if err := client.Login(context.Background(), "user@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotOrigin != server.URL {
		t.Errorf("Origin = %q, want %q", gotOrigin, server.URL)
	}
}

func TestLoginHardFailure(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	client := NewClient(testTipstrrConfig(server.URL))
	err := client.Login(context.Background(), "user@example.com", "wrong")
	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("Login error = %v, want ErrLoginFailed", err)
	}
}

func TestLoginRedirectTreatedAsSuccess(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			http.Redirect(w, r, "/account", http.StatusFound)
			return
		}
	})
	mux.HandleFunc("/account", func(w http.ResponseWriter, r *http.Request) {
		// The redirect target answers non-200; the session is still assumed live.
		w.WriteHeader(http.StatusUnauthorized)
	})

	client := NewClient(testTipstrrConfig(server.URL))
	if err := client.Login(context.Background(), "user@example.com", "secret"); err != nil {
		t.Fatalf("Login after redirect should succeed, got: %v", err)
	}
}

func TestGetTipMalformedBody(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/api/portfolio/freguli/tips/cached/tip-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["not", "an", "object"]`))
	})

	client := NewClient(testTipstrrConfig(server.URL))
	if _, err := client.GetTip(context.Background(), "tip-1"); err == nil {
		t.Fatal("expected an error for a non-object tip body")
	}
}
