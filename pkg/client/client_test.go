package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

const secretJSON = `{"installed":{
	"client_id":"id.apps.googleusercontent.com",
	"client_secret":"secret",
	"redirect_uris":["http://localhost"],
	"auth_uri":"https://accounts.google.com/o/oauth2/auth",
	"token_uri":"https://oauth2.googleapis.com/token"
}}`

func tokenServer(t *testing.T, wantCode string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.Form.Get("code"); got != wantCode {
			t.Errorf("code: got %q, want %q", got, wantCode)
			http.Error(w, "bad code", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"access","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// visit plays the browser: it follows the consent URL straight to the
// callback with the given code, keeping or replacing the state.
func visit(t *testing.T, code, state string) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		if state == "" {
			state = q.Get("state")
		}
		callback := q.Get("redirect_uri") + "?" + url.Values{"code": {code}, "state": {state}}.Encode()
		resp, err := http.Get(callback)
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	}
}

func TestFlow_Token(t *testing.T) {
	srv := tokenServer(t, "the-code")

	flow := &Flow{
		Config: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://accounts.example.com/auth",
				TokenURL:  srv.URL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		Addr: "127.0.0.1:0",
		Open: visit(t, "the-code", ""),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tok, err := flow.Token(ctx)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok.AccessToken != "access" || tok.RefreshToken != "refresh" {
		t.Errorf("got %+v", tok)
	}
}

func TestFlow_InvalidState(t *testing.T) {
	srv := tokenServer(t, "the-code")

	flow := &Flow{
		Config: &oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: srv.URL}},
		Addr:   "127.0.0.1:0",
		Open:   visit(t, "the-code", "forged"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := flow.Token(ctx)
	if err == nil || !strings.Contains(err.Error(), "invalid state") {
		t.Errorf("got %v, want invalid state error", err)
	}
}

func TestFlow_Canceled(t *testing.T) {
	flow := &Flow{
		Config: &oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth"}},
		Addr:   "127.0.0.1:0",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := flow.Token(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, "client_secret.json")
	if err := os.WriteFile(secret, []byte(secretJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	tokenFile := filepath.Join(dir, "nested", "token.json")

	if _, err := New(secret, tokenFile); !errors.Is(err, ErrNoToken) {
		t.Fatalf("got %v, want %v", err, ErrNoToken)
	}

	if err := SaveToken(tokenFile, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	info, err := os.Stat(tokenFile)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token permissions: got %o, want 600", perm)
	}

	c, err := New(secret, tokenFile)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c == nil {
		t.Fatal("got nil client")
	}

	if _, err := New(filepath.Join(dir, "missing.json"), tokenFile); err == nil {
		t.Error("expected error for missing secret file")
	}
}
