// Package client provides the OAuth2 client used by the Google Sheets writer.
package client

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// CallbackAddr is where the local OAuth callback server listens.
	CallbackAddr = "localhost:8085"
	// callbackPath is the path for the OAuth callback.
	callbackPath = "/callback"
	// serverTimeout is how long to wait for the OAuth callback.
	serverTimeout = 5 * time.Minute
)

// TokenFile is the path to the OAuth token file.
const TokenFile = "data/token.json"

// ErrNoToken is returned by New when no token has been saved yet.
var ErrNoToken = errors.New("no oauth token found (run `txextract setup`)")

// New creates an HTTP client from the client secret file and a token saved by Setup.
func New(secretFilePath, tokenFile string, scope ...string) (*http.Client, error) {
	config, err := configFromFile(secretFilePath, scope...)
	if err != nil {
		return nil, err
	}

	tok, err := TokenFromFile(tokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}

	return config.Client(context.Background(), tok), nil
}

// Setup runs the browser consent flow and saves the token to tokenFile.
func Setup(ctx context.Context, secretFilePath, tokenFile string, logger *slog.Logger, scope ...string) error {
	if logger == nil {
		logger = slog.Default()
	}

	config, err := configFromFile(secretFilePath, scope...)
	if err != nil {
		return err
	}

	flow := &Flow{
		Config: config,
		Addr:   CallbackAddr,
		Open:   openBrowser,
		Logger: logger,
	}
	tok, err := flow.Token(ctx)
	if err != nil {
		return err
	}

	logger.Info("saving credential file", "path", tokenFile)
	return SaveToken(tokenFile, tok)
}

func configFromFile(secretFilePath string, scope ...string) (*oauth2.Config, error) {
	b, err := os.ReadFile(secretFilePath)
	if err != nil {
		return nil, fmt.Errorf("reading client secret file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, scope...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret: %w", err)
	}
	return config, nil
}

// Flow is a local-callback authorization code flow.
type Flow struct {
	Config *oauth2.Config
	// Addr is the host:port the callback server listens on.
	Addr string
	// Open presents the consent URL to the user.
	Open   func(url string) error
	Logger *slog.Logger
}

// Token starts the callback server, sends the user to the consent page and
// exchanges the returned code.
func (f *Flow) Token(ctx context.Context) (*oauth2.Token, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state token: %w", err)
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", f.Addr)
	if err != nil {
		return nil, fmt.Errorf("callback address %s unavailable: %w", f.Addr, err)
	}

	config := *f.Config
	config.RedirectURL = fmt.Sprintf("http://%s%s", listener.Addr().String(), callbackPath)

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server := &http.Server{
		Handler:           callbackHandler(state, codeChan, errChan),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Debug("starting OAuth callback server", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)

	fmt.Printf("\nOpening browser for Google authentication...\n")
	fmt.Printf("If the browser doesn't open automatically, visit this URL:\n%s\n\n", authURL)

	if f.Open != nil {
		if err := f.Open(authURL); err != nil {
			logger.Warn("failed to open browser automatically", "error", err)
		}
	}

	timer := time.NewTimer(serverTimeout)
	defer timer.Stop()

	select {
	case code := <-codeChan:
		tok, err := config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("exchanging authorization code for token: %w", err)
		}
		return tok, nil
	case err := <-errChan:
		return nil, fmt.Errorf("oauth callback error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("oauth flow timed out after %v", serverTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func callbackHandler(expectedState string, codeChan chan<- string, errChan chan<- error) http.Handler {
	fail := func(w http.ResponseWriter, err error, msg string) {
		select {
		case errChan <- err:
		default:
		}
		http.Error(w, msg, http.StatusBadRequest)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("state") != expectedState {
			fail(w, errors.New("invalid state parameter"), "Invalid state parameter")
			return
		}

		if errMsg := q.Get("error"); errMsg != "" {
			fail(w, fmt.Errorf("%s: %s", errMsg, q.Get("error_description")), "Authentication failed: "+errMsg)
			return
		}

		code := q.Get("code")
		if code == "" {
			fail(w, errors.New("no authorization code received"), "No authorization code received")
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Authentication Successful</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh;">
<h1 style="color: #4CAF50;">Authentication Successful</h1>
<p>txextract can now write to Google Sheets. You can close this window.</p>
</body>
</html>`)

		select {
		case codeChan <- code:
		default:
		}
	})
	return mux
}

func openBrowser(url string) error {
	ctx := context.Background()
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "linux":
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// TokenFromFile retrieves a token from a local file.
func TokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	return nil
}
