package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// CallbackPort is the port for the OAuth callback server
	CallbackPort = 8089
	// AuthTimeout is how long to wait for the user to approve access
	AuthTimeout = 5 * time.Minute
)

var (
	ErrStateMismatch = errors.New("oauth state mismatch")
	ErrNoCode        = errors.New("no authorization code in callback")
)

const successPage = `<!DOCTYPE html>
<html>
<head><title>racepredictor</title></head>
<body style="font-family: system-ui; text-align: center; margin-top: 20vh;">
<h1 style="color: #7C3AED;">Strava connected</h1>
<p>Close this tab and go back to the terminal.</p>
</body>
</html>`

// callbackResult is what the browser redirect delivers
type callbackResult struct {
	code string
	err  error
}

// callbackHandler accepts a single redirect from Strava carrying state
type callbackHandler struct {
	state   string
	results chan callbackResult
}

func newCallbackHandler(state string) *callbackHandler {
	return &callbackHandler{state: state, results: make(chan callbackResult, 1)}
}

func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var res callbackResult
	switch {
	case q.Get("state") != h.state:
		res.err = ErrStateMismatch
	case q.Get("error") != "":
		// Strava sends error=access_denied when the user cancels
		res.err = fmt.Errorf("strava denied access: %s", q.Get("error"))
	case q.Get("code") == "":
		res.err = ErrNoCode
	default:
		res.code = q.Get("code")
	}

	if res.err != nil {
		http.Error(w, res.err.Error(), http.StatusBadRequest)
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, successPage)
	}

	// Only the first redirect counts
	select {
	case h.results <- res:
	default:
	}
}

// Authenticate runs the authorization-code flow through a local callback
// server. The URL to open is written to prompt.
func Authenticate(ctx context.Context, cfg *oauth2.Config, prompt io.Writer) (*AuthResult, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	handler := newCallbackHandler(state)
	mux := http.NewServeMux()
	mux.Handle("/callback", handler)

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", CallbackPort))
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer shutdownServer(server)

	if prompt == nil {
		prompt = io.Discard
	}
	fmt.Fprintf(prompt, "\nOpen this URL to let racepredictor read your Strava runs:\n\n  %s\n\nWaiting for Strava...\n",
		cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))
	slog.Debug("auth: callback server listening", "addr", listener.Addr().String())

	ctx, cancel := context.WithTimeout(ctx, AuthTimeout)
	defer cancel()

	var res callbackResult
	select {
	case res = <-handler.results:
	case err := <-serveErr:
		return nil, fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	token, err := cfg.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}

	return &AuthResult{
		Token:     token,
		AthleteID: ExtractAthleteID(token),
	}, nil
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Debug("auth: callback server shutdown", "err", err)
	}
}
