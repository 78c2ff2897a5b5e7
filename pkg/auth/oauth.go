package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	// ClientSecretsFile is the Google API credentials.json downloaded from the cloud console,
	// expected inside the config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the user's access and refresh token next to the credentials.
	TokenFile = "token.json"

	// LocalhostAuthPort receives the OAuth redirect during the browser flow.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// Scopes needed to publish events.
var Scopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
}

// Authenticator runs the installed-app OAuth flow and caches tokens in Dir.
type Authenticator struct {
	Dir string
	Log *slog.Logger
}

func New(dir string, log *slog.Logger) *Authenticator {
	if log == nil {
		log = slog.Default()
	}
	return &Authenticator{Dir: dir, Log: log}
}

func (a *Authenticator) TokenPath() string {
	return filepath.Join(a.Dir, TokenFile)
}

// Config creates an oauth2.Config from the client secrets file, forcing any
// localhost or out-of-band redirect onto LocalhostAuthPort.
func (a *Authenticator) Config(scopes []string) (*oauth2.Config, error) {
	secrets := filepath.Join(a.Dir, ClientSecretsFile)
	b, err := os.ReadFile(secrets)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", secrets, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	if config.RedirectURL == "urn:ietf:wg:oauth:2.0:oob" || config.RedirectURL == "" {
		config.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
		return config, nil
	}
	parsed, err := url.Parse(config.RedirectURL)
	if err != nil {
		a.Log.Warn("could not parse redirect URL, using it as is", "url", config.RedirectURL, "error", err)
		return config, nil
	}
	if parsed.Hostname() == "localhost" || parsed.Hostname() == "127.0.0.1" {
		if parsed.Port() != LocalhostAuthPort {
			parsed.Host = net.JoinHostPort(parsed.Hostname(), LocalhostAuthPort)
			config.RedirectURL = parsed.String()
			a.Log.Debug("forcing localhost redirect port", "url", config.RedirectURL)
		}
	} else {
		a.Log.Warn("redirect URL is neither localhost nor OOB", "url", config.RedirectURL)
	}
	return config, nil
}

// Client returns an HTTP client that refreshes its token on its own. With
// interactive set and no cached token, the browser flow is started.
func (a *Authenticator) Client(ctx context.Context, scopes []string, interactive bool) (*http.Client, error) {
	config, err := a.Config(scopes)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(a.TokenPath())
	if err != nil {
		if !interactive {
			return nil, fmt.Errorf("no usable token at %s, run the calendar auth command first: %w", a.TokenPath(), err)
		}
		a.Log.Info("no existing token, starting web authorization flow", "path", a.TokenPath())
		tok, err = a.tokenFromWeb(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := a.saveToken(tok); err != nil {
			return nil, err
		}
	}

	src := config.TokenSource(ctx, tok)
	current, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if current.AccessToken != tok.AccessToken || current.RefreshToken != tok.RefreshToken {
		if err := a.saveToken(current); err != nil {
			a.Log.Warn("could not save refreshed token", "error", err)
		}
	}
	return oauth2.NewClient(ctx, src), nil
}

// CalendarService builds an authenticated Calendar API service.
func (a *Authenticator) CalendarService(ctx context.Context, interactive bool) (*calendar.Service, error) {
	client, err := a.Client(ctx, Scopes, interactive)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Calendar API: %w", err)
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google Calendar service: %w", err)
	}
	return srv, nil
}

// Reset removes the cached token so the next interactive Client call asks again.
func (a *Authenticator) Reset() error {
	err := os.Remove(a.TokenPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete token file '%s': %w", a.TokenPath(), err)
	}
	return nil
}

// tokenFromWeb runs the authorization code flow, capturing the redirect on a local server.
func (a *Authenticator) tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", "localhost:"+LocalhostAuthPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				select {
				case errCh <- errors.New("authorization code not found in redirect URL"):
				default:
				}
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			select {
			case codeCh <- code:
			default:
			}
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Open the following URL in your browser to authorize todo:\n%s\n", authURL)

	select {
	case code := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exchangeCtx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, errors.New("authorization timed out, please try again")
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", path, err)
	}
	return tok, nil
}

func (a *Authenticator) saveToken(token *oauth2.Token) error {
	if err := os.MkdirAll(a.Dir, 0700); err != nil {
		return fmt.Errorf("could not create token directory %s: %w", a.Dir, err)
	}
	f, err := os.OpenFile(a.TokenPath(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", a.TokenPath(), err)
	}
	defer f.Close()
	a.Log.Info("saved authentication token", "path", a.TokenPath())
	return json.NewEncoder(f).Encode(token)
}
