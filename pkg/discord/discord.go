package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/FiveCrux/FiveCrux-sub000/config"
)

const (
	authorizeURL   = "https://discord.com/oauth2/authorize"
	requestTimeout = 10 * time.Second
	// discordEpoch first second of 2015, the origin of Discord snowflake timestamps
	discordEpoch = 1420070400000
)

var (
	ErrInvalidInvite  = errors.New("discord: malformed invite")
	ErrInviteNotFound = errors.New("discord: invite does not exist or has expired")
	ErrUnavailable    = errors.New("discord: api unavailable")
	ErrUnauthorized   = errors.New("discord: token rejected")
)

// User the subset of /users/@me the marketplace keeps
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
	Email      string `json:"email"`
}

// Guild partial guild from /users/@me/guilds
type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Invite resolved invite with approximate counts
type Invite struct {
	Code  string `json:"code"`
	Guild struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Icon string `json:"icon"`
	} `json:"guild"`
	ApproximateMemberCount   int        `json:"approximate_member_count"`
	ApproximatePresenceCount int        `json:"approximate_presence_count"`
	ExpiresAt                *time.Time `json:"expires_at"`
}

// Client Discord OAuth2 and REST client
type Client struct {
	oauth    *oauth2.Config
	baseURL  string
	botToken string
	http     *http.Client
}

// NewClient builds the client from config. httpClient may be nil.
func NewClient(cfg *config.DiscordConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	base := strings.TrimRight(cfg.APIBaseURL, "/")
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authorizeURL,
				TokenURL:  base + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		baseURL:  base,
		botToken: cfg.BotToken,
		http:     httpClient,
	}
}

// AuthCodeURL consent page url carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.oauth.Exchange(c.ctx(ctx), code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode < 500 {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return tok, nil
}

// CurrentUser GET /users/@me
func (c *Client) CurrentUser(ctx context.Context, tok *oauth2.Token) (*User, error) {
	var u User
	if err := c.getJSON(ctx, c.oauth.Client(c.ctx(ctx), tok), "/users/@me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CurrentUserGuilds GET /users/@me/guilds
func (c *Client) CurrentUserGuilds(ctx context.Context, tok *oauth2.Token) ([]Guild, error) {
	guilds := make([]Guild, 0)
	if err := c.getJSON(ctx, c.oauth.Client(c.ctx(ctx), tok), "/users/@me/guilds", &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}

// GetInvite GET /invites/{code}?with_counts=true. The bot token is sent when configured.
func (c *Client) GetInvite(ctx context.Context, code string) (*Invite, error) {
	var inv Invite
	err := c.getJSON(ctx, c.http, "/invites/"+url.PathEscape(code)+"?with_counts=true&with_expiration=true", &inv)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return &inv, nil
}

var errNotFound = errors.New("discord: not found")

func (c *Client) getJSON(ctx context.Context, hc *http.Client, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if hc == c.http && c.botToken != "" {
		req.Header.Set("Authorization", "Bot "+c.botToken)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s", ErrUnavailable, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) ctx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

// ── helpers ──

var (
	inviteURLPattern  = regexp.MustCompile(`^(?:https?://)?(?:www\.)?(?:discord\.gg|discord(?:app)?\.com/invite)/([A-Za-z0-9-]{2,32})/?$`)
	inviteCodePattern = regexp.MustCompile(`^[A-Za-z0-9-]{2,32}$`)
)

// ParseInviteCode extracts the code from an invite link or a bare code.
func ParseInviteCode(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if m := inviteURLPattern.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	if inviteCodePattern.MatchString(raw) {
		return raw, nil
	}
	return "", ErrInvalidInvite
}

// AccountCreatedAt decodes the creation time embedded in a Discord snowflake id.
func AccountCreatedAt(id string) (time.Time, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("discord: bad snowflake %q: %w", id, err)
	}
	ms := int64(n>>22) + discordEpoch
	return time.UnixMilli(ms).UTC(), nil
}
