package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/FiveCrux/FiveCrux-sub000/config"
	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
	"github.com/FiveCrux/FiveCrux-sub000/internal/testutil"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/discord"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/idgen"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/jwt"
	pkgredis "github.com/FiveCrux/FiveCrux-sub000/pkg/redis"
)

// ── test helpers ──

const adminDiscordID = "80351110224678912"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	ctx       context.Context
	repo      *repository.Repository
	svc       *Service
	cfg       *config.Config
	jwt       *jwt.Manager
	clock     *testClock
	oauth     *fakeOAuth
	invites   *fakeInvites
	cache     *memCache
	blacklist *memBlacklist
	store     *memStore
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-0123456789abcdef",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
			AdminDiscordIDs: []string{adminDiscordID},
		},
		Discord: config.DiscordConfig{InviteCacheTTL: time.Minute},
		Slots:   config.SlotConfig{AdCapacity: 2, FeaturedCapacity: 1},
		Storage: config.StorageConfig{MaxBytes: 1024},
	}
	refs, err := idgen.New(1)
	require.NoError(t, err)

	f := &fixture{
		ctx:       context.Background(),
		repo:      testutil.NewTestRepo(t),
		cfg:       cfg,
		jwt:       jwt.NewManager(&cfg.Auth),
		clock:     &testClock{t: time.Now().UTC().Truncate(time.Second)},
		oauth:     &fakeOAuth{},
		invites:   &fakeInvites{invites: map[string]*discord.Invite{}},
		cache:     &memCache{data: map[string][]byte{}},
		blacklist: &memBlacklist{ids: map[string]bool{}},
		store:     &memStore{objects: map[string][]byte{}},
	}
	f.svc = NewService(Deps{
		Config:    cfg,
		Repo:      f.repo,
		JWT:       f.jwt,
		OAuth:     f.oauth,
		Invites:   f.invites,
		Cache:     f.cache,
		Blacklist: f.blacklist,
		Store:     f.store,
		Refs:      refs,
		Now:       f.clock.Now,
		Logger:    zap.NewNop(),
	})
	return f
}

var discordSeq int64 = 100000000000000000

func (f *fixture) seedUser(t *testing.T, role string) *model.User {
	t.Helper()
	discordSeq++
	u := &model.User{
		DiscordID: fmt.Sprint(discordSeq),
		Username:  fmt.Sprintf("user%d", discordSeq%10000),
		Role:      role,
		GuildIDs:  model.StringList(nil),
	}
	require.NoError(t, f.repo.User.Create(f.ctx, u))
	return u
}

func actorOf(u *model.User) Actor {
	return Actor{UserID: u.UserID, Role: u.Role, Staff: u.Role != model.RoleUser}
}

func scriptRequest(title string) *dto.CreateScriptRequest {
	return &dto.CreateScriptRequest{
		Title:       title,
		Description: "A complete garage system with persistence",
		Category:    "vehicles",
		Framework:   "qbcore",
		PriceCents:  2500,
		Tags:        []string{"Garage", "garage", " QB "},
	}
}

// approvedScript submits and approves a script owned by seller.
func (f *fixture) approvedScript(t *testing.T, seller, moderator *model.User, title string) *dto.ScriptResponse {
	t.Helper()
	created, err := f.svc.Script.Submit(f.ctx, scriptRequest(title), actorOf(seller))
	require.NoError(t, err)
	_, err = f.svc.Moderation.Approve(f.ctx, model.EntityScript, created.ID, actorOf(moderator))
	require.NoError(t, err)
	return created
}

// ── fakes ──

type fakeOAuth struct {
	user        *discord.User
	guilds      []discord.Guild
	exchangeErr error
	guildsErr   error
}

func (o *fakeOAuth) AuthCodeURL(state string) string {
	return "https://discord.test/oauth2/authorize?state=" + state
}

func (o *fakeOAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if o.exchangeErr != nil {
		return nil, o.exchangeErr
	}
	return &oauth2.Token{AccessToken: "tok-" + code}, nil
}

func (o *fakeOAuth) CurrentUser(context.Context, *oauth2.Token) (*discord.User, error) {
	return o.user, nil
}

func (o *fakeOAuth) CurrentUserGuilds(context.Context, *oauth2.Token) ([]discord.Guild, error) {
	if o.guildsErr != nil {
		return nil, o.guildsErr
	}
	return o.guilds, nil
}

type fakeInvites struct {
	mu      sync.Mutex
	invites map[string]*discord.Invite
	err     error
	calls   int
}

func (i *fakeInvites) GetInvite(_ context.Context, code string) (*discord.Invite, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	if i.err != nil {
		return nil, i.err
	}
	inv, ok := i.invites[code]
	if !ok {
		return nil, discord.ErrInviteNotFound
	}
	return inv, nil
}

func (i *fakeInvites) add(code, guildID, name string, members int) {
	inv := &discord.Invite{Code: code, ApproximateMemberCount: members}
	inv.Guild.ID = guildID
	inv.Guild.Name = name
	i.invites[code] = inv
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memCache) GetCache(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, pkgredis.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) SetCache(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

type memBlacklist struct {
	mu  sync.Mutex
	ids map[string]bool
}

func (b *memBlacklist) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids[jti] = true
	return nil
}

func (b *memBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ids[jti], nil
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
	return "https://cdn.test/" + key, nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}
