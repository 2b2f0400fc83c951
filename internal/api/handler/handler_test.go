package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/jwt"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginURL      string
	state         string
	callbackCode  string
	callbackRes   *dto.TokenResponse
	callbackErr   error
	refreshToken  string
	refreshResult *dto.TokenResponse
	refreshErr    error
	logoutClaims  *jwt.Claims
	logoutRefresh string
	logoutErr     error
}

func (m *mockAuthService) LoginURL() (string, string) { return m.loginURL, m.state }
func (m *mockAuthService) DiscordCallback(_ context.Context, code string) (*dto.TokenResponse, error) {
	m.callbackCode = code
	return m.callbackRes, m.callbackErr
}
func (m *mockAuthService) Refresh(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.refreshToken = token
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, access *jwt.Claims, refresh string) error {
	m.logoutClaims = access
	m.logoutRefresh = refresh
	return m.logoutErr
}

// ── Mock ScriptService ──

type mockScriptService struct {
	submitResult *dto.ScriptResponse
	submitErr    error
	getResult    *dto.ScriptResponse
	getErr       error
	listResult   []dto.ScriptResponse
	listTotal    int64
	listErr      error
	lastActor    service.Actor
	lastID       string
}

func (m *mockScriptService) Submit(_ context.Context, _ *dto.CreateScriptRequest, actor service.Actor) (*dto.ScriptResponse, error) {
	m.lastActor = actor
	return m.submitResult, m.submitErr
}
func (m *mockScriptService) Update(_ context.Context, id string, _ *dto.UpdateScriptRequest, actor service.Actor) (*dto.ScriptResponse, error) {
	m.lastID, m.lastActor = id, actor
	return m.submitResult, m.submitErr
}
func (m *mockScriptService) Delete(_ context.Context, id string, actor service.Actor) error {
	m.lastID, m.lastActor = id, actor
	return m.submitErr
}
func (m *mockScriptService) Get(_ context.Context, id string, viewer service.Actor) (*dto.ScriptResponse, error) {
	m.lastID, m.lastActor = id, viewer
	return m.getResult, m.getErr
}
func (m *mockScriptService) List(_ context.Context, _ *dto.ScriptListRequest) ([]dto.ScriptResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockScriptService) ListMine(_ context.Context, _ *dto.StateListRequest, actor service.Actor) ([]dto.ScriptResponse, int64, error) {
	m.lastActor = actor
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockScriptService) Featured(_ context.Context) ([]dto.ScriptResponse, error) {
	return m.listResult, m.listErr
}

// ── Mock GiveawayService ──

type mockGiveawayService struct {
	entry    *dto.EntryResponse
	enterErr error
	draw     *dto.DrawResultResponse
	drawErr  error
}

func (m *mockGiveawayService) Submit(context.Context, *dto.CreateGiveawayRequest, service.Actor) (*dto.GiveawayResponse, error) {
	return &dto.GiveawayResponse{}, nil
}
func (m *mockGiveawayService) Update(context.Context, string, *dto.UpdateGiveawayRequest, service.Actor) (*dto.GiveawayResponse, error) {
	return &dto.GiveawayResponse{}, nil
}
func (m *mockGiveawayService) Delete(context.Context, string, service.Actor) error { return nil }
func (m *mockGiveawayService) Get(context.Context, string, service.Actor) (*dto.GiveawayResponse, error) {
	return &dto.GiveawayResponse{}, nil
}
func (m *mockGiveawayService) List(context.Context, *dto.GiveawayListRequest) ([]dto.GiveawayResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockGiveawayService) ListMine(context.Context, *dto.StateListRequest, service.Actor) ([]dto.GiveawayResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockGiveawayService) Enter(context.Context, string, service.Actor) (*dto.EntryResponse, error) {
	return m.entry, m.enterErr
}
func (m *mockGiveawayService) ListEntries(context.Context, string, *dto.PaginationRequest, service.Actor) ([]dto.EntryResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockGiveawayService) DrawWinners(context.Context, string, service.Actor) (*dto.DrawResultResponse, error) {
	return m.draw, m.drawErr
}
func (m *mockGiveawayService) DrawDue(context.Context) (int, error) { return 0, nil }

// ── Mock AdService ──

type mockAdService struct {
	submitted *dto.CreateAdRequest
	err       error
}

func (m *mockAdService) Submit(_ context.Context, req *dto.CreateAdRequest, _ service.Actor) (*dto.AdResponse, error) {
	m.submitted = req
	return &dto.AdResponse{Title: req.Title}, m.err
}
func (m *mockAdService) Update(context.Context, string, *dto.UpdateAdRequest, service.Actor) (*dto.AdResponse, error) {
	return &dto.AdResponse{}, m.err
}
func (m *mockAdService) Delete(context.Context, string, service.Actor) error { return m.err }
func (m *mockAdService) Get(context.Context, string, service.Actor) (*dto.AdResponse, error) {
	return &dto.AdResponse{}, m.err
}
func (m *mockAdService) List(context.Context, *dto.AdListRequest) ([]dto.AdResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockAdService) ListMine(context.Context, *dto.StateListRequest, service.Actor) ([]dto.AdResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockAdService) Displayed(context.Context) ([]dto.AdResponse, error) { return nil, m.err }
func (m *mockAdService) CheckInvite(_ context.Context, raw string) (*dto.InviteCheckResponse, error) {
	return &dto.InviteCheckResponse{Code: raw}, m.err
}

// ── Mock ModerationService ──

type mockModerationService struct {
	entity model.EntityType
	state  model.ModerationState
	reason string
	item   *dto.QueueItem
	err    error
}

func (m *mockModerationService) Queue(_ context.Context, entity model.EntityType, state model.ModerationState, _ *dto.QueueRequest) ([]dto.QueueItem, int64, error) {
	m.entity, m.state = entity, state
	return nil, 0, m.err
}
func (m *mockModerationService) Approve(_ context.Context, entity model.EntityType, _ string, _ service.Actor) (*dto.QueueItem, error) {
	m.entity = entity
	return m.item, m.err
}
func (m *mockModerationService) Reject(_ context.Context, entity model.EntityType, _, reason string, _ service.Actor) (*dto.QueueItem, error) {
	m.entity, m.reason = entity, reason
	return m.item, m.err
}
func (m *mockModerationService) Logs(context.Context, *dto.ModerationLogListRequest) ([]dto.ModerationLogResponse, int64, error) {
	return nil, 0, m.err
}

// ── Mock ExportService / CalendarService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportSlots(context.Context, *dto.SlotWindowRequest) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

type mockCalendarService struct {
	cal string
	err error
}

func (m *mockCalendarService) SlotCalendar(context.Context, *dto.SlotWindowRequest) (string, error) {
	return m.cal, m.err
}

// ── Mock UploadService ──

type mockUploadService struct {
	max  int64
	body []byte
	err  error
}

func (m *mockUploadService) MaxBytes() int64 { return m.max }
func (m *mockUploadService) UploadImage(_ context.Context, r io.Reader, size int64, _ service.Actor) (*dto.UploadResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.body, _ = io.ReadAll(r)
	return &dto.UploadResponse{Key: "uploads/k.png", Size: size}, nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set(CtxUserID, "test-user-id")
	c.Set(CtxRole, "moderator")
	c.Set(CtxStaff, true)
	c.Set(CtxClaims, &jwt.Claims{UserID: "test-user-id", Role: "moderator", TokenType: "access"})
}

func authed(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(method, path, target string, h gin.HandlerFunc, body io.Reader, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r := gin.New()
	r.Handle(method, path, h)
	r.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func expect(t *testing.T, w *httptest.ResponseRecorder, status, code int) response.Response {
	t.Helper()
	if w.Code != status {
		t.Errorf("expected status %d, got %d (%s)", status, w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp.Code != code {
		t.Errorf("expected code %d, got %d", code, resp.Code)
	}
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_DiscordLogin(t *testing.T) {
	mock := &mockAuthService{loginURL: "https://discord.com/oauth2/authorize?state=abc", state: "abc"}
	h := NewAuthHandler(mock, nil, nil)

	w := serve("GET", "/auth/discord", "/auth/discord", h.DiscordLogin, nil)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != mock.loginURL {
		t.Errorf("unexpected redirect %q", loc)
	}
	c := findCookie(w, stateCookie)
	if c == nil || c.Value != "abc" || !c.HttpOnly {
		t.Errorf("expected httpOnly state cookie, got %+v", c)
	}
}

func TestAuthHandler_DiscordCallback_StateMismatch(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, nil, nil)

	w := serve("GET", "/cb", "/cb?code=x&state=forged", h.DiscordCallback, nil,
		&http.Cookie{Name: stateCookie, Value: "expected"})
	expect(t, w, http.StatusBadRequest, CodeOAuthState)

	w = serve("GET", "/cb", "/cb?code=x&state=forged", h.DiscordCallback, nil)
	expect(t, w, http.StatusBadRequest, CodeOAuthState)

	if mock.callbackCode != "" {
		t.Error("service must not be called when the state does not match")
	}
}

func TestAuthHandler_DiscordCallback_Success(t *testing.T) {
	mock := &mockAuthService{callbackRes: &dto.TokenResponse{
		AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900,
		User: dto.UserResponse{ID: "u1", Username: "crux"},
	}}
	h := NewAuthHandler(mock, nil, nil)

	w := serve("GET", "/cb", "/cb?code=the-code&state=s1", h.DiscordCallback, nil,
		&http.Cookie{Name: stateCookie, Value: "s1"})
	resp := expect(t, w, http.StatusOK, 0)

	if mock.callbackCode != "the-code" {
		t.Errorf("expected code forwarded, got %q", mock.callbackCode)
	}
	if c := findCookie(w, refreshCookie); c == nil || c.Value != "refresh" || !c.HttpOnly {
		t.Errorf("expected refresh cookie, got %+v", c)
	}
	data, _ := json.Marshal(resp.Data)
	if strings.Contains(string(data), "refresh_token") {
		t.Errorf("refresh token must not be in the body: %s", data)
	}
}

func TestAuthHandler_DiscordCallback_Denied(t *testing.T) {
	mock := &mockAuthService{callbackErr: service.ErrOAuthDenied}
	h := NewAuthHandler(mock, nil, nil)

	w := serve("GET", "/cb", "/cb?code=ignored&state=s1&error=access_denied", h.DiscordCallback, nil,
		&http.Cookie{Name: stateCookie, Value: "s1"})
	expect(t, w, http.StatusBadRequest, CodeOAuthDenied)

	if mock.callbackCode != "" {
		t.Errorf("a denied consent must not exchange a code, got %q", mock.callbackCode)
	}
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	result := &dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 900}

	t.Run("FromCookie", func(t *testing.T) {
		mock := &mockAuthService{refreshResult: result}
		h := NewAuthHandler(mock, nil, nil)
		w := serve("POST", "/refresh", "/refresh", h.RefreshToken, nil,
			&http.Cookie{Name: refreshCookie, Value: "cookie-refresh"})
		expect(t, w, http.StatusOK, 0)
		if mock.refreshToken != "cookie-refresh" {
			t.Errorf("expected cookie token, got %q", mock.refreshToken)
		}
		if c := findCookie(w, refreshCookie); c == nil || c.Value != "new-refresh" {
			t.Errorf("expected rotated cookie, got %+v", c)
		}
	})

	t.Run("FromBody", func(t *testing.T) {
		mock := &mockAuthService{refreshResult: result}
		h := NewAuthHandler(mock, nil, nil)
		w := serve("POST", "/refresh", "/refresh", h.RefreshToken, jsonBody(dto.RefreshTokenRequest{RefreshToken: "body-refresh"}))
		expect(t, w, http.StatusOK, 0)
		if mock.refreshToken != "body-refresh" {
			t.Errorf("expected body token, got %q", mock.refreshToken)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		h := NewAuthHandler(&mockAuthService{}, nil, nil)
		w := serve("POST", "/refresh", "/refresh", h.RefreshToken, nil)
		expect(t, w, http.StatusBadRequest, CodeInvalidParams)
	})

	t.Run("Revoked", func(t *testing.T) {
		h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrTokenRevoked}, nil, nil)
		w := serve("POST", "/refresh", "/refresh", h.RefreshToken, nil,
			&http.Cookie{Name: refreshCookie, Value: "old"})
		expect(t, w, http.StatusUnauthorized, CodeTokenRevoked)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, nil, nil)

	w := serve("POST", "/logout", "/logout", authed(h.Logout), nil,
		&http.Cookie{Name: refreshCookie, Value: "r1"})
	expect(t, w, http.StatusOK, 0)

	if mock.logoutClaims == nil || mock.logoutClaims.UserID != "test-user-id" {
		t.Errorf("expected access claims forwarded, got %+v", mock.logoutClaims)
	}
	if mock.logoutRefresh != "r1" {
		t.Errorf("expected refresh token forwarded, got %q", mock.logoutRefresh)
	}
	if c := findCookie(w, refreshCookie); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected refresh cookie cleared, got %+v", c)
	}
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil, nil)
	w := serve("POST", "/logout", "/logout", h.Logout, nil)
	expect(t, w, http.StatusUnauthorized, CodeUnauthenticated)
}

// ═══════════════════════════════════════════════════════════
// ScriptHandler Tests
// ═══════════════════════════════════════════════════════════

func validScript() dto.CreateScriptRequest {
	return dto.CreateScriptRequest{
		Title:       "Advanced Garage",
		Description: "Persistent garages for every framework",
		Category:    "vehicles",
		PriceCents:  1999,
		Tags:        []string{"qb", "esx"},
	}
}

func TestScriptHandler_Submit(t *testing.T) {
	mock := &mockScriptService{submitResult: &dto.ScriptResponse{ID: "s1", Title: "Advanced Garage"}}
	h := NewScriptHandler(mock, zap.NewNop())

	w := serve("POST", "/scripts", "/scripts", authed(h.Submit), jsonBody(validScript()))
	expect(t, w, http.StatusCreated, 0)

	if mock.lastActor.UserID != "test-user-id" || !mock.lastActor.Staff {
		t.Errorf("actor not built from the context: %+v", mock.lastActor)
	}
}

func TestScriptHandler_Submit_Validation(t *testing.T) {
	h := NewScriptHandler(&mockScriptService{}, zap.NewNop())

	w := serve("POST", "/scripts", "/scripts", authed(h.Submit), bytes.NewReader([]byte("invalid json")))
	expect(t, w, http.StatusBadRequest, CodeInvalidParams)

	bad := validScript()
	bad.Title = "x"
	w = serve("POST", "/scripts", "/scripts", authed(h.Submit), jsonBody(bad))
	expect(t, w, http.StatusBadRequest, CodeInvalidParams)
}

func TestScriptHandler_Submit_Unauthenticated(t *testing.T) {
	h := NewScriptHandler(&mockScriptService{}, zap.NewNop())
	w := serve("POST", "/scripts", "/scripts", h.Submit, jsonBody(validScript()))
	expect(t, w, http.StatusUnauthorized, CodeUnauthenticated)
}

func TestScriptHandler_Submit_Banned(t *testing.T) {
	h := NewScriptHandler(&mockScriptService{submitErr: service.ErrUserBanned}, zap.NewNop())
	w := serve("POST", "/scripts", "/scripts", authed(h.Submit), jsonBody(validScript()))
	expect(t, w, http.StatusForbidden, CodeUserBanned)
}

func TestScriptHandler_Get_Anonymous(t *testing.T) {
	mock := &mockScriptService{getErr: service.ErrScriptNotFound}
	h := NewScriptHandler(mock, zap.NewNop())

	w := serve("GET", "/scripts/:id", "/scripts/advanced-garage", h.Get, nil)
	expect(t, w, http.StatusNotFound, CodeScriptMissing)

	if mock.lastID != "advanced-garage" || mock.lastActor.UserID != "" {
		t.Errorf("expected anonymous lookup by slug, got %q %+v", mock.lastID, mock.lastActor)
	}
}

func TestScriptHandler_List(t *testing.T) {
	mock := &mockScriptService{listResult: []dto.ScriptResponse{{ID: "a"}, {ID: "b"}}, listTotal: 12}
	h := NewScriptHandler(mock, zap.NewNop())

	w := serve("GET", "/scripts", "/scripts?page=2&page_size=5&sort=price_asc", h.List, nil)
	resp := expect(t, w, http.StatusOK, 0)

	data, _ := json.Marshal(resp.Data)
	var page response.PageData
	json.Unmarshal(data, &page)
	if page.Pagination.Page != 2 || page.Pagination.TotalPages != 3 {
		t.Errorf("unexpected pagination %+v", page.Pagination)
	}

	w = serve("GET", "/scripts", "/scripts?sort=random", h.List, nil)
	expect(t, w, http.StatusBadRequest, CodeInvalidParams)
}

func TestScriptHandler_Delete_NotOwner(t *testing.T) {
	h := NewScriptHandler(&mockScriptService{submitErr: service.ErrNotOwner}, zap.NewNop())
	w := serve("DELETE", "/scripts/:id", "/scripts/s1", authed(h.Delete), nil)
	expect(t, w, http.StatusForbidden, CodeNotOwner)
}

// ═══════════════════════════════════════════════════════════
// GiveawayHandler Tests
// ═══════════════════════════════════════════════════════════

func TestGiveawayHandler_Enter(t *testing.T) {
	h := NewGiveawayHandler(&mockGiveawayService{entry: &dto.EntryResponse{}}, zap.NewNop())
	w := serve("POST", "/giveaways/:id/entries", "/giveaways/g1/entries", authed(h.Enter), nil)
	expect(t, w, http.StatusCreated, 0)
}

func TestGiveawayHandler_Enter_RequirementNotMet(t *testing.T) {
	err := fmt.Errorf("%w: Discord account must be at least 30 days old", service.ErrRequirementNotMet)
	h := NewGiveawayHandler(&mockGiveawayService{enterErr: err}, zap.NewNop())

	w := serve("POST", "/giveaways/:id/entries", "/giveaways/g1/entries", authed(h.Enter), nil)
	resp := expect(t, w, http.StatusForbidden, CodeRequirementNotMet)

	if !strings.Contains(resp.Details, "30 days") {
		t.Errorf("expected requirement detail, got %q", resp.Details)
	}
}

func TestGiveawayHandler_DrawWinners_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotEnded", service.ErrGiveawayNotEnded, http.StatusConflict, CodeGiveawayNotEnded},
		{"AlreadyDrawn", service.ErrWinnersAlreadyDrawn, http.StatusConflict, CodeWinnersDrawn},
		{"NotOwner", service.ErrNotOwner, http.StatusForbidden, CodeNotOwner},
		{"NotFound", service.ErrGiveawayNotFound, http.StatusNotFound, CodeGiveawayMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewGiveawayHandler(&mockGiveawayService{drawErr: tt.err}, zap.NewNop())
			w := serve("POST", "/giveaways/:id/draw", "/giveaways/g1/draw", authed(h.DrawWinners), nil)
			expect(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

// ═══════════════════════════════════════════════════════════
// AdHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAdHandler_Submit_InviteValidation(t *testing.T) {
	tests := []struct {
		invite     string
		wantStatus int
	}{
		{"https://discord.gg/lsrp", http.StatusCreated},
		{"discord.com/invite/Abc-123", http.StatusCreated},
		{"lsrp", http.StatusCreated},
		{"https://example.com/lsrp", http.StatusBadRequest},
		{"not an invite", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.invite, func(t *testing.T) {
			mock := &mockAdService{}
			h := NewAdHandler(mock, zap.NewNop())
			w := serve("POST", "/ads", "/ads", authed(h.Submit), jsonBody(dto.CreateAdRequest{
				Title:         "Los Santos RP",
				Description:   "Serious roleplay community",
				DiscordInvite: tt.invite,
			}))
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d (%s)", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAdHandler_CheckInvite_DiscordDown(t *testing.T) {
	h := NewAdHandler(&mockAdService{err: service.ErrDiscordUnavailable}, zap.NewNop())
	w := serve("GET", "/ads/invites/:code", "/ads/invites/lsrp", h.CheckInvite, nil)
	expect(t, w, http.StatusServiceUnavailable, CodeDiscordUnavailable)
}

// ═══════════════════════════════════════════════════════════
// ModerationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestModerationHandler_Queue(t *testing.T) {
	mock := &mockModerationService{}
	h := NewModerationHandler(mock, zap.NewNop())

	w := serve("GET", "/queue/:entity", "/queue/giveaway", authed(h.Queue), nil)
	expect(t, w, http.StatusOK, 0)
	if mock.entity != model.EntityGiveaway || mock.state != model.StatePending {
		t.Errorf("expected pending giveaways, got %s %s", mock.entity, mock.state)
	}

	w = serve("GET", "/queue/:entity", "/queue/ad?state=rejected", authed(h.Queue), nil)
	expect(t, w, http.StatusOK, 0)
	if mock.state != model.StateRejected {
		t.Errorf("expected rejected state, got %s", mock.state)
	}

	w = serve("GET", "/queue/:entity", "/queue/ad?state=archived", authed(h.Queue), nil)
	expect(t, w, http.StatusBadRequest, CodeInvalidParams)

	w = serve("GET", "/queue/:entity", "/queue/users", authed(h.Queue), nil)
	expect(t, w, http.StatusBadRequest, CodeUnknownEntity)
}

func TestModerationHandler_Approve(t *testing.T) {
	mock := &mockModerationService{item: &dto.QueueItem{ID: "s1"}}
	h := NewModerationHandler(mock, zap.NewNop())

	w := serve("POST", "/:entity/:id/approve", "/script/s1/approve", authed(h.Approve), nil)
	expect(t, w, http.StatusOK, 0)

	mock.err = service.ErrNotPending
	w = serve("POST", "/:entity/:id/approve", "/script/s1/approve", authed(h.Approve), nil)
	expect(t, w, http.StatusConflict, CodeNotPending)

	mock.err = fmt.Errorf("approve: %w", service.ErrScriptNotFound)
	w = serve("POST", "/:entity/:id/approve", "/script/s1/approve", authed(h.Approve), nil)
	expect(t, w, http.StatusNotFound, CodeScriptMissing)
}

func TestModerationHandler_Reject(t *testing.T) {
	mock := &mockModerationService{item: &dto.QueueItem{ID: "a1"}}
	h := NewModerationHandler(mock, zap.NewNop())

	w := serve("POST", "/:entity/:id/reject", "/ad/a1/reject", authed(h.Reject), jsonBody(dto.RejectRequest{}))
	expect(t, w, http.StatusBadRequest, CodeInvalidParams)

	w = serve("POST", "/:entity/:id/reject", "/ad/a1/reject", authed(h.Reject), jsonBody(dto.RejectRequest{Reason: "invite expired"}))
	expect(t, w, http.StatusOK, 0)
	if mock.reason != "invite expired" || mock.entity != model.EntityAd {
		t.Errorf("unexpected reject call %s %q", mock.entity, mock.reason)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportSlots(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("excel content"), filename: "slots_20261001_20261031.xlsx"}
	h := NewExportHandler(mock, &mockCalendarService{}, zap.NewNop())

	w := serve("GET", "/export", "/export", h.ExportSlots, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "slots_20261001_20261031.xlsx") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if w.Body.String() != "excel content" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestExportHandler_ExportSlots_Empty(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoSlots}, &mockCalendarService{}, zap.NewNop())
	w := serve("GET", "/export", "/export", h.ExportSlots, nil)
	expect(t, w, http.StatusNotFound, CodeExportEmpty)
}

func TestExportHandler_SlotCalendar(t *testing.T) {
	cal := "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	h := NewExportHandler(&mockExportService{}, &mockCalendarService{cal: cal}, zap.NewNop())

	w := serve("GET", "/cal", "/cal?kind=ad", h.SlotCalendar, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != icsContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if w.Body.String() != cal {
		t.Errorf("unexpected body %q", w.Body.String())
	}

	w = serve("GET", "/cal", "/cal?kind=banner", h.SlotCalendar, nil)
	expect(t, w, http.StatusBadRequest, CodeInvalidParams)
}

// ═══════════════════════════════════════════════════════════
// UploadHandler Tests
// ═══════════════════════════════════════════════════════════

func multipartFile(t *testing.T, field string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "cover.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func serveUpload(h *UploadHandler, body io.Reader, contentType string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	r := gin.New()
	r.POST("/uploads", authed(h.UploadImage))
	r.ServeHTTP(w, req)
	return w
}

func TestUploadHandler_UploadImage(t *testing.T) {
	mock := &mockUploadService{max: 1 << 20}
	h := NewUploadHandler(mock, zap.NewNop())

	body, ct := multipartFile(t, "file", []byte("png-bytes"))
	w := serveUpload(h, body, ct)
	expect(t, w, http.StatusCreated, 0)
	if string(mock.body) != "png-bytes" {
		t.Errorf("unexpected stored body %q", mock.body)
	}

	body, ct = multipartFile(t, "image", []byte("png-bytes"))
	w = serveUpload(h, body, ct)
	expect(t, w, http.StatusBadRequest, CodeInvalidParams)
}

func TestUploadHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"Disabled", service.ErrStorageDisabled, http.StatusServiceUnavailable, CodeStorageDisabled},
		{"Unsupported", service.ErrUnsupportedUpload, http.StatusUnsupportedMediaType, CodeUnsupportedFile},
		{"TooLarge", service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, CodeFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUploadHandler(&mockUploadService{max: 1 << 20, err: tt.err}, zap.NewNop())
			body, ct := multipartFile(t, "file", []byte("data"))
			w := serveUpload(h, body, ct)
			expect(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

// ═══════════════════════════════════════════════════════════
// Error mapping
// ═══════════════════════════════════════════════════════════

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"StateConflict", service.ErrNotPending, http.StatusConflict, CodeNotPending},
		{"Capacity", service.ErrSlotCapacityReached, http.StatusConflict, CodeSlotCapacity},
		{"SlotTarget", service.ErrSlotTargetNotFound, http.StatusBadRequest, CodeSlotTarget},
		{"Wrapped", fmt.Errorf("update: %w", service.ErrUserNotFound), http.StatusNotFound, CodeUserNotFound},
		{"OAuthFailed", service.ErrOAuthFailed, http.StatusUnauthorized, CodeOAuthFailed},
		{"InternalError", errors.New("connection reset"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)

			writeError(c, zap.NewNop(), tt.err)
			resp := expect(t, w, tt.wantStatus, tt.wantCode)
			if tt.wantCode == 50000 && strings.Contains(resp.Message, "connection reset") {
				t.Error("internal errors must not leak to the client")
			}
		})
	}
}

func TestErrorTable_UniqueCodes(t *testing.T) {
	seen := map[int]error{}
	for _, e := range errorTable {
		if prev, ok := seen[e.code]; ok {
			t.Errorf("code %d used by %v and %v", e.code, prev, e.err)
		}
		seen[e.code] = e.err
	}
}
