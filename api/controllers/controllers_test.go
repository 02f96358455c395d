package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/angelmondragon/addonhub-backend/api/middleware"
	"github.com/angelmondragon/addonhub-backend/internal/addons"
	"github.com/angelmondragon/addonhub-backend/internal/auth"
	"github.com/angelmondragon/addonhub-backend/internal/users"
	"github.com/angelmondragon/addonhub-backend/pkg/config"
	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/addonhub-backend/pkg/errors"
	"github.com/angelmondragon/addonhub-backend/pkg/logger"
	"github.com/angelmondragon/addonhub-backend/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubAddonService struct {
	listInput   addons.ListInput
	userPage    pagination.Params
	createInput addons.CreateInput
	updateInput addons.UpdateInput
	caller      uuid.UUID
	featured    *bool
	addon       *addons.AddonDTO
	counter     int64
	err         error
}

func (s *stubAddonService) List(_ context.Context, input addons.ListInput) (*addons.ListResult, error) {
	s.listInput = input
	return &addons.ListResult{Addons: []addons.AddonDTO{}, Pagination: pagination.NewMeta(input.Page, 0)}, s.err
}

func (s *stubAddonService) ListByUser(_ context.Context, userID uuid.UUID, page pagination.Params) (*addons.ListResult, error) {
	s.caller = userID
	s.userPage = page
	return &addons.ListResult{Addons: []addons.AddonDTO{}, Pagination: pagination.NewMeta(page, 0)}, s.err
}

func (s *stubAddonService) Get(context.Context, uuid.UUID) (*addons.AddonDTO, error) {
	return s.addon, s.err
}

func (s *stubAddonService) Create(_ context.Context, userID uuid.UUID, input addons.CreateInput) (*addons.AddonDTO, error) {
	s.caller = userID
	s.createInput = input
	return s.addon, s.err
}

func (s *stubAddonService) Update(_ context.Context, userID, _ uuid.UUID, input addons.UpdateInput) (*addons.AddonDTO, error) {
	s.caller = userID
	s.updateInput = input
	return s.addon, s.err
}

func (s *stubAddonService) Delete(_ context.Context, userID, _ uuid.UUID) error {
	s.caller = userID
	return s.err
}

func (s *stubAddonService) IncrementViews(context.Context, uuid.UUID) (int64, error) {
	return s.counter, s.err
}

func (s *stubAddonService) IncrementDownloads(context.Context, uuid.UUID) (int64, error) {
	return s.counter, s.err
}

func (s *stubAddonService) SetFeatured(_ context.Context, _ uuid.UUID, featured bool) (*addons.AddonDTO, error) {
	s.featured = &featured
	return s.addon, s.err
}

type stubUserService struct {
	input  users.UpdateProfileInput
	caller uuid.UUID
	target uuid.UUID
	user   *users.SelfUserDTO
	err    error
}

func (s *stubUserService) GetProfile(context.Context, uuid.UUID) (*users.ProfileDTO, error) {
	return &users.ProfileDTO{Addons: []addons.AddonDTO{}}, s.err
}

func (s *stubUserService) UpdateProfile(_ context.Context, callerID, targetID uuid.UUID, input users.UpdateProfileInput) (*users.SelfUserDTO, error) {
	s.caller, s.target, s.input = callerID, targetID, input
	return s.user, s.err
}

type stubAuthService struct {
	session     *auth.Session
	pair        *auth.TokenPair
	accessToken string
	loggedOut   string
	err         error
}

func (s *stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.Session, error) {
	return s.session, s.err
}

func (s *stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.Session, error) {
	return s.session, s.err
}

func (s *stubAuthService) Refresh(_ context.Context, accessToken, _ string) (*auth.TokenPair, error) {
	s.accessToken = accessToken
	return s.pair, s.err
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

func (s *stubAuthService) Me(context.Context, uuid.UUID) (*users.SelfUserDTO, error) {
	return s.session.User, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withCaller(r *http.Request, id uuid.UUID) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), middleware.Identity{
		UserID:   id,
		Username: "caller",
		Role:     enums.UserRoleUser,
		AccessID: "jti-1",
	}))
}

func serve(t *testing.T, h http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

const validAddonBody = `{"title":" Laser Rifles ","description":"pew","category":"weapons","images":["https://cdn.example.com/a.png","data:image/png;base64,AAA"],"downloadLinks":[{"name":"Main","url":"https://dl.example.com/f.mcaddon","platform":"bedrock"}]}`

func TestListAddonsParsesFilters(t *testing.T) {
	svc := &stubAddonService{}
	req := newRequest(http.MethodGet, "/api/addons?search=%20rifle%20&category=Weapons&sortBy=bogus&page=2&limit=5&featured=true", "")

	rec, body := serve(t, ListAddons(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, body, "addons")
	require.Contains(t, body, "pagination")

	require.Equal(t, "rifle", svc.listInput.Search)
	require.Equal(t, "weapons", svc.listInput.Category)
	require.Equal(t, enums.AddonSortNewest, svc.listInput.Sort)
	require.True(t, svc.listInput.FeaturedOnly)
	require.Equal(t, pagination.Params{Page: 2, Limit: 5}, svc.listInput.Page)
}

func TestListAddonsRejectsLongSearch(t *testing.T) {
	svc := &stubAddonService{}
	long := strings.Repeat("é", 101)
	rec, body := serve(t, ListAddons(svc, nil), newRequest(http.MethodGet, "/api/addons?search="+url.QueryEscape(long), ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "search must be at most 100 characters", body["error"])
	require.Empty(t, svc.listInput.Search)

	exact := strings.Repeat("é", 100)
	rec, _ = serve(t, ListAddons(svc, nil), newRequest(http.MethodGet, "/api/addons?search="+url.QueryEscape(" "+exact+" "), ""))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, exact, svc.listInput.Search)
}

func TestListAddonsRejectsBadPaging(t *testing.T) {
	for _, query := range []string{"limit=0", "limit=101", "page=0", "page=abc"} {
		rec, body := serve(t, ListAddons(&stubAddonService{}, nil), newRequest(http.MethodGet, "/api/addons?"+query, ""))
		require.Equal(t, http.StatusBadRequest, rec.Code, query)
		require.Equal(t, string(pkgerrors.CodeValidation), body["code"])
	}
}

func TestGetAddonMalformedIDIsNotFound(t *testing.T) {
	req := withURLParam(newRequest(http.MethodGet, "/api/addons/nope", ""), "id", "nope")
	rec, body := serve(t, GetAddon(&stubAddonService{}, nil), req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Addon not found", body["error"])
}

func TestGetAddonTagsLogsWithAddonID(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	id := uuid.New()
	svc := &stubAddonService{err: pkgerrors.New(pkgerrors.CodeNotFound, "Addon not found")}
	req := withURLParam(newRequest(http.MethodGet, "/api/addons/"+id.String(), ""), "id", id.String())

	rec, _ := serve(t, GetAddon(svc, logg), req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	require.Equal(t, id.String(), entry["addon_id"])
}

func TestCreateAddon(t *testing.T) {
	t.Run("requires identity", func(t *testing.T) {
		rec, _ := serve(t, CreateAddon(&stubAddonService{}, nil), newRequest(http.MethodPost, "/api/addons", validAddonBody))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("created", func(t *testing.T) {
		caller := uuid.New()
		svc := &stubAddonService{addon: &addons.AddonDTO{ID: uuid.New(), Title: "Laser Rifles"}}
		req := withCaller(newRequest(http.MethodPost, "/api/addons", validAddonBody), caller)

		rec, body := serve(t, CreateAddon(svc, nil), req)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "Addon created successfully", body["message"])
		require.Contains(t, body, "addon")
		require.Equal(t, caller, svc.caller)
		require.Equal(t, "Laser Rifles", svc.createInput.Title)
		require.Equal(t, enums.AddonCategoryWeapons, svc.createInput.Category)
		require.Len(t, svc.createInput.DownloadLinks, 1)
		require.Equal(t, "bedrock", svc.createInput.DownloadLinks[0].Platform)
	})

	cases := map[string]struct {
		body string
		want string
	}{
		"bad image":     {strings.Replace(validAddonBody, "https://cdn.example.com/a.png", "ftp://cdn.example.com/a.png", 1), "images[0] must be an http(s) URL or data:image URI"},
		"no links":      {strings.Replace(validAddonBody, `[{"name":"Main","url":"https://dl.example.com/f.mcaddon","platform":"bedrock"}]`, `[]`, 1), "downloadLinks must contain at least 1 item(s)"},
		"featured set":  {strings.Replace(validAddonBody, `"title"`, `"featured":true,"title"`, 1), "featured is not allowed"},
		"bad category":  {strings.Replace(validAddonBody, "weapons", "cars", 1), "category must be one of"},
		"missing title": {strings.Replace(validAddonBody, `"title":" Laser Rifles ",`, "", 1), "title is required"},
		"blank title":   {strings.Replace(validAddonBody, `" Laser Rifles "`, `"   "`, 1), "title is required"},
		"null images":   {strings.Replace(validAddonBody, `["https://cdn.example.com/a.png","data:image/png;base64,AAA"]`, `null`, 1), "images must not be null"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubAddonService{}
			req := withCaller(newRequest(http.MethodPost, "/api/addons", tc.body), uuid.New())
			rec, body := serve(t, CreateAddon(svc, nil), req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.True(t, strings.HasPrefix(body["error"].(string), tc.want), body["error"])
			require.Equal(t, uuid.Nil, svc.caller, "service must not run")
		})
	}
}

func TestUpdateAddonPassesOnlyPresentFields(t *testing.T) {
	svc := &stubAddonService{addon: &addons.AddonDTO{}}
	req := withCaller(newRequest(http.MethodPut, "/api/addons/x", `{"description":"","images":["https://x.io/b.png"]}`), uuid.New())
	req = withURLParam(req, "id", uuid.NewString())

	rec, body := serve(t, UpdateAddon(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Addon updated successfully", body["message"])
	require.Nil(t, svc.updateInput.Title)
	require.Nil(t, svc.updateInput.Category)
	require.Nil(t, svc.updateInput.DownloadLinks)
	require.NotNil(t, svc.updateInput.Description)
	require.Equal(t, []string{"https://x.io/b.png"}, *svc.updateInput.Images)
}

func TestUpdateAddonRejectsEmptyPresentField(t *testing.T) {
	cases := map[string]string{
		`{"images":[]}`:          "images must contain at least 1 item(s)",
		`{"downloadLinks":[]}`:   "downloadLinks must contain at least 1 item(s)",
		`{"title":""}`:           "title must not be empty",
		`{"title":"   "}`:        "title must not be empty",
		`{"version":""}`:         "version must not be empty",
		`{"version":"  "}`:       "version must not be empty",
		`{"images":null}`:        "images must not be null",
		`{"downloadLinks":null}`: "downloadLinks must not be null",
	}
	for payload, want := range cases {
		svc := &stubAddonService{}
		req := withCaller(newRequest(http.MethodPut, "/api/addons/x", payload), uuid.New())
		req = withURLParam(req, "id", uuid.NewString())
		rec, body := serve(t, UpdateAddon(svc, nil), req)
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
		require.Equal(t, want, body["error"], payload)
		require.Equal(t, uuid.Nil, svc.caller, payload)
	}
}

func TestUpdateAddonTrimsText(t *testing.T) {
	svc := &stubAddonService{addon: &addons.AddonDTO{}}
	payload := `{"title":"  Rifles  ","version":" 1.2 ","downloadLinks":[{"name":" Main ","url":" https://dl.example.com/f.zip "}]}`
	req := withURLParam(withCaller(newRequest(http.MethodPut, "/api/addons/x", payload), uuid.New()), "id", uuid.NewString())

	rec, _ := serve(t, UpdateAddon(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Rifles", *svc.updateInput.Title)
	require.Equal(t, "1.2", *svc.updateInput.Version)
	require.Equal(t, "Main", (*svc.updateInput.DownloadLinks)[0].Name)
	require.Equal(t, "https://dl.example.com/f.zip", (*svc.updateInput.DownloadLinks)[0].URL)
}

func TestUpdateAddonForbiddenPassesThrough(t *testing.T) {
	svc := &stubAddonService{err: pkgerrors.New(pkgerrors.CodeForbidden, "You can only edit your own addons")}
	req := withCaller(newRequest(http.MethodPut, "/api/addons/x", `{"title":"mine now"}`), uuid.New())
	req = withURLParam(req, "id", uuid.NewString())

	rec, body := serve(t, UpdateAddon(svc, nil), req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "You can only edit your own addons", body["error"])
	require.Equal(t, "FORBIDDEN", body["code"])
}

func TestDeleteAddon(t *testing.T) {
	caller := uuid.New()
	svc := &stubAddonService{}
	req := withURLParam(withCaller(newRequest(http.MethodDelete, "/api/addons/x", ""), caller), "id", uuid.NewString())

	rec, body := serve(t, DeleteAddon(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Addon deleted successfully", body["message"])
	require.Equal(t, caller, svc.caller)
}

func TestIncrementCounters(t *testing.T) {
	svc := &stubAddonService{counter: 42}
	id := uuid.NewString()

	rec, body := serve(t, IncrementAddonViews(svc, nil), withURLParam(newRequest(http.MethodPatch, "/", ""), "id", id))
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 42, body["views"])

	rec, body = serve(t, IncrementAddonDownloads(svc, nil), withURLParam(newRequest(http.MethodPatch, "/", ""), "id", id))
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 42, body["downloads"])

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "Addon not found")
	rec, _ = serve(t, IncrementAddonViews(svc, nil), withURLParam(newRequest(http.MethodPatch, "/", ""), "id", id))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminSetAddonFeatured(t *testing.T) {
	svc := &stubAddonService{addon: &addons.AddonDTO{Featured: true}}
	req := withURLParam(newRequest(http.MethodPatch, "/", `{"featured":false}`), "id", uuid.NewString())

	rec, _ := serve(t, AdminSetAddonFeatured(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.featured)
	require.False(t, *svc.featured)

	req = withURLParam(newRequest(http.MethodPatch, "/", `{}`), "id", uuid.NewString())
	rec, body := serve(t, AdminSetAddonFeatured(svc, nil), req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "featured is required", body["error"])
}

func TestNilServiceIsInternalError(t *testing.T) {
	rec, body := serve(t, ListAddons(nil, nil), newRequest(http.MethodGet, "/api/addons", ""))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "INTERNAL_ERROR", body["code"])
}

func TestUpdateUserProfile(t *testing.T) {
	caller := uuid.New()
	svc := &stubUserService{user: &users.SelfUserDTO{Email: "me@example.com"}}
	req := withCaller(newRequest(http.MethodPut, "/", `{"username":" newname ","avatarUrl":"  ","bio":" hi "}`), caller)
	req = withURLParam(req, "id", caller.String())

	rec, body := serve(t, UpdateUserProfile(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Profile updated successfully", body["message"])
	require.Equal(t, "newname", *svc.input.Username)
	require.Equal(t, "", *svc.input.AvatarURL)
	require.Equal(t, "hi", *svc.input.Bio)
	require.Equal(t, caller, svc.caller)
	require.Equal(t, caller, svc.target)

	for _, payload := range []string{`{"username":"ab"}`, `{"username":"   "}`, `{"username":"bad name!"}`, `{"username":null}`, `{"avatarUrl":"nope"}`, `{"bio":"` + strings.Repeat("x", 501) + `"}`} {
		req := withURLParam(withCaller(newRequest(http.MethodPut, "/", payload), caller), "id", caller.String())
		rec, _ := serve(t, UpdateUserProfile(svc, nil), req)
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
	}
}

func TestListUserAddons(t *testing.T) {
	svc := &stubAddonService{}
	target := uuid.New()
	req := withURLParam(newRequest(http.MethodGet, "/?page=3", ""), "id", target.String())

	rec, _ := serve(t, ListUserAddons(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, target, svc.caller)
	require.Equal(t, pagination.Params{Page: 3, Limit: pagination.DefaultLimit}, svc.userPage)
}

func TestGetUserProfileMalformedID(t *testing.T) {
	rec, body := serve(t, GetUserProfile(&stubUserService{}, nil), withURLParam(newRequest(http.MethodGet, "/", ""), "id", "123"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "User not found", body["error"])
}

func TestAuthRegisterFlattensSession(t *testing.T) {
	svc := &stubAuthService{session: &auth.Session{
		TokenPair: auth.TokenPair{Token: "access", RefreshToken: "refresh"},
		User:      &users.SelfUserDTO{Email: "new@example.com"},
	}}
	req := newRequest(http.MethodPost, "/api/auth/register", `{"username":"newbie","email":"new@example.com","password":"secret1"}`)

	rec, body := serve(t, AuthRegister(svc, nil), req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "User registered successfully", body["message"])
	require.Equal(t, "access", body["token"])
	require.Equal(t, "refresh", body["refreshToken"])
	require.Contains(t, body, "user")

	rec, _ = serve(t, AuthRegister(svc, nil), newRequest(http.MethodPost, "/", `{"username":"newbie","email":"new@example.com","password":"123"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRefreshNeedsBearer(t *testing.T) {
	svc := &stubAuthService{pair: &auth.TokenPair{Token: "a2", RefreshToken: "r2"}}

	rec, _ := serve(t, AuthRefresh(svc, nil), newRequest(http.MethodPost, "/", `{"refreshToken":"r1"}`))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := newRequest(http.MethodPost, "/", `{"refreshToken":"r1"}`)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec, body := serve(t, AuthRefresh(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "expired-token", svc.accessToken)
	require.Equal(t, "a2", body["token"])
}

func TestAuthLogoutUsesSessionID(t *testing.T) {
	svc := &stubAuthService{}
	rec, _ := serve(t, AuthLogout(svc, nil), withCaller(newRequest(http.MethodPost, "/", ""), uuid.New()))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "jti-1", svc.loggedOut)

	rec, _ = serve(t, AuthLogout(svc, nil), newRequest(http.MethodPost, "/", ""))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	rec, body := serve(t, HealthReady(cfg, nil, map[string]Pinger{"db": stubPinger{}}), newRequest(http.MethodGet, "/health/ready", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ready", body["status"])
	require.Equal(t, "dev", rec.Header().Get("X-AddonHub-Env"))

	deps := map[string]Pinger{"db": stubPinger{}, "redis": stubPinger{err: errors.New("connection refused")}}
	rec, body = serve(t, HealthReady(cfg, nil, deps), newRequest(http.MethodGet, "/health/ready", ""))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "DEPENDENCY_ERROR", body["code"])
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}}
	rec, body := serve(t, HealthLive(cfg), newRequest(http.MethodGet, "/health/live", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "live", body["status"])
}
