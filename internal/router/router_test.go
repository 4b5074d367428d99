package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/regional-voices/backend/internal/handlers"
	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/repositories/memstore"
	"github.com/anonto42/regional-voices/backend/pkg/config"
	"github.com/anonto42/regional-voices/backend/pkg/logger"
	"github.com/anonto42/regional-voices/backend/pkg/media"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "w1nter-Harvest"

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("connection refused") }

type testApp struct {
	e      *echo.Echo
	store  *memstore.Store
	media  *media.LocalStore
	region *models.Region
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:           "regional-voices-test",
		Env:               "test",
		SessionSecret:     "test-secret",
		SessionCookieName: "sessionid",
		SessionTTL:        time.Hour,
		FeedPolicy:        config.FeedPolicyPersonal,
		MediaMaxBytes:     1 << 20,
	}
}

func memoryRepositories(store *memstore.Store) Repositories {
	return Repositories{
		Users:         store,
		Sessions:      store,
		Regions:       store,
		Contributions: store,
		Comments:      store,
		Likes:         store,
		Follows:       store,
		Notifications: store,
	}
}

func newTestApp(t *testing.T, health handlers.Pinger) *testApp {
	t.Helper()
	store := memstore.New()
	mediaStore, err := media.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	region, err := store.EnsureRegion(context.Background(), "Telangana")
	require.NoError(t, err)

	e := echo.New()
	e.Pre(eMiddleware.RemoveTrailingSlash())
	require.NoError(t, SetupRoutes(e, Deps{
		Config: testConfig(),
		Repos:  memoryRepositories(store),
		Health: health,
		Media:  mediaStore,
		Log:    logger.Discard(),
	}))
	return &testApp{e: e, store: store, media: mediaStore, region: region}
}

func (a *testApp) do(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// signUp registers handle through the form and logs in, returning the session cookies
func (a *testApp) signUp(t *testing.T, handle string) []*http.Cookie {
	t.Helper()
	rec := a.do(formRequest(http.MethodPost, "/register", url.Values{
		"username":  {handle},
		"email":     {handle + "@example.com"},
		"password1": {testPassword},
		"password2": {testPassword},
	}), nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	require.Equal(t, "/accounts/login", rec.Header().Get(echo.HeaderLocation))

	rec = a.do(formRequest(http.MethodPost, "/accounts/login", url.Values{
		"username": {handle},
		"password": {testPassword},
	}), nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func (a *testApp) userID(t *testing.T, handle string) uint {
	t.Helper()
	u, err := a.store.GetUserByHandle(context.Background(), handle)
	require.NoError(t, err)
	return u.ID
}

func (a *testApp) contribution(t *testing.T, authorID uint, text string) *models.Contribution {
	t.Helper()
	c := &models.Contribution{
		AuthorID: authorID,
		RegionID: a.region.ID,
		Category: models.CategoryFood,
		Text:     text,
	}
	require.NoError(t, a.store.CreateContribution(context.Background(), c))
	return c
}

func TestAnonymousRequestsRedirectToLogin(t *testing.T) {
	app := newTestApp(t, nil)

	for _, target := range []string{"/", "/explore", "/create", "/profile", "/notifications"} {
		rec := app.do(httptest.NewRequest(http.MethodGet, target, nil), nil)
		assert.Equal(t, http.StatusFound, rec.Code, target)
		assert.Equal(t, "/accounts/login?next="+url.QueryEscape(target), rec.Header().Get(echo.HeaderLocation), target)
	}
}

func TestLoginPagesRender(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/accounts/login?next=/create", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="next" value="/create"`)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/register", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password2"`)
}

func TestRegisterRerendersWithFieldErrors(t *testing.T) {
	app := newTestApp(t, nil)
	app.signUp(t, "ravi")

	rec := app.do(formRequest(http.MethodPost, "/register", url.Values{
		"username":  {"ravi"},
		"email":     {"other@example.com"},
		"password1": {testPassword},
		"password2": {testPassword},
	}), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A user with that username already exists.")
	assert.NotContains(t, rec.Body.String(), testPassword)
}

func TestLoginFailureAndNextRedirect(t *testing.T) {
	app := newTestApp(t, nil)
	app.signUp(t, "meena")

	rec := app.do(formRequest(http.MethodPost, "/accounts/login", url.Values{
		"username": {"meena"},
		"password": {"wrong-password"},
	}), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter a correct username and password.")
	assert.Empty(t, rec.Result().Cookies())

	rec = app.do(formRequest(http.MethodPost, "/accounts/login", url.Values{
		"username": {"meena"},
		"password": {testPassword},
		"next":     {"/create"},
	}), nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/create", rec.Header().Get(echo.HeaderLocation))

	rec = app.do(formRequest(http.MethodPost, "/accounts/login", url.Values{
		"username": {"meena"},
		"password": {testPassword},
		"next":     {"//evil.example.com"},
	}), nil)
	assert.Equal(t, "/profile", rec.Header().Get(echo.HeaderLocation))
}

func TestLogoutEndsSession(t *testing.T) {
	app := newTestApp(t, nil)
	cookies := app.signUp(t, "kiran")

	rec := app.do(httptest.NewRequest(http.MethodGet, "/profile", nil), cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(httptest.NewRequest(http.MethodPost, "/accounts/logout", nil), cookies)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/accounts/login", rec.Header().Get(echo.HeaderLocation))

	rec = app.do(httptest.NewRequest(http.MethodGet, "/profile", nil), cookies)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestLikeEndpoint(t *testing.T) {
	app := newTestApp(t, nil)
	cookies := app.signUp(t, "lakshmi")
	post := app.contribution(t, app.userID(t, "lakshmi"), "Bathukamma songs")
	target := fmt.Sprintf("/like/%d", post.ID)

	rec := app.do(httptest.NewRequest(http.MethodGet, target, nil), cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request"}`, rec.Body.String())

	rec = app.do(httptest.NewRequest(http.MethodPost, target, nil), cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"liked":true,"likes_count":1}`, rec.Body.String())

	rec = app.do(httptest.NewRequest(http.MethodPost, target, nil), cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"liked":false,"likes_count":0}`, rec.Body.String())

	rec = app.do(httptest.NewRequest(http.MethodPost, "/like/9999", nil), cookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(httptest.NewRequest(http.MethodPost, "/like/abc", nil), cookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedShowsFollowedAuthors(t *testing.T) {
	app := newTestApp(t, nil)
	readerCookies := app.signUp(t, "reader")
	app.signUp(t, "author")
	authorID := app.userID(t, "author")
	app.contribution(t, authorID, "Perini dance at Warangal")

	rec := app.do(httptest.NewRequest(http.MethodGet, "/", nil), readerCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Perini dance at Warangal")

	rec = app.do(httptest.NewRequest(http.MethodGet, "/explore", nil), readerCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Perini dance at Warangal")

	rec = app.do(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/follow/%d", authorID), nil), readerCookies)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	rec = app.do(httptest.NewRequest(http.MethodGet, "/", nil), readerCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Perini dance at Warangal")
}

func TestCommentNotifiesAuthorAndMarkRead(t *testing.T) {
	app := newTestApp(t, nil)
	authorCookies := app.signUp(t, "author")
	readerCookies := app.signUp(t, "reader")
	post := app.contribution(t, app.userID(t, "author"), "Sakinalu recipe")

	rec := app.do(formRequest(http.MethodPost, fmt.Sprintf("/comment/%d", post.ID), url.Values{
		"comment_text": {"Looks delicious"},
	}), readerCookies)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	rec = app.do(httptest.NewRequest(http.MethodGet, "/notifications", nil), authorCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "commented on your post")

	notifications, err := app.store.ListByRecipient(context.Background(), app.userID(t, "author"))
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	target := fmt.Sprintf("/notifications/%d/read", notifications[0].ID)

	rec = app.do(httptest.NewRequest(http.MethodPost, target, nil), readerCookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(httptest.NewRequest(http.MethodPost, target, nil), authorCookies)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	unread, err := app.store.GetUnreadCount(context.Background(), app.userID(t, "author"))
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestFollowNotificationRedirectsToList(t *testing.T) {
	app := newTestApp(t, nil)
	authorCookies := app.signUp(t, "author")
	readerCookies := app.signUp(t, "reader")

	rec := app.do(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/follow/%d", app.userID(t, "author")), nil), readerCookies)
	require.Equal(t, http.StatusFound, rec.Code)

	notifications, err := app.store.ListByRecipient(context.Background(), app.userID(t, "author"))
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	rec = app.do(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/notifications/%d/read", notifications[0].ID), nil), authorCookies)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/notifications", rec.Header().Get(echo.HeaderLocation))
}

func TestDashboardRequiresStaff(t *testing.T) {
	app := newTestApp(t, nil)
	cookies := app.signUp(t, "curator")

	rec := app.do(httptest.NewRequest(http.MethodGet, "/admin", nil), nil)
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/admin", nil), cookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	require.NoError(t, app.store.SetStaff(context.Background(), "curator", true))
	rec = app.do(httptest.NewRequest(http.MethodGet, "/admin", nil), cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Telangana")
}

func TestEditProfileCategories(t *testing.T) {
	app := newTestApp(t, nil)
	cookies := app.signUp(t, "asha")

	rec := app.do(formRequest(http.MethodPost, "/profile/edit", url.Values{
		"followed_categories": {"FOOD", "DANCE"},
	}), cookies)
	require.Equal(t, http.StatusFound, rec.Code)

	profile, err := app.store.GetProfile(context.Background(), app.userID(t, "asha"))
	require.NoError(t, err)
	assert.Equal(t, []models.Category{models.CategoryDance, models.CategoryFood}, []models.Category(profile.FollowedCategories))

	rec = app.do(formRequest(http.MethodPost, "/profile/edit", url.Values{
		"followed_categories": {"SPORTS"},
	}), cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicProfile(t *testing.T) {
	app := newTestApp(t, nil)
	app.signUp(t, "vani")
	app.contribution(t, app.userID(t, "vani"), "Charminar at dusk")

	rec := app.do(httptest.NewRequest(http.MethodGet, "/users/vani", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Charminar at dusk")

	rec = app.do(httptest.NewRequest(http.MethodGet, "/users/nobody", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMediaRoute(t *testing.T) {
	app := newTestApp(t, nil)
	ref, err := app.media.Save(context.Background(), "images", ".txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/media/"+ref, nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())

	rec = app.do(httptest.NewRequest(http.MethodGet, "/media/images/missing.png", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestApp(t, nil).e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	rec = httptest.NewRecorder()
	newTestApp(t, failingPinger{}).e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCSRFRejectsFormsWithoutToken(t *testing.T) {
	cfg := testConfig()
	store := memstore.New()
	mediaStore, err := media.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	e := echo.New()
	SetupMiddleware(e, cfg, logger.Discard())
	require.NoError(t, SetupRoutes(e, Deps{Config: cfg, Repos: memoryRepositories(store), Media: mediaStore, Log: logger.Discard()}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	var csrfCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "csrftoken" {
			csrfCookie = c
		}
	}
	require.NotNil(t, csrfCookie)
	assert.Contains(t, rec.Body.String(), csrfCookie.Value)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, formRequest(http.MethodPost, "/accounts/login", url.Values{"username": {"x"}, "password": {"y"}}))
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusForbidden}, rec.Code)

	req := formRequest(http.MethodPost, "/accounts/login", url.Values{
		"username":            {"x"},
		"password":            {"y"},
		"csrfmiddlewaretoken": {csrfCookie.Value},
	})
	req.AddCookie(csrfCookie)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	assert.Equal(t, "4096K", bodyLimit(1<<20))
	assert.Equal(t, fmt.Sprintf("%dK", 150*1024+1024), bodyLimit(0))
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := w.CreateFormFile(name, name+".bin")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestCreatePostWithImage(t *testing.T) {
	app := newTestApp(t, nil)
	cookies := app.signUp(t, "sarita")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	rec := app.do(multipartRequest(t, "/create", map[string]string{
		"state":        strconv.Itoa(int(app.region.ID)),
		"category":     "PLACES",
		"text_content": "Golconda fort at sunrise",
	}, map[string][]byte{"image_content": png}), cookies)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/profile", rec.Header().Get(echo.HeaderLocation))

	posts, err := app.store.ListByAuthor(context.Background(), app.userID(t, "sarita"))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.NotNil(t, posts[0].ImagePath)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/profile", nil), cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/media/"+*posts[0].ImagePath)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/media/"+*posts[0].ImagePath, nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
}

func TestCreatePostRerendersOnInvalidInput(t *testing.T) {
	app := newTestApp(t, nil)
	cookies := app.signUp(t, "sarita")

	rec := app.do(multipartRequest(t, "/create", map[string]string{
		"state":        strconv.Itoa(int(app.region.ID)),
		"category":     "PLACES",
		"text_content": "Mismatched upload",
	}, map[string][]byte{"video_content": []byte("plain text, not a video")}), cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mismatched upload")

	posts, err := app.store.ListByAuthor(context.Background(), app.userID(t, "sarita"))
	require.NoError(t, err)
	assert.Empty(t, posts)
}
