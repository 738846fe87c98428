package routes

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/bloghub/config"
	"github.com/cppla/bloghub/controllers"
	"github.com/cppla/bloghub/middleware"
	"github.com/cppla/bloghub/models"
	"github.com/cppla/bloghub/repository"
	"github.com/cppla/bloghub/utils"
)

const testSecret = "test-secret"

// recordedPage is one template execution seen by recordingRender.
type recordedPage struct {
	Name string
	Data gin.H
}

// recordingRender replaces the HTML renderer so tests can assert on template
// names and context instead of markup.
type recordingRender struct {
	mu    sync.Mutex
	pages []recordedPage
}

func (r *recordingRender) Instance(name string, data any) render.Render {
	h, _ := data.(gin.H)
	r.mu.Lock()
	r.pages = append(r.pages, recordedPage{Name: name, Data: h})
	r.mu.Unlock()
	return render.Data{ContentType: "text/html; charset=utf-8", Data: []byte(name)}
}

func (r *recordingRender) last(t *testing.T) recordedPage {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.pages, "no template rendered")
	return r.pages[len(r.pages)-1]
}

type testApp struct {
	db     *gorm.DB
	router *gin.Engine
	pages  *utils.MemoryPageStore
	media  *utils.MediaStorage
	render *recordingRender
}

type appOption func(*config.AppConfig)

func withCSRF(cfg *config.AppConfig) { cfg.CSRFEnabled = true }

func newTestApp(t *testing.T, realTemplates bool, opts ...appOption) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db, models.All()...))

	cfg := config.AppConfig{
		JWTSecret:           testSecret,
		GinMode:             "test",
		CachePageTTLSeconds: 20,
		MediaURL:            "/media/",
		LoginURL:            "/auth/login/",
		SessionCookie:       "sessionid",
		AllowedOrigins:      []string{"*"},
		ServiceName:         "bloghub",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	config.Set(cfg)

	app := &testApp{
		db:    db,
		pages: utils.NewMemoryPageStore(),
		media: utils.NewMediaStorage(t.TempDir(), cfg.MediaURL, 1),
	}
	app.router = SetupRouter(db, app.pages, app.media)
	if !realTemplates {
		app.render = &recordingRender{}
		app.router.HTMLRender = app.render
	}
	return app
}

func (a *testApp) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username}
	require.NoError(t, a.db.Create(u).Error)
	return u
}

func (a *testApp) group(t *testing.T, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, a.db.Create(g).Error)
	return g
}

func (a *testApp) post(t *testing.T, author *models.User, text string, group *models.Group) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, a.db.Omit("Author", "Group").Create(p).Error)
	return p
}

func (a *testApp) do(t *testing.T, req *http.Request, as *models.User) *httptest.ResponseRecorder {
	t.Helper()
	if as != nil {
		token, err := utils.IssueSessionToken(testSecret, as.ID, as.Username, time.Hour)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: token})
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(t *testing.T, target string, as *models.User) *httptest.ResponseRecorder {
	return a.do(t, httptest.NewRequest(http.MethodGet, target, nil), as)
}

func (a *testApp) postForm(t *testing.T, target string, values url.Values, as *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req, as)
}

func (a *testApp) postMultipart(t *testing.T, target string, values url.Values, file []byte, as *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("image", "small.gif")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(t, req, as)
}

func (a *testApp) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.Model(model).Count(&n).Error)
	return n
}

func (a *testApp) reload(t *testing.T, id uint) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, a.db.First(&p, id).Error)
	return p
}

func pageOf(t *testing.T, page recordedPage) utils.Page[models.Post] {
	t.Helper()
	p, ok := page.Data["page_obj"].(utils.Page[models.Post])
	require.True(t, ok, "page_obj missing from %s", page.Name)
	return p
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

func TestListingsPaginateTenPerPage(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	group := app.group(t, "test-slug")
	for i := 0; i < 13; i++ {
		app.post(t, author, fmt.Sprintf("post %d", i), group)
	}

	listings := map[string]string{
		"index":   "/",
		"group":   "/group/test-slug/",
		"profile": "/profile/auth/",
	}
	for name, target := range listings {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, app.pages.Clear(context.Background()))

			w := app.get(t, target, nil)
			require.Equal(t, http.StatusOK, w.Code)
			first := pageOf(t, app.render.last(t))
			assert.Equal(t, 10, first.Len())
			assert.Equal(t, "post 12", first.Items[0].Text, "newest first")

			w = app.get(t, target+"?page=2", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, 3, pageOf(t, app.render.last(t)).Len())
		})
	}
}

func TestListingTemplatesAndContext(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	reader := app.user(t, "reader")
	group := app.group(t, "test-slug")
	post := app.post(t, author, "Test post", group)

	app.get(t, "/", nil)
	assert.Equal(t, "posts/index.html", app.render.last(t).Name)

	app.get(t, "/group/test-slug/", nil)
	page := app.render.last(t)
	assert.Equal(t, "posts/group_list.html", page.Name)
	assert.Equal(t, group.ID, page.Data["group"].(*models.Group).ID)

	app.get(t, "/profile/auth/", reader)
	page = app.render.last(t)
	assert.Equal(t, "posts/profile.html", page.Name)
	assert.Equal(t, "auth", page.Data["author"].(*models.User).Username)
	assert.EqualValues(t, 1, page.Data["posts_count"])
	assert.Equal(t, false, page.Data["following"])

	app.get(t, fmt.Sprintf("/posts/%d/", post.ID), nil)
	page = app.render.last(t)
	assert.Equal(t, "posts/post_detail.html", page.Name)
	assert.Equal(t, post.ID, page.Data["post"].(*models.Post).ID)
	assert.EqualValues(t, 1, page.Data["posts_count"])
	assert.NotContains(t, page.Data, "form", "anonymous readers get no comment form")

	app.get(t, fmt.Sprintf("/posts/%d/", post.ID), reader)
	assert.NotNil(t, app.render.last(t).Data["form"])
}

func TestUnknownEntitiesAreNotFound(t *testing.T) {
	app := newTestApp(t, false)
	reader := app.user(t, "reader")

	for _, target := range []string{"/group/nope/", "/profile/nobody/", "/posts/999/", "/posts/abc/"} {
		w := app.get(t, target, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Equal(t, "core/404.html", app.render.last(t).Name)
	}

	assert.Equal(t, http.StatusNotFound, app.get(t, "/posts/999/edit/", reader).Code)
	assert.Equal(t, http.StatusNotFound, app.postForm(t, "/posts/999/comment/", url.Values{"text": {"hi"}}, reader).Code)
	assert.Equal(t, http.StatusNotFound, app.postForm(t, "/profile/nobody/follow/", nil, reader).Code)
	assert.Equal(t, http.StatusNotFound, app.postForm(t, "/profile/nobody/unfollow/", nil, reader).Code)
}

func TestUnknownPathRendersCustomNotFound(t *testing.T) {
	app := newTestApp(t, true)

	w := app.get(t, "/unexisting_page/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "/unexisting_page/")
	assert.Contains(t, w.Body.String(), "Page not found")
}

func TestAnonymousIsRedirectedToLogin(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	post := app.post(t, author, "Test post", nil)

	cases := []struct {
		method, target string
	}{
		{http.MethodGet, "/create/"},
		{http.MethodPost, "/create/"},
		{http.MethodGet, fmt.Sprintf("/posts/%d/edit/", post.ID)},
		{http.MethodPost, fmt.Sprintf("/posts/%d/edit/", post.ID)},
		{http.MethodPost, fmt.Sprintf("/posts/%d/comment/", post.ID)},
		{http.MethodGet, "/follow/"},
		{http.MethodPost, "/profile/auth/follow/"},
		{http.MethodPost, "/profile/auth/unfollow/"},
	}
	for _, tc := range cases {
		w := app.do(t, httptest.NewRequest(tc.method, tc.target, nil), nil)
		assert.Equal(t, http.StatusFound, w.Code, tc.target)
		assert.Equal(t, "/auth/login/?next="+tc.target, w.Header().Get("Location"), tc.target)
	}
	assert.EqualValues(t, 1, app.count(t, &models.Post{}))
	assert.Zero(t, app.count(t, &models.Comment{}))
}

func TestCreatePost(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	other := app.user(t, "other")
	group := app.group(t, "test-slug")

	w := app.get(t, "/create/", author)
	require.Equal(t, http.StatusOK, w.Code)
	page := app.render.last(t)
	assert.Equal(t, "posts/create.html", page.Name)
	assert.Equal(t, false, page.Data["is_edit"])
	assert.Len(t, page.Data["form"].(*controllers.PostForm).Groups, 1)

	before := app.count(t, &models.Post{})
	w = app.postForm(t, "/create/", url.Values{
		"text":   {"  Brand new post\n"},
		"group":  {fmt.Sprint(group.ID)},
		"author": {fmt.Sprint(other.ID)},
	}, author)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))
	assert.Equal(t, before+1, app.count(t, &models.Post{}))

	var created models.Post
	require.NoError(t, app.db.Order("id DESC").First(&created).Error)
	assert.Equal(t, "Brand new post", created.Text)
	assert.Equal(t, author.ID, created.AuthorID, "author is the requester, never the submitted value")
	require.NotNil(t, created.GroupID)
	assert.Equal(t, group.ID, *created.GroupID)
	assert.WithinDuration(t, time.Now(), created.PubDate, time.Minute)
}

func TestCreatePostInvalid(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")

	cases := map[string]struct {
		values url.Values
		field  string
	}{
		"empty text":    {url.Values{"text": {""}}, "text"},
		"blank text":    {url.Values{"text": {"   "}}, "text"},
		"unknown group": {url.Values{"text": {"ok"}, "group": {"42"}}, "group"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := app.postForm(t, "/create/", tc.values, author)
			assert.Equal(t, http.StatusOK, w.Code)
			page := app.render.last(t)
			assert.Equal(t, "posts/create.html", page.Name)
			form := page.Data["form"].(*controllers.PostForm)
			assert.NotEmpty(t, form.Errors[tc.field])
			assert.Zero(t, app.count(t, &models.Post{}))
		})
	}
}

func TestCreatePostWithImage(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")

	w := app.postMultipart(t, "/create/", url.Values{"text": {"with picture"}}, pngImage(t), author)
	require.Equal(t, http.StatusFound, w.Code)

	var created models.Post
	require.NoError(t, app.db.First(&created).Error)
	assert.NotEmpty(t, created.Image)
	assert.True(t, app.media.Exists(created.Image))

	w = app.postMultipart(t, "/create/", url.Values{"text": {"not a picture"}}, []byte("plain text"), author)
	require.Equal(t, http.StatusOK, w.Code)
	form := app.render.last(t).Data["form"].(*controllers.PostForm)
	assert.NotEmpty(t, form.Errors["image"])
	assert.EqualValues(t, 1, app.count(t, &models.Post{}))
}

func TestEditPost(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	group := app.group(t, "test-slug")
	post := app.post(t, author, "Original text", nil)
	original := app.reload(t, post.ID)
	target := fmt.Sprintf("/posts/%d/edit/", post.ID)

	w := app.get(t, target, author)
	require.Equal(t, http.StatusOK, w.Code)
	page := app.render.last(t)
	assert.Equal(t, "posts/create.html", page.Name)
	assert.Equal(t, true, page.Data["is_edit"])
	assert.Equal(t, "Original text", page.Data["form"].(*controllers.PostForm).Text)

	w = app.postForm(t, target, url.Values{"text": {"Edited text"}, "group": {fmt.Sprint(group.ID)}}, author)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	edited := app.reload(t, post.ID)
	assert.Equal(t, "Edited text", edited.Text)
	require.NotNil(t, edited.GroupID)
	assert.Equal(t, group.ID, *edited.GroupID)
	assert.Equal(t, original.AuthorID, edited.AuthorID)
	assert.True(t, original.PubDate.Equal(edited.PubDate), "pub_date is kept on edit")

	w = app.postForm(t, target, url.Values{"text": {""}}, author)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Edited text", app.reload(t, post.ID).Text)
}

func TestEditPostByOtherUserIsIgnored(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	intruder := app.user(t, "intruder")
	post := app.post(t, author, "Original text", nil)
	target := fmt.Sprintf("/posts/%d/edit/", post.ID)
	detail := fmt.Sprintf("/posts/%d/", post.ID)

	w := app.get(t, target, intruder)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))

	w = app.postForm(t, target, url.Values{"text": {"Hijacked"}}, intruder)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))
	assert.Equal(t, "Original text", app.reload(t, post.ID).Text)
}

func TestEditPostImage(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	target := "/create/"
	require.Equal(t, http.StatusFound, app.postMultipart(t, target, url.Values{"text": {"pic"}}, pngImage(t), author).Code)

	var post models.Post
	require.NoError(t, app.db.First(&post).Error)
	first := post.Image
	edit := fmt.Sprintf("/posts/%d/edit/", post.ID)

	require.Equal(t, http.StatusFound, app.postMultipart(t, edit, url.Values{"text": {"still pic"}}, nil, author).Code)
	assert.Equal(t, first, app.reload(t, post.ID).Image, "no upload keeps the current image")

	require.Equal(t, http.StatusFound, app.postMultipart(t, edit, url.Values{"text": {"new pic"}}, pngImage(t), author).Code)
	second := app.reload(t, post.ID).Image
	assert.NotEqual(t, first, second)
	assert.False(t, app.media.Exists(first), "replaced image is removed")

	require.Equal(t, http.StatusFound, app.postMultipart(t, edit, url.Values{"text": {"no pic"}, "image-clear": {"on"}}, nil, author).Code)
	assert.Empty(t, app.reload(t, post.ID).Image)
	assert.False(t, app.media.Exists(second))
}

func TestAddComment(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	reader := app.user(t, "reader")
	post := app.post(t, author, "Test post", nil)
	target := fmt.Sprintf("/posts/%d/comment/", post.ID)

	w := app.postForm(t, target, url.Values{"text": {"First!"}}, reader)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	var comment models.Comment
	require.NoError(t, app.db.First(&comment).Error)
	assert.Equal(t, "First!", comment.Text)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, reader.ID, comment.AuthorID)

	require.Equal(t, http.StatusFound, app.postForm(t, target, url.Values{"text": {"Second"}}, author).Code)
	app.get(t, fmt.Sprintf("/posts/%d/", post.ID), nil)
	comments := app.render.last(t).Data["comments"].([]models.Comment)
	require.Len(t, comments, 2)
	assert.Equal(t, "First!", comments[0].Text, "oldest first")
	assert.Equal(t, "reader", comments[0].Author.Username)
}

func TestAddEmptyCommentRedisplaysPost(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	post := app.post(t, author, "Test post", nil)

	w := app.postForm(t, fmt.Sprintf("/posts/%d/comment/", post.ID), url.Values{"text": {""}}, author)
	assert.Equal(t, http.StatusOK, w.Code)
	page := app.render.last(t)
	assert.Equal(t, "posts/post_detail.html", page.Name)
	form := page.Data["form"].(*controllers.CommentForm)
	assert.NotEmpty(t, form.Errors["text"])
	assert.Zero(t, app.count(t, &models.Comment{}))
}

func TestFollowAndUnfollow(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	follower := app.user(t, "follower")

	w := app.postForm(t, "/profile/auth/follow/", nil, follower)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))
	assert.EqualValues(t, 1, app.count(t, &models.Follow{}))

	require.Equal(t, http.StatusFound, app.postForm(t, "/profile/auth/follow/", nil, follower).Code)
	assert.EqualValues(t, 1, app.count(t, &models.Follow{}), "following twice keeps one edge")

	app.get(t, "/profile/auth/", follower)
	assert.Equal(t, true, app.render.last(t).Data["following"])

	w = app.postForm(t, "/profile/auth/unfollow/", nil, follower)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))
	assert.Zero(t, app.count(t, &models.Follow{}))

	require.Equal(t, http.StatusFound, app.postForm(t, "/profile/auth/unfollow/", nil, follower).Code)

	w = app.postForm(t, "/profile/auth/follow/", nil, author)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Zero(t, app.count(t, &models.Follow{}), "self-follow is ignored")
}

func TestFollowOnlyAcceptsPost(t *testing.T) {
	app := newTestApp(t, false)
	app.user(t, "auth")
	follower := app.user(t, "follower")

	w := app.get(t, "/profile/auth/follow/", follower)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, app.count(t, &models.Follow{}))
}

func TestFollowFeed(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	follower := app.user(t, "follower")
	stranger := app.user(t, "stranger")
	app.post(t, author, "Followed post", nil)
	app.post(t, stranger, "Unrelated post", nil)

	require.Equal(t, http.StatusFound, app.postForm(t, "/profile/auth/follow/", nil, follower).Code)

	require.Equal(t, http.StatusOK, app.get(t, "/follow/", follower).Code)
	page := app.render.last(t)
	assert.Equal(t, "posts/follow.html", page.Name)
	feed := pageOf(t, page)
	require.Equal(t, 1, feed.Len())
	assert.Equal(t, "Followed post", feed.Items[0].Text)

	require.Equal(t, http.StatusOK, app.get(t, "/follow/", stranger).Code)
	assert.Zero(t, pageOf(t, app.render.last(t)).Len(), "non-followers see nothing")

	require.Equal(t, http.StatusOK, app.get(t, "/follow/", author).Code)
	assert.Zero(t, pageOf(t, app.render.last(t)).Len(), "own posts never appear")
}

func TestIndexPageCacheIsNotInvalidatedByWrites(t *testing.T) {
	app := newTestApp(t, true)
	author := app.user(t, "auth")
	post := app.post(t, author, "Cached post text", nil)

	first := app.get(t, "/", nil)
	require.Equal(t, http.StatusOK, first.Code)
	require.Contains(t, first.Body.String(), "Cached post text")

	require.NoError(t, repository.NewPostRepository(app.db).Delete(context.Background(), post.ID))

	second := app.get(t, "/", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes(), "stale page served until ttl or clear")

	require.NoError(t, app.pages.Clear(context.Background()))

	third := app.get(t, "/", nil)
	require.Equal(t, http.StatusOK, third.Code)
	assert.NotEqual(t, first.Body.Bytes(), third.Body.Bytes())
	assert.NotContains(t, third.Body.String(), "Cached post text")
}

func TestCSRFProtectsForms(t *testing.T) {
	app := newTestApp(t, true, withCSRF)
	author := app.user(t, "auth")

	w := app.postForm(t, "/create/", url.Values{"text": {"no token"}}, author)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "CSRF check failed")
	assert.Zero(t, app.count(t, &models.Post{}))

	form := app.get(t, "/create/", author)
	require.Equal(t, http.StatusOK, form.Code)
	var token string
	for _, c := range form.Result().Cookies() {
		if c.Name == middleware.CSRFCookieName {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)
	assert.Contains(t, form.Body.String(), token, "form embeds the token")

	values := url.Values{}
	values.Set("text", "with token")
	values.Set(middleware.CSRFFormField, token)
	req := httptest.NewRequest(http.MethodPost, "/create/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: token})
	w = app.do(t, req, author)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.EqualValues(t, 1, app.count(t, &models.Post{}))
}

func TestRealTemplatesRenderEveryPage(t *testing.T) {
	app := newTestApp(t, true)
	author := app.user(t, "auth")
	reader := app.user(t, "reader")
	group := app.group(t, "test-slug")
	post := app.post(t, author, "Line one\nLine two", group)
	require.Equal(t, http.StatusFound, app.postForm(t, fmt.Sprintf("/posts/%d/comment/", post.ID), url.Values{"text": {"Nice one"}}, reader).Code)

	pages := []struct {
		target string
		as     *models.User
	}{
		{"/", nil},
		{"/group/test-slug/", nil},
		{"/profile/auth/", reader},
		{fmt.Sprintf("/posts/%d/", post.ID), reader},
		{"/create/", author},
		{fmt.Sprintf("/posts/%d/edit/", post.ID), author},
		{"/follow/", reader},
	}
	for _, p := range pages {
		w := app.get(t, p.target, p.as)
		assert.Equal(t, http.StatusOK, w.Code, p.target)
		assert.Contains(t, w.Body.String(), "</html>", p.target)
	}

	detail := app.get(t, fmt.Sprintf("/posts/%d/", post.ID), reader).Body.String()
	assert.Contains(t, detail, "Line one<br>")
	assert.Contains(t, detail, "Nice one")
	assert.Contains(t, detail, "Group test-slug")
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, false)
	w := app.get(t, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"status":"ok"}}`, w.Body.String())
}

func TestHeadOnPublicPages(t *testing.T) {
	app := newTestApp(t, false)
	author := app.user(t, "auth")
	group := app.group(t, "test-slug")
	post := app.post(t, author, "headed", group)

	for _, target := range []string{
		"/",
		"/group/test-slug/",
		"/profile/auth/",
		fmt.Sprintf("/posts/%d/", post.ID),
	} {
		w := app.do(t, httptest.NewRequest(http.MethodHead, target, nil), nil)
		assert.Equal(t, http.StatusOK, w.Code, target)
	}

	w := app.do(t, httptest.NewRequest(http.MethodHead, "/group/missing/", nil), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
