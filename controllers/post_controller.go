package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/bloghub/middleware"
	"github.com/cppla/bloghub/models"
	"github.com/cppla/bloghub/repository"
	"github.com/cppla/bloghub/utils"
)

// PostController serves the post listings, the post page, post create/edit and comments.
type PostController struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
	media    *utils.MediaStorage
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, media *utils.MediaStorage) *PostController {
	return &PostController{
		posts:    repository.NewPostRepository(db),
		groups:   repository.NewGroupRepository(db),
		users:    repository.NewUserRepository(db),
		comments: repository.NewCommentRepository(db),
		follows:  repository.NewFollowRepository(db),
		media:    media,
	}
}

// Index lists every post, newest first.
func (p *PostController) Index(ctx *gin.Context) {
	page, err := p.posts.List(ctx.Request.Context(), utils.ParsePage(ctx.Query("page")))
	if err != nil {
		serverError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "posts/index.html", gin.H{"page_obj": page})
}

// GroupPosts lists the posts of one group.
func (p *PostController) GroupPosts(ctx *gin.Context) {
	rctx := ctx.Request.Context()
	group, err := p.groups.GetBySlug(rctx, ctx.Param("slug"))
	if err != nil {
		lookupFailed(ctx, err)
		return
	}
	page, err := p.posts.ListByGroup(rctx, group.ID, utils.ParsePage(ctx.Query("page")))
	if err != nil {
		serverError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "posts/group_list.html", gin.H{
		"title":    group.Title,
		"group":    group,
		"page_obj": page,
	})
}

// Profile lists an author's posts and whether the viewer follows them.
func (p *PostController) Profile(ctx *gin.Context) {
	rctx := ctx.Request.Context()
	author, err := p.users.GetByUsername(rctx, ctx.Param("username"))
	if err != nil {
		lookupFailed(ctx, err)
		return
	}
	page, err := p.posts.ListByAuthor(rctx, author.ID, utils.ParsePage(ctx.Query("page")))
	if err != nil {
		serverError(ctx, err)
		return
	}

	following := false
	if viewer, ok := middleware.CurrentUser(ctx); ok {
		following, err = p.follows.Exists(rctx, viewer.ID, author.ID)
		if err != nil {
			serverError(ctx, err)
			return
		}
	}

	render(ctx, http.StatusOK, "posts/profile.html", gin.H{
		"title":       author.DisplayName(),
		"author":      author,
		"page_obj":    page,
		"posts_count": page.Total,
		"following":   following,
	})
}

// PostDetail shows one post with its comments, oldest first.
func (p *PostController) PostDetail(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	var form *CommentForm
	if _, authed := middleware.CurrentUser(ctx); authed {
		form = &CommentForm{Errors: FormErrors{}}
	}
	p.renderDetail(ctx, post, form)
}

// PostCreate shows the empty post form and publishes valid submissions as the current user.
func (p *PostController) PostCreate(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	rctx := ctx.Request.Context()

	groups, err := p.groups.List(rctx)
	if err != nil {
		serverError(ctx, err)
		return
	}

	if ctx.Request.Method != http.MethodPost {
		renderPostForm(ctx, newPostForm(nil, groups), nil)
		return
	}

	form := bindPostForm(ctx)
	form.Groups = groups
	groupID, image, ok := p.cleanPostForm(ctx, form)
	if !ok {
		renderPostForm(ctx, form, nil)
		return
	}

	post := &models.Post{
		Text:     form.Text,
		AuthorID: user.ID,
		GroupID:  groupID,
		Image:    image,
	}
	if err := p.posts.Create(rctx, post); err != nil {
		p.media.Remove(image)
		serverError(ctx, err)
		return
	}
	utils.Sugar.Infow("post created", "post_id", post.ID, "author_id", user.ID)
	ctx.Redirect(http.StatusFound, profileURL(user.Username))
}

// PostEdit lets the author change text, group and image. Anyone else is sent
// back to the post page with nothing applied.
func (p *PostController) PostEdit(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	rctx := ctx.Request.Context()

	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !middleware.CanEditPost(user, post) {
		ctx.Redirect(http.StatusFound, postURL(post.ID))
		return
	}

	groups, err := p.groups.List(rctx)
	if err != nil {
		serverError(ctx, err)
		return
	}

	if ctx.Request.Method != http.MethodPost {
		renderPostForm(ctx, newPostForm(post, groups), post)
		return
	}

	form := bindPostForm(ctx)
	form.Groups = groups
	form.Image = post.Image
	groupID, image, ok := p.cleanPostForm(ctx, form)
	if !ok {
		renderPostForm(ctx, form, post)
		return
	}

	previous := post.Image
	switch {
	case image != "":
		post.Image = image
	case ctx.PostForm("image-clear") == "on":
		post.Image = ""
	}
	post.Text = form.Text
	post.GroupID = groupID

	if err := p.posts.Update(rctx, post); err != nil {
		p.media.Remove(image)
		serverError(ctx, err)
		return
	}
	if previous != "" && previous != post.Image {
		p.media.Remove(previous)
	}
	ctx.Redirect(http.StatusFound, postURL(post.ID))
}

// AddComment attaches a comment by the current user to a post. An empty
// comment re-renders the post page with the error and stores nothing.
func (p *PostController) AddComment(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)

	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	form := bindCommentForm(ctx)
	if !form.Errors.Valid() {
		p.renderDetail(ctx, post, form)
		return
	}

	comment := &models.Comment{PostID: post.ID, AuthorID: user.ID, Text: form.Text}
	if err := p.comments.Create(ctx.Request.Context(), comment); err != nil {
		serverError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, postURL(post.ID))
}

// cleanPostForm checks the group choice and stores an uploaded image.
// It returns the resolved group id, the new image path (empty when none was
// uploaded) and whether the form is valid.
func (p *PostController) cleanPostForm(ctx *gin.Context, form *PostForm) (*uint, string, bool) {
	groupID, ok := form.GroupID()
	if !ok {
		form.Errors.Add("group", msgInvalidChoice)
	}
	if !form.Errors.Valid() {
		return nil, "", false
	}

	fh, err := ctx.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return groupID, "", true
		}
		form.Errors.Add("image", msgInvalidImage)
		return nil, "", false
	}

	image, err := p.media.SaveImage(fh)
	switch {
	case err == nil:
		return groupID, image, true
	case errors.Is(err, utils.ErrNotImage):
		form.Errors.Add("image", msgInvalidImage)
	case errors.Is(err, utils.ErrFileTooLarge):
		form.Errors.Add("image", msgImageTooLarge)
	default:
		form.Errors.Add(nonFieldErrors, "The image could not be saved, try again.")
		utils.Sugar.Errorw("save post image failed", "error", err)
	}
	return nil, "", false
}

func (p *PostController) renderDetail(ctx *gin.Context, post *models.Post, form *CommentForm) {
	rctx := ctx.Request.Context()
	comments, err := p.comments.ListByPost(rctx, post.ID)
	if err != nil {
		serverError(ctx, err)
		return
	}
	count, err := p.posts.CountByAuthor(rctx, post.AuthorID)
	if err != nil {
		serverError(ctx, err)
		return
	}

	data := gin.H{
		"title":       post.Excerpt(),
		"post":        post,
		"comments":    comments,
		"posts_count": count,
	}
	if form != nil {
		data["form"] = form
	}
	render(ctx, http.StatusOK, "posts/post_detail.html", data)
}

// loadPost resolves the :id parameter, answering 404 or 500 itself on failure.
func (p *PostController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	id, ok := utils.ParseID(ctx.Param("id"))
	if !ok {
		NotFound(ctx)
		return nil, false
	}
	post, err := p.posts.GetByID(ctx.Request.Context(), id)
	if err != nil {
		lookupFailed(ctx, err)
		return nil, false
	}
	return post, true
}

// lookupFailed answers a failed entity lookup: 404 for missing rows, 500 otherwise.
func lookupFailed(ctx *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		NotFound(ctx)
		return
	}
	serverError(ctx, err)
}

func renderPostForm(ctx *gin.Context, form *PostForm, post *models.Post) {
	data := gin.H{"form": form, "is_edit": post != nil}
	if post != nil {
		data["post"] = post
	}
	render(ctx, http.StatusOK, "posts/create.html", data)
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}
