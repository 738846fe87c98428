package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/bloghub/middleware"
	"github.com/cppla/bloghub/repository"
	"github.com/cppla/bloghub/utils"
)

// FollowController manages follow edges and the followed-authors feed.
type FollowController struct {
	posts   repository.PostRepository
	users   repository.UserRepository
	follows repository.FollowRepository
}

// NewFollowController creates a new FollowController instance.
func NewFollowController(db *gorm.DB) *FollowController {
	return &FollowController{
		posts:   repository.NewPostRepository(db),
		users:   repository.NewUserRepository(db),
		follows: repository.NewFollowRepository(db),
	}
}

// FollowIndex lists posts by the authors the current user follows.
func (f *FollowController) FollowIndex(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	page, err := f.posts.ListFeed(ctx.Request.Context(), user.ID, utils.ParsePage(ctx.Query("page")))
	if err != nil {
		serverError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "posts/follow.html", gin.H{"page_obj": page})
}

// ProfileFollow subscribes the current user to an author. Following yourself
// or an author you already follow changes nothing; the reply is the same redirect.
func (f *FollowController) ProfileFollow(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	rctx := ctx.Request.Context()

	author, err := f.users.GetByUsername(rctx, ctx.Param("username"))
	if err != nil {
		lookupFailed(ctx, err)
		return
	}
	if middleware.CanFollow(user, author) {
		if err := f.follows.Create(rctx, user.ID, author.ID); err != nil {
			serverError(ctx, err)
			return
		}
	}
	ctx.Redirect(http.StatusFound, profileURL(author.Username))
}

// ProfileUnfollow removes the follow edge if there is one.
func (f *FollowController) ProfileUnfollow(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	rctx := ctx.Request.Context()

	author, err := f.users.GetByUsername(rctx, ctx.Param("username"))
	if err != nil {
		lookupFailed(ctx, err)
		return
	}
	if err := f.follows.Delete(rctx, user.ID, author.ID); err != nil {
		serverError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, profileURL(author.Username))
}
