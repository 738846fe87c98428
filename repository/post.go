package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/bloghub/models"
	"github.com/cppla/bloghub/utils"
)

// PostRepository defines the interface for post data operations.
// Every listing is ordered newest first and paged utils.PageSize at a time.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page int) (utils.Page[models.Post], error)
	ListByGroup(ctx context.Context, groupID uint, page int) (utils.Page[models.Post], error)
	ListByAuthor(ctx context.Context, authorID uint, page int) (utils.Page[models.Post], error)
	ListFeed(ctx context.Context, userID uint, page int) (utils.Page[models.Post], error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&post, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// Update writes the editable fields only; author and pub_date never change.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
	if err != nil {
		return fmt.Errorf("update post %d: %w", post.ID, err)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, id).Error
}

func (r *postRepository) List(ctx context.Context, page int) (utils.Page[models.Post], error) {
	return r.page(ctx, page, func(db *gorm.DB) *gorm.DB { return db })
}

func (r *postRepository) ListByGroup(ctx context.Context, groupID uint, page int) (utils.Page[models.Post], error) {
	return r.page(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.group_id = ?", groupID)
	})
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, page int) (utils.Page[models.Post], error) {
	return r.page(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.author_id = ?", authorID)
	})
}

// ListFeed returns posts by the authors userID follows at query time.
func (r *postRepository) ListFeed(ctx context.Context, userID uint, page int) (utils.Page[models.Post], error) {
	return r.page(ctx, page, func(db *gorm.DB) *gorm.DB {
		followed := r.db.WithContext(ctx).Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)
		return db.Where("posts.author_id IN (?)", followed)
	})
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&total).Error
	return total, err
}

func (r *postRepository) page(ctx context.Context, page int, scope func(*gorm.DB) *gorm.DB) (utils.Page[models.Post], error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return utils.Page[models.Post]{}, fmt.Errorf("count posts: %w", err)
	}

	var posts []models.Post
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Author").
		Preload("Group").
		Order("posts.pub_date DESC").
		Order("posts.id DESC").
		Offset(utils.Offset(page)).
		Limit(utils.PageSize).
		Find(&posts).Error
	if err != nil {
		return utils.Page[models.Post]{}, fmt.Errorf("list posts: %w", err)
	}
	return utils.NewPage(posts, page, total), nil
}
