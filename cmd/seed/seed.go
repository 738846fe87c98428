package main

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cppla/bloghub/models"
	"github.com/cppla/bloghub/repository"
)

// seedOptions controls how much demo data is generated.
type seedOptions struct {
	Users         int
	Groups        int
	PostsPerUser  int
	CommentsPer   int
	FollowsPer    int
	Password      string
	MaxDays       int
	RandomSeed    int64
	ClearExisting bool
}

type seedReport struct {
	Users, Groups, Posts, Comments, Follows int
}

// seeder fills an empty database with users, groups, posts, comments and follows.
type seeder struct {
	db       *gorm.DB
	opts     seedOptions
	rnd      *rand.Rand
	faker    *gofakeit.Faker
	users    repository.UserRepository
	groups   repository.GroupRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
}

func newSeeder(db *gorm.DB, opts seedOptions) *seeder {
	if opts.RandomSeed == 0 {
		opts.RandomSeed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &seeder{
		db:       db,
		opts:     opts,
		rnd:      rand.New(rand.NewSource(opts.RandomSeed)),
		faker:    gofakeit.New(opts.RandomSeed),
		users:    repository.NewUserRepository(db),
		groups:   repository.NewGroupRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		follows:  repository.NewFollowRepository(db),
	}
}

func (s *seeder) run(ctx context.Context) (seedReport, error) {
	var report seedReport

	if s.opts.ClearExisting {
		if err := s.clear(ctx); err != nil {
			return report, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return report, fmt.Errorf("hash password: %w", err)
	}

	groups := make([]models.Group, 0, s.opts.Groups)
	for i := 0; i < s.opts.Groups; i++ {
		title := capitalize(s.faker.HipsterWord()) + " " + capitalize(s.faker.NounCommon())
		g := models.Group{
			Title:       title,
			Slug:        fmt.Sprintf("%s-%d", slugify(title), i+1),
			Description: s.faker.Sentence(12),
		}
		if err := s.groups.Create(ctx, &g); err != nil {
			return report, err
		}
		groups = append(groups, g)
	}
	report.Groups = len(groups)

	users := make([]models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u := models.User{
			Username:     fmt.Sprintf("%s_%d", strings.ToLower(s.faker.Username()), i+1),
			Email:        s.faker.Email(),
			PasswordHash: string(hash),
			FirstName:    s.faker.FirstName(),
			LastName:     s.faker.LastName(),
		}
		if err := s.users.Create(ctx, &u); err != nil {
			return report, err
		}
		users = append(users, u)
	}
	report.Users = len(users)

	var posts []models.Post
	for _, u := range users {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			p := models.Post{
				Text:     s.faker.Paragraph(1, 3, 12, "\n"),
				AuthorID: u.ID,
				PubDate:  s.pastTime(),
			}
			if len(groups) > 0 && s.rnd.Intn(3) > 0 {
				id := groups[s.rnd.Intn(len(groups))].ID
				p.GroupID = &id
			}
			if err := s.posts.Create(ctx, &p); err != nil {
				return report, err
			}
			posts = append(posts, p)
		}
	}
	report.Posts = len(posts)

	for _, p := range posts {
		for i := 0; i < s.opts.CommentsPer && len(users) > 0; i++ {
			c := models.Comment{
				PostID:   p.ID,
				AuthorID: users[s.rnd.Intn(len(users))].ID,
				Text:     s.faker.Sentence(10),
				Created:  p.PubDate.Add(time.Duration(i+1) * time.Minute),
			}
			if err := s.comments.Create(ctx, &c); err != nil {
				return report, err
			}
			report.Comments++
		}
	}

	for _, u := range users {
		followed := 0
		for _, idx := range s.rnd.Perm(len(users)) {
			if followed >= s.opts.FollowsPer {
				break
			}
			author := users[idx]
			if author.ID == u.ID {
				continue
			}
			if err := s.follows.Create(ctx, u.ID, author.ID); err != nil {
				return report, err
			}
			followed++
		}
		report.Follows += followed
	}

	return report, nil
}

func (s *seeder) clear(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []interface{}{&models.Follow{}, &models.Comment{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}

// pastTime spreads publication dates over the last MaxDays days.
func (s *seeder) pastTime() time.Time {
	back := time.Duration(s.rnd.Intn(s.opts.MaxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
