// Command seed fills the configured database with demo users, groups, posts,
// comments and follows.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/cppla/bloghub/config"
	"github.com/cppla/bloghub/models"
)

func main() {
	opts := seedOptions{}
	flag.IntVar(&opts.Users, "users", 10, "Number of users to create")
	flag.IntVar(&opts.Groups, "groups", 4, "Number of groups to create")
	flag.IntVar(&opts.PostsPerUser, "posts", 15, "Posts per user")
	flag.IntVar(&opts.CommentsPer, "comments", 2, "Comments per post")
	flag.IntVar(&opts.FollowsPer, "follows", 3, "Authors each user follows")
	flag.StringVar(&opts.Password, "password", "bloghub", "Password for every seeded user")
	flag.IntVar(&opts.MaxDays, "days", 90, "Spread publication dates over this many days")
	flag.Int64Var(&opts.RandomSeed, "seed", 0, "Random seed (0 = time based)")
	flag.BoolVar(&opts.ClearExisting, "clean", false, "Delete existing rows before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := config.InitDatabase(cfg, models.All()...)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	report, err := newSeeder(db, opts).run(context.Background())
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d groups, %d posts, %d comments, %d follows",
		report.Users, report.Groups, report.Posts, report.Comments, report.Follows)
}
