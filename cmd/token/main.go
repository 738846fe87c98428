// Command token mints a session cookie value for an existing user, for local
// testing without the identity service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/cppla/bloghub/config"
	"github.com/cppla/bloghub/repository"
	"github.com/cppla/bloghub/utils"
)

func main() {
	username := flag.String("user", "", "Username to issue the session for")
	ttl := flag.Duration("ttl", 24*time.Hour, "Session lifetime")
	flag.Parse()

	if *username == "" {
		log.Fatal("-user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	user, err := repository.NewUserRepository(db).GetByUsername(context.Background(), *username)
	if err != nil {
		log.Fatalf("Lookup %q: %v", *username, err)
	}

	token, err := utils.IssueSessionToken(cfg.JWTSecret, user.ID, user.Username, *ttl)
	if err != nil {
		log.Fatalf("Sign token: %v", err)
	}
	fmt.Printf("%s=%s\n", cfg.SessionCookie, token)
}
