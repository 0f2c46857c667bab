// Command issue-token prints an API token for local development.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Freeeeeet/carpool/internal/config"
	"github.com/Freeeeeet/carpool/internal/identity"
	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
)

func main() {
	userID := flag.String("user", "", "user id (random when empty)")
	phone := flag.String("phone", "+70000000000", "phone number stored in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime, JWT_TTL when zero")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	id := uuid.New()
	if *userID != "" {
		if id, err = uuid.Parse(*userID); err != nil {
			log.Fatalf("Invalid user id: %v", err)
		}
	}

	lifetime := cfg.JWTTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	provider := identity.NewJWTProvider(cfg.JWTSecret, cfg.JWTIssuer, lifetime)
	token, expires, err := provider.Issue(id, *phone, model.RoleUser)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Printf("user:    %s\nexpires: %s\ntoken:   %s\n", id, expires.Format(time.RFC3339), token)
}
