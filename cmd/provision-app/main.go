// Command provision-app registers a client application and prints its
// signing secret. Optionally registers a callback endpoint for event
// notifications.
//
// Usage:
//
//	provision-app --name=telegram-bot [--callback=https://bot.example/events] [--callback-user=u --callback-pass=p]
//
// Requires DATABASE_DSN environment variable to be set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	applicationrepo "github.com/matekasse/matekasse-backend/internal/adapter/postgres/application"
	"github.com/matekasse/matekasse-backend/internal/auth"
	"github.com/matekasse/matekasse-backend/internal/domain"
)

func main() {
	name := flag.String("name", "", "unique application name")
	callbackURI := flag.String("callback", "", "callback URI for event notifications (optional)")
	callbackUser := flag.String("callback-user", "", "basic auth username for the callback (optional)")
	callbackPass := flag.String("callback-pass", "", "basic auth password for the callback (optional)")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "Usage: provision-app --name=telegram-bot [--callback=URI]")
		os.Exit(1)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN environment variable is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	secret, err := auth.GenerateSecret()
	if err != nil {
		log.Fatalf("generate secret: %v", err)
	}

	repo := applicationrepo.New(pool)

	app, err := repo.Create(ctx, &domain.Application{
		Name:   *name,
		Secret: secret,
	})
	if err != nil {
		log.Fatalf("create application: %v", err)
	}

	if *callbackURI != "" {
		cb := &domain.Callback{
			ApplicationID: app.ID,
			URI:           *callbackURI,
		}
		if *callbackUser != "" {
			cb.Username = callbackUser
		}
		if *callbackPass != "" {
			cb.Password = callbackPass
		}
		if _, err := repo.CreateCallback(ctx, cb); err != nil {
			log.Fatalf("create callback: %v", err)
		}
	}

	fmt.Printf("Application %q registered.\n", app.Name)
	fmt.Printf("ID:     %s\n", app.ID)
	fmt.Printf("Secret: %s\n", secret)
}
