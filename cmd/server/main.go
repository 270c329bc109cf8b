package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/gamerchallenges/api/internal/config"
	"github.com/gamerchallenges/api/internal/database"
	"github.com/gamerchallenges/api/internal/handler"
	"github.com/gamerchallenges/api/internal/middleware"
	"github.com/gamerchallenges/api/internal/queue"
	"github.com/gamerchallenges/api/internal/repository"
	"github.com/gamerchallenges/api/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the rate limiter and response cache
	// become pass-throughs.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	games := repository.NewGameRepo(db)
	challenges := repository.NewChallengeRepo(db)
	entries := repository.NewEntryRepo(db)
	votes := repository.NewVoteRepo(db)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	gameH := handler.NewGameHandler(games)
	challengeH := handler.NewChallengeHandler(challenges, games, votes)
	entryH := handler.NewEntryHandler(entries, challenges, votes)

	// Reset emails are delivered out of band; the consumer keeps
	// reconnecting on broker failures.
	go func() {
		if err := queue.StartEmailConsumer(cfg); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, cfg.JWTSecret))

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterBrowse(e, gameH, challengeH, entryH, cfg.JWTSecret, cache)
	router.RegisterMember(e, challengeH, entryH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
