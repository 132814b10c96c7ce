package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-conductor/internal/app"
	"quiz-conductor/internal/auth"
	"quiz-conductor/internal/config"
	"quiz-conductor/internal/infra/gemini"
	"quiz-conductor/internal/infra/mail"
	"quiz-conductor/internal/infra/memory"
	"quiz-conductor/internal/infra/postgres"
	infraredis "quiz-conductor/internal/infra/redis"
	transport "quiz-conductor/internal/transport/http"
)

// stores is the set of adapters chosen from config.
type stores struct {
	quizStore interface {
		app.QuizStore
		memory.QuizLoader
	}
	quizzes app.QuizRepository
	users   app.UserStore
	tracker app.SessionTracker
	results app.ResultStore
	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildStores picks Postgres when a URL is configured, Redis for the session
// tracker and quiz cache when an address is configured, and memory otherwise.
// Migrations run only when migrateSchema is set.
func buildStores(ctx context.Context, cfg config.Config, migrateSchema bool) (*stores, error) {
	s := &stores{}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.closers = append(s.closers, func() { _ = redisClient.Close() })
	}

	if cfg.Postgres.URL != "" {
		db := openBun(cfg.Postgres.URL)
		s.closers = append(s.closers, func() { _ = db.Close() })
		if migrateSchema {
			if err := runMigrations(ctx, db); err != nil {
				s.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		s.quizStore = postgres.NewQuizStore(pool)
		s.users = postgres.NewUserStore(db)
		s.results = postgres.NewResultStore(pool)
		s.tracker = postgres.NewSessionTracker(pool)
	} else {
		slog.Warn("postgres not configured, quizzes and accounts are kept in memory")
		s.quizStore = memory.NewQuizStore()
		s.users = memory.NewUserStore()
	}

	switch {
	case redisClient != nil:
		s.quizzes = infraredis.NewQuizRepository(redisClient, s.quizStore, quizTTL)
		s.tracker = infraredis.NewSessionTracker(redisClient)
		if s.results == nil {
			s.results = infraredis.NewResultStore(redisClient)
		}
	default:
		s.quizzes = memory.NewQuizRepository(s.quizStore, quizTTL)
	}
	if s.tracker == nil {
		s.tracker = memory.NewSessionTracker()
	}
	if s.results == nil {
		s.results = memory.NewResultStore()
	}
	return s, nil
}

// buildServices wires the use cases on top of the stores.
func buildServices(ctx context.Context, cfg config.Config, s *stores) (transport.Services, func(), error) {
	cleanup := func() {}

	var generator app.QuestionGenerator
	if cfg.Generator.APIKey != "" {
		g, err := gemini.New(ctx, gemini.Config{
			APIKey:      cfg.Generator.APIKey,
			Model:       cfg.Generator.Model,
			Temperature: cfg.Generator.Temperature,
		})
		if err != nil {
			return transport.Services{}, cleanup, err
		}
		generator = g
		cleanup = func() { _ = g.Close() }
	} else {
		slog.Warn("generator api key not configured, quizzes use demo questions")
	}

	var mailer app.Mailer
	if cfg.MailEnabled() {
		sender, err := mail.NewSender(mail.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
		if err != nil {
			return transport.Services{}, cleanup, err
		}
		mailer = sender
	} else {
		slog.Warn("mail not configured, invitations are disabled")
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		slog.Warn("jwt secret not configured, using an insecure development secret")
		secret = "dev-secret"
	}
	tokens := auth.NewTokens(secret, config.TTLDuration(cfg.Auth.TokenTTL, 12*time.Hour))

	return transport.Services{
		Accounts: app.NewAccountService(s.users, tokens, cfg.Auth.AdminCode),
		Authoring: app.NewAuthoringService(s.quizStore, generator, app.AuthoringConfig{
			BaseURL:      cfg.Server.BaseURL,
			MaxQuestions: cfg.Quiz.MaxQuestions,
		}),
		Sessions: app.NewSessionEngine(s.quizzes, s.tracker, s.results),
		Monitor:  app.NewHostMonitor(s.quizzes, s.tracker, s.results),
		Invites:  app.NewInvitationService(s.quizzes, mailer, cfg.Server.BaseURL),
		Tokens:   tokens,
	}, cleanup, nil
}
