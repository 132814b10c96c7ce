package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-conductor/internal/app"
	"quiz-conductor/internal/domain"
	"quiz-conductor/internal/infra/postgres"
	pgmigrations "quiz-conductor/internal/infra/postgres/migrations"
	infraredis "quiz-conductor/internal/infra/redis"
)

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	quizStore := postgres.NewQuizStore(pool)
	if err := quizStore.CreateQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if err := quizStore.CreateQuiz(ctx, sampleQuiz()); err == nil {
		t.Fatalf("expected duplicate quiz id to be rejected")
	}

	quizRepo := infraredis.NewQuizRepository(redisClient, quizStore, 5*time.Minute)
	tracker := infraredis.NewSessionTracker(redisClient)
	results := postgres.NewResultStore(pool)
	engine := app.NewSessionEngine(quizRepo, tracker, results)
	monitor := app.NewHostMonitor(quizRepo, tracker, results)

	alice := domain.SessionKey{QuizID: "quiz-1", StudentUsername: "alice"}
	bob := domain.SessionKey{QuizID: "quiz-1", StudentUsername: "bob"}

	view, err := engine.Start(ctx, alice)
	if err != nil {
		t.Fatalf("start alice: %v", err)
	}
	if view.State != domain.StateInProgress || len(view.Questions) != 2 {
		t.Fatalf("expected in-progress view with 2 questions, got %+v", view)
	}
	if _, err := engine.Start(ctx, bob); err != nil {
		t.Fatalf("start bob: %v", err)
	}

	view, err = engine.Submit(ctx, alice, domain.Answers{"0": "4", "1": "Paris"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if view.State != domain.StateSubmitted || view.Result == nil || view.Result.Score != 2 {
		t.Fatalf("expected score 2, got %+v", view)
	}

	again, err := engine.Submit(ctx, alice, domain.Answers{"0": "3"})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if again.State != domain.StateAlreadyCompleted || again.Result.Score != 2 {
		t.Fatalf("expected stored result to win, got %+v", again)
	}

	progress, err := monitor.Progress(ctx, "host", "quiz-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(progress.ActiveNow) != 1 || progress.ActiveNow[0].StudentUsername != "bob" {
		t.Fatalf("expected bob active, got %+v", progress.ActiveNow)
	}
	if len(progress.Completed) != 1 || progress.Completed[0].StudentUsername != "alice" {
		t.Fatalf("expected alice completed, got %+v", progress.Completed)
	}

	users := postgres.NewUserStore(db)
	user := domain.User{Username: "alice", DisplayName: "Alice", Role: domain.RoleStudent, PasswordHash: "x"}
	if err := users.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := users.CreateUser(ctx, user); err != domain.ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	return fmt.Sprintf("redis://%s:%s", host, port.Port()), func() {
		_ = container.Terminate(ctx)
	}
}

// migrateDB applies the schema; Postgres may accept connections a moment
// before it is ready, so Init is retried briefly.
func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	var err error
	for i := 0; i < 10; i++ {
		if err = migrator.Init(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:              "quiz-1",
		Topic:           "Basics",
		DurationSeconds: 120,
		HostUsername:    "host",
		CreatedAt:       time.Now().UTC(),
		Questions: []domain.Question{
			{Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, Answer: "4"},
			{Text: "Capital of France?", Options: []string{"Rome", "Paris", "Oslo", "Bern"}, Answer: "Paris"},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
