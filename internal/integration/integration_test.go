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
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-round/internal/app"
	"quiz-round/internal/domain"
	"quiz-round/internal/infra/csvfile"
	pgstore "quiz-round/internal/infra/postgres"
	pgmigrations "quiz-round/internal/infra/postgres/migrations"
	infraredis "quiz-round/internal/infra/redis"
)

const questionCSV = "What is 2 + 2?,3,4,5,22,B\n" +
	"Which planet is red?,Venus,Jupiter,Mars,Mercury,Mars\n" +
	"Largest mammal?,Elephant,Blue Whale,Giraffe,Orca,b\n"

func TestRoundsRankedEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

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

	parsed, err := csvfile.Parse(strings.NewReader(questionCSV))
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	sets := pgstore.NewQuestionSetStore(pool)
	if err := sets.SaveSet(ctx, "general", parsed); err != nil {
		t.Fatalf("save set: %v", err)
	}
	questions, err := sets.LoadQuestions(ctx, "general")
	if err != nil {
		t.Fatalf("load set: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}

	store := infraredis.NewRankedCache(redisClient, pgstore.NewResultStore(pool), time.Minute, "it", zerolog.Nop())

	base := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	play(t, ctx, store, questions, "alice", base, []string{"B", "Mars", "x"})
	play(t, ctx, store, questions, "bob", base.Add(time.Minute), []string{"4", "Mars", "Blue Whale"})
	play(t, ctx, store, questions, "carol", base.Add(2*time.Minute), []string{"A", "mars", "a"})

	entries, err := store.FetchRanked(ctx)
	if err != nil {
		t.Fatalf("fetch ranked: %v", err)
	}
	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, fmt.Sprintf("%s:%d", e.Username, e.Score))
	}
	if strings.Join(got, ",") != "bob:3,alice:2,carol:1" {
		t.Fatalf("unexpected ranking %v", got)
	}

	// A later round with an equal score ranks after the earlier one.
	play(t, ctx, store, questions, "dave", base.Add(time.Hour), []string{"B", "C", "B"})
	entries, err = store.FetchRanked(ctx)
	if err != nil {
		t.Fatalf("fetch ranked: %v", err)
	}
	if len(entries) != 4 || entries[1].Username != "alice" || entries[2].Username != "dave" {
		t.Fatalf("expected alice ahead of dave, got %+v", entries)
	}
}

func play(t *testing.T, ctx context.Context, sink app.ResultSink, questions []domain.Question, user string, at time.Time, answers []string) {
	t.Helper()
	s := app.NewSession(idleTimer{}, sink, app.WithClock(func() time.Time { return at }))
	s.Load(questions)
	if err := s.Start(user); err != nil {
		t.Fatalf("start %s: %v", user, err)
	}
	for _, a := range answers {
		if _, ok := s.SubmitAnswer(a); !ok {
			t.Fatalf("%s: answer %q not accepted", user, a)
		}
		if err := s.Advance(ctx); err != nil {
			t.Fatalf("%s: advance: %v", user, err)
		}
	}
	if s.State() != app.StateFinished {
		t.Fatalf("%s: expected finished, got %s", user, s.State())
	}
}

type idleTimer struct{}

func (idleTimer) Start(int, func(int), func()) {}
func (idleTimer) Stop()                        {}
func (idleTimer) Remaining() int               { return 0 }

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
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
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
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
