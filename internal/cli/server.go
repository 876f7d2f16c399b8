package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classroom-service/internal/app"
	"classroom-service/internal/auth"
	"classroom-service/internal/config"
	"classroom-service/internal/infra/memory"
	pgloader "classroom-service/internal/infra/postgres"
	rediscache "classroom-service/internal/infra/redis"
	"classroom-service/internal/infra/sqlstore"
	transport "classroom-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun/dialect"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the classroom server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	store := sqlstore.NewStore(db)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var loader memory.QuizLoader = store
	if db.Dialect().Name() == dialect.PG {
		pool, err := pgxpool.Connect(ctx, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizReader
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var sessions auth.SessionStore
	if redisClient != nil {
		sessions = rediscache.NewSessionStore(redisClient)
	} else {
		sessions = memory.NewSessionStore()
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))

	feed := app.NewResultsFeed()
	router := transport.NewRouter(transport.Services{
		Accounts:  app.NewAccountService(store),
		Quizzes:   app.NewQuizService(store, feed),
		Authoring: app.NewAuthoringService(store, quizRepo),
		Feed:      feed,
		Auth:      auth.NewService(cfg.Auth.Secret, tokenTTL, sessions),
	}, transport.Options{
		LoginURL:       cfg.Auth.LoginURL,
		AllowedOrigins: cfg.CORS.Origins,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting classroom service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
