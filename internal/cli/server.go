package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizroom/internal/app"
	"quizroom/internal/auth"
	"quizroom/internal/config"
	"quizroom/internal/domain"
	"quizroom/internal/infra/memory"
	"quizroom/internal/infra/postgres"
	redisstore "quizroom/internal/infra/redis"
	transport "quizroom/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "create a demo user (demo/demo) and a sample quiz on start")
	return cmd
}

// quizBackend is the durable home of quizzes: authoring plus cache loading.
type quizBackend interface {
	app.QuizStore
	LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

func runServer(ctx context.Context, configPath, portFlag string, seed bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		users   app.UserRepository
		quizzes quizBackend
	)
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store := postgres.NewStore(pool)
		users, quizzes = store, store
		log.Printf("using postgres storage")
	} else {
		users, quizzes = memory.NewUserStore(), memory.NewQuizStore()
		log.Printf("using in-memory storage")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	lobbyTTL := config.TTLDuration(cfg.Lobby.TTL, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	var (
		quizRepo  app.QuizRepository
		lobbyRepo app.LobbyRepository
		rooms     = app.NewRooms()
	)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		quizRepo = redisstore.NewQuizRepository(redisClient, quizzes, quizTTL)
		lobbyRepo = redisstore.NewLobbyStore(redisClient, lobbyTTL)
		stopRelay, err := rooms.Connect(ctx, redisstore.NewRoomRelay(redisClient))
		if err != nil {
			return err
		}
		defer stopRelay()
		log.Printf("using redis at %s for quiz cache, lobbies and room events", cfg.Redis.Addr)
	} else {
		quizRepo = memory.NewQuizRepository(quizzes, quizTTL)
		lobbyRepo = memory.NewLobbyStore()
	}

	defaultLimit := int(config.TTLDuration(cfg.Quiz.DefaultTimeLimit, 5*time.Minute) / time.Second)
	secret := tokenSecret(cfg.Auth.TokenSecret, cfg.Postgres.URL != "")
	tokens := auth.NewTokens(secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	svc := transport.Services{
		Users:   app.NewUserService(users, tokens),
		Quizzes: app.NewQuizService(quizzes, quizRepo, users, defaultLimit),
		Lobbies: app.NewLobbyService(lobbyRepo, quizRepo, users, rooms, cfg.Lobby.MaxParticipants),
		Rooms:   rooms,
	}
	if seed {
		if err := seedDemo(ctx, svc); err != nil {
			log.Printf("seed skipped: %v", err)
		}
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(svc, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizroom on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// tokenSecret returns the configured signing secret when users are durable.
// In-memory users are numbered from 1 again after a restart, so each run then
// signs with a fresh random secret and older tokens stop verifying.
func tokenSecret(configured string, durableUsers bool) string {
	if durableUsers {
		if configured == config.DefaultTokenSecret {
			log.Printf("auth.token_secret is still the sample value; set QUIZROOM_TOKEN_SECRET")
		}
		return configured
	}
	return uuid.NewString() + uuid.NewString()
}

// seedDemo registers demo/demo with one sample quiz so a fresh server can be
// played right away.
func seedDemo(ctx context.Context, svc transport.Services) error {
	user, _, err := svc.Users.Register(ctx, "demo", "demo")
	if err != nil {
		return err
	}
	id, err := svc.Quizzes.Create(ctx, app.CreateQuizInput{
		CreatorID: user.ID,
		Title:     "Warm-up",
		TimeLimit: 120,
		Questions: []domain.Question{
			{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswerIndex: 1},
			{Text: "Which planet is known as the red planet?", Options: []string{"Venus", "Jupiter", "Mars", "Saturn"}, CorrectAnswerIndex: 2},
			{Text: "Water boils at 100 degrees Celsius at sea level.", Options: []string{"True", "False"}, CorrectAnswerIndex: 0},
		},
	})
	if err != nil {
		return err
	}
	log.Printf("seeded demo user %d with quiz %d", user.ID, id)
	return nil
}
