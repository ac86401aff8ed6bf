package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tradehub/internal/app/services/identity"
	appmessages "tradehub/internal/app/services/messages"
	domainjobs "tradehub/internal/domain/jobs"
	domainmessages "tradehub/internal/domain/messages"
	domainuser "tradehub/internal/domain/user"
	"tradehub/internal/infra/broker/kafka"
	"tradehub/internal/infra/config"
	mongodb "tradehub/internal/infra/db/mongo"
	ginserver "tradehub/internal/infra/http/gin"
	"tradehub/internal/infra/images"
	"tradehub/internal/infra/obs"
	"tradehub/internal/infra/storage/local"
	"tradehub/internal/infra/storage/memory"
	"tradehub/internal/infra/storage/s3"
)

const imageRoutePrefix = "/api/v1/messages/images"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, cleanup, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	fixturesPath := cfg.FixturesPath
	if fixturesPath == "" {
		fixturesPath = defaultFixturesPath()
	}
	if app.seed != nil {
		if err := app.loadFixtures(fixturesPath, logger); err != nil {
			logger.Warn("fixtures load failed", "error", err, "path", fixturesPath)
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreMode, "images", cfg.ImageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	ready    func() error

	// seed holds the in-memory directories when running without mongo;
	// nil in mongo mode, where the marketplace owns that data.
	seed *seedStores
}

type seedStores struct {
	users *memory.UserDirectory
	jobs  *memory.JobDirectory
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, func(), error) {
	app := application{ready: func() error { return nil }}
	cleanups := make([]func(), 0, 2)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var (
		store domainmessages.Store
		users domainuser.Directory
		jobs  domainjobs.Directory
	)
	switch cfg.StoreMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, cleanup, fmt.Errorf("connect mongo: %w", err)
		}
		cleanups = append(cleanups, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				logger.Error("mongo disconnect failed", "error", err)
			}
		})
		if err := client.Ping(ctx); err != nil {
			return application{}, cleanup, fmt.Errorf("ping mongo: %w", err)
		}
		store = mongodb.NewMessageStore(client.DB)
		users = mongodb.NewUserDirectory(client.DB)
		jobs = mongodb.NewJobDirectory(client.DB)
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
	default:
		memUsers := memory.NewUserDirectory()
		memJobs := memory.NewJobDirectory()
		store = memory.NewMessageStore()
		users = memUsers
		jobs = memJobs
		app.seed = &seedStores{users: memUsers, jobs: memJobs}
	}

	var imageStore appmessages.ImageStore
	switch cfg.ImageMode {
	case "s3":
		s3Store, err := s3.NewStore(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			return application{}, cleanup, fmt.Errorf("configure s3 store: %w", err)
		}
		imageStore = s3Store
	default:
		localStore, err := local.NewStore(cfg.UploadDir, imageRoutePrefix)
		if err != nil {
			return application{}, cleanup, fmt.Errorf("configure local store: %w", err)
		}
		imageStore = localStore
	}

	var events appmessages.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, cleanup, fmt.Errorf("connect kafka: %w", err)
		}
		cleanups = append(cleanups, func() {
			if err := producer.Close(); err != nil {
				logger.Error("kafka close failed", "error", err)
			}
		})
		events = &kafka.MessageEvents{Producer: producer, Topic: cfg.KafkaEventTopic, Logger: logger}
		logger.Info("kafka events enabled", "topic", cfg.KafkaEventTopic)
	}

	service := &appmessages.Service{
		Store: store,
		Jobs:  jobs,
		Users: users,
		Attachments: &appmessages.AttachmentHandler{
			Store:     imageStore,
			Processor: images.NewProcessor(),
			Logger:    logger,
		},
		Events: events,
		Logger: logger,
	}

	app.handlers = ginserver.Handlers{
		Messages: ginserver.MessageHandler{
			Service: service,
			Images:  imageStore,
			Logger:  logger,
		},
		AuthMiddleware: ginserver.AuthMiddleware{
			Resolver: identity.DirectoryResolver{Users: users},
			Logger:   logger,
		}.Handle,
	}
	return app, cleanup, nil
}

func (a application) loadFixtures(path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("fixtures file empty", "path", path)
		return nil
	}

	var fixtures fixtureFile
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures.Users {
		account, err := domainuser.NewUser(domainuser.CreateParams{
			ID:        domainuser.ID(fx.ID),
			Email:     fx.Email,
			Name:      fx.Name,
			Role:      domainuser.Role(fx.Role),
			CreatedAt: now,
		})
		if err != nil {
			logger.Error("user fixture invalid", "user_id", fx.ID, "error", err)
			continue
		}
		if err := a.seed.users.Add(account); err != nil {
			logger.Error("cannot store fixture user", "user_id", fx.ID, "error", err)
		}
	}
	for _, fx := range fixtures.Jobs {
		a.seed.jobs.AddJob(&domainjobs.Job{
			ID:       domainjobs.JobID(fx.ID),
			Title:    fx.Title,
			Category: fx.Category,
			Location: fx.Location,
			Homeowner: domainjobs.Homeowner{
				Name:  fx.Homeowner.Name,
				Email: fx.Homeowner.Email,
				Phone: fx.Homeowner.Phone,
			},
			CreatedAt: parseFixtureTime(fx.CreatedAt, now),
		})
	}
	for _, fx := range fixtures.Quotes {
		a.seed.jobs.AddQuote(domainjobs.Quote{
			ID:             fx.ID,
			JobID:          domainjobs.JobID(fx.JobID),
			TradespersonID: domainuser.ID(fx.TradespersonID),
			Status:         fx.Status,
			CreatedAt:      parseFixtureTime(fx.CreatedAt, now),
		})
	}
	logger.Info("fixtures imported", "users", len(fixtures.Users), "jobs", len(fixtures.Jobs), "quotes", len(fixtures.Quotes))
	return nil
}

type fixtureFile struct {
	Users  []userFixture  `json:"users"`
	Jobs   []jobFixture   `json:"jobs"`
	Quotes []quoteFixture `json:"quotes"`
}

type userFixture struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type jobFixture struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Category  string           `json:"category"`
	Location  string           `json:"location"`
	Homeowner homeownerFixture `json:"homeowner"`
	CreatedAt string           `json:"created_at"`
}

type homeownerFixture struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type quoteFixture struct {
	ID             string `json:"id"`
	JobID          string `json:"job_id"`
	TradespersonID string `json:"tradesperson_id"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

func parseFixtureTime(value string, fallback time.Time) time.Time {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return fallback
}

func defaultFixturesPath() string {
	return filepath.Join("data", "fixtures.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
