package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/IT-Nick/question-bank/internal/app/handlers/http/answer_handler"
	"github.com/IT-Nick/question-bank/internal/app/handlers/http/question_handler"
	"github.com/IT-Nick/question-bank/internal/app/handlers/http/subscriber_handler"
	"github.com/IT-Nick/question-bank/internal/app/middleware"
	answersRepo "github.com/IT-Nick/question-bank/internal/domain/answers/repository"
	answersService "github.com/IT-Nick/question-bank/internal/domain/answers/service"
	"github.com/IT-Nick/question-bank/internal/domain/events"
	questionsRepo "github.com/IT-Nick/question-bank/internal/domain/questions/repository"
	questionsService "github.com/IT-Nick/question-bank/internal/domain/questions/service"
	"github.com/IT-Nick/question-bank/internal/domain/validation"
	"github.com/IT-Nick/question-bank/internal/infra/config"
	"github.com/IT-Nick/question-bank/internal/infra/logger"
	"github.com/IT-Nick/question-bank/internal/infra/queue"
)

const shutdownTimeout = 10 * time.Second

type Services struct {
	questionService *questionsService.QuestionService
	answerService   *answersService.AnswerService
	dispatcher      *events.Dispatcher
}

type App struct {
	config *config.Config
	db     *pgxpool.Pool
	mongo  *mongo.Client
	queue  queue.Queue
	server *fiber.App

	Services
}

// NewApp loads the config and connects the store and the queue.
func NewApp(configPath string) (*App, error) {
	configImpl, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config.LoadConfig: %w", err)
	}
	logger.Setup(os.Stdout, configImpl.Log.Level)

	return newApp(context.Background(), configImpl)
}

func newApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{config: cfg}

	var err error
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		if app.db, err = InitDatabase(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	case config.DriverMongo:
		if app.mongo, err = InitMongo(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	if app.queue, err = InitQueue(ctx, cfg); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	app.initServices()
	app.server = app.newServer()

	return app, nil
}

// initServices builds repositories for the configured driver and the services on top.
func (app *App) initServices() {
	var (
		questionRepo questionsRepo.Repository
		answerRepo   answersRepo.Repository
	)
	switch {
	case app.db != nil:
		questionRepo = questionsRepo.NewPostgresRepository(app.db)
		answerRepo = answersRepo.NewPostgresRepository(app.db)
	case app.mongo != nil:
		db := app.mongo.Database(app.config.Database.MongoDatabase)
		questionRepo = questionsRepo.NewMongoRepository(db)
		answerRepo = answersRepo.NewMongoRepository(db)
	default:
		questionRepo = questionsRepo.NewMemoryRepository()
		answerRepo = answersRepo.NewMemoryRepository()
	}

	var publisher queue.Publisher
	if app.queue != nil {
		publisher = app.queue
	}

	app.questionService = questionsService.NewQuestionService(questionRepo, publisher,
		validation.WithPlatformTestInfo(validation.PlatformTestInfoPolicy(app.config.Validation.PlatformTestInfo)))

	var reader answersService.QuestionReader
	if app.config.Answers.VerifyVerdict {
		reader = questionRepo
	}
	app.answerService = answersService.NewAnswerService(answerRepo, reader, publisher)

	app.dispatcher = events.NewDispatcher(app.questionService, app.answerService)
}

func (app *App) newServer() *fiber.App {
	server := fiber.New(fiber.Config{
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		BodyLimit:    app.config.Server.BodyLimit,
		ErrorHandler: errorHandler,
		// handlers keep request values in the in-memory stores
		Immutable: true,
	})

	server.Use(recover.New())
	server.Use(fiberlogger.New())
	server.Use(cors.New(cors.Config{AllowOrigins: corsOrigins(app.config.Server.CORSOrigins)}))

	server.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "JEE Simplified API is running"})
	})
	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	async := app.config.Writes.Mode == config.WriteAsync
	pushAuth := middleware.NewPushAuth(app.config.Subscriber.JWTSecret, app.config.Subscriber.Audience)
	api := server.Group("/api")

	questions := api.Group("/questions")
	questions.Post("/subscriber", pushAuth, subscriber_handler.NewSubscriberHandler(app.questionService).Handle)
	question_handler.NewQuestionHandler(app.questionService, async).Register(questions)

	answers := api.Group("/answers")
	answers.Post("/subscriber", pushAuth, subscriber_handler.NewSubscriberHandler(app.answerService).Handle)
	answer_handler.NewAnswerHandler(app.answerService, async).Register(answers)

	return server
}

// errorHandler answers errors that escaped the handlers, such as unknown routes.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

func corsOrigins(origins string) string {
	if origins == "" {
		return "*"
	}
	return origins
}

// relayEnabled the memory queue has no push source, so it is always drained in process.
func (app *App) relayEnabled() bool {
	return app.queue != nil && (app.config.Queue.Relay || app.config.Queue.Driver == config.QueueMemory)
}

// ListenAndServe runs the HTTP server and the queue relay until SIGINT or SIGTERM.
func (app *App) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relayCtx, cancelRelay := context.WithCancel(ctx)
	defer cancelRelay()

	var wg sync.WaitGroup
	if app.relayEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("queue relay started", "driver", app.config.Queue.Driver)
			if err := app.queue.Run(relayCtx, newRelayHandler(app.dispatcher)); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("queue relay stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server started", "addr", app.config.Addr(), "writes", app.config.Writes.Mode)
		errCh <- app.server.Listen(app.config.Addr())
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case serveErr = <-errCh:
	}

	if err := app.server.ShutdownWithTimeout(shutdownTimeout); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	cancelRelay()
	wg.Wait()
	app.Close()

	if serveErr != nil {
		return fmt.Errorf("failed to start HTTP server: %w", serveErr)
	}
	return nil
}

// Close releases the queue and database connections.
func (app *App) Close() {
	if app.queue != nil {
		if err := app.queue.Close(); err != nil {
			slog.Warn("queue close failed", "error", err)
		}
	}
	if app.db != nil {
		app.db.Close()
	}
	if app.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.mongo.Disconnect(ctx); err != nil {
			slog.Warn("mongo disconnect failed", "error", err)
		}
	}
}
