package app

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/yaqa/yaqa/internal/config"
	"github.com/yaqa/yaqa/internal/db"
	"github.com/yaqa/yaqa/internal/markdown"
	"github.com/yaqa/yaqa/internal/middleware"
	"github.com/yaqa/yaqa/internal/repository"
	"github.com/yaqa/yaqa/internal/service"
	"github.com/yaqa/yaqa/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	AuthService     *service.AuthService
	UserService     *service.UserService
	EmailService    *service.EmailService
	QuestionService *service.QuestionService
	ImageService    *service.ImageService
	AuthLimiter     *middleware.RateLimiter

	stop chan struct{}
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	return NewWithDB(cfg, database)
}

// NewWithDB wires services over an already migrated database.
func NewWithDB(cfg *config.Config, database *sqlx.DB) (*App, error) {
	store := repository.NewStore(database)

	// Storage
	imageStorage, err := storage.New(cfg, database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	userService := service.NewUserService(store, emailService, cfg.RegistrationOpen)
	authService := service.NewAuthService(userService, cfg.JWTSecret, cfg.JWTExpiry, cfg.IsProduction())
	questionService := service.NewQuestionService(
		store,
		markdown.NewParser(cfg.MarkdownCacheSize),
		cfg.PageSizeDefault,
		cfg.PageSizeMax,
	)
	imageService := service.NewImageService(store, imageStorage, cfg.ImageMaxSize)

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, 10*time.Minute).TrustProxies(proxies)
	authLimiter.StartCleanup(time.Minute, stop)

	return &App{
		Cfg:             cfg,
		DB:              database,
		AuthService:     authService,
		UserService:     userService,
		EmailService:    emailService,
		QuestionService: questionService,
		ImageService:    imageService,
		AuthLimiter:     authLimiter,
		stop:            stop,
	}, nil
}

func (a *App) Close() error {
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
