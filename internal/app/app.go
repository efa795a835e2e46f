package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/podloop/podloop/internal/config"
	"github.com/podloop/podloop/internal/db"
	"github.com/podloop/podloop/internal/repository"
	"github.com/podloop/podloop/internal/service"
	"github.com/podloop/podloop/internal/storage"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	Storage          storage.Storage
	AuthService      *service.AuthService
	UserService      *service.UserService
	PodService       *service.PodService
	MessageService   *service.MessageService
	RecommendService *service.RecommendService
	SearchService    *service.SearchService
	LifecycleService *service.LifecycleService
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
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database, cfg.StoreTimeout)
	podRepository := repository.NewPodRepository(database, cfg.StoreTimeout)
	messageRepository := repository.NewMessageRepository(database, cfg.StoreTimeout)

	// Voice blob storage (optional in development)
	var voiceStorage storage.Storage
	if cfg.HasVoiceStorage() {
		voiceStorage, err = storage.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %v", err)
		}
	}

	// Services
	authService := service.NewAuthService(userRepository, cfg.JWTSecret, cfg.IsProduction(), cfg.JWTExpiry)
	userService := service.NewUserService(userRepository)
	podService := service.NewPodService(podRepository, messageRepository, cfg.DefaultMaxParticipants)
	messageService := service.NewMessageService(podRepository, messageRepository)
	recommendService := service.NewRecommendService(userRepository, podRepository)
	searchService := service.NewSearchService(podRepository)
	lifecycleService := service.NewLifecycleService(podRepository)

	return &App{
		Cfg:              cfg,
		DB:               database,
		Storage:          voiceStorage,
		AuthService:      authService,
		UserService:      userService,
		PodService:       podService,
		MessageService:   messageService,
		RecommendService: recommendService,
		SearchService:    searchService,
		LifecycleService: lifecycleService,
	}, nil
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
