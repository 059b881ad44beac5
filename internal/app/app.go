package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Ananth-NQI/errandguy-backend/database"
	"github.com/Ananth-NQI/errandguy-backend/internal/config"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/services"
	"github.com/Ananth-NQI/errandguy-backend/internal/storage"
)

const (
	StorageMemory   = "In-Memory (Testing)"
	StorageDatabase = "PostgreSQL Database"
)

// Storage is the opened errand log
type Storage struct {
	Kind   string
	DB     *gorm.DB
	Table  storage.Table
	Errand *storage.ErrandStore
}

// OpenStorage opens the backing table and checks its header. With
// SHEET_BOOTSTRAP an empty table gets the header written first.
func OpenStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Storage, error) {
	s := &Storage{}

	if cfg.Database.UseMemoryStore {
		log.Warn("Using in-memory storage (not for production!)")
		s.Kind = StorageMemory
		s.Table = storage.NewMemoryTable()
	} else {
		db, err := database.Connect(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		table := storage.NewDatabaseTable(db, cfg.Sheet.Name)
		if err := table.Migrate(); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		s.Kind = StorageDatabase
		s.DB = db
		s.Table = table
	}

	s.Errand = storage.NewErrandStore(s.Table, log)

	var err error
	if cfg.Sheet.Bootstrap {
		err = s.Errand.Bootstrap(ctx)
	} else {
		err = s.Errand.VerifySchema(ctx)
	}
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	log.Info("Errand log ready", logger.String("storage", s.Kind), logger.String("sheet", cfg.Sheet.Name))
	return s, nil
}

// Close releases the database pool, if any
func (s *Storage) Close() error {
	return database.Close(s.DB)
}

// App holds every wired component of the service
type App struct {
	Config  *config.Config
	Log     *logger.Logger
	Storage *Storage
	Redis   *redis.Client

	Errands *services.ErrandService
	Summary *services.SummaryService
	Bot     *services.Bot
	Sender  services.MessageSender
	Deduper services.MessageDeduper
}

// New opens storage and builds the engine, the chat front end and the
// outbound channel.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	st, err := OpenStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Log: log, Storage: st}
	a.Errands, a.Summary = NewServices(st.Errand, cfg, log)
	a.Bot = services.NewBot(a.Errands, a.Summary, log)

	if cfg.TwilioConfigured() {
		twilioSvc, err := services.NewTwilioService(cfg.Twilio, log)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Sender = twilioSvc
		log.Info("Twilio service initialized")
	} else {
		log.Warn("Twilio credentials not found, replies will only be logged")
		a.Sender = services.NewLogSender(log)
	}

	if cfg.Redis.Enabled {
		client, err := database.ConnectRedis(cfg.Redis)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Redis = client
		a.Deduper = services.NewRedisDeduper(client, cfg.Redis.DedupTTL)
		log.Info("Webhook dedup uses Redis", logger.String("addr", cfg.Redis.Addr()))
	} else {
		a.Deduper = services.NewMemoryDeduper(cfg.Redis.DedupTTL)
	}

	return a, nil
}

// NewServices builds the lifecycle engine and the summary aggregator over a store
func NewServices(store *storage.ErrandStore, cfg *config.Config, log *logger.Logger) (*services.ErrandService, *services.SummaryService) {
	errands := services.NewErrandService(store, services.ErrandServiceConfig{
		IDPrefix:      cfg.Errands.IDPrefix,
		IDMaxAttempts: cfg.Errands.IDMaxAttempts,
		Location:      cfg.Errands.Location,
	}, log)
	summary := services.NewSummaryService(store, cfg.Errands.Location, nil, log)
	return errands, summary
}

// Close releases Redis and the database
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Storage != nil {
		errs = append(errs, a.Storage.Close())
	}
	return errors.Join(errs...)
}
