package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store bundles the three entity repositories of one backend.
type Store struct {
	Users    UserRepository
	Products ProductRepository
	Orders   OrderRepository

	Driver string
	ping   func(ctx context.Context) error
	close  func(ctx context.Context) error
}

// NewMemoryStore returns a store that keeps everything in process memory.
func NewMemoryStore() *Store {
	return &Store{
		Users:    NewMemoryUserRepository(),
		Products: NewMemoryProductRepository(),
		Orders:   NewMemoryOrderRepository(),
		Driver:   config.DriverMemory,
	}
}

// NewGORMStore migrates the schema and returns a store backed by db.
func NewGORMStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	return &Store{
		Users:    NewGORMUserRepository(db),
		Products: NewGORMProductRepository(db),
		Orders:   NewGORMOrderRepository(db),
		Driver:   db.Dialector.Name(),
		ping:     sqlDB.PingContext,
		close:    func(context.Context) error { return sqlDB.Close() },
	}, nil
}

// NewMongoStore ensures indexes and returns a store backed by db.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	if err := ensureMongoIndexes(ctx, db); err != nil {
		return nil, err
	}
	client := db.Client()
	return &Store{
		Users:    NewMongoUserRepository(db),
		Products: NewMongoProductRepository(db),
		Orders:   NewMongoOrderRepository(db),
		Driver:   config.DriverMongo,
		ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
		close:    client.Disconnect,
	}, nil
}

// OpenGORM opens a sqlite or postgres connection with UTC timestamps.
func OpenGORM(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == config.DriverSQLite {
		// sqlite has no row locks; one connection serializes transactions.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// Open builds the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Info("using in-memory store")
		return NewMemoryStore(), nil
	case config.DriverSQLite, config.DriverPostgres:
		db, err := OpenGORM(cfg.StoreDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		store, err := NewGORMStore(db)
		if err != nil {
			return nil, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("ping database: %w", err)
		}
		logger.Info("connected to database", "driver", cfg.StoreDriver)
		return store, nil
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		store, err := NewMongoStore(ctx, client.Database(cfg.MongoDatabase))
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info("connected to mongo", "database", cfg.MongoDatabase)
		return store, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Ping checks the backend is reachable. The memory store is always up.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
