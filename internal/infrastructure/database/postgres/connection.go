// internal/infrastructure/database/postgres/connection.go
package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/your-org/storefront-api/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps the gorm connection pool
type DB struct {
	db *gorm.DB
}

// NewConnection opens the PostgreSQL pool and verifies it with a ping
func NewConnection(cfg *config.Config) (*DB, error) {
	logLevel := logger.Silent
	if cfg.Database.LogQueries {
		logLevel = logger.Info
	}

	gdb, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("✅ Database connection established successfully")

	return &DB{db: gdb}, nil
}

// Wrap adapts an already opened gorm handle
func Wrap(db *gorm.DB) *DB {
	return &DB{db: db}
}

// GetDB returns the gorm handle
func (d *DB) GetDB() *gorm.DB {
	return d.db
}

// Health pings the database
func (d *DB) Health(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
