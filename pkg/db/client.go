package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/membercards/pkg/config"
	"github.com/angelmondragon/membercards/pkg/logger"
)

// Client owns the GORM handle behind the postgres and sqlite member stores.
type Client struct {
	conn   *gorm.DB
	driver string
}

// Pinger is satisfied by anything the readiness endpoint can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New opens cfg.DSN with the dialect for cfg.Driver and sizes the pool.
// sqlite is limited to one open connection so writes never hit SQLITE_BUSY.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database DSN is required")
	}
	driver := cfg.Driver
	if driver == "" {
		driver = config.StoreDriverPostgres
	}

	var dialector gorm.Dialector
	switch driver {
	case config.StoreDriverPostgres:
		dialector = postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true})
	case config.StoreDriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	pool, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("%s pool: %w", driver, err)
	}
	sizePool(pool, driver, cfg)

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"driver":         driver,
			"max_open_conns": pool.Stats().MaxOpenConnections,
		}), "database connection established")
	}
	return &Client{conn: conn, driver: driver}, nil
}

func sizePool(pool *sql.DB, driver string, cfg config.DBConfig) {
	switch {
	case driver == config.StoreDriverSQLite:
		pool.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Driver is postgres unless the client was opened for sqlite.
func (c *Client) Driver() string {
	if c.driver == "" {
		return config.StoreDriverPostgres
	}
	return c.driver
}

func (c *Client) Ping(ctx context.Context) error {
	pool, err := c.conn.DB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

func (c *Client) Close() error {
	pool, err := c.conn.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}
