package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
	"unicode/utf8"

	"dutchthrift_server/config"
	"dutchthrift_server/structs"

	"github.com/MonkyMars/gecho"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// DB wraps the bun database handle with additional functionality
type DB struct {
	*bun.DB
}

var instance *DB

// Connect opens the connection pool described by cfg. DB_DRIVER selects bun's
// own pgdriver (default) or pgx through its database/sql adapter.
func Connect(cfg *structs.DatabaseConfig, logger *gecho.Logger) (*DB, error) {
	sqldb, err := openSQL(cfg)
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxOpenConns(cfg.MaxConns)
	sqldb.SetMaxIdleConns(cfg.MinConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.MaxIdleTime)

	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(&slowQueryHook{logger: logger, threshold: cfg.SlowQuery})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully", gecho.Field("driver", cfg.Driver))

	return &DB{db}, nil
}

func openSQL(cfg *structs.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case "pgx":
		return sql.Open("pgx", DSN(cfg))
	case "pg", "":
		opts := []pgdriver.Option{
			pgdriver.WithReadTimeout(cfg.ReadTimeout),
			pgdriver.WithWriteTimeout(cfg.WriteTimeout),
		}
		if cfg.URL != "" {
			opts = append(opts, pgdriver.WithDSN(cfg.URL))
		} else {
			opts = append(opts,
				pgdriver.WithAddr(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
				pgdriver.WithUser(cfg.User),
				pgdriver.WithPassword(cfg.Password),
				pgdriver.WithDatabase(cfg.Name),
				pgdriver.WithInsecure(cfg.SSLMode == "disable"),
			)
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// DSN returns DATABASE_URL when set, otherwise a postgres URL built from the
// DB_* parts.
func DSN(cfg *structs.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode)
}

// Initialize sets up the global database instance using centralized configuration
func Initialize() error {
	db, err := Connect(config.GetConfig().Database, config.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	instance = db
	return nil
}

// GetInstance returns the global database instance. Initialize must have
// been called first.
func GetInstance() *DB {
	if instance == nil {
		config.GetLogger().Fatal("Database instance is not initialized. Call Initialize() first.")
	}
	return instance
}

// CloseInstance closes the global database instance
func CloseInstance() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}

// maxLoggedQuery caps the query text in log lines. Item inserts carry the
// base64 image inline and would otherwise flood the log.
const maxLoggedQuery = 512

// truncateQuery shortens q to at most n bytes without splitting a rune
func truncateQuery(q string, n int) string {
	if len(q) <= n {
		return q
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(q[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (%d bytes truncated)", q[:cut], len(q)-cut)
}

// slowQueryHook logs slow queries and dropped connections
type slowQueryHook struct {
	logger    *gecho.Logger
	threshold time.Duration
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	if h.threshold > 0 && duration > h.threshold {
		h.logger.Warn("Slow database query detected",
			gecho.Field("operation", event.Operation()),
			gecho.Field("query", truncateQuery(event.Query, maxLoggedQuery)),
			gecho.Field("duration", duration),
		)
	}

	if event.Err == nil {
		return
	}

	var netErr net.Error
	if errors.Is(event.Err, io.EOF) || errors.Is(event.Err, io.ErrUnexpectedEOF) || errors.As(event.Err, &netErr) {
		h.logger.Error("Database connection error - connection may have been closed by server",
			gecho.Field("error", event.Err),
			gecho.Field("operation", event.Operation()),
		)
	}
}
