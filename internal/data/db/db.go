package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string
	PostgresSSLMode  string

	SQLitePath        string
	// SQLiteBusyTimeout is how long a SQLite writer waits on a held lock before failing.
	SQLiteBusyTimeout time.Duration

	MaxOpenConns int
	MaxIdleConns int
}

func (o Options) postgresDSN() string {
	sslMode := o.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		o.PostgresUser,
		o.PostgresPassword,
		o.PostgresHost,
		o.PostgresPort,
		o.PostgresName,
		sslMode,
	)
}

const defaultSQLiteBusyTimeout = 5 * time.Second

// sqliteDSN adds the connection pragmas that let concurrent writers queue on the
// database lock instead of failing with "database is locked". Parameters already
// present in SQLitePath win.
func (o Options) sqliteDSN() string {
	path := o.SQLitePath
	if path == "" {
		path = "skillsdna.db"
	}
	busy := o.SQLiteBusyTimeout
	if busy <= 0 {
		busy = defaultSQLiteBusyTimeout
	}
	params := []string{
		fmt.Sprintf("_busy_timeout=%d", busy.Milliseconds()),
		"_txlock=immediate",
	}
	if !strings.Contains(path, ":memory:") && !strings.Contains(path, "mode=memory") {
		params = append(params, "_journal_mode=WAL")
	}

	base, query, hasQuery := strings.Cut(path, "?")
	var kept []string
	for _, p := range params {
		key, _, _ := strings.Cut(p, "=")
		if hasQuery && strings.Contains(query, key+"=") {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return path
	}
	if hasQuery && query != "" {
		return base + "?" + query + "&" + strings.Join(kept, "&")
	}
	return base + "?" + strings.Join(kept, "&")
}

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to the configured database. TranslateError is enabled so unique
// violations surface as gorm.ErrDuplicatedKey on both drivers.
func Open(opts Options, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService", "driver", opts.Driver)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	}

	var (
		conn *gorm.DB
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverPostgres:
		conn, err = gorm.Open(postgres.Open(opts.postgresDSN()), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	case DriverSQLite:
		conn, err = gorm.Open(sqlite.Open(opts.sqliteDSN()), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite %q: %w", opts.SQLitePath, err)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", opts.Driver)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}

	serviceLog.Info("database connected")
	return &Service{db: conn, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
