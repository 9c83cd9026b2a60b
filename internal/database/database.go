package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"hotelbooking/internal/domain/auth"
	"hotelbooking/internal/domain/booking"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/wallet"
	"hotelbooking/internal/pkg/logger"
)

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

// Dialect picks the gorm driver from the DATABASE_URL shape.
func Dialect(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres
	case strings.HasPrefix(dsn, "mysql://"), strings.Contains(dsn, "@tcp("):
		return DialectMySQL
	default:
		return DialectSQLite
	}
}

func Connect(dsn string, log *logger.Logger) (*gorm.DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch Dialect(dsn) {
	case DialectPostgres:
		log.Info("connecting to database", "dialect", DialectPostgres)
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case DialectMySQL:
		if strings.HasPrefix(dsn, "mysql://") {
			dsn, err = mysqlDSNFromURL(dsn)
			if err != nil {
				return nil, fmt.Errorf("parse mysql url: %w", err)
			}
		}
		log.Info("connecting to database", "dialect", DialectMySQL)
		db, err = gorm.Open(mysql.Open(dsn), cfg)
	default:
		log.Info("using sqlite for local development", "dsn", dsn)
		db, err = gorm.Open(
			gormsqlite.New(gormsqlite.Config{
				DriverName: "sqlite",
				DSN:        dsn,
			}),
			cfg,
		)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if Dialect(dsn) == DialectSQLite {
		// single writer; an in-memory database lives as long as its connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// Migrate creates parent tables before the ones that reference them.
func Migrate(db *gorm.DB) error {
	models := []any{
		&auth.User{},
		&catalog.Hotel{},
		&catalog.Room{},
		&catalog.Service{},
	}
	models = append(models, wallet.Models()...)
	models = append(models, booking.Models()...)
	return db.AutoMigrate(models...)
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}
