package cmd

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

const (
	dbPingTimeout     = 5 * time.Second
	dbMaxOpenConns    = 20
	dbMaxIdleConns    = 5
	dbConnMaxLifetime = 30 * time.Minute
)

func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// openDatabaseFromEnv is used by the maintenance commands, which only need
// MYSQL_DSN and must not fail on unrelated serve settings.
func openDatabaseFromEnv(ctx context.Context) (*sql.DB, error) {
	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("MYSQL_DSN"))
	if dsn == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return openDatabase(ctx, dsn)
}
