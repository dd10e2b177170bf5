package export

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// Database is where exported artifacts are loaded into, either a local sqlite file or a
// remote libsql server.
type Database struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// OpenDB opens the database and makes sure the schema exists.
func (config Database) OpenDB() (*sql.DB, error) {
	db, err := config.open()
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

func (config Database) open() (*sql.DB, error) {
	if config.Url != "" {
		dsn, err := libsqlDsn(config.Url, config.AuthToken)
		if err != nil {
			return nil, err
		}
		return sql.Open("libsql", dsn)
	}

	if config.File == "" {
		return nil, fmt.Errorf("neither a database file nor url was specified")
	}
	err := os.MkdirAll(filepath.Dir(config.File), 0o755)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// sqlite only has a single writer
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		_, err = db.Exec(pragma)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func libsqlDsn(rawUrl, authToken string) (string, error) {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return "", fmt.Errorf("export url: %w", err)
	}
	if authToken == "" {
		return u.String(), nil
	}
	query := u.Query()
	query.Set("authToken", authToken)
	u.RawQuery = query.Encode()
	return u.String(), nil
}
