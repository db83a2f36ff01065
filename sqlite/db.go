package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/storyloom/storyloom/internal/errors"
	"github.com/storyloom/storyloom/internal/random"

	_ "embed"
	_ "github.com/mattn/go-sqlite3" // Enable sqlite3 driver
)

//go:embed init.sql
var initialiseSchemaScript string

type DBs struct {
	ReadWrite *sqlx.DB
	Read      *sqlx.DB
}

// NewDB establishes two database connections, one for read/write operations and one for read-only operations.
// This is a best practice mentioned in https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995
//
// The url parameter is the path to the SQLite database file or ":memory:" for an in-memory database.
func NewDB(url string) (*DBs, error) {
	var (
		err         error
		readWriteDB *sqlx.DB
		readDB      *sqlx.DB
		ctx         = context.Background()
	)

	// For in-memory databases, we need shared cache mode so that both connections access the same data.
	// Parallel tests each get a uniquely named database to avoid sharing data.
	config := "cache=private"
	if url == ":memory:" {
		var randomID string
		if randomID, err = random.Letters(20); err != nil {
			return nil, errors.Wrap(err, "generate random ID")
		}
		url = randomID
		config = "mode=memory&cache=shared"
	}

	if readWriteDB, err = sqlx.ConnectContext(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_txlock=immediate&%s", url, config)); err != nil {
		return nil, errors.Wrap(err, "open read-write database")
	}

	readWriteDB.SetMaxOpenConns(1)
	readWriteDB.SetMaxIdleConns(1)
	readWriteDB.SetConnMaxLifetime(time.Hour)
	readWriteDB.SetConnMaxIdleTime(time.Hour)
	readWriteDB.MustExec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
		PRAGMA foreign_keys = ON;
		PRAGMA synchronous = NORMAL;
	`)

	// Initialize the database schema
	readWriteDB.MustExec(initialiseSchemaScript)

	if readDB, err = sqlx.ConnectContext(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_txlock=deferred&%s", url, config)); err != nil {
		return nil, errors.Wrap(err, "open read database")
	}

	maxReadConns := 10
	readDB.SetMaxOpenConns(maxReadConns)
	readDB.SetMaxIdleConns(maxReadConns)
	readDB.SetConnMaxLifetime(time.Hour)
	readDB.SetConnMaxIdleTime(time.Hour)

	return &DBs{
		ReadWrite: readWriteDB,
		Read:      readDB,
	}, nil
}

// Close releases both connection pools.
func (dbs *DBs) Close() error {
	return errors.Join(dbs.ReadWrite.Close(), dbs.Read.Close())
}
