package db

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB is the database struct.
type DB struct {
	db *sql.DB
}

// Tx is the unit of work handed to activity handlers. Every inbound activity
// runs against exactly one Tx, committed once on success and rolled back on
// any error, so a failed handler leaves no partial state behind.
type Tx struct {
	tx *sql.Tx
}

var (
	dbInstance *DB
	dbOnce     sync.Once
)

const (
	sqlCreateDomainsTable = `CREATE TABLE IF NOT EXISTS domains(
                        id uuid NOT NULL PRIMARY KEY,
                        name varchar(255) UNIQUE NOT NULL,
                        is_remote int NOT NULL default 1,
                        is_allowed int NOT NULL default 1,
                        software_name varchar(100) default '',
                        created_at timestamp default current_timestamp
                        )`

	sqlCreateActorsTable = `CREATE TABLE IF NOT EXISTS actors(
                        id uuid NOT NULL PRIMARY KEY,
                        activitypub_id varchar(500) UNIQUE NOT NULL,
                        preferred_username varchar(100) NOT NULL,
                        domain_id uuid NOT NULL,
                        is_remote int NOT NULL default 0,
                        inbox_uri varchar(500) default '',
                        shared_inbox_uri varchar(500) default '',
                        public_key_pem text default '',
                        private_key_pem text default '',
                        password_hash text default '',
                        workouts_count int default 0,
                        total_ave_speed real default 0,
                        created_at timestamp default current_timestamp,
                        last_fetched_at timestamp default current_timestamp,
                        UNIQUE(preferred_username, domain_id)
                        )`

	sqlCreateFollowRequestsTable = `CREATE TABLE IF NOT EXISTS follow_requests(
                        id uuid NOT NULL PRIMARY KEY,
                        follower_id uuid NOT NULL,
                        followed_id uuid NOT NULL,
                        status varchar(20) NOT NULL default 'pending',
                        created_at timestamp default current_timestamp,
                        updated_at timestamp default current_timestamp,
                        UNIQUE(follower_id, followed_id)
                        )`

	sqlCreateSportsTable = `CREATE TABLE IF NOT EXISTS sports(
                        id integer NOT NULL PRIMARY KEY,
                        label varchar(100) UNIQUE NOT NULL,
                        is_active int NOT NULL default 1
                        )`

	sqlCreateWorkoutsTable = `CREATE TABLE IF NOT EXISTS workouts(
                        id uuid NOT NULL PRIMARY KEY,
                        ap_id varchar(500) UNIQUE,
                        actor_id uuid NOT NULL,
                        sport_id integer NOT NULL,
                        title varchar(255) default '',
                        distance real default 0,
                        duration integer default 0,
                        moving integer default 0,
                        ave_speed real default 0,
                        max_speed real default 0,
                        workout_date timestamp NOT NULL,
                        workout_visibility varchar(50) NOT NULL default 'private',
                        map_visibility varchar(50) NOT NULL default 'private',
                        created_at timestamp default current_timestamp
                        )`

	sqlCreateBlocksTable = `CREATE TABLE IF NOT EXISTS blocks(
                        id uuid NOT NULL PRIMARY KEY,
                        blocker_id uuid NOT NULL,
                        blocked_id uuid NOT NULL,
                        created_at timestamp default current_timestamp,
                        UNIQUE(blocker_id, blocked_id)
                        )`

	sqlCreateDeliveriesTable = `CREATE TABLE IF NOT EXISTS deliveries(
                        id uuid NOT NULL PRIMARY KEY,
                        sender_actor_id uuid NOT NULL,
                        inbox_uri varchar(500) NOT NULL,
                        activity_json text NOT NULL,
                        attempts int default 0,
                        next_retry_at timestamp default current_timestamp,
                        created_at timestamp default current_timestamp
                        )`
)

// Open opens a sqlite database at the given path and applies the base
// schema. In-memory databases are pinned to a single connection so every
// query sees the same store.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	}
	d := &DB{db: sqlDB}
	if err := d.CreateDB(); err != nil {
		return nil, err
	}
	return d, nil
}

func GetDB() *DB {
	dbOnce.Do(func() {
		db, err := sql.Open("sqlite", "database.db")
		if err != nil {
			panic(err)
		}

		// Configure connection pool for concurrent access
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)

		// Try to enable WAL2 mode, fall back to WAL if not supported
		var journalMode string
		err = db.QueryRow("PRAGMA journal_mode=WAL2").Scan(&journalMode)
		if err != nil || journalMode == "delete" {
			err = db.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode)
			if err != nil {
				log.Printf("Warning: Failed to enable WAL mode: %v", err)
			} else {
				log.Printf("Database journal mode: %s (WAL2 not supported, using WAL)", journalMode)
			}
		} else {
			log.Printf("Database journal mode: %s", journalMode)
		}

		// Optimize PRAGMAs for the concurrent federation workload
		db.Exec("PRAGMA synchronous = NORMAL")
		db.Exec("PRAGMA cache_size = -64000")
		db.Exec("PRAGMA temp_store = MEMORY")
		db.Exec("PRAGMA busy_timeout = 5000")
		db.Exec("PRAGMA foreign_keys = ON")
		db.Exec("PRAGMA auto_vacuum = INCREMENTAL")

		log.Printf("Database initialized with connection pooling (max 25 connections)")

		dbInstance = &DB{db: db}

		if err2 := dbInstance.CreateDB(); err2 != nil {
			panic(err2)
		}
	})

	return dbInstance
}

// CreateDB creates the database schema.
func (db *DB) CreateDB() error {
	return db.WrapTransaction(func(tx *Tx) error {
		for _, stmt := range []string{
			sqlCreateDomainsTable,
			sqlCreateActorsTable,
			sqlCreateFollowRequestsTable,
			sqlCreateSportsTable,
			sqlCreateWorkoutsTable,
			sqlCreateBlocksTable,
			sqlCreateDeliveriesTable,
		} {
			if _, err := tx.tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// WrapTransaction runs the given function within a transaction. The function
// is retried while sqlite reports the database busy; any other error rolls
// the whole transaction back so the handler commits all of its side effects
// or none of them.
func (db *DB) WrapTransaction(f func(tx *Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("error starting transaction: %s", err)
		return err
	}
	for {
		err = f(&Tx{tx: tx})
		if err != nil {
			var serr *sqlite.Error
			if errors.As(err, &serr) && serr.Code() == sqlitelib.SQLITE_BUSY {
				continue
			}
			tx.Rollback()
			return err
		}
		err = tx.Commit()
		if err != nil {
			log.Printf("error committing transaction: %s", err)
			return err
		}
		break
	}
	return nil
}

// IsUniqueViolation reports whether err is a sqlite unique-constraint
// failure. The unique indices are authoritative for races like concurrent
// remote actor creation: the loser re-reads instead of failing.
func IsUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == sqlitelib.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY ||
			code == sqlitelib.SQLITE_CONSTRAINT
	}
	return false
}
