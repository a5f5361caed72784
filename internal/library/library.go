// Package library stores canonical records in SQLite and serves them back
// to the emitter in pages.
//
// Build modes:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3
//
// Records are deduplicated by a BLAKE3 fingerprint of their content, so
// importing the same file twice stores each record once.
package library

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"iter"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/medline/core/errors"
	"github.com/FocuswithJustin/medline/core/medline"
	"github.com/FocuswithJustin/medline/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	fingerprint TEXT NOT NULL UNIQUE,
	rec_no      TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS records_rec_no ON records(rec_no);
`

// Info describes the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		Package:    driverPackage,
	}
}

// cacheSize bounds the decoded records kept for Get.
const cacheSize = 1024

// Library is a SQLite-backed record store.
type Library struct {
	db    *sql.DB
	dsn   string
	cache *lru.Cache[string, *medline.Record]
}

// ImportStats summarizes an Import.
type ImportStats struct {
	Inserted int
	Skipped  int
}

// Open opens (creating if needed) the library at dsn.
func Open(ctx context.Context, dsn string) (*Library, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.NewIO("open", dsn, err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "initialize schema in %s", dsn)
	}

	cache, err := lru.New[string, *medline.Record](cacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	logging.DebugContext(ctx, "library_open", "dsn", dsn, "driver", driverType)
	return &Library{db: db, dsn: dsn, cache: cache}, nil
}

// Close closes the database.
func (l *Library) Close() error {
	return l.db.Close()
}

// DSN returns the data source the library was opened with.
func (l *Library) DSN() string {
	return l.dsn
}

// Fingerprint returns the BLAKE3 hash of a record's content. Field order
// does not affect it.
func Fingerprint(rec *medline.Record) (string, error) {
	canonical := make(map[string]any, rec.Len())
	for _, name := range rec.Names() {
		v, _ := rec.Value(name)
		if v.Array {
			canonical[name] = v.Items
		} else {
			canonical[name] = v.Text
		}
	}
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", err
	}
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Put stores rec unless an identical record is already present. It returns
// the stored record's ID and whether a new row was written.
func (l *Library) Put(ctx context.Context, rec *medline.Record) (string, bool, error) {
	return put(ctx, l.db, rec)
}

func put(ctx context.Context, db execer, rec *medline.Record) (string, bool, error) {
	fp, err := Fingerprint(rec)
	if err != nil {
		return "", false, errors.Wrap(err, "fingerprint record")
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return "", false, errors.Wrap(err, "encode record")
	}
	recNo, _ := rec.Get("recNo")

	id := uuid.NewString()
	res, err := db.ExecContext(ctx,
		`INSERT INTO records (id, fingerprint, rec_no, type, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO NOTHING`,
		id, fp, recNo, rec.Type(), string(body), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", false, errors.Wrap(err, "insert record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return id, true, nil
	}

	var existing string
	if err := db.QueryRowContext(ctx, `SELECT id FROM records WHERE fingerprint = ?`, fp).Scan(&existing); err != nil {
		return "", false, errors.Wrap(err, "look up existing record")
	}
	return existing, false, nil
}

// Import stores every record of seq in one transaction. The first error
// from seq or the database rolls the whole import back.
func (l *Library) Import(ctx context.Context, seq iter.Seq2[*medline.Record, error]) (ImportStats, error) {
	var stats ImportStats

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, errors.Wrap(err, "begin import")
	}
	defer tx.Rollback()

	for rec, err := range seq {
		if err != nil {
			return ImportStats{}, err
		}
		_, inserted, err := put(ctx, tx, rec)
		if err != nil {
			return ImportStats{}, err
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, errors.Wrap(err, "commit import")
	}
	logging.ImportComplete(ctx, l.dsn, stats.Inserted, stats.Skipped)
	return stats, nil
}

// Get returns the record stored under id. The caller owns the result.
func (l *Library) Get(ctx context.Context, id string) (*medline.Record, error) {
	if rec, ok := l.cache.Get(id); ok {
		return rec.Clone(), nil
	}

	var body string
	err := l.db.QueryRowContext(ctx, `SELECT body FROM records WHERE id = ?`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("record", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get record %s", id)
	}
	rec, err := decode(body)
	if err != nil {
		return nil, err
	}
	l.cache.Add(id, rec)
	return rec.Clone(), nil
}

// FindByRecNo returns every record with the given PMID, in insertion order.
func (l *Library) FindByRecNo(ctx context.Context, recNo string) ([]*medline.Record, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT body FROM records WHERE rec_no = ? ORDER BY seq`, recNo)
	if err != nil {
		return nil, errors.Wrapf(err, "find records %s", recNo)
	}
	return scanRecords(rows)
}

// Count returns the number of stored records.
func (l *Library) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count records")
	}
	return n, nil
}

// List returns up to limit records starting at offset, in insertion order.
func (l *Library) List(ctx context.Context, offset, limit int) ([]*medline.Record, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT body FROM records ORDER BY seq LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list records")
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*medline.Record, error) {
	defer rows.Close()
	var out []*medline.Record
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, errors.Wrap(err, "scan record")
		}
		rec, err := decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate records")
	}
	return out, nil
}

func decode(body string) (*medline.Record, error) {
	rec := medline.NewRecord()
	if err := json.Unmarshal([]byte(body), rec); err != nil {
		return nil, errors.Wrap(err, "decode stored record")
	}
	return rec, nil
}

// Producer pages through the library for medline.Emit, pageSize records
// per batch in insertion order. Batch n reads the page at offset
// n*pageSize; the final page is marked last.
func (l *Library) Producer(pageSize int) medline.Producer {
	if pageSize <= 0 {
		pageSize = 100
	}
	return medline.ProducerFunc(func(ctx context.Context, batch int) (medline.Batch, error) {
		// One extra row tells whether another page follows.
		recs, err := l.List(ctx, batch*pageSize, pageSize+1)
		if err != nil {
			return medline.Batch{}, err
		}
		if len(recs) == 0 {
			return medline.DoneBatch(), nil
		}
		last := len(recs) <= pageSize
		if !last {
			recs = recs[:pageSize]
		}
		logging.DebugContext(ctx, "library_page", "batch", batch, "records", len(recs), "last", last)
		return medline.RecordsBatch(recs, last), nil
	})
}
