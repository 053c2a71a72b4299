package storage

import (
	"database/sql"
	"fmt"

	"github.com/matsen/citeweb/internal/record"
	_ "modernc.org/sqlite"
)

// Edge kinds stored in the index.
const (
	EdgeCites   = "cites"   // source cites target
	EdgeCocites = "cocites" // target is co-cited with source
)

// DB wraps a SQLite query index rebuilt from a snapshot.
type DB struct {
	db *sql.DB
}

// IndexedRecord is the queryable summary of a record.
type IndexedRecord struct {
	ID       string `json:"id"`
	BibKey   string `json:"bibkey,omitempty"`
	Label    string `json:"label"`
	Year     int    `json:"year,omitempty"`
	Complete bool   `json:"complete"`
}

// selectRecordFields contains the standard field list for SELECT queries.
const selectRecordFields = `id, bibkey, label, pub_year, complete`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			bibkey TEXT,
			custom_label TEXT,
			label TEXT NOT NULL,
			fulltext_url TEXT,
			pub_year INTEGER,
			references_fetched INTEGER NOT NULL,
			citations_fetched INTEGER NOT NULL,
			cocitations_fetched INTEGER NOT NULL,
			info_fetched INTEGER NOT NULL,
			complete INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_records_bibkey ON records(bibkey) WHERE bibkey IS NOT NULL AND bibkey != '';

		CREATE TABLE IF NOT EXISTS edges (
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			PRIMARY KEY (source_id, target_id, kind)
		);

		CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id, kind);
	`
	_, err := db.Exec(schema)
	return err
}

// RebuildFromRecords clears the index and fills it from records.
func (d *DB) RebuildFromRecords(records []*record.Record) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records"); err != nil {
		return 0, fmt.Errorf("clearing records table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM edges"); err != nil {
		return 0, fmt.Errorf("clearing edges table: %w", err)
	}

	recStmt, err := tx.Prepare(`
		INSERT INTO records (
			id, bibkey, custom_label, label, fulltext_url, pub_year,
			references_fetched, citations_fetched, cocitations_fetched, info_fetched, complete
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing records insert: %w", err)
	}
	defer recStmt.Close()

	edgeStmt, err := tx.Prepare(`INSERT OR IGNORE INTO edges (source_id, target_id, kind) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing edges insert: %w", err)
	}
	defer edgeStmt.Close()

	for _, rec := range records {
		year, ok := rec.Year()
		_, err := recStmt.Exec(
			rec.ID, nullableStringValue(rec.BibKey), nullableStringValue(rec.CustomLabel), rec.Label(),
			nullableStringValue(rec.FulltextURL), sql.NullInt64{Int64: int64(year), Valid: ok},
			rec.ReferencesFetched, rec.CitationsFetched, rec.CocitationsFetched, rec.InfoFetched,
			rec.IsComplete(),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting record %s: %w", rec.ID, err)
		}

		for ref := range rec.References {
			if _, err := edgeStmt.Exec(rec.ID, ref, EdgeCites); err != nil {
				return 0, fmt.Errorf("inserting edge %s->%s: %w", rec.ID, ref, err)
			}
		}
		for cit := range rec.Citations {
			if _, err := edgeStmt.Exec(cit, rec.ID, EdgeCites); err != nil {
				return 0, fmt.Errorf("inserting edge %s->%s: %w", cit, rec.ID, err)
			}
		}
		for co := range rec.Cocitations {
			if _, err := edgeStmt.Exec(rec.ID, co, EdgeCocites); err != nil {
				return 0, fmt.Errorf("inserting co-citation %s~%s: %w", rec.ID, co, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing index: %w", err)
	}
	return len(records), nil
}

// GetByID retrieves an indexed record, or nil if it is not indexed.
func (d *DB) GetByID(id string) (*IndexedRecord, error) {
	row := d.db.QueryRow(`SELECT `+selectRecordFields+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// FindByBibKey returns records whose bibkey matches a LIKE pattern.
func (d *DB) FindByBibKey(pattern string, limit int) ([]IndexedRecord, error) {
	rows, err := d.db.Query(`SELECT `+selectRecordFields+` FROM records
		WHERE bibkey LIKE ? ORDER BY bibkey LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("querying bibkeys: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListIncomplete returns records still missing some information.
func (d *DB) ListIncomplete(limit int) ([]IndexedRecord, error) {
	rows, err := d.db.Query(`SELECT `+selectRecordFields+` FROM records
		WHERE complete = 0 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying incomplete records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Citing returns ids of records that cite id.
func (d *DB) Citing(id string) ([]string, error) {
	return d.queryIDs(`SELECT source_id FROM edges WHERE target_id = ? AND kind = ? ORDER BY source_id`, id, EdgeCites)
}

// CitedBy returns ids of records cited by id.
func (d *DB) CitedBy(id string) ([]string, error) {
	return d.queryIDs(`SELECT target_id FROM edges WHERE source_id = ? AND kind = ? ORDER BY target_id`, id, EdgeCites)
}

// CountsByYear returns the number of indexed records per publication year.
func (d *DB) CountsByYear() (map[int]int, error) {
	rows, err := d.db.Query(`SELECT pub_year, COUNT(*) FROM records WHERE pub_year IS NOT NULL GROUP BY pub_year`)
	if err != nil {
		return nil, fmt.Errorf("counting by year: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var year, n int
		if err := rows.Scan(&year, &n); err != nil {
			return nil, err
		}
		counts[year] = n
	}
	return counts, rows.Err()
}

// Count returns the number of indexed records.
func (d *DB) Count() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}

func (d *DB) queryIDs(query string, args ...any) ([]string, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*IndexedRecord, error) {
	var rec IndexedRecord
	var bibKey sql.NullString
	var year sql.NullInt64
	if err := s.Scan(&rec.ID, &bibKey, &rec.Label, &year, &rec.Complete); err != nil {
		return nil, err
	}
	rec.BibKey = bibKey.String
	rec.Year = int(year.Int64)
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]IndexedRecord, error) {
	var recs []IndexedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func nullableStringValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
