package storage

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	*sqlStore
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// One writer at a time; registrations must not interleave.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{sqlStore: &sqlStore{db: db}}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLiteRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sections (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		subject_code TEXT NOT NULL,
		subject_name TEXT NOT NULL DEFAULT '',
		section_number TEXT NOT NULL DEFAULT '',
		capacity INTEGER NOT NULL CHECK (capacity >= 0),
		enrolled_count INTEGER NOT NULL DEFAULT 0,
		sessions_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS registrations (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		section_id TEXT NOT NULL REFERENCES sections(id),
		subject_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (student_id, subject_id)
	);

	CREATE INDEX IF NOT EXISTS idx_sections_subject_id ON sections(subject_id);
	CREATE INDEX IF NOT EXISTS idx_registrations_student_id ON registrations(student_id);
	`

	_, err := r.db.Exec(schema)
	return err
}
