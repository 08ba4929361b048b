// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lexicon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"corpy/db/mysql"
	"corpy/db/sqlite"

	vtedb "github.com/czcorpus/vert-tagextract/v3/db"
	"github.com/rs/zerolog/log"
)

const (
	DBTypeMySQL  = "mysql"
	DBTypeSQLite = "sqlite"

	DfltTablePrefix = "corpy"
	DfltChunkSize   = 500
)

var (
	ErrInvalidTablePrefix = errors.New("invalid table prefix")
	tablePrefixRegexp     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

type TablePrefix string

func (tp TablePrefix) Validate() error {
	if !tablePrefixRegexp.MatchString(string(tp)) {
		return fmt.Errorf("%w: %s", ErrInvalidTablePrefix, string(tp))
	}
	return nil
}

func (tp TablePrefix) Table() string {
	return string(tp) + "_pronunciation"
}

// Entry is an aggregated pronunciation of a word
type Entry struct {
	Word          string `json:"word"`
	Alphabet      string `json:"alphabet"`
	Transcription string `json:"transcription"`
	Freq          int    `json:"freq"`
	RunID         string `json:"runId"`
}

// ---------------------------

type dialect struct {
	createTable  string
	upsertSuffix string
}

var mysqlDialect = dialect{
	createTable: `
CREATE TABLE IF NOT EXISTS %s (
    word VARCHAR(100) NOT NULL,
    alphabet VARCHAR(10) NOT NULL,
    transcription VARCHAR(255) NOT NULL,
    freq INT NOT NULL DEFAULT 0,
    run_id VARCHAR(36) NOT NULL,
    PRIMARY KEY (word, alphabet, transcription)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	upsertSuffix: " ON DUPLICATE KEY UPDATE freq = freq + VALUES(freq), run_id = VALUES(run_id)",
}

var sqliteDialect = dialect{
	createTable: `
CREATE TABLE IF NOT EXISTS %s (
    word TEXT NOT NULL,
    alphabet TEXT NOT NULL,
    transcription TEXT NOT NULL,
    freq INTEGER NOT NULL DEFAULT 0,
    run_id TEXT NOT NULL,
    PRIMARY KEY (word, alphabet, transcription)
)`,
	upsertSuffix: " ON CONFLICT(word, alphabet, transcription) " +
		"DO UPDATE SET freq = freq + excluded.freq, run_id = excluded.run_id",
}

// ---------------------------

// Storage is a pronunciation lexicon stored in an SQL database
type Storage struct {
	db      *sql.DB
	dialect dialect
	prefix  TablePrefix
	info    string
}

func (s *Storage) Info() string {
	return s.info
}

func (s *Storage) DB() *sql.DB {
	return s.db
}

// CreateTables creates the lexicon table. With replace set to true,
// any existing table is dropped first.
func (s *Storage) CreateTables(ctx context.Context, replace bool) error {
	if replace {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", s.prefix.Table())); err != nil {
			return fmt.Errorf("failed to create lexicon tables: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(s.dialect.createTable, s.prefix.Table())); err != nil {
		return fmt.Errorf("failed to create lexicon tables: %w", err)
	}
	return nil
}

func (s *Storage) insertSQL(numRows int) string {
	var insTpl strings.Builder
	for i := 0; i < numRows; i++ {
		if i > 0 {
			insTpl.WriteString(", ")
		}
		insTpl.WriteString("(?, ?, ?, ?, ?)")
	}
	return fmt.Sprintf(
		"INSERT INTO %s (word, alphabet, transcription, freq, run_id) VALUES %s%s",
		s.prefix.Table(),
		insTpl.String(),
		s.dialect.upsertSuffix,
	)
}

// InsertChunk inserts entries using a single multi-row statement. Entries
// already present have their frequencies increased. In case the chunk
// cannot be inserted, rows are inserted one by one and failing ones
// are logged and ignored.
func (s *Storage) InsertChunk(ctx context.Context, tx *sql.Tx, data []Entry) error {
	if len(data) == 0 {
		return nil
	}
	dataArgs := make([]any, 0, len(data)*5)
	for _, v := range data {
		dataArgs = append(dataArgs, v.Word, v.Alphabet, v.Transcription, v.Freq, v.RunID)
	}
	_, err := tx.ExecContext(ctx, s.insertSQL(len(data)), dataArgs...)
	if err != nil {
		log.Warn().Err(err).Msg("failed to insert row chunk, trying one by one")
		for _, item := range data {
			_, err := tx.ExecContext(
				ctx,
				s.insertSQL(1),
				item.Word, item.Alphabet, item.Transcription, item.Freq, item.RunID,
			)
			if err != nil {
				log.Error().Err(err).Any("values", item).Msg("failed to insert single row, ignoring")
			}
		}
	}
	return nil
}

// Insert inserts all the entries within a single transaction
// in chunks of the provided size.
func (s *Storage) Insert(ctx context.Context, data []Entry, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = DfltChunkSize
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to insert lexicon entries: %w", err)
	}
	for i := 0; i < len(data); i += chunkSize {
		if err := s.InsertChunk(ctx, tx, data[i:min(i+chunkSize, len(data))]); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert lexicon entries: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to insert lexicon entries: %w", err)
	}
	return nil
}

// Search finds all known pronunciations of a word (case insensitive),
// the most frequent ones first. An empty alphabet matches any alphabet.
func (s *Storage) Search(ctx context.Context, word, alphabet string) ([]Entry, error) {
	query := "SELECT word, alphabet, transcription, freq, run_id " +
		fmt.Sprintf("FROM %s ", s.prefix.Table()) +
		"WHERE word = ?"
	args := []any{strings.ToLower(word)}
	if alphabet != "" {
		query += " AND alphabet = ?"
		args = append(args, alphabet)
	}
	query += " ORDER BY freq DESC, alphabet, transcription"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search the lexicon: %w", err)
	}
	defer rows.Close()
	ans := make([]Entry, 0, 10)
	for rows.Next() {
		var item Entry
		if err := rows.Scan(&item.Word, &item.Alphabet, &item.Transcription, &item.Freq, &item.RunID); err != nil {
			return nil, fmt.Errorf("failed to search the lexicon: %w", err)
		}
		ans = append(ans, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to search the lexicon: %w", err)
	}
	return ans, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Open opens a lexicon storage. For the `sqlite` type, the database
// name is considered to be a path to a database file.
func Open(conf vtedb.Conf, prefix TablePrefix) (*Storage, error) {
	if prefix == "" {
		prefix = DfltTablePrefix
	}
	if err := prefix.Validate(); err != nil {
		return nil, fmt.Errorf("failed to open lexicon: %w", err)
	}
	switch conf.Type {
	case DBTypeSQLite:
		db, err := sqlite.OpenDB(conf.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to open lexicon: %w", err)
		}
		return &Storage{db: db, dialect: sqliteDialect, prefix: prefix, info: "sqlite:" + conf.Name}, nil
	default:
		adapter, err := mysql.OpenDB(conf)
		if err != nil {
			return nil, fmt.Errorf("failed to open lexicon: %w", err)
		}
		return &Storage{db: adapter.DB(), dialect: mysqlDialect, prefix: prefix, info: adapter.Info()}, nil
	}
}

// OpenForImport opens a lexicon storage tuned for bulk import.
// For MySQL, the session has unique and foreign key checks disabled.
func OpenForImport(conf vtedb.Conf, prefix TablePrefix) (*Storage, error) {
	if conf.Type == DBTypeSQLite {
		return Open(conf, prefix)
	}
	if prefix == "" {
		prefix = DfltTablePrefix
	}
	if err := prefix.Validate(); err != nil {
		return nil, fmt.Errorf("failed to open lexicon: %w", err)
	}
	adapter, err := mysql.OpenImportTunedDB(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon: %w", err)
	}
	return &Storage{db: adapter.DB(), dialect: mysqlDialect, prefix: prefix, info: adapter.Info()}, nil
}
