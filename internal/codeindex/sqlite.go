package codeindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a SQLite-backed implementation of Index and Issues. Error
// strings and issues are additionally indexed in FTS5 virtual tables so
// diagnostic lookups can match message fragments, not just exact text.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the index database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL,
			symbol TEXT NOT NULL,
			kind TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			signature TEXT,
			docstring TEXT,
			calls TEXT,
			callers TEXT,
			raises TEXT,
			mutates TEXT,
			error_strings TEXT,
			content_hash TEXT NOT NULL,
			UNIQUE(file_path, symbol)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_symbol ON entries(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_file ON entries(file_path)`,
		// FTS5 over literal error strings, joined back via entry_id.
		`CREATE VIRTUAL TABLE IF NOT EXISTS error_strings_fts USING fts5(
			entry_id UNINDEXED,
			text,
			tokenize = 'unicode61 remove_diacritics 0'
		)`,
		`CREATE TABLE IF NOT EXISTS issues (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS issues_fts USING fts5(
			issue_id UNINDEXED,
			text,
			tokenize = 'unicode61 remove_diacritics 0'
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate index schema: %w", err)
		}
	}
	return nil
}

// PutEntries upserts entries and refreshes their FTS rows in one
// transaction. FTS5 tables do not support INSERT OR REPLACE, so stale rows
// are deleted first.
func (s *Store) PutEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO entries
			(file_path, symbol, kind, start_line, end_line, signature, docstring,
			 calls, callers, raises, mutates, error_strings, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path, symbol) DO UPDATE SET
			kind=excluded.kind, start_line=excluded.start_line,
			end_line=excluded.end_line, signature=excluded.signature,
			docstring=excluded.docstring, calls=excluded.calls,
			callers=excluded.callers, raises=excluded.raises,
			mutates=excluded.mutates, error_strings=excluded.error_strings,
			content_hash=excluded.content_hash`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry upsert: %w", err)
	}
	defer upsert.Close()

	for _, e := range entries {
		if _, err := upsert.ExecContext(ctx,
			e.FilePath, e.Symbol, e.Kind, e.StartLine, e.EndLine,
			e.Signature, e.Docstring,
			encodeList(e.Calls), encodeList(e.Callers), encodeList(e.Raises),
			encodeList(e.Mutates), encodeList(e.ErrorStrings), e.ContentHash,
		); err != nil {
			return fmt.Errorf("failed to upsert entry %s::%s: %w", e.FilePath, e.Symbol, err)
		}

		var entryID int64
		row := tx.QueryRowContext(ctx,
			`SELECT id FROM entries WHERE file_path = ? AND symbol = ?`,
			e.FilePath, e.Symbol)
		if err := row.Scan(&entryID); err != nil {
			return fmt.Errorf("failed to look up entry id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM error_strings_fts WHERE entry_id = ?`, entryID); err != nil {
			return fmt.Errorf("failed to clear error-string index: %w", err)
		}
		for _, es := range e.ErrorStrings {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO error_strings_fts (entry_id, text) VALUES (?, ?)`,
				entryID, es); err != nil {
				return fmt.Errorf("failed to index error string: %w", err)
			}
		}
	}

	return tx.Commit()
}

// PutIssues appends issues and indexes them for full-text search.
func (s *Store) PutIssues(ctx context.Context, issues []Issue) error {
	if len(issues) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, is := range issues {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO issues (file_path, category, title, content) VALUES (?, ?, ?, ?)`,
			is.FilePath, is.Category, is.Title, is.Content)
		if err != nil {
			return fmt.Errorf("failed to insert issue: %w", err)
		}
		issueID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read issue id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO issues_fts (issue_id, text) VALUES (?, ?)`,
			issueID, is.Title+" "+is.Content+" "+is.FilePath); err != nil {
			return fmt.Errorf("failed to index issue: %w", err)
		}
	}

	return tx.Commit()
}

// FindByFile returns entries whose file path contains scope.
func (s *Store) FindByFile(ctx context.Context, scope string) ([]Entry, error) {
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE file_path LIKE ? ORDER BY file_path, start_line`,
		"%"+scope+"%")
}

// FindBySymbol returns entries whose symbol name matches name exactly.
func (s *Store) FindBySymbol(ctx context.Context, name string) ([]Entry, error) {
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE symbol = ? ORDER BY file_path, start_line`,
		name)
}

// FindByRaises returns entries that raise the named exception.
func (s *Store) FindByRaises(ctx context.Context, exceptionName string) ([]Entry, error) {
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE raises LIKE ? ORDER BY file_path, start_line`,
		`%"`+exceptionName+`"%`)
}

// FindByErrorString full-text searches literal error strings.
func (s *Store) FindByErrorString(ctx context.Context, text string) ([]Entry, error) {
	query := ftsQuery(text)
	if query == "" {
		return nil, nil
	}
	return s.queryEntries(ctx,
		`SELECT `+prefixedEntryColumns+` FROM entries e
		 JOIN error_strings_fts f ON f.entry_id = e.id
		 WHERE error_strings_fts MATCH ?
		 GROUP BY e.id
		 ORDER BY bm25(error_strings_fts)`,
		query)
}

// Callees returns entries for the symbols a symbol calls.
func (s *Store) Callees(ctx context.Context, symbol string) ([]Entry, error) {
	return s.related(ctx, symbol, func(e Entry) []string { return e.Calls })
}

// Callers returns entries for the symbols that call a symbol.
func (s *Store) Callers(ctx context.Context, symbol string) ([]Entry, error) {
	return s.related(ctx, symbol, func(e Entry) []string { return e.Callers })
}

func (s *Store) related(ctx context.Context, symbol string, pick func(Entry) []string) ([]Entry, error) {
	owners, err := s.FindBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []Entry
	for _, owner := range owners {
		for _, name := range pick(owner) {
			if seen[name] {
				continue
			}
			seen[name] = true
			matches, err := s.FindBySymbol(ctx, name)
			if err != nil {
				return nil, err
			}
			out = append(out, matches...)
		}
	}
	return out, nil
}

// QueryIssues full-text searches issues, returning at most limit.
func (s *Store) QueryIssues(ctx context.Context, query string, limit int) ([]Issue, error) {
	match := ftsQuery(query)
	if match == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT i.file_path, i.category, i.title, i.content
		 FROM issues i
		 JOIN issues_fts f ON f.issue_id = i.id
		 WHERE issues_fts MATCH ?
		 ORDER BY bm25(issues_fts)
		 LIMIT ?`,
		match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var out []Issue
	for rows.Next() {
		var is Issue
		if err := rows.Scan(&is.FilePath, &is.Category, &is.Title, &is.Content); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		out = append(out, is)
	}
	return out, rows.Err()
}

const entryColumns = `file_path, symbol, kind, start_line, end_line, signature, docstring,
	calls, callers, raises, mutates, error_strings, content_hash`

const prefixedEntryColumns = `e.file_path, e.symbol, e.kind, e.start_line, e.end_line,
	e.signature, e.docstring, e.calls, e.callers, e.raises, e.mutates, e.error_strings,
	e.content_hash`

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var signature, docstring sql.NullString
		var calls, callers, raises, mutates, errorStrings string
		if err := rows.Scan(
			&e.FilePath, &e.Symbol, &e.Kind, &e.StartLine, &e.EndLine,
			&signature, &docstring,
			&calls, &callers, &raises, &mutates, &errorStrings, &e.ContentHash,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Signature = signature.String
		e.Docstring = docstring.String
		e.Calls = decodeList(calls)
		e.Callers = decodeList(callers)
		e.Raises = decodeList(raises)
		e.Mutates = decodeList(mutates)
		e.ErrorStrings = decodeList(errorStrings)
		out = append(out, e)
	}
	return out, rows.Err()
}

func encodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil
	}
	return out
}

// ftsQuery turns free text into a conservative FTS5 query: each token is
// quoted so operator characters in error messages cannot break the match
// expression.
func ftsQuery(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" {
			continue
		}
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " ")
}
