package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.marginalia/data/annotations.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".marginalia", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "annotations.db")

	// Pragmas in the DSN apply to every pooled connection
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// AnnotationStore returns an AnnotationStore backed by this store.
func (s *Store) AnnotationStore() driven.AnnotationStore {
	return &annotationStore{store: s}
}

// DocumentStore returns a DocumentStore backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, content string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(content); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Annotation Store ====================

// annotationStore implements driven.AnnotationStore.
type annotationStore struct {
	store *Store
}

var _ driven.AnnotationStore = (*annotationStore)(nil)

const anchorColumns = `a.id, a.document_hash, a.page, a.rects, a.exact, a.prefix, a.suffix, a.created_at`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveAnchor stores a new anchor with its highlights and memos in one
// transaction.
func (s *annotationStore) SaveAnchor(ctx context.Context, bundle *domain.AnnotationBundle) error {
	anchor := &bundle.Anchor
	rects, err := json.Marshal(nonNilRects(anchor.Rects))
	if err != nil {
		return fmt.Errorf("marshalling rects: %w", err)
	}

	signature := anchor.ID
	if anchor.IsPageLevel() {
		signature = driven.PageSignature
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO anchors (id, document_hash, page, signature, rects, exact, prefix, suffix, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, anchor.ID, anchor.DocumentHash, anchor.Page, signature, string(rects),
		anchor.Quote.Exact, anchor.Quote.Prefix, anchor.Quote.Suffix, anchor.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving anchor %s: %w", anchor.ID, classify(err))
	}

	for i := range bundle.Highlights {
		h := bundle.Highlights[i]
		h.AnchorID = anchor.ID
		if err := insertHighlight(ctx, tx, &h); err != nil {
			return err
		}
	}
	for i := range bundle.Memos {
		m := bundle.Memos[i]
		m.AnchorID = anchor.ID
		if err := insertMemo(ctx, tx, &m); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing anchor %s: %w", anchor.ID, err)
	}
	return nil
}

// GetAnchor retrieves an anchor by ID.
func (s *annotationStore) GetAnchor(ctx context.Context, id string) (*domain.Anchor, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+anchorColumns+` FROM anchors a WHERE a.id = ?`, id)
	anchor, err := scanAnchor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("anchor %s: %w", id, domain.ErrNotFound)
	}
	return anchor, err
}

// FindPageAnchor returns the page-level anchor for a page.
func (s *annotationStore) FindPageAnchor(ctx context.Context, key domain.PageKey) (*domain.Anchor, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+anchorColumns+` FROM anchors a
		WHERE a.document_hash = ? AND a.page = ? AND a.signature = ?
	`, key.DocumentHash, key.Page, driven.PageSignature)
	anchor, err := scanAnchor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page anchor for %s: %w", key, domain.ErrNotFound)
	}
	return anchor, err
}

func insertHighlight(ctx context.Context, db execer, h *domain.Highlight) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO highlights (id, anchor_id, color, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, h.ID, h.AnchorID, h.Color, h.CreatedBy, h.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving highlight on anchor %s: %w", h.AnchorID, classify(err))
	}
	return nil
}

// DeleteHighlight removes a highlight.
func (s *annotationStore) DeleteHighlight(ctx context.Context, id string) error {
	return s.store.deleteByID(ctx, "highlights", "highlight", id)
}

// SaveMemo stores a new memo.
func (s *annotationStore) SaveMemo(ctx context.Context, m *domain.Memo) error {
	return insertMemo(ctx, s.store.db, m)
}

func insertMemo(ctx context.Context, db execer, m *domain.Memo) error {
	updated := m.UpdatedAt
	if updated.IsZero() {
		updated = m.CreatedAt
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO memos (id, anchor_id, body, created_by, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.AnchorID, m.Body, m.CreatedBy, nullString(m.ParentID), m.CreatedAt.UTC(), updated.UTC())
	if err != nil {
		return fmt.Errorf("saving memo on anchor %s: %w", m.AnchorID, classify(err))
	}
	return nil
}

// GetMemo retrieves a memo by ID.
func (s *annotationStore) GetMemo(ctx context.Context, id string) (*domain.Memo, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, anchor_id, body, created_by, parent_id, created_at, updated_at FROM memos WHERE id = ?
	`, id)
	m, err := scanMemo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("memo %s: %w", id, domain.ErrNotFound)
	}
	return m, err
}

// UpdateMemo replaces a memo's body and UpdatedAt.
func (s *annotationStore) UpdateMemo(ctx context.Context, m *domain.Memo) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE memos SET body = ?, updated_at = ? WHERE id = ?
	`, m.Body, m.UpdatedAt.UTC(), m.ID)
	if err != nil {
		return fmt.Errorf("updating memo %s: %w", m.ID, err)
	}
	return expectOne(res, "memo", m.ID)
}

// DeleteMemo removes a memo.
func (s *annotationStore) DeleteMemo(ctx context.Context, id string) error {
	return s.store.deleteByID(ctx, "memos", "memo", id)
}

// ListPage returns every anchor on a page with its highlight and memos.
func (s *annotationStore) ListPage(ctx context.Context, key domain.PageKey) ([]domain.AnnotationBundle, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+anchorColumns+` FROM anchors a
		WHERE a.document_hash = ? AND a.page = ?
		ORDER BY a.rowid
	`, key.DocumentHash, key.Page)
	if err != nil {
		return nil, fmt.Errorf("querying anchors: %w", err)
	}
	defer rows.Close()

	var bundles []domain.AnnotationBundle //nolint:prealloc // size unknown from query
	index := make(map[string]int)
	for rows.Next() {
		anchor, err := scanAnchor(rows)
		if err != nil {
			return nil, err
		}
		index[anchor.ID] = len(bundles)
		bundles = append(bundles, domain.AnnotationBundle{Anchor: *anchor})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating anchors: %w", err)
	}
	if len(bundles) == 0 {
		return bundles, nil
	}

	if err := s.attachHighlights(ctx, key, bundles, index); err != nil {
		return nil, err
	}
	if err := s.attachMemos(ctx, key, bundles, index); err != nil {
		return nil, err
	}
	return bundles, nil
}

func (s *annotationStore) attachHighlights(ctx context.Context, key domain.PageKey, bundles []domain.AnnotationBundle, index map[string]int) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT h.id, h.anchor_id, h.color, h.created_by, h.created_at
		FROM highlights h JOIN anchors a ON a.id = h.anchor_id
		WHERE a.document_hash = ? AND a.page = ?
		ORDER BY h.rowid
	`, key.DocumentHash, key.Page)
	if err != nil {
		return fmt.Errorf("querying highlights: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return err
		}
		if i, ok := index[h.AnchorID]; ok {
			bundles[i].Highlights = append(bundles[i].Highlights, *h)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating highlights: %w", err)
	}
	return nil
}

func (s *annotationStore) attachMemos(ctx context.Context, key domain.PageKey, bundles []domain.AnnotationBundle, index map[string]int) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT m.id, m.anchor_id, m.body, m.created_by, m.parent_id, m.created_at, m.updated_at
		FROM memos m JOIN anchors a ON a.id = m.anchor_id
		WHERE a.document_hash = ? AND a.page = ?
		ORDER BY m.rowid
	`, key.DocumentHash, key.Page)
	if err != nil {
		return fmt.Errorf("querying memos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMemo(rows)
		if err != nil {
			return err
		}
		if i, ok := index[m.AnchorID]; ok {
			bundles[i].Memos = append(bundles[i].Memos, *m)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating memos: %w", err)
	}
	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.DocumentInfo) error {
	if doc.Hash == "" {
		return fmt.Errorf("%w: document hash is required", domain.ErrValidation)
	}
	pages, err := json.Marshal(doc.Pages)
	if err != nil {
		return fmt.Errorf("marshalling pages: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (hash, path, page_count, pages, opened_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			path = excluded.path,
			page_count = excluded.page_count,
			pages = excluded.pages,
			opened_at = excluded.opened_at
	`, doc.Hash, doc.Path, doc.PageCount, string(pages), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by hash.
func (s *documentStore) GetDocument(ctx context.Context, hash string) (*domain.DocumentInfo, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT hash, path, page_count, pages FROM documents WHERE hash = ?
	`, hash)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", hash, domain.ErrNotFound)
	}
	return doc, err
}

// ListDocuments returns all documents ordered by path.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT hash, path, page_count, pages FROM documents ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentInfo //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// ==================== Helpers ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAnchor(row scanner) (*domain.Anchor, error) {
	var a domain.Anchor
	var rects string
	var createdAt sql.NullTime
	if err := row.Scan(&a.ID, &a.DocumentHash, &a.Page, &rects,
		&a.Quote.Exact, &a.Quote.Prefix, &a.Quote.Suffix, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning anchor: %w", err)
	}
	if err := json.Unmarshal([]byte(rects), &a.Rects); err != nil {
		return nil, fmt.Errorf("unmarshalling rects for anchor %s: %w", a.ID, err)
	}
	if len(a.Rects) == 0 {
		a.Rects = nil
	}
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	return &a, nil
}

func scanHighlight(row scanner) (*domain.Highlight, error) {
	var h domain.Highlight
	var createdAt sql.NullTime
	if err := row.Scan(&h.ID, &h.AnchorID, &h.Color, &h.CreatedBy, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning highlight: %w", err)
	}
	if createdAt.Valid {
		h.CreatedAt = createdAt.Time
	}
	return &h, nil
}

func scanMemo(row scanner) (*domain.Memo, error) {
	var m domain.Memo
	var parentID sql.NullString
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&m.ID, &m.AnchorID, &m.Body, &m.CreatedBy, &parentID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning memo: %w", err)
	}
	m.ParentID = parentID.String
	if createdAt.Valid {
		m.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		m.UpdatedAt = updatedAt.Time
	}
	return &m, nil
}

func scanDocument(row scanner) (*domain.DocumentInfo, error) {
	var doc domain.DocumentInfo
	var pages string
	if err := row.Scan(&doc.Hash, &doc.Path, &doc.PageCount, &pages); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	if err := json.Unmarshal([]byte(pages), &doc.Pages); err != nil {
		return nil, fmt.Errorf("unmarshalling pages for %s: %w", doc.Hash, err)
	}
	return &doc, nil
}

func (s *Store) deleteByID(ctx context.Context, table, kind, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", kind, id, err)
	}
	return expectOne(res, kind, id)
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

// classify maps constraint failures onto domain errors.
func classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "PRIMARY KEY constraint failed"):
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, msg)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: referenced anchor does not exist", domain.ErrNotFound)
	default:
		return err
	}
}

func nonNilRects(rects []domain.NormalizedRect) []domain.NormalizedRect {
	if rects == nil {
		return []domain.NormalizedRect{}
	}
	return rects
}

// nullString converts an empty string to NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
