// Package templates persists order templates in SQLite. Templates carry
// the order field values and matchpoints applied to order-level records
// during acquisitions and selection runs.
package templates

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS templates (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    name                  TEXT NOT NULL UNIQUE,
    agent                 TEXT NOT NULL,
    blanket_po            TEXT,
    country               TEXT,
    format                TEXT,
    fund                  TEXT,
    internal_note         TEXT,
    lang                  TEXT,
    order_code_1          TEXT,
    order_code_2          TEXT,
    order_code_3          TEXT,
    order_code_4          TEXT,
    order_type            TEXT,
    selector_note         TEXT,
    status                TEXT,
    vendor_code           TEXT,
    vendor_notes          TEXT,
    vendor_title_no       TEXT,
    primary_matchpoint    TEXT NOT NULL,
    secondary_matchpoint  TEXT,
    tertiary_matchpoint   TEXT
);
`

// Store manages template persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the template database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure template db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create templates table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts a new template and returns it with its assigned id.
func (s *Store) Save(ctx context.Context, t *bibs.Template) (*bibs.Template, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO templates (`+templateColumns+`) VALUES (`+makePlaceholders(21)+`)`,
		templateArgs(t)...,
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a template by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*bibs.Template, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, `+templateColumns+` FROM templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %d: %w", id, errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// GetByName fetches a template by its unique name.
func (s *Store) GetByName(ctx context.Context, name string) (*bibs.Template, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, `+templateColumns+` FROM templates WHERE name = ?`, name)
	t, err := scanTemplate(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %q: %w", name, errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// List returns all templates ordered by name.
func (s *Store) List(ctx context.Context) ([]*bibs.Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, `+templateColumns+` FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []*bibs.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update persists changes to an existing template.
func (s *Store) Update(ctx context.Context, t *bibs.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	args := append(templateArgs(t), t.ID)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE templates
         SET name = ?, agent = ?, blanket_po = ?, country = ?, format = ?, fund = ?,
             internal_note = ?, lang = ?, order_code_1 = ?, order_code_2 = ?,
             order_code_3 = ?, order_code_4 = ?, order_type = ?, selector_note = ?,
             status = ?, vendor_code = ?, vendor_notes = ?, vendor_title_no = ?,
             primary_matchpoint = ?, secondary_matchpoint = ?, tertiary_matchpoint = ?
         WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("template %d: %w", t.ID, errors.ErrNotFound)
	}
	return nil
}

// Remove deletes a template by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete template: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const templateColumns = "name, agent, blanket_po, country, format, fund, internal_note, lang, " +
	"order_code_1, order_code_2, order_code_3, order_code_4, order_type, selector_note, " +
	"status, vendor_code, vendor_notes, vendor_title_no, " +
	"primary_matchpoint, secondary_matchpoint, tertiary_matchpoint"

func templateArgs(t *bibs.Template) []any {
	return []any{
		t.Name,
		t.Agent,
		nullableString(t.BlanketPO),
		nullableString(t.Country),
		nullableString(t.Format),
		nullableString(t.Fund),
		nullableString(t.InternalNote),
		nullableString(t.Lang),
		nullableString(t.OrderCode1),
		nullableString(t.OrderCode2),
		nullableString(t.OrderCode3),
		nullableString(t.OrderCode4),
		nullableString(t.OrderType),
		nullableString(t.SelectorNote),
		nullableString(t.Status),
		nullableString(t.VendorCode),
		nullableString(t.VendorNotes),
		nullableString(t.VendorTitleNo),
		string(t.Matchpoints.Primary),
		nullableString(string(t.Matchpoints.Secondary)),
		nullableString(string(t.Matchpoints.Tertiary)),
	}
}

func scanTemplate(scanner interface{ Scan(dest ...any) error }) (*bibs.Template, error) {
	var (
		id        int64
		name      string
		agent     string
		fields    [16]sql.NullString
		primary   string
		secondary sql.NullString
		tertiary  sql.NullString
	)
	dest := []any{&id, &name, &agent}
	for i := range fields {
		dest = append(dest, &fields[i])
	}
	dest = append(dest, &primary, &secondary, &tertiary)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	return &bibs.Template{
		ID:            id,
		Name:          name,
		Agent:         agent,
		BlanketPO:     fields[0].String,
		Country:       fields[1].String,
		Format:        fields[2].String,
		Fund:          fields[3].String,
		InternalNote:  fields[4].String,
		Lang:          fields[5].String,
		OrderCode1:    fields[6].String,
		OrderCode2:    fields[7].String,
		OrderCode3:    fields[8].String,
		OrderCode4:    fields[9].String,
		OrderType:     fields[10].String,
		SelectorNote:  fields[11].String,
		Status:        fields[12].String,
		VendorCode:    fields[13].String,
		VendorNotes:   fields[14].String,
		VendorTitleNo: fields[15].String,
		Matchpoints: bibs.Matchpoints{
			Primary:   bibs.Matchpoint(primary),
			Secondary: bibs.Matchpoint(secondary.String),
			Tertiary:  bibs.Matchpoint(tertiary.String),
		},
	}, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
