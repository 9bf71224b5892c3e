package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/google/uuid"
	"github.com/tinoosan/uniquefile/internal/data"
)

// PostgresRepo stores attachments and options in PostgreSQL.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo connects using dsn and creates the tables if needed.
func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	r := &PostgresRepo{db: db}
	if err := r.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *PostgresRepo) Close() error { return r.db.Close() }

func (r *PostgresRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *PostgresRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS attachments (
    id UUID PRIMARY KEY,
    file TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    base_dir TEXT NOT NULL DEFAULT '',
    fingerprint TEXT NOT NULL DEFAULT '',
    original_name TEXT NOT NULL DEFAULT '',
    size BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL
);
ALTER TABLE attachments ADD COLUMN IF NOT EXISTS base_dir TEXT NOT NULL DEFAULT '';
DROP INDEX IF EXISTS attachments_file_idx;
CREATE INDEX IF NOT EXISTS attachments_base_file_idx ON attachments (base_dir, file);
CREATE TABLE IF NOT EXISTS options (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_by TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
	return err
}

const attachmentColumns = `id,file,url,base_dir,fingerprint,original_name,size,created_at`

func (r *PostgresRepo) List(ctx context.Context) (data.Attachments, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+attachmentColumns+` FROM attachments ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := data.Attachments{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*data.Attachment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, data.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE id=$1`, id)
	a, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, data.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *PostgresRepo) CountByFile(ctx context.Context, baseDir, file string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attachments WHERE base_dir=$1 AND file=$2`, baseDir, file).Scan(&n)
	return n, err
}

func (r *PostgresRepo) Add(ctx context.Context, a *data.Attachment) (*data.Attachment, error) {
	c := a.Clone()
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO attachments (`+attachmentColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.File, c.URL, c.BaseDir, c.Fingerprint, c.OriginalName, c.Size, c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return data.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return data.ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetOption(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM options WHERE key=$1`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", data.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *PostgresRepo) AddOption(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO options (key,value) VALUES ($1,$2) ON CONFLICT (key) DO NOTHING`, key, value)
	return err
}

// SetOptions upserts every value inside one transaction so a settings
// submission is applied entirely or not at all.
func (r *PostgresRepo) SetOptions(ctx context.Context, values map[string]string, updatedBy string) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO options (key,value,updated_by) VALUES ($1,$2,$3)
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_by=EXCLUDED.updated_by, updated_at=NOW()`,
			k, values[k], updatedBy); err != nil {
			return fmt.Errorf("set option %s: %w", k, err)
		}
	}
	return tx.Commit()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanAttachment(rs rowScanner) (*data.Attachment, error) {
	a := &data.Attachment{}
	if err := rs.Scan(&a.ID, &a.File, &a.URL, &a.BaseDir, &a.Fingerprint, &a.OriginalName, &a.Size, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}
