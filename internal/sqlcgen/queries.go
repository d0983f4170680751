package sqlcgen

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX matches the minimal interface needed from pgxpool.Pool or pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const ensureColumnSettingsTable = `-- name: EnsureColumnSettingsTable :exec
CREATE TABLE IF NOT EXISTS column_settings (
  setting    text PRIMARY KEY,
  visible    boolean NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now()
)
`

func (q *Queries) EnsureColumnSettingsTable(ctx context.Context) error {
	_, err := q.db.Exec(ctx, ensureColumnSettingsTable)
	return err
}

const listColumnSettings = `-- name: ListColumnSettings :many
SELECT setting, visible, updated_at
FROM column_settings
ORDER BY setting
`

func (q *Queries) ListColumnSettings(ctx context.Context) ([]ColumnSetting, error) {
	rows, err := q.db.Query(ctx, listColumnSettings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ColumnSetting
	for rows.Next() {
		var i ColumnSetting
		if err := rows.Scan(&i.Setting, &i.Visible, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertColumnSetting = `-- name: UpsertColumnSetting :exec
INSERT INTO column_settings (setting, visible, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (setting) DO UPDATE
SET visible = EXCLUDED.visible,
    updated_at = now()
`

type UpsertColumnSettingParams struct {
	Setting string
	Visible bool
}

func (q *Queries) UpsertColumnSetting(ctx context.Context, arg UpsertColumnSettingParams) error {
	_, err := q.db.Exec(ctx, upsertColumnSetting, arg.Setting, arg.Visible)
	return err
}
