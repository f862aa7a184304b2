// Package sqlstore implements storage.Driver over database/sql. Statements
// are built with ent's dialect-aware SQL builder, so the same code serves
// SQLite and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/vmentor/vmentor/pkg/storage"
)

const table = "transcripts"

var columns = []string{
	"id",
	"user_id",
	"ai_id",
	"collection_id",
	"prompt",
	"reply",
	"streaming",
	"http_status",
	"created_at",
	"duration_ms",
}

// Driver is a SQL-backed storage.Driver. Embed it in dialect-specific
// drivers that own opening the connection.
type Driver struct {
	drv     *entsql.Driver
	dialect string
}

// New wraps db for the given ent dialect name ("sqlite3" or "postgres") and creates the transcripts table if it does not exist.
func New(ctx context.Context, dialectName string, db *sql.DB) (*Driver, error) {
	d := &Driver{
		drv:     entsql.OpenDB(dialectName, db),
		dialect: dialectName,
	}

	if err := d.migrate(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Driver) migrate(ctx context.Context) error {
	query, args := entsql.Dialect(d.dialect).
		CreateTable(table).
		IfNotExists().
		Columns(
			entsql.Column("id").Type("varchar(64)").Attr("NOT NULL"),
			entsql.Column("user_id").Type("varchar(255)").Attr("NOT NULL DEFAULT ''"),
			entsql.Column("ai_id").Type("varchar(255)").Attr("NOT NULL DEFAULT ''"),
			entsql.Column("collection_id").Type("varchar(255)").Attr("NOT NULL DEFAULT ''"),
			entsql.Column("prompt").Type("text").Attr("NOT NULL"),
			entsql.Column("reply").Type("text").Attr("NOT NULL"),
			entsql.Column("streaming").Type("boolean").Attr("NOT NULL"),
			entsql.Column("http_status").Type("integer").Attr("NOT NULL"),
			entsql.Column("created_at").Type("bigint").Attr("NOT NULL"),
			entsql.Column("duration_ms").Type("bigint").Attr("NOT NULL"),
		).
		PrimaryKey("id").
		Query()

	if err := d.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("creating %s table: %w", table, err)
	}

	return nil
}

// Put upserts a transcript by ID.
func (d *Driver) Put(ctx context.Context, t *storage.Transcript) error {
	if t == nil {
		return storage.ErrNilTranscript
	}

	tx, err := d.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	del, delArgs := entsql.Dialect(d.dialect).
		Delete(table).
		Where(entsql.EQ("id", t.ID)).
		Query()
	if err := tx.Exec(ctx, del, delArgs, nil); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("replacing transcript %s: %w", t.ID, err)
	}

	ins, insArgs := entsql.Dialect(d.dialect).
		Insert(table).
		Columns(columns...).
		Values(
			t.ID,
			t.UserID,
			t.AIID,
			t.CollectionID,
			t.Prompt,
			t.Reply,
			t.Streaming,
			t.HTTPStatus,
			t.CreatedAt.UnixMilli(),
			t.DurationMs,
		).
		Query()
	if err := tx.Exec(ctx, ins, insArgs, nil); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("inserting transcript %s: %w", t.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transcript %s: %w", t.ID, err)
	}

	return nil
}

// Get retrieves a transcript by ID.
func (d *Driver) Get(ctx context.Context, id string) (*storage.Transcript, error) {
	selector := entsql.Dialect(d.dialect).
		Select(columns...).
		From(entsql.Table(table)).
		Where(entsql.EQ("id", id))

	results, err := d.query(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, storage.NotFoundError{ID: id}
	}

	return results[0], nil
}

// Delete removes a transcript by ID.
func (d *Driver) Delete(ctx context.Context, id string) error {
	query, args := entsql.Dialect(d.dialect).
		Delete(table).
		Where(entsql.EQ("id", id)).
		Query()

	var res sql.Result
	if err := d.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("deleting transcript %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting transcript %s: %w", id, err)
	}
	if n == 0 {
		return storage.NotFoundError{ID: id}
	}

	return nil
}

// List returns transcripts newest first.
func (d *Driver) List(ctx context.Context, f storage.Filter) ([]*storage.Transcript, error) {
	selector := entsql.Dialect(d.dialect).
		Select(columns...).
		From(entsql.Table(table)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))

	if f.UserID != "" {
		selector.Where(entsql.EQ("user_id", f.UserID))
	}
	if f.Limit > 0 {
		selector.Limit(f.Limit)
	}

	return d.query(ctx, selector)
}

func (d *Driver) query(ctx context.Context, selector *entsql.Selector) ([]*storage.Transcript, error) {
	query, args := selector.Query()

	var rows entsql.Rows
	if err := d.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("querying transcripts: %w", err)
	}
	defer rows.Close()

	var results []*storage.Transcript
	for rows.Next() {
		var (
			t         storage.Transcript
			createdAt int64
		)
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.AIID,
			&t.CollectionID,
			&t.Prompt,
			&t.Reply,
			&t.Streaming,
			&t.HTTPStatus,
			&createdAt,
			&t.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("scanning transcript: %w", err)
		}
		t.CreatedAt = time.UnixMilli(createdAt).UTC()
		results = append(results, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transcripts: %w", err)
	}

	return results, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.drv.Close()
}
