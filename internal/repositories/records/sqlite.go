package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/models"
)

// timeLayout is a fixed-width RFC 3339 variant. Times are always stored in
// UTC with nanosecond padding so lexicographic order matches chronological
// order and MAX(updated_at) can be computed in SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// dateLayout stores date-only fields (the record's logical date).
const dateLayout = "2006-01-02"

// SQLiteRepository implements Repository against a DBTX
// (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Older exports used plain RFC 3339.
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	return t, err
}

// Upsert inserts the record or overwrites an existing one by id. The kind
// column is deliberately not updated on conflict: a record's kind is
// immutable after creation.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.Record) error {
	tags, err := json.Marshal(models.NormalizeTags(rec.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `INSERT INTO records
			(id, kind, title, content, logical_date, created_at, updated_at,
			 tags, quadrant, done, archived, provenance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			logical_date = excluded.logical_date,
			updated_at = excluded.updated_at,
			tags = excluded.tags,
			quadrant = excluded.quadrant,
			done = excluded.done,
			archived = excluded.archived,
			provenance = excluded.provenance
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, string(rec.Kind), rec.Title, rec.Content,
		rec.LogicalDate.UTC().Format(dateLayout),
		encodeTime(rec.CreatedAt), encodeTime(rec.UpdatedAt),
		string(tags), int(rec.Quadrant), rec.Done, rec.Archived, string(rec.Provenance))
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

const selectColumns = `id, kind, title, content, logical_date, created_at, updated_at,
	tags, quadrant, done, archived, provenance`

func scanRecord(scan func(dest ...any) error) (*models.Record, error) {
	var rec models.Record
	var kind, prov, logicalDate, createdAt, updatedAt, tagsJSON string
	var quadrant int

	if err := scan(&rec.ID, &kind, &rec.Title, &rec.Content, &logicalDate,
		&createdAt, &updatedAt, &tagsJSON, &quadrant, &rec.Done, &rec.Archived, &prov); err != nil {
		return nil, err
	}

	rec.Kind = models.Kind(kind)
	rec.Provenance = models.Provenance(prov)
	rec.Quadrant = models.Quadrant(quadrant)

	var err error
	if rec.LogicalDate, err = time.Parse(dateLayout, logicalDate); err != nil {
		return nil, fmt.Errorf("failed to parse logical_date: %w", err)
	}
	if rec.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		return nil, fmt.Errorf("failed to parse tags: %w", err)
	}
	return &rec, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM records WHERE id = ?`, id)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetByIDPrefix(ctx context.Context, prefix string) (*models.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM records WHERE id LIKE ? ESCAPE '\' LIMIT 2`,
		escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to select records by id prefix: %w", err)
	}
	defer rows.Close()

	var found *models.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return nil, ErrAmbiguousID
		}
		found = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' || s[i] == '_' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func (r *SQLiteRepository) List(ctx context.Context, f Filter) ([]*models.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM records WHERE 1=1`
	var args []any

	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(f.Kind))
	}
	if f.Quadrant != models.QuadrantUnset {
		query += ` AND quadrant = ?`
		args = append(args, int(f.Quadrant))
	}
	if !f.IncludeArchived {
		query += ` AND archived = 0`
	}
	if !f.IncludeDone {
		query += ` AND done = 0`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		// Tag membership is checked here rather than in SQL: tags are a
		// small JSON array per record.
		if f.Tag != "" && !hasTag(rec.Tags, f.Tag) {
			continue
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// MaxUpdatedAt relies on timeLayout being fixed-width UTC, which makes
// MAX() over the text column equivalent to a chronological max.
func (r *SQLiteRepository) MaxUpdatedAt(ctx context.Context) (*time.Time, error) {
	var max sql.NullString
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM records`).Scan(&max); err != nil {
		return nil, fmt.Errorf("failed to select max updated_at: %w", err)
	}
	if !max.Valid {
		return nil, nil
	}
	t, err := decodeTime(max.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse max updated_at: %w", err)
	}
	return &t, nil
}
