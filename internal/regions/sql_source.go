package regions

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/KonghaYao/text2location/app/models"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource reads regions from a table with the region columns.
type SQLSource struct {
	DB     *sql.DB
	Table  string
	Driver string // sqlite | postgres, selects the placeholder style
}

// OpenSQL opens and pings a sqlite or postgres database.
func OpenSQL(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

func (s *SQLSource) table() (string, error) {
	t := s.Table
	if t == "" {
		t = "regions"
	}
	if !identifier.MatchString(t) {
		return "", fmt.Errorf("invalid table name %q", t)
	}
	return t, nil
}

func (s *SQLSource) Load(ctx context.Context) ([]models.Region, error) {
	table, err := s.table()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(Columns, ", "), table))
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	var out []models.Region
	for rows.Next() {
		var r models.Region
		if err := rows.Scan(&r.ID, &r.PID, &r.Deep, &r.Name, &r.PinyinPrefix, &r.Pinyin, &r.ExtID, &r.ExtName); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}
	return out, nil
}

// Import creates the table if needed and inserts regions in one transaction.
func (s *SQLSource) Import(ctx context.Context, regions []models.Region) error {
	table, err := s.table()
	if err != nil {
		return err
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT PRIMARY KEY,
	pid BIGINT NOT NULL DEFAULT 0,
	deep INTEGER NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	pinyin_prefix TEXT NOT NULL DEFAULT '',
	pinyin TEXT NOT NULL DEFAULT '',
	ext_id TEXT NOT NULL,
	ext_name TEXT NOT NULL
)`, table)
	if _, err := s.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(Columns, ", "), s.placeholders(len(Columns))))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range regions {
		if _, err := stmt.ExecContext(ctx, int64(r.ID), int64(r.PID), int(r.Deep),
			r.Name, r.PinyinPrefix, r.Pinyin, r.ExtID, r.ExtName); err != nil {
			return fmt.Errorf("insert region %d: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLSource) placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		if s.Driver == "postgres" {
			ph[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ph[i] = "?"
		}
	}
	return strings.Join(ph, ", ")
}

func (s *SQLSource) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
