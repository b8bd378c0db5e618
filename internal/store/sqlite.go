package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/John-Robertt/MoviePicker/internal/domain"
)

//go:embed schema.sql
var schema string

// SQLite 是 CSV 之外可选的镜像存储：整表替换，按 position 读回。
type SQLite struct {
	Path string
}

func NewSQLite(path string) *SQLite { return &SQLite{Path: path} }

func (s *SQLite) Location() string { return s.Path }

func (s *SQLite) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema %s: %w", s.Path, err)
	}
	return db, nil
}

// Save 在单个事务内删除旧数据并写入新数据。
func (s *SQLite) Save(ctx context.Context, rs domain.Records) (err error) {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "delete from movies"); err != nil {
		return fmt.Errorf("clear movies: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "insert into movies (position, title, rating) values (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range rs {
		if _, err = stmt.ExecContext(ctx, i, r.Title, r.Rating); err != nil {
			return fmt.Errorf("insert %q: %w", r.Title, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Load(ctx context.Context) (domain.Records, error) {
	if _, err := os.Stat(s.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		return nil, err
	}
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "select title, rating from movies order by position")
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	var out domain.Records
	for rows.Next() {
		var r domain.MovieRecord
		if err := rows.Scan(&r.Title, &r.Rating); err != nil {
			return nil, &FormatError{Path: s.Path, Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
