package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rubiojr/edjs/pkg/log"
)

var (
	ErrTooLarge = errors.New("file exceeds the upload size limit")
	ErrNotFound = errors.New("upload not found")
)

// Upload is a stored file as recorded in the uploads table.
type Upload struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	DiskName    string    `json:"disk_name"`
	Extension   string    `json:"extension"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Files writes uploads under a directory and records them in the database.
type Files struct {
	db  *sql.DB
	dir string
	log *log.Logger
}

func NewFiles(db *sql.DB, dir string) (*Files, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &Files{db: db, dir: dir, log: log.ForService("storage")}, nil
}

func (f *Files) Dir() string {
	return f.dir
}

// Path returns the on-disk location of a stored upload.
func (f *Files) Path(u *Upload) string {
	return filepath.Join(f.dir, u.DiskName)
}

// Save copies r to a new file and records it. Reading more than limit bytes
// fails with ErrTooLarge and leaves nothing behind. A limit <= 0 disables the
// check.
func (f *Files) Save(ctx context.Context, kind, name, contentType string, r io.Reader, limit int64) (*Upload, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if contentType == "" && ext != "" {
		contentType = mime.TypeByExtension("." + ext)
	}

	diskName := uuid.NewString()
	if ext != "" {
		diskName += "." + ext
	}
	path := filepath.Join(f.dir, diskName)

	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating upload file: %w", err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	size, err := io.Copy(out, src)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && limit > 0 && size > limit {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("writing upload file: %w", err)
	}

	up := &Upload{
		ID:          ulid.Make().String(),
		Kind:        kind,
		Name:        name,
		DiskName:    diskName,
		Extension:   ext,
		ContentType: contentType,
		Size:        size,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}

	_, err = f.db.ExecContext(ctx, `
		INSERT INTO uploads (id, kind, name, disk_name, extension, content_type, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		up.ID, up.Kind, up.Name, up.DiskName, up.Extension, up.ContentType, up.Size, up.CreatedAt.UnixMilli())
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("recording upload: %w", err)
	}

	f.log.Debugf("stored %s upload %s as %s (%d bytes)", kind, name, diskName, size)
	return up, nil
}

// Get returns an upload by ID.
func (f *Files) Get(ctx context.Context, id string) (*Upload, error) {
	row := f.db.QueryRowContext(ctx, `
		SELECT id, kind, name, disk_name, extension, content_type, size, created_at
		FROM uploads WHERE id = ?`, id)
	up, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return up, err
}

// List returns the most recent uploads first. A limit <= 0 returns all.
func (f *Files) List(ctx context.Context, limit int) ([]*Upload, error) {
	query := `
		SELECT id, kind, name, disk_name, extension, content_type, size, created_at
		FROM uploads ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := f.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*Upload
	for rows.Next() {
		up, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, up)
	}
	return uploads, rows.Err()
}

// Delete removes an upload record and its file.
func (f *Files) Delete(ctx context.Context, id string) error {
	up, err := f.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := f.db.ExecContext(ctx, "DELETE FROM uploads WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting upload: %w", err)
	}
	if err := os.Remove(f.Path(up)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing upload file: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(s scanner) (*Upload, error) {
	var up Upload
	var created int64
	if err := s.Scan(&up.ID, &up.Kind, &up.Name, &up.DiskName, &up.Extension, &up.ContentType, &up.Size, &created); err != nil {
		return nil, err
	}
	up.CreatedAt = time.UnixMilli(created).UTC()
	return &up, nil
}
