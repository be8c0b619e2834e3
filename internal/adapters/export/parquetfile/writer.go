// Package parquetfile writes the derived runs table as a Snappy compressed Parquet file
package parquetfile

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"quickbuild/internal/adapters/ingest/pagecache"
	perr "quickbuild/internal/platform/errors"
	"quickbuild/internal/platform/logger"
	"quickbuild/internal/services/runs/domain"

	"github.com/parquet-go/parquet-go"
)

// Record is the persisted row layout. Duration is not persisted
type Record struct {
	HeadCommitMessage string    `parquet:"head_commit_message"`
	CreatedAt         time.Time `parquet:"created_at,timestamp"`
	UpdatedAt         time.Time `parquet:"updated_at,timestamp"`
}

// Columns lists the persisted column names in file order
var Columns = []string{"head_commit_message", "created_at", "updated_at"}

// seam for tests
var rename = os.Rename

// Writer renders rows in a scratch directory and moves the file into a destination directory
type Writer struct {
	scratch string
	name    string
}

// New returns a Writer building name inside scratch; an empty name means domain.OutputName
func New(scratch, name string) *Writer {
	if name == "" {
		name = domain.OutputName
	}
	return &Writer{scratch: scratch, name: name}
}

// WriteTable writes rows and deposits the file in dir, replacing any previous file. Returns the final path
func (w *Writer) WriteTable(ctx context.Context, rows []domain.Row, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src := filepath.Join(w.scratch, w.name)
	if err := pagecache.WriteAtomic(src, func(out io.Writer) error { return encode(out, rows) }); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, w.name)
	if err := move(src, dst); err != nil {
		return "", err
	}
	logger.CNamed(ctx, "parquet").Info().
		Int("rows", len(rows)).
		Str("path", dst).
		Msg("table written")
	return dst, nil
}

func encode(out io.Writer, rows []domain.Row) error {
	pw := parquet.NewGenericWriter[Record](out, parquet.Compression(&parquet.Snappy))
	if len(rows) > 0 {
		recs := make([]Record, len(rows))
		for i, r := range rows {
			recs[i] = Record{
				HeadCommitMessage: r.HeadCommitMessage,
				CreatedAt:         r.CreatedAt.UTC(),
				UpdatedAt:         r.UpdatedAt.UTC(),
			}
		}
		if _, err := pw.Write(recs); err != nil {
			_ = pw.Close()
			return err
		}
	}
	return pw.Close()
}

// move renames src onto dst, falling back to copy and remove when rename fails (cross-device)
func move(src, dst string) error {
	if src == dst {
		return nil
	}
	rerr := rename(src, dst)
	if rerr == nil {
		return nil
	}
	logger.Named("parquet").Debug().Err(rerr).Str("src", src).Str("dst", dst).Msg("rename failed, copying")

	in, err := os.Open(src)
	if err != nil {
		return perr.IOf(err, "open %s", src)
	}
	defer in.Close()
	if err := pagecache.WriteAtomic(dst, func(out io.Writer) error {
		_, err := io.Copy(out, in)
		return err
	}); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return perr.IOf(err, "remove %s", src)
	}
	return nil
}
