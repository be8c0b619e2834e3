// Package pagecache keeps raw runs pages on disk as runs-<page>.json.
// Files are written via a .part sibling and renamed into place, so a file that exists is complete.
package pagecache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	perr "quickbuild/internal/platform/errors"
	"quickbuild/internal/platform/logger"
)

const (
	pagePrefix = "runs-"
	pageSuffix = ".json"

	// ArrayName is the combined-array file the aggregate stage writes next to the pages
	ArrayName = "runs-array.json"
)

// Entry is one page file found on disk
type Entry struct {
	Page int
	Path string
	Size int64
}

// Cache is a directory of page files
type Cache struct {
	dir string
	log logger.Logger
}

// New opens (creating when needed) the cache directory
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, perr.IOf(err, "create scratch dir %s", dir)
	}
	return &Cache{dir: dir, log: *logger.Named("pagecache")}, nil
}

// Dir returns the cache directory
func (c *Cache) Dir() string { return c.dir }

// PagePath returns the file path for a 1-based page number
func (c *Cache) PagePath(page int) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s%d%s", pagePrefix, page, pageSuffix))
}

// ArrayPath returns the combined-array file path
func (c *Cache) ArrayPath() string { return filepath.Join(c.dir, ArrayName) }

// Has reports whether the page file exists as a regular, non-empty file
func (c *Cache) Has(page int) (bool, error) {
	fi, err := os.Stat(c.PagePath(page))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, perr.IOf(err, "stat page %d", page)
	}
	return fi.Mode().IsRegular() && fi.Size() > 0, nil
}

// Put stores body as the page file, replacing any previous content
func (c *Cache) Put(page int, body []byte) error {
	p := c.PagePath(page)
	if err := WriteAtomic(p, func(w io.Writer) error {
		_, err := w.Write(body)
		return err
	}); err != nil {
		return err
	}
	c.log.Debug().Int("page", page).Int("bytes", len(body)).Str("path", p).Msg("page cached")
	return nil
}

// Pages lists page files in ascending page order (runs-2.json before runs-10.json)
func (c *Cache) Pages() ([]Entry, error) {
	des, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, perr.IOf(err, "list scratch dir %s", c.dir)
	}
	var out []Entry
	for _, de := range des {
		n, ok := parsePage(de.Name())
		if !ok || !de.Type().IsRegular() {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			return nil, perr.IOf(err, "stat %s", de.Name())
		}
		out = append(out, Entry{Page: n, Path: filepath.Join(c.dir, de.Name()), Size: fi.Size()})
	}
	slices.SortFunc(out, func(a, b Entry) int { return a.Page - b.Page })
	return out, nil
}

// parsePage extracts n from runs-<n>.json; runs-array.json and anything else is rejected
func parsePage(name string) (int, bool) {
	s, ok := strings.CutPrefix(name, pagePrefix)
	if !ok {
		return 0, false
	}
	s, ok = strings.CutSuffix(s, pageSuffix)
	if !ok || s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// WriteAtomic writes path through a .part sibling and renames it into place
func WriteAtomic(path string, write func(io.Writer) error) error {
	tmp := path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return perr.IOf(err, "create %s", tmp)
	}
	werr := write(out)
	cerr := out.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmp)
		if werr != nil {
			return perr.IOf(werr, "write %s", tmp)
		}
		return perr.IOf(cerr, "close %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return perr.IOf(err, "rename %s", tmp)
	}
	return nil
}
