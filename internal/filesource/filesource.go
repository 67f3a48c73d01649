package filesource

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrChanged is returned by Record.Unchanged when a file was modified after
// it was indexed.
var ErrChanged = errors.New("file changed since it was indexed")

var phpExtensions = []string{".php"}

// Record describes a discovered PHP file.
type Record struct {
	AbsPath         string
	RelPath         string
	Size            int64
	ModTimeUnixNano int64
}

// Index is a deterministic snapshot of the PHP files under one or more roots.
type Index struct {
	Roots []string
	Files []Record
}

// Paths returns the absolute paths of the indexed files in order.
func (idx *Index) Paths() []string {
	out := make([]string, 0, len(idx.Files))
	for _, f := range idx.Files {
		out = append(out, f.AbsPath)
	}
	return out
}

// Build walks every root and returns the PHP files found, ordered by root
// and then by relative path. A file reachable from two roots is listed once.
func Build(ctx context.Context, roots ...string) (*Index, error) {
	idx := &Index{}
	seen := make(map[string]bool)
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve root %s", root)
		}
		info, err := os.Stat(absRoot)
		if err != nil {
			return nil, errors.Wrapf(err, "stat root %s", root)
		}
		idx.Roots = append(idx.Roots, absRoot)

		if !info.IsDir() {
			if isPHPFile(absRoot) && !seen[absRoot] {
				seen[absRoot] = true
				idx.Files = append(idx.Files, newRecord(absRoot, filepath.Base(absRoot), info))
			}
			continue
		}

		files, err := walk(ctx, absRoot)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if seen[f.AbsPath] {
				continue
			}
			seen[f.AbsPath] = true
			idx.Files = append(idx.Files, f)
		}
	}
	return idx, nil
}

func walk(ctx context.Context, absRoot string) ([]Record, error) {
	var files []Record
	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != absRoot && isExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !isPHPFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			relPath = path
		}
		files = append(files, newRecord(path, filepath.ToSlash(relPath), info))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", absRoot)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})
	return files, nil
}

func newRecord(path, relPath string, info fs.FileInfo) Record {
	return Record{
		AbsPath:         path,
		RelPath:         relPath,
		Size:            info.Size(),
		ModTimeUnixNano: info.ModTime().UnixNano(),
	}
}

// Unchanged reports ErrChanged when the file's size or modification time
// differs from the indexed snapshot.
func (r Record) Unchanged() error {
	info, err := os.Stat(r.AbsPath)
	if err != nil {
		return errors.Wrapf(err, "stat %s", r.AbsPath)
	}
	if info.Size() != r.Size || info.ModTime().UnixNano() != r.ModTimeUnixNano {
		return errors.Mark(errors.Newf("%s changed since it was indexed", r.RelPath), ErrChanged)
	}
	return nil
}

func isPHPFile(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range phpExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func isExcludedDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules"
}
