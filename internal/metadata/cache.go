package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const compiledIndexVersion = 1

type compiledIndex struct {
	Version  int      `msgpack:"version"`
	Source   string   `msgpack:"source"`
	Document Document `msgpack:"document"`
}

// Compile parses the YAML index at srcPath and writes its msgpack form to
// outPath.
func Compile(srcPath, outPath string) (*Document, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read metadata index %s", srcPath)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load metadata index %s", srcPath)
	}
	if err := writeCompiled(outPath, hashContents(data), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadCached loads a YAML index through a cache of compiled documents keyed
// by the sha256 of the YAML source. The bool result reports a cache hit.
// Compiled (msgpack) paths are loaded directly.
func LoadCached(path, cacheDir string, opts Options) (*Index, bool, error) {
	if cacheDir == "" || isCompiledPath(path) {
		ix, err := Load(path, opts)
		return ix, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, errors.Wrapf(err, "read metadata index %s", path)
	}
	sum := hashContents(data)
	cachePath := filepath.Join(cacheDir, sum+".msgpack")

	if doc := readCompiled(cachePath, sum); doc != nil {
		return NewIndex(doc, opts), true, nil
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, false, errors.Wrapf(err, "load metadata index %s", path)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, false, errors.Wrapf(err, "create cache dir %s", cacheDir)
	}
	if err := writeCompiled(cachePath, sum, doc); err != nil {
		return nil, false, err
	}
	return NewIndex(doc, opts), false, nil
}

func hashContents(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// readCompiled returns nil for a missing, stale or unreadable cache entry.
func readCompiled(path, sum string) *Document {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var compiled compiledIndex
	if err := msgpack.Unmarshal(data, &compiled); err != nil {
		return nil
	}
	if compiled.Version != compiledIndexVersion || compiled.Source != sum {
		return nil
	}
	return &compiled.Document
}

func writeCompiled(path, sum string, doc *Document) error {
	data, err := msgpack.Marshal(&compiledIndex{
		Version:  compiledIndexVersion,
		Source:   sum,
		Document: *doc,
	})
	if err != nil {
		return errors.Wrap(err, "encode compiled index")
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return errors.Wrapf(err, "write compiled index %s", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "write compiled index %s", path)
	}
	return nil
}
