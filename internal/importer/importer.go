// Package importer turns raw statement files into normalized transactions.
// Each institution format is one Importer; dispatch is explicit through the
// account map rather than by sniffing file contents.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beanflow-dev/beanflow/internal/model"
)

// Importer produces normalized transactions from one raw statement source.
type Importer interface {
	// Format is the name used in account-map.csv to select this importer.
	Format() string
	// Extract reads one statement file for the given account.
	Extract(r io.Reader, acct model.Account) ([]model.Transaction, error)
}

// Registry holds named importers.
type Registry struct {
	importers map[string]Importer
}

// NewRegistry creates an empty importer registry.
func NewRegistry() *Registry {
	return &Registry{importers: make(map[string]Importer)}
}

// Register adds an importer. Panics on duplicate format.
func (r *Registry) Register(imp Importer) {
	key := strings.ToLower(imp.Format())
	if _, ok := r.importers[key]; ok {
		panic("duplicate importer format: " + key)
	}
	r.importers[key] = imp
}

// Get returns the importer for format, or nil.
func (r *Registry) Get(format string) Importer {
	return r.importers[strings.ToLower(format)]
}

// Has reports whether format is registered.
func (r *Registry) Has(format string) bool {
	return r.Get(format) != nil
}

// DefaultRegistry returns a registry with all built-in importers.
// feesAccount is the counter-account for importer-reported fee legs.
func DefaultRegistry(feesAccount string) *Registry {
	r := NewRegistry()
	r.Register(&StatementCSV{})
	r.Register(&WiseJSON{FeesAccount: feesAccount})
	return r
}

// FileInfo describes a statement file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// importDir is the subdirectory for incoming statement files.
const importDir = "import"

// processedDir is the subdirectory for processed statement files.
const processedDir = "import/processed"

// Scan returns statement files (.csv and .json) in <root>/import/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if !strings.HasSuffix(name, ".csv") && !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
