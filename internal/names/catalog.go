// Package names implements the bounded pool of display names handed out to
// connected clients.
package names

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
)

//go:embed names.txt
var defaultNames []byte

// ErrEmptyCatalog is returned when a catalog would contain no names.
var ErrEmptyCatalog = errors.New("names: catalog is empty")

// Catalog is the fixed, ordered universe of assignable display names.
// It is immutable once built and safe to share between goroutines.
type Catalog struct {
	names []string
}

// NewCatalog builds a catalog from names, trimming whitespace and dropping
// blanks and duplicates while keeping first-seen order.
func NewCatalog(names ...string) (Catalog, error) {
	cleaned := lo.Uniq(lo.FilterMap(names, func(name string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(name)
		return trimmed, trimmed != ""
	}))
	if len(cleaned) == 0 {
		return Catalog{}, ErrEmptyCatalog
	}
	return Catalog{names: cleaned}, nil
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() Catalog {
	catalog, err := ReadCatalog(bytes.NewReader(defaultNames))
	if err != nil {
		panic(fmt.Sprintf("names: embedded catalog: %v", err))
	}
	return catalog
}

// LoadCatalog reads a catalog file with one name per line.
func LoadCatalog(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	catalog, err := ReadCatalog(f)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return catalog, nil
}

// ReadCatalog parses one name per line. Blank lines and lines starting with
// '#' are skipped.
func ReadCatalog(r io.Reader) (Catalog, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return Catalog{}, err
	}
	return NewCatalog(lines...)
}

// Names returns a copy of the catalog in its original order.
func (c Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of names, which is also the session capacity.
func (c Catalog) Len() int {
	return len(c.names)
}

// Contains reports whether name is part of the catalog.
func (c Catalog) Contains(name string) bool {
	return lo.Contains(c.names, name)
}
