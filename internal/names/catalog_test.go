package names

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCatalog_TrimsAndDeduplicates(t *testing.T) {
	req := require.New(t)

	catalog, err := NewCatalog(" Alpha ", "Beta", "", "Alpha", "  ", "Gamma")

	req.NoError(err)
	req.Equal([]string{"Alpha", "Beta", "Gamma"}, catalog.Names())
	req.Equal(3, catalog.Len())
	req.True(catalog.Contains("Beta"))
	req.False(catalog.Contains("Delta"))
}

func TestNewCatalog_Empty(t *testing.T) {
	_, err := NewCatalog("", "   ")
	require.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestReadCatalog_SkipsCommentsAndBlankLines(t *testing.T) {
	req := require.New(t)
	input := "# header\nAlpha\n\n  Beta  \n# Gamma\nAlpha\n"

	catalog, err := ReadCatalog(strings.NewReader(input))

	req.NoError(err)
	req.Equal([]string{"Alpha", "Beta"}, catalog.Names())
}

func TestLoadCatalog(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "names.txt")
	req.NoError(os.WriteFile(path, []byte("Alpha\nBeta\n"), 0o600))

	catalog, err := LoadCatalog(path)

	req.NoError(err)
	req.Equal(2, catalog.Len())
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestLoadCatalog_OnlyComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing here\n"), 0o600))

	_, err := LoadCatalog(path)

	require.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestDefaultCatalog(t *testing.T) {
	req := require.New(t)

	catalog := DefaultCatalog()

	req.Greater(catalog.Len(), 10)
	for _, name := range catalog.Names() {
		req.NotEmpty(name)
		req.False(strings.HasPrefix(name, "#"))
	}
}

func TestCatalog_NamesReturnsCopy(t *testing.T) {
	catalog, err := NewCatalog("Alpha", "Beta")
	require.NoError(t, err)

	names := catalog.Names()
	names[0] = "Mutated"

	require.Equal(t, "Alpha", catalog.Names()[0])
}
