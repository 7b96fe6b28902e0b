package domainsource_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonesrussell/blogvault/internal/domainsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDomainsFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReadNames_StopsAtBlankLineSentinel(t *testing.T) {
	path := writeDomainsFile(t, "alpha\n\nbeta\ngamma\ndelta\n")

	src, err := domainsource.Open(path)
	require.NoError(t, err)
	defer src.Close()

	names, err := src.ReadNames(0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, names)
}

func TestReadNames_StopsAtCountBeforeSentinel(t *testing.T) {
	path := writeDomainsFile(t, "alpha\nbeta\n\ngamma\n")

	src, err := domainsource.Open(path)
	require.NoError(t, err)
	defer src.Close()

	names, err := src.ReadNames(0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
}

func TestReadNames_SeeksToOffset(t *testing.T) {
	contents := "alpha\nbeta\ngamma\n"
	path := writeDomainsFile(t, contents)
	offset := int64(len("alpha\n"))

	src, err := domainsource.Open(path)
	require.NoError(t, err)
	defer src.Close()

	names, err := src.ReadNames(offset, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "gamma"}, names)
}

func TestReadNames_FewerThanCountAtEOF(t *testing.T) {
	path := writeDomainsFile(t, "alpha\nbeta\n")

	src, err := domainsource.Open(path)
	require.NoError(t, err)
	defer src.Close()

	names, err := src.ReadNames(0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
}
