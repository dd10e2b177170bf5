package restyutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "responses")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	output.Write("1.html", "GET /dyn/17/scrutins\n200 OK")
	output.Write("../2.html", "outside")

	contents, err := os.ReadFile(filepath.Join(dir, "1.html"))
	require.NoError(t, err)
	require.Equal(t, "GET /dyn/17/scrutins\n200 OK", string(contents))

	_, err = os.Stat(filepath.Join(dir, "2.html"))
	require.NoError(t, err)
}
