package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	d := NewDrift()
	d.Record([]PackageState{
		{Name: "foo", Commit: "0123456789ab", Drifted: true},
		{Name: "bar", Commit: "fedcba987654"},
		{Name: "baz", Failed: true},
	})

	assert.Equal(t, 3.0, testutil.ToFloat64(d.Installed))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.Drifted.WithLabelValues("foo", "0123456789ab")))
	assert.Equal(t, 0.0, testutil.ToFloat64(d.Drifted.WithLabelValues("bar", "fedcba987654")))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.Failed.WithLabelValues("baz")))
}

func TestWriteTextfile(t *testing.T) {
	d := NewDrift()
	d.Record([]PackageState{{Name: "foo", Commit: "0123456789ab", Drifted: true}})

	path := filepath.Join(t.TempDir(), "textfile", "atm.prom")
	require.NoError(t, d.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "# TYPE atm_packages_installed gauge")
	assert.Contains(t, out, "atm_packages_installed 1")
	assert.Contains(t, out, `atm_package_drift{commit="0123456789ab",package="foo"} 1`)
	assert.True(t, strings.HasSuffix(out, "\n"))
}
