package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv_LoadsExistingFilesOnly(t *testing.T) {
	tmp := t.TempDir()
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "APPROVALS_TEST_ENV_LOAD=ok\n")

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(tmp))

	_ = os.Unsetenv("APPROVALS_TEST_ENV_LOAD")
	t.Cleanup(func() { _ = os.Unsetenv("APPROVALS_TEST_ENV_LOAD") })

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "ok", os.Getenv("APPROVALS_TEST_ENV_LOAD"))
}

func TestParse_Defaults(t *testing.T) {
	c := &Configuration{}
	require.NoError(t, c.parse())

	require.Equal(t, "EUR", c.Currency)
	require.Equal(t, OptionsSourceDB, c.Options.Source)
	require.Contains(t, c.Database.Opts, "dbname=approvals")
}

func TestParse_RejectsUnknownOptionsSource(t *testing.T) {
	t.Setenv("OPTIONS_SOURCE", "ldap")
	c := &Configuration{}
	require.ErrorContains(t, c.parse(), "OPTIONS_SOURCE")
}

func TestParse_RejectsBadCurrency(t *testing.T) {
	t.Setenv("CURRENCY", "euro")
	c := &Configuration{}
	require.ErrorContains(t, c.parse(), "CURRENCY")
}

func TestParse_NormalizesCurrencyAndSource(t *testing.T) {
	t.Setenv("CURRENCY", " usd ")
	t.Setenv("OPTIONS_SOURCE", "YAML")
	t.Setenv("OPTIONS_FILE", "options.yaml")
	c := &Configuration{}
	require.NoError(t, c.parse())
	require.Equal(t, "USD", c.Currency)
	require.Equal(t, OptionsSourceYAML, c.Options.Source)
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
