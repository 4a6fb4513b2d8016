package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountsCSV "github.com/beanflow-dev/beanflow/internal/accounts"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "beanflow-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "beanflow")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/beanflow")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runBeanflow(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	_, err := runBeanflow(t, "init", dir, "--name", "household")
	require.NoError(t, err)

	expectedDirs := []string{
		"accounts",
		"import",
		filepath.Join("import", "processed"),
		"ledger",
		"logs",
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runBeanflow(t, "init", dir, "--name", "household")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "beanflow.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: household")
	assert.Contains(t, contents, "window_days: 3")
	assert.Contains(t, contents, "fees_account: Expenses:Fees")
}

func TestInit_AccountMap(t *testing.T) {
	dir := t.TempDir()
	_, err := runBeanflow(t, "init", dir, "--name", "household")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "accounts", "account-map.csv"))
	require.NoError(t, err)
	defer f.Close()

	accts, err := accountsCSV.ReadAccounts(f)
	require.NoError(t, err)
	assert.Len(t, accts, 3, "starter map covers the built-in importers")
}

func TestInit_GitRepo(t *testing.T) {
	dir := t.TempDir()
	_, err := runBeanflow(t, "init", dir, "--name", "household")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git should exist")

	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "init: household")
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runBeanflow(t, "init", dir, "--name", "household")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "import/")
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, err := runBeanflow(t, "init", dir)
	require.Error(t, err, "init without --name should fail")
}
