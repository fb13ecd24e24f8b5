package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string            `json:"name"`
	Retries int               `json:"retries"`
	Tags    map[string]string `json:"tags"`
}

func writeFile(t testing.TB, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

func TestLocalName(t *testing.T) {
	require.Equal(t, "tieba.local.json5", LocalName("tieba.json5"))
	require.Equal(t, filepath.Join("conf", "a.b.local.json"), LocalName(filepath.Join("conf", "a.b.json")))
	require.Equal(t, "config.local", LocalName("config"))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "tieba.json5")

	writeFile(t, name, `{
		// comments and trailing commas are fine
		name: "base",
		retries: 2,
		tags: {env: "prod"},
	}`)

	config, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "base", Retries: 2, Tags: map[string]string{"env": "prod"}}, config)

	writeFile(t, LocalName(name), `{retries: 5}`)
	config, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "base", config.Name)
	require.Equal(t, 5, config.Retries)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "tieba.json5")
	writeFile(t, LocalName(name), `{name: "local"}`)

	config, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "local", config.Name)
}

func TestReadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "tieba.json5")

	_, err := ReadConfig[testConfig](name)
	require.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, name, `{name: `)
	_, err = ReadConfig[testConfig](name)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o700))
	writeFile(t, filepath.Join(root, "a", "tieba.json5"), `{name: "parent"}`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	config, err := ReadRecursively[testConfig]("tieba.json5")
	require.NoError(t, err)
	require.Equal(t, "parent", config.Name)

	_, err = ReadRecursively[testConfig]("missing-config-file.json5")
	require.ErrorIs(t, err, os.ErrNotExist)
}
