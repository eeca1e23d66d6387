package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/jsonmanager/errors"
	"github.com/leeforge/jsonmanager/storage"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testOptions(dir string) ConfigOptions {
	opts := DefaultConfigOptions()
	opts.BasePath = dir
	opts.EnvPrefix = "JMTEST"
	return opts
}

func TestLoadSettings_DefaultsAndLayers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
storage:
  driver: local
  base-path: /srv/docs
export:
  indent: "  "
`)
	writeFile(t, dir, "config.local.yaml", `
storage:
  encoding: iso-8859-1
  redis:
    host: cache.internal
    key-prefix: "docs:"
    ttl: 1h
`)

	s, err := LoadSettings(testOptions(dir))
	require.NoError(t, err)

	assert.Equal(t, "local", s.Storage.Driver)
	assert.Equal(t, "/srv/docs", s.Storage.BasePath)
	assert.Equal(t, "iso-8859-1", s.Storage.Encoding)
	assert.Equal(t, "  ", s.Export.Indent)
	assert.False(t, s.Export.DisallowUnknownFields)

	assert.Equal(t, "cache.internal", s.Storage.Redis.Host)
	assert.Equal(t, "6379", s.Storage.Redis.Port)
	assert.Equal(t, "docs:", s.Storage.Redis.KeyPrefix)
	assert.Equal(t, time.Hour, s.Storage.Redis.TTL)
	assert.Equal(t, 5*time.Second, s.Storage.Redis.Timeout)

	assert.Equal(t, "info", s.Logging.Level)
	assert.Equal(t, "console", s.Logging.Format)
}

func TestLoadSettings_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
storage:
  driver: local
  base-path: from-file
`)
	t.Setenv("JMTEST_STORAGE_BASE_PATH", "from-env")

	s, err := LoadSettings(testOptions(dir))
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.Storage.BasePath)
}

func TestLoadSettings_InvalidDriver(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "storage:\n  driver: ftp\n")

	_, err := LoadSettings(testOptions(dir))
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalid(err))

	fields, ok := apperrors.FromError(err).Detail("fields").(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "Settings.Storage.Driver")
}

func TestLoadSettings_NoFiles(t *testing.T) {
	_, err := LoadSettings(testOptions(t.TempDir()))
	require.Error(t, err)
	assert.True(t, apperrors.IsIO(err))
}

func TestLoadSettings_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "storage: [unclosed\n")

	_, err := LoadSettings(testOptions(dir))
	require.Error(t, err)
	assert.True(t, apperrors.IsIO(err))
}

func TestLoadAllMergesEveryBaseName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "storage:\n  driver: local\n")
	writeFile(t, dir, "export.yaml", "export:\n  disallow-unknown-fields: true\n")
	writeFile(t, dir, "notes.txt", "ignored")

	opts := testOptions(dir)
	opts.LoadAll = true
	c, err := NewConfig(opts)
	require.NoError(t, err)

	files := c.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "config.yaml", filepath.Base(files[0]))
	assert.Equal(t, true, c.Get("export.disallow-unknown-fields"))
}

func TestStripConfigSuffix(t *testing.T) {
	assert.Equal(t, "config", stripConfigSuffix("config.local"))
	assert.Equal(t, "config", stripConfigSuffix("config.prod.local"))
	assert.Equal(t, "storage", stripConfigSuffix("storage.development"))
	assert.Equal(t, "plain", stripConfigSuffix("plain"))
	assert.Equal(t, []string{"config", "a", "b"}, moveFirst([]string{"a", "b", "config"}, "config"))
}

func TestConfigExportAndSet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "storage:\n  driver: local\n")

	c, err := NewConfig(testOptions(dir))
	require.NoError(t, err)
	c.Set("export.indent", "\t")

	out := filepath.Join(t.TempDir(), "nested", "effective.yaml")
	require.NoError(t, c.Export(out))

	v := viper.New()
	v.SetConfigFile(out)
	require.NoError(t, v.ReadInConfig())
	assert.Equal(t, "\t", v.GetString("export.indent"))
	assert.Equal(t, "local", v.GetString("storage.driver"))

	assert.True(t, apperrors.IsNoFileConfigured(c.Export("")))
}

func TestBindRejectsNilTarget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "storage:\n  driver: local\n")

	c, err := NewConfig(testOptions(dir))
	require.NoError(t, err)
	assert.True(t, apperrors.IsInvalid(c.Bind(nil)))

	var nilConfig *Config
	assert.Error(t, nilConfig.Bind(&Settings{}))
}

func TestWatchReloadsSettings(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "storage:\n  base-path: before\n")

	changed := make(chan fsnotify.Event, 8)
	opts := testOptions(dir)
	opts.WatchAble = true
	opts.OnChange = func(e fsnotify.Event) { changed <- e }

	c, err := NewConfig(opts)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	s := &Settings{}
	require.NoError(t, c.BindWithDefaults(s))
	require.Equal(t, "before", s.Storage.BasePath)

	require.NoError(t, os.WriteFile(path, []byte("storage:\n  base-path: after\n"), 0644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-changed:
			if c.Get("storage.base-path") == "after" {
				assert.Equal(t, "after", s.Storage.BasePath)
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestReloadKeepsTargetWhenInvalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
storage:
  driver: local
  base-path: before
export:
  indent: "  "
`)

	c, err := NewConfig(testOptions(dir))
	require.NoError(t, err)
	s := &Settings{}
	require.NoError(t, c.BindWithDefaults(s))

	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: bogus\n  base-path: bad\n"), 0644))
	err = c.reload(s)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalid(err))
	assert.Equal(t, "local", s.Storage.Driver)
	assert.Equal(t, "before", s.Storage.BasePath)
	assert.Equal(t, "  ", s.Export.Indent)
	assert.Equal(t, "local", c.Get("storage.driver"))
}

func TestReloadResetsRemovedKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
storage:
  driver: local
  base-path: before
  redis:
    port: "6380"
export:
  indent: "  "
`)

	c, err := NewConfig(testOptions(dir))
	require.NoError(t, err)
	s := &Settings{}
	require.NoError(t, c.BindWithDefaults(s))
	require.Equal(t, "6380", s.Storage.Redis.Port)

	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: redis\n"), 0644))
	require.NoError(t, c.reload(s))

	assert.Equal(t, "redis", s.Storage.Driver)
	assert.Empty(t, s.Storage.BasePath)
	assert.Empty(t, s.Export.Indent)
	assert.Equal(t, "6379", s.Storage.Redis.Port)
	assert.Equal(t, "utf-8", s.Storage.Encoding)
	assert.Nil(t, c.Get("storage.base-path"))
}

func TestBindRejectsNonPointer(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "storage:\n  driver: local\n")

	c, err := NewConfig(testOptions(dir))
	require.NoError(t, err)
	assert.True(t, apperrors.IsInvalid(c.Bind(Settings{})))
}

func TestSettingsOptions(t *testing.T) {
	base := t.TempDir()
	s := &Settings{Storage: storage.Config{Driver: storage.DriverLocal, BasePath: base}}
	s.Export.Indent = "  "

	type doc struct {
		Name string `json:"name" validate:"required"`
	}

	exp, err := NewStructExporter(s, &doc{Name: "a"}, "doc.json")
	require.NoError(t, err)
	require.NoError(t, exp.ExportToFile(""))

	raw, err := os.ReadFile(filepath.Join(base, "doc.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"a\"\n}", string(raw))

	s.Export.DisallowUnknownFields = true
	require.NoError(t, os.WriteFile(filepath.Join(base, "extra.json"), []byte(`{"name":"b","x":1}`), 0644))
	imp, err := NewStructImporter[doc](s, "extra.json")
	require.NoError(t, err)
	_, err = imp.ImportFromFile("")
	assert.True(t, apperrors.IsUnexpectedShape(err))

	s.Storage.Driver = "ftp"
	_, err = s.Options("")
	assert.True(t, apperrors.IsInvalid(err))
}
