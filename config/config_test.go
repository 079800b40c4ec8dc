package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
client:
  endpoint: http://db.internal:9000
  max_retries: 5
  base_wait: 100ms
server:
  addr: ":9000"
  storage:
    backend: sqlite
    path: /var/lib/docdb/docs.db
  transaction_time_limit: 30s
logging:
  level: debug
query_options:
  - name: books
    values:
      - name: author
        locator:
          key: author.name
      - name: isbn
        locator:
          element: isbn
    tuples:
      - name: author-year
        locators:
          - key: author.name
          - key: year
`

func TestParseFile(t *testing.T) {
	tmpDir := t.TempDir()

	yamlFile := filepath.Join(tmpDir, "docdb.yaml")
	require.NoError(t, os.WriteFile(yamlFile, []byte(sampleYAML), 0644))

	jsonFile := filepath.Join(tmpDir, "docdb.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(`{
		"client": {"endpoint": "http://db.internal:9000", "max_retries": 5, "base_wait": "100ms"},
		"server": {"addr": ":9000", "storage": {"backend": "sqlite", "path": "/var/lib/docdb/docs.db"}, "transaction_time_limit": "30s"},
		"logging": {"level": "debug"}
	}`), 0644))

	invalidFile := filepath.Join(tmpDir, "docdb.txt")
	require.NoError(t, os.WriteFile(invalidFile, []byte("test"), 0644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "parse yaml file", path: yamlFile},
		{name: "parse json file", path: jsonFile},
		{name: "invalid file extension", path: invalidFile, wantErr: true},
		{name: "non-existent file", path: "nonexistent.yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseFile(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://db.internal:9000", cfg.Client.Endpoint)
			assert.Equal(t, 5, cfg.Client.MaxRetries)
			assert.Equal(t, 100*time.Millisecond, cfg.Client.BaseWaitDuration())
			// unset values keep their defaults
			assert.Equal(t, 30*time.Second, cfg.Client.TimeoutDuration())
			assert.Equal(t, int64(DefaultPageLength), cfg.Client.PageLength)
			assert.Equal(t, BackendSQLite, cfg.Server.Storage.Backend)
			assert.Equal(t, 30*time.Second, cfg.Server.TransactionTimeLimitDuration())
			assert.Equal(t, "debug", cfg.Logging.Level)
		})
	}
}

func TestParseYAMLQueryOptions(t *testing.T) {
	cfg, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, cfg.QueryOptions, 1)

	books := cfg.FindQueryOptions("books")
	require.NotNil(t, books)
	require.Len(t, books.Values, 2)
	assert.Equal(t, wire.KeyLocator("author.name"), books.Values[0].Locator)
	assert.Equal(t, "isbn", books.Values[1].Locator.Element)
	require.Len(t, books.Tuples, 1)
	assert.Len(t, books.Tuples[0].Locators, 2)

	assert.Nil(t, cfg.FindQueryOptions("missing"))
}

func TestParseYAMLStrict(t *testing.T) {
	_, err := ParseYAML([]byte("client:\n  endpont: http://typo\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"bad duration", func(c *Config) { c.Client.BaseWait = "soon" }},
		{"negative duration", func(c *Config) { c.Server.TransactionTimeLimit = "-1s" }},
		{"bad view", func(c *Config) { c.Client.View = "everything" }},
		{"unknown backend", func(c *Config) { c.Server.Storage.Backend = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Server.Storage = StorageConfig{Backend: BackendSQLite} }},
		{"unnamed options", func(c *Config) { c.QueryOptions = []QueryOptions{{}} }},
		{"duplicate options", func(c *Config) {
			c.QueryOptions = []QueryOptions{{Name: "a"}, {Name: "a"}}
		}},
		{"bad locator", func(c *Config) {
			c.QueryOptions = []QueryOptions{{
				Name: "a",
				QueryOptions: wire.QueryOptions{
					Values: []wire.LexiconDefinition{{Name: "x", Locator: wire.Locator{}}},
				},
			}}
		}},
	}
	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-base.yaml"), []byte(sampleYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02-override.json"), []byte(`{
		"logging": {"level": "warn"},
		"query_options": [{"name": "articles", "values": [{"name": "tag", "locator": {"key": "tags"}}]}]
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644))

	cfg, err := LoadDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "http://db.internal:9000", cfg.Client.Endpoint)
	assert.Equal(t, BackendSQLite, cfg.Server.Storage.Backend)
	require.Len(t, cfg.QueryOptions, 2)
	assert.Equal(t, "articles", cfg.QueryOptions[0].Name)
	assert.Equal(t, "books", cfg.QueryOptions[1].Name)

	_, err = LoadDirectory(t.TempDir())
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".editor.json"), []byte("not json"), 0644))

	fromFile, err := Load(path)
	require.NoError(t, err)
	fromDir, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromDir)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	cfg, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)

	for _, name := range []string{"out.yaml", "out.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, cfg.Save(path))
			loaded, err := ParseFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}

	assert.Error(t, cfg.Save(filepath.Join(t.TempDir(), "out.toml")))

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))
	assert.Contains(t, buf.String(), "endpoint: http://db.internal:9000")
}
