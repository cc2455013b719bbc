package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrold/sphinxgo/config"
)

const serverYAML = `
listen:
  - net: tcp
    addr: "0.0.0.0:9312"
    protocol: sphinx
  - net: tcp
    addr: "0.0.0.0:9306"
    protocol: mysql41
index_dir: /var/lib/sphinxgo
pid_file: /var/run/sphinxgo.pid
local_indexes: [main]
`

func TestLoadServerConfigValid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searchd.yml")
	require.NoError(t, os.WriteFile(path, []byte(serverYAML), 0644))

	cfg, err := config.LoadServerConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Listen, 2)
	assert.Equal(t, "/var/lib/sphinxgo", cfg.IndexDir)
	assert.Empty(t, cfg.Validate())
	assert.Equal(t, 30, cfg.MaxChildren)
}

func TestServerConfigValidateCollectsAllErrors(t *testing.T) {
	cfg := config.ServerConfig{}
	errs := cfg.Validate()
	assert.GreaterOrEqual(t, len(errs), 2)
}

const indexerYAML = `
indexes:
  - name: main
    path: /var/lib/sphinxgo/main
    fields: [title, body]
    attrs:
      - name: price
        type: int
      - name: tags
        type: mva
    sources:
      - name: pgsql
        type: sql
    mem_limit: 64M
    docinfo: extern
`

func TestLoadIndexerConfigValid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "indexer.yml")
	require.NoError(t, os.WriteFile(path, []byte(indexerYAML), 0644))

	cfg, err := config.LoadIndexerConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Indexes, 1)
	assert.Empty(t, cfg.Validate())

	sch, err := cfg.Indexes[0].BuildSchema()
	require.NoError(t, err)
	assert.Len(t, sch.Fields, 2)
	assert.Len(t, sch.Attrs, 2)
}

func TestIndexerConfigValidateDuplicateName(t *testing.T) {
	cfg := config.IndexerConfig{Indexes: []config.IndexSpec{
		{Name: "a", Path: "p1", Fields: []string{"f"}, Sources: []config.SourceSpec{{Name: "s"}}},
		{Name: "a", Path: "p2", Fields: []string{"f"}, Sources: []config.SourceSpec{{Name: "s"}}},
	}}
	errs := cfg.Validate()
	found := false
	for _, e := range errs {
		if e.Error() == `config: duplicate index name "a"` {
			found = true
		}
	}
	assert.True(t, found)
}

func TestParseMemLimit(t *testing.T) {
	v, err := config.ParseMemLimit("64M")
	require.NoError(t, err)
	assert.Equal(t, 64*1024*1024, v)

	_, err = config.ParseMemLimit("")
	assert.Error(t, err)
}
