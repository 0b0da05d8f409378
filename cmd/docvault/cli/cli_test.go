package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestRoot(out *bytes.Buffer) *cobra.Command {
	info := VersionInfo{Version: "1.2.3", Commit: "abc"}
	root := NewRootCommand(info)
	root.AddCommand(NewVersionCommand(info), NewConfigCommand())
	root.SetOut(out)
	root.SetErr(out)
	return root
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newTestRoot(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "docvault 1.2.3 (abc)\n", out.String())
}

func TestConfigGenerate(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	root := newTestRoot(&out)
	root.SetArgs([]string{"config", "generate", "--output", dir})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(dir, "docvault.yaml"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "per_version", got["upload_version_keys"])
	assert.Equal(t, "15m", got["upload_url_ttl"])
	assert.Contains(t, got, "auth_jwt_secret")

	t.Run("refuses to overwrite", func(t *testing.T) {
		root := newTestRoot(&out)
		root.SetArgs([]string{"config", "generate", "--output", dir})
		assert.Error(t, root.Execute())
	})

	t.Run("overwrite", func(t *testing.T) {
		root := newTestRoot(&out)
		root.SetArgs([]string{"config", "generate", "--output", dir, "--overwrite"})
		assert.NoError(t, root.Execute())
	})
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("upload_version_keys: sometimes\n"), 0o600))

	var out bytes.Buffer
	root := newTestRoot(&out)
	root.SetArgs([]string{"config", "validate", "--config", path})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload_version_keys")

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("upload_url_ttl: 10m\n"), 0o600))
	out.Reset()
	root = newTestRoot(&out)
	root.SetArgs([]string{"config", "validate", "--config", good})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "configuration ok")
}
