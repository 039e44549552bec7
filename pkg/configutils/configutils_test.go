package configutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestResolveAndMergeFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "endpoint: https://example.com\n")

	v := viper.New()
	require.NoError(t, ResolveAndMergeFile(v, path))
	assert.Equal(t, "https://example.com", v.GetString("endpoint"))
}

func TestResolveAndMergeFileWithImports(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "endpoint: https://base.example.com\nchunk_size: 1024\n")
	path := writeConfig(t, dir, "config.yaml", "imports:\n  - base.yaml\nendpoint: https://override.example.com\n")

	v := viper.New()
	require.NoError(t, ResolveAndMergeFile(v, path))

	// root config wins over imports, non-conflicting keys survive
	assert.Equal(t, "https://override.example.com", v.GetString("endpoint"))
	assert.Equal(t, 1024, v.GetInt("chunk_size"))
}

func TestResolveAndMergeFileErrors(t *testing.T) {
	v := viper.New()
	assert.Error(t, ResolveAndMergeFile(v, "/nonexistent/config.yaml"))

	dir := t.TempDir()
	noExt := writeConfig(t, dir, "config", "a: 1\n")
	assert.Error(t, ResolveAndMergeFile(viper.New(), noExt))
}

func TestProvideViperFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "endpoint: https://example.com\nmodel_dir: /data/models\n")

	pflags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	pflags.Bool("debug", false, "")

	var v *viper.Viper
	app := fx.New(
		ProvideViperFromFile("TESTAPP", pflags, path),
		fx.Invoke(func(got *viper.Viper) { v = got }),
		fx.NopLogger,
	)
	require.NoError(t, app.Err())

	require.NotNil(t, v)
	assert.Equal(t, "https://example.com", v.GetString("endpoint"))
	assert.Equal(t, "/data/models", v.GetString("model_dir"))
	assert.False(t, v.GetBool("debug"))
}

func TestProvideViperFromFileRequiresPath(t *testing.T) {
	app := fx.New(
		ProvideViperFromFile("TESTAPP", nil, ""),
		fx.Invoke(func(v *viper.Viper) {}),
		fx.NopLogger,
	)
	assert.Error(t, app.Err())
}

func TestBindEnvsRecursive(t *testing.T) {
	type nested struct {
		Inner string `mapstructure:"inner"`
	}
	type cfg struct {
		Endpoint string  `mapstructure:"endpoint"`
		Nested   *nested `mapstructure:"nested"`
		ignored  string
	}

	t.Setenv("APP_HUB_ENDPOINT", "https://env.example.com")

	v := viper.New()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	c := &cfg{}
	require.NoError(t, BindEnvsRecursive(v, c, "hub"))
	assert.Equal(t, "https://env.example.com", v.GetString("hub.endpoint"))
}
