package hub

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aferox "github.com/clara-assistant/modelpull/pkg/afero"
	"github.com/clara-assistant/modelpull/pkg/logging"
)

func TestCreateFileProgressBarDisabled(t *testing.T) {
	pm := NewProgressManager(logging.NewTestLogger(), false, false)

	assert.Nil(t, pm.CreateFileProgressBar("model.gguf", 100))
}

func TestCreateFileProgressBarEnabled(t *testing.T) {
	pm := NewProgressManager(logging.NewTestLogger(), true, false)

	bar := pm.CreateFileProgressBar("model.gguf", 100)
	require.NotNil(t, bar)
	assert.Equal(t, int64(100), bar.GetMax64())

	// Unknown size still yields a bar (spinner form).
	assert.NotNil(t, pm.CreateFileProgressBar("model.gguf", 0))
}

func TestBarProgressFuncUpdatesBar(t *testing.T) {
	pm := NewProgressManager(logging.NewTestLogger(), true, false)

	bar := pm.CreateFileProgressBar("model.gguf", 0)
	require.NotNil(t, bar)

	update := pm.BarProgressFunc(bar)
	update(ProgressEvent{FileName: "model.gguf", DownloadedSize: 5, TotalSize: 10})

	// The unknown-size bar picks up the server-reported total.
	assert.Equal(t, int64(10), bar.GetMax64())
	assert.Equal(t, float64(5), bar.State().CurrentBytes)
}

func TestBarProgressFuncToleratesNilBar(t *testing.T) {
	pm := NewProgressManager(logging.NewTestLogger(), false, false)

	update := pm.BarProgressFunc(pm.CreateFileProgressBar("model.gguf", 100))
	assert.NotPanics(t, func() {
		update(ProgressEvent{DownloadedSize: 5, TotalSize: 10})
	})
}

func TestAcquireWithProgressBarsEnabled(t *testing.T) {
	fixture := &hubFixture{files: map[string]string{"model-q4.gguf": "weights"}}
	server := httptest.NewServer(fixture.handler())
	defer server.Close()

	config := &Config{
		Logger:         logging.NewTestLogger(),
		Endpoint:       server.URL,
		RequestTimeout: DefaultRequestTimeout,
		ChunkSize:      4,
		ModelDir:       "/models",
	}

	fs := aferox.NewMemMapFs()
	registry := NewTransferRegistry(config.Logger)
	engine := NewEngine(config, fs, registry)
	search := NewSearchClient(config)
	acquirer := NewAcquirer(config, engine, search, registry, NopNotifier{}, nil)

	result := acquirer.Acquire(context.Background(), AcquisitionRequest{
		ModelID:     "org/repo",
		PrimaryFile: "model-q4.gguf",
		FileListing: []ModelFileDescriptor{{Name: "model-q4.gguf", SizeHint: 7}},
	})

	assert.Equal(t, AcquisitionCompleted, result.State)
	exists, _ := aferox.Exists(fs, "/models/model-q4.gguf")
	assert.True(t, exists)
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{2 * 1024 * 1024, "2.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.bytes), tt.want)
	}
}
