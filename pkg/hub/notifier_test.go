package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clara-assistant/modelpull/pkg/logging"
)

func TestHTTPReloadNotifierPosts(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))
	defer server.Close()

	notifier := NewHTTPReloadNotifier(server.URL+"/reload", logging.NewTestLogger())

	err := notifier.NotifyModelReady(context.Background(), &DependencySet{PrimaryFile: "model.gguf"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
}

func TestHTTPReloadNotifierNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	notifier := NewHTTPReloadNotifier(server.URL, logging.NewTestLogger())

	err := notifier.NotifyModelReady(context.Background(), &DependencySet{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPReloadNotifierConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	notifier := NewHTTPReloadNotifier(server.URL, logging.NewTestLogger())

	assert.Error(t, notifier.NotifyModelReady(context.Background(), &DependencySet{}))
}
