package hub

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/clara-assistant/modelpull/pkg/logging"
)

// ReloadNotifier signals a collaborator service that new model files are on
// disk. Notification failures never change the acquisition outcome: the files
// are already downloaded, and the collaborator will see them on its next
// restart regardless.
type ReloadNotifier interface {
	NotifyModelReady(ctx context.Context, set *DependencySet) error
}

// HTTPReloadNotifier posts a reload request to a local inference service.
type HTTPReloadNotifier struct {
	url    string
	client *http.Client
	logger logging.Interface
}

// NewHTTPReloadNotifier builds a notifier for the given reload endpoint.
func NewHTTPReloadNotifier(url string, logger logging.Interface) *HTTPReloadNotifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPReloadNotifier{
		url:    url,
		client: newRequestClient(10 * time.Second),
		logger: logger,
	}
}

// NotifyModelReady posts the reload signal. The response body is discarded;
// only the status code matters.
func (n *HTTPReloadNotifier) NotifyModelReady(ctx context.Context, set *DependencySet) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, nil)
	if err != nil {
		return errors.Wrap(err, "building reload request")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "reload request to %s failed", n.url)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("reload endpoint %s returned status %d", n.url, resp.StatusCode)
	}

	n.logger.WithField("url", n.url).Debug("Reload signal delivered")
	return nil
}

// NopNotifier is used when no reload endpoint is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyModelReady(context.Context, *DependencySet) error { return nil }
