package hub

import (
	"net"
	"net/http"
	"sync"
	"time"
)

var (
	// sharedTransport is reused across all hub clients for connection pooling.
	sharedTransport *http.Transport
	transportOnce   sync.Once
)

func getTransport() *http.Transport {
	transportOnce.Do(func() {
		sharedTransport = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     20,
			IdleConnTimeout:     90 * time.Second,

			ForceAttemptHTTP2: true,

			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,

			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		}
	})

	return sharedTransport
}

// newRequestClient returns a client for short metadata/search requests.
func newRequestClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: getTransport(),
		Timeout:   timeout,
	}
}

// newTransferClient returns the client used for file transfers. Redirects are
// handled by the engine itself (single-hop policy), and there is no overall
// timeout: cancellation is the only way to end a stalled transfer.
func newTransferClient() *http.Client {
	return &http.Client{
		Transport: getTransport(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
