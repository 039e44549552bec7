package hub

import (
	"context"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	aferox "github.com/clara-assistant/modelpull/pkg/afero"
	"github.com/clara-assistant/modelpull/pkg/logging"
	"github.com/clara-assistant/modelpull/pkg/modelstore"
)

// Client is the single entry point for model acquisition: search the hub,
// resolve and download dependency sets, cancel transfers, and delete local
// files within the allow-listed directories.
type Client struct {
	config   *Config
	search   *SearchClient
	registry *TransferRegistry
	engine   *Engine
	acquirer *Acquirer
	store    *modelstore.Store
	logger   logging.Interface
}

// NewClient builds a client from the configuration. An EventSink may be nil.
func NewClient(config *Config, fs aferox.Fs, events EventSink) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	search := NewSearchClient(config)
	registry := NewTransferRegistry(logger)
	engine := NewEngine(config, fs, registry)

	var notifier ReloadNotifier = NopNotifier{}
	if config.ReloadURL != "" {
		notifier = NewHTTPReloadNotifier(config.ReloadURL, logger)
	}

	return &Client{
		config:   config,
		search:   search,
		registry: registry,
		engine:   engine,
		acquirer: NewAcquirer(config, engine, search, registry, notifier, events),
		store:    modelstore.New(fs, config.AllowedDirs(), logger),
		logger:   logger,
	}, nil
}

// Search queries the hub for models matching query.
func (c *Client) Search(ctx context.Context, query string, limit int, sortKey string) ([]ModelSummary, error) {
	return c.search.Search(ctx, query, limit, sortKey)
}

// ListFiles fetches one repository's complete file listing.
func (c *Client) ListFiles(ctx context.Context, repoID string) ([]ModelFileDescriptor, error) {
	return c.search.ListFiles(ctx, repoID)
}

// ResolveSet computes the dependency set for a chosen primary file without
// downloading anything.
func (c *Client) ResolveSet(primaryFile string, listing []ModelFileDescriptor, targetDir string) *DependencySet {
	if targetDir == "" {
		targetDir = c.config.ModelDir
	}
	return Resolve(primaryFile, listing, targetDir)
}

// Acquire downloads the request's resolved dependency set.
func (c *Client) Acquire(ctx context.Context, req AcquisitionRequest) *AcquisitionResult {
	return c.acquirer.Acquire(ctx, req)
}

// StopDownload cancels one in-flight transfer by filename.
func (c *Client) StopDownload(fileName string) StopResult {
	return c.acquirer.StopDownload(fileName)
}

// ActiveDownloads returns the filenames of all in-flight transfers.
func (c *Client) ActiveDownloads() []string {
	return c.registry.InFlight()
}

// DeleteLocalModel removes a local model file, constrained to the
// allow-listed model directories.
func (c *Client) DeleteLocalModel(path string) error {
	return c.store.Delete(path)
}

// ListLocalModels returns model files present in the allow-listed
// directories.
func (c *Client) ListLocalModels() ([]string, error) {
	return c.store.List()
}

// Store exposes the local model store.
func (c *Client) Store() *modelstore.Store {
	return c.store
}

// ClientParams defines the dependencies injected into the hub client.
type ClientParams struct {
	fx.In

	Logger logging.Interface
	Viper  *viper.Viper
	Fs     aferox.Fs
	Events EventSink `optional:"true"`
}

// Module provides the hub client to an fx application.
var Module = fx.Provide(
	func(params ClientParams) (*Client, error) {
		config, err := NewConfig(
			WithViper(params.Viper),
			WithLogger(params.Logger),
		)
		if err != nil {
			return nil, err
		}
		return NewClient(config, params.Fs, params.Events)
	},
)
