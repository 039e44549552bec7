package hub

import (
	"context"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/clara-assistant/modelpull/pkg/logging"
)

// Acquirer runs complete dependency-set acquisitions: resolve the set, stream
// its files sequentially, and signal the reload collaborator when the model
// is usable. Files within one set are strictly sequential; distinct sets may
// be acquired concurrently, the registry arbitrating filename collisions.
type Acquirer struct {
	engine     *Engine
	search     *SearchClient
	registry   *TransferRegistry
	notifier   ReloadNotifier
	progress   *ProgressManager
	events     EventSink
	defaultDir string
	logger     logging.Interface
}

// NewAcquirer wires the acquisition pipeline together.
func NewAcquirer(config *Config, engine *Engine, search *SearchClient, registry *TransferRegistry, notifier ReloadNotifier, events EventSink) *Acquirer {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if events == nil {
		events = nopEvents{}
	}

	return &Acquirer{
		engine:     engine,
		search:     search,
		registry:   registry,
		notifier:   notifier,
		progress:   NewProgressManager(logger, !config.DisableProgressBars, config.EnableDetailedLogs),
		events:     events,
		defaultDir: config.ModelDir,
		logger:     logger,
	}
}

// Acquire downloads every file of the request's resolved dependency set, in
// order: shards ascending (or the single primary), then companions. A primary
// failure aborts the set; a companion failure degrades it to partially failed
// but never rolls back the primary. The returned result always carries the
// per-file outcomes.
func (a *Acquirer) Acquire(ctx context.Context, req AcquisitionRequest) *AcquisitionResult {
	targetDir := req.TargetDir
	if targetDir == "" {
		targetDir = a.defaultDir
	}

	set := Resolve(req.PrimaryFile, req.FileListing, targetDir)

	result := &AcquisitionResult{
		ModelID: req.ModelID,
		State:   AcquisitionCompleted,
		Set:     set,
	}

	order := set.DownloadOrder()
	primaryCount := len(set.PrimaryFiles())

	sizeHints := make(map[string]int64, len(req.FileListing))
	for _, f := range req.FileListing {
		sizeHints[f.Name] = f.SizeHint
	}

	start := time.Now()
	a.progress.LogSetStart(req.ModelID, len(order))

	var companionErrs error

	for i, fileName := range order {
		companion := i >= primaryCount

		if err := a.acquireFile(ctx, req.ModelID, fileName, targetDir, sizeHints[fileName], companion, result); err != nil {
			if !companion {
				// The primary artifact is unusable; nothing further in the
				// set is worth downloading.
				if IsCancelled(err) {
					result.State = AcquisitionCancelled
				} else {
					result.State = AcquisitionFailed
				}
				result.Err = err
				a.progress.LogError("acquire", req.ModelID, err)
				break
			}

			// A missing companion degrades the model (e.g. no image input)
			// but the primary weights remain usable.
			companionErrs = multierror.Append(companionErrs, err)
			a.logger.
				WithField("model_id", req.ModelID).
				WithField("file", fileName).
				WithError(err).
				Warn("Companion download failed, continuing")
		}
	}

	if result.State == AcquisitionCompleted && companionErrs != nil {
		result.State = AcquisitionPartiallyFailed
		result.Err = companionErrs
	}

	if result.Succeeded() {
		a.notifyReload(ctx, req.ModelID, set)
	}

	a.progress.LogSetComplete(req.ModelID, result.State, time.Since(start))
	return result
}

// acquireFile downloads one file of the set and records its outcome.
func (a *Acquirer) acquireFile(ctx context.Context, modelID, fileName, targetDir string, sizeHint int64, companion bool, result *AcquisitionResult) error {
	targetPath := filepath.Join(targetDir, filepath.Base(fileName))

	a.events.DownloadStarted(DownloadStartedEvent{
		FileName:        fileName,
		ModelID:         modelID,
		IsCompanionFile: companion,
	})
	a.progress.LogDownloadStart(modelID, fileName, sizeHint)

	bar := a.progress.CreateFileProgressBar(filepath.Base(fileName), sizeHint)
	barUpdate := a.progress.BarProgressFunc(bar)

	start := time.Now()
	var downloaded int64

	err := a.engine.Download(ctx, a.search.FileURL(modelID, fileName), targetPath, func(ev ProgressEvent) {
		downloaded = ev.DownloadedSize
		barUpdate(ev)
		a.events.Progress(ev)
	})

	if bar != nil {
		if err == nil {
			_ = bar.Finish()
		} else {
			_ = bar.Clear()
		}
	}

	outcome := FileResult{FileName: fileName, Companion: companion, Err: err}
	if err == nil {
		outcome.Path = targetPath
		if !companion && result.PrimaryPath == "" {
			result.PrimaryPath = targetPath
		}
		a.progress.LogDownloadComplete(modelID, fileName, time.Since(start), downloaded)
	}
	result.Files = append(result.Files, outcome)

	completed := DownloadCompletedEvent{
		FileName:        fileName,
		ModelID:         modelID,
		Success:         err == nil,
		IsCompanionFile: companion,
	}
	if err != nil {
		completed.Error = err.Error()
	}
	a.events.DownloadCompleted(completed)

	return err
}

// notifyReload signals the collaborator. Failures are logged as warnings
// only: the files are on disk and the acquisition outcome stands.
func (a *Acquirer) notifyReload(ctx context.Context, modelID string, set *DependencySet) {
	if err := a.notifier.NotifyModelReady(ctx, set); err != nil {
		a.logger.
			WithField("model_id", modelID).
			WithError(err).
			Warn("Model reload notification failed")
	}
}

// StopDownload requests cooperative cancellation of one in-flight transfer,
// identified by filename. A transfer that is not active yields Success=false
// without an error.
func (a *Acquirer) StopDownload(fileName string) StopResult {
	return StopResult{Success: a.registry.Cancel(filepath.Base(fileName))}
}

// nopEvents discards all lifecycle events.
type nopEvents struct{}

func (nopEvents) DownloadStarted(DownloadStartedEvent)     {}
func (nopEvents) DownloadCompleted(DownloadCompletedEvent) {}
func (nopEvents) Progress(ProgressEvent)                   {}
