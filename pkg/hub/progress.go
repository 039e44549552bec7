package hub

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/clara-assistant/modelpull/pkg/logging"
)

// ProgressManager renders transfer progress for interactive use and emits the
// structured log lines around each acquisition. It also adapts bar updates to
// the engine's ProgressFunc shape.
type ProgressManager struct {
	logger             logging.Interface
	enableProgressBars bool
	enableDetailedLogs bool
}

// NewProgressManager creates a new progress manager.
func NewProgressManager(logger logging.Interface, enableBars, enableLogs bool) *ProgressManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ProgressManager{
		logger:             logger,
		enableProgressBars: enableBars,
		enableDetailedLogs: enableLogs,
	}
}

// CreateFileProgressBar creates a progress bar for a single file transfer.
// Returns nil when bars are disabled; callers must tolerate a nil bar. An
// unknown size renders as a spinner until the transfer reports a total.
func (pm *ProgressManager) CreateFileProgressBar(filename string, size int64) *progressbar.ProgressBar {
	if !pm.enableProgressBars {
		return nil
	}
	if size <= 0 {
		size = -1
	}

	description := fmt.Sprintf("📄 %s", filename)
	if len(description) > 50 {
		description = description[:47] + "..."
	}

	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Printf("\n✅ %s completed\n", filename)
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

// BarProgressFunc adapts a progress bar to the engine's callback. The bar
// tracks absolute downloaded bytes, so updates are set, not added. The total
// is corrected once the server reports a Content-Length that differs from
// the listing's size hint.
func (pm *ProgressManager) BarProgressFunc(bar *progressbar.ProgressBar) ProgressFunc {
	return func(ev ProgressEvent) {
		if bar == nil {
			return
		}
		if ev.TotalSize > 0 && bar.GetMax64() != ev.TotalSize {
			bar.ChangeMax64(ev.TotalSize)
		}
		_ = bar.Set64(ev.DownloadedSize)
	}
}

// LogDownloadStart logs the start of one file transfer.
func (pm *ProgressManager) LogDownloadStart(modelID, filename string, size int64) {
	if pm.enableDetailedLogs {
		pm.logger.
			WithField("model_id", modelID).
			WithField("filename", filename).
			WithField("size", size).
			Info("Starting file download")
		return
	}
	pm.logger.WithField("model_id", modelID).Info("Starting download")
}

// LogDownloadComplete logs the completion of one file transfer.
func (pm *ProgressManager) LogDownloadComplete(modelID, filename string, duration time.Duration, size int64) {
	if pm.enableDetailedLogs {
		pm.logger.
			WithField("model_id", modelID).
			WithField("filename", filename).
			WithField("duration_ms", duration.Milliseconds()).
			WithField("size", formatSize(size)).
			WithField("speed_bps", float64(size)/duration.Seconds()).
			Info("Download completed successfully")
		return
	}
	pm.logger.WithField("model_id", modelID).Info("Download completed")
}

// LogSetStart logs the start of a dependency-set acquisition.
func (pm *ProgressManager) LogSetStart(modelID string, fileCount int) {
	pm.logger.
		WithField("model_id", modelID).
		WithField("file_count", fileCount).
		WithField("operation", "acquire_set").
		Info("Starting model acquisition")
}

// LogSetComplete logs the terminal state of a dependency-set acquisition.
func (pm *ProgressManager) LogSetComplete(modelID string, state AcquisitionState, duration time.Duration) {
	pm.logger.
		WithField("model_id", modelID).
		WithField("state", string(state)).
		WithField("duration_ms", duration.Milliseconds()).
		WithField("operation", "acquire_set").
		Info("Model acquisition finished")
}

// LogError logs a failed operation with context.
func (pm *ProgressManager) LogError(operation, modelID string, err error) {
	pm.logger.
		WithField("operation", operation).
		WithField("model_id", modelID).
		WithError(err).
		Error("Operation failed")
}

// formatSize renders a byte count for humans.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
