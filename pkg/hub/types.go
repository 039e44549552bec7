package hub

// ModelFileDescriptor is one entry in a model's remote file listing.
type ModelFileDescriptor struct {
	Name     string `json:"name"`
	SizeHint int64  `json:"sizeHint,omitempty"`
}

// ModelSummary is one normalized search result.
type ModelSummary struct {
	ID          string                `json:"id"`
	Description string                `json:"description,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	Downloads   int                   `json:"downloads"`
	Likes       int                   `json:"likes"`
	FileListing []ModelFileDescriptor `json:"fileListing"`

	// IsVisionModel is a keyword-match guess derived from id/description.
	IsVisionModel bool `json:"isVisionModel"`
	// CandidateCompanionFiles are listing entries carrying a projection
	// marker token; the resolver narrows these per chosen primary file.
	CandidateCompanionFiles []string `json:"candidateCompanionFiles,omitempty"`
}

// DependencySet is the resolved download plan for a chosen artifact. Built
// once per acquisition request and consumed immediately; never persisted.
type DependencySet struct {
	PrimaryFile     string
	ShardFiles      []string
	CompanionFiles  []string
	TargetDirectory string

	// BestEffort marks sets whose shard or companion membership came from
	// tolerant name matching rather than an authoritative reference.
	BestEffort bool
}

// IsSharded reports whether the primary was replaced by a shard group.
func (s *DependencySet) IsSharded() bool {
	return len(s.ShardFiles) > 0
}

// PrimaryFiles returns the files making up the primary artifact: the shard
// sequence in ascending index order, or the single primary file.
func (s *DependencySet) PrimaryFiles() []string {
	if s.IsSharded() {
		return s.ShardFiles
	}
	return []string{s.PrimaryFile}
}

// DownloadOrder returns every file in the set in download order: shards
// ascending (or the single primary), then companions.
func (s *DependencySet) DownloadOrder() []string {
	order := append([]string{}, s.PrimaryFiles()...)
	return append(order, s.CompanionFiles...)
}

// ProgressEvent reports transfer progress after each chunk.
type ProgressEvent struct {
	FileName       string  `json:"fileName"`
	Progress       float64 `json:"progress"` // 0-100; 0 when total size is unknown
	DownloadedSize int64   `json:"downloadedSize"`
	TotalSize      int64   `json:"totalSize"`
}

// ProgressFunc is invoked after every chunk of a transfer.
type ProgressFunc func(ProgressEvent)

// DownloadStartedEvent is emitted when a file transfer begins.
type DownloadStartedEvent struct {
	FileName        string `json:"fileName"`
	ModelID         string `json:"modelId"`
	IsCompanionFile bool   `json:"isCompanionFile"`
}

// DownloadCompletedEvent is emitted when a file transfer ends, successfully
// or not.
type DownloadCompletedEvent struct {
	FileName        string `json:"fileName"`
	ModelID         string `json:"modelId"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	IsCompanionFile bool   `json:"isCompanionFile"`
}

// EventSink receives lifecycle events for an acquisition. Implementations
// must not block; events are emitted synchronously from the download chain.
type EventSink interface {
	DownloadStarted(DownloadStartedEvent)
	DownloadCompleted(DownloadCompletedEvent)
	Progress(ProgressEvent)
}

// AcquisitionState is the terminal state of one acquisition request.
type AcquisitionState string

const (
	// AcquisitionCompleted means every file in the set is on disk.
	AcquisitionCompleted AcquisitionState = "completed"
	// AcquisitionPartiallyFailed means the primary artifact succeeded but at
	// least one companion failed; the model is usable in degraded form.
	AcquisitionPartiallyFailed AcquisitionState = "partially_failed"
	// AcquisitionFailed means the primary artifact itself failed.
	AcquisitionFailed AcquisitionState = "failed"
	// AcquisitionCancelled means the primary artifact was cancelled mid-set.
	AcquisitionCancelled AcquisitionState = "cancelled"
)

// FileResult records the outcome for one file of a dependency set.
type FileResult struct {
	FileName  string
	Path      string
	Companion bool
	Err       error
}

// AcquisitionResult is the outcome of one acquisition request. Per-file
// outcomes are preserved; the state is never collapsed into a single boolean.
type AcquisitionResult struct {
	ModelID     string
	State       AcquisitionState
	Set         *DependencySet
	PrimaryPath string
	Files       []FileResult
	Err         error
}

// Succeeded reports whether the primary artifact is usable.
func (r *AcquisitionResult) Succeeded() bool {
	return r.State == AcquisitionCompleted || r.State == AcquisitionPartiallyFailed
}

// AcquisitionRequest describes one user-chosen artifact to acquire.
type AcquisitionRequest struct {
	ModelID     string
	PrimaryFile string
	FileListing []ModelFileDescriptor
	// TargetDir overrides the configured model directory when set.
	TargetDir string
}

// StopResult is the outcome of a stop-download request. A missing transfer is
// not an error; Success is simply false.
type StopResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
