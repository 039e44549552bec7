package hub

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default values following the upstream hub conventions.
const (
	DefaultEndpoint = "https://huggingface.co"
	DefaultRevision = "main"

	DefaultUserAgent = "modelpull/1.0.0"

	// Request timeout applies to metadata/search calls only. File transfers
	// deliberately carry no overall timeout: a stalled connection is only
	// ever terminated by an explicit cancel (observed upstream behavior,
	// kept as-is rather than inventing a staleness number).
	DefaultRequestTimeout = 10 * time.Second

	DefaultChunkSize = 1024 * 1024 // 1MB

	DefaultSearchLimit = 30

	// WeightsFileSuffix identifies the serialized-weights format this engine
	// acquires. Listings without at least one such file are filtered out of
	// search results.
	WeightsFileSuffix = ".gguf"
)

// Sort keys accepted by Search. Unrecognized keys fall back to popularity.
const (
	SortRecency    = "recency"
	SortPopularity = "popularity"
	SortLikes      = "likes"
)

// hubSortParams maps the public sort keys onto the hub API's sort parameter.
var hubSortParams = map[string]string{
	SortRecency:    "lastModified",
	SortPopularity: "downloads",
	SortLikes:      "likes",
}

// companionMarkers are the substrings that identify a companion/projector
// file (commonly a vision-projection tensor) in a repository listing.
// Matching is case-insensitive.
var companionMarkers = []string{"mmproj", "mm-proj", "projection"}

// visionMarkers are keywords matched against a model's id and description to
// derive the IsVisionModel flag.
var visionMarkers = []string{"vision", "llava", "bakllava", "multimodal", "minicpm-v", "moondream", "-vl", "qwen-vl"}

// Headers
const (
	UserAgentHeader     = "User-Agent"
	AuthorizationHeader = "Authorization"
)

// Environment variables
const (
	EnvHfToken  = "HF_TOKEN"
	EnvModelDir = "MODELPULL_MODEL_DIR"
)

// DefaultModelDir returns the default directory models are acquired into,
// checking the environment first.
func DefaultModelDir() string {
	if dir := os.Getenv(EnvModelDir); dir != "" {
		return dir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "models")
	}

	return filepath.Join(homeDir, ".clara", "models")
}

// GetHfToken returns the hub token from environment.
func GetHfToken() string {
	return os.Getenv(EnvHfToken)
}

// BuildHeaders constructs the request headers for hub calls.
func BuildHeaders(token, userAgent string, extra map[string]string) map[string]string {
	headers := make(map[string]string, len(extra)+2)

	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	headers[UserAgentHeader] = userAgent

	if token != "" {
		headers[AuthorizationHeader] = "Bearer " + token
	}

	for k, v := range extra {
		headers[k] = v
	}

	return headers
}

// isWeightsFile reports whether name is a serialized-weights file.
func isWeightsFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), WeightsFileSuffix)
}
