package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func listing(names ...string) []ModelFileDescriptor {
	files := make([]ModelFileDescriptor, 0, len(names))
	for _, n := range names {
		files = append(files, ModelFileDescriptor{Name: n})
	}
	return files
}

func TestResolveSingleFile(t *testing.T) {
	set := Resolve("model-q4_k_m.gguf", listing("model-q4_k_m.gguf", "README.md", "config.json"), "/models")

	assert.Equal(t, "model-q4_k_m.gguf", set.PrimaryFile)
	assert.Empty(t, set.ShardFiles)
	assert.Empty(t, set.CompanionFiles)
	assert.False(t, set.BestEffort)
	assert.Equal(t, []string{"model-q4_k_m.gguf"}, set.DownloadOrder())
}

func TestResolveShardGroup(t *testing.T) {
	files := listing(
		"model-q4-00002-of-00003.gguf",
		"model-q4-00001-of-00003.gguf",
		"README.md",
		"model-q4-00003-of-00003.gguf",
	)

	set := Resolve("model-q4.gguf", files, "/models")

	assert.True(t, set.IsSharded())
	assert.Equal(t, []string{
		"model-q4-00001-of-00003.gguf",
		"model-q4-00002-of-00003.gguf",
		"model-q4-00003-of-00003.gguf",
	}, set.ShardFiles)
	// Shards replace the single-file primary in the download plan.
	assert.Equal(t, set.ShardFiles, set.PrimaryFiles())
	assert.True(t, set.BestEffort)
}

func TestResolveShardsTolerateQuantSuffixes(t *testing.T) {
	files := listing(
		"llama-3-8b-instruct-q4_k_m-00001-of-00002.gguf",
		"llama-3-8b-instruct-q4_k_m-00002-of-00002.gguf",
	)

	set := Resolve("llama-3-8b-instruct.gguf", files, "/models")

	assert.Len(t, set.ShardFiles, 2)
}

func TestResolveIgnoresUnrelatedShardGroups(t *testing.T) {
	files := listing(
		"alpha.gguf",
		"beta-00001-of-00002.gguf",
		"beta-00002-of-00002.gguf",
	)

	set := Resolve("alpha.gguf", files, "/models")

	assert.Empty(t, set.ShardFiles)
	assert.Equal(t, []string{"alpha.gguf"}, set.DownloadOrder())
}

func TestResolveCompanionAfterPrimary(t *testing.T) {
	files := listing(
		"llava-v1.5-7b-q4_k_m.gguf",
		"llava-v1.5-7b-mmproj-f16.gguf",
		"README.md",
	)

	set := Resolve("llava-v1.5-7b-q4_k_m.gguf", files, "/models")

	assert.Equal(t, []string{"llava-v1.5-7b-mmproj-f16.gguf"}, set.CompanionFiles)
	assert.Equal(t, []string{
		"llava-v1.5-7b-q4_k_m.gguf",
		"llava-v1.5-7b-mmproj-f16.gguf",
	}, set.DownloadOrder())
}

func TestResolveCompanionOverlapOrdering(t *testing.T) {
	files := listing(
		"some-other-model-mmproj.gguf",
		"llava-v1.5-7b-mmproj-f16.gguf",
		"llava-v1.5-7b-q4_k_m.gguf",
	)

	set := Resolve("llava-v1.5-7b-q4_k_m.gguf", files, "/models")

	// The closer base-name match downloads first even though it appears
	// later in the listing.
	assert.Equal(t, []string{
		"llava-v1.5-7b-mmproj-f16.gguf",
		"some-other-model-mmproj.gguf",
	}, set.CompanionFiles)
}

func TestResolveCompanionTieKeepsListingOrder(t *testing.T) {
	files := listing(
		"model-q4.gguf",
		"zz-mmproj.bin",
		"aa-mmproj.bin",
	)

	set := Resolve("model-q4.gguf", files, "/models")

	assert.Equal(t, []string{"zz-mmproj.bin", "aa-mmproj.bin"}, set.CompanionFiles)
}

func TestResolveShardedWithCompanion(t *testing.T) {
	files := listing(
		"model-q4-00001-of-00002.gguf",
		"model-q4-00002-of-00002.gguf",
		"model-mmproj.gguf",
	)

	set := Resolve("model-q4.gguf", files, "/models")

	assert.Equal(t, []string{
		"model-q4-00001-of-00002.gguf",
		"model-q4-00002-of-00002.gguf",
		"model-mmproj.gguf",
	}, set.DownloadOrder())
}

func TestResolveThreeShardsWithProjectorFile(t *testing.T) {
	files := listing(
		"model-q4-00001-of-00003.gguf",
		"model-q4-00002-of-00003.gguf",
		"model-q4-00003-of-00003.gguf",
		"model-q4.mmproj",
	)

	set := Resolve("model-q4.gguf", files, "/models")

	assert.Equal(t, []string{
		"model-q4-00001-of-00003.gguf",
		"model-q4-00002-of-00003.gguf",
		"model-q4-00003-of-00003.gguf",
		"model-q4.mmproj",
	}, set.DownloadOrder())
}

func TestResolvePrimaryWithMarkerIsNotItsOwnCompanion(t *testing.T) {
	files := listing("model-mmproj.gguf", "other-projection.bin")

	set := Resolve("model-mmproj.gguf", files, "/models")

	assert.Equal(t, []string{"other-projection.bin"}, set.CompanionFiles)
}

func TestParseShardName(t *testing.T) {
	tests := []struct {
		name      string
		wantBase  string
		wantIndex int
		wantOK    bool
	}{
		{"model-00001-of-00003.gguf", "model", 1, true},
		{"Model-Q4-2-of-3.GGUF", "Model-Q4", 2, true},
		{"model.gguf", "", 0, false},
		{"model-1-of-2.bin", "", 0, false},
	}

	for _, tt := range tests {
		base, index, ok := parseShardName(tt.name)
		assert.Equal(t, tt.wantOK, ok, tt.name)
		if ok {
			assert.Equal(t, tt.wantBase, base, tt.name)
			assert.Equal(t, tt.wantIndex, index, tt.name)
		}
	}
}

func TestStripBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"model-q4_k_m.gguf", "model"},
		{"model-iq3_xs.gguf", "model"},
		{"llama-3-8b-instruct-f16.gguf", "llama-3-8b"},
		{"model-00001-of-00002.gguf", "model"},
		{"plain.gguf", "plain"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stripBaseName(tt.in), tt.in)
	}
}

func TestLongestCommonSubstring(t *testing.T) {
	assert.Equal(t, 0, longestCommonSubstring("", "abc"))
	assert.Equal(t, 3, longestCommonSubstring("abc", "abc"))
	assert.Equal(t, 2, longestCommonSubstring("xabz", "yabw"))
}
