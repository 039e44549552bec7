package hub

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

// Shard members are published as base-N-of-M.gguf.
var shardNameRegex = regexp.MustCompile(`(?i)^(.+?)-(\d+)-of-(\d+)\.gguf$`)

// Trailing tokens stripped from a filename before base-name comparison:
// quantization markers (q4_k_m, iq3_xs, ...), precision markers and common
// variant words. Upstream repositories are inconsistent about these, so the
// comparison works on the stripped form.
var suffixTokenRegex = regexp.MustCompile(`^(i?q\d[\w]*|f(p)?(16|32)|bf16|instruct|chat|it)$`)

// Resolve computes the complete ordered set of files that must be downloaded
// together for the chosen primary file, given the model's full file listing.
//
// This is a heuristic matcher: there is no authoritative cross-reference
// linking a weights file to its shards or companions, only naming
// conventions. Wrong matches are possible when one repository hosts several
// unrelated model families under similar names, so the result is a
// best-effort resolution, not a guarantee.
func Resolve(primaryFile string, listing []ModelFileDescriptor, targetDir string) *DependencySet {
	set := &DependencySet{
		PrimaryFile:     primaryFile,
		TargetDirectory: targetDir,
	}

	set.ShardFiles = matchShardGroup(primaryFile, listing)

	// Companions are matched against the first shard when the primary was
	// replaced by a shard group.
	reference := primaryFile
	if len(set.ShardFiles) > 0 {
		reference = set.ShardFiles[0]
	}
	set.CompanionFiles = matchCompanions(reference, primaryFile, set.ShardFiles, listing)

	set.BestEffort = len(set.ShardFiles) > 0 || len(set.CompanionFiles) > 0

	return set
}

// matchShardGroup scans the listing for shard members belonging to the same
// group as the primary file. Group membership is a tolerant match: one
// stripped base name containing the other, not exact equality, because
// upstream repositories do not guarantee identical base names. Members are
// returned in ascending shard-index order. When any are found they replace
// the primary entirely; the single-file path is never downloaded alongside
// its shards.
func matchShardGroup(primaryFile string, listing []ModelFileDescriptor) []string {
	primaryBase := stripBaseName(primaryFile)

	type member struct {
		name  string
		index int
	}
	var members []member

	for _, f := range listing {
		base, index, ok := parseShardName(f.Name)
		if !ok {
			continue
		}
		if basesOverlap(stripSuffixTokens(base), primaryBase) {
			members = append(members, member{name: f.Name, index: index})
		}
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].index < members[j].index
	})

	shards := make([]string, 0, len(members))
	for _, m := range members {
		shards = append(shards, m.name)
	}
	return shards
}

// matchCompanions returns every listing entry carrying a companion marker
// token, ordered by the length of the longest common substring between its
// stripped base name and the reference's (best match first). Equal scores
// resolve to listing order: that is the observed upstream tie-break, kept
// deliberately rather than replaced with a smarter rule.
func matchCompanions(reference, primaryFile string, shards []string, listing []ModelFileDescriptor) []string {
	excluded := make(map[string]struct{}, len(shards)+1)
	excluded[primaryFile] = struct{}{}
	for _, s := range shards {
		excluded[s] = struct{}{}
	}

	refBase := stripBaseName(reference)

	type candidate struct {
		name  string
		score int
	}
	var candidates []candidate

	for _, f := range listing {
		if _, skip := excluded[f.Name]; skip {
			continue
		}
		if !hasCompanionMarker(f.Name) {
			continue
		}
		candidates = append(candidates, candidate{
			name:  f.Name,
			score: longestCommonSubstring(stripBaseName(f.Name), refBase),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.name)
	}
	return names
}

// hasCompanionMarker reports whether name contains a projection marker token.
func hasCompanionMarker(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range companionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// parseShardName extracts the base name and shard index from a name of the
// form base-N-of-M.gguf.
func parseShardName(name string) (base string, index int, ok bool) {
	m := shardNameRegex.FindStringSubmatch(path.Base(name))
	if m == nil {
		return "", 0, false
	}
	return m[1], atoiLoose(m[2]), true
}

// stripBaseName lowercases a filename and strips its extension, any shard
// suffix, and trailing quantization/variant tokens.
func stripBaseName(name string) string {
	base := strings.ToLower(path.Base(name))

	if m := shardNameRegex.FindStringSubmatch(base); m != nil {
		base = m[1]
	} else if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}

	return stripSuffixTokens(base)
}

// stripSuffixTokens drops trailing '-'-separated tokens recognized as
// quantization or variant markers.
func stripSuffixTokens(base string) string {
	parts := strings.Split(strings.ToLower(base), "-")
	for len(parts) > 1 && suffixTokenRegex.MatchString(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, "-")
}

// basesOverlap is the tolerant shard-group comparison: true when either
// stripped base name contains the other.
func basesOverlap(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// longestCommonSubstring returns the length of the longest common substring
// of a and b.
func longestCommonSubstring(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	best := 0

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}

	return best
}

func atoiLoose(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
