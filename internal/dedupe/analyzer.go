// Package dedupe detects duplicate videos among downloaded files by
// exact content hash and by normalized title similarity.
package dedupe

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ytget/playlist-manager/internal/model"
	"github.com/ytget/playlist-manager/internal/store"
)

// Detection methods
const (
	MethodHash  = "hash"
	MethodTitle = "title"
)

// DefaultTitleThreshold is the minimum normalized-title similarity
// ratio for two videos to be flagged as duplicates.
const DefaultTitleThreshold = 0.9

// Match is one detected duplicate pair. The original is always the
// earlier download.
type Match struct {
	Original  *model.Video
	Duplicate *model.Video
	Score     float64
	Method    string
}

// Analyzer scans the datastore for duplicate downloads.
type Analyzer struct {
	store     store.Store
	threshold float64
	logger    *zap.Logger
}

// NewAnalyzer creates an analyzer with the given title similarity
// threshold; pass 0 to use the default.
func NewAnalyzer(st store.Store, threshold float64, logger *zap.Logger) *Analyzer {
	if threshold <= 0 {
		threshold = DefaultTitleThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{store: st, threshold: threshold, logger: logger}
}

// Run scans all downloaded videos, records every detected pair in the
// datastore and returns the matches. Hash matches win over title
// matches for the same pair.
func (a *Analyzer) Run() ([]Match, error) {
	videos, err := a.store.ListVideosByStatus(model.VideoStatusDownloaded)
	if err != nil {
		return nil, fmt.Errorf("list downloaded videos: %w", err)
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].CreatedAt.Before(videos[j].CreatedAt)
	})

	matches := a.findHashMatches(videos)
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		seen[pairKey(m.Original.ID, m.Duplicate.ID)] = true
	}

	for _, m := range a.findTitleMatches(videos) {
		if seen[pairKey(m.Original.ID, m.Duplicate.ID)] {
			continue
		}
		matches = append(matches, m)
	}

	for _, m := range matches {
		if err := a.store.RecordDuplicate(m.Original.ID, m.Duplicate.ID, m.Score, m.Method); err != nil {
			return nil, fmt.Errorf("record duplicate %s/%s: %w", m.Original.ID, m.Duplicate.ID, err)
		}
	}

	a.logger.Info("duplicate scan finished",
		zap.Int("videos", len(videos)),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

// findHashMatches groups videos by content hash; every later video
// sharing a hash with an earlier one is a duplicate with score 1.0.
func (a *Analyzer) findHashMatches(videos []*model.Video) []Match {
	byHash := make(map[string]*model.Video)
	var matches []Match
	for _, v := range videos {
		if v.FileHash == "" {
			continue
		}
		original, ok := byHash[v.FileHash]
		if !ok {
			byHash[v.FileHash] = v
			continue
		}
		matches = append(matches, Match{
			Original:  original,
			Duplicate: v,
			Score:     1.0,
			Method:    MethodHash,
		})
	}
	return matches
}

// findTitleMatches compares every pair of normalized titles and flags
// pairs whose similarity ratio reaches the threshold.
func (a *Analyzer) findTitleMatches(videos []*model.Video) []Match {
	normalized := make([]string, len(videos))
	for i, v := range videos {
		normalized[i] = NormalizeTitle(v.Title)
	}

	var matches []Match
	for i := 0; i < len(videos); i++ {
		if normalized[i] == "" {
			continue
		}
		for j := i + 1; j < len(videos); j++ {
			if normalized[j] == "" {
				continue
			}
			score := SimilarityRatio(normalized[i], normalized[j])
			if score < a.threshold {
				continue
			}
			matches = append(matches, Match{
				Original:  videos[i],
				Duplicate: videos[j],
				Score:     score,
				Method:    MethodTitle,
			})
		}
	}
	return matches
}

func pairKey(originalID, duplicateID string) string {
	return originalID + "\x00" + duplicateID
}

// NormalizeTitle lowercases the title and collapses everything that is
// not a letter or digit into single spaces, so that punctuation and
// bracketed tags do not mask near-identical titles.
func NormalizeTitle(title string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// SimilarityRatio returns 1 - distance/maxLen for two strings, where
// distance is the Levenshtein edit distance in runes. Identical strings
// score 1.0, completely different strings approach 0.
func SimilarityRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein computes the edit distance with a single rolling row.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur := min(row[j]+1, min(row[j-1]+1, prev+cost))
			prev = row[j]
			row[j] = cur
		}
	}
	return row[len(b)]
}
