// Package align locates the contiguous subtitle entry span whose text
// best reproduces a quote. Matching is tolerant of transcription
// drift: punctuation, casing, styling tags, and small wording changes
// between the quote and the subtitle track.
package align

import (
	"strings"

	"quoteclip/internal/subtitle"
	"quoteclip/internal/textnorm"
)

// Tuning constants for the two-phase search. Settled by hand against
// real subtitle tracks; the package tests pin down the behaviors they
// control.
const (
	// AnchorWords is how many words from each end of the quote drive
	// anchoring and end-of-quote detection.
	AnchorWords = 6
	// AnchorLookahead bounds how many entries past the anchor the
	// expansion scans.
	AnchorLookahead = 40
	// ScoreHysteresis is the margin a longer span must beat the best
	// score by before it displaces a shorter one.
	ScoreHysteresis = 0.02
	// EndSignalFloor is the minimum score granted once the quote's
	// closing words appear in an entry.
	EndSignalFloor = 0.25
	// StaleEntryLimit ends the expansion after this many entries pass
	// without improving the best end.
	StaleEntryLimit = 5
	// StaleMinScore is the confidence required before a stale
	// expansion may stop early.
	StaleMinScore = 0.1
	// FallbackForward and FallbackBackward bound the greedy growth
	// around the best single entry when no anchor is found.
	FallbackForward  = 15
	FallbackBackward = 10
	// FallbackMinScore is the acceptance threshold for anchorless
	// matches. Anchored matches carry positional evidence and are
	// allowed to score lower.
	FallbackMinScore = 0.2
)

// Result is a located entry span. Indexes are positions in the track,
// not SRT cue numbers.
type Result struct {
	StartIndex int
	EndIndex   int
	Score      float64
}

// NoMatch reports that no span scored above the acceptance threshold.
// A miss is never an error.
var NoMatch = Result{StartIndex: -1, EndIndex: -1}

// Locate finds the contiguous span of track entries whose concatenated
// text best reproduces quote. Phase one anchors on the quote's opening
// words; phase two grows the span forward until the score stops
// improving. Quotes whose opening words never appear fall back to a
// best-single-entry search.
func Locate(quote string, track subtitle.Track) Result {
	quoteNorm := textnorm.Normalize(quote)
	quoteWords := strings.Fields(quoteNorm)
	if len(quoteWords) == 0 || len(track) == 0 {
		return NoMatch
	}

	normed := make([]string, len(track))
	for i, entry := range track {
		normed[i] = textnorm.Normalize(entry.Text)
	}

	firstWords := quoteWords[:min(AnchorWords, len(quoteWords))]
	lastWords := quoteWords[max(0, len(quoteWords)-AnchorWords):]

	if anchor := findAnchor(normed, firstWords); anchor >= 0 {
		return expand(quoteNorm, quoteWords, lastWords, normed, anchor)
	}
	return fallback(quoteWords, normed)
}

// findAnchor returns the first entry carrying the quote's opening
// words: the first three or four as a contiguous sequence, or at least
// three of them anywhere as whole words.
func findAnchor(normed []string, firstWords []string) int {
	longPrefix := firstWords[:min(4, len(firstWords))]
	shortPrefix := firstWords[:min(3, len(firstWords))]
	scatterNeed := min(3, len(firstWords))

	for i, text := range normed {
		if text == "" {
			continue
		}
		if containsWordSeq(text, longPrefix) || containsWordSeq(text, shortPrefix) {
			return i
		}
		if wholeWordHits(text, firstWords) >= scatterNeed {
			return i
		}
	}
	return -1
}

// expand grows a span forward from the anchor, tracking the best end
// by overlap score. Containment of the whole normalized quote wins
// immediately with a perfect score.
func expand(quoteNorm string, quoteWords, lastWords []string, normed []string, start int) Result {
	var sb strings.Builder
	bestEnd := start
	bestScore := 0.0
	bestLenDiff := int(^uint(0) >> 1)

	limit := min(start+AnchorLookahead, len(normed)-1)
	for i := start; i <= limit; i++ {
		if normed[i] != "" {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(normed[i])
		}
		concat := sb.String()

		if strings.Contains(concat, quoteNorm) {
			return Result{StartIndex: start, EndIndex: i, Score: 1.0}
		}

		spanWords := strings.Fields(concat)
		score := textnorm.Overlap(quoteWords, spanWords)
		lenDiff := abs(len(spanWords) - len(quoteWords))

		updated := false
		switch {
		case score > bestScore+ScoreHysteresis:
			bestScore, bestEnd, bestLenDiff = score, i, lenDiff
			updated = true
		case score >= bestScore-ScoreHysteresis && lenDiff < bestLenDiff:
			// effectively the same score on a span closer to the
			// quote's length
			if score > bestScore {
				bestScore = score
			}
			bestEnd, bestLenDiff = i, lenDiff
			updated = true
		}

		if containsWordSeq(normed[i], lastWords) {
			// closing words are a strong end-of-quote signal
			if bestScore < EndSignalFloor {
				bestScore = EndSignalFloor
			}
			if !updated {
				bestEnd, bestLenDiff = i, lenDiff
			}
		}

		if i-bestEnd >= StaleEntryLimit && bestScore > StaleMinScore {
			break
		}
	}

	return Result{StartIndex: start, EndIndex: bestEnd, Score: bestScore}
}

// fallback finds the best single entry by word overlap, then greedily
// grows the span in both directions while the score improves.
func fallback(quoteWords []string, normed []string) Result {
	bestIdx := -1
	bestScore := 0.0
	for i, text := range normed {
		score := textnorm.Overlap(quoteWords, strings.Fields(text))
		if score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	if bestIdx < 0 {
		return NoMatch
	}

	start, end, score := bestIdx, bestIdx, bestScore
	for end+1 < len(normed) && end+1 <= bestIdx+FallbackForward {
		trial := spanScore(quoteWords, normed, start, end+1)
		if trial <= score {
			break
		}
		score, end = trial, end+1
	}
	for start-1 >= 0 && start-1 >= bestIdx-FallbackBackward {
		trial := spanScore(quoteWords, normed, start-1, end)
		if trial <= score {
			break
		}
		score, start = trial, start-1
	}

	if score > FallbackMinScore {
		return Result{StartIndex: start, EndIndex: end, Score: score}
	}
	return NoMatch
}

func spanScore(quoteWords []string, normed []string, start, end int) float64 {
	var words []string
	for i := start; i <= end; i++ {
		words = append(words, strings.Fields(normed[i])...)
	}
	return textnorm.Overlap(quoteWords, words)
}

// containsWordSeq reports whether text contains words as a contiguous
// whole-word sequence.
func containsWordSeq(text string, words []string) bool {
	if len(words) == 0 || text == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+strings.Join(words, " ")+" ")
}

func wholeWordHits(text string, words []string) int {
	present := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		present[w] = struct{}{}
	}
	hits := 0
	for _, w := range words {
		if _, ok := present[w]; ok {
			hits++
		}
	}
	return hits
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
