package usecase

import (
	"medrag/internal/domain"
)

// MapCitations resolves raw citation offsets against the answer text.
// Offsets count runes. Out-of-range offsets are clamped to the answer; a
// citation whose start still lies past its end is dropped. Overlapping and
// repeated spans are kept. The result is never nil.
func MapCitations(answer string, raw []domain.RawCitation) []domain.Citation {
	out := make([]domain.Citation, 0, len(raw))
	if len(raw) == 0 {
		return out
	}

	runes := []rune(answer)
	for _, rc := range raw {
		start := clamp(rc.Start, 0, len(runes))
		end := clamp(rc.End, 0, len(runes))
		if start > end {
			continue
		}
		out = append(out, domain.Citation{
			SpanText:    string(runes[start:end]),
			DocumentIDs: dedupe(rc.DocumentIDs),
		})
	}
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
