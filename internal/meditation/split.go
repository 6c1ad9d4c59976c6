package meditation

import "strings"

// BreakMarker is the literal tag the language model is instructed to
// emit between chapters.
const BreakMarker = "<break>"

// SplitChapters splits a meditation script into exactly n chapters on
// the break marker. Empty segments are dropped before counting. When
// more segments remain than n, the surplus is merged into the final
// chapter; when fewer, the result is padded with empty chapters.
func SplitChapters(text string, n int) []string {
	if n < 1 {
		n = 1
	}

	parts := strings.Split(text, BreakMarker)
	chapters := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			chapters = append(chapters, p)
		}
	}

	if len(chapters) > n {
		head := chapters[:n-1]
		tail := strings.Join(chapters[n-1:], " ")
		chapters = append(append([]string{}, head...), tail)
	}
	for len(chapters) < n {
		chapters = append(chapters, "")
	}

	return chapters
}
