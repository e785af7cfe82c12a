package normalize

import "strings"

// trimText implements testable property #9: for text longer than max,
// return a prefix ending at the nearest punctuation at or before max,
// right-trimmed; if no punctuation is found in that window, hard-cut
// at max runes.
func trimText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	window := runes[:max]
	cut := len(window)
	for i := len(window) - 1; i >= 0; i-- {
		if isBoundaryPunct(window[i]) {
			cut = i + 1
			break
		}
	}
	return strings.TrimRight(string(window[:cut]), " \t\n\r")
}

func isBoundaryPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?':
		return true
	}
	return false
}
