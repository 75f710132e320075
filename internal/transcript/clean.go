package transcript

import (
	"regexp"
	"strings"
)

const (
	vttHeader    = "WEBVTT"
	noteMarker   = "NOTE"
	timingMarker = "-->"
)

// inlineTagRe matches cue markup such as <c.colorE5E5E5>, </c>, <i> and
// <00:00:01.000> karaoke timestamps. WebVTT escapes a literal '<' as &lt;, so
// an unterminated tag is treated as running to the end of the line.
var inlineTagRe = regexp.MustCompile(`<[^>]*(?:>|$)`)

// headerMetaRe matches WebVTT header settings like "Kind: captions" and
// "Language: en".
var headerMetaRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*:\s`)

// Clean flattens a WebVTT-like payload into one line of prose. Header,
// timing and NOTE lines are dropped, inline tags are stripped, and any line
// already emitted is skipped, which removes the rolling repeats that
// auto-generated captions produce. Clean never fails and Clean(Clean(s)) ==
// Clean(s).
func Clean(raw string) string {
	raw = strings.TrimPrefix(raw, "\ufeff")

	seen := make(map[string]struct{})
	kept := make([]string, 0, 64)
	inHeader := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		// A leading WEBVTT line may be followed by "Key: value" metadata
		// such as "Kind: captions". The header ends at the first line that
		// is not metadata; that line is processed normally.
		if inHeader {
			if headerMetaRe.MatchString(line) {
				continue
			}
			inHeader = false
		}
		if line == vttHeader && len(kept) == 0 {
			inHeader = true
			continue
		}

		if discardLine(line) {
			continue
		}
		line = strings.TrimSpace(inlineTagRe.ReplaceAllString(line, ""))
		if discardLine(line) {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		kept = append(kept, line)
	}
	return strings.Join(kept, " ")
}

func discardLine(line string) bool {
	switch {
	case line == "":
		return true
	case line == vttHeader:
		return true
	case strings.Contains(line, timingMarker):
		return true
	case strings.HasPrefix(line, noteMarker):
		return true
	}
	return false
}
