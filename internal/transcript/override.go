package transcript

import "strings"

// DemoVideoID is shipped with a canned transcript so demos work even when
// every mirror is down.
const DemoVideoID = "jNQXAC9IVRw"

const demoTranscript = "All right, so here we are, in front of the elephants. " +
	"The cool thing about these guys is that they have really, really, really long trunks, " +
	"and that's cool. And that's pretty much all there is to say."

// Overrides maps video identifiers to fixed transcripts. A hit takes
// precedence over every endpoint, so an operator can pin the response for
// any identifier. The table is immutable once built.
type Overrides struct {
	entries map[string]string
}

// DefaultOverrides returns the built-in entries.
func DefaultOverrides() map[string]string {
	return map[string]string{
		DemoVideoID: demoTranscript,
	}
}

// NewOverrides builds a table from a copy of entries. Blank identifiers are
// ignored; identifiers are matched exactly, without trimming at lookup time.
func NewOverrides(entries map[string]string) *Overrides {
	copied := make(map[string]string, len(entries))
	for id, text := range entries {
		if strings.TrimSpace(id) == "" {
			continue
		}
		copied[id] = text
	}
	return &Overrides{entries: copied}
}

// Lookup returns the canned transcript for videoID.
func (o *Overrides) Lookup(videoID string) (string, bool) {
	if o == nil {
		return "", false
	}
	text, ok := o.entries[videoID]
	return text, ok
}

// Len reports how many identifiers are pinned.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.entries)
}
