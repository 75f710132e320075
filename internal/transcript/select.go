package transcript

import "strings"

const preferredLanguagePrefix = "en"

// SelectTrack picks the caption track to download:
//  1. a manually created English track
//  2. any English track
//  3. the first track offered
//
// English means a language code starting with "en", case-insensitively.
// An empty list yields KindNoTrackAvailable.
func SelectTrack(tracks []Track) (Track, error) {
	if len(tracks) == 0 {
		return Track{}, &Error{Kind: KindNoTrackAvailable, Op: "select track"}
	}
	for _, t := range tracks {
		if isPreferredLanguage(t) && !t.AutoGenerated {
			return t, nil
		}
	}
	for _, t := range tracks {
		if isPreferredLanguage(t) {
			return t, nil
		}
	}
	return tracks[0], nil
}

func isPreferredLanguage(t Track) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(t.LanguageCode)), preferredLanguagePrefix)
}
