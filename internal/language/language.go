package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "español"}},
	{"fr", "fra", "fre", "French", []string{"french", "français"}},
	{"de", "deu", "ger", "German", []string{"german", "deutsch"}},
	{"it", "ita", "", "Italian", []string{"italian", "italiano"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese", "português"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch", "nederlands"}},
	{"pl", "pol", "", "Polish", []string{"polish", "polski"}},
	{"sv", "swe", "", "Swedish", []string{"swedish", "svenska"}},
	{"da", "dan", "", "Danish", []string{"danish", "dansk"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian", "norsk"}},
	{"fi", "fin", "", "Finnish", []string{"finnish", "suomi"}},
	{"tr", "tur", "", "Turkish", []string{"turkish", "türkçe"}},
	{"uk", "ukr", "", "Ukrainian", []string{"ukrainian"}},
	{"id", "ind", "", "Indonesian", []string{"indonesian"}},
	{"vi", "vie", "", "Vietnamese", []string{"vietnamese"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Regional BCP 47 tags such as "en-US" or "pt_BR" reduce to their base
// language. Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	if strings.ContainsAny(code, "-_") {
		if base, ok := parseBase(code); ok {
			return base
		}
	}
	return ""
}

func parseBase(code string) (string, bool) {
	tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", false
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return "", false
	}
	if e := lookup(base.String()); e != nil {
		return e.code2, true
	}
	return base.String(), true
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	if iso := ToISO2(trimmed); iso != "" {
		if e := lookup(iso); e != nil {
			return e.display
		}
	}
	if tag, err := xlanguage.Parse(strings.ReplaceAll(trimmed, "_", "-")); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}

// FromLabel derives an ISO 639-1 code from a track label such as
// "English (auto-generated)" or "Deutsch - Untertitel". Returns empty string
// when the label does not name a known language.
func FromLabel(label string) string {
	name := strings.TrimSpace(label)
	if idx := strings.Index(name, "("); idx >= 0 {
		name = name[:idx]
	}
	if before, _, found := strings.Cut(name, " - "); found {
		name = before
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	if e, ok := byWord[name]; ok {
		return e.code2
	}
	// Some mirrors put a bare tag such as "pt-BR" in the label.
	if strings.ContainsAny(name, "-_") && !strings.Contains(name, " ") {
		return ToISO2(name)
	}
	return ""
}
