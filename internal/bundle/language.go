package bundle

var shortLanguages = map[string]string{
	"english":  "en",
	"french":   "fr",
	"german":   "de",
	"japanese": "ja",
	"spanish":  "es",
	"italian":  "it",
}

var longLanguages = map[string]string{
	"en": "english",
	"fr": "french",
	"de": "german",
	"ja": "japanese",
	"es": "spanish",
	"it": "italian",
}

// LongLanguage returns the long name of a language code, e.g. "english" for
// "en". Unknown values are returned unchanged.
func LongLanguage(code string) string {
	if name, ok := longLanguages[code]; ok {
		return name
	}
	return code
}

// ShortLanguage returns the code of a long language name, e.g. "fr" for
// "french". Unknown values are returned unchanged.
func ShortLanguage(name string) string {
	if code, ok := shortLanguages[name]; ok {
		return code
	}
	return name
}
