package subtitle

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// LanguageUnknown is the bucket for tracks whose language could not be resolved.
const LanguageUnknown = "unknown"

// flagTokens are filename suffixes that qualify a subtitle rather than
// naming its language (hearing-impaired, forced, closed captions).
var flagTokens = map[string]bool{
	"forced": true,
	"sdh":    true,
	"cc":     true,
	"hi":     true,
}

// IsFlagToken reports whether token is a subtitle qualifier, not a language code.
func IsFlagToken(token string) bool {
	return flagTokens[strings.ToLower(token)]
}

// NormalizeCode validates a language token and returns its normalized code:
// the ISO 639-1 base for most languages ("eng"→"en", "fre"→"fr"), with
// Chinese script variants kept distinct ("chs"→"zh-cn", "cht"→"zh-tw").
// Returns "" if the token is not a recognized language code.
func NormalizeCode(token string) string {
	token = strings.ToLower(strings.ReplaceAll(token, "_", "-"))
	if token == "" || IsFlagToken(token) {
		return ""
	}

	switch token {
	case "chs", "zh-cn", "zh-hans":
		return "zh-cn"
	case "cht", "zh-tw", "zh-hk", "zh-hant":
		return "zh-tw"
	}

	tag, err := language.Parse(token)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

// SameLanguage reports whether two normalized codes refer to the same
// language for pairing purposes. A bare base code matches any of its
// variants ("zh" matches "zh-cn"), but two distinct variants do not match
// each other ("zh-cn" vs "zh-tw").
func SameLanguage(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if baseOf(a) != baseOf(b) {
		return false
	}
	return a == baseOf(a) || b == baseOf(b)
}

func baseOf(code string) string {
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}

// detectSampleLimit caps how many cues feed language detection.
const detectSampleLimit = 40

// DetectLanguage guesses the dominant language of the cues by majority vote.
func DetectLanguage(cues []Cue) string {
	if len(cues) == 0 {
		return LanguageUnknown
	}

	langMap := make(map[string]int)
	sampled := 0
	for _, cue := range cues {
		if sampled >= detectSampleLimit {
			break
		}
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			continue
		}
		lang := whatlanggo.DetectLang(text).Iso6391()
		langMap[lang]++
		sampled++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}

	if normalized := NormalizeCode(topLang); normalized != "" {
		return normalized
	}
	return LanguageUnknown
}

// PrefixTag returns the bracketed display tag used when flattening a dual
// track into plain SRT, e.g. "en" → "[EN]".
func PrefixTag(code string) string {
	if code == "" || code == LanguageUnknown {
		return "[??]"
	}
	return "[" + strings.ToUpper(code) + "]"
}

// IsCJK reports whether the code names a Chinese, Japanese or Korean language.
func IsCJK(code string) bool {
	switch baseOf(strings.ToLower(code)) {
	case "zh", "ja", "ko":
		return true
	default:
		return false
	}
}
