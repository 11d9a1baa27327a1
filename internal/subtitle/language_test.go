package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"en", "en"},
		{"eng", "en"},
		{"ja", "ja"},
		{"jpn", "ja"},
		{"fre", "fr"},
		{"chs", "zh-cn"},
		{"cht", "zh-tw"},
		{"zh-CN", "zh-cn"},
		{"zh_TW", "zh-tw"},
		{"zh-Hant", "zh-tw"},
		{"forced", ""},
		{"sdh", ""},
		{"cc", ""},
		{"hi", ""},
		{"", ""},
		{"1080p", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCode(tt.token), "token %q", tt.token)
	}
}

func TestSameLanguage(t *testing.T) {
	assert.True(t, SameLanguage("en", "en"))
	assert.True(t, SameLanguage("zh-cn", "zh"))
	assert.True(t, SameLanguage("zh", "zh-tw"))
	// distinct variants are different subtitle languages
	assert.False(t, SameLanguage("zh-cn", "zh-tw"))
	assert.False(t, SameLanguage("en", "ja"))
	assert.False(t, SameLanguage("", "en"))
}

func TestDetectLanguage(t *testing.T) {
	english := []Cue{
		{Text: "The quick brown fox jumps over the lazy dog."},
		{Text: "This is clearly an English sentence with many words."},
		{Text: "Another line of unmistakably English dialogue here."},
	}
	assert.Equal(t, "en", DetectLanguage(english))

	assert.Equal(t, LanguageUnknown, DetectLanguage(nil))
	assert.Equal(t, LanguageUnknown, DetectLanguage([]Cue{{Text: "   "}}))
}

func TestPrefixTag(t *testing.T) {
	assert.Equal(t, "[EN]", PrefixTag("en"))
	assert.Equal(t, "[ZH-CN]", PrefixTag("zh-cn"))
	assert.Equal(t, "[??]", PrefixTag(LanguageUnknown))
}

func TestIsCJK(t *testing.T) {
	assert.True(t, IsCJK("ja"))
	assert.True(t, IsCJK("zh-cn"))
	assert.True(t, IsCJK("ko"))
	assert.False(t, IsCJK("en"))
	assert.False(t, IsCJK(""))
}
