package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_RegexFallback(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "mention stripped",
			input:    "подпишись @channel",
			expected: "подпишись",
		},
		{
			name:     "bare tme link stripped",
			input:    "смотри t.me/somechan дальше",
			expected: "смотри  дальше",
		},
		{
			name:     "full link stripped",
			input:    "https://t.me/somechan/15 новый пост",
			expected: "новый пост",
		},
		{
			name:     "telegram.me alias stripped",
			input:    "via telegram.me/chan",
			expected: "via",
		},
		{
			name:     "external link kept",
			input:    "читай https://example.com/page",
			expected: "читай https://example.com/page",
		},
		{
			name:     "plain text untouched",
			input:    "обычный текст поста",
			expected: "обычный текст поста",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input, nil))
		})
	}
}

func TestClean_MentionEntities(t *testing.T) {
	text := "hi @first and @second end"
	entities := []Entity{
		{Offset: 3, Length: 6, Kind: KindMention},
		{Offset: 14, Length: 7, Kind: KindMention},
	}

	assert.Equal(t, "hi  and  end", Clean(text, entities))
}

func TestClean_UnsortedEntitiesShiftCorrectly(t *testing.T) {
	text := "a @x b @y c"
	// deliberately out of order
	entities := []Entity{
		{Offset: 7, Length: 2, Kind: KindMention},
		{Offset: 2, Length: 2, Kind: KindMention},
	}

	assert.Equal(t, "a  b  c", Clean(text, entities))
	// input slice order stays untouched
	assert.Equal(t, 7, entities[0].Offset)
}

func TestClean_TextURLTargets(t *testing.T) {
	text := "read this please"
	internal := []Entity{{Offset: 5, Length: 4, Kind: KindTextURL, URL: "https://t.me/other"}}
	external := []Entity{{Offset: 5, Length: 4, Kind: KindTextURL, URL: "https://example.com"}}

	assert.Equal(t, "read  please", Clean(text, internal))
	assert.Equal(t, "read this please", Clean(text, external))
}

func TestClean_URLEntityBySpanText(t *testing.T) {
	text := "link https://t.me/chan here"
	entities := []Entity{{Offset: 5, Length: 17, Kind: KindURL}}
	assert.Equal(t, "link  here", Clean(text, entities))

	text = "link https://example.com here"
	entities = []Entity{{Offset: 5, Length: 19, Kind: KindURL}}
	assert.Equal(t, text, Clean(text, entities))
}

func TestClean_UTF16Offsets(t *testing.T) {
	// the emoji takes two UTF-16 units, so the mention starts at unit 3
	text := "💙 @user end"
	entities := []Entity{{Offset: 3, Length: 5, Kind: KindMention}}

	assert.Equal(t, "💙  end", Clean(text, entities))
}

func TestClean_OtherEntitiesKept(t *testing.T) {
	text := "bold text here"
	entities := []Entity{{Offset: 0, Length: 4, Kind: KindOther}}

	assert.Equal(t, text, Clean(text, entities))
}

func TestClean_OutOfRangeEntityIgnored(t *testing.T) {
	text := "short"
	entities := []Entity{{Offset: 10, Length: 5, Kind: KindMention}}

	assert.Equal(t, "short", Clean(text, entities))
}

func TestUTF16Len(t *testing.T) {
	assert.Equal(t, 5, utf16Len("hello"))
	assert.Equal(t, 2, utf16Len("💙"))
	assert.Equal(t, 6, utf16Len("привет"))
}
