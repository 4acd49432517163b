package harvest

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// internalLinkRe matches internal cross-reference links and mentions in
// plain text: t.me links with or without scheme, canonical domain aliases
// and @-mentions.
var internalLinkRe = regexp.MustCompile(`(?i)(?:https?://)?(?:t\.me|telegram\.me|telegram\.dog)/\S+|@\w+`)

// internalTargetRe matches a URL whose target is an internal link.
var internalTargetRe = regexp.MustCompile(`(?i)^(?:https?://)?(?:t\.me|telegram\.me|telegram\.dog)(?:/|$)`)

// Clean removes internal cross-reference links and mentions from message
// text. With no entities available it falls back to a regex sweep; with
// entities it deletes exactly the spans that target internal links,
// adjusting offsets for earlier deletions. Pure: same inputs, same output.
func Clean(text string, entities []Entity) string {
	if len(entities) == 0 {
		return strings.TrimSpace(internalLinkRe.ReplaceAllString(text, ""))
	}

	units := utf16.Encode([]rune(text))
	shift := 0
	for _, e := range sortedByOffset(entities) {
		if !removable(units, e, shift) {
			continue
		}
		start := e.Offset - shift
		end := start + e.Length
		units = append(units[:start:start], units[end:]...)
		shift += e.Length
	}
	return strings.TrimSpace(string(utf16.Decode(units)))
}

// removable reports whether the entity span should be deleted from the
// current (already shifted) unit slice.
func removable(units []uint16, e Entity, shift int) bool {
	start := e.Offset - shift
	if start < 0 || start+e.Length > len(units) {
		return false
	}
	adjusted := e
	adjusted.Offset = start

	switch e.Kind {
	case KindMention:
		return true
	case KindTextURL:
		return internalTargetRe.MatchString(e.URL)
	case KindURL:
		return internalTargetRe.MatchString(spanText(units, adjusted))
	default:
		return false
	}
}
