// Package harvest turns raw channel history into finalized post records:
// album grouping, entity-aware text cleaning, media extraction and paced
// sequential fetching.
package harvest

import (
	"sort"
	"unicode/utf16"

	"github.com/gotd/td/tg"
)

// Kind classifies a formatting entity for the cleaner.
type Kind int

const (
	// KindOther is any styling entity the cleaner does not act on.
	KindOther Kind = iota
	// KindMention is an @username span.
	KindMention
	// KindURL is a span whose own text is a URL.
	KindURL
	// KindTextURL is a styled span linking to the URL in the URL field.
	KindTextURL
)

// Entity is a formatting annotation over message text.
// Offsets and lengths are in UTF-16 code units, as on the wire.
type Entity struct {
	Offset int
	Length int
	Kind   Kind
	URL    string // set for KindTextURL
}

// entitiesOf extracts formatting entities from a raw message.
func entitiesOf(m *tg.Message) []Entity {
	raw, ok := m.GetEntities()
	if !ok {
		return nil
	}

	out := make([]Entity, 0, len(raw))
	for _, e := range raw {
		ent := Entity{Offset: e.GetOffset(), Length: e.GetLength()}
		switch t := e.(type) {
		case *tg.MessageEntityMention:
			ent.Kind = KindMention
		case *tg.MessageEntityURL:
			ent.Kind = KindURL
		case *tg.MessageEntityTextURL:
			ent.Kind = KindTextURL
			ent.URL = t.URL
		}
		out = append(out, ent)
	}
	return out
}

// sortedByOffset returns a copy ordered by ascending start offset.
// The input is never mutated.
func sortedByOffset(entities []Entity) []Entity {
	out := make([]Entity, len(entities))
	copy(out, entities)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// spanText returns the substring covered by the entity.
func spanText(units []uint16, e Entity) string {
	start, end := e.Offset, e.Offset+e.Length
	if start < 0 || end > len(units) || start > end {
		return ""
	}
	return string(utf16.Decode(units[start:end]))
}
