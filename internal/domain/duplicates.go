package domain

import "unicode/utf8"

// duplicateMinLength is the content length (in runes) above which
// repeats are tracked. Short replies ("ok", "yes", emoji) repeat
// naturally and are ignored.
const duplicateMinLength = 15

// FindDuplicates counts repeated content within a chat in one forward
// pass. Text bodies and media captions are tracked independently;
// captions count regardless of media kind. The returned maps hold the
// total number of occurrences of each repeated string, so every value
// is at least 2.
func FindDuplicates(c *Chat) (texts, captions map[string]int) {
	texts = make(map[string]int)
	captions = make(map[string]int)
	seenText := make(map[string]struct{})
	seenCaption := make(map[string]struct{})
	for _, m := range c.Messages {
		switch m.Kind {
		case TextMessage:
			if utf8.RuneCountInString(m.Body) <= duplicateMinLength {
				continue
			}
			if _, ok := seenText[m.Body]; ok {
				texts[m.Body]++
			}
			seenText[m.Body] = struct{}{}
		case MediaMessage:
			caption := m.Media.Caption
			if caption == "" || utf8.RuneCountInString(caption) <= duplicateMinLength {
				continue
			}
			if _, ok := seenCaption[caption]; ok {
				captions[caption]++
			}
			seenCaption[caption] = struct{}{}
		}
	}
	// report total occurrences rather than extra occurrences
	for k := range texts {
		texts[k]++
	}
	for k := range captions {
		captions[k]++
	}
	return texts, captions
}
