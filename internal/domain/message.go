package domain

import "time"

type MessageKind int

const (
	TextMessage MessageKind = iota
	MediaMessage
	SystemMessage
)

type MediaKind int

const (
	MediaOther MediaKind = iota
	MediaPhoto
	MediaVideo
	MediaAudio
)

func (k MediaKind) String() string {
	switch k {
	case MediaPhoto:
		return "photo"
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	default:
		return "other"
	}
}

// Media is the content of a media message.
type Media struct {
	Kind    MediaKind
	Name    string // filename referenced by the export line
	Path    string // resolved path on disk, empty if the file was not found
	Caption string // empty means no caption
}

type Message struct {
	Timestamp time.Time
	Sender    string // empty for system messages with no known sender
	Kind      MessageKind
	Body      string // text and system content
	Media     Media  // set when Kind == MediaMessage
}

// Tolerance is the maximum timestamp distance under which two messages
// can still describe the same real-world event. Independent exports of
// the same chat occasionally re-stamp messages with up to a day of skew.
const Tolerance = 24 * time.Hour

// Equivalent reports whether a and b describe the same message across
// two exports. This is deliberately weaker than equality: timestamps
// only have to agree within Tolerance, and media matching tolerates
// unknown kinds and missing captions (see mediaEquivalent).
func Equivalent(a, b Message) bool {
	if a.Kind != b.Kind {
		return false
	}
	d := a.Timestamp.Sub(b.Timestamp)
	if d < 0 {
		d = -d
	}
	if d > Tolerance {
		return false
	}
	if a.Sender != b.Sender {
		return false
	}
	if a.Kind == MediaMessage {
		return mediaEquivalent(a.Media, b.Media)
	}
	return a.Body == b.Body
}

// mediaEquivalent matches two media contents. Kinds must agree unless
// either is MediaOther (one export may have lost the file and with it
// the ability to classify); captions must agree unless either is
// absent. Paths and names are never compared since they belong to
// different directories.
func mediaEquivalent(a, b Media) bool {
	if a.Kind != MediaOther && b.Kind != MediaOther && a.Kind != b.Kind {
		return false
	}
	if a.Caption != "" && b.Caption != "" && a.Caption != b.Caption {
		return false
	}
	return true
}
