package domain

import "time"

// Dialect identifies the export grammar a chat file was written in.
type Dialect int

const (
	// DialectOld is the bracketed format with seconds precision:
	// [m/d/yy, h:mm:ss AM/PM] sender: body
	DialectOld Dialect = iota
	// DialectNew is the dash format with minute precision:
	// m/d/yy, h:mm AM/PM - sender: body
	DialectNew
)

func (d Dialect) String() string {
	if d == DialectOld {
		return "old"
	}
	return "new"
}

// Chat is an ordered message sequence plus provenance. Order is
// insertion order from parsing; exports occasionally contain
// out-of-order lines, so no timestamp monotonicity is guaranteed.
type Chat struct {
	Messages []Message
	File     string  // source export file, if parsed from one
	Dir      string  // source media directory, if any
	Dialect  Dialect // detected dialect of File
}

// Filter returns a new Chat containing only messages within the given time range.
// nil values for from/to mean no lower/upper bound.
func (c *Chat) Filter(from, to *time.Time) *Chat {
	filtered := &Chat{File: c.File, Dir: c.Dir, Dialect: c.Dialect}
	for _, msg := range c.Messages {
		if from != nil && msg.Timestamp.Before(*from) {
			continue
		}
		if to != nil && msg.Timestamp.After(*to) {
			continue
		}
		filtered.Messages = append(filtered.Messages, msg)
	}
	return filtered
}

// Senders returns every distinct sender in first-appearance order.
func (c *Chat) Senders() []string {
	seen := make(map[string]struct{})
	var senders []string
	for _, msg := range c.Messages {
		if msg.Sender == "" {
			continue
		}
		if _, ok := seen[msg.Sender]; ok {
			continue
		}
		seen[msg.Sender] = struct{}{}
		senders = append(senders, msg.Sender)
	}
	return senders
}

// Stats summarizes a chat.
type Stats struct {
	Total    int
	Text     int
	Media    int
	System   int
	ByMedia  map[MediaKind]int
	BySender map[string]int
	First    time.Time // zero if the chat is empty
	Last     time.Time
}

func (c *Chat) Stats() Stats {
	s := Stats{
		ByMedia:  make(map[MediaKind]int),
		BySender: make(map[string]int),
	}
	for _, msg := range c.Messages {
		s.Total++
		switch msg.Kind {
		case TextMessage:
			s.Text++
		case MediaMessage:
			s.Media++
			s.ByMedia[msg.Media.Kind]++
		case SystemMessage:
			s.System++
		}
		if msg.Sender != "" {
			s.BySender[msg.Sender]++
		}
		if s.First.IsZero() || msg.Timestamp.Before(s.First) {
			s.First = msg.Timestamp
		}
		if msg.Timestamp.After(s.Last) {
			s.Last = msg.Timestamp
		}
	}
	return s
}
