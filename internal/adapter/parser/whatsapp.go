package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/williamdwatson/whatsapp-export-viewer/internal/domain"
)

// Extension tables for classifying attachments. Matching is a
// case-insensitive suffix check, anything unknown is MediaOther.
var (
	photoExtensions = []string{
		"png", "apng", "jpg", "jpeg", "gif", "webp", "avif", "jfif", "pjpeg", "pjp", "svg", "bmp",
		"ico", "tif", "tiff",
	}
	videoExtensions = []string{"mp4", "avi", "mov", "wmv", "mkv", "webm", "flv"}
	audioExtensions = []string{"opus", "mp3", "aac", "ogg", "wav"}
)

// Timestamp layouts of the two export dialects.
const (
	oldTimeLayout = "1/2/06, 3:04:05 PM"
	newTimeLayout = "1/2/06, 3:04 PM"
)

// newMarker separates the timestamp from the rest of a line in the new
// dialect ("m/d/yy, h:mm AM/PM - sender: body"). The marker must occur
// within the first newMarkerBound bytes of the line; beyond that it
// cannot belong to the timestamp and the line is a continuation.
const (
	newMarker      = "M -"
	newMarkerBound = 19
)

// ParseError is the single fatal parse condition: a line carrying the
// dialect's structural marker whose timestamp fails to parse. Anything
// else malformed folds into the previous message instead.
type ParseError struct {
	File string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: malformed message line %q: %v", e.File, e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// WhatsAppParser parses WhatsApp chat exports (either text dialect).
type WhatsAppParser struct{}

func (p *WhatsAppParser) Parse(exportPath, mediaDir string) (*domain.Chat, error) {
	available, err := listFilenames(mediaDir, exportPath)
	if err != nil {
		return nil, fmt.Errorf("listing media directory: %w", err)
	}

	f, err := os.Open(exportPath)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	chat, err := parseExport(exportPath, f, mediaDir, available)
	if err != nil {
		return nil, err
	}
	chat.Dir = mediaDir
	return chat, nil
}

// listFilenames returns the names of the regular files in dir,
// excluding the export file itself. Attachment resolution later checks
// membership in this set; it never reads file contents.
func listFilenames(dir, exportPath string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	available := make(map[string]struct{}, len(entries))
	export := filepath.Clean(exportPath)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Join(dir, e.Name()) == export {
			continue
		}
		available[e.Name()] = struct{}{}
	}
	return available, nil
}

// parseState carries everything scoped to a single parse call. The
// sender set is kept in registration order so prefix lookups for
// system messages are deterministic.
type parseState struct {
	file      string
	mediaDir  string
	available map[string]struct{}

	dialect  domain.Dialect
	messages []domain.Message

	senders   []string
	senderSet map[string]struct{}
}

func parseExport(file string, r io.Reader, mediaDir string, available map[string]struct{}) (*domain.Chat, error) {
	st := &parseState{
		file:      file,
		mediaDir:  mediaDir,
		available: available,
		senderSet: make(map[string]struct{}),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	lineNo := 0
	first := true
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(stripInvisible(scanner.Text()))
		if line == "" {
			continue
		}
		if first {
			// The first non-blank line decides the dialect for the whole file.
			if strings.HasPrefix(line, "[") {
				st.dialect = domain.DialectOld
			} else {
				st.dialect = domain.DialectNew
			}
			first = false
		}

		var err error
		if st.dialect == domain.DialectOld {
			err = st.parseOldLine(line)
		} else {
			err = st.parseNewLine(line)
		}
		if err != nil {
			return nil, &ParseError{File: file, Line: lineNo, Text: scanner.Text(), Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}

	st.backfillSystemSenders()

	return &domain.Chat{
		Messages: st.messages,
		File:     file,
		Dialect:  st.dialect,
	}, nil
}

// parseOldLine handles the bracketed dialect:
// [m/d/yy, h:mm:ss AM/PM] sender: body
func (st *parseState) parseOldLine(line string) error {
	if !strings.HasPrefix(line, "[") {
		// Continuation of the previous message. Only text bodies grow
		// in this dialect; anything else swallows the line.
		if n := len(st.messages); n > 0 && st.messages[n-1].Kind == domain.TextMessage {
			st.messages[n-1].Body += "\n" + line
		}
		return nil
	}

	end := strings.Index(line, "]")
	if end < 0 {
		return fmt.Errorf("no closing bracket")
	}
	ts, err := time.Parse(oldTimeLayout, line[1:end])
	if err != nil {
		return err
	}

	rest := ""
	if end+2 <= len(line) {
		rest = line[end+2:]
	}

	sep := strings.Index(rest, ": ")
	if sep < 0 {
		// No sender separator: a system notice such as a group rename.
		st.appendSystem(ts, rest)
		return nil
	}

	sender := rest[:sep]
	st.addSender(sender)

	if att := strings.Index(line, "<attached: "); att >= 0 {
		name := ""
		if att+11 < len(line) {
			name = line[att+11 : len(line)-1]
		}
		st.appendMedia(ts, sender, name)
		return nil
	}
	body := strings.TrimSpace(rest[sep+2:])
	if body == "This message was deleted." {
		// Deleted on the sending side; nothing to keep.
		return nil
	}
	st.messages = append(st.messages, domain.Message{
		Timestamp: ts,
		Sender:    sender,
		Kind:      domain.TextMessage,
		Body:      body,
	})
	return nil
}

// parseNewLine handles the dash dialect:
// m/d/yy, h:mm AM/PM - sender: body
func (st *parseState) parseNewLine(line string) error {
	mark := strings.Index(line, newMarker)
	if mark < 0 || mark > newMarkerBound {
		// Either no marker at all, or an "M -" that appears too far in
		// to be part of a timestamp (e.g. a body starting with a
		// time-like string). Both mean this line belongs to the
		// previous message.
		st.continueLast(line)
		return nil
	}
	ts, err := time.Parse(newTimeLayout, line[:mark+1])
	if err != nil {
		return err
	}

	rest := ""
	if mark+4 <= len(line) {
		rest = line[mark+4:]
	}

	sep := strings.Index(rest, ": ")
	if sep < 0 {
		st.appendSystem(ts, rest)
		return nil
	}

	sender := rest[:sep]
	st.addSender(sender)
	body := rest[sep+2:]

	switch {
	case strings.Contains(line, "<Media omitted"):
		st.messages = append(st.messages, domain.Message{
			Timestamp: ts,
			Sender:    sender,
			Kind:      domain.MediaMessage,
		})
	case strings.HasSuffix(line, "(file attached)"):
		// Strip the trailing " (file attached)" to recover the filename.
		name := ""
		if len(body) > 16 {
			name = body[:len(body)-16]
		}
		st.appendMedia(ts, sender, name)
	case strings.TrimSpace(body) == "null":
		// Export artifact seen around revoked messages.
	default:
		st.messages = append(st.messages, domain.Message{
			Timestamp: ts,
			Sender:    sender,
			Kind:      domain.TextMessage,
			Body:      strings.TrimSpace(body),
		})
	}
	return nil
}

// continueLast folds an unstructured line into the message before it:
// text bodies grow by a line, media messages gain or grow a caption.
// This lossy recovery is what reconstructs multi-line messages.
func (st *parseState) continueLast(line string) {
	if len(st.messages) == 0 {
		return
	}
	last := &st.messages[len(st.messages)-1]
	switch last.Kind {
	case domain.TextMessage:
		last.Body += "\n" + line
	case domain.MediaMessage:
		if last.Media.Caption == "" {
			last.Media.Caption = line
		} else {
			last.Media.Caption += "\n" + line
		}
	}
}

func (st *parseState) addSender(sender string) {
	if _, ok := st.senderSet[sender]; ok {
		return
	}
	st.senderSet[sender] = struct{}{}
	st.senders = append(st.senders, sender)
}

// senderByPrefix finds the first registered sender whose name prefixes
// body. System notices usually lead with the acting participant's name
// ("X changed the group name"), which is the only sender signal they carry.
func (st *parseState) senderByPrefix(body string) string {
	for _, s := range st.senders {
		if strings.HasPrefix(body, s) {
			return s
		}
	}
	return ""
}

func (st *parseState) appendSystem(ts time.Time, rest string) {
	body := strings.TrimSpace(rest)
	st.messages = append(st.messages, domain.Message{
		Timestamp: ts,
		Sender:    st.senderByPrefix(body),
		Kind:      domain.SystemMessage,
		Body:      body,
	})
}

func (st *parseState) appendMedia(ts time.Time, sender, name string) {
	media := domain.Media{
		Kind: classifyExtension(name),
		Name: name,
	}
	if _, ok := st.available[name]; ok {
		media.Path = filepath.Join(st.mediaDir, name)
	}
	st.messages = append(st.messages, domain.Message{
		Timestamp: ts,
		Sender:    sender,
		Kind:      domain.MediaMessage,
		Media:     media,
	})
}

// backfillSystemSenders fills in system-message senders that were
// unknown when the message was parsed, now that the full sender set is
// available.
func (st *parseState) backfillSystemSenders() {
	for i := range st.messages {
		m := &st.messages[i]
		if m.Kind == domain.SystemMessage && m.Sender == "" {
			m.Sender = st.senderByPrefix(m.Body)
		}
	}
}

func classifyExtension(name string) domain.MediaKind {
	lower := strings.ToLower(name)
	for _, ext := range photoExtensions {
		if strings.HasSuffix(lower, ext) {
			return domain.MediaPhoto
		}
	}
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return domain.MediaVideo
		}
	}
	for _, ext := range audioExtensions {
		if strings.HasSuffix(lower, ext) {
			return domain.MediaAudio
		}
	}
	return domain.MediaOther
}

// stripInvisible removes Unicode control characters (LTR mark, zero-width spaces, etc.)
func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\u200e' || r == '\u200f': // LTR / RTL mark
			return -1
		case r == '\u200b' || r == '\u200c' || r == '\u200d': // zero-width spaces
			return -1
		case r == '\ufeff': // BOM
			return -1
		default:
			return r
		}
	}, s)
}
