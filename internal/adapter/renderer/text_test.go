package renderer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/williamdwatson/whatsapp-export-viewer/internal/adapter/parser"
	"github.com/williamdwatson/whatsapp-export-viewer/internal/domain"
)

var base = time.Date(2021, 5, 1, 14, 30, 45, 0, time.UTC)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		ts      time.Time
		dialect domain.Dialect
		want    string
	}{
		{time.Date(2021, 1, 5, 9, 45, 7, 0, time.UTC), domain.DialectOld, "1/5/21, 9:45:07 AM"},
		{time.Date(2021, 1, 5, 0, 5, 0, 0, time.UTC), domain.DialectOld, "1/5/21, 12:05:00 AM"},
		{time.Date(2021, 12, 31, 23, 59, 59, 0, time.UTC), domain.DialectOld, "12/31/21, 11:59:59 PM"},
		{time.Date(2021, 1, 5, 12, 0, 0, 0, time.UTC), domain.DialectNew, "1/5/21, 12:00 PM"},
		{time.Date(2021, 1, 5, 13, 5, 0, 0, time.UTC), domain.DialectNew, "1/5/21, 1:05 PM"},
		{time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC), domain.DialectNew, "1/5/21, 12:00 AM"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.ts, tt.dialect); got != tt.want {
			t.Errorf("FormatTimestamp(%v, %v) = %q, want %q", tt.ts, tt.dialect, got, tt.want)
		}
	}
}

func TestRenderOldDialect(t *testing.T) {
	chat := &domain.Chat{Messages: []domain.Message{
		{Timestamp: base, Sender: "Alice", Kind: domain.TextMessage, Body: "hello"},
		{Timestamp: base.Add(time.Minute), Sender: "Bob", Kind: domain.MediaMessage, Media: domain.Media{
			Kind: domain.MediaPhoto, Name: "IMG-0001.jpg", Path: "old/IMG-0001.jpg", Caption: "dropped in this dialect",
		}},
		{Timestamp: base.Add(2 * time.Minute), Sender: "Alice", Kind: domain.SystemMessage, Body: "Alice changed the group name"},
	}}

	var sb strings.Builder
	r := &TextRenderer{Dialect: domain.DialectOld}
	if err := r.Render(&sb, chat); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "[5/1/21, 2:30:45 PM] Alice: hello\n" +
		"[5/1/21, 2:31:45 PM] Bob: <attached: IMG-0001.jpg>\n" +
		"[5/1/21, 2:32:45 PM] Alice changed the group name\n"
	if sb.String() != want {
		t.Errorf("Render() =\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestRenderNewDialect(t *testing.T) {
	chat := &domain.Chat{Messages: []domain.Message{
		{Timestamp: base, Sender: "Alice", Kind: domain.TextMessage, Body: "hello"},
		{Timestamp: base.Add(time.Minute), Sender: "Bob", Kind: domain.MediaMessage, Media: domain.Media{
			Kind: domain.MediaPhoto, Name: "IMG-0001.jpg", Path: "old/IMG-0001.jpg", Caption: "look at this",
		}},
		{Timestamp: base.Add(2 * time.Minute), Sender: "Bob", Kind: domain.MediaMessage, Media: domain.Media{
			Kind: domain.MediaOther,
		}},
		{Timestamp: base.Add(3 * time.Minute), Sender: "Alice", Kind: domain.SystemMessage, Body: "Alice added Bob"},
	}}

	var sb strings.Builder
	r := &TextRenderer{Dialect: domain.DialectNew}
	if err := r.Render(&sb, chat); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "5/1/21, 2:30 PM - Alice: hello\n" +
		"5/1/21, 2:31 PM - Bob: IMG-0001.jpg (file attached)\nlook at this\n" +
		"5/1/21, 2:32 PM - Bob: <Media omitted\n" +
		"5/1/21, 2:33 PM - Alice added Bob\n"
	if sb.String() != want {
		t.Errorf("Render() =\n%s\nwant:\n%s", sb.String(), want)
	}
}

// Rendering then re-parsing text and system messages reproduces them at
// the dialect's timestamp resolution.
func TestRoundTrip(t *testing.T) {
	chat := &domain.Chat{Messages: []domain.Message{
		{Timestamp: base, Sender: "Alice", Kind: domain.TextMessage, Body: "hello there"},
		{Timestamp: base.Add(time.Minute), Sender: "Bob", Kind: domain.TextMessage, Body: "hi"},
		{Timestamp: base.Add(2 * time.Minute), Sender: "Alice", Kind: domain.SystemMessage, Body: "Alice changed the subject"},
	}}

	for _, dialect := range []domain.Dialect{domain.DialectOld, domain.DialectNew} {
		dir := t.TempDir()
		export := filepath.Join(dir, "chat.txt")

		f, err := os.Create(export)
		if err != nil {
			t.Fatal(err)
		}
		r := &TextRenderer{Dialect: dialect}
		if err := r.Render(f, chat); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		f.Close()

		p := &parser.WhatsAppParser{}
		got, err := p.Parse(export, dir)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got.Dialect != dialect {
			t.Fatalf("round-trip dialect = %v, want %v", got.Dialect, dialect)
		}
		if len(got.Messages) != len(chat.Messages) {
			t.Fatalf("round-trip produced %d messages, want %d", len(got.Messages), len(chat.Messages))
		}
		for i, m := range got.Messages {
			want := chat.Messages[i]
			if m.Kind != want.Kind || m.Sender != want.Sender || m.Body != want.Body {
				t.Errorf("dialect %v message %d = %+v, want %+v", dialect, i, m, want)
			}
			wantTS := want.Timestamp
			if dialect == domain.DialectNew {
				wantTS = wantTS.Truncate(time.Minute)
			}
			if !m.Timestamp.Equal(wantTS) {
				t.Errorf("dialect %v message %d timestamp = %v, want %v", dialect, i, m.Timestamp, wantTS)
			}
		}
	}
}

type recordingCopier struct {
	copies [][2]string
}

func (c *recordingCopier) Copy(srcPath, destDir string) error {
	c.copies = append(c.copies, [2]string{srcPath, destDir})
	return nil
}

func TestRenderCopiesResolvedMedia(t *testing.T) {
	chat := &domain.Chat{Messages: []domain.Message{
		{Timestamp: base, Sender: "Alice", Kind: domain.MediaMessage, Media: domain.Media{
			Kind: domain.MediaPhoto, Name: "IMG-0001.jpg", Path: "old/IMG-0001.jpg",
		}},
		{Timestamp: base.Add(time.Minute), Sender: "Bob", Kind: domain.MediaMessage, Media: domain.Media{
			Kind: domain.MediaOther, Name: "lost.pdf", // unresolved, must not be copied
		}},
		{Timestamp: base.Add(2 * time.Minute), Sender: "Alice", Kind: domain.TextMessage, Body: "no media here"},
	}}

	copier := &recordingCopier{}
	var progress [][2]int
	r := &TextRenderer{
		Dialect:  domain.DialectNew,
		MediaDir: "combined",
		Copier:   copier,
		Progress: func(done, total int) { progress = append(progress, [2]int{done, total}) },
	}

	var sb strings.Builder
	if err := r.Render(&sb, chat); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if len(copier.copies) != 1 {
		t.Fatalf("copied %d files, want 1", len(copier.copies))
	}
	if copier.copies[0] != [2]string{"old/IMG-0001.jpg", "combined"} {
		t.Errorf("copy = %v", copier.copies[0])
	}
	if len(progress) != 1 || progress[0] != [2]int{1, 1} {
		t.Errorf("progress = %v, want [[1 1]]", progress)
	}
}

func TestDiskCopier(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	srcFile := filepath.Join(src, "IMG-0001.jpg")
	if err := os.WriteFile(srcFile, []byte("picture bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := (DiskCopier{}).Copy(srcFile, dest); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "IMG-0001.jpg"))
	if err != nil {
		t.Fatalf("reading copy: %v", err)
	}
	if string(data) != "picture bytes" {
		t.Errorf("copied contents = %q", data)
	}
}
