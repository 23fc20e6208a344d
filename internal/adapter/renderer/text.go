package renderer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/williamdwatson/whatsapp-export-viewer/internal/domain"
)

// TextRenderer writes a chat back out in one of the two export
// dialects. When MediaDir is set, every resolved media file is copied
// there through Copier before the text is written.
type TextRenderer struct {
	Dialect  domain.Dialect
	MediaDir string
	Copier   domain.FileCopier
	Progress func(done, total int) // optional, reports media copies
}

func (r *TextRenderer) Render(w io.Writer, chat *domain.Chat) error {
	if r.MediaDir != "" && r.Copier != nil {
		if err := r.exportMedia(chat); err != nil {
			return err
		}
	}
	for i := range chat.Messages {
		line := r.formatMessage(&chat.Messages[i])
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *TextRenderer) exportMedia(chat *domain.Chat) error {
	total := 0
	for i := range chat.Messages {
		if chat.Messages[i].Kind == domain.MediaMessage && chat.Messages[i].Media.Path != "" {
			total++
		}
	}
	done := 0
	for i := range chat.Messages {
		msg := &chat.Messages[i]
		if msg.Kind != domain.MediaMessage || msg.Media.Path == "" {
			continue
		}
		if err := r.Copier.Copy(msg.Media.Path, r.MediaDir); err != nil {
			return fmt.Errorf("copying media %s: %w", msg.Media.Path, err)
		}
		done++
		if r.Progress != nil {
			r.Progress(done, total)
		}
	}
	return nil
}

func (r *TextRenderer) formatMessage(msg *domain.Message) string {
	ts := FormatTimestamp(msg.Timestamp, r.Dialect)

	switch msg.Kind {
	case domain.SystemMessage:
		if r.Dialect == domain.DialectOld {
			return fmt.Sprintf("[%s] %s", ts, msg.Body)
		}
		return fmt.Sprintf("%s - %s", ts, msg.Body)

	case domain.MediaMessage:
		name := msg.Media.Name
		if name == "" && msg.Media.Path != "" {
			name = filepath.Base(msg.Media.Path)
		}
		if r.Dialect == domain.DialectOld {
			// The old dialect has no caption syntax; captions are dropped.
			return fmt.Sprintf("[%s] %s: <attached: %s>", ts, msg.Sender, name)
		}
		media := "<Media omitted"
		if msg.Media.Path != "" {
			media = filepath.Base(msg.Media.Path) + " (file attached)"
		}
		caption := ""
		if msg.Media.Caption != "" {
			caption = "\n" + msg.Media.Caption
		}
		return fmt.Sprintf("%s - %s: %s%s", ts, msg.Sender, media, caption)

	default:
		if r.Dialect == domain.DialectOld {
			return fmt.Sprintf("[%s] %s: %s", ts, msg.Sender, msg.Body)
		}
		return fmt.Sprintf("%s - %s: %s", ts, msg.Sender, msg.Body)
	}
}

// FormatTimestamp renders a timestamp at the dialect's resolution:
// seconds for the old dialect, minutes for the new one. Both use a
// 12-hour clock with unpadded month, day, and hour.
func FormatTimestamp(t time.Time, d domain.Dialect) string {
	if d == domain.DialectOld {
		return t.Format("1/2/06, 3:04:05 PM")
	}
	return t.Format("1/2/06, 3:04 PM")
}

// DiskCopier copies media files on the local filesystem.
type DiskCopier struct{}

func (DiskCopier) Copy(srcPath, destDir string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(destDir, filepath.Base(srcPath)))
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return dst.Close()
}
