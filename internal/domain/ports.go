package domain

import (
	"context"
	"io"
)

// ChatParser parses a WhatsApp export file with its media directory into a Chat.
type ChatParser interface {
	Parse(exportPath, mediaDir string) (*Chat, error)
}

// ChatRenderer renders a Chat to an output writer.
type ChatRenderer interface {
	Render(w io.Writer, chat *Chat) error
}

// Transcriber transcribes an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// FileCopier copies a file into a destination directory, keeping its name.
type FileCopier interface {
	Copy(srcPath, destDir string) error
}
