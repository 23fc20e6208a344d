package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/williamdwatson/whatsapp-export-viewer/internal/domain"
)

const ApplicationName = "wamerge"

// ExportInput names one chat export and the directory its media lives in.
type ExportInput struct {
	File     string
	MediaDir string
}

// Options controls the optional pipeline stages.
type Options struct {
	From, To         *time.Time
	Transcribe       bool
	ReportDuplicates bool
}

// ChatService orchestrates the merge pipeline.
type ChatService struct {
	parser      domain.ChatParser
	transcriber domain.Transcriber
	renderer    domain.ChatRenderer
	logger      *zap.Logger
}

func NewChatService(parser domain.ChatParser, transcriber domain.Transcriber, renderer domain.ChatRenderer, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		parser:      parser,
		transcriber: transcriber,
		renderer:    renderer,
		logger:      logger,
	}
}

// Process runs the full pipeline: parse both exports → combine →
// filter → transcribe → report duplicates → render.
func (s *ChatService) Process(ctx context.Context, first, second ExportInput, opts Options, w io.Writer) error {
	var a, b *domain.Chat

	// The two parses share no state, so they can run side by side.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		if a, err = s.parser.Parse(first.File, first.MediaDir); err != nil {
			return fmt.Errorf("parsing %s: %w", first.File, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if b, err = s.parser.Parse(second.File, second.MediaDir); err != nil {
			return fmt.Errorf("parsing %s: %w", second.File, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Debug("parsed exports",
		zap.String("first", first.File), zap.Int("first_messages", len(a.Messages)),
		zap.String("second", second.File), zap.Int("second_messages", len(b.Messages)))

	combined := domain.Combine(a, b)
	s.logger.Info("combined chats",
		zap.Int("first", len(a.Messages)),
		zap.Int("second", len(b.Messages)),
		zap.Int("combined", len(combined.Messages)))

	if opts.From != nil || opts.To != nil {
		before := len(combined.Messages)
		combined = combined.Filter(opts.From, opts.To)
		s.logger.Debug("applied time filter",
			zap.Int("before", before), zap.Int("after", len(combined.Messages)))
	}

	if opts.Transcribe && s.transcriber != nil {
		s.transcribeAudio(ctx, combined)
	}

	if opts.ReportDuplicates {
		s.reportDuplicates(combined)
	}

	return s.renderer.Render(w, combined)
}

// transcribeAudio fills in captions for resolved audio media. Failures
// are logged and skipped so one bad file cannot abort a merge.
func (s *ChatService) transcribeAudio(ctx context.Context, chat *domain.Chat) {
	for i := range chat.Messages {
		msg := &chat.Messages[i]
		if msg.Kind != domain.MediaMessage || msg.Media.Kind != domain.MediaAudio {
			continue
		}
		if msg.Media.Path == "" || msg.Media.Caption != "" {
			continue
		}
		text, err := s.transcriber.Transcribe(ctx, msg.Media.Path)
		if err != nil {
			s.logger.Warn("transcription failed",
				zap.String("file", msg.Media.Path), zap.Error(err))
			continue
		}
		msg.Media.Caption = text
	}
}

func (s *ChatService) reportDuplicates(chat *domain.Chat) {
	texts, captions := domain.FindDuplicates(chat)
	for _, k := range sortedKeys(texts) {
		s.logger.Info("duplicated text",
			zap.String("content", k), zap.Int("occurrences", texts[k]))
	}
	for _, k := range sortedKeys(captions) {
		s.logger.Info("duplicated caption",
			zap.String("content", k), zap.Int("occurrences", captions[k]))
	}
	if len(texts) == 0 && len(captions) == 0 {
		s.logger.Info("no duplicated content found")
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
