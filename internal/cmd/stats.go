package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/williamdwatson/whatsapp-export-viewer/internal/adapter/parser"
	"github.com/williamdwatson/whatsapp-export-viewer/internal/adapter/renderer"
	"github.com/williamdwatson/whatsapp-export-viewer/internal/domain"
)

var statsMediaDir string

var statsCmd = &cobra.Command{
	Use:   "stats <export.txt>",
	Short: "Print statistics for a single chat export",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsMediaDir, "media", "", "Media directory of the export (default: the export's directory)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	exportPath := args[0]
	mediaDir := statsMediaDir
	if mediaDir == "" {
		mediaDir = filepath.Dir(exportPath)
	}

	p := &parser.WhatsAppParser{}
	chat, err := p.Parse(exportPath, mediaDir)
	if err != nil {
		return err
	}

	s := chat.Stats()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "File:     %s (%s format)\n", exportPath, chat.Dialect)
	fmt.Fprintf(out, "Messages: %d (%d text, %d media, %d system)\n", s.Total, s.Text, s.Media, s.System)
	if s.Total > 0 {
		fmt.Fprintf(out, "First:    %s\n", renderer.FormatTimestamp(s.First, chat.Dialect))
		fmt.Fprintf(out, "Last:     %s\n", renderer.FormatTimestamp(s.Last, chat.Dialect))
	}

	if s.Media > 0 {
		fmt.Fprintln(out, "Media:")
		for _, kind := range []domain.MediaKind{domain.MediaPhoto, domain.MediaVideo, domain.MediaAudio, domain.MediaOther} {
			if n := s.ByMedia[kind]; n > 0 {
				fmt.Fprintf(out, "  %-8s %d\n", kind, n)
			}
		}
	}

	if len(s.BySender) > 0 {
		fmt.Fprintln(out, "Senders:")
		senders := make([]string, 0, len(s.BySender))
		for sender := range s.BySender {
			senders = append(senders, sender)
		}
		// Most talkative first, name break ties
		sort.Slice(senders, func(i, j int) bool {
			if s.BySender[senders[i]] != s.BySender[senders[j]] {
				return s.BySender[senders[i]] > s.BySender[senders[j]]
			}
			return senders[i] < senders[j]
		})
		for _, sender := range senders {
			fmt.Fprintf(out, "  %-24s %d\n", sender, s.BySender[sender])
		}
	}

	return nil
}
