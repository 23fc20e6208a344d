package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/williamdwatson/whatsapp-export-viewer/internal/adapter/parser"
	"github.com/williamdwatson/whatsapp-export-viewer/internal/adapter/renderer"
	"github.com/williamdwatson/whatsapp-export-viewer/internal/adapter/transcriber"
	"github.com/williamdwatson/whatsapp-export-viewer/internal/app"
	"github.com/williamdwatson/whatsapp-export-viewer/internal/domain"
)

var (
	fromStr    string
	toStr      string
	output     string
	format     string
	mediaOut   string
	mediaDir1  string
	mediaDir2  string
	duplicates bool
	transcribe bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "wamerge <export1.txt> <export2.txt>",
	Short: "Merge two WhatsApp chat exports into one",
	Long: `wamerge parses two text exports of the same WhatsApp conversation
(either the old bracketed format or the new dash format), merges them into
one deduplicated chat tolerating edits and clock skew between the exports,
and writes the result back out in either format. Media referenced by the
exports is resolved against each export's directory and can be copied to
a combined media directory.`,
	Args: cobra.ExactArgs(2),
	RunE: runRoot,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringVar(&fromStr, "from", "", `Start time filter (format: "M/D/YYYY" or "M/D/YYYY HH:MM")`)
	rootCmd.Flags().StringVar(&toStr, "to", "", `End time filter (format: "M/D/YYYY" or "M/D/YYYY HH:MM")`)
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "new", `Output format: "old" or "new"`)
	rootCmd.Flags().StringVar(&mediaOut, "media-out", "", "Directory to copy resolved media files into")
	rootCmd.Flags().StringVar(&mediaDir1, "media1", "", "Media directory of the first export (default: the export's directory)")
	rootCmd.Flags().StringVar(&mediaDir2, "media2", "", "Media directory of the second export (default: the export's directory)")
	rootCmd.Flags().BoolVar(&duplicates, "duplicates", false, "Report duplicated text and captions in the merged chat")
	rootCmd.Flags().BoolVar(&transcribe, "transcribe", false, "Transcribe resolved audio media via the OpenAI Whisper API")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func configDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Clean(filepath.Join(configHome, app.ApplicationName))
}

func initConfig() {
	dir := configDir()

	if _, err := os.Stat(dir); os.IsNotExist(err) { //nolint:gosec // path is constructed from XDG_CONFIG_HOME or user home dir
		err = os.MkdirAll(dir, 0750) //nolint:gosec // see above
		cobra.CheckErr(err)
	}

	viper.AddConfigPath(dir)
	viper.SetConfigType("json")
	viper.SetConfigName("config")

	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))
	viper.AutomaticEnv()

	// Silently ignore missing config file
	_ = viper.ReadInConfig()

	// Bridge config value to environment variable for OpenAI SDK
	if apiKey := viper.GetString("openai_api_key"); apiKey != "" {
		if os.Getenv("OPENAI_API_KEY") == "" {
			_ = os.Setenv("OPENAI_API_KEY", apiKey)
		}
	}
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	cobra.CheckErr(err)
	return logger
}

func runRoot(cmd *cobra.Command, args []string) error {
	first := app.ExportInput{File: args[0], MediaDir: mediaDir1}
	second := app.ExportInput{File: args[1], MediaDir: mediaDir2}
	if first.MediaDir == "" {
		first.MediaDir = filepath.Dir(first.File)
	}
	if second.MediaDir == "" {
		second.MediaDir = filepath.Dir(second.File)
	}

	dialect, err := parseDialect(format)
	if err != nil {
		return err
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return fmt.Errorf("parsing --from: %w", err)
	}

	to, err := parseTime(toStr)
	if err != nil {
		return fmt.Errorf("parsing --to: %w", err)
	}

	// If --to is date-only, set to end of day
	if to != nil && !strings.Contains(toStr, " ") {
		endOfDay := to.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		to = &endOfDay
	}

	logger := newLogger()
	defer logger.Sync() //nolint:errcheck // stderr sync failure is not actionable

	if mediaOut != "" {
		if err := os.MkdirAll(mediaOut, 0750); err != nil {
			return fmt.Errorf("creating media output directory: %w", err)
		}
	}

	r := &renderer.TextRenderer{
		Dialect:  dialect,
		MediaDir: mediaOut,
		Copier:   renderer.DiskCopier{},
		Progress: func(done, total int) {
			logger.Debug("copied media file", zap.Int("done", done), zap.Int("total", total))
		},
	}

	var t domain.Transcriber
	if transcribe {
		t = transcriber.NewOpenAITranscriber()
	}

	svc := app.NewChatService(&parser.WhatsAppParser{}, t, r, logger)

	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	opts := app.Options{
		From:             from,
		To:               to,
		Transcribe:       transcribe,
		ReportDuplicates: duplicates,
	}
	return svc.Process(cmd.Context(), first, second, opts, w)
}

func parseDialect(s string) (domain.Dialect, error) {
	switch strings.ToLower(s) {
	case "old":
		return domain.DialectOld, nil
	case "new":
		return domain.DialectNew, nil
	default:
		return 0, fmt.Errorf(`unknown format %q (expected "old" or "new")`, s)
	}
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	formats := []string{
		"1/2/2006 15:04",
		"1/2/2006",
	}

	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("unknown time format: %q (expected M/D/YYYY or M/D/YYYY HH:MM)", s)
}
