package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stocksentiment/internal/config"
	"stocksentiment/internal/logging"
	"stocksentiment/pkg/sentiment"
)

// newCore opens the analysis core; tests replace it to inject a model stub.
var newCore = sentiment.OpenWithOptions

type rootOptions struct {
	dataDir  string
	dbPath   string
	logLevel string
	jsonOut  bool

	core   *sentiment.Core
	writer *logging.DailyWriter
}

// open lazily builds the core so commands that never touch storage or a
// model provider run without creating a data directory.
func (o *rootOptions) open(cmd *cobra.Command) (*sentiment.Core, error) {
	if o.core != nil {
		return o.core, nil
	}
	config.LoadEnv()
	if o.dataDir != "" {
		config.SetRuntimeDataDir(o.dataDir)
	}
	dataDir, err := config.GetDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}
	level, ok := logging.ParseLevel(o.logLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", o.logLevel)
	}
	logger, writer, err := logging.NewLogger(logging.Options{
		Dir:       filepath.Join(dataDir, "logs"),
		Prefix:    "cli",
		Level:     level,
		Console:   cmd.ErrOrStderr(),
		Component: "cli",
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	o.writer = writer

	cfg := config.LoadUserConfig()
	dbPath := o.dbPath
	if dbPath == "" {
		if dbPath, err = config.GetDBPath(); err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	core, err := newCore(sentiment.Options{
		DBPath:         dbPath,
		Logger:         logger,
		APIKeys:        config.APIKey,
		RequestTimeout: config.RequestTimeout(cfg),
	})
	if err != nil {
		return nil, err
	}
	o.core = core
	return core, nil
}

func (o *rootOptions) close() {
	if o.core != nil {
		_ = o.core.Close()
		o.core = nil
	}
	if o.writer != nil {
		_ = o.writer.Close()
		o.writer = nil
	}
}

// print writes v as indented JSON with --json, otherwise the rendered view.
func (o *rootOptions) print(cmd *cobra.Command, v any, render func() string) error {
	out := cmd.OutOrStdout()
	if o.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(out, render())
	return err
}

// NewRootCmd creates the root command.
func NewRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "stocksentiment",
		Short: "AI-grounded market sentiment for listed stocks",
		Long: `stocksentiment asks a web-search-grounded language model for a structured
sentiment report on a stock, validates the reply, and derives chart series,
exports and price alerts from it.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory for the database and logs")
	flags.StringVar(&opts.dbPath, "db", "", "Database file (overrides --data-dir)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print machine-readable JSON")

	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newIngestCmd(opts))
	root.AddCommand(newExchangesCmd(opts))
	root.AddCommand(newAlertsCmd(opts))
	root.AddCommand(newSettingsCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

type analysisOutput struct {
	Analysis *sentiment.SentimentAnalysis `json:"analysis"`
	Charts   sentiment.ChartData          `json:"charts"`
	Alert    *sentiment.AlertTrigger      `json:"alert,omitempty"`
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var req sentiment.AnalysisRequest
	var csvPath string

	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Run a grounded sentiment analysis for a stock",
		Example: `  stocksentiment analyze RELIANCE
  stocksentiment analyze AAPL --exchange NASDAQ --provider openai --csv aapl.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := opts.open(cmd)
			if err != nil {
				return err
			}
			req.Symbol = args[0]

			progress := cmd.ErrOrStderr()
			if ex := strings.TrimSpace(req.Exchange); !opts.jsonOut && ex != "" && !sentiment.IsKnownExchange(ex) {
				fmt.Fprintln(progress, mutedStyle.Render(fmt.Sprintf("exchange %q is not in the supported list, continuing anyway", strings.ToUpper(ex))))
			}
			analysis, err := core.AnalyzeWithProgress(cmd.Context(), req, func(stage string) {
				if !opts.jsonOut {
					fmt.Fprintln(progress, stageStyle.Render("› "+stageLabel(stage)))
				}
			})
			if err != nil {
				return err
			}

			exchange := req.Exchange
			if strings.TrimSpace(exchange) == "" {
				exchange = sentiment.DefaultExchange
			}
			trigger, err := core.CheckPriceAlert(exchange, req.Symbol, analysis.CurrencySymbol, analysis.CurrentPrice)
			if err != nil {
				return err
			}

			if csvPath != "" {
				if err := writeCSVFile(csvPath, analysis); err != nil {
					return err
				}
			}

			out := analysisOutput{Analysis: analysis, Charts: sentiment.BuildCharts(analysis), Alert: trigger}
			return opts.print(cmd, out, func() string {
				view := renderAnalysis(out.Analysis, out.Charts)
				if trigger != nil {
					view += "\n" + renderTrigger(trigger)
				}
				return view
			})
		},
	}

	cmd.Flags().StringVarP(&req.Exchange, "exchange", "e", sentiment.DefaultExchange, "Exchange code (see `stocksentiment exchanges`)")
	cmd.Flags().StringVar(&req.Provider, "provider", "", "Model provider: gemini, openai or anthropic (default from settings)")
	cmd.Flags().StringVar(&req.Model, "model", "", "Model name override")
	cmd.Flags().StringVar(&req.BaseURL, "base-url", "", "API base URL override")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Also write the report as CSV to this path (a directory gets the default file name)")

	return cmd
}

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var groundingPath string

	cmd := &cobra.Command{
		Use:   "ingest [FILE]",
		Short: "Validate a saved model reply without calling a model",
		Long: `ingest runs a captured model reply through extraction, validation and
grounding merge. The reply is read from FILE, or from stdin when FILE is
omitted or "-". --grounding points at provider grounding metadata JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			text, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			var grounding []sentiment.GroundingMetadata
			if groundingPath != "" {
				data, err := os.ReadFile(groundingPath)
				if err != nil {
					return fmt.Errorf("read grounding: %w", err)
				}
				if grounding, err = sentiment.ParseGroundingJSON(data); err != nil {
					return err
				}
			}

			analysis, err := sentiment.Ingest(sentiment.RawModelResponse{Text: string(text), Grounding: grounding})
			if err != nil {
				return err
			}
			out := analysisOutput{Analysis: analysis, Charts: sentiment.BuildCharts(analysis)}
			return opts.print(cmd, out, func() string {
				return renderAnalysis(out.Analysis, out.Charts)
			})
		},
	}
	cmd.Flags().StringVarP(&groundingPath, "grounding", "g", "", "Grounding metadata JSON file")
	return cmd
}

func newExchangesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exchanges",
		Short: "List supported exchanges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exchanges := sentiment.Exchanges()
			return opts.print(cmd, exchanges, func() string {
				return renderExchanges(exchanges)
			})
		},
	}
}

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the model used for analysis",
	}

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the saved model settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := opts.open(cmd)
			if err != nil {
				return err
			}
			settings, err := core.GetModelSettings()
			if err != nil {
				return err
			}
			return opts.print(cmd, settings, func() string {
				return renderSettings(settings, config.APIKey(settings.Provider) != "")
			})
		},
	})

	var next sentiment.ModelSettings
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Save the provider, model and base URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := opts.open(cmd)
			if err != nil {
				return err
			}
			current, err := core.GetModelSettings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("provider") && next.Provider != current.Provider && !cmd.Flags().Changed("model") {
				// A provider switch without --model falls back to that provider's default.
				current.Model = ""
			}
			if cmd.Flags().Changed("provider") {
				current.Provider = next.Provider
			}
			if cmd.Flags().Changed("model") {
				current.Model = next.Model
			}
			if cmd.Flags().Changed("base-url") {
				current.BaseURL = next.BaseURL
			}
			saved, err := core.SetModelSettings(current)
			if err != nil {
				return err
			}
			return opts.print(cmd, saved, func() string {
				return successStyle.Render("✓ settings saved") + "\n" + renderSettings(saved, config.APIKey(saved.Provider) != "")
			})
		},
	}
	setCmd.Flags().StringVar(&next.Provider, "provider", "", "gemini, openai or anthropic")
	setCmd.Flags().StringVar(&next.Model, "model", "", "Model name")
	setCmd.Flags().StringVar(&next.BaseURL, "base-url", "", "API base URL, empty for the provider default")
	settingsCmd.AddCommand(setCmd)

	return settingsCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stocksentiment %s\n", Version)
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func writeCSVFile(path string, analysis *sentiment.SentimentAnalysis) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, sentiment.ExportFileName(analysis.StockSymbol, time.Now()))
	}
	var buf bytes.Buffer
	if err := sentiment.WriteCSV(&buf, analysis); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
