package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/embedding"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/metrics"
	"github.com/spigell/resume-matcher/internal/positions"
	"github.com/spigell/resume-matcher/internal/report"
	"github.com/spigell/resume-matcher/internal/resume"
	"github.com/spigell/resume-matcher/internal/screening"
	"github.com/spigell/resume-matcher/internal/secrets"
	"github.com/spigell/resume-matcher/internal/similarity"
	"github.com/spigell/resume-matcher/internal/similarity/lexical"
	"github.com/spigell/resume-matcher/internal/similarity/semantic"
)

const (
	PromptWriteCSV            = "Write CSV report"
	PromptReportByPosition    = "Report by position"
	PromptResultsToFile       = "Dump results to file"
	PromptAppendToExcludeFile = "Append all resumes to exclude file"
	PromptExit                = "Exit"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run [resume files or directories...]",
	Short: "Match résumés against the positions table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("yes", "y", false, "do not ask for actions, write the CSV report and exit")
	runCmd.Flags().StringP("positions", "p", "", "positions table (.csv, .xlsx, .yaml, .json)")
	runCmd.Flags().StringP("output", "o", defaultOutput, "CSV report path")
	runCmd.Flags().StringP("exclude-file", "e", "", "special file with already screened resumes to exclude. Default is unset.")
	runCmd.Flags().StringP("strategy", "s", similarity.StrategyLexical, "matching strategy: lexical or semantic")
	runCmd.Flags().Float64("threshold", semantic.DefaultThreshold, "semantic similarity threshold in [0,1]")
	runCmd.Flags().Bool("dedupe", false, "score résumés with identical text once and copy the result to the rest")
	runCmd.Flags().String("metrics-file", "", "write prometheus metrics of the run to this textfile")

	viper.BindPFlag("positions", runCmd.Flags().Lookup("positions"))
	viper.BindPFlag("output", runCmd.Flags().Lookup("output"))
	viper.BindPFlag("exclude-file", runCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("matching.strategy", runCmd.Flags().Lookup("strategy"))
	viper.BindPFlag("matching.threshold", runCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("dedupe", runCmd.Flags().Lookup("dedupe"))
	viper.BindPFlag("metrics-file", runCmd.Flags().Lookup("metrics-file"))
}

// run is the main command for the cli. Failures are logged with a hint and
// returned to Execute.
func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	base, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		base.Error("getting a config", zap.Error(err),
			zap.String("hint", "set 'positions' in resume-matcher.yaml or pass --positions"),
		)
		return err
	}

	strategy, err := similarity.ParseStrategy(config.Matching.Strategy)
	if err != nil {
		base.Error("choosing a strategy", zap.Error(err))
		return err
	}

	metrics.Register()
	defer writeMetrics(config.MetricsFile, base)

	runInfo := logger.Run{ID: uuid.NewString(), Strategy: strategy}
	scorer, closeScorer, err := newScorer(ctx, strategy, config, &runInfo, base)
	if err != nil {
		base.Error("building the similarity scorer", zap.Error(err),
			zap.String("hint", "set embedding.api-key, embedding.api-key-file or GEMINI_API_KEY / OPENAI_API_KEY"),
		)
		return err
	}
	defer closeScorer()

	logger := logger.WithCommonFields(base, runInfo)
	logger.Info("starting the resume-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	table, err := positions.Load(config.Positions, logger)
	if err != nil {
		hint := "check the positions path and format"
		if errors.Is(err, positions.ErrMissingColumns) {
			hint = "required columns: " + strings.Join(positions.RequiredColumns, ", ")
		}
		logger.Error("loading positions", zap.Error(err), zap.String("hint", hint))
		return err
	}

	resumes, err := resume.Load(args, logger)
	if err != nil {
		logger.Error("loading resumes", zap.Error(err))
		return err
	}

	steps := screening.Default()
	if !config.Dedupe {
		screening.DisableByName(steps, "duplicate", "dedupe is off")
	}
	screened, unreadable, err := screening.Run(ctx, &screening.Config{ExcludeFile: config.ExcludeFile}, screening.Deps{Logger: logger}, steps, resumes)
	if err != nil {
		logger.Error("screening failed", zap.Error(err))
		return err
	}
	for _, status := range screening.Describe(steps) {
		logger.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	selector := matching.NewSelector(matching.NewMatcher(scorer, nil), logger)
	runner := screening.NewRunner(selector, logger, screening.Options{
		RunID:            runInfo.ID,
		ReportUnreadable: config.ReportUnreadable,
	})

	batch, err := runner.Run(ctx, screened, unreadable, table)
	if err != nil {
		logger.Error("matching failed", zap.Error(err))
		return err
	}

	if len(batch.Results) == 0 {
		logger.Info("exiting", zap.String("reason", "no resumes left to report"))
		return nil
	}

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return handleAction(PromptWriteCSV, logger, config, batch)
	}

	items := []string{PromptWriteCSV, PromptReportByPosition, PromptResultsToFile}
	if config.ExcludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}
	prompt := promptui.Select{
		Label: "What to do with the results?",
		Items: append(items, PromptExit),
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Error("exiting", zap.Error(err))
			return nil
		}

		logger.Info("current list of results", zap.Int("count", len(batch.Results)))

		if err := handleAction(action, logger, config, batch); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			logger.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, config *Config, batch *screening.Batch) error {
	switch action {
	case PromptWriteCSV:
		if err := report.WriteCSVFile(config.Output, batch.Results); err != nil {
			return fmt.Errorf("write csv report: %w", err)
		}
		logger.Info("csv report written", zap.String("filename", config.Output), zap.Int("rows", len(batch.Results)))
		return nil
	case PromptReportByPosition:
		pretty, _ := json.MarshalIndent(report.ByPosition(batch.Results), "", "  ")
		logger.Info(string(pretty), zap.Int("results count", len(batch.Results)))
		return nil
	case PromptResultsToFile:
		dump := &report.Dump{RunID: batch.RunID, Strategy: batch.Strategy, Results: batch.Results, Failed: batch.Failed}
		filename, err := dump.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excluded, err := resume.ExcludedFromFile(config.ExcludeFile)
		if err != nil {
			return err
		}

		excluded.Append(report.ToExcluded(batch.Results, time.Now()))

		if err = excluded.ToFile(config.ExcludeFile); err != nil {
			return err
		}

		logger.Info("appended to exclude file", zap.String("filename", config.ExcludeFile), zap.Int("total", len(excluded.Items)))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// newScorer builds the strategy for the whole run. The returned close func
// releases the embedding model, if any.
func newScorer(ctx context.Context, strategy string, config *Config, info *logger.Run, log *zap.Logger) (similarity.Scorer, func(), error) {
	if strategy == similarity.StrategyLexical {
		return lexical.New(), func() {}, nil
	}

	cfg := config.Embedding
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = embedding.ProviderGemini
	}

	env := []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	if provider == embedding.ProviderOpenAI {
		env = []string{"OPENAI_API_KEY"}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  provider + " api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   env,
	})
	if err != nil {
		return nil, nil, err
	}

	model, err := embedding.New(ctx, embedding.Config{
		Provider:   provider,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		Dimensions: cfg.Dimensions,
		APIKey:     apiKey,
	}, log.With(zap.String(logger.FieldProvider, provider)))
	if err != nil {
		return nil, nil, fmt.Errorf("building embedding model: %w", err)
	}
	info.Provider = model.Provider()
	info.Model = model.Name()

	scorer, err := semantic.New(model, config.Matching.Threshold)
	if err != nil {
		_ = model.Close()
		return nil, nil, err
	}

	return scorer, func() {
		if err := model.Close(); err != nil {
			log.Warn("closing embedding model", zap.Error(err))
		}
	}, nil
}

func writeMetrics(path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		logger.Warn("writing metrics textfile", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("metrics written", zap.String("path", path))
}
