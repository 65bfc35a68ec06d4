package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-matcher/internal/similarity"
	"github.com/spigell/resume-matcher/internal/similarity/semantic"
)

const (
	app       = "resume-matcher"
	envPrefix = "RESUME_MATCHER"

	defaultOutput = "resume_position_matches.csv"
)

type Config struct {
	Positions        string          `mapstructure:"positions" validate:"required"`
	Output           string          `mapstructure:"output" validate:"required"`
	ExcludeFile      string          `mapstructure:"exclude-file"`
	ReportUnreadable bool            `mapstructure:"report-unreadable"`
	Dedupe           bool            `mapstructure:"dedupe"`
	MetricsFile      string          `mapstructure:"metrics-file"`
	Matching         MatchingConfig  `mapstructure:"matching"`
	Embedding        EmbeddingConfig `mapstructure:"embedding"`
}

type MatchingConfig struct {
	Strategy  string  `mapstructure:"strategy" validate:"omitempty,oneof=lexical semantic"`
	Threshold float64 `mapstructure:"threshold" validate:"gte=0,lte=1"`
}

type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider" validate:"omitempty,oneof=gemini openai"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url" validate:"omitempty,url"`
	Dimensions int    `mapstructure:"dimensions" validate:"gte=0"`
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-matcher scores résumés against open positions and decides which ones to use",
		// main reports the error once; hints are already logged.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("output", defaultOutput)
	viper.SetDefault("report-unreadable", true)
	viper.SetDefault("dedupe", false)
	viper.SetDefault("matching.strategy", similarity.StrategyLexical)
	viper.SetDefault("matching.threshold", semantic.DefaultThreshold)
	viper.SetDefault("embedding.provider", "gemini")
	viper.SetDefault("embedding.model", "")
	viper.SetDefault("embedding.base-url", "")
	viper.SetDefault("embedding.dimensions", 0)
	viper.SetDefault("embedding.api-key", "")
	viper.SetDefault("embedding.api-key-file", "")
	viper.SetDefault("exclude-file", "")
	viper.SetDefault("metrics-file", "")

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Flags alone are enough when no config file is around, but a broken or
	// explicitly requested one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}

	if err := validator.New().Struct(config); err != nil {
		return config, err
	}

	return config, nil
}
