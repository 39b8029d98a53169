package cmd

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "smartrecruit"
)

type Config struct {
	APIURL          string           `mapstructure:"api-url"`
	UserAgent       string           `mapstructure:"user-agent"`
	Timeout         time.Duration    `mapstructure:"timeout"`
	CredentialsFile string           `mapstructure:"credentials-file"`
	UserID          int              `mapstructure:"user-id"`
	ExcludeFile     string           `mapstructure:"exclude-file"`
	Session         *SessionConfig   `mapstructure:"session"`
	Recommend       *RecommendConfig `mapstructure:"recommend"`
	AI              *AIConfig        `mapstructure:"ai"`
}

type SessionConfig struct {
	Store       string `mapstructure:"store"`
	File        string `mapstructure:"file"`
	DatabaseURL string `mapstructure:"database-url"`
}

type RecommendConfig struct {
	Resume      string `mapstructure:"resume"`
	Limit       int    `mapstructure:"limit"`
	PageSize    int    `mapstructure:"page-size"`
	MinFitScore int    `mapstructure:"min-fit-score"`
	HideApplied bool   `mapstructure:"hide-applied"`
	Exclude     *struct {
		Companies []string `mapstructure:"companies"`
	} `mapstructure:"exclude"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "smartrecruit is a cli for matching resumes to jobs on SmartRecruit and managing applications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

var envBindings = map[string]string{
	"api-url":                "SMARTRECRUIT_API_URL",
	"credentials-file":       "SMARTRECRUIT_CREDENTIALS_FILE",
	"user-id":                "SMARTRECRUIT_USER_ID",
	"log-file":               "SMARTRECRUIT_LOG_FILE",
	"session.database-url":   "DATABASE_URL",
	"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
}

func init() {
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is smartrecruit.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("api-url", "", "SmartRecruit backend base url")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func setDefaults() {
	dir := configDir()

	viper.SetDefault("api-url", "http://localhost:8000")
	viper.SetDefault("timeout", "30s")
	viper.SetDefault("credentials-file", filepath.Join(dir, "credentials.json"))
	viper.SetDefault("session.store", "file")
	viper.SetDefault("session.file", filepath.Join(dir, "applied.json"))
	viper.SetDefault("recommend.limit", 20)
	viper.SetDefault("recommend.page-size", 5)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.max-retries", 3)
}

func configDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, app)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but one that exists must parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Session == nil {
		config.Session = &SessionConfig{}
	}
	if config.Recommend == nil {
		config.Recommend = &RecommendConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}

	return config, nil
}
