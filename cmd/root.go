package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/applymate/applymate/internal/browser"
	"github.com/applymate/applymate/internal/fill"
)

const (
	app = "applymate"
)

type Config struct {
	Browser *BrowserConfig `mapstructure:"browser"`
	Matcher *MatcherConfig `mapstructure:"matcher"`
	Fill    *FillConfig    `mapstructure:"fill"`
	Store   *StoreConfig   `mapstructure:"store"`
	AI      *AIConfig      `mapstructure:"ai"`
}

type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless"`
	UserAgent       string        `mapstructure:"user-agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	NetworkIdleWait time.Duration `mapstructure:"network-idle-wait"`
	ViewportWidth   int           `mapstructure:"viewport-width"`
	ViewportHeight  int           `mapstructure:"viewport-height"`
}

type MatcherConfig struct {
	MinScore float64 `mapstructure:"min-score"`
}

type FillConfig struct {
	TypingDelay time.Duration `mapstructure:"typing-delay"`
	WaitTimeout time.Duration `mapstructure:"wait-timeout"`
	SettleDelay time.Duration `mapstructure:"settle-delay"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type AIConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "applymate detects and fills job application forms from your saved profile, leaving submission to you",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("store.path", "APPLYMATE_DB"); err != nil {
		log.Fatalf("binding APPLYMATE_DB environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is applymate.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// The config file is optional: everything has a default or a flag. An
	// explicitly named file must parse, though.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	config := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := viper.Unmarshal(config, hook); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) browserOptions() browser.Options {
	opts := browser.Options{Headless: viper.GetBool("browser.headless")}
	if c == nil || c.Browser == nil {
		return opts
	}
	opts.UserAgent = c.Browser.UserAgent
	opts.Timeout = c.Browser.Timeout
	opts.NetworkIdleWait = c.Browser.NetworkIdleWait
	opts.ViewportWidth = c.Browser.ViewportWidth
	opts.ViewportHeight = c.Browser.ViewportHeight
	return opts
}

func (c *Config) fillOptions() fill.Options {
	if c == nil || c.Fill == nil {
		return fill.Options{}
	}
	return fill.Options{
		TypingDelay: c.Fill.TypingDelay,
		WaitTimeout: c.Fill.WaitTimeout,
		SettleDelay: c.Fill.SettleDelay,
	}
}

func (c *Config) minScore() float64 {
	if c == nil || c.Matcher == nil {
		return 0
	}
	return c.Matcher.MinScore
}

func (c *Config) storePath() string {
	if path := viper.GetString("store.path"); path != "" {
		return path
	}
	if c != nil && c.Store != nil && c.Store.Path != "" {
		return c.Store.Path
	}
	return app + ".db"
}
