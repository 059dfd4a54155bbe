package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yolodolo42/mockchat/internal/config"
	"github.com/yolodolo42/mockchat/internal/render"
	"github.com/yolodolo42/mockchat/internal/setup"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "mockchat",
		Short: "Chat with an LLM from the terminal or the browser",
		Long: `mockchat relays questions to an LLM provider (Gemini by default),
keeps every conversation in a local JSON file and renders answers,
including markdown and tables, in the terminal or as HTML.

Run without arguments for the interactive chat, or use 'mockchat serve'
for the web UI and JSON API.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := viper.GetString(config.KeyDataDir)

			if setup.NeedsSetup(dataDir) {
				if !setup.IsInteractive() {
					setup.PrintEnvInstructions(cmd.ErrOrStderr())
					return fmt.Errorf("setup required: run mockchat in a terminal or set an API key")
				}

				result, err := setup.Run(dataDir, render.ParseTheme(viper.GetString(config.KeyTheme)))
				if err != nil {
					return fmt.Errorf("setup failed: %w", err)
				}
				if result == nil || result.Cancelled {
					return nil
				}
			}

			return RunREPL(cmd)
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mockchat/config.yaml)")
	flags.String("provider", "", "LLM provider (gemini, openai, anthropic, openrouter)")
	flags.String("model", "", "model ID for the provider")
	flags.String("theme", "", "answer theme: dark or light")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("data-dir", "", "data directory (default is $HOME/.mockchat)")

	bindFlag(config.KeyProvider, flags.Lookup("provider"))
	bindFlag(config.KeyModel, flags.Lookup("model"))
	bindFlag(config.KeyTheme, flags.Lookup("theme"))
	bindFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	bindFlag(config.KeyDataDir, flags.Lookup("data-dir"))
}

// flagBindings maps config keys to the flags that override them. They are
// bound in initConfig so each run binds them on the current viper.
var flagBindings = map[string]*pflag.Flag{}

func bindFlag(key string, f *pflag.Flag) {
	flagBindings[key] = f
}

func initConfig() {
	// A .env next to the working directory fills in keys such as
	// GEMINI_API_KEY without overriding the real environment.
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	dataDir, err := config.DefaultDataDir()
	cobra.CheckErr(err)
	config.SetDefaults(viper.GetViper(), dataDir)
	for key, f := range flagBindings {
		cobra.CheckErr(viper.BindPFlag(key, f))
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir := viper.GetString(config.KeyDataDir)
		if err := os.MkdirAll(configDir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config directory: %v\n", err)
		}

		viper.AddConfigPath(configDir)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Silently ignore missing config file - it's optional
	_ = viper.ReadInConfig()

	if dir := viper.GetString(config.KeyDataDir); dir != "" {
		if abs, err := filepath.Abs(dir); err == nil {
			viper.Set(config.KeyDataDir, abs)
		}
	}
}
