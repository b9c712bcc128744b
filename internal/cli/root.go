package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/m-stoeckel/duui-uima/internal/config"
	"github.com/m-stoeckel/duui-uima/internal/logger"
	"github.com/m-stoeckel/duui-uima/internal/model"
)

var (
	cfgFile string
	verbose bool

	// initErr holds a failure from initConfig, reported by the first command
	// that needs the configuration
	initErr error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "duui-ner",
	Short: "duui-ner - named entity recognition component for DUUI",
	Long: `duui-ner annotates documents with named entities for the Docker Unified
UIMA Interface (DUUI).

A request carries the full document text and its sentence boundaries.
Each sentence is sent to the configured NER backend, entity spans are
cleaned of leading whitespace and shifted back into document offsets.
All offsets are character offsets.

Backends: regex (built in), remote (spaCy-style NER server),
llm (OpenAI, Anthropic, Ollama) and onnx (local transformer model).`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("duui-ner v%s\n", model.Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or $HOME/.duui-ner/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().String("backend", "", "NER backend (regex, remote, llm, onnx)")

	// Bind flags to viper
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("model.backend", rootCmd.PersistentFlags().Lookup("backend"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := config.Setup(viper.GetViper(), cfgFile); err != nil {
		initErr = err
		return
	}

	used, err := config.Read(viper.GetViper())
	if err != nil {
		initErr = err
		return
	}
	if used != "" && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", used)
	}
}

// loadConfig decodes the effective configuration and applies the log settings
func loadConfig() (*model.Config, error) {
	if initErr != nil {
		return nil, initErr
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if verbose && level == "info" {
		level = "debug"
	}
	if err := logger.Configure(level, cfg.Log.Format); err != nil {
		return nil, err
	}

	return cfg, nil
}
