package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medrag/config"
	"medrag/internal/platform/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	log     *logger.Logger

	flagIndex    string
	flagModel    string
	flagLimit    int
	flagTopN     int
	flagStrategy string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "medrag",
	Short: "Medical question answering over a Compass index",
	Long: `medrag answers medical questions from passages retrieved out of a Compass
index, using a Cohere chat model to compose a cited answer.

Credentials come from the environment (COMPASS_URL, COMPASS_TOKEN,
COHERE_API_KEY, COMPASS_INDEX_NAME) or from medrag.yaml.

Example usage:
  medrag ask "What monitoring is needed after sedation?"
  medrag chat                          # Interactive session
  medrag batch questions/ -o out.jsonl # Answer every question file
  medrag serve --addr :8080            # HTTP wrapper`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		cfg, err = config.Resolve(cfgFile, rootDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlagOverrides(cmd, cfg)

		log, err = logger.New(cfg.Logging.Mode, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./medrag.yaml)")
	pf.StringVarP(&rootDir, "dir", "d", "", "working directory for config and history (default is current directory)")
	pf.StringVar(&flagIndex, "index", "", "Compass index name")
	pf.StringVar(&flagModel, "model", "", "Cohere chat model")
	pf.IntVar(&flagLimit, "limit", 0, "passages requested from the index")
	pf.IntVarP(&flagTopN, "top-n", "n", 0, "passages handed to the model")
	pf.StringVar(&flagStrategy, "strategy", "", "passage selection: passthrough, mmr or rerank")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// applyFlagOverrides gives explicitly set flags the last word over file and env.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("index") {
		c.Search.IndexName = flagIndex
	}
	if flags.Changed("model") {
		c.Chat.Model = flagModel
	}
	if flags.Changed("limit") {
		c.Retrieve.Limit = flagLimit
	}
	if flags.Changed("top-n") {
		c.Select.TopN = flagTopN
	}
	if flags.Changed("strategy") {
		c.Select.Strategy = flagStrategy
	}
	if flags.Changed("log-level") {
		c.Logging.Level = flagLogLevel
	}
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
