package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"EquityLens/internal/di"
	"EquityLens/internal/domain/models"
	"EquityLens/internal/services/rules"
	"EquityLens/pkg/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "equitylens",
	Short:         "EquityLens equity analysis engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.LoadWithEnv(configFile)
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logger.Level = lvl
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "config/config.yaml", "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	analyzeCmd.Flags().String("mode", "full", "analysis mode (quick, full)")
	backtestCmd.Flags().String("strategy", string(models.StrategyDualMomentum), "dual_momentum, mean_reversion, trend_following or breakout")
	backtestCmd.Flags().Float64("capital", 10000, "initial capital")
	searchCmd.Flags().Int("limit", 5, "maximum matches")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(searchCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API and the refresh consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := di.InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("app initialization failed: %w", err)
		}
		defer cleanup()
		return app.Run(cmd.Context())
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <symbol>...",
	Short: "Analyze one or more symbols and print the results as JSON",
	Example: `  equitylens analyze AAPL
  equitylens analyze AAPL MSFT JPM --mode quick`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")
		mode, err := models.ParseMode(modeFlag)
		if err != nil {
			return err
		}

		orch, cleanup, err := di.InitializeAnalyzer(cfg)
		if err != nil {
			return fmt.Errorf("analyzer initialization failed: %w", err)
		}
		defer cleanup()
		defer orch.Wait()

		items, err := orch.AnalyzeMany(cmd.Context(), args, mode)
		if err != nil {
			return err
		}

		failed, err := writeBatch(cmd.OutOrStdout(), cmd.ErrOrStderr(), items)
		if err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d analyses failed", failed, len(items))
		}
		return nil
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Print the industry scoring profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeJSON(cmd.OutOrStdout(), rules.Profiles())
	},
}

var backtestCmd = &cobra.Command{
	Use:   "backtest <symbol>",
	Short: "Replay a trading strategy over the symbol's price history",
	Example: `  equitylens backtest AAPL
  equitylens backtest MSFT --strategy trend_following --capital 50000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("strategy")
		strategy, err := models.ParseStrategy(name)
		if err != nil {
			return err
		}
		capital, _ := cmd.Flags().GetFloat64("capital")

		orch, cleanup, err := di.InitializeAnalyzer(cfg)
		if err != nil {
			return fmt.Errorf("analyzer initialization failed: %w", err)
		}
		defer cleanup()

		res, err := orch.Backtest(cmd.Context(), args[0], strategy, capital)
		if err != nil {
			return errors.New(unavailableMessage(args[0], err))
		}
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Look up tickers by symbol, company name or misspelling",
	Example: `  equitylens search microsoft
  equitylens search fiserw --limit 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		uc, err := di.InitializeSymbolSearch(cfg)
		if err != nil {
			return fmt.Errorf("symbol search initialization failed: %w", err)
		}
		return writeJSON(cmd.OutOrStdout(), uc.Search(strings.Join(args, " "), limit))
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
