package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hall-dev/flowlang/pkg/bindings"
	"github.com/hall-dev/flowlang/pkg/common/config"
)

var (
	cfgFile     string
	logger      *zap.Logger
	programFile string
	fixturesArg string
	format      string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flowlang",
	Short: "flowlang runs pipeline programs over JSON fixtures",
	Long: `flowlang is a standalone interpreter for the pipeline data-flow
language: it parses a program, executes it against a set of named JSON
fixtures, and reports the accumulated tables, logs, and explain trace.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a program against a set of fixtures",
	RunE:  run,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/flowlang/flowlang.yaml)")

	runCmd.Flags().StringVar(&programFile, "program", "", "path to the program source file (required)")
	runCmd.Flags().StringVar(&fixturesArg, "fixtures", "", "path to the JSON fixtures file (required)")
	runCmd.Flags().StringVar(&format, "format", "json", "output format: json or ndjson")
	runCmd.MarkFlagRequired("program")
	runCmd.MarkFlagRequired("fixtures")

	rootCmd.AddCommand(runCmd)
}

func initConfig() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	cfg, err := config.LoadRunnerConfig(cfgFile)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	logger.Info("flowlang run starting",
		zap.String("program", programFile),
		zap.String("fixtures", fixturesArg),
		zap.String("log_level", cfg.LogLevel),
	)

	programSrc, err := os.ReadFile(programFile)
	if err != nil {
		return fmt.Errorf("reading program file: %w", err)
	}
	fixturesSrc, err := os.ReadFile(fixturesArg)
	if err != nil {
		return fmt.Errorf("reading fixtures file: %w", err)
	}

	tablesJSON, logsJSON, explain := bindings.Run(string(programSrc), string(fixturesSrc))

	switch format {
	case "json":
		fmt.Printf("{\"tables\":%s,\"logs\":%s,\"explain\":%q}\n", tablesJSON, logsJSON, explain)
	case "ndjson":
		fmt.Printf("{\"kind\":\"tables\",\"value\":%s}\n", tablesJSON)
		fmt.Printf("{\"kind\":\"logs\",\"value\":%s}\n", logsJSON)
		fmt.Printf("{\"kind\":\"explain\",\"value\":%q}\n", explain)
	default:
		return fmt.Errorf("unrecognized --format %q (want json or ndjson)", format)
	}

	logger.Info("flowlang run finished")
	return nil
}
