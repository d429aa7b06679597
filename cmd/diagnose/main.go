package main

import (
	"fmt"
	"os"

	"github.com/zatekoja/cashflow-diagnosis/internal/cli"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
)

func main() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	// Logs go to stderr so that --format json output stays parseable
	observability.InitLogger(observability.LoggerOptions{
		Service: "cashflow-diagnosis-cli",
		Env:     "development",
		Level:   level,
		Out:     os.Stderr,
	})

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
