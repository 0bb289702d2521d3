// Package cmd implements the CLI application that maintains the weekly
// portfolio master record.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/quantuminvestor/ledger"
	"github.com/quantuminvestor/ledger/marketdata"
)

// Commands is the full command set. A main package registers each of
// them on a commander and executes the user-selected one.
var Commands = []subcommands.Command{
	&initCmd{},
	&updateCmd{},
	&rebalanceCmd{},
	&reportCmd{},
	&historyCmd{},
}

// As a CLI application the lifecycle is very short lived, so global
// flags shared by every subcommand are fine.

var masterFile = flag.String("file", "master.json", "Path to the master record")
var settingsFile = flag.String("settings", "", "Optional market data settings file (YAML)")
var weeksDir = flag.String("weeks-dir", "", "Optional directory receiving legacy W{n}/master.json copies")

// Log is the application logger. A main package typically replaces it
// with a console-writer variant.
var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// openStore returns the store for the record named by the -file flag.
func openStore() *ledger.Store {
	s := ledger.NewStore(*masterFile)
	s.WeeksDir = *weeksDir
	return s
}

// loadMaster reads and validates the master record.
func loadMaster() (*ledger.Master, error) {
	return openStore().Load()
}

// newFetcher builds the provider chain. API keys come from the
// environment, optionally seeded from a .env file in the working
// directory.
func newFetcher() (*marketdata.Fetcher, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := marketdata.LoadConfig(*settingsFile)
	if err != nil {
		return nil, err
	}
	return marketdata.New(cfg, Log), nil
}

// fail prints the error and maps it to the exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
