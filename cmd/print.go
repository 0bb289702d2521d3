package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
)

// printMarkdown renders markdown for the terminal. On a pipe it falls
// back to the raw markdown so the output stays grep-able.
func printMarkdown(md string) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Print(md)
		return
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// usd formats a dollar amount for display.
func usd(v float64) string {
	return money.New(int64(math.Round(v*100)), money.USD).Display()
}
