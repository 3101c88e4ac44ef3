package command

import (
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/loader"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import all dataset CSV files into the database",
	Long: `Import every known CSV file found in the data directory. Missing files
are skipped with a warning, bad rows are reported and skipped, and the whole
run is rolled back if it cannot complete.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("could not load config: %w", err)
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		db, err := database.ConnectDB(cfg, logger)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}

		delim, _ := utf8.DecodeRuneInString(delimiter)
		if delim == utf8.RuneError {
			return fmt.Errorf("invalid delimiter %q", delimiter)
		}

		l := loader.New(db, logger, loader.Specs(),
			loader.WithDelimiter(delim),
			loader.WithEncoding(encoding),
		)

		summary, err := l.Run(cmd.Context(), directory)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		printSummary(summary)

		if summary.Failed > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func printSummary(summary *loader.Summary) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	fmt.Println("Import summary:")
	for _, report := range summary.Files {
		switch {
		case report.Skipped:
			yellow.Printf("  %-20s skipped (file not found)\n", report.File)
		case report.Failed > 0:
			red.Printf("  %-20s %d created, %d failed\n", report.File, report.Created, report.Failed)
		default:
			green.Printf("  %-20s %d created\n", report.File, report.Created)
		}
	}

	if summary.Failed > 0 {
		red.Printf("%d of %d files had failing rows\n", summary.Failed, len(summary.Files))
	} else {
		green.Println("✓ All files imported successfully")
	}
}
