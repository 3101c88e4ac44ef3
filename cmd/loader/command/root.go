package command

// root.go defines the root command for the reviewhub-loader tool.
// Global flags shared by all subcommands live here.

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	directory string // directory holding the CSV files
	delimiter string // field delimiter
	encoding  string // file text encoding
)

var rootCmd = &cobra.Command{
	Use:   "reviewhub-loader",
	Short: "reviewhub-loader - bulk CSV import tool for the reviewhub database",
	Long: `reviewhub-loader imports dataset CSV files (users, categories, genres,
titles, reviews, comments) into the reviewhub database.

Files are processed in dependency order and rows that already exist are
skipped, so the tool is safe to run repeatedly over the same dataset.

Use "reviewhub-loader command -h" to see all available commands.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&directory, "directory", "./data", "directory containing the CSV files")
	rootCmd.PersistentFlags().StringVar(&delimiter, "delimiter", ",", "CSV field delimiter")
	rootCmd.PersistentFlags().StringVar(&encoding, "encoding", "utf-8", "file encoding (utf-8, latin-1, windows-1251)")

	rootCmd.AddCommand(loadCmd)
}
