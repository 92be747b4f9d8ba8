// Package cmd implements the coursechat command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/coursechat/coursechat/internal/log"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "coursechat",
	Short: "Retrieval-augmented Q&A over course materials",
	Long: `coursechat answers questions about a set of course documents.

Course files are parsed, chunked and indexed into a vector store at
startup; questions are answered by a Gemini model that can search the
indexed content and fetch course outlines.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// newLogger builds the process logger honoring the --debug flag and the
// DEBUG environment variable.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if debugFlag || os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
