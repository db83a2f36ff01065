package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/storyloom/storyloom/cmd/cli/img"
	"github.com/storyloom/storyloom/cmd/cli/story"
)

func init() {
	// A missing .env is fine when the environment is real.
	_ = godotenv.Load()
	rootCmd.AddGroup(img.Group)
	rootCmd.AddCommand(img.Generate)
	rootCmd.AddGroup(story.Group)
	rootCmd.AddCommand(story.Play)
}

var rootCmd = &cobra.Command{
	Use:  "storyloom-cli",
	Long: `Command line utilities for Storyloom https://github.com/storyloom/storyloom`,
	Run: func(cmd *cobra.Command, args []string) {
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
