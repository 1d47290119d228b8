package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [url]",
	Short: "Open a page and interact with it",
	Long: `Opens the page at the given URL (or the one configured in lattice.yaml)
and starts the interactive session loop.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.RunOptions{}
		if len(args) > 0 {
			opts.URL = args[0]
		}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.ConfigExplicit = cmd.Flags().Changed("config")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Once, _ = cmd.Flags().GetBool("once")
		opts.RedisAddr, _ = cmd.Flags().GetString("redis")
		opts.RedisPassword, _ = cmd.Flags().GetString("redis-password")
		opts.RedisDB, _ = cmd.Flags().GetInt("redis-db")
		opts.DebounceMS, _ = cmd.Flags().GetInt("debounce")
		opts.Scripts, _ = cmd.Flags().GetBool("scripts")
		opts.ScriptStdlib, _ = cmd.Flags().GetBool("scripts-stdlib")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.UploadEndpoint, _ = cmd.Flags().GetString("upload-endpoint")

		pairs, _ := cmd.Flags().GetStringArray("query")
		for _, pair := range pairs {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				fmt.Printf("Error: bad --query %q, want key=value\n", pair)
				os.Exit(1)
			}
			if opts.Query == nil {
				opts.Query = make(map[string]string)
			}
			opts.Query[key] = value
		}

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayP("query", "q", nil, "Page query parameter (key=value, repeatable)")
	runCmd.Flags().String("redis", "", "Redis address for realtime updates")
	runCmd.Flags().String("redis-password", "", "Redis password")
	runCmd.Flags().Int("redis-db", 0, "Redis database")
	runCmd.Flags().Int("debounce", 0, "Text edit debounce window in milliseconds")
	runCmd.Flags().Bool("scripts", false, "Evaluate backend script nodes")
	runCmd.Flags().Bool("scripts-stdlib", false, "Grant scripts the Go standard library")
	runCmd.Flags().Bool("once", false, "Open, print one render, exit")
	runCmd.Flags().StringP("session", "s", "", "Resume and snapshot state under this session ID")
	runCmd.Flags().Bool("fresh", false, "Ignore an existing snapshot for --session")
	runCmd.Flags().String("upload-endpoint", "", "Multipart endpoint for file inputs")

	// Make 'run' the default when no subcommand is given
	rootCmd.Run = runCmd.Run
	rootCmd.Args = runCmd.Args
}
