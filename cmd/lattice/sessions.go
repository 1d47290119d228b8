package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/internal/cli"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved session snapshots",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	Run: func(cmd *cobra.Command, args []string) {
		mgr, err := sessionManagerFromFlags(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ids, err := mgr.List(ctx)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if len(ids) == 0 {
			fmt.Println("No saved sessions.")
			return
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	},
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mgr, err := sessionManagerFromFlags(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := mgr.Delete(ctx, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted session %q.\n", args[0])
	},
}

func sessionManagerFromFlags(cmd *cobra.Command) (*cli.SessionManager, error) {
	opts := cli.RunOptions{}
	opts.ConfigPath, _ = cmd.Flags().GetString("config")
	opts.ConfigExplicit = cmd.Flags().Changed("config")
	opts.RedisAddr, _ = cmd.Flags().GetString("redis")
	opts.RedisPassword, _ = cmd.Flags().GetString("redis-password")
	opts.RedisDB, _ = cmd.Flags().GetInt("redis-db")
	return cli.NewSessionManager(opts)
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsRmCmd)

	for _, c := range []*cobra.Command{sessionsListCmd, sessionsRmCmd} {
		c.Flags().String("redis", "", "Redis address holding session snapshots")
		c.Flags().String("redis-password", "", "Redis password")
		c.Flags().Int("redis-db", 0, "Redis database")
	}
}
