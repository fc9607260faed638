package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/storyloom/collab/internal/store"
)

func newRootCommand() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:           "collabctl",
		Short:         "Operate the co-author collaboration store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	defaultDB := os.Getenv("DB_PATH")
	if defaultDB == "" {
		defaultDB = "/data/collab.db"
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Path to the bbolt database (the server must not hold it open)")

	open := func() (*store.BBoltStore, error) {
		return store.NewBBoltStore(dbPath)
	}

	rootCmd.AddCommand(newSweepCommand(open))
	rootCmd.AddCommand(newInvitesCommand(open))
	rootCmd.AddCommand(newTokenCommand())

	return rootCmd
}
