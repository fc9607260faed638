package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storyloom/collab/internal/collab"
	"github.com/storyloom/collab/internal/store"
)

func newSweepCommand(open func() (*store.BBoltStore, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire every pending invitation past its deadline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			svc := collab.NewService(st, st, collab.DefaultPolicy(), nil)
			defer svc.Wait()

			n, err := svc.SweepExpired(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep (expired %d before failing): %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expired %d invitation(s)\n", n)
			return nil
		},
	}
}
