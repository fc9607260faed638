package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/storyloom/collab/internal/store"
)

func newInvitesCommand(open func() (*store.BBoltStore, error)) *cobra.Command {
	var bookID string
	var status string

	cmd := &cobra.Command{
		Use:   "invites",
		Short: "List stored invitations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			all, err := st.GetAllInvites(cmd.Context())
			if err != nil {
				return fmt.Errorf("list invites: %w", err)
			}

			invites := make([]store.InviteRecord, 0, len(all))
			for _, inv := range all {
				if bookID != "" && inv.BookID != bookID {
					continue
				}
				if status != "" && !strings.EqualFold(string(inv.Status), status) {
					continue
				}
				invites = append(invites, inv)
			}
			if len(invites) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No invitations found")
				return nil
			}
			slices.SortFunc(invites, func(a, b store.InviteRecord) int {
				return strings.Compare(a.ID, b.ID)
			})

			fmt.Fprintln(cmd.OutOrStdout(), renderInvites(invites))
			return nil
		},
	}

	cmd.Flags().StringVar(&bookID, "book", "", "Only show invitations for this book")
	cmd.Flags().StringVar(&status, "status", "", "Only show invitations with this status")
	return cmd
}

func renderInvites(invites []store.InviteRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Book", "Invitee", "Status", "Grants", "Expires"})
	for _, inv := range invites {
		tw.AppendRow(table.Row{
			inv.ID,
			inv.BookTitle,
			inv.InviteeUID,
			string(inv.Status),
			grantsLabel(inv.GrantedPermissions),
			inv.ExpiresAt.Format(time.RFC3339),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Expires", Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func grantsLabel(g store.Grants) string {
	var parts []string
	if g.CanManageMedia {
		parts = append(parts, "media")
	}
	if g.CanInviteCoAuthors {
		parts = append(parts, "invite")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}
