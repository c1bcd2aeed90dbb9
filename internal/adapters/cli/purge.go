package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPurgeCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Empty every stage directory of the project now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := r.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.Purger.Purge(cmd.Context(), r.opts.projectID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", r.opts.projectID)
			return nil
		},
	}
}
