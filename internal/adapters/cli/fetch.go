package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

type fetchOptions struct {
	out  string
	keep bool
}

func newFetchCommand(r *root) *cobra.Command {
	opts := &fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Copy the rendered artifact out and purge the project",
		Long: `fetch copies the project artifact (presentation, text summary or error report)
to --out and waits for the scheduled purge of the project workspace.
Use --keep to cancel the purge.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := r.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			path, handle, err := svc.Artifacts.Retrieve(cmd.Context(), r.opts.projectID)
			if err != nil {
				return err
			}
			dest, err := copyArtifact(path, opts.out)
			if err != nil {
				handle.Cancel()
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dest)

			if opts.keep {
				if handle.Cancel() {
					fmt.Fprintln(cmd.ErrOrStderr(), "purge cancelled")
				}
				return nil
			}
			select {
			case <-handle.Done():
				if err := handle.Err(); err != nil {
					return fmt.Errorf("purge project: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
				handle.Cancel()
				return cmd.Context().Err()
			}
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "destination file or directory")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "cancel the purge after copying")
	return cmd
}

// copyArtifact copies src into dest; a directory destination keeps the artifact name.
func copyArtifact(src, dest string) (string, error) {
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, filepath.Base(src))
	}
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create destination dir: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copy artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close destination: %w", err)
	}
	return dest, nil
}
