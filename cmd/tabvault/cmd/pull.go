package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull from remote registry",
	Long:  "Download objects from the configured OCI registry and advance the configured ref to the remote root.",
	Args:  cobra.NoArgs,
	RunE:  runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) (err error) {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	fmt.Fprintln(os.Stderr, "Pulling...")

	if err := repo.Pull(cmd.Context()); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Done.")
	return nil
}
