package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push to remote registry",
	Long:  "Upload all objects reachable from the configured ref to the configured OCI registry.",
	Args:  cobra.NoArgs,
	RunE:  runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) (err error) {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	fmt.Fprintln(os.Stderr, "Pushing...")

	if err := repo.Push(cmd.Context()); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Done.")
	return nil
}
