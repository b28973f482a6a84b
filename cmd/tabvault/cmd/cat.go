package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabvault/tabvault"
)

var catCmd = &cobra.Command{
	Use:   "cat <treeish> <path>",
	Short: "Print a blob's contents",
	Long:  "Resolve a path inside a snapshot and write the blob's bytes to stdout.",
	Args:  cobra.ExactArgs(2),
	RunE:  runCat,
}

func init() {
	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, args []string) (err error) {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	ctx := cmd.Context()

	structure, err := repo.Structure(ctx, args[0])
	if err != nil {
		return err
	}

	entry, err := structure.RootTree().LookupEntryByPath(ctx, args[1])
	if err != nil {
		return err
	}
	if entry.IsTree() {
		return fmt.Errorf("%s: %w: expected blob, got tree", args[1], tabvault.ErrWrongKind)
	}

	blob, err := repo.ODB().LookupBlob(ctx, entry.ID)
	if err != nil {
		if errors.Is(err, tabvault.ErrNotFound) {
			return fmt.Errorf("%s: %w", args[1], err)
		}
		return err
	}

	_, err = io.Copy(os.Stdout, blob.NewReader())
	return err
}
