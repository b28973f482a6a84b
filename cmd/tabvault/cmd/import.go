package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tabvault/tabvault"
)

var importCmd = &cobra.Command{
	Use:   "import <directory>",
	Short: "Import a directory as a new commit",
	Long:  "Hash every file under a directory into the object store, build its tree, and record a commit on the target ref.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var (
	importRef     string
	importMessage string
	importAuthor  string
)

func init() {
	importCmd.Flags().StringVar(&importRef, "ref", tabvault.DefaultRef, "ref to advance")
	importCmd.Flags().StringVarP(&importMessage, "message", "m", "import", "commit message")
	importCmd.Flags().StringVar(&importAuthor, "author", "tabvault", "commit author")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) (err error) {
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
	dir := args[0]

	builder := tabvault.NewTreeBuilder(repo.ODB())

	count := 0
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := builder.AddBlob(filepath.ToSlash(rel), data); err != nil {
			return err
		}
		count++
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("import %s: %w", dir, walkErr)
	}

	rootID, err := builder.Write(ctx)
	if err != nil {
		return err
	}

	commit, err := repo.Commit(ctx, importRef, rootID, importAuthor, importMessage)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Imported %d files. Commit: %s\n", count, commit.ID())
	return nil
}
