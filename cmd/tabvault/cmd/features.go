package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var featuresCmd = &cobra.Command{
	Use:   "features <treeish> <dataset-path>",
	Short: "List a dataset's feature blobs",
	Long:  "Stream the feature blobs of one dataset and print their paths and sizes.",
	Args:  cobra.ExactArgs(2),
	RunE:  runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, args []string) (err error) {
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
	ds, err := datasetByPath(ctx, repo, args[0], args[1])
	if err != nil {
		return err
	}

	blobs, err := ds.FeatureBlobs(ctx)
	if err != nil {
		return err
	}

	count := 0
	for blobs.Next() {
		b := blobs.Blob()
		fmt.Printf("%s\t%d\t%s\n", b.Path(), b.Size(), b.ID())
		count++
	}
	if err := blobs.Err(); err != nil {
		return err
	}

	if count == 0 {
		fmt.Println("(no features)")
	}

	return nil
}
