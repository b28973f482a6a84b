package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/tabvault/tabvault"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets <treeish>...",
	Short: "List datasets in one or more snapshots",
	Long:  "Scan each snapshot for dataset roots and print their paths. Multiple treeishes are scanned in parallel.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDatasets,
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}

func runDatasets(cmd *cobra.Command, args []string) (err error) {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var mu sync.Mutex
	paths := make(map[string][]string, len(args))

	p := pool.New().WithMaxGoroutines(4).WithContext(cmd.Context()).WithCancelOnError()
	for _, treeish := range args {
		p.Go(func(ctx context.Context) error {
			structure, err := repo.Structure(ctx, treeish)
			if err != nil {
				return fmt.Errorf("%s: %w", treeish, err)
			}
			datasets, err := structure.GetDatasets(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", treeish, err)
			}

			found := make([]string, 0, len(datasets))
			for _, ds := range datasets {
				found = append(found, ds.Path())
			}

			mu.Lock()
			paths[treeish] = found
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	for _, treeish := range args {
		if len(args) > 1 {
			fmt.Printf("%s:\n", treeish)
		}
		if len(paths[treeish]) == 0 {
			fmt.Println("(no datasets)")
			continue
		}
		for _, path := range paths[treeish] {
			if path == "" {
				path = "."
			}
			fmt.Println(path)
		}
	}

	return nil
}

func datasetByPath(ctx context.Context, repo *tabvault.Repo, treeish, path string) (tabvault.Dataset, error) {
	structure, err := repo.Structure(ctx, treeish)
	if err != nil {
		return tabvault.Dataset{}, err
	}
	datasets, err := structure.GetDatasets(ctx)
	if err != nil {
		return tabvault.Dataset{}, err
	}
	for _, ds := range datasets {
		if ds.Path() == path {
			return ds, nil
		}
	}
	return tabvault.Dataset{}, fmt.Errorf("dataset %q: %w", path, tabvault.ErrNotFound)
}
