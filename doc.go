// Package tabvault discovers version-controlled tabular datasets inside a
// content-addressed snapshot store.
//
// A snapshot is a hierarchy of commits, trees and blobs addressed by
// content hash. A directory whose direct child is the reserved marker
// ".table-dataset" is a dataset root; RepoStructure finds every such
// directory in one pruned pre-order scan, and Dataset gives lazy,
// memory-bounded access to the dataset's feature blobs without ever
// materializing whole subtrees.
//
// Basic usage:
//
//	repo, _ := tabvault.Open("/data/census")
//	defer repo.Close()
//
//	structure, _ := repo.Structure(ctx, "main")
//	datasets, _ := structure.GetDatasets(ctx)
//	for _, ds := range datasets {
//	    fmt.Println(ds.Path())
//
//	    blobs, _ := ds.FeatureBlobs(ctx)
//	    for blobs.Next() {
//	        b := blobs.Blob()
//	        fmt.Println(b.Path(), b.Size())
//	    }
//	    if err := blobs.Err(); err != nil { ... }
//	}
//
// With remote sync:
//
//	repo, _ := tabvault.Open("/data/census",
//	    tabvault.WithRemote("registry.example.com/data/census:main"))
//	repo.Push(ctx)
//	repo.Pull(ctx)
package tabvault
