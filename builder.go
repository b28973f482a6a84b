package tabvault

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// TreeBuilder assembles a tree hierarchy in memory and writes it to the
// object database bottom-up. It is the write-side counterpart of the
// discovery layer: the import CLI and tests use it to produce snapshots.
type TreeBuilder struct {
	odb  *ODB
	root *builderNode
}

type builderNode struct {
	children map[string]*builderNode // non-nil for directories
	data     []byte                  // file content, valid when children is nil
}

func newBuilderDir() *builderNode {
	return &builderNode{children: make(map[string]*builderNode)}
}

// NewTreeBuilder returns an empty builder writing into odb.
func NewTreeBuilder(odb *ODB) *TreeBuilder {
	return &TreeBuilder{odb: odb, root: newBuilderDir()}
}

// AddBlob stages data at the given slash-separated path, creating
// intermediate directories as needed. It fails if the path crosses an
// already staged file or restates an existing path.
func (b *TreeBuilder) AddBlob(path string, data []byte) error {
	path = strings.Trim(path, "/")
	if path == "" {
		return fmt.Errorf("empty blob path")
	}

	segments := strings.Split(path, "/")
	current := b.root

	for _, segment := range segments[:len(segments)-1] {
		child, ok := current.children[segment]
		if !ok {
			child = newBuilderDir()
			current.children[segment] = child
		}
		if child.children == nil {
			return fmt.Errorf("%s: not a directory", segment)
		}
		current = child
	}

	name := segments[len(segments)-1]
	if _, exists := current.children[name]; exists {
		return fmt.Errorf("%s: already staged", path)
	}
	current.children[name] = &builderNode{data: data}
	return nil
}

// Write persists the staged hierarchy bottom-up and returns the root tree
// id. An empty builder writes an empty tree.
func (b *TreeBuilder) Write(ctx context.Context) (ObjectID, error) {
	return b.writeNode(ctx, b.root)
}

func (b *TreeBuilder) writeNode(ctx context.Context, node *builderNode) (ObjectID, error) {
	if node.children == nil {
		return b.odb.PutBlob(ctx, node.data)
	}

	// Children are written in name order; PutTree re-sorts anyway, but a
	// stable write order keeps store activity deterministic.
	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]TreeEntry, 0, len(names))
	for _, name := range names {
		child := node.children[name]

		id, err := b.writeNode(ctx, child)
		if err != nil {
			return ObjectID{}, err
		}

		kind := KindBlob
		if child.children != nil {
			kind = KindTree
		}
		entries = append(entries, TreeEntry{Name: name, ID: id, Kind: kind})
	}

	return b.odb.PutTree(ctx, entries)
}
