package tabvault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/tabvault/tabvault/internal/remote"
	"github.com/tabvault/tabvault/internal/store"
)

// remoteStateFile persists the per-prefix upload state between pushes.
const remoteStateFile = "remote-state.json"

// Repo is an on-disk repository: an object database plus refs, with an
// optional OCI registry remote.
type Repo struct {
	path    string
	fs      afero.Fs
	objects store.Store
	odb     *ODB
	remote  *remote.OCIRemote
	refName string
	log     *zap.Logger
}

// Open creates or opens a repository at the given directory.
func Open(repoPath string, opts ...OpenOption) (*Repo, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	objects, err := store.NewLocalStore(options.Fs, repoPath, store.Options{
		CacheSize:          options.CacheSize,
		CompressionLevel:   options.CompressionLevel,
		CompressionEnabled: options.CompressionEnabled,
		Concurrency:        options.Concurrency,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}

	r := &Repo{
		path:    repoPath,
		fs:      options.Fs,
		objects: objects,
		odb:     NewODB(objects),
		refName: options.RemoteRef,
		log:     logger.Named("repo"),
	}

	if options.Remote != "" {
		rem, err := remote.NewOCIRemote(options.Remote, options.Auth, logger)
		if err != nil {
			return nil, err
		}
		rem.SetConcurrency(options.Concurrency)
		r.remote = rem
	}

	return r, nil
}

// ODB returns the repository's object database.
func (r *Repo) ODB() *ODB {
	return r.odb
}

// Close releases the repository's resources.
func (r *Repo) Close() error {
	return r.objects.Close()
}

// Ref resolves a ref name to an object id.
func (r *Repo) Ref(name string) (ObjectID, error) {
	hash, err := r.objects.GetRef(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ObjectID{}, fmt.Errorf("ref %s: %w", name, ErrNotFound)
		}
		return ObjectID{}, err
	}
	return ParseObjectID(hash)
}

// SetRef points a ref at an object id.
func (r *Repo) SetRef(name string, id ObjectID) error {
	return r.objects.PutRef(name, id.String())
}

var hexIDPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Resolve turns a treeish (a full hex object id, a ref name, or a short
// ref name under "heads/") into an object id.
func (r *Repo) Resolve(treeish string) (ObjectID, error) {
	if hexIDPattern.MatchString(treeish) {
		return ParseObjectID(treeish)
	}

	id, err := r.Ref(treeish)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return ObjectID{}, err
	}
	return r.Ref("heads/" + treeish)
}

// Structure resolves a treeish, peels it to its tree, and returns a
// structure scanner over it.
func (r *Repo) Structure(ctx context.Context, treeish string) (*RepoStructure, error) {
	id, err := r.Resolve(treeish)
	if err != nil {
		return nil, err
	}

	tree, err := r.odb.Peel(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewRepoStructure(r.odb, tree), nil
}

// Commit records rootTree as a new commit on the given ref, with the
// ref's current commit (if any) as parent, and advances the ref.
func (r *Repo) Commit(ctx context.Context, refName string, rootTree ObjectID, author, message string) (*Commit, error) {
	var parents []ObjectID
	if parentID, err := r.Ref(refName); err == nil {
		parents = append(parents, parentID)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	commit, err := r.odb.PutCommit(ctx, rootTree, parents, author, message)
	if err != nil {
		return nil, err
	}
	if err := r.SetRef(refName, commit.ID()); err != nil {
		return nil, err
	}

	r.log.Info("created commit",
		zap.String("ref", refName),
		zap.String("commit", commit.ID().String()),
		zap.String("tree", rootTree.String()))
	return commit, nil
}

// Push uploads all objects reachable from the configured ref to the
// remote registry.
func (r *Repo) Push(ctx context.Context) error {
	if r.remote == nil {
		return ErrNoRemote
	}

	rootID, err := r.Ref(r.refName)
	if err != nil {
		return err
	}

	objects := make(map[string][]byte)
	if err := r.collectReachable(ctx, rootID, objects); err != nil {
		return err
	}

	prefixes, err := r.loadRemoteState()
	if err != nil {
		return err
	}

	newPrefixes, err := r.remote.Push(ctx, rootID.String(), objects, prefixes)
	if err != nil {
		return fmt.Errorf("push to %s: %w", r.remote, err)
	}
	return r.saveRemoteState(newPrefixes)
}

// Pull downloads objects from the remote registry and points the
// configured ref at the remote root.
func (r *Repo) Pull(ctx context.Context) error {
	if r.remote == nil {
		return ErrNoRemote
	}

	prefixes, err := r.loadRemoteState()
	if err != nil {
		return err
	}

	rootHash, objects, remotePrefixes, err := r.remote.Pull(ctx, prefixes)
	if err != nil {
		return fmt.Errorf("pull from %s: %w", r.remote, err)
	}

	if err := r.objects.PutMulti(ctx, objects); err != nil {
		return fmt.Errorf("store pulled objects: %w", err)
	}

	rootID, err := ParseObjectID(rootHash)
	if err != nil {
		return err
	}
	if err := r.SetRef(r.refName, rootID); err != nil {
		return err
	}
	return r.saveRemoteState(remotePrefixes)
}

// collectReachable gathers the framed bytes of every object reachable
// from id: commits pull in their trees and parents, trees their entries.
func (r *Repo) collectReachable(ctx context.Context, id ObjectID, out map[string][]byte) error {
	hash := id.String()
	if _, seen := out[hash]; seen {
		return nil
	}

	data, err := r.objects.Get(ctx, hash)
	if err != nil {
		return fmt.Errorf("collect %s: %w", hash, err)
	}
	out[hash] = data

	kind, payload, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("collect %s: %w", hash, err)
	}

	switch kind {
	case KindCommit:
		commit, err := decodeCommit(payload)
		if err != nil {
			return fmt.Errorf("collect %s: %w", hash, err)
		}
		if err := r.collectReachable(ctx, commit.TreeID, out); err != nil {
			return err
		}
		for _, parent := range commit.Parents {
			if err := r.collectReachable(ctx, parent, out); err != nil {
				return err
			}
		}
	case KindTree:
		entries, err := decodeTreeEntries(payload)
		if err != nil {
			return fmt.Errorf("collect %s: %w", hash, err)
		}
		for _, entry := range entries {
			if err := r.collectReachable(ctx, entry.ID, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Repo) loadRemoteState() (map[string]remote.PrefixInfo, error) {
	data, err := afero.ReadFile(r.fs, path.Join(r.path, remoteStateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read remote state: %w", err)
	}

	var prefixes map[string]remote.PrefixInfo
	if err := json.Unmarshal(data, &prefixes); err != nil {
		return nil, fmt.Errorf("parse remote state: %w", err)
	}
	return prefixes, nil
}

func (r *Repo) saveRemoteState(prefixes map[string]remote.PrefixInfo) error {
	data, err := json.Marshal(prefixes)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(r.fs, path.Join(r.path, remoteStateFile), data, 0o644); err != nil {
		return fmt.Errorf("write remote state: %w", err)
	}
	return nil
}
