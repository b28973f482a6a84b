// Package remote syncs object sets with an OCI registry.
//
// Objects are grouped by hash prefix, packed into zstd layers and pushed
// as a regular image; the manifest config carries the root hash and the
// per-prefix content hashes so that subsequent pushes and pulls only move
// changed groups.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	ociremote "github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/types"
	"github.com/klauspost/compress/zstd"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	DefaultConcurrency = 4

	rootLabel     = "io.tabvault.root"
	prefixesLabel = "io.tabvault.prefixes"
)

// OCIRemote pushes and pulls object sets against one image reference.
type OCIRemote struct {
	ref         name.Reference
	auth        Authenticator
	concurrency int
	log         *zap.Logger
}

// NewOCIRemote creates a remote from a standard image ref (e.g.
// "registry.example.com/data/census:main"). The address format is fixed
// here; nothing is read from ambient process state.
func NewOCIRemote(imageRef string, auth Authenticator, log *zap.Logger) (*OCIRemote, error) {
	ref, err := name.ParseReference(imageRef, name.WithDefaultTag("latest"))
	if err != nil {
		return nil, fmt.Errorf("invalid image ref %q: %w", imageRef, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OCIRemote{ref: ref, auth: auth, concurrency: DefaultConcurrency, log: log.Named("remote")}, nil
}

// SetConcurrency sets the number of parallel registry operations.
func (r *OCIRemote) SetConcurrency(n int) {
	if n > 0 {
		r.concurrency = n
	}
}

func (r *OCIRemote) String() string   { return r.ref.String() }
func (r *OCIRemote) Registry() string { return r.ref.Context().RegistryStr() }

// objectLayer implements v1.Layer with zstd compression for transfer.
type objectLayer struct {
	compressed   []byte
	uncompressed []byte
}

var zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))

func newObjectLayer(data []byte) *objectLayer {
	return &objectLayer{
		compressed:   zstdEncoder.EncodeAll(data, nil),
		uncompressed: data,
	}
}

func (l *objectLayer) Digest() (v1.Hash, error) {
	h, _, err := v1.SHA256(bytes.NewReader(l.compressed))
	return h, err
}

func (l *objectLayer) DiffID() (v1.Hash, error) {
	h, _, err := v1.SHA256(bytes.NewReader(l.uncompressed))
	return h, err
}

func (l *objectLayer) Compressed() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(l.compressed)), nil
}

func (l *objectLayer) Uncompressed() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(l.uncompressed)), nil
}

func (l *objectLayer) Size() (int64, error)                { return int64(len(l.compressed)), nil }
func (l *objectLayer) MediaType() (types.MediaType, error) { return types.OCILayerZStd, nil }

// Push uploads objects, skipping prefix groups whose content hash matches
// what localPrefixes says was already uploaded. It returns the updated
// prefix state to persist for the next push.
func (r *OCIRemote) Push(ctx context.Context, rootHash string, objects map[string][]byte, localPrefixes map[string]PrefixInfo) (map[string]PrefixInfo, error) {
	byPrefix := GroupByPrefix(objects)

	currentHashes := make(map[string]string, len(byPrefix))
	for prefix, group := range byPrefix {
		currentHashes[prefix] = PrefixHash(group)
	}

	var changed []string
	for prefix, hash := range currentHashes {
		if local, ok := localPrefixes[prefix]; !ok || local.Hash != hash {
			changed = append(changed, prefix)
		}
	}

	r.log.Info("pushing objects",
		zap.Int("objects", len(objects)),
		zap.Int("prefixes", len(byPrefix)),
		zap.Int("changed", len(changed)))

	newPrefixes := make(map[string]PrefixInfo)
	for prefix, info := range localPrefixes {
		if _, exists := currentHashes[prefix]; exists {
			newPrefixes[prefix] = info
		}
	}

	if len(changed) == 0 {
		return newPrefixes, r.pushManifest(ctx, rootHash, newPrefixes)
	}

	changedByPrefix := make(map[string]map[string][]byte, len(changed))
	for _, prefix := range changed {
		changedByPrefix[prefix] = byPrefix[prefix]
	}

	plan := BuildLayerPlan(PrefixSizes(changedByPrefix))

	layers := make([]v1.Layer, 0, len(plan))
	for _, group := range plan {
		layerData := PackObjects(CollectPrefixObjects(group, changedByPrefix))
		layer := newObjectLayer(layerData)
		digest, err := layer.Digest()
		if err != nil {
			return nil, fmt.Errorf("layer digest: %w", err)
		}

		layers = append(layers, layer)
		for _, prefix := range group {
			newPrefixes[prefix] = PrefixInfo{
				Hash:  currentHashes[prefix],
				Layer: digest.String(),
			}
		}
	}

	r.log.Debug("packed layers", zap.Int("layers", len(layers)))

	img, err := r.buildImage(layers, rootHash, newPrefixes)
	if err != nil {
		return nil, fmt.Errorf("build image: %w", err)
	}
	if err := r.pushImage(ctx, img); err != nil {
		return nil, fmt.Errorf("push image: %w", err)
	}
	return newPrefixes, nil
}

// pushManifest pushes only the manifest, without new layers.
func (r *OCIRemote) pushManifest(ctx context.Context, rootHash string, prefixes map[string]PrefixInfo) error {
	img, err := r.buildImage(nil, rootHash, prefixes)
	if err != nil {
		return err
	}
	return r.pushImage(ctx, img)
}

func (r *OCIRemote) buildImage(layers []v1.Layer, rootHash string, prefixes map[string]PrefixInfo) (v1.Image, error) {
	img := empty.Image

	if len(layers) > 0 {
		var err error
		img, err = mutate.AppendLayers(img, layers...)
		if err != nil {
			return nil, err
		}
	}

	cfg, err := img.ConfigFile()
	if err != nil {
		return nil, err
	}

	prefixJSON, err := json.Marshal(prefixes)
	if err != nil {
		return nil, err
	}

	cfg.Config.Labels = map[string]string{
		rootLabel:     rootHash,
		prefixesLabel: string(prefixJSON),
	}

	return mutate.ConfigFile(img, cfg)
}

func (r *OCIRemote) pushImage(ctx context.Context, img v1.Image) error {
	options := r.remoteOptions()
	options = append(options, ociremote.WithJobs(r.concurrency))
	_, err := retry(ctx, 3, func() (struct{}, error) {
		return struct{}{}, ociremote.Write(r.ref, img, options...)
	})
	return err
}

// Pull downloads objects, fetching only the layers whose prefix groups
// differ from localPrefixes. It returns the root hash recorded in the
// manifest, the downloaded objects, and the remote prefix state.
func (r *OCIRemote) Pull(ctx context.Context, localPrefixes map[string]PrefixInfo) (string, map[string][]byte, map[string]PrefixInfo, error) {
	img, err := retry(ctx, 3, func() (v1.Image, error) {
		return ociremote.Image(r.ref, r.remoteOptions()...)
	})
	if err != nil {
		return "", nil, nil, fmt.Errorf("fetch image: %w", err)
	}

	cfg, err := img.ConfigFile()
	if err != nil {
		return "", nil, nil, fmt.Errorf("get config: %w", err)
	}

	rootHash := cfg.Config.Labels[rootLabel]
	if rootHash == "" {
		return "", nil, nil, fmt.Errorf("missing %s label", rootLabel)
	}

	var remotePrefixes map[string]PrefixInfo
	if prefixJSON := cfg.Config.Labels[prefixesLabel]; prefixJSON != "" {
		if err := json.Unmarshal([]byte(prefixJSON), &remotePrefixes); err != nil {
			return "", nil, nil, fmt.Errorf("parse prefixes: %w", err)
		}
	}

	needed := make(map[string]bool)
	for prefix, remoteInfo := range remotePrefixes {
		localInfo, exists := localPrefixes[prefix]
		if !exists || localInfo.Hash != remoteInfo.Hash {
			needed[remoteInfo.Layer] = true
		}
	}

	layers, err := img.Layers()
	if err != nil {
		return "", nil, nil, fmt.Errorf("get layers: %w", err)
	}

	var neededLayers []v1.Layer
	for _, layer := range layers {
		digest, err := layer.Digest()
		if err != nil {
			continue
		}
		if needed[digest.String()] {
			neededLayers = append(neededLayers, layer)
		}
	}

	r.log.Info("pulling layers", zap.Int("layers", len(neededLayers)))

	var mu sync.Mutex
	objects := make(map[string][]byte)

	p := pool.New().WithMaxGoroutines(r.concurrency).WithContext(ctx).WithCancelOnError()
	for _, layer := range neededLayers {
		p.Go(func(ctx context.Context) error {
			rc, err := layer.Uncompressed()
			if err != nil {
				return fmt.Errorf("read layer: %w", err)
			}
			data, err := io.ReadAll(rc)
			if cerr := rc.Close(); cerr != nil {
				return fmt.Errorf("close layer: %w", cerr)
			}
			if err != nil {
				return fmt.Errorf("read layer: %w", err)
			}

			unpacked, err := UnpackObjects(data)
			if err != nil {
				return fmt.Errorf("unpack layer: %w", err)
			}

			mu.Lock()
			for hash, obj := range unpacked {
				objects[hash] = obj
			}
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return "", nil, nil, err
	}

	r.log.Info("pull complete", zap.Int("objects", len(objects)))
	return rootHash, objects, remotePrefixes, nil
}

func (r *OCIRemote) remoteOptions() []ociremote.Option {
	if r.auth != nil {
		username, password, err := r.auth.Authenticate(r.Registry())
		if err == nil && username != "" {
			return []ociremote.Option{ociremote.WithAuth(&authn.Basic{
				Username: username,
				Password: password,
			})}
		}
	}
	return []ociremote.Option{ociremote.WithAuthFromKeychain(authn.DefaultKeychain)}
}

func retry[T any](ctx context.Context, maxAttempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for i := range maxAttempts {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i < maxAttempts-1 {
			delay := time.Duration(1<<i) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return zero, lastErr
}
