package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/tabvault/tabvault/internal/compression"
)

// Options configures a LocalStore. Zero values select sane defaults.
type Options struct {
	CacheSize          int // decoded-object LRU entries, default 4096
	CompressionLevel   int // zstd level 1..3, default 2
	CompressionEnabled bool
	Concurrency        int // parallel batch operations, default 4
	Logger             *zap.Logger
}

const (
	defaultCacheSize   = 4096
	defaultConcurrency = 4
)

// LocalStore implements Store on an afero filesystem.
//
// Storage layout:
//
//	basePath/
//	  objects/
//	    ab/cd123...  (content-addressed, zstd-compressed objects)
//	  refs/
//	    heads/main   (plain text hex hash)
//
// Backing the store with afero keeps the layout identical between the
// on-disk store and the in-memory store used by tests.
type LocalStore struct {
	fs          afero.Fs
	basePath    string
	cache       *lru.Cache[string, []byte]
	compressor  *compression.Compressor
	concurrency int
	log         *zap.Logger
}

func NewLocalStore(fs afero.Fs, basePath string, opts Options) (*LocalStore, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	for _, dir := range []string{path.Join(basePath, "objects"), path.Join(basePath, "refs")} {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	compressor, err := compression.NewCompressor(opts.CompressionLevel, opts.CompressionEnabled)
	if err != nil {
		return nil, fmt.Errorf("create compressor: %w", err)
	}

	return &LocalStore{
		fs:          fs,
		basePath:    basePath,
		cache:       cache,
		compressor:  compressor,
		concurrency: opts.Concurrency,
		log:         opts.Logger.Named("store"),
	}, nil
}

// Get retrieves an object's framed bytes by hex hash.
func (s *LocalStore) Get(ctx context.Context, hash string) ([]byte, error) {
	if data, ok := s.cache.Get(hash); ok {
		return data, nil
	}

	compressed, err := afero.ReadFile(s.fs, s.objectPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object %s: %w", hash, ErrNotFound)
		}
		return nil, fmt.Errorf("read object %s: %w", hash, err)
	}

	data, err := s.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress object %s: %w", hash, err)
	}

	s.cache.Add(hash, data)
	return data, nil
}

// Put stores framed object bytes and returns their hex hash.
func (s *LocalStore) Put(ctx context.Context, data []byte) (string, error) {
	h := sha256.Sum256(data)
	hash := hex.EncodeToString(h[:])

	objPath := s.objectPath(hash)
	if _, err := s.fs.Stat(objPath); err == nil {
		return hash, nil
	}

	compressed, err := s.compressor.Compress(data)
	if err != nil {
		return "", fmt.Errorf("compress object: %w", err)
	}

	if err := s.fs.MkdirAll(path.Dir(objPath), 0o755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, objPath, compressed, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}

	s.cache.Add(hash, data)
	s.log.Debug("stored object", zap.String("hash", hash), zap.Int("size", len(data)))
	return hash, nil
}

// Has checks if an object exists.
func (s *LocalStore) Has(ctx context.Context, hash string) (bool, error) {
	if s.cache.Contains(hash) {
		return true, nil
	}

	_, err := s.fs.Stat(s.objectPath(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// GetMulti retrieves multiple objects in parallel.
func (s *LocalStore) GetMulti(ctx context.Context, hashes []string) (map[string][]byte, error) {
	var mu sync.Mutex
	result := make(map[string][]byte, len(hashes))

	p := pool.New().WithMaxGoroutines(s.concurrency).WithContext(ctx).WithCancelOnError()
	for _, hash := range hashes {
		p.Go(func(ctx context.Context) error {
			data, err := s.Get(ctx, hash)
			if err != nil {
				return err
			}
			mu.Lock()
			result[hash] = data
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// PutMulti stores multiple objects in parallel.
func (s *LocalStore) PutMulti(ctx context.Context, objects map[string][]byte) error {
	p := pool.New().WithMaxGoroutines(s.concurrency).WithContext(ctx).WithCancelOnError()
	for _, data := range objects {
		p.Go(func(ctx context.Context) error {
			_, err := s.Put(ctx, data)
			return err
		})
	}
	return p.Wait()
}

// GetRef resolves a ref name to a hex hash.
func (s *LocalStore) GetRef(name string) (string, error) {
	refPath, err := s.refPath(name)
	if err != nil {
		return "", err
	}

	data, err := afero.ReadFile(s.fs, refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("ref %s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("read ref %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// PutRef stores a ref.
func (s *LocalStore) PutRef(name, hash string) error {
	refPath, err := s.refPath(name)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(path.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("create ref directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, refPath, []byte(hash+"\n"), 0o644); err != nil {
		return fmt.Errorf("write ref %s: %w", name, err)
	}

	s.log.Debug("updated ref", zap.String("ref", name), zap.String("hash", hash))
	return nil
}

// ListRefs returns all refs as a name → hash map.
func (s *LocalStore) ListRefs() (map[string]string, error) {
	refs := make(map[string]string)
	refsDir := path.Join(s.basePath, "refs")

	err := afero.Walk(s.fs, refsDir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		name := strings.TrimPrefix(strings.TrimPrefix(p, refsDir), "/")
		data, err := afero.ReadFile(s.fs, p)
		if err != nil {
			return err
		}
		refs[name] = strings.TrimSpace(string(data))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

// Evict removes an object from the in-memory cache.
func (s *LocalStore) Evict(hash string) {
	s.cache.Remove(hash)
}

// Close releases the compressor.
func (s *LocalStore) Close() error {
	s.cache.Purge()
	return s.compressor.Close()
}

// objectPath returns the filesystem path for an object hash.
// Git-style sharding: objects/ab/cd123...
func (s *LocalStore) objectPath(hash string) string {
	if len(hash) < 2 {
		return path.Join(s.basePath, "objects", hash)
	}
	return path.Join(s.basePath, "objects", hash[:2], hash[2:])
}

// refPath returns the filesystem path for a ref, rejecting names that
// would escape the refs directory.
func (s *LocalStore) refPath(name string) (string, error) {
	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid ref name %q", name)
	}
	return path.Join(s.basePath, "refs", cleaned), nil
}
