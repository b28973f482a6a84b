package tabvault

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/tabvault/tabvault/internal/remote"
)

// Authenticator provides credentials for remote registries.
type Authenticator = remote.Authenticator

// DefaultRef is the ref updated by default on commit, push and pull.
const DefaultRef = "heads/main"

// OpenOptions configures a repository. All configuration is explicit;
// the library never reads ambient process state.
type OpenOptions struct {
	Fs                 afero.Fs
	CacheSize          int
	CompressionLevel   int
	CompressionEnabled bool
	Concurrency        int
	Logger             *zap.Logger
	Remote             string
	RemoteRef          string
	Auth               Authenticator
}

// OpenOption is a functional option for configuring Open.
type OpenOption func(*OpenOptions)

func defaultOptions() *OpenOptions {
	return &OpenOptions{
		Fs:                 afero.NewOsFs(),
		CompressionLevel:   2,
		CompressionEnabled: true,
		RemoteRef:          DefaultRef,
	}
}

// WithFs sets the backing filesystem. Tests use an in-memory filesystem.
func WithFs(fs afero.Fs) OpenOption {
	return func(o *OpenOptions) { o.Fs = fs }
}

// WithCacheSize sets the object cache capacity (entries).
func WithCacheSize(n int) OpenOption {
	return func(o *OpenOptions) {
		if n > 0 {
			o.CacheSize = n
		}
	}
}

// WithCompressionLevel sets the zstd level (1 fastest .. 3 best).
func WithCompressionLevel(level int) OpenOption {
	return func(o *OpenOptions) { o.CompressionLevel = level }
}

// WithoutCompression stores objects verbatim.
func WithoutCompression() OpenOption {
	return func(o *OpenOptions) { o.CompressionEnabled = false }
}

// WithConcurrency sets the number of parallel store and remote operations.
func WithConcurrency(n int) OpenOption {
	return func(o *OpenOptions) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) OpenOption {
	return func(o *OpenOptions) { o.Logger = logger }
}

// WithRemote configures an OCI registry remote (e.g.
// "registry.example.com/data/census:main").
func WithRemote(imageRef string) OpenOption {
	return func(o *OpenOptions) { o.Remote = imageRef }
}

// WithRemoteRef sets the ref synced by Push and Pull.
func WithRemoteRef(name string) OpenOption {
	return func(o *OpenOptions) { o.RemoteRef = name }
}

// WithAuth sets custom registry authentication.
func WithAuth(auth Authenticator) OpenOption {
	return func(o *OpenOptions) { o.Auth = auth }
}
