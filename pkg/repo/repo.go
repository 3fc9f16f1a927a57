package repo

import (
	"io"
	"log/slog"
	"time"

	"github.com/odvcencio/grit/pkg/object"
)

// Repo represents an opened repository.
type Repo struct {
	WorkTree string        // working directory root, empty for a bare handle
	GitDir   string        // .git/ directory
	Store    *object.Store // content-addressed object store

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Repo.
type Option func(*repoOptions)

type repoOptions struct {
	logger      *slog.Logger
	compression *int
	now         func() time.Time
}

// WithLogger sets the logger used by the repo and its store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *repoOptions) { o.logger = logger }
}

// WithCompressionLevel sets the zlib level for new objects.
func WithCompressionLevel(level int) Option {
	return func(o *repoOptions) { o.compression = &level }
}

// WithClock overrides the time source used for commit and tag timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *repoOptions) { o.now = now }
}

func newRepo(workTree, gitDir string, opts []Option) *Repo {
	o := repoOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	storeOpts := []object.Option{object.WithLogger(o.logger)}
	if o.compression != nil {
		storeOpts = append(storeOpts, object.WithCompressionLevel(*o.compression))
	}
	return &Repo{
		WorkTree: workTree,
		GitDir:   gitDir,
		Store:    object.NewStore(gitDir, storeOpts...),
		logger:   o.logger,
		now:      o.now,
	}
}
