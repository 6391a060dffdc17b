package sizing

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

// RemoteLookup resolves image sizes by fetching the manifest from the
// image's registry and summing the compressed layer and config blob sizes.
// Transient failures are retried with exponential backoff; any terminal
// failure is reported as ErrLookupUnavailable so the estimator can degrade
// instead of aborting the analysis.
type RemoteLookup struct {
	// insecure allows plain-HTTP registries (tests, local registries).
	insecure bool

	// maxTries bounds the retry loop per reference.
	maxTries uint

	// remoteOpts are passed through to the registry client.
	remoteOpts []remote.Option
}

// RemoteOption configures a RemoteLookup.
type RemoteOption func(*RemoteLookup)

// WithInsecure allows plain-HTTP registry access.
func WithInsecure() RemoteOption {
	return func(l *RemoteLookup) { l.insecure = true }
}

// WithMaxTries sets the retry budget per reference (default 3).
func WithMaxTries(n uint) RemoteOption {
	return func(l *RemoteLookup) { l.maxTries = n }
}

// WithRemoteOptions appends options for the underlying registry client.
func WithRemoteOptions(opts ...remote.Option) RemoteOption {
	return func(l *RemoteLookup) { l.remoteOpts = append(l.remoteOpts, opts...) }
}

// NewRemoteLookup creates a registry-backed size lookup.
func NewRemoteLookup(opts ...RemoteOption) *RemoteLookup {
	l := &RemoteLookup{maxTries: 3}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ImageSize implements Lookup.
func (l *RemoteLookup) ImageSize(ctx context.Context, ref string) (Size, error) {
	parseOpts := []name.Option{}
	if l.insecure {
		parseOpts = append(parseOpts, name.Insecure)
	}

	parsed, err := name.ParseReference(ref, parseOpts...)
	if err != nil {
		return Size{}, fmt.Errorf("%w: invalid reference %q: %w", ErrLookupUnavailable, ref, err)
	}

	manifest, err := l.fetchManifest(ctx, parsed)
	if err != nil {
		return Size{}, fmt.Errorf("%w: %s: %w", ErrLookupUnavailable, ref, err)
	}

	return Size{Bytes: manifestBytes(manifest), Confidence: ConfidenceHigh}, nil
}

// fetchManifest pulls the manifest with retries. Reference parse errors
// never reach here, so every failure is treated as retryable up to the
// per-reference budget.
func (l *RemoteLookup) fetchManifest(ctx context.Context, ref name.Reference) (*v1.Manifest, error) {
	operation := func() (*v1.Manifest, error) {
		opts := append([]remote.Option{remote.WithContext(ctx)}, l.remoteOpts...)
		img, err := remote.Image(ref, opts...)
		if err != nil {
			return nil, err
		}
		manifest, err := img.Manifest()
		if err != nil {
			return nil, err
		}
		return manifest, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(newRegistryBackOff()),
		backoff.WithMaxTries(l.maxTries),
	)
}

func newRegistryBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}

// manifestBytes sums the compressed layer sizes plus the config blob.
// This approximates the pull size of the image, which is the figure the
// optimization rules reason about.
func manifestBytes(m *v1.Manifest) int64 {
	total := m.Config.Size
	for _, layer := range m.Layers {
		total += layer.Size
	}
	return total
}
