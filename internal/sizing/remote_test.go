package sizing

import (
	"context"
	"fmt"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/registry"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteLookup(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(registry.New())
	t.Cleanup(server.Close)
	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	img, err := random.Image(1024, 3)
	require.NoError(t, err)
	ref, err := name.ParseReference(fmt.Sprintf("%s/test/app:v1", serverURL.Host))
	require.NoError(t, err)
	require.NoError(t, remote.Write(ref, img))

	manifest, err := img.Manifest()
	require.NoError(t, err)
	want := manifest.Config.Size
	for _, layer := range manifest.Layers {
		want += layer.Size
	}

	lookup := NewRemoteLookup(WithInsecure())

	t.Run("sums config and layer sizes", func(t *testing.T) {
		t.Parallel()

		size, err := lookup.ImageSize(context.Background(), ref.String())
		require.NoError(t, err)
		assert.Equal(t, want, size.Bytes)
		assert.Equal(t, ConfidenceHigh, size.Confidence)
	})

	t.Run("missing image is unavailable", func(t *testing.T) {
		t.Parallel()

		missing := NewRemoteLookup(WithInsecure(), WithMaxTries(1))
		_, err := missing.ImageSize(context.Background(), serverURL.Host+"/test/missing:v1")
		require.ErrorIs(t, err, ErrLookupUnavailable)
	})

	t.Run("invalid reference is unavailable", func(t *testing.T) {
		t.Parallel()

		_, err := lookup.ImageSize(context.Background(), "UPPER CASE::bad")
		require.ErrorIs(t, err, ErrLookupUnavailable)
	})
}
