package sizing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticLookup(t *testing.T) {
	t.Parallel()

	lookup := NewStaticLookup()

	tests := []struct {
		name      string
		ref       string
		wantBytes int64
		wantErr   bool
	}{
		{name: "familiar tagged ref", ref: "node:12", wantBytes: 341 * mb},
		{name: "fully qualified ref", ref: "docker.io/library/node:12", wantBytes: 341 * mb},
		{name: "untagged defaults to latest", ref: "alpine", wantBytes: 3 * mb},
		{name: "alpine variant", ref: "node:12-alpine", wantBytes: 39 * mb},
		{name: "unknown image", ref: "example.com/internal/widget:1.0", wantErr: true},
		{name: "unparseable ref", ref: ":::", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			size, err := lookup.ImageSize(context.Background(), tc.ref)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrLookupUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantBytes, size.Bytes)
			assert.Equal(t, ConfidenceHigh, size.Confidence)
		})
	}
}

func TestFamiliarRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref  string
		want string
	}{
		{ref: "node:12", want: "node:12"},
		{ref: "docker.io/library/node:12", want: "node:12"},
		{ref: "nginx", want: "nginx:latest"},
		{ref: "ghcr.io/acme/app:v2", want: "ghcr.io/acme/app:v2"},
		{ref: "  alpine:3  ", want: "alpine:3"},
	}

	for _, tc := range tests {
		t.Run(tc.ref, func(t *testing.T) {
			t.Parallel()

			got, err := FamiliarRef(tc.ref)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSplitTag(t *testing.T) {
	t.Parallel()

	name, tag := SplitTag("node:12-alpine")
	assert.Equal(t, "node", name)
	assert.Equal(t, "12-alpine", tag)

	name, tag = SplitTag("nginx")
	assert.Equal(t, "nginx", name)
	assert.Empty(t, tag)
}

func TestChain(t *testing.T) {
	t.Parallel()

	miss := LookupFunc(func(context.Context, string) (Size, error) {
		return Size{}, ErrLookupUnavailable
	})
	hit := LookupFunc(func(context.Context, string) (Size, error) {
		return Size{Bytes: 42, Confidence: ConfidenceHigh}, nil
	})

	size, err := Chain(miss, hit).ImageSize(context.Background(), "node:12")
	require.NoError(t, err)
	assert.Equal(t, int64(42), size.Bytes)

	_, err = Chain(miss, miss).ImageSize(context.Background(), "node:12")
	require.ErrorIs(t, err, ErrLookupUnavailable)
}
