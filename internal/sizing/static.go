package sizing

import (
	"context"
	"fmt"
	"strings"

	"github.com/distribution/reference"
)

const (
	kb int64 = 1024
	mb       = 1024 * kb
)

// defaultImageSizes is a curated table of compressed sizes for common base
// images, keyed by familiar reference ("node:12", "nginx:stable-alpine").
// Figures are rounded registry sizes for linux/amd64; they are estimates,
// not guarantees.
var defaultImageSizes = map[string]int64{
	"alpine:3":             3 * mb,
	"alpine:latest":        3 * mb,
	"busybox:latest":       2 * mb,
	"debian:bookworm":      49 * mb,
	"debian:latest":        49 * mb,
	"debian:bookworm-slim": 27 * mb,
	"ubuntu:22.04":         29 * mb,
	"ubuntu:24.04":         29 * mb,
	"ubuntu:latest":        29 * mb,

	"node:12":        341 * mb,
	"node:12-alpine": 39 * mb,
	"node:12-slim":   67 * mb,
	"node:18":        380 * mb,
	"node:18-alpine": 47 * mb,
	"node:18-slim":   77 * mb,
	"node:20":        395 * mb,
	"node:20-alpine": 50 * mb,
	"node:20-slim":   80 * mb,
	"node:latest":    400 * mb,
	"node:alpine":    52 * mb,
	"node:slim":      82 * mb,

	"nginx:latest":        56 * mb,
	"nginx:stable":        55 * mb,
	"nginx:alpine":        12 * mb,
	"nginx:stable-alpine": 11 * mb,
	"httpd:latest":        62 * mb,
	"httpd:alpine":        21 * mb,
	"caddy:latest":        18 * mb,
	"caddy:alpine":        16 * mb,

	"python:3":        345 * mb,
	"python:3-slim":   45 * mb,
	"python:3-alpine": 18 * mb,
	"python:latest":   345 * mb,

	"golang:1":        270 * mb,
	"golang:latest":   270 * mb,
	"golang:alpine":   108 * mb,
	"golang:1-alpine": 108 * mb,
}

// StaticLookup resolves image sizes from an in-memory table.
// The zero value is not usable; use NewStaticLookup.
type StaticLookup struct {
	sizes map[string]int64
}

// NewStaticLookup creates a lookup backed by the built-in size table.
func NewStaticLookup() *StaticLookup {
	return &StaticLookup{sizes: defaultImageSizes}
}

// NewStaticLookupWithTable creates a lookup backed by a caller-owned table
// keyed by familiar references. Useful for tests and custom size tables.
func NewStaticLookupWithTable(sizes map[string]int64) *StaticLookup {
	return &StaticLookup{sizes: sizes}
}

// ImageSize implements Lookup. Table hits are high confidence: the table is
// curated from real registry data.
func (l *StaticLookup) ImageSize(_ context.Context, ref string) (Size, error) {
	key, err := FamiliarRef(ref)
	if err != nil {
		return Size{}, fmt.Errorf("%w: %s", ErrLookupUnavailable, ref)
	}
	if bytes, ok := l.sizes[key]; ok {
		return Size{Bytes: bytes, Confidence: ConfidenceHigh}, nil
	}
	return Size{}, fmt.Errorf("%w: %s", ErrLookupUnavailable, ref)
}

// FamiliarRef normalizes an image reference to its familiar tagged form
// ("node:12", "nginx:stable-alpine"). Untagged references get ":latest".
func FamiliarRef(ref string) (string, error) {
	named, err := reference.ParseNormalizedNamed(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	named = reference.TagNameOnly(named)
	return reference.FamiliarString(named), nil
}

// SplitTag splits a familiar reference into name and tag.
// "node:12-alpine" -> ("node", "12-alpine").
func SplitTag(familiar string) (name, tag string) {
	if idx := strings.LastIndex(familiar, ":"); idx >= 0 {
		return familiar[:idx], familiar[idx+1:]
	}
	return familiar, ""
}
