package sizing

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/wharflab/stagewise/internal/semantic"
)

// Defaults are the fallback figures used when no lookup can size a layer.
// All fallback-derived estimates are marked low confidence.
type Defaults struct {
	// BaseImageBytes is assumed for an external base image the lookup
	// cannot resolve.
	BaseImageBytes int64

	// DependencyInstallBytes is assumed for a package-install RUN step
	// when no manifest hint is configured.
	DependencyInstallBytes int64

	// ManifestHintBytes, when positive, scales dependency-install
	// estimates: hint bytes times the package manager's multiplier.
	ManifestHintBytes int64

	// SourceCopyBytes is assumed for a COPY from the build context.
	SourceCopyBytes int64

	// ArtifactCopyBytes is assumed for a COPY --from a stage or image.
	ArtifactCopyBytes int64

	// RunStepBytes is assumed for a RUN step with no recognized install.
	RunStepBytes int64
}

// DefaultDefaults returns the built-in fallback figures.
func DefaultDefaults() Defaults {
	return Defaults{
		BaseImageBytes:         75 * mb,
		DependencyInstallBytes: 120 * mb,
		SourceCopyBytes:        5 * mb,
		ArtifactCopyBytes:      20 * mb,
		RunStepBytes:           1 * mb,
	}
}

// dependencyMultipliers scales a manifest hint into an installed-tree
// estimate per package manager. Language package managers fan out small
// manifests into large dependency trees; system package managers less so.
var dependencyMultipliers = map[string]float64{
	"npm":      60,
	"yarn":     60,
	"pnpm":     45,
	"pip":      40,
	"pip3":     40,
	"pipenv":   40,
	"poetry":   40,
	"bundle":   35,
	"composer": 35,
	"go":       30,

	"apt-get": 8,
	"apt":     8,
	"apk":     6,
	"yum":     8,
	"dnf":     8,
	"zypper":  8,
}

// Summary counts what one estimation pass did.
type Summary struct {
	// LayersEstimated is the number of layers annotated in this pass.
	LayersEstimated int

	// LowConfidence is how many of those carry a fallback-derived figure.
	LowConfidence int
}

// Estimator annotates every layer of a semantic model with a byte estimate.
// It never fails: layers the lookup cannot size get defaults and a
// low-confidence mark.
type Estimator struct {
	lookup   Lookup
	defaults Defaults
	log      logrus.FieldLogger
}

// NewEstimator creates an estimator. A nil lookup means every base image
// falls back to defaults.
func NewEstimator(lookup Lookup, defaults Defaults) *Estimator {
	return &Estimator{
		lookup:   lookup,
		defaults: defaults,
		log:      logrus.StandardLogger(),
	}
}

// Estimate walks the model and populates each unestimated layer exactly
// once. Already-estimated layers are left untouched.
func (e *Estimator) Estimate(ctx context.Context, model *semantic.Model) Summary {
	var summary Summary
	for _, stage := range model.Stages() {
		for i := range stage.Instructions {
			inst := &stage.Instructions[i]
			if inst.Layer == nil || inst.Layer.Estimated() {
				continue
			}
			bytes, low := e.estimateLayer(ctx, stage, inst)
			inst.Layer.SetEstimate(bytes, low)
			summary.LayersEstimated++
			if low {
				summary.LowConfidence++
			}
		}
	}
	return summary
}

func (e *Estimator) estimateLayer(ctx context.Context, stage *semantic.StageInfo, inst *semantic.Instruction) (int64, bool) {
	switch inst.Layer.Provenance {
	case semantic.ProvenanceBaseImage:
		return e.estimateBase(ctx, stage)
	case semantic.ProvenanceDependencyInstall:
		return e.estimateDependencyInstall(inst), true
	case semantic.ProvenanceSourceCopy:
		return e.defaults.SourceCopyBytes, true
	case semantic.ProvenanceArtifactCopy:
		return e.defaults.ArtifactCopyBytes, true
	default:
		return e.defaults.RunStepBytes, true
	}
}

// estimateBase sizes an external base image through the lookup, degrading
// to the configured default when the lookup is unavailable.
func (e *Estimator) estimateBase(ctx context.Context, stage *semantic.StageInfo) (int64, bool) {
	if e.lookup != nil {
		size, err := e.lookup.ImageSize(ctx, stage.BaseImage)
		if err == nil {
			return size.Bytes, size.Confidence == ConfidenceLow
		}
		e.log.WithFields(logrus.Fields{
			"stage": stage.Index,
			"image": stage.BaseImage,
		}).WithError(err).Debug("base image size lookup failed, using default")
	}
	return e.defaults.BaseImageBytes, true
}

// estimateDependencyInstall sizes a package-install RUN step. With a
// manifest hint the installed tree is approximated as hint bytes times the
// package manager's fan-out multiplier; without one the flat default applies.
func (e *Estimator) estimateDependencyInstall(inst *semantic.Instruction) int64 {
	if e.defaults.ManifestHintBytes > 0 {
		if multiplier, ok := dependencyMultipliers[inst.PackageManager]; ok {
			return int64(float64(e.defaults.ManifestHintBytes) * multiplier)
		}
	}
	if e.defaults.DependencyInstallBytes > 0 {
		return e.defaults.DependencyInstallBytes
	}
	return DefaultDefaults().DependencyInstallBytes
}

// ImageSizeOrDefault resolves an image size through a lookup, falling back
// to the given default with low confidence. Shared by the advisor rules
// that compare alternative base or server images.
func ImageSizeOrDefault(ctx context.Context, lookup Lookup, ref string, fallback int64) Size {
	if lookup != nil {
		if size, err := lookup.ImageSize(ctx, ref); err == nil {
			return size
		}
	}
	return Size{Bytes: fallback, Confidence: ConfidenceLow}
}
