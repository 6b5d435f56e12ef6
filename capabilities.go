package tilemap

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilemap/internal/gpu"
)

// Capabilities are the backend features the renderer adapts to.
type Capabilities struct {
	// PushConstants selects the push-constant binding path. Without it
	// every per-draw value lives in a uniform buffer.
	PushConstants bool
}

// pushConstantReporter is implemented by providers and devices that can
// tell whether push constants are available.
type pushConstantReporter interface {
	SupportsPushConstants() bool
}

// featureReporter is implemented by wgpu adapters and devices.
type featureReporter interface {
	Features() gputypes.Features
}

type limitReporter interface {
	Limits() gputypes.Limits
}

// DetectCapabilities inspects device providers, devices, adapters
// (*wgpu.Adapter, hal.ExposedAdapter) or a gputypes.Features set. The first
// source that knows about push constants decides. Push constants are
// selected only when the backend advertises gputypes.FeaturePushConstants
// and its MaxPushConstantSize, if reported, holds the tile push block.
// Everything else gets the uniform-buffer path, which every backend runs.
func DetectCapabilities(sources ...any) Capabilities {
	caps, _ := detect(sources)
	return caps
}

// detect is DetectCapabilities that also reports whether any source knew.
func detect(sources []any) (caps Capabilities, known bool) {
	for _, s := range sources {
		if supported, ok := pushConstantsOf(s); ok {
			return Capabilities{PushConstants: supported}, true
		}
	}
	return Capabilities{}, false
}

func pushConstantsOf(s any) (supported, known bool) {
	switch v := s.(type) {
	case nil:
		return false, false
	case pushConstantReporter:
		return v.SupportsPushConstants(), true
	case *hal.ExposedAdapter:
		if v == nil {
			return false, false
		}
		return pushConstantsFit(v.Features, v.Capabilities.Limits), true
	case hal.ExposedAdapter:
		return pushConstantsFit(v.Features, v.Capabilities.Limits), true
	case gputypes.Features:
		return v.Contains(gputypes.FeaturePushConstants), true
	case featureReporter:
		var limits gputypes.Limits
		if l, ok := s.(limitReporter); ok {
			limits = l.Limits()
		}
		return pushConstantsFit(v.Features(), limits), true
	}
	return false, false
}

// pushConstantsFit treats a zero MaxPushConstantSize as unreported.
func pushConstantsFit(f gputypes.Features, l gputypes.Limits) bool {
	if !f.Contains(gputypes.FeaturePushConstants) {
		return false
	}
	return l.MaxPushConstantSize == 0 || l.MaxPushConstantSize >= gpu.PushConstantSize
}

// resolveCapabilities returns the forced capabilities, or the detected ones
// when none were forced. Forcing push constants onto a backend that is
// known to lack them fails here rather than at the first Draw.
func resolveCapabilities(o options, sources ...any) (Capabilities, error) {
	detected, known := detect(sources)
	if o.caps == nil {
		return detected, nil
	}
	if o.caps.PushConstants && known && !detected.PushConstants {
		return Capabilities{}, fmt.Errorf("%w: backend does not advertise push constants", gpu.ErrPushConstantsUnsupported)
	}
	return *o.caps, nil
}
