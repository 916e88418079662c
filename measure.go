package filterpipe

import (
	"slices"

	"github.com/chewxy/math32"

	"github.com/gogpu/filterpipe/geom"
)

// Measure computes every frame of scope: the padded output frame, the
// pixel-aligned target frame, and walking the filters backward, the input
// frame of each pass. Filters whose input region is empty are removed from
// scope.Filters (on a copy; the caller's slice is never modified).
func (s *System) Measure(scope *Scope) error {
	filters := scope.Filters
	scope.FilterPasses = scope.FilterPasses[:0]
	scope.passIndex = 0

	resolution := math32.Inf(1)
	autoFit := true
	legacy := false
	for _, f := range filters {
		b := f.FilterBase()
		bindViewport(f, scope.Viewport)
		resolution = math32.Min(resolution, b.EffectiveResolution())
		autoFit = autoFit && b.AutoFit
		legacy = legacy || b.Legacy
	}
	if len(filters) == 0 {
		resolution = 1
	}
	padding := AggregatePadding(filters)

	scope.Resolution = resolution
	scope.Legacy = legacy
	scope.Padding = padding

	output := scope.bounds().Pad(padding)
	if autoFit {
		scope.TargetFrame = output.Ceil(resolution)
		output = output.Fit(s.device.Binding().Source)
	} else {
		scope.TargetFrame = output
	}
	scope.OutputFrame = output

	passFrame := output
	renderable := true
	cloned := false
	for i := len(filters) - 1; i >= 0; i-- {
		f := filters[i]
		b := f.FilterBase()
		b.resetMeasure()
		f.Measure(scope.TargetFrame, passFrame, padding)
		if !b.measured {
			return &MeasureError{Filter: filterName(f), Child: b.unmeasured, Index: i}
		}

		in := b.frame.Fit(scope.TargetFrame)
		if !in.Empty() {
			// Slivers narrower than the ceil epsilon collapse here.
			in = in.Ceil(1).Fit(scope.TargetFrame)
		}
		if in.Empty() {
			b.frame = in
			if !cloned {
				filters = slices.Clone(filters)
				cloned = true
			}
			filters = slices.Delete(filters, i, i+1)
			continue
		}

		renderable = renderable && b.renderable
		b.frame = in

		scope.FilterPasses = append(scope.FilterPasses, NewPass(in, passFrame))
		passFrame = in
	}
	slices.Reverse(scope.FilterPasses)

	scope.Filters = filters
	scope.Renderable = renderable
	if len(filters) > 0 {
		scope.InputFrame = filters[0].FilterBase().frame
	} else {
		scope.InputFrame = output
	}
	return nil
}

// Premeasure measures target with filters without pushing a scope. It is
// useful for objects that need the frames before rendering. Release the
// returned scope with ReleaseScope.
func (s *System) Premeasure(target Target, filters []Filter, opts *ScopeOptions) (*Scope, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	scope := s.newTargetScope(target, filters)
	if opts = scopeOptions(target, opts); opts != nil && opts.Viewport != nil {
		scope.Viewport = *opts.Viewport
	}
	if err := s.Measure(scope); err != nil {
		s.ReleaseScope(scope)
		return nil, err
	}
	return scope, nil
}

func (s *System) newTargetScope(target Target, filters []Filter) *Scope {
	scope := s.getScope()
	scope.Target = target
	if filters == nil {
		if fs, ok := target.(FilterSource); ok {
			filters = fs.Filters()
		}
	}
	scope.Filters = filters
	return scope
}

func scopeOptions(target Target, opts *ScopeOptions) *ScopeOptions {
	if opts != nil {
		return opts
	}
	if os, ok := target.(OptionSource); ok {
		return os.FilterOptions()
	}
	return nil
}

// passTextureSize returns the logical size of a texture that can hold any
// pass of scope.
func passTextureSize(scope *Scope) geom.Point {
	var size geom.Point
	fallback := false
	for _, f := range scope.Filters {
		if r, ok := f.FilterBase().Frame(); ok {
			size.X = math32.Max(size.X, r.Width)
			size.Y = math32.Max(size.Y, r.Height)
		} else {
			fallback = true
		}
	}
	if fallback {
		size.X = math32.Max(size.X, scope.OutputFrame.Width)
		size.Y = math32.Max(size.Y, scope.OutputFrame.Height)
	}
	return size.Ceil()
}
