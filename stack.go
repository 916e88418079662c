package filterpipe

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// Push opens a filter scope for target.
//
// A nil filters uses the target's own (FilterSource) and a nil opts uses
// the target's (OptionSource). After measurement, if any filter survived,
// Push binds a fresh texture covering the scope's input frame; the caller
// then renders the target and calls Pop. If every filter was pruned no
// texture is bound and the target should be rendered directly into the
// current target.
//
// On error the scope is fully unwound and the stack is left as it was.
func (s *System) Push(target Target, filters []Filter, opts *ScopeOptions) error {
	if target == nil {
		return ErrNilTarget
	}
	scope := s.newTargetScope(target, filters)

	if len(s.stack) == 1 {
		b := s.device.Binding()
		base := s.stack[0]
		base.RenderTexture = b.Target
		if b.Target != nil {
			b.Target.FilterFrame = b.Source
		}
	}
	s.stack = append(s.stack, scope)

	opts = scopeOptions(target, opts)
	if opts != nil && opts.Viewport != nil {
		scope.Viewport = *opts.Viewport
	}

	if err := s.Measure(scope); err != nil {
		s.abandon(scope)
		return err
	}

	if opts != nil {
		if opts.Padding > scope.Padding {
			scope.Padding = opts.Padding
		}
		if opts.Resolution > 0 {
			scope.Resolution = opts.Resolution
		}
	}

	b := s.device.Binding()
	scope.snapshot = snapshot{source: b.Source, destination: b.Destination}

	if len(scope.Filters) == 0 {
		// Nested scopes render straight into the enclosing target.
		scope.RenderTexture = b.Target
		Logger().Debug("filterpipe: push without filters", "depth", s.Depth())
		return nil
	}

	size := passTextureSize(scope)
	limit := s.MaxTextureSize()
	pw := render.BucketSize(size.X, scope.Resolution)
	ph := render.BucketSize(size.Y, scope.Resolution)
	if limit > 0 && (pw > limit || ph > limit) {
		s.abandon(scope)
		return fmt.Errorf("%w: %dx%d texels for %gx%g at resolution %g, limit %d",
			ErrTextureTooLarge, pw, ph, size.X, size.Y, scope.Resolution, limit)
	}

	tex, err := s.pool.Get(size.X, size.Y, scope.Resolution, render.OwnerScope)
	if err != nil {
		s.abandon(scope)
		return fmt.Errorf("filterpipe: push: %w", err)
	}
	scope.RenderTexture = tex
	scope.TextureDimensions = tex.Dimensions()
	scope.TexturePixels = tex.Dimensions().Mul(scope.Resolution)
	tex.FilterFrame = scope.InputFrame.Ceil(1)

	s.device.Bind(tex, scope.InputFrame, geom.NewRect(0, 0, scope.InputFrame.Width, scope.InputFrame.Height))
	s.device.Clear(render.Transparent)

	Logger().Debug("filterpipe: push",
		"depth", s.Depth(), "filters", len(scope.Filters), "input", scope.InputFrame, "texture", tex)
	return nil
}

// abandon removes a scope that failed during Push.
func (s *System) abandon(scope *Scope) {
	if scope.RenderTexture != nil {
		_ = s.pool.Put(scope.RenderTexture)
	}
	s.stack = s.stack[:len(s.stack)-1]
	s.ReleaseScope(scope)
}

// Pop runs the filters of the innermost scope and writes the result into
// the parent target. Every texture the scope used is back in the pool when
// Pop returns, whether or not a filter failed.
func (s *System) Pop() (err error) {
	if len(s.stack) <= 1 {
		return ErrEmptyStack
	}
	scope := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	parent := s.stack[len(s.stack)-1]

	prevActive := s.active
	s.active = scope
	scope.CurrentIndex = 0
	defer func() {
		s.active = prevActive
		s.ReleaseScope(scope)
	}()

	filters := scope.Filters
	if len(filters) == 0 {
		return nil
	}

	s.scopeUniforms(scope)

	var flip, flop *render.Texture
	flip = scope.RenderTexture
	defer func() {
		for _, tex := range []*render.Texture{flip, flop} {
			if perr := s.pool.Put(tex); perr != nil && err == nil {
				err = perr
			}
		}
	}()

	last := len(filters) - 1
	if last > 0 {
		if flop, err = s.GetOptimalFilterTexture(flip.Width(), flip.Height(), scope.Resolution); err != nil {
			return fmt.Errorf("filterpipe: pop: %w", err)
		}

		scope.OutputSwappable = true
		scope.InputWritable = true

		for i := 0; i < last; i++ {
			s.passUniforms(scope, i)
			flop.FilterFrame = s.globals.OutputFrame.Ceil(1)

			out, aerr := filters[i].Apply(s, flip, flop, true, scope, nil)
			if aerr != nil {
				if out != nil && out != flip && out != flop {
					_ = s.pool.Put(out)
				}
				return fmt.Errorf("filterpipe: filter %q: %w", filterName(filters[i]), aerr)
			}
			if out != nil && out != flop {
				if out == flip {
					// The filter wrote its result back into its input.
					continue
				}
				if err = s.adopt(out); err != nil {
					return err
				}
				spare := flop
				flop = out
				if err = s.pool.Put(spare); err != nil {
					return err
				}
			}
			flip, flop = flop, flip
			scope.CurrentIndex++
		}
	}

	s.passUniforms(scope, last)
	scope.OutputSwappable = false
	scope.InputWritable = true
	scope.restoring = true
	scope.restoreTarget = parent.RenderTexture

	out, aerr := filters[last].Apply(s, flip, parent.RenderTexture, false, scope, nil)
	scope.restoring = false
	scope.restoreTarget = nil
	if out != nil && out != parent.RenderTexture && out != flip && out != flop && s.pool.Owns(out) {
		Logger().Warn("filterpipe: final pass returned a texture instead of writing the parent target",
			"filter", filterName(filters[last]), "texture", out)
		_ = s.pool.Put(out)
	}
	if aerr != nil {
		return fmt.Errorf("filterpipe: filter %q: %w", filterName(filters[last]), aerr)
	}

	Logger().Debug("filterpipe: pop", "depth", s.Depth(), "filters", len(filters), "swaps", scope.CurrentIndex)
	return nil
}

// scopeUniforms loads the texture size of scope into the globals.
func (s *System) scopeUniforms(scope *Scope) {
	g := &s.globals
	g.Resolution = scope.Resolution
	g.InputSize = [4]float32{
		scope.TextureDimensions.X, scope.TextureDimensions.Y,
		1 / scope.TextureDimensions.X, 1 / scope.TextureDimensions.Y,
	}
	px := scope.TextureDimensions.Mul(scope.Resolution)
	g.InputPixel = [4]float32{px.X, px.Y, 1 / px.X, 1 / px.Y}
	g.InputClamp[0] = 0.5 * g.InputPixel[2]
	g.InputClamp[1] = 0.5 * g.InputPixel[3]
}

// passUniforms loads the globals for pass i of scope.
func (s *System) passUniforms(scope *Scope, i int) {
	scope.passIndex = i
	g := &s.globals

	pass := scope.FilterPasses[i]
	in := pass.InputFrame
	out := pass.OutputFrame

	g.InputClamp[2] = in.Width*g.InputSize[2] - 0.5*g.InputPixel[2]
	g.InputClamp[3] = in.Height*g.InputSize[3] - 0.5*g.InputPixel[3]

	naked := scope.NakedTargetBounds()
	g.ObjectClamp[0] = (math32.Floor(naked.Left()-in.Left()) + 0.5) * g.InputPixel[2]
	g.ObjectClamp[1] = (math32.Floor(naked.Top()-in.Top()) + 0.5) * g.InputPixel[3]
	g.ObjectClamp[2] = (math32.Ceil(naked.Right()-in.Left()) - 0.5) * g.InputPixel[2]
	g.ObjectClamp[3] = (math32.Ceil(naked.Bottom()-in.Top()) - 0.5) * g.InputPixel[3]

	s.UpdateUniforms(pass)

	g.FilterArea = [4]float32{scope.TextureDimensions.X, scope.TextureDimensions.Y, out.X, out.Y}
	g.FilterClamp = g.InputClamp
}
