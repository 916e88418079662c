package filterpipe

import (
	"errors"
	"slices"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// Pipe chains several sub-passes inside one filter's Apply.
//
// A composite filter opens a pipe on the input and output it was given,
// bridges through intermediate textures with Bridge or BridgeTo, and
// finishes with CloseWith, which writes the output (or, when the scope
// allows swapping, a spare texture it returns instead). Intermediate
// textures come from a small local list that every released bridge refills,
// so a chain of any length needs at most two textures beyond the ones it was
// handed. Save keeps the current bridge texture aside for a later pass (a
// drop shadow compositing over its own input, for example); Free releases it
// early.
//
//	pipe := sys.Pipe().Open(sys, input, output, clear, scope)
//	if err := pipe.Bridge(horizontal, nil); err != nil {
//	    _ = pipe.Finalize()
//	    return nil, err
//	}
//	return pipe.CloseWith(vertical, nil)
type Pipe struct {
	sys    *System
	input  *render.Texture
	output *render.Texture
	clear  bool
	scope  *Scope

	inputWritable bool
	bridge        *render.Texture
	saveNext      bool
	bridgedFrame  geom.Rect
	endFrame      geom.Rect

	bridges []*render.Texture
	saved   []*render.Texture
	closing *render.Texture

	autoMode  bool
	autoFrame *geom.Rect

	sampling    render.Sampling
	hasSampling bool

	open   bool
	pooled bool
	err    error
}

// NewPipe returns an unopened pipe.
func NewPipe() *Pipe { return &Pipe{} }

// Pipe returns an unopened pipe from the system's free list. It goes back to
// the list when finalized.
func (s *System) Pipe() *Pipe {
	if n := len(s.pipes); n > 0 {
		p := s.pipes[n-1]
		s.pipes = s.pipes[:n-1]
		return p
	}
	return &Pipe{pooled: true}
}

// Open starts a chain from input to output for the current pass of scope.
func (p *Pipe) Open(sys *System, input, output *render.Texture, clear bool, scope *Scope) *Pipe {
	p.sys = sys
	p.input = input
	p.output = output
	p.clear = clear
	p.scope = scope
	p.inputWritable = scope.InputWritable
	p.bridge = input
	p.saveNext = false
	p.bridgedFrame = sys.InputFrame()
	p.endFrame = scope.CurrentPass().OutputFrame
	p.open = true
	p.err = nil

	if scope.OutputSwappable {
		// The output can serve as an intermediate too.
		p.returnBridgeTexture(output)
	}
	return p
}

// Save keeps the texture the next pass reads from aside instead of
// recycling it. Saved textures are read with Use and released with Free or
// Finalize.
func (p *Pipe) Save() *Pipe {
	p.saveNext = true
	return p
}

// Saved returns the texture kept by the i-th Save.
func (p *Pipe) Saved(i int) (*render.Texture, error) {
	if i < 0 || i >= len(p.saved) || p.saved[i] == nil {
		return nil, ErrNoSavedTexture
	}
	return p.saved[i], nil
}

// Use calls fn with the texture kept by the i-th Save. It does nothing for
// an empty slot.
func (p *Pipe) Use(i int, fn func(*render.Texture)) *Pipe {
	if tex, err := p.Saved(i); err == nil && fn != nil {
		fn(tex)
	}
	return p
}

// Free releases the texture kept by the i-th Save for reuse as a bridge.
func (p *Pipe) Free(i int) *Pipe {
	if i < 0 || i >= len(p.saved) || p.saved[i] == nil {
		return p
	}
	tex := p.saved[i]
	p.saved[i] = nil
	p.returnBridgeTexture(tex)
	return p
}

// Bridge runs f into an intermediate texture holding the same frame as the
// previous bridge.
func (p *Pipe) Bridge(f Filter, opts *RenderOptions) error {
	return p.BridgeTo(f, p.bridgedFrame, opts)
}

// BridgeTo runs f into an intermediate texture holding nextFrame, which
// becomes the input of the next pass.
func (p *Pipe) BridgeTo(f Filter, nextFrame geom.Rect, opts *RenderOptions) error {
	if !p.open {
		return ErrPipeClosed
	}
	writableHere := p.inputWritable || p.bridge != p.input
	p.scope.InputWritable = !p.saveNext && writableHere

	next, err := p.getBridgeTexture(nextFrame)
	if err != nil {
		return err
	}
	p.sys.SetOutputFrame(nextFrame)
	p.autoRun()

	override, err := f.Apply(p.sys, p.bridge, next, true, p.scope, opts)
	if err != nil {
		p.returnBridgeTexture(next)
		if override != nil && override != next && override != p.bridge {
			p.returnBridgeTexture(override)
		}
		return err
	}
	p.sys.SetInputFrame(nextFrame)

	switch {
	case p.saveNext:
		p.saved = append(p.saved, p.bridge)
		p.saveNext = false
	case override != p.bridge && writableHere:
		p.returnBridgeTexture(p.bridge)
	}

	if override != nil {
		p.bridge = override
		if override != next {
			p.returnBridgeTexture(next)
		}
	} else {
		p.bridge = next
	}
	p.bridgedFrame = nextFrame
	return nil
}

// UseBridge calls fn with the texture the next pass reads from.
func (p *Pipe) UseBridge(fn func(*render.Texture)) *Pipe {
	fn(p.bridge)
	return p
}

// BridgeTexture returns the texture the next pass reads from.
func (p *Pipe) BridgeTexture() *render.Texture { return p.bridge }

// CloseWith runs f into the closing texture and finalizes the pipe. It
// returns the texture holding the result: the output unless the scope
// allows swapping.
func (p *Pipe) CloseWith(f Filter, opts *RenderOptions) (*render.Texture, error) {
	tex, err := p.CloseWithoutFinalize(f, opts)
	if ferr := p.Finalize(); err == nil {
		err = ferr
	}
	if err != nil {
		return nil, err
	}
	return tex, nil
}

// CloseWithoutFinalize is CloseWith leaving the pipe open, so saved
// textures stay readable. The caller must call Finalize.
func (p *Pipe) CloseWithoutFinalize(f Filter, opts *RenderOptions) (*render.Texture, error) {
	if !p.open {
		return nil, ErrPipeClosed
	}
	p.scope.InputWritable = (!p.saveNext && p.inputWritable) || p.bridge != p.input
	p.sys.SetOutputFrame(p.endFrame)
	p.autoRun()

	closing, err := p.closingTexture()
	if err != nil {
		return nil, err
	}
	override, err := f.Apply(p.sys, p.bridge, closing, p.clear, p.scope, opts)
	if err != nil {
		if override != nil && override != closing && override != p.bridge {
			p.returnBridgeTexture(override)
		}
		if closing != p.output {
			p.returnBridgeTexture(closing)
			p.closing = nil
		}
		return nil, err
	}

	if p.saveNext {
		p.saved = append(p.saved, p.bridge)
		p.saveNext = false
	}
	if override != nil && override != closing {
		if closing != p.output {
			p.returnBridgeTexture(closing)
		}
		p.closing = override
	}
	return p.closing, nil
}

// Finalize returns every texture the pipe took from the pool, except the
// closing texture, and resets the pipe. It returns the first error the pool
// reported.
func (p *Pipe) Finalize() error {
	if !p.open {
		return nil
	}
	var errs []error
	var returned []*render.Texture
	release := func(tex *render.Texture) {
		if tex == nil || tex == p.input || tex == p.output || tex == p.closing || slices.Contains(returned, tex) {
			return
		}
		returned = append(returned, tex)
		errs = append(errs, p.sys.ReturnFilterTexture(tex))
	}
	for _, tex := range p.bridges {
		release(tex)
	}
	release(p.bridge)
	for _, tex := range p.saved {
		release(tex)
	}

	sys, pooled := p.sys, p.pooled
	clear(p.bridges)
	clear(p.saved)
	*p = Pipe{bridges: p.bridges[:0], saved: p.saved[:0], pooled: pooled}
	if pooled {
		sys.pipes = append(sys.pipes, p)
	}
	return errors.Join(errs...)
}

// AutoClamp makes every following pass clamp to frame (the object clamp
// uniform), converted for that pass's output frame.
func (p *Pipe) AutoClamp(frame geom.Rect) *Pipe {
	p.autoFrame = &frame
	p.autoMode = true
	return p
}

// AutoClampNaked makes the next pass clamp to the unpadded object bounds.
func (p *Pipe) AutoClampNaked() *Pipe {
	p.autoFrame = nil
	p.autoMode = true
	return p
}

// SetBridgeSampling sets the sampling of every bridge texture handed out
// from now on.
func (p *Pipe) SetBridgeSampling(s render.Sampling) *Pipe {
	p.sampling = s
	p.hasSampling = true
	return p
}

func (p *Pipe) autoRun() {
	if !p.autoMode {
		return
	}
	g := p.sys.Globals()
	if p.autoFrame != nil {
		g.ObjectClamp = p.sys.ConvertFrameToClamp(*p.autoFrame, p.sys.OutputFrame(), p.scope.TextureDimensions)
		return
	}
	g.ObjectClamp = p.sys.ConvertFrameToClamp(p.scope.NakedTargetBounds(), p.sys.OutputFrame(), p.scope.TextureDimensions)
	p.autoMode = false
}

func (p *Pipe) getBridgeTexture(frame geom.Rect) (*render.Texture, error) {
	var tex *render.Texture
	if n := len(p.bridges); n > 0 {
		tex = p.bridges[n-1]
		p.bridges[n-1] = nil
		p.bridges = p.bridges[:n-1]
	} else {
		var err error
		if tex, err = p.sys.GetFilterTexture(p.input, 0); err != nil {
			return nil, err
		}
		if err = p.sys.pool.Transfer(tex, render.OwnerFilter, render.OwnerPipe); err != nil {
			return nil, err
		}
	}
	tex.FilterFrame = frame
	if p.hasSampling {
		tex.Sampling = p.sampling
	}
	return tex, nil
}

func (p *Pipe) returnBridgeTexture(tex *render.Texture) {
	if tex == nil || (!p.inputWritable && tex == p.input) {
		return
	}
	p.bridges = append(p.bridges, tex)
}

func (p *Pipe) closingTexture() (*render.Texture, error) {
	if p.closing != nil {
		return p.closing, nil
	}
	if p.scope.OutputSwappable {
		tex, err := p.getBridgeTexture(p.endFrame)
		if err != nil {
			return nil, err
		}
		p.closing = tex
		return tex, nil
	}
	p.closing = p.output
	return p.output, nil
}
