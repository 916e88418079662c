package filterpipe

import (
	"errors"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// recordingDevice is a render.Device that records binds, clears and draws
// without touching pixels.
type recordingDevice struct {
	maxSize   int
	screen    *render.Texture
	binding   render.Binding
	allocated int
	released  int
	clears    int
	rectClear []geom.Rect
	draws     []drawRecord
	failAlloc bool
}

type drawRecord struct {
	program  string
	input    *render.Texture
	target   *render.Texture
	source   geom.Rect
	dest     geom.Rect
	globals  render.Globals
	geometry *render.Geometry
	mode     render.DrawMode
	second   *render.Texture
}

func newRecordingDevice(w, h int) *recordingDevice {
	screen := render.NewTexture(w, h, 1)
	screen.Label = "screen"
	full := geom.NewRect(0, 0, float32(w), float32(h))
	return &recordingDevice{
		maxSize: 4096,
		screen:  screen,
		binding: render.Binding{Target: screen, Source: full, Destination: full},
	}
}

var errAllocFailed = errors.New("allocation failed")

func (d *recordingDevice) Allocate(tex *render.Texture) error {
	if d.failAlloc {
		return errAllocFailed
	}
	d.allocated++
	tex.Backing = d.allocated
	return nil
}

func (d *recordingDevice) Release(*render.Texture) { d.released++ }

func (d *recordingDevice) MaxTextureSize() int { return d.maxSize }

func (d *recordingDevice) Bind(target *render.Texture, source, destination geom.Rect) {
	if target == nil {
		target = d.screen
	}
	d.binding = render.Binding{Target: target, Source: source, Destination: destination}
}

func (d *recordingDevice) Binding() render.Binding { return d.binding }

func (d *recordingDevice) Clear(render.Color) { d.clears++ }

func (d *recordingDevice) ClearRect(r geom.Rect, _ render.Color) {
	d.rectClear = append(d.rectClear, r)
}

func (d *recordingDevice) Draw(call *render.DrawCall) error {
	d.draws = append(d.draws, drawRecord{
		program:  call.Program.Label(),
		input:    call.Input,
		target:   d.binding.Target,
		source:   d.binding.Source,
		dest:     d.binding.Destination,
		globals:  *call.Globals,
		geometry: call.Geometry,
		mode:     call.Mode,
		second:   call.Secondary,
	})
	return nil
}

// rectTarget is a filter target with fixed bounds.
type rectTarget struct {
	bounds  geom.Rect
	area    *geom.Rect
	filters []Filter
	opts    *ScopeOptions
}

func (t *rectTarget) Bounds() geom.Rect { return t.bounds }

func (t *rectTarget) FilterArea() (geom.Rect, bool) {
	if t.area == nil {
		return geom.Rect{}, false
	}
	return *t.area, true
}

func (t *rectTarget) Filters() []Filter { return t.filters }

func (t *rectTarget) FilterOptions() *ScopeOptions { return t.opts }

func newTarget(x, y, w, h float32) *rectTarget {
	return &rectTarget{bounds: geom.NewRect(x, y, w, h)}
}

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-5 && d > -1e-5
}

func identity(label string) *Base {
	f := NewFilter(render.IdentityProgram())
	f.Label = label
	return f
}

// padFilter asks for its pass bounds grown by its own padding, like a blur.
type padFilter struct {
	Base
}

func newPadFilter(padding float32, additive bool) *padFilter {
	f := &padFilter{}
	f.Init()
	f.Program = render.IdentityProgram()
	f.Padding = padding
	f.AdditivePadding = additive
	return f
}

func (f *padFilter) Measure(_, passBounds geom.Rect, _ float32) {
	f.SetFrame(passBounds.Pad(f.Padding))
}

// fixedFilter asks for a fixed region regardless of the pass.
type fixedFilter struct {
	Base
	region geom.Rect
}

func newFixedFilter(r geom.Rect) *fixedFilter {
	f := &fixedFilter{region: r}
	f.Init()
	f.Program = render.IdentityProgram()
	return f
}

func (f *fixedFilter) Measure(geom.Rect, geom.Rect, float32) { f.SetFrame(f.region) }

// lazyFilter never sets a frame.
type lazyFilter struct {
	Base
}

func (f *lazyFilter) Measure(geom.Rect, geom.Rect, float32) {}

// inPlaceFilter draws into its input and hands the input back.
type inPlaceFilter struct {
	Base
}

func newInPlaceFilter() *inPlaceFilter {
	f := &inPlaceFilter{}
	f.Init()
	f.Program = render.IdentityProgram()
	f.Label = "in-place"
	return f
}

func (f *inPlaceFilter) Apply(sys *System, input, _ *render.Texture, _ bool, scope *Scope, opts *RenderOptions) (*render.Texture, error) {
	if !scope.OutputSwappable || !scope.InputWritable {
		return nil, errors.New("in-place filter needs a swappable output and writable input")
	}
	return input, sys.ApplyFilter(f, input, input, false, opts)
}

// freshFilter renders into a texture of its own and returns it.
type freshFilter struct {
	Base
	handed *render.Texture
}

func newFreshFilter() *freshFilter {
	f := &freshFilter{}
	f.Init()
	f.Program = render.IdentityProgram()
	f.Label = "fresh"
	return f
}

func (f *freshFilter) Apply(sys *System, input, _ *render.Texture, _ bool, _ *Scope, opts *RenderOptions) (*render.Texture, error) {
	tex, err := sys.GetFilterTexture(input, 0)
	if err != nil {
		return nil, err
	}
	tex.FilterFrame = sys.OutputFrame().Ceil(1)
	f.handed = tex
	return tex, sys.ApplyFilter(f, input, tex, true, opts)
}

// failFilter fails in Apply.
type failFilter struct {
	Base
}

var errFilterFailed = errors.New("filter failed")

func (f *failFilter) Apply(*System, *render.Texture, *render.Texture, bool, *Scope, *RenderOptions) (*render.Texture, error) {
	return nil, errFilterFailed
}

func newFailFilter() *failFilter {
	f := &failFilter{}
	f.Init()
	f.Program = render.IdentityProgram()
	f.Label = "fail"
	return f
}
