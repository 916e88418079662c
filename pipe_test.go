package filterpipe

import (
	"errors"
	"testing"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// bridgeCounter wraps a composite and records how many bridge textures its
// pipe holds after each step.
type bridgeCounter struct {
	Composite
	counts []int
}

func (f *bridgeCounter) Apply(sys *System, input, output *render.Texture, clear bool, scope *Scope, opts *RenderOptions) (*render.Texture, error) {
	pipe := sys.Pipe().Open(sys, input, output, clear, scope)
	f.counts = append(f.counts, len(pipe.bridges))
	children := f.Children()
	for _, c := range children[:len(children)-1] {
		if err := pipe.Bridge(c, nil); err != nil {
			_ = pipe.Finalize()
			return nil, err
		}
		f.counts = append(f.counts, len(pipe.bridges))
	}
	return pipe.CloseWith(children[len(children)-1], opts)
}

func TestPipe_CompositeDoesNotLeak(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev, WithStrictOwnership(true))

	c := &bridgeCounter{}
	c.Init()
	c.Keep(identity("c1"))
	c.Keep(identity("c2"))
	c.Keep(identity("c3"))

	if err := sys.Push(newTarget(0, 0, 100, 100), []Filter{c, identity("after")}, nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}

	if want := []int{1, 1, 1}; len(c.counts) != 3 || c.counts[0] != 1 || c.counts[1] != 1 || c.counts[2] != 1 {
		t.Errorf("bridge list sizes = %v, want %v", c.counts, want)
	}
	if dev.allocated != 2 {
		t.Errorf("allocated = %d, want 2 (pipe must reuse the flip/flop pair)", dev.allocated)
	}
	if len(dev.draws) != 4 {
		t.Fatalf("draws = %d, want 4", len(dev.draws))
	}
	a, b := dev.draws[0].input, dev.draws[0].target
	steps := [][2]*render.Texture{{a, b}, {b, a}, {a, b}, {b, dev.screen}}
	for i, s := range steps {
		if d := dev.draws[i]; d.input != s[0] || d.target != s[1] {
			t.Errorf("draw %d %s -> %s, want %s -> %s", i, d.input, d.target, s[0], s[1])
		}
	}
	if sys.Pool().InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", sys.Pool().InUse())
	}
}

func TestPipe_DefaultCompositeApply(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev, WithStrictOwnership(true))
	c := NewComposite(identity("c1"), identity("c2"))

	// Composite as the only filter closes straight into the parent.
	if err := sys.Push(newTarget(0, 0, 100, 100), []Filter{c}, nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	if len(dev.draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(dev.draws))
	}
	if dev.draws[1].target != dev.screen {
		t.Errorf("closing draw target = %s, want screen", dev.draws[1].target)
	}
	if sys.Pool().InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", sys.Pool().InUse())
	}
}

// saver keeps its input for the closing pass.
type saver struct {
	Composite
	free  bool
	saved *render.Texture
}

func (f *saver) Apply(sys *System, input, output *render.Texture, clear bool, scope *Scope, opts *RenderOptions) (*render.Texture, error) {
	children := f.Children()
	pipe := sys.Pipe().Open(sys, input, output, clear, scope).Save()
	if err := pipe.Bridge(children[0], nil); err != nil {
		_ = pipe.Finalize()
		return nil, err
	}
	pipe.Use(0, func(tex *render.Texture) { f.saved = tex })
	if f.free {
		pipe.Free(0)
	}
	return pipe.CloseWith(children[1], opts)
}

func newSaver(free bool) *saver {
	f := &saver{free: free}
	f.Init()
	f.Keep(identity("first"))
	f.Keep(identity("second"))
	return f
}

func TestPipe_SaveKeepsInput(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev, WithStrictOwnership(true))
	f := newSaver(false)

	if err := sys.Push(newTarget(0, 0, 100, 100), []Filter{f, identity("after")}, nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}

	if f.saved != dev.draws[0].input {
		t.Error("saved texture should be the pipe input")
	}
	if dev.allocated != 3 {
		t.Errorf("allocated = %d, want 3 (the saved input cannot be reused)", dev.allocated)
	}
	if sys.Pool().InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", sys.Pool().InUse())
	}
}

func TestPipe_FreeMakesSavedReusable(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev, WithStrictOwnership(true))
	f := newSaver(true)

	if err := sys.Push(newTarget(0, 0, 100, 100), []Filter{f, identity("after")}, nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}

	if dev.allocated != 2 {
		t.Errorf("allocated = %d, want 2", dev.allocated)
	}
	a := dev.draws[0].input
	if dev.draws[1].target != a {
		t.Error("closing pass should reuse the freed input")
	}
	if dev.draws[2].input != a {
		t.Error("the pass after the pipe should read the texture it closed into")
	}
	if sys.Pool().InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", sys.Pool().InUse())
	}
}

func TestPipe_UnwritableInputNotRecycled(t *testing.T) {
	sys := New(newRecordingDevice(800, 600))
	scope := newScope()
	scope.InputWritable = false
	scope.FilterPasses = []Pass{NewPass(geom.NewRect(0, 0, 10, 10), geom.NewRect(0, 0, 10, 10))}
	in := render.NewTexture(16, 16, 1)
	out := render.NewTexture(16, 16, 1)

	p := sys.Pipe().Open(sys, in, out, true, scope)
	p.returnBridgeTexture(in)
	if len(p.bridges) != 0 {
		t.Errorf("bridges = %d, want 0 for an unwritable input", len(p.bridges))
	}
	p.returnBridgeTexture(out)
	if len(p.bridges) != 1 {
		t.Errorf("bridges = %d, want 1", len(p.bridges))
	}
	if err := p.Finalize(); err != nil {
		t.Errorf("Finalize() error = %v", err)
	}
}

func TestPipe_ClosedErrors(t *testing.T) {
	p := NewPipe()
	if err := p.Bridge(identity("a"), nil); !errors.Is(err, ErrPipeClosed) {
		t.Errorf("Bridge() error = %v, want ErrPipeClosed", err)
	}
	if _, err := p.CloseWith(identity("a"), nil); !errors.Is(err, ErrPipeClosed) {
		t.Errorf("CloseWith() error = %v, want ErrPipeClosed", err)
	}
	if _, err := p.Saved(0); !errors.Is(err, ErrNoSavedTexture) {
		t.Errorf("Saved(0) error = %v, want ErrNoSavedTexture", err)
	}
	if err := p.Finalize(); err != nil {
		t.Errorf("Finalize() on closed pipe error = %v", err)
	}
}

func TestPipe_Reused(t *testing.T) {
	sys := New(newRecordingDevice(800, 600))
	scope := newScope()
	scope.FilterPasses = []Pass{{}}
	in := render.NewTexture(16, 16, 1)

	p := sys.Pipe().Open(sys, in, in, false, scope)
	if err := p.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if sys.Pipe() != p {
		t.Error("finalized pipe should return to the free list")
	}
}

func TestPipe_BridgeFailureReleases(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev, WithStrictOwnership(true))
	c := NewComposite(identity("a"), newFailFilter(), identity("c"))

	if err := sys.Push(newTarget(0, 0, 100, 100), []Filter{c, identity("after")}, nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if err := sys.Pop(); !errors.Is(err, errFilterFailed) {
		t.Fatalf("Pop() error = %v, want filter failure", err)
	}
	if sys.Pool().InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", sys.Pool().InUse())
	}
}

func TestPipe_AutoClamp(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev)
	scope := newScope()
	scope.Target = newTarget(10, 10, 20, 20)
	scope.TextureDimensions = geom.Pt(100, 100)
	scope.OutputSwappable = false
	scope.FilterPasses = []Pass{NewPass(geom.NewRect(0, 0, 100, 100), geom.NewRect(0, 0, 100, 100))}
	in, _ := sys.GetOptimalFilterTexture(100, 100, 1)
	out, _ := sys.GetOptimalFilterTexture(100, 100, 1)

	p := sys.Pipe().Open(sys, in, out, true, scope).AutoClampNaked()
	if _, err := p.CloseWith(identity("a"), nil); err != nil {
		t.Fatalf("CloseWith() error = %v", err)
	}
	want := [4]float32{0.105, 0.105, 0.295, 0.295}
	got := dev.draws[0].globals.ObjectClamp
	if !equalFloats(got[:], want[:]) {
		t.Errorf("ObjectClamp = %v, want %v", got, want)
	}
}
