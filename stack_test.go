package filterpipe

import (
	"errors"
	"testing"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

func TestPush_BindsAndClears(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev)

	if err := sys.Push(newTarget(10, 10, 100, 100), []Filter{identity("a")}, nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if sys.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", sys.Depth())
	}
	if sys.stack[0].RenderTexture != dev.screen {
		t.Error("base scope should record the previously bound target")
	}

	b := dev.Binding()
	scope := sys.stack[1]
	if b.Target != scope.RenderTexture {
		t.Error("scope texture is not bound")
	}
	if want := geom.NewRect(10, 10, 100, 100); !b.Source.Eq(want) {
		t.Errorf("bound source = %v, want %v", b.Source, want)
	}
	if want := geom.NewRect(0, 0, 100, 100); !b.Destination.Eq(want) {
		t.Errorf("bound destination = %v, want %v", b.Destination, want)
	}
	if dev.clears != 1 {
		t.Errorf("clears = %d, want 1", dev.clears)
	}
	if want := geom.NewRect(10, 10, 100, 100); !scope.RenderTexture.FilterFrame.Eq(want) {
		t.Errorf("FilterFrame = %v, want %v", scope.RenderTexture.FilterFrame, want)
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
}

func TestPush_ScopeOptions(t *testing.T) {
	sys := New(newRecordingDevice(800, 600))
	opts := &ScopeOptions{Padding: 20, Resolution: 2}

	if err := sys.Push(newTarget(100, 100, 50, 50), []Filter{newPadFilter(5, false)}, opts); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	scope := sys.stack[1]
	if scope.Padding != 20 {
		t.Errorf("Padding = %v, want 20", scope.Padding)
	}
	if scope.Resolution != 2 {
		t.Errorf("Resolution = %v, want 2", scope.Resolution)
	}
	if got := scope.RenderTexture.Resolution(); got != 2 {
		t.Errorf("texture resolution = %v, want 2", got)
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
}

func TestPush_TextureTooLarge(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev, WithMaxTextureSize(256))

	err := sys.Push(newTarget(0, 0, 400, 400), []Filter{identity("a")}, nil)
	if !errors.Is(err, ErrTextureTooLarge) {
		t.Fatalf("Push() error = %v, want ErrTextureTooLarge", err)
	}
	if sys.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", sys.Depth())
	}
	if dev.allocated != 0 || sys.Pool().InUse() != 0 {
		t.Errorf("allocated = %d, in use = %d; want nothing", dev.allocated, sys.Pool().InUse())
	}
	if dev.Binding().Target != dev.screen {
		t.Error("failed Push must leave the binding alone")
	}
}

func TestPush_TooLargeLeavesOuterScope(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev, WithMaxTextureSize(256))

	if err := sys.Push(newTarget(0, 0, 100, 100), []Filter{identity("outer")}, nil); err != nil {
		t.Fatalf("outer Push() error = %v", err)
	}
	outer := dev.Binding()

	inner := identity("inner")
	inner.AutoFit = false
	if err := sys.Push(newTarget(0, 0, 400, 400), []Filter{inner}, nil); !errors.Is(err, ErrTextureTooLarge) {
		t.Fatalf("inner Push() error = %v, want ErrTextureTooLarge", err)
	}
	if sys.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", sys.Depth())
	}
	if dev.Binding() != outer {
		t.Error("outer binding changed by failed inner Push")
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("outer Pop() error = %v", err)
	}
	if sys.Pool().InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", sys.Pool().InUse())
	}
}

func TestPush_AllocationFailure(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	dev.failAlloc = true
	sys := New(dev)

	err := sys.Push(newTarget(0, 0, 100, 100), []Filter{identity("a")}, nil)
	if !errors.Is(err, errAllocFailed) {
		t.Fatalf("Push() error = %v, want allocation failure", err)
	}
	if sys.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", sys.Depth())
	}
}

func TestPush_NilTarget(t *testing.T) {
	sys := New(newRecordingDevice(10, 10))
	if err := sys.Push(nil, nil, nil); !errors.Is(err, ErrNilTarget) {
		t.Errorf("Push(nil) error = %v, want ErrNilTarget", err)
	}
}

func TestPop_EmptyStack(t *testing.T) {
	sys := New(newRecordingDevice(10, 10))
	if err := sys.Pop(); !errors.Is(err, ErrEmptyStack) {
		t.Errorf("Pop() error = %v, want ErrEmptyStack", err)
	}
}

func TestPop_SingleFilter(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev)

	if err := sys.Push(newTarget(10, 10, 100, 100), []Filter{identity("a")}, nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	scopeTex := dev.Binding().Target
	if err := sys.Pop(); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}

	if len(dev.draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(dev.draws))
	}
	d := dev.draws[0]
	if d.input != scopeTex || d.target != dev.screen {
		t.Errorf("draw %s -> %s, want scope texture -> screen", d.input, d.target)
	}
	if want := geom.NewRect(0, 0, 800, 600); !d.source.Eq(want) || !d.dest.Eq(want) {
		t.Errorf("final pass bound %v -> %v, want the restored screen binding", d.source, d.dest)
	}
	if want := geom.NewRect(10, 10, 100, 100); !d.globals.InputFrame.Eq(want) || !d.globals.OutputFrame.Eq(want) {
		t.Errorf("globals frames = %v / %v, want %v", d.globals.InputFrame, d.globals.OutputFrame, want)
	}
	st := sys.Pool().Stats()
	if st.InUse != 0 || st.Idle != 1 || dev.allocated != 1 {
		t.Errorf("pool = %v, allocated = %d; want one idle texture", st, dev.allocated)
	}
	if sys.ActiveScope() != nil {
		t.Error("ActiveScope() should be nil after Pop")
	}
}

func TestPop_FlipFlopUsesTwoTextures(t *testing.T) {
	for _, n := range []int{2, 3, 6} {
		dev := newRecordingDevice(800, 600)
		sys := New(dev)
		filters := make([]Filter, n)
		for i := range filters {
			filters[i] = identity("id")
		}

		if err := sys.Push(newTarget(0, 0, 100, 100), filters, nil); err != nil {
			t.Fatalf("n=%d: Push() error = %v", n, err)
		}
		if err := sys.Pop(); err != nil {
			t.Fatalf("n=%d: Pop() error = %v", n, err)
		}

		if dev.allocated != 2 {
			t.Errorf("n=%d: allocated = %d, want 2", n, dev.allocated)
		}
		if len(dev.draws) != n {
			t.Fatalf("n=%d: draws = %d, want %d", n, len(dev.draws), n)
		}
		a, b := dev.draws[0].input, dev.draws[0].target
		for i, d := range dev.draws[:n-1] {
			wantIn, wantOut := a, b
			if i%2 == 1 {
				wantIn, wantOut = b, a
			}
			if d.input != wantIn || d.target != wantOut {
				t.Errorf("n=%d: draw %d %s -> %s, want %s -> %s", n, i, d.input, d.target, wantIn, wantOut)
			}
		}
		if last := dev.draws[n-1]; last.target != dev.screen {
			t.Errorf("n=%d: last draw target = %s, want screen", n, last.target)
		}
		if sys.Pool().InUse() != 0 {
			t.Errorf("n=%d: InUse() = %d, want 0", n, sys.Pool().InUse())
		}
	}
}

func TestPop_InPlaceSkipsSwap(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev)

	if err := sys.Push(newTarget(0, 0, 100, 100), []Filter{newInPlaceFilter(), identity("b")}, nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	if len(dev.draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(dev.draws))
	}
	a := dev.draws[0].input
	if dev.draws[0].target != a {
		t.Error("in-place filter should draw into its input")
	}
	if dev.draws[1].input != a {
		t.Error("next pass should read the texture the filter wrote in place")
	}
	if sys.Pool().InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", sys.Pool().InUse())
	}
}

func TestPop_OverrideTexture(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev, WithStrictOwnership(true))
	fresh := newFreshFilter()

	filters := []Filter{fresh, identity("b"), identity("c")}
	if err := sys.Push(newTarget(0, 0, 100, 100), filters, nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}

	if dev.allocated != 3 {
		t.Errorf("allocated = %d, want 3", dev.allocated)
	}
	if dev.draws[1].input != fresh.handed {
		t.Error("pass after an override should read the returned texture")
	}
	if fresh.handed.Owner() != render.OwnerPool {
		t.Errorf("override texture owner = %v, want pool", fresh.handed.Owner())
	}
	if st := sys.Pool().Stats(); st.InUse != 0 || st.Idle != 3 {
		t.Errorf("pool = %v, want 3 idle", st)
	}
}

func TestPop_FilterErrorReleasesTextures(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev, WithStrictOwnership(true))

	filters := []Filter{identity("a"), newFailFilter(), identity("c")}
	if err := sys.Push(newTarget(0, 0, 100, 100), filters, nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	err := sys.Pop()
	if !errors.Is(err, errFilterFailed) {
		t.Fatalf("Pop() error = %v, want filter failure", err)
	}
	if sys.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", sys.Depth())
	}
	if sys.Pool().InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", sys.Pool().InUse())
	}

	if err := sys.Push(newTarget(0, 0, 100, 100), []Filter{identity("again")}, nil); err != nil {
		t.Fatalf("Push() after failure error = %v", err)
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("Pop() after failure error = %v", err)
	}
}

func TestPop_NestedScopes(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev, WithStrictOwnership(true))

	if err := sys.Push(newTarget(0, 0, 200, 200), []Filter{identity("outer")}, nil); err != nil {
		t.Fatalf("outer Push() error = %v", err)
	}
	outerTex := dev.Binding().Target

	if err := sys.Push(newTarget(50, 50, 50, 50), []Filter{identity("i1"), identity("i2")}, nil); err != nil {
		t.Fatalf("inner Push() error = %v", err)
	}
	if sys.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", sys.Depth())
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("inner Pop() error = %v", err)
	}

	last := dev.draws[len(dev.draws)-1]
	if last.target != outerTex {
		t.Errorf("inner result drawn into %s, want outer scope texture", last.target)
	}
	if want := geom.NewRect(0, 0, 200, 200); !last.source.Eq(want) || !last.dest.Eq(want) {
		t.Errorf("inner final binding %v -> %v, want outer binding %v", last.source, last.dest, want)
	}

	if err := sys.Pop(); err != nil {
		t.Fatalf("outer Pop() error = %v", err)
	}
	if got := dev.draws[len(dev.draws)-1]; got.input != outerTex || got.target != dev.screen {
		t.Errorf("outer draw %s -> %s, want outer texture -> screen", got.input, got.target)
	}
	if sys.Pool().InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", sys.Pool().InUse())
	}
	if sys.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", sys.Depth())
	}
}

func TestPop_PrunedScopeForwardsToParent(t *testing.T) {
	dev := newRecordingDevice(800, 600)
	sys := New(dev, WithStrictOwnership(true))

	if err := sys.Push(newTarget(0, 0, 200, 200), []Filter{identity("outer")}, nil); err != nil {
		t.Fatalf("outer Push() error = %v", err)
	}
	outerTex := dev.Binding().Target

	// The only filter of the middle scope reads outside the scope and is pruned.
	pruned := newFixedFilter(geom.NewRect(5000, 5000, 1, 1))
	if err := sys.Push(newTarget(20, 20, 100, 100), []Filter{pruned}, nil); err != nil {
		t.Fatalf("middle Push() error = %v", err)
	}
	if dev.Binding().Target != outerTex {
		t.Fatalf("middle Push() rebound to %s, want outer scope texture", dev.Binding().Target)
	}

	if err := sys.Push(newTarget(50, 50, 50, 50), []Filter{identity("inner")}, nil); err != nil {
		t.Fatalf("inner Push() error = %v", err)
	}
	if sys.Depth() != 3 {
		t.Fatalf("Depth() = %d, want 3", sys.Depth())
	}
	if err := sys.Pop(); err != nil {
		t.Fatalf("inner Pop() error = %v", err)
	}
	if last := dev.draws[len(dev.draws)-1]; last.target != outerTex {
		t.Errorf("inner result drawn into %s, want outer scope texture", last.target)
	}

	for _, name := range []string{"middle", "outer"} {
		if err := sys.Pop(); err != nil {
			t.Fatalf("%s Pop() error = %v", name, err)
		}
	}
	if got := dev.draws[len(dev.draws)-1]; got.input != outerTex || got.target != dev.screen {
		t.Errorf("outer draw %s -> %s, want outer texture -> screen", got.input, got.target)
	}
	if sys.Pool().InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", sys.Pool().InUse())
	}
}

func TestPop_ScopesAreRecycled(t *testing.T) {
	sys := New(newRecordingDevice(800, 600))

	for range 3 {
		if err := sys.Push(newTarget(0, 0, 10, 10), []Filter{identity("a")}, nil); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		if err := sys.Pop(); err != nil {
			t.Fatalf("Pop() error = %v", err)
		}
	}
	if len(sys.freeScopes) != 1 {
		t.Errorf("free scopes = %d, want 1", len(sys.freeScopes))
	}
	if sc := sys.freeScopes[0]; sc.Target != nil || sc.RenderTexture != nil || sc.Filters != nil {
		t.Error("recycled scope still holds references")
	}
}

func TestPassUniforms_Clamp(t *testing.T) {
	sys := New(newRecordingDevice(800, 600))
	scope := newScope()
	scope.Target = newTarget(10, 10, 50, 50)
	scope.TextureDimensions = geom.Pt(100, 100)
	scope.Resolution = 1
	scope.FilterPasses = []Pass{NewPass(geom.NewRect(0, 0, 80, 80), geom.NewRect(0, 0, 80, 80))}

	sys.scopeUniforms(scope)
	sys.passUniforms(scope, 0)
	g := sys.Globals()

	checks := []struct {
		name      string
		got, want float32
	}{
		{"inputClamp[0]", g.InputClamp[0], 0.005},
		{"inputClamp[1]", g.InputClamp[1], 0.005},
		{"inputClamp[2]", g.InputClamp[2], 0.795},
		{"inputClamp[3]", g.InputClamp[3], 0.795},
		{"objectClamp[0]", g.ObjectClamp[0], 0.105},
		{"objectClamp[1]", g.ObjectClamp[1], 0.105},
		{"objectClamp[2]", g.ObjectClamp[2], 0.595},
		{"objectClamp[3]", g.ObjectClamp[3], 0.595},
		{"filterArea[0]", g.FilterArea[0], 100},
		{"inputFrameInverse[0]", g.InputFrameInverse[0], 1.0 / 80},
		{"outputFrameInverse[1]", g.OutputFrameInverse[1], 1.0 / 80},
	}
	for _, c := range checks {
		if !approx(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if g.FilterClamp != g.InputClamp {
		t.Error("FilterClamp should mirror InputClamp")
	}
}
