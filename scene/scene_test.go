package scene

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/filterpipe"
	"github.com/gogpu/filterpipe/backend/software"
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

var (
	red  = render.Color{R: 1, A: 1}
	blue = render.Color{B: 1, A: 1}
)

func identity() filterpipe.Filter {
	return filterpipe.NewFilter(render.IdentityProgram())
}

func TestSubtreeBounds(t *testing.T) {
	root := NewNode("root").Add(
		NewRect("a", geom.NewRect(0, 0, 10, 10), red),
		NewNode("group").Add(NewRect("b", geom.NewRect(20, 5, 5, 30), red)),
	)
	want := geom.NewRect(0, 0, 25, 35)
	if got := root.SubtreeBounds(); !got.Eq(want) {
		t.Errorf("SubtreeBounds() = %v, want %v", got, want)
	}

	root.Find("group").Hidden = true
	want = geom.NewRect(0, 0, 10, 10)
	if got := root.SubtreeBounds(); !got.Eq(want) {
		t.Errorf("SubtreeBounds() with hidden group = %v, want %v", got, want)
	}
}

func TestFind(t *testing.T) {
	leaf := NewNode("leaf")
	root := NewNode("root").Add(NewNode("a").Add(leaf), NewNode("b"))
	if got := root.Find("leaf"); got != leaf {
		t.Errorf("Find(leaf) = %v", got)
	}
	if got := root.Find("missing"); got != nil {
		t.Errorf("Find(missing) = %v, want nil", got)
	}
}

func TestWalkDepth(t *testing.T) {
	root := NewNode("root").Add(NewNode("a").Add(NewNode("a1")), NewNode("b"))
	var names []string
	var depths []int
	root.Walk(func(n *Node, depth int) bool {
		names = append(names, n.Name)
		depths = append(depths, depth)
		return n.Name != "a"
	})
	wantNames := []string{"root", "a", "b"}
	wantDepths := []int{0, 1, 1}
	for i := range wantNames {
		if i >= len(names) || names[i] != wantNames[i] || depths[i] != wantDepths[i] {
			t.Fatalf("Walk visited %v at %v, want %v at %v", names, depths, wantNames, wantDepths)
		}
	}
}

func TestTargetFilterArea(t *testing.T) {
	n := NewRect("n", geom.NewRect(0, 0, 10, 10), red)
	if _, ok := (target{n}).FilterArea(); ok {
		t.Error("FilterArea() reported an area for a node without one")
	}
	n.WithFilterArea(geom.NewRect(1, 1, 2, 2))
	if area, ok := (target{n}).FilterArea(); !ok || !area.Eq(geom.NewRect(1, 1, 2, 2)) {
		t.Errorf("FilterArea() = %v, %v", area, ok)
	}
}

func TestRenderNested(t *testing.T) {
	d := software.NewDevice(48, 48)
	sys := filterpipe.New(d)
	defer sys.Close()

	inner := NewRect("inner", geom.NewRect(24, 24, 8, 8), blue).WithFilters(identity())
	root := NewRect("outer", geom.NewRect(8, 8, 8, 8), red).
		WithFilters(identity(), identity()).
		Add(inner)

	r := NewRenderer(sys)
	if err := r.Render(root); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	img := d.Image(nil)
	if got := img.RGBAAt(10, 10); got.R != 255 || got.A != 255 {
		t.Errorf("outer pixel = %v, want red", got)
	}
	if got := img.RGBAAt(26, 26); got.B != 255 || got.A != 255 {
		t.Errorf("inner pixel = %v, want blue", got)
	}
	if got := img.RGBAAt(20, 20); got.A != 0 {
		t.Errorf("gap pixel = %v, want transparent", got)
	}

	stats := r.Stats()
	if stats.Nodes != 2 || stats.Painted != 2 || stats.Scopes != 2 || stats.MaxDepth != 2 {
		t.Errorf("Stats() = %+v", stats)
	}
	if got := sys.Pool().InUse(); got != 0 {
		t.Errorf("Pool().InUse() = %d after Render, want 0", got)
	}
}

func TestRenderPaintErrorPops(t *testing.T) {
	d := software.NewDevice(32, 32)
	sys := filterpipe.New(d)
	defer sys.Close()

	boom := errors.New("boom")
	root := NewNode("root").WithFilters(identity())
	root.Bounds = geom.NewRect(0, 0, 8, 8)
	root.Paint = func(render.Device, *Node) error { return boom }

	err := NewRenderer(sys).Render(root)
	if !errors.Is(err, boom) {
		t.Fatalf("Render() error = %v, want boom", err)
	}
	if got := sys.Pool().InUse(); got != 0 {
		t.Errorf("Pool().InUse() = %d after failed Render, want 0", got)
	}
	if d.Binding().Target != d.Screen() {
		t.Errorf("binding not restored: %v", d.Binding().Target)
	}
}

func TestRenderCanceled(t *testing.T) {
	d := software.NewDevice(16, 16)
	sys := filterpipe.New(d)
	defer sys.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewRenderer(sys).RenderWithContext(ctx, NewRect("n", geom.NewRect(0, 0, 4, 4), red))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RenderWithContext() = %v, want context.Canceled", err)
	}
}

func TestRenderHiddenAndNil(t *testing.T) {
	d := software.NewDevice(16, 16)
	sys := filterpipe.New(d)
	defer sys.Close()
	r := NewRenderer(sys)

	if err := r.Render(nil); err != nil {
		t.Errorf("Render(nil) = %v", err)
	}
	n := NewRect("n", geom.NewRect(0, 0, 4, 4), red)
	n.Hidden = true
	if err := r.Render(n); err != nil {
		t.Fatal(err)
	}
	if r.Stats().Nodes != 0 {
		t.Errorf("hidden node visited: %+v", r.Stats())
	}
	if got := d.Image(nil).RGBAAt(1, 1); got.A != 0 {
		t.Errorf("hidden node painted: %v", got)
	}
}
