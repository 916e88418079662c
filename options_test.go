package filterpipe

import (
	"errors"
	"testing"

	"github.com/gogpu/filterpipe/config"
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

func TestDefaultOptions(t *testing.T) {
	dev := newRecordingDevice(100, 100)
	sys := New(dev)

	if sys.Pool() == nil {
		t.Fatal("New() created no pool")
	}
	if got := sys.MaxTextureSize(); got != dev.maxSize {
		t.Errorf("MaxTextureSize() = %d, want %d", got, dev.maxSize)
	}
	if got := sys.Pool().Stats().Budget; got != render.DefaultIdleBudget {
		t.Errorf("idle budget = %d, want %d", got, render.DefaultIdleBudget)
	}
}

func TestWithIdleBudget(t *testing.T) {
	sys := New(newRecordingDevice(100, 100), WithIdleBudget(1<<20))
	if got := sys.Pool().Stats().Budget; got != 1<<20 {
		t.Errorf("idle budget = %d, want %d", got, 1<<20)
	}
}

func TestWithStrictOwnership(t *testing.T) {
	sys := New(newRecordingDevice(100, 100), WithStrictOwnership(true))
	tex, err := sys.GetOptimalFilterTexture(8, 8, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.ReturnFilterTexture(tex); err != nil {
		t.Fatal(err)
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, render.ErrTextureReleased) {
			t.Errorf("double return panicked with %v, want ErrTextureReleased", r)
		}
	}()
	_ = sys.ReturnFilterTexture(tex)
}

func TestWithGeometryCacheSize(t *testing.T) {
	sys := New(newRecordingDevice(100, 100), WithGeometryCacheSize(0))
	if sys.geometries == nil {
		t.Fatal("geometry cache missing")
	}
	// Zero keeps the default rather than disabling the cache.
	out := geom.NewRect(0, 0, 100, 100)
	a := sys.ConvertFrameToGeometry(geom.NewRect(10, 10, 20, 20), out)
	b := sys.ConvertFrameToGeometry(geom.NewRect(10, 10, 20, 20), out)
	if a != b {
		t.Error("ConvertFrameToGeometry() did not reuse the cached quad")
	}
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Pool.IdleBudgetMB = 2
	cfg.Pool.StrictOwnership = false
	cfg.MaxTextureSize = 512

	sys := New(newRecordingDevice(100, 100), WithConfig(cfg))
	if got := sys.Pool().Stats().Budget; got != 2<<20 {
		t.Errorf("idle budget = %d, want %d", got, 2<<20)
	}
	if got := sys.MaxTextureSize(); got != 512 {
		t.Errorf("MaxTextureSize() = %d, want 512", got)
	}
}

func TestWithConfigNil(t *testing.T) {
	dev := newRecordingDevice(100, 100)
	sys := New(dev, WithConfig(nil))
	if got := sys.MaxTextureSize(); got != dev.maxSize {
		t.Errorf("MaxTextureSize() = %d, want %d", got, dev.maxSize)
	}
}

func TestMaxTextureSizeNeverRaisesDeviceLimit(t *testing.T) {
	dev := newRecordingDevice(100, 100)
	sys := New(dev, WithMaxTextureSize(dev.maxSize*2))
	if got := sys.MaxTextureSize(); got != dev.maxSize {
		t.Errorf("MaxTextureSize() = %d, want %d", got, dev.maxSize)
	}
}
