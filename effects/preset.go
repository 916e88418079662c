package effects

import (
	"fmt"

	"github.com/gogpu/filterpipe"
	"github.com/gogpu/filterpipe/config"
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// DefaultBlurQuality is the pass-pair count of presets that leave quality
// unset.
const DefaultBlurQuality = 2

// FromPreset builds the filter a configuration preset describes. Zero
// fields take the defaults of the matching constructor.
func FromPreset(p config.Preset) (filterpipe.Filter, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var f filterpipe.Filter
	switch p.Kind {
	case config.KindBlur:
		quality := p.Quality
		if quality == 0 {
			quality = DefaultBlurQuality
		}
		f = NewBlur(p.Radius, quality)
	case config.KindColorMatrix:
		m, err := presetMatrix(p)
		if err != nil {
			return nil, err
		}
		f = NewColorMatrix(m)
	case config.KindDropShadow:
		f = NewDropShadow(shadowOptions(p))
	case config.KindIdentity:
		f = filterpipe.NewFilter(render.IdentityProgram())
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", config.ErrInvalid, p.Kind)
	}

	if p.Resolution > 0 {
		SetResolution(f, p.Resolution)
	}
	if b := f.FilterBase(); p.Padding > b.Padding {
		b.Padding = p.Padding
	}
	return f, nil
}

// FromConfig builds every preset of cfg, keyed by name.
func FromConfig(cfg *config.Config) (map[string]filterpipe.Filter, error) {
	out := make(map[string]filterpipe.Filter, len(cfg.Presets))
	for _, name := range cfg.PresetNames() {
		p, _ := cfg.Preset(name)
		f, err := FromPreset(p)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		out[name] = f
	}
	return out, nil
}

// SetResolution sets the resolution of f and of every filter nested in it.
func SetResolution(f filterpipe.Filter, resolution float32) {
	f.FilterBase().Resolution = resolution
	if p, ok := f.(interface{ Children() []filterpipe.Filter }); ok {
		for _, c := range p.Children() {
			SetResolution(c, resolution)
		}
	}
}

func presetMatrix(p config.Preset) (Matrix, error) {
	switch p.Op {
	case config.OpGrayscale:
		return Grayscale(amountOr(p.Amount, 1)), nil
	case config.OpSepia:
		return Sepia(amountOr(p.Amount, 1)), nil
	case config.OpBrightness:
		return Brightness(amountOr(p.Amount, 1)), nil
	case config.OpContrast:
		return Contrast(amountOr(p.Amount, 1)), nil
	case config.OpSaturate:
		return Saturate(p.Amount), nil
	case config.OpInvert:
		return Invert(), nil
	case config.OpAlpha:
		return Alpha(amountOr(p.Amount, 1)), nil
	case config.OpMatrix:
		var m Matrix
		copy(m[:], p.Matrix)
		return m, nil
	}
	return Matrix{}, fmt.Errorf("%w: unknown color matrix op %q", config.ErrInvalid, p.Op)
}

func shadowOptions(p config.Preset) ShadowOptions {
	o := DefaultShadowOptions
	if p.Offset != [2]float32{} {
		o.Offset = geom.Pt(p.Offset[0], p.Offset[1])
	}
	if p.Color != [4]float32{} {
		o.Color = render.Color{R: p.Color[0], G: p.Color[1], B: p.Color[2], A: p.Color[3]}
	}
	if p.Alpha > 0 {
		o.Alpha = p.Alpha
	}
	if p.Radius > 0 {
		o.Radius = p.Radius
	}
	if p.Quality > 0 {
		o.Quality = p.Quality
	}
	return o
}

func amountOr(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}
