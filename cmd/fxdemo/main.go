// Command fxdemo renders a small scene through a filter chain and writes it
// to a PNG file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/gogpu/filterpipe"
	"github.com/gogpu/filterpipe/backend"
	"github.com/gogpu/filterpipe/backend/software"
	"github.com/gogpu/filterpipe/config"
	"github.com/gogpu/filterpipe/effects"
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
	"github.com/gogpu/filterpipe/scene"
)

func main() {
	var (
		width      = flag.Int("width", 640, "image width")
		height     = flag.Int("height", 400, "image height")
		output     = flag.String("output", "fxdemo.png", "output file")
		configPath = flag.String("config", "", "TOML or YAML config file with filter presets")
		preset     = flag.String("preset", "", "apply this config preset to the whole scene")
		device     = flag.String("backend", backend.NameSoftware, "render backend")
		strict     = flag.Bool("strict", false, "panic on texture ownership violations")
		watch      = flag.Bool("watch", false, "re-render whenever the config file changes")
		verbose    = flag.Bool("v", false, "log filter traffic")
	)
	flag.Parse()

	if *verbose {
		filterpipe.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	d := demo{
		width:   *width,
		height:  *height,
		output:  *output,
		preset:  *preset,
		backend: *device,
		strict:  *strict,
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if err := d.run(cfg); err != nil {
		log.Fatalf("%v", err)
	}

	if !*watch {
		return
	}
	if *configPath == "" {
		log.Fatalf("-watch needs -config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reloads := make(chan *config.Config)
	go func() {
		err := config.Watch(ctx, *configPath, func(cfg *config.Config, err error) {
			if err != nil {
				log.Printf("Config reload failed, keeping previous: %v\n", err)
				return
			}
			select {
			case reloads <- cfg:
			case <-ctx.Done():
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Watch stopped: %v\n", err)
		}
		stop()
	}()

	log.Printf("Watching %s, interrupt to stop\n", *configPath)
	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-reloads:
			if err := d.run(cfg); err != nil {
				log.Printf("Re-render failed: %v\n", err)
			}
		}
	}
}

// demo holds the command-line settings of one render.
type demo struct {
	width, height int
	output        string
	preset        string
	backend       string
	strict        bool
}

// settings returns cfg with the command-line overrides applied, leaving
// the loaded configuration untouched for later reloads.
func (d demo) settings(cfg *config.Config) (*config.Config, error) {
	out, err := cfg.Clone()
	if err != nil {
		return nil, err
	}
	if d.strict {
		out.Pool.StrictOwnership = true
	}
	return out, nil
}

func (d demo) run(loaded *config.Config) error {
	cfg, err := d.settings(loaded)
	if err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}

	dev, err := backend.Get(d.backend, d.width, d.height)
	if err != nil {
		return fmt.Errorf("create %s device: %w (available: %v)", d.backend, err, backend.Available())
	}
	sys := filterpipe.New(dev, filterpipe.WithConfig(cfg))
	defer sys.Close()

	root, err := buildScene(d.width, d.height, cfg, d.preset)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	r := scene.NewRenderer(sys)
	if err := r.Render(root); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	img, err := snapshot(dev)
	if err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	if err := imgio.Save(d.output, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	stats := r.Stats()
	log.Printf("Demo saved to %s (%dx%d, %d nodes, %d filter scopes, %v)\n",
		d.output, d.width, d.height, stats.Nodes, stats.Scopes, stats.TimeTotal)
	log.Printf("Texture pool: %s\n", sys.Pool().Stats())
	return nil
}

func buildScene(w, h int, cfg *config.Config, preset string) (*scene.Node, error) {
	fw, fh := float32(w), float32(h)
	root := scene.NewNode("root").Add(
		scene.NewRect("background", geom.NewRect(0, 0, fw, fh), render.Color{R: 0.12, G: 0.16, B: 0.24, A: 1}),
	)

	card := scene.NewRect("card", geom.NewRect(40, 40, 180, 120), render.Color{R: 0.95, G: 0.95, B: 0.9, A: 1}).
		WithFilters(effects.NewDropShadow(effects.ShadowOptions{
			Offset:  geom.Pt(8, 10),
			Color:   render.Color{A: 1},
			Alpha:   0.6,
			Radius:  6,
			Quality: 2,
		}))
	card.Add(scene.NewRect("accent", geom.NewRect(60, 60, 60, 40), render.Color{R: 0.9, G: 0.3, B: 0.2, A: 1}))

	blurred := scene.NewRect("blurred", geom.NewRect(280, 60, 120, 80), render.Color{R: 0.2, G: 0.7, B: 0.4, A: 1}).
		WithFilters(effects.NewBlur(10, 3))

	mono := scene.NewNode("mono").
		Add(
			scene.NewRect("warm", geom.NewRect(440, 200, 80, 80), render.Color{R: 1, G: 0.6, B: 0.1, A: 1}),
			scene.NewRect("cool", geom.NewRect(500, 240, 80, 80), render.Color{R: 0.1, G: 0.5, B: 1, A: 0.8}),
		).
		WithFilters(effects.NewColorMatrix(effects.Grayscale(1)), effects.NewColorMatrix(effects.Contrast(1.4)))

	root.Add(card, blurred, mono)

	if preset != "" {
		p, ok := cfg.Preset(preset)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q (have %v)", preset, cfg.PresetNames())
		}
		f, err := effects.FromPreset(p)
		if err != nil {
			return nil, err
		}
		root.WithFilters(f)
	}
	return root, nil
}

func snapshot(dev render.Device) (image.Image, error) {
	switch d := dev.(type) {
	case *software.Device:
		return d.Snapshot(nil), nil
	case interface {
		Snapshot(*render.Texture) (*image.RGBA, error)
	}:
		return d.Snapshot(nil)
	default:
		return nil, fmt.Errorf("backend %T cannot read back pixels", dev)
	}
}
