// Package monitor renders planning cycles for offline inspection (PNG plots)
// and serves them over a small debug HTTP interface.
//
// Dependency rule: monitor reads dppath results and the cycle store; the
// planning core never imports it.
package monitor

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/pathtunnel/internal/planning/dppath"
	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
	"github.com/banshee-data/pathtunnel/internal/planning/obstacle"
)

// Plot file names written by PathPlotter.
const (
	SLPlotFile = "sl.png"
	XYPlotFile = "xy.png"
)

var (
	latticeColor = color.RGBA{R: 158, G: 158, B: 158, A: 255}
	chosenColor  = color.RGBA{R: 255, G: 82, B: 82, A: 255}
	pathColor    = color.RGBA{R: 33, G: 150, B: 243, A: 255}
	staticColor  = color.RGBA{R: 96, G: 96, B: 96, A: 255}
	dynamicColor = color.RGBA{R: 255, G: 152, B: 0, A: 255}
)

// PathPlotter writes one pair of plots per planning cycle.
type PathPlotter struct {
	outputDir string
	width     vg.Length
	height    vg.Length
}

// NewPathPlotter creates a plotter that writes into outputDir.
func NewPathPlotter(outputDir string) *PathPlotter {
	return &PathPlotter{outputDir: outputDir, width: 10 * vg.Inch, height: 5 * vg.Inch}
}

// Plot writes sl.png (lattice, chosen nodes and resolved path in the Frenet
// frame) and xy.png (resolved path and obstacle footprints in the world
// frame). It returns the paths written.
func (pp *PathPlotter) Plot(res *dppath.Result, obstacles []*obstacle.Obstacle) ([]string, error) {
	if res == nil {
		return nil, errors.New("no result to plot")
	}
	if pp.outputDir == "" {
		return nil, fmt.Errorf("no output directory configured")
	}
	if err := os.MkdirAll(pp.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	sl, err := pp.slPlot(res)
	if err != nil {
		return nil, fmt.Errorf("sl plot: %w", err)
	}
	xy, err := pp.xyPlot(res, obstacles)
	if err != nil {
		return nil, fmt.Errorf("xy plot: %w", err)
	}

	written := []string{filepath.Join(pp.outputDir, SLPlotFile), filepath.Join(pp.outputDir, XYPlotFile)}
	if err := sl.Save(pp.width, pp.height, written[0]); err != nil {
		return nil, fmt.Errorf("save %s: %w", written[0], err)
	}
	if err := xy.Save(pp.width, pp.height, written[1]); err != nil {
		return nil, fmt.Errorf("save %s: %w", written[1], err)
	}
	return written, nil
}

func (pp *PathPlotter) slPlot(res *dppath.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Path lattice - cost %.3f", res.TotalCost)
	p.X.Label.Text = "s (m)"
	p.Y.Label.Text = "l (m)"

	var lattice plotter.XYs
	for _, level := range res.Lattice {
		for _, pt := range level {
			lattice = append(lattice, plotter.XY{X: pt.S, Y: pt.L})
		}
	}
	if len(lattice) > 0 {
		sc, err := plotter.NewScatter(lattice)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = latticeColor
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("samples", sc)
	}

	if len(res.MinCostPath) > 0 {
		chosen := make(plotter.XYs, len(res.MinCostPath))
		for i, pt := range res.MinCostPath {
			chosen[i] = plotter.XY{X: pt.S, Y: pt.L}
		}
		sc, err := plotter.NewScatter(chosen)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = chosenColor
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add("min cost nodes", sc)
	}

	if fp := res.Path.FrenetPath; len(fp) > 1 {
		pts := make(plotter.XYs, len(fp))
		for i, pt := range fp {
			pts[i] = plotter.XY{X: pt.S, Y: pt.L}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = pathColor
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("path", line)
	}
	return p, nil
}

func (pp *PathPlotter) xyPlot(res *dppath.Result, obstacles []*obstacle.Obstacle) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Path - %.1f m", res.Path.Length())
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	if dp := res.Path.DiscretizedPath; len(dp) > 1 {
		pts := make(plotter.XYs, len(dp))
		for i, pt := range dp {
			pts[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = pathColor
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("path", line)
	}

	for _, o := range obstacles {
		c := staticColor
		if !o.IsStatic() {
			c = dynamicColor
		}
		line, err := plotter.NewLine(boxOutline(o.PerceptionBoundingBox()))
		if err != nil {
			return nil, err
		}
		line.Color = c
		line.Width = vg.Points(1)
		p.Add(line)
	}
	return p, nil
}

// boxOutline returns the closed corner loop of b.
func boxOutline(b geometry.Box2d) plotter.XYs {
	corners := b.Corners()
	out := make(plotter.XYs, 0, len(corners)+1)
	for _, c := range corners {
		out = append(out, plotter.XY{X: c.X, Y: c.Y})
	}
	return append(out, out[0])
}
