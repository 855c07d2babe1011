// Package monitor renders debug plots of a pipeline result for parameter
// tuning. It is not the map renderer.
package monitor

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/terrain.map/internal/fsutil"
	"github.com/banshee-data/terrain.map/internal/terrain/l4cliffs"
	"github.com/banshee-data/terrain.map/internal/terrain/l4contours"
	"github.com/banshee-data/terrain.map/internal/terrain/pipeline"
)

// ErrUnsupportedFormat is returned for output paths whose extension gonum
// plot cannot encode.
var ErrUnsupportedFormat = errors.New("unsupported plot format")

var (
	cliff1Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	cliff2Color = color.RGBA{A: 255}
)

// plotFormat maps a file extension to a gonum plot format name.
func plotFormat(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "png", "svg", "pdf", "jpg", "jpeg":
		return ext, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// PlotResult writes an overlay of the contours, coloured by level, and the
// cliffs of res to path on fsys. The format follows the extension.
func PlotResult(fsys fsutil.FileSystem, res *pipeline.Result, path string) error {
	if res == nil {
		return fmt.Errorf("no result to plot")
	}
	format, err := plotFormat(path)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Tile %s - contours and cliffs", res.TileID)
	p.X.Label.Text = "Easting (m)"
	p.Y.Label.Text = "Northing (m)"
	g := res.Geometry
	p.X.Min, p.X.Max = g.MinX, g.MinX+float64(g.Width)*g.CellSize
	p.Y.Min, p.Y.Max = g.MinY, g.MinY+float64(g.Height)*g.CellSize

	levels := distinctLevels(res.Contours)
	colors := generateColors(len(levels))
	seenKind := make(map[l4contours.Kind]bool)
	for _, c := range res.Contours {
		if len(c.Points) < 2 {
			continue
		}
		line, err := plotter.NewLine(toXYs(c.Points))
		if err != nil {
			return err
		}
		line.Color = colors[levels[c.Level]]
		styleContour(line, c)
		p.Add(line)
		if !seenKind[c.Kind] {
			p.Legend.Add(c.Kind.String(), line)
			seenKind[c.Kind] = true
		}
	}

	if res.Cliffs != nil {
		for _, set := range []struct {
			cliffs []l4cliffs.Cliff
			color  color.Color
			width  vg.Length
		}{
			{res.Cliffs.Type1, cliff1Color, vg.Points(1.5)},
			{res.Cliffs.Type2, cliff2Color, vg.Points(2.5)},
		} {
			for k, c := range set.cliffs {
				line, err := plotter.NewLine(toXYs(c.Points))
				if err != nil {
					return err
				}
				line.Color = set.color
				line.Width = set.width
				p.Add(line)
				if k == 0 {
					p.Legend.Add(c.Type.String(), line)
				}
			}
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return save(fsys, p, 8*vg.Inch, 8*vg.Inch, path, format)
}

// PlotShadeHistogram writes a bar chart of cells per vegetation shade.
func PlotShadeHistogram(fsys fsutil.FileSystem, res *pipeline.Result, path string) error {
	if res == nil || res.Vegetation == nil {
		return fmt.Errorf("no vegetation result to plot")
	}
	format, err := plotFormat(path)
	if err != nil {
		return err
	}

	hist := res.Vegetation.ShadeHistogram()
	values := make(plotter.Values, len(hist))
	for k, n := range hist {
		values[k] = float64(n)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Tile %s - cells per green shade", res.TileID)
	p.X.Label.Text = "Shade"
	p.Y.Label.Text = "Cells"

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = color.RGBA{R: 60, G: 160, B: 60, A: 255}
	p.Add(bars)

	names := make([]string, len(hist))
	for k := range names {
		names[k] = fmt.Sprintf("%d", k)
	}
	p.NominalX(names...)

	return save(fsys, p, 6*vg.Inch, 4*vg.Inch, path, format)
}

func save(fsys fsutil.FileSystem, p *plot.Plot, w, h vg.Length, path, format string) error {
	wt, err := p.WriterTo(w, h, format)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create plot dir: %w", err)
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write plot %s: %w", path, err)
	}
	return f.Close()
}

func styleContour(line *plotter.Line, c l4contours.Contour) {
	line.Width = vg.Points(1)
	switch c.Kind {
	case l4contours.KindIndex:
		line.Width = vg.Points(2)
	case l4contours.KindFormLine:
		line.Width = vg.Points(0.75)
	case l4contours.KindKnoll, l4contours.KindDepression:
		line.Width = vg.Points(1.5)
	}
	if c.Dashed {
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}
}

// distinctLevels numbers the contour levels in ascending order.
func distinctLevels(cs []l4contours.Contour) map[float64]int {
	var sorted []float64
	levels := make(map[float64]int)
	for _, c := range cs {
		if _, ok := levels[c.Level]; !ok {
			levels[c.Level] = 0
			sorted = append(sorted, c.Level)
		}
	}
	sort.Float64s(sorted)
	for k, l := range sorted {
		levels[l] = k
	}
	return levels
}

func toXYs(line orb.LineString) plotter.XYs {
	xys := make(plotter.XYs, len(line))
	for k, pt := range line {
		xys[k] = plotter.XY{X: pt[0], Y: pt[1]}
	}
	return xys
}

// generateColors creates a palette running from low to high ground.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := 0.6 * (1 - float64(i)/float64(n))
		r, g, b := hslToRGB(hue, 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
