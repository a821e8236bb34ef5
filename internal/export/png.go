package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Series is one named curve sampled every Dt seconds.
type Series struct {
	Name   string
	Values []float64
}

type PlotOptions struct {
	Title    string
	YLabel   string
	Dt       float64
	WidthIn  float64
	HeightIn float64
	DPI      int
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{
		YLabel:   "position",
		Dt:       0.01,
		WidthIn:  8,
		HeightIn: 5,
		DPI:      150,
	}
}

// TimeSeriesPNG renders series against time and writes a PNG to w.
func TimeSeriesPNG(w io.Writer, series []Series, opts PlotOptions) error {
	if len(series) == 0 {
		return errors.New("export: no series to plot")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = opts.YLabel
	p.Add(plotter.NewGrid())

	for i, s := range series {
		pts := make(plotter.XYs, len(s.Values))
		for j, v := range s.Values {
			pts[j].X = float64(j) * opts.Dt
			pts[j].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("export: series %s: %w", s.Name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}
	p.Legend.Top = true

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.WidthIn)*vg.Inch, vg.Length(opts.HeightIn)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(bw); err != nil {
		return fmt.Errorf("export: write png: %w", err)
	}
	return bw.Flush()
}
