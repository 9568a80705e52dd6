// Package stats renders optional diagnostic output for a correction
// run, currently the homopolymer-length-delta histogram.
package stats

import (
	"bytes"
	"context"
	"fmt"
	"image/color"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderHomopolymerHistogram renders buckets (index i holds the count
// of homopolymer resizes with delta i-10, i.e. -10..+10) as an SVG bar
// chart.
func RenderHomopolymerHistogram(buckets [21]int) (string, error) {
	p := plot.New()
	p.Title.Text = "Homopolymer Length Correction"
	p.X.Label.Text = "Length Delta"
	p.Y.Label.Text = "Number of Corrections"

	values := make(plotter.Values, len(buckets))
	for i, c := range buckets {
		values[i] = float64(c)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(8))
	if err != nil {
		return "", err
	}
	bars.Color = color.RGBA{R: 100, G: 180, B: 255, A: 255}
	p.Add(bars)

	labels := make([]string, len(buckets))
	for i := range labels {
		labels[i] = deltaLabel(i - 10)
	}
	p.NominalX(labels...)

	var buf bytes.Buffer
	writer, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "svg")
	if err != nil {
		return "", err
	}
	if _, err := writer.WriteTo(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func deltaLabel(delta int) string {
	if delta > 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprintf("%d", delta)
}

// WriteFile writes content to path, creating it via file.Create so
// the destination can be any scheme the grailbio/base/file registry
// supports.
func WriteFile(ctx context.Context, path, content string) error {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	if _, err := f.Writer(ctx).Write([]byte(content)); err != nil {
		_ = f.Close(ctx)
		return errors.E(err, "write", path)
	}
	return f.Close(ctx)
}
