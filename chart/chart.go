// Copyright 2024 The temp-mon Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart renders temperature datasets as PNG line plots.
package chart

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/temp-mon/temp-mon-web/fetch"
)

// Layout is the timestamp layout of upstream readings.
const Layout = "2006-01-02 15:04:05"

// Temperature bounds of the y axis, in °C.
const (
	YMin  = 0
	YMax  = 35
	YStep = 5
)

var lineColor = color.RGBA{B: 255, A: 255}

// Options controls the size of rendered charts.
type Options struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// Default is a 10x6 inches chart at 100 dpi.
var Default = Options{
	Width:  10 * vg.Inch,
	Height: 6 * vg.Inch,
	DPI:    100,
}

// Render renders ds with the default options.
func Render(ds *fetch.Dataset, title string) (string, error) {
	return Default.Render(ds, title)
}

// Render plots ds and returns the base64 encoded PNG image.
// Render returns an empty string if ds is nil or has no data.
func (o Options) Render(ds *fetch.Dataset, title string) (string, error) {
	raw, err := o.PNG(ds, title)
	if err != nil || raw == nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// PNG plots ds and returns the raw PNG image.
// PNG returns nil if ds is nil or has no data.
func (o Options) PNG(ds *fetch.Dataset, title string) ([]byte, error) {
	if ds == nil || ds.Data == nil {
		return nil, nil
	}

	xys, err := points(ds.Data)
	if err != nil {
		return nil, err
	}

	p, err := newPlot(title, xys)
	if err != nil {
		return nil, err
	}

	canvas := vgimg.NewWith(vgimg.UseWH(o.Width, o.Height), vgimg.UseDPI(o.DPI))
	p.Draw(draw.New(canvas))

	out := new(bytes.Buffer)
	_, err = vgimg.PngCanvas{Canvas: canvas}.WriteTo(out)
	if err != nil {
		return nil, errors.Wrap(err, "chart: could not encode PNG")
	}
	return out.Bytes(), nil
}

// points converts readings into (unix-time, value) pairs.
// Non-finite values are left out of the plot.
func points(data []fetch.Reading) (plotter.XYs, error) {
	xys := make(plotter.XYs, 0, len(data))
	for i, r := range data {
		ts, err := parseTime(r.Timestamp)
		if err != nil {
			return nil, errors.Wrapf(err, "chart: invalid timestamp for reading #%d", i)
		}
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(ts.Unix()), Y: r.Value})
	}
	return xys, nil
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(Layout, s)
}

func newPlot(title string, xys plotter.XYs) (*hplot.Plot, error) {
	p := hplot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Temperature (°C)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04:05"}
	p.Y.Tick.Marker = plot.ConstantTicks(yticks())

	p.Add(plotter.NewGrid())

	if len(xys) > 0 {
		line, pts, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, errors.Wrap(err, "chart: could not create line plot")
		}
		line.Color = lineColor
		pts.Color = lineColor
		pts.Shape = draw.CircleGlyph{}
		pts.Radius = vg.Points(3)
		p.Add(line, pts)
	}

	// plot.Add widens the axes to the data range: pin the y axis afterwards.
	p.Y.Min = YMin
	p.Y.Max = YMax

	return p, nil
}

func yticks() []plot.Tick {
	ticks := make([]plot.Tick, 0, (YMax-YMin)/YStep+1)
	for v := YMin; v <= YMax; v += YStep {
		ticks = append(ticks, plot.Tick{Value: float64(v), Label: strconv.Itoa(v)})
	}
	return ticks
}
