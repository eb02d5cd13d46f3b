// Copyright 2024 The temp-mon Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"log"
	"time"

	"github.com/temp-mon/temp-mon-web/chart"
	"github.com/temp-mon/temp-mon-web/fetch"
)

// Plot is the rendered chart of one endpoint.
type Plot struct {
	Endpoint string
	Title    string
	Image    template.URL // inline data URL, empty when no data.

	update time.Time
	png    string
}

func (p *Plot) MarshalJSON() ([]byte, error) {
	var raw struct {
		Plot   string `json:"plot"`
		Update string `json:"update"`
	}

	raw.Plot = p.png
	raw.Update = p.update.Format("2006-01-02 15:04:05 (MST)")

	buf := new(bytes.Buffer)
	err := json.NewEncoder(buf).Encode(raw)
	if err != nil {
		log.Printf("plots-marshal: %v", err)
		return nil, err
	}
	return buf.Bytes(), nil
}

// newPlot fetches the endpoint dataset and renders it.
// Absent and empty datasets yield a Plot without image.
func newPlot(ctx context.Context, cli *fetch.Client, opts chart.Options, endpoint string) (Plot, error) {
	p := Plot{
		Endpoint: endpoint,
		Title:    fetch.Title(endpoint),
		update:   time.Now(),
	}

	ds := cli.Fetch(ctx, endpoint)
	if ds.Empty() {
		return p, nil
	}

	img, err := opts.Render(ds, p.Title)
	if err != nil {
		return p, err
	}
	p.png = img
	p.Image = template.URL("data:image/png;base64," + img)
	return p, nil
}
