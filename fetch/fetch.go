// Copyright 2024 The temp-mon Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fetch retrieves temperature datasets from the upstream server.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/context/ctxhttp"
)

// Endpoints served by the upstream temperature server.
const (
	Temperatures = "temperatures"
	AvgTempHour  = "avg_temp_hour"
	AvgTempDay   = "avg_temp_day"
)

// Endpoints lists the upstream datasets in display order.
var Endpoints = []string{Temperatures, AvgTempHour, AvgTempDay}

// Title returns the human readable chart title of an endpoint.
func Title(endpoint string) string {
	switch endpoint {
	case Temperatures:
		return "Raw Temperatures"
	case AvgTempHour:
		return "Average Temperature per Hour"
	case AvgTempDay:
		return "Average Temperature per Day"
	}
	return endpoint
}

// Reading is a single timestamped temperature value.
type Reading struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

func (r *Reading) UnmarshalJSON(p []byte) error {
	var raw struct {
		Timestamp string          `json:"timestamp"`
		Value     json.RawMessage `json:"value"`
	}
	err := json.Unmarshal(p, &raw)
	if err != nil {
		return err
	}

	v, err := parseValue(raw.Value)
	if err != nil {
		return errors.Wrapf(err, "fetch: invalid value for timestamp %q", raw.Timestamp)
	}

	r.Timestamp = raw.Timestamp
	r.Value = v
	return nil
}

// parseValue accepts the upstream's quoted numbers as well as plain JSON numbers.
func parseValue(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, errors.New("missing value")
	}

	var str string
	switch raw[0] {
	case '"':
		err := json.Unmarshal(raw, &str)
		if err != nil {
			return 0, err
		}
	default:
		var num json.Number
		err := json.Unmarshal(raw, &num)
		if err != nil {
			return 0, err
		}
		str = string(num)
	}
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// Dataset is the decoded payload of one upstream endpoint.
// A nil Data means the payload had no "data" key.
type Dataset struct {
	Data []Reading `json:"data"`
}

// Empty reports whether the dataset carries no readings.
// A nil dataset is empty.
func (ds *Dataset) Empty() bool {
	return ds == nil || len(ds.Data) == 0
}

// Client fetches datasets from an upstream server.
type Client struct {
	base string
	hc   *http.Client
	msg  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout of every upstream request.
// A zero timeout means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.hc.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(msg *log.Logger) Option {
	return func(c *Client) {
		c.msg = msg
	}
}

// New returns a client for the upstream server at base.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		msg:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base returns the upstream base URL.
func (c *Client) Base() string { return c.base }

// Fetch retrieves the dataset of the named endpoint.
// Any failure is logged and reported as a nil dataset.
func (c *Client) Fetch(ctx context.Context, endpoint string) *Dataset {
	ds, err := c.Get(ctx, endpoint)
	if err != nil {
		c.msg.Printf("error fetching data from server: %v", err)
		return nil
	}
	return ds
}

// Get retrieves the dataset of the named endpoint.
func (c *Client) Get(ctx context.Context, endpoint string) (*Dataset, error) {
	url := c.base + "/" + endpoint
	resp, err := ctxhttp.Get(ctx, c.hc, url)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch: could not GET %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, errors.Errorf("fetch: GET %s returned %s", url, resp.Status)
	}

	var ds Dataset
	err = json.NewDecoder(resp.Body).Decode(&ds)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch: could not decode %s payload", url)
	}
	return &ds, nil
}
