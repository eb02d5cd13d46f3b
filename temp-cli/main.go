// Copyright 2024 The temp-mon Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command temp-cli dumps one dataset of an upstream temperature server.
//
// Usage:
//
//	$> temp-cli [-url http://127.0.0.1:8080] [-o chart.png] temperatures
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/temp-mon/temp-mon-web/chart"
	"github.com/temp-mon/temp-mon-web/fetch"
)

var (
	baseURL = flag.String("url", "http://127.0.0.1:8080", "base URL of the upstream temperature server")
	oname   = flag.String("o", "", "path to output PNG chart")
	timeout = flag.Duration("timeout", 10*time.Second, "upstream request timeout")
)

func main() {
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("temp-cli ")

	if flag.NArg() != 1 {
		log.Fatalf("missing endpoint name (one of %v)", fetch.Endpoints)
	}

	cli := fetch.New(*baseURL, fetch.WithTimeout(*timeout))
	err := run(context.Background(), os.Stdout, cli, flag.Arg(0), *oname)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(ctx context.Context, w io.Writer, cli *fetch.Client, endpoint, oname string) error {
	ds, err := cli.Get(ctx, endpoint)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 8, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "timestamp\tvalue\n")
	for _, r := range ds.Data {
		fmt.Fprintf(tw, "%s\t%v\n", r.Timestamp, r.Value)
	}
	err = tw.Flush()
	if err != nil {
		return errors.Wrap(err, "could not write table")
	}

	if oname == "" {
		return nil
	}

	raw, err := chart.Default.PNG(ds, fetch.Title(endpoint))
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Errorf("no data to plot for %q", endpoint)
	}

	err = os.WriteFile(oname, raw, 0644)
	if err != nil {
		return errors.Wrapf(err, "could not create chart file %q", oname)
	}
	return nil
}
