// Copyright 2024 The temp-mon Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command temp-mon serves a dashboard of the temperatures recorded by
// an upstream temperature server.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/temp-mon/temp-mon-web/fetch"
)

// Version is the temp-mon version, set at link time.
var Version = "dev"

func main() {
	log.SetFlags(0)
	log.SetPrefix("temp-mon ")

	var (
		fname = flag.String("config", "", "path to configuration file")
		_     = flag.String("addr", ":5000", "[ip]:port for HTTP server")
		_     = flag.String("url", "http://127.0.0.1:8080", "base URL of the upstream temperature server")
		_     = flag.Duration("timeout", 10*time.Second, "upstream request timeout (0: no timeout)")
		_     = flag.Duration("refresh", 5*time.Second, "live charts refresh interval (0: disabled)")
	)
	flag.Parse()

	cfg, err := loadConfig(*fname, flag.CommandLine)
	if err != nil {
		log.Fatalf("could not load configuration: %+v", err)
	}

	cli := fetch.New(cfg.Upstream.URL, fetch.WithTimeout(cfg.Upstream.Timeout))
	srv, err := newServer(cfg, cli, log.Default())
	if err != nil {
		log.Fatalf("could not create server: %+v", err)
	}

	log.Printf("version: %s", Version)
	log.Printf("upstream: %s", cli.Base())
	log.Printf("starting up server on: %v", cfg.Addr)

	hsrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(os.Stdout),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Fatal(hsrv.ListenAndServe())
}
