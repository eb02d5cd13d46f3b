// Copyright 2024 The temp-mon Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/pkg/errors"

	"github.com/temp-mon/temp-mon-web/chart"
	"github.com/temp-mon/temp-mon-web/fetch"
)

type server struct {
	cfg   Config
	cli   *fetch.Client
	chart chart.Options
	tmpl  *template.Template
	msg   *log.Logger
	wsup  websocket.Upgrader
}

func newServer(cfg Config, cli *fetch.Client, msg *log.Logger) (*server, error) {
	tmpl, err := template.New("temp-mon").Parse(pagesTmpl)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse page templates")
	}
	if msg == nil {
		msg = log.Default()
	}

	return &server{
		cfg:   cfg,
		cli:   cli,
		chart: chart.Default,
		tmpl:  tmpl,
		msg:   msg,
	}, nil
}

// Handler returns the dashboard HTTP handler, access logs going to w.
func (srv *server) Handler(w io.Writer) http.Handler {
	r := mux.NewRouter()
	r.Handle("/", gzhttp.GzipHandler(http.HandlerFunc(srv.handleIndex))).Methods(http.MethodGet)
	for _, ep := range fetch.Endpoints {
		r.Handle("/"+ep, gzhttp.GzipHandler(srv.handleTable(ep))).Methods(http.MethodGet)
	}
	if srv.cfg.Live.Refresh > 0 {
		r.HandleFunc("/live/{endpoint}", srv.handleLive).Methods(http.MethodGet)
	}
	r.HandleFunc("/health", srv.handleHealth).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(srv.msg))(h)
	h = withRequestID(h)
	h = handlers.LoggingHandler(w, h)
	return h
}

func withRequestID(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		h.ServeHTTP(w, r)
	})
}

func (srv *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := struct {
		Title   string
		Version string
		Live    bool
		Charts  []Plot
	}{
		Title:   "Temperature monitoring",
		Version: Version,
		Live:    srv.cfg.Live.Refresh > 0,
	}

	for _, ep := range fetch.Endpoints {
		p, err := newPlot(r.Context(), srv.cli, srv.chart, ep)
		if err != nil {
			srv.msg.Printf("could not render %s chart: %v", ep, err)
			http.Error(w, "could not render "+ep+" chart", http.StatusInternalServerError)
			return
		}
		page.Charts = append(page.Charts, p)
	}

	srv.render(w, "index", page)
}

func (srv *server) handleTable(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := struct {
			Title   string
			Version string
			Rows    []fetch.Reading
		}{
			Title:   fetch.Title(endpoint),
			Version: Version,
		}

		if ds := srv.cli.Fetch(r.Context(), endpoint); ds != nil {
			page.Rows = ds.Data
		}

		srv.render(w, "table", page)
	}
}

func (srv *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "OK")
}

func (srv *server) render(w http.ResponseWriter, name string, data interface{}) {
	buf := new(bytes.Buffer)
	err := srv.tmpl.ExecuteTemplate(buf, name, data)
	if err != nil {
		srv.msg.Printf("could not execute template %q: %v", name, err)
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	if err != nil {
		srv.msg.Printf("could not send page %q: %v", name, err)
	}
}

func (srv *server) handleLive(w http.ResponseWriter, r *http.Request) {
	ep := mux.Vars(r)["endpoint"]
	if !validEndpoint(ep) {
		http.NotFound(w, r)
		return
	}

	conn, err := srv.wsup.Upgrade(w, r, nil)
	if err != nil {
		srv.msg.Printf("could not upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	srv.msg.Printf("live %s: connection from %v", ep, conn.RemoteAddr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the client only talks to close the connection.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	tick := time.NewTicker(srv.cfg.Live.Refresh)
	defer tick.Stop()

	for {
		p, err := newPlot(ctx, srv.cli, srv.chart, ep)
		if err != nil {
			srv.msg.Printf("live %s: could not render chart: %v", ep, err)
			return
		}
		if ctx.Err() != nil {
			return
		}

		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		err = conn.WriteJSON(&p)
		if err != nil {
			srv.msg.Printf("live %s: could not send chart: %v", ep, err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func validEndpoint(ep string) bool {
	for _, v := range fetch.Endpoints {
		if v == ep {
			return true
		}
	}
	return false
}
