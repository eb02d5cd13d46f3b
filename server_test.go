// Copyright 2024 The temp-mon Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/temp-mon/temp-mon-web/fetch"
)

const okPayload = `{"data": [
	{"timestamp": "2024-01-01 00:00:00", "value": "21.5"},
	{"timestamp": "2024-01-01 01:00:00", "value": "22.0"}
]}`

// newUpstream serves payloads[endpoint], 404 for unknown endpoints.
func newUpstream(t *testing.T, payloads map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := payloads[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.Error(w, "Resource not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, base string, refresh time.Duration) *httptest.Server {
	t.Helper()
	cfg := defaultConfig()
	cfg.Upstream.URL = base
	cfg.Live.Refresh = refresh

	msg := log.New(io.Discard, "", 0)
	cli := fetch.New(base, fetch.WithTimeout(time.Second), fetch.WithLogger(msg))
	srv, err := newServer(cfg, cli, msg)
	if err != nil {
		t.Fatal(err)
	}
	hsrv := httptest.NewServer(srv.Handler(io.Discard))
	t.Cleanup(hsrv.Close)
	return hsrv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func deadURL(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer lis.Close()
	return "http://" + lis.Addr().String()
}

func TestIndex(t *testing.T) {
	up := newUpstream(t, map[string]string{
		fetch.Temperatures: okPayload,
		fetch.AvgTempHour:  okPayload,
		fetch.AvgTempDay:   `{"data": []}`,
	})
	srv := newTestServer(t, up.URL, 0)

	resp, body := get(t, srv.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("invalid status: %v", resp.Status)
	}
	if got := strings.Count(body, `src="data:image/png;base64,`); got != 2 {
		t.Fatalf("invalid number of charts: got=%d, want=2\n%s", got, body)
	}
	for _, title := range []string{
		"Raw Temperatures",
		"Average Temperature per Hour",
		"Average Temperature per Day",
	} {
		if !strings.Contains(body, title) {
			t.Fatalf("missing title %q", title)
		}
	}
	if !strings.Contains(body, `<p id="plot-avg_temp_day">No data available.</p>`) {
		t.Fatalf("missing placeholder for empty dataset:\n%s", body)
	}
	if strings.Contains(body, "WebSocket") {
		t.Fatalf("live updates should be disabled")
	}
}

func TestIndexUpstreamDown(t *testing.T) {
	srv := newTestServer(t, deadURL(t), 0)

	resp, body := get(t, srv.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("invalid status: %v", resp.Status)
	}
	if got := strings.Count(body, "No data available."); got != 3 {
		t.Fatalf("invalid number of placeholders: got=%d, want=3", got)
	}
}

func TestIndexBadTimestamp(t *testing.T) {
	up := newUpstream(t, map[string]string{
		fetch.Temperatures: `{"data": [{"timestamp": "yesterday", "value": "21.5"}]}`,
	})
	srv := newTestServer(t, up.URL, 0)

	resp, _ := get(t, srv.URL+"/")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("invalid status: got=%v, want=%v", resp.StatusCode, http.StatusInternalServerError)
	}
}

func TestTables(t *testing.T) {
	up := newUpstream(t, map[string]string{
		fetch.Temperatures: okPayload,
		fetch.AvgTempHour:  `{"data": []}`,
	})
	srv := newTestServer(t, up.URL, 0)

	for _, tc := range []struct {
		endpoint string
		want     []string
	}{
		{
			fetch.Temperatures,
			[]string{
				"<td>2024-01-01 00:00:00</td><td>21.5</td>",
				"<td>2024-01-01 01:00:00</td><td>22</td>",
			},
		},
		{fetch.AvgTempHour, []string{"No data available."}},
		{fetch.AvgTempDay, []string{"No data available."}},
	} {
		t.Run(tc.endpoint, func(t *testing.T) {
			resp, body := get(t, srv.URL+"/"+tc.endpoint)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("invalid status: %v", resp.Status)
			}
			if !strings.Contains(body, fetch.Title(tc.endpoint)) {
				t.Fatalf("missing title")
			}
			for _, want := range tc.want {
				if !strings.Contains(body, want) {
					t.Fatalf("missing %q in:\n%s", want, body)
				}
			}
		})
	}
}

func TestHealthAndRequestID(t *testing.T) {
	srv := newTestServer(t, deadURL(t), 0)

	resp, body := get(t, srv.URL+"/health")
	if resp.StatusCode != http.StatusOK || body != "OK" {
		t.Fatalf("invalid health: %v %q", resp.Status, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("missing request ID")
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Request-ID", "req-42")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("invalid request ID: got=%q, want=%q", got, "req-42")
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, deadURL(t), time.Second)

	for _, path := range []string{"/unknown", "/live/unknown"} {
		resp, _ := get(t, srv.URL+path)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: invalid status: %v", path, resp.Status)
		}
	}

	resp, err := http.Post(srv.URL+"/", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("invalid status: %v", resp.Status)
	}
}

func TestLive(t *testing.T) {
	up := newUpstream(t, map[string]string{
		fetch.Temperatures: okPayload,
	})
	srv := newTestServer(t, up.URL, 50*time.Millisecond)

	_, body := get(t, srv.URL+"/")
	if !strings.Contains(body, "WebSocket") {
		t.Fatalf("live updates should be enabled")
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/" + fetch.Temperatures
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		var msg struct {
			Plot   string `json:"plot"`
			Update string `json:"update"`
		}
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		err = conn.ReadJSON(&msg)
		if err != nil {
			t.Fatalf("could not read update #%d: %v", i, err)
		}
		if msg.Update == "" {
			t.Fatalf("missing update time")
		}
		raw, err := base64.StdEncoding.DecodeString(msg.Plot)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := png.DecodeConfig(bytes.NewReader(raw)); err != nil {
			t.Fatalf("could not decode PNG: %v", err)
		}
	}
}

func TestLiveNoData(t *testing.T) {
	srv := newTestServer(t, deadURL(t), time.Hour)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/" + fetch.AvgTempDay
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var msg map[string]string
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	err = conn.ReadJSON(&msg)
	if err != nil {
		t.Fatal(err)
	}
	if msg["plot"] != "" {
		t.Fatalf("expected no plot")
	}
}
