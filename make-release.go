// Copyright 2024 The temp-mon Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build ignore

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var targets = []struct {
	goos, goarch, goarm string
}{
	{"linux", "amd64", ""},
	{"linux", "arm64", ""},
	{"linux", "arm", "7"},
}

func main() {
	log.SetPrefix("release: ")
	log.SetFlags(0)

	flag.Parse()

	tag := version()
	if flag.NArg() > 0 {
		tag = flag.Arg(0)
	}

	run("go", "mod", "download")

	for _, tgt := range targets {
		for _, cmd := range []string{"temp-mon", "temp-cli"} {
			build(tag, cmd, tgt.goos, tgt.goarch, tgt.goarm)
		}
	}
}

func build(tag, cmd, goos, goarch, goarm string) {
	arch := goarch
	if goarm != "" {
		arch += "v" + goarm
	}
	oname := filepath.Join(".", "releases", tag, fmt.Sprintf("%s-%s-%s.exe", cmd, goos, arch))
	err := os.MkdirAll(filepath.Dir(oname), 0755)
	if err != nil {
		log.Fatal(err)
	}

	pkg := "."
	if cmd != "temp-mon" {
		pkg = "./" + cmd
	}

	log.Printf("build %s for %s/%s... version=%q", cmd, goos, arch, tag)
	c := exec.Command("go",
		"build", "-v",
		"-ldflags", fmt.Sprintf("-X main.Version=%s", tag),
		"-o", oname,
		pkg,
	)
	c.Env = append(os.Environ(),
		"GOOS="+goos,
		"GOARCH="+goarch,
		"GOARM="+goarm,
		"CGO_ENABLED=0",
	)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	err = c.Run()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("build %s for %s/%s... [done]", cmd, goos, arch)
}

func run(cmd string, args ...string) {
	c := exec.Command(cmd, args...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	err := c.Run()
	if err != nil {
		log.Fatal(err)
	}
}

func version() string {
	tag, err := exec.Command("git", "describe", "--contains", "HEAD").Output()
	if err == nil {
		return strings.Trim(string(tag), "\n")
	}

	rev, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		log.Fatalf("could not retrieve current git revision: %v", err)
	}

	return strings.Trim(string(rev), "\n")
}
