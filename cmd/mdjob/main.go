/*
 * main.go, part of gotraj.
 *
 * Copyright 2026 The gotraj Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// mdjob runs the registered trajectory converters and analyses from a parameter file.
//
//	mdjob list
//	mdjob settings <job>
//	mdjob run [-pipe] [-workers n] [-heartbeat d] <job> <params.toml|params.yaml>
//
// TOML arrays can't mix types, so parameters made of several values of different types
// are written as tables there:
//
//	output_files = {root = "results/msd", formats = ["mdh", "ascii"]}
//	running_mode = {mode = "multiprocessor", workers = 4}
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/rmera/gotraj/job"
	"github.com/rmera/gotraj/status"
	"gopkg.in/yaml.v3"

	_ "github.com/rmera/gotraj/analysis"
	_ "github.com/rmera/gotraj/converters/dlpoly"
	_ "github.com/rmera/gotraj/converters/lammps"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: mdjob list | settings <job> | run [-pipe] [-workers n] [-heartbeat d] <job> <parameters>")
	fmt.Fprintln(w, "in TOML parameter files, write mixed-type values as tables, e.g.")
	fmt.Fprintln(w, `  output_files = {root = "results/msd", formats = ["mdh"]}`)
}

// run executes the command in args and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 1
	}
	switch args[0] {
	case "list":
		for _, name := range job.Names() {
			J, _ := job.Get(name)
			info := J.Info()
			fmt.Fprintf(stdout, "%-36s %-12s %s\n", name, info.Category, info.Label)
		}
		return 0
	case "settings":
		if len(args) != 2 {
			usage(stderr)
			return 1
		}
		J, err := job.Get(args[1])
		if err != nil {
			report(stderr, err)
			return 1
		}
		for _, s := range J.Info().Settings {
			fmt.Fprintf(stdout, "%-22s %-20s default: %v\n", s.Name, s.Kind, s.Options.Default)
		}
		return 0
	case "run":
		return runJob(ctx, args[1:], stdout, stderr)
	}
	usage(stderr)
	return 1
}

func runJob(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	pipe := fs.Bool("pipe", false, "write progress messages as JSON lines on stdout")
	workers := fs.Int("workers", 0, "number of workers, overrides the running_mode parameter")
	heartbeat := fs.Duration("heartbeat", 5*time.Second, "interval between heartbeats in pipe mode")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 2 {
		usage(stderr)
		return 1
	}
	name, path := fs.Arg(0), fs.Arg(1)
	logger := log.New(stderr, "", log.LstdFlags)

	J, err := job.Get(name)
	if err != nil {
		report(stderr, err)
		return 1
	}
	params, err := loadParameters(path)
	if err != nil {
		report(stderr, err)
		return 1
	}

	B := status.NewBroker()
	if *pipe {
		W := status.NewWireHost(stdout)
		defer status.Attach(B, W)()
		hctx, stop := context.WithCancel(ctx)
		defer stop()
		go W.Heartbeat(hctx, *heartbeat)
	} else {
		defer status.Attach(B, status.NewLogHost(logger, name))()
	}

	res, err := job.Run(ctx, J, params, &job.RunOptions{Status: status.New(B), Workers: *workers, Logger: logger})
	if err != nil {
		report(stderr, err)
		return 1
	}
	if res.Stopped {
		logger.Printf("%s: stopped after %d of %d steps (run %s)", name, res.Completed, res.Steps, res.RunID)
		return 1
	}
	logger.Printf("%s: %d steps done (run %s)", name, res.Completed, res.RunID)
	return 0
}

// loadParameters reads a flat parameter table from a TOML or a YAML file,
// chosen by extension.
func loadParameters(path string) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		tree, err := toml.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loadParameters: %w", err)
		}
		return tree.ToMap(), nil
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loadParameters: %w", err)
		}
		params := map[string]any{}
		if err := yaml.Unmarshal(b, &params); err != nil {
			return nil, fmt.Errorf("loadParameters: %w", err)
		}
		return params, nil
	}
	return nil, fmt.Errorf("loadParameters: unknown parameter file format %q", filepath.Ext(path))
}

func report(w io.Writer, err error) {
	fmt.Fprintf(w, "%s: %v\n", job.ErrorKind(err), err)
}
