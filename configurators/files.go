/*
 * files.go, part of gotraj.
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

package configurators

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rmera/gotraj/output"
	"github.com/rmera/gotraj/traj"
	"golang.org/x/exp/slices"
)

// Kinds of the file related configurators.
const (
	KindOutputFiles      = "OutputFilesConfigurator"
	KindSingleOutputFile = "SingleOutputFileConfigurator"
	KindInputDirectory   = "InputDirectoryConfigurator"
	KindInputFile        = "InputFileConfigurator"
	KindOutputTrajectory = "OutputTrajectoryConfigurator"
)

func absDir(p string) (string, error) {
	p, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return p, os.MkdirAll(filepath.Dir(p), 0o755)
}

// OutputFiles takes (root, formats), or (directory, basename, formats) when given three
// values, or a map with those keys. Each format adds root plus its extension to the files.
// The directory of root is created if needed. Derived keys: root, formats, files.
type OutputFiles struct {
	base
	Root    string
	Formats []string
	Files   []string
}

func NewOutputFiles(name string, opts Options) *OutputFiles {
	if opts.Formats == nil {
		opts.Formats = output.Formats()
	}
	return &OutputFiles{base: newBase(KindOutputFiles, name, opts)}
}

func (O *OutputFiles) Configure(raw any, _ map[string]Configurator) error {
	raw = O.orDefault(raw)
	if raw == nil {
		return newError(O, "OutputFiles.Configure", "an output root is required")
	}
	var f map[string]any
	var err error
	if l, ok := toList(raw); ok && len(l) == 3 {
		f, err = fields(raw, "directory", "basename", "formats")
	} else if m, ok := toMap(raw); ok && m["directory"] != nil {
		f, err = fields(raw, "directory", "basename", "formats")
	} else {
		f, err = fields(raw, "root", "formats")
	}
	if err != nil {
		return wrapError(err, O, "OutputFiles.Configure", "invalid output files")
	}
	var root string
	if f["directory"] != nil {
		dir, err1 := toString(f["directory"])
		bn, err2 := toString(f["basename"])
		if err1 != nil || err2 != nil || bn == "" {
			return newError(O, "OutputFiles.Configure", "invalid directory or basename")
		}
		root = filepath.Join(dir, bn)
	} else if root, err = toString(f["root"]); err != nil || root == "" {
		return newError(O, "OutputFiles.Configure", "invalid output root")
	}
	formats := []string{O.opts.Formats[0]}
	if f["formats"] != nil {
		if formats, err = toStrings(f["formats"]); err != nil {
			return wrapError(err, O, "OutputFiles.Configure", "invalid formats")
		}
	}
	if len(formats) == 0 {
		return newError(O, "OutputFiles.Configure", "at least one format is needed")
	}
	var files []string
	for i, fm := range formats {
		fm = strings.ToLower(fm)
		formats[i] = fm
		ext, ok := output.Extension(fm)
		if !ok || !slices.Contains(O.opts.Formats, fm) {
			return newError(O, "OutputFiles.Configure", "unsupported format %q, choose among %v", fm, O.opts.Formats)
		}
		files = append(files, root+ext)
	}
	if root, err = absDir(root); err != nil {
		return wrapError(err, O, "OutputFiles.Configure", "can't create the output directory")
	}
	for i := range files {
		files[i], _ = filepath.Abs(files[i])
	}
	O.Root, O.Formats, O.Files = root, formats, files
	O.set(root, map[string]any{"root": root, "formats": formats, "files": files})
	return nil
}

// SingleOutputFile takes (path, format). The format defaults to the first accepted one.
// Derived keys: file, format.
type SingleOutputFile struct {
	base
	File   string
	Format string
}

func NewSingleOutputFile(name string, opts Options) *SingleOutputFile {
	if opts.Formats == nil {
		opts.Formats = output.Formats()
	}
	return &SingleOutputFile{base: newBase(KindSingleOutputFile, name, opts)}
}

func (O *SingleOutputFile) Configure(raw any, _ map[string]Configurator) error {
	f, err := fields(O.orDefault(raw), "file", "format")
	if err != nil {
		return wrapError(err, O, "SingleOutputFile.Configure", "invalid output file")
	}
	p, err := toString(f["file"])
	if err != nil || p == "" {
		return newError(O, "SingleOutputFile.Configure", "an output file is required")
	}
	format := O.opts.Formats[0]
	if f["format"] != nil {
		if format, err = toString(f["format"]); err != nil {
			return wrapError(err, O, "SingleOutputFile.Configure", "invalid format")
		}
	}
	if !slices.Contains(O.opts.Formats, format) {
		return newError(O, "SingleOutputFile.Configure", "unsupported format %q, choose among %v", format, O.opts.Formats)
	}
	if p, err = absDir(p); err != nil {
		return wrapError(err, O, "SingleOutputFile.Configure", "can't create the output directory")
	}
	O.File, O.Format = p, format
	O.set(p, map[string]any{"file": p, "format": format})
	return nil
}

// InputDirectory takes a directory path, created if it does not exist. The value is the
// absolute path.
type InputDirectory struct {
	base
	Path string
}

func NewInputDirectory(name string, opts Options) *InputDirectory {
	if opts.Default == nil {
		opts.Default = "."
	}
	return &InputDirectory{base: newBase(KindInputDirectory, name, opts)}
}

func (D *InputDirectory) Configure(raw any, _ map[string]Configurator) error {
	p, err := toString(D.orDefault(raw))
	if err != nil {
		return wrapError(err, D, "InputDirectory.Configure", "invalid directory")
	}
	if p, err = filepath.Abs(p); err != nil {
		return wrapError(err, D, "InputDirectory.Configure", "invalid directory")
	}
	if err = os.MkdirAll(p, 0o755); err != nil {
		return wrapError(err, D, "InputDirectory.Configure", "can't create the directory")
	}
	D.Path = p
	D.set(p, nil)
	return nil
}

// InputFile takes the path of an existing regular file. The value is the absolute path.
type InputFile struct {
	base
	Path string
}

func NewInputFile(name string, opts Options) *InputFile {
	return &InputFile{base: newBase(KindInputFile, name, opts)}
}

func (I *InputFile) Configure(raw any, _ map[string]Configurator) error {
	raw = I.orDefault(raw)
	if raw == nil {
		return newError(I, "InputFile.Configure", "an input file is required")
	}
	p, err := toString(raw)
	if err != nil {
		return wrapError(err, I, "InputFile.Configure", "invalid path")
	}
	if p, err = filepath.Abs(p); err != nil {
		return wrapError(err, I, "InputFile.Configure", "invalid path")
	}
	st, err := os.Stat(p)
	if err != nil {
		return wrapError(err, I, "InputFile.Configure", "can't use the input file")
	}
	if !st.Mode().IsRegular() {
		return newError(I, "InputFile.Configure", "%s is not a regular file", p)
	}
	I.Path = p
	I.set(p, nil)
	return nil
}

// OutputTrajectory takes (path, dtype, compression). dtype is 16, 32 or 64 bits and
// defaults to 64, compression defaults to zstd. Derived keys: file, dtype, compression.
type OutputTrajectory struct {
	base
	Path        string
	DType       int
	Compression traj.Compression
}

func NewOutputTrajectory(name string, opts Options) *OutputTrajectory {
	return &OutputTrajectory{base: newBase(KindOutputTrajectory, name, opts)}
}

func (O *OutputTrajectory) Configure(raw any, _ map[string]Configurator) error {
	f, err := fields(O.orDefault(raw), "file", "dtype", "compression")
	if err != nil {
		return wrapError(err, O, "OutputTrajectory.Configure", "invalid output trajectory")
	}
	p, err := toString(f["file"])
	if err != nil || p == "" {
		return newError(O, "OutputTrajectory.Configure", "an output trajectory path is required")
	}
	dtype := 64
	if f["dtype"] != nil {
		if dtype, err = toInt(f["dtype"]); err != nil {
			return wrapError(err, O, "OutputTrajectory.Configure", "invalid dtype")
		}
	}
	if dtype != 16 && dtype != 32 && dtype != 64 {
		return newError(O, "OutputTrajectory.Configure", "dtype must be 16, 32 or 64, got %d", dtype)
	}
	comp := traj.Zstd
	if f["compression"] != nil {
		s, err := toString(f["compression"])
		if err != nil {
			return wrapError(err, O, "OutputTrajectory.Configure", "invalid compression")
		}
		if comp, err = traj.ParseCompression(s); err != nil {
			return wrapError(err, O, "OutputTrajectory.Configure", "invalid compression")
		}
	}
	if p, err = absDir(p); err != nil {
		return wrapError(err, O, "OutputTrajectory.Configure", "can't create the output directory")
	}
	O.Path, O.DType, O.Compression = p, dtype, comp
	O.set(p, map[string]any{"file": p, "dtype": dtype, "compression": comp.String()})
	return nil
}

// WriterOptions returns the trajectory writer options matching the configured values.
func (O *OutputTrajectory) WriterOptions() *traj.WriterOptions {
	return &traj.WriterOptions{DType: O.DType, Compression: O.Compression}
}
