/*
 * formats.go, part of gotraj.
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

package output

import (
	"log"

	"golang.org/x/exp/slices"
)

// Writer writes a Data to a file.
type Writer interface {
	Write(path string, D *Data) error
}

type format struct {
	ext string
	w   Writer
}

var formats = map[string]format{
	"mdh":   {".mdh", MDHWriter{}},
	"ascii": {".tar", ASCIIWriter{}},
	"toml":  {".toml", TOMLWriter{}},
}

// the first one is the default.
var formatOrder = []string{"mdh", "ascii", "toml"}

// Formats returns the supported formats. The first one is the default.
func Formats() []string { return slices.Clone(formatOrder) }

// Extension returns the file extension of a format.
func Extension(name string) (string, bool) {
	f, ok := formats[name]
	return f.ext, ok
}

// Write writes D to path in the given format.
func Write(D *Data, name, path string) error {
	f, ok := formats[name]
	if !ok {
		return newError(path, "Write", "unknown format %q", name)
	}
	return f.w.Write(path, D)
}

// WriteAll writes D in every format, to root plus the format extension.
func WriteAll(D *Data, root string, names []string) ([]string, error) {
	var files []string
	for _, n := range names {
		ext, ok := Extension(n)
		if !ok {
			return files, newError(root, "WriteAll", "unknown format %q", n)
		}
		p := root + ext
		if err := Write(D, n, p); err != nil {
			return files, err
		}
		log.Printf("output: wrote %s", p)
		files = append(files, p)
	}
	return files, nil
}
