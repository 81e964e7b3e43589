/*
 * ascii.go, part of gotraj.
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
	"archive/tar"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ASCIIWriter writes a tar archive with one text file per variable, plus a metadata file.
// Rank 0 and 1 variables are written one value per line, rank 2 ones one row per line, and
// higher ranks as a sequence of 2-D slices, each one preceded by a "#slice:" line with the
// indexes of the leading axes.
type ASCIIWriter struct{}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', 17, 64) }

func writeRows(b *bytes.Buffer, data []float64, ncol int) {
	for i := 0; i < len(data); i += ncol {
		row := make([]string, ncol)
		for j := range row {
			row[j] = formatFloat(data[i+j])
		}
		b.WriteString(strings.Join(row, " "))
		b.WriteByte('\n')
	}
}

// Text returns the text form of V.
func (V *Variable) Text() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# variable: %s\n", V.Name)
	fmt.Fprintf(&b, "# units: %s\n", V.Units)
	fmt.Fprintf(&b, "# axis: %s\n", strings.Join(V.Axis, "|"))
	fmt.Fprintf(&b, "# shape: %v\n", V.Shape)
	switch len(V.Shape) {
	case 0, 1:
		writeRows(&b, V.Data, 1)
	case 2:
		if V.Shape[1] > 0 {
			writeRows(&b, V.Data, V.Shape[1])
		}
	default:
		lead := V.Shape[:len(V.Shape)-2]
		nr, nc := V.Shape[len(V.Shape)-2], V.Shape[len(V.Shape)-1]
		stride := nr * nc
		idx := make([]int, len(lead))
		for k := 0; k < size(lead); k++ {
			fmt.Fprintf(&b, "#slice:%v\n", idx)
			if nc > 0 {
				writeRows(&b, V.Data[k*stride:(k+1)*stride], nc)
			}
			b.WriteByte('\n')
			for d := len(idx) - 1; d >= 0; d-- {
				idx[d]++
				if idx[d] < lead[d] {
					break
				}
				idx[d] = 0
			}
		}
	}
	return b.String()
}

func (ASCIIWriter) Write(path string, D *Data) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return wrapError(err, path, "ASCIIWriter.Write", "can't create the file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = wrapError(cerr, path, "ASCIIWriter.Write", "can't close the file")
		}
	}()
	tw := tar.NewWriter(f)
	now := time.Now()
	add := func(name, content string) error {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), ModTime: now, Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		_, err := tw.Write([]byte(content))
		return err
	}
	var meta strings.Builder
	for _, k := range sortedKeys(D.Metadata) {
		fmt.Fprintf(&meta, "%s: %s\n", k, D.Metadata[k])
	}
	for _, k := range sortedKeys(D.Parameters) {
		fmt.Fprintf(&meta, "parameter %s: %v\n", k, D.Parameters[k])
	}
	if err = add("metadata.txt", meta.String()); err != nil {
		return wrapError(err, path, "ASCIIWriter.Write", "write failed")
	}
	for _, n := range D.order {
		if err = add(n+".dat", D.vars[n].Text()); err != nil {
			return wrapError(err, path, "ASCIIWriter.Write", "write failed for %s", n)
		}
	}
	if err = tw.Close(); err != nil {
		return wrapError(err, path, "ASCIIWriter.Write", "write failed")
	}
	return nil
}
