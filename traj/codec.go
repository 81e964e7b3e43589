/*
 * codec.go, part of gotraj.
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

package traj

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	v3 "github.com/rmera/gotraj/v3"
	"github.com/x448/float16"
)

// Compression names the algorithm used for the header and for each frame chunk.
type Compression uint8

const (
	None Compression = iota
	Zstd
	Gzip
	Flate
)

var compressionNames = []string{"none", "zstd", "gzip", "flate"}

func (c Compression) String() string {
	if int(c) < len(compressionNames) {
		return compressionNames[c]
	}
	return fmt.Sprintf("compression(%d)", c)
}

// ParseCompression returns the compression called name. An empty name means zstd.
func ParseCompression(name string) (Compression, error) {
	if name == "" {
		return Zstd, nil
	}
	for i, n := range compressionNames {
		if strings.EqualFold(n, name) {
			return Compression(i), nil
		}
	}
	return None, fmt.Errorf("unknown compression %q", name)
}

// Both the encoder and the decoder are safe for concurrent use with EncodeAll/DecodeAll.
var (
	zstdEnc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDec, _ = zstd.NewReader(nil)
)

func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case None:
		return data, nil
	case Zstd:
		return zstdEnc.EncodeAll(data, nil), nil
	}
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	if c == Gzip {
		w, err = gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	} else {
		w, err = flate.NewWriter(&buf, flate.DefaultCompression)
	}
	if err != nil {
		return nil, err
	}
	if _, err = w.Write(data); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case None:
		return data, nil
	case Zstd:
		return zstdDec.DecodeAll(data, nil)
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case Flate:
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		return io.ReadAll(r)
	}
	return nil, fmt.Errorf("unknown compression %d", c)
}

// validDType returns true for the supported float sizes, in bits.
func validDType(bits int) bool {
	return bits == 16 || bits == 32 || bits == 64
}

// putFloats appends the values of M to buf, narrowed to bits.
func putFloats(buf *bytes.Buffer, M *v3.Matrix, bits int) {
	var b [8]byte
	n := M.NVecs()
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			v := M.At(i, j)
			switch bits {
			case 16:
				binary.LittleEndian.PutUint16(b[:2], float16.Fromfloat32(float32(v)).Bits())
				buf.Write(b[:2])
			case 32:
				binary.LittleEndian.PutUint32(b[:4], math.Float32bits(float32(v)))
				buf.Write(b[:4])
			default:
				binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
				buf.Write(b[:])
			}
		}
	}
}

// getFloats reads n×3 values of the given size from data, widening them to float64.
// It returns the rest of the data.
func getFloats(data []byte, n, bits int) (*v3.Matrix, []byte, error) {
	size := bits / 8
	if len(data) < n*3*size {
		return nil, nil, io.ErrUnexpectedEOF
	}
	M := v3.Zeros(n)
	raw := M.RawMatrix()
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			var v float64
			switch bits {
			case 16:
				v = float64(float16.Frombits(binary.LittleEndian.Uint16(data)).Float32())
			case 32:
				v = float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))
			default:
				v = math.Float64frombits(binary.LittleEndian.Uint64(data))
			}
			raw.Data[i*raw.Stride+j] = v
			data = data[size:]
		}
	}
	return M, data, nil
}

// frame is a decoded frame chunk.
type frame struct {
	cell   *[9]float64
	coords *v3.Matrix
	names  []string
	vars   map[string]*v3.Matrix
}

const flagCell = 1

func encodeFrame(f *frame, bits int) []byte {
	var buf bytes.Buffer
	var flags uint8
	if f.cell != nil {
		flags |= flagCell
	}
	buf.WriteByte(flags)
	if f.cell != nil {
		binary.Write(&buf, binary.LittleEndian, f.cell[:])
	}
	binary.Write(&buf, binary.LittleEndian, uint16(len(f.names)))
	for _, n := range f.names {
		binary.Write(&buf, binary.LittleEndian, uint16(len(n)))
		buf.WriteString(n)
	}
	putFloats(&buf, f.coords, bits)
	for _, n := range f.names {
		putFloats(&buf, f.vars[n], bits)
	}
	return buf.Bytes()
}

func decodeFrame(data []byte, natoms, bits int) (*frame, error) {
	f := &frame{vars: make(map[string]*v3.Matrix)}
	if len(data) < 3 {
		return nil, io.ErrUnexpectedEOF
	}
	flags := data[0]
	data = data[1:]
	if flags&flagCell != 0 {
		if len(data) < 72 {
			return nil, io.ErrUnexpectedEOF
		}
		var cell [9]float64
		for i := range cell {
			cell[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
		}
		f.cell = &cell
		data = data[72:]
	}
	if len(data) < 2 {
		return nil, io.ErrUnexpectedEOF
	}
	nvars := int(binary.LittleEndian.Uint16(data))
	data = data[2:]
	for i := 0; i < nvars; i++ {
		if len(data) < 2 {
			return nil, io.ErrUnexpectedEOF
		}
		l := int(binary.LittleEndian.Uint16(data))
		if len(data) < 2+l {
			return nil, io.ErrUnexpectedEOF
		}
		f.names = append(f.names, string(data[2:2+l]))
		data = data[2+l:]
	}
	var err error
	if f.coords, data, err = getFloats(data, natoms, bits); err != nil {
		return nil, err
	}
	for _, n := range f.names {
		var v *v3.Matrix
		if v, data, err = getFloats(data, natoms, bits); err != nil {
			return nil, err
		}
		f.vars[n] = v
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%d trailing bytes in frame", len(data))
	}
	return f, nil
}
