/*
 * mdh.go, part of gotraj.
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
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// The mdh format is the 8-byte magic followed by a zstd stream holding a little-endian
// uint32 with the length of a JSON header, the header, and the float64 values of every
// variable, in header order.
const mdhMagic = "GOTRJMDH"

type mdhHeader struct {
	Metadata   map[string]string `json:"metadata"`
	Parameters map[string]any    `json:"parameters"`
	Variables  []*Variable       `json:"variables"`
}

// MDHWriter writes the mdh format.
type MDHWriter struct{}

func (MDHWriter) Write(path string, D *Data) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return wrapError(err, path, "MDHWriter.Write", "can't create the file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = wrapError(cerr, path, "MDHWriter.Write", "can't close the file")
		}
	}()
	h := mdhHeader{Metadata: D.Metadata, Parameters: D.Parameters}
	for _, n := range D.order {
		h.Variables = append(h.Variables, D.vars[n])
	}
	hb, err := json.Marshal(h)
	if err != nil {
		return wrapError(err, path, "MDHWriter.Write", "can't encode the header")
	}
	bw := bufio.NewWriter(f)
	if _, err = bw.WriteString(mdhMagic); err != nil {
		return wrapError(err, path, "MDHWriter.Write", "write failed")
	}
	zw, err := zstd.NewWriter(bw)
	if err != nil {
		return wrapError(err, path, "MDHWriter.Write", "can't start compression")
	}
	if err = binary.Write(zw, binary.LittleEndian, uint32(len(hb))); err == nil {
		_, err = zw.Write(hb)
	}
	for _, v := range h.Variables {
		if err != nil {
			break
		}
		err = binary.Write(zw, binary.LittleEndian, v.Data)
	}
	if err != nil {
		zw.Close()
		return wrapError(err, path, "MDHWriter.Write", "write failed")
	}
	if err = zw.Close(); err != nil {
		return wrapError(err, path, "MDHWriter.Write", "compression failed")
	}
	if err = bw.Flush(); err != nil {
		return wrapError(err, path, "MDHWriter.Write", "write failed")
	}
	return nil
}

// ReadMDH reads a file written by MDHWriter.
func ReadMDH(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(err, path, "ReadMDH", "can't open the file")
	}
	defer f.Close()
	br := bufio.NewReader(f)
	magic := make([]byte, len(mdhMagic))
	if _, err = io.ReadFull(br, magic); err != nil || string(magic) != mdhMagic {
		return nil, newError(path, "ReadMDH", "not an mdh file")
	}
	zr, err := zstd.NewReader(br)
	if err != nil {
		return nil, wrapError(err, path, "ReadMDH", "can't start decompression")
	}
	defer zr.Close()
	var hl uint32
	if err = binary.Read(zr, binary.LittleEndian, &hl); err != nil {
		return nil, wrapError(err, path, "ReadMDH", "truncated file")
	}
	hb := make([]byte, hl)
	if _, err = io.ReadFull(zr, hb); err != nil {
		return nil, wrapError(err, path, "ReadMDH", "truncated header")
	}
	var h mdhHeader
	if err = json.Unmarshal(hb, &h); err != nil {
		return nil, wrapError(err, path, "ReadMDH", "corrupted header")
	}
	D := NewData()
	if h.Metadata != nil {
		D.Metadata = h.Metadata
	}
	if h.Parameters != nil {
		D.Parameters = h.Parameters
	}
	for _, v := range h.Variables {
		v.Data = make([]float64, size(v.Shape))
		if err = binary.Read(zr, binary.LittleEndian, v.Data); err != nil {
			return nil, wrapError(err, path, "ReadMDH", "truncated data for %s", v.Name)
		}
		if err = D.Put(v); err != nil {
			return nil, err
		}
	}
	return D, nil
}
