/*
 * container.go, part of gotraj.
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

// Package traj implements a random-access trajectory container. A container holds
// the chemical system, and for each frame a time, an optional unit cell, the coordinates
// and any number of auxiliary per-atom variables.
//
// Layout, all integers little endian:
//
//	magic "GOTRAJ01"
//	uint32 header length, uint8 compression, uint8 float size in bits, 2 bytes padding
//	uint64 declared frames, uint64 written frames
//	compressed JSON header (chemical system, units, metadata)
//	index: declared frames × (uint64 offset, uint64 length, float64 time)
//	compressed frame chunks
package traj

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	chem "github.com/rmera/gotraj"
)

const (
	magic        = "GOTRAJ01"
	prefixSize   = 32
	writtenAt    = 24
	indexEntry   = 24
	maxFrameSize = 1 << 34
)

// Default units.
const (
	LengthUnit   = "nm"
	TimeUnit     = "ps"
	VelocityUnit = "nm/ps"
	GradientUnit = "kJ/mol/nm"
)

// Header is the JSON document stored after the prefix.
type Header struct {
	System *chem.SystemStore `json:"chemical_system"`
	Units  map[string]string `json:"units"`
	// Selection holds the atoms actually stored. Empty means all.
	Selection []int             `json:"selection,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type prefix struct {
	headerLen   uint32
	compression Compression
	bits        int
	declared    int
	written     int
}

func (p prefix) marshal() []byte {
	b := make([]byte, prefixSize)
	copy(b, magic)
	binary.LittleEndian.PutUint32(b[8:], p.headerLen)
	b[12] = byte(p.compression)
	b[13] = byte(p.bits)
	binary.LittleEndian.PutUint64(b[16:], uint64(p.declared))
	binary.LittleEndian.PutUint64(b[writtenAt:], uint64(p.written))
	return b
}

func readPrefix(r io.ReaderAt) (prefix, error) {
	b := make([]byte, prefixSize)
	if _, err := r.ReadAt(b, 0); err != nil {
		return prefix{}, err
	}
	if string(b[:8]) != magic {
		return prefix{}, fmt.Errorf("not a trajectory container")
	}
	p := prefix{
		headerLen:   binary.LittleEndian.Uint32(b[8:]),
		compression: Compression(b[12]),
		bits:        int(b[13]),
		declared:    int(binary.LittleEndian.Uint64(b[16:])),
		written:     int(binary.LittleEndian.Uint64(b[writtenAt:])),
	}
	if !validDType(p.bits) || p.written > p.declared || p.compression > Flate {
		return prefix{}, fmt.Errorf("corrupted prefix")
	}
	return p, nil
}

func (p prefix) indexOffset() int64 { return prefixSize + int64(p.headerLen) }

type entry struct {
	offset int64
	length int64
	time   float64
}

func marshalEntry(e entry) []byte {
	b := make([]byte, indexEntry)
	binary.LittleEndian.PutUint64(b, uint64(e.offset))
	binary.LittleEndian.PutUint64(b[8:], uint64(e.length))
	binary.LittleEndian.PutUint64(b[16:], math.Float64bits(e.time))
	return b
}

func readIndex(r io.ReaderAt, p prefix) ([]entry, error) {
	b := make([]byte, indexEntry*p.written)
	if _, err := r.ReadAt(b, p.indexOffset()); err != nil {
		return nil, err
	}
	ret := make([]entry, p.written)
	for i := range ret {
		e := b[i*indexEntry:]
		ret[i] = entry{
			offset: int64(binary.LittleEndian.Uint64(e)),
			length: int64(binary.LittleEndian.Uint64(e[8:])),
			time:   math.Float64frombits(binary.LittleEndian.Uint64(e[16:])),
		}
		if ret[i].length <= 0 || ret[i].length > maxFrameSize {
			return nil, fmt.Errorf("bad index entry %d", i)
		}
	}
	return ret, nil
}

func readHeader(r io.ReaderAt, p prefix) (*Header, error) {
	b := make([]byte, p.headerLen)
	if _, err := r.ReadAt(b, prefixSize); err != nil {
		return nil, err
	}
	raw, err := decompress(p.compression, b)
	if err != nil {
		return nil, err
	}
	h := new(Header)
	if err := json.Unmarshal(raw, h); err != nil {
		return nil, err
	}
	if h.System == nil {
		return nil, fmt.Errorf("no chemical system in header")
	}
	return h, nil
}
