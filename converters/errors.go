/*
 * errors.go, part of gotraj.
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

package converters

import "fmt"

// FormatError is returned when a foreign file can't be parsed. Line is 0 when unknown.
type FormatError struct {
	msg  string
	file string
	line int
	deco []string
	err  error
}

// NewFormatError returns a FormatError for file at line.
func NewFormatError(file string, line int, caller, format string, args ...interface{}) *FormatError {
	return &FormatError{msg: fmt.Sprintf(format, args...), file: file, line: line, deco: []string{caller}}
}

// WrapFormatError is like NewFormatError, with a cause.
func WrapFormatError(err error, file string, line int, caller, format string, args ...interface{}) *FormatError {
	e := NewFormatError(file, line, caller, format, args...)
	e.err = err
	return e
}

func (err *FormatError) Error() string {
	loc := err.file
	if err.line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, err.line)
	}
	msg := fmt.Sprintf("%s: %s", loc, err.msg)
	if err.err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err.err)
	}
	return msg
}

func (err *FormatError) Unwrap() error    { return err.err }
func (err *FormatError) Kind() string     { return "FormatError" }
func (err *FormatError) FileName() string { return err.file }
func (err *FormatError) Line() int        { return err.line }

// Decorate adds dec to the decoration slice and returns it. An empty dec only returns the slice.
func (err *FormatError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}
