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

package traj

import "fmt"

// TrajectoryError is returned for invalid frame indexes, for writes past the declared
// number of frames and for corrupted containers.
type TrajectoryError struct {
	message  string
	filename string
	deco     []string
	err      error
}

func newError(filename, caller, format string, args ...interface{}) *TrajectoryError {
	return &TrajectoryError{message: fmt.Sprintf(format, args...), filename: filename, deco: []string{caller}}
}

func wrapError(err error, filename, caller, format string, args ...interface{}) *TrajectoryError {
	e := newError(filename, caller, format, args...)
	e.err = err
	return e
}

func (err *TrajectoryError) Error() string {
	msg := err.message
	if err.filename != "" {
		msg = fmt.Sprintf("%s: %s", err.filename, msg)
	}
	if err.err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err.err)
	}
	return msg
}

func (err *TrajectoryError) Unwrap() error    { return err.err }
func (err *TrajectoryError) Kind() string     { return "TrajectoryError" }
func (err *TrajectoryError) FileName() string { return err.filename }

// Decorate adds dec to the decoration slice and returns it. An empty dec only returns the slice.
func (err *TrajectoryError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}
