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

package job

import (
	"errors"
	"fmt"
)

// JobError is returned when a job is misused or can't be set up.
type JobError struct {
	msg  string
	deco []string
	err  error
}

func newError(err error, caller, format string, args ...interface{}) *JobError {
	return &JobError{msg: fmt.Sprintf(format, args...), deco: []string{caller}, err: err}
}

func (err *JobError) Error() string {
	if err.err != nil {
		return fmt.Sprintf("%s: %v", err.msg, err.err)
	}
	return err.msg
}

func (err *JobError) Unwrap() error { return err.err }
func (err *JobError) Kind() string  { return "JobError" }

// Decorate adds dec to the decoration slice and returns it. An empty dec only returns the slice.
func (err *JobError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// StepError carries the failure of one step. It is returned by Run after the
// remaining steps have been cancelled and the job finalized.
type StepError struct {
	Index int
	err   error
}

func (err *StepError) Error() string { return fmt.Sprintf("step %d: %v", err.Index, err.err) }
func (err *StepError) Unwrap() error { return err.err }

// Kind returns the kind of the underlying error, or StepError if it has none.
func (err *StepError) Kind() string {
	var k kinder
	if errors.As(err.err, &k) {
		return k.Kind()
	}
	return "StepError"
}

type kinder interface {
	Kind() string
}

// ErrorKind returns the kind of the first error in the chain of err that has one, or
// "Error" if none does.
func ErrorKind(err error) string {
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "Error"
}
