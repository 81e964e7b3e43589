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

package configurators

import "fmt"

// ConfiguratorError is returned when a configurator rejects its input, and when a
// set of settings is inconsistent (unknown kinds, missing or cyclic dependencies).
type ConfiguratorError struct {
	msg  string
	conf Configurator
	name string
	deco []string
	err  error
}

func newError(c Configurator, caller, format string, args ...interface{}) *ConfiguratorError {
	e := &ConfiguratorError{msg: fmt.Sprintf(format, args...), conf: c, deco: []string{caller}}
	if c != nil {
		e.name = c.Name()
	}
	return e
}

func wrapError(err error, c Configurator, caller, format string, args ...interface{}) *ConfiguratorError {
	e := newError(c, caller, format, args...)
	e.err = err
	return e
}

func (err *ConfiguratorError) Error() string {
	msg := err.msg
	if err.name != "" {
		msg = fmt.Sprintf("%s: %s", err.name, msg)
	}
	if err.err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err.err)
	}
	return msg
}

func (err *ConfiguratorError) Unwrap() error { return err.err }
func (err *ConfiguratorError) Kind() string  { return "ConfiguratorError" }

// Configurator returns the configurator that failed, or nil if the error is not tied to one.
func (err *ConfiguratorError) Configurator() Configurator { return err.conf }

// Decorate adds dec to the decoration slice and returns it. An empty dec only returns the slice.
func (err *ConfiguratorError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}
