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

package configuration

import "fmt"

// ConfigurationError is returned when coordinates don't match the system, or when a periodic
// operation is requested on an aperiodic configuration, or the cell is singular.
type ConfigurationError struct {
	msg  string
	deco []string
}

func newError(caller, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...), deco: []string{caller}}
}

func (err *ConfigurationError) Error() string { return err.msg }

func (err *ConfigurationError) Kind() string { return "ConfigurationError" }

// Decorate adds dec to the decoration slice and returns it. An empty dec only returns the slice.
func (err *ConfigurationError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}
