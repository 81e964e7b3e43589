/*
 * doc.go, part of gotraj.
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

/*Package chem is the core of gotraj, a toolkit for the analysis of molecular dynamics trajectories.
It provides the element database, the chemical entity tree (atoms, atom clusters, molecules,
residues, nucleotides and the chains and proteins built from them), a small SMARTS-like
substructure matcher and the serialization of chemical systems.

	**gotraj packages**

    configuration: unit cells, real and box configurations, folding and unwrapping of molecules,
	bond detection.

    traj: a random-access trajectory container, with per-frame compression and narrow floating
	point types, its writer and its reader.

    job, configurators, status: the framework that configures, runs (on one goroutine or on
	a pool of them), and reports the progress of, analyses and conversions.

    selection: an expression language to pick atoms from a chemical system.

    converters: DL_POLY and LAMMPS trajectories to gotraj trajectories.

    analysis: van Hove self function, mean square displacement, velocity autocorrelation,
	pair distribution function, unfolded trajectories.

    output: mdh, ascii (tar) and toml result files.

Coordinates are kept in v3.Matrix blocks, where each row is one point in space, in nm.
Times are in ps.*/
package chem
