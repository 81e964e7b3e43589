/*
 * parser.go, part of gotraj.
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

package selection

import (
	"strings"

	chem "github.com/rmera/gotraj"
)

// Node is a parsed selection expression.
type Node interface {
	eval(S *chem.ChemicalSystem, expr string) (set, error)
	String() string
}

type set []bool

func (s set) indexes() []int {
	ret := make([]int, 0, len(s))
	for i, v := range s {
		if v {
			ret = append(ret, i)
		}
	}
	return ret
}

type andNode struct{ l, r Node }
type orNode struct{ l, r Node }
type notNode struct{ x Node }
type callNode struct {
	name string
	args []string
	pos  int
}

func (n andNode) String() string { return "(" + n.l.String() + " and " + n.r.String() + ")" }
func (n orNode) String() string  { return "(" + n.l.String() + " or " + n.r.String() + ")" }
func (n notNode) String() string { return "not " + n.x.String() }
func (n callNode) String() string {
	return n.name + "(" + strings.Join(n.args, ", ") + ")"
}

func (n andNode) eval(S *chem.ChemicalSystem, expr string) (set, error) {
	a, err := n.l.eval(S, expr)
	if err != nil {
		return nil, err
	}
	b, err := n.r.eval(S, expr)
	if err != nil {
		return nil, err
	}
	for i := range a {
		a[i] = a[i] && b[i]
	}
	return a, nil
}

func (n orNode) eval(S *chem.ChemicalSystem, expr string) (set, error) {
	a, err := n.l.eval(S, expr)
	if err != nil {
		return nil, err
	}
	b, err := n.r.eval(S, expr)
	if err != nil {
		return nil, err
	}
	for i := range a {
		a[i] = a[i] || b[i]
	}
	return a, nil
}

func (n notNode) eval(S *chem.ChemicalSystem, expr string) (set, error) {
	a, err := n.x.eval(S, expr)
	if err != nil {
		return nil, err
	}
	for i := range a {
		a[i] = !a[i]
	}
	return a, nil
}

func (n callNode) eval(S *chem.ChemicalSystem, expr string) (set, error) {
	sel, ok := lookup(n.name)
	if !ok {
		return nil, newError(expr, n.pos, "eval", "unknown selector %q", n.name)
	}
	s := make(set, S.Len())
	if err := sel(S, n.args, s); err != nil {
		return nil, newError(expr, n.pos, "eval", "%s: %v", n.name, err)
	}
	return s, nil
}

type parser struct {
	expr string
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tEOF {
		p.i++
	}
	return t
}

// Parse parses expr. Precedence is not > and > or, all three are left associative.
// Selector names are checked at parse time, so unknown names are rejected before evaluation.
func Parse(expr string) (Node, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{expr: expr, toks: toks}
	if p.peek().kind == tEOF {
		return nil, newError(expr, 0, "Parse", "empty expression")
	}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tEOF {
		return nil, newError(expr, t.pos, "Parse", "unexpected %q", t.text)
	}
	return n, nil
}

func (p *parser) or() (Node, error) {
	l, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tOr {
		p.next()
		r, err := p.and()
		if err != nil {
			return nil, err
		}
		l = orNode{l, r}
	}
	return l, nil
}

func (p *parser) and() (Node, error) {
	l, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tAnd {
		p.next()
		r, err := p.not()
		if err != nil {
			return nil, err
		}
		l = andNode{l, r}
	}
	return l, nil
}

func (p *parser) not() (Node, error) {
	if p.peek().kind == tNot {
		p.next()
		x, err := p.not()
		if err != nil {
			return nil, err
		}
		return notNode{x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tOpen:
		n, err := p.or()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tClose {
			return nil, newError(p.expr, c.pos, "Parse", "expected ')'")
		}
		return n, nil
	case tWord:
	default:
		if t.kind == tEOF {
			return nil, newError(p.expr, t.pos, "Parse", "unexpected end of expression")
		}
		return nil, newError(p.expr, t.pos, "Parse", "unexpected %q", t.text)
	}
	name := strings.ToLower(t.text)
	if _, ok := lookup(name); !ok {
		return nil, newError(p.expr, t.pos, "Parse", "unknown selector %q", t.text)
	}
	call := callNode{name: name, pos: t.pos}
	var err error
	if p.peek().kind == tOpen {
		p.next()
		if p.peek().kind == tClose {
			p.next()
			return call, nil
		}
		if call.args, err = p.args(); err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tClose {
			return nil, newError(p.expr, c.pos, "Parse", "expected ')' after the arguments of %s", name)
		}
		return call, nil
	}
	//bare arguments: chain_name A, B
	if p.peek().kind == tWord {
		if call.args, err = p.args(); err != nil {
			return nil, err
		}
	}
	return call, nil
}

func (p *parser) args() ([]string, error) {
	var ret []string
	for {
		t := p.next()
		if t.kind != tWord {
			return nil, newError(p.expr, t.pos, "Parse", "expected an argument")
		}
		ret = append(ret, t.text)
		if p.peek().kind != tComma {
			return ret, nil
		}
		p.next()
	}
}
