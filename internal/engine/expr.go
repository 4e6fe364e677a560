package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/msalah0e/pdbview/internal/structure"
)

// ErrBadExpression is returned for selection text the evaluator cannot read.
var ErrBadExpression = errors.New("bad selection expression")

// Compile turns a selection expression into an atom predicate.
//
// The language is a list of "key value[,value...]" terms joined with and/or,
// with not and parentheses. Keys: resn, origresn, name, elem, chain, serial,
// resi. serial and resi take numbers or a-b ranges. The bare words all,
// protein, water and het are terms on their own.
func Compile(expr string) (func(structure.Atom) bool, error) {
	p := &exprParser{toks: tokenize(expr)}
	if len(p.toks) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrBadExpression)
	}
	m, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("%w: unexpected %q", ErrBadExpression, p.toks[p.pos])
	}
	return m, nil
}

type atomMatch func(structure.Atom) bool

type exprParser struct {
	toks []string
	pos  int
}

func tokenize(s string) []string {
	s = strings.NewReplacer("(", " ( ", ")", " ) ").Replace(s)
	return strings.Fields(s)
}

func (p *exprParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *exprParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *exprParser) or() (atomMatch, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for strings.EqualFold(p.peek(), "or") {
		p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(a structure.Atom) bool { return l(a) || right(a) }
	}
	return left, nil
}

func (p *exprParser) and() (atomMatch, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for strings.EqualFold(p.peek(), "and") {
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(a structure.Atom) bool { return l(a) && right(a) }
	}
	return left, nil
}

func (p *exprParser) unary() (atomMatch, error) {
	tok := p.next()
	switch strings.ToLower(tok) {
	case "":
		return nil, fmt.Errorf("%w: unexpected end", ErrBadExpression)
	case "not":
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return func(a structure.Atom) bool { return !inner(a) }, nil
	case "(":
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if p.next() != ")" {
			return nil, fmt.Errorf("%w: missing )", ErrBadExpression)
		}
		return inner, nil
	case "all":
		return func(structure.Atom) bool { return true }, nil
	case "protein":
		return func(a structure.Atom) bool { return a.Class() == structure.ClassProtein }, nil
	case "water":
		return func(a structure.Atom) bool { return a.Class() == structure.ClassWater }, nil
	case "het":
		return func(a structure.Atom) bool { return a.Het }, nil
	}
	return p.term(strings.ToLower(tok))
}

func (p *exprParser) term(key string) (atomMatch, error) {
	raw := p.next()
	if raw == "" || raw == "(" || raw == ")" {
		return nil, fmt.Errorf("%w: %s needs a value", ErrBadExpression, key)
	}
	values := strings.Split(raw, ",")

	var field func(structure.Atom) string
	switch key {
	case "resn":
		field = func(a structure.Atom) string { return a.ResName }
	case "origresn":
		field = func(a structure.Atom) string { return a.OrigResName }
	case "name":
		field = func(a structure.Atom) string { return a.Name }
	case "elem":
		field = func(a structure.Atom) string { return a.Element }
	case "chain":
		field = func(a structure.Atom) string { return a.Chain }
	case "serial":
		return numberTerm(key, values, func(a structure.Atom) int { return a.Serial })
	case "resi":
		return numberTerm(key, values, func(a structure.Atom) int { return a.ResSeq })
	default:
		return nil, fmt.Errorf("%w: unknown key %q", ErrBadExpression, key)
	}

	return func(a structure.Atom) bool {
		v := field(a)
		for _, want := range values {
			if strings.EqualFold(v, want) {
				return true
			}
		}
		return false
	}, nil
}

type numRange struct{ lo, hi int }

func numberTerm(key string, values []string, field func(structure.Atom) int) (atomMatch, error) {
	ranges := make([]numRange, 0, len(values))
	for _, v := range values {
		lo, hi, isRange := strings.Cut(v, "-")
		from, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q", ErrBadExpression, key, v)
		}
		to := from
		if isRange {
			if to, err = strconv.Atoi(hi); err != nil {
				return nil, fmt.Errorf("%w: %s %q", ErrBadExpression, key, v)
			}
		}
		ranges = append(ranges, numRange{from, to})
	}
	return func(a structure.Atom) bool {
		n := field(a)
		for _, r := range ranges {
			if n >= r.lo && n <= r.hi {
				return true
			}
		}
		return false
	}, nil
}
