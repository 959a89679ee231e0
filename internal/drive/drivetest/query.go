package drivetest

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/drivepath/internal/drive"
)

// predicate is a compiled Drive query.
type predicate interface {
	match(s *Store, o *drive.RemoteObject) bool
}

type compiled struct {
	root    predicate
	inParts []string
}

func (c *compiled) match(s *Store, o *drive.RemoteObject) bool {
	if c.root == nil {
		return true
	}
	return c.root.match(s, o)
}

// parents returns the IDs named by "in parents" conditions.
func (c *compiled) parents() []string {
	return c.inParts
}

func compile(q string) (*compiled, error) {
	toks, err := tokenize(q)
	if err != nil {
		return nil, err
	}
	c := &compiled{}
	if len(toks) == 0 {
		return c, nil
	}
	p := &parser{toks: toks, out: c}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("unexpected %q", p.peek().text)
	}
	c.root = root
	return c, nil
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(q string) ([]token, error) {
	var toks []token
	for i := 0; i < len(q); {
		c := q[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case c == '\'':
			var b strings.Builder
			i++
			closed := false
			for i < len(q) {
				if q[i] == '\\' && i+1 < len(q) {
					b.WriteByte(q[i+1])
					i += 2
					continue
				}
				if q[i] == '\'' {
					closed = true
					i++
					break
				}
				b.WriteByte(q[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string")
			}
			toks = append(toks, token{kind: tokString, text: b.String()})
		case c == '=' || c == '!' || c == '<' || c == '>':
			j := i + 1
			if j < len(q) && q[j] == '=' {
				j++
			}
			op := q[i:j]
			if op == "!" {
				return nil, fmt.Errorf("invalid operator %q", op)
			}
			toks = append(toks, token{kind: tokOp, text: op})
			i = j
		default:
			j := i
			for j < len(q) && !strings.ContainsRune(" \t\n()'=!<>", rune(q[j])) {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: q[i:j]})
			i = j
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
	out  *compiled
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token {
	if p.done() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *parser) next() (token, error) {
	if p.done() {
		return token{}, fmt.Errorf("unexpected end of query")
	}
	t := p.toks[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) keyword(word string) bool {
	t := p.peek()
	if t.kind == tokWord && strings.EqualFold(t.text, word) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (predicate, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orPred{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (predicate, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.keyword("and") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andPred{left, right}
	}
	return left, nil
}

func (p *parser) parseUnary() (predicate, error) {
	if p.keyword("not") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notPred{inner}, nil
	}
	if p.peek().kind == tokLParen {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		t, err := p.next()
		if err != nil || t.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	}
	return p.parseCondition()
}

func (p *parser) parseCondition() (predicate, error) {
	lhs, err := p.next()
	if err != nil {
		return nil, err
	}

	// 'value' in parents | 'me' in owners
	if lhs.kind == tokString {
		if !p.keyword("in") {
			return nil, fmt.Errorf("expected 'in' after %q", lhs.text)
		}
		field, err := p.next()
		if err != nil {
			return nil, err
		}
		switch field.text {
		case "parents":
			p.out.inParts = append(p.out.inParts, lhs.text)
			return inParentsPred{id: lhs.text}, nil
		case "owners":
			if lhs.text != "me" {
				return nil, fmt.Errorf("only 'me' in owners is supported")
			}
			return ownedByMePred{}, nil
		default:
			return nil, fmt.Errorf("unsupported collection %q", field.text)
		}
	}
	if lhs.kind != tokWord {
		return nil, fmt.Errorf("unexpected %q", lhs.text)
	}

	var op string
	if p.keyword("contains") {
		op = "contains"
	} else {
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		if t.kind != tokOp {
			return nil, fmt.Errorf("expected operator after %q", lhs.text)
		}
		op = t.text
	}

	val, err := p.next()
	if err != nil {
		return nil, err
	}
	if val.kind != tokString && val.kind != tokWord {
		return nil, fmt.Errorf("unexpected %q", val.text)
	}

	return newFieldPred(lhs.text, op, val)
}

type andPred struct{ l, r predicate }

func (a andPred) match(s *Store, o *drive.RemoteObject) bool {
	return a.l.match(s, o) && a.r.match(s, o)
}

type orPred struct{ l, r predicate }

func (a orPred) match(s *Store, o *drive.RemoteObject) bool {
	return a.l.match(s, o) || a.r.match(s, o)
}

type notPred struct{ inner predicate }

func (n notPred) match(s *Store, o *drive.RemoteObject) bool {
	return !n.inner.match(s, o)
}

type inParentsPred struct{ id string }

func (p inParentsPred) match(s *Store, o *drive.RemoteObject) bool {
	return o.HasParent(s.resolveAlias(p.id))
}

type ownedByMePred struct{}

func (ownedByMePred) match(_ *Store, o *drive.RemoteObject) bool {
	return o.Sharing.OwnedByMe
}

type fieldPred struct {
	field string
	op    string
	str   string
	when  time.Time
	flag  bool
}

func newFieldPred(field, op string, val token) (predicate, error) {
	f := fieldPred{field: field, op: op, str: val.text}
	switch field {
	case "name", "mimeType":
		if op != "=" && op != "!=" && op != "contains" {
			return nil, fmt.Errorf("operator %s not supported for %s", op, field)
		}
	case "fullText":
		if op != "contains" {
			return nil, fmt.Errorf("operator %s not supported for fullText", op)
		}
	case "trashed", "starred":
		if op != "=" && op != "!=" {
			return nil, fmt.Errorf("operator %s not supported for %s", op, field)
		}
		switch val.text {
		case "true":
			f.flag = true
		case "false":
		default:
			return nil, fmt.Errorf("invalid boolean %q", val.text)
		}
	case "modifiedTime", "createdTime":
		t, err := time.Parse(time.RFC3339, val.text)
		if err != nil {
			return nil, fmt.Errorf("invalid time %q", val.text)
		}
		f.when = t
	default:
		return nil, fmt.Errorf("unsupported field %q", field)
	}
	return f, nil
}

func (f fieldPred) match(s *Store, o *drive.RemoteObject) bool {
	switch f.field {
	case "name":
		return matchString(o.Name, f.op, f.str)
	case "mimeType":
		return matchString(o.MimeType, f.op, f.str)
	case "fullText":
		needle := strings.ToLower(f.str)
		return strings.Contains(strings.ToLower(o.Name), needle) ||
			strings.Contains(strings.ToLower(string(s.content[o.ID])), needle)
	case "trashed":
		return (o.Trashed == f.flag) == (f.op == "=")
	case "starred":
		return (!f.flag) == (f.op == "=")
	case "modifiedTime":
		return compareTime(o.ModifiedTime, f.op, f.when)
	case "createdTime":
		return compareTime(o.CreatedTime, f.op, f.when)
	}
	return false
}

func matchString(have, op, want string) bool {
	switch op {
	case "=":
		return have == want
	case "!=":
		return have != want
	case "contains":
		return strings.Contains(strings.ToLower(have), strings.ToLower(want))
	}
	return false
}

func compareTime(have time.Time, op string, want time.Time) bool {
	switch op {
	case "=":
		return have.Equal(want)
	case "!=":
		return !have.Equal(want)
	case ">":
		return have.After(want)
	case ">=":
		return !have.Before(want)
	case "<":
		return have.Before(want)
	case "<=":
		return !have.After(want)
	}
	return false
}
