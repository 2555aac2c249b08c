package checkers

import (
	"strconv"
	"strings"

	"github.com/l3aro/pycritic/pkg/pyast"
)

// FoldConstants evaluates the truthiness of every expression the folder can
// prove constant and returns node -> truth. Literals, not/and/or over known
// operands (with Python's short-circuit rules), integer comparisons, and
// parenthesized forms fold; everything else stays unknown. The result feeds
// both dead-branch detection on the CFG and the constant-condition checker.
func FoldConstants(t *pyast.Tree) map[pyast.NodeID]bool {
	f := &folder{tree: t, memo: make(map[pyast.NodeID]lattice)}
	consts := make(map[pyast.NodeID]bool)
	t.Walk(t.Root(), func(id pyast.NodeID) bool {
		if v := f.fold(id); v.known {
			consts[id] = v.truth
		}
		return true
	})
	return consts
}

type lattice struct {
	truth bool
	known bool
}

var unknown = lattice{}

func val(b bool) lattice { return lattice{truth: b, known: true} }

type folder struct {
	tree *pyast.Tree
	memo map[pyast.NodeID]lattice
}

func (f *folder) fold(id pyast.NodeID) lattice {
	if v, ok := f.memo[id]; ok {
		return v
	}
	v := f.eval(id)
	f.memo[id] = v
	return v
}

func (f *folder) eval(id pyast.NodeID) lattice {
	t := f.tree
	switch t.Kind(id) {
	case pyast.KindTrue:
		return val(true)
	case pyast.KindFalse, pyast.KindNone:
		return val(false)

	case pyast.KindInteger:
		if n, ok := intLiteral(t.Text(id)); ok {
			return val(n != 0)
		}
		// Too big for int64, therefore not zero.
		return val(true)

	case pyast.KindFloat:
		if x, err := strconv.ParseFloat(t.Text(id), 64); err == nil {
			return val(x != 0)
		}
		return unknown

	case pyast.KindString:
		return val(stringHasContent(t.Text(id)))

	case pyast.KindList, pyast.KindTuple, pyast.KindDict, pyast.KindSet:
		return val(len(t.Children(id)) > 0)

	case pyast.KindParen:
		if kids := t.Children(id); len(kids) == 1 {
			return f.fold(kids[0])
		}
		return unknown

	case pyast.KindNotOp:
		if kids := t.Children(id); len(kids) == 1 {
			if v := f.fold(kids[0]); v.known {
				return val(!v.truth)
			}
		}
		return unknown

	case pyast.KindBoolOp:
		return f.evalBoolOp(id)

	case pyast.KindCompare:
		return f.evalCompare(id)

	case pyast.KindUnaryOp:
		// Sign preserves zero-ness; bitwise not does not.
		op := t.Text(id)
		if kids := t.Children(id); len(kids) == 1 && len(op) > 0 && (op[0] == '-' || op[0] == '+') {
			return f.fold(kids[0])
		}
		return unknown
	}
	return unknown
}

func (f *folder) evalBoolOp(id pyast.NodeID) lattice {
	t := f.tree
	kids := t.Children(id)
	if len(kids) != 2 {
		return unknown
	}
	left, right := f.fold(kids[0]), f.fold(kids[1])
	switch operatorText(t, id, kids[0], kids[1]) {
	case "and":
		if left.known && !left.truth {
			return val(false)
		}
		if left.known && right.known {
			return val(left.truth && right.truth)
		}
	case "or":
		if left.known && left.truth {
			return val(true)
		}
		if left.known && right.known {
			return val(left.truth || right.truth)
		}
	}
	return unknown
}

func (f *folder) evalCompare(id pyast.NodeID) lattice {
	t := f.tree
	kids := t.Children(id)
	if len(kids) != 2 {
		return unknown
	}
	l, lok := f.intValue(kids[0])
	r, rok := f.intValue(kids[1])
	if !lok || !rok {
		return unknown
	}
	switch operatorText(t, id, kids[0], kids[1]) {
	case "==":
		return val(l == r)
	case "!=":
		return val(l != r)
	case "<":
		return val(l < r)
	case "<=":
		return val(l <= r)
	case ">":
		return val(l > r)
	case ">=":
		return val(l >= r)
	}
	return unknown
}

// intValue extracts an integer literal's value, looking through a sign and
// parentheses.
func (f *folder) intValue(id pyast.NodeID) (int64, bool) {
	t := f.tree
	switch t.Kind(id) {
	case pyast.KindInteger:
		return intLiteral(t.Text(id))
	case pyast.KindParen:
		if kids := t.Children(id); len(kids) == 1 {
			return f.intValue(kids[0])
		}
	case pyast.KindUnaryOp:
		op := t.Text(id)
		if kids := t.Children(id); len(kids) == 1 && len(op) > 0 {
			n, ok := f.intValue(kids[0])
			if !ok {
				return 0, false
			}
			switch op[0] {
			case '-':
				return -n, true
			case '+':
				return n, true
			}
		}
	}
	return 0, false
}

func intLiteral(text string) (int64, bool) {
	text = strings.ReplaceAll(text, "_", "")
	n, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// operatorText recovers the operator token sitting between two operands.
// The arena keeps only named children, so the token is sliced out of the
// parent's source text.
func operatorText(t *pyast.Tree, parent, left, right pyast.NodeID) string {
	full := t.Text(parent)
	lText, rText := t.Text(left), t.Text(right)
	if len(lText)+len(rText) >= len(full) {
		return ""
	}
	return strings.TrimSpace(full[len(lText) : len(full)-len(rText)])
}

// stringHasContent reports whether a string literal holds anything besides
// its quotes and prefix letters.
func stringHasContent(text string) bool {
	text = strings.TrimLeft(text, "rbfuRBFU")
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return len(text) > 2*len(q)
		}
	}
	return len(text) > 0
}
