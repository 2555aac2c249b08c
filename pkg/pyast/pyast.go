// Package pyast adapts tree-sitter parse trees of Python source into an
// arena-allocated node table with stable parent/child links and source
// spans. The arena owns every node; parent references are indices into the
// node table rather than pointers, so the tree stays acyclic from an
// ownership point of view and is immutable once built.
package pyast

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrMalformedInput is the sentinel for structurally invalid input: syntax
// errors, missing tokens, or degenerate spans. Analysis of the whole unit
// is abandoned when this is returned; no partial diagnostics are produced.
var ErrMalformedInput = errors.New("malformed input")

// MalformedInputError describes why a source file could not be adapted.
type MalformedInputError struct {
	Path   string
	Span   Span
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Span.StartLine, e.Span.StartCol, e.Reason)
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformedInput }

// NodeID indexes a node in a Tree's arena. The zero tree has no valid IDs.
type NodeID int32

// NoNode marks an absent node reference.
const NoNode NodeID = -1

// Span locates a node in the source. Lines are 1-based, columns 0-based
// byte offsets within the line, matching tree-sitter points.
type Span struct {
	StartLine int `json:"start_line" msgpack:"start_line"`
	StartCol  int `json:"start_col" msgpack:"start_col"`
	EndLine   int `json:"end_line" msgpack:"end_line"`
	EndCol    int `json:"end_col" msgpack:"end_col"`
}

// Before reports whether s starts strictly before other in source order.
func (s Span) Before(other Span) bool {
	if s.StartLine != other.StartLine {
		return s.StartLine < other.StartLine
	}
	return s.StartCol < other.StartCol
}

// Node is one entry of the arena. Children are stored in source order;
// Parent is a non-owning back-reference into the same arena.
type Node struct {
	Kind      Kind
	Role      Role
	Span      Span
	Parent    NodeID
	Children  []NodeID
	startByte uint32
	endByte   uint32
}

// Tree holds the adapted AST for one source file.
type Tree struct {
	Path  string
	src   []byte
	nodes []Node
	root  NodeID
}

// Parse adapts the given Python source into a Tree. It returns a
// MalformedInputError when the grammar reports syntax errors or missing
// tokens anywhere in the file.
func Parse(path string, src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	st := parser.Parse(nil, src)
	if st == nil {
		return nil, &MalformedInputError{Path: path, Reason: "parser produced no tree"}
	}
	defer st.Close()

	root := st.RootNode()
	if root.HasError() {
		span := firstErrorSpan(root)
		return nil, &MalformedInputError{Path: path, Span: span, Reason: "syntax error"}
	}

	t := &Tree{
		Path:  path,
		src:   src,
		nodes: make([]Node, 0, 256),
	}
	t.root = t.adopt(root, NoNode, RoleNone)
	return t, nil
}

// adopt copies a sitter node and its named descendants into the arena,
// returning the new node's ID.
func (t *Tree) adopt(n *sitter.Node, parent NodeID, role Role) NodeID {
	kind, ok := kindNames[n.Type()]
	if !ok {
		kind = KindOpaque
	}

	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		Kind:   kind,
		Role:   role,
		Parent: parent,
		Span: Span{
			StartLine: int(n.StartPoint().Row) + 1,
			StartCol:  int(n.StartPoint().Column),
			EndLine:   int(n.EndPoint().Row) + 1,
			EndCol:    int(n.EndPoint().Column),
		},
		startByte: n.StartByte(),
		endByte:   n.EndByte(),
	})

	roles := childRoles(n)
	count := int(n.NamedChildCount())
	children := make([]NodeID, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		children = append(children, t.adopt(child, id, roles(child)))
	}
	t.nodes[id].Children = children
	return id
}

// childRoles returns a resolver mapping each child of n to its role, based
// on the parent's field layout.
func childRoles(n *sitter.Node) func(*sitter.Node) Role {
	fields, ok := roleFields[n.Type()]
	if !ok {
		return func(*sitter.Node) Role { return RoleNone }
	}

	type byteRange struct{ start, end uint32 }
	resolved := make(map[byteRange]Role, len(fields))
	for _, f := range fields {
		if fn := n.ChildByFieldName(f.field); fn != nil {
			resolved[byteRange{fn.StartByte(), fn.EndByte()}] = f.role
		}
	}
	return func(child *sitter.Node) Role {
		return resolved[byteRange{child.StartByte(), child.EndByte()}]
	}
}

// firstErrorSpan locates the first ERROR or missing node for error reporting.
func firstErrorSpan(n *sitter.Node) Span {
	if n.IsError() || n.IsMissing() {
		return Span{
			StartLine: int(n.StartPoint().Row) + 1,
			StartCol:  int(n.StartPoint().Column),
			EndLine:   int(n.EndPoint().Row) + 1,
			EndCol:    int(n.EndPoint().Column),
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() {
			continue
		}
		return firstErrorSpan(child)
	}
	return Span{
		StartLine: int(n.StartPoint().Row) + 1,
		StartCol:  int(n.StartPoint().Column),
		EndLine:   int(n.EndPoint().Row) + 1,
		EndCol:    int(n.EndPoint().Column),
	}
}

// Root returns the module node.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

// Kind returns the kind of the given node.
func (t *Tree) Kind(id NodeID) Kind {
	if id == NoNode {
		return KindOpaque
	}
	return t.nodes[id].Kind
}

// Role returns the grammatical slot the node occupies within its parent.
func (t *Tree) Role(id NodeID) Role {
	if id == NoNode {
		return RoleNone
	}
	return t.nodes[id].Role
}

// Span returns the source span of the given node.
func (t *Tree) Span(id NodeID) Span { return t.nodes[id].Span }

// Parent returns the parent of id, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].Parent }

// Children returns the named children of id in source order. The returned
// slice is owned by the arena and must not be mutated.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].Children }

// Text returns the source text covered by the node.
func (t *Tree) Text(id NodeID) string {
	if id == NoNode {
		return ""
	}
	n := t.nodes[id]
	if int(n.startByte) >= len(t.src) || int(n.endByte) > len(t.src) {
		return ""
	}
	return string(t.src[n.startByte:n.endByte])
}

// ChildByRole returns the first child of id with the given role, or NoNode.
func (t *Tree) ChildByRole(id NodeID, role Role) NodeID {
	for _, c := range t.nodes[id].Children {
		if t.nodes[c].Role == role {
			return c
		}
	}
	return NoNode
}

// ChildrenOfKind returns the children of id with the given kind.
func (t *Tree) ChildrenOfKind(id NodeID, kind Kind) []NodeID {
	var out []NodeID
	for _, c := range t.nodes[id].Children {
		if t.nodes[c].Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits id and its descendants in pre-order. The callback returns
// whether to descend into the node's children.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if id == NoNode {
		return
	}
	if !fn(id) {
		return
	}
	for _, c := range t.nodes[id].Children {
		t.Walk(c, fn)
	}
}

// Ancestor returns the nearest ancestor of id with the given kind, or NoNode.
func (t *Tree) Ancestor(id NodeID, kind Kind) NodeID {
	for p := t.nodes[id].Parent; p != NoNode; p = t.nodes[p].Parent {
		if t.nodes[p].Kind == kind {
			return p
		}
	}
	return NoNode
}

// Depth returns the number of enclosing block nodes, a proxy for
// indentation depth.
func (t *Tree) Depth(id NodeID) int {
	depth := 0
	for p := t.nodes[id].Parent; p != NoNode; p = t.nodes[p].Parent {
		if t.nodes[p].Kind == KindBlock {
			depth++
		}
	}
	return depth
}
