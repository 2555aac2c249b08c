// Package cfg builds and analyzes control-flow graphs over Python
// function and module bodies. A graph is built fresh per analysis run from
// the current AST snapshot and discarded once diagnostics are extracted.
package cfg

import (
	"github.com/l3aro/pycritic/pkg/pyast"
)

// EdgeKind classifies a control-flow edge.
type EdgeKind string

const (
	EdgeUnconditional EdgeKind = "unconditional"
	EdgeTrue          EdgeKind = "true-branch"
	EdgeFalse         EdgeKind = "false-branch"
	EdgeLoopBack      EdgeKind = "loop-back"
	EdgeException     EdgeKind = "exception"
)

// BlockID indexes a block within its owning graph. Edges never cross
// graphs, so an ID is only meaningful paired with the graph it came from.
type BlockID int

// NoBlock marks an absent block reference.
const NoBlock BlockID = -1

// Edge is a directed relation between two blocks of the same graph.
type Edge struct {
	From BlockID
	To   BlockID
	Kind EdgeKind
}

// ReturnKind records how a block leaves the function, if it does.
type ReturnKind uint8

const (
	ReturnNone  ReturnKind = iota // block does not return
	ReturnBare                    // `return` with no value (implicit None)
	ReturnValue                   // `return expr`
)

// Block is a maximal straight-line run of statements: one entry, one exit,
// no internal branching. Statements reference nodes in the unit's AST.
type Block struct {
	ID          BlockID
	Stmts       []pyast.NodeID
	Out         []Edge
	HasTerminal bool // ends in return/raise/break/continue
	Return      ReturnKind
}

// LoopHead pairs a loop-header block with the loop statement it came from.
type LoopHead struct {
	Header BlockID
	Node   pyast.NodeID
}

// Graph owns all blocks and edges for one function or module body. The
// entry block has no incoming edges. Exits collects the blocks that leave
// the unit: explicit return blocks plus the implicit fall-off block. A
// function whose only path is an infinite loop legitimately has an empty
// exit set.
type Graph struct {
	Unit      pyast.Unit
	Blocks    []*Block
	Entry     BlockID
	Exits     []BlockID
	FallOff   BlockID // implicit exit block, NoBlock if every path terminates
	LoopHeads []LoopHead

	tree *pyast.Tree
}

// Tree returns the AST snapshot the graph was built from.
func (g *Graph) Tree() *pyast.Tree { return g.tree }

// Block returns the block with the given ID.
func (g *Graph) Block(id BlockID) *Block { return g.Blocks[id] }

// Edges returns every edge in the graph, flattened in block order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, b := range g.Blocks {
		edges = append(edges, b.Out...)
	}
	return edges
}

// Preds computes the predecessor lists for every block.
func (g *Graph) Preds() map[BlockID][]BlockID {
	preds := make(map[BlockID][]BlockID, len(g.Blocks))
	for _, b := range g.Blocks {
		for _, e := range b.Out {
			preds[e.To] = append(preds[e.To], e.From)
		}
	}
	return preds
}

// FirstSpan returns the source span of the block's first statement.
func (g *Graph) FirstSpan(id BlockID) (pyast.Span, bool) {
	b := g.Blocks[id]
	if len(b.Stmts) == 0 {
		return pyast.Span{}, false
	}
	return g.tree.Span(b.Stmts[0]), true
}

// CyclomaticComplexity computes E - N + 2 over the graph.
func (g *Graph) CyclomaticComplexity() int {
	edges := 0
	for _, b := range g.Blocks {
		edges += len(b.Out)
	}
	c := edges - len(g.Blocks) + 2
	if c < 1 {
		return 1
	}
	return c
}
