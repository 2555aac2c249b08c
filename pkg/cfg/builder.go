package cfg

import (
	"github.com/l3aro/pycritic/pkg/pyast"
)

// Build constructs the control-flow graph for one unit. It is a pure
// function of the AST: no state survives the call and the tree is never
// mutated. The second return value lists recognized-but-unmodeled
// constructs (currently match statements) that were conservatively folded
// into a single opaque block; callers surface these as analysis-incomplete
// diagnostics rather than dropping reachability information.
func Build(tree *pyast.Tree, unit pyast.Unit) (*Graph, []pyast.NodeID) {
	b := &builder{
		tree: tree,
		g:    &Graph{Unit: unit, FallOff: NoBlock, tree: tree},
	}

	entry := b.newBlock()
	b.g.Entry = entry.ID
	b.cur = entry

	b.processBody(unit.Body)

	// Flow that reaches the end of the body falls off into an implicit
	// exit: for functions this is the implicit `return None`. A dangling
	// block that entry cannot reach (e.g. the block after an infinite
	// loop) is not a real exit path, which is what gives `while True`
	// with no break its empty exit set.
	if b.cur != nil && b.reachableFromEntry(b.cur.ID) {
		b.g.FallOff = b.cur.ID
		b.g.Exits = append(b.g.Exits, b.cur.ID)
	}

	return b.g, b.incomplete
}

// loopFrame tracks the jump targets of the innermost enclosing loop.
type loopFrame struct {
	header *Block // continue target
	after  *Block // break target
}

type builder struct {
	tree       *pyast.Tree
	g          *Graph
	cur        *Block // nil while flow is dead (after a terminal statement)
	loops      []loopFrame
	incomplete []pyast.NodeID
}

func (b *builder) newBlock() *Block {
	blk := &Block{ID: BlockID(len(b.g.Blocks))}
	b.g.Blocks = append(b.g.Blocks, blk)
	return blk
}

func (b *builder) edge(from, to *Block, kind EdgeKind) {
	from.Out = append(from.Out, Edge{From: from.ID, To: to.ID, Kind: kind})
}

// stmt appends a statement node to the current block, starting a fresh
// block when flow is dead. A fresh block opened this way has no incoming
// edges, which is precisely what lets the reachability analysis flag code
// after an unconditional return.
func (b *builder) stmt(id pyast.NodeID) {
	if b.cur == nil {
		b.cur = b.newBlock()
	}
	b.cur.Stmts = append(b.cur.Stmts, id)
}

// processBody walks the statements of a block node in source order.
func (b *builder) processBody(body pyast.NodeID) {
	if body == pyast.NoNode {
		return
	}
	for _, child := range b.tree.Children(body) {
		b.processStmt(child)
	}
}

func (b *builder) processStmt(id pyast.NodeID) {
	switch b.tree.Kind(id) {
	case pyast.KindComment:
		// not a statement

	case pyast.KindIf:
		b.processIf(id)

	case pyast.KindWhile:
		b.processWhile(id)

	case pyast.KindFor:
		b.processFor(id)

	case pyast.KindTry:
		b.processTry(id)

	case pyast.KindWith:
		// The with header runs in the current flow; the body continues it.
		b.stmt(id)
		b.processBody(b.tree.ChildByRole(id, pyast.RoleBody))

	case pyast.KindReturn:
		b.stmt(id)
		b.cur.HasTerminal = true
		if len(b.tree.Children(id)) > 0 {
			b.cur.Return = ReturnValue
		} else {
			b.cur.Return = ReturnBare
		}
		b.g.Exits = append(b.g.Exits, b.cur.ID)
		b.cur = nil

	case pyast.KindRaise:
		// Terminal but not an exit: the unit is left exceptionally.
		b.stmt(id)
		b.cur.HasTerminal = true
		b.cur = nil

	case pyast.KindBreak:
		b.stmt(id)
		b.cur.HasTerminal = true
		if frame := b.innerLoop(); frame != nil {
			b.edge(b.cur, frame.after, EdgeUnconditional)
		}
		b.cur = nil

	case pyast.KindContinue:
		b.stmt(id)
		b.cur.HasTerminal = true
		if frame := b.innerLoop(); frame != nil {
			b.edge(b.cur, frame.header, EdgeLoopBack)
		}
		b.cur = nil

	case pyast.KindMatch:
		// Recognized but unmodeled: fold into an opaque single-block
		// statement so reachability is preserved, and record the loss of
		// precision for the caller.
		b.stmt(id)
		b.incomplete = append(b.incomplete, id)

	case pyast.KindFunctionDef, pyast.KindClassDef, pyast.KindDecoratedDef:
		// Nested bodies are their own analysis units; here the def is just
		// a binding statement.
		b.stmt(id)

	default:
		b.stmt(id)
	}
}

// processIf lowers an if/elif/else chain. The condition closes the current
// block; each arm gets its own successor block; arms that do not terminate
// converge on a join block.
func (b *builder) processIf(id pyast.NodeID) {
	cond := b.tree.ChildByRole(id, pyast.RoleCondition)
	if cond == pyast.NoNode {
		cond = id
	}
	b.stmt(cond)
	branch := b.cur
	b.cur = nil

	then := b.newBlock()
	b.edge(branch, then, EdgeTrue)
	b.cur = then
	b.processBody(b.tree.ChildByRole(id, pyast.RoleBody))

	armEnds := []*Block{b.cur}
	prevBranch := branch
	hasElse := false

	for _, alt := range b.tree.Children(id) {
		switch b.tree.Kind(alt) {
		case pyast.KindElif:
			elifBranch := b.newBlock()
			elifBranch.Stmts = append(elifBranch.Stmts, b.tree.ChildByRole(alt, pyast.RoleCondition))
			b.edge(prevBranch, elifBranch, EdgeFalse)

			arm := b.newBlock()
			b.edge(elifBranch, arm, EdgeTrue)
			b.cur = arm
			b.processBody(b.tree.ChildByRole(alt, pyast.RoleBody))
			armEnds = append(armEnds, b.cur)
			prevBranch = elifBranch

		case pyast.KindElse:
			hasElse = true
			arm := b.newBlock()
			b.edge(prevBranch, arm, EdgeFalse)
			b.cur = arm
			b.processBody(b.tree.ChildByRole(alt, pyast.RoleBody))
			armEnds = append(armEnds, b.cur)
		}
	}

	var join *Block
	joinOf := func() *Block {
		if join == nil {
			join = b.newBlock()
		}
		return join
	}

	// Without an else, the last condition's false edge falls through.
	if !hasElse {
		b.edge(prevBranch, joinOf(), EdgeFalse)
	}
	for _, end := range armEnds {
		if end != nil {
			b.edge(end, joinOf(), EdgeUnconditional)
		}
	}
	b.cur = join // nil when every arm terminated and an else exists
}

// processWhile lowers a while loop: a header block holding the condition,
// a true edge into the body, a loop-back edge from the body's end, and a
// false edge out to the else clause or the code after the loop. A literal
// `while True` gets no false edge, so a loop without break yields an empty
// exit set rather than a spurious exit path.
func (b *builder) processWhile(id pyast.NodeID) {
	cond := b.tree.ChildByRole(id, pyast.RoleCondition)

	header := b.newBlock()
	header.Stmts = append(header.Stmts, cond)
	if b.cur != nil {
		b.edge(b.cur, header, EdgeUnconditional)
	}
	b.g.LoopHeads = append(b.g.LoopHeads, LoopHead{Header: header.ID, Node: id})

	body := b.newBlock()
	b.edge(header, body, EdgeTrue)
	after := b.newBlock()

	if !b.alwaysTrue(cond) {
		exit := after
		if elseClause := b.firstChildOfKind(id, pyast.KindElse); elseClause != pyast.NoNode {
			elseBlock := b.newBlock()
			b.edge(header, elseBlock, EdgeFalse)
			b.cur = elseBlock
			b.processBody(b.tree.ChildByRole(elseClause, pyast.RoleBody))
			if b.cur != nil {
				b.edge(b.cur, exit, EdgeUnconditional)
			}
		} else {
			b.edge(header, exit, EdgeFalse)
		}
	}

	b.loops = append(b.loops, loopFrame{header: header, after: after})
	b.cur = body
	b.processBody(b.tree.ChildByRole(id, pyast.RoleBody))
	if b.cur != nil {
		b.edge(b.cur, header, EdgeLoopBack)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.cur = after
}

// processFor lowers a for loop the same way as while, with the iteration
// header standing in for the condition. The false edge models iterator
// exhaustion.
func (b *builder) processFor(id pyast.NodeID) {
	header := b.newBlock()
	header.Stmts = append(header.Stmts, id)
	if b.cur != nil {
		b.edge(b.cur, header, EdgeUnconditional)
	}
	b.g.LoopHeads = append(b.g.LoopHeads, LoopHead{Header: header.ID, Node: id})

	body := b.newBlock()
	b.edge(header, body, EdgeTrue)
	after := b.newBlock()

	if elseClause := b.firstChildOfKind(id, pyast.KindElse); elseClause != pyast.NoNode {
		elseBlock := b.newBlock()
		b.edge(header, elseBlock, EdgeFalse)
		b.cur = elseBlock
		b.processBody(b.tree.ChildByRole(elseClause, pyast.RoleBody))
		if b.cur != nil {
			b.edge(b.cur, after, EdgeUnconditional)
		}
	} else {
		b.edge(header, after, EdgeFalse)
	}

	b.loops = append(b.loops, loopFrame{header: header, after: after})
	b.cur = body
	b.processBody(b.tree.ChildByRole(id, pyast.RoleBody))
	if b.cur != nil {
		b.edge(b.cur, header, EdgeLoopBack)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.cur = after
}

// processTry lowers try/except/else/finally. Every block created inside
// the protected region gets an exception edge to each handler's entry, so
// a handler is reachable from any point where an exception can surface.
func (b *builder) processTry(id pyast.NodeID) {
	tryEntry := b.newBlock()
	if b.cur != nil {
		b.edge(b.cur, tryEntry, EdgeUnconditional)
	}

	protectedStart := len(b.g.Blocks) - 1
	b.cur = tryEntry
	b.processBody(b.tree.ChildByRole(id, pyast.RoleBody))
	tryEnd := b.cur
	protected := b.g.Blocks[protectedStart:len(b.g.Blocks):len(b.g.Blocks)]

	var handlerEnds []*Block
	handlers := b.tree.ChildrenOfKind(id, pyast.KindExcept)
	for _, h := range handlers {
		entry := b.newBlock()
		entry.Stmts = append(entry.Stmts, h)
		for _, pb := range protected {
			b.edge(pb, entry, EdgeException)
		}
		b.cur = entry
		if body := b.firstChildOfKind(h, pyast.KindBlock); body != pyast.NoNode {
			b.processBody(body)
		}
		handlerEnds = append(handlerEnds, b.cur)
	}

	// The else clause runs only when the protected region completed.
	if elseClause := b.firstChildOfKind(id, pyast.KindElse); elseClause != pyast.NoNode && tryEnd != nil {
		b.cur = tryEnd
		b.processBody(b.tree.ChildByRole(elseClause, pyast.RoleBody))
		tryEnd = b.cur
	}

	if finallyClause := b.firstChildOfKind(id, pyast.KindFinally); finallyClause != pyast.NoNode {
		fin := b.newBlock()
		if tryEnd != nil {
			b.edge(tryEnd, fin, EdgeUnconditional)
		}
		for _, end := range handlerEnds {
			if end != nil {
				b.edge(end, fin, EdgeUnconditional)
			}
		}
		if len(handlers) == 0 {
			// No handlers: the finally still runs on the exception path.
			for _, pb := range protected {
				b.edge(pb, fin, EdgeException)
			}
		}
		b.cur = fin
		if body := b.firstChildOfKind(finallyClause, pyast.KindBlock); body != pyast.NoNode {
			b.processBody(body)
		}
		return
	}

	// No finally: surviving paths converge on a join block.
	var join *Block
	joinOf := func() *Block {
		if join == nil {
			join = b.newBlock()
		}
		return join
	}
	if tryEnd != nil {
		b.edge(tryEnd, joinOf(), EdgeUnconditional)
	}
	for _, end := range handlerEnds {
		if end != nil {
			b.edge(end, joinOf(), EdgeUnconditional)
		}
	}
	b.cur = join
}

func (b *builder) innerLoop() *loopFrame {
	if len(b.loops) == 0 {
		return nil
	}
	return &b.loops[len(b.loops)-1]
}

func (b *builder) firstChildOfKind(id pyast.NodeID, kind pyast.Kind) pyast.NodeID {
	for _, c := range b.tree.Children(id) {
		if b.tree.Kind(c) == kind {
			return c
		}
	}
	return pyast.NoNode
}

// reachableFromEntry reports whether entry reaches the given block.
func (b *builder) reachableFromEntry(target BlockID) bool {
	if target == b.g.Entry {
		return true
	}
	visited := make(map[BlockID]bool, len(b.g.Blocks))
	stack := []BlockID{b.g.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		if id == target {
			return true
		}
		for _, e := range b.g.Blocks[id].Out {
			stack = append(stack, e.To)
		}
	}
	return false
}

// alwaysTrue recognizes the loop conditions Python programmers write for
// intentional infinite loops: `while True` and `while 1`.
func (b *builder) alwaysTrue(cond pyast.NodeID) bool {
	switch b.tree.Kind(cond) {
	case pyast.KindTrue:
		return true
	case pyast.KindInteger:
		return b.tree.Text(cond) != "0"
	}
	return false
}
