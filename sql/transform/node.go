// Copyright 2024 The flowql Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package transform implements the generic tree-node traversal framework
// : pre/post-order walks with transformation tracking, shared by the
// logical plan tree (sql.Node) and the expression tree (sql.Expression).
// It is generic over "container of node" via Go type parameters rather
// than an inheritance hierarchy, so the same TransformUp/TransformDown
// implementation serves both trees.
package transform

import "errors"

// Recursion is the traversal-control signal a visitor/rewriter returns
// alongside its result.
type Recursion int

const (
	// Continue descends/ascends normally.
	Continue Recursion = iota
	// Jump skips descent into this node's children (top-down), or
	// suppresses further rewriting of this node's ancestors on the way
	// back up (bottom-up); siblings outside the current subtree are
	// unaffected either way.
	Jump
	// Stop halts the entire walk immediately.
	Stop
)

// Transformed wraps a rewrite result: the (possibly new) node, whether
// anything actually changed, and the recursion signal that produced it.
// The Changed flag is OR-reduced through composition, giving the
// analyzer's fixpoint loop its change bit.
type Transformed[T any] struct {
	Node      T
	Changed   bool
	Recursion Recursion
}

func same[T any](node T) Transformed[T] {
	return Transformed[T]{Node: node, Changed: false, Recursion: Continue}
}

func changed[T any](node T) Transformed[T] {
	return Transformed[T]{Node: node, Changed: true, Recursion: Continue}
}

// Ops is the contract a tree-node container type must provide: its direct
// children, and a way to rebuild itself with a new child list. Plan nodes
// (sql.Node) and expression nodes (sql.Expression) both satisfy Ops[T] for
// their own T, letting one generic implementation walk either tree.
type Ops[T any] interface {
	Children() []T
	WithChildren(children []T) (T, error)
}

var errStopSignal = errors.New("transform: walk stopped")

// Apply performs a pre-order (top-down) read-only inspection, calling
// visit on every node until visit returns Stop or an error, or the tree is
// exhausted. Jump skips the current node's children; it does not stop
// sibling traversal.
func Apply[T Ops[T]](node T, visit func(T) (Recursion, error)) error {
	rec, err := visit(node)
	if err != nil {
		return err
	}
	if rec == Stop {
		return errStopSignal
	}
	if rec == Jump {
		return nil
	}
	for _, c := range node.Children() {
		if err := Apply(c, visit); err != nil {
			return err
		}
	}
	return nil
}

// ApplyTree is Apply with the Stop sentinel swallowed into a normal nil
// return, since halting early is not itself an error condition.
func ApplyTree[T Ops[T]](node T, visit func(T) (Recursion, error)) error {
	err := Apply(node, visit)
	if errors.Is(err, errStopSignal) {
		return nil
	}
	return err
}

// TransformDown rewrites node pre-order: f runs on a node before its
// children are visited. If f returns Jump, this node's children are left
// untouched. If f returns Stop, the entire walk halts and the partial
// result (as rewritten so far) is returned.
func TransformDown[T Ops[T]](node T, f func(T) (Transformed[T], error)) (Transformed[T], error) {
	r, _, err := transformDown(node, f)
	return r, err
}

func transformDown[T Ops[T]](node T, f func(T) (Transformed[T], error)) (Transformed[T], bool, error) {
	fr, err := f(node)
	if err != nil {
		return Transformed[T]{}, false, err
	}
	if fr.Recursion == Stop {
		return fr, true, nil
	}
	if fr.Recursion == Jump {
		return Transformed[T]{Node: fr.Node, Changed: fr.Changed, Recursion: Continue}, false, nil
	}
	children := fr.Node.Children()
	if len(children) == 0 {
		return Transformed[T]{Node: fr.Node, Changed: fr.Changed, Recursion: Continue}, false, nil
	}
	newChildren := make([]T, len(children))
	anyChanged := fr.Changed
	for i, c := range children {
		cr, stopped, cerr := transformDown(c, f)
		if cerr != nil {
			return Transformed[T]{}, false, cerr
		}
		newChildren[i] = cr.Node
		if cr.Changed {
			anyChanged = true
		}
		if stopped {
			// Fill remaining children verbatim and halt.
			for j := i + 1; j < len(children); j++ {
				newChildren[j] = children[j]
			}
			out, werr := rebuild(fr.Node, newChildren, anyChanged)
			if werr != nil {
				return Transformed[T]{}, false, werr
			}
			return Transformed[T]{Node: out, Changed: anyChanged, Recursion: Continue}, true, nil
		}
	}
	out, werr := rebuild(fr.Node, newChildren, anyChanged)
	if werr != nil {
		return Transformed[T]{}, false, werr
	}
	return Transformed[T]{Node: out, Changed: anyChanged, Recursion: Continue}, false, nil
}

func rebuild[T Ops[T]](node T, children []T, changed bool) (T, error) {
	if !changed {
		return node, nil
	}
	return node.WithChildren(children)
}

// TransformUp rewrites node post-order: children are rewritten (and, on
// change, re-attached) before f runs on the current node. If f returns
// Jump for a node, f is not invoked on that node's ancestors, though its
// own rewritten subtree is kept; if f returns Stop, the whole walk halts
// immediately.
func TransformUp[T Ops[T]](node T, f func(T) (Transformed[T], error)) (Transformed[T], error) {
	r, _, _, err := transformUp(node, f)
	return r, err
}

func transformUp[T Ops[T]](node T, f func(T) (Transformed[T], error)) (result Transformed[T], suppressed bool, stopped bool, err error) {
	children := node.Children()
	anyChanged := false
	newChildren := make([]T, len(children))
	for i, c := range children {
		if stopped {
			newChildren[i] = c
			continue
		}
		cr, csup, cstop, cerr := transformUp(c, f)
		if cerr != nil {
			return Transformed[T]{}, false, false, cerr
		}
		newChildren[i] = cr.Node
		if cr.Changed {
			anyChanged = true
		}
		if cstop {
			stopped = true
		}
		if csup {
			suppressed = true
		}
	}
	current, werr := rebuild(node, newChildren, anyChanged)
	if werr != nil {
		return Transformed[T]{}, false, false, werr
	}
	if stopped {
		return Transformed[T]{Node: current, Changed: anyChanged, Recursion: Stop}, suppressed, true, nil
	}
	if suppressed {
		return Transformed[T]{Node: current, Changed: anyChanged, Recursion: Continue}, true, false, nil
	}
	fr, ferr := f(current)
	if ferr != nil {
		return Transformed[T]{}, false, false, ferr
	}
	total := anyChanged || fr.Changed
	switch fr.Recursion {
	case Stop:
		return Transformed[T]{Node: fr.Node, Changed: total, Recursion: Stop}, false, true, nil
	case Jump:
		return Transformed[T]{Node: fr.Node, Changed: total, Recursion: Continue}, true, false, nil
	default:
		return Transformed[T]{Node: fr.Node, Changed: total, Recursion: Continue}, false, false, nil
	}
}

// TransformDownUp runs TransformDown with fDown, then TransformUp with fUp
// over its result (two full walks); Changed is set if either walk changed
// the tree.
func TransformDownUp[T Ops[T]](node T, fDown, fUp func(T) (Transformed[T], error)) (Transformed[T], error) {
	dr, err := TransformDown(node, fDown)
	if err != nil {
		return Transformed[T]{}, err
	}
	ur, err := TransformUp(dr.Node, fUp)
	if err != nil {
		return Transformed[T]{}, err
	}
	ur.Changed = ur.Changed || dr.Changed
	return ur, nil
}

// Same and Changed construct Transformed values for use inside node-level
// rewrite callbacks (f in TransformUp/TransformDown), to avoid repeating
// Continue/Recursion boilerplate at every call site.
func Same[T any](node T) Transformed[T]    { return same(node) }
func Changed[T any](node T) Transformed[T] { return changed(node) }
