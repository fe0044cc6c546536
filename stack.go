package cfdg

import "fmt"

// itemKind tags a stack item.
type itemKind uint8

const (
	itemNumber itemKind = iota
	itemMod
	itemRule
)

// StackItem is one slot of the execution stack: a number, an adjustment or
// a bound shape reference. Vectors occupy one slot per element.
type StackItem struct {
	kind   itemKind
	Number float64
	Mod    *Modification
	Rule   *StackRule
}

// NumberItem makes a numeric slot.
func NumberItem(v float64) StackItem { return StackItem{kind: itemNumber, Number: v} }

// ModItem makes an adjustment slot.
func ModItem(m *Modification) StackItem { return StackItem{kind: itemMod, Mod: m} }

// RuleItem makes a shape-reference slot.
func RuleItem(r *StackRule) StackItem { return StackItem{kind: itemRule, Rule: r} }

// StackRule is a shape bound to its arguments. Params is laid out exactly
// as the shape's parameters are laid out on the stack. It is immutable once
// built and shared freely between shapes.
type StackRule struct {
	Shape  int
	Params []StackItem
}

// Equal reports whether two bindings name the same shape with equal
// arguments.
func (s *StackRule) Equal(o *StackRule) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || s.Shape != o.Shape || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		a, b := s.Params[i], o.Params[i]
		if a.kind != b.kind {
			return false
		}
		switch a.kind {
		case itemNumber:
			if a.Number != b.Number {
				return false
			}
		case itemMod:
			if !a.Mod.Equal(b.Mod) {
				return false
			}
		case itemRule:
			if !a.Rule.Equal(b.Rule) {
				return false
			}
		}
	}
	return true
}

// defaultStackLimit bounds the execution stack.
const defaultStackLimit = 1 << 16

// Stack is the execution stack. Global definitions live at absolute
// offsets from the bottom; parameters and locals are addressed relative
// to the current frame base.
type Stack struct {
	items []StackItem
	frame int
	limit int
}

// NewStack creates a stack holding at most limit items, with room for size
// items up front.
func NewStack(limit, size int) *Stack {
	if limit <= 0 {
		limit = defaultStackLimit
	}
	return &Stack{items: make([]StackItem, 0, min(max(size, 16), limit)), limit: limit}
}

// Size returns the number of items on the stack.
func (s *Stack) Size() int { return len(s.items) }

// Frame returns the current frame base.
func (s *Stack) Frame() int { return s.frame }

// SetFrame moves the frame base and returns the previous one.
func (s *Stack) SetFrame(base int) int {
	old := s.frame
	s.frame = base
	return old
}

// Push appends an item, raising a runtime error on overflow.
func (s *Stack) Push(it StackItem) {
	if len(s.items) >= s.limit {
		panic(&Error{Message: fmt.Sprintf("stack overflow (limit %d items)", s.limit)})
	}
	s.items = append(s.items, it)
}

// PushNumbers pushes each value as a numeric slot.
func (s *Stack) PushNumbers(vals []float64) {
	for _, v := range vals {
		s.Push(NumberItem(v))
	}
}

// PushRule pushes the parameters of a bound shape.
func (s *Stack) PushRule(r *StackRule) {
	if r == nil {
		return
	}
	for _, it := range r.Params {
		s.Push(it)
	}
}

// Truncate pops items until the stack holds size items.
func (s *Stack) Truncate(size int) {
	if size < len(s.items) {
		clear(s.items[size:])
		s.items = s.items[:size]
	}
}

// At returns the item at offset, which is absolute when global is set
// and relative to the frame base otherwise.
func (s *Stack) At(offset int, global bool) *StackItem {
	if !global {
		offset += s.frame
	}
	return &s.items[offset]
}

// Numbers copies n numeric slots starting at offset into out.
func (s *Stack) Numbers(offset int, global bool, out []float64) {
	if !global {
		offset += s.frame
	}
	for i := range out {
		out[i] = s.items[offset+i].Number
	}
}
