package expression

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type NodeKind int

const (
	// KindLiteral nodes carry a constant Value (float64, string, bool,
	// nil or Undefined).
	KindLiteral NodeKind = iota
	// KindName nodes carry an identifier in Name.
	KindName
	// KindUnary nodes carry the operator symbol in Name and one operand.
	KindUnary
	// KindBinary nodes carry the operator symbol in Name and two operands.
	KindBinary
)

type Node struct {
	Kind     NodeKind
	Name     string
	Operands []*Node
	Value    any
}

func (n *Node) String() string {
	switch n.Kind {
	case KindLiteral:
		switch v := n.Value.(type) {
		case string:
			return "'" + strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), "'", `\'`) + "'"
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			return "null"
		default:
			return fmt.Sprintf("%v", v)
		}
	case KindName:
		return n.Name
	case KindUnary:
		return fmt.Sprintf("(%s%s)", n.Name, n.Operands[0])
	case KindBinary:
		return fmt.Sprintf("(%s%s%s)", n.Operands[0], n.Name, n.Operands[1])
	}
	return "<invalid>"
}

func NewValueNode(v any) *Node {
	return &Node{
		Kind:  KindLiteral,
		Value: v,
	}
}

func NewNameNode(n string) *Node {
	return &Node{
		Kind: KindName,
		Name: n,
	}
}

func NewUnaryNode(op string, operand *Node) *Node {
	return &Node{
		Kind:     KindUnary,
		Name:     op,
		Operands: []*Node{operand},
	}
}

func NewBinaryNode(op string, left, right *Node) *Node {
	return &Node{
		Kind:     KindBinary,
		Name:     op,
		Operands: []*Node{left, right},
	}
}

// Text returns the literal text of a name or string literal node.
// It is used by operators taking a raw operand like a label.
func (n *Node) Text() (string, bool) {
	switch n.Kind {
	case KindName:
		return n.Name, true
	case KindLiteral:
		if s, ok := n.Value.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Names returns the names used in the expression tree in
// order of their first occurrence.
func (n *Node) Names() []string {
	switch n.Kind {
	case KindName:
		return []string{n.Name}
	case KindUnary, KindBinary:
		var result []string
		for _, p := range n.Operands {
			for _, o := range p.Names() {
				if !slices.Contains(result, o) {
					result = append(result, o)
				}
			}
		}
		return result
	}
	return nil
}
