// Package ast provides the tagged-variant syntax tree produced by the parser and
// decorated in place by the semantic analyzer and code generator.
//
// The tree follows the teacher's ir.Node design (vslc src/ir/nodetype.go): a single
// concrete Node type carries a Kind tag, a Data payload and an ordered Children
// slice, rather than one Go type per grammar production. Later phases decorate a
// Node through its Attrs map instead of through a second, parallel typed tree.
package ast

import "fmt"

// Kind differentiates the variants held by a Node.
type Kind int

const (
	Program Kind = iota
	VarDecl
	FuncDecl
	Param
	Block
	Assignment
	Conditional
	WhileLoop
	Return
	Break
	Continue
	BinaryOp
	UnaryOp
	Location
	FuncCall
	Literal
)

var kindNames = [...]string{
	"Program", "VarDecl", "FuncDecl", "Param", "Block", "Assignment",
	"Conditional", "WhileLoop", "Return", "Break", "Continue",
	"BinaryOp", "UnaryOp", "Location", "FuncCall", "Literal",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Type is the source-language type tag (spec.md §3).
type Type int

const (
	Unknown Type = iota
	Int
	Bool
	Str
	Void
)

var typeNames = [...]string{"unknown", "int", "bool", "str", "void"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// BinOp is the surface binary/unary operator carried by a BinaryOp or UnaryOp node.
type BinOp int

const (
	NoOp BinOp = iota
	Add
	Sub
	Mul
	Div
	Mod
	And
	Or
	Eq
	Neq
	Lt
	Le
	Gt
	Ge
	Neg
	Not
)

// Node is the single concrete type backing every variant of the syntax tree.
// Parent nodes exclusively own their Children; destruction is implicit in Go
// (no manual free), but ownership is still strictly tree-shaped: a Node must
// appear as the child of at most one parent.
type Node struct {
	Kind       Kind
	Line       int // source_line, 1-indexed
	Data       interface{}
	Children   []*Node
	Attrs      map[string]interface{} // open attribute map (§4.1)
}

// New creates a Node of the given Kind at source line with the given children.
func New(k Kind, line int, data interface{}, children ...*Node) *Node {
	return &Node{Kind: k, Line: line, Data: data, Children: children}
}

// Attr retrieves an attribute, reporting whether it was set.
func (n *Node) Attr(key string) (interface{}, bool) {
	if n.Attrs == nil {
		return nil, false
	}
	v, ok := n.Attrs[key]
	return v, ok
}

// SetAttr decorates n with a key/value pair, replacing any prior value.
func (n *Node) SetAttr(key string, value interface{}) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]interface{})
	}
	n.Attrs[key] = value
}

// Type returns the "type" attribute set by the analyzer, or Unknown if absent.
func (n *Node) Type() Type {
	if v, ok := n.Attr("type"); ok {
		if t, ok := v.(Type); ok {
			return t
		}
	}
	return Unknown
}

// ----------------------------
// ----- Payload accessors -----
// ----------------------------

// ProgramData holds Program's two declaration lists.
type ProgramData struct {
	Globals   []*Node // VarDecl
	Functions []*Node // FuncDecl
}

// VarDeclData holds VarDecl's payload.
type VarDeclData struct {
	Name    string
	Typ     Type
	IsArray bool
	Length  int // 1 for scalars
}

// ParamData holds a single Param's payload.
type ParamData struct {
	Name string
	Typ  Type
}

// FuncDeclData holds FuncDecl's payload. Params and Body are children of the
// node as well (Params first, then the Body Block), this struct only carries
// the scalar fields that have no natural child-node representation.
type FuncDeclData struct {
	Name       string
	ReturnType Type
}

// BlockData holds Block's payload: the split point between local declarations
// and statements is implicit in Children via NumDecls.
type BlockData struct {
	NumDecls int
}

// LocationData holds Location's payload.
type LocationData struct {
	Name string
	// Index, if non-nil, is Children[0].
}

// FuncCallData holds FuncCall's payload.
type FuncCallData struct {
	Callee string
}

// LiteralData holds Literal's payload.
type LiteralData struct {
	Typ    Type
	Int    int
	Bool   bool
	String string
}

// Print recursively prints n and its Children, indenting one level per depth.
// Grounded on the teacher's Node.Print (vslc src/ir/nodetype.go).
func (n *Node) Print(depth int) {
	if n == nil {
		fmt.Printf("%*c---> NIL\n", depth<<1, ' ')
		return
	}
	fmt.Printf("%*c%s\n", depth<<1, ' ', n.String())
	for _, c := range n.Children {
		c.Print(depth + 1)
	}
}

// String returns a print-friendly one-line summary of n, ignoring Children.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case Literal:
		ld := n.Data.(LiteralData)
		switch ld.Typ {
		case Str:
			return fmt.Sprintf("Literal [%q]", ld.String)
		case Bool:
			return fmt.Sprintf("Literal [%t]", ld.Bool)
		default:
			return fmt.Sprintf("Literal [%d]", ld.Int)
		}
	case Location:
		return fmt.Sprintf("Location [%s]", n.Data.(LocationData).Name)
	case FuncCall:
		return fmt.Sprintf("FuncCall [%s]", n.Data.(FuncCallData).Callee)
	case VarDecl:
		vd := n.Data.(VarDeclData)
		return fmt.Sprintf("VarDecl [%s %s]", vd.Typ, vd.Name)
	case FuncDecl:
		fd := n.Data.(FuncDeclData)
		return fmt.Sprintf("FuncDecl [%s %s]", fd.ReturnType, fd.Name)
	default:
		return n.Kind.String()
	}
}
