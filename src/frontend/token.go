// Package frontend implements the lexer (C2) and recursive-descent parser (C3).
package frontend

import "fmt"

// Kind differentiates the classes of token emitted by the lexer (spec.md §3).
type Kind int

const (
	EOF Kind = iota
	ID
	KEYWORD
	SYMBOL
	DECIMAL_LIT
	HEX_LIT
	STRING_LIT
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case ID:
		return "ID"
	case KEYWORD:
		return "KEYWORD"
	case SYMBOL:
		return "SYMBOL"
	case DECIMAL_LIT:
		return "DECIMAL_LIT"
	case HEX_LIT:
		return "HEX_LIT"
	case STRING_LIT:
		return "STRING_LIT"
	default:
		return "UNKNOWN"
	}
}

// Token is a single lexeme with its position (spec.md §3 "Token").
type Token struct {
	Kind Kind
	Text string
	Line int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q (line %d)", t.Kind, t.Text, t.Line)
}

// reservedWord maps a matched identifier-shaped lexeme to its reserved meaning.
type reservedWord struct {
	word      string
	forbidden bool
}

// reserved is indexed by word length minus one, the same trick the teacher's
// lang.go uses (rw [...][]reservedItem indexed by len(s)-1) to avoid a hash
// table lookup for a small, fixed keyword set.
var reserved = [...][]reservedWord{
	{},                          // length 1
	{{word: "if"}},              // length 2
	{{word: "int"}, {word: "def"}, {word: "for", forbidden: true}, {word: "new", forbidden: true}},
	{{word: "else"}, {word: "bool"}, {word: "true"}, {word: "void"}, {word: "this", forbidden: true}, {word: "null", forbidden: true}},
	{{word: "while"}, {word: "false"}, {word: "break"}, {word: "class", forbidden: true}, {word: "float", forbidden: true}},
	{{word: "return"}, {word: "string", forbidden: true}, {word: "double", forbidden: true}},
	{{word: "callout", forbidden: true}, {word: "extends", forbidden: true}},
	{{word: "continue"}},
	{{word: "interface", forbidden: true}},
	{{word: "implements", forbidden: true}},
}

// classify reports whether s is a reserved word of the source language, and if
// so whether it is forbidden (spec.md §4.2 steps 2 and 3).
func classify(s string) (isReserved, forbidden bool) {
	if len(s) == 0 || len(s) > len(reserved) {
		return false, false
	}
	for _, rw := range reserved[len(s)-1] {
		if rw.word == s {
			return true, rw.forbidden
		}
	}
	return false, false
}
