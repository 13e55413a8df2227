package parser

import (
	"strconv"
	"unicode"

	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// Lexer tokenizes a population loader script.
type Lexer struct {
	input  string
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the entire input and returns all tokens. Comments run from
// '#' to the end of the line and are dropped.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return l.tokens, nil
}

// next returns the next token from the input.
func (l *Lexer) next() (Token, error) {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	ch := l.input[l.pos]

	if ch == '\'' {
		return l.readString()
	}

	if l.atMatchValue() {
		return l.readMatchValue(), nil
	}

	if (ch == '-' || ch == '+') && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
		return l.readNumber()
	}

	switch ch {
	case '=':
		l.pos++
		return Token{Type: TokenAssign, Value: "=", Pos: l.pos - 1}, nil
	case ':':
		l.pos++
		return Token{Type: TokenColon, Value: ":", Pos: l.pos - 1}, nil
	case '*':
		l.pos++
		return Token{Type: TokenStar, Value: "*", Pos: l.pos - 1}, nil
	case '{':
		l.pos++
		return Token{Type: TokenLBrace, Value: "{", Pos: l.pos - 1}, nil
	case '}':
		l.pos++
		return Token{Type: TokenRBrace, Value: "}", Pos: l.pos - 1}, nil
	}

	if isDigit(ch) {
		return l.readNumber()
	}

	if isWordChar(ch) {
		return l.readWord(), nil
	}

	return Token{}, types.NewSyntaxError(l.pos, "unexpected character %q", string(ch))
}

// readString reads a single-quoted string. There are no escapes: file
// patterns are taken verbatim.
func (l *Lexer) readString() (Token, error) {
	start := l.pos
	l.pos++ // skip opening quote

	for l.pos < len(l.input) {
		if l.input[l.pos] == '\'' {
			l.pos++
			return Token{
				Type:   TokenString,
				Value:  l.input[start:l.pos],
				StrVal: l.input[start+1 : l.pos-1],
				Pos:    start,
			}, nil
		}
		if l.input[l.pos] == '\n' {
			break
		}
		l.pos++
	}

	return Token{}, types.NewSyntaxError(start, "unterminated quoted string")
}

// readNumber reads an integer, a decimal, or a signed number. A digit run
// followed by letters is an identifier (attribute names may start with a
// digit).
func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	signed := false
	if l.input[l.pos] == '-' || l.input[l.pos] == '+' {
		signed = true
		l.pos++
	}
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}

	if !signed && l.pos < len(l.input) && isWordChar(l.input[l.pos]) {
		l.pos = start
		return l.readWord(), nil
	}

	decimal := false
	if l.pos+1 < len(l.input) && l.input[l.pos] == '.' && isDigit(l.input[l.pos+1]) {
		decimal = true
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}

	raw := l.input[start:l.pos]
	if signed || decimal {
		return Token{Type: TokenNumber, Value: raw, Pos: start}, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return Token{}, types.NewSyntaxError(start, "invalid count %q", raw)
	}
	return Token{Type: TokenInt, Value: raw, IntVal: n, Pos: start}, nil
}

// atMatchValue reports whether the next token is the value of a
// `match A = V` or `match A where V` form.
func (l *Lexer) atMatchValue() bool {
	n := len(l.tokens)
	if n < 3 {
		return false
	}
	kw, attr, sep := l.tokens[n-3], l.tokens[n-2], l.tokens[n-1]
	return kw.Type == TokenIdent && kw.Value == "match" && attr.Type == TokenIdent &&
		(sep.Type == TokenAssign || (sep.Type == TokenIdent && sep.Value == "where"))
}

// readMatchValue reads an unquoted match value: any run of characters up to
// whitespace or a comment, such as `a.b` or `x-y`. Runs that are plain
// numbers keep their numeric token type.
func (l *Lexer) readMatchValue() Token {
	start := l.pos
	end := start
	for end < len(l.input) && l.input[end] != '#' && !unicode.IsSpace(rune(l.input[end])) {
		end++
	}
	if tok, err := l.readNumber(); err == nil && l.pos == end {
		return tok
	}
	l.pos = end
	return Token{Type: TokenIdent, Value: l.input[start:end], Pos: start}
}

// readWord reads an identifier: a run of letters, digits, and underscores.
func (l *Lexer) readWord() Token {
	start := l.pos
	for l.pos < len(l.input) && isWordChar(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: TokenIdent, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '#' {
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		if !unicode.IsSpace(rune(ch)) {
			return
		}
		l.pos++
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isWordChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || isDigit(ch)
}
