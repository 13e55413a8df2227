// Package parser turns population loader (.plf) scripts into an AST and
// lowers the AST into a flat, bottom-up evaluation plan.
package parser

import (
	"strings"

	"github.com/lemonberrylabs/population-loader/pkg/ast"
	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// MaxScriptLength is the maximum accepted script size in bytes.
const MaxScriptLength = 1 << 20

// MaxCount is the largest count a keyword or `N * R` accepts.
const MaxCount = 1 << 20

// Parser is a recursive descent parser for .plf scripts.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse parses a complete script. All syntax errors are reported here, so a
// script that parses never fails for syntactic reasons later on.
//
// Checks run in a fixed order so the first diagnostic is the most precise
// one: the script must start with an assignment, then braces must balance,
// then the statement structure is parsed.
func Parse(input string) (*ast.Script, error) {
	if len(input) > MaxScriptLength {
		return nil, types.NewSyntaxError(-1, "script exceeds maximum length of %d bytes", MaxScriptLength)
	}

	if !startsWithAssignment(input) {
		return nil, types.NewSyntaxError(0, "script contains unrecognized text at beginning (expected 'name = ...')")
	}

	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}

	if err := checkBalanced(tokens); err != nil {
		return nil, err
	}

	p := &Parser{tokens: tokens}
	return p.parseScript()
}

// startsWithAssignment reports whether the first non-comment text is
// `identifier =`.
func startsWithAssignment(input string) bool {
	l := NewLexer(input)
	l.skipWhitespaceAndComments()
	start := l.pos
	for l.pos < len(input) && isWordChar(input[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return false
	}
	l.skipWhitespaceAndComments()
	return l.pos < len(input) && input[l.pos] == '='
}

// checkBalanced verifies that braces nest correctly. Quoted text is already a
// single token, so braces inside file patterns are ignored.
func checkBalanced(tokens []Token) error {
	depth := 0
	lastOpen := []int{}
	for _, tok := range tokens {
		switch tok.Type {
		case TokenLBrace:
			depth++
			lastOpen = append(lastOpen, tok.Pos)
		case TokenRBrace:
			depth--
			if depth < 0 {
				return types.NewSyntaxError(tok.Pos, "unbalanced braces: unexpected '}'")
			}
			lastOpen = lastOpen[:len(lastOpen)-1]
		}
	}
	if depth != 0 {
		return types.NewSyntaxError(lastOpen[len(lastOpen)-1], "unbalanced braces: '{' is never closed")
	}
	return nil
}

// current returns the current token.
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without consuming it.
func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

// advance consumes the current token and returns it.
func (p *Parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

// expect consumes a token of the expected type or returns an error.
func (p *Parser) expect(tt TokenType, context string) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, types.NewSyntaxError(tok.Pos, "expected %s %s, got %s", tt, context, describe(tok))
	}
	p.advance()
	return tok, nil
}

// expectWord consumes the given keyword.
func (p *Parser) expectWord(word, context string) error {
	tok := p.current()
	if tok.Type != TokenIdent || tok.Value != word {
		return types.NewSyntaxError(tok.Pos, "expected '%s' %s, got %s", word, context, describe(tok))
	}
	p.advance()
	return nil
}

// atStatementStart reports whether the current tokens begin a new
// `name =` assignment.
func (p *Parser) atStatementStart() bool {
	return p.current().Type == TokenIdent && p.peek().Type == TokenAssign
}

func (p *Parser) parseScript() (*ast.Script, error) {
	script := &ast.Script{}
	for p.current().Type != TokenEOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		script.Statements = append(script.Statements, stmt)
	}
	return script, nil
}

// parseStatement parses `name = expression`. The expression runs until the
// next top-level `name =` or the end of the script.
func (p *Parser) parseStatement() (*ast.Statement, error) {
	name, err := p.expect(TokenIdent, "at start of assignment")
	if err != nil {
		return nil, err
	}
	if err := validateVariableName(name); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenAssign, "after variable name "+name.Value); err != nil {
		return nil, err
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if !p.atStatementStart() && p.current().Type != TokenEOF {
		tok := p.current()
		return nil, types.NewSyntaxError(tok.Pos,
			"unexpected %s in assignment to %s (expected ':' or a new assignment)", describe(tok), name.Value)
	}

	return &ast.Statement{Name: name.Value, Expr: expr, Pos: name.Pos}, nil
}

func validateVariableName(tok Token) error {
	if isKeyword(tok.Value) {
		return types.NewSyntaxError(tok.Pos, "keyword '%s' cannot be used as a variable name", tok.Value)
	}
	if strings.HasPrefix(tok.Value, "__") {
		return types.NewSyntaxError(tok.Pos, "variable name '%s' may not begin with '__'", tok.Value)
	}
	if tok.Value[0] >= '0' && tok.Value[0] <= '9' {
		return types.NewSyntaxError(tok.Pos, "variable name '%s' may not begin with a digit", tok.Value)
	}
	return nil
}

// parseExpr parses term (':' term)*.
func (p *Parser) parseExpr() (*ast.Expr, error) {
	expr := &ast.Expr{Pos: p.current().Pos}
	for {
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr.Terms = append(expr.Terms, term)
		if p.current().Type != TokenColon {
			return expr, nil
		}
		p.advance()
	}
}

// parseTerm parses a single term. Dispatch is on the first token:
//
//	'{'        group
//	quoted     file pattern
//	integer    N * R
//	keyword    the keyword's form
//	identifier bound name
func (p *Parser) parseTerm() (ast.Term, error) {
	tok := p.current()

	switch tok.Type {
	case TokenLBrace:
		return p.parseGroup()
	case TokenString:
		p.advance()
		return &ast.FileRef{Pattern: tok.StrVal, Pos: tok.Pos}, nil
	case TokenInt:
		return p.parseDuplicate()
	case TokenIdent:
		switch tok.Value {
		case "collapse":
			return p.parseCollapse()
		case "random", "default":
			return p.parseSynthetic()
		case "greatest", "least":
			return p.parseRank()
		case "any":
			return p.parseAny()
		case "match":
			return p.parseMatch()
		case "by", "from", "where":
			return nil, types.NewSyntaxError(tok.Pos, "unexpected keyword '%s'", tok.Value)
		}
		return p.parseNameRef()
	case TokenRBrace, TokenColon, TokenEOF:
		return nil, types.NewSyntaxError(tok.Pos, "empty expression before %s", describe(tok))
	default:
		return nil, types.NewSyntaxError(tok.Pos, "unexpected %s", describe(tok))
	}
}

func (p *Parser) parseGroup() (ast.Term, error) {
	open := p.advance()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRBrace, "to close '{'"); err != nil {
		return nil, err
	}
	return &ast.Group{Expr: expr, Pos: open.Pos}, nil
}

// parseNameRef parses a bound name. A name followed by more words is almost
// always a misspelled keyword, so it is reported as such.
func (p *Parser) parseNameRef() (ast.Term, error) {
	tok := p.advance()
	next := p.current()
	if next.Type == TokenInt || (next.Type == TokenIdent && p.peek().Type != TokenAssign) {
		if s := Suggest(tok.Value); s != "" {
			return nil, types.NewSyntaxError(tok.Pos, "unknown keyword '%s' (did you mean '%s'?)", tok.Value, s)
		}
		return nil, types.NewSyntaxError(next.Pos, "unexpected %s after name '%s'", describe(next), tok.Value)
	}
	return &ast.NameRef{Name: tok.Value, Pos: tok.Pos}, nil
}

// parseOperand parses the resource a keyword reads from: a name, a quoted
// file pattern, or a braced group.
func (p *Parser) parseOperand(keyword string) (ast.Term, error) {
	tok := p.current()
	switch tok.Type {
	case TokenLBrace:
		return p.parseGroup()
	case TokenString:
		p.advance()
		return &ast.FileRef{Pattern: tok.StrVal, Pos: tok.Pos}, nil
	case TokenIdent:
		if isKeyword(tok.Value) {
			return nil, types.NewSyntaxError(tok.Pos,
				"'%s' needs a name, quoted file, or {...} as its source, got keyword '%s'", keyword, tok.Value)
		}
		p.advance()
		return &ast.NameRef{Name: tok.Value, Pos: tok.Pos}, nil
	default:
		return nil, types.NewSyntaxError(tok.Pos,
			"'%s' needs a name, quoted file, or {...} as its source, got %s", keyword, describe(tok))
	}
}

// parseCount parses the integer argument of a keyword.
func (p *Parser) parseCount(keyword string) (int, error) {
	tok := p.current()
	if tok.Type != TokenInt {
		return 0, types.NewSyntaxError(tok.Pos, "'%s' expects a non-negative count, got %s", keyword, describe(tok))
	}
	if err := checkCount(keyword, tok); err != nil {
		return 0, err
	}
	p.advance()
	return tok.IntVal, nil
}

func checkCount(keyword string, tok Token) error {
	if tok.IntVal > MaxCount {
		return types.NewSyntaxError(tok.Pos, "'%s' count %s exceeds the maximum of %d", keyword, tok.Value, MaxCount)
	}
	return nil
}

// parseCollapse parses `collapse R`. collapse binds loosest of all forms: its
// operand is the rest of the enclosing colon sequence, so `collapse A:B`
// collapses the concatenation of A and B. Any operand other than a single
// name, file or group is wrapped in a group so it lowers to a placeholder.
func (p *Parser) parseCollapse() (ast.Term, error) {
	kw := p.advance()
	rest, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var source ast.Term = &ast.Group{Expr: rest, Pos: rest.Pos}
	if len(rest.Terms) == 1 {
		switch rest.Terms[0].(type) {
		case *ast.NameRef, *ast.FileRef, *ast.Group:
			source = rest.Terms[0]
		}
	}
	return &ast.Collapse{Source: source, Pos: kw.Pos}, nil
}

// parseSynthetic parses `random N` and `default N`.
func (p *Parser) parseSynthetic() (ast.Term, error) {
	kw := p.advance()
	n, err := p.parseCount(kw.Value)
	if err != nil {
		return nil, err
	}
	return &ast.Synthetic{Keyword: kw.Value, Count: n, Pos: kw.Pos}, nil
}

// parseRank parses `greatest N by A from R` and `least N by A from R`.
func (p *Parser) parseRank() (ast.Term, error) {
	kw := p.advance()
	n, err := p.parseCount(kw.Value)
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("by", "after '"+kw.Value+"' count"); err != nil {
		return nil, err
	}
	attr, err := p.expect(TokenIdent, "attribute name after 'by'")
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("from", "after attribute "+attr.Value); err != nil {
		return nil, err
	}
	source, err := p.parseOperand(kw.Value)
	if err != nil {
		return nil, err
	}
	return &ast.Rank{Keyword: kw.Value, Count: n, Attribute: attr.Value, Source: source, Pos: kw.Pos}, nil
}

// parseAny parses `any N from R`.
func (p *Parser) parseAny() (ast.Term, error) {
	kw := p.advance()
	n, err := p.parseCount(kw.Value)
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("from", "after 'any' count"); err != nil {
		return nil, err
	}
	source, err := p.parseOperand(kw.Value)
	if err != nil {
		return nil, err
	}
	return &ast.Any{Count: n, Source: source, Pos: kw.Pos}, nil
}

// parseMatch parses `match A = V from R`. The older `match A where V from R`
// spelling is accepted too.
func (p *Parser) parseMatch() (ast.Term, error) {
	kw := p.advance()
	attr, err := p.expect(TokenIdent, "attribute name after 'match'")
	if err != nil {
		return nil, err
	}
	sep := p.current()
	if sep.Type == TokenAssign || (sep.Type == TokenIdent && sep.Value == "where") {
		p.advance()
	} else {
		return nil, types.NewSyntaxError(sep.Pos, "expected '=' after attribute %s, got %s", attr.Value, describe(sep))
	}

	valTok := p.current()
	var value string
	switch valTok.Type {
	case TokenString:
		value = valTok.StrVal
	case TokenIdent, TokenInt, TokenNumber:
		value = valTok.Value
	default:
		return nil, types.NewSyntaxError(valTok.Pos, "expected a value to match, got %s", describe(valTok))
	}
	p.advance()

	if err := p.expectWord("from", "after match value"); err != nil {
		return nil, err
	}
	source, err := p.parseOperand(kw.Value)
	if err != nil {
		return nil, err
	}
	return &ast.Match{Attribute: attr.Value, Value: value, Source: source, Pos: kw.Pos}, nil
}

// parseDuplicate parses `N * R`.
func (p *Parser) parseDuplicate() (ast.Term, error) {
	count := p.advance()
	if err := checkCount("*", count); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenStar, "after count "+count.Value); err != nil {
		return nil, err
	}
	source, err := p.parseOperand("*")
	if err != nil {
		return nil, err
	}
	return &ast.Duplicate{Count: count.IntVal, Source: source, Pos: count.Pos}, nil
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of script"
	case TokenString:
		return "quoted string " + tok.Value
	case TokenIdent, TokenInt, TokenNumber:
		return tok.Type.String() + " '" + tok.Value + "'"
	default:
		return tok.Type.String()
	}
}
