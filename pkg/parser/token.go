package parser

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenIdent  TokenType = iota // identifier, keyword, or attribute name
	TokenInt                     // unsigned integer literal
	TokenNumber                  // decimal or signed literal (match values only)
	TokenString                  // single-quoted text

	TokenAssign // =
	TokenColon  // :
	TokenStar   // *
	TokenLBrace // {
	TokenRBrace // }

	TokenEOF // end of script
)

// Token represents a single lexical token.
type Token struct {
	Type   TokenType
	Value  string // raw text
	StrVal string // quoted text without quotes (for TokenString)
	IntVal int    // parsed value (for TokenInt)
	Pos    int    // byte offset in the script
}

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenIdent:
		return "identifier"
	case TokenInt:
		return "integer"
	case TokenNumber:
		return "number"
	case TokenString:
		return "quoted string"
	case TokenAssign:
		return "'='"
	case TokenColon:
		return "':'"
	case TokenStar:
		return "'*'"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenEOF:
		return "end of script"
	default:
		return "unknown"
	}
}

// Keywords reserved by the language. They cannot be used as variable names.
var Keywords = []string{
	"collapse", "random", "default", "greatest", "least", "any", "match",
	"by", "from", "where",
}

func isKeyword(word string) bool {
	for _, k := range Keywords {
		if k == word {
			return true
		}
	}
	return false
}
