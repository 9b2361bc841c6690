package sqlgen

import (
	"fmt"
	"strings"
)

// TokenKind classifies tokens produced by the SQL scanner.
type TokenKind int

const (
	TokenIdentifier TokenKind = iota
	TokenNumber
	TokenString
	TokenOperator
	TokenPunct
)

// Token is one lexical unit of a SQL statement.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int
}

// Tokenize scans a SQL statement into tokens. It understands single-quoted
// strings with doubled-quote escaping, double-quoted and bracketed
// identifiers, line comments and block comments. It does not parse grammar;
// it exists to catch lexical breakage (unterminated strings or comments)
// cheaply and to let callers inspect literals.
func Tokenize(sql string) ([]Token, error) {
	var tokens []Token
	i := 0
	n := len(sql)

	for i < n {
		ch := sql[i]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++

		case ch == '-' && i+1 < n && sql[i+1] == '-':
			for i < n && sql[i] != '\n' {
				i++
			}

		case ch == '/' && i+1 < n && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("unterminated block comment at offset %d", i)
			}
			i += end + 4

		case ch == '\'':
			start := i
			i++
			for {
				if i >= n {
					return nil, fmt.Errorf("unterminated string literal at offset %d", start)
				}
				if sql[i] == '\'' {
					if i+1 < n && sql[i+1] == '\'' {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
			tokens = append(tokens, Token{Kind: TokenString, Text: sql[start:i], Offset: start})

		case ch == '"':
			start := i
			i++
			for i < n && sql[i] != '"' {
				i++
			}
			if i >= n {
				return nil, fmt.Errorf("unterminated quoted identifier at offset %d", start)
			}
			i++
			tokens = append(tokens, Token{Kind: TokenIdentifier, Text: sql[start:i], Offset: start})

		case ch == '[':
			start := i
			i++
			for i < n && sql[i] != ']' {
				i++
			}
			if i >= n {
				return nil, fmt.Errorf("unterminated bracketed identifier at offset %d", start)
			}
			i++
			tokens = append(tokens, Token{Kind: TokenIdentifier, Text: sql[start:i], Offset: start})

		case isIdentStart(ch):
			start := i
			for i < n && isIdentPart(sql[i]) {
				i++
			}
			tokens = append(tokens, Token{Kind: TokenIdentifier, Text: sql[start:i], Offset: start})

		case ch >= '0' && ch <= '9':
			start := i
			for i < n && (sql[i] >= '0' && sql[i] <= '9' || sql[i] == '.') {
				i++
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Text: sql[start:i], Offset: start})

		case strings.ContainsRune("(),;", rune(ch)):
			tokens = append(tokens, Token{Kind: TokenPunct, Text: string(ch), Offset: i})
			i++

		default:
			tokens = append(tokens, Token{Kind: TokenOperator, Text: string(ch), Offset: i})
			i++
		}
	}

	return tokens, nil
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || ch >= '0' && ch <= '9' || ch == '.' || ch == '$'
}

// ParenCheck reports the result of a parenthesis balance scan.
type ParenCheck struct {
	Balanced bool
	// UnmatchedCloserOffset is the byte offset of the first ")" without a
	// matching "(", or -1 if none.
	UnmatchedCloserOffset int
	// UnclosedOpeners counts "(" left open at end of input.
	UnclosedOpeners int
}

// CheckParens runs a stack-based balance scan over the statement, ignoring
// parentheses inside string literals, quoted identifiers and comments.
func CheckParens(sql string) ParenCheck {
	check := ParenCheck{Balanced: true, UnmatchedCloserOffset: -1}

	tokens, err := Tokenize(sql)
	if err != nil {
		// Lexically broken input still gets a best-effort raw scan.
		return rawParenScan(sql)
	}

	var stack []int
	for _, tok := range tokens {
		if tok.Kind != TokenPunct {
			continue
		}
		switch tok.Text {
		case "(":
			stack = append(stack, tok.Offset)
		case ")":
			if len(stack) == 0 {
				if check.UnmatchedCloserOffset < 0 {
					check.UnmatchedCloserOffset = tok.Offset
				}
				check.Balanced = false
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}

	check.UnclosedOpeners = len(stack)
	if check.UnclosedOpeners > 0 {
		check.Balanced = false
	}
	return check
}

func rawParenScan(sql string) ParenCheck {
	check := ParenCheck{Balanced: true, UnmatchedCloserOffset: -1}
	depth := 0
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				if check.UnmatchedCloserOffset < 0 {
					check.UnmatchedCloserOffset = i
				}
				check.Balanced = false
				continue
			}
			depth--
		}
	}
	check.UnclosedOpeners = depth
	if depth > 0 {
		check.Balanced = false
	}
	return check
}
