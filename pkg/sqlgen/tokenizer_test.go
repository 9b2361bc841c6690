package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokens, err := Tokenize("SELECT name, 'it''s' FROM users -- trailing")
	require.NoError(t, err)

	var kinds []TokenKind
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, TokenString)
	assert.Contains(t, kinds, TokenIdentifier)
}

func TestTokenize_UnterminatedString(t *testing.T) {
	_, err := Tokenize("SELECT 'oops FROM users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated string")
}

func TestTokenize_UnterminatedBlockComment(t *testing.T) {
	_, err := Tokenize("SELECT 1 /* never closed")
	require.Error(t, err)
}

func TestCheckParens_Balanced(t *testing.T) {
	check := CheckParens("SELECT SUM(amount) FROM sales WHERE id IN (1, 2)")
	assert.True(t, check.Balanced)
	assert.Equal(t, -1, check.UnmatchedCloserOffset)
	assert.Zero(t, check.UnclosedOpeners)
}

func TestCheckParens_UnclosedOpeners(t *testing.T) {
	check := CheckParens("SELECT SUM(amount FROM sales")
	assert.False(t, check.Balanced)
	assert.Equal(t, 1, check.UnclosedOpeners)
}

func TestCheckParens_UnmatchedCloserOffset(t *testing.T) {
	sql := "SELECT amount) FROM sales"
	check := CheckParens(sql)
	assert.False(t, check.Balanced)
	assert.Equal(t, 13, check.UnmatchedCloserOffset)
}

func TestCheckParens_IgnoresParensInStrings(t *testing.T) {
	check := CheckParens("SELECT ':-)' FROM sales")
	assert.True(t, check.Balanced)
}
