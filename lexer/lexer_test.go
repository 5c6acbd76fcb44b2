package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allTokens(src string) []Token {
	l := New(src)
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexerPunctuationAndKeywords(t *testing.T) {
	toks := allTokens(`let x = 1 + 2;`)
	require.Len(t, toks, 8)
	assert.Equal(t, []Kind{KW_LET, IDENT, ASSIGN, NUMBER, PLUS, NUMBER, SEMI, EOF}, kinds(toks))
	assert.Equal(t, "x", toks[1].Literal)
	assert.Equal(t, "1", toks[3].Literal)
}

func TestLexerOptionalChainAndNullish(t *testing.T) {
	toks := allTokens(`a?.b ?? c ??= d`)
	assert.Equal(t, []Kind{IDENT, QUESTION_DOT, IDENT, QUESTION_QUESTION, IDENT,
		QUESTION_QUESTION_EQ, IDENT, EOF}, kinds(toks))
}

func TestLexerPrivateIdentifier(t *testing.T) {
	toks := allTokens(`this.#count`)
	require.Len(t, toks, 4)
	assert.Equal(t, KW_THIS, toks[0].Kind)
	assert.Equal(t, DOT, toks[1].Kind)
	assert.Equal(t, PRIVATE_IDENT, toks[2].Kind)
	assert.Equal(t, "#count", toks[2].Literal)
}

func TestLexerTemplateLiteralInterpolation(t *testing.T) {
	toks := allTokens("`hi ${name}!`")
	kindsOnly := kinds(toks)
	assert.Contains(t, kindsOnly, TEMPLATE_HEAD)
	assert.Contains(t, kindsOnly, IDENT)
	assert.Contains(t, kindsOnly, TEMPLATE_TAIL)
}

func TestLexerNewlineBeforeTracksASI(t *testing.T) {
	toks := allTokens("return\n1")
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, KW_RETURN, toks[0].Kind)
	assert.True(t, toks[1].NewlineBefore)
}

func TestLookupIdentKeywordsAndIdentifiers(t *testing.T) {
	assert.Equal(t, KW_CLASS, LookupIdent("class"))
	assert.Equal(t, IDENT, LookupIdent("classroom"))
}
