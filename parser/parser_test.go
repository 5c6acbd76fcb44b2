package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlaycock/nookjs/ast"
)

func TestParseVariableDeclaration(t *testing.T) {
	prog, err := Parse(`let x = 1 + 2 * 3;`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)

	decl, ok := prog.Statements[0].(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, ast.BindingMutableBlock, decl.Kind)
	require.Len(t, decl.Declarators, 1)

	bin, ok := decl.Declarators[0].Init.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Operator)

	rhs, ok := bin.Right.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "*", rhs.Operator)
}

func TestParseArrowFunctionVsParenthesizedExpression(t *testing.T) {
	prog, err := Parse(`const f = (a, b) => a + b;`)
	require.NoError(t, err)
	decl := prog.Statements[0].(*ast.VariableDeclaration)
	fn, ok := decl.Declarators[0].Init.(*ast.FunctionNode)
	require.True(t, ok)
	assert.True(t, fn.IsArrow)
	assert.Len(t, fn.Params, 2)

	prog2, err := Parse(`const g = (a + b);`)
	require.NoError(t, err)
	decl2 := prog2.Statements[0].(*ast.VariableDeclaration)
	_, isBinary := decl2.Declarators[0].Init.(*ast.BinaryExpression)
	assert.True(t, isBinary)
}

func TestParseClassWithPrivateFieldAndSuper(t *testing.T) {
	src := `
	class Animal {
		speak() { return "..."; }
	}
	class Dog extends Animal {
		#name;
		constructor(name) {
			super();
			this.#name = name;
		}
		speak() { return super.speak(); }
	}
	`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 2)

	dog, ok := prog.Statements[1].(*ast.ClassNode)
	require.True(t, ok)
	assert.Equal(t, "Dog", dog.Name)
	require.NotNil(t, dog.SuperClass)

	var sawPrivateField bool
	for _, p := range dog.Properties {
		if p.Private {
			sawPrivateField = true
		}
	}
	assert.True(t, sawPrivateField)
}

func TestParseTemplateLiteralAndOptionalChain(t *testing.T) {
	prog, err := Parse("const s = `hi ${a?.b ?? 1}`;")
	require.NoError(t, err)
	decl := prog.Statements[0].(*ast.VariableDeclaration)
	tmpl, ok := decl.Declarators[0].Init.(*ast.TemplateLiteral)
	require.True(t, ok)
	require.Len(t, tmpl.Expressions, 1)
	_, ok = tmpl.Expressions[0].(*ast.LogicalExpression)
	assert.True(t, ok)
}

func TestParseSyntaxErrorAbortsOnFirstBadToken(t *testing.T) {
	_, err := Parse(`let x = ;`)
	assert.Error(t, err)
}

func TestParseForOfAndDestructuring(t *testing.T) {
	prog, err := Parse(`for (const [a, b] of pairs) { sum += a + b; }`)
	require.NoError(t, err)
	forOf, ok := prog.Statements[0].(*ast.ForOfStatement)
	require.True(t, ok)
	_, ok = forOf.Target.(*ast.ArrayPattern)
	assert.True(t, ok)
}
