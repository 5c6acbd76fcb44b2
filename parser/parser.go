// Package parser implements the concrete "external parser" collaborator
// spec.md treats as out of scope (spec §1): a recursive-descent statement
// parser over a Pratt-style (precedence-climbing) expression parser,
// consuming lexer.Tokens and producing ast nodes. Evaluate/EvaluateAsync
// (spec §6.2) invoke this package internally so that guest source text is
// the only input the public surface requires.
package parser

import (
	"fmt"
	"strconv"

	"github.com/samlaycock/nookjs/ast"
	"github.com/samlaycock/nookjs/errors"
	"github.com/samlaycock/nookjs/lexer"
)

// Parser consumes a token stream and builds an *ast.Program. It is not
// safe for concurrent use; callers construct one Parser per parse.
type Parser struct {
	lex *lexer.Lexer
	src string

	cur  lexer.Token
	peek lexer.Token
}

// New constructs a Parser over src.
func New(src string) *Parser {
	p := &Parser{lex: lexer.New(src), src: src}
	p.advance()
	p.advance()
	return p
}

// Parse parses the full program, returning an *errors.EvalError of kind
// KindParseError on the first syntax error encountered. The parser does
// not attempt error recovery: one bad token aborts the parse with a single
// such error (spec §6.3).
func Parse(src string) (*ast.Program, error) {
	p := New(src)
	return p.ParseProgram()
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

// checkpoint is a parser-state snapshot used for the one place this
// grammar needs backtracking: disambiguating a parenthesized arrow-
// function head from a parenthesized expression, which cannot be resolved
// by any fixed amount of lookahead.
type checkpoint struct {
	lex  lexer.State
	cur  lexer.Token
	peek lexer.Token
}

func (p *Parser) mark() checkpoint {
	return checkpoint{lex: p.lex.Save(), cur: p.cur, peek: p.peek}
}

func (p *Parser) reset(c checkpoint) {
	p.lex.Restore(c.lex)
	p.cur = c.cur
	p.peek = c.peek
}

func (p *Parser) errAt(pos lexer.Position, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return errors.New(errors.KindParseError, "%s", msg).
		WithPosition(pos.Line, pos.Column).
		WithSource(p.src)
}

func (p *Parser) expect(k lexer.Kind, what string) (lexer.Token, error) {
	if p.cur.Kind != k {
		return lexer.Token{}, p.errAt(p.cur.Pos, "expected %s, got %q", what, p.cur.Literal)
	}
	tok := p.cur
	p.advance()
	return tok, nil
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur.Kind == k }

// consumeSemi implements automatic-semicolon-insertion tolerance: a
// statement terminator is satisfied by an explicit `;`, a newline before
// the next token, `}`, or EOF.
func (p *Parser) consumeSemi() {
	if p.at(lexer.SEMI) {
		p.advance()
		return
	}
	if p.at(lexer.RBRACE) || p.at(lexer.EOF) || p.cur.NewlineBefore {
		return
	}
}

// ---------------------------------------------------------------------
// Program / statements
// ---------------------------------------------------------------------

func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{Base: ast.Base{P: p.cur.Pos}}
	for !p.at(lexer.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur.Kind {
	case lexer.LBRACE:
		return p.parseBlockStatement()
	case lexer.KW_LET, lexer.KW_CONST, lexer.KW_VAR:
		stmt, err := p.parseVariableDeclaration()
		if err != nil {
			return nil, err
		}
		p.consumeSemi()
		return stmt, nil
	case lexer.KW_FUNCTION:
		return p.parseFunctionDeclaration(false)
	case lexer.KW_ASYNC:
		if p.peek.Kind == lexer.KW_FUNCTION {
			p.advance()
			return p.parseFunctionDeclaration(true)
		}
		return p.parseExpressionStatement()
	case lexer.KW_CLASS:
		return p.parseClassDeclaration()
	case lexer.KW_IF:
		return p.parseIfStatement()
	case lexer.KW_WHILE:
		return p.parseWhileStatement("")
	case lexer.KW_DO:
		return p.parseDoWhileStatement("")
	case lexer.KW_FOR:
		return p.parseForStatement("")
	case lexer.KW_SWITCH:
		return p.parseSwitchStatement("")
	case lexer.KW_TRY:
		return p.parseTryStatement()
	case lexer.KW_THROW:
		return p.parseThrowStatement()
	case lexer.KW_RETURN:
		return p.parseReturnStatement()
	case lexer.KW_BREAK:
		return p.parseBreakStatement()
	case lexer.KW_CONTINUE:
		return p.parseContinueStatement()
	case lexer.SEMI:
		pos := p.cur.Pos
		p.advance()
		return &ast.ExpressionStatement{Base: ast.Base{P: pos}, Expression: &ast.UndefinedLiteral{Base: ast.Base{P: pos}}}, nil
	case lexer.IDENT:
		if p.peek.Kind == lexer.COLON {
			return p.parseLabeledStatement()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseBlockStatement() (*ast.BlockStatement, error) {
	pos := p.cur.Pos
	if _, err := p.expect(lexer.LBRACE, "{"); err != nil {
		return nil, err
	}
	block := &ast.BlockStatement{Base: ast.Base{P: pos}}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, stmt)
	}
	if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
		return nil, err
	}
	return block, nil
}

func bindingKindFor(k lexer.Kind) ast.BindingKind {
	switch k {
	case lexer.KW_CONST:
		return ast.BindingImmutable
	case lexer.KW_VAR:
		return ast.BindingMutableFunction
	default:
		return ast.BindingMutableBlock
	}
}

func (p *Parser) parseVariableDeclaration() (*ast.VariableDeclaration, error) {
	pos := p.cur.Pos
	kind := bindingKindFor(p.cur.Kind)
	p.advance()

	decl := &ast.VariableDeclaration{Base: ast.Base{P: pos}, Kind: kind}
	for {
		target, err := p.parseBindingTarget()
		if err != nil {
			return nil, err
		}
		var init ast.Expression
		if p.at(lexer.ASSIGN) {
			p.advance()
			init, err = p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
		}
		decl.Declarators = append(decl.Declarators, ast.Declarator{Target: target, Init: init})
		if !p.at(lexer.COMMA) {
			break
		}
		p.advance()
	}
	return decl, nil
}

func (p *Parser) parseIfStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.advance()
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	consequent, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStatement{Base: ast.Base{P: pos}, Test: test, Consequent: consequent}
	if p.at(lexer.KW_ELSE) {
		p.advance()
		alt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Alternate = alt
	}
	return stmt, nil
}

func (p *Parser) parseWhileStatement(label string) (ast.Statement, error) {
	pos := p.cur.Pos
	p.advance()
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStatement{Base: ast.Base{P: pos}, Test: test, Body: body, Label: label}, nil
}

func (p *Parser) parseDoWhileStatement(label string) (ast.Statement, error) {
	pos := p.cur.Pos
	p.advance()
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KW_WHILE, "while"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	p.consumeSemi()
	return &ast.DoWhileStatement{Base: ast.Base{P: pos}, Test: test, Body: body, Label: label}, nil
}

// parseForStatement handles the three for-loop shapes: classic
// (init;test;update), for-of and for-in, disambiguated by lookahead after
// the initial declaration/expression.
func (p *Parser) parseForStatement(label string) (ast.Statement, error) {
	pos := p.cur.Pos
	p.advance()
	await := false
	if p.at(lexer.KW_AWAIT) {
		await = true
		p.advance()
	}
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}

	var declKind ast.BindingKind
	isDecl := false
	var target ast.Pattern
	var initExpr ast.Expression
	var initNode ast.Node

	if p.at(lexer.KW_LET) || p.at(lexer.KW_CONST) || p.at(lexer.KW_VAR) {
		isDecl = true
		declKind = bindingKindFor(p.cur.Kind)
		p.advance()
		var err error
		target, err = p.parseBindingTarget()
		if err != nil {
			return nil, err
		}
	} else if !p.at(lexer.SEMI) {
		var err error
		initExpr, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
		target = exprToPattern(initExpr)
	}

	if p.at(lexer.KW_OF) {
		p.advance()
		right, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.ForOfStatement{Base: ast.Base{P: pos}, DeclKind: declKind, IsDecl: isDecl, Target: target, Right: right, Body: body, Await: await, Label: label}, nil
	}
	if p.at(lexer.KW_IN) {
		p.advance()
		right, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.ForInStatement{Base: ast.Base{P: pos}, DeclKind: declKind, IsDecl: isDecl, Target: target, Right: right, Body: body, Label: label}, nil
	}

	// Classic for(;;): rebuild the Init node from whichever branch ran.
	if isDecl {
		decl := &ast.VariableDeclaration{Base: ast.Base{P: pos}, Kind: declKind}
		var initVal ast.Expression
		if p.at(lexer.ASSIGN) {
			p.advance()
			var err error
			initVal, err = p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
		}
		decl.Declarators = append(decl.Declarators, ast.Declarator{Target: target, Init: initVal})
		for p.at(lexer.COMMA) {
			p.advance()
			t, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			var iv ast.Expression
			if p.at(lexer.ASSIGN) {
				p.advance()
				iv, err = p.parseAssignExpr()
				if err != nil {
					return nil, err
				}
			}
			decl.Declarators = append(decl.Declarators, ast.Declarator{Target: t, Init: iv})
		}
		initNode = decl
	} else if initExpr != nil {
		initNode = initExpr
	}

	if _, err := p.expect(lexer.SEMI, ";"); err != nil {
		return nil, err
	}
	var test ast.Expression
	if !p.at(lexer.SEMI) {
		var err error
		test, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.SEMI, ";"); err != nil {
		return nil, err
	}
	var update ast.Expression
	if !p.at(lexer.RPAREN) {
		var err error
		update, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.ForStatement{Base: ast.Base{P: pos}, Init: initNode, Test: test, Update: update, Body: body, Label: label}, nil
}

func (p *Parser) parseSwitchStatement(label string) (ast.Statement, error) {
	pos := p.cur.Pos
	p.advance()
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	disc, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE, "{"); err != nil {
		return nil, err
	}
	stmt := &ast.SwitchStatement{Base: ast.Base{P: pos}, Discriminant: disc, Label: label}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		var c ast.SwitchCase
		if p.at(lexer.KW_CASE) {
			p.advance()
			test, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			c.Test = test
		} else if p.at(lexer.KW_DEFAULT) {
			p.advance()
		} else {
			return nil, p.errAt(p.cur.Pos, "expected case or default")
		}
		if _, err := p.expect(lexer.COLON, ":"); err != nil {
			return nil, err
		}
		for !p.at(lexer.KW_CASE) && !p.at(lexer.KW_DEFAULT) && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, s)
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseTryStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.advance()
	block, err := p.parseBlockStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.TryStatement{Base: ast.Base{P: pos}, Block: block}
	if p.at(lexer.KW_CATCH) {
		stmt.HasCatch = true
		p.advance()
		if p.at(lexer.LPAREN) {
			p.advance()
			param, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			stmt.CatchParam = param
			if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
				return nil, err
			}
		}
		catchBlock, err := p.parseBlockStatement()
		if err != nil {
			return nil, err
		}
		stmt.CatchBlock = catchBlock
	}
	if p.at(lexer.KW_FINALLY) {
		p.advance()
		fb, err := p.parseBlockStatement()
		if err != nil {
			return nil, err
		}
		stmt.FinallyBlock = fb
	}
	if !stmt.HasCatch && stmt.FinallyBlock == nil {
		return nil, p.errAt(pos, "try statement needs a catch or finally clause")
	}
	return stmt, nil
}

func (p *Parser) parseThrowStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.advance()
	arg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.consumeSemi()
	return &ast.ThrowStatement{Base: ast.Base{P: pos}, Argument: arg}, nil
}

func (p *Parser) parseReturnStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.advance()
	stmt := &ast.ReturnStatement{Base: ast.Base{P: pos}}
	if !p.at(lexer.SEMI) && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) && !p.cur.NewlineBefore {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Argument = arg
	}
	p.consumeSemi()
	return stmt, nil
}

func (p *Parser) parseBreakStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.advance()
	stmt := &ast.BreakStatement{Base: ast.Base{P: pos}}
	if p.at(lexer.IDENT) && !p.cur.NewlineBefore {
		stmt.Label = p.cur.Literal
		p.advance()
	}
	p.consumeSemi()
	return stmt, nil
}

func (p *Parser) parseContinueStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.advance()
	stmt := &ast.ContinueStatement{Base: ast.Base{P: pos}}
	if p.at(lexer.IDENT) && !p.cur.NewlineBefore {
		stmt.Label = p.cur.Literal
		p.advance()
	}
	p.consumeSemi()
	return stmt, nil
}

func (p *Parser) parseLabeledStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	label := p.cur.Literal
	p.advance() // ident
	p.advance() // colon

	switch p.cur.Kind {
	case lexer.KW_WHILE:
		return p.parseWhileStatement(label)
	case lexer.KW_DO:
		return p.parseDoWhileStatement(label)
	case lexer.KW_FOR:
		return p.parseForStatement(label)
	case lexer.KW_SWITCH:
		return p.parseSwitchStatement(label)
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.LabeledStatement{Base: ast.Base{P: pos}, Label: label, Body: body}, nil
}

func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.consumeSemi()
	return &ast.ExpressionStatement{Base: ast.Base{P: pos}, Expression: expr}, nil
}

// ---------------------------------------------------------------------
// Functions & classes
// ---------------------------------------------------------------------

func (p *Parser) parseFunctionDeclaration(isAsync bool) (ast.Statement, error) {
	pos := p.cur.Pos
	p.advance() // "function"
	isGen := false
	if p.at(lexer.STAR) {
		isGen = true
		p.advance()
	}
	name := ""
	if p.at(lexer.IDENT) {
		name = p.cur.Literal
		p.advance()
	}
	fn, err := p.parseFunctionTail(pos, name, isAsync, isGen, false)
	if err != nil {
		return nil, err
	}
	return fn, nil
}

// parseFunctionTail parses "(params) { body }" given the head has already
// been consumed, producing a *ast.FunctionNode usable as either a
// statement or an expression.
func (p *Parser) parseFunctionTail(pos lexer.Position, name string, isAsync, isGen, isArrow bool) (*ast.FunctionNode, error) {
	fn := &ast.FunctionNode{
		Base: ast.Base{P: pos}, Name: name, IsAsync: isAsync, IsGenerator: isGen, IsArrow: isArrow,
		Defaults: map[int]ast.Expression{}, RestParam: -1,
	}
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	idx := 0
	for !p.at(lexer.RPAREN) {
		if p.at(lexer.DOTDOTDOT) {
			p.advance()
			rest, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			fn.RestParam = idx
			fn.Params = append(fn.Params, rest)
		} else {
			param, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			if p.at(lexer.ASSIGN) {
				p.advance()
				def, err := p.parseAssignExpr()
				if err != nil {
					return nil, err
				}
				fn.Defaults[idx] = def
			}
			fn.Params = append(fn.Params, param)
		}
		idx++
		if !p.at(lexer.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	if isArrow {
		if _, err := p.expect(lexer.ARROW, "=>"); err != nil {
			return nil, err
		}
	}
	if p.at(lexer.LBRACE) {
		block, err := p.parseBlockStatement()
		if err != nil {
			return nil, err
		}
		fn.Body = block.Body
		return fn, nil
	}
	if isArrow {
		expr, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		fn.ExprBody = expr
		return fn, nil
	}
	block, err := p.parseBlockStatement()
	if err != nil {
		return nil, err
	}
	fn.Body = block.Body
	return fn, nil
}

func (p *Parser) parseClassDeclaration() (ast.Statement, error) {
	node, err := p.parseClassBody()
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseClassBody() (*ast.ClassNode, error) {
	pos := p.cur.Pos
	p.advance() // "class"
	name := ""
	if p.at(lexer.IDENT) {
		name = p.cur.Literal
		p.advance()
	}
	node := &ast.ClassNode{Base: ast.Base{P: pos}, Name: name}
	if p.at(lexer.KW_EXTENDS) {
		p.advance()
		super, err := p.parseLeftHandSideExpr()
		if err != nil {
			return nil, err
		}
		node.SuperClass = super
	}
	if _, err := p.expect(lexer.LBRACE, "{"); err != nil {
		return nil, err
	}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.at(lexer.SEMI) {
			p.advance()
			continue
		}
		if p.at(lexer.KW_STATIC) && p.peek.Kind == lexer.LBRACE {
			p.advance()
			block, err := p.parseBlockStatement()
			if err != nil {
				return nil, err
			}
			node.StaticBlocks = append(node.StaticBlocks, ast.StaticBlock{Body: block.Body})
			continue
		}
		member, isMethod, err := p.parseClassMember()
		if err != nil {
			return nil, err
		}
		if isMethod {
			node.Methods = append(node.Methods, member.(ast.ClassMethod))
		} else {
			node.Properties = append(node.Properties, member.(ast.ClassProperty))
		}
	}
	if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseClassMember() (interface{}, bool, error) {
	static := false
	if p.at(lexer.KW_STATIC) {
		static = true
		p.advance()
	}
	isAsync := false
	if p.at(lexer.KW_ASYNC) {
		isAsync = true
		p.advance()
	}
	isGen := false
	if p.at(lexer.STAR) {
		isGen = true
		p.advance()
	}
	kind := "method"
	if (p.at(lexer.KW_GET) || p.at(lexer.KW_SET)) && p.peek.Kind != lexer.LPAREN && p.peek.Kind != lexer.ASSIGN {
		if p.at(lexer.KW_GET) {
			kind = "get"
		} else {
			kind = "set"
		}
		p.advance()
	}

	private := false
	var key ast.Expression
	computed := false
	pos := p.cur.Pos
	switch {
	case p.at(lexer.PRIVATE_IDENT):
		private = true
		key = &ast.Identifier{Base: ast.Base{P: pos}, Name: p.cur.Literal}
		p.advance()
	case p.at(lexer.LBRACKET):
		computed = true
		p.advance()
		k, err := p.parseAssignExpr()
		if err != nil {
			return nil, false, err
		}
		key = k
		if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
			return nil, false, err
		}
	default:
		name := p.cur.Literal
		key = &ast.StringLiteral{Base: ast.Base{P: pos}, Value: name}
		p.advance()
	}

	if p.at(lexer.LPAREN) {
		methodKind := kind
		if ident, ok := key.(*ast.StringLiteral); ok && ident.Value == "constructor" && !static {
			methodKind = "constructor"
		}
		fn, err := p.parseFunctionTail(pos, "", isAsync, isGen, false)
		if err != nil {
			return nil, false, err
		}
		return ast.ClassMethod{Key: key, Computed: computed, Kind: methodKind, Static: static, Private: private, Function: fn}, true, nil
	}

	prop := ast.ClassProperty{Key: key, Computed: computed, Static: static, Private: private}
	if p.at(lexer.ASSIGN) {
		p.advance()
		v, err := p.parseAssignExpr()
		if err != nil {
			return nil, false, err
		}
		prop.Value = v
	}
	p.consumeSemi()
	return prop, false, nil
}

// ---------------------------------------------------------------------
// Binding targets (patterns)
// ---------------------------------------------------------------------

func (p *Parser) parseBindingTarget() (ast.Pattern, error) {
	switch {
	case p.at(lexer.LBRACKET):
		return p.parseArrayPattern()
	case p.at(lexer.LBRACE):
		return p.parseObjectPattern()
	case p.at(lexer.IDENT) || isContextualKeyword(p.cur.Kind):
		pos := p.cur.Pos
		name := p.cur.Literal
		p.advance()
		var pat ast.Pattern = &ast.Identifier{Base: ast.Base{P: pos}, Name: name}
		if p.at(lexer.ASSIGN) {
			p.advance()
			def, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			pat = &ast.AssignmentPattern{Base: ast.Base{P: pos}, Target: pat, Default: def}
		}
		return pat, nil
	}
	return nil, p.errAt(p.cur.Pos, "expected binding pattern, got %q", p.cur.Literal)
}

func isContextualKeyword(k lexer.Kind) bool {
	switch k {
	case lexer.KW_OF, lexer.KW_GET, lexer.KW_SET, lexer.KW_STATIC, lexer.KW_ASYNC:
		return true
	default:
		return false
	}
}

func (p *Parser) parseArrayPattern() (ast.Pattern, error) {
	pos := p.cur.Pos
	p.advance()
	pat := &ast.ArrayPattern{Base: ast.Base{P: pos}}
	for !p.at(lexer.RBRACKET) {
		if p.at(lexer.COMMA) {
			pat.Elements = append(pat.Elements, nil)
			p.advance()
			continue
		}
		if p.at(lexer.DOTDOTDOT) {
			p.advance()
			arg, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			pat.Elements = append(pat.Elements, &ast.RestElement{Base: ast.Base{P: pos}, Argument: arg})
		} else {
			el, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			pat.Elements = append(pat.Elements, el)
		}
		if !p.at(lexer.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
		return nil, err
	}
	return pat, nil
}

func (p *Parser) parseObjectPattern() (ast.Pattern, error) {
	pos := p.cur.Pos
	p.advance()
	pat := &ast.ObjectPattern{Base: ast.Base{P: pos}}
	for !p.at(lexer.RBRACE) {
		if p.at(lexer.DOTDOTDOT) {
			p.advance()
			rest, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			pat.Rest = &ast.RestElement{Base: ast.Base{P: pos}, Argument: rest}
			break
		}
		computed := false
		var key ast.Expression
		if p.at(lexer.LBRACKET) {
			computed = true
			p.advance()
			k, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			key = k
			if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
				return nil, err
			}
		} else {
			kpos := p.cur.Pos
			name := p.cur.Literal
			p.advance()
			key = &ast.StringLiteral{Base: ast.Base{P: kpos}, Value: name}
		}
		var value ast.Pattern
		if p.at(lexer.COLON) {
			p.advance()
			v, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			value = v
		} else if idKey, ok := key.(*ast.StringLiteral); ok {
			// Shorthand {x} or {x = default}
			value = &ast.Identifier{Base: idKey.Base, Name: idKey.Value}
		}
		if p.at(lexer.ASSIGN) {
			p.advance()
			def, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			value = &ast.AssignmentPattern{Base: ast.Base{P: pos}, Target: value, Default: def}
		}
		pat.Properties = append(pat.Properties, ast.ObjectPatternProperty{Key: key, Computed: computed, Value: value})
		if !p.at(lexer.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
		return nil, err
	}
	return pat, nil
}

// exprToPattern reinterprets an already-parsed expression (the for(x of
// ...) / for(x in ...) head, and assignment-expression LHS) as an
// assignment target pattern. Only the forms a valid assignment target can
// take are handled; anything else is a parser bug surfaced by the
// evaluator as a descriptive AssignToConst-adjacent failure instead of a
// panic.
func exprToPattern(e ast.Expression) ast.Pattern {
	switch v := e.(type) {
	case *ast.Identifier:
		return v
	case ast.Pattern:
		return v
	default:
		return &ast.Identifier{Base: ast.Base{P: e.Pos()}, Name: ""}
	}
}

// ---------------------------------------------------------------------
// Expressions: precedence-climbing
// ---------------------------------------------------------------------

// precedence maps binary/logical operator token kinds to binding power.
// Unary, postfix, call/member and assignment are handled outside this
// table at their own fixed levels.
var precedence = map[lexer.Kind]int{
	lexer.QUESTION_QUESTION: 1,
	lexer.OR:                2,
	lexer.AND:               3,
	lexer.PIPE:              4,
	lexer.CARET:             5,
	lexer.AMP:                6,
	lexer.EQ:                7,
	lexer.NOT_EQ:            7,
	lexer.EQ_STRICT:         7,
	lexer.NOT_EQ_STRICT:     7,
	lexer.LT:                8,
	lexer.GT:                8,
	lexer.LT_EQ:             8,
	lexer.GT_EQ:             8,
	lexer.KW_INSTANCEOF:     8,
	lexer.KW_IN:             8,
	lexer.SHL:               9,
	lexer.SHR:               9,
	lexer.USHR:              9,
	lexer.PLUS:              10,
	lexer.MINUS:             10,
	lexer.STAR:              11,
	lexer.SLASH:             11,
	lexer.PERCENT:           11,
	lexer.STAR_STAR:         12,
}

func isLogical(k lexer.Kind) bool {
	return k == lexer.AND || k == lexer.OR || k == lexer.QUESTION_QUESTION
}

var assignOps = map[lexer.Kind]string{
	lexer.ASSIGN: "=", lexer.PLUS_EQ: "+=", lexer.MINUS_EQ: "-=", lexer.STAR_EQ: "*=",
	lexer.SLASH_EQ: "/=", lexer.PERCENT_EQ: "%=", lexer.STAR_STAR_EQ: "**=",
	lexer.AMP_EQ: "&=", lexer.PIPE_EQ: "|=", lexer.CARET_EQ: "^=",
	lexer.SHL_EQ: "<<=", lexer.SHR_EQ: ">>=", lexer.USHR_EQ: ">>>=",
	lexer.AND_EQ: "&&=", lexer.OR_EQ: "||=", lexer.QUESTION_QUESTION_EQ: "??=",
}

// parseExpression parses a full comma-separated sequence expression, the
// widest grammar production (used at statement and for-loop-clause level).
func (p *Parser) parseExpression() (ast.Expression, error) {
	first, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.COMMA) {
		return first, nil
	}
	seq := &ast.SequenceExpression{Base: ast.Base{P: first.Pos()}, Expressions: []ast.Expression{first}}
	for p.at(lexer.COMMA) {
		p.advance()
		next, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		seq.Expressions = append(seq.Expressions, next)
	}
	return seq, nil
}

// parseAssignExpr parses assignment expressions (right-associative),
// falling through to the conditional/ternary level, and detects arrow
// functions via bounded lookahead.
func (p *Parser) parseAssignExpr() (ast.Expression, error) {
	if arrow, ok, err := p.tryParseArrow(); err != nil {
		return nil, err
	} else if ok {
		return arrow, nil
	}

	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if op, ok := assignOps[p.cur.Kind]; ok {
		pos := p.cur.Pos
		p.advance()
		right, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentExpression{Base: ast.Base{P: pos}, Operator: op, Target: left, Value: right}, nil
	}
	return left, nil
}

// tryParseArrow attempts to parse an arrow function at the current
// position. A bare-identifier head (`x => ...`, `async x => ...`) is
// resolved by one-token lookahead; a parenthesized head (`(a, b) => ...`,
// `async (a, b) => ...`) is ambiguous with a parenthesized expression
// under any fixed lookahead, so it is resolved by checkpointing the
// parser, attempting the arrow parse, and restoring on failure to retry
// as an ordinary expression.
func (p *Parser) tryParseArrow() (ast.Expression, bool, error) {
	pos := p.cur.Pos
	if p.at(lexer.IDENT) && p.peek.Kind == lexer.ARROW {
		p.advance() // ident
		fn, err := p.parseFunctionTail(pos, "", false, false, true)
		return fn, true, err
	}
	if p.at(lexer.KW_ASYNC) && p.peek.Kind == lexer.IDENT {
		cp := p.mark()
		p.advance() // async
		if p.peek.Kind == lexer.ARROW {
			p.advance()
			fn, err := p.parseFunctionTail(pos, "", true, false, true)
			return fn, true, err
		}
		p.reset(cp)
		return nil, false, nil
	}
	if p.at(lexer.LPAREN) || (p.at(lexer.KW_ASYNC) && p.peek.Kind == lexer.LPAREN) {
		cp := p.mark()
		isAsync := false
		if p.at(lexer.KW_ASYNC) {
			isAsync = true
			p.advance()
		}
		fn, err := p.parseFunctionTail(pos, "", isAsync, false, true)
		if err == nil {
			return fn, true, nil
		}
		p.reset(cp)
		return nil, false, nil
	}
	return nil, false, nil
}

func (p *Parser) parseConditional() (ast.Expression, error) {
	test, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if p.at(lexer.QUESTION) {
		pos := p.cur.Pos
		p.advance()
		cons, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON, ":"); err != nil {
			return nil, err
		}
		alt, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ConditionalExpression{Base: ast.Base{P: pos}, Test: test, Consequent: cons, Alternate: alt}, nil
	}
	return test, nil
}

func (p *Parser) parseBinary(minPrec int) (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := precedence[p.cur.Kind]
		if !ok || prec < minPrec {
			return left, nil
		}
		opTok := p.cur
		p.advance()
		nextMin := prec + 1
		if opTok.Kind == lexer.STAR_STAR {
			nextMin = prec // right-associative
		}
		right, err := p.parseBinary(nextMin)
		if err != nil {
			return nil, err
		}
		if isLogical(opTok.Kind) {
			left = &ast.LogicalExpression{Base: ast.Base{P: opTok.Pos}, Operator: opTok.Literal, Left: left, Right: right}
		} else {
			left = &ast.BinaryExpression{Base: ast.Base{P: opTok.Pos}, Operator: opTok.Literal, Left: left, Right: right}
		}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	switch p.cur.Kind {
	case lexer.NOT, lexer.MINUS, lexer.PLUS, lexer.TILDE, lexer.KW_TYPEOF, lexer.KW_VOID, lexer.KW_DELETE:
		pos := p.cur.Pos
		op := p.cur.Literal
		if p.cur.Kind == lexer.KW_TYPEOF {
			op = "typeof"
		} else if p.cur.Kind == lexer.KW_VOID {
			op = "void"
		} else if p.cur.Kind == lexer.KW_DELETE {
			op = "delete"
		}
		p.advance()
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Base: ast.Base{P: pos}, Operator: op, Argument: arg, Prefix: true}, nil
	case lexer.INC, lexer.DEC:
		pos := p.cur.Pos
		op := p.cur.Literal
		p.advance()
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UpdateExpression{Base: ast.Base{P: pos}, Operator: op, Argument: arg, Prefix: true}, nil
	case lexer.KW_AWAIT:
		pos := p.cur.Pos
		p.advance()
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.AwaitExpression{Base: ast.Base{P: pos}, Argument: arg}, nil
	case lexer.KW_YIELD:
		pos := p.cur.Pos
		p.advance()
		delegate := false
		if p.at(lexer.STAR) {
			delegate = true
			p.advance()
		}
		var arg ast.Expression
		if !p.at(lexer.SEMI) && !p.at(lexer.RPAREN) && !p.at(lexer.RBRACE) && !p.at(lexer.RBRACKET) &&
			!p.at(lexer.COMMA) && !p.at(lexer.EOF) && !p.cur.NewlineBefore {
			a, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			arg = a
		}
		return &ast.YieldExpression{Base: ast.Base{P: pos}, Argument: arg, Delegate: delegate}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parseLeftHandSideExpr()
	if err != nil {
		return nil, err
	}
	if (p.at(lexer.INC) || p.at(lexer.DEC)) && !p.cur.NewlineBefore {
		op := p.cur.Literal
		pos := p.cur.Pos
		p.advance()
		return &ast.UpdateExpression{Base: ast.Base{P: pos}, Operator: op, Argument: expr, Prefix: false}, nil
	}
	return expr, nil
}

// parseLeftHandSideExpr parses new-expressions, member access, calls and
// optional chaining on top of a primary expression.
func (p *Parser) parseLeftHandSideExpr() (ast.Expression, error) {
	var expr ast.Expression
	var err error
	if p.at(lexer.KW_NEW) {
		expr, err = p.parseNewExpr()
	} else {
		expr, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	return p.parseCallTail(expr)
}

func (p *Parser) parseNewExpr() (ast.Expression, error) {
	pos := p.cur.Pos
	p.advance() // "new"
	var callee ast.Expression
	var err error
	if p.at(lexer.KW_NEW) {
		callee, err = p.parseNewExpr()
	} else {
		callee, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	callee, err = p.parseMemberTail(callee)
	if err != nil {
		return nil, err
	}
	node := &ast.NewExpression{Base: ast.Base{P: pos}, Callee: callee}
	if p.at(lexer.LPAREN) {
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		node.Arguments = args
	}
	return node, nil
}

// parseMemberTail consumes only member-access productions (., [], private
// field), stopping before call parens - used while building a `new`
// callee, where call parens belong to the `new` itself.
func (p *Parser) parseMemberTail(expr ast.Expression) (ast.Expression, error) {
	for {
		switch {
		case p.at(lexer.DOT):
			pos := p.cur.Pos
			p.advance()
			name := p.cur.Literal
			if p.at(lexer.PRIVATE_IDENT) {
				name = p.cur.Literal
			}
			p.advance()
			expr = &ast.MemberExpression{Base: ast.Base{P: pos}, Object: expr, Property: &ast.Identifier{Base: ast.Base{P: pos}, Name: name}, Computed: false}
		case p.at(lexer.LBRACKET):
			pos := p.cur.Pos
			p.advance()
			prop, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{Base: ast.Base{P: pos}, Object: expr, Property: prop, Computed: true}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseCallTail(expr ast.Expression) (ast.Expression, error) {
	hadOptional := false
	for {
		switch {
		case p.at(lexer.DOT):
			pos := p.cur.Pos
			p.advance()
			name := p.cur.Literal
			p.advance()
			expr = &ast.MemberExpression{Base: ast.Base{P: pos}, Object: expr, Property: &ast.Identifier{Base: ast.Base{P: pos}, Name: name}, Computed: false}
		case p.at(lexer.QUESTION_DOT):
			pos := p.cur.Pos
			p.advance()
			hadOptional = true
			if p.at(lexer.LPAREN) {
				args, err := p.parseArguments()
				if err != nil {
					return nil, err
				}
				expr = &ast.CallExpression{Base: ast.Base{P: pos}, Callee: expr, Arguments: args, Optional: true}
				continue
			}
			if p.at(lexer.LBRACKET) {
				p.advance()
				prop, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
					return nil, err
				}
				expr = &ast.MemberExpression{Base: ast.Base{P: pos}, Object: expr, Property: prop, Computed: true, Optional: true}
				continue
			}
			name := p.cur.Literal
			p.advance()
			expr = &ast.MemberExpression{Base: ast.Base{P: pos}, Object: expr, Property: &ast.Identifier{Base: ast.Base{P: pos}, Name: name}, Computed: false, Optional: true}
		case p.at(lexer.LBRACKET):
			pos := p.cur.Pos
			p.advance()
			prop, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{Base: ast.Base{P: pos}, Object: expr, Property: prop, Computed: true}
		case p.at(lexer.LPAREN):
			pos := p.cur.Pos
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpression{Base: ast.Base{P: pos}, Callee: expr, Arguments: args}
		default:
			if hadOptional {
				return &ast.ChainExpression{Base: ast.Base{P: expr.Pos()}, Expression: expr}, nil
			}
			return expr, nil
		}
	}
}

func (p *Parser) parseArguments() ([]ast.Expression, error) {
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	var args []ast.Expression
	for !p.at(lexer.RPAREN) {
		if p.at(lexer.DOTDOTDOT) {
			pos := p.cur.Pos
			p.advance()
			arg, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, &ast.SpreadElement{Base: ast.Base{P: pos}, Argument: arg})
		} else {
			arg, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if !p.at(lexer.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	pos := p.cur.Pos
	switch p.cur.Kind {
	case lexer.NUMBER:
		v, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return nil, p.errAt(pos, "invalid number literal %q", p.cur.Literal)
		}
		p.advance()
		return &ast.NumberLiteral{Base: ast.Base{P: pos}, Value: v}, nil
	case lexer.BIGINT:
		v, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return nil, p.errAt(pos, "invalid bigint literal %q", p.cur.Literal)
		}
		p.advance()
		return &ast.NumberLiteral{Base: ast.Base{P: pos}, Value: v, BigInt: true}, nil
	case lexer.STRING:
		v := p.cur.Literal
		p.advance()
		return &ast.StringLiteral{Base: ast.Base{P: pos}, Value: v}, nil
	case lexer.KW_TRUE:
		p.advance()
		return &ast.BoolLiteral{Base: ast.Base{P: pos}, Value: true}, nil
	case lexer.KW_FALSE:
		p.advance()
		return &ast.BoolLiteral{Base: ast.Base{P: pos}, Value: false}, nil
	case lexer.KW_NULL:
		p.advance()
		return &ast.NullLiteral{Base: ast.Base{P: pos}}, nil
	case lexer.KW_UNDEFINED:
		p.advance()
		return &ast.UndefinedLiteral{Base: ast.Base{P: pos}}, nil
	case lexer.KW_THIS:
		p.advance()
		return &ast.ThisExpression{Base: ast.Base{P: pos}}, nil
	case lexer.KW_SUPER:
		p.advance()
		return &ast.SuperExpression{Base: ast.Base{P: pos}}, nil
	case lexer.IDENT, lexer.KW_OF, lexer.KW_GET, lexer.KW_SET, lexer.KW_STATIC:
		name := p.cur.Literal
		p.advance()
		return &ast.Identifier{Base: ast.Base{P: pos}, Name: name}, nil
	case lexer.PRIVATE_IDENT:
		name := p.cur.Literal
		p.advance()
		return &ast.Identifier{Base: ast.Base{P: pos}, Name: name}, nil
	case lexer.KW_FUNCTION:
		p.advance()
		isGen := false
		if p.at(lexer.STAR) {
			isGen = true
			p.advance()
		}
		name := ""
		if p.at(lexer.IDENT) {
			name = p.cur.Literal
			p.advance()
		}
		return p.parseFunctionTail(pos, name, false, isGen, false)
	case lexer.KW_ASYNC:
		p.advance()
		if p.at(lexer.KW_FUNCTION) {
			p.advance()
			isGen := false
			if p.at(lexer.STAR) {
				isGen = true
				p.advance()
			}
			name := ""
			if p.at(lexer.IDENT) {
				name = p.cur.Literal
				p.advance()
			}
			return p.parseFunctionTail(pos, name, true, isGen, false)
		}
		return &ast.Identifier{Base: ast.Base{P: pos}, Name: "async"}, nil
	case lexer.KW_CLASS:
		return p.parseClassBody()
	case lexer.LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
			return nil, err
		}
		return expr, nil
	case lexer.LBRACKET:
		return p.parseArrayLiteral()
	case lexer.LBRACE:
		return p.parseObjectLiteral()
	case lexer.TEMPLATE_STRING, lexer.TEMPLATE_HEAD:
		return p.parseTemplateLiteral()
	}
	return nil, p.errAt(pos, "unexpected token %q", p.cur.Literal)
}

func (p *Parser) parseArrayLiteral() (ast.Expression, error) {
	pos := p.cur.Pos
	p.advance()
	lit := &ast.ArrayLiteral{Base: ast.Base{P: pos}}
	for !p.at(lexer.RBRACKET) {
		if p.at(lexer.COMMA) {
			lit.Elements = append(lit.Elements, nil)
			p.advance()
			continue
		}
		if p.at(lexer.DOTDOTDOT) {
			spos := p.cur.Pos
			p.advance()
			arg, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			lit.Elements = append(lit.Elements, &ast.SpreadElement{Base: ast.Base{P: spos}, Argument: arg})
		} else {
			el, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			lit.Elements = append(lit.Elements, el)
		}
		if !p.at(lexer.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *Parser) parseObjectLiteral() (ast.Expression, error) {
	pos := p.cur.Pos
	p.advance()
	lit := &ast.ObjectLiteral{Base: ast.Base{P: pos}}
	for !p.at(lexer.RBRACE) {
		if p.at(lexer.DOTDOTDOT) {
			spos := p.cur.Pos
			p.advance()
			arg, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			lit.Properties = append(lit.Properties, ast.ObjectProperty{Spread: &ast.SpreadElement{Base: ast.Base{P: spos}, Argument: arg}})
			if !p.at(lexer.COMMA) {
				break
			}
			p.advance()
			continue
		}

		isAsync := false
		if p.at(lexer.KW_ASYNC) && p.peek.Kind != lexer.COLON && p.peek.Kind != lexer.COMMA && p.peek.Kind != lexer.RBRACE {
			isAsync = true
			p.advance()
		}
		isGen := false
		if p.at(lexer.STAR) {
			isGen = true
			p.advance()
		}
		accessorKind := ""
		if (p.at(lexer.KW_GET) || p.at(lexer.KW_SET)) && p.peek.Kind != lexer.COLON && p.peek.Kind != lexer.COMMA && p.peek.Kind != lexer.RBRACE && p.peek.Kind != lexer.LPAREN {
			if p.at(lexer.KW_GET) {
				accessorKind = "get"
			} else {
				accessorKind = "set"
			}
			p.advance()
		}

		computed := false
		var key ast.Expression
		kpos := p.cur.Pos
		if p.at(lexer.LBRACKET) {
			computed = true
			p.advance()
			k, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			key = k
			if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
				return nil, err
			}
		} else {
			name := p.cur.Literal
			if p.at(lexer.STRING) || p.at(lexer.NUMBER) {
				p.advance()
			} else {
				p.advance()
			}
			key = &ast.StringLiteral{Base: ast.Base{P: kpos}, Value: name}
		}

		prop := ast.ObjectProperty{Key: key, Computed: computed}
		switch {
		case p.at(lexer.LPAREN):
			fn, err := p.parseFunctionTail(kpos, "", isAsync, isGen, false)
			if err != nil {
				return nil, err
			}
			prop.Value = fn
			if accessorKind == "get" || accessorKind == "set" {
				prop.Kind = accessorKind
			} else {
				prop.Kind = "init"
			}
		case p.at(lexer.COLON):
			p.advance()
			v, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			prop.Value = v
			prop.Kind = "init"
		default:
			if idKey, ok := key.(*ast.StringLiteral); ok {
				prop.Value = &ast.Identifier{Base: idKey.Base, Name: idKey.Value}
				prop.Shorthand = true
			}
			prop.Kind = "init"
		}
		lit.Properties = append(lit.Properties, prop)
		if !p.at(lexer.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *Parser) parseTemplateLiteral() (ast.Expression, error) {
	pos := p.cur.Pos
	lit := &ast.TemplateLiteral{Base: ast.Base{P: pos}}
	if p.at(lexer.TEMPLATE_STRING) {
		lit.Quasis = []string{p.cur.Literal}
		lit.RawQuasis = []string{p.cur.Literal}
		p.advance()
		return lit, nil
	}
	lit.Quasis = append(lit.Quasis, p.cur.Literal)
	lit.RawQuasis = append(lit.RawQuasis, p.cur.Literal)
	p.advance() // TEMPLATE_HEAD
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		lit.Expressions = append(lit.Expressions, expr)
		if !p.at(lexer.TEMPLATE_MIDDLE) && !p.at(lexer.TEMPLATE_TAIL) {
			return nil, p.errAt(p.cur.Pos, "unterminated template literal")
		}
		lit.Quasis = append(lit.Quasis, p.cur.Literal)
		lit.RawQuasis = append(lit.RawQuasis, p.cur.Literal)
		isTail := p.at(lexer.TEMPLATE_TAIL)
		p.advance()
		if isTail {
			break
		}
	}
	return lit, nil
}
