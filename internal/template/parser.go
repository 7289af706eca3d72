package template

import (
	"regexp"
	"slices"
	"strings"
)

var (
	forStmtRe  = regexp.MustCompile(`(?s)^for\s+([A-Za-z_][A-Za-z0-9_]*)\s+in\s+(.+?)\s*:?$`)
	condStmtRe = regexp.MustCompile(`(?s)^(if|elif)\s+(.+?)\s*:?$`)
)

// ParseString tokenizes and parses a template.
func ParseString(input, file string) (*Template, error) {
	tokens, err := NewLexer(input, file).Tokenize()
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	nodes, _, err := p.parseNodes()
	if err != nil {
		return nil, err
	}

	return &Template{Nodes: nodes, File: file}, nil
}

// parser builds the block structure from the flat token stream.
type parser struct {
	tokens []Token
	pos    int
}

// parseNodes collects nodes until EOF or a statement of one of the kinds in
// ends, which is returned. Any other closing statement is an error.
func (p *parser) parseNodes(ends ...StmtKind) ([]Node, *StmtNode, error) {
	var nodes []Node

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++

		switch tok.Type {
		case TokenEOF:
			return nodes, nil, nil

		case TokenText:
			nodes = append(nodes, &TextNode{nodeBase: nodeBase{pos: tok.Pos}, Text: tok.Value})

		case TokenExpr:
			if tok.Value == "" {
				return nil, nil, NewParseError(tok.Pos, "empty expression")
			}
			nodes = append(nodes, &ExprNode{nodeBase: nodeBase{pos: tok.Pos}, Expr: tok.Value})

		case TokenStmt:
			stmt, err := parseStatement(tok)
			if err != nil {
				return nil, nil, err
			}

			switch stmt.Kind {
			case StmtFor:
				block, err := p.parseFor(stmt)
				if err != nil {
					return nil, nil, err
				}
				nodes = append(nodes, block)
			case StmtIf:
				block, err := p.parseIf(stmt)
				if err != nil {
					return nil, nil, err
				}
				nodes = append(nodes, block)
			default:
				if slices.Contains(ends, stmt.Kind) {
					return nodes, stmt, nil
				}
				return nil, nil, NewUnmatchedBlockError(stmt.Pos(), stmt.Kind)
			}

		default:
			return nil, nil, NewParseErrorf(tok.Pos, "unexpected token %s", tok.Type)
		}
	}

	return nodes, nil, nil
}

func (p *parser) parseFor(stmt *StmtNode) (*ForBlock, error) {
	body, end, err := p.parseNodes(StmtEndFor)
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, NewUnmatchedBlockError(stmt.Pos(), StmtFor)
	}
	return &ForBlock{
		nodeBase: stmt.nodeBase,
		VarName:  stmt.VarName,
		IterExpr: stmt.Expr,
		Body:     body,
	}, nil
}

func (p *parser) parseIf(stmt *StmtNode) (*IfBlock, error) {
	block := &IfBlock{nodeBase: stmt.nodeBase, Condition: stmt.Expr}

	body, end, err := p.parseNodes(StmtElif, StmtElse, StmtEndIf)
	if err != nil {
		return nil, err
	}
	block.Body = body

	for {
		if end == nil {
			return nil, NewUnmatchedBlockError(stmt.Pos(), StmtIf)
		}

		switch end.Kind {
		case StmtElif:
			branch := Branch{Condition: end.Expr, pos: end.Pos()}
			branch.Body, end, err = p.parseNodes(StmtElif, StmtElse, StmtEndIf)
			if err != nil {
				return nil, err
			}
			block.ElseIfs = append(block.ElseIfs, branch)

		case StmtElse:
			elseBody, last, err := p.parseNodes(StmtEndIf)
			if err != nil {
				return nil, err
			}
			if last == nil {
				return nil, NewUnmatchedBlockError(stmt.Pos(), StmtIf)
			}
			if elseBody == nil {
				elseBody = []Node{}
			}
			block.Else = elseBody
			return block, nil

		default: // StmtEndIf
			return block, nil
		}
	}
}

// parseStatement classifies the content of a {* ... *} tag.
func parseStatement(tok Token) (*StmtNode, error) {
	stmt := &StmtNode{nodeBase: nodeBase{pos: tok.Pos}}
	src := tok.Value

	switch {
	case src == "endfor":
		stmt.Kind = StmtEndFor
	case src == "endif":
		stmt.Kind = StmtEndIf
	case src == "else" || src == "else:":
		stmt.Kind = StmtElse
	case strings.HasPrefix(src, "for ") || strings.HasPrefix(src, "for\t"):
		m := forStmtRe.FindStringSubmatch(src)
		if m == nil {
			return nil, NewParseErrorf(tok.Pos, "malformed for statement %q (want 'for NAME in EXPR:')", src)
		}
		stmt.Kind = StmtFor
		stmt.VarName = m[1]
		stmt.Expr = m[2]
	default:
		m := condStmtRe.FindStringSubmatch(src)
		if m == nil {
			return nil, NewParseErrorf(tok.Pos, "unknown statement %q", src)
		}
		stmt.Kind = StmtIf
		if m[1] == "elif" {
			stmt.Kind = StmtElif
		}
		stmt.Expr = m[2]
	}

	return stmt, nil
}
