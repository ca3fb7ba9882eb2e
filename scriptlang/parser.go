package scriptlang

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	TOKEN_WORD = iota
	TOKEN_LABEL
	TOKEN_NUMBER
	TOKEN_STRING
	TOKEN_NEWLINE
	TOKEN_COMMENT
)

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_]*`), getToken(TOKEN_WORD))
	lexer.Add([]byte(`\$[a-zA-Z_][a-zA-Z0-9_]*`), getToken(TOKEN_LABEL))
	lexer.Add([]byte(`[\+\-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][\+\-]?[0-9]+)?`), getToken(TOKEN_NUMBER))
	lexer.Add([]byte(`(\n|\r)+`), getToken(TOKEN_NEWLINE))
	lexer.Add([]byte(`//[^\n\r]*`), getToken(TOKEN_COMMENT))
	lexer.Add([]byte(`[ \t]+`), skip)
	lexer.Add([]byte(`"(\\.|[^"\\])*"`), getToken(TOKEN_STRING))
	if err := lexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

// ParseScript splits the text into commands, one per line. Lines holding
// only a comment become commands without a keyword.
func ParseScript(text []byte) ([]*Command, error) {
	scanner, err := lexer.Scanner(text)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	result := make([]*Command, 0, 16)

	var current *Command
	for Itok, err, eos := scanner.Next(); !eos; Itok, err, eos = scanner.Next() {
		if err != nil {
			if ue, ok := err.(*machines.UnconsumedInput); ok {
				return nil, errors.Errorf("Unexpected input on line %v column %v", ue.FailLine, ue.FailColumn)
			}
			return nil, errors.Wrapf(err, "Failed to parse token")
		}
		tok := Itok.(*lexmachine.Token)
		lexeme := string(tok.Lexeme)

		switch tok.Type {
		case TOKEN_WORD:
			if current == nil {
				current = NewCommand(lexeme)
				current.Line = tok.StartLine
				result = append(result, current)
			} else if current.Keyword == "" {
				return nil, errors.Errorf("Command after comment on line %v (%q)", tok.StartLine, lexeme)
			} else {
				current.AddArgs(Word(lexeme))
			}
		case TOKEN_LABEL:
			if current == nil {
				return nil, errors.Errorf("Missed command on line %v (%q)", tok.StartLine, lexeme)
			}
			current.AddArgs(&Label{Name: lexeme[1:]})
		case TOKEN_NUMBER:
			if current == nil {
				return nil, errors.Errorf("Missed command on line %v (%q)", tok.StartLine, lexeme)
			}
			if v, err := strconv.ParseFloat(lexeme, 64); err == nil {
				current.AddArgs(v)
			} else {
				return nil, errors.Errorf("Unknown number format on line %v (%q)", tok.StartLine, lexeme)
			}
		case TOKEN_STRING:
			if current == nil {
				return nil, errors.Errorf("Missed command on line %v (%q)", tok.StartLine, lexeme)
			}
			if s, err := strconv.Unquote(lexeme); err != nil {
				return nil, errors.Errorf("Unknown string format on line %v (%q)", tok.StartLine, lexeme)
			} else {
				current.AddArgs(s)
			}
		case TOKEN_NEWLINE:
			current = nil
		case TOKEN_COMMENT:
			comment := strings.TrimSpace(lexeme[2:])
			if current != nil {
				current.Comment = comment
			} else {
				current = &Command{Line: tok.StartLine, Comment: comment}
				result = append(result, current)
			}
		}
	}

	return result, nil
}
