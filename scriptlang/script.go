package scriptlang

import (
	"fmt"
	"strconv"
	"strings"
)

// Word is a bare identifier argument, like rpy or local.
type Word string

type Label struct {
	Name string
}

func (l *Label) String() string {
	return "$" + l.Name
}

func (l *Label) GoString() string {
	return fmt.Sprintf("label %q", l.String())
}

type Command struct {
	Line    int
	Keyword string
	// string, float64, Word or *Label
	Args    []interface{}
	Comment string
}

func NewCommand(keyword string, args ...interface{}) *Command {
	return &Command{Keyword: keyword, Args: args}
}

func (c *Command) AddArgs(args ...interface{}) {
	c.Args = append(c.Args, args...)
}

func (c *Command) String() string {
	var sb strings.Builder
	sb.WriteString(c.Keyword)
	for _, a := range c.Args {
		sb.WriteByte(' ')
		switch v := a.(type) {
		case string:
			sb.WriteString(strconv.Quote(v))
		case float64:
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		case Word:
			sb.WriteString(string(v))
		case *Label:
			sb.WriteString(v.String())
		default:
			fmt.Fprint(&sb, v)
		}
	}
	return sb.String()
}

func RenderScriptLines(commands []*Command) []string {
	result := make([]string, 0, len(commands))
	for _, c := range commands {
		switch {
		case c.Keyword == "":
			result = append(result, "// "+c.Comment)
		case c.Comment == "":
			result = append(result, c.String())
		default:
			result = append(result, fmt.Sprintf("%-40s // %s", c.String(), c.Comment))
		}
	}
	return result
}

func RenderScript(commands []*Command) string {
	return strings.Join(RenderScriptLines(commands), "\n")
}
