package markup

import (
	"strings"
)

type tokenKind int

const (
	tokenBlank tokenKind = iota
	tokenRule
	tokenTitle
	tokenHeading
	tokenBoldHeading
	tokenCheck
	tokenBullet
	tokenRow
	tokenText
)

// token is one classified source line. text has its prefix removed; cells is
// only set for rows.
type token struct {
	kind  tokenKind
	text  string
	cells []string
}

var checkGlyphs = []string{"✓", "✔", "✅", "☑"}

// lex classifies every line independently. No state crosses lines here; table
// grouping happens in the parser.
func lex(input string) []token {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	lines := strings.Split(input, "\n")
	tokens := make([]token, 0, len(lines))
	for _, raw := range lines {
		tokens = append(tokens, classify(strings.TrimSpace(raw)))
	}
	return tokens
}

func classify(line string) token {
	if line == "" {
		return token{kind: tokenBlank}
	}
	if isRule(line) {
		return token{kind: tokenRule}
	}
	if strings.Count(line, "|") >= 2 {
		return token{kind: tokenRow, cells: splitRow(line)}
	}
	if strings.HasPrefix(line, "# ") {
		return token{kind: tokenTitle, text: strings.TrimSpace(line[2:])}
	}
	if strings.HasPrefix(line, "##") {
		rest := strings.TrimLeft(line, "#")
		if strings.HasPrefix(rest, " ") {
			return token{kind: tokenHeading, text: strings.TrimSpace(rest)}
		}
	}
	if inner, ok := boldHeading(line); ok {
		return token{kind: tokenBoldHeading, text: inner}
	}
	for _, glyph := range checkGlyphs {
		if strings.HasPrefix(line, glyph+" ") {
			return token{kind: tokenCheck, text: strings.TrimSpace(line[len(glyph)+1:])}
		}
	}
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return token{kind: tokenBullet, text: strings.TrimSpace(line[2:])}
	}
	return token{kind: tokenText, text: line}
}

// boldHeading matches "**Something**" lines with no space in the first five
// characters, the legacy way sections were emphasised.
func boldHeading(line string) (string, bool) {
	if len(line) <= 4 || !strings.HasPrefix(line, "**") || !strings.HasSuffix(line, "**") {
		return "", false
	}
	head := line
	if len(head) > 5 {
		head = head[:5]
	}
	if strings.Contains(head, " ") {
		return "", false
	}
	inner := strings.TrimSpace(line[2 : len(line)-2])
	if inner == "" || strings.Contains(inner, "**") {
		return "", false
	}
	return inner, true
}

// isRule reports lines made only of three or more dashes, underscores or equals signs.
func isRule(line string) bool {
	if len(line) < 3 {
		return false
	}
	first := line[0]
	if first != '-' && first != '_' && first != '=' {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != first {
			return false
		}
	}
	return true
}

// splitRow splits on the column separator and drops empty cells.
func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		cell := strings.TrimSpace(part)
		if cell == "" {
			continue
		}
		cells = append(cells, cell)
	}
	return cells
}

// isSeparatorRow matches alignment rows such as "|---|:---:|".
func isSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, cell := range cells {
		if len(cell) < 2 {
			return false
		}
		for _, r := range cell {
			if r != '-' && r != ':' && r != ' ' {
				return false
			}
		}
	}
	return true
}

func cleanCell(cell string) string {
	if cell == "-" {
		return ""
	}
	if len(cell) > 4 && strings.HasPrefix(cell, "**") && strings.HasSuffix(cell, "**") {
		return strings.TrimSpace(cell[2 : len(cell)-2])
	}
	return cell
}
