package markup

import (
	"regexp"
	"strings"
)

var boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

type parserState int

const (
	stateFlow parserState = iota
	stateTable
)

// Parser turns line-oriented proposal markup into layout blocks. It is a
// two-pass pipeline: lex classifies lines, then a small state machine groups
// consecutive table rows.
type Parser struct {
	state   parserState
	pending [][]string
	blocks  []Block
}

func NewParser() *Parser {
	return &Parser{}
}

// Parse is a convenience wrapper around a fresh Parser.
func Parse(input string) []Block {
	return NewParser().Parse(input)
}

func (p *Parser) Parse(input string) []Block {
	p.state = stateFlow
	p.pending = nil
	p.blocks = nil

	for _, tok := range lex(input) {
		p.feed(tok)
	}
	p.closeTable()

	return p.blocks
}

func (p *Parser) feed(tok token) {
	if tok.kind == tokenRow {
		p.state = stateTable
		if isSeparatorRow(tok.cells) {
			return
		}
		row := make([]string, 0, len(tok.cells))
		for _, cell := range tok.cells {
			row = append(row, cleanCell(cell))
		}
		if len(row) > 0 {
			p.pending = append(p.pending, row)
		}
		return
	}

	// any other line ends the table
	p.closeTable()

	switch tok.kind {
	case tokenBlank, tokenRule:
	case tokenTitle:
		p.emit(Block{Kind: BlockTitle, Spans: plain(tok.text)})
	case tokenHeading, tokenBoldHeading:
		p.emit(Block{Kind: BlockHeading, Spans: plain(tok.text)})
	case tokenCheck:
		p.emit(Block{Kind: BlockChecklist, Spans: ParseInline(tok.text)})
	case tokenBullet:
		p.emit(Block{Kind: BlockBullet, Spans: ParseInline(tok.text)})
	case tokenText:
		p.emit(Block{Kind: BlockParagraph, Spans: ParseInline(tok.text)})
	}
}

func (p *Parser) closeTable() {
	if p.state != stateTable {
		return
	}
	p.state = stateFlow
	rows := p.pending
	p.pending = nil
	if len(rows) == 0 {
		return
	}
	p.emit(Block{Kind: BlockTable, Rows: normalizeRows(rows)})
}

func (p *Parser) emit(b Block) {
	if b.Kind != BlockTable && b.Text() == "" {
		return
	}
	p.blocks = append(p.blocks, b)
}

// normalizeRows fixes every row to the first row's width, capped at MaxTableColumns.
func normalizeRows(rows [][]string) [][]string {
	cols := len(rows[0])
	if cols > MaxTableColumns {
		cols = MaxTableColumns
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		fixed := make([]string, cols)
		copy(fixed, row)
		out = append(out, fixed)
	}
	return out
}

// ParseInline splits text on **bold** markers. Unmatched markers stay literal.
func ParseInline(text string) []Span {
	matches := boldPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return plainSpan(text)
	}
	spans := make([]Span, 0, len(matches)*2+1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			spans = append(spans, Span{Text: text[last:m[0]]})
		}
		spans = append(spans, Span{Text: text[m[2]:m[3]], Bold: true})
		last = m[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Text: text[last:]})
	}
	return spans
}

// plain strips bold markers; headings are already bold.
func plain(text string) []Span {
	return plainSpan(strings.TrimSpace(boldPattern.ReplaceAllString(text, "$1")))
}

func plainSpan(text string) []Span {
	if text == "" {
		return nil
	}
	return []Span{{Text: text}}
}
