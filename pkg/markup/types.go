package markup

import "strings"

// BlockKind identifies a layout block produced by the parser.
type BlockKind int

const (
	BlockTitle BlockKind = iota + 1
	BlockHeading
	BlockChecklist
	BlockBullet
	BlockTable
	BlockParagraph
)

func (k BlockKind) String() string {
	switch k {
	case BlockTitle:
		return "title"
	case BlockHeading:
		return "heading"
	case BlockChecklist:
		return "checklist"
	case BlockBullet:
		return "bullet"
	case BlockTable:
		return "table"
	case BlockParagraph:
		return "paragraph"
	default:
		return "unknown"
	}
}

// MaxTableColumns caps table width; extra columns are dropped.
const MaxTableColumns = 4

// Span is a run of text with uniform weight.
type Span struct {
	Text string
	Bold bool
}

// Block is one unit of layout. Rows is only set for BlockTable; every other
// kind carries its content in Spans.
type Block struct {
	Kind  BlockKind
	Spans []Span
	Rows  [][]string
}

// Text joins the spans without markers.
func (b Block) Text() string {
	var sb strings.Builder
	for _, s := range b.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Columns is the width of a table block, taken from its first row.
func (b Block) Columns() int {
	if b.Kind != BlockTable || len(b.Rows) == 0 {
		return 0
	}
	return len(b.Rows[0])
}

// Header is the first row of a table block.
func (b Block) Header() []string {
	if b.Kind != BlockTable || len(b.Rows) == 0 {
		return nil
	}
	return b.Rows[0]
}

// Body is every row after the header.
func (b Block) Body() [][]string {
	if b.Kind != BlockTable || len(b.Rows) < 2 {
		return nil
	}
	return b.Rows[1:]
}
