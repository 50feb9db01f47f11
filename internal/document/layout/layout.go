// Package layout is the primitive vocabulary shared by the rich-text renderer, the page
// templates and the output writers.
package layout

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
	AlignJustify
)

// Block occupies its own layout box.
type Block interface{ isBlock() }

// Inline stays within a single text flow.
type Inline interface{ isInline() }

type Paragraph struct {
	Inlines []Inline
	Align   Align
	Indent  int
}

type Heading struct {
	Level   int
	Inlines []Inline
	Align   Align
}

type List struct {
	Ordered bool
	Items   []ListItem
}

type ListItem struct {
	Blocks []Block
}

type Column struct {
	Title  string
	Weight float64
}

type Cell struct {
	Text    string
	Bold    bool
	ColSpan int
	Align   Align
}

type Row struct {
	Cells []Cell
}

// Table renders Columns as the header row when Header is set.
type Table struct {
	Columns []Column
	Header  bool
	Rows    []Row
}

type Image struct {
	Src string
	Alt string
}

type Spacer struct {
	Height float64
}

// KeyValue is a label/value pair such as a signature line.
type KeyValue struct {
	Key   string
	Value string
}

func (Paragraph) isBlock() {}
func (Heading) isBlock()   {}
func (List) isBlock()      {}
func (Table) isBlock()     {}
func (Image) isBlock()     {}
func (Spacer) isBlock()    {}
func (KeyValue) isBlock()  {}

type Text struct {
	Value     string
	Bold      bool
	Italic    bool
	Underline bool
	Link      string
}

type LineBreak struct{}

type InlineImage struct {
	Src string
	Alt string
}

func (Text) isInline()        {}
func (LineBreak) isInline()   {}
func (InlineImage) isInline() {}

func P(text string) Paragraph {
	return Paragraph{Inlines: []Inline{Text{Value: text}}}
}

func Bold(text string) Paragraph {
	return Paragraph{Inlines: []Inline{Text{Value: text, Bold: true}}}
}

func H(level int, text string) Heading {
	return Heading{Level: level, Inlines: []Inline{Text{Value: text, Bold: true}}, Align: AlignCenter}
}

// Center returns b centered when it supports alignment.
func Center(b Block) Block {
	switch v := b.(type) {
	case Paragraph:
		v.Align = AlignCenter
		return v
	case Heading:
		v.Align = AlignCenter
		return v
	default:
		return b
	}
}

// Cols builds equally weighted columns.
func Cols(titles ...string) []Column {
	out := make([]Column, len(titles))
	for i, t := range titles {
		out[i] = Column{Title: t, Weight: 1}
	}
	return out
}

func TextRow(values ...string) Row {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Cell{Text: v}
	}
	return Row{Cells: cells}
}
