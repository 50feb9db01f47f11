package layout

import (
	"strconv"
	"strings"
)

// InlineText flattens inline runs; line breaks become newlines.
func InlineText(inlines []Inline) string {
	var b strings.Builder
	for _, in := range inlines {
		switch v := in.(type) {
		case Text:
			b.WriteString(v.Value)
		case LineBreak:
			b.WriteByte('\n')
		case InlineImage:
			if v.Alt != "" {
				b.WriteString("[" + v.Alt + "]")
			}
		}
	}
	return b.String()
}

// PlainText flattens blocks into newline separated text.
func PlainText(blocks []Block) string {
	lines := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		lines = appendPlain(lines, blk, 0)
	}
	return strings.Join(lines, "\n")
}

func appendPlain(lines []string, blk Block, depth int) []string {
	pad := strings.Repeat("  ", depth)
	switch v := blk.(type) {
	case Paragraph:
		lines = append(lines, pad+InlineText(v.Inlines))
	case Heading:
		lines = append(lines, pad+InlineText(v.Inlines))
	case List:
		for i, item := range v.Items {
			marker := "• "
			if v.Ordered {
				marker = strconv.Itoa(i+1) + ". "
			}
			for j, inner := range item.Blocks {
				sub := appendPlain(nil, inner, depth+1)
				if j == 0 && len(sub) > 0 {
					sub[0] = pad + marker + strings.TrimLeft(sub[0], " ")
				}
				lines = append(lines, sub...)
			}
		}
	case Table:
		if v.Header {
			titles := make([]string, len(v.Columns))
			for i, c := range v.Columns {
				titles[i] = c.Title
			}
			lines = append(lines, pad+strings.Join(titles, " | "))
		}
		for _, row := range v.Rows {
			cells := make([]string, len(row.Cells))
			for i, c := range row.Cells {
				cells[i] = c.Text
			}
			lines = append(lines, pad+strings.Join(cells, " | "))
		}
	case Image:
		if v.Alt != "" {
			lines = append(lines, pad+"["+v.Alt+"]")
		}
	case KeyValue:
		lines = append(lines, pad+v.Key+": "+v.Value)
	}
	return lines
}
