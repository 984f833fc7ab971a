package srs

import (
	"strings"
	"unicode/utf8"
)

// Layout describes the page geometry in millimetres
type Layout struct {
	PageWidth    float64
	PageHeight   float64
	Margin       float64
	FooterHeight float64
}

// A4 is the layout used for every export
var A4 = Layout{PageWidth: 210, PageHeight: 297, Margin: 20, FooterHeight: 10}

// ContentWidth is the usable width between the side margins
func (l Layout) ContentWidth() float64 {
	return l.PageWidth - 2*l.Margin
}

// Bottom is the lowest y position content may reach before the footer
func (l Layout) Bottom() float64 {
	return l.PageHeight - l.Margin - l.FooterHeight
}

// Style is the typography of a block kind
type Style struct {
	Size        float64
	Bold        bool
	Indent      float64
	LineHeight  float64
	SpaceBefore float64
	SpaceAfter  float64
}

var styles = map[BlockKind]Style{
	KindSection:    {Size: 16, Bold: true, LineHeight: 8, SpaceBefore: 6, SpaceAfter: 2},
	KindSubsection: {Size: 13, Bold: true, LineHeight: 6.5, SpaceBefore: 4, SpaceAfter: 1},
	KindLabel:      {Size: 11, Bold: true, LineHeight: 5.5, SpaceBefore: 1},
	KindParagraph:  {Size: 11, LineHeight: 5.5, SpaceAfter: 2},
	KindBullet:     {Size: 11, Indent: 6, LineHeight: 5.5, SpaceAfter: 1},
}

// StyleFor returns the style of a block kind
func StyleFor(kind BlockKind) Style {
	if s, ok := styles[kind]; ok {
		return s
	}
	return styles[KindParagraph]
}

func keepWithNext(kind BlockKind) bool {
	return kind == KindSection || kind == KindSubsection || kind == KindLabel
}

// Measurer reports the rendered width of a string in millimetres
type Measurer interface {
	Width(text string, style Style) float64
}

// PlacedLine is one wrapped line positioned on a page. Y is the top of the
// line box.
type PlacedLine struct {
	Kind  BlockKind
	Text  string
	X     float64
	Y     float64
	Style Style
	// First marks the first line of its block; bullets draw their glyph there
	First bool
}

// Page is one content page. Numbers start at 1; the title page is not a
// content page.
type Page struct {
	Number int
	Lines  []PlacedLine
}

// Paginate flows the outline's blocks onto pages. A block that would cross
// the bottom threshold starts a new page, taking any headings that end the
// previous page with it. A block taller than a whole page is split between
// lines.
func Paginate(o Outline, m Measurer, layout Layout) []Page {
	var pages []Page
	y := 0.0
	newPage := func() {
		pages = append(pages, Page{Number: len(pages) + 1})
		y = layout.Margin
	}
	newPage()

	bottom := layout.Bottom()
	for _, block := range o.Blocks {
		st := StyleFor(block.Kind)
		lines := Wrap(block.Text, layout.ContentWidth()-st.Indent, func(s string) float64 {
			return m.Width(s, st)
		})

		current := &pages[len(pages)-1]
		before := st.SpaceBefore
		if len(current.Lines) == 0 {
			before = 0
		}
		need := before + float64(len(lines))*st.LineHeight + st.SpaceAfter
		if keepWithNext(block.Kind) {
			need += StyleFor(KindParagraph).LineHeight
		}
		if y+need > bottom && len(current.Lines) > 0 {
			carried := detachHeadings(current)
			newPage()
			before = 0
			if len(carried) > 0 {
				current = &pages[len(pages)-1]
				for i, line := range carried {
					line.Y = y
					current.Lines = append(current.Lines, line)
					y += line.Style.LineHeight
					if i == len(carried)-1 || carried[i+1].First {
						y += line.Style.SpaceAfter
					}
				}
				before = st.SpaceBefore
			}
		}
		y += before

		for i, text := range lines {
			if y+st.LineHeight > bottom && len(pages[len(pages)-1].Lines) > 0 {
				newPage()
			}
			current = &pages[len(pages)-1]
			current.Lines = append(current.Lines, PlacedLine{
				Kind:  block.Kind,
				Text:  text,
				X:     layout.Margin + st.Indent,
				Y:     y,
				Style: st,
				First: i == 0,
			})
			y += st.LineHeight
		}
		y += st.SpaceAfter
	}
	return pages
}

// detachHeadings removes the heading lines that end a page so they can move
// with the block that follows them. A page made only of headings keeps them.
func detachHeadings(page *Page) []PlacedLine {
	n := len(page.Lines)
	for n > 0 && keepWithNext(page.Lines[n-1].Kind) {
		n--
	}
	if n == 0 || n == len(page.Lines) {
		return nil
	}
	carried := append([]PlacedLine(nil), page.Lines[n:]...)
	page.Lines = page.Lines[:n]
	return carried
}

// Wrap breaks text into lines no wider than width. Explicit line breaks are
// kept and words wider than a whole line are broken between characters.
func Wrap(text string, width float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if measure(candidate) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			for measure(word) > width && utf8.RuneCountInString(word) > 1 {
				head, tail := splitToWidth(word, width, measure)
				lines = append(lines, head)
				word = tail
			}
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}

func splitToWidth(word string, width float64, measure func(string) float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && measure(string(runes[:n+1])) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
