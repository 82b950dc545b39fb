package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zombor/pdfswift/internal/imaging"
)

// mm converts millimetres to PDF points
const mm = 72.0 / 25.4

// Text layout constants. They are fixed so identical input always lands in identical positions.
const (
	Margin           = 15 * mm
	TitleFontSize    = 18.0
	BodyFontSize     = 12.0
	LineHeightFactor = 1.15

	titleBaselineOffset = 5 * mm
	bodyBaselineOffset  = 20 * mm
)

// PageSize is a page size in points
type PageSize struct {
	Width  float64
	Height float64
}

// Standard page sizes
var (
	PageA4     = PageSize{Width: 595.28, Height: 841.89}
	PageLetter = PageSize{Width: 612, Height: 792}
)

// ParsePageSize maps a page size name to its dimensions
func ParsePageSize(name string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4":
		return PageA4, nil
	case "letter":
		return PageLetter, nil
	default:
		return PageSize{}, fmt.Errorf("unknown page size %q (valid: a4, letter)", name)
	}
}

// WritableWidth is the page width minus the left and right margins
func (p PageSize) WritableWidth() float64 {
	return p.Width - 2*Margin
}

// Rect is a rectangle in points with the origin at the top-left corner of the page
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Placement positions one image on a sheet
type Placement struct {
	Image imaging.Image
	Rect  Rect
	Scale float64
}

// Line is one rendered line of text. Y is the baseline.
type Line struct {
	Text     string
	X        float64
	Y        float64
	FontSize float64
	Width    float64
}

// Sheet is one physical output page
type Sheet struct {
	Images []Placement
	Lines  []Line
}

// Layout is the placement of a Document on pages of one size
type Layout struct {
	PageSize PageSize
	Sheets   []Sheet
}

// Measurer reports the rendered width of a string at a font size, in points
type Measurer interface {
	StringWidth(s string, fontSize float64) float64
}

// layoutImage scales img uniformly so it fits the page and centres it
func layoutImage(size PageSize, img imaging.Image) (Sheet, error) {
	measured, err := img.Measured()
	if err != nil {
		return Sheet{}, err
	}

	scale := min(size.Width/float64(measured.Width), size.Height/float64(measured.Height))
	w := float64(measured.Width) * scale
	h := float64(measured.Height) * scale

	return Sheet{
		Images: []Placement{{
			Image: measured,
			Scale: scale,
			Rect: Rect{
				X:      (size.Width - w) / 2,
				Y:      (size.Height - h) / 2,
				Width:  w,
				Height: h,
			},
		}},
	}, nil
}

// layoutText places the title at the top margin and reflows the body below it,
// starting a new sheet whenever a baseline would fall past the bottom margin.
func layoutText(size PageSize, title, body string, m Measurer) []Sheet {
	writable := size.WritableWidth()
	bottom := size.Height - Margin

	sheets := []Sheet{{}}
	cur := &sheets[0]

	titleLH := TitleFontSize * LineHeightFactor
	titleY := Margin + titleBaselineOffset
	for i, text := range Wrap(title, writable, func(s string) float64 { return m.StringWidth(s, TitleFontSize) }) {
		if i > 0 {
			titleY += titleLH
		}
		if titleY > bottom {
			sheets = append(sheets, Sheet{})
			cur = &sheets[len(sheets)-1]
			titleY = Margin + TitleFontSize
		}
		cur.Lines = append(cur.Lines, Line{
			Text:     text,
			X:        Margin,
			Y:        titleY,
			FontSize: TitleFontSize,
			Width:    m.StringWidth(text, TitleFontSize),
		})
	}

	y := titleY + bodyBaselineOffset - titleBaselineOffset

	bodyLH := BodyFontSize * LineHeightFactor
	for _, text := range Wrap(body, writable, func(s string) float64 { return m.StringWidth(s, BodyFontSize) }) {
		if y > bottom {
			sheets = append(sheets, Sheet{})
			cur = &sheets[len(sheets)-1]
			y = Margin + BodyFontSize
		}
		cur.Lines = append(cur.Lines, Line{
			Text:     text,
			X:        Margin,
			Y:        y,
			FontSize: BodyFontSize,
			Width:    m.StringWidth(text, BodyFontSize),
		})
		y += bodyLH
	}

	return sheets
}

// Wrap splits text into lines no wider than maxWidth. Newlines start new lines, blank
// lines are kept, and words wider than maxWidth are broken between characters.
func Wrap(text string, maxWidth float64, width func(string) float64) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var cur string
		for _, word := range words {
			for width(word) > maxWidth {
				head, tail := splitToFit(word, maxWidth, width)
				if cur != "" {
					lines = append(lines, cur)
					cur = ""
				}
				lines = append(lines, head)
				word = tail
			}
			if word == "" {
				continue
			}

			candidate := word
			if cur != "" {
				candidate = cur + " " + word
			}
			if width(candidate) <= maxWidth {
				cur = candidate
				continue
			}
			lines = append(lines, cur)
			cur = word
		}
		if cur != "" {
			lines = append(lines, cur)
		}
	}
	return lines
}

// splitToFit returns the longest prefix of word that fits maxWidth (at least one rune)
// and the remainder.
func splitToFit(word string, maxWidth float64, width func(string) float64) (string, string) {
	end := 0
	for end < len(word) {
		_, size := utf8.DecodeRuneInString(word[end:])
		next := end + size
		if end > 0 && width(word[:next]) > maxWidth {
			break
		}
		end = next
	}
	return word[:end], word[end:]
}
