package preview

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	colorBackground = "#ffffff"
	colorBorder     = "#d0d7de"
	colorBadge      = "#0969da"
	colorTitle      = "#1f2328"
	colorMuted      = "#59636e"
	colorNotice     = "#9a6700"
)

// RenderSVG renders c as a standalone SVG document.
func RenderSVG(c Card) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, cardWidth, cardHeight, cardWidth, cardHeight)
	b.WriteByte('\n')
	fmt.Fprintf(&b, `<rect x="0.5" y="0.5" width="%d" height="%d" rx="8" fill="%s" stroke="%s"/>`, cardWidth-1, cardHeight-1, colorBackground, colorBorder)
	b.WriteByte('\n')
	badgeWidth := 12 + 8*len(c.Badge)
	fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="18" rx="4" fill="%s"/>`, cardPadding, cardPadding, badgeWidth, colorBadge)
	b.WriteByte('\n')
	svgText(&b, cardPadding+6, cardPadding+13, 11, "bold", "#ffffff", c.Badge)
	svgText(&b, cardPadding+badgeWidth+8, cardPadding+13, 12, "normal", colorMuted, c.Folder)
	svgText(&b, cardPadding, cardPadding+44, 18, "bold", colorTitle, c.Title)
	y := cardPadding + 72
	for _, l := range c.Lines {
		svgText(&b, cardPadding, y, 12, "normal", colorMuted, l)
		y += lineHeight
	}
	if c.Notice != "" {
		svgText(&b, cardPadding, cardHeight-cardPadding, 12, "italic", colorNotice, c.Notice)
	}
	b.WriteString("</svg>\n")
	return []byte(b.String())
}

func svgText(b *strings.Builder, x, y, size int, weight, color, s string) {
	style := ""
	switch weight {
	case "bold":
		style = ` font-weight="bold"`
	case "italic":
		style = ` font-style="italic"`
	}
	fmt.Fprintf(b, `<text x="%d" y="%d" font-family="sans-serif" font-size="%d"%s fill="%s">`, x, y, size, style, color)
	_ = xml.EscapeText(b, []byte(s))
	b.WriteString("</text>\n")
}
