package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	rgbBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	rgbBorder     = color.RGBA{0xd0, 0xd7, 0xde, 0xff}
	rgbBadge      = color.RGBA{0x09, 0x69, 0xda, 0xff}
	rgbTitle      = color.RGBA{0x1f, 0x23, 0x28, 0xff}
	rgbMuted      = color.RGBA{0x59, 0x63, 0x6e, 0xff}
	rgbNotice     = color.RGBA{0x9a, 0x67, 0x00, 0xff}
)

// RenderPNG renders c as a PNG scaled by scale (1 or more). The text uses a
// fixed 7x13 bitmap font; runes outside of it are drawn as '?'.
func RenderPNG(c Card, scale int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(rgbBorder), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(1, 1, cardWidth-1, cardHeight-1), image.NewUniform(rgbBackground), image.Point{}, draw.Src)

	badge := asciiOnly(c.Badge)
	badgeWidth := 12 + 7*len(badge)
	draw.Draw(img, image.Rect(cardPadding, cardPadding, cardPadding+badgeWidth, cardPadding+18), image.NewUniform(rgbBadge), image.Point{}, draw.Src)
	drawText(img, cardPadding+6, cardPadding+13, rgbBackground, badge)
	drawText(img, cardPadding+badgeWidth+8, cardPadding+13, rgbMuted, c.Folder)
	drawText(img, cardPadding, cardPadding+44, rgbTitle, c.Title)
	y := cardPadding + 72
	for _, l := range c.Lines {
		drawText(img, cardPadding, y, rgbMuted, l)
		y += lineHeight
	}
	if c.Notice != "" {
		drawText(img, cardPadding, cardHeight-cardPadding, rgbNotice, c.Notice)
	}

	var out image.Image = img
	if scale > 1 {
		dst := image.NewRGBA(image.Rect(0, 0, cardWidth*scale, cardHeight*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		out = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawText(dst draw.Image, x, y int, c color.Color, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(asciiOnly(s))
}

func asciiOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, s)
}
