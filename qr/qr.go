// Package qr renders request tokens as QR images: plain previews,
// physically sized codes for printing, and A4 sheets combining a whole
// batch.
package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// print resolution for physically sized output
	DPI = 300

	a4WidthMM  = 210
	a4HeightMM = 297

	sheetMarginMM  = 10
	sheetSpacingMM = 5
)

// FormURL builds the public form address embedded in a QR payload.
func FormURL(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "view=form&token=" + token
}

// Generate encodes data at medium error correction, rendering each module
// as boxSize pixels.
func Generate(data string, boxSize int) (image.Image, error) {
	if boxSize < 1 {
		boxSize = 8
	}
	code, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	return code.Image(-boxSize), nil
}

// Passport encodes data and scales it to an exact physical size, e.g.
// 45x35mm at 300dpi for a passport-photo sized sticker.
func Passport(data string, widthMM, heightMM float64) (image.Image, error) {
	code, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	src := code.Image(-1)
	dst := image.NewRGBA(image.Rect(0, 0, mmToPx(widthMM), mmToPx(heightMM)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst, nil
}

// A4Sheet lays the given codes out on a white A4 canvas in a grid, with a
// numbered label under each code and a batch header. Codes that do not fit
// the page are dropped.
func A4Sheet(codes []image.Image, widthMM, heightMM float64) image.Image {
	pageW := mmToPx(a4WidthMM)
	pageH := mmToPx(a4HeightMM)
	codeW := mmToPx(widthMM)
	codeH := mmToPx(heightMM)
	margin := mmToPx(sheetMarginMM)
	spacing := mmToPx(sheetSpacingMM)

	cols := (pageW - 2*margin + spacing) / (codeW + spacing)
	rows := (pageH - 2*margin + spacing) / (codeH + spacing)
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	canvas := image.NewRGBA(image.Rect(0, 0, pageW, pageH))
	xdraw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, xdraw.Src)

	for i, code := range codes {
		if i >= cols*rows {
			break
		}
		x := margin + (i%cols)*(codeW+spacing)
		y := margin + (i/cols)*(codeH+spacing)

		r := image.Rect(x, y, x+codeW, y+codeH)
		xdraw.CatmullRom.Scale(canvas, r, code, code.Bounds(), xdraw.Over, nil)

		drawLabelCentered(canvas, fmt.Sprintf("QR #%d", i+1), x+codeW/2, y+codeH+basicfont.Face7x13.Ascent+2)
	}

	drawLabelCentered(canvas, fmt.Sprintf("QR Code Batch - %d codes", len(codes)), pageW/2, basicfont.Face7x13.Height+5)

	return canvas
}

func drawLabelCentered(dst *image.RGBA, label string, cx, baseline int) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(label)
	d.Dot = fixed.Point26_6{
		X: fixed.I(cx) - width/2,
		Y: fixed.I(baseline),
	}
	d.DrawString(label)
}

// PNG encodes an image for download or inline display.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseSize understands the print sizes offered by the dashboard:
// "45x35" (passport, the default), "35x25" and "55x45", in millimeters.
func ParseSize(s string) (widthMM, heightMM float64, err error) {
	switch s {
	case "", "passport", "45x35":
		return 45, 35, nil
	case "35x25":
		return 35, 25, nil
	case "55x45":
		return 55, 45, nil
	default:
		return 0, 0, fmt.Errorf("unknown QR size %q", s)
	}
}

func mmToPx(mm float64) int {
	return int(mm * DPI / 25.4)
}
