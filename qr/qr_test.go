package qr

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestFormURL(t *testing.T) {
	got := FormURL("http://example.com", "abc123")
	want := "http://example.com?view=form&token=abc123"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	// base already carries a query
	got = FormURL("http://example.com?lang=en", "abc123")
	want = "http://example.com?lang=en&view=form&token=abc123"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGenerate(t *testing.T) {
	img, err := Generate("http://example.com?view=form&token=abc", 8)
	if err != nil {
		t.Fatalf("failed to generate: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != bounds.Dy() {
		t.Errorf("expected a square image, got %dx%d", bounds.Dx(), bounds.Dy())
	}
	if bounds.Dx()%8 != 0 {
		t.Errorf("expected size to be a multiple of the box size, got %d", bounds.Dx())
	}

	// quiet zone corner is white
	r, g, b, _ := img.At(bounds.Min.X, bounds.Min.Y).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("expected white corner pixel, got %v", img.At(bounds.Min.X, bounds.Min.Y))
	}
}

func TestPassportSize(t *testing.T) {
	img, err := Passport("http://example.com?view=form&token=abc", 45, 35)
	if err != nil {
		t.Fatalf("failed to generate: %v", err)
	}

	bounds := img.Bounds()
	// 45mm and 35mm at 300dpi
	if bounds.Dx() != 531 || bounds.Dy() != 413 {
		t.Errorf("expected 531x413, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestA4Sheet(t *testing.T) {
	codes := make([]image.Image, 10)
	for i := range codes {
		code, err := Passport("http://example.com?view=form&token=abc", 45, 35)
		if err != nil {
			t.Fatalf("failed to generate code: %v", err)
		}
		codes[i] = code
	}

	sheet := A4Sheet(codes, 45, 35)
	bounds := sheet.Bounds()
	// A4 at 300dpi
	if bounds.Dx() != 2480 || bounds.Dy() != 3507 {
		t.Errorf("expected 2480x3507, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	// margins stay blank
	r, g, b, _ := sheet.At(5, 5).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("expected white margin pixel, got %v", sheet.At(5, 5))
	}

	// the sheet survives PNG encoding
	data, err := PNG(sheet)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded.Bounds() != bounds {
		t.Errorf("expected bounds to round-trip, got %v", decoded.Bounds())
	}
}

func TestParseSize(t *testing.T) {
	for _, s := range []string{"", "passport", "45x35"} {
		w, h, err := ParseSize(s)
		if err != nil || w != 45 || h != 35 {
			t.Errorf("ParseSize(%q) = %v/%v/%v, expected 45/35/nil", s, w, h, err)
		}
	}

	w, h, err := ParseSize("35x25")
	if err != nil || w != 35 || h != 25 {
		t.Errorf("ParseSize(35x25) = %v/%v/%v", w, h, err)
	}

	_, _, err = ParseSize("1000x1000")
	if err == nil {
		t.Error("expected error for unknown size")
	}
}
