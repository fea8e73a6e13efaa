package render

import (
	"bytes"
	"testing"

	"github.com/matzehuels/starmap/pkg/errors"
)

const tinySVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10" width="10" height="10"><rect width="10" height="10" fill="#1f77b4"/></svg>`

func TestToPDF(t *testing.T) {
	if !Available() {
		_, err := ToPDF([]byte(tinySVG))
		if !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Fatalf("err = %v, want %s", err, errors.ErrCodeUnsupported)
		}
		t.Skip("rsvg-convert not installed")
	}
	pdf, err := ToPDF([]byte(tinySVG))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output does not look like a PDF: %q", pdf[:min(len(pdf), 8)])
	}
}
