package chart

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PDF wraps the drawn figure into a single 18x12in landscape page for
// download. The page embeds the already-rendered raster, so it is always
// pixel-identical to the inline preview.
func (a *Artifact) PDF() ([]byte, error) {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "in",
		Size:           fpdf.SizeType{Wd: 18, Ht: 12},
	})
	doc.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("schedule", opts, bytes.NewReader(a.png))
	doc.ImageOptions("schedule", 0, 0, 18, 12, false, opts, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("encode pdf: %w", err)
	}
	return buf.Bytes(), nil
}
