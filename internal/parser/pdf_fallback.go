package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/extract"
)

// readWithPdfcpu reads a PDF with pdfcpu and tokenises each page content
// stream. Positions come from the text matrix only.
func readWithPdfcpu(data []byte, filename string) (*doctree.Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	doc := &doctree.Document{Name: filename}
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		doc.Pages = append(doc.Pages, pdfcpuPage(ctx, pageNr))
	}
	return doc, nil
}

func pdfcpuPage(ctx *model.Context, pageNr int) doctree.Page {
	pg := doctree.Page{Number: pageNr, Width: defaultPageWidth, Height: defaultPageHeight}
	x0, top := 0.0, defaultPageHeight

	var fonts types.Dict
	if _, _, inh, err := ctx.PageDict(pageNr, true); err == nil && inh != nil {
		if mb := inh.MediaBox; mb != nil && mb.Width() > 0 && mb.Height() > 0 {
			pg.Width, pg.Height = mb.Width(), mb.Height()
			x0, top = mb.LL.X, mb.UR.Y
		}
		if inh.Resources != nil {
			if obj, ok := inh.Resources.Find("Font"); ok {
				fonts, _ = ctx.DereferenceDict(obj)
			}
		}
	}

	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return pg
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return pg
	}

	for _, run := range parseContent(content) {
		name := baseFont(ctx, fonts, run.Font)
		pg.Fragments = append(pg.Fragments, doctree.TextFragment{
			Text:     run.Text,
			FontSize: run.Size,
			FontName: name,
			Bold:     extract.IsBoldFont(name),
			Box:      doctree.BoundingBox{X0: run.X - x0, X1: run.X - x0 + run.W, Top: top - run.Y},
			Page:     pageNr,
		})
	}
	return pg
}

// baseFont maps a font resource name to its BaseFont, falling back to the
// resource name itself.
func baseFont(ctx *model.Context, fonts types.Dict, resource string) string {
	if fonts == nil {
		return resource
	}
	obj, ok := fonts.Find(resource)
	if !ok {
		return resource
	}
	fd, err := ctx.DereferenceDict(obj)
	if err != nil || fd == nil {
		return resource
	}
	if name := fd.NameEntry("BaseFont"); name != nil {
		return *name
	}
	return resource
}
