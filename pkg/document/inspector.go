package document

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Inspector checks a local document before it is uploaded.
type Inspector interface {
	Inspect(name string, data []byte) (Info, error)
}

type Info struct {
	Pages int
}

// PDFInspector parses the cross-reference table and page tree so broken
// files are reported locally instead of failing remote ingestion.
type PDFInspector struct{}

func NewPDFInspector() *PDFInspector {
	return &PDFInspector{}
}

func (PDFInspector) Inspect(name string, data []byte) (info Info, err error) {
	// The parser panics on some malformed page trees.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("inspect %s: malformed pdf: %v", name, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("inspect %s: %w", name, err)
	}
	pages := r.NumPage()
	if pages == 0 {
		return Info{}, fmt.Errorf("inspect %s: pdf has no pages", name)
	}
	return Info{Pages: pages}, nil
}
