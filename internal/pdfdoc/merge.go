package pdfdoc

import (
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Merger concatenates PDF files with pdfcpu.
type Merger struct{}

// NewMerger returns a Merger.
func NewMerger() *Merger { return &Merger{} }

// Merge writes the pages of inPaths, in order, to outPath. A partially
// written outPath is removed on failure.
func (m *Merger) Merge(outPath string, inPaths ...string) error {
	if len(inPaths) < 2 {
		return errors.New("merge needs at least two inputs")
	}
	conf := model.NewDefaultConfiguration()
	if err := api.MergeCreateFile(inPaths, outPath, false, conf); err != nil {
		_ = os.Remove(outPath)
		return fmt.Errorf("merge pdf: %w", err)
	}
	return nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}
