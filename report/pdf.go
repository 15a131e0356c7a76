// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/poiesic/pedagogue/core"
)

// PDFFilename is the conventional name of the scorecard file.
const PDFFilename = "scorecard.pdf"

const (
	nameColumnWidth  = 90.0
	countColumnWidth = 18.0
	scoreColumnWidth = 18.0
	rowHeight        = 7.0
)

// WritePDF renders the aggregates as a landscape A4 scorecard at path.
func WritePDF(path string, agg *Aggregates) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure pdf directory: %w", err)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Course quality scorecard", false)
	pdf.SetAuthor("pedagogue", false)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Course quality scorecard")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	model := agg.Model
	if model == "" {
		model = "all"
	}
	pdf.Cell(0, 6, tr(fmt.Sprintf("Model: %s", model)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")))
	pdf.Ln(10)

	writeLegend(pdf)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Courses")
	pdf.Ln(10)
	writeHeader(pdf, "Course", "Sections")
	for _, c := range agg.Courses {
		writeRow(pdf, tr(c.Filename), c.Sections, c.Means)
	}
	if len(agg.Courses) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, rowHeight, "(no evaluations)")
		pdf.Ln(rowHeight)
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Sources")
	pdf.Ln(10)
	writeHeader(pdf, "Source", "Courses")
	for _, s := range agg.Sources {
		name := s.Source
		if name == "" {
			name = "(none)"
		}
		writeRow(pdf, tr(name), s.Courses, s.Means)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeLegend(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "", 9)
	for i, name := range core.RubricNames {
		pdf.Cell(0, 5, fmt.Sprintf("R%d  %s", i+1, name))
		pdf.Ln(5)
	}
}

func writeHeader(pdf *gofpdf.Fpdf, name, count string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(nameColumnWidth, rowHeight, name, "1", 0, "L", true, 0, "")
	pdf.CellFormat(countColumnWidth, rowHeight, count, "1", 0, "C", true, 0, "")
	for i := range core.RubricCount {
		pdf.CellFormat(scoreColumnWidth, rowHeight, fmt.Sprintf("R%d", i+1), "1", 0, "C", true, 0, "")
	}
	pdf.CellFormat(scoreColumnWidth, rowHeight, "Mean", "1", 1, "C", true, 0, "")
}

func writeRow(pdf *gofpdf.Fpdf, name string, count int, means Means) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(nameColumnWidth, rowHeight, fit(pdf, name, nameColumnWidth-2), "1", 0, "L", false, 0, "")
	pdf.CellFormat(countColumnWidth, rowHeight, fmt.Sprintf("%d", count), "1", 0, "C", false, 0, "")
	for _, v := range means {
		pdf.CellFormat(scoreColumnWidth, rowHeight, formatScore(v), "1", 0, "C", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(scoreColumnWidth, rowHeight, formatScore(means.Overall()), "1", 1, "C", false, 0, "")
}

// fit shortens s with a trailing "..." until it is at most width wide.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
