// Package export renders a claims ledger into the downloadable spreadsheet.
package export

import (
	_ "embed"
	"errors"
	"fmt"
	_ "image/png"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"etag/internal/domain/claim"
)

//go:embed assets/logo.png
var logoPNG []byte

const sheetName = "Claims"

// unsafeNameChars are stripped from display names before they are used in
// a filename.
const unsafeNameChars = `\/:*?"<>|`

// ErrNoWorkbook is returned when the workbook could not be produced; no
// partial file is ever handed to the caller.
var ErrNoWorkbook = errors.New("failed to build claims workbook")

// SanitizeName removes path-hostile characters from a display name.
// Idempotent: sanitizing an already-sanitized name yields the same name.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(unsafeNameChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Filename composes the download name "<safe-name>-claims-<YYYY-MM-DD>.xlsx".
func Filename(displayName string, day time.Time) string {
	safe := SanitizeName(displayName)
	if safe == "" {
		safe = "coach"
	}
	return fmt.Sprintf("%s-claims-%s.xlsx", safe, day.Format("2006-01-02"))
}

// Layout rows. The title sits in row 1 with the logo anchored beside it,
// the header in row 3, and data from row 4.
const (
	titleRow  = 1
	headerRow = 3
)

// BuildWorkbook renders the records and summary into a formatted workbook
// and returns its bytes. Records are written ascending by creation time.
// Any styling or serialization failure aborts the build; no partial file
// is produced.
func BuildWorkbook(records []claim.Tag, summary claim.Summary, ownerDisplayName string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoWorkbook, err)
	}
	if err := writeTitle(f, ownerDisplayName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoWorkbook, err)
	}
	totalRow, err := writeTable(f, records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoWorkbook, err)
	}
	if err := writeSummary(f, summary, totalRow+2); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoWorkbook, err)
	}
	if err := setColumnWidths(f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoWorkbook, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoWorkbook, err)
	}
	return buf.Bytes(), nil
}

// writeTitle renders the merged title row and anchors the logo in a fixed
// pixel box beside it. The logo is positioned by cell anchor plus pixel
// offsets and never stretches with the title.
func writeTitle(f *excelize.File, ownerDisplayName string) error {
	if err := f.MergeCell(sheetName, "A1", "D1"); err != nil {
		return err
	}
	title := strings.TrimSpace(ownerDisplayName)
	if title == "" {
		title = "Claims"
	} else {
		title += " Claims"
	}
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheetName, titleRow, 42); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "D1", titleStyle); err != nil {
		return err
	}

	// 48x48 px box (source image is 64x64), offset into the merged title
	// cell so it sits next to the text rather than over it.
	scale := 0.75
	return f.AddPictureFromBytes(sheetName, "A1", &excelize.Picture{
		Extension: ".png",
		File:      logoPNG,
		Format: &excelize.GraphicOptions{
			OffsetX:         6,
			OffsetY:         4,
			ScaleX:          scale,
			ScaleY:          scale,
			LockAspectRatio: true,
			Positioning:     "oneCell",
		},
	})
}

// writeTable renders the header, the data rows sorted ascending by creation
// timestamp, and the bold total row. It returns the total row's index.
func writeTable(f *excelize.File, records []claim.Tag) (int, error) {
	thin := func(t string) excelize.Border { return excelize.Border{Type: t, Color: "333333", Style: 1} }
	medium := func(t string) excelize.Border { return excelize.Border{Type: t, Color: "333333", Style: 2} }
	grid := []excelize.Border{thin("left"), thin("right"), thin("top"), thin("bottom")}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
		Border:    grid,
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
	if err != nil {
		return 0, err
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Border: grid})
	if err != nil {
		return 0, err
	}
	rateFmt := "0.00"
	rateStyle, err := f.NewStyle(&excelize.Style{
		Border:       grid,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		CustomNumFmt: &rateFmt,
	})
	if err != nil {
		return 0, err
	}

	headers := []string{"Date", "Session Type", "Rate", "Address"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return 0, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return 0, err
		}
	}
	if err := f.SetCellStyle(sheetName, "A3", "D3", headerStyle); err != nil {
		return 0, err
	}

	sorted := make([]claim.Tag, len(records))
	copy(sorted, records)
	claim.SortByCreatedAt(sorted)

	row := headerRow
	var net float64
	for _, t := range sorted {
		row++
		net += t.Rate
		values := []any{t.CreatedAt.Format("2006-01-02"), t.SessionType, t.Rate, t.Address}
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return 0, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return 0, err
			}
		}
		if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), cellStyle); err != nil {
			return 0, err
		}
		if err := f.SetCellStyle(sheetName, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), rateStyle); err != nil {
			return 0, err
		}
	}

	// Total row: bold, outer border heavier than the inner grid lines.
	totalRow := row + 1
	if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", totalRow), "Total"); err != nil {
		return 0, err
	}
	if err := f.SetCellValue(sheetName, fmt.Sprintf("C%d", totalRow), net); err != nil {
		return 0, err
	}
	totalEdge := func(extra ...excelize.Border) (int, error) {
		borders := append([]excelize.Border{medium("top"), medium("bottom")}, extra...)
		return f.NewStyle(&excelize.Style{
			Font:         &excelize.Font{Bold: true},
			Border:       borders,
			Alignment:    &excelize.Alignment{Horizontal: "right"},
			CustomNumFmt: &rateFmt,
		})
	}
	totalLeft, err := totalEdge(medium("left"), thin("right"))
	if err != nil {
		return 0, err
	}
	totalMid, err := totalEdge(thin("left"), thin("right"))
	if err != nil {
		return 0, err
	}
	totalRight, err := totalEdge(thin("left"), medium("right"))
	if err != nil {
		return 0, err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("A%d", totalRow), totalLeft); err != nil {
		return 0, err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("B%d", totalRow), fmt.Sprintf("C%d", totalRow), totalMid); err != nil {
		return 0, err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("D%d", totalRow), fmt.Sprintf("D%d", totalRow), totalRight); err != nil {
		return 0, err
	}

	return totalRow, nil
}

// writeSummary renders the boxed summary block below the table: total
// sessions, per-type day counts, and the net total.
func writeSummary(f *excelize.File, summary claim.Summary, startRow int) error {
	thin := excelize.Border{Color: "333333", Style: 1}
	grid := []excelize.Border{
		{Type: "left", Color: thin.Color, Style: thin.Style},
		{Type: "right", Color: thin.Color, Style: thin.Style},
		{Type: "top", Color: thin.Color, Style: thin.Style},
		{Type: "bottom", Color: thin.Color, Style: thin.Style},
	}

	headStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E2EFDA"}},
		Border: grid,
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Border: grid})
	if err != nil {
		return err
	}
	countStyle, err := f.NewStyle(&excelize.Style{
		Border:    grid,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return err
	}
	netFmt := "0.00"
	netStyle, err := f.NewStyle(&excelize.Style{
		Border:       grid,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		CustomNumFmt: &netFmt,
	})
	if err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, fmt.Sprintf("A%d", startRow), fmt.Sprintf("B%d", startRow)); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", startRow), "Summary"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", startRow), fmt.Sprintf("B%d", startRow), headStyle); err != nil {
		return err
	}

	rows := []struct {
		label string
		value any
		style int
	}{
		{"Total sessions", summary.TotalSessions, countStyle},
		{"Preseason days", summary.CountsByType[claim.TypePreseason], countStyle},
		{"Practice days", summary.CountsByType[claim.TypePractice], countStyle},
		{"Game days", summary.CountsByType[claim.TypeGame], countStyle},
		{"Net total", summary.NetTotal, netStyle},
	}
	for i, r := range rows {
		row := startRow + 1 + i
		if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.label); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.value); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), r.style); err != nil {
			return err
		}
	}
	return nil
}

// setColumnWidths pins the four ledger columns to fixed widths.
func setColumnWidths(f *excelize.File) error {
	widths := []struct {
		col   string
		width float64
	}{
		{"A", 14}, // date
		{"B", 16}, // session type
		{"C", 12}, // rate
		{"D", 46}, // address
	}
	for _, w := range widths {
		if err := f.SetColWidth(sheetName, w.col, w.col, w.width); err != nil {
			return err
		}
	}
	return nil
}
