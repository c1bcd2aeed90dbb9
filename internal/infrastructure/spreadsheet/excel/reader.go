package excel

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Reader reads worksheets of .xlsx/.xlsm workbooks. Legacy .xls files fail to open and the
// caller falls back to its defaults.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadSheet returns the raw cell values of the sheet; the sheet name matches case-insensitively.
func (r *Reader) ReadSheet(_ context.Context, path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name, ok := findSheet(f.GetSheetList(), sheet)
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return rows, nil
}

func findSheet(names []string, want string) (string, bool) {
	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), want) {
			return name, true
		}
	}
	return "", false
}
