package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Parse turns raw file bytes into an ordered RawRow sequence. Row numbers
// match the source file exactly: the header is row 1, the first data row is
// row 2. File-level ceilings and the required column set are enforced here,
// before any row-level validation.
func Parse(filename string, data []byte, limits FileLimits) ([]RawRow, *FileError) {
	if ferr := CheckFile(filename, int64(len(data)), limits); ferr != nil {
		return nil, ferr
	}

	var (
		table [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		table, err = readCSV(data)
	case ".xlsx":
		table, err = readXLSX(data)
	}
	if err != nil {
		return nil, &FileError{Code: FileCodeParse, Message: err.Error()}
	}

	if len(table) == 0 {
		return nil, &FileError{Code: FileCodeEmpty, Message: "file contains no rows"}
	}

	header := normalizeHeader(table[0])
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, &FileError{
			Code:    FileCodeMissingColumns,
			Message: "missing required columns: " + strings.Join(missing, ", "),
		}
	}

	dataRows := table[1:]
	if count := countNonEmpty(dataRows); count == 0 {
		return nil, &FileError{Code: FileCodeEmpty, Message: "file contains no data rows"}
	} else if limits.MaxRows > 0 && count > limits.MaxRows {
		return nil, &FileError{
			Code:    FileCodeTooManyRows,
			Message: fmt.Sprintf("file has %d data rows, limit is %d", count, limits.MaxRows),
		}
	}

	rows := make([]RawRow, 0, len(dataRows))
	for i, cells := range dataRows {
		if isEmptyRow(cells) {
			continue
		}
		original := make(map[string]string, len(header))
		for col, name := range header {
			if name == "" {
				continue
			}
			if col < len(cells) {
				original[name] = strings.TrimSpace(cells[col])
			} else {
				original[name] = ""
			}
		}
		rows = append(rows, sanitizeRow(i+2, original))
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, byteOrderMark)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var table [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		table = append(table, record)
	}
	return table, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rows, nil
}

func normalizeHeader(cells []string) []string {
	header := make([]string, len(cells))
	for i, c := range cells {
		header[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return header
}

func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, required := range RequiredColumns {
		if !present[required] {
			missing = append(missing, required)
		}
	}
	return missing
}

func countNonEmpty(rows [][]string) int {
	n := 0
	for _, cells := range rows {
		if !isEmptyRow(cells) {
			n++
		}
	}
	return n
}

func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
