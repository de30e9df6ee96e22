package importer

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testHeader = "customer_email,customer_name,pet_name,pet_size,service_name,appointment_date,appointment_time"

func csvFile(rows ...string) []byte {
	return []byte(testHeader + "\n" + strings.Join(rows, "\n") + "\n")
}

func TestParse_CSV(t *testing.T) {
	data := csvFile(
		"jane@example.com,Jane Doe,Rex,large,Full Groom,2026-09-14,10:00 AM",
		"bob@example.com,Bob Ray,=Fluffy,small,Bath,2026-09-15,2:00 PM",
	)

	rows, ferr := Parse("bookings.csv", data, DefaultFileLimits())
	require.Nil(t, ferr)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, 3, rows[1].Number)
	assert.Equal(t, "jane@example.com", rows[0].Values[ColCustomerEmail])
	assert.Equal(t, "Fluffy", rows[1].Values[ColPetName])
	assert.Equal(t, "=Fluffy", rows[1].Original[ColPetName])
}

func TestParse_CSVWithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, csvFile(
		"jane@example.com,Jane Doe,Rex,large,Full Groom,2026-09-14,10:00 AM",
	)...)

	rows, ferr := Parse("bookings.csv", data, DefaultFileLimits())
	require.Nil(t, ferr)
	require.Len(t, rows, 1)
	assert.Equal(t, "jane@example.com", rows[0].Values[ColCustomerEmail])
}

func TestParse_BlankRowsKeepNumbering(t *testing.T) {
	data := csvFile(
		"jane@example.com,Jane Doe,Rex,large,Full Groom,2026-09-14,10:00 AM",
		",,,,,,",
		"bob@example.com,Bob Ray,Fluffy,small,Bath,2026-09-15,2:00 PM",
	)

	rows, ferr := Parse("bookings.csv", data, DefaultFileLimits())
	require.Nil(t, ferr)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, 4, rows[1].Number)
}

func TestParse_MissingColumns(t *testing.T) {
	data := []byte("customer_email,pet_name\njane@example.com,Rex\n")

	_, ferr := Parse("bookings.csv", data, DefaultFileLimits())
	require.NotNil(t, ferr)
	assert.Equal(t, FileCodeMissingColumns, ferr.Code)
	assert.Contains(t, ferr.Message, "customer_name")
}

func TestParse_TooManyRows(t *testing.T) {
	limit := DefaultFileLimits().MaxRows
	var b strings.Builder
	b.WriteString(testHeader + "\n")
	for i := 0; i <= limit; i++ {
		fmt.Fprintf(&b, "c%d@example.com,Jane Doe,Rex,large,Full Groom,2026-09-14,10:00 AM\n", i)
	}

	_, ferr := Parse("bookings.csv", []byte(b.String()), DefaultFileLimits())
	require.NotNil(t, ferr)
	assert.Equal(t, FileCodeTooManyRows, ferr.Code)
}

func TestParse_EmptyFile(t *testing.T) {
	_, ferr := Parse("bookings.csv", nil, DefaultFileLimits())
	require.NotNil(t, ferr)
	assert.Equal(t, FileCodeEmpty, ferr.Code)

	_, ferr = Parse("bookings.csv", []byte(testHeader+"\n"), DefaultFileLimits())
	require.NotNil(t, ferr)
	assert.Equal(t, FileCodeEmpty, ferr.Code)
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, ferr := Parse("bookings.txt", csvFile("x"), DefaultFileLimits())
	require.NotNil(t, ferr)
	assert.Equal(t, FileCodeInvalidType, ferr.Code)
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{
		"customer_email", "customer_name", "pet_name", "pet_size",
		"service_name", "appointment_date", "appointment_time",
	}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{
		"jane@example.com", "Jane Doe", "Rex", "large",
		"Full Groom", "2026-09-14", "10:00 AM",
	}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	rows, ferr := Parse("bookings.xlsx", buf.Bytes(), DefaultFileLimits())
	require.Nil(t, ferr)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, "Rex", rows[0].Values[ColPetName])
}

func TestParse_MalformedXLSX(t *testing.T) {
	_, ferr := Parse("bookings.xlsx", []byte("not a zip archive"), DefaultFileLimits())
	require.NotNil(t, ferr)
	assert.Equal(t, FileCodeParse, ferr.Code)
}
