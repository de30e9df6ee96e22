package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeCell(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "Buddy", "Buddy"},
		{"formula", "=SUM(A1:A9)", "SUM(A1:A9)"},
		{"plus prefix", "+1 (555) 123-4567", "1 (555) 123-4567"},
		{"minus prefix", "-cmd", "cmd"},
		{"at prefix", "@import", "import"},
		{"stacked triggers", "=+=@payload", "payload"},
		{"only triggers", "=-+@", ""},
		{"empty", "", ""},
		{"trigger mid-cell", "a=b", "a=b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeCell(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, SanitizeCell(got), "sanitization must be idempotent")
		})
	}
}

func TestCheckFile(t *testing.T) {
	limits := FileLimits{MaxBytes: 100}

	assert.Nil(t, CheckFile("bookings.csv", 50, limits))
	assert.Nil(t, CheckFile("bookings.XLSX", 50, limits))

	ferr := CheckFile("bookings.exe", 50, limits)
	if assert.NotNil(t, ferr) {
		assert.Equal(t, FileCodeInvalidType, ferr.Code)
	}

	ferr = CheckFile("bookings.csv", 101, limits)
	if assert.NotNil(t, ferr) {
		assert.Equal(t, FileCodeTooLarge, ferr.Code)
	}
}

func TestSanitizeRowKeepsOriginal(t *testing.T) {
	raw := sanitizeRow(2, map[string]string{
		ColCustomerEmail: "jane@example.com",
		ColNotes:         "=HYPERLINK(\"http://evil\")",
	})

	assert.Equal(t, 2, raw.Number)
	assert.Equal(t, "HYPERLINK(\"http://evil\")", raw.Values[ColNotes])
	assert.Equal(t, "=HYPERLINK(\"http://evil\")", raw.Original[ColNotes])
	assert.False(t, strings.HasPrefix(raw.Values[ColNotes], "="))
}
