package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows to the first sheet of a new workbook, one cell per
// value starting at A1.
func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, values := range rows {
		for c, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadRows_Workbook(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"adminId", "name", "rank", "areaOfWorking"},
		{"A1", "Asha", "Inspector", "North"},
		{1024, "Ravi", true, "South"},
		{" A3 ", " Meena ", "SI", " East "},
	})

	rows, err := ReadRows(buf, "admins.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{Line: 2, AdminID: "A1", Name: "Asha", Rank: "Inspector", AreaOfWorking: "North"}, rows[0])
	assert.Equal(t, "1024", rows[1].AdminID, "numeric cells become integer text")
	assert.Equal(t, "true", rows[1].Rank, "boolean cells become true/false")
	assert.Equal(t, Row{Line: 4, AdminID: "A3", Name: "Meena", Rank: "SI", AreaOfWorking: "East"}, rows[2])
}

func TestReadRows_WorkbookFractionTruncated(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"adminId", "name", "rank", "areaOfWorking"},
		{42.9, "N", "R", "A"},
	})

	rows, err := ReadRows(buf, "admins.XLSX")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "42", rows[0].AdminID)
}

func TestReadRows_WorkbookShortAndBlankRows(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"adminId", "name", "rank", "areaOfWorking"},
		{"A1", "Asha"},
		{},
		{"A3", "Bina", "SI", "West"},
	})

	rows, err := ReadRows(buf, "admins.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{Line: 2, AdminID: "A1", Name: "Asha"}, rows[0])
	assert.Equal(t, 4, rows[1].Line)
}

func TestReadRows_HeaderOnly(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"adminId", "name", "rank", "areaOfWorking"},
	})

	rows, err := ReadRows(buf, "admins.xlsx")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadRows_CorruptWorkbook(t *testing.T) {
	_, err := ReadRows(strings.NewReader("not a zip archive"), "admins.xlsx")
	assert.Error(t, err)
}

func TestReadRows_CSV(t *testing.T) {
	input := "adminId,name,rank,areaOfWorking\n" +
		"A1,Asha,Inspector,North\n" +
		"\n" +
		"A2, Ravi ,SI\n" +
		",,,\n" +
		"A3,\"Meena, K\",DSP,East,extra\n"

	rows, err := ReadRows(strings.NewReader(input), "admins.csv")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{Line: 2, AdminID: "A1", Name: "Asha", Rank: "Inspector", AreaOfWorking: "North"}, rows[0])
	assert.Equal(t, Row{Line: 4, AdminID: "A2", Name: "Ravi", Rank: "SI"}, rows[1])
	assert.Equal(t, Row{Line: 6, AdminID: "A3", Name: "Meena, K", Rank: "DSP", AreaOfWorking: "East"}, rows[2])
}

func TestReadRows_UnsupportedFormat(t *testing.T) {
	for _, name := range []string{"admins.xls", "admins.txt", "admins"} {
		_, err := ReadRows(strings.NewReader(""), name)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
}
