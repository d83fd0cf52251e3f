package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"courseodds/internal/fetch"
	"courseodds/internal/querycourse"

	"github.com/stretchr/testify/require"
)

func course(code string, count int, limit string, choice, admission float64) querycourse.Course {
	return querycourse.Course{
		ID:            code,
		StudentCount:  count,
		StudentLimit:  limit,
		Teacher:       "王小明",
		Name:          "課程 " + code,
		ChoiceRate:    choice,
		AdmissionRate: admission,
	}
}

func TestTitle(t *testing.T) {
	require.Equal(t, "1131學年期 選課志願序分析結果如下", Title("1131"))
	require.Equal(t, "學年期 選課志願序分析結果如下", Title(""))
}

func TestTableOrdering(t *testing.T) {
	uncertain := []querycourse.Course{
		course("MA2012701", 120, "40", 3, 33.33),
		course("GE1001302", 80, "40", 2, 50),
	}
	certain := []querycourse.Course{
		course("CS1001301", 30, "40", 0.75, 100),
	}

	out := &bytes.Buffer{}
	rendered := Table(out, "1131", uncertain, certain)
	require.Equal(t, rendered+"\n", out.String())

	require.Contains(t, rendered, Title("1131"))
	for _, column := range header {
		require.Contains(t, rendered, column.(string))
	}
	require.Contains(t, rendered, "33.33")
	require.Contains(t, rendered, "0.75")
	require.Equal(t, 1, strings.Count(rendered, CertainDivider))

	ma := strings.Index(rendered, "MA2012701")
	ge := strings.Index(rendered, "GE1001302")
	divider := strings.Index(rendered, CertainDivider)
	cs := strings.Index(rendered, "CS1001301")
	require.Less(t, ma, ge)
	require.Less(t, ge, divider)
	require.Less(t, divider, cs)
}

func TestTableWithoutCertain(t *testing.T) {
	rendered := Table(&bytes.Buffer{}, "1131", []querycourse.Course{
		course("GE1001302", 80, "40", 2, 50),
	}, nil)
	require.NotContains(t, rendered, CertainDivider)
	require.Contains(t, rendered, "GE1001302")
}

func TestTableOnlyCertain(t *testing.T) {
	rendered := Table(&bytes.Buffer{}, "1131", nil, []querycourse.Course{
		course("CS1001301", 30, "40", 0.75, 100),
	})
	require.Less(t, strings.Index(rendered, "課程代碼"), strings.Index(rendered, CertainDivider))
	require.Less(t, strings.Index(rendered, CertainDivider), strings.Index(rendered, "CS1001301"))
}

func TestTableEmpty(t *testing.T) {
	rendered := Table(&bytes.Buffer{}, "1131", nil, nil)
	require.Contains(t, rendered, "課程代碼")
	require.NotContains(t, rendered, CertainDivider)
}

func TestFormatRate(t *testing.T) {
	testCases := []struct {
		rate     float64
		expected string
	}{
		{rate: 100, expected: "100"},
		{rate: 0.75, expected: "0.75"},
		{rate: 33.33, expected: "33.33"},
		{rate: 2, expected: "2"},
		{rate: 0, expected: "0"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, formatRate(test.rate))
	}
}

func TestWarnings(t *testing.T) {
	out := &bytes.Buffer{}
	Warnings(out, []fetch.Failure{
		{Code: "XX1001301", Err: &querycourse.CourseError{Code: "XX1001301", Err: querycourse.ErrNotFound}},
		{Code: "MA2012701", Err: &querycourse.CourseError{Code: "MA2012701", Err: querycourse.ErrInvalidLimit}},
		{Code: "MA2012702", Err: errors.New("connection refused")},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, []string{
		"警告: 查無課程資料，課程代碼: XX1001301",
		"警告: 課程資料異常，課程代碼: MA2012701 (" + querycourse.ErrInvalidLimit.Error() + ")",
		"警告: 課程資料異常，課程代碼: MA2012702 (connection refused)",
	}, lines)
}

func TestFatal(t *testing.T) {
	out := &bytes.Buffer{}
	Fatal(out, "檔案開啟失敗", errors.New("no such file"))
	require.Equal(t, "錯誤: 檔案開啟失敗\n詳細資料: no such file\n", out.String())
}
