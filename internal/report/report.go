// Package report renders fetch results for the terminal.
package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"courseodds/internal/fetch"
	"courseodds/internal/querycourse"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	CertainDivider = "以下課程皆會選上，無須考慮位置"
	NoCourseCodes  = "找不到任何課程代碼"
)

var header = table.Row{
	"課程代碼",
	"選課人數",
	"人數上限",
	"授課老師",
	"課程名稱",
	"選上機率(%)",
	"選課比例",
}

func Title(semester string) string {
	return fmt.Sprintf("%s學年期 選課志願序分析結果如下", semester)
}

func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

func courseRow(c querycourse.Course) table.Row {
	return table.Row{
		c.ID,
		c.StudentCount,
		c.StudentLimit,
		c.Teacher,
		c.Name,
		formatRate(c.AdmissionRate),
		formatRate(c.ChoiceRate),
	}
}

// Table renders the uncertain courses first, then, when there are any, a
// divider row followed by the certain courses. Both slices are rendered in
// the order given.
func Table(out io.Writer, semester string, uncertain, certain []querycourse.Course) string {
	t := NewTable(out)
	t.SetTitle(Title(semester))
	t.Style().Title.Align = text.AlignCenter

	configs := make([]table.ColumnConfig, len(header))
	for i := range header {
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignCenter,
			AlignHeader: text.AlignCenter,
		}
	}
	t.SetColumnConfigs(configs)
	t.AppendHeader(header)

	for _, c := range uncertain {
		t.AppendRow(courseRow(c))
	}
	if len(certain) > 0 {
		divider := make(table.Row, len(header))
		for i := range divider {
			divider[i] = CertainDivider
		}
		t.AppendSeparator()
		t.AppendRow(divider, table.RowConfig{AutoMerge: true})
		t.AppendSeparator()
		for _, c := range certain {
			t.AppendRow(courseRow(c))
		}
	}

	return t.Render()
}

// Warnings writes one line per unresolved course code.
func Warnings(out io.Writer, failures []fetch.Failure) {
	style := lipgloss.NewRenderer(out).NewStyle().Foreground(lipgloss.Color("3"))
	for _, failure := range failures {
		var line string
		switch {
		case failure.NotFound():
			line = fmt.Sprintf("警告: 查無課程資料，課程代碼: %s", failure.Code)
		default:
			line = fmt.Sprintf("警告: 課程資料異常，課程代碼: %s (%v)", failure.Code, cause(failure.Err))
		}
		fmt.Fprintln(out, style.Render(line))
	}
}

// cause strips the course code that querycourse.CourseError already prefixes.
func cause(err error) error {
	var courseErr *querycourse.CourseError
	if errors.As(err, &courseErr) {
		return courseErr.Err
	}
	return err
}

// Fatal writes a localized diagnostic for an error that aborts the run.
func Fatal(out io.Writer, message string, err error) {
	renderer := lipgloss.NewRenderer(out)
	title := renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	fmt.Fprintln(out, title.Render(fmt.Sprintf("錯誤: %s", message)))
	if err != nil {
		fmt.Fprintf(out, "詳細資料: %v\n", err)
	}
}

// Note writes an informational line.
func Note(out io.Writer, message string) {
	style := lipgloss.NewRenderer(out).NewStyle().Faint(true)
	fmt.Fprintln(out, style.Render(message))
}
