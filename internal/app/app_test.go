package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"courseodds/internal/components/telemetry"
	"courseodds/internal/querycourse"
	"courseodds/internal/querycourse/querycoursetest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const cartPage = `<html><body>
<p>推薦課程 MA2012701</p>
<table id="cartTable">
	<tr><td>CS1001301</td></tr>
	<tr><td>GE1001302</td></tr>
	<tr><td>ETG001301</td></tr>
	<tr><td>XX1001301</td></tr>
</table>
</body></html>`

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cart.html")
	err := os.WriteFile(path, []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func setup(t *testing.T, semester string) (*querycoursetest.Server, *App) {
	t.Helper()
	server := querycoursetest.NewServer(semester)
	t.Cleanup(server.Close)
	server.Add("CS1001301", querycoursetest.Course("CS1001301", 30, "40"))
	server.Add("GE1001302", querycoursetest.Course("GE1001302", 80, "40"))
	server.Add("ETG001301", querycoursetest.Course("ETG001301", 120, "40"))
	server.Add("MA2012701", querycoursetest.Course("MA2012701", 1, "40"))

	client, err := querycourse.NewClient(querycourse.ClientOptions{
		BaseUrl: server.URL,
		Timeout: 5 * time.Second,
	}, telemetry.NoopAPI{})
	if err != nil {
		t.Fatal(err)
	}
	return server, New(client, telemetry.NoopAPI{})
}

type recordingProgress struct {
	mutex   sync.Mutex
	total   int
	started bool
	stopped bool
	settled []string
}

func (p *recordingProgress) Start() { p.started = true }
func (p *recordingProgress) Stop()  { p.stopped = true }

func (p *recordingProgress) Settled(code string, err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.settled = append(p.settled, code)
}

func TestRun(t *testing.T) {
	server, app := setup(t, "1131")
	path := writeDocument(t, cartPage)

	progress := &recordingProgress{}
	outcome, err := app.Run(context.Background(), Options{
		Path: path,
		NewProgress: func(total int) Progress {
			progress.total = total
			return progress
		},
	})
	require.NoError(t, err)

	require.Equal(t, "1131", outcome.Semester)
	require.Equal(t, []string{"CS1001301", "GE1001302", "ETG001301", "XX1001301"}, outcome.Codes)

	var uncertain []string
	for _, c := range outcome.Result.Uncertain {
		uncertain = append(uncertain, c.ID)
	}
	require.Equal(t, []string{"ETG001301", "GE1001302"}, uncertain)
	require.Len(t, outcome.Result.Certain, 1)
	require.Equal(t, "CS1001301", outcome.Result.Certain[0].ID)
	require.Len(t, outcome.Result.Unresolved, 1)
	require.True(t, outcome.Result.Unresolved[0].NotFound())

	require.Equal(t, 4, progress.total)
	require.True(t, progress.started)
	require.True(t, progress.stopped)
	require.Len(t, progress.settled, 4)

	for _, query := range server.Queries() {
		require.Equal(t, "1131", query.Semester)
	}
}

func TestRunSemesterOverride(t *testing.T) {
	server, app := setup(t, "1131")
	server.SemesterRaw = "not json"
	path := writeDocument(t, "CS1001301")

	outcome, err := app.Run(context.Background(), Options{Path: path, Semester: "1122", MaxConcurrency: 1})
	require.NoError(t, err)
	require.Equal(t, "1122", outcome.Semester)

	diff := cmp.Diff([]querycoursetest.Query{{
		Semester: "1122",
		CourseNo: "CS1001301",
		Language: "zh",
	}}, server.Queries())
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestRunEmptySemester(t *testing.T) {
	server, app := setup(t, "")
	server.SemesterRaw = "[]"
	path := writeDocument(t, "GE1001302")

	outcome, err := app.Run(context.Background(), Options{Path: path})
	require.NoError(t, err)
	require.Equal(t, "", outcome.Semester)
	require.Len(t, outcome.Result.Uncertain, 1)
	require.Equal(t, "", server.Queries()[0].Semester)
}

func TestRunNoCodes(t *testing.T) {
	server, app := setup(t, "1131")
	path := writeDocument(t, "nothing to see here")

	called := false
	outcome, err := app.Run(context.Background(), Options{
		Path: path,
		NewProgress: func(int) Progress {
			called = true
			return &recordingProgress{}
		},
	})
	require.NoError(t, err)
	require.Empty(t, outcome.Codes)
	require.Equal(t, 0, outcome.Result.Total())
	require.False(t, called)
	require.Zero(t, server.CoursesCalls())
}

func TestRunReadFileError(t *testing.T) {
	_, app := setup(t, "1131")
	path := filepath.Join(t.TempDir(), "missing.html")

	_, err := app.Run(context.Background(), Options{Path: path})
	var readErr *ReadFileError
	require.True(t, errors.As(err, &readErr))
	require.Equal(t, path, readErr.Path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunSemesterError(t *testing.T) {
	server, app := setup(t, "1131")
	path := writeDocument(t, cartPage)
	server.SemesterRaw = "not json"

	_, err := app.Run(context.Background(), Options{Path: path})
	var semesterErr *SemesterError
	require.True(t, errors.As(err, &semesterErr))
	require.Zero(t, server.CoursesCalls())
}

func TestNewRequiresClient(t *testing.T) {
	require.Panics(t, func() { New(nil, telemetry.NoopAPI{}) })
}
