// Package querycoursetest serves a fake course query API for tests.
package querycoursetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
)

// Entry is what the API returns for a course code. Raw, when set, is written
// as the whole response body instead.
type Entry struct {
	CourseNo      string
	AllStudent    int
	Restrict2     string
	CourseTeacher string
	CourseName    string

	Raw    string
	Status int
}

type Server struct {
	*httptest.Server

	mutex sync.Mutex
	// Semester is written as the semestersinfo response, SemesterRaw overrides it.
	Semester     string
	SemesterRaw  string
	courses      map[string]Entry
	queries      []Query
	coursesCalls atomic.Int64
	// Block, when not nil, is waited on before answering a course query.
	Block chan struct{}
}

// Query is a request body received by the courses endpoint.
type Query struct {
	Semester string
	CourseNo string
	Language string
}

func NewServer(semester string) *Server {
	s := &Server{Semester: semester, courses: map[string]Entry{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/semestersinfo", s.handleSemesters)
	mux.HandleFunc("/courses", s.handleCourses)
	s.Server = httptest.NewServer(mux)
	return s
}

// Add registers a course, codes that are never added answer with an empty array.
func (s *Server) Add(code string, entry Entry) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.courses[code] = entry
}

// Course is a shorthand for a well-formed entry.
func Course(code string, count int, limit string) Entry {
	return Entry{
		CourseNo:      code,
		AllStudent:    count,
		Restrict2:     limit,
		CourseTeacher: "王小明",
		CourseName:    fmt.Sprintf("課程 %s", code),
	}
}

func (s *Server) Queries() []Query {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]Query(nil), s.queries...)
}

func (s *Server) CoursesCalls() int64 {
	return s.coursesCalls.Load()
}

func (s *Server) handleSemesters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mutex.Lock()
	raw := s.SemesterRaw
	semester := s.Semester
	s.mutex.Unlock()

	w.Header().Set("content-type", "application/json")
	if raw != "" {
		w.Write([]byte(raw))
		return
	}
	json.NewEncoder(w).Encode([]map[string]string{
		{"Semester": semester},
	})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	s.coursesCalls.Add(1)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var query Query
	err := json.NewDecoder(r.Body).Decode(&query)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if s.Block != nil {
		select {
		case <-s.Block:
		case <-r.Context().Done():
			return
		}
	}

	s.mutex.Lock()
	s.queries = append(s.queries, query)
	entry, ok := s.courses[query.CourseNo]
	s.mutex.Unlock()

	w.Header().Set("content-type", "application/json")
	if !ok {
		w.Write([]byte("[]"))
		return
	}
	if entry.Status != 0 {
		w.WriteHeader(entry.Status)
	}
	if entry.Raw != "" {
		w.Write([]byte(entry.Raw))
		return
	}
	json.NewEncoder(w).Encode([]map[string]any{{
		"CourseNo":      entry.CourseNo,
		"AllStudent":    entry.AllStudent,
		"Restrict2":     entry.Restrict2,
		"CourseTeacher": entry.CourseTeacher,
		"CourseName":    entry.CourseName,
	}})
}
