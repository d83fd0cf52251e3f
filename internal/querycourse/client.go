// Package querycourse talks to the NTUST course query API.
package querycourse

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"courseodds/internal/components/telemetry"
	"courseodds/lib/textutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("courseodds/querycourse")

const (
	report_client_get_semester = "client.get-semester"
	report_client_get_course   = "client.get-course"
)

type Course struct {
	ID           string
	StudentCount int
	// StudentLimit is kept as the API returns it.
	StudentLimit string
	Teacher      string
	Name         string

	ChoiceRate    float64
	AdmissionRate float64
}

// Certain reports whether a seat is guaranteed.
func (c Course) Certain() bool {
	return c.AdmissionRate == 100
}

type ClientOptions struct {
	BaseUrl  string
	Language string
	// Timeout of a single request, 0 means no timeout.
	Timeout          time.Duration
	UserAgent        string
	CloudflareBypass bool
}

// Client is safe for concurrent use.
type Client struct {
	http     *resty.Client
	tel      telemetry.API
	language string
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	if opts.BaseUrl == "" {
		return nil, fmt.Errorf("base url is required")
	}
	tel = telemetry.NewScopedAPI("querycourse", tel)

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetTimeout(opts.Timeout)
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	telemetry.InstrumentResty(httpClient, tel, tracer)

	language := opts.Language
	if language == "" {
		language = "zh"
	}
	return &Client{http: httpClient, tel: tel, language: language}, nil
}

// GetSemester returns the semester the API currently serves. An empty or
// unexpected (but valid JSON) response yields an empty string.
func (c *Client) GetSemester(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:GetSemester")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get("/semestersinfo")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		c.tel.ReportBroken(report_client_get_semester, fmt.Errorf("fetch: %w", err))
		return "", err
	}
	if res.IsError() {
		err = fmt.Errorf("unexpected status: %s", res.Status())
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_get_semester, err)
		return "", err
	}

	var payload any
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse json")
		c.tel.ReportBroken(report_client_get_semester, fmt.Errorf("unmarshal json: %w", err))
		return "", err
	}

	semester := ""
	if list, ok := payload.([]any); ok && len(list) > 0 {
		if info, ok := list[0].(map[string]any); ok {
			semester, _ = info["Semester"].(string)
		}
	}
	if semester == "" {
		c.tel.ReportWarning(report_client_get_semester, "no semester in response", res.String())
	}
	span.SetAttributes(attribute.String("semester", semester))
	return semester, nil
}

type courseQuery struct {
	Semester string `json:"Semester"`
	CourseNo string `json:"CourseNo"`
	Language string `json:"Language"`
}

// every field is required, pointers tell a missing field apart from a zero value.
type courseEntry struct {
	CourseNo      *string `json:"CourseNo"`
	AllStudent    *int    `json:"AllStudent"`
	Restrict2     *string `json:"Restrict2"`
	CourseTeacher *string `json:"CourseTeacher"`
	CourseName    *string `json:"CourseName"`
}

func (e courseEntry) missing() []string {
	var missing []string
	if e.CourseNo == nil {
		missing = append(missing, "CourseNo")
	}
	if e.AllStudent == nil {
		missing = append(missing, "AllStudent")
	}
	if e.Restrict2 == nil {
		missing = append(missing, "Restrict2")
	}
	if e.CourseTeacher == nil {
		missing = append(missing, "CourseTeacher")
	}
	if e.CourseName == nil {
		missing = append(missing, "CourseName")
	}
	return missing
}

// GetCourse fetches the enrollment statistics of one course and computes its
// rates. Every error is a *CourseError carrying code.
func (c *Client) GetCourse(ctx context.Context, semester, code string) (Course, error) {
	ctx, span := tracer.Start(ctx, "client:GetCourse", trace.WithAttributes(
		attribute.String("semester", semester),
		attribute.String("course_no", code),
	))
	defer span.End()

	course, err := c.getCourse(ctx, semester, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get course")
		return Course{}, &CourseError{Code: code, Err: err}
	}
	span.SetAttributes(
		attribute.Float64("choice_rate", course.ChoiceRate),
		attribute.Float64("admission_rate", course.AdmissionRate),
	)
	return course, nil
}

func (c *Client) getCourse(ctx context.Context, semester, code string) (Course, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(courseQuery{
			Semester: semester,
			CourseNo: code,
			Language: c.language,
		}).
		Post("/courses")
	if err != nil {
		return Course{}, err
	}
	if res.IsError() {
		return Course{}, fmt.Errorf("unexpected status: %s", res.Status())
	}

	var entries []json.RawMessage
	err = json.Unmarshal(res.Body(), &entries)
	if err != nil {
		c.tel.ReportBroken(report_client_get_course, code, fmt.Errorf("unmarshal json: %w", err))
		return Course{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(entries) == 0 {
		c.tel.ReportDebug(report_client_get_course, code, "not found")
		return Course{}, ErrNotFound
	}

	var entry courseEntry
	err = json.Unmarshal(entries[0], &entry)
	if err != nil {
		c.tel.ReportBroken(report_client_get_course, code, fmt.Errorf("unmarshal entry: %w", err))
		return Course{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if missing := entry.missing(); len(missing) > 0 {
		c.tel.ReportBroken(report_client_get_course, code, missing)
		return Course{}, fmt.Errorf("%w: missing %s", ErrMalformed, strings.Join(missing, ", "))
	}
	if *entry.AllStudent < 0 {
		return Course{}, fmt.Errorf("%w: negative AllStudent %d", ErrMalformed, *entry.AllStudent)
	}

	limit, err := strconv.ParseFloat(strings.TrimSpace(*entry.Restrict2), 64)
	if err != nil {
		return Course{}, fmt.Errorf("%w %q: %v", ErrInvalidLimit, *entry.Restrict2, err)
	}
	if limit <= 0 || math.IsNaN(limit) || math.IsInf(limit, 0) {
		return Course{}, fmt.Errorf("%w %q: must be a positive number", ErrInvalidLimit, *entry.Restrict2)
	}

	course := Course{
		ID:           *entry.CourseNo,
		StudentCount: *entry.AllStudent,
		StudentLimit: *entry.Restrict2,
		Teacher:      textutil.Collapse(*entry.CourseTeacher),
		Name:         textutil.Collapse(*entry.CourseName),
	}
	course.ChoiceRate = ChoiceRate(course.StudentCount, limit)
	course.AdmissionRate = AdmissionRate(course.ChoiceRate)
	return course, nil
}
