package smartrecruit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Field-name fallback chains for the job records. The backend has shipped every one of
// these spellings at some point, first match wins.
var (
	jobIDKeys       = []string{"job_id", "jobId", "id"}
	titleKeys       = []string{"title", "job_title", "jobTitle"}
	companyKeys     = []string{"company", "company_name", "companyName", "Company Name"}
	locationKeys    = []string{"location", "job_location"}
	jobTypeKeys     = []string{"job_type", "jobType", "type"}
	jobStatusKeys   = []string{"job status", "job_status", "status"}
	fitScoreKeys    = []string{"fit_score", "fitScore", "score"}
	descriptionKeys = []string{"description", "job_description"}
)

// NormalizeJob converts one raw backend record into the canonical JobMatch.
// ok is false when the record carries no usable job id.
func NormalizeJob(raw map[string]any) (JobMatch, bool) {
	id, ok := asInt(lookup(raw, jobIDKeys...))
	if !ok || id <= 0 {
		return JobMatch{}, false
	}

	job := JobMatch{
		JobID:       id,
		Title:       asString(lookup(raw, titleKeys...)),
		CompanyName: asString(lookup(raw, companyKeys...)),
		Location:    asString(lookup(raw, locationKeys...)),
		JobType:     asString(lookup(raw, jobTypeKeys...)),
		JobStatus:   NormalizeJobStatus(asString(lookup(raw, jobStatusKeys...))),
		Description: asString(lookup(raw, descriptionKeys...)),
	}

	if score, ok := asFloat(lookup(raw, fitScoreKeys...)); ok {
		job.FitScore = NormalizeScore(score)
	}

	return job, true
}

// NormalizeJobStatus maps anything other than an explicit "closed" to active.
func NormalizeJobStatus(raw string) JobStatus {
	if strings.EqualFold(strings.TrimSpace(raw), string(JobClosed)) {
		return JobClosed
	}
	return JobActive
}

// NormalizeScore expresses a backend score as a whole percentage.
//
// Both conventions are live on the backend: a 0..1 fraction and an already scaled
// 0..100 value. Values up to and including 1 are treated as fractions, so a literal
// 1% score reads as 100%. This heuristic is a contract to confirm with the backend.
func NormalizeScore(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v <= 1 {
		v *= 100
	}

	score := int(math.Round(v))
	if score > 100 {
		return 100
	}
	return score
}

// lookup returns the first value stored under one of keys that is neither nil nor a
// blank string.
func lookup(raw map[string]any, keys ...string) any {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil || asString(v) == "" {
			continue
		}
		return v
	}
	return nil
}

func asString(v any) string {
	if v == nil {
		return ""
	}

	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case bool:
		return strconv.FormatBool(typed)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func asFloat(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(typed), "%"), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// timeLayouts covers RFC3339 and the zone-less timestamps FastAPI emits for naive datetimes.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// listFrom accepts either a bare JSON array or an object wrapping one under any of keys.
func listFrom(v any, keys ...string) ([]map[string]any, error) {
	var items []any
	switch typed := v.(type) {
	case nil:
		return nil, nil
	case []any:
		items = typed
	case map[string]any:
		found := false
		for _, key := range keys {
			if list, ok := typed[key].([]any); ok {
				items = list
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unexpected payload: none of %v present", keys)
		}
	default:
		return nil, fmt.Errorf("unexpected payload type %T", v)
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			records = append(records, m)
		}
	}
	return records, nil
}
