package results

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

// FilterJobs keeps the jobs whose id, title, location or company contains q, ignoring case.
// q is matched as given, spaces included. An empty q keeps everything. The input is
// never modified.
func FilterJobs(jobs []smartrecruit.JobMatch, q string) []smartrecruit.JobMatch {
	if q == "" {
		out := make([]smartrecruit.JobMatch, len(jobs))
		copy(out, jobs)
		return out
	}

	fold := cases.Fold()
	needle := fold.String(q)

	out := make([]smartrecruit.JobMatch, 0, len(jobs))
	for _, job := range jobs {
		for _, field := range []string{strconv.Itoa(job.JobID), job.Title, job.Location, job.CompanyName} {
			if strings.Contains(fold.String(field), needle) {
				out = append(out, job)
				break
			}
		}
	}
	return out
}

// PageCount is the number of pages of size needed for n items, never less than one.
func PageCount(n, size int) int {
	if size < 1 || n <= size {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate returns the n-th page of jobs and the page number actually served. n is
// clamped into [1, PageCount]. A size below one yields a single page with everything.
func Paginate(jobs []smartrecruit.JobMatch, n, size int) ([]smartrecruit.JobMatch, int) {
	pages := PageCount(len(jobs), size)
	if n < 1 {
		n = 1
	}
	if n > pages {
		n = pages
	}
	if size < 1 {
		return jobs, n
	}

	start := (n - 1) * size
	end := start + size
	if end > len(jobs) {
		end = len(jobs)
	}
	return jobs[start:end], n
}
