package smartrecruit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

// fakeBackend serves a gin router and counts the requests it received.
type fakeBackend struct {
	router   *gin.Engine
	requests atomic.Int32
}

func newFakeBackend(t *testing.T) (*fakeBackend, *Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fb := &fakeBackend{router: gin.New()}
	fb.router.Use(func(c *gin.Context) {
		fb.requests.Add(1)
		c.Next()
	})

	srv := httptest.NewServer(fb.router)
	t.Cleanup(srv.Close)

	client := New(nil, staticToken("token-1"))
	client.APIURL = srv.URL
	return fb, client
}

func TestFetchRecommendationsNormalizes(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.router.GET(recommendationsPath, func(c *gin.Context) {
		assert.Equal(t, "Bearer token-1", c.GetHeader("Authorization"))
		assert.NotEmpty(t, c.GetHeader(requestIDHeader))
		assert.Equal(t, "7", c.Query("user_id"))
		assert.Equal(t, "r1", c.Query("resume_id"))
		assert.Equal(t, "2", c.Query("limit"))

		c.JSON(http.StatusOK, gin.H{"recommended_jobs": []gin.H{
			{"job_id": 1, "title": "Go Developer", "company_name": "Acme", "job status": "active", "fit_score": 0.87},
			{"jobId": 2, "title": "SRE", "Company Name": "Globex", "status": "closed", "score": 64},
			{"title": "no id"},
		}})
	})

	jobs, err := client.FetchRecommendations(context.Background(), 7, "r1", 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, JobMatch{JobID: 1, Title: "Go Developer", CompanyName: "Acme", JobStatus: JobActive, FitScore: 87}, jobs[0])
	assert.Equal(t, JobMatch{JobID: 2, Title: "SRE", CompanyName: "Globex", JobStatus: JobClosed, FitScore: 64}, jobs[1])
}

func TestFetchRecommendationsBareArrayAndEmpty(t *testing.T) {
	fb, client := newFakeBackend(t)
	var empty atomic.Bool
	fb.router.GET(recommendationsPath, func(c *gin.Context) {
		if empty.Load() {
			c.JSON(http.StatusOK, []gin.H{})
			return
		}
		c.JSON(http.StatusOK, []gin.H{{"id": 5, "title": "QA", "fitScore": 91}})
	})

	jobs, err := client.FetchRecommendations(context.Background(), 7, "r1", 20)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 91, jobs[0].FitScore)

	empty.Store(true)
	_, err = client.FetchRecommendations(context.Background(), 7, "r1", 20)
	var noMatches *NoMatchesError
	require.ErrorAs(t, err, &noMatches)
	assert.Equal(t, "r1", noMatches.ResumeID)
}

func TestFetchRecommendationsValidatesBeforeNetwork(t *testing.T) {
	fb, client := newFakeBackend(t)

	tests := []struct {
		name     string
		userID   int
		resumeID string
		limit    int
		field    string
	}{
		{name: "no resume", userID: 7, resumeID: " ", limit: 10, field: "resume_id"},
		{name: "limit too small", userID: 7, resumeID: "r1", limit: 0, field: "limit"},
		{name: "limit too large", userID: 7, resumeID: "r1", limit: 51, field: "limit"},
		{name: "no user", userID: 0, resumeID: "r1", limit: 10, field: "user_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.FetchRecommendations(context.Background(), tt.userID, tt.resumeID, tt.limit)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}
	assert.Zero(t, fb.requests.Load())
}

func TestUnauthorizedTriggersTeardownOutsideLogin(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.router.GET(resumesPath, func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
	})
	fb.router.POST(loginPath, func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect email or password"})
	})

	var teardowns atomic.Int32
	client.Unauthorized = func(context.Context) { teardowns.Add(1) }

	_, err := client.Login(context.Background(), Credentials{Email: "ada@example.com", Password: "wrong"})
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "Incorrect email or password", backendErr.Detail)
	assert.Zero(t, teardowns.Load(), "a failed login is not a session expiry")

	_, err = client.ListResumes(context.Background(), 7)
	require.ErrorAs(t, err, &backendErr)
	assert.True(t, backendErr.Unauthorized())
	assert.Equal(t, int32(1), teardowns.Load())
}

func TestBackendDetailPassesThrough(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.router.POST("/api/candidate/jobs/:id/apply", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": []gin.H{{"msg": "resume_id is invalid"}}})
	})

	_, err := client.ApplyForJob(context.Background(), 3, 7, "r1")
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusBadRequest, backendErr.Status)
	assert.Equal(t, "resume_id is invalid", Message(err))
}

func TestTransportError(t *testing.T) {
	client := New(nil, nil)
	client.APIURL = "http://127.0.0.1:1"

	_, err := client.GetJob(context.Background(), 1)
	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, "The SmartRecruit service is unreachable. Please try again.", Message(err))
}

func TestLoginAndMe(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.router.POST(loginPath, func(c *gin.Context) {
		var creds Credentials
		assert.NoError(t, c.ShouldBindJSON(&creds))
		assert.Equal(t, "ada@example.com", creds.Email)
		c.JSON(http.StatusOK, gin.H{"access_token": "jwt", "token_type": "bearer"})
	})
	fb.router.GET(mePath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": 42, "email": "ada@example.com", "first_name": "Ada", "role": "Recruiter"})
	})

	token, err := client.Login(context.Background(), Credentials{Email: "  Ada@Example.com ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", token.AccessToken)

	profile, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, profile.ID)
	assert.Equal(t, RoleRecruiter, profile.Role)
	assert.Equal(t, "Ada", profile.DisplayName())
}

func TestResumesListUploadDownload(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.router.GET(resumesPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"resumes": []gin.H{
			{"resume_id": "r1", "file_name": "cv.pdf", "created_at": "2025-03-01T10:00:00"},
			{"id": "r2", "display_name": "Backend CV", "filename": "backend.pdf"},
		}})
	})
	fb.router.POST(resumeUploadPath, func(c *gin.Context) {
		assert.Equal(t, "7", c.PostForm("user_id"))
		if file, err := c.FormFile("file"); assert.NoError(t, err) {
			assert.Equal(t, "cv.pdf", file.Filename)
		}
		c.JSON(http.StatusOK, gin.H{"resume_id": "r3", "skills": []string{"Go", "SQL", "go"}})
	})
	fb.router.GET("/api/candidate/resumes/:id/download", func(c *gin.Context) {
		if c.Param("id") == "r1" {
			c.Header("Content-Disposition", `attachment; filename="ada-cv.pdf"`)
		}
		c.Data(http.StatusOK, "application/pdf", []byte("%PDF"))
	})

	resumes, err := client.ListResumes(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 2, resumes.Len())
	assert.Equal(t, "cv.pdf", resumes.Items[0].DisplayName)
	assert.Equal(t, 2025, resumes.Items[0].UploadedAt.Year())
	assert.Same(t, resumes.Items[1], resumes.Find("Backend CV"))

	result, err := client.UploadResume(context.Background(), 7, "/tmp/cv.pdf", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, "r3", result.ResumeID)
	assert.Equal(t, SkillSet{"Go", "SQL"}, result.Skills)

	named, err := client.DownloadResume(context.Background(), "r1", 7, "cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, "ada-cv.pdf", named.Filename)
	assert.Equal(t, []byte("%PDF"), named.Content)

	fallback, err := client.DownloadResume(context.Background(), "r2", 7, "backend.pdf")
	require.NoError(t, err)
	assert.Equal(t, "backend.pdf", fallback.Filename)
}

func TestGenerateInterviewQuestionsSendsLowercaseDifficulty(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.router.GET("/candidate/jobs/:id/prepare", func(c *gin.Context) {
		assert.Equal(t, "hard", c.Query("difficulty"))
		c.JSON(http.StatusOK, gin.H{
			"technical_questions":  []string{"1. What is a goroutine?"},
			"behavioral_questions": []gin.H{{"question": "Tell me about a deadline"}},
		})
	})

	set, err := client.GenerateInterviewQuestions(context.Background(), JobMatch{JobID: 9, Title: "Go"}, Hard)
	require.NoError(t, err)
	assert.Equal(t, 9, set.JobID)
	assert.Equal(t, "What is a goroutine?", set.Technical[0].Question)
	assert.Equal(t, DefaultFramework, set.Behavioral[0].Framework)

	_, err = client.GenerateInterviewQuestions(context.Background(), JobMatch{JobID: 9}, "")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, int32(1), fb.requests.Load())
}

func TestRecruiterPostingValidation(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.router.POST(createJobPath, func(c *gin.Context) {
		assert.Equal(t, "Go Developer", c.Query("title"))
		assert.Equal(t, "active", c.Query("job_status"))
		c.JSON(http.StatusOK, gin.H{"job_id": 12})
	})

	valid := JobPosting{RecruiterID: 3, Title: " Go Developer ", Description: "Build things", JobType: "Full-time"}

	tests := []struct {
		name   string
		mutate func(p *JobPosting)
		field  string
	}{
		{name: "empty title", mutate: func(p *JobPosting) { p.Title = "  " }, field: "title"},
		{name: "long company", mutate: func(p *JobPosting) { p.Company = strings.Repeat("a", 256) }, field: "company"},
		{name: "bad type", mutate: func(p *JobPosting) { p.JobType = "Freelance" }, field: "jobType"},
		{name: "bad status", mutate: func(p *JobPosting) { p.JobStatus = "paused" }, field: "jobStatus"},
		{name: "no recruiter", mutate: func(p *JobPosting) { p.RecruiterID = 0 }, field: "recruiterId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := client.CreateJob(context.Background(), p)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}
	assert.Zero(t, fb.requests.Load())

	id, err := client.CreateJob(context.Background(), valid)
	require.NoError(t, err)
	assert.Equal(t, 12, id)
}

func TestUpdateApplicationStatusValidatesLocally(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.router.PUT("/analytics/:id/status", func(c *gin.Context) {
		assert.Equal(t, "shortlisted", c.Query("status"))
		c.JSON(http.StatusOK, gin.H{"old_status": "applied"})
	})

	_, err := client.UpdateApplicationStatus(context.Background(), "a1", "hired")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Zero(t, fb.requests.Load())

	change, err := client.UpdateApplicationStatus(context.Background(), "a1", "Shortlisted")
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, change.OldStatus)
	assert.Equal(t, StatusShortlisted, change.NewStatus)
}

func TestListJobApplicantsNotFoundIsEmpty(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.router.GET("/analytics/:id/applications", func(c *gin.Context) {
		if c.Param("id") == "1" {
			c.JSON(http.StatusNotFound, gin.H{"detail": "No applications found"})
			return
		}
		c.JSON(http.StatusOK, []gin.H{{
			"user_id": 7, "fit_score": 0.8, "matched_skills": "Go,SQL", "application_status": "Applied", "applied_at": "2025-03-01T10:00:00Z",
		}})
	})

	applicants, err := client.ListJobApplicants(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, applicants)

	applicants, err = client.ListJobApplicants(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, applicants, 1)
	assert.Equal(t, 7, applicants[0].UserID)
	assert.Equal(t, 2, applicants[0].JobID)
	assert.Equal(t, 80, applicants[0].FitScore)
	assert.Equal(t, StatusApplied, applicants[0].Status)
	assert.Equal(t, SkillSet{"Go", "SQL"}, applicants[0].MatchedSkills)
}

func TestAnalytics(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.router.GET(summaryPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"total_applications": 5, "applied": 2, "shortlisted": "1", "rejected": 2})
	})
	fb.router.GET("/analytics/:id/fit-score-distribution", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"total_applications":     3,
			"fit_score_distribution": gin.H{"0-50": 1, "51-75": 0, "76-100": 2},
		})
	})

	summary, err := client.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{TotalApplications: 5, Applied: 2, Shortlisted: 1, Rejected: 2}, *summary)

	dist, err := client.GetFitScoreDistribution(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 3, dist.TotalApplications)
	assert.Equal(t, []Bucket{{Label: "76-100", Count: 2}, {Label: "51-75", Count: 0}, {Label: "0-50", Count: 1}}, dist.Buckets)
}

func TestGetJobSendsClientHeaders(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.router.GET("/recruiter/jobs/:id", func(c *gin.Context) {
		assert.Equal(t, contentEncoding, c.GetHeader("Accept-Encoding"))
		assert.Equal(t, userAgent, c.GetHeader("User-Agent"))
		c.JSON(http.StatusOK, gin.H{"id": 4, "title": "Go Developer", "company": "Acme", "job_status": "closed"})
	})

	job, err := client.GetJob(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Go Developer", job.Title)
	assert.Equal(t, JobClosed, job.JobStatus)
}

func TestDecodeBodyRejectsGarbage(t *testing.T) {
	var target map[string]any
	require.Error(t, decodeBody(&response{body: []byte("{not json")}, &target))
	require.NoError(t, decodeBody(&response{body: []byte("  ")}, &target))
}
