package smartrecruit

// Endpoint paths relative to APIURL. The base path is a deployment detail; these match
// the current backend routers.
const (
	loginPath  = "/auth/login"
	signupPath = "/auth/signup"
	mePath     = "/auth/me"

	resumesPath        = "/api/candidate/resumes"
	resumeUploadPath   = "/api/candidate/resumes/upload"
	resumePath         = "/api/candidate/resumes/%s"
	resumeDownloadPath = "/api/candidate/resumes/%s/download"

	recommendationsPath = "/api/candidate/recommended-jobs"
	skillAnalysisPath   = "/api/candidate/jobs/%d/skill-analysis"
	applyPath           = "/api/candidate/jobs/%d/apply"
	applicationsPath    = "/api/candidate/applications"
	applicationPath     = "/api/candidate/applications/%s"
	preparePath         = "/candidate/jobs/%d/prepare"

	jobPath               = "/recruiter/jobs/%d"
	recruiterJobsPath     = "/recruiter/jobs/by-recruiter/%d"
	createJobPath         = "/recruiter/jobs/new"
	deleteJobPath         = "/recruiter/%d"
	applicationStatusPath = "/analytics/%s/status"
	jobApplicantsPath     = "/analytics/%d/applications"
	summaryPath           = "/analytics/summary"
	jobSummaryPath        = "/analytics/particular-job/applications-summary"
	distributionPath      = "/analytics/Overall%20job%20fit-score-distribution"
	jobDistributionPath   = "/analytics/%d/fit-score-distribution"
)
