package smartrecruit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SkillSet is an ordered, case-insensitively de-duplicated list of skill names.
type SkillSet []string

// NewSkillSet keeps the first spelling of every skill and drops blanks. It never returns nil.
func NewSkillSet(items ...string) SkillSet {
	set := make(SkillSet, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		set = append(set, item)
	}
	return set
}

func (s SkillSet) Contains(skill string) bool {
	for _, item := range s {
		if strings.EqualFold(item, strings.TrimSpace(skill)) {
			return true
		}
	}
	return false
}

func (s SkillSet) Len() int { return len(s) }

type SkillAnalysis struct {
	JobID         int      `json:"jobId"`
	FitScore      int      `json:"fitScore"`
	SkillScore    int      `json:"skillScore"`
	SemanticScore int      `json:"semanticScore"`
	MatchedSkills SkillSet `json:"matchedSkills"`
	MissingSkills SkillSet `json:"missingSkills"`
}

// GetSkillAnalysis fetches the score breakdown and skill gaps of one job against a resume.
func (c *Client) GetSkillAnalysis(ctx context.Context, jobID, userID int, resumeID string) (*SkillAnalysis, error) {
	if jobID <= 0 {
		return nil, &ValidationError{Field: "job_id", Reason: "must be positive"}
	}
	if strings.TrimSpace(resumeID) == "" {
		return nil, &ValidationError{Field: "resume_id", Reason: "select a resume first"}
	}

	q := url.Values{}
	q.Set("user_id", strconv.Itoa(userID))
	q.Set("resume_id", resumeID)

	var raw map[string]any
	if err := c.getJSON(ctx, fmt.Sprintf(skillAnalysisPath, jobID), q, &raw); err != nil {
		return nil, err
	}

	analysis := NormalizeSkillAnalysis(raw)
	if analysis.JobID == 0 {
		analysis.JobID = jobID
	}
	return &analysis, nil
}

// NormalizeSkillAnalysis converts a raw analysis. Missing skill lists become empty sets.
func NormalizeSkillAnalysis(raw map[string]any) SkillAnalysis {
	analysis := SkillAnalysis{
		MatchedSkills: skillList(lookup(raw, "matched_skills", "matchedSkills")),
		MissingSkills: skillList(lookup(raw, "missing_skills", "missingSkills")),
	}

	analysis.JobID, _ = asInt(lookup(raw, jobIDKeys...))
	if v, ok := asFloat(lookup(raw, fitScoreKeys...)); ok {
		analysis.FitScore = NormalizeScore(v)
	}
	if v, ok := asFloat(lookup(raw, "skill_score", "skillScore")); ok {
		analysis.SkillScore = NormalizeScore(v)
	}
	if v, ok := asFloat(lookup(raw, "semantic_score", "semanticScore")); ok {
		analysis.SemanticScore = NormalizeScore(v)
	}

	return analysis
}

// skillList accepts a JSON array or the comma separated string some rows are stored as.
func skillList(v any) SkillSet {
	switch typed := v.(type) {
	case []any:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, asString(item))
		}
		return NewSkillSet(items...)
	case []string:
		return NewSkillSet(typed...)
	case string:
		return NewSkillSet(strings.Split(typed, ",")...)
	default:
		return NewSkillSet()
	}
}
