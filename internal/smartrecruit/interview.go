package smartrecruit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"

	DefaultFramework = "STAR Method"

	RequiredTechnicalQuestions  = 10
	RequiredBehavioralQuestions = 5
)

// ParseDifficulty accepts the three levels in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	case "":
		return "", &ValidationError{Field: "difficulty", Reason: "please select a difficulty level"}
	default:
		return "", &ValidationError{Field: "difficulty", Reason: fmt.Sprintf("%q is not one of Easy, Medium, Hard", s)}
	}
}

// Param is the wire form of the difficulty.
func (d Difficulty) Param() string {
	return strings.ToLower(string(d))
}

type TechnicalQuestion struct {
	Number   int    `json:"number"`
	Question string `json:"question"`
}

type BehavioralQuestion struct {
	Number    int    `json:"number"`
	Question  string `json:"question"`
	Framework string `json:"framework"`
}

type InterviewQuestionSet struct {
	JobID      int                  `json:"jobId"`
	Difficulty Difficulty           `json:"difficulty"`
	Technical  []TechnicalQuestion  `json:"technical"`
	Behavioral []BehavioralQuestion `json:"behavioral"`
}

func (s *InterviewQuestionSet) Len() int {
	return len(s.Technical) + len(s.Behavioral)
}

// GenerateInterviewQuestions asks the backend to generate questions for the job.
func (c *Client) GenerateInterviewQuestions(ctx context.Context, job JobMatch, difficulty Difficulty) (*InterviewQuestionSet, error) {
	if job.JobID <= 0 {
		return nil, &ValidationError{Field: "job_id", Reason: "must be positive"}
	}
	if _, err := ParseDifficulty(string(difficulty)); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("difficulty", difficulty.Param())

	var raw map[string]any
	if err := c.getJSON(ctx, fmt.Sprintf(preparePath, job.JobID), q, &raw); err != nil {
		return nil, err
	}

	set := NormalizeQuestionSet(raw, difficulty)
	set.JobID = job.JobID
	return set, nil
}

// NormalizeQuestionSet converts a raw response. Question lists may hold numbered strings
// ("3. Explain ...") or objects with question and framework fields.
func NormalizeQuestionSet(raw map[string]any, difficulty Difficulty) *InterviewQuestionSet {
	set := &InterviewQuestionSet{
		Difficulty: difficulty,
		Technical:  []TechnicalQuestion{},
		Behavioral: []BehavioralQuestion{},
	}
	set.JobID, _ = asInt(lookup(raw, jobIDKeys...))

	for _, item := range questionItems(lookup(raw, "technical_questions", "technical")) {
		set.Technical = append(set.Technical, TechnicalQuestion{
			Number:   len(set.Technical) + 1,
			Question: item.question,
		})
	}

	for _, item := range questionItems(lookup(raw, "behavioral_questions", "behavioral")) {
		framework := item.framework
		if framework == "" {
			framework = DefaultFramework
		}
		set.Behavioral = append(set.Behavioral, BehavioralQuestion{
			Number:    len(set.Behavioral) + 1,
			Question:  item.question,
			Framework: framework,
		})
	}

	return set
}

type questionItem struct {
	question  string
	framework string
}

func questionItems(v any) []questionItem {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	items := make([]questionItem, 0, len(list))
	for _, entry := range list {
		var item questionItem
		switch typed := entry.(type) {
		case map[string]any:
			item.question = StripQuestionNumber(asString(lookup(typed, "question", "text")))
			item.framework = asString(typed["framework"])
		default:
			item.question = StripQuestionNumber(asString(typed))
		}
		if item.question != "" {
			items = append(items, item)
		}
	}
	return items
}

// StripQuestionNumber removes a leading "12." or "12)" enumeration.
func StripQuestionNumber(s string) string {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && unicode.IsDigit(rune(s[i])) {
		i++
	}
	if i == 0 || i >= len(s) || (s[i] != '.' && s[i] != ')') {
		return s
	}
	if _, err := strconv.Atoi(s[:i]); err != nil {
		return s
	}
	return strings.TrimSpace(s[i+1:])
}

var ErrMalformedQuestions = errors.New("question text is not in TECHNICAL/BEHAVIORAL format")

// ParseQuestionSections splits generated text of the form
//
//	TECHNICAL:
//	1. ...
//	BEHAVIORAL:
//	1. ...
//
// into the two question lists. Only numbered lines count as questions.
func ParseQuestionSections(text string) (technical, behavioral []string, err error) {
	upper := strings.ToUpper(text)
	techIdx := strings.Index(upper, "TECHNICAL:")
	behIdx := strings.Index(upper, "BEHAVIORAL:")
	if techIdx < 0 || behIdx < 0 || behIdx < techIdx {
		return nil, nil, ErrMalformedQuestions
	}

	technical = numberedLines(text[techIdx+len("TECHNICAL:") : behIdx])
	behavioral = numberedLines(text[behIdx+len("BEHAVIORAL:"):])
	return technical, behavioral, nil
}

func numberedLines(section string) []string {
	var out []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !unicode.IsDigit(rune(line[0])) {
			continue
		}
		if q := StripQuestionNumber(line); q != "" && q != line {
			out = append(out, q)
		}
	}
	return out
}

// QuestionSetFromText builds a set from generated text, enforcing the required counts
// and keeping only the first 10 technical and 5 behavioral questions.
func QuestionSetFromText(jobID int, difficulty Difficulty, text string) (*InterviewQuestionSet, error) {
	technical, behavioral, err := ParseQuestionSections(text)
	if err != nil {
		return nil, err
	}

	if len(technical) < RequiredTechnicalQuestions || len(behavioral) < RequiredBehavioralQuestions {
		return nil, fmt.Errorf("%w: got %d technical and %d behavioral questions",
			ErrMalformedQuestions, len(technical), len(behavioral))
	}

	set := &InterviewQuestionSet{JobID: jobID, Difficulty: difficulty}
	for i, q := range technical[:RequiredTechnicalQuestions] {
		set.Technical = append(set.Technical, TechnicalQuestion{Number: i + 1, Question: q})
	}
	for i, q := range behavioral[:RequiredBehavioralQuestions] {
		set.Behavioral = append(set.Behavioral, BehavioralQuestion{Number: i + 1, Question: q, Framework: DefaultFramework})
	}
	return set, nil
}
