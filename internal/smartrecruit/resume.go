package smartrecruit

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

type Resumes struct {
	Items []*Resume
}

type Resume struct {
	ID          string    `json:"id" mapstructure:"id"`
	DisplayName string    `json:"displayName" mapstructure:"display_name"`
	Filename    string    `json:"filename" mapstructure:"filename"`
	UploadedAt  time.Time `json:"uploadedAt" mapstructure:"uploaded_at"`
}

// UploadResult is what the backend extracted from an uploaded resume.
type UploadResult struct {
	ResumeID string   `json:"resumeId"`
	Skills   SkillSet `json:"skills"`
}

// Download is a fetched resume file.
type Download struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ListResumes always goes to the backend; resume lists are never cached.
func (c *Client) ListResumes(ctx context.Context, userID int) (*Resumes, error) {
	q := url.Values{}
	q.Set("user_id", strconv.Itoa(userID))

	var payload any
	if err := c.getJSON(ctx, resumesPath, q, &payload); err != nil {
		return nil, err
	}

	records, err := listFrom(payload, "resumes", "items")
	if err != nil {
		return nil, fmt.Errorf("resumes: %w", err)
	}

	resumes := make([]*Resume, 0, len(records))
	for _, raw := range records {
		resume, err := decodeResume(raw)
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, resume)
	}

	return &Resumes{Items: resumes}, nil
}

func decodeResume(raw map[string]any) (*Resume, error) {
	// Older rows use resume_id and file_name.
	normalized := map[string]any{
		"id":           lookup(raw, "id", "resume_id", "resumeId"),
		"display_name": lookup(raw, "display_name", "displayName", "title", "name"),
		"filename":     lookup(raw, "filename", "file_name", "original_filename"),
		"uploaded_at":  lookup(raw, "uploaded_at", "uploadedAt", "created_at"),
	}

	var resume Resume
	cfg := &mapstructure.DecoderConfig{
		Result:           &resume,
		WeaklyTypedInput: true,
		DecodeHook:       timeHook,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(normalized); err != nil {
		return nil, fmt.Errorf("decode resume: %w", err)
	}

	if resume.DisplayName == "" {
		resume.DisplayName = resume.Filename
	}
	if resume.DisplayName == "" {
		resume.DisplayName = "Resume " + resume.ID
	}
	return &resume, nil
}

// timeHook lets mapstructure read the backend's timestamp strings into time.Time.
func timeHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Time{}) || from.Kind() != reflect.String {
		return data, nil
	}
	if t, ok := parseTime(data.(string)); ok {
		return t, nil
	}
	return time.Time{}, nil
}

func (r *Resumes) Len() int {
	return len(r.Items)
}

func (r *Resumes) Names() []string {
	names := make([]string, 0, len(r.Items))
	for _, v := range r.Items {
		names = append(names, v.DisplayName)
	}
	return names
}

func (r *Resumes) FindByID(id string) *Resume {
	for _, resume := range r.Items {
		if resume.ID == id {
			return resume
		}
	}
	return nil
}

// Find matches by id first, then by display name.
func (r *Resumes) Find(ref string) *Resume {
	if resume := r.FindByID(ref); resume != nil {
		return resume
	}
	for _, resume := range r.Items {
		if resume.DisplayName == ref || resume.Filename == ref {
			return resume
		}
	}
	return nil
}

// UploadResume sends the file as multipart form data.
func (c *Client) UploadResume(ctx context.Context, userID int, filename string, content io.Reader) (*UploadResult, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, &ValidationError{Field: "file", Reason: "is required"}
	}

	data := map[string]string{
		"user_id": strconv.Itoa(userID),
	}

	var raw map[string]any
	err := c.postFormData(ctx, resumeUploadPath, data, &upload{
		field:    "file",
		filename: filepath.Base(filename),
		content:  content,
	}, &raw)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		ResumeID: asString(lookup(raw, "resume_id", "resumeId", "id")),
		Skills:   skillList(lookup(raw, "skills", "extracted_skills", "extractedSkills")),
	}, nil
}

func (c *Client) DeleteResume(ctx context.Context, resumeID string, userID int) error {
	if strings.TrimSpace(resumeID) == "" {
		return &ValidationError{Field: "resume_id", Reason: "is required"}
	}

	q := url.Values{}
	q.Set("user_id", strconv.Itoa(userID))

	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf(resumePath, url.PathEscape(resumeID)), q, nil, nil)
}

// DownloadResume fetches the stored file. The name comes from Content-Disposition and
// falls back to fallbackName when the header is absent or unusable.
func (c *Client) DownloadResume(ctx context.Context, resumeID string, userID int, fallbackName string) (*Download, error) {
	if strings.TrimSpace(resumeID) == "" {
		return nil, &ValidationError{Field: "resume_id", Reason: "is required"}
	}

	q := url.Values{}
	q.Set("user_id", strconv.Itoa(userID))

	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf(resumeDownloadPath, url.PathEscape(resumeID)), q, nil, "")
	if err != nil {
		return nil, err
	}

	name := filenameFromDisposition(resp.header.Get("Content-Disposition"))
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		name = "resume-" + resumeID
	}

	return &Download{
		Filename:    name,
		ContentType: resp.header.Get("Content-Type"),
		Content:     resp.body,
	}, nil
}

func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return filepath.Base(strings.TrimSpace(params["filename"]))
}
