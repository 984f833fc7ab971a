package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"requira/internal/models"
	"requira/internal/repositories"
	"requira/internal/srs"
)

// SRSFormatError is returned when the SRS formatting reply is not a valid
// SRS JSON object
type SRSFormatError struct {
	Raw string
	Err error
}

func (e *SRSFormatError) Error() string {
	return fmt.Sprintf("failed to parse SRS document: %v", e.Err)
}

// Is makes SRSFormatError match models.ErrMalformedResponse
func (e *SRSFormatError) Is(target error) bool {
	return target == models.ErrMalformedResponse
}

func (e *SRSFormatError) Unwrap() error {
	return e.Err
}

// ExportResult describes a rendered document
type ExportResult struct {
	FileName string                     `json:"fileName"`
	Mode     srs.Mode                   `json:"mode"`
	Stored   *repositories.StoredExport `json:"stored,omitempty"`
	Data     []byte                     `json:"-"`
}

// ExportService assembles requirement documents and saves them
type ExportService struct {
	completer      Completer
	store          repositories.ExportStore
	defaultCompany string
	logger         Logger
	now            func() time.Time
}

// NewExportService creates a new export service. store may be nil, in which
// case documents are rendered but not saved.
func NewExportService(completer Completer, store repositories.ExportStore, defaultCompany string, logger Logger) *ExportService {
	return &ExportService{
		completer:      completer,
		store:          store,
		defaultCompany: defaultCompany,
		logger:         loggerOrNop(logger),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *ExportService) companyName(p *models.Project) string {
	if p.CompanyName != "" && p.CompanyName != repositories.UnknownProfileValue {
		return p.CompanyName
	}
	if s.defaultCompany != "" {
		return s.defaultCompany
	}
	return p.CompanyName
}

// Outline assembles the document outline without rendering it. Structured
// mode asks the text service to format the requirements first.
func (s *ExportService) Outline(ctx context.Context, p *models.Project, mode srs.Mode) (srs.Outline, error) {
	meta := srs.MetaFor(p, s.now())
	meta.CompanyName = s.companyName(p)

	if mode == srs.ModeSimple {
		return srs.BuildSimple(meta, p.Requirements), nil
	}

	doc, err := s.FormatSRS(ctx, p, meta.CompanyName)
	if err != nil {
		return srs.Outline{}, err
	}
	return srs.BuildStructured(meta, *doc), nil
}

// FormatSRS asks the text service to organise the raw requirements into an
// SRSDocument
func (s *ExportService) FormatSRS(ctx context.Context, p *models.Project, companyName string) (*models.SRSDocument, error) {
	raw, err := s.completer.Complete(ctx, CompletionRequest{
		System:   srsInstructions,
		Messages: []Message{{Role: "user", Content: srsPrompt(p, companyName)}},
	})
	if err != nil {
		s.logger.Printf("export: SRS formatting for project %s failed: %v", p.ID, err)
		return nil, fmt.Errorf("failed to format SRS: %w", err)
	}

	doc, err := ParseSRSDocument(raw)
	if err != nil {
		s.logger.Printf("export: SRS reply for project %s was not valid JSON: %v", p.ID, err)
		return nil, err
	}
	return doc, nil
}

// ParseSRSDocument decodes an SRS formatting reply, tolerating a markdown
// code fence around the JSON
func ParseSRSDocument(raw string) (*models.SRSDocument, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return nil, &SRSFormatError{Raw: raw, Err: fmt.Errorf("empty response")}
	}

	var doc models.SRSDocument
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &SRSFormatError{Raw: raw, Err: err}
	}
	return &doc, nil
}

// Export renders the project as a PDF in the given mode and saves it under
// the derived file name
func (s *ExportService) Export(ctx context.Context, p *models.Project, mode srs.Mode) (*ExportResult, error) {
	outline, err := s.Outline(ctx, p, mode)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := srs.RenderPDF(&buf, outline); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}

	result := &ExportResult{
		FileName: srs.FileName(p.ProjectTitle, mode),
		Mode:     mode,
		Data:     buf.Bytes(),
	}

	if s.store != nil {
		stored, err := s.store.Save(ctx, result.FileName, result.Data)
		if err != nil {
			s.logger.Printf("export: failed to save %s for project %s: %v", result.FileName, p.ID, err)
			return nil, fmt.Errorf("failed to save document: %w", err)
		}
		result.Stored = stored
	}
	return result, nil
}
