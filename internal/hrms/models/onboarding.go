package models

import (
	"time"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/google/uuid"
)

// DocumentStatus tracks one onboarding document.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "Pending"
	DocumentUploaded DocumentStatus = "Uploaded"
	DocumentVerified DocumentStatus = "Verified"
	DocumentRejected DocumentStatus = "Rejected"
)

// DocumentRequirement is one entry of a checklist template.
type DocumentRequirement struct {
	Type     string `json:"type" yaml:"type"`
	Label    string `json:"label" yaml:"label"`
	Required bool   `json:"required" yaml:"required"`
}

// DefaultChecklist is used when no template file is configured.
var DefaultChecklist = []DocumentRequirement{
	{Type: "id_proof", Label: "ID Proof", Required: true},
	{Type: "address_proof", Label: "Address Proof", Required: true},
	{Type: "education_certificates", Label: "Education Certificates", Required: true},
	{Type: "previous_employment", Label: "Previous Employment Letter", Required: false},
	{Type: "bank_details", Label: "Bank Details", Required: true},
	{Type: "photo", Label: "Passport Photo", Required: false},
}

// ChecklistItem is the state of one required document.
type ChecklistItem struct {
	ID          uuid.UUID      `json:"id"`
	Type        string         `json:"type"`
	Label       string         `json:"label"`
	Required    bool           `json:"required"`
	Status      DocumentStatus `json:"status"`
	DocumentURL string         `json:"documentUrl,omitempty"`
	Remarks     string         `json:"remarks,omitempty"`
	VerifiedBy  string         `json:"verifiedBy,omitempty"`
	UploadedAt  *time.Time     `json:"uploadedAt,omitempty"`
	VerifiedAt  *time.Time     `json:"verifiedAt,omitempty"`
}

// OnboardingChecklist is reached after an offer is accepted.
type OnboardingChecklist struct {
	Items []ChecklistItem `json:"items"`
}

// NewChecklist instantiates a template.
func NewChecklist(template []DocumentRequirement) *OnboardingChecklist {
	items := make([]ChecklistItem, 0, len(template))
	for _, req := range template {
		items = append(items, ChecklistItem{
			ID:       uuid.New(),
			Type:     req.Type,
			Label:    req.Label,
			Required: req.Required,
			Status:   DocumentPending,
		})
	}
	return &OnboardingChecklist{Items: items}
}

func (c *OnboardingChecklist) item(docType string) (*ChecklistItem, error) {
	for i := range c.Items {
		if c.Items[i].Type == docType {
			return &c.Items[i], nil
		}
	}
	return nil, e.ErrNotFound
}

// Upload attaches a document. Verified documents are final.
func (c *OnboardingChecklist) Upload(docType, url string, now time.Time) error {
	if url == "" {
		return e.Invalid("documentUrl", "is required")
	}
	it, err := c.item(docType)
	if err != nil {
		return err
	}
	if it.Status == DocumentVerified {
		return e.InvalidState("document %s is already verified", docType)
	}
	it.Status = DocumentUploaded
	it.DocumentURL = url
	it.Remarks = ""
	at := now
	it.UploadedAt = &at
	return nil
}

// Verify approves or rejects an uploaded document.
func (c *OnboardingChecklist) Verify(docType string, approved bool, remarks, verifier string, now time.Time) error {
	it, err := c.item(docType)
	if err != nil {
		return err
	}
	if it.Status != DocumentUploaded {
		return e.InvalidState("document %s is %s, expected %s", docType, it.Status, DocumentUploaded)
	}
	if !approved && remarks == "" {
		return e.Invalid("remarks", "is required when rejecting a document")
	}
	if approved {
		it.Status = DocumentVerified
	} else {
		it.Status = DocumentRejected
	}
	it.Remarks = remarks
	it.VerifiedBy = verifier
	at := now
	it.VerifiedAt = &at
	return nil
}

// Progress returns verified and total counts of required documents.
func (c *OnboardingChecklist) Progress() (verified, total int) {
	for _, it := range c.Items {
		if !it.Required {
			continue
		}
		total++
		if it.Status == DocumentVerified {
			verified++
		}
	}
	return verified, total
}

// Complete reports whether every required document is verified.
func (c *OnboardingChecklist) Complete() bool {
	verified, total := c.Progress()
	return verified == total
}
