// Package model defines the core domain types shared across the vetting pipeline.
package model

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a company in the vetting pipeline.
type Status string

// Company lifecycle states. The pipeline owns the New → Vetting → Vetted/Failed
// transitions; Approved and Rejected are applied downstream by a human review
// step and never written by this code.
const (
	StatusNew      Status = "New"
	StatusVetting  Status = "Vetting"
	StatusVetted   Status = "Vetted"
	StatusApproved Status = "Approved"
	StatusFailed   Status = "Failed"
	StatusRejected Status = "Rejected"
)

// Terminal reports whether the status is an end state for a vetting run.
func (s Status) Terminal() bool {
	return s == StatusVetted || s == StatusFailed
}

// CanTransition reports whether the pipeline may move a company from s to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusNew, StatusFailed, StatusVetted:
		// Failed and Vetted re-enter the machine on resubmission (retry path).
		return next == StatusVetting
	case StatusVetting:
		return next == StatusVetted || next == StatusFailed
	default:
		return false
	}
}

// Source is a single evidence citation from web research. URL is the dedup
// key within a research run.
type Source struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Company is a row in the external companies table. The pipeline only updates
// status and the firmographic/score fields for rows it was handed by id.
type Company struct {
	ID        int64   `json:"id"`
	Domain    string  `json:"domain"`
	Name      string  `json:"name,omitempty"`
	GroupName string  `json:"group_name,omitempty"`
	Status    Status  `json:"status"`
	Dossier   Dossier `json:"enrichment_data,omitempty"`

	WebsiteURL  string `json:"website_url,omitempty"`
	LinkedInURL string `json:"company_linkedin_url,omitempty"`

	Scores *ScoreCard `json:"scores,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Dossier is the semi-structured firmographic payload returned by the
// enrichment provider. Only the handful of fields the pipeline reads get
// named accessors; everything else is opaque pass-through.
type Dossier map[string]any

// Organization returns the nested organization object, or nil.
func (d Dossier) Organization() map[string]any {
	org, _ := d["organization"].(map[string]any)
	return org
}

// OrganizationName returns organization.name, or "".
func (d Dossier) OrganizationName() string {
	s, _ := d.Organization()["name"].(string)
	return s
}

// OrganizationID returns organization.id, or "".
func (d Dossier) OrganizationID() string {
	s, _ := d.Organization()["id"].(string)
	return s
}

// LinkedInURL returns organization.linkedin_url, or "".
func (d Dossier) LinkedInURL() string {
	s, _ := d.Organization()["linkedin_url"].(string)
	return s
}

// WebsiteURL returns organization.website_url, or "".
func (d Dossier) WebsiteURL() string {
	s, _ := d.Organization()["website_url"].(string)
	return s
}

// OrganizationJSON renders the organization object as compact JSON for
// grounding LLM prompts. Returns "{}" when absent.
func (d Dossier) OrganizationJSON() string {
	org := d.Organization()
	if org == nil {
		return "{}"
	}
	b, err := json.Marshal(org)
	if err != nil {
		return "{}"
	}
	return string(b)
}
