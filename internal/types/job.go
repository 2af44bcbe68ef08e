// Package types provides type definitions for structured data used throughout the apply-agent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"
)

// UnknownCompany is used when the job page exposes no company name.
const UnknownCompany = "Unknown Company"

// ApplicationType identifies how an application was submitted.
type ApplicationType string

const (
	// ApplicationEasyApply is the in-platform multi-step flow.
	ApplicationEasyApply ApplicationType = "easy_apply"
	// ApplicationCompanySite is the external employer-site flow.
	ApplicationCompanySite ApplicationType = "company_site"
)

// Valid reports whether t is one of the known application types.
func (t ApplicationType) Valid() bool {
	return t == ApplicationEasyApply || t == ApplicationCompanySite
}

// JobPosting is a discovered job. Company is empty until the job page has been opened.
type JobPosting struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Company string `json:"company,omitempty"`
}

// WithCompany returns a copy of the posting with the company resolved.
func (j JobPosting) WithCompany(company string) JobPosting {
	j.Company = company
	return j
}

// Signature is the deduplication key for a posting.
func (j JobPosting) Signature() string {
	return Signature(j.Title, j.Company)
}

// Signature derives the dedup key from title and company: lower(title) + "_" + lower(company).
// Two postings with the same title and company are the same job regardless of URL.
func Signature(title, company string) string {
	return strings.ToLower(title) + "_" + strings.ToLower(company)
}

// ApplicationRecord is the audit entry written once an application is confirmed.
type ApplicationRecord struct {
	Title           string          `json:"title"`
	Company         string          `json:"company"`
	URL             string          `json:"url"`
	AppliedAt       time.Time       `json:"applied_at"`
	Signature       string          `json:"signature"`
	ApplicationType ApplicationType `json:"application_type"`
}

// NewApplicationRecord builds the ledger entry for a successfully submitted job.
func NewApplicationRecord(job JobPosting, appType ApplicationType, at time.Time) ApplicationRecord {
	return ApplicationRecord{
		Title:           job.Title,
		Company:         job.Company,
		URL:             job.URL,
		AppliedAt:       at.UTC(),
		Signature:       job.Signature(),
		ApplicationType: appType,
	}
}
