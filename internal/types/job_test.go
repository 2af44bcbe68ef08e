package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature_CaseInsensitive(t *testing.T) {
	assert.Equal(t, Signature("Data Analyst", "Acme"), Signature("data analyst", "ACME"))
	assert.Equal(t, "data analyst_acme", Signature("Data Analyst", "Acme"))
}

func TestSignature_IgnoresURL(t *testing.T) {
	a := JobPosting{Title: "Data Analyst", URL: "https://example.com/jobs/view/1", Company: "Acme"}
	b := JobPosting{Title: "DATA ANALYST", URL: "https://example.com/jobs/view/2", Company: "acme"}
	assert.Equal(t, a.Signature(), b.Signature())
}

func TestSignature_DistinctCompanies(t *testing.T) {
	assert.NotEqual(t, Signature("Data Analyst", "Acme"), Signature("Data Analyst", "Globex"))
}

func TestJobPosting_WithCompany(t *testing.T) {
	job := JobPosting{Title: "Python Developer", URL: "https://example.com/jobs/view/3"}
	resolved := job.WithCompany("Initech")

	assert.Empty(t, job.Company)
	assert.Equal(t, "Initech", resolved.Company)
	assert.Equal(t, "python developer_initech", resolved.Signature())
}

func TestNewApplicationRecord(t *testing.T) {
	at := time.Date(2026, 3, 4, 10, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	job := JobPosting{Title: "Data Analyst", URL: "https://example.com/jobs/view/1", Company: "Acme"}

	rec := NewApplicationRecord(job, ApplicationEasyApply, at)

	assert.Equal(t, "Data Analyst", rec.Title)
	assert.Equal(t, "Acme", rec.Company)
	assert.Equal(t, "data analyst_acme", rec.Signature)
	assert.Equal(t, ApplicationEasyApply, rec.ApplicationType)
	assert.Equal(t, time.UTC, rec.AppliedAt.Location())
	assert.True(t, rec.AppliedAt.Equal(at))
}

func TestApplicationRecord_JSONFieldNames(t *testing.T) {
	rec := ApplicationRecord{
		Title:           "Data Analyst",
		Company:         "Acme",
		URL:             "https://example.com/jobs/view/1",
		AppliedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Signature:       "data analyst_acme",
		ApplicationType: ApplicationCompanySite,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"applied_at":"2026-01-02T03:04:05Z"`)
	assert.Contains(t, s, `"application_type":"company_site"`)
	assert.Contains(t, s, `"signature":"data analyst_acme"`)
}

func TestApplicationType_Valid(t *testing.T) {
	assert.True(t, ApplicationEasyApply.Valid())
	assert.True(t, ApplicationCompanySite.Valid())
	assert.False(t, ApplicationType("linkedin").Valid())
}
