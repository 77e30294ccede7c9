package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mehanizm/airtable"
)

// CRMRecord is one row of the submissions table in the CRM.
type CRMRecord struct {
	Name           string
	Email          string
	Style          string
	DemoURL        string
	SubmittedAt    time.Time
	MarketingOptIn bool
}

func (r CRMRecord) fields() map[string]any {
	return map[string]any{
		"Name":             r.Name,
		"Email":            r.Email,
		"Style":            r.Style,
		"Demo URL":         r.DemoURL,
		"Submission Date":  r.SubmittedAt.UTC().Format("2006-01-02"),
		"Status":           "Pending",
		"Marketing Opt-In": r.MarketingOptIn,
	}
}

type AirtableNotifier struct {
	table *airtable.Table
}

// NewAirtableNotifier returns an unconfigured notifier when apiKey or baseID
// is empty; its SyncSubmission then reports ErrNotConfigured.
func NewAirtableNotifier(apiKey, baseID, tableName, apiURL string, timeout time.Duration) (*AirtableNotifier, error) {
	if apiKey == "" || baseID == "" {
		return &AirtableNotifier{}, nil
	}

	client := airtable.NewClient(apiKey)
	client.SetCustomClient(&http.Client{Timeout: timeout})
	if apiURL != "" {
		if err := client.SetBaseURL(apiURL); err != nil {
			return nil, fmt.Errorf("invalid airtable api url: %w", err)
		}
	}

	return &AirtableNotifier{
		table: client.GetTable(baseID, url.PathEscape(tableName)),
	}, nil
}

func (n *AirtableNotifier) SyncSubmission(ctx context.Context, record CRMRecord) error {
	if n == nil || n.table == nil {
		return ErrNotConfigured
	}

	_, err := n.table.AddRecordsContext(ctx, &airtable.Records{
		Records: []*airtable.Record{{Fields: record.fields()}},
	})
	if err != nil {
		return fmt.Errorf("failed to create airtable record: %w", err)
	}

	return nil
}
