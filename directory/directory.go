// Package directory wraps the user-directory API: subject records, phone
// number search (which may return a delegate pointer), the people graph,
// upcoming events and wellbeing check-ins.
package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/subthread/companion/gateway"
)

// RecordTypeFamilyMember marks a phone search hit that belongs to a family
// contact rather than a subject. The record then carries the id of the
// subject it delegates for.
const RecordTypeFamilyMember = "family_member"

// User is a subject record as stored in the directory.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Language    string `json:"language"`
}

// LookupResult is the polymorphic response of a phone number search:
// either a subject record or a family-member pointer.
type LookupResult struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	User
}

// IsDelegate reports whether the hit is a family-member pointer.
func (r *LookupResult) IsDelegate() bool { return r.Type == RecordTypeFamilyMember }

// Person is one entry of a subject's people/contacts graph.
type Person struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Birthday string `json:"birthday,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Event is one upcoming calendar entry for a subject.
type Event struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Notes string `json:"notes,omitempty"`
}

// WellbeingEntry records a mood check-in (1-5 scale) for a subject.
type WellbeingEntry struct {
	SubjectID string `json:"userId"`
	Score     int    `json:"score"`
	Note      string `json:"note,omitempty"`
}

// Client calls the directory partner through the shared gateway.
type Client struct {
	gw *gateway.Client
}

// NewClient wraps a gateway client scoped to the directory partner.
func NewClient(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

// UserByID fetches a subject record by its directory id.
func (c *Client) UserByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := c.gw.Get(ctx, "/users/"+url.PathEscape(id), &u); err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	return &u, nil
}

// SearchByPhone resolves a phone number to a subject or a delegate pointer.
func (c *Client) SearchByPhone(ctx context.Context, phone string) (*LookupResult, error) {
	var res LookupResult
	path := "/users/search?phoneNumber=" + url.QueryEscape(phone)
	if err := c.gw.Get(ctx, path, &res); err != nil {
		return nil, fmt.Errorf("phone search: %w", err)
	}
	return &res, nil
}

// People fetches the subject's contacts graph.
func (c *Client) People(ctx context.Context, subjectID string) ([]Person, error) {
	var people []Person
	if err := c.gw.Get(ctx, "/people/"+url.PathEscape(subjectID), &people); err != nil {
		return nil, fmt.Errorf("people lookup: %w", err)
	}
	return people, nil
}

// UpcomingEvents fetches calendar entries within the lookahead window.
func (c *Client) UpcomingEvents(ctx context.Context, subjectID string, days int) ([]Event, error) {
	var events []Event
	path := fmt.Sprintf("/events/%s/upcoming?days=%d", url.PathEscape(subjectID), days)
	if err := c.gw.Get(ctx, path, &events); err != nil {
		return nil, fmt.Errorf("events lookup: %w", err)
	}
	return events, nil
}

// ReportWellbeing posts a mood check-in.
func (c *Client) ReportWellbeing(ctx context.Context, entry WellbeingEntry) error {
	if _, err := c.gw.Do(ctx, http.MethodPost, "/wellbeing", entry); err != nil {
		return fmt.Errorf("wellbeing report: %w", err)
	}
	return nil
}
