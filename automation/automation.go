// Package automation manages scheduled call workflows on the automation
// partner. Workflows are created from a JSON template with literal
// placeholder substitution, activated immediately, and owned by whichever
// subject id appears inside their node parameters.
package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/subthread/companion/gateway"
)

// ErrNotOwned is returned when a delete targets a workflow id that is not
// in the caller's owned set.
var ErrNotOwned = errors.New("workflow not owned by caller")

// Workflow is the summary view of a scheduled workflow as reported to the
// caller.
type Workflow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

// Spec carries the values substituted into the workflow template when
// scheduling a call.
type Spec struct {
	Cron        string
	PhoneNumber string
	SubjectID   string
	Message     string
	Title       string
}

// Options configures a Client.
type Options struct {
	// TemplateDir holds the workflow template JSON files.
	TemplateDir string
	// TemplateName selects the template (without .json extension).
	TemplateName string
	// CallbackURL replaces the companion API placeholder in templates.
	CallbackURL string
}

// Client talks to the automation partner through the shared gateway. The
// gateway instance carries the partner API key header.
type Client struct {
	gw           *gateway.Client
	templateDir  string
	templateName string
	callbackURL  string
}

// NewClient builds an automation client.
func NewClient(gw *gateway.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		TemplateDir:  "workflows",
		TemplateName: "scheduled-call",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{
		gw:           gw,
		templateDir:  opts.TemplateDir,
		templateName: opts.TemplateName,
		callbackURL:  opts.CallbackURL,
	}
}

// CreateScheduled instantiates the workflow template with the spec values,
// creates the workflow and activates it. Activation failure fails the
// whole call: a created-but-inactive workflow never fires and must not be
// reported as scheduled.
func (c *Client) CreateScheduled(ctx context.Context, spec Spec) (*Workflow, error) {
	body, err := c.renderTemplate(spec)
	if err != nil {
		return nil, err
	}

	data, err := c.gw.Do(ctx, http.MethodPost, "/workflows", json.RawMessage(body))
	if err != nil {
		return nil, fmt.Errorf("create workflow: %w", err)
	}

	wf := parseWorkflow(gjson.ParseBytes(data))
	if wf.ID == "" {
		return nil, fmt.Errorf("create workflow: response carries no id")
	}

	activatePath := "/workflows/" + url.PathEscape(wf.ID) + "/activate"
	if _, err := c.gw.Do(ctx, http.MethodPost, activatePath, nil); err != nil {
		return nil, fmt.Errorf("activate workflow %s: %w", wf.ID, err)
	}
	return &wf, nil
}

// List returns every workflow on the partner, unfiltered.
func (c *Client) List(ctx context.Context) ([]Workflow, error) {
	data, err := c.gw.Do(ctx, http.MethodGet, "/workflows", nil)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}

	var workflows []Workflow
	gjson.GetBytes(data, "data").ForEach(func(_, wf gjson.Result) bool {
		workflows = append(workflows, parseWorkflow(wf))
		return true
	})
	return workflows, nil
}

// ListOwned returns the workflows owned by ownerID. Ownership is a
// substring containment check of the owner id over each node's serialized
// parameters, matching how workflows are stamped at creation time.
func (c *Client) ListOwned(ctx context.Context, ownerID string) ([]Workflow, error) {
	data, err := c.gw.Do(ctx, http.MethodGet, "/workflows", nil)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}

	var owned []Workflow
	gjson.GetBytes(data, "data").ForEach(func(_, wf gjson.Result) bool {
		if ownsWorkflow(wf, ownerID) {
			owned = append(owned, parseWorkflow(wf))
		}
		return true
	})
	return owned, nil
}

// Delete removes a workflow after re-checking ownership. An id outside the
// owned set returns ErrNotOwned without issuing any delete call, so a
// repeated delete of the same id stays a no-op.
func (c *Client) Delete(ctx context.Context, ownerID, workflowID string) error {
	owned, err := c.ListOwned(ctx, ownerID)
	if err != nil {
		return err
	}

	found := false
	for _, wf := range owned {
		if wf.ID == workflowID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotOwned
	}

	path := "/workflows/" + url.PathEscape(workflowID)
	if _, err := c.gw.Do(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("delete workflow %s: %w", workflowID, err)
	}
	return nil
}

// renderTemplate loads the template file and substitutes the exact
// placeholder tokens. Any placeholder left unresolved is an error: a
// workflow with a literal token in a node parameter would misfire.
func (c *Client) renderTemplate(spec Spec) (string, error) {
	path := filepath.Join(c.templateDir, c.templateName+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read workflow template: %w", err)
	}

	body := strings.NewReplacer(
		"{{ $json.phoneNumber }}", spec.PhoneNumber,
		"{{ $json.userId }}", spec.SubjectID,
		"{{ $json.cron }}", spec.Cron,
		"{{ $json.message }}", spec.Message,
		"{{ $json.workflowName }}", spec.Title,
		"{{ $json.COMPANION_API }}", c.callbackURL,
	).Replace(string(raw))

	if idx := strings.Index(body, "{{ $json."); idx >= 0 {
		end := strings.Index(body[idx:], "}}")
		token := body[idx:]
		if end >= 0 {
			token = body[idx : idx+end+2]
		}
		return "", fmt.Errorf("workflow template has unresolved placeholder %q", token)
	}

	if !gjson.Valid(body) {
		return "", fmt.Errorf("workflow template is not valid JSON after substitution")
	}
	return body, nil
}

// ownsWorkflow reports whether the owner id appears anywhere in a node's
// serialized parameters.
func ownsWorkflow(wf gjson.Result, ownerID string) bool {
	owns := false
	wf.Get("nodes").ForEach(func(_, node gjson.Result) bool {
		params := node.Get("parameters")
		if params.Exists() && strings.Contains(params.Raw, ownerID) {
			owns = true
			return false
		}
		return true
	})
	return owns
}

func parseWorkflow(wf gjson.Result) Workflow {
	return Workflow{
		ID:        wf.Get("id").String(),
		Name:      wf.Get("name").String(),
		Active:    wf.Get("active").Bool(),
		CreatedAt: wf.Get("createdAt").String(),
	}
}
