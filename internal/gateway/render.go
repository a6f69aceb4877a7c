package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aybouzaglou/AutotaskMCP/internal/autotask"
)

// Format selects the presentation of a tool result.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// parseFormat validates the optional format argument. An empty value
// defaults to Markdown.
func parseFormat(s string) (Format, error) {
	switch s {
	case "", string(FormatMarkdown):
		return FormatMarkdown, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", autotask.InvalidArgument("format must be %q or %q, got %q", FormatMarkdown, FormatJSON, s)
	}
}

func textResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: s}},
	}
}

// errorResult converts any failure into a single descriptive text result.
// Errors never escape the gateway as protocol failures, so the server
// stays usable after any single bad call.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// descriptionLimit caps how much of a ticket description makes it into a
// Markdown block.
const descriptionLimit = 200

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// renderSearch renders a query result in the requested format. Markdown
// decodes each record into T and skips records that fail to decode; JSON
// passes the raw records through untouched.
func renderSearch[T any](format Format, items []json.RawMessage, singular, plural, jsonKey string, block func(T) string) (string, error) {
	if format == FormatJSON {
		return jsonList(jsonKey, items)
	}
	return markdownList(items, singular, plural, block), nil
}

func markdownList[T any](items []json.RawMessage, singular, plural string, block func(T) string) string {
	if len(items) == 0 {
		return "No " + plural + " found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s(s)\n", len(items), singular)

	n := 0
	skipped := 0
	for _, raw := range items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			skipped++
			continue
		}
		n++
		fmt.Fprintf(&b, "\n%d. %s\n", n, block(v))
	}
	if skipped > 0 {
		fmt.Fprintf(&b, "\nNote: skipped %d malformed record(s).\n", skipped)
	}
	return b.String()
}

// jsonList wraps the raw records in a {"count": n, key: [...]} envelope.
// Map keys marshal in sorted order, so output is deterministic.
func jsonList(key string, items []json.RawMessage) (string, error) {
	if items == nil {
		items = []json.RawMessage{}
	}
	out, err := json.MarshalIndent(map[string]any{"count": len(items), key: items}, "", "  ")
	if err != nil {
		return "", &autotask.Error{Category: autotask.CategoryRemoteService, Message: "encoding result", Err: err}
	}
	return string(out), nil
}

// jsonDocument re-indents a raw remote payload without changing field
// names, values, or order.
func jsonDocument(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", &autotask.Error{Category: autotask.CategoryRemoteService, Message: "encoding result", Err: err}
	}
	return buf.String(), nil
}

// jsonObject marshals a small hand-built envelope (mutation confirmations).
func jsonObject(fields map[string]any) (string, error) {
	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", &autotask.Error{Category: autotask.CategoryRemoteService, Message: "encoding result", Err: err}
	}
	return string(out), nil
}

// --- Markdown blocks ---

func ticketSummary(t autotask.Ticket) string {
	title := t.Title
	if title == "" {
		title = "(untitled)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** [#%d]", title, t.ID)
	fmt.Fprintf(&b, "\n   Status: %d | Priority: %d", t.Status, t.Priority)
	if t.CompanyID != 0 {
		fmt.Fprintf(&b, " | Company: %d", t.CompanyID)
	}
	if t.AssignedResourceID != 0 {
		fmt.Fprintf(&b, " | Assigned: %d", t.AssignedResourceID)
	}
	if t.LastActivityDate != "" {
		fmt.Fprintf(&b, "\n   Last activity: %s", t.LastActivityDate)
	}
	return b.String()
}

func ticketDetail(t autotask.Ticket) string {
	title := t.Title
	if title == "" {
		title = "(untitled)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	fmt.Fprintf(&b, "- ID: %d\n", t.ID)
	if t.TicketNumber != "" {
		fmt.Fprintf(&b, "- Ticket Number: %s\n", t.TicketNumber)
	}
	fmt.Fprintf(&b, "- Status: %d\n", t.Status)
	fmt.Fprintf(&b, "- Priority: %d\n", t.Priority)
	if t.CompanyID != 0 {
		fmt.Fprintf(&b, "- Company ID: %d\n", t.CompanyID)
	}
	if t.QueueID != 0 {
		fmt.Fprintf(&b, "- Queue ID: %d\n", t.QueueID)
	}
	if t.AssignedResourceID != 0 {
		fmt.Fprintf(&b, "- Assigned Resource ID: %d\n", t.AssignedResourceID)
	}
	if t.CreateDate != "" {
		fmt.Fprintf(&b, "- Created: %s\n", t.CreateDate)
	}
	if t.LastActivityDate != "" {
		fmt.Fprintf(&b, "- Last Activity: %s\n", t.LastActivityDate)
	}
	if t.DueDateTime != "" {
		fmt.Fprintf(&b, "- Due: %s\n", t.DueDateTime)
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", truncate(t.Description, descriptionLimit))
	}
	return b.String()
}

func companySummary(c autotask.Company) string {
	name := c.CompanyName
	if name == "" {
		name = "(unnamed)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** [#%d]", name, c.ID)
	var loc []string
	if c.City != "" {
		loc = append(loc, c.City)
	}
	if c.State != "" {
		loc = append(loc, c.State)
	}
	if c.Country != "" {
		loc = append(loc, c.Country)
	}
	if len(loc) > 0 {
		fmt.Fprintf(&b, "\n   %s", strings.Join(loc, ", "))
	}
	if c.Phone != "" {
		fmt.Fprintf(&b, "\n   Phone: %s", c.Phone)
	}
	return b.String()
}

func companyDetail(c autotask.Company) string {
	name := c.CompanyName
	if name == "" {
		name = "(unnamed)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", name)
	fmt.Fprintf(&b, "- ID: %d\n", c.ID)
	if c.Phone != "" {
		fmt.Fprintf(&b, "- Phone: %s\n", c.Phone)
	}
	if c.City != "" {
		fmt.Fprintf(&b, "- City: %s\n", c.City)
	}
	if c.State != "" {
		fmt.Fprintf(&b, "- State: %s\n", c.State)
	}
	if c.Country != "" {
		fmt.Fprintf(&b, "- Country: %s\n", c.Country)
	}
	if c.WebAddress != "" {
		fmt.Fprintf(&b, "- Web: %s\n", c.WebAddress)
	}
	return b.String()
}

func contactSummary(c autotask.Contact) string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		name = "(unnamed)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** [#%d]", name, c.ID)
	if c.EmailAddress != "" {
		fmt.Fprintf(&b, "\n   Email: %s", c.EmailAddress)
	}
	if c.CompanyID != 0 {
		fmt.Fprintf(&b, "\n   Company: %d", c.CompanyID)
	}
	if c.Phone != "" {
		fmt.Fprintf(&b, "\n   Phone: %s", c.Phone)
	}
	return b.String()
}

func resourceSummary(r autotask.Resource) string {
	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	if name == "" {
		name = "(unnamed)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** [#%d]", name, r.ID)
	if r.Email != "" {
		fmt.Fprintf(&b, "\n   Email: %s", r.Email)
	}
	return b.String()
}

func resourceDetail(r autotask.Resource) string {
	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	if name == "" {
		name = "(unnamed)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", name)
	fmt.Fprintf(&b, "- ID: %d\n", r.ID)
	if r.UserName != "" {
		fmt.Fprintf(&b, "- User Name: %s\n", r.UserName)
	}
	if r.Email != "" {
		fmt.Fprintf(&b, "- Email: %s\n", r.Email)
	}
	return b.String()
}

func roleSummary(r autotask.Role) string {
	s := fmt.Sprintf("**%s** [#%d]", r.Name, r.ID)
	if r.Description != "" {
		s += "\n   " + r.Description
	}
	return s
}

func contractSummary(c autotask.Contract) string {
	name := c.ContractName
	if name == "" {
		name = "(unnamed)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** [#%d]", name, c.ID)
	if c.CompanyID != 0 {
		fmt.Fprintf(&b, "\n   Company: %d", c.CompanyID)
	}
	if c.StartDate != "" || c.EndDate != "" {
		fmt.Fprintf(&b, "\n   %s to %s", c.StartDate, c.EndDate)
	}
	return b.String()
}

func billingCodeSummary(bc autotask.BillingCode) string {
	s := fmt.Sprintf("**%s** [#%d]", bc.Name, bc.ID)
	if bc.Description != "" {
		s += "\n   " + bc.Description
	}
	return s
}
