package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aybouzaglou/AutotaskMCP/internal/autotask"
)

// completedStatus is the conventional "Complete" status ID excluded from
// searches by default. Status IDs vary per Autotask instance; use
// get_picklist_values to confirm.
const completedStatus = 5

// SearchTicketsInput filters a ticket search. All fields are optional.
type SearchTicketsInput struct {
	CompanyID          int64  `json:"company_id,omitempty" jsonschema:"filter by company ID"`
	Status             int    `json:"status,omitempty" jsonschema:"filter by status ID"`
	Priority           int    `json:"priority,omitempty" jsonschema:"filter by priority ID"`
	AssignedResourceID int64  `json:"assigned_resource_id,omitempty" jsonschema:"filter by assigned resource ID"`
	QueueID            int64  `json:"queue_id,omitempty" jsonschema:"filter by queue ID"`
	TitleContains      string `json:"title_contains,omitempty" jsonschema:"filter by title containing this text"`
	ExcludeCompleted   *bool  `json:"exclude_completed,omitempty" jsonschema:"exclude completed tickets (default true)"`
	MaxResults         int    `json:"max_results,omitempty" jsonschema:"maximum number of results (default 50, max 500)"`
	Format             string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) searchTickets(ctx context.Context, req *mcp.CallToolRequest, in SearchTicketsInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.MaxResults < 0 {
		return errorResult(autotask.InvalidArgument("max_results must not be negative")), nil, nil
	}

	var filters []autotask.Filter
	if in.CompanyID != 0 {
		filters = append(filters, autotask.Filter{Op: "eq", Field: "companyID", Value: in.CompanyID})
	}
	if in.Status != 0 {
		filters = append(filters, autotask.Filter{Op: "eq", Field: "status", Value: in.Status})
	}
	if in.Priority != 0 {
		filters = append(filters, autotask.Filter{Op: "eq", Field: "priority", Value: in.Priority})
	}
	if in.AssignedResourceID != 0 {
		filters = append(filters, autotask.Filter{Op: "eq", Field: "assignedResourceID", Value: in.AssignedResourceID})
	}
	if in.QueueID != 0 {
		filters = append(filters, autotask.Filter{Op: "eq", Field: "queueID", Value: in.QueueID})
	}
	if in.TitleContains != "" {
		filters = append(filters, autotask.Filter{Op: "contains", Field: "title", Value: in.TitleContains})
	}
	if in.ExcludeCompleted == nil || *in.ExcludeCompleted {
		filters = append(filters, autotask.Filter{Op: "notequal", Field: "status", Value: completedStatus})
	}
	if len(filters) == 0 {
		filters = append(filters, autotask.Filter{Op: "exist", Field: "id"})
	}

	result, err := g.client.Query(ctx, "Tickets", filters, in.MaxResults)
	if err != nil {
		return errorResult(err), nil, nil
	}

	body, err := renderSearch(format, result.Items, "ticket", "tickets", "tickets", ticketSummary)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(body), nil, nil
}

// GetTicketInput identifies a single ticket.
type GetTicketInput struct {
	TicketID int64  `json:"ticket_id" jsonschema:"the ticket ID to retrieve"`
	Format   string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) getTicket(ctx context.Context, req *mcp.CallToolRequest, in GetTicketInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.TicketID <= 0 {
		return errorResult(autotask.InvalidArgument("ticket_id is required and must be positive")), nil, nil
	}

	raw, err := g.client.Get(ctx, fmt.Sprintf("Tickets/%d", in.TicketID))
	if err != nil {
		return errorResult(err), nil, nil
	}
	item, ok := autotask.ItemOK(raw)
	if !ok {
		return errorResult(autotask.NotFound("ticket %d does not exist", in.TicketID)), nil, nil
	}

	if format == FormatJSON {
		body, err := jsonDocument(item)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(body), nil, nil
	}

	var ticket autotask.Ticket
	if err := json.Unmarshal(item, &ticket); err != nil {
		return errorResult(&autotask.Error{
			Category: autotask.CategoryRemoteService,
			Op:       fmt.Sprintf("GET Tickets/%d", in.TicketID),
			Message:  "malformed ticket record",
			Err:      err,
		}), nil, nil
	}
	return textResult(ticketDetail(ticket)), nil, nil
}

// CreateTicketInput describes a new ticket.
type CreateTicketInput struct {
	Title                   string `json:"title" jsonschema:"ticket title/subject"`
	CompanyID               int64  `json:"company_id" jsonschema:"company ID for the ticket"`
	Description             string `json:"description,omitempty" jsonschema:"ticket description"`
	Status                  int    `json:"status,omitempty" jsonschema:"status ID (default 1 = New)"`
	Priority                int    `json:"priority,omitempty" jsonschema:"priority ID (default 2 = Medium)"`
	TicketType              int    `json:"ticket_type,omitempty" jsonschema:"ticket type (default 1 = Service Request)"`
	QueueID                 int64  `json:"queue_id,omitempty" jsonschema:"queue ID to assign the ticket to"`
	AssignedResourceID      int64  `json:"assigned_resource_id,omitempty" jsonschema:"resource ID to assign the ticket to"`
	AssignedResourceRoleID  int64  `json:"assigned_resource_role_id,omitempty" jsonschema:"role ID for the assigned resource"`
	DueDateTime             string `json:"due_date_time,omitempty" jsonschema:"due date/time in ISO format"`
	Format                  string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) createTicket(ctx context.Context, req *mcp.CallToolRequest, in CreateTicketInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if strings.TrimSpace(in.Title) == "" {
		return errorResult(autotask.InvalidArgument("title is required")), nil, nil
	}
	if in.CompanyID <= 0 {
		return errorResult(autotask.InvalidArgument("company_id is required and must be positive")), nil, nil
	}

	status := in.Status
	if status == 0 {
		status = 1
	}
	priority := in.Priority
	if priority == 0 {
		priority = 2
	}
	ticketType := in.TicketType
	if ticketType == 0 {
		ticketType = 1
	}

	payload := map[string]any{
		"title":      in.Title,
		"companyID":  in.CompanyID,
		"status":     status,
		"priority":   priority,
		"ticketType": ticketType,
	}
	if in.Description != "" {
		payload["description"] = in.Description
	}
	if in.QueueID != 0 {
		payload["queueID"] = in.QueueID
	}
	if in.AssignedResourceID != 0 {
		payload["assignedResourceID"] = in.AssignedResourceID
	}
	if in.AssignedResourceRoleID != 0 {
		payload["assignedResourceRoleID"] = in.AssignedResourceRoleID
	}
	if in.DueDateTime != "" {
		payload["dueDateTime"] = in.DueDateTime
	}

	raw, err := g.client.Post(ctx, "Tickets", payload)
	if err != nil {
		return errorResult(err), nil, nil
	}
	ticketID := autotask.CreatedID(raw)

	if format == FormatJSON {
		body, err := jsonObject(map[string]any{
			"success":   true,
			"ticket_id": ticketID,
			"ticket":    autotask.Item(raw),
		})
		if err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(body), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created ticket #%d\n\n", ticketID)
	fmt.Fprintf(&b, "- Title: %s\n", in.Title)
	fmt.Fprintf(&b, "- Company ID: %d\n", in.CompanyID)
	fmt.Fprintf(&b, "- Status: %d\n", status)
	fmt.Fprintf(&b, "- Priority: %d\n", priority)
	return textResult(b.String()), nil, nil
}

// UpdateTicketInput is a partial update; only non-nil fields are sent.
type UpdateTicketInput struct {
	TicketID               int64   `json:"ticket_id" jsonschema:"the ticket ID to update"`
	Title                  *string `json:"title,omitempty" jsonschema:"new ticket title"`
	Description            *string `json:"description,omitempty" jsonschema:"new ticket description"`
	Status                 *int    `json:"status,omitempty" jsonschema:"new status ID"`
	Priority               *int    `json:"priority,omitempty" jsonschema:"new priority ID"`
	QueueID                *int64  `json:"queue_id,omitempty" jsonschema:"new queue ID"`
	AssignedResourceID     *int64  `json:"assigned_resource_id,omitempty" jsonschema:"new assigned resource ID"`
	AssignedResourceRoleID *int64  `json:"assigned_resource_role_id,omitempty" jsonschema:"new role ID for the assigned resource"`
	DueDateTime            *string `json:"due_date_time,omitempty" jsonschema:"new due date/time in ISO format"`
	Format                 string  `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) updateTicket(ctx context.Context, req *mcp.CallToolRequest, in UpdateTicketInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.TicketID <= 0 {
		return errorResult(autotask.InvalidArgument("ticket_id is required and must be positive")), nil, nil
	}

	update := map[string]any{"id": in.TicketID}
	if in.Title != nil {
		update["title"] = *in.Title
	}
	if in.Description != nil {
		update["description"] = *in.Description
	}
	if in.Status != nil {
		update["status"] = *in.Status
	}
	if in.Priority != nil {
		update["priority"] = *in.Priority
	}
	if in.QueueID != nil {
		update["queueID"] = *in.QueueID
	}
	if in.AssignedResourceID != nil {
		update["assignedResourceID"] = *in.AssignedResourceID
	}
	if in.AssignedResourceRoleID != nil {
		update["assignedResourceRoleID"] = *in.AssignedResourceRoleID
	}
	if in.DueDateTime != nil {
		update["dueDateTime"] = *in.DueDateTime
	}
	if len(update) == 1 {
		return errorResult(autotask.InvalidArgument("at least one field to update is required")), nil, nil
	}

	// Fetch first so a bad ID surfaces as not_found before the PATCH.
	current, err := g.client.Get(ctx, fmt.Sprintf("Tickets/%d", in.TicketID))
	if err != nil {
		return errorResult(err), nil, nil
	}
	if _, ok := autotask.ItemOK(current); !ok {
		return errorResult(autotask.NotFound("ticket %d does not exist", in.TicketID)), nil, nil
	}

	raw, err := g.client.Patch(ctx, "Tickets", update)
	if err != nil {
		return errorResult(err), nil, nil
	}

	if format == FormatJSON {
		body, err := jsonObject(map[string]any{
			"success":        true,
			"ticket_id":      in.TicketID,
			"updated_fields": update,
			"ticket":         autotask.Item(raw),
		})
		if err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(body), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Updated ticket #%d\n\n", in.TicketID)
	for _, field := range []string{"title", "description", "status", "priority", "queueID", "assignedResourceID", "assignedResourceRoleID", "dueDateTime"} {
		if v, ok := update[field]; ok {
			fmt.Fprintf(&b, "- %s: %v\n", field, v)
		}
	}
	return textResult(b.String()), nil, nil
}

// AddTicketNoteInput describes a note on an existing ticket.
type AddTicketNoteInput struct {
	TicketID    int64  `json:"ticket_id" jsonschema:"the ticket ID to add the note to"`
	Description string `json:"description" jsonschema:"the note content/body"`
	Title       string `json:"title,omitempty" jsonschema:"note title (may be required depending on ticket category settings)"`
	NoteType    int    `json:"note_type,omitempty" jsonschema:"note type ID (default 1 = Task Detail; varies by instance)"`
	Publish     int    `json:"publish,omitempty" jsonschema:"visibility (default 1 = All Autotask Users, 2 = Internal Only)"`
	Format      string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) addTicketNote(ctx context.Context, req *mcp.CallToolRequest, in AddTicketNoteInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.TicketID <= 0 {
		return errorResult(autotask.InvalidArgument("ticket_id is required and must be positive")), nil, nil
	}
	if strings.TrimSpace(in.Description) == "" {
		return errorResult(autotask.InvalidArgument("description is required")), nil, nil
	}

	noteType := in.NoteType
	if noteType == 0 {
		noteType = 1
	}
	publish := in.Publish
	if publish == 0 {
		publish = 1
	}

	payload := map[string]any{
		"description": in.Description,
		"noteType":    noteType,
		"publish":     publish,
	}
	if in.Title != "" {
		payload["title"] = in.Title
	}

	raw, err := g.client.Post(ctx, fmt.Sprintf("Tickets/%d/Notes", in.TicketID), payload)
	if err != nil {
		return errorResult(err), nil, nil
	}
	noteID := autotask.CreatedID(raw)

	if format == FormatJSON {
		body, err := jsonObject(map[string]any{
			"success":   true,
			"ticket_id": in.TicketID,
			"note_id":   noteID,
			"note":      autotask.Item(raw),
		})
		if err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(body), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Added note to ticket #%d", in.TicketID)
	if noteID != 0 {
		fmt.Fprintf(&b, " (note #%d)", noteID)
	}
	b.WriteString("\n")
	return textResult(b.String()), nil, nil
}
