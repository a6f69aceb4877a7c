package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aybouzaglou/AutotaskMCP/internal/autotask"
)

// CreateTimeEntryInput logs work against a ticket or a task. Exactly one
// of ticket_id/task_id must be set, and the role must be valid for the
// resource or Autotask rejects the entry.
type CreateTimeEntryInput struct {
	TicketID      int64    `json:"ticket_id,omitempty" jsonschema:"ticket ID to log time against (required if no task_id)"`
	TaskID        int64    `json:"task_id,omitempty" jsonschema:"task ID to log time against (required if no ticket_id)"`
	ResourceID    int64    `json:"resource_id" jsonschema:"resource ID who performed the work"`
	RoleID        int64    `json:"role_id" jsonschema:"role ID for the resource (must be valid for the resource)"`
	HoursWorked   float64  `json:"hours_worked" jsonschema:"hours worked (must be > 0 and <= 24)"`
	SummaryNotes  string   `json:"summary_notes" jsonschema:"summary of the work performed"`
	DateWorked    string   `json:"date_worked,omitempty" jsonschema:"date worked in YYYY-MM-DD format (defaults to today)"`
	InternalNotes string   `json:"internal_notes,omitempty" jsonschema:"internal notes (not visible to customers)"`
	BillingCodeID int64    `json:"billing_code_id,omitempty" jsonschema:"work type/billing code ID"`
	ContractID    int64    `json:"contract_id,omitempty" jsonschema:"contract ID to bill against"`
	HoursToBill   *float64 `json:"hours_to_bill,omitempty" jsonschema:"billable hours (defaults to hours_worked)"`
	IsNonBillable *bool    `json:"is_non_billable,omitempty" jsonschema:"whether the time is non-billable"`
	ShowOnInvoice *bool    `json:"show_on_invoice,omitempty" jsonschema:"whether to show on invoice"`
	StartDateTime string   `json:"start_date_time,omitempty" jsonschema:"start time in ISO format"`
	EndDateTime   string   `json:"end_date_time,omitempty" jsonschema:"end time in ISO format"`
	Format        string   `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) createTimeEntry(ctx context.Context, req *mcp.CallToolRequest, in CreateTimeEntryInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.TicketID == 0 && in.TaskID == 0 {
		return errorResult(autotask.InvalidArgument("either ticket_id or task_id is required")), nil, nil
	}
	if in.TicketID != 0 && in.TaskID != 0 {
		return errorResult(autotask.InvalidArgument("provide either ticket_id or task_id, not both")), nil, nil
	}
	if in.ResourceID <= 0 {
		return errorResult(autotask.InvalidArgument("resource_id is required and must be positive")), nil, nil
	}
	if in.RoleID <= 0 {
		return errorResult(autotask.InvalidArgument("role_id is required and must be positive")), nil, nil
	}
	if in.HoursWorked <= 0 || in.HoursWorked > 24 {
		return errorResult(autotask.InvalidArgument("hours_worked must be > 0 and <= 24")), nil, nil
	}
	if strings.TrimSpace(in.SummaryNotes) == "" {
		return errorResult(autotask.InvalidArgument("summary_notes is required")), nil, nil
	}

	dateWorked := in.DateWorked
	if dateWorked == "" {
		dateWorked = time.Now().UTC().Format("2006-01-02")
	}

	payload := map[string]any{
		"resourceID":   in.ResourceID,
		"roleID":       in.RoleID,
		"hoursWorked":  in.HoursWorked,
		"summaryNotes": in.SummaryNotes,
		"dateWorked":   dateWorked,
	}
	target := in.TicketID
	if in.TicketID != 0 {
		payload["ticketID"] = in.TicketID
	} else {
		payload["taskID"] = in.TaskID
		target = in.TaskID
	}
	if in.InternalNotes != "" {
		payload["internalNotes"] = in.InternalNotes
	}
	if in.BillingCodeID != 0 {
		payload["billingCodeID"] = in.BillingCodeID
	}
	if in.ContractID != 0 {
		payload["contractID"] = in.ContractID
	}
	if in.HoursToBill != nil {
		payload["hoursToBill"] = *in.HoursToBill
	}
	if in.IsNonBillable != nil {
		payload["isNonBillable"] = *in.IsNonBillable
	}
	if in.ShowOnInvoice != nil {
		payload["showOnInvoice"] = *in.ShowOnInvoice
	}
	if in.StartDateTime != "" {
		payload["startDateTime"] = in.StartDateTime
	}
	if in.EndDateTime != "" {
		payload["endDateTime"] = in.EndDateTime
	}

	raw, err := g.client.Post(ctx, "TimeEntries", payload)
	if err != nil {
		return errorResult(err), nil, nil
	}
	entryID := autotask.CreatedID(raw)

	if format == FormatJSON {
		body, err := jsonObject(map[string]any{
			"success":           true,
			"time_entry_id":     entryID,
			"hours":             in.HoursWorked,
			"ticket_or_task_id": target,
			"time_entry":        autotask.Item(raw),
		})
		if err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(body), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Logged %.2f hour(s)", in.HoursWorked)
	if entryID != 0 {
		fmt.Fprintf(&b, " (time entry #%d)", entryID)
	}
	if in.TicketID != 0 {
		fmt.Fprintf(&b, " against ticket #%d", in.TicketID)
	} else {
		fmt.Fprintf(&b, " against task #%d", in.TaskID)
	}
	fmt.Fprintf(&b, " on %s\n", dateWorked)
	return textResult(b.String()), nil, nil
}
