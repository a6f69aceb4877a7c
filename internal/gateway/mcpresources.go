package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aybouzaglou/AutotaskMCP/internal/autotask"
)

const picklistURIPrefix = "autotask://picklist/"

// registerResources exposes reference data (picklists, roles, billing
// codes, queues, API user info) as MCP resources so the host can pull
// valid IDs without burning tool calls.
func (g *Gateway) registerResources(server *mcp.Server) {
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: picklistURIPrefix + "{entity}/{field}",
		Name:        "picklist",
		Description: "Picklist values for an entity field, e.g. autotask://picklist/Tickets/status",
		MIMEType:    "text/markdown",
	}, g.readPicklistResource)

	server.AddResource(&mcp.Resource{
		URI:         "autotask://roles",
		Name:        "roles",
		Description: "All active roles; needed to pick a role_id for time entries",
		MIMEType:    "text/markdown",
	}, g.readRolesResource)

	server.AddResource(&mcp.Resource{
		URI:         "autotask://billing-codes",
		Name:        "billing-codes",
		Description: "All active billing codes (work types) for time entries",
		MIMEType:    "text/markdown",
	}, g.readBillingCodesResource)

	server.AddResource(&mcp.Resource{
		URI:         "autotask://queues",
		Name:        "queues",
		Description: "All ticket queues, from the Tickets queueID picklist",
		MIMEType:    "text/markdown",
	}, g.readQueuesResource)

	server.AddResource(&mcp.Resource{
		URI:         "autotask://user/info",
		Name:        "user-info",
		Description: "Threshold and usage information for the current API user",
		MIMEType:    "application/json",
	}, g.readUserInfoResource)
}

func (g *Gateway) readPicklistResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	rest := strings.TrimPrefix(uri, picklistURIPrefix)
	parts := strings.Split(rest, "/")
	if rest == uri || len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, autotask.InvalidArgument("picklist URI must look like %sTickets/status, got %q", picklistURIPrefix, uri)
	}
	entity, fieldName := parts[0], parts[1]

	field, err := g.lookupPicklistField(ctx, entity, fieldName)
	if err != nil {
		return nil, err
	}
	values, err := decodePicklistValues(field)
	if err != nil {
		return nil, err
	}
	return markdownResource(uri, picklistMarkdown(entity, field.Name, values)), nil
}

func (g *Gateway) readRolesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	text, err := g.activeEntityList(ctx, "Roles", "Active Roles")
	if err != nil {
		return nil, err
	}
	return markdownResource(req.Params.URI, text), nil
}

func (g *Gateway) readBillingCodesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	text, err := g.activeEntityList(ctx, "BillingCodes", "Active Billing Codes (Work Types)")
	if err != nil {
		return nil, err
	}
	return markdownResource(req.Params.URI, text), nil
}

// activeEntityList renders the active records of an id/name entity as a
// flat Markdown list.
func (g *Gateway) activeEntityList(ctx context.Context, entity, heading string) (string, error) {
	filters := []autotask.Filter{{Op: "eq", Field: "isActive", Value: true}}
	result, err := g.client.Query(ctx, entity, filters, autotask.MaxPageSize)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", heading)
	skipped := 0
	for _, raw := range result.Items {
		var entry autotask.Role
		if err := json.Unmarshal(raw, &entry); err != nil {
			skipped++
			continue
		}
		fmt.Fprintf(&b, "- %d: %s\n", entry.ID, entry.Name)
	}
	if skipped > 0 {
		g.logf("%s resource: skipped %d malformed record(s)", entity, skipped)
	}
	return b.String(), nil
}

func (g *Gateway) readQueuesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	field, err := g.lookupPicklistField(ctx, "Tickets", "queueID")
	if err != nil {
		return nil, err
	}
	values, err := decodePicklistValues(field)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("# Ticket Queues\n")
	for _, v := range values {
		fmt.Fprintf(&b, "- %s: %s\n", v.Value, v.Label)
	}
	return markdownResource(req.Params.URI, b.String()), nil
}

func (g *Gateway) readUserInfoResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	raw, err := g.client.Get(ctx, "ThresholdInformation")
	if err != nil {
		return nil, err
	}
	body, err := jsonDocument(raw)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     body,
		}},
	}, nil
}

func markdownResource(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     text,
		}},
	}
}

const createTicketGuide = `You are an expert Autotask Ticket Manager.
When helping a user create a ticket, follow these steps:

1. **Identify the Company**: Ask for the company name if not provided. Use ` + "`search_companies`" + ` to find the ID.
2. **Identify the Contact**: If a contact is mentioned, find their ID using ` + "`search_contacts`" + `.
3. **Determine Status and Priority**:
   - Check available statuses using the resource ` + "`autotask://picklist/Tickets/status`" + `
   - Check available priorities using the resource ` + "`autotask://picklist/Tickets/priority`" + `
4. **Draft the Ticket**: Confirm the details (Title, Description, Company, Priority) before calling ` + "`create_ticket`" + `.

Always prefer the ` + "`autotask://picklist/...`" + ` resources to find correct IDs for dropdown fields.
`

func (g *Gateway) registerPrompts(server *mcp.Server) {
	server.AddPrompt(&mcp.Prompt{
		Name:        "create_ticket_guide",
		Description: "Guides the assistant through creating a well-formed Autotask ticket",
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Description: "Ticket creation workflow",
			Messages: []*mcp.PromptMessage{{
				Role:    "user",
				Content: &mcp.TextContent{Text: createTicketGuide},
			}},
		}, nil
	})
}
