// Package gateway translates MCP tool invocations into authenticated
// Autotask REST calls and formats the responses as Markdown or JSON.
package gateway

import (
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aybouzaglou/AutotaskMCP/internal/autotask"
)

// Gateway holds the Autotask client shared by all tool handlers. It is
// stateless per invocation; concurrent calls share only the immutable
// client configuration.
type Gateway struct {
	client *autotask.Client
	logger *log.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets a logger for skipped-record diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// New creates a gateway backed by the given client.
func New(client *autotask.Client, opts ...Option) *Gateway {
	g := &Gateway{client: client}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds every tool, resource, and prompt to the MCP server.
func (g *Gateway) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_tickets",
		Description: "Search Autotask tickets by status, priority, company, assignee, queue, or title text. Completed tickets are excluded unless exclude_completed is false.",
	}, g.searchTickets)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_ticket",
		Description: "Get a single Autotask ticket by ID.",
	}, g.getTicket)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_ticket",
		Description: "Create a new Autotask ticket. Requires a title and a company ID; status defaults to New and priority to Medium.",
	}, g.createTicket)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_ticket",
		Description: "Update fields on an existing Autotask ticket. Only the provided fields are changed.",
	}, g.updateTicket)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_ticket_note",
		Description: "Add a note to an Autotask ticket.",
	}, g.addTicketNote)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_time_entry",
		Description: "Log time against an Autotask ticket or task. Requires a resource, a role valid for that resource, hours worked, and summary notes.",
	}, g.createTimeEntry)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_companies",
		Description: "Search Autotask companies by name substring. Inactive companies are excluded unless is_active is false.",
	}, g.searchCompanies)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_company",
		Description: "Get a single Autotask company by ID.",
	}, g.getCompany)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_contacts",
		Description: "Search Autotask contacts by company, email, or name.",
	}, g.searchContacts)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_resources",
		Description: "Search Autotask resources (users/technicians) by name or email.",
	}, g.searchResources)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_resource",
		Description: "Get a single Autotask resource by ID.",
	}, g.getResource)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_roles",
		Description: "Search Autotask roles. Roles are required when creating time entries.",
	}, g.searchRoles)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_contracts",
		Description: "Search Autotask contracts, e.g. to find the contract to bill a time entry against.",
	}, g.searchContracts)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_billing_codes",
		Description: "Search Autotask billing codes (work types) for time entries.",
	}, g.searchBillingCodes)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_picklist_values",
		Description: "List the valid picklist values for an entity field, e.g. Tickets/status or TicketNotes/noteType.",
	}, g.getPicklistValues)

	g.registerResources(server)
	g.registerPrompts(server)
}

func (g *Gateway) logf(format string, args ...any) {
	if g.logger != nil {
		g.logger.Printf(format, args...)
	}
}
