package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aybouzaglou/AutotaskMCP/internal/autotask"
)

// SearchCompaniesInput filters a company search.
type SearchCompaniesInput struct {
	NameContains string `json:"name_contains,omitempty" jsonschema:"filter by company name containing this text"`
	IsActive     *bool  `json:"is_active,omitempty" jsonschema:"filter by active status (default true)"`
	MaxResults   int    `json:"max_results,omitempty" jsonschema:"maximum number of results (default 50, max 500)"`
	Format       string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) searchCompanies(ctx context.Context, req *mcp.CallToolRequest, in SearchCompaniesInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.MaxResults < 0 {
		return errorResult(autotask.InvalidArgument("max_results must not be negative")), nil, nil
	}

	var filters []autotask.Filter
	if in.NameContains != "" {
		filters = append(filters, autotask.Filter{Op: "contains", Field: "companyName", Value: in.NameContains})
	}
	filters = append(filters, autotask.Filter{Op: "eq", Field: "isActive", Value: isActive(in.IsActive)})

	result, err := g.client.Query(ctx, "Companies", filters, in.MaxResults)
	if err != nil {
		return errorResult(err), nil, nil
	}

	body, err := renderSearch(format, result.Items, "company", "companies", "companies", companySummary)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(body), nil, nil
}

// GetCompanyInput identifies a single company.
type GetCompanyInput struct {
	CompanyID int64  `json:"company_id" jsonschema:"the company ID to retrieve"`
	Format    string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) getCompany(ctx context.Context, req *mcp.CallToolRequest, in GetCompanyInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.CompanyID <= 0 {
		return errorResult(autotask.InvalidArgument("company_id is required and must be positive")), nil, nil
	}

	raw, err := g.client.Get(ctx, fmt.Sprintf("Companies/%d", in.CompanyID))
	if err != nil {
		return errorResult(err), nil, nil
	}
	item, ok := autotask.ItemOK(raw)
	if !ok {
		return errorResult(autotask.NotFound("company %d does not exist", in.CompanyID)), nil, nil
	}

	if format == FormatJSON {
		body, err := jsonDocument(item)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(body), nil, nil
	}

	var company autotask.Company
	if err := json.Unmarshal(item, &company); err != nil {
		return errorResult(&autotask.Error{
			Category: autotask.CategoryRemoteService,
			Op:       fmt.Sprintf("GET Companies/%d", in.CompanyID),
			Message:  "malformed company record",
			Err:      err,
		}), nil, nil
	}
	return textResult(companyDetail(company)), nil, nil
}

// SearchContactsInput filters a contact search.
type SearchContactsInput struct {
	CompanyID     int64  `json:"company_id,omitempty" jsonschema:"filter by company ID"`
	EmailContains string `json:"email_contains,omitempty" jsonschema:"filter by email containing this text"`
	FirstName     string `json:"first_name,omitempty" jsonschema:"filter by first name"`
	LastName      string `json:"last_name,omitempty" jsonschema:"filter by last name"`
	IsActive      *bool  `json:"is_active,omitempty" jsonschema:"filter by active status (default true)"`
	MaxResults    int    `json:"max_results,omitempty" jsonschema:"maximum number of results (default 50, max 500)"`
	Format        string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) searchContacts(ctx context.Context, req *mcp.CallToolRequest, in SearchContactsInput) (*mcp.CallToolResult, any, error) {
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
	if in.EmailContains != "" {
		filters = append(filters, autotask.Filter{Op: "contains", Field: "emailAddress", Value: in.EmailContains})
	}
	if in.FirstName != "" {
		filters = append(filters, autotask.Filter{Op: "contains", Field: "firstName", Value: in.FirstName})
	}
	if in.LastName != "" {
		filters = append(filters, autotask.Filter{Op: "contains", Field: "lastName", Value: in.LastName})
	}
	filters = append(filters, autotask.Filter{Op: "eq", Field: "isActive", Value: isActive(in.IsActive)})

	result, err := g.client.Query(ctx, "Contacts", filters, in.MaxResults)
	if err != nil {
		return errorResult(err), nil, nil
	}

	body, err := renderSearch(format, result.Items, "contact", "contacts", "contacts", contactSummary)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(body), nil, nil
}

// isActive resolves the tri-state is_active argument; unset means true.
func isActive(v *bool) bool {
	return v == nil || *v
}
