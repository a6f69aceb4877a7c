package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aybouzaglou/AutotaskMCP/internal/autotask"
)

// SearchResourcesInput filters a resource (user/technician) search.
type SearchResourcesInput struct {
	FirstName  string `json:"first_name,omitempty" jsonschema:"filter by first name"`
	LastName   string `json:"last_name,omitempty" jsonschema:"filter by last name"`
	Email      string `json:"email,omitempty" jsonschema:"filter by email"`
	IsActive   *bool  `json:"is_active,omitempty" jsonschema:"filter by active status (default true)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results (default 50, max 500)"`
	Format     string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) searchResources(ctx context.Context, req *mcp.CallToolRequest, in SearchResourcesInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.MaxResults < 0 {
		return errorResult(autotask.InvalidArgument("max_results must not be negative")), nil, nil
	}

	var filters []autotask.Filter
	if in.FirstName != "" {
		filters = append(filters, autotask.Filter{Op: "contains", Field: "firstName", Value: in.FirstName})
	}
	if in.LastName != "" {
		filters = append(filters, autotask.Filter{Op: "contains", Field: "lastName", Value: in.LastName})
	}
	if in.Email != "" {
		filters = append(filters, autotask.Filter{Op: "contains", Field: "email", Value: in.Email})
	}
	filters = append(filters, autotask.Filter{Op: "eq", Field: "isActive", Value: isActive(in.IsActive)})

	result, err := g.client.Query(ctx, "Resources", filters, in.MaxResults)
	if err != nil {
		return errorResult(err), nil, nil
	}

	body, err := renderSearch(format, result.Items, "resource", "resources", "resources", resourceSummary)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(body), nil, nil
}

// GetResourceInput identifies a single resource.
type GetResourceInput struct {
	ResourceID int64  `json:"resource_id" jsonschema:"the resource ID to retrieve"`
	Format     string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) getResource(ctx context.Context, req *mcp.CallToolRequest, in GetResourceInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.ResourceID <= 0 {
		return errorResult(autotask.InvalidArgument("resource_id is required and must be positive")), nil, nil
	}

	raw, err := g.client.Get(ctx, fmt.Sprintf("Resources/%d", in.ResourceID))
	if err != nil {
		return errorResult(err), nil, nil
	}
	item, ok := autotask.ItemOK(raw)
	if !ok {
		return errorResult(autotask.NotFound("resource %d does not exist", in.ResourceID)), nil, nil
	}

	if format == FormatJSON {
		body, err := jsonDocument(item)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(body), nil, nil
	}

	var resource autotask.Resource
	if err := json.Unmarshal(item, &resource); err != nil {
		return errorResult(&autotask.Error{
			Category: autotask.CategoryRemoteService,
			Op:       fmt.Sprintf("GET Resources/%d", in.ResourceID),
			Message:  "malformed resource record",
			Err:      err,
		}), nil, nil
	}
	return textResult(resourceDetail(resource)), nil, nil
}

// SearchRolesInput filters a role search.
type SearchRolesInput struct {
	IsActive   *bool  `json:"is_active,omitempty" jsonschema:"filter by active status (default true)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results (default 50, max 500)"`
	Format     string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) searchRoles(ctx context.Context, req *mcp.CallToolRequest, in SearchRolesInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.MaxResults < 0 {
		return errorResult(autotask.InvalidArgument("max_results must not be negative")), nil, nil
	}

	filters := []autotask.Filter{{Op: "eq", Field: "isActive", Value: isActive(in.IsActive)}}

	result, err := g.client.Query(ctx, "Roles", filters, in.MaxResults)
	if err != nil {
		return errorResult(err), nil, nil
	}

	body, err := renderSearch(format, result.Items, "role", "roles", "roles", roleSummary)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(body), nil, nil
}

// SearchContractsInput filters a contract search.
type SearchContractsInput struct {
	CompanyID    int64  `json:"company_id,omitempty" jsonschema:"filter by company ID"`
	ContractName string `json:"contract_name,omitempty" jsonschema:"filter by contract name containing this text"`
	IsActive     *bool  `json:"is_active,omitempty" jsonschema:"filter by active status (default true)"`
	MaxResults   int    `json:"max_results,omitempty" jsonschema:"maximum number of results (default 50, max 500)"`
	Format       string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) searchContracts(ctx context.Context, req *mcp.CallToolRequest, in SearchContractsInput) (*mcp.CallToolResult, any, error) {
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
	if in.ContractName != "" {
		filters = append(filters, autotask.Filter{Op: "contains", Field: "contractName", Value: in.ContractName})
	}
	filters = append(filters, autotask.Filter{Op: "eq", Field: "isActive", Value: isActive(in.IsActive)})

	result, err := g.client.Query(ctx, "Contracts", filters, in.MaxResults)
	if err != nil {
		return errorResult(err), nil, nil
	}

	body, err := renderSearch(format, result.Items, "contract", "contracts", "contracts", contractSummary)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(body), nil, nil
}

// SearchBillingCodesInput filters a billing code (work type) search.
type SearchBillingCodesInput struct {
	Name       string `json:"name,omitempty" jsonschema:"filter by billing code name containing this text"`
	IsActive   *bool  `json:"is_active,omitempty" jsonschema:"filter by active status (default true)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results (default 50, max 500)"`
	Format     string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) searchBillingCodes(ctx context.Context, req *mcp.CallToolRequest, in SearchBillingCodesInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.MaxResults < 0 {
		return errorResult(autotask.InvalidArgument("max_results must not be negative")), nil, nil
	}

	var filters []autotask.Filter
	if in.Name != "" {
		filters = append(filters, autotask.Filter{Op: "contains", Field: "name", Value: in.Name})
	}
	filters = append(filters, autotask.Filter{Op: "eq", Field: "isActive", Value: isActive(in.IsActive)})

	result, err := g.client.Query(ctx, "BillingCodes", filters, in.MaxResults)
	if err != nil {
		return errorResult(err), nil, nil
	}

	body, err := renderSearch(format, result.Items, "billing code", "billing codes", "billing_codes", billingCodeSummary)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(body), nil, nil
}

// GetPicklistValuesInput names an entity field whose picklist to read.
type GetPicklistValuesInput struct {
	Entity string `json:"entity" jsonschema:"entity name, e.g. Tickets, TicketNotes, TimeEntries"`
	Field  string `json:"field" jsonschema:"field name, e.g. status, priority, noteType, publish"`
	Format string `json:"format,omitempty" jsonschema:"response format: markdown (default) or json"`
}

func (g *Gateway) getPicklistValues(ctx context.Context, req *mcp.CallToolRequest, in GetPicklistValuesInput) (*mcp.CallToolResult, any, error) {
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if strings.TrimSpace(in.Entity) == "" {
		return errorResult(autotask.InvalidArgument("entity is required")), nil, nil
	}
	if strings.TrimSpace(in.Field) == "" {
		return errorResult(autotask.InvalidArgument("field is required")), nil, nil
	}

	field, err := g.lookupPicklistField(ctx, in.Entity, in.Field)
	if err != nil {
		return errorResult(err), nil, nil
	}

	if format == FormatJSON {
		rawValues := field.PicklistValues
		if len(rawValues) == 0 {
			rawValues = json.RawMessage("[]")
		}
		body, err := jsonObject(map[string]any{
			"entity": in.Entity,
			"field":  field.Name,
			"values": rawValues,
		})
		if err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(body), nil, nil
	}

	values, err := decodePicklistValues(field)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(picklistMarkdown(in.Entity, field.Name, values)), nil, nil
}

// lookupPicklistField fetches the entity field metadata and returns the
// named picklist field, matching case-insensitively as the original
// field names are camelCase.
func (g *Gateway) lookupPicklistField(ctx context.Context, entity, fieldName string) (*autotask.EntityField, error) {
	raw, err := g.client.Get(ctx, entity+"/entityInformation/fields")
	if err != nil {
		return nil, err
	}

	var result autotask.FieldsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &autotask.Error{
			Category: autotask.CategoryRemoteService,
			Op:       "GET " + entity + "/entityInformation/fields",
			Message:  "malformed fields response",
			Err:      err,
		}
	}

	var available []string
	for i := range result.Fields {
		f := &result.Fields[i]
		if strings.EqualFold(f.Name, fieldName) {
			if !f.IsPickList {
				return nil, autotask.InvalidArgument("field %q of %s is not a picklist field", fieldName, entity)
			}
			return f, nil
		}
		if f.IsPickList {
			available = append(available, f.Name)
		}
	}
	return nil, autotask.InvalidArgument("field %q not found in %s; available picklist fields: %s",
		fieldName, entity, strings.Join(available, ", "))
}

func decodePicklistValues(field *autotask.EntityField) ([]autotask.PicklistValue, error) {
	if len(field.PicklistValues) == 0 {
		return nil, nil
	}
	var values []autotask.PicklistValue
	if err := json.Unmarshal(field.PicklistValues, &values); err != nil {
		return nil, &autotask.Error{
			Category: autotask.CategoryRemoteService,
			Message:  "malformed picklist values",
			Err:      err,
		}
	}
	return values, nil
}

func picklistMarkdown(entity, field string, values []autotask.PicklistValue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Picklist Values for %s.%s\n", entity, field)
	for _, v := range values {
		marker := ""
		if v.IsDefaultValue {
			marker = " (Default)"
		}
		fmt.Fprintf(&b, "- %s: %s%s\n", v.Value, v.Label, marker)
	}
	return b.String()
}
