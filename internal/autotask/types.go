package autotask

import (
	"bytes"
	"encoding/json"
)

// Entity shapes below cover only the fields the gateway displays. Remote
// payloads are kept as raw JSON at the boundary and narrowed into these
// types right before formatting, so unknown fields survive JSON
// pass-through untouched.

// Ticket is the display projection of an Autotask ticket.
type Ticket struct {
	ID                 int64   `json:"id"`
	TicketNumber       string  `json:"ticketNumber"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Status             int     `json:"status"`
	Priority           int     `json:"priority"`
	CompanyID          int64   `json:"companyID"`
	QueueID            int64   `json:"queueID"`
	AssignedResourceID int64   `json:"assignedResourceID"`
	CreateDate         string  `json:"createDate"`
	LastActivityDate   string  `json:"lastActivityDate"`
	DueDateTime        string  `json:"dueDateTime"`
}

// Company is the display projection of an Autotask company.
type Company struct {
	ID          int64  `json:"id"`
	CompanyName string `json:"companyName"`
	Phone       string `json:"phone"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	WebAddress  string `json:"webAddress"`
}

// Contact is the display projection of an Autotask contact.
type Contact struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmailAddress string `json:"emailAddress"`
	CompanyID    int64  `json:"companyID"`
	Phone        string `json:"phone"`
	Title        string `json:"title"`
}

// Resource is the display projection of an Autotask resource (technician).
type Resource struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	UserName  string `json:"userName"`
}

// Role is the display projection of an Autotask role.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Contract is the display projection of an Autotask contract.
type Contract struct {
	ID           int64  `json:"id"`
	ContractName string `json:"contractName"`
	CompanyID    int64  `json:"companyID"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
}

// BillingCode is the display projection of an Autotask billing code
// (work type).
type BillingCode struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// EntityField describes one field from {entity}/entityInformation/fields.
// PicklistValues stays raw so JSON output is a faithful pass-through.
type EntityField struct {
	Name           string          `json:"name"`
	IsPickList     bool            `json:"isPickList"`
	PicklistValues json.RawMessage `json:"picklistValues"`
}

// PicklistValue is one entry of a picklist field.
type PicklistValue struct {
	Value          string `json:"value"`
	Label          string `json:"label"`
	IsDefaultValue bool   `json:"isDefaultValue"`
	IsActive       bool   `json:"isActive"`
}

// FieldsResult is the envelope of {entity}/entityInformation/fields.
type FieldsResult struct {
	Fields []EntityField `json:"fields"`
}

type itemEnvelope struct {
	Item json.RawMessage `json:"item"`
}

// Item unwraps the {"item": ...} envelope Autotask uses on single-entity
// responses, returning the raw document unchanged when no envelope is
// present.
func Item(raw json.RawMessage) json.RawMessage {
	item, _ := ItemOK(raw)
	return item
}

// ItemOK is Item plus a report of whether an entity is actually present.
// Autotask answers a GET for a missing ID with 200 and {"item": null}.
func ItemOK(raw json.RawMessage) (json.RawMessage, bool) {
	var env itemEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Item) > 0 {
		if isJSONNull(env.Item) {
			return raw, false
		}
		return env.Item, true
	}
	return raw, len(bytes.TrimSpace(raw)) > 0 && !isJSONNull(raw)
}

// CreatedID extracts the new entity ID from a create response, which
// Autotask reports either as a top-level itemId or inside the item
// envelope.
func CreatedID(raw json.RawMessage) int64 {
	var env struct {
		ItemID int64 `json:"itemId"`
		Item   struct {
			ID int64 `json:"id"`
		} `json:"item"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0
	}
	if env.ItemID != 0 {
		return env.ItemID
	}
	return env.Item.ID
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
