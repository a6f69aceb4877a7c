package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aybouzaglou/AutotaskMCP/internal/autotask"
)

const twoTicketsResponse = `{"items":[
	{"id":100,"title":"Printer offline","status":1,"priority":2,"companyID":10,"assignedResourceID":3,"lastActivityDate":"2026-08-20T10:00:00Z"},
	{"id":101,"title":"VPN drops hourly","status":8,"priority":1,"companyID":11}
]}`

func TestSearchTicketsMarkdown(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Tickets/query", r.URL.Path)
		w.Write([]byte(twoTicketsResponse))
	})

	res, _, err := gw.searchTickets(context.Background(), nil, SearchTicketsInput{Status: 1})
	assert.Nil(t, err)
	assert.False(t, res.IsError)

	text := resultText(t, res)
	assert.True(t, strings.HasPrefix(text, "Found 2 ticket(s)\n"))
	assert.Contains(t, text, "1. **Printer offline** [#100]")
	assert.Contains(t, text, "2. **VPN drops hourly** [#101]")
	assert.Contains(t, text, "Status: 1 | Priority: 2 | Company: 10 | Assigned: 3")
	assert.Contains(t, text, "Last activity: 2026-08-20T10:00:00Z")
	// Records appear in the order the remote returned them.
	assert.Less(t, strings.Index(text, "Printer offline"), strings.Index(text, "VPN drops hourly"))

	// Identical calls produce byte-identical output.
	res2, _, err := gw.searchTickets(context.Background(), nil, SearchTicketsInput{Status: 1})
	assert.Nil(t, err)
	assert.Equal(t, text, resultText(t, res2))
}

func TestSearchTicketsJSON(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoTicketsResponse))
	})

	res, _, err := gw.searchTickets(context.Background(), nil, SearchTicketsInput{Format: "json"})
	assert.Nil(t, err)
	assert.False(t, res.IsError)

	var envelope struct {
		Count   int               `json:"count"`
		Tickets []json.RawMessage `json:"tickets"`
	}
	assert.Nil(t, json.Unmarshal([]byte(resultText(t, res)), &envelope))
	assert.Equal(t, 2, envelope.Count)
	assert.Len(t, envelope.Tickets, 2)
	assert.Contains(t, string(envelope.Tickets[0]), "Printer offline")
}

func TestSearchTicketsEmpty(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	})

	t.Run("markdown", func(t *testing.T) {
		res, _, err := gw.searchTickets(context.Background(), nil, SearchTicketsInput{})
		assert.Nil(t, err)
		assert.Equal(t, "No tickets found.", resultText(t, res))
	})

	t.Run("json", func(t *testing.T) {
		res, _, err := gw.searchTickets(context.Background(), nil, SearchTicketsInput{Format: "json"})
		assert.Nil(t, err)
		var envelope map[string]any
		assert.Nil(t, json.Unmarshal([]byte(resultText(t, res)), &envelope))
		assert.Equal(t, float64(0), envelope["count"])
	})
}

func TestSearchTicketsFilters(t *testing.T) {
	capture := func(t *testing.T, in SearchTicketsInput) []map[string]any {
		t.Helper()
		var body struct {
			Filter []map[string]any `json:"filter"`
		}
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Nil(t, json.NewDecoder(r.Body).Decode(&body))
			w.Write([]byte(`{"items":[]}`))
		})
		_, _, err := gw.searchTickets(context.Background(), nil, in)
		assert.Nil(t, err)
		return body.Filter
	}

	t.Run("completed excluded by default", func(t *testing.T) {
		filters := capture(t, SearchTicketsInput{Status: 1})
		assert.Len(t, filters, 2)
		assert.Equal(t, map[string]any{"op": "eq", "field": "status", "value": float64(1)}, filters[0])
		assert.Equal(t, map[string]any{"op": "notequal", "field": "status", "value": float64(5)}, filters[1])
	})

	t.Run("exclude_completed false falls back to exist", func(t *testing.T) {
		include := false
		filters := capture(t, SearchTicketsInput{ExcludeCompleted: &include})
		assert.Len(t, filters, 1)
		assert.Equal(t, "exist", filters[0]["op"])
		assert.Equal(t, "id", filters[0]["field"])
	})

	t.Run("all filter fields map to autotask names", func(t *testing.T) {
		include := false
		filters := capture(t, SearchTicketsInput{
			CompanyID:          10,
			Status:             1,
			Priority:           2,
			AssignedResourceID: 3,
			QueueID:            4,
			TitleContains:      "printer",
			ExcludeCompleted:   &include,
		})
		fields := make([]string, 0, len(filters))
		for _, f := range filters {
			fields = append(fields, f["field"].(string))
		}
		assert.Equal(t, []string{"companyID", "status", "priority", "assignedResourceID", "queueID", "title"}, fields)
	})
}

func TestSearchTicketsValidation(t *testing.T) {
	calls := 0
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"items":[]}`))
	})

	t.Run("negative max_results", func(t *testing.T) {
		res, _, err := gw.searchTickets(context.Background(), nil, SearchTicketsInput{MaxResults: -1})
		assert.Nil(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "max_results")
	})

	t.Run("unknown format", func(t *testing.T) {
		res, _, err := gw.searchTickets(context.Background(), nil, SearchTicketsInput{Format: "xml"})
		assert.Nil(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "format")
	})

	// Validation failures never reach the remote service.
	assert.Equal(t, 0, calls)
}

func TestSearchTicketsRemoteErrors(t *testing.T) {
	t.Run("401 surfaces as authentication failure", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"errors":["invalid credentials"]}`))
		})
		res, _, err := gw.searchTickets(context.Background(), nil, SearchTicketsInput{})
		assert.Nil(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), string(autotask.CategoryAuthenticationFailed))
	})

	t.Run("timeout surfaces as network error", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"items":[]}`))
		}, autotask.WithTimeout(30*time.Millisecond))
		res, _, err := gw.searchTickets(context.Background(), nil, SearchTicketsInput{})
		assert.Nil(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), string(autotask.CategoryNetwork))
	})
}

func TestGetTicket(t *testing.T) {
	t.Run("markdown detail", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Tickets/100", r.URL.Path)
			w.Write([]byte(`{"item":{"id":100,"ticketNumber":"T20260820.0001","title":"Printer offline","status":1,"priority":2,"companyID":10,"description":"The office printer no longer responds."}}`))
		})
		res, _, err := gw.getTicket(context.Background(), nil, GetTicketInput{TicketID: 100})
		assert.Nil(t, err)
		assert.False(t, res.IsError)
		text := resultText(t, res)
		assert.Contains(t, text, "## Printer offline")
		assert.Contains(t, text, "- Ticket Number: T20260820.0001")
		assert.Contains(t, text, "The office printer no longer responds.")
	})

	t.Run("json passes the record through", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"item":{"id":100,"title":"Printer offline","customField":"kept"}}`))
		})
		res, _, err := gw.getTicket(context.Background(), nil, GetTicketInput{TicketID: 100, Format: "json"})
		assert.Nil(t, err)
		assert.JSONEq(t, `{"id":100,"title":"Printer offline","customField":"kept"}`, resultText(t, res))
	})

	t.Run("null item is not_found", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"item":null}`))
		})
		res, _, err := gw.getTicket(context.Background(), nil, GetTicketInput{TicketID: 999})
		assert.Nil(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "ticket 999 does not exist")
	})

	t.Run("missing id is invalid_argument", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		res, _, err := gw.getTicket(context.Background(), nil, GetTicketInput{})
		assert.Nil(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "ticket_id")
	})
}

// ticketStore is a minimal in-memory Autotask double: POST Tickets assigns
// an ID, GET Tickets/{id} returns what was stored.
func ticketStore(t *testing.T) http.HandlerFunc {
	t.Helper()
	tickets := map[int64]map[string]any{}
	var nextID int64 = 1000
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/Tickets":
			var payload map[string]any
			assert.Nil(t, json.NewDecoder(r.Body).Decode(&payload))
			nextID++
			payload["id"] = nextID
			tickets[nextID] = payload
			fmt.Fprintf(w, `{"itemId":%d}`, nextID)
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/Tickets/"):
			var id int64
			fmt.Sscanf(r.URL.Path, "/Tickets/%d", &id)
			stored, ok := tickets[id]
			if !ok {
				w.Write([]byte(`{"item":null}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"item": stored})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}
}

func TestCreateTicketRoundTrip(t *testing.T) {
	gw := newTestGateway(t, ticketStore(t))

	res, _, err := gw.createTicket(context.Background(), nil, CreateTicketInput{
		Title:       "Replace backup drive",
		CompanyID:   10,
		Description: "Drive reports SMART errors.",
		Priority:    1,
	})
	assert.Nil(t, err)
	assert.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "Created ticket #1001")
	assert.Contains(t, text, "- Priority: 1")
	assert.Contains(t, text, "- Status: 1") // default

	got, _, err := gw.getTicket(context.Background(), nil, GetTicketInput{TicketID: 1001})
	assert.Nil(t, err)
	detail := resultText(t, got)
	assert.Contains(t, detail, "## Replace backup drive")
	assert.Contains(t, detail, "Drive reports SMART errors.")
	assert.Contains(t, detail, "- Priority: 1")
}

func TestCreateTicketDefaults(t *testing.T) {
	var payload map[string]any
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"itemId":7}`))
	})

	_, _, err := gw.createTicket(context.Background(), nil, CreateTicketInput{Title: "x", CompanyID: 1})
	assert.Nil(t, err)
	assert.Equal(t, float64(1), payload["status"])
	assert.Equal(t, float64(2), payload["priority"])
	assert.Equal(t, float64(1), payload["ticketType"])
	assert.NotContains(t, payload, "description")
}

func TestCreateTicketValidation(t *testing.T) {
	calls := 0
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	tests := []struct {
		name string
		in   CreateTicketInput
		want string
	}{
		{"missing title", CreateTicketInput{CompanyID: 1}, "title"},
		{"blank title", CreateTicketInput{Title: "   ", CompanyID: 1}, "title"},
		{"missing company", CreateTicketInput{Title: "x"}, "company_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := gw.createTicket(context.Background(), nil, tt.in)
			assert.Nil(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
	assert.Equal(t, 0, calls)
}

func TestUpdateTicket(t *testing.T) {
	t.Run("patches only provided fields", func(t *testing.T) {
		var patched map[string]any
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				w.Write([]byte(`{"item":{"id":100,"title":"old"}}`))
			case http.MethodPatch:
				assert.Equal(t, "/Tickets", r.URL.Path)
				assert.Nil(t, json.NewDecoder(r.Body).Decode(&patched))
				w.Write([]byte(`{"item":{"id":100,"title":"old","status":5}}`))
			}
		})

		status := 5
		res, _, err := gw.updateTicket(context.Background(), nil, UpdateTicketInput{TicketID: 100, Status: &status})
		assert.Nil(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, map[string]any{"id": float64(100), "status": float64(5)}, patched)
		assert.Contains(t, resultText(t, res), "Updated ticket #100")
	})

	t.Run("no fields is invalid_argument", func(t *testing.T) {
		calls := 0
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) { calls++ })
		res, _, err := gw.updateTicket(context.Background(), nil, UpdateTicketInput{TicketID: 100})
		assert.Nil(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "at least one field")
		assert.Equal(t, 0, calls)
	})

	t.Run("unknown ticket is not_found before the patch", func(t *testing.T) {
		patchCalls := 0
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPatch {
				patchCalls++
			}
			w.Write([]byte(`{"item":null}`))
		})
		status := 5
		res, _, err := gw.updateTicket(context.Background(), nil, UpdateTicketInput{TicketID: 999, Status: &status})
		assert.Nil(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "ticket 999 does not exist")
		assert.Equal(t, 0, patchCalls)
	})
}

func TestAddTicketNote(t *testing.T) {
	t.Run("posts to the note child collection", func(t *testing.T) {
		var payload map[string]any
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/Tickets/7/Notes", r.URL.Path)
			assert.Nil(t, json.NewDecoder(r.Body).Decode(&payload))
			w.Write([]byte(`{"itemId":55}`))
		})

		res, _, err := gw.addTicketNote(context.Background(), nil, AddTicketNoteInput{
			TicketID:    7,
			Description: "Called the customer, waiting on reboot.",
		})
		assert.Nil(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, float64(1), payload["noteType"])
		assert.Equal(t, float64(1), payload["publish"])
		assert.Contains(t, resultText(t, res), "Added note to ticket #7 (note #55)")
	})

	t.Run("description required", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		res, _, err := gw.addTicketNote(context.Background(), nil, AddTicketNoteInput{TicketID: 7})
		assert.Nil(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "description")
	})
}
