package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"

	"github.com/aybouzaglou/AutotaskMCP/internal/autotask"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc, opts ...autotask.Option) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	creds := autotask.Credentials{
		Username:        "api-user@example.com",
		Secret:          "s3cret",
		IntegrationCode: "INTCODE",
		BaseURL:         srv.URL,
	}
	return New(autotask.NewClient(creds, opts...))
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if !assert.Len(t, res.Content, 1) {
		t.FailNow()
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !assert.True(t, ok, "content should be text") {
		t.FailNow()
	}
	return tc.Text
}

func TestRegisterDoesNotPanic(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	})
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "0.0.0"}, nil)
	assert.NotPanics(t, func() { gw.Register(server) })
}

func TestParseFormat(t *testing.T) {
	t.Run("defaults to markdown", func(t *testing.T) {
		format, err := parseFormat("")
		assert.Nil(t, err)
		assert.Equal(t, FormatMarkdown, format)
	})

	t.Run("accepts json", func(t *testing.T) {
		format, err := parseFormat("json")
		assert.Nil(t, err)
		assert.Equal(t, FormatJSON, format)
	})

	t.Run("rejects unknown", func(t *testing.T) {
		_, err := parseFormat("yaml")
		assert.NotNil(t, err)
		assert.Equal(t, autotask.CategoryInvalidArgument, autotask.CategoryOf(err))
	})
}
