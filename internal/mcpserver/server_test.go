package mcpserver_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/healthassist/internal/domain/insurance"
	"github.com/matiasleandrokruk/healthassist/internal/domain/tool"
	"github.com/matiasleandrokruk/healthassist/internal/infra/dataset"
	"github.com/matiasleandrokruk/healthassist/internal/mcpserver"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	ds, err := dataset.Builtin()
	require.NoError(t, err)
	server := mcpserver.New(insurance.NewService(ds), zerolog.Nop())

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func decodeStructured(t *testing.T, res *mcp.CallToolResult, dst any) {
	t.Helper()
	require.NotNil(t, res.StructuredContent)
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func textOf(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestServer_ListTools(t *testing.T) {
	t.Parallel()
	session := connect(t)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tl := range res.Tools {
		names = append(names, tl.Name)
		require.NotNil(t, tl.Annotations)
		assert.True(t, tl.Annotations.ReadOnlyHint, tl.Name)
		assert.True(t, tl.Annotations.IdempotentHint, tl.Name)
		assert.NotEmpty(t, tl.Description, tl.Name)
	}
	assert.ElementsMatch(t, []string{
		tool.BuiltinGetClaimDetails,
		tool.BuiltinGetPlanBenefits,
		tool.BuiltinGetHealthProviderDetails,
	}, names)
}

func TestServer_ToolsMatchRegistryDefinitions(t *testing.T) {
	t.Parallel()
	session := connect(t)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	listed := make(map[string]*mcp.Tool, len(res.Tools))
	for _, tl := range res.Tools {
		listed[tl.Name] = tl
	}

	defs := tool.BuiltinDefinitions()
	require.Len(t, listed, len(defs))
	for _, def := range defs {
		tl, ok := listed[def.Name]
		require.True(t, ok, "tool %s not exposed over MCP", def.Name)
		assert.Equal(t, def.Title, tl.Title, def.Name)
		assert.Equal(t, def.Description, tl.Description, def.Name)
		require.NotNil(t, tl.Annotations)
		assert.Equal(t, def.Title, tl.Annotations.Title, def.Name)
		assert.Equal(t, def.ReadOnly, tl.Annotations.ReadOnlyHint, def.Name)
	}
}

func TestServer_GetClaimDetails(t *testing.T) {
	t.Parallel()
	session := connect(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tool.BuiltinGetClaimDetails,
		Arguments: map[string]any{"claim_number": "CLM123456"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(res))

	var claim insurance.ClaimDetails
	decodeStructured(t, res, &claim)
	assert.Equal(t, "CLM123456", claim.ClaimNumber)
	assert.Equal(t, insurance.ClaimStatusApproved, claim.Status)
	assert.InDelta(t, 200.0, claim.PatientResponsibility, 0.001)
}

func TestServer_GetClaimDetails_NotFoundIsToolError(t *testing.T) {
	t.Parallel()
	session := connect(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tool.BuiltinGetClaimDetails,
		Arguments: map[string]any{"claim_number": "CLM000000"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(res), "claim with number CLM000000 not found")
}

func TestServer_GetPlanBenefits(t *testing.T) {
	t.Parallel()
	session := connect(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tool.BuiltinGetPlanBenefits,
		Arguments: map[string]any{"plan_id": "PLAN002"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(res))

	var out mcpserver.PlanBenefitsResult
	decodeStructured(t, res, &out)
	assert.Equal(t, "PLAN002", out.PlanID)
	require.Len(t, out.Benefits, 4)
	assert.Equal(t, "Primary Care Visit", out.Benefits[0].Service)

	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tool.BuiltinGetPlanBenefits,
		Arguments: map[string]any{"plan_id": "PLAN999"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(res), "plan with ID PLAN999 not found")
}

func TestServer_GetHealthProviderDetails(t *testing.T) {
	t.Parallel()
	session := connect(t)

	cases := []struct {
		args map[string]any
		want []string
	}{
		{map[string]any{}, []string{"Dr. Sarah Johnson", "Dr. Michael Chen", "Dr. Emily Wilson"}},
		{map[string]any{"provider_name": "sArAh"}, []string{"Dr. Sarah Johnson"}},
		{map[string]any{"zip_code": "10001"}, []string{"Dr. Sarah Johnson", "Dr. Michael Chen"}},
		{map[string]any{"provider_name": "chen", "zip_code": "02108"}, []string{}},
	}
	for _, tc := range cases {
		res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
			Name:      tool.BuiltinGetHealthProviderDetails,
			Arguments: tc.args,
		})
		require.NoError(t, err)
		require.False(t, res.IsError, textOf(res))

		var out mcpserver.ProviderSearchResult
		decodeStructured(t, res, &out)
		names := make([]string, 0, len(out.Providers))
		for _, p := range out.Providers {
			names = append(names, p.Name)
		}
		assert.Equal(t, tc.want, names, "args=%v", tc.args)
	}
}

func TestServer_MissingRequiredArgumentIsRejected(t *testing.T) {
	t.Parallel()
	session := connect(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tool.BuiltinGetPlanBenefits,
		Arguments: map[string]any{},
	})
	if err == nil {
		assert.True(t, res.IsError, "missing plan_id should fail")
	}
}
