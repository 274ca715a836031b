package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/humcp/humcp/internal/registry"
	"github.com/humcp/humcp/internal/schema"
	"github.com/humcp/humcp/internal/skills"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder()

	descriptors := []schema.Descriptor{
		{
			Name:     "calc_add",
			Category: "local",
			Summary:  "Add two integers",
			Params: schema.Params{
				{Name: "a", Type: schema.TypeInteger, Required: true},
				{Name: "b", Type: schema.TypeInteger, Required: true},
			},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				return args["a"].(int64) + args["b"].(int64), nil
			},
		},
		{
			Name:     "greet",
			Category: "local",
			Summary:  "Greet someone",
			Params: schema.Params{
				{Name: "name", Type: schema.TypeString, Default: "world"},
			},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				return "hello " + args["name"].(string), nil
			},
		},
		{
			Name:     "boom",
			Category: "broken",
			Summary:  "Always fails",
			Handler: func(_ context.Context, _ map[string]any) (any, error) {
				return nil, errors.New("secret internal detail")
			},
		},
		{
			Name:     "kaboom",
			Category: "broken",
			Summary:  "Always panics",
			Handler: func(_ context.Context, _ map[string]any) (any, error) {
				panic("unreachable state")
			},
		},
	}
	for _, d := range descriptors {
		if err := b.Register(d); err != nil {
			t.Fatal(err)
		}
	}
	return b.Build()
}

func newTestServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := New(0, token, testRegistry(t), skills.NewStore(t.TempDir()))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) schema.Envelope {
	t.Helper()
	var env schema.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("response is not an envelope: %v", err)
	}
	return env
}

func TestInvokeSuccess(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/tools/calc_add", `{"a": 2, "b": 3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if !env.Success || env.Data != float64(5) {
		t.Errorf("envelope = %+v, want success with data 5", env)
	}
}

func TestInvokeMissingRequired(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/tools/calc_add", `{"a": 2}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Errors  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Success {
		t.Error("success must be false")
	}
	if len(body.Errors) != 1 || body.Errors[0].Field != "b" {
		t.Fatalf("errors = %v", body.Errors)
	}
	if !strings.Contains(body.Errors[0].Message, "missing required") {
		t.Errorf("message = %q", body.Errors[0].Message)
	}
}

func TestInvokeRejectsFractionalInteger(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/tools/calc_add", `{"a": 2.5, "b": 3}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestInvokeAcceptsIntegralFloat(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/tools/calc_add", `{"a": 2.0, "b": 3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Data != float64(5) {
		t.Errorf("data = %v", env.Data)
	}
}

func TestInvokeUnknownKey(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/tools/calc_add", `{"a": 1, "b": 2, "c": 3}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if !strings.Contains(env.Error, "c") {
		t.Errorf("error should name the unknown key: %q", env.Error)
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/tools/calc_mul", `{"a": 1, "b": 2}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Success || !strings.Contains(env.Error, "calc_mul") {
		t.Errorf("envelope = %+v", env)
	}
}

func TestInvokeDefaultsApplied(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/tools/greet", ``)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Data != "hello world" {
		t.Errorf("data = %v", env.Data)
	}
}

func TestInvokeHandlerErrorIsOpaque(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/tools/boom", `{}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Error != "tool execution failed" {
		t.Errorf("error = %q, want generic message", env.Error)
	}
	if strings.Contains(env.Error, "secret") {
		t.Error("internal error detail leaked to the caller")
	}
}

func TestInvokeHandlerPanicIsCaught(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/tools/kaboom", `{}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Success || env.Error != "tool execution failed" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestInvokeMalformedJSON(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/tools/calc_add", `{"a": `)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Errorf("envelope = %+v", env)
	}
}

func TestListTools(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/tools")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Fatalf("envelope = %+v", env)
	}

	data := env.Data.(map[string]any)
	if data["total_tools"] != float64(4) {
		t.Errorf("total_tools = %v", data["total_tools"])
	}
	categories := data["categories"].(map[string]any)
	local := categories["local"].(map[string]any)
	if local["count"] != float64(2) {
		t.Errorf("local count = %v", local["count"])
	}
}

func TestCategoryListing(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/tools/local")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]any)
	tools := data["tools"].([]any)
	if len(tools) != 2 {
		t.Fatalf("tools = %v", tools)
	}
	first := tools[0].(map[string]any)
	if first["name"] != "calc_add" || first["endpoint"] != "/tools/calc_add" {
		t.Errorf("first tool = %v", first)
	}
}

func TestCategoryNotFound(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/tools/ghost")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Success {
		t.Error("404 body must still be a failure envelope")
	}
}

func TestToolInfo(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/tools/local/calc_add")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]any)
	if data["name"] != "calc_add" || data["category"] != "local" {
		t.Errorf("data = %v", data)
	}
	inputSchema := data["input_schema"].(map[string]any)
	if inputSchema["type"] != "object" {
		t.Errorf("input_schema = %v", inputSchema)
	}
	required := inputSchema["required"].([]any)
	if len(required) != 2 {
		t.Errorf("required = %v", required)
	}
}

func TestToolInfoWrongCategory(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/tools/broken/calc_add")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("tool served under the wrong category: status = %d", resp.StatusCode)
	}
}

func TestMCPTools(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/mcp/tools")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	env := decodeEnvelope(t, resp)
	tools := env.Data.(map[string]any)["tools"].([]any)
	if len(tools) != 4 {
		t.Fatalf("tools = %v", tools)
	}
	first := tools[0].(map[string]any)
	if _, ok := first["inputSchema"]; !ok {
		t.Error("tool entries must carry inputSchema")
	}
}

func TestMCPCall(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/mcp/call", `{"name": "calc_add", "arguments": {"a": 4, "b": 6}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if !env.Success || env.Data != float64(10) {
		t.Errorf("envelope = %+v", env)
	}
}

func TestMCPCallNullArguments(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/mcp/call", `{"name": "greet", "arguments": null}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Data != "hello world" {
		t.Errorf("data = %v", env.Data)
	}
}

func TestMCPCallUnknownTool(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/mcp/call", `{"name": "nope", "arguments": {}}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestMCPAuth(t *testing.T) {
	ts := newTestServer(t, "sekrit")

	t.Run("missing token rejected", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/mcp/tools")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("bearer token accepted", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/mcp/tools", nil)
		req.Header.Set("Authorization", "Bearer sekrit")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("rest surface stays open", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/tools")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	})
}

func TestRootIndex(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]any)
	if data["name"] != "humcp" || data["tools_count"] != float64(4) {
		t.Errorf("data = %v", data)
	}
}
