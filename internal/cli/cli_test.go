package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	resultgrid "github.com/kailas-cloud/resultgrid/pkg/sdk"
)

const ordersEnvelope = `{
	"total": 2,
	"entityDefinitions": [{"name": "Order", "primaryKey": "orderId"}],
	"results": [
		{
			"uri": "/orders/10.json",
			"format": "json",
			"createdOn": "2021-03-04T05:06:07Z",
			"primaryKey": {"propertyPath": "orderId", "propertyValue": "10"},
			"entityName": "Order",
			"entityProperties": {"Order": {"orderId": "10", "total": 99.5, "lines": [
				{"Line": {"sku": "A", "qty": 1}},
				{"Line": {"sku": "B", "qty": 2}}
			]}}
		},
		{
			"uri": "/orders/11.json",
			"format": "json",
			"createdOn": "2021-03-05T05:06:07Z",
			"primaryKey": {"propertyPath": "orderId", "propertyValue": "11"},
			"entityName": "Order",
			"entityProperties": {"Order": {"orderId": "11", "total": 12, "lines": [
				{"Line": {"sku": "C", "qty": 5}}
			]}}
		}
	]
}`

// --- Helpers ---

func writeEnvelope(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, []byte(ordersEnvelope), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("ENV", "local")
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// --- Tests ---

func TestCommandMetadata(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"render", "detail", "settings", "version"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{name})
			if err != nil || cmd == root {
				t.Fatalf("command %q not registered: %v", name, err)
			}
			if cmd.Short == "" {
				t.Error("Short should not be empty")
			}
			if name != "version" && (cmd.Long == "" || cmd.Example == "") {
				t.Error("Long and Example should not be empty")
			}
		})
	}
}

func TestRender_AllEntitiesTable(t *testing.T) {
	out, _, err := execute(t, "", "render", writeEnvelope(t))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Identifier", "Entity", "Detail View", "(2 rows, 2 records)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "IDENTIFIER") {
		t.Errorf("header titles must keep their case:\n%s", out)
	}
}

func TestRender_JSONFromStdin(t *testing.T) {
	out, _, err := execute(t, ordersEnvelope, "render", "-", "--entity", "Order", "-f", "json")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var v resultgrid.View
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if v.AllEntities || len(v.Rows) != 3 || v.Records != 2 {
		t.Fatalf("view: allEntities=%v rows=%d records=%d", v.AllEntities, len(v.Rows), v.Records)
	}
	if v.Rows[0].Span("lines.sku") != 2 || v.Rows[1].Span("lines.sku") != 0 || v.Rows[2].Span("lines.sku") != 1 {
		t.Errorf("sku spans = %d/%d/%d", v.Rows[0].Span("lines.sku"), v.Rows[1].Span("lines.sku"), v.Rows[2].Span("lines.sku"))
	}
}

func TestRender_NestedExpand(t *testing.T) {
	out, _, err := execute(t, "", "render", writeEnvelope(t), "-e", "Order", "--expand", "10", "-f", "md")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"lines", "sku", "orderId = 10", "| Property |"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "orderId = 11") {
		t.Errorf("collapsed record rendered a detail table:\n%s", out)
	}
}

func TestRender_Errors(t *testing.T) {
	path := writeEnvelope(t)
	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"render", filepath.Join(t.TempDir(), "nope.json")}},
		{"unknown format", []string{"render", path, "-f", "xml"}},
		{"no args", []string{"render"}},
		{"unknown record", []string{"render", path, "-e", "Order", "--expand", "99"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := execute(t, "", tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRender_InvalidEnvelope(t *testing.T) {
	if _, _, err := execute(t, `{"results": 5}`, "render", "-"); err == nil {
		t.Fatal("expected error for invalid envelope")
	}
}

func TestDetail(t *testing.T) {
	out, _, err := execute(t, "", "detail", writeEnvelope(t), "10", "-e", "Order", "-f", "json")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	var items []resultgrid.DetailItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(items) != 3 || items[2].Property != "lines" || len(items[2].Children) != 2 {
		t.Errorf("items = %+v", items)
	}

	table, _, err := execute(t, "", "detail", writeEnvelope(t), "10", "-e", "Order")
	if err != nil {
		t.Fatalf("detail table: %v", err)
	}
	for _, want := range []string{"Property", "Value", "View", "  sku"} {
		if !strings.Contains(table, want) {
			t.Errorf("detail table missing %q:\n%s", want, table)
		}
	}
	if strings.Contains(table, "PROPERTY") {
		t.Errorf("header titles must keep their case:\n%s", table)
	}

	if _, _, err := execute(t, "", "detail", writeEnvelope(t), "404", "-e", "Order"); err == nil {
		t.Error("expected error for unknown record")
	}
}

func TestSettings(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		stdin     string
		check     func(t *testing.T, a map[string]any)
		wantDirty bool
	}{
		{
			name: "mapping defaults",
			args: []string{"settings", "--step", "mapping"},
			check: func(t *testing.T, a map[string]any) {
				if a["sourceDatabase"] != "data-hub-STAGING" || a["targetFormat"] != "JSON" {
					t.Errorf("artifact = %v", a)
				}
			},
		},
		{
			name:      "edit over saved artifact",
			args:      []string{"settings", "--step", "matching", "--artifact", "-", "--set", "targetDatabase=data-hub-STAGING"},
			stdin:     `{"sourceDatabase": "data-hub-FINAL", "headers": {"a": 1}}`,
			wantDirty: true,
			check: func(t *testing.T, a map[string]any) {
				if a["sourceDatabase"] != "data-hub-FINAL" || a["targetDatabase"] != "data-hub-STAGING" {
					t.Errorf("artifact = %v", a)
				}
				if h, ok := a["headers"].(map[string]any); !ok || h["a"] != float64(1) {
					t.Errorf("headers = %v", a["headers"])
				}
			},
		},
		{
			name:      "invalid json text kept",
			args:      []string{"settings", "--step", "custom", "--set", "customHook={broken"},
			wantDirty: true,
			check: func(t *testing.T, a map[string]any) {
				if a["customHook"] != "{broken" {
					t.Errorf("customHook = %v", a["customHook"])
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, err := execute(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("settings: %v", err)
			}
			var a map[string]any
			if err := json.Unmarshal([]byte(out), &a); err != nil {
				t.Fatalf("decode: %v\n%s", err, out)
			}
			tt.check(t, a)
			if got := strings.Contains(errOut, "unsaved changes"); got != tt.wantDirty {
				t.Errorf("dirty notice = %v, want %v (stderr %q)", got, tt.wantDirty, errOut)
			}
		})
	}
}

func TestSettings_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"settings"},
		{"settings", "--step", "deploy"},
		{"settings", "--step", "mapping", "--set", "noequals"},
		{"settings", "--step", "mapping", "--set", "color=red"},
	} {
		if _, _, err := execute(t, "", args...); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "gridctl ") {
		t.Errorf("version output = %q", out)
	}
}
