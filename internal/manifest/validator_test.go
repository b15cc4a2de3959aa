package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentx-labs/atm/internal/fault"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestValidate_ValidManifests(t *testing.T) {
	validFiles := []string{
		"valid-docker.toml",
		"valid-docker-defaults.toml",
		"valid-local.toml",
		"valid-no-backend.toml",
	}

	for _, file := range validFiles {
		t.Run(file, func(t *testing.T) {
			data, err := os.ReadFile(testPath(file))
			if err != nil {
				t.Fatal(err)
			}
			result, err := Validate(data)
			if err != nil {
				t.Fatalf("Validate(%s) error: %v", file, err)
			}
			if !result.Valid {
				t.Errorf("expected valid, got invalid with %d issues:", len(result.Issues))
				for _, issue := range result.Issues {
					t.Errorf("  path=%s keyword=%s message=%s", issue.Path, issue.Keyword, issue.Message)
				}
			}
		})
	}
}

func TestValidate_IssueFields(t *testing.T) {
	data, err := os.ReadFile(testPath("invalid-zero-replica.toml"))
	if err != nil {
		t.Fatal(err)
	}
	result, err := Validate(data)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}

	found := false
	for _, issue := range result.Issues {
		if issue.Path == "/backend/max_replica" && issue.Keyword == "minimum" {
			found = true
			if issue.Message == "" {
				t.Error("issue message should not be empty")
			}
		}
	}
	if !found {
		t.Errorf("expected a minimum issue at /backend/max_replica, got %+v", result.Issues)
	}
}

func TestValidate_NotTOML(t *testing.T) {
	if _, err := Validate([]byte("[backend\n")); err == nil {
		t.Fatal("expected error for invalid TOML, got nil")
	}
}

func TestParseDir_NotFound(t *testing.T) {
	_, err := ParseDir(t.TempDir())
	var ioErr *fault.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("ParseDir error = %v, want *fault.IOError", err)
	}
}

func TestParseDir_DefaultBackend(t *testing.T) {
	root := t.TempDir()
	writeFile(t, PathIn(root), "[endpoint]\npath = \"/\"\nprotocol = \"MCP\"\n")

	m, err := ParseDir(root)
	if err != nil {
		t.Fatalf("ParseDir: %v", err)
	}
	if m.Config.Backend != DefaultBackend() {
		t.Errorf("backend = %#v, want default", m.Config.Backend)
	}
}

func TestValidate_IssuesSorted(t *testing.T) {
	data := []byte(`[backend]
type = "Docker"
max_replica = 0

[endpoint]
path = "/mcp"
protocol = "HTTP"
`)
	result, err := Validate(data)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}

	var paths []string
	for _, issue := range result.Issues {
		paths = append(paths, issue.Path)
	}
	want := []string{"/backend/max_replica", "/endpoint/protocol"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("issue paths = %v, want %v", paths, want)
	}
}

func TestValidationIssueString(t *testing.T) {
	if got := (ValidationIssue{Path: "/a", Message: "bad"}).String(); got != "/a: bad" {
		t.Errorf("String() = %q", got)
	}
	if got := (ValidationIssue{Message: "bad"}).String(); got != "bad" {
		t.Errorf("String() = %q", got)
	}
}
