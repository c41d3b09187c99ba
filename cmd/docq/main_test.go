package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		stdin      string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "find",
			stdin:      `{"a":1} {"a":2}`,
			args:       []string{"find", "--query", `{"a":{"$gt":1}}`},
			wantCode:   0,
			wantStdout: "{\"a\":2}\n",
		},
		{
			name:       "find_select_limit",
			stdin:      `{"a":{"b":1}} {"a":{"b":2}}`,
			args:       []string{"find", "--select", "$.a", "--limit", "1"},
			wantCode:   0,
			wantStdout: "{\"b\":1}\n",
		},
		{
			name:       "update",
			stdin:      `{"a":1}`,
			args:       []string{"update", "-u", `{"$set":{"b":true}}`},
			wantCode:   0,
			wantStdout: "{\"a\":1,\"b\":true}\n",
		},
		{
			name:       "update_diff",
			stdin:      `{"a":1} {"a":2}`,
			args:       []string{"update", "-q", `{"a":2}`, "-u", `{"$unset":{"a":""}}`, "--diff"},
			wantCode:   0,
			wantStdout: "{\"after\":{},\"before\":{\"a\":2}}\n",
		},
		{
			name:       "validate_failure",
			stdin:      `{"a":1} {"b":1}`,
			args:       []string{"validate", "--schema", `{"required":["a"]}`},
			wantCode:   1,
			wantStdout: "{\"b\":1}\n",
			wantStderr: "Error: 1 document(s) failed validation\n",
		},
		{
			name:     "validate_success",
			stdin:    `{"a":1}`,
			args:     []string{"validate", "--schema", `{"required":["a"]}`},
			wantCode: 0,
		},
		{
			name:       "invalid_operand",
			stdin:      `{"a":1}`,
			args:       []string{"find", "-q", `{"a":{"$in":"x"}}`},
			wantCode:   2,
			wantStderr: "Error: compile query: invalid operand: $in: expected array, got string\n",
		},
		{
			name:     "missing_required_flag",
			args:     []string{"update"},
			wantCode: 2,
		},
		{
			name:     "unknown_flag",
			args:     []string{"find", "--nope"},
			wantCode: 2,
		},
		{
			name:     "invalid_log_level",
			args:     []string{"find", "--log-level", "loud"},
			wantCode: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, stdout, stderr := runCLI(t, tt.stdin, tt.args...)
			if code != tt.wantCode {
				t.Fatalf("run() exitCode = %d, want %d (stderr %q)", code, tt.wantCode, stderr)
			}
			if stdout != tt.wantStdout {
				t.Fatalf("run() stdout = %q, want %q", stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && stderr != tt.wantStderr {
				t.Fatalf("run() stderr = %q, want %q", stderr, tt.wantStderr)
			}
		})
	}
}

func TestRunReadsFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	docs := filepath.Join(dir, "docs.yaml")
	query := filepath.Join(dir, "query.yaml")
	if err := os.WriteFile(docs, []byte("name: ann\nage: 30\n---\nname: bob\nage: 12\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(query, []byte("age:\n  $gte: 18\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	code, stdout, stderr := runCLI(t, "", "find", "--query", query, docs)
	if code != 0 {
		t.Fatalf("run() exitCode = %d, want 0 (stderr %q)", code, stderr)
	}
	if want := "{\"age\":30,\"name\":\"ann\"}\n"; stdout != want {
		t.Fatalf("run() stdout = %q, want %q", stdout, want)
	}
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "docq.yaml")
	if err := os.WriteFile(path, []byte("limit: 1\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	code, stdout, _ := runCLI(t, `{"a":1} {"a":2}`, "find", "--config", path)
	if code != 0 {
		t.Fatalf("run() exitCode = %d, want 0", code)
	}
	if want := "{\"a\":1}\n"; stdout != want {
		t.Fatalf("run() stdout = %q, want %q", stdout, want)
	}
}

func TestRunEnvironment(t *testing.T) {
	t.Setenv("DOCQ_LIMIT", "1")

	code, stdout, _ := runCLI(t, `{"a":1} {"a":2}`, "find")
	if code != 0 {
		t.Fatalf("run() exitCode = %d, want 0", code)
	}
	if want := "{\"a\":1}\n"; stdout != want {
		t.Fatalf("run() stdout = %q, want %q", stdout, want)
	}
}
