package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ragmail/internal/domain"
)

const testThread = `Could you send me the submission deadline for the grant report?

On Mon, Apr 7, 2025 at 5:24 PM Jane Doe <jane@example.com> wrote:
> The brief is attached.`

const testBrief = `The grant report must be submitted before the deadline on 30 May.

Parking is available behind the main building on weekends.

The cafeteria menu changes every Tuesday.`

// setup writes a config, persona, thread and brief into a temp dir and starts a fake
// chat completions server that answers with reply.
func setup(t *testing.T, reply string) (dir string, prompts *[]string) {
	t.Helper()
	dir = t.TempDir()
	prompts = new([]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 {
			*prompts = append(*prompts, req.Messages[0].Content)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	t.Setenv("RAGMAIL_TEST_KEY", "test-key")

	files := map[string]string{
		"ragmail.yaml": fmt.Sprintf(`openai:
  base_url: %s
  api_key_env: RAGMAIL_TEST_KEY
embedder:
  type: hashing
chunker:
  chunk_size: 80
  chunk_overlap: 10
vector_store:
  type: sqlite
  path: %s
persona:
  path: %s
run_log:
  path: %s
`, srv.URL, filepath.Join(dir, "index.db"), filepath.Join(dir, "persona.json"), filepath.Join(dir, "log.json")),
		"persona.json": `{"tone": "warm", "phrases": ["Happy to help"], "signoff": "Best,\nSwagath"}`,
		"thread.txt":   testThread,
		"brief.txt":    testBrief,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir, prompts
}

func resetFlags() {
	cfgFile, verbose = "", false
	replyPDF, replyPersona, replyModel = "", "", ""
	replyReview, replyNoLog, replyEML, replyUseIndex = false, false, false, false
	queryK, historyN = 4, 10
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("ragmail %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestReplyWithDocumentAndHistory(t *testing.T) {
	dir, prompts := setup(t, "Hi Jane, the deadline is 30 May.")
	cfgPath := filepath.Join(dir, "ragmail.yaml")

	out := run(t, "reply", "--config", cfgPath, "--pdf", filepath.Join(dir, "brief.txt"), filepath.Join(dir, "thread.txt"))
	for _, want := range []string{"Indexed", "Could you send me the submission deadline", "Retrieved", "--- GENERATED EMAIL RESPONSE ---", "Hi Jane, the deadline is 30 May."} {
		if !strings.Contains(out, want) {
			t.Errorf("reply output missing %q:\n%s", want, out)
		}
	}
	if len(*prompts) != 1 || !strings.Contains((*prompts)[0], "deadline on 30 May") {
		t.Errorf("prompt did not carry the document context: %q", *prompts)
	}

	out = run(t, "history", "--config", cfgPath, "-n", "5")
	if !strings.Contains(out, "gpt-3.5-turbo") || !strings.Contains(out, "Hi Jane, the deadline is 30 May.") {
		t.Errorf("history output:\n%s", out)
	}
}

func TestReplyNoLog(t *testing.T) {
	dir, _ := setup(t, "Thanks!")
	cfgPath := filepath.Join(dir, "ragmail.yaml")
	out := run(t, "reply", "--config", cfgPath, "--no-log", filepath.Join(dir, "thread.txt"))
	if !strings.Contains(out, "No document context") {
		t.Errorf("reply output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "log.json")); !os.IsNotExist(err) {
		t.Errorf("run log written with --no-log: %v", err)
	}
}

func TestIndexThenQuery(t *testing.T) {
	dir, _ := setup(t, "")
	cfgPath := filepath.Join(dir, "ragmail.yaml")
	out := run(t, "index", "--config", cfgPath, filepath.Join(dir, "brief.txt"))
	if !strings.Contains(out, "Indexed") || !strings.Contains(out, "Summary:") {
		t.Errorf("index output:\n%s", out)
	}
	out = run(t, "query", "--config", cfgPath, "-k", "1", "cafeteria", "menu")
	if !strings.Contains(out, "3 chunks, embedder hashing/512") {
		t.Errorf("query output lacks the index description:\n%s", out)
	}
	if !strings.Contains(out, "cafeteria menu") || strings.Contains(out, "#2") {
		t.Errorf("query output:\n%s", out)
	}
}

func TestExecutePrintsErrors(t *testing.T) {
	dir, _ := setup(t, "")
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"reply", "--config", filepath.Join(dir, "ragmail.yaml"), filepath.Join(dir, "missing.txt")})
	Execute(context.Background())
	if !strings.Contains(out.String(), "Error:") {
		t.Errorf("output = %q, want an Error: line", out.String())
	}
}

func TestReplyEmptyThread(t *testing.T) {
	dir, prompts := setup(t, "unused")
	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"reply", "--config", filepath.Join(dir, "ragmail.yaml"), empty})
	err := rootCmd.ExecuteContext(context.Background())
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	if len(*prompts) != 0 {
		t.Errorf("generator called for an empty thread")
	}
}
