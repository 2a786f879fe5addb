package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/internal/cli/config"
	"github.com/leapstack-labs/leapcheck/internal/cli/testutil"
	"github.com/leapstack-labs/leapcheck/internal/kb"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// setupProject creates a test project and loads its configuration.
func setupProject(t *testing.T) string {
	t.Helper()
	project := testutil.SetupTestProject(t)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	_, err := config.LoadConfig(filepath.Join(project, "leapcheck.yaml"), nil)
	require.NoError(t, err)
	return project
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestValidateCommand_JSON(t *testing.T) {
	project := setupProject(t)

	tests := []struct {
		name      string
		file      string
		wantScore int
		wantIDs   []core.FindingID
	}{
		{"clean document", "clean.txt", 100, nil},
		{"draft document", "draft.txt", 88, []core.FindingID{core.FindingMissingApproval, core.FindingPlaceholder}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewValidateCommand(), filepath.Join(project, "docs", tt.file), "-f", "json")
			require.NoError(t, err)

			var result core.ValidationResult
			require.NoError(t, json.Unmarshal([]byte(out), &result), out)
			assert.Equal(t, tt.wantScore, result.Score)
			assert.Equal(t, tt.file, result.Meta["filename"])

			var ids []core.FindingID
			for _, f := range result.Findings {
				ids = append(ids, f.ID)
				assert.NotNil(t, f.Citation, "finding %s should be cited", f.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestValidateCommand_NoKB(t *testing.T) {
	project := setupProject(t)

	out, _, err := execute(t, NewValidateCommand(), filepath.Join(project, "docs", "draft.txt"), "-f", "json", "--no-kb")
	require.NoError(t, err)

	var result core.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotEmpty(t, result.Findings)
	for _, f := range result.Findings {
		assert.Nil(t, f.Citation)
	}
}

func TestValidateCommand_EmbeddingServiceDown(t *testing.T) {
	embeddings := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"service unavailable"}}`, http.StatusServiceUnavailable)
	}))
	defer embeddings.Close()

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LEAPCHECK_EMBEDDINGS__PROVIDER", "openai")
	t.Setenv("LEAPCHECK_EMBEDDINGS__ENDPOINT", embeddings.URL+"/v1")
	project := setupProject(t)

	out, _, err := execute(t, NewValidateCommand(), filepath.Join(project, "docs", "draft.txt"), "-f", "json")
	require.NoError(t, err)

	var result core.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, 88, result.Score)
	require.Len(t, result.Findings, 2)
	for _, f := range result.Findings {
		assert.Nil(t, f.Citation, "finding %s should be uncited", f.ID)
	}
}

func TestValidateCommand_Markdown(t *testing.T) {
	project := setupProject(t)

	out, _, err := execute(t, NewValidateCommand(), filepath.Join(project, "docs", "draft.txt"))
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	assert.Contains(t, out, "# Validation: draft.txt")
	assert.Contains(t, out, "- **Score:** 88")
	assert.Contains(t, out, "2 findings (1 critical, 1 major, 0 minor)")
	assert.Contains(t, out, "| CRITICAL |")
	assert.Contains(t, out, "Suggestion")
}

func TestValidateCommand_Text(t *testing.T) {
	project := setupProject(t)

	out, _, err := execute(t, NewValidateCommand(), filepath.Join(project, "docs", "draft.txt"), "-f", "text", "--no-fix")
	require.NoError(t, err)

	assert.Contains(t, out, "Compliance score:")
	assert.Contains(t, out, "88")
	assert.Contains(t, out, "MAJOR")
	assert.Contains(t, out, "Guideline citations")
}

func TestValidateCommand_FailUnder(t *testing.T) {
	project := setupProject(t)
	draft := filepath.Join(project, "docs", "draft.txt")

	_, _, err := execute(t, NewValidateCommand(), draft, "-f", "json", "--fail-under", "90")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScoreBelowThreshold)
	assert.Contains(t, err.Error(), "88 < 90")

	_, _, err = execute(t, NewValidateCommand(), draft, "-f", "json", "--fail-under", "88")
	assert.NoError(t, err)
}

func TestValidateCommand_Errors(t *testing.T) {
	project := setupProject(t)

	_, _, err := execute(t, NewValidateCommand(), filepath.Join(project, "docs", "missing.txt"))
	assert.Error(t, err)

	_, _, err = execute(t, NewValidateCommand(), filepath.Join(project, "leapcheck.yaml"))
	assert.ErrorContains(t, err, "unsupported file type")

	_, _, err = execute(t, NewValidateCommand(), filepath.Join(project, "docs", "draft.txt"), "-f", "xml")
	assert.ErrorContains(t, err, "invalid output format")
}

func TestParseCommand_Preview(t *testing.T) {
	project := setupProject(t)

	out, _, err := execute(t, NewParseCommand(), filepath.Join(project, "docs", "draft.txt"), "--preview", "20")
	require.NoError(t, err)

	assert.Contains(t, out, "File: draft.txt")
	assert.Contains(t, out, "Type: .txt (parser=txt)")
	assert.Contains(t, out, "--- Preview ---")
	assert.Contains(t, out, "PURPOSE")
	assert.Contains(t, out, "... (truncated) ...")
	assert.NotContains(t, out, "APPROVALS")
}

func TestParseCommand_JSON(t *testing.T) {
	project := setupProject(t)

	out, _, err := execute(t, NewParseCommand(), filepath.Join(project, "docs", "clean.txt"), "--json", "--sections")
	require.NoError(t, err)

	var doc parsedDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, testutil.SampleSOP, doc.Text+"\n")
	assert.Equal(t, "clean.txt", doc.Meta["filename"])
	require.Len(t, doc.Sections, 6)
	assert.Equal(t, "APPROVALS", doc.Sections[5].Heading)
}

func TestSectionsCommand(t *testing.T) {
	project := setupProject(t)
	path := filepath.Join(project, "docs", "clean.txt")

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, NewSectionsCommand(), path, "-f", "json")
		require.NoError(t, err)

		var sections []core.Section
		require.NoError(t, json.Unmarshal([]byte(out), &sections))
		var headings []string
		for _, s := range sections {
			headings = append(headings, s.Heading)
		}
		assert.Equal(t, []string{"PURPOSE", "SCOPE", "RESPONSIBILITIES", "PROCEDURE", "REFERENCES", "APPROVALS"}, headings)
	})

	t.Run("markdown", func(t *testing.T) {
		out, _, err := execute(t, NewSectionsCommand(), path, "-f", "markdown")
		require.NoError(t, err)
		assert.Contains(t, out, "# Sections: clean.txt")
		assert.Contains(t, out, "- **PROCEDURE:**")
	})

	t.Run("text", func(t *testing.T) {
		out, _, err := execute(t, NewSectionsCommand(), path, "-f", "text")
		require.NoError(t, err)
		assert.Contains(t, out, "6 sections in clean.txt")
		assert.Contains(t, out, "HEADING")
	})
}

func TestKBSearchCommand(t *testing.T) {
	setupProject(t)

	out, _, err := execute(t, NewKBCommand(), "search", "placeholders TBD", "-k", "1", "-f", "json")
	require.NoError(t, err)

	var matches []kb.Match
	require.NoError(t, json.Unmarshal([]byte(out), &matches), out)
	require.Len(t, matches, 1)
	assert.Equal(t, "gmp.md", filepath.Base(matches[0].Source))
	assert.NotEmpty(t, matches[0].Excerpt)
}

func TestKBListCommand(t *testing.T) {
	setupProject(t)

	out, _, err := execute(t, NewKBCommand(), "list", "-f", "json")
	require.NoError(t, err)

	var list kbListOutput
	require.NoError(t, json.Unmarshal([]byte(out), &list), out)
	assert.Contains(t, list.Embedder, "hash")
	require.Len(t, list.Files, 1)
	assert.Equal(t, "gmp.md", filepath.Base(list.Files[0].Path))
	assert.Equal(t, list.Chunks, list.Files[0].Chunks)
	assert.Positive(t, list.Chunks)

	out, _, err = execute(t, NewKBCommand(), "list", "-f", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "| File |")
}

func TestServeCommand_Flags(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	for _, name := range []string{"host", "port", "max-upload-mb", "watch"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %q should exist", name)
	}
	assert.Equal(t, "8080", cmd.Flags().Lookup("port").DefValue)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b", truncate("a\n\n b ", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "äöü...", truncate("äöüß", 3))
}

func TestPreviewText(t *testing.T) {
	got, cut := previewText("héllo", 2)
	assert.Equal(t, "hé", got)
	assert.True(t, cut)

	got, cut = previewText("hi", 10)
	assert.Equal(t, "hi", got)
	assert.False(t, cut)
}
