package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/executor"
)

const sampleCorpus = `documents:
  - id: us-const
    title: United States Constitution
    authorityLevel: federal
    type: constitution
  - id: ca-const
    title: California Constitution
    authorityLevel: state
    type: constitution
sections:
  - id: us-amend-5
    documentId: us-const
    title: Due Process
    number: "V"
    order: 5
    text: No person shall be deprived of life, liberty, or property, without due process of law.
  - id: ca-art-1-13
    documentId: ca-const
    title: Search and Seizure
    number: "13"
    order: 13
    text: The right of the people to be secure against unreasonable seizures and searches may not be violated.
`

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSearchCommand_JSON(t *testing.T) {
	path := writeCorpus(t, sampleCorpus)
	out, err := execute(t, "--corpus", path, "search", "due", "process", "--format", "json")
	require.NoError(t, err)

	var res executor.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "due process", res.Query)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "us-amend-5", res.Results[0].Section.ID)
	assert.Contains(t, res.Results[0].MatchedText, "due process")
}

func TestSearchCommand_TextAndFilters(t *testing.T) {
	path := writeCorpus(t, sampleCorpus)

	out, err := execute(t, "--corpus", path, "search", "searches", "--authority", "state")
	require.NoError(t, err)
	assert.Contains(t, out, "ca-art-1-13")
	assert.Contains(t, out, "1 of 1 matching sections")

	out, err = execute(t, "--corpus", path, "search", "liberty", "--authority", "state")
	require.NoError(t, err)
	assert.Contains(t, out, `No results for "liberty"`)

	_, err = execute(t, "--corpus", path, "search", "liberty", "--authority", "county")
	assert.Error(t, err)
	_, err = execute(t, "--corpus", path, "search", "liberty", "--format", "xml")
	assert.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	path := writeCorpus(t, sampleCorpus)
	out, err := execute(t, "--corpus", path, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "documents")
	assert.Contains(t, out, "orphaned sections")
	assert.Contains(t, out, "fingerprint")
	assert.NotContains(t, out, "SECTIONS")

	out, err = execute(t, "--corpus", path, "stats", "--top-terms", "2")
	require.NoError(t, err)
	_, terms, found := strings.Cut(out, "SECTIONS")
	require.True(t, found, out)
	var rows [][]string
	for _, line := range strings.Split(terms, "\n") {
		if f := strings.Fields(line); len(f) == 2 {
			rows = append(rows, f)
		}
	}
	// "be" and "of" are the only terms in both sections.
	assert.Equal(t, [][]string{{"be", "2"}, {"of", "2"}}, rows)
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "--corpus", writeCorpus(t, sampleCorpus), "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "corpus ok: 2 documents, 2 sections")

	broken := sampleCorpus + `  - id: orphan
    documentId: missing-doc
    title: Lost
    text: nobody owns this section
`
	out, err = execute(t, "--corpus", writeCorpus(t, broken), "validate")
	require.Error(t, err)
	assert.Contains(t, out, "sections[2].documentId")
}

func TestSearchCommand_MissingCorpus(t *testing.T) {
	_, err := execute(t, "--corpus", filepath.Join(t.TempDir(), "absent.yaml"), "search", "law")
	assert.Error(t, err)
}
