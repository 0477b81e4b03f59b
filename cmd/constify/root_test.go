package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOracleServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRootCmd_DryRunEndToEnd(t *testing.T) {
	t.Setenv("API_KEY", "")

	root := t.TempDir()
	eligible := filepath.Join(root, "Main.java")
	require.NoError(t, os.WriteFile(eligible, []byte(`String s = "hi";`), 0644))
	skipped := filepath.Join(root, "Empty.java")
	require.NoError(t, os.WriteFile(skipped, []byte("int x;"), 0644))

	srv := newOracleServer(t, "// rewritten\n")

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--root", root,
		"--endpoint", srv.URL,
		"--dry-run",
		"--quiet",
		"--workers", "2",
	})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	// eligible file got a sibling, original untouched
	got, err := os.ReadFile(eligible + ".new")
	require.NoError(t, err)
	assert.Equal(t, "// rewritten\n", string(got))

	original, err := os.ReadFile(eligible)
	require.NoError(t, err)
	assert.Equal(t, `String s = "hi";`, string(original))

	// skipped file produced nothing
	_, err = os.Stat(skipped + ".new")
	assert.True(t, os.IsNotExist(err))
}

func TestRootCmd_FailurePropagatesNonzero(t *testing.T) {
	t.Setenv("API_KEY", "")

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Main.java"), []byte(`String s = "hi";`), 0644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--root", root,
		"--endpoint", srv.URL,
		"--dry-run",
		"--quiet",
	})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 files failed")
}

func TestRootCmd_RequiresRoot(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--quiet"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root is required")
}

func TestRootCmd_FlagOverridesConfigFile(t *testing.T) {
	t.Setenv("API_KEY", "")

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Main.java"), []byte(`String s = "hi";`), 0644))

	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel = body.Model

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "// done\n"}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)

	cfgPath := filepath.Join(t.TempDir(), "constify.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"root: "+root+"\nmodel: file-model\ndry_run: true\nendpoint: "+srv.URL+"\n",
	), 0644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--config", cfgPath,
		"--model", "flag-model",
		"--quiet",
	})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, "flag-model", gotModel, "explicit flag must beat the config file")
}

func TestRootCmd_BackupPolicyEndToEnd(t *testing.T) {
	t.Setenv("API_KEY", "")

	root := t.TempDir()
	path := filepath.Join(root, "Main.java")
	original := `String s = "hi";`
	require.NoError(t, os.WriteFile(path, []byte(original), 0644))

	srv := newOracleServer(t, "// rewritten\n")

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--root", root,
		"--endpoint", srv.URL,
		"--backup",
		"--quiet",
	})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "// rewritten\n", string(got))

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, original, string(bak))
}
