package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/querydeck/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitCommand(t *testing.T) {
	tests := []struct {
		name      string
		setupDir  func(t *testing.T, dir string)
		args      []string
		wantErr   bool
		wantFiles []string
	}{
		{
			name: "init empty directory",
			args: []string{},
			wantFiles: []string{
				"querydeck.yaml",
				"queries.json",
				"data/raw_sales_data.csv",
				".gitignore",
			},
		},
		{
			name: "init existing config without force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "querydeck.yaml"), []byte("existing"), 0o600)
			},
			args:    []string{},
			wantErr: true,
		},
		{
			name: "init existing config with force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "querydeck.yaml"), []byte("existing"), 0o600)
			},
			args:      []string{"--force"},
			wantFiles: []string{"querydeck.yaml", "queries.json"},
		},
		{
			name:      "init into new directory",
			args:      []string{"demo"},
			wantFiles: []string{"demo/querydeck.yaml", "demo/queries.json", "demo/data/raw_sales_data.csv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			t.Chdir(tmpDir)

			if tt.setupDir != nil {
				tt.setupDir(t, tmpDir)
			}

			cmd := NewInitCommand()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, buf.String(), "querydeck project initialized")

			for _, f := range tt.wantFiles {
				_, err := os.Stat(filepath.Join(tmpDir, f))
				assert.False(t, os.IsNotExist(err), "expected file %q to exist", f)
			}
		})
	}
}

func TestInitCommandMetadata(t *testing.T) {
	cmd := NewInitCommand()

	assert.Equal(t, "init [directory]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("force"), "--force flag should exist")
}

func TestInitCreatesValidProject(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	cmd := NewInitCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	require.NoError(t, cmd.Execute())

	content, err := os.ReadFile("querydeck.yaml")
	require.NoError(t, err, "failed to read querydeck.yaml")
	for _, expected := range []string{"catalog: queries.json", "type: sqlite", "state_path:"} {
		assert.Contains(t, string(content), expected, "config should contain %q", expected)
	}

	store, err := catalog.Load(filepath.Join(tmpDir, "queries.json"), nil)
	require.NoError(t, err)
	for _, name := range []string{"monthly_sales", "top_products", "top_customers", "sales_by_city", "product_category_analysis"} {
		_, err := store.Lookup(name)
		assert.NoError(t, err, "catalog should define %q", name)
	}
}

func TestInitKeepsExistingFilesWithoutForce(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	require.NoError(t, os.WriteFile("queries.json", []byte(`{}`), 0o600))

	cmd := NewInitCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	require.NoError(t, cmd.Execute())

	content, err := os.ReadFile("queries.json")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(content))
	assert.NotContains(t, buf.String(), "created queries.json")
}
