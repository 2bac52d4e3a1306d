package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"github.com/simonhull/firebird-suite/hatch/internal/input"
	"github.com/simonhull/firebird-suite/hatch/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var projectFiles = map[string]string{
	"go.mod":                          "module example.com/web\n\ngo 1.22\n",
	"internal/components/registry.go": "package components\n\nvar Registry = []Component{}\n",
	"package.json":                    "{\n  \"name\": \"web\",\n  \"dependencies\": {}\n}\n",
	"build.json":                      "{\n  \"defaultProject\": \"web\",\n  \"projects\": {\n    \"web\": {}\n  }\n}\n",
}

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range projectFiles {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := output.SetOutput(&buf)
	t.Cleanup(func() { output.SetOutput(prev) })

	cmd := RootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func TestGenerateComponent(t *testing.T) {
	dir := setupProject(t)

	out, err := execute(t, "generate", "component", "test", "--dir", dir, "--skip-install")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "internal/components/test/test.component.go"))
	assert.FileExists(t, filepath.Join(dir, "internal/components/test/test.component_test.go"))
	assert.Contains(t, readFile(t, dir, "internal/components/registry.go"), "test.TestComponent{},")
	assert.Contains(t, readFile(t, dir, "package.json"), `"htmx.org": "^1.9.12"`)
	assert.Contains(t, readFile(t, dir, "build.json"), "internal/components/test/test.component.css")

	assert.Contains(t, out, "Generated TestComponent")
	assert.Contains(t, out, "npm install")
	assert.NotContains(t, out, "Dependency conflict")
}

func TestGenerateComponent_ReportsConflict(t *testing.T) {
	dir := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"),
		[]byte("{\n  \"dependencies\": {\n    \"htmx.org\": \"^1.8.0\"\n  }\n}\n"), 0644))

	out, err := execute(t, "g", "component", "test", "--dir", dir, "--skip-install")
	require.NoError(t, err)

	assert.Contains(t, out, "Dependency conflict")
	assert.Contains(t, out, "htmx.org")
	assert.Contains(t, readFile(t, dir, "package.json"), `"htmx.org": "^1.8.0"`)
}

func TestGenerateComponent_DryRun(t *testing.T) {
	dir := setupProject(t)

	out, err := execute(t, "generate", "component", "nav-bar", "--dir", dir, "--dry-run", "--diff")
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(dir, "internal/components/nav-bar"))
	for name, content := range projectFiles {
		assert.Equal(t, content, readFile(t, dir, name), name)
	}
	assert.Contains(t, out, "nothing was written")
	assert.Contains(t, out, "+type NavBarComponent struct{}")
}

func TestGenerateComponent_SpecFlag(t *testing.T) {
	dir := setupProject(t)

	_, err := execute(t, "generate", "component", "card", "--dir", dir, "--skip-install", "--spec=false", "--path", "web/ui")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "web/ui/card/card.component.go"))
	assert.NoFileExists(t, filepath.Join(dir, "web/ui/card/card.component_test.go"))
}

func TestGenerateComponent_ExistingFileCollides(t *testing.T) {
	dir := setupProject(t)
	_, err := execute(t, "generate", "component", "test", "--dir", dir, "--skip-install")
	require.NoError(t, err)
	registry := readFile(t, dir, "internal/components/registry.go")

	_, err = execute(t, "generate", "component", "test", "--dir", dir, "--skip-install")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.Collision)
	assert.Equal(t, registry, readFile(t, dir, "internal/components/registry.go"))
}

func TestGenerateEmpty(t *testing.T) {
	dir := setupProject(t)

	out, err := execute(t, "generate", "empty", "--dir", dir)
	require.NoError(t, err)

	for name, content := range projectFiles {
		assert.Equal(t, content, readFile(t, dir, name), name)
	}
	assert.Contains(t, out, "Nothing to generate")
	assert.NotContains(t, out, "npm install")
}

// withTerminal simulates an interactive terminal answering with answers.
func withTerminal(t *testing.T, answers string) *bytes.Buffer {
	t.Helper()
	var prompts bytes.Buffer
	origInteractive, origPrompter := isInteractive, prompter
	isInteractive = func() bool { return true }
	p := input.New(strings.NewReader(answers), &prompts)
	prompter = func() *input.Prompter { return p }
	t.Cleanup(func() { isInteractive, prompter = origInteractive, origPrompter })
	return &prompts
}

func TestGenerateComponent_PromptsForName(t *testing.T) {
	dir := setupProject(t)
	prompts := withTerminal(t, "card\nn\n")

	_, err := execute(t, "generate", "component", "--dir", dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "internal/components/card/card.component.go"))
	assert.Contains(t, prompts.String(), "Component name")
}

func TestGenerateComponent_InstallDeclined(t *testing.T) {
	dir := setupProject(t)
	prompts := withTerminal(t, "n\n")

	out, err := execute(t, "generate", "component", "test", "--dir", dir)
	require.NoError(t, err)

	assert.Contains(t, prompts.String(), "Run npm install now?")
	assert.Contains(t, out, "Next steps")
	assert.Contains(t, out, "npm install")
	assert.NoDirExists(t, filepath.Join(dir, "node_modules"))
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		kind error
	}{
		{"invalid name", []string{"generate", "component", "1st"}, errs.Validation},
		{"bad set", []string{"generate", "component", "test", "--set", "oops"}, errs.Validation},
		{"conflicting strategies", []string{"generate", "component", "test", "--force", "--skip"}, errs.Validation},
		{"skip with diff", []string{"generate", "component", "test", "--skip", "--diff"}, errs.Validation},
		{"missing declaring module", []string{"generate", "component", "test", "--module", "web/none"}, errs.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupProject(t)
			args := append(tt.args, "--dir", dir, "--skip-install")

			_, err := execute(t, args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.NoDirExists(t, filepath.Join(dir, "internal/components/test"))
		})
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hatch v")
}
