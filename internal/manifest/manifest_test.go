package manifest

import (
	"testing"

	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basePackageJSON = `{
  "name": "web",
  "dependencies": {
    "htmx.org": "^1.9.0"
  }
}
`

func TestMerge_AddsMissing(t *testing.T) {
	m, err := Open("package.json", []byte(basePackageJSON))
	require.NoError(t, err)

	result, err := Merge(m, []Dependency{
		{Name: "alpinejs", Version: "^3.13.0"},
		{Name: "esbuild", Version: "^0.20.0", Kind: Dev},
	}, PolicyExact)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Empty(t, result.Conflicts)
	assert.Len(t, result.Added, 2)
	assert.Equal(t, Runtime, result.Added[0].Kind)

	out, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, `{
  "name": "web",
  "dependencies": {
    "htmx.org": "^1.9.0",
    "alpinejs": "^3.13.0"
  },
  "devDependencies": {
    "esbuild": "^0.20.0"
  }
}
`, string(out))
}

func TestMerge_EqualVersionIsNoop(t *testing.T) {
	m, err := Open("package.json", []byte(basePackageJSON))
	require.NoError(t, err)

	result, err := Merge(m, []Dependency{{Name: "htmx.org", Version: "^1.9.0"}}, PolicyExact)
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Conflicts)

	out, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, basePackageJSON, string(out))
}

func TestMerge_ConflictKeepsExisting(t *testing.T) {
	m, err := Open("package.json", []byte(basePackageJSON))
	require.NoError(t, err)

	result, err := Merge(m, []Dependency{
		{Name: "htmx.org", Version: "^2.0.0"},
		{Name: "htmx.org", Version: "^2.0.1"},
		{Name: "alpinejs", Version: "^3.13.0"},
	}, PolicyExact)
	require.NoError(t, err)

	require.Len(t, result.Conflicts, 1, "one conflict per mismatched name")
	assert.Equal(t, Conflict{Name: "htmx.org", Existing: "^1.9.0", Requested: "^2.0.0"}, result.Conflicts[0])
	assert.True(t, result.Changed)

	v, ok := m.Lookup("htmx.org")
	require.True(t, ok)
	assert.Equal(t, "^1.9.0", v)
}

func TestMerge_Totality(t *testing.T) {
	requested := []Dependency{
		{Name: "a", Version: "1.0.0"},
		{Name: "b", Version: "2.0.0", Kind: Dev},
		{Name: "c", Version: "3.0.0", Kind: Peer},
		{Name: "d", Version: "4.0.0", Kind: Optional},
	}
	m, err := Open("package.json", []byte(`{"dependencies": {"a": "1.0.0"}, "devDependencies": {"b": "1.0.0"}}`))
	require.NoError(t, err)

	result, err := Merge(m, requested, PolicyExact)
	require.NoError(t, err)

	for _, dep := range requested {
		_, ok := m.Lookup(dep.Name)
		assert.True(t, ok, dep.Name)
	}
	assert.Equal(t, []Conflict{{Name: "b", Existing: "1.0.0", Requested: "2.0.0"}}, result.Conflicts)
	assert.Len(t, result.Added, 2)

	again, err := Merge(m, requested, PolicyExact)
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, result.Conflicts, again.Conflicts)
}

func TestMerge_EmptyName(t *testing.T) {
	m, err := Open("package.json", []byte(`{}`))
	require.NoError(t, err)

	_, err = Merge(m, []Dependency{{Version: "1"}}, PolicyExact)
	assert.ErrorIs(t, err, errs.Validation)
}

func TestPackageJSON_SectionShape(t *testing.T) {
	m, err := Open("package.json", []byte(`{"dependencies": ["x"]}`))
	require.NoError(t, err)

	_, err = Merge(m, []Dependency{{Name: "a", Version: "1"}}, PolicyExact)
	assert.ErrorIs(t, err, errs.SchemaMismatch)
}

func TestPackageJSON_YAML(t *testing.T) {
	m, err := Open("deps.yml", []byte("dependencies:\n  a: \"1.0.0\"\n"))
	require.NoError(t, err)

	result, err := Merge(m, []Dependency{{Name: "b", Version: "2.0.0"}}, PolicyExact)
	require.NoError(t, err)
	assert.True(t, result.Changed)

	out, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "dependencies:\n  a: \"1.0.0\"\n  b: \"2.0.0\"\n", string(out))
}

func TestGoMod(t *testing.T) {
	src := `module example.com/app

go 1.22

require github.com/spf13/cobra v1.8.0
`
	m, err := Open("go.mod", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", m.(*GoMod).Module())

	result, err := Merge(m, []Dependency{
		{Name: "github.com/spf13/cobra", Version: "v1.10.1"},
		{Name: "github.com/charmbracelet/lipgloss", Version: "v1.1.0"},
	}, PolicyExact)
	require.NoError(t, err)

	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "v1.8.0", result.Conflicts[0].Existing)
	assert.True(t, result.Changed)

	out, err := m.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "github.com/charmbracelet/lipgloss v1.1.0")
	assert.Contains(t, string(out), "github.com/spf13/cobra v1.8.0")
}

func TestGoMod_Errors(t *testing.T) {
	_, err := Open("go.mod", []byte("this is not go.mod\nmodule\n"))
	assert.ErrorIs(t, err, errs.MalformedTarget)

	m, err := Open("go.mod", []byte("module example.com/app\n"))
	require.NoError(t, err)
	_, err = Merge(m, []Dependency{{Name: "example.com/x", Version: "latest"}}, PolicyExact)
	assert.ErrorIs(t, err, errs.Validation)
}

func TestPolicy_Satisfied(t *testing.T) {
	tests := []struct {
		policy    Policy
		existing  string
		requested string
		want      bool
	}{
		{PolicyExact, "^5.0.0", "^5.0.0", true},
		{PolicyExact, "^5.2.0", "^5.0.0", false},
		{PolicySemver, "^5.2.0", "^5.0.0", true},
		{PolicySemver, "~5.2.1", "^5.0.0", true},
		{PolicySemver, "^4.9.0", "^5.0.0", false},
		{PolicySemver, "v1.4.0", "v1.4.0", true},
		{PolicySemver, "v1.4.0", ">=1.2.0", true},
		{PolicySemver, ">=1.0.0 <2.0.0", "^1.0.0", true},
		{PolicySemver, "latest", "^1.0.0", false},
		{PolicySemver, "1.0.0", "not a range", false},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String()+" "+tt.existing+" vs "+tt.requested, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Satisfied(tt.existing, tt.requested))
		})
	}
}

func TestParsePolicyAndKind(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyExact, p)

	p, err = ParsePolicy("SemVer")
	require.NoError(t, err)
	assert.Equal(t, PolicySemver, p)

	_, err = ParsePolicy("loose")
	assert.ErrorIs(t, err, errs.Validation)

	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, Runtime, k)

	_, err = ParseKind("build")
	assert.Error(t, err)
}
