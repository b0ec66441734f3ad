package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texedit/pkg/textypes"
)

func TestNew_LoadsEmbeddedCatalog(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)
	assert.NotEmpty(t, reg.AllCommands())
}

func TestRegistry_AllCommands_CatalogOrder(t *testing.T) {
	reg := MustNew()

	expected := []string{"summarise", "tone", "keywords", "rephrase", "rewrite", "help", "clear"}
	assert.Equal(t, expected, reg.AllCommands())
}

func TestRegistry_StarterCommands_Subset(t *testing.T) {
	reg := MustNew()

	starter := reg.StarterCommands()
	assert.Equal(t, []string{"summarise", "tone", "keywords", "rephrase"}, starter)
	assert.Less(t, len(starter), len(reg.AllCommands()))
	for _, name := range starter {
		assert.True(t, reg.IsRegistered(name))
	}
}

func TestRegistry_Descriptor_CaseInsensitive(t *testing.T) {
	reg := MustNew()

	desc, ok := reg.Descriptor("TONE")
	require.True(t, ok)
	assert.Equal(t, "tone", desc.Name)
	assert.Equal(t, textypes.ArgEnumerated, desc.ArgumentKind)
	assert.True(t, desc.RequiresRemote)
	assert.True(t, desc.RequiresInput)
}

func TestRegistry_Descriptor_AliasResolves(t *testing.T) {
	reg := MustNew()

	desc, ok := reg.Descriptor("summarize")
	require.True(t, ok)
	assert.Equal(t, "summarise", desc.Name)
	assert.Equal(t, "summarise", reg.Resolve("Summarize"))
}

func TestRegistry_Descriptor_Unknown(t *testing.T) {
	reg := MustNew()

	_, ok := reg.Descriptor("frobnicate")
	assert.False(t, ok)
	assert.False(t, reg.IsRegistered("frobnicate"))
}

func TestRegistry_ArgumentValues(t *testing.T) {
	reg := MustNew()

	assert.Equal(t, []string{"formal", "casual"}, reg.ArgumentValues("tone"))
	assert.Empty(t, reg.ArgumentValues("summarise"), "free-form argument has no enumerated values")
	assert.Empty(t, reg.ArgumentValues("keywords"), "argument-less command has no enumerated values")
}

func TestRegistry_Usage(t *testing.T) {
	reg := MustNew()

	assert.Equal(t, "summarise [percentage]", reg.Usage("summarise"))
	assert.Equal(t, "", reg.Usage("nonexistent"))
}

func TestRegistry_LocalCommands(t *testing.T) {
	reg := MustNew()

	for _, name := range []string{"help", "clear"} {
		desc, ok := reg.Descriptor(name)
		require.True(t, ok, name)
		assert.False(t, desc.RequiresRemote, name)
		assert.False(t, desc.RequiresInput, name)
	}
}

func TestParse_RejectsMalformedCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "{{nope"},
		{"no commands", "commands: []"},
		{"empty name", "commands:\n  - name: \"\""},
		{"duplicate name", "commands:\n  - name: a\n  - name: a"},
		{"bad argument kind", "commands:\n  - name: a\n    argument: fancy"},
		{"enumerated without values", "commands:\n  - name: a\n    argument: enumerated"},
		{"starter not in catalog", "commands:\n  - name: a\nstarter: [b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
