package syntax

import (
	"github.com/dshills/synctoken/internal/config/loader"
	"github.com/dshills/synctoken/internal/config/registry"
)

// NewSettingsRegistry returns a registry pre-populated with this package's
// tunables: tab length is scoped per language, chunk size globally, and
// large-file mode per resource.
func NewSettingsRegistry() *registry.Registry {
	r := registry.New()

	r.MustRegister(registry.Setting{
		Path:        "syntax.tabLength",
		Type:        registry.TypeInt,
		Default:     defaultTabLength,
		Description: "Columns a tab expands to for indent-level queries",
		Scope:       registry.ScopeLanguage,
		Minimum:     registry.MinValue(1),
		Maximum:     registry.MaxValue(32),
		Tags:        []string{"syntax"},
	})

	r.MustRegister(registry.Setting{
		Path:        "syntax.chunkSize",
		Type:        registry.TypeInt,
		Default:     defaultChunkSize,
		Description: "Rows rebuilt per background tokenization chunk",
		Scope:       registry.ScopeGlobal,
		Minimum:     registry.MinValue(1),
		Maximum:     registry.MaxValue(10000),
		Tags:        []string{"syntax"},
	})

	r.MustRegister(registry.Setting{
		Path:        "syntax.largeFileMode",
		Type:        registry.TypeBool,
		Default:     false,
		Description: "Skip background tokenization entirely and render every row under the grammar's root scope",
		Scope:       registry.ScopeResource,
		Tags:        []string{"syntax"},
	})

	return r
}

// OptionsFromTOML loads tokenization options from a TOML file, falling back
// to the registered defaults for any setting the file omits and for a
// missing file entirely.
func OptionsFromTOML(path string) (Options, error) {
	r := NewSettingsRegistry()

	values, err := loader.NewTOMLLoader(path).Load()
	if err != nil {
		return Options{}, err
	}
	acc := registry.NewAccessor(r, registry.NewMapValueStore(values))

	tabLength, err := acc.GetInt("syntax.tabLength")
	if err != nil {
		return Options{}, err
	}
	chunkSize, err := acc.GetInt("syntax.chunkSize")
	if err != nil {
		return Options{}, err
	}
	largeFileMode, err := acc.GetBool("syntax.largeFileMode")
	if err != nil {
		return Options{}, err
	}

	return Options{
		TabLength:     tabLength,
		ChunkSize:     chunkSize,
		LargeFileMode: largeFileMode,
	}.withDefaults(), nil
}
