package generate

import "strings"

// ArtifactType names a kind of marketing collateral.
type ArtifactType string

const (
	SplashPage   ArtifactType = "splash_page"
	Email        ArtifactType = "email"
	Banner       ArtifactType = "banner"
	Blurb        ArtifactType = "blurb"
	Autocomplete ArtifactType = "autocomplete"
)

// Operation is either a fresh generation or a revision of a prior artifact.
type Operation string

const (
	Create Operation = "create"
	Refine Operation = "refine"
)

// ModelDefaults is the completion model used when no override is stored.
type ModelDefaults struct {
	Model       string  `json:"model_name"`
	Temperature float64 `json:"temperature"`
}

// ModelDefaultsFor returns the type's built-in model config with its model id
// replaced by model when model is set. The temperature stays per type.
func (s TypeSpec) ModelDefaultsFor(model string) ModelDefaults {
	d := s.Defaults
	if model != "" {
		d.Model = model
	}
	return d
}

// TypeSpec describes how an artifact type is generated.
type TypeSpec struct {
	Type ArtifactType
	// Variants lists the style variants; the first is the default. Empty
	// when the type has no style axis.
	Variants       []string
	HTML           bool
	FetchesWebsite bool
	Persisted      bool
	Defaults       ModelDefaults
	// DefaultWidth and DefaultHeight are the pixel dimensions used when the
	// request leaves them unset. Zero for types without dimensions.
	DefaultWidth  float64
	DefaultHeight float64
}

// HasVariant reports whether v is a valid style variant for the type.
func (s TypeSpec) HasVariant(v string) bool {
	if len(s.Variants) == 0 {
		return v == ""
	}
	for _, known := range s.Variants {
		if known == v {
			return true
		}
	}
	return false
}

// DefaultVariant returns the variant used when a request names none.
func (s TypeSpec) DefaultVariant() string {
	if len(s.Variants) == 0 {
		return ""
	}
	return s.Variants[0]
}

// Operations returns the operations the type supports.
func (s TypeSpec) Operations() []Operation {
	if s.Type == Autocomplete {
		return []Operation{Create}
	}
	return []Operation{Create, Refine}
}

var typeSpecs = []TypeSpec{
	{
		Type:           SplashPage,
		Variants:       []string{"professional", "casual"},
		HTML:           true,
		FetchesWebsite: true,
		Persisted:      true,
		Defaults:       ModelDefaults{Model: "o3-mini", Temperature: 1.0},
	},
	{
		Type:           Email,
		Variants:       []string{"professional", "salesy"},
		FetchesWebsite: true,
		Persisted:      true,
		Defaults:       ModelDefaults{Model: "gpt-4o", Temperature: 0.5},
	},
	{
		Type:           Banner,
		HTML:           true,
		FetchesWebsite: true,
		Persisted:      true,
		Defaults:       ModelDefaults{Model: "o3-mini", Temperature: 1.0},
		DefaultWidth:   728,
		DefaultHeight:  90,
	},
	{
		Type:           Blurb,
		HTML:           true,
		FetchesWebsite: true,
		Persisted:      true,
		Defaults:       ModelDefaults{Model: "o3-mini", Temperature: 1.0},
		DefaultWidth:   257.328,
		DefaultHeight:  450.961,
	},
	{
		Type:     Autocomplete,
		Variants: []string{"splash_page", "email", "banner"},
		Defaults: ModelDefaults{Model: "gpt-4o", Temperature: 0.2},
	},
}

// Types returns every artifact type in a fixed order.
func Types() []TypeSpec {
	out := make([]TypeSpec, len(typeSpecs))
	copy(out, typeSpecs)
	return out
}

// LookupType returns the TypeSpec for an artifact type name.
func LookupType(name string) (TypeSpec, bool) {
	for _, s := range typeSpecs {
		if string(s.Type) == name {
			return s, true
		}
	}
	return TypeSpec{}, false
}

// ParseOperation maps an operation name, including the legacy aliases
// start_over/generate and update, to an Operation.
func ParseOperation(name string) (Operation, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "create", "start_over", "generate":
		return Create, true
	case "refine", "update":
		return Refine, true
	default:
		return "", false
	}
}
