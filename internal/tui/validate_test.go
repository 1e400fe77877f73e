package tui

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDraft(t *testing.T) {
	known := []string{"cx22", "cx32", "cpx11"}
	tests := []struct {
		name  string
		draft Draft
		want  []string
	}{
		{"valid", Draft{Name: "web-1", Type: "cx22", Image: "fedora-41"}, nil},
		{"case-insensitive type", Draft{Name: "web-1", Type: "CX22", Image: "fedora-41"}, nil},
		{"all empty", Draft{Name: " "}, []string{
			"Invalid name: must not be empty",
			"Invalid type: must not be empty",
			"Invalid image: must not be empty",
		}},
		{"non-ascii name", Draft{Name: "wéb", Type: "cx22", Image: "fedora-41"}, []string{
			"Invalid name: only ASCII characters are allowed",
		}},
		{"typo in type", Draft{Name: "web-1", Type: "cx23", Image: "fedora-41"}, []string{
			`Unknown type "cx23", did you mean "cx22"?`,
		}},
		{"far from anything", Draft{Name: "web-1", Type: "gpu-monster", Image: "fedora-41"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, validateDraft(tt.draft, known))
		})
	}
}

func TestValidateDraftWithoutKnownTypes(t *testing.T) {
	require.Empty(t, validateDraft(Draft{Name: "a", Type: "whatever", Image: "b"}, nil))
}

func TestSuggest(t *testing.T) {
	got, exact := suggest("cpx12", []string{"cx22", "cpx11", "cpx21"})
	require.False(t, exact)
	require.Equal(t, "cpx11", got)

	got, exact = suggest("CPX21", []string{"cx22", "cpx21"})
	require.True(t, exact)
	require.Equal(t, "cpx21", got)
}
