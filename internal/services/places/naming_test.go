package places

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"punctuation and accents", "Joe's Café & Grill!", "Joes_Caf_Grill"},
		{"plain words", "Green Bowl", "Green_Bowl"},
		{"hyphen runs collapse", "Fit -- Meal", "Fit_Meal"},
		{"surrounding whitespace trimmed", "  Salad Bar  ", "Salad_Bar"},
		{"underscores kept", "meal_prep 101", "meal_prep_101"},
		{"tabs and newlines", "Poke\t\nHouse", "Poke_House"},
		{"non-ascii only falls back", "健身餐", "unknown"},
		{"empty falls back", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanName(tt.input))
		})
	}
}

func TestCleanName_OnlyWordCharsAndSingleUnderscores(t *testing.T) {
	valid := regexp.MustCompile(`^\w+(_\w+)*$`)
	inputs := []string{"Joe's Café & Grill!", "A  -  B", "--x--", "(Best) Burgers, Inc."}

	for _, input := range inputs {
		got := CleanName(input)
		assert.Regexp(t, valid, got, "input %q", input)
		assert.NotContains(t, got, "__", "input %q", input)
	}
}

func TestReferenceDigest(t *testing.T) {
	sum := md5.Sum([]byte("CmRaAAAA-photo-ref"))
	want := hex.EncodeToString(sum[:])[:8]

	got := ReferenceDigest("CmRaAAAA-photo-ref")
	assert.Equal(t, want, got)
	assert.Len(t, got, 8)
	assert.NotEqual(t, got, ReferenceDigest("another-ref"))
}

func TestPhotoFilename(t *testing.T) {
	ref := "CmRaAAAA-photo-ref"
	first := PhotoFilename("Joe's Café & Grill!", ref, 400)
	second := PhotoFilename("Joe's Café & Grill!", ref, 400)

	assert.Equal(t, first, second, "naming must be idempotent")
	assert.Equal(t, "Joes_Caf_Grill_"+ReferenceDigest(ref)+"_400.jpg", first)
	assert.NotEqual(t, first, PhotoFilename("Joe's Café & Grill!", ref, 800))
}
