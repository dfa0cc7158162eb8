package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalAlias(t *testing.T) {
	assert.Equal(t, "thrasiostymna", CanonicalAlias("Thrasios / Tymna"))
	assert.Equal(t, "thrasiostymna", CanonicalAlias("thrasios-tymna"))
	assert.Equal(t, "thrasiostymna", CanonicalAlias("ThrasiosTymna"))
	assert.Equal(t, "", CanonicalAlias("  "))
}

func TestCanonicalAliasesDedupes(t *testing.T) {
	got := CanonicalAliases([]string{"Tasigur", "tasigur", "", "Kess"})
	assert.Equal(t, []string{"tasigur", "kess"}, got)
}

func TestColorSignature(t *testing.T) {
	assert.Equal(t, "wug", ColorSignature("GWu"))
	assert.Equal(t, "wubrg", ColorSignature("grbuw"))
	assert.Equal(t, "ub", ColorSignature("b u x b"))
	assert.Equal(t, "", ColorSignature(""))
}

func TestShortestAlias(t *testing.T) {
	assert.Equal(t, "tt", ShortestAlias("Thrasios Tymna", []string{"thrasios tymna", "tt", "tx"}))
	assert.Equal(t, "Najeela", ShortestAlias("Najeela", nil))
}
