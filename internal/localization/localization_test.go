package localization_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akobyansamvel/curs/internal/localization"
)

// TestGetStringKnownLanguages verifies lookups in both embedded locales.
func TestGetStringKnownLanguages(t *testing.T) {
	// Arrange
	l, err := localization.NewLocalizer()
	require.NoError(t, err)

	// Act & Assert
	assert.Equal(t, "Вы вышли из системы", l.GetString("ru", "auth.logged_out"))
	assert.Equal(t, "Logged out", l.GetString("en", "auth.logged_out"))
}

// TestGetStringFallbacks verifies the default-language and key fallbacks.
func TestGetStringFallbacks(t *testing.T) {
	// Arrange
	l, err := localization.NewLocalizer()
	require.NoError(t, err)

	// Act & Assert - unknown language falls back to Russian, unknown key to
	// the key itself
	assert.Equal(t, l.GetString("ru", "chat.disconnected"), l.GetString("de", "chat.disconnected"))
	assert.Equal(t, "no.such.key", l.GetString("ru", "no.such.key"))
}

// TestLanguages verifies that both embedded locales load.
func TestLanguages(t *testing.T) {
	l, err := localization.NewLocalizer()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ru", "en"}, l.Languages())
}
