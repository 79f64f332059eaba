package discover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONBlock(t *testing.T) {
	t.Run("markdown fenced block", func(t *testing.T) {
		out, err := extractJSONBlock("```json\n{\"acknowledgment\": \"Sure!\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, `{"acknowledgment": "Sure!"}`, out)
	})

	t.Run("object buried in prose", func(t *testing.T) {
		out, err := extractJSONBlock("Here you go:\n{\"places\": []}\nHope that helps.")
		require.NoError(t, err)
		assert.Equal(t, `{"places": []}`, out)
	})

	t.Run("nested objects stay balanced", func(t *testing.T) {
		out, err := extractJSONBlock(`{"a": {"b": {"c": 1}}} trailing`)
		require.NoError(t, err)
		assert.Equal(t, `{"a": {"b": {"c": 1}}}`, out)
	})

	t.Run("braces inside strings are ignored", func(t *testing.T) {
		out, err := extractJSONBlock(`{"summary": "brackets } { inside"}`)
		require.NoError(t, err)
		assert.Equal(t, `{"summary": "brackets } { inside"}`, out)
	})

	t.Run("escaped quotes inside strings", func(t *testing.T) {
		out, err := extractJSONBlock(`{"name": "the \"Old\" Cafe"}`)
		require.NoError(t, err)
		assert.Equal(t, `{"name": "the \"Old\" Cafe"}`, out)
	})

	t.Run("no object present", func(t *testing.T) {
		_, err := extractJSONBlock("I could not find anything, sorry.")
		assert.ErrorIs(t, err, errNoJSONObject)
	})

	t.Run("unbalanced object", func(t *testing.T) {
		_, err := extractJSONBlock(`{"places": [`)
		assert.ErrorIs(t, err, errNoJSONObject)
	})
}
