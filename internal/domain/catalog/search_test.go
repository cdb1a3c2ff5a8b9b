package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	c := Default()

	t.Run("empty query returns everything", func(t *testing.T) {
		assert.Len(t, c.Search("  ", 0), 10)
	})

	t.Run("exact name", func(t *testing.T) {
		res := c.Search("netflix", 0)
		require.NotEmpty(t, res)
		assert.Equal(t, "Netflix", res[0].Name)
	})

	t.Run("case insensitive subsequence", func(t *testing.T) {
		res := c.Search("DRPBX", 0)
		require.Len(t, res, 1)
		assert.Equal(t, "Dropbox", res[0].Name)
	})

	t.Run("entries are not duplicated", func(t *testing.T) {
		// "spotify" matches both the name and the keyword.
		res := c.Search("spotify", 0)
		require.Len(t, res, 1)
	})

	t.Run("limit", func(t *testing.T) {
		res := c.Search("e", 2)
		assert.Len(t, res, 2)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, c.Search("zzzz", 0))
	})
}
