package service

import (
	"errors"
	"testing"

	"ghostwriter-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestParser() *ResponseParser {
	return NewResponseParser(zap.NewNop())
}

func TestParseEpisode(t *testing.T) {
	parser := newTestParser()

	t.Run("plain JSON", func(t *testing.T) {
		episode, err := parser.ParseEpisode(`{"title": "T", "content": "body", "summary": "s", "next_options": ["a", "b"], "is_finished": false}`)
		require.NoError(t, err)
		assert.Equal(t, "T", episode.Title)
		assert.Equal(t, "body", episode.Content)
		assert.Equal(t, []string{"a", "b"}, episode.NextOptions)
		assert.False(t, episode.IsFinished)
	})

	t.Run("fenced code block", func(t *testing.T) {
		raw := "Here is the episode:\n```json\n{\"title\": \"T\", \"content\": \"body\", \"summary\": \"s\"}\n```\n"
		episode, err := parser.ParseEpisode(raw)
		require.NoError(t, err)
		assert.Equal(t, "body", episode.Content)
	})

	t.Run("surrounding prose", func(t *testing.T) {
		raw := `Sure! {"title": "T", "content": "body", "summary": "s"} Hope you like it.`
		episode, err := parser.ParseEpisode(raw)
		require.NoError(t, err)
		assert.Equal(t, "body", episode.Content)
	})

	t.Run("truncated braces are repaired", func(t *testing.T) {
		raw := `{"title": "T", "content": "body", "summary": "s", "next_options": ["a", "b"`
		episode, err := parser.ParseEpisode(raw)
		require.NoError(t, err)
		assert.Equal(t, "body", episode.Content)
		assert.Equal(t, []string{"a", "b"}, episode.NextOptions)
	})

	t.Run("braces inside strings do not confuse repair", func(t *testing.T) {
		raw := `{"title": "T {with braces}", "content": "body } here", "summary": "s"}`
		episode, err := parser.ParseEpisode(raw)
		require.NoError(t, err)
		assert.Equal(t, "body } here", episode.Content)
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := parser.ParseEpisode("I cannot write that story.")
		assert.True(t, errors.Is(err, models.ErrMalformedResponse))
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := parser.ParseEpisode(`{"title": "T", "content": "  ", "summary": "s"}`)
		assert.True(t, errors.Is(err, models.ErrMalformedResponse))
	})

	t.Run("missing next_options normalized to empty slice", func(t *testing.T) {
		episode, err := parser.ParseEpisode(`{"title": "T", "content": "body", "summary": "s"}`)
		require.NoError(t, err)
		assert.NotNil(t, episode.NextOptions)
		assert.Empty(t, episode.NextOptions)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := parser.ParseEpisode(`{"title": T}`)
		assert.True(t, errors.Is(err, models.ErrMalformedResponse))
	})
}

func TestParsePlan(t *testing.T) {
	parser := newTestParser()

	t.Run("valid plan", func(t *testing.T) {
		plan, err := parser.ParsePlan(`{"plan": [{"idx": 2, "reason": "locket"}, {"idx": 5, "reason": "vow"}]}`)
		require.NoError(t, err)
		require.Len(t, plan, 2)
		assert.Equal(t, 2, plan[0].Index)
		assert.Equal(t, "locket", plan[0].Reason)
	})

	t.Run("empty plan", func(t *testing.T) {
		plan, err := parser.ParsePlan(`{"plan": []}`)
		require.NoError(t, err)
		assert.Empty(t, plan)
	})

	t.Run("plan truncated to three items", func(t *testing.T) {
		plan, err := parser.ParsePlan(`{"plan": [{"idx": 1, "reason": "a"}, {"idx": 2, "reason": "b"}, {"idx": 3, "reason": "c"}, {"idx": 4, "reason": "d"}]}`)
		require.NoError(t, err)
		assert.Len(t, plan, 3)
	})

	t.Run("no JSON", func(t *testing.T) {
		_, err := parser.ParsePlan("no plan here")
		assert.True(t, errors.Is(err, models.ErrMalformedResponse))
	})
}
