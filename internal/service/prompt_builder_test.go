package service

import (
	"errors"
	"strings"
	"testing"

	"ghostwriter-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEpisodePrompt(t *testing.T) {
	builder := NewPromptBuilder()

	presetCharacters := []models.Character{
		{Name: "Mira", PersonalityTags: []string{"stubborn", "loyal"}, DialogueStyle: "clipped sentences"},
		{Name: "Theo", PersonalityTags: []string{"cunning"}, DialogueStyle: "flowery"},
	}
	presetScenario := &models.Scenario{Title: "The Harbor", SettingText: "A fog-bound harbor town."}

	t.Run("formats preset characters", func(t *testing.T) {
		_, userPrompt, err := builder.BuildEpisodePrompt(PromptContext{
			PresetCharacters: presetCharacters,
			PresetScenario:   presetScenario,
			Genre:            "mystery",
			CurrentIndex:     1,
			TotalEpisodes:    20,
		})
		require.NoError(t, err)
		assert.Contains(t, userPrompt, "- Mira: stubborn, loyal, speech style: clipped sentences")
		assert.Contains(t, userPrompt, "- Theo: cunning, speech style: flowery")
		assert.Contains(t, userPrompt, "A fog-bound harbor town.")
	})

	t.Run("custom characters override presets independently", func(t *testing.T) {
		_, userPrompt, err := builder.BuildEpisodePrompt(PromptContext{
			PresetCharacters: presetCharacters,
			PresetScenario:   presetScenario,
			CustomCharacters: "A nameless drifter with no past.",
			Genre:            "mystery",
			CurrentIndex:     1,
			TotalEpisodes:    20,
		})
		require.NoError(t, err)
		assert.Contains(t, userPrompt, "A nameless drifter with no past.")
		assert.NotContains(t, userPrompt, "- Mira:")
		// Сеттинг остается пресетным
		assert.Contains(t, userPrompt, "A fog-bound harbor town.")
	})

	t.Run("custom scenario overrides preset independently", func(t *testing.T) {
		_, userPrompt, err := builder.BuildEpisodePrompt(PromptContext{
			PresetCharacters: presetCharacters,
			PresetScenario:   presetScenario,
			CustomScenario:   "An orbital station past its decommission date.",
			Genre:            "sci-fi",
			CurrentIndex:     1,
			TotalEpisodes:    20,
		})
		require.NoError(t, err)
		assert.Contains(t, userPrompt, "An orbital station past its decommission date.")
		assert.NotContains(t, userPrompt, "A fog-bound harbor town.")
		assert.Contains(t, userPrompt, "- Mira:")
	})

	t.Run("missing characters", func(t *testing.T) {
		_, _, err := builder.BuildEpisodePrompt(PromptContext{
			PresetScenario: presetScenario,
			Genre:          "mystery",
		})
		assert.True(t, errors.Is(err, models.ErrMissingContext))
	})

	t.Run("missing scenario", func(t *testing.T) {
		_, _, err := builder.BuildEpisodePrompt(PromptContext{
			PresetCharacters: presetCharacters,
			Genre:            "mystery",
		})
		assert.True(t, errors.Is(err, models.ErrMissingContext))
	})

	t.Run("whitespace-only override falls back to presets", func(t *testing.T) {
		_, userPrompt, err := builder.BuildEpisodePrompt(PromptContext{
			PresetCharacters: presetCharacters,
			PresetScenario:   presetScenario,
			CustomCharacters: "   \n\t",
			Genre:            "mystery",
			CurrentIndex:     1,
			TotalEpisodes:    20,
		})
		require.NoError(t, err)
		assert.Contains(t, userPrompt, "- Mira:")
	})

	t.Run("direction section present when supplied", func(t *testing.T) {
		_, userPrompt, err := builder.BuildEpisodePrompt(PromptContext{
			PresetCharacters: presetCharacters,
			PresetScenario:   presetScenario,
			Genre:            "mystery",
			NextDirection:    "The stranger finally gives his name.",
			CurrentIndex:     2,
			TotalEpisodes:    20,
		})
		require.NoError(t, err)
		assert.Contains(t, userPrompt, "[Direction]\nThe stranger finally gives his name.")
	})

	t.Run("no direction section when empty", func(t *testing.T) {
		_, userPrompt, err := builder.BuildEpisodePrompt(PromptContext{
			PresetCharacters: presetCharacters,
			PresetScenario:   presetScenario,
			Genre:            "mystery",
			CurrentIndex:     2,
			TotalEpisodes:    20,
		})
		require.NoError(t, err)
		assert.NotContains(t, userPrompt, "[Direction]")
	})

	t.Run("relationship section present when supplied", func(t *testing.T) {
		_, userPrompt, err := builder.BuildEpisodePrompt(PromptContext{
			PresetCharacters: presetCharacters,
			PresetScenario:   presetScenario,
			RelationshipDesc: "Mira distrusts Theo since the fire.",
			Genre:            "mystery",
			CurrentIndex:     1,
			TotalEpisodes:    20,
		})
		require.NoError(t, err)
		assert.Contains(t, userPrompt, "[Character relationships]\nMira distrusts Theo since the fire.")
	})

	t.Run("final episode hint at total", func(t *testing.T) {
		_, userPrompt, err := builder.BuildEpisodePrompt(PromptContext{
			PresetCharacters: presetCharacters,
			PresetScenario:   presetScenario,
			Genre:            "mystery",
			CurrentIndex:     20,
			TotalEpisodes:    20,
		})
		require.NoError(t, err)
		assert.Contains(t, userPrompt, "FINAL episode")
	})

	t.Run("no final hint before total", func(t *testing.T) {
		_, userPrompt, err := builder.BuildEpisodePrompt(PromptContext{
			PresetCharacters: presetCharacters,
			PresetScenario:   presetScenario,
			Genre:            "mystery",
			CurrentIndex:     19,
			TotalEpisodes:    20,
		})
		require.NoError(t, err)
		assert.NotContains(t, userPrompt, "FINAL episode")
	})

	t.Run("empty summary gets start marker", func(t *testing.T) {
		_, userPrompt, err := builder.BuildEpisodePrompt(PromptContext{
			PresetCharacters: presetCharacters,
			PresetScenario:   presetScenario,
			Genre:            "mystery",
			CurrentIndex:     1,
			TotalEpisodes:    20,
		})
		require.NoError(t, err)
		assert.Contains(t, userPrompt, "This is the very beginning of the story.")
	})
}

func TestBuildPlanPrompt(t *testing.T) {
	builder := NewPromptBuilder()
	system, user := builder.BuildPlanPrompt("bring back the locket", []int{1, 2, 3})
	assert.NotEmpty(t, system)
	assert.Contains(t, user, `"bring back the locket"`)
	assert.Contains(t, user, "1, 2, 3")
	assert.Contains(t, user, `"plan"`)
}

func TestBuildRLMSynthesisPrompt(t *testing.T) {
	builder := NewPromptBuilder()
	snippets := []string{"[episode 2]: the locket was buried under the oak"}
	_, user := builder.BuildRLMSynthesisPrompt(snippets, "tail of last episode", 5, "dig up the locket")
	assert.Contains(t, user, snippets[0])
	assert.Contains(t, user, "tail of last episode")
	assert.Contains(t, user, "episode 5")
	assert.Contains(t, user, "dig up the locket")
	assert.True(t, strings.Contains(user, "next_options"))
}
