package service

import (
	"fmt"
	"strings"

	"ghostwriter-server/internal/models"
)

// Системные роли для разных стадий генерации.
const (
	episodeSystemRole = "You are a professional serial-novel author. You write rich, immersive prose " +
		"with vivid descriptions and natural dialogue. You respond with exactly one JSON object " +
		"and nothing else: no commentary, no analysis, no markdown outside the JSON."

	planSystemRole = "You are a novel database analyst. Analyze the writing direction and select up " +
		"to 3 past episode numbers that must be checked for foreshadowing or established facts."

	extractSystemRole = "You are a novel summarization expert. Extract only the key information " +
		"answering the question from the source text, in a single sentence."

	rlmNewStorySystemRole = "You are a master author beginning a new novel. This is the first episode: " +
		"introduce the world and the characters compellingly. Literary, lyrical prose; obsessive, " +
		"microscope-level attention to the characters' inner life. Respond with exactly one JSON object."

	rlmContinueSystemRole = "You are the author of an ongoing serial novel writing the next episode. " +
		"Stay consistent with the provided past records. Literary, lyrical prose; obsessive, " +
		"microscope-level attention to the characters' inner life. Respond with exactly one JSON object."
)

const episodeJSONFormat = `{"title": "episode title", "content": "episode text", "summary": "cumulative summary of the whole story so far", "next_options": ["option 1", "option 2", "option 3"], "is_finished": false}`

// PromptContext — исходные данные для сборки промпта эпизода.
// CustomCharacters/CustomScenario имеют приоритет над пресетами,
// каждый независимо от другого.
type PromptContext struct {
	PresetCharacters []models.Character
	PresetScenario   *models.Scenario
	CustomCharacters string
	CustomScenario   string
	RelationshipDesc string
	Genre            string
	PlotNotes        string
	Summary          string
	NextDirection    string
	CurrentIndex     int
	TotalEpisodes    int
	IsFirstEpisode   bool
}

// PromptBuilder собирает промпты для всех стадий генерации. Не имеет
// состояния и не ходит ни в какие внешние сервисы.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// formatPresetCharacters превращает пресеты персонажей в строки вида
// "- Имя: тег1, тег2, speech style: стиль".
func formatPresetCharacters(characters []models.Character) string {
	lines := make([]string, 0, len(characters))
	for _, c := range characters {
		lines = append(lines, fmt.Sprintf("- %s: %s, speech style: %s",
			c.Name, strings.Join(c.PersonalityTags, ", "), c.DialogueStyle))
	}
	return strings.Join(lines, "\n")
}

// resolveContext выбирает итоговые тексты персонажей и сеттинга.
// Возвращает models.ErrMissingContext, если любой из них пуст.
func (b *PromptBuilder) resolveContext(pc PromptContext) (characters, scenario string, err error) {
	characters = strings.TrimSpace(pc.CustomCharacters)
	if characters == "" {
		characters = formatPresetCharacters(pc.PresetCharacters)
	}
	scenario = strings.TrimSpace(pc.CustomScenario)
	if scenario == "" && pc.PresetScenario != nil {
		scenario = pc.PresetScenario.SettingText
	}
	if characters == "" {
		return "", "", fmt.Errorf("%w: characters", models.ErrMissingContext)
	}
	if scenario == "" {
		return "", "", fmt.Errorf("%w: scenario", models.ErrMissingContext)
	}
	return characters, scenario, nil
}

// BuildEpisodePrompt собирает системную роль и пользовательский промпт
// для генерации одного эпизода.
func (b *PromptBuilder) BuildEpisodePrompt(pc PromptContext) (systemPrompt, userPrompt string, err error) {
	characters, scenario, err := b.resolveContext(pc)
	if err != nil {
		return "", "", err
	}

	summary := pc.Summary
	if summary == "" {
		summary = "This is the very beginning of the story."
	}

	var sb strings.Builder
	sb.WriteString("Write the next scene of a serial novel in web-novel form. The episode body must be substantial and self-contained.\n")
	fmt.Fprintf(&sb, "Genre: %s\n\n", pc.Genre)
	fmt.Fprintf(&sb, "[Characters]\n%s\n\n", characters)
	fmt.Fprintf(&sb, "[Setting and situation]\n%s\n\n", scenario)
	if pc.RelationshipDesc != "" {
		fmt.Fprintf(&sb, "[Character relationships]\n%s\n\n", pc.RelationshipDesc)
	}
	fmt.Fprintf(&sb, "[Fixed facts and foreshadowing]\n%s\n\n", pc.PlotNotes)
	fmt.Fprintf(&sb, "[Story so far]\n%s\n\n", summary)
	if pc.NextDirection != "" {
		fmt.Fprintf(&sb, "[Direction]\n%s\n\n", pc.NextDirection)
	}
	fmt.Fprintf(&sb, "This is episode %d of a planned %d.", pc.CurrentIndex, pc.TotalEpisodes)
	if pc.CurrentIndex >= pc.TotalEpisodes {
		sb.WriteString(" This must be the FINAL episode: bring the story to a close and set is_finished to true.")
	}
	sb.WriteString("\n\n")
	if pc.IsFirstEpisode {
		sb.WriteString("Invent an engaging title for the story.\n")
	}
	fmt.Fprintf(&sb, "Respond with exactly one JSON object in this shape, with 2 to 4 next_options:\n%s", episodeJSONFormat)

	return episodeSystemRole, sb.String(), nil
}

// BuildPlanPrompt собирает промпт стадии планирования ретривера:
// какие прошлые эпизоды стоит перечитать перед продолжением.
func (b *PromptBuilder) BuildPlanPrompt(direction string, episodeIndices []int) (systemPrompt, userPrompt string) {
	indices := make([]string, 0, len(episodeIndices))
	for _, idx := range episodeIndices {
		indices = append(indices, fmt.Sprintf("%d", idx))
	}
	userPrompt = fmt.Sprintf(
		"Direction: %q\nPast episode numbers: %s\nRespond with exactly one JSON object: {\"plan\": [{\"idx\": number, \"reason\": \"why this episode matters\"}]}",
		direction, strings.Join(indices, ", "))
	return planSystemRole, userPrompt
}

// BuildExtractionPrompt собирает промпт стадии извлечения: один вопрос
// к тексту одного прошлого эпизода.
func (b *PromptBuilder) BuildExtractionPrompt(episodeContent, reason string) (systemPrompt, userPrompt string) {
	userPrompt = fmt.Sprintf("Source text: %s\nQuestion: %s", episodeContent, reason)
	return extractSystemRole, userPrompt
}

// BuildRLMSynthesisPrompt собирает финальный промпт ретривер-генерации
// существующей истории: извлеченные факты + хвост последнего эпизода.
func (b *PromptBuilder) BuildRLMSynthesisPrompt(contextSnippets []string, lastEpisodeTail string, nextIndex int, direction string) (systemPrompt, userPrompt string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Extracted past records]\n%s\n\n", strings.Join(contextSnippets, "\n"))
	fmt.Fprintf(&sb, "[Previous episode]\n%s\n\n", lastEpisodeTail)
	fmt.Fprintf(&sb, "[Direction]\n%s\n\n", direction)
	fmt.Fprintf(&sb, "Continue the story and write episode %d.\n", nextIndex)
	fmt.Fprintf(&sb, "Respond with exactly one JSON object in this shape, with 2 to 4 next_options:\n%s", episodeJSONFormat)
	return rlmContinueSystemRole, sb.String()
}

// BuildRLMNewStoryPrompt собирает промпт первой главы новой истории,
// начатой через ретривер-путь (персонажи заданы вручную).
func (b *PromptBuilder) BuildRLMNewStoryPrompt(userTitle, genreDesc string, manualCharacters []string) (systemPrompt, userPrompt string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nGenre: %s\nCharacters: %s\n", userTitle, genreDesc, strings.Join(manualCharacters, ", "))
	sb.WriteString("Write episode 1 of the novel based on the information above.\n")
	fmt.Fprintf(&sb, "Respond with exactly one JSON object in this shape, with 2 to 4 next_options:\n%s", episodeJSONFormat)
	return rlmNewStorySystemRole, sb.String()
}
