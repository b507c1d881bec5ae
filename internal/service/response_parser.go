package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"ghostwriter-server/internal/models"

	"go.uber.org/zap"
)

// ResponseParser извлекает структурированный эпизод из сырого текста
// ответа модели.
type ResponseParser struct {
	logger *zap.Logger
}

func NewResponseParser(logger *zap.Logger) *ResponseParser {
	return &ResponseParser{logger: logger.Named("ResponseParser")}
}

// ParseEpisode разбирает ответ модели в GeneratedEpisode.
// Любой дефект (нет JSON, битый JSON, пустой content) возвращается
// как models.ErrMalformedResponse.
func (p *ResponseParser) ParseEpisode(raw string) (*models.GeneratedEpisode, error) {
	jsonStr, err := extractJSONObject(raw)
	if err != nil {
		p.logger.Warn("No JSON object in model response", zap.Int("rawLen", len(raw)))
		return nil, err
	}

	jsonStr = fixJSON(jsonStr)

	var episode models.GeneratedEpisode
	if err := json.Unmarshal([]byte(jsonStr), &episode); err != nil {
		p.logger.Warn("Failed to unmarshal model response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}

	if strings.TrimSpace(episode.Content) == "" {
		return nil, fmt.Errorf("%w: empty content field", models.ErrMalformedResponse)
	}
	if episode.NextOptions == nil {
		episode.NextOptions = []string{}
	}
	return &episode, nil
}

// ParsePlan разбирает ответ стадии планирования: {"plan": [{"idx", "reason"}]}.
// Отсутствие плана — не ошибка, возвращается пустой срез.
func (p *ResponseParser) ParsePlan(raw string) ([]models.EpisodePlanItem, error) {
	jsonStr, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	jsonStr = fixJSON(jsonStr)

	var wrapper struct {
		Plan []models.EpisodePlanItem `json:"plan"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		p.logger.Warn("Failed to unmarshal plan response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	if len(wrapper.Plan) > 3 {
		wrapper.Plan = wrapper.Plan[:3]
	}
	return wrapper.Plan, nil
}

// extractJSONObject вырезает первый блок {...} из текста, предварительно
// сняв маркеры fenced code block, которые модели любят добавлять.
func extractJSONObject(raw string) (string, error) {
	cleaned := raw
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "{")
	if start == -1 {
		return "", fmt.Errorf("%w: no JSON object found", models.ErrMalformedResponse)
	}
	end := strings.LastIndex(cleaned, "}")
	if end < start {
		// Закрывающей скобки нет вовсе, берем хвост и чиним позже
		return cleaned[start:], nil
	}
	return cleaned[start : end+1], nil
}

// fixJSON проверяет и исправляет потенциально некорректный JSON.
// В частности, решает проблему незакрытых скобок в конце ответа модели.
func fixJSON(jsonStr string) string {
	if jsonStr == "" {
		return jsonStr
	}

	counts := map[rune]int{
		'{': 0,
		'}': 0,
		'[': 0,
		']': 0,
	}

	// Скобки внутри строковых литералов не считаем
	inString := false
	escaped := false

	for _, char := range jsonStr {
		if char == '"' && !escaped {
			inString = !inString
		}

		if !inString {
			if count, exists := counts[char]; exists {
				counts[char] = count + 1
			}
		}

		if char == '\\' && !escaped {
			escaped = true
		} else {
			escaped = false
		}
	}

	fixedJSON := jsonStr
	if imbalance := counts['['] - counts[']']; imbalance > 0 {
		fixedJSON += strings.Repeat("]", imbalance)
	}
	if imbalance := counts['{'] - counts['}']; imbalance > 0 {
		fixedJSON += strings.Repeat("}", imbalance)
	}
	return fixedJSON
}
