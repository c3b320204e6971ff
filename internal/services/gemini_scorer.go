package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-1.5-pro"
	suggestedSkillCount  = 5
	maxScorerResponse    = 1 << 20
)

var errMalformedScore = errors.New("malformed scoring response")

// ProfileScorer ranks candidate profiles against a user. Implementations
// never fail: any problem yields an empty result.
type ProfileScorer interface {
	ScoreProfiles(ctx context.Context, request models.MatchRequest) map[string]models.MatchResult
	SuggestSkills(ctx context.Context, skills []string, interests []string) []string
}

type GeminiScorer struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewGeminiScorer(baseURL, model, apiKey string, timeout time.Duration) *GeminiScorer {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultGeminiBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &GeminiScorer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type geminiScore struct {
	ID                string   `json:"id"`
	MatchScore        *int     `json:"matchScore"`
	MatchReason       string   `json:"matchReason"`
	RecommendedSkills []string `json:"recommendedSkills"`
}

var matchResponseSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"id":                map[string]any{"type": "STRING"},
			"matchScore":        map[string]any{"type": "INTEGER"},
			"matchReason":       map[string]any{"type": "STRING"},
			"recommendedSkills": map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
		},
		"required": []string{"id", "matchScore", "matchReason", "recommendedSkills"},
	},
}

var suggestionResponseSchema = map[string]any{
	"type":  "ARRAY",
	"items": map[string]any{"type": "STRING"},
}

func (g *GeminiScorer) ScoreProfiles(ctx context.Context, request models.MatchRequest) map[string]models.MatchResult {
	if len(request.Candidates) == 0 {
		return map[string]models.MatchResult{}
	}

	scores, err := g.scoreProfiles(ctx, request)
	if err != nil {
		log.Printf("profile scoring failed: %v", err)
		return map[string]models.MatchResult{}
	}
	return scores
}

func (g *GeminiScorer) scoreProfiles(
	ctx context.Context,
	request models.MatchRequest,
) (map[string]models.MatchResult, error) {
	text, err := g.generate(ctx, buildMatchPrompt(request), matchResponseSchema)
	if err != nil {
		return nil, err
	}

	var scored []geminiScore
	if err := decodeStrict(text, &scored); err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(request.Candidates))
	for _, candidate := range request.Candidates {
		known[candidate.ID] = struct{}{}
	}

	results := make(map[string]models.MatchResult, len(scored))
	for _, score := range scored {
		if _, ok := known[score.ID]; !ok {
			continue
		}
		if score.MatchScore == nil || *score.MatchScore < 0 || *score.MatchScore > 100 {
			return nil, fmt.Errorf("%w: score for %s out of range", errMalformedScore, score.ID)
		}
		if score.RecommendedSkills == nil {
			return nil, fmt.Errorf("%w: recommended skills missing for %s", errMalformedScore, score.ID)
		}
		results[score.ID] = models.MatchResult{
			MatchScore:        *score.MatchScore,
			MatchReason:       strings.TrimSpace(score.MatchReason),
			RecommendedSkills: score.RecommendedSkills,
		}
	}
	return results, nil
}

func (g *GeminiScorer) SuggestSkills(ctx context.Context, skills []string, interests []string) []string {
	text, err := g.generate(ctx, buildSuggestionPrompt(skills, interests), suggestionResponseSchema)
	if err != nil {
		log.Printf("skill suggestions failed: %v", err)
		return []string{}
	}

	var suggestions []string
	if err := decodeStrict(text, &suggestions); err != nil {
		log.Printf("skill suggestions failed: %v", err)
		return []string{}
	}

	cleaned := make([]string, 0, len(suggestions))
	for _, suggestion := range suggestions {
		if trimmed := strings.TrimSpace(suggestion); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) > suggestedSkillCount {
		cleaned = cleaned[:suggestedSkillCount]
	}
	return cleaned
}

func (g *GeminiScorer) generate(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   schema,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("generate content: status %d: %s", resp.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxScorerResponse)).Decode(&response); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates", errMalformedScore)
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}

// decodeStrict accepts exactly one JSON value matching target.
func decodeStrict(text string, target any) error {
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", errMalformedScore, err)
	}
	if decoder.More() {
		return fmt.Errorf("%w: trailing data", errMalformedScore)
	}
	return nil
}

func buildMatchPrompt(request models.MatchRequest) string {
	var prompt strings.Builder
	prompt.WriteString("A user of a skill exchange platform has these skills and interests.\n")
	fmt.Fprintf(&prompt, "Skills: %s\n", strings.Join(request.UserSkills, ", "))
	fmt.Fprintf(&prompt, "Interests: %s\n\n", strings.Join(request.UserInterests, ", "))
	prompt.WriteString("Rate how well each of the following profiles matches the user for a skill swap.\n")
	for _, candidate := range request.Candidates {
		fmt.Fprintf(&prompt, "\nID: %s\n", candidate.ID)
		if candidate.Name != "" {
			fmt.Fprintf(&prompt, "Name: %s\n", candidate.Name)
		}
		fmt.Fprintf(&prompt, "Skills to teach: %s\n", strings.Join(candidate.SkillsToTeach, ", "))
		fmt.Fprintf(&prompt, "Skills to learn: %s\n", strings.Join(candidate.SkillsToLearn, ", "))
	}
	prompt.WriteString("\nFor every profile return its id, a matchScore from 0 to 100, a short matchReason ")
	prompt.WriteString("and the recommendedSkills the two could exchange.")
	return prompt.String()
}

func buildSuggestionPrompt(skills []string, interests []string) string {
	return fmt.Sprintf(
		"A user has these skills: %s\nand these interests: %s\n"+
			"Suggest %d new skills that would complement what they already know. Return only the skill names.",
		strings.Join(skills, ", "),
		strings.Join(interests, ", "),
		suggestedSkillCount,
	)
}
