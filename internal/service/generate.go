package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/skinerbold/lifeplan/internal/model"
	"google.golang.org/genai"
)

var (
	ErrGenerationAuth     = errors.New("generation API rejected the credential, check the API key")
	ErrGenerationQuota    = errors.New("generation API usage limit reached, try again later")
	ErrGenerationNetwork  = errors.New("connection error reaching the generation API")
	ErrGenerationTimeout  = errors.New("the AI took too long to respond")
	ErrMalformedResponse  = errors.New("the AI response is not in the expected format")
	ErrGenerationUnknown  = errors.New("unexpected error while generating goals")
	ErrVisionNameRequired = errors.New("a name is required to generate goals")
)

// SchemaValidationError reports a generation response that parsed but
// does not satisfy the goals contract, naming the offending category.
type SchemaValidationError struct {
	Category string
	Reason   string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("invalid structure in category %q: %s", e.Category, e.Reason)
}

// TextModel produces free text for a prompt. The production
// implementation wraps the Gemini SDK; tests substitute a stub.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiModel calls the Gemini API with the sampling configuration the
// goal prompt was tuned for.
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, modelName string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiModel{
		client: client,
		model:  modelName,
	}, nil
}

func (m *GeminiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	result, err := m.client.Models.GenerateContent(ctx,
		m.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.7),
			TopK:            genai.Ptr[float32](40),
			TopP:            genai.Ptr[float32](0.95),
			MaxOutputTokens: 2048,
		},
	)
	if err != nil {
		return "", err
	}

	return result.Text(), nil
}

// DisabledModel stands in when no API key is configured, a development
// convenience so the rest of the wizard stays usable. Every generation
// fails with the credential error.
type DisabledModel struct{}

func (DisabledModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	return "", ErrGenerationAuth
}

// GoalCache memoizes successful generations for the lifetime of its
// owner. It is injected rather than package-global so each process (and
// each test) scopes its own cache.
type GoalCache struct {
	mu      sync.Mutex
	entries map[string]*model.GeneratedGoals
}

func NewGoalCache() *GoalCache {
	return &GoalCache{
		entries: make(map[string]*model.GeneratedGoals),
	}
}

func (c *GoalCache) Get(key string) (*model.GeneratedGoals, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	goals, ok := c.entries[key]
	return goals, ok
}

func (c *GoalCache) Set(key string, goals *model.GeneratedGoals) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = goals
}

// GenerationService turns a vision into a five-year goal plan through
// one Gemini call per non-cached invocation. It never retries on its
// own; the caller offers a manual retry.
type GenerationService struct {
	model   TextModel
	cache   *GoalCache
	timeout time.Duration
}

func NewGenerationService(textModel TextModel, cache *GoalCache, timeout time.Duration) *GenerationService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GenerationService{
		model:   textModel,
		cache:   cache,
		timeout: timeout,
	}
}

// Generate produces the goal plan for a vision. A non-empty feedback is
// appended to the prompt as an adjustment instruction and always forces
// a fresh call; only feedback-less results hit or fill the cache.
func (s *GenerationService) Generate(ctx context.Context, vision model.VisionData, feedback string) (*model.GeneratedGoals, error) {
	if strings.TrimSpace(vision.Name) == "" {
		return nil, ErrVisionNameRequired
	}

	cacheKey := goalCacheKey(vision, feedback)
	if feedback == "" {
		if goals, ok := s.cache.Get(cacheKey); ok {
			return goals, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.model.GenerateText(ctx, goalPrompt(vision, feedback))
	if err != nil {
		return nil, classifyGenerationError(err)
	}

	goals, err := parseGoals(text)
	if err != nil {
		return nil, err
	}

	if feedback == "" {
		s.cache.Set(cacheKey, goals)
	}

	return goals, nil
}

func goalCacheKey(vision model.VisionData, feedback string) string {
	key, _ := json.Marshal(struct {
		Vision   model.VisionData `json:"visionData"`
		Feedback string           `json:"feedback"`
	}{vision, feedback})
	return string(key)
}

func goalPrompt(vision model.VisionData, feedback string) string {
	adjustments := ""
	if feedback != "" {
		adjustments = fmt.Sprintf("AJUSTES: %s\n\n", feedback)
	}

	return fmt.Sprintf(`Crie metas anuais (5 anos) para %s baseadas em suas visões:

VISÕES 2030:
- Físico: %s
- Mental: %s
- Social: %s
- Emocional: %s
- Espiritual: %s
- Caráter: %s

%sRESPONDA APENAS COM JSON:
{
  "physical": [
    {"goal": "Meta ano 1", "actions": ["ação1", "ação2", "ação3"], "timeline": "12 meses", "resources": ["recurso1", "recurso2"]},
    {"goal": "Meta ano 2", "actions": [...], "timeline": "...", "resources": [...]},
    ...5 metas total
  ],
  "mental": [...5 metas],
  "social": [...5 metas],
  "emotional": [...5 metas],
  "spiritual": [...5 metas],
  "character": [...5 metas]
}

Metas progressivas, específicas e práticas.`,
		vision.Name,
		vision.Physical,
		vision.Mental,
		vision.Social,
		vision.Emotional,
		vision.Spiritual,
		vision.Character,
		adjustments,
	)
}

// parseGoals extracts the first balanced-looking JSON object from the
// raw model output (tolerating surrounding prose) and validates it
// against the strict goals contract: all six categories present, each
// with exactly 5 fully-populated entries.
func parseGoals(text string) (*model.GeneratedGoals, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, ErrMalformedResponse
	}

	var raw map[string]json.RawMessage
	err := json.Unmarshal([]byte(text[start:end+1]), &raw)
	if err != nil {
		return nil, ErrMalformedResponse
	}

	goals := &model.GeneratedGoals{}
	for _, category := range model.Categories {
		blob, ok := raw[category]
		if !ok {
			return nil, &SchemaValidationError{Category: category, Reason: "category missing"}
		}

		var details []model.GoalDetail
		err = json.Unmarshal(blob, &details)
		if err != nil {
			return nil, &SchemaValidationError{Category: category, Reason: "not an array of goals"}
		}

		err = validateDetails(category, details)
		if err != nil {
			return nil, err
		}

		switch category {
		case model.CategoryPhysical:
			goals.Physical = details
		case model.CategoryMental:
			goals.Mental = details
		case model.CategorySocial:
			goals.Social = details
		case model.CategoryEmotional:
			goals.Emotional = details
		case model.CategorySpiritual:
			goals.Spiritual = details
		case model.CategoryCharacter:
			goals.Character = details
		}
	}

	return goals, nil
}

// goalsPerCategory is the contract: one goal per year over five years.
const goalsPerCategory = 5

func validateDetails(category string, details []model.GoalDetail) error {
	if len(details) != goalsPerCategory {
		return &SchemaValidationError{
			Category: category,
			Reason:   fmt.Sprintf("expected %d goals, got %d", goalsPerCategory, len(details)),
		}
	}

	for i, detail := range details {
		if strings.TrimSpace(detail.Goal) == "" {
			return &SchemaValidationError{Category: category, Reason: fmt.Sprintf("goal %d has no description", i+1)}
		}
		if strings.TrimSpace(detail.Timeline) == "" {
			return &SchemaValidationError{Category: category, Reason: fmt.Sprintf("goal %d has no timeline", i+1)}
		}
		if detail.Actions == nil {
			return &SchemaValidationError{Category: category, Reason: fmt.Sprintf("goal %d has no actions array", i+1)}
		}
		if detail.Resources == nil {
			return &SchemaValidationError{Category: category, Reason: fmt.Sprintf("goal %d has no resources array", i+1)}
		}
	}

	return nil
}

// classifyGenerationError maps transport failures onto the user-facing
// taxonomy. Nothing is swallowed: unknown causes surface as
// ErrGenerationUnknown with the cause attached.
func classifyGenerationError(err error) error {
	// Already one of ours (e.g. from a stub model)
	for _, known := range []error{ErrGenerationAuth, ErrGenerationQuota, ErrGenerationNetwork, ErrGenerationTimeout, ErrMalformedResponse} {
		if errors.Is(err, known) {
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrGenerationTimeout
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return fmt.Errorf("%w: %s", ErrGenerationAuth, apiErr.Message)
		case 429:
			return fmt.Errorf("%w: %s", ErrGenerationQuota, apiErr.Message)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrGenerationNetwork, err)
	}

	return fmt.Errorf("%w: %v", ErrGenerationUnknown, err)
}
