// Package content generates recipes, descriptions, tags and short prose for
// the site with a language model.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/prompts"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"sufikitchen/pkg/otel"
)

// ErrEmptyInput is returned when a required field is blank.
var ErrEmptyInput = errors.New("content: required input is empty")

// ErrMalformedOutput is returned when the model reply cannot be decoded.
var ErrMalformedOutput = errors.New("content: malformed model output")

// Recipe is a generated recipe.
type Recipe struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Servings     string   `json:"servings"`
}

// Description is a generated recipe description with suggested tags.
type Description struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Recorder counts generations by kind and outcome.
type Recorder interface {
	Generation(kind, outcome string)
}

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder registers a generation recorder.
func WithRecorder(r Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// WithCallOptions sets options passed on every model call.
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(g *Generator) { g.callOpts = append(g.callOpts, opts...) }
}

// Generator produces site content from prompt templates.
type Generator struct {
	model    llms.Model
	log      *zap.Logger
	recorder Recorder
	callOpts []llms.CallOption
}

// New returns a Generator backed by model.
func New(model llms.Model, log *zap.Logger, opts ...Option) *Generator {
	g := &Generator{model: model, log: log}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewOpenAI builds an OpenAI-compatible model. baseURL may be empty.
func NewOpenAI(apiKey, baseURL, model string) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return llm, nil
}

const jsonOnly = `
Reply with a single JSON object and nothing else, matching: `

var (
	recipePrompt = prompts.NewPromptTemplate(`You are an expert chef specializing in authentic Pakistani cuisine with a touch of Sufi culinary philosophy, focusing on mindfulness and wholesome ingredients.
Generate a complete, well-structured recipe for the following dish. The recipe should be easy to follow and inspiring.

Dish Name: {{.name}}
Style: {{.style}}

Please provide a captivating title, a brief engaging description, a list of ingredients, step-by-step instructions and the number of servings.`+
		jsonOnly+`{"title": string, "description": string, "ingredients": [string], "instructions": [string], "servings": string}`,
		[]string{"name", "style"})

	descriptionPrompt = prompts.NewPromptTemplate(`You are a culinary expert and food blogger. Your task is to generate an engaging and informative description for a new recipe.

Recipe Name: {{.name}}
Cuisine: {{.cuisine}}
Ingredients: {{.ingredients}}
Instructions: {{.instructions}}

Write a captivating description that highlights the key aspects of the dish, its flavors, and its cultural significance. Also suggest some relevant tags for the recipe.`+
		jsonOnly+`{"description": string, "tags": [string]}`,
		[]string{"name", "cuisine", "ingredients", "instructions"})

	tagsPrompt = prompts.NewPromptTemplate(`You are an expert in suggesting relevant tags for recipes.
Given the following recipe information, suggest 5-10 relevant tags that users can use to find the recipe. Tags should be related to ingredients, cuisine type, dietary restrictions, or other relevant characteristics.

Recipe Name: {{.name}}
Ingredients: {{.ingredients}}
Cuisine Type: {{.cuisine}}
Dietary Restrictions: {{if .dietary}}{{.dietary}}{{else}}None{{end}}`+
		jsonOnly+`{"tags": [string]}`,
		[]string{"name", "ingredients", "cuisine", "dietary"})

	blogPrompt = prompts.NewPromptTemplate(`You are a creative content writer specializing in Pakistani cuisine. Your task is to generate an engaging introduction for a blog post based on the given topic.

Topic: {{.topic}}`+
		jsonOnly+`{"introduction": string}`,
		[]string{"topic"})

	poemPrompt = prompts.NewPromptTemplate(`You are a Sufi poet. Write a short, four-line poem in the style of Rumi or Hafiz about the provided topic. The poem should be insightful and spiritual.

Topic: {{.topic}}`+
		jsonOnly+`{"poem": string}`,
		[]string{"topic"})
)

// GenerateRecipe writes a recipe for the named dish in the given style.
func (g *Generator) GenerateRecipe(ctx context.Context, name, style string) (Recipe, error) {
	var out Recipe
	err := g.generate(ctx, "recipe", recipePrompt, map[string]any{"name": name, "style": style}, &out)
	if err != nil {
		return Recipe{}, err
	}
	if out.Title == "" || len(out.Ingredients) == 0 || len(out.Instructions) == 0 {
		return Recipe{}, fmt.Errorf("%w: incomplete recipe", ErrMalformedOutput)
	}
	return out, nil
}

// DescribeRecipe writes a description and tags for a recipe.
func (g *Generator) DescribeRecipe(ctx context.Context, name, cuisine, ingredients, instructions string) (Description, error) {
	var out Description
	err := g.generate(ctx, "description", descriptionPrompt, map[string]any{
		"name":         name,
		"cuisine":      cuisine,
		"ingredients":  ingredients,
		"instructions": instructions,
	}, &out)
	if err != nil {
		return Description{}, err
	}
	out.Tags = cleanTags(out.Tags)
	return out, nil
}

// SuggestTags proposes search tags for a recipe. dietary is optional.
func (g *Generator) SuggestTags(ctx context.Context, name, ingredients, cuisine, dietary string) ([]string, error) {
	var out struct {
		Tags []string `json:"tags"`
	}
	vals := map[string]any{"name": name, "ingredients": ingredients, "cuisine": cuisine, "dietary": dietary}
	if err := g.generate(ctx, "tags", tagsPrompt, vals, &out, "dietary"); err != nil {
		return nil, err
	}
	return cleanTags(out.Tags), nil
}

// BlogIntroduction writes an introduction for a blog post on topic.
func (g *Generator) BlogIntroduction(ctx context.Context, topic string) (string, error) {
	var out struct {
		Introduction string `json:"introduction"`
	}
	if err := g.generate(ctx, "blog-intro", blogPrompt, map[string]any{"topic": topic}, &out); err != nil {
		return "", err
	}
	return out.Introduction, nil
}

// Poem writes a four-line Sufi-style poem on topic.
func (g *Generator) Poem(ctx context.Context, topic string) (string, error) {
	var out struct {
		Poem string `json:"poem"`
	}
	if err := g.generate(ctx, "poem", poemPrompt, map[string]any{"topic": topic}, &out); err != nil {
		return "", err
	}
	return out.Poem, nil
}

func (g *Generator) generate(ctx context.Context, kind string, tmpl prompts.PromptTemplate, vals map[string]any, out any, optional ...string) (err error) {
	ctx, span := otel.AddSpan(ctx, "content."+kind, attribute.String("kind", kind))
	defer span.End()
	defer func() {
		switch {
		case err == nil:
			g.record(kind, "success")
		case errors.Is(err, ErrEmptyInput):
			g.record(kind, "invalid")
		default:
			g.record(kind, "error")
			g.log.Warn("content generation failed", zap.String("kind", kind), zap.Error(err))
		}
	}()

	for k, v := range vals {
		s, _ := v.(string)
		if strings.TrimSpace(s) == "" && !slices.Contains(optional, k) {
			return fmt.Errorf("%w: %s", ErrEmptyInput, k)
		}
	}

	prompt, err := tmpl.Format(vals)
	if err != nil {
		return fmt.Errorf("format %s prompt: %w", kind, err)
	}
	reply, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, g.callOpts...)
	if err != nil {
		return fmt.Errorf("generate %s: %w", kind, err)
	}
	if err := json.Unmarshal([]byte(stripFence(reply)), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

func (g *Generator) record(kind, outcome string) {
	if g.recorder != nil {
		g.recorder.Generation(kind, outcome)
	}
}

// stripFence removes a surrounding markdown code fence, if any.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
