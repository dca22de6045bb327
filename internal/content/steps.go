package content

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"contentpipe/internal/backend"
	"contentpipe/internal/schema"
	"contentpipe/internal/step"
)

// Generator produces a structured payload for a prompt. *backend.Client
// implements it.
type Generator interface {
	GenerateStructured(ctx context.Context, prompt string) (map[string]any, error)
	GenerateInto(ctx context.Context, prompt string, out any) error
}

var _ Generator = (*backend.Client)(nil)

// ErrNoQuestions is returned when the backend produced no usable questions.
var ErrNoQuestions = errors.New("no questions generated")

// extractStep turns the raw input mapping into a Product.
type extractStep struct {
	step.Base
	validator *schema.Validator
}

func (s *extractStep) Validate(input any) error {
	if err := s.Base.Validate(input); err != nil {
		return err
	}
	if _, ok := input.(map[string]any); !ok {
		return step.Invalid("[%s] input must be a mapping, got %T", s.StepName, input)
	}
	return nil
}

func (s *extractStep) Execute(ctx context.Context, input any) (any, error) {
	raw := input.(map[string]any)
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	step.RecordDecision(ctx, s.StepName, "parsing product data", map[string]any{"keys_present": keys})

	return ParseProduct(raw, s.validator)
}

// productStep is the shared Validate for steps that take a Product.
type productStep struct {
	step.Base
}

func (s productStep) Validate(input any) error {
	p, ok := input.(Product)
	if !ok {
		return step.Invalid("[%s] input must be a Product, got %T", s.StepName, input)
	}
	if p.Name == "" {
		return step.Invalid("[%s] product has no name", s.StepName)
	}
	return nil
}

type questionsStep struct {
	productStep
	gen    Generator
	logger *zap.Logger
}

func (s *questionsStep) Execute(ctx context.Context, input any) (any, error) {
	p := input.(Product)
	step.RecordDecision(ctx, s.StepName, "generating categorized questions", map[string]any{
		"product":    p.Name,
		"categories": Categories,
	})

	var questions Questions
	if err := s.gen.GenerateInto(ctx, questionsPrompt(p), &questions); err != nil {
		return nil, err
	}
	if questions.Total() == 0 {
		return nil, ErrNoQuestions
	}
	s.logger.Info("questions generated",
		zap.Int("questions", questions.Total()),
		zap.Int("categories", len(questions)))
	return questions, nil
}

type competitorStep struct {
	productStep
	gen       Generator
	validator *schema.Validator
	logger    *zap.Logger
}

func (s *competitorStep) Execute(ctx context.Context, input any) (any, error) {
	p := input.(Product)
	step.RecordDecision(ctx, s.StepName, "generating fictional competitor", map[string]any{"source_product": p.Name})

	payload, err := s.gen.GenerateStructured(ctx, competitorPrompt(p))
	if err != nil {
		return nil, err
	}
	competitor, err := ParseProduct(unwrapProduct(payload), s.validator)
	if err != nil {
		return nil, fmt.Errorf("competitor product: %w", err)
	}
	s.logger.Info("competitor generated", zap.String("product", competitor.Name))
	return competitor, nil
}

// DefaultCompetitor is the competitor used when none can be generated.
func DefaultCompetitor() Product {
	return Product{
		Name:           "RadiantGlow Vitamin C Complex",
		Concentration:  "15% Vitamin C",
		SkinType:       "All Skin Types",
		KeyIngredients: "Vitamin C, Niacinamide, Vitamin E",
		Benefits:       "Brightening, Anti-aging, Reduces fine lines",
		HowToUse:       "Apply 3-4 drops morning and evening",
		SideEffects:    "May cause redness for very sensitive skin",
		Price:          "₹849",
	}
}

// faqInput is the input of the FAQ step. Questions is empty when question
// generation failed.
type faqInput struct {
	Product   Product
	Questions Questions
}

type faqStep struct {
	step.Base
	gen    Generator
	logger *zap.Logger
}

func (s *faqStep) Validate(input any) error {
	in, ok := input.(faqInput)
	if !ok {
		return step.Invalid("[%s] unexpected input %T", s.StepName, input)
	}
	return productStep{Base: s.Base}.Validate(in.Product)
}

func (s *faqStep) Execute(ctx context.Context, input any) (any, error) {
	in := input.(faqInput)

	if in.Questions.Total() > 0 {
		step.RecordDecision(ctx, s.StepName, "building FAQ from categorized questions", map[string]any{
			"product":   in.Product.Name,
			"questions": in.Questions.Total(),
		})
		page := FAQPage{ProductName: in.Product.Name, FAQs: []FAQItem{}}
		for _, category := range in.Questions.OrderedCategories() {
			for _, qa := range in.Questions[category] {
				page.FAQs = append(page.FAQs, FAQItem{Question: qa.Question, Answer: qa.Answer, Category: category})
			}
		}
		return page, nil
	}

	step.RecordDecision(ctx, s.StepName, "generating extended FAQ", map[string]any{"product": in.Product.Name})
	var page FAQPage
	if err := s.gen.GenerateInto(ctx, faqPrompt(in.Product), &page); err != nil {
		return nil, err
	}
	page.ProductName = in.Product.Name
	if page.FAQs == nil {
		page.FAQs = []FAQItem{}
	}
	s.logger.Info("extended FAQ generated", zap.Int("faqs", len(page.FAQs)))
	return page, nil
}

type productPageStep struct {
	productStep
	gen    Generator
	logger *zap.Logger
}

func (s *productPageStep) Execute(ctx context.Context, input any) (any, error) {
	p := input.(Product)
	step.RecordDecision(ctx, s.StepName, "generating product page", map[string]any{"product": p.Name})

	var page ProductPage
	if err := s.gen.GenerateInto(ctx, productPagePrompt(p), &page); err != nil {
		return nil, err
	}

	if page.Title == "" {
		page.Title = p.Name
	}
	if page.Price == "" {
		page.Price = FormatPrice(p.Price).Display
	}
	if len(page.KeyBenefits) == 0 {
		page.KeyBenefits = BulletTexts(BenefitBullets(p.Benefits, 0))
	}
	if page.KeyBenefits == nil {
		page.KeyBenefits = []string{}
	}
	if page.Specifications == nil {
		page.Specifications = []Spec{}
	}
	if page.UsageGuide == "" {
		page.UsageGuide = p.HowToUse
	}
	if page.SafetyInfo == "" {
		page.SafetyInfo = p.SideEffects
	}
	s.logger.Debug("product page generated",
		zap.Int("benefits", len(page.KeyBenefits)),
		zap.Int("specifications", len(page.Specifications)))
	return page, nil
}

// comparisonInput pairs the product with its competitor.
type comparisonInput struct {
	A, B Product
}

type comparisonStep struct {
	step.Base
	gen    Generator
	logger *zap.Logger
}

func (s *comparisonStep) Validate(input any) error {
	in, ok := input.(comparisonInput)
	if !ok {
		return step.Invalid("[%s] unexpected input %T", s.StepName, input)
	}
	if in.A.Name == "" || in.B.Name == "" {
		return step.Invalid("[%s] both products need a name", s.StepName)
	}
	return nil
}

func (s *comparisonStep) Execute(ctx context.Context, input any) (any, error) {
	in := input.(comparisonInput)
	step.RecordDecision(ctx, s.StepName, "generating comparison page", map[string]any{
		"product_a": in.A.Name,
		"product_b": in.B.Name,
	})

	table := BuildComparisonTable(in.A, in.B)
	s.logger.Debug("comparison table built",
		zap.Int("rows", len(table)),
		zap.String("price_a", FormatPrice(in.A.Price).Display),
		zap.String("price_b", FormatPrice(in.B.Price).Display))

	var text struct {
		Summary string `mapstructure:"summary"`
		Verdict string `mapstructure:"verdict"`
	}
	if err := s.gen.GenerateInto(ctx, comparisonPrompt(in.A, in.B, table), &text); err != nil {
		return nil, err
	}

	return ComparisonPage{
		ProductAName:    in.A.Name,
		ProductBName:    in.B.Name,
		Summary:         text.Summary,
		ComparisonTable: table,
		Verdict:         text.Verdict,
	}, nil
}
