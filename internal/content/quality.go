package content

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"contentpipe/internal/pipeline"
	"contentpipe/internal/schema"
	"contentpipe/internal/step"
)

// Thresholds are the minimum counts the quality check enforces.
type Thresholds struct {
	MinFAQItems       int `mapstructure:"min_faq_items"`
	MinBenefits       int `mapstructure:"min_benefits"`
	MinComparisonRows int `mapstructure:"min_comparison_rows"`
}

// DefaultThresholds returns the standard minimums.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinFAQItems:       15,
		MinBenefits:       2,
		MinComparisonRows: 4,
	}
}

// FAQ counts below this are accepted with a warning.
const recommendedFAQItems = 20

// Report stat keys.
const (
	StatFAQCount       = "faq_count"
	StatBenefitsCount  = "benefits_count"
	StatComparisonRows = "comparison_rows"
)

// Check validates the three pages and returns the consolidated report.
// Structural problems are errors; weaker content is a warning.
func Check(pages Pages, th Thresholds, validator *schema.Validator) pipeline.Report {
	r := pipeline.NewReport()

	faqCount := len(pages.FAQ.FAQs)
	switch {
	case faqCount < th.MinFAQItems:
		r.Errorf("FAQ has only %d items, requirement is %d+", faqCount, th.MinFAQItems)
	case faqCount < recommendedFAQItems:
		r.Warnf("FAQ has %d items (good, but %d+ is excellent)", faqCount, recommendedFAQItems)
	}
	for i, item := range pages.FAQ.FAQs {
		if runeLen(item.Question) < 5 {
			r.Warnf("FAQ item %d has empty/short question", i+1)
		}
		if runeLen(item.Answer) < 10 {
			r.Warnf("FAQ item %d has empty/short answer", i+1)
		}
	}

	page := pages.ProductPage
	if utf8.RuneCountInString(page.Tagline) < 5 {
		r.Errorf("Tagline is missing or too short")
	}
	if utf8.RuneCountInString(page.Description) < 20 {
		r.Warnf("Description is missing or too short")
	}
	if n := len(page.KeyBenefits); n < th.MinBenefits {
		r.Errorf("Only %d key benefits, need %d+", n, th.MinBenefits)
	}
	if len(page.Specifications) < 2 {
		r.Warnf("Less than 2 specifications listed")
	}
	if page.UsageGuide == "" {
		r.Warnf("Usage guide is empty")
	}

	cmp := pages.Comparison
	if n := len(cmp.ComparisonTable); n < th.MinComparisonRows {
		r.Errorf("Comparison has only %d rows, need %d+", n, th.MinComparisonRows)
	}
	if utf8.RuneCountInString(cmp.Verdict) < 10 {
		r.Errorf("Verdict is missing or too short")
	}
	if cmp.Summary == "" {
		r.Warnf("Comparison summary is empty")
	}
	if cmp.ProductAName == cmp.ProductBName {
		r.Errorf("Product A and B have the same name")
	}

	if validator != nil {
		for _, doc := range []struct {
			name  string
			value any
		}{
			{schema.FAQ, pages.FAQ},
			{schema.ProductPage, pages.ProductPage},
			{schema.ComparisonPage, pages.Comparison},
		} {
			if err := validator.Validate(doc.name, doc.value); err != nil {
				r.Errorf("%v", err)
			}
		}
	}

	r.Stats[StatFAQCount] = faqCount
	r.Stats[StatBenefitsCount] = len(page.KeyBenefits)
	r.Stats[StatComparisonRows] = len(cmp.ComparisonTable)
	return r.Finalize()
}

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

type qualityStep struct {
	step.Base
	thresholds Thresholds
	validator  *schema.Validator
	logger     *zap.Logger
}

func (s *qualityStep) Validate(input any) error {
	if _, ok := input.(Pages); !ok {
		return step.Invalid("[%s] input must contain the FAQ, product and comparison pages, got %T", s.StepName, input)
	}
	return nil
}

func (s *qualityStep) Execute(ctx context.Context, input any) (any, error) {
	report := Check(input.(Pages), s.thresholds, s.validator)
	step.RecordDecision(ctx, s.StepName, "validation completed", map[string]any{
		"status":        report.Status,
		"error_count":   len(report.Errors),
		"warning_count": len(report.Warnings),
	})
	s.logger.Info("quality check finished",
		zap.String("status", report.Status),
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}
