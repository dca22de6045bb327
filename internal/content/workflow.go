package content

import (
	"go.uber.org/zap"

	"contentpipe/internal/pipeline"
	"contentpipe/internal/schema"
	"contentpipe/internal/step"
)

// WorkflowName names the product-marketing run.
const WorkflowName = "product-content"

// Step names, in run order.
const (
	StepExtract     = "extract-product"
	StepQuestions   = "generate-questions"
	StepCompetitor  = "create-competitor"
	StepFAQ         = "generate-faq"
	StepProductPage = "generate-product-page"
	StepComparison  = "generate-comparison"
	StepQuality     = "validate-quality"
)

// NewWorkflow assembles the product-marketing workflow. Question and
// competitor generation are optional; every other step is fatal.
func NewWorkflow(gen Generator, validator *schema.Validator, th Thresholds, logger *zap.Logger) pipeline.Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("content")

	product := func(in pipeline.Inputs) any {
		p, _ := resultAs[Product](in, StepExtract)
		return p
	}

	return pipeline.Workflow{
		Name: WorkflowName,
		Steps: []pipeline.Definition{
			{
				Step:  &extractStep{Base: step.Base{StepName: StepExtract}, validator: validator},
				Fatal: true,
			},
			{
				Step:        &questionsStep{productStep: productStep{Base: step.Base{StepName: StepQuestions}}, gen: gen, logger: log},
				Input:       product,
				UsesBackend: true,
			},
			{
				Step:        &competitorStep{productStep: productStep{Base: step.Base{StepName: StepCompetitor}}, gen: gen, validator: validator, logger: log},
				Input:       product,
				UsesBackend: true,
				Fallback:    func(pipeline.Inputs) any { return DefaultCompetitor() },
			},
			{
				Step: &faqStep{Base: step.Base{StepName: StepFAQ}, gen: gen, logger: log},
				Input: func(in pipeline.Inputs) any {
					p, _ := resultAs[Product](in, StepExtract)
					q, _ := resultAs[Questions](in, StepQuestions)
					return faqInput{Product: p, Questions: q}
				},
				Fatal:       true,
				UsesBackend: true,
			},
			{
				Step:        &productPageStep{productStep: productStep{Base: step.Base{StepName: StepProductPage}}, gen: gen, logger: log},
				Input:       product,
				Fatal:       true,
				UsesBackend: true,
			},
			{
				Step: &comparisonStep{Base: step.Base{StepName: StepComparison}, gen: gen, logger: log},
				Input: func(in pipeline.Inputs) any {
					a, _ := resultAs[Product](in, StepExtract)
					b, ok := resultAs[Product](in, StepCompetitor)
					if !ok {
						b = DefaultCompetitor()
					}
					return comparisonInput{A: a, B: b}
				},
				Fatal:       true,
				UsesBackend: true,
			},
		},
		Report: pipeline.Definition{
			Step: &qualityStep{Base: step.Base{StepName: StepQuality}, thresholds: th, validator: validator, logger: log},
			Input: func(in pipeline.Inputs) any {
				var pages Pages
				var ok bool
				if pages.FAQ, ok = resultAs[FAQPage](in, StepFAQ); !ok {
					return nil
				}
				if pages.ProductPage, ok = resultAs[ProductPage](in, StepProductPage); !ok {
					return nil
				}
				if pages.Comparison, ok = resultAs[ComparisonPage](in, StepComparison); !ok {
					return nil
				}
				return pages
			},
		},
	}
}

func resultAs[T any](in pipeline.Inputs, name string) (T, bool) {
	v, ok := in.Result(name)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
