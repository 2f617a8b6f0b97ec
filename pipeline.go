package questmd

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tsouza/questmd/bind"
	"github.com/tsouza/questmd/hierarchy"
	"github.com/tsouza/questmd/markdown"
	"github.com/tsouza/questmd/model"
	"github.com/tsouza/questmd/normalize"
	"github.com/tsouza/questmd/order"
	"github.com/tsouza/questmd/source"
	"github.com/tsouza/questmd/validate"
)

// pageResult is the immutable output of one page worker. Workers share
// nothing; the coordinator merges results by concatenation and sort.
type pageResult struct {
	page    int
	skipped bool
	blocks  []*model.DocumentNode
	issues  []model.ValidationIssue
}

// runPipeline executes normalize → hierarchy → order → validate → bind →
// serialize. Every stage before binding is pure computation; binding is
// the only stage touching the source document and is bounded per page.
func runPipeline(ctx context.Context, src source.Accessor, raw []normalize.RawDetection, opts Options) (*Result, error) {
	pages, pageIssues := collectPages(src, raw)

	normalizer := normalize.NewWithConfig(normalize.Config{
		ClampTolerance: opts.ContainmentTolerance,
	})
	normalized := normalizer.Normalize(raw, pages)

	if !opts.DisableColumnInference {
		inferColumns(pages, normalized)
	}

	builder := hierarchy.NewWithConfig(hierarchy.Config{
		TieEpsilon:           opts.TieBreakEpsilon,
		ContainmentTolerance: opts.ContainmentTolerance,
	})
	resolver := order.New()
	validator := validate.NewWithConfig(validate.Config{
		MaxAlternatives: opts.MaxAlternatives,
	})
	assets := bind.NewAssetStore(opts.AssetOutputDir)
	binder := bind.NewWithConfig(src, assets, bind.Config{
		MinTextOverlap: opts.MinTextOverlap,
		CropDPI:        opts.CropDPI,
		Timeout:        opts.extractionTimeout(),
	})

	pageNumbers := normalized.Pages()
	results := make([]*pageResult, len(pageNumbers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, pageNum := range pageNumbers {
		i, pageNum := i, pageNum
		g.Go(func() error {
			// Page-granular cancellation: a cancelled page is skipped,
			// never half-processed.
			if gctx.Err() != nil {
				results[i] = &pageResult{page: pageNum, skipped: true}
				return nil
			}
			results[i] = processPage(gctx, pages[pageNum], normalized.Detections(pageNum), builder, resolver, validator, binder)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Pages: pages}
	tree := &model.DocumentTree{}
	tree.Issues = append(tree.Issues, pageIssues...)
	tree.Issues = append(tree.Issues, normalized.Issues...)

	blocksByPage := make(map[int][]*model.DocumentNode)
	var allBlocks []*model.DocumentNode
	for _, pr := range results {
		if pr.skipped {
			result.SkippedPages = append(result.SkippedPages, pr.page)
			continue
		}
		tree.Issues = append(tree.Issues, pr.issues...)
		blocksByPage[pr.page] = pr.blocks
		allBlocks = append(allBlocks, pr.blocks...)
	}

	tree.Issues = append(tree.Issues, detectSplitQuestions(pages, blocksByPage)...)
	tree.Blocks = resolver.ResolveRoots(allBlocks, pages)

	serializer := markdown.NewWithOptions(markdown.Options{
		QuestionPrefix:  opts.QuestionPrefix,
		AssetDir:        opts.AssetDir,
		MaxAlternatives: opts.MaxAlternatives,
	})
	result.Tree = tree
	result.Markdown = serializer.Render(tree)

	// Report partial completion without discarding it
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// processPage runs the per-page stages: hierarchy, child ordering,
// validation, content binding.
func processPage(ctx context.Context, page *model.Page, detections []model.Detection,
	builder *hierarchy.Builder, resolver *order.Resolver, validator *validate.Validator, binder *bind.Binder) *pageResult {

	pr := &pageResult{page: page.Number}

	tree := builder.Build(page, detections)
	pr.issues = append(pr.issues, tree.Issues...)
	pr.blocks = tree.Blocks

	for _, block := range tree.Blocks {
		resolver.ResolveChildren(block)
		pr.issues = append(pr.issues, validator.ValidateBlock(block)...)
	}
	pr.issues = append(pr.issues, validator.ValidatePage(page.Number, len(tree.Orphans))...)

	pr.issues = append(pr.issues, binder.BindPage(ctx, page.Number, tree.Blocks)...)
	return pr
}

// collectPages builds the page table for every page referenced by the
// raw detections. Pages the source cannot describe are omitted; their
// detections are rejected downstream by the normalizer.
func collectPages(src source.Accessor, raw []normalize.RawDetection) (map[int]*model.Page, []model.ValidationIssue) {
	pages := make(map[int]*model.Page)
	var issues []model.ValidationIssue

	seen := make(map[int]bool)
	var numbers []int
	for _, rd := range raw {
		if !seen[rd.Page] {
			seen[rd.Page] = true
			numbers = append(numbers, rd.Page)
		}
	}
	sort.Ints(numbers)

	for _, num := range numbers {
		width, height, err := src.PageSize(num)
		if err != nil {
			issues = append(issues, model.ValidationIssue{
				Rule:     model.RuleMalformedDetection,
				Severity: model.SeverityError,
				Page:     num,
				Detail:   fmt.Sprintf("page unavailable in source document: %v", err),
			})
			continue
		}
		pages[num] = model.NewPage(num, width, height)
	}
	return pages, issues
}

// inferColumns derives each page's column boundaries from its
// question-block detections.
func inferColumns(pages map[int]*model.Page, normalized *normalize.Result) {
	config := order.DefaultColumnConfig()
	for _, num := range normalized.Pages() {
		page, ok := pages[num]
		if !ok || len(page.ColumnBoundaries) > 0 {
			continue
		}
		var boxes []model.BBox
		for _, d := range normalized.Detections(num) {
			if d.Class == model.ClassQuestionBlock {
				boxes = append(boxes, d.BBox)
			}
		}
		page.ColumnBoundaries = order.InferColumnBoundaries(boxes, config)
	}
}

// splitMarginRatio is how close to the page edge a block must sit, as a
// fraction of page height, to count for split-question detection.
const splitMarginRatio = 0.02

// detectSplitQuestions flags block pairs that look like one question cut
// by a page break: a block flush with the bottom of one page followed by
// a statement-less block flush with the top of the next. The fragments
// stay independent blocks; the issue only aids manual review.
func detectSplitQuestions(pages map[int]*model.Page, blocksByPage map[int][]*model.DocumentNode) []model.ValidationIssue {
	var issues []model.ValidationIssue

	var numbers []int
	for num := range blocksByPage {
		numbers = append(numbers, num)
	}
	sort.Ints(numbers)

	for _, num := range numbers {
		page, nextPage := pages[num], pages[num+1]
		nextBlocks := blocksByPage[num+1]
		if page == nil || nextPage == nil || len(blocksByPage[num]) == 0 || len(nextBlocks) == 0 {
			continue
		}

		bottom := blocksByPage[num][0]
		for _, b := range blocksByPage[num] {
			if b.BBox.Y1 > bottom.BBox.Y1 {
				bottom = b
			}
		}
		top := nextBlocks[0]
		for _, b := range nextBlocks {
			if b.BBox.Y0 < top.BBox.Y0 {
				top = b
			}
		}

		if bottom.BBox.Y1 < page.Height*(1-splitMarginRatio) {
			continue
		}
		if top.BBox.Y0 > nextPage.Height*splitMarginRatio {
			continue
		}
		if len(top.ChildrenOfClass(model.ClassStatementText)) > 0 {
			continue
		}

		bottom.AddFlag(model.FlagSplitQuestion)
		top.AddFlag(model.FlagSplitQuestion)
		issues = append(issues, model.ValidationIssue{
			NodeID:   top.ID,
			Rule:     model.RuleSplitQuestion,
			Severity: model.SeverityInfo,
			Page:     num + 1,
			Detail:   fmt.Sprintf("block continues a question from page %d; fragments kept separate", num),
		})
	}
	return issues
}
