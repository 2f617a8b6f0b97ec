package questmd

import (
	"context"
	"fmt"
	"image"
	"strings"
	"testing"

	"github.com/tsouza/questmd/model"
	"github.com/tsouza/questmd/normalize"
	"github.com/tsouza/questmd/source"
)

func TestReconstructRoundTrip(t *testing.T) {
	src := &fakeSource{
		sizes: map[int][2]float64{1: {600, 800}},
		spans: map[int][]source.TextSpan{1: {
			span("Qual é a capital do Brasil?", 60, 60, 540, 200),
			span("alternativa A", 60, 220, 540, 280),
			span("alternativa B", 60, 300, 540, 360),
			span("alternativa C", 60, 380, 540, 440),
			span("alternativa D", 60, 460, 540, 520),
			span("alternativa E", 60, 540, 540, 600),
		}},
	}

	raw := []normalize.RawDetection{
		det(1, model.ClassQuestionBlock, 50, 50, 550, 700),
		det(1, model.ClassStatementText, 60, 60, 540, 200),
		det(1, model.ClassAlternativeText, 60, 220, 540, 280),
		det(1, model.ClassAlternativeText, 60, 300, 540, 360),
		det(1, model.ClassAlternativeText, 60, 380, 540, 440),
		det(1, model.ClassAlternativeText, 60, 460, 540, 520),
		det(1, model.ClassAlternativeText, 60, 540, 540, 600),
	}

	result, err := FromAccessor(src).Detections(raw).Reconstruct(context.Background())
	if err != nil {
		t.Fatalf("Reconstruct returned error: %v", err)
	}
	if len(result.Tree.Issues) != 0 {
		t.Fatalf("expected clean run, got %d issues: %v", len(result.Tree.Issues), result.Tree.Issues)
	}
	if result.Questions() != 1 {
		t.Fatalf("expected 1 question, got %d", result.Questions())
	}

	md := result.Markdown
	for _, want := range []string{
		"# Questão 1\n",
		"Qual é a capital do Brasil?",
		"---\n",
		"A) alternativa A\n",
		"E) alternativa E\n",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestReconstructOverCapacity(t *testing.T) {
	src, raw := blockWithAlternatives(6)

	result, err := FromAccessor(src).Detections(raw).Reconstruct(context.Background())
	if err != nil {
		t.Fatalf("Reconstruct returned error: %v", err)
	}

	if n := countRule(result, model.RuleOverCapacity); n != 1 {
		t.Errorf("expected 1 over_capacity issue, got %d", n)
	}
	if n := countRule(result, model.RuleExcessAlternative); n != 1 {
		t.Errorf("expected 1 excess_alternative issue, got %d", n)
	}
	if strings.Contains(result.Markdown, "alternativa 6") {
		t.Errorf("excess alternative rendered:\n%s", result.Markdown)
	}
	if !strings.Contains(result.Markdown, "E) alternativa 5\n") {
		t.Errorf("fifth alternative missing:\n%s", result.Markdown)
	}
}

func TestReconstructMaxAlternativesOption(t *testing.T) {
	src, raw := blockWithAlternatives(5)

	opts := DefaultOptions()
	opts.MaxAlternatives = 3
	result, err := FromAccessor(src).Detections(raw).WithOptions(opts).Reconstruct(context.Background())
	if err != nil {
		t.Fatalf("Reconstruct returned error: %v", err)
	}

	if n := countRule(result, model.RuleExcessAlternative); n != 2 {
		t.Errorf("expected 2 excess_alternative issues, got %d", n)
	}
	if !strings.Contains(result.Markdown, "C) alternativa 3\n") {
		t.Errorf("third alternative missing:\n%s", result.Markdown)
	}
	if strings.Contains(result.Markdown, "alternativa 4") {
		t.Errorf("fourth alternative rendered beyond capacity:\n%s", result.Markdown)
	}
}

func TestReconstructOrphanReportedOnce(t *testing.T) {
	src, raw := blockWithAlternatives(2)
	// A statement fully outside the block, low on the page.
	raw = append(raw, det(1, model.ClassStatementText, 60, 720, 540, 760))

	result, err := FromAccessor(src).Detections(raw).Reconstruct(context.Background())
	if err != nil {
		t.Fatalf("Reconstruct returned error: %v", err)
	}

	if n := countRule(result, model.RuleOrphanDetection); n != 1 {
		t.Errorf("expected exactly 1 orphan_detection issue, got %d", n)
	}
	if n := countRule(result, model.RuleOrphansOnPage); n != 1 {
		t.Errorf("expected exactly 1 orphans_on_page issue, got %d", n)
	}
	// The orphan never enters the tree.
	for _, block := range result.Tree.Blocks {
		for _, child := range block.Children {
			if child.HasFlag(model.FlagOrphan) {
				t.Errorf("orphan attached to block %s", block.ID)
			}
		}
	}
}

func TestReconstructMultiColumn(t *testing.T) {
	src := &fakeSource{
		sizes: map[int][2]float64{1: {600, 800}},
		spans: map[int][]source.TextSpan{1: {
			span("enunciado esquerda", 50, 60, 270, 120),
			span("opção esquerda", 50, 140, 270, 180),
			span("enunciado direita", 330, 60, 550, 120),
			span("opção direita", 330, 140, 550, 180),
		}},
	}

	// Right column listed first; reading order must still put the left
	// column's block first.
	raw := []normalize.RawDetection{
		det(1, model.ClassQuestionBlock, 320, 40, 560, 400),
		det(1, model.ClassStatementText, 330, 60, 550, 120),
		det(1, model.ClassAlternativeText, 330, 140, 550, 180),
		det(1, model.ClassQuestionBlock, 40, 40, 280, 400),
		det(1, model.ClassStatementText, 50, 60, 270, 120),
		det(1, model.ClassAlternativeText, 50, 140, 270, 180),
	}

	result, err := FromAccessor(src).Detections(raw).Reconstruct(context.Background())
	if err != nil {
		t.Fatalf("Reconstruct returned error: %v", err)
	}

	left := strings.Index(result.Markdown, "enunciado esquerda")
	right := strings.Index(result.Markdown, "enunciado direita")
	if left < 0 || right < 0 {
		t.Fatalf("statement text missing from markdown:\n%s", result.Markdown)
	}
	if left > right {
		t.Errorf("left column rendered after right column:\n%s", result.Markdown)
	}
}

func TestReconstructDeterministic(t *testing.T) {
	build := func(shuffled bool) (string, string) {
		// Six alternatives so the run produces issues with node IDs.
		src, raw := blockWithAlternatives(6)
		if shuffled {
			for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
				raw[i], raw[j] = raw[j], raw[i]
			}
		}
		result, err := FromAccessor(src).Detections(raw).Reconstruct(context.Background())
		if err != nil {
			t.Fatalf("Reconstruct returned error: %v", err)
		}
		var sb strings.Builder
		if err := result.WriteReport(&sb); err != nil {
			t.Fatalf("WriteReport returned error: %v", err)
		}
		return result.Markdown, sb.String()
	}

	first, firstReport := build(false)
	second, _ := build(true)
	if first != second {
		t.Errorf("output depends on input order:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}

	again, againReport := build(false)
	if again != first {
		t.Errorf("repeated run differs:\n--- first ---\n%s\n--- again ---\n%s", first, again)
	}
	if againReport != firstReport {
		t.Errorf("repeated run's report differs:\n--- first ---\n%s\n--- again ---\n%s", firstReport, againReport)
	}
}

func TestReconstructContainmentInvariant(t *testing.T) {
	src := &fakeSource{
		sizes: map[int][2]float64{1: {600, 800}},
		spans: map[int][]source.TextSpan{1: {
			span("enunciado transbordando", 60, 30, 540, 120),
			span("alternativa", 60, 140, 540, 180),
		}},
	}

	// The statement pokes 20pt above its block; the page tolerance is
	// 1% of 800 = 8pt, so the attachment is kept but reported.
	raw := []normalize.RawDetection{
		det(1, model.ClassQuestionBlock, 50, 50, 550, 700),
		det(1, model.ClassStatementText, 60, 30, 540, 120),
		det(1, model.ClassAlternativeText, 60, 140, 540, 180),
	}

	result, err := FromAccessor(src).Detections(raw).Reconstruct(context.Background())
	if err != nil {
		t.Fatalf("Reconstruct returned error: %v", err)
	}

	if n := countRule(result, model.RuleLooseContainment); n != 1 {
		t.Errorf("expected 1 loose_containment issue, got %d", n)
	}

	// Every leaf either lies within its parent expanded by the
	// tolerance or carries the loose-containment flag.
	for _, block := range result.Tree.Blocks {
		page := result.Pages[block.Page]
		tolerance := 0.01 * page.Width
		if h := 0.01 * page.Height; h > tolerance {
			tolerance = h
		}
		for _, child := range block.Children {
			inside := block.BBox.ContainsBox(child.BBox, tolerance)
			if !inside && !child.HasFlag(model.FlagLooseContainment) {
				t.Errorf("%s at %+v escapes its block unreported", child.Class, child.BBox)
			}
			if inside && child.HasFlag(model.FlagLooseContainment) {
				t.Errorf("%s at %+v flagged despite fitting its block", child.Class, child.BBox)
			}
		}
	}
}

func TestReconstructCancelled(t *testing.T) {
	src, raw := blockWithAlternatives(5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := FromAccessor(src).Detections(raw).Reconstruct(ctx)
	if err == nil {
		t.Fatal("expected the context error")
	}
	if result == nil {
		t.Fatal("expected a partial result alongside the error")
	}
	if len(result.SkippedPages) != 1 || result.SkippedPages[0] != 1 {
		t.Errorf("expected page 1 skipped, got %v", result.SkippedPages)
	}
}

func TestReconstructNoDetections(t *testing.T) {
	src := &fakeSource{sizes: map[int][2]float64{1: {600, 800}}}
	if _, err := FromAccessor(src).Reconstruct(context.Background()); err == nil {
		t.Fatal("expected an error without detections")
	}
}

func TestWriteReport(t *testing.T) {
	src, raw := blockWithAlternatives(6)

	result, err := FromAccessor(src).Detections(raw).Reconstruct(context.Background())
	if err != nil {
		t.Fatalf("Reconstruct returned error: %v", err)
	}

	var sb strings.Builder
	if err := result.WriteReport(&sb); err != nil {
		t.Fatalf("WriteReport returned error: %v", err)
	}
	report := sb.String()
	for _, want := range []string{"questions: 1", "pages: 1", "over_capacity", "excess_alternative"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

// blockWithAlternatives builds a single-page fixture: one question block
// with one statement and n stacked alternatives, spans matching each box.
func blockWithAlternatives(n int) (*fakeSource, []normalize.RawDetection) {
	spans := []source.TextSpan{span("enunciado", 60, 60, 540, 120)}
	raw := []normalize.RawDetection{
		det(1, model.ClassQuestionBlock, 50, 50, 550, 700),
		det(1, model.ClassStatementText, 60, 60, 540, 120),
	}
	for i := 0; i < n; i++ {
		y0 := 140.0 + float64(i)*60
		spans = append(spans, span(fmt.Sprintf("alternativa %d", i+1), 60, y0, 540, y0+40))
		raw = append(raw, det(1, model.ClassAlternativeText, 60, y0, 540, y0+40))
	}
	src := &fakeSource{
		sizes: map[int][2]float64{1: {600, 800}},
		spans: map[int][]source.TextSpan{1: spans},
	}
	return src, raw
}

func countRule(result *Result, rule model.Rule) int {
	n := 0
	for _, issue := range result.Tree.Issues {
		if issue.Rule == rule {
			n++
		}
	}
	return n
}

func det(page int, class model.Class, x0, y0, x1, y1 float64) normalize.RawDetection {
	return normalize.RawDetection{
		Page: page, Class: class,
		X0: x0, Y0: y0, X1: x1, Y1: y1,
		Confidence: 0.9,
	}
}

func span(text string, x0, y0, x1, y1 float64) source.TextSpan {
	return source.TextSpan{Text: text, BBox: model.NewBBox(x0, y0, x1, y1)}
}

// fakeSource is an in-memory Accessor for pipeline tests
type fakeSource struct {
	sizes map[int][2]float64
	spans map[int][]source.TextSpan
}

func (f *fakeSource) PageCount() int { return len(f.sizes) }

func (f *fakeSource) PageSize(page int) (float64, float64, error) {
	s, ok := f.sizes[page]
	if !ok {
		return 0, 0, fmt.Errorf("no page %d", page)
	}
	return s[0], s[1], nil
}

func (f *fakeSource) TextSpans(page int) ([]source.TextSpan, error) {
	return f.spans[page], nil
}

func (f *fakeSource) CropImage(page int, box model.BBox, dpi int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

func (f *fakeSource) Close() error { return nil }
