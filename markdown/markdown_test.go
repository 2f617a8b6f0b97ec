package markdown

import (
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/tsouza/questmd/model"
)

func node(class model.Class, order int) *model.DocumentNode {
	n := model.NewNode(model.Detection{
		Page:  1,
		Class: class,
		BBox:  model.BBox{X0: 50, Y0: float64(60 + order*40), X1: 550, Y1: float64(90 + order*40)},
	})
	n.OrderIndex = order
	return n
}

func textChild(class model.Class, order int, text string) *model.DocumentNode {
	n := node(class, order)
	n.Content = model.Content{Text: text}
	return n
}

func imageChild(class model.Class, order int, hash string) *model.DocumentNode {
	n := node(class, order)
	n.Content = model.Content{AssetHash: hash, AssetPath: hash + ".png"}
	return n
}

func questionBlock(children ...*model.DocumentNode) *model.DocumentNode {
	b := model.NewNode(model.Detection{
		Page:  1,
		Class: model.ClassQuestionBlock,
		BBox:  model.BBox{X0: 40, Y0: 50, X1: 560, Y1: 700},
	})
	b.Children = children
	return b
}

func TestRender_FullQuestion(t *testing.T) {
	s := New()

	tree := &model.DocumentTree{Blocks: []*model.DocumentNode{
		questionBlock(
			textChild(model.ClassStatementText, 0, "O enunciado da questão."),
			imageChild(model.ClassStatementImage, 1, "abc123"),
			textChild(model.ClassAlternativeText, 2, "primeira"),
			textChild(model.ClassAlternativeText, 3, "segunda"),
			textChild(model.ClassAlternativeText, 4, "terceira"),
			textChild(model.ClassAlternativeText, 5, "quarta"),
			textChild(model.ClassAlternativeText, 6, "quinta"),
		),
	}}

	out := s.Render(tree)

	for _, want := range []string{
		"# Questão 1\n",
		"O enunciado da questão.\n",
		"![statement_image](assets/abc123.png)\n",
		"---\n",
		"A) primeira\n",
		"B) segunda\n",
		"C) terceira\n",
		"D) quarta\n",
		"E) quinta\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if !strings.Contains(out, "enunciado") || strings.Index(out, "enunciado") > strings.Index(out, "A) ") {
		t.Error("statement must precede alternatives")
	}
}

func TestRender_FatalBlockPlaceholder(t *testing.T) {
	s := New()

	empty := questionBlock()
	empty.AddFlag(model.FlagEmptyBlock)
	tree := &model.DocumentTree{Blocks: []*model.DocumentNode{empty}}

	out := s.Render(tree)

	if !strings.Contains(out, "[questão não reconstruída]") {
		t.Errorf("placeholder missing:\n%s", out)
	}
	if strings.Contains(out, "---") {
		t.Error("fatal block should not render content structure")
	}
}

func TestRender_ExcessAlternativeSkipped(t *testing.T) {
	s := New()

	sixth := textChild(model.ClassAlternativeText, 6, "sexta")
	sixth.AddFlag(model.FlagExcessAlternative)
	// An image pairing with the skipped alternative is skipped with it.
	trailingImage := imageChild(model.ClassAlternativeImage, 7, "ffff00")

	tree := &model.DocumentTree{Blocks: []*model.DocumentNode{
		questionBlock(
			textChild(model.ClassStatementText, 0, "Enunciado."),
			textChild(model.ClassAlternativeText, 1, "primeira"),
			textChild(model.ClassAlternativeText, 2, "segunda"),
			textChild(model.ClassAlternativeText, 3, "terceira"),
			textChild(model.ClassAlternativeText, 4, "quarta"),
			textChild(model.ClassAlternativeText, 5, "quinta"),
			sixth,
			trailingImage,
		),
	}}

	out := s.Render(tree)

	if strings.Contains(out, "sexta") {
		t.Error("excess alternative rendered")
	}
	if strings.Contains(out, "ffff00") {
		t.Error("image pairing with excess alternative rendered")
	}
	if !strings.Contains(out, "E) quinta") {
		t.Error("fifth alternative missing")
	}
	if strings.Contains(out, "F)") {
		t.Error("unexpected sixth label")
	}
}

func TestRender_AlternativeImagePairing(t *testing.T) {
	s := New()

	tree := &model.DocumentTree{Blocks: []*model.DocumentNode{
		questionBlock(
			textChild(model.ClassStatementText, 0, "Enunciado."),
			imageChild(model.ClassAlternativeImage, 1, "lead00"), // reads before any alternative text
			textChild(model.ClassAlternativeText, 2, "primeira"),
			imageChild(model.ClassAlternativeImage, 3, "aaaa11"),
			textChild(model.ClassAlternativeText, 4, "segunda"),
		),
	}}

	out := s.Render(tree)

	leadIdx := strings.Index(out, "lead00")
	aIdx := strings.Index(out, "A) primeira")
	pairIdx := strings.Index(out, "aaaa11")
	bIdx := strings.Index(out, "B) segunda")

	if leadIdx < 0 || aIdx < 0 || pairIdx < 0 || bIdx < 0 {
		t.Fatalf("missing content:\n%s", out)
	}
	if !(leadIdx < aIdx && aIdx < pairIdx && pairIdx < bIdx) {
		t.Errorf("pairing order wrong:\n%s", out)
	}
	if !strings.Contains(out, "   ![alternative_image](assets/aaaa11.png)") {
		t.Error("paired image not indented under its alternative")
	}
}

func TestRender_Deterministic(t *testing.T) {
	s := New()

	tree := &model.DocumentTree{Blocks: []*model.DocumentNode{
		questionBlock(
			textChild(model.ClassStatementText, 0, "Enunciado."),
			textChild(model.ClassAlternativeText, 1, "primeira"),
		),
	}}

	if s.Render(tree) != s.Render(tree) {
		t.Error("two renders of the same tree differ")
	}
}

// TestRender_ParsesAsMarkdown re-parses the output and checks the
// document structure survives a real Markdown parser.
func TestRender_ParsesAsMarkdown(t *testing.T) {
	s := New()

	tree := &model.DocumentTree{Blocks: []*model.DocumentNode{
		questionBlock(
			textChild(model.ClassStatementText, 0, "Primeiro enunciado."),
			textChild(model.ClassAlternativeText, 1, "alternativa"),
		),
		questionBlock(
			textChild(model.ClassStatementText, 0, "Segundo enunciado."),
			textChild(model.ClassAlternativeText, 1, "alternativa"),
		),
	}}

	out := []byte(s.Render(tree))

	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(out))

	headings := 0
	breaks := 0
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 1 {
				headings++
			}
		case *ast.ThematicBreak:
			breaks++
		}
		return ast.WalkContinue, nil
	})

	if headings != 2 {
		t.Errorf("parsed %d level-1 headings, want 2", headings)
	}
	if breaks != 2 {
		t.Errorf("parsed %d thematic breaks, want 2", breaks)
	}
}
