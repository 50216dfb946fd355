package patch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/naosu/internal/models"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// writePDF writes a small uncompressed PDF with computed xref offsets, one
// text line per entry, top-down.
func writePDF(t *testing.T, path string, pages ...[]string) {
	t.Helper()

	var objects []string
	pageCount := len(pages)
	fontObj := 3 + 2*pageCount

	var kids []string
	for i := 0; i < pageCount; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount),
	)

	for i, lines := range pages {
		contentObj := 3 + 2*i + 1
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontObj, contentObj))

		var sb strings.Builder
		y := 720
		for _, line := range lines {
			fmt.Fprintf(&sb, "BT /F1 12 Tf 72 %d Td (%s) Tj ET\n", y, line)
			y -= 40
		}
		stream := sb.String()
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	var buf strings.Builder
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefOffset)

	if err := os.WriteFile(path, []byte(buf.String()), 0600); err != nil {
		t.Fatal(err)
	}
}

func lineBlock(id string, page int, y float64) *models.Block {
	p := page
	bbox := models.Rect{X0: 72, Y0: y, X1: 400, Y1: y + 12}
	return &models.Block{
		ID:       id,
		Type:     models.BlockText,
		Location: models.BlockLocation{Page: &p, BBox: &bbox},
	}
}

// pageText extracts the raw page content text of a written PDF, used to
// verify what survived a patch.
func pageText(t *testing.T, path string, pageNr int) string {
	t.Helper()
	f, reader, err := pdf.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	rows, err := reader.Page(pageNr).GetTextByRow()
	if err != nil {
		t.Fatalf("extract %s page %d: %v", path, pageNr, err)
	}
	var sb strings.Builder
	for _, row := range rows {
		for _, frag := range row.Content {
			sb.WriteString(frag.S)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func TestPatcherApply(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "invoice.pdf")
	out := filepath.Join(dir, "invoice-patched.pdf")
	writePDF(t, in, []string{"Invoice total 400 units", "Thank you"})
	before, err := os.ReadFile(in)
	if err != nil {
		t.Fatal(err)
	}

	p := NewPatcher(zap.NewNop())
	block := lineBlock("pdf:invoice.pdf:p1:b0:l0:s0", 1, 720)
	instr := models.PatchInstruction{OldText: "400", NewText: "500"}
	if err := p.Apply(in, out, block, instr); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if _, err := os.Stat(out + ".mask"); !os.IsNotExist(err) {
		t.Error("mask intermediate left behind")
	}

	// The original text is excised, not painted over: it must be gone from
	// the page content entirely.
	got := pageText(t, out, 1)
	if strings.Contains(got, "400") {
		t.Errorf("old text still present in output page: %q", got)
	}
	if !strings.Contains(got, "Invoice total") || !strings.Contains(got, "Thank you") {
		t.Errorf("surrounding text damaged: %q", got)
	}

	// The input file is read-only to the patcher.
	after, err := os.ReadFile(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("input file was modified")
	}
}

func TestPatcherOldTextMissing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.pdf")
	writePDF(t, in, []string{"Some stable content"})

	p := NewPatcher(nil)
	block := lineBlock("pdf:doc.pdf:p1:b0:l0:s0", 1, 720)
	err := p.Apply(in, filepath.Join(dir, "out.pdf"), block,
		models.PatchInstruction{OldText: "vanished text", NewText: "x"})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPatcherAmbiguousMatch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.pdf")
	writePDF(t, in, []string{"price 10", "price 20"})

	p := NewPatcher(nil)
	block := lineBlock("pdf:doc.pdf:p1:b0:l0:s0", 1, 720)
	err := p.Apply(in, filepath.Join(dir, "out.pdf"), block,
		models.PatchInstruction{OldText: "price", NewText: "cost"})
	if !errors.Is(err, models.ErrAmbiguous) {
		t.Errorf("err = %v, want ErrAmbiguous", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out.pdf")); !os.IsNotExist(statErr) {
		t.Error("output written despite ambiguity")
	}
}

func TestPatcherPageOutOfRange(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.pdf")
	writePDF(t, in, []string{"only page"})

	p := NewPatcher(nil)
	block := lineBlock("pdf:doc.pdf:p5:b0:l0:s0", 5, 720)
	err := p.Apply(in, filepath.Join(dir, "out.pdf"), block,
		models.PatchInstruction{OldText: "only", NewText: "x"})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPatcherMissingInput(t *testing.T) {
	dir := t.TempDir()
	p := NewPatcher(nil)
	block := lineBlock("pdf:absent.pdf:p1:b0:l0:s0", 1, 720)
	err := p.Apply(filepath.Join(dir, "absent.pdf"), filepath.Join(dir, "out.pdf"), block,
		models.PatchInstruction{OldText: "a", NewText: "b"})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPatcherRejectsIncompleteInstruction(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.pdf")
	writePDF(t, in, []string{"text"})
	p := NewPatcher(nil)
	block := lineBlock("pdf:doc.pdf:p1:b0:l0:s0", 1, 720)

	if err := p.Apply(in, filepath.Join(dir, "out.pdf"), block,
		models.PatchInstruction{NewText: "b"}); err == nil {
		t.Error("missing old_text accepted")
	}
	if err := p.Apply(in, filepath.Join(dir, "out.pdf"), block,
		models.PatchInstruction{OldText: "a"}); err == nil {
		t.Error("missing new_text accepted")
	}

	noPage := &models.Block{ID: "x", Type: models.BlockText,
		Location: models.BlockLocation{BBox: &models.Rect{X1: 10, Y1: 10}}}
	if err := p.Apply(in, filepath.Join(dir, "out.pdf"), noPage,
		models.PatchInstruction{OldText: "a", NewText: "b"}); err == nil {
		t.Error("block without page accepted")
	}
}
