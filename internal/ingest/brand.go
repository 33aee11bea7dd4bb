package ingest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/lift-cli/internal/model"
)

var brandSymbols = strings.NewReplacer("™", "", "®", "", "©", "", " ", " ")

// BrandResolver maps raw brand spellings to one canonical key per brand.
// Spellings that differ only in case, width, whitespace or trademark
// symbols resolve to the first spelling seen.
type BrandResolver struct {
	fold  cases.Caser
	known map[string]model.BrandKey
}

// NewBrandResolver creates an empty resolver.
func NewBrandResolver() *BrandResolver {
	return &BrandResolver{fold: cases.Fold(), known: make(map[string]model.BrandKey)}
}

// Resolve returns the canonical key for raw, or "" when raw has no content.
func (b *BrandResolver) Resolve(raw string) model.BrandKey {
	clean := CleanBrand(raw)
	if clean == "" {
		return ""
	}
	folded := b.fold.String(clean)
	if key, ok := b.known[folded]; ok {
		return key
	}
	key := model.BrandKey(clean)
	b.known[folded] = key
	return key
}

// CleanBrand normalizes width and whitespace and strips trademark symbols.
func CleanBrand(raw string) string {
	s := norm.NFKC.String(raw)
	s = brandSymbols.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
