package catalog

import "strings"

// Index provides O(1) lookups over a product's embedded variants, options and
// option values. Build one per catalog read; identifiers are expected unique
// within a product, so indexing preserves first-match semantics.
type Index struct {
	product  *Product
	variants map[string]*Variant
	options  map[string]*Option
	values   map[string]*OptionValue
}

// NewIndex builds an Index for the given product. NewIndex(nil) returns nil,
// which every lookup treats as "nothing found".
func NewIndex(p *Product) *Index {
	if p == nil {
		return nil
	}

	ix := &Index{
		product:  p,
		variants: make(map[string]*Variant, len(p.Variants)),
		options:  make(map[string]*Option, len(p.Options)),
		values:   make(map[string]*OptionValue),
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		key := normalizeID(v.ID)
		if _, ok := ix.variants[key]; !ok {
			ix.variants[key] = v
		}
	}
	for i := range p.Options {
		o := &p.Options[i]
		okey := normalizeID(o.ID)
		if _, ok := ix.options[okey]; !ok {
			ix.options[okey] = o
		}
		for j := range o.Values {
			val := &o.Values[j]
			vkey := valueKey(o.ID, val.ID)
			if _, ok := ix.values[vkey]; !ok {
				ix.values[vkey] = val
			}
		}
	}
	return ix
}

// Product returns the indexed product, or nil for a nil index.
func (ix *Index) Product() *Product {
	if ix == nil {
		return nil
	}
	return ix.product
}

// Variant returns the variant with the given id, or nil.
func (ix *Index) Variant(id string) *Variant {
	if ix == nil {
		return nil
	}
	return ix.variants[normalizeID(id)]
}

// Option returns the option with the given id, or nil.
func (ix *Index) Option(id string) *Option {
	if ix == nil {
		return nil
	}
	return ix.options[normalizeID(id)]
}

// OptionValue returns the value with the given id owned by the given option,
// or nil.
func (ix *Index) OptionValue(optionID, valueID string) *OptionValue {
	if ix == nil {
		return nil
	}
	return ix.values[valueKey(optionID, valueID)]
}

// VariantLabel composes a human-readable label for a variant by joining
// "<option name>: <value name>" for each of the variant's selections, in the
// order the variant lists them. Selections whose option or value no longer
// exists on the product are omitted. Returns "" for an unknown variant.
func (ix *Index) VariantLabel(variantID string) string {
	v := ix.Variant(variantID)
	if v == nil {
		return ""
	}

	parts := make([]string, 0, len(v.Selections))
	for _, sel := range v.Selections {
		opt := ix.Option(sel.OptionID)
		val := ix.OptionValue(sel.OptionID, sel.ValueID)
		if opt == nil || val == nil {
			continue
		}
		parts = append(parts, opt.Name+": "+val.Name)
	}
	return strings.Join(parts, ", ")
}

// normalizeID canonicalizes an identifier for comparison. Identifiers may
// arrive from different representations (path segments, stored JSON), so
// comparisons go through string normalization.
func normalizeID(id string) string {
	return strings.TrimSpace(id)
}

func valueKey(optionID, valueID string) string {
	return normalizeID(optionID) + "\x00" + normalizeID(valueID)
}
