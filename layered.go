// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"context"
	"fmt"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

// PageLayers maps combination keys to the layout of one page. The
// unconditional layout is stored under FullLayout.
type PageLayers map[string]*PageLayout

// Layers describes the optional content structure of a document.
type Layers struct {
	Names        []string
	Order        OrderTree
	Combinations []Combination
}

// Layers reads the optional content groups, the default order and its
// combinations. It fails with ErrNoOptionalContent or ErrNoDefaultOrder
// when the document has no usable layer information.
func (r *Reader) Layers() (l *Layers, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("reading optional content: %w", panicError(e))
		}
	}()
	names, order := r.OCGInfo()
	if names == nil {
		return nil, ErrNoOptionalContent
	}
	if order.IsNull() {
		return nil, ErrNoDefaultOrder
	}
	tree, err := BuildOrderTree(order)
	if err != nil {
		return nil, err
	}
	return &Layers{Names: names, Order: tree, Combinations: tree.Combinations()}, nil
}

// CheckExtractable fails with ErrExtractionNotAllowed when the document is
// encrypted and its permissions forbid content extraction.
func (r *Reader) CheckExtractable() error {
	if !r.Permissions().ExtractContent {
		return ErrExtractionNotAllowed
	}
	return nil
}

// LayoutPage interprets page num of r once and returns the aggregator
// holding the finished layouts: the unconditional one and one per combo.
func LayoutPage(ctx context.Context, r *Reader, num int, combos []Combination, opts LayoutOptions, log *logger.Logger) (agg *Aggregator, err error) {
	defer func() {
		if e := recover(); e != nil {
			agg, err = nil, fmt.Errorf("page %d: %w", num, panicError(e))
		}
	}()
	agg = NewAggregator(combos, opts, log)
	in := NewInterpreter(r, agg, log.With("page", num))
	if err := in.ProcessPage(ctx, r.Page(num)); err != nil {
		return nil, fmt.Errorf("page %d: %w", num, err)
	}
	return agg, nil
}

// ParseLayered builds, for every page, the unconditional layout and one
// layout per layer combination of the default order. The first failing
// page aborts the whole document.
func ParseLayered(ctx context.Context, r *Reader, opts LayoutOptions, log *logger.Logger) ([]PageLayers, error) {
	if err := r.CheckExtractable(); err != nil {
		return nil, err
	}
	layers, err := r.Layers()
	if err != nil {
		return nil, err
	}
	log.Info("layered extraction", "layers", len(layers.Names), "combinations", len(layers.Combinations))
	n := r.NumPage()
	out := make([]PageLayers, 0, n)
	for i := 1; i <= n; i++ {
		agg, err := LayoutPage(ctx, r, i, layers.Combinations, opts, log)
		if err != nil {
			return nil, err
		}
		out = append(out, agg.PageLayers())
	}
	return out, nil
}

// ParseGeneric builds one layout per page, ignoring optional content.
func ParseGeneric(ctx context.Context, r *Reader, opts LayoutOptions, log *logger.Logger) ([]*PageLayout, error) {
	if err := r.CheckExtractable(); err != nil {
		return nil, err
	}
	n := r.NumPage()
	out := make([]*PageLayout, 0, n)
	for i := 1; i <= n; i++ {
		agg, err := LayoutPage(ctx, r, i, nil, opts, log)
		if err != nil {
			return nil, err
		}
		out = append(out, agg.Results()[0])
	}
	return out, nil
}
