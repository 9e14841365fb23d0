// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

// AccessPermission is the set of user permissions granted by the document's
// security handler.
type AccessPermission struct {
	CanPrint                bool `json:"can_print"`
	CanPrintFaithful        bool `json:"can_print_faithful"`
	CanModify               bool `json:"can_modify"`
	ExtractContent          bool `json:"extract_content"`
	ModifyAnnotations       bool `json:"modify_annotations"`
	FillInForm              bool `json:"fill_in_form"`
	ExtractForAccessibility bool `json:"extract_for_accessibility"`
	AssembleDocument        bool `json:"assemble_document"`
}

// LayerNode is the JSON form of an OrderNode.
type LayerNode struct {
	Name     string      `json:"name"`
	Children []LayerNode `json:"children,omitempty"`
}

// LayerReport summarizes a document's optional content.
type LayerReport struct {
	Title            string           `json:"title,omitempty"`
	Producer         string           `json:"producer,omitempty"`
	PDFVersion       string           `json:"pdf:PDFVersion,omitempty"`
	Encrypted        bool             `json:"pdf:encrypted"`
	NPages           int              `json:"xmpTPg:NPages,omitempty"`
	Layers           []string         `json:"layers"`
	Order            []LayerNode      `json:"order,omitempty"`
	Combinations     []string         `json:"combinations,omitempty"`
	Error            string           `json:"error,omitempty"`
	AccessPermission AccessPermission `json:"access_permission"`
}

// InfoDict returns the raw /Info dictionary as a Value (may be Null).
func (r *Reader) InfoDict() Value {
	return r.Trailer().Key("Info")
}

// headerVersion returns the PDF header version string.
func (r *Reader) headerVersion() string {
	buf := make([]byte, 64)
	n, _ := r.f.ReadAt(buf, 0)
	line := string(buf[:n])
	i := strings.Index(line, "%PDF-")
	if i < 0 {
		return ""
	}
	line = line[i+len("%PDF-"):]
	if j := strings.IndexAny(line, "\r\n \t%"); j >= 0 {
		line = line[:j]
	}
	return line
}

// Permissions computes the effective access permissions from /Encrypt /P.
// An unencrypted document allows everything.
func (r *Reader) Permissions() AccessPermission {
	enc := r.Trailer().Key("Encrypt")
	if enc.Kind() != Dict {
		return AccessPermission{
			CanPrint:                true,
			CanPrintFaithful:        true,
			CanModify:               true,
			ExtractContent:          true,
			ModifyAnnotations:       true,
			FillInForm:              true,
			ExtractForAccessibility: true,
			AssembleDocument:        true,
		}
	}
	p := uint32(enc.Key("P").Int64())
	var ap AccessPermission
	ap.CanPrint = p&(1<<2) != 0
	ap.CanModify = p&(1<<3) != 0
	ap.ExtractContent = p&(1<<4) != 0
	ap.ModifyAnnotations = p&(1<<5) != 0
	ap.FillInForm = p&(1<<8) != 0 || ap.ModifyAnnotations
	ap.ExtractForAccessibility = p&(1<<9) != 0
	ap.AssembleDocument = p&(1<<10) != 0
	ap.CanPrintFaithful = p&(1<<11) != 0 || ap.CanPrint
	return ap
}

func layerNodes(t OrderTree) []LayerNode {
	if len(t) == 0 {
		return nil
	}
	out := make([]LayerNode, len(t))
	for i, n := range t {
		out[i] = LayerNode{Name: n.Name, Children: layerNodes(n.Children)}
	}
	return out
}

// LayerReport describes the document and its layers. Documents without
// usable layers still get a report, with the reason in Error.
func (r *Reader) LayerReport() LayerReport {
	info := r.InfoDict()
	rep := LayerReport{
		Title:            info.Key("Title").Text(),
		Producer:         info.Key("Producer").Text(),
		PDFVersion:       r.headerVersion(),
		Encrypted:        r.IsEncrypted(),
		NPages:           r.NumPage(),
		Layers:           []string{},
		AccessPermission: r.Permissions(),
	}
	layers, err := r.Layers()
	switch {
	case err == nil:
		rep.Layers = layers.Names
		rep.Order = layerNodes(layers.Order)
		for _, c := range layers.Combinations {
			rep.Combinations = append(rep.Combinations, c.Key())
		}
	case errors.Is(err, ErrNoDefaultOrder):
		names, _ := r.OCGInfo()
		rep.Layers = names
		rep.Error = err.Error()
	default:
		rep.Error = err.Error()
	}
	logger.Debug("layer report built", "layers", len(rep.Layers), true)
	return rep
}

// LayerReportJSON writes the layer report as pretty JSON to w.
func (r *Reader) LayerReportJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.LayerReport())
}
