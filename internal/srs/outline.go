// Package srs assembles Software Requirements Specification documents.
//
// Assembly happens in three steps. A builder turns a project into an
// Outline: the title page fields plus an ordered list of content blocks.
// Paginate flows those blocks onto fixed-size pages using a Measurer for
// line wrapping. RenderPDF serialises the pages with fpdf.
package srs

import (
	"fmt"
	"strings"
	"time"

	"requira/internal/models"
)

// DocumentTitle heads the title page of every export
const DocumentTitle = "Software Requirements Specification"

// Version is printed on the title page
const Version = "1.0"

// BlockKind selects how a block is styled
type BlockKind string

const (
	KindSection    BlockKind = "section"
	KindSubsection BlockKind = "subsection"
	KindLabel      BlockKind = "label"
	KindParagraph  BlockKind = "paragraph"
	KindBullet     BlockKind = "bullet"
)

// Block is one unit of document content
type Block struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// Meta carries the project details printed on the title page
type Meta struct {
	ProjectTitle string
	Description  string
	ClientName   string
	CompanyName  string
	Date         time.Time
}

// MetaFor extracts title page details from a project
func MetaFor(p *models.Project, now time.Time) Meta {
	return Meta{
		ProjectTitle: p.ProjectTitle,
		Description:  p.ProjectDescription,
		ClientName:   p.ClientName,
		CompanyName:  p.CompanyName,
		Date:         now,
	}
}

// Outline is a document before pagination
type Outline struct {
	Meta   Meta    `json:"-"`
	Mode   Mode    `json:"mode"`
	Blocks []Block `json:"blocks"`
}

// Section returns the blocks between the section heading that starts with
// prefix (for example "4.") and the next section heading
func (o Outline) Section(prefix string) []Block {
	var out []Block
	inside := false
	for _, b := range o.Blocks {
		if b.Kind == KindSection {
			inside = strings.HasPrefix(b.Text, prefix)
			continue
		}
		if inside {
			out = append(out, b)
		}
	}
	return out
}

const (
	noRequirementsText = "No requirements documented for this category."
	noNonFunctional    = "No non-functional requirements have been documented."
	noConstraintsText  = "No specific constraints or exclusions have been documented."
	toBeDetermined     = "To be determined."
)

var placeholders = map[string]bool{
	"":               true,
	"tbd":            true,
	"n/a":            true,
	"na":             true,
	"none":           true,
	"not applicable": true,
	"not specified":  true,
	"not provided":   true,
}

// IsPlaceholder reports whether a field value carries no information
func IsPlaceholder(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.TrimRight(v, ". ")
	return placeholders[v] || strings.HasPrefix(v, "to be determined")
}

type builder struct {
	blocks []Block
}

func (b *builder) section(text string) {
	b.blocks = append(b.blocks, Block{Kind: KindSection, Text: text})
}

func (b *builder) subsection(text string) {
	b.blocks = append(b.blocks, Block{Kind: KindSubsection, Text: text})
}

func (b *builder) label(text string) {
	b.blocks = append(b.blocks, Block{Kind: KindLabel, Text: text})
}

func (b *builder) paragraph(text string) {
	b.blocks = append(b.blocks, Block{Kind: KindParagraph, Text: strings.TrimSpace(text)})
}

func (b *builder) bullets(items []string) {
	for _, item := range items {
		b.blocks = append(b.blocks, Block{Kind: KindBullet, Text: strings.TrimSpace(item)})
	}
}

// nonEmpty drops placeholder entries from a list
func nonEmpty(items []string) []string {
	var out []string
	for _, item := range items {
		if !IsPlaceholder(item) {
			out = append(out, item)
		}
	}
	return out
}

func orDefault(value, fallback string) string {
	if IsPlaceholder(value) {
		return fallback
	}
	return value
}

// BuildStructured lays out a document from an SRSDocument produced by the
// formatting service
func BuildStructured(meta Meta, doc models.SRSDocument) Outline {
	b := &builder{}

	b.section("1. Introduction")
	b.subsection("1.1 Purpose")
	b.paragraph(orDefault(doc.Introduction.Purpose, toBeDetermined))
	b.subsection("1.2 Scope")
	b.paragraph(orDefault(doc.Introduction.Scope, toBeDetermined))

	b.section("2. Overall Description")
	b.subsection("2.1 Product Perspective")
	b.paragraph(orDefault(doc.OverallDescription.ProductPerspective, toBeDetermined))
	b.subsection("2.2 User Characteristics")
	b.paragraph(orDefault(doc.OverallDescription.UserCharacteristics, toBeDetermined))

	b.section("3. System Features")
	features := 0
	for _, f := range doc.SystemFeatures {
		if IsPlaceholder(f.Title) && IsPlaceholder(f.Description) {
			continue
		}
		features++
		b.subsection(fmt.Sprintf("3.%d %s", features, orDefault(f.Title, fmt.Sprintf("Feature %d", features))))
		if !IsPlaceholder(f.Description) {
			b.paragraph(f.Description)
		}
		for _, field := range []struct{ label, value string }{
			{"Inputs", f.Inputs},
			{"Outputs", f.Outputs},
			{"Behavior", f.Behavior},
		} {
			if IsPlaceholder(field.value) {
				continue
			}
			b.label(field.label)
			b.paragraph(field.value)
		}
	}
	if features == 0 {
		b.paragraph(noRequirementsText)
	}

	b.section("4. Non-Functional Requirements")
	buckets := []struct {
		title string
		items []string
	}{
		{"Performance Requirements", doc.NonFunctional.Performance},
		{"Security Requirements", doc.NonFunctional.Security},
		{"Usability Requirements", doc.NonFunctional.Usability},
		{"Reliability Requirements", doc.NonFunctional.Reliability},
		{"Other Requirements", doc.NonFunctional.Other},
	}
	numbered := 0
	for _, bucket := range buckets {
		items := nonEmpty(bucket.items)
		if len(items) == 0 {
			continue
		}
		numbered++
		b.subsection(fmt.Sprintf("4.%d %s", numbered, bucket.title))
		b.bullets(items)
	}
	if numbered == 0 {
		b.paragraph(noNonFunctional)
	}

	b.section("5. External Interface Requirements")
	b.subsection("5.1 User Interface")
	b.paragraph(orDefault(doc.ExternalInterfaces.UserInterface, toBeDetermined))
	// optional interfaces keep their fixed numbers when earlier ones are absent
	for _, iface := range []struct{ title, value string }{
		{"5.2 Hardware Interfaces", doc.ExternalInterfaces.Hardware},
		{"5.3 Software Interfaces", doc.ExternalInterfaces.Software},
		{"5.4 Communication Interfaces", doc.ExternalInterfaces.Communication},
	} {
		if IsPlaceholder(iface.value) {
			continue
		}
		b.subsection(iface.title)
		b.paragraph(iface.value)
	}

	b.section("6. Constraints")
	if constraints := nonEmpty(doc.Constraints); len(constraints) > 0 {
		b.bullets(constraints)
	} else {
		b.paragraph(noConstraintsText)
	}

	return Outline{Meta: meta, Mode: ModeStructured, Blocks: b.blocks}
}
