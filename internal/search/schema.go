package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Field document field names
type Field string

const (
	FieldProvince    Field = "province"
	FieldCity        Field = "city"
	FieldDistrict    Field = "district"
	FieldCounty      Field = "county"
	FieldFullAddress Field = "full_address"
	FieldAddressCode Field = "address_code"
)

// LevelFields province first.
var LevelFields = [4]Field{FieldProvince, FieldCity, FieldDistrict, FieldCounty}

// FieldRole how a field participates in retrieval.
type FieldRole string

const (
	RoleLevel      FieldRole = "hierarchy-level"
	RoleIdentifier FieldRole = "identifier"
	RoleMerged     FieldRole = "merged"
)

// tokenAnalyzer splits pre-analyzed token text on whitespace. The engine never
// segments CJK text itself.
const tokenAnalyzer = "text2location_tokens"

// SchemaField one declared field.
type SchemaField struct {
	Name     Field
	Role     FieldRole
	Analyzed bool
	Stored   bool
}

// Schema document shape shared by every index built from it.
type Schema struct {
	Fields []SchemaField
}

// NewSchema declares the four level fields, the identifier and, when
// withFullAddress is set, the merged full_address field.
func NewSchema(withFullAddress bool) *Schema {
	s := &Schema{}
	for _, f := range LevelFields {
		s.Fields = append(s.Fields, SchemaField{Name: f, Role: RoleLevel, Analyzed: true, Stored: true})
	}
	s.Fields = append(s.Fields, SchemaField{Name: FieldAddressCode, Role: RoleIdentifier, Stored: true})
	if withFullAddress {
		s.Fields = append(s.Fields, SchemaField{Name: FieldFullAddress, Role: RoleMerged, Analyzed: true})
	}
	return s
}

// Has reports whether the schema declares name.
func (s *Schema) Has(name Field) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Validate checks field names, roles and that every level plus the identifier is present.
func (s *Schema) Validate() error {
	seen := make(map[Field]bool, len(s.Fields))
	for _, f := range s.Fields {
		if seen[f.Name] {
			return fieldError(ErrInit, string(f.Name), "duplicate field")
		}
		seen[f.Name] = true

		switch f.Role {
		case RoleLevel, RoleMerged:
			if !f.Analyzed {
				return fieldError(ErrInit, string(f.Name), "text field must be analyzed")
			}
		case RoleIdentifier:
			if f.Analyzed || !f.Stored {
				return fieldError(ErrInit, string(f.Name), "identifier must be stored and not analyzed")
			}
		default:
			return fieldError(ErrInit, string(f.Name), fmt.Sprintf("unknown role %q", f.Role))
		}
	}
	for _, f := range LevelFields {
		if !seen[f] {
			return fieldError(ErrInit, string(f), "missing level field")
		}
	}
	if !seen[FieldAddressCode] {
		return fieldError(ErrInit, string(FieldAddressCode), "missing identifier field")
	}
	return nil
}

// displayField holds the stored, non-indexed value shown to callers.
func displayField(f Field) string {
	return string(f) + "_display"
}

// IndexMapping builds the bleve mapping for the schema.
func (s *Schema) IndexMapping() (*mapping.IndexMappingImpl, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	im := bleve.NewIndexMapping()
	if err := im.AddCustomAnalyzer(tokenAnalyzer, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": whitespace.Name,
	}); err != nil {
		return nil, InitError("register token analyzer", err)
	}
	im.DefaultAnalyzer = tokenAnalyzer
	im.IndexDynamic = false
	im.StoreDynamic = false
	im.DocValuesDynamic = false

	doc := bleve.NewDocumentStaticMapping()
	for _, f := range s.Fields {
		switch f.Role {
		case RoleLevel, RoleMerged:
			tokens := bleve.NewTextFieldMapping()
			tokens.Analyzer = tokenAnalyzer
			tokens.Store = false
			tokens.IncludeInAll = false
			tokens.IncludeTermVectors = false
			tokens.DocValues = false
			doc.AddFieldMappingsAt(string(f.Name), tokens)

			if f.Stored {
				display := bleve.NewTextFieldMapping()
				display.Index = false
				display.Store = true
				display.IncludeInAll = false
				display.IncludeTermVectors = false
				display.DocValues = false
				doc.AddFieldMappingsAt(displayField(f.Name), display)
			}
		case RoleIdentifier:
			code := bleve.NewKeywordFieldMapping()
			code.Store = true
			code.IncludeInAll = false
			code.IncludeTermVectors = false
			doc.AddFieldMappingsAt(string(f.Name), code)
		}
	}
	im.DefaultMapping = doc

	if err := im.Validate(); err != nil {
		return nil, InitError("validate index mapping", err)
	}
	return im, nil
}
