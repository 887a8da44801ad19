package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for brick documents.
//
// Titles get English stemming so "plates" finds "Plate 2x4". Numbers and tags
// use the keyword analyzer; they are lowercased before indexing.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	numberFieldMapping := bleve.NewTextFieldMapping()
	numberFieldMapping.Analyzer = keyword.Name
	numberFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("number", numberFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = keyword.Name
	tagsFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.Index = false
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
