package index

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/hyperjump/ontomatch/internal/models"
)

// AnalyzerName is the analyzer used both at index time and by every generated match
// query. Changing it requires rebuilding existing indexes.
const AnalyzerName = "ontomatch_text"

// Document field names.
const (
	fieldID         = "id"
	fieldEntityType = "entityType"
	fieldTargetType = "targetType"
	fieldLabel      = "label"
	fieldSynonyms   = models.SynonymsField
	fieldRuleFields = "fields"
)

// newIndexMapping builds the mapping shared by rule and ontology indexes.
// Rule field values live under the dynamic "fields" sub-document, e.g. fields.OriginTissue.
func newIndexMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer(AnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, err
	}
	im.DefaultAnalyzer = AnalyzerName

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = AnalyzerName
	keywordFieldMapping := bleve.NewKeywordFieldMapping()

	rules := bleve.NewDocumentMapping()
	rules.Dynamic = true
	rules.DefaultAnalyzer = AnalyzerName

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(fieldID, keywordFieldMapping)
	docMapping.AddFieldMappingsAt(fieldEntityType, keywordFieldMapping)
	docMapping.AddFieldMappingsAt(fieldTargetType, keywordFieldMapping)
	docMapping.AddFieldMappingsAt(fieldLabel, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldSynonyms, textFieldMapping)
	docMapping.AddSubDocumentMapping(fieldRuleFields, rules)

	im.DefaultMapping = docMapping
	return im, nil
}

// toDocument flattens a target into the indexed document shape.
func toDocument(t *models.TargetEntity) map[string]interface{} {
	doc := map[string]interface{}{
		fieldID:         t.ID,
		fieldEntityType: t.EntityType,
		fieldTargetType: string(t.TargetType),
		fieldLabel:      t.Label,
	}
	df := t.DataFields()
	if syn := df.Lists[fieldSynonyms]; len(syn) > 0 {
		doc[fieldSynonyms] = syn
	}
	if t.TargetType == models.TargetRule && len(df.Strings) > 0 {
		fields := make(map[string]interface{}, len(df.Strings))
		for k, v := range df.Strings {
			fields[k] = v
		}
		doc[fieldRuleFields] = fields
	}
	return doc
}
