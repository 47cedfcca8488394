package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2/search"

	"github.com/KonghaYao/text2location/app/models"
)

// ResultExtractor maps engine hits back to AddressResult.
type ResultExtractor struct {
	fields []string
}

func NewResultExtractor() *ResultExtractor {
	fields := make([]string, 0, len(LevelFields)+1)
	for _, f := range LevelFields {
		fields = append(fields, displayField(f))
	}
	fields = append(fields, string(FieldAddressCode))
	return &ResultExtractor{fields: fields}
}

// Fields stored fields a search request must load.
func (re *ResultExtractor) Fields() []string {
	return re.fields
}

func (re *ResultExtractor) Extract(hit *search.DocumentMatch) models.AddressResult {
	value := func(name string) string {
		return storedString(hit.Fields[name])
	}
	return models.AddressResult{
		AddressCode: value(string(FieldAddressCode)),
		Province:    firstToken(value(displayField(FieldProvince))),
		City:        firstToken(value(displayField(FieldCity))),
		District:    firstToken(value(displayField(FieldDistrict))),
		County:      firstToken(value(displayField(FieldCounty))),
		Score:       hit.Score,
	}
}

// firstToken canonical display value: the first whitespace-separated token.
func firstToken(v string) string {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func storedString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []interface{}:
		if len(val) == 0 {
			return ""
		}
		return storedString(val[0])
	default:
		return fmt.Sprint(val)
	}
}
