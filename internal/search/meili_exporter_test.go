package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KonghaYao/text2location/app/models"
)

func TestMeiliDocuments(t *testing.T) {
	docs := MeiliDocuments([]models.ResolvedAddress{
		{Province: "广东省", City: "梅州市", District: "兴宁市", AddressCode: "441481"},
		{Province: "无编码"},
	})

	assert.Equal(t, []MeiliDocument{{
		AddressCode: "441481",
		Province:    "广东省",
		City:        "梅州市",
		District:    "兴宁市",
		FullAddress: "广东省 梅州市 兴宁市",
	}}, docs)
}

func TestNewMeiliExporter_Defaults(t *testing.T) {
	me := NewMeiliExporter(MeiliConfig{Host: "http://localhost:7700", IndexName: "addresses"}, nil)
	assert.Equal(t, 1000, me.config.BatchSize)
	assert.NotNil(t, me.logger)
}
