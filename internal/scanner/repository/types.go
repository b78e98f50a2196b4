package repository

import (
	"golang-signal-scryper/internal/entity"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

func stringArray(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(values)
}

func mentionsJSON(mentions []entity.RecentMention) datatypes.JSONSlice[entity.RecentMention] {
	if mentions == nil {
		return datatypes.JSONSlice[entity.RecentMention]{}
	}
	return datatypes.JSONSlice[entity.RecentMention](mentions)
}
