package models

func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&Artifact{}, // Must be first - chunks reference it
		&Chunk{},
		&SearchCategory{},
	}
}
