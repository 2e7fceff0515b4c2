package readinglist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/justyntemme/shelf/internal/models"
)

// importSchema accepts an object of entry objects. Unknown fields pass.
const importSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"title": {"type": "string"},
			"authors": {"type": ["array", "null"], "items": {"type": "string"}},
			"key": {"type": "string"}
		}
	}
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(importSchema))
	if err != nil {
		panic(fmt.Sprintf("readinglist: bad import schema: %v", err))
	}
	return schema
}

// decodeImport validates and decodes an imported reading list
func decodeImport(data []byte) (models.ReadingList, error) {
	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("schema: %s", strings.Join(msgs, "; "))
	}

	var list models.ReadingList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}
