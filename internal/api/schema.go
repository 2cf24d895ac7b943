package api

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// analysisResponseSchema is deliberately loose: backend variants omit most
// optional fields, so only the shape the client actually relies on is
// enforced. Field-level defaulting happens after validation.
const analysisResponseSchema = `{
  "type": "object",
  "properties": {
    "job_id": {"type": "string"},
    "matches": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "cv_id": {"type": "string"},
          "cv_filename": {"type": "string"},
          "score": {"type": "number"},
          "strengths": {"type": "array", "items": {"type": "string"}},
          "gaps": {"type": "array", "items": {"type": "string"}},
          "recommendations": {"type": "array", "items": {"type": "string"}},
          "overall_assessment": {"type": "string"}
        },
        "required": ["cv_id", "score"]
      }
    },
    "analysis_date": {"type": "string"},
    "total_cvs_analyzed": {"type": "integer"}
  },
  "required": ["matches"]
}`

var analysisSchema = gojsonschema.NewStringLoader(analysisResponseSchema)

func validateAnalysisResponse(raw []byte) error {
	result, err := gojsonschema.Validate(analysisSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		first := ""
		if len(result.Errors()) > 0 {
			first = result.Errors()[0].String()
		}
		return fmt.Errorf("schema validation: %s", first)
	}
	return nil
}
