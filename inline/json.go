package inline

import (
	"encoding/json"

	"github.com/streamscout/streamscout/source"
)

// Output is the JSON document written by resolve --json.
type Output struct {
	Reference source.MediaReference     `json:"reference"`
	Cached    bool                       `json:"cached"`
	Streams   []source.ExtractedStream   `json:"streams"`
	Results   []*source.ExtractionResult `json:"results,omitempty"`
}

func asJson(output *Output) ([]byte, error) {
	if output.Streams == nil {
		output.Streams = []source.ExtractedStream{}
	}

	return json.MarshalIndent(output, "", "  ")
}
