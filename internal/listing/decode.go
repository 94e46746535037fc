package listing

import (
	"encoding/json"
	"errors"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// decodeObject decodes a JSON object, trying progressively more lenient
// parsers: strict JSON, repaired JSON (trailing commas, single quotes,
// truncated payloads), then Hjson.
func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	err := json.Unmarshal(raw, &m)
	if err == nil {
		return m, nil
	}

	if repaired, rerr := jsonrepair.RepairJSON(string(raw)); rerr == nil {
		var rm map[string]json.RawMessage
		if json.Unmarshal([]byte(repaired), &rm) == nil && rm != nil {
			return rm, nil
		}
	}

	var h map[string]any
	if herr := hjson.Unmarshal(raw, &h); herr == nil {
		b, merr := json.Marshal(h)
		if merr == nil && json.Unmarshal(b, &m) == nil {
			return m, nil
		}
	}

	return nil, err
}

// decodeList decodes a JSON array of values with the same fallbacks as
// decodeObject.
func decodeList(raw []byte, v any) error {
	err := json.Unmarshal(raw, v)
	if err == nil {
		return nil
	}

	if repaired, rerr := jsonrepair.RepairJSON(string(raw)); rerr == nil {
		if json.Unmarshal([]byte(repaired), v) == nil {
			return nil
		}
	}

	if herr := decodeHjson(raw, v); herr == nil {
		return nil
	}

	return errors.Join(errors.New("not a JSON list"), err)
}

// decodeHjson decodes Hjson into v by way of its JSON form, so v's json tags
// apply.
func decodeHjson(raw []byte, v any) error {
	var h any
	if err := hjson.Unmarshal(raw, &h); err != nil {
		return err
	}
	b, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
