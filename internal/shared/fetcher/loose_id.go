package fetcher

import (
	"bytes"
	"encoding/json"
)

// LooseID accepts both JSON strings and numbers. The Dresden API sends numeric
// ids where other OpenMensa deployments send strings.
type LooseID string

func (id *LooseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = LooseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = LooseID(n.String())
	return nil
}
