package pettypes

import (
	"bytes"
	"encoding/json"
	"strings"
)

// PetContext identifies the subject of a conversation.
type PetContext struct {
	ID      int64      `json:"id" yaml:"id"`
	Name    string     `json:"name" yaml:"name"`
	Species string     `json:"species,omitempty" yaml:"species,omitempty"`
	Breed   string     `json:"breed,omitempty" yaml:"breed,omitempty"`
	Age     FlexString `json:"age,omitempty" yaml:"age,omitempty"`
}

// Pet is an entry in the owner's pet list shown by the pet selector.
type Pet struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	Species string     `json:"species"`
	Breed   string     `json:"breed"`
	Age     FlexString `json:"age"`
}

// FlexString decodes from either a JSON string or a JSON number.
// The backend reports ages both as 3 and as "3 years".
type FlexString string

// UnmarshalJSON accepts strings, numbers and null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(strings.TrimSpace(n.String()))
	return nil
}
