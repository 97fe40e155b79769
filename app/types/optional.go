package types

import "encoding/json"

// OptionalString records whether a JSON field was sent at all and whether it
// was null, so partial updates can tell "clear" apart from "leave alone".
type OptionalString struct {
	Set   bool
	Valid bool
	Value string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Valid = false
		o.Value = ""
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func Some(value string) OptionalString {
	return OptionalString{Set: true, Valid: true, Value: value}
}

func Null() OptionalString {
	return OptionalString{Set: true}
}
