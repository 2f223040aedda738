package dto

import "encoding/json"

// Optional distinguishes a field that was absent from one explicitly set to
// null, so partial updates can clear nullable values.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON only runs when the key is present, so Set marks presence;
// a null payload leaves Value nil.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	o.Value = &value
	return nil
}
