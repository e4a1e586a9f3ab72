package memdriver

import (
	"encoding/json"

	"github.com/contentguard/modstore/driver"
)

// marshalItem/unmarshalItem move a Go value into/out of the attribute-map
// shape via a plain JSON round trip. A production driver would marshal
// straight to its wire attribute-value type (and the codec package's
// json-iterator instance is available for that); the reference driver
// only needs map[string]interface{} in memory, so encoding/json's
// generic struct tag and map support is reused as-is rather than
// duplicated here.
func marshalItem(v interface{}) (driver.Item, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var item driver.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, err
	}
	return item, nil
}

func unmarshalItem(item driver.Item, out interface{}) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
