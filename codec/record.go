package codec

import (
	"github.com/contentguard/modstore/driver"
	"github.com/contentguard/modstore/model"
)

// ToDriverItem converts a model.Item into the driver's generic
// attribute map, compressing Content.Raw through MaybeCompress when
// present. This is the one place the mutation engine crosses from the
// typed domain record into what the storage driver actually persists.
func ToDriverItem(it *model.Item) (driver.Item, error) {
	raw, err := JSON.Marshal(it)
	if err != nil {
		return nil, err
	}
	var di driver.Item
	if err := JSON.Unmarshal(raw, &di); err != nil {
		return nil, err
	}
	delete(di, "content")

	if it.Content != nil && it.Content.Raw != nil {
		stored, err := MaybeCompress(it.Content.Raw)
		if err != nil {
			return nil, err
		}
		di["content"] = stored
	}
	return di, nil
}

// FromDriverItem reverses ToDriverItem, decompressing the content
// field if present. A corrupt content envelope surfaces as the
// ErrUnsupportedFormat/gzip errors from Decompress; callers translate
// those into errs.ContentCorrupted.
func FromDriverItem(di driver.Item) (*model.Item, error) {
	stripped := make(driver.Item, len(di))
	for k, v := range di {
		if k == "content" {
			continue
		}
		stripped[k] = v
	}
	raw, err := JSON.Marshal(stripped)
	if err != nil {
		return nil, err
	}
	var it model.Item
	if err := JSON.Unmarshal(raw, &it); err != nil {
		return nil, err
	}

	if stored, ok := di["content"]; ok && stored != nil {
		var decoded interface{}
		if err := Decompress(stored, &decoded); err != nil {
			return nil, err
		}
		it.Content = &model.Content{Raw: decoded}
	}
	return &it, nil
}
