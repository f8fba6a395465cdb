package apiclient

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// The upstream API is inconsistent about envelopes: some endpoints return a
// bare array, some wrap it in {"data": [...]}, some use a named key like
// {"orders": [...]}. The unwrap helpers sniff the shape instead of pinning
// one per endpoint.

// UnwrapList extracts the raw JSON array from data. A bare array is
// returned as-is; inside an object, the given keys are tried first, then
// "data".
func UnwrapList(data []byte, keys ...string) ([]byte, error) {
	d := jx.DecodeBytes(data)
	switch tok := d.Next(); tok {
	case jx.Array:
		return data, nil
	case jx.Object:
		match, fallback, err := scanObject(d, keys)
		if err != nil {
			return nil, err
		}
		if match == nil {
			match = fallback
		}
		if match == nil {
			return nil, errors.New("no list payload in envelope")
		}
		if match.Type() != jx.Array {
			return nil, errors.Errorf("envelope payload is %v, want array", match.Type())
		}
		return match, nil
	default:
		return nil, errors.Errorf("unexpected JSON %v, want array or object", tok)
	}
}

// UnwrapObject extracts the raw JSON object from data. Inside an envelope,
// the given keys are tried, then "data"; when none match, the object itself
// is assumed to be the payload.
func UnwrapObject(data []byte, keys ...string) ([]byte, error) {
	d := jx.DecodeBytes(data)
	if tok := d.Next(); tok != jx.Object {
		return nil, errors.Errorf("unexpected JSON %v, want object", tok)
	}

	match, fallback, err := scanObject(d, keys)
	if err != nil {
		return nil, err
	}
	if match == nil {
		match = fallback
	}
	if match == nil || match.Type() != jx.Object {
		return data, nil
	}
	return match, nil
}

// scanObject walks one JSON object and returns the raw value for the first
// matching key, plus the "data" value as a fallback.
func scanObject(d *jx.Decoder, keys []string) (match, fallback jx.Raw, err error) {
	err = d.Obj(func(d *jx.Decoder, key string) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		for _, want := range keys {
			if key == want {
				match = raw
				return nil
			}
		}
		if key == "data" {
			fallback = raw
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "decode envelope")
	}
	return match, fallback, nil
}
