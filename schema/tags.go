package schema

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Struct tag keys. The shared tag applies in both directions; the enc and
// dec tags extend it for one direction only.
const (
	TagShared = "codec"
	TagEncode = "codec_enc"
	TagDecode = "codec_dec"
)

// fieldTags is the parsed tag set of one struct field.
type fieldTags struct {
	ignore bool
	enc    Directive
	dec    Directive

	// len fixes the byte length of a string or []byte field; count fixes
	// the element count of a slice field.
	len   string
	count string
}

// parseTags reads the codec tags of a struct field, e.g.
//
//	`codec:"align=4;limit=Len;consume" codec_dec:"assert=Len < 64"`
func parseTags(tag reflect.StructTag) (fieldTags, error) {
	var ft fieldTags
	shared, ok := tag.Lookup(TagShared)
	if ok && strings.TrimSpace(shared) == "-" {
		ft.ignore = true
		return ft, nil
	}

	var both Directive
	if err := parseTag(shared, &both, &ft); err != nil {
		return ft, errors.WithMessage(err, TagShared)
	}
	var enc, dec Directive
	if err := parseTag(tag.Get(TagEncode), &enc, nil); err != nil {
		return ft, errors.WithMessage(err, TagEncode)
	}
	if err := parseTag(tag.Get(TagDecode), &dec, nil); err != nil {
		return ft, errors.WithMessage(err, TagDecode)
	}
	ft.enc = both.Merge(enc)
	ft.dec = both.Merge(dec)
	return ft, nil
}

// parseTag parses "key=value;key=value". Options keys are only accepted
// when opts is non-nil.
func parseTag(s string, d *Directive, opts *fieldTags) error {
	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, val, _ := strings.Cut(item, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)

		known, err := d.set(key, val)
		if err != nil {
			return err
		}
		if known {
			if val == "" && key != "consume" {
				return errors.Wrapf(ErrSchema, "%s needs a value", key)
			}
			continue
		}
		switch {
		case opts != nil && key == "len" && val != "":
			opts.len = val
		case opts != nil && key == "count" && val != "":
			opts.count = val
		default:
			return errors.Wrapf(ErrSchema, "unknown directive %q", item)
		}
	}
	return nil
}
