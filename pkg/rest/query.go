package rest

import (
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// EncodeQuery serializes values into a query string using bracket notation
// for nested objects (a[b]=c) and indexed brackets for lists (a[0]=x). Keys
// are sorted; nil values are skipped. An empty result means no query.
func EncodeQuery(values Values) string {
	var pairs []string

	appendQuery(&pairs, "", map[string]any(values))

	return strings.Join(pairs, "&")
}

func appendQuery(pairs *[]string, prefix string, value any) {
	switch typed := normalize(value).(type) {
	case nil:
		return
	case map[string]any:
		appendObject(pairs, prefix, typed)
	case string:
		appendPair(pairs, prefix, typed)
	case []byte:
		appendPair(pairs, prefix, string(typed))
	default:
		rv := reflect.ValueOf(typed)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				appendQuery(pairs, prefix+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface())
			}

			return
		}

		appendPair(pairs, prefix, stringify(typed))
	}
}

func appendObject(pairs *[]string, prefix string, object map[string]any) {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		name := key
		if prefix != "" {
			name = prefix + "[" + key + "]"
		}

		appendQuery(pairs, name, object[key])
	}
}

func appendPair(pairs *[]string, key, value string) {
	if key == "" {
		return
	}

	*pairs = append(*pairs, escapeQuery(key)+"="+escapeQuery(value))
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
