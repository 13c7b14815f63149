package utils

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
)

// OrderedMapToString formats the map as "[k=v k2=v2]" in insertion order.
func OrderedMapToString(data *orderedmap.OrderedMap[string, any]) string {
	dataString := "["
	count := data.Len()
	for _, key := range data.Keys() {
		v, _ := data.Get(key)
		dataString += fmt.Sprintf("%s=%v", key, v)

		count--
		if count > 0 {
			dataString += " "
		}
	}
	dataString += "]"

	return dataString
}

// OrderedMapToAttrs flattens the map into slog-style key/value pairs in insertion order.
func OrderedMapToAttrs(data *orderedmap.OrderedMap[string, any]) []any {
	attrs := make([]any, 0, data.Len()*2)
	for el := data.Front(); el != nil; el = el.Next() {
		attrs = append(attrs, el.Key, el.Value)
	}
	return attrs
}
