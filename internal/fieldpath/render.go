package fieldpath

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Render formats v as compact JSON with unquoted object keys, e.g. {foo:1}.
func Render(v any) string {
	var b strings.Builder
	render(&b, v)
	return b.String()
}

func render(b *strings.Builder, v any) {
	switch current := v.(type) {
	case nil:
		b.WriteString("null")
	case map[string]any:
		renderMap(b, current)
	case bson.M:
		renderMap(b, current)
	case bson.D:
		b.WriteByte('{')
		for i, element := range current {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(element.Key)
			b.WriteByte(':')
			render(b, element.Value)
		}
		b.WriteByte('}')
	case []any:
		renderList(b, current)
	case bson.A:
		renderList(b, current)
	case string:
		b.WriteString(strconv.Quote(current))
	case bool:
		b.WriteString(strconv.FormatBool(current))
	case float64:
		b.WriteString(strconv.FormatFloat(current, 'f', -1, 64))
	case float32:
		b.WriteString(strconv.FormatFloat(float64(current), 'f', -1, 32))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		fmt.Fprintf(b, "%d", current)
	case time.Time:
		b.WriteString(strconv.Quote(current.UTC().Format("2006-01-02T15:04:05.000Z")))
	case primitive.DateTime:
		render(b, current.Time())
	case *regexp.Regexp:
		b.WriteString("{}")
	case primitive.ObjectID:
		b.WriteString(strconv.Quote(current.Hex()))
	default:
		encoded, err := json.Marshal(current)
		if err != nil {
			fmt.Fprintf(b, "%q", fmt.Sprint(current))
			return
		}
		b.Write(encoded)
	}
}

func renderMap(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	b.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(key)
		b.WriteByte(':')
		render(b, m[key])
	}
	b.WriteByte('}')
}

func renderList(b *strings.Builder, list []any) {
	b.WriteByte('[')
	for i, item := range list {
		if i > 0 {
			b.WriteByte(',')
		}
		render(b, item)
	}
	b.WriteByte(']')
}
