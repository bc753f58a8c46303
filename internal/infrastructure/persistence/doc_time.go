package persistence

import (
	"encoding/json"
	"strings"
	"time"
)

// docTimeLayout is the timestamp layout written to JSON documents.
const docTimeLayout = "2006-01-02T15:04:05.000000"

var docTimeParseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// docTime is a timestamp stored as local wall-clock ISO-8601 text.
type docTime struct {
	time.Time
}

// MarshalJSON 序列化为 ISO 时间字符串
func (t docTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.In(time.Local).Format(docTimeLayout))
}

// UnmarshalJSON accepts the layouts older documents were written with.
// Unparseable values decode as the zero time.
func (t *docTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t.Time = parseDocTime(s)
	return nil
}

func parseDocTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range docTimeParseLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
