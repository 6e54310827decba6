package weather

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/frankdevcode/lp2-taller3/internal/analysis"
	"github.com/frankdevcode/lp2-taller3/internal/common"
)

// timestampLayouts are the created_at formats seen in ThingSpeak feeds.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

// BuildSeries turns a raw feed into one cleaned series per labelled field.
//
// Columns are renamed from their field key to the channel label; fields without a
// label or listed in ignored (by key or label, case-insensitive) are dropped. Cells
// that are not finite numbers and rows with an unparseable timestamp are skipped.
// Each series is sorted by timestamp, keeping feed order for equal timestamps.
func BuildSeries(reading FeedReading, ignored []string) []VariableSeries {
	type column struct {
		field FeedField
		data  analysis.Series
	}

	var columns []*column
	for _, f := range reading.Fields {
		label := strings.TrimSpace(f.Label)
		if label == "" || isIgnored(f, ignored) {
			continue
		}
		columns = append(columns, &column{field: FeedField{Key: f.Key, Label: label}})
	}
	if len(columns) == 0 {
		return nil
	}

	for _, row := range reading.Rows {
		ts, ok := parseTimestamp(row.CreatedAt)
		if !ok {
			continue
		}
		for _, col := range columns {
			raw, ok := row.Values[col.field.Key]
			if !ok {
				continue
			}
			v, ok := parseValue(raw)
			if !ok {
				continue
			}
			col.data = append(col.data, analysis.Sample{Timestamp: ts, Value: v})
		}
	}

	out := make([]VariableSeries, 0, len(columns))
	for _, col := range columns {
		sort.SliceStable(col.data, func(i, j int) bool {
			return col.data[i].Timestamp.Before(col.data[j].Timestamp)
		})
		out = append(out, VariableSeries{
			Name:   col.field.Label,
			Field:  col.field.Key,
			Series: col.data,
		})
	}
	return out
}

func isIgnored(f FeedField, ignored []string) bool {
	for _, ig := range ignored {
		ig = strings.TrimSpace(ig)
		if ig == "" {
			continue
		}
		if strings.EqualFold(ig, f.Key) || strings.EqualFold(ig, strings.TrimSpace(f.Label)) {
			return true
		}
	}
	return false
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseValue(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !common.IsFinite(v) {
		return 0, false
	}
	return v, true
}
