package gaso

import (
	"strconv"
	"strings"
)

// FieldKind distinguishes the two query shapes the dashboard exposes.
// Measures come back as a single aggregate cell; columns come back as raw row
// values in one of several undocumented encodings.
type FieldKind int

const (
	KindMeasure FieldKind = iota
	KindColumn
)

// queryResponse mirrors the subset of the analytic-query response the
// extractor walks. Every level is optional; the backend omits branches freely.
type queryResponse struct {
	Results []struct {
		Result struct {
			Data struct {
				DSR struct {
					DS []dataSet `json:"DS"`
				} `json:"dsr"`
			} `json:"data"`
		} `json:"result"`
	} `json:"results"`
}

type dataSet struct {
	PH         []phEntry        `json:"PH"`
	ValueDicts map[string][]any `json:"ValueDicts"`
}

type phEntry struct {
	DM0 []rowCell `json:"DM0"`
}

type rowCell struct {
	M0 any   `json:"M0"`
	G0 any   `json:"G0"`
	C  []any `json:"C"`
}

// Extract pulls the scalar value for a field out of a decoded response.
// Returns "" when any expected branch is missing; it never panics, because
// the response schema is not contractually stable.
func Extract(resp *queryResponse, kind FieldKind) string {
	ds := firstDataSet(resp)
	if ds == nil {
		return ""
	}
	if kind == KindMeasure {
		return extractMeasure(ds)
	}
	return extractColumn(ds)
}

func firstDataSet(resp *queryResponse) *dataSet {
	if resp == nil || len(resp.Results) == 0 {
		return nil
	}
	ds := resp.Results[0].Result.Data.DSR.DS
	if len(ds) == 0 {
		return nil
	}
	return &ds[0]
}

func firstRow(ds *dataSet) *rowCell {
	if len(ds.PH) == 0 || len(ds.PH[0].DM0) == 0 {
		return nil
	}
	return &ds.PH[0].DM0[0]
}

// extractMeasure reads the single aggregate cell M0.
func extractMeasure(ds *dataSet) string {
	row := firstRow(ds)
	if row == nil {
		return ""
	}
	return stringify(row.M0)
}

// extractColumn tries the three encodings the backend has been observed to
// use for raw row values, in priority order:
//
//  1. a dictionary of distinct values (ValueDicts.D0) indexed by C[0]
//  2. a grouping value embedded in the row (G0)
//  3. a raw cell value embedded in the row (C[0])
//
// The backend switches between them per field and over time, so none can be
// assumed; the first one that yields a value wins.
func extractColumn(ds *dataSet) string {
	row := firstRow(ds)
	if row == nil {
		return ""
	}

	if dict := ds.ValueDicts["D0"]; len(dict) > 0 && len(row.C) > 0 {
		if idx, ok := dictIndex(row.C[0]); ok && idx >= 0 && idx < len(dict) {
			if v := stringify(dict[idx]); v != "" {
				return v
			}
		}
	}

	if v := stringify(row.G0); v != "" {
		return v
	}

	if len(row.C) > 0 {
		return stringify(row.C[0])
	}
	return ""
}

// dictIndex interprets a cell as an index into the value dictionary.
// JSON numbers decode as float64.
func dictIndex(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// stringify renders a cell value the way the dashboard displays it, trimmed.
// Nil and empty values collapse to "".
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
