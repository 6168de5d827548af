package gaso

import "creditline/internal/domain"

// Wire types for the analytic-query request body. Field names and casing
// follow the dashboard's own protocol, which mixes lower- and UpperCamelCase.
type queryPayload struct {
	Version       string         `json:"version"`
	Queries       []payloadQuery `json:"queries"`
	CancelQueries []any          `json:"cancelQueries"`
	ModelID       int            `json:"modelId"`
}

type payloadQuery struct {
	Query              commandList        `json:"Query"`
	QueryID            string             `json:"QueryId"`
	ApplicationContext applicationContext `json:"ApplicationContext"`
}

type commandList struct {
	Commands []command `json:"Commands"`
}

type command struct {
	SemanticQueryDataShapeCommand semanticCommand `json:"SemanticQueryDataShapeCommand"`
}

type semanticCommand struct {
	Query                semanticQuery `json:"Query"`
	Binding              binding       `json:"Binding"`
	ExecutionMetricsKind int           `json:"ExecutionMetricsKind"`
}

type semanticQuery struct {
	Version int           `json:"Version"`
	From    []fromEntity  `json:"From"`
	Select  []selectEntry `json:"Select"`
	Where   []whereEntry  `json:"Where"`
}

type fromEntity struct {
	Name   string `json:"Name"`
	Entity string `json:"Entity"`
	Type   int    `json:"Type"`
}

type selectEntry struct {
	Measure             *propertyRef `json:"Measure,omitempty"`
	Column              *propertyRef `json:"Column,omitempty"`
	Name                string       `json:"Name"`
	NativeReferenceName string       `json:"NativeReferenceName"`
}

type propertyRef struct {
	Expression sourceExpression `json:"Expression"`
	Property   string           `json:"Property"`
}

type sourceExpression struct {
	SourceRef sourceRef `json:"SourceRef"`
}

type sourceRef struct {
	Source string `json:"Source"`
}

type whereEntry struct {
	Condition condition `json:"Condition"`
}

type condition struct {
	Contains   *containsCondition   `json:"Contains,omitempty"`
	Comparison *comparisonCondition `json:"Comparison,omitempty"`
}

type containsCondition struct {
	Left  operand `json:"Left"`
	Right operand `json:"Right"`
}

type comparisonCondition struct {
	ComparisonKind int     `json:"ComparisonKind"`
	Left           operand `json:"Left"`
	Right          operand `json:"Right"`
}

type operand struct {
	Column  *propertyRef `json:"Column,omitempty"`
	Literal *literal     `json:"Literal,omitempty"`
}

type literal struct {
	Value string `json:"Value"`
}

type binding struct {
	Primary primaryBinding `json:"Primary"`
	Version int            `json:"Version"`
}

type primaryBinding struct {
	Groupings []grouping `json:"Groupings"`
}

type grouping struct {
	Projections []int `json:"Projections"`
}

type applicationContext struct {
	DatasetID string          `json:"DatasetId"`
	Sources   []contextSource `json:"Sources"`
}

type contextSource struct {
	ReportID string `json:"ReportId"`
	VisualID string `json:"VisualId"`
}

const (
	measureEntity = "Medidas"
	tableEntity   = "BD"
	filterColumn  = "DNI"
)

// buildPayload constructs the request body for one field. Measures select an
// aggregate from the measures entity filtered by identifier containment;
// columns select the raw row value with an equality comparison.
func (c *Client) buildPayload(dni domain.DNI, f field) queryPayload {
	var q semanticQuery
	switch f.kind {
	case KindMeasure:
		q = semanticQuery{
			Version: 2,
			From: []fromEntity{
				{Name: "m", Entity: measureEntity, Type: 0},
				{Name: "b", Entity: tableEntity, Type: 0},
			},
			Select: []selectEntry{{
				Measure:             &propertyRef{Expression: source("m"), Property: f.property},
				Name:                measureEntity + "." + f.property,
				NativeReferenceName: f.property,
			}},
			Where: []whereEntry{{Condition: condition{
				Contains: &containsCondition{
					Left:  operand{Column: &propertyRef{Expression: source("b"), Property: filterColumn}},
					Right: operand{Literal: &literal{Value: "'" + dni.String() + "'"}},
				},
			}}},
		}
	default:
		q = semanticQuery{
			Version: 2,
			From: []fromEntity{
				{Name: "b", Entity: tableEntity, Type: 0},
			},
			Select: []selectEntry{{
				Column:              &propertyRef{Expression: source("b"), Property: f.property},
				Name:                tableEntity + "." + f.property,
				NativeReferenceName: f.property,
			}},
			Where: []whereEntry{{Condition: condition{
				Comparison: &comparisonCondition{
					ComparisonKind: 0,
					Left:           operand{Column: &propertyRef{Expression: source("b"), Property: filterColumn}},
					Right:          operand{Literal: &literal{Value: "'" + dni.String() + "'"}},
				},
			}}},
		}
	}

	return queryPayload{
		Version: "1.0.0",
		Queries: []payloadQuery{{
			Query: commandList{Commands: []command{{
				SemanticQueryDataShapeCommand: semanticCommand{
					Query:                q,
					Binding:              binding{Primary: primaryBinding{Groupings: []grouping{{Projections: []int{0}}}}, Version: 1},
					ExecutionMetricsKind: 1,
				},
			}}},
			QueryID: "",
			ApplicationContext: applicationContext{
				DatasetID: c.cfg.DatasetID,
				Sources:   []contextSource{{ReportID: c.cfg.ReportID, VisualID: f.visualID}},
			},
		}},
		CancelQueries: []any{},
		ModelID:       c.cfg.ModelID,
	}
}

func source(name string) sourceExpression {
	return sourceExpression{SourceRef: sourceRef{Source: name}}
}
