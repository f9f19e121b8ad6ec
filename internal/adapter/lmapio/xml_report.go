package lmapio

import (
	"encoding/xml"
	"fmt"
	"time"

	"lmapd/internal/domain"
)

// RenderReportXML renders the accumulated results of cfg as a report
// document. The agent identity leaves are included only when the
// corresponding report-* policy flag is set.
func RenderReportXML(cfg *domain.Config, now time.Time) (string, error) {
	doc := &xmlReport{Xmlns: ReportNamespace}
	doc.Report = buildReportBody(cfg, now)

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render report document: %w", err)
	}
	return xml.Header + string(out) + "\n", nil
}

func buildReportBody(cfg *domain.Config, now time.Time) xmlReportBody {
	body := xmlReportBody{Date: now.Format(time.RFC3339)}

	if agent := cfg.Agent; agent != nil {
		if agent.ReportAgentID {
			body.AgentID = agent.AgentID
		}
		if agent.ReportGroupID {
			body.GroupID = agent.GroupID
		}
		if agent.ReportMeasurement {
			body.MeasurementPoint = agent.MeasurementPoint
		}
	}

	for _, res := range cfg.Results {
		body.Results = append(body.Results, buildResult(res))
	}
	return body
}

func buildResult(res *domain.Result) xmlResult {
	out := xmlResult{
		Schedule:    res.Schedule,
		Action:      res.Action,
		Task:        res.Task,
		Tags:        res.Tags,
		Event:       renderDatetime(res.Event),
		Start:       renderDatetime(res.Start),
		End:         renderDatetime(res.End),
		CycleNumber: res.CycleNumber,
	}
	for _, opt := range res.Options {
		out.Options = append(out.Options, xmlOption{ID: opt.ID, Name: opt.Name, Value: opt.Value})
	}
	if res.HasStatus {
		out.Status = intPtr(res.Status)
	}
	for _, tab := range res.Tables {
		out.Tables = append(out.Tables, buildTable(tab))
	}
	return out
}

func buildTable(tab *domain.Table) xmlTable {
	out := xmlTable{}
	for _, row := range tab.Rows {
		r := xmlRow{}
		for _, val := range row.Values {
			r.Values = append(r.Values, val.Value)
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}
