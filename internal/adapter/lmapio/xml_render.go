package lmapio

import (
	"encoding/xml"
	"fmt"

	"lmapd/internal/domain"
)

// renderMode selects which YANG leaves go into the document.
type renderMode int

const (
	renderConfig renderMode = iota // config-true leaves only
	renderState                    // config-true plus state leaves
)

// RenderConfigXML renders the configuration subtree of cfg as an XML
// document.
func RenderConfigXML(cfg *domain.Config) (string, error) {
	return render(cfg, renderConfig)
}

// RenderStateXML renders the full state document: configuration, runtime
// state, and capabilities.
func RenderStateXML(cfg *domain.Config) (string, error) {
	return render(cfg, renderState)
}

func render(cfg *domain.Config, mode renderMode) (string, error) {
	doc := buildLmap(cfg, mode)
	doc.Xmlns = ControlNamespace
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render lmap document: %w", err)
	}
	return xml.Header + string(out) + "\n", nil
}

func buildLmap(cfg *domain.Config, mode renderMode) *xmlLmap {
	doc := &xmlLmap{}

	if cfg.Agent != nil {
		doc.Agent = buildAgent(cfg.Agent, mode)
	}
	if mode == renderState && cfg.Capabilities != nil {
		doc.Capabilities = buildCapabilities(cfg.Capabilities)
	}
	if len(cfg.Events) > 0 {
		doc.Events = &xmlEvents{}
		for _, ev := range cfg.Events {
			doc.Events.Events = append(doc.Events.Events, buildEvent(ev))
		}
	}
	if len(cfg.Tasks) > 0 {
		doc.Tasks = &xmlTasks{}
		for _, t := range cfg.Tasks {
			doc.Tasks.Tasks = append(doc.Tasks.Tasks, buildTask(t))
		}
	}
	if len(cfg.Schedules) > 0 {
		doc.Schedules = &xmlSchedules{}
		for _, s := range cfg.Schedules {
			doc.Schedules.Schedules = append(doc.Schedules.Schedules, buildSchedule(s, mode))
		}
	}
	if len(cfg.Suppressions) > 0 {
		doc.Suppressions = &xmlSuppressions{}
		for _, s := range cfg.Suppressions {
			doc.Suppressions.Suppressions = append(doc.Suppressions.Suppressions, buildSuppression(s, mode))
		}
	}
	return doc
}

func buildAgent(a *domain.Agent, mode renderMode) *xmlAgent {
	out := &xmlAgent{
		AgentID:          a.AgentID,
		GroupID:          a.GroupID,
		MeasurementPoint: a.MeasurementPoint,
	}
	if a.ReportAgentID {
		out.ReportAgentID = boolPtr(true)
	}
	if a.ReportGroupID {
		out.ReportGroupID = boolPtr(true)
	}
	if a.ReportMeasurement {
		out.ReportMeasurement = boolPtr(true)
	}
	if a.ControllerTimeout != domain.DefaultControllerTimeout {
		out.ControllerTimeout = u32Ptr(a.ControllerTimeout)
	}
	if mode == renderState {
		out.LastStarted = renderDatetime(a.LastStarted)
	}
	return out
}

func buildCapabilities(c *domain.Capability) *xmlCapabilities {
	out := &xmlCapabilities{Version: c.Version, Tags: c.Tags}
	if len(c.Tasks) > 0 {
		out.Tasks = &xmlTasks{}
		for _, t := range c.Tasks {
			out.Tasks.Tasks = append(out.Tasks.Tasks, buildTask(t))
		}
	}
	return out
}

func buildEvent(ev *domain.Event) xmlEvent {
	out := xmlEvent{Name: ev.Name}
	if ev.HasSpread {
		out.RandomSpread = u32Ptr(ev.RandomSpread)
	}
	if ev.CycleInterval != 0 {
		out.CycleInterval = u32Ptr(ev.CycleInterval)
	}
	switch ev.Kind {
	case domain.EventPeriodic:
		out.Periodic = &xmlPeriodic{
			Interval: ev.Interval,
			Start:    renderDatetime(ev.Start),
			End:      renderDatetime(ev.End),
		}
	case domain.EventCalendar:
		cal := ev.Calendar
		out.Calendar = &xmlCalendar{
			Months:      renderMonths(cal.Months),
			DaysOfMonth: renderDaysOfMonth(cal.DaysOfMonth),
			DaysOfWeek:  renderDaysOfWeek(cal.DaysOfWeek),
			Hours:       renderHours(cal.Hours),
			Minutes:     renderMinSecs(cal.Minutes),
			Seconds:     renderMinSecs(cal.Seconds),
			Start:       renderDatetime(ev.Start),
			End:         renderDatetime(ev.End),
		}
		if cal.TimezoneOffset != nil {
			out.Calendar.TimezoneOffset = renderTimezoneOffset(*cal.TimezoneOffset)
		}
	case domain.EventOneOff:
		out.OneOff = &xmlOneOff{Time: renderDatetime(ev.Start)}
	case domain.EventImmediate:
		out.Immediate = &xmlEmpty{}
	case domain.EventStartup:
		out.Startup = &xmlEmpty{}
	case domain.EventControllerLost:
		out.ControllerLost = &xmlEmpty{}
	case domain.EventControllerConnected:
		out.ControllerConnected = &xmlEmpty{}
	}
	return out
}

func buildTask(t *domain.Task) xmlTask {
	out := xmlTask{Name: t.Name, Program: t.Program, Tags: t.Tags}
	for _, opt := range t.Options {
		out.Options = append(out.Options, xmlOption{ID: opt.ID, Name: opt.Name, Value: opt.Value})
	}
	for _, fn := range t.Functions {
		out.Functions = append(out.Functions, xmlFunction{URI: fn.URI, Roles: fn.Roles})
	}
	return out
}

func buildSchedule(s *domain.Schedule, mode renderMode) xmlSchedule {
	out := xmlSchedule{
		Name:            s.Name,
		Start:           s.StartEvent,
		End:             s.EndEvent,
		ExecutionMode:   s.Mode.String(),
		Tags:            s.Tags,
		SuppressionTags: s.SuppressionTags,
	}
	if s.HasDuration {
		out.Duration = u32Ptr(s.Duration)
	}
	for _, a := range s.Actions {
		out.Actions = append(out.Actions, buildAction(a, mode))
	}
	if mode == renderState {
		out.State = s.State.String()
		out.Storage = u64Ptr(s.Storage)
		out.Invocations = u32Ptr(s.CntInvocations)
		out.Suppressions = u32Ptr(s.CntSuppressions)
		out.Overlaps = u32Ptr(s.CntOverlaps)
		out.Failures = u32Ptr(s.CntFailures)
		out.LastInvocation = renderDatetime(s.LastInvocation)
	}
	return out
}

func buildAction(a *domain.Action, mode renderMode) xmlAction {
	out := xmlAction{
		Name:            a.Name,
		Task:            a.TaskName,
		Destinations:    a.Destinations,
		Tags:            a.Tags,
		SuppressionTags: a.SuppressionTags,
	}
	for _, opt := range a.Options {
		out.Options = append(out.Options, xmlOption{ID: opt.ID, Name: opt.Name, Value: opt.Value})
	}
	if mode == renderState {
		out.State = a.State.String()
		out.Storage = u64Ptr(a.Storage)
		out.Invocations = u32Ptr(a.CntInvocations)
		out.Suppressions = u32Ptr(a.CntSuppressions)
		out.Overlaps = u32Ptr(a.CntOverlaps)
		out.Failures = u32Ptr(a.CntFailures)
		out.LastInvocation = renderDatetime(a.LastInvocation)
		out.LastCompletion = renderDatetime(a.LastCompletion)
		if !a.LastCompletion.IsZero() {
			out.LastStatus = intPtr(a.LastStatus)
		}
		out.LastFailedCompletion = renderDatetime(a.LastFailedCompletion)
		if !a.LastFailedCompletion.IsZero() {
			out.LastFailedStatus = intPtr(a.LastFailedStatus)
		}
	}
	return out
}

func buildSuppression(s *domain.Suppression, mode renderMode) xmlSuppression {
	out := xmlSuppression{
		Name:  s.Name,
		Start: s.StartEvent,
		End:   s.EndEvent,
		Match: s.Match,
	}
	if s.StopRunning {
		out.StopRunning = boolPtr(true)
	}
	if mode == renderState {
		out.State = s.State.String()
	}
	return out
}
