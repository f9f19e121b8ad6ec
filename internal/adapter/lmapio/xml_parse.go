package lmapio

import (
	"encoding/xml"
	"fmt"

	"lmapd/internal/domain"
)

// ParseConfigXML builds a configuration tree from an XML document. Only
// config-true leaves are read; state leaves in the input are ignored.
// The returned tree is not yet validated.
func ParseConfigXML(data []byte) (*domain.Config, error) {
	var doc xmlLmap
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse lmap document: %w", err)
	}
	return docToConfig(&doc)
}

// docToConfig converts a wire document (from either encoding) into a
// domain tree.
func docToConfig(doc *xmlLmap) (*domain.Config, error) {
	cfg := domain.NewConfig()

	if doc.Agent != nil {
		parseAgent(cfg.Agent, doc.Agent)
	}
	if doc.Events != nil {
		for i := range doc.Events.Events {
			ev, err := parseEvent(&doc.Events.Events[i])
			if err != nil {
				return nil, err
			}
			cfg.Events = append(cfg.Events, ev)
		}
	}
	if doc.Tasks != nil {
		for i := range doc.Tasks.Tasks {
			cfg.Tasks = append(cfg.Tasks, parseTask(&doc.Tasks.Tasks[i]))
		}
	}
	if doc.Schedules != nil {
		for i := range doc.Schedules.Schedules {
			sched, err := parseSchedule(&doc.Schedules.Schedules[i])
			if err != nil {
				return nil, err
			}
			cfg.Schedules = append(cfg.Schedules, sched)
		}
	}
	if doc.Suppressions != nil {
		for i := range doc.Suppressions.Suppressions {
			cfg.Suppressions = append(cfg.Suppressions, parseSuppression(&doc.Suppressions.Suppressions[i]))
		}
	}
	return cfg, nil
}

func parseAgent(agent *domain.Agent, in *xmlAgent) {
	agent.AgentID = in.AgentID
	agent.GroupID = in.GroupID
	agent.MeasurementPoint = in.MeasurementPoint
	if in.ReportAgentID != nil {
		agent.ReportAgentID = *in.ReportAgentID
	}
	if in.ReportGroupID != nil {
		agent.ReportGroupID = *in.ReportGroupID
	}
	if in.ReportMeasurement != nil {
		agent.ReportMeasurement = *in.ReportMeasurement
	}
	if in.ControllerTimeout != nil {
		agent.ControllerTimeout = *in.ControllerTimeout
	}
}

func parseEvent(in *xmlEvent) (*domain.Event, error) {
	ev := &domain.Event{Name: in.Name}
	if in.RandomSpread != nil {
		ev.RandomSpread = *in.RandomSpread
		ev.HasSpread = true
	}
	if in.CycleInterval != nil {
		ev.CycleInterval = *in.CycleInterval
	}

	var err error
	switch {
	case in.Periodic != nil:
		ev.Kind = domain.EventPeriodic
		ev.Interval = in.Periodic.Interval
		if ev.Start, err = parseDatetime(in.Periodic.Start); err != nil {
			return nil, err
		}
		if ev.End, err = parseDatetime(in.Periodic.End); err != nil {
			return nil, err
		}
	case in.Calendar != nil:
		ev.Kind = domain.EventCalendar
		if ev.Calendar, err = parseCalendar(in.Calendar); err != nil {
			return nil, err
		}
		if ev.Start, err = parseDatetime(in.Calendar.Start); err != nil {
			return nil, err
		}
		if ev.End, err = parseDatetime(in.Calendar.End); err != nil {
			return nil, err
		}
	case in.OneOff != nil:
		ev.Kind = domain.EventOneOff
		if ev.Start, err = parseDatetime(in.OneOff.Time); err != nil {
			return nil, err
		}
	case in.Immediate != nil:
		ev.Kind = domain.EventImmediate
	case in.Startup != nil:
		ev.Kind = domain.EventStartup
	case in.ControllerLost != nil:
		ev.Kind = domain.EventControllerLost
	case in.ControllerConnected != nil:
		ev.Kind = domain.EventControllerConnected
	default:
		return nil, domain.NewConfigError("event", in.Name, "missing event type")
	}
	return ev, nil
}

func parseCalendar(in *xmlCalendar) (*domain.Calendar, error) {
	cal := &domain.Calendar{}
	var err error
	if cal.Months, err = parseMonths(in.Months); err != nil {
		return nil, err
	}
	if cal.DaysOfMonth, err = parseDaysOfMonth(in.DaysOfMonth); err != nil {
		return nil, err
	}
	if cal.DaysOfWeek, err = parseDaysOfWeek(in.DaysOfWeek); err != nil {
		return nil, err
	}
	if cal.Hours, err = parseHours(in.Hours); err != nil {
		return nil, err
	}
	if cal.Minutes, err = parseMinSecs(in.Minutes, "minute"); err != nil {
		return nil, err
	}
	if cal.Seconds, err = parseMinSecs(in.Seconds, "second"); err != nil {
		return nil, err
	}
	if in.TimezoneOffset != "" {
		offset, err := parseTimezoneOffset(in.TimezoneOffset)
		if err != nil {
			return nil, err
		}
		cal.TimezoneOffset = &offset
	}
	return cal, nil
}

func parseTask(in *xmlTask) *domain.Task {
	t := &domain.Task{
		Name:    in.Name,
		Program: in.Program,
		Tags:    tagsOf(in.Tags),
	}
	for _, opt := range in.Options {
		t.Options = append(t.Options, &domain.Option{ID: opt.ID, Name: opt.Name, Value: opt.Value})
	}
	for _, fn := range in.Functions {
		t.Functions = append(t.Functions, &domain.Function{URI: fn.URI, Roles: fn.Roles})
	}
	return t
}

func parseSchedule(in *xmlSchedule) (*domain.Schedule, error) {
	sched := &domain.Schedule{
		Name:            in.Name,
		StartEvent:      in.Start,
		EndEvent:        in.End,
		Tags:            tagsOf(in.Tags),
		SuppressionTags: tagsOf(in.SuppressionTags),
	}
	if in.Duration != nil {
		sched.Duration = *in.Duration
		sched.HasDuration = true
	}
	if in.ExecutionMode != "" {
		mode, err := domain.ParseExecMode(in.ExecutionMode)
		if err != nil {
			return nil, domain.NewConfigError("schedule", in.Name,
				"unknown execution mode "+in.ExecutionMode)
		}
		sched.Mode = mode
	}
	for i := range in.Actions {
		sched.Actions = append(sched.Actions, parseAction(&in.Actions[i]))
	}
	return sched, nil
}

func parseAction(in *xmlAction) *domain.Action {
	act := &domain.Action{
		Name:            in.Name,
		TaskName:        in.Task,
		Destinations:    in.Destinations,
		Tags:            tagsOf(in.Tags),
		SuppressionTags: tagsOf(in.SuppressionTags),
	}
	for _, opt := range in.Options {
		act.Options = append(act.Options, &domain.Option{ID: opt.ID, Name: opt.Name, Value: opt.Value})
	}
	return act
}

func parseSuppression(in *xmlSuppression) *domain.Suppression {
	supp := &domain.Suppression{
		Name:       in.Name,
		StartEvent: in.Start,
		EndEvent:   in.End,
		Match:      tagsOf(in.Match),
	}
	if in.StopRunning != nil {
		supp.StopRunning = *in.StopRunning
	}
	return supp
}
