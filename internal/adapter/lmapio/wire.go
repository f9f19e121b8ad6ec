package lmapio

import "encoding/xml"

// Namespaces of the LMAP control and report models. The JSON rendering
// uses the module names as its top-level member keys.
const (
	ControlNamespace = "urn:ietf:params:xml:ns:yang:ietf-lmap-control"
	ReportNamespace  = "urn:ietf:params:xml:ns:yang:ietf-lmap-report"
	ControlModule    = "ietf-lmap-control"
	ReportModule     = "ietf-lmap-report"
)

// The wire structs mirror the YANG tree one to one and serve both the
// XML and the JSON encoding. Optional leaves are pointers or omitempty
// fields; config-false (state) leaves are filled only when rendering
// state documents, so config renders omit them.

type xmlLmap struct {
	XMLName      xml.Name         `xml:"lmap" json:"-"`
	Xmlns        string           `xml:"xmlns,attr,omitempty" json:"-"`
	Agent        *xmlAgent        `xml:"agent,omitempty" json:"agent,omitempty"`
	Capabilities *xmlCapabilities `xml:"capabilities,omitempty" json:"capabilities,omitempty"`
	Events       *xmlEvents       `xml:"events,omitempty" json:"events,omitempty"`
	Tasks        *xmlTasks        `xml:"tasks,omitempty" json:"tasks,omitempty"`
	Schedules    *xmlSchedules    `xml:"schedules,omitempty" json:"schedules,omitempty"`
	Suppressions *xmlSuppressions `xml:"suppressions,omitempty" json:"suppressions,omitempty"`
}

type xmlAgent struct {
	AgentID           string  `xml:"agent-id,omitempty" json:"agent-id,omitempty"`
	GroupID           string  `xml:"group-id,omitempty" json:"group-id,omitempty"`
	MeasurementPoint  string  `xml:"measurement-point,omitempty" json:"measurement-point,omitempty"`
	ReportAgentID     *bool   `xml:"report-agent-id,omitempty" json:"report-agent-id,omitempty"`
	ReportGroupID     *bool   `xml:"report-group-id,omitempty" json:"report-group-id,omitempty"`
	ReportMeasurement *bool   `xml:"report-measurement-point,omitempty" json:"report-measurement-point,omitempty"`
	ControllerTimeout *uint32 `xml:"controller-timeout,omitempty" json:"controller-timeout,omitempty"`
	LastStarted       string  `xml:"last-started,omitempty" json:"last-started,omitempty"`
}

type xmlCapabilities struct {
	Version string    `xml:"version,omitempty" json:"version,omitempty"`
	Tags    []string  `xml:"tag" json:"tag,omitempty"`
	Tasks   *xmlTasks `xml:"tasks,omitempty" json:"tasks,omitempty"`
}

type xmlEvents struct {
	Events []xmlEvent `xml:"event" json:"event,omitempty"`
}

type xmlEvent struct {
	Name                string       `xml:"name" json:"name"`
	RandomSpread        *uint32      `xml:"random-spread,omitempty" json:"random-spread,omitempty"`
	CycleInterval       *uint32      `xml:"cycle-interval,omitempty" json:"cycle-interval,omitempty"`
	Periodic            *xmlPeriodic `xml:"periodic,omitempty" json:"periodic,omitempty"`
	Calendar            *xmlCalendar `xml:"calendar,omitempty" json:"calendar,omitempty"`
	OneOff              *xmlOneOff   `xml:"one-off,omitempty" json:"one-off,omitempty"`
	Immediate           *xmlEmpty    `xml:"immediate,omitempty" json:"immediate,omitempty"`
	Startup             *xmlEmpty    `xml:"startup,omitempty" json:"startup,omitempty"`
	ControllerLost      *xmlEmpty    `xml:"controller-lost,omitempty" json:"controller-lost,omitempty"`
	ControllerConnected *xmlEmpty    `xml:"controller-connected,omitempty" json:"controller-connected,omitempty"`
}

type xmlEmpty struct{}

type xmlPeriodic struct {
	Interval uint32 `xml:"interval" json:"interval"`
	Start    string `xml:"start,omitempty" json:"start,omitempty"`
	End      string `xml:"end,omitempty" json:"end,omitempty"`
}

type xmlCalendar struct {
	Months         []string `xml:"month" json:"month,omitempty"`
	DaysOfMonth    []string `xml:"day-of-month" json:"day-of-month,omitempty"`
	DaysOfWeek     []string `xml:"day-of-week" json:"day-of-week,omitempty"`
	Hours          []string `xml:"hour" json:"hour,omitempty"`
	Minutes        []string `xml:"minute" json:"minute,omitempty"`
	Seconds        []string `xml:"second" json:"second,omitempty"`
	TimezoneOffset string   `xml:"timezone-offset,omitempty" json:"timezone-offset,omitempty"`
	Start          string   `xml:"start,omitempty" json:"start,omitempty"`
	End            string   `xml:"end,omitempty" json:"end,omitempty"`
}

type xmlOneOff struct {
	Time string `xml:"time" json:"time"`
}

type xmlTasks struct {
	Tasks []xmlTask `xml:"task" json:"task,omitempty"`
}

type xmlTask struct {
	Name      string        `xml:"name" json:"name"`
	Program   string        `xml:"program,omitempty" json:"program,omitempty"`
	Options   []xmlOption   `xml:"option" json:"option,omitempty"`
	Tags      []string      `xml:"tag" json:"tag,omitempty"`
	Functions []xmlFunction `xml:"function" json:"function,omitempty"`
}

type xmlFunction struct {
	URI   string   `xml:"uri" json:"uri"`
	Roles []string `xml:"role" json:"role,omitempty"`
}

type xmlOption struct {
	ID    string `xml:"id" json:"id"`
	Name  string `xml:"name,omitempty" json:"name,omitempty"`
	Value string `xml:"value,omitempty" json:"value,omitempty"`
}

type xmlSchedules struct {
	Schedules []xmlSchedule `xml:"schedule" json:"schedule,omitempty"`
}

type xmlSchedule struct {
	Name            string      `xml:"name" json:"name"`
	Start           string      `xml:"start" json:"start"`
	End             string      `xml:"end,omitempty" json:"end,omitempty"`
	Duration        *uint32     `xml:"duration,omitempty" json:"duration,omitempty"`
	ExecutionMode   string      `xml:"execution-mode,omitempty" json:"execution-mode,omitempty"`
	Tags            []string    `xml:"tag" json:"tag,omitempty"`
	SuppressionTags []string    `xml:"suppression-tag" json:"suppression-tag,omitempty"`
	Actions         []xmlAction `xml:"action" json:"action,omitempty"`

	State          string  `xml:"state,omitempty" json:"state,omitempty"`
	Storage        *uint64 `xml:"storage,omitempty" json:"storage,omitempty"`
	Invocations    *uint32 `xml:"invocations,omitempty" json:"invocations,omitempty"`
	Suppressions   *uint32 `xml:"suppressions,omitempty" json:"suppressions,omitempty"`
	Overlaps       *uint32 `xml:"overlaps,omitempty" json:"overlaps,omitempty"`
	Failures       *uint32 `xml:"failures,omitempty" json:"failures,omitempty"`
	LastInvocation string  `xml:"last-invocation,omitempty" json:"last-invocation,omitempty"`
}

type xmlAction struct {
	Name            string      `xml:"name" json:"name"`
	Task            string      `xml:"task,omitempty" json:"task,omitempty"`
	Options         []xmlOption `xml:"option" json:"option,omitempty"`
	Destinations    []string    `xml:"destination" json:"destination,omitempty"`
	Tags            []string    `xml:"tag" json:"tag,omitempty"`
	SuppressionTags []string    `xml:"suppression-tag" json:"suppression-tag,omitempty"`

	State                string  `xml:"state,omitempty" json:"state,omitempty"`
	Storage              *uint64 `xml:"storage,omitempty" json:"storage,omitempty"`
	Invocations          *uint32 `xml:"invocations,omitempty" json:"invocations,omitempty"`
	Suppressions         *uint32 `xml:"suppressions,omitempty" json:"suppressions,omitempty"`
	Overlaps             *uint32 `xml:"overlaps,omitempty" json:"overlaps,omitempty"`
	Failures             *uint32 `xml:"failures,omitempty" json:"failures,omitempty"`
	LastInvocation       string  `xml:"last-invocation,omitempty" json:"last-invocation,omitempty"`
	LastCompletion       string  `xml:"last-completion,omitempty" json:"last-completion,omitempty"`
	LastStatus           *int    `xml:"last-status,omitempty" json:"last-status,omitempty"`
	LastFailedCompletion string  `xml:"last-failed-completion,omitempty" json:"last-failed-completion,omitempty"`
	LastFailedStatus     *int    `xml:"last-failed-status,omitempty" json:"last-failed-status,omitempty"`
}

type xmlSuppressions struct {
	Suppressions []xmlSuppression `xml:"suppression" json:"suppression,omitempty"`
}

type xmlSuppression struct {
	Name        string   `xml:"name" json:"name"`
	Start       string   `xml:"start,omitempty" json:"start,omitempty"`
	End         string   `xml:"end,omitempty" json:"end,omitempty"`
	Match       []string `xml:"match" json:"match,omitempty"`
	StopRunning *bool    `xml:"stop-running,omitempty" json:"stop-running,omitempty"`
	State       string   `xml:"state,omitempty" json:"state,omitempty"`
}

// Report document.

type xmlReport struct {
	XMLName xml.Name      `xml:"rpc" json:"-"`
	Xmlns   string        `xml:"xmlns,attr,omitempty" json:"-"`
	Report  xmlReportBody `xml:"report" json:"report"`
}

type xmlReportBody struct {
	Date             string      `xml:"date" json:"date"`
	AgentID          string      `xml:"agent-id,omitempty" json:"agent-id,omitempty"`
	GroupID          string      `xml:"group-id,omitempty" json:"group-id,omitempty"`
	MeasurementPoint string      `xml:"measurement-point,omitempty" json:"measurement-point,omitempty"`
	Results          []xmlResult `xml:"result" json:"result,omitempty"`
}

type xmlResult struct {
	Schedule    string      `xml:"schedule,omitempty" json:"schedule,omitempty"`
	Action      string      `xml:"action,omitempty" json:"action,omitempty"`
	Task        string      `xml:"task,omitempty" json:"task,omitempty"`
	Options     []xmlOption `xml:"option" json:"option,omitempty"`
	Tags        []string    `xml:"tag" json:"tag,omitempty"`
	Event       string      `xml:"event,omitempty" json:"event,omitempty"`
	Start       string      `xml:"start,omitempty" json:"start,omitempty"`
	End         string      `xml:"end,omitempty" json:"end,omitempty"`
	CycleNumber string      `xml:"cycle-number,omitempty" json:"cycle-number,omitempty"`
	Status      *int        `xml:"status,omitempty" json:"status,omitempty"`
	Tables      []xmlTable  `xml:"table" json:"table,omitempty"`
}

type xmlTable struct {
	Rows []xmlRow `xml:"row" json:"row,omitempty"`
}

type xmlRow struct {
	Values []string `xml:"value" json:"value,omitempty"`
}
