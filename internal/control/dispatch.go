package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/danmuck/edgenetswitch/internal/bus"
	"github.com/danmuck/edgenetswitch/internal/health"
	"github.com/danmuck/edgenetswitch/internal/status"
	"github.com/danmuck/edgenetswitch/internal/telemetry"
)

// Source provides the synchronous snapshots handlers report on.
type Source interface {
	Metrics() telemetry.Metrics
	HealthSnapshot() health.Snapshot
	HealthStatus() bus.HealthStatus
	State() status.State
	NowMS() uint64
}

type handlerFunc func(src Source, req Request, table commandTable) Response

// CommandDescriptor documents one control command.
type CommandDescriptor struct {
	Name            string
	Description     string
	Fields          []string
	AcceptsArgument bool

	handler handlerFunc
}

type commandTable map[string]CommandDescriptor

// commandOrder fixes help output ordering.
var commandOrder = []string{"status", "health", "metrics", "version", "help"}

// commands is built on first use and shared for the process lifetime.
var commands = sync.OnceValue(func() commandTable {
	return commandTable{
		"status": {
			Name:        "status",
			Description: "runtime state and core metrics",
			Fields:      []string{"state", "uptime_ms", "tick_count"},
			handler:     handleStatus,
		},
		"health": {
			Name:        "health",
			Description: "liveness monitoring",
			Fields:      []string{"alive", "timeout_ms"},
			handler:     handleHealth,
		},
		"metrics": {
			Name:        "metrics",
			Description: "telemetry snapshot",
			Fields:      []string{"uptime_ms", "tick_count"},
			handler:     handleMetrics,
		},
		"version": {
			Name:        "version",
			Description: "daemon and protocol identification",
			Fields:      []string{"version", "protocol", "build"},
			handler:     handleVersion,
		},
		"help": {
			Name:            "help",
			Description:     "command listing",
			Fields:          []string{"commands"},
			AcceptsArgument: true,
			handler:         handleHelp,
		},
	}
})

// Commands returns the command descriptors in help order.
func Commands() []CommandDescriptor {
	table := commands()
	out := make([]CommandDescriptor, 0, len(commandOrder))
	for _, name := range commandOrder {
		d := table[name]
		d.Fields = append([]string(nil), d.Fields...)
		out = append(out, d)
	}
	return out
}

// IsKnown reports whether name is in the command table.
func IsKnown(name string) bool {
	_, ok := commands()[name]
	return ok
}

// Handle parses and dispatches one request line.
func Handle(line string, src Source) (Request, Response) {
	req, err := ParseRequest(line)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return Request{}, Failure(perr.Code, perr.Message)
		}
		return Request{}, Failure(CodeInternalError, internalErrorMessage)
	}
	return req, Dispatch(req, src)
}

// Dispatch routes req through the command table.
func Dispatch(req Request, src Source) (resp Response) {
	table := commands()
	desc, ok := table[req.Command]
	if !ok {
		return Failure(CodeUnknownCommand, fmt.Sprintf("unknown command: %s", req.Command))
	}
	if req.HasArgument && !desc.AcceptsArgument {
		return Failure(CodeInvalidRequest, fmt.Sprintf("command %s takes no argument", req.Command))
	}

	defer func() {
		if r := recover(); r != nil {
			resp = Failure(CodeInternalError, internalErrorMessage)
		}
	}()
	return desc.handler(src, req, table)
}

func handleStatus(src Source, _ Request, _ commandTable) Response {
	st := status.Build(src.Metrics(), src.HealthStatus(), src.State(), src.NowMS())
	return OK(payload(
		"state", st.State.String(),
		"uptime_ms", strconv.FormatUint(st.Metrics.UptimeMS, 10),
		"tick_count", strconv.FormatUint(st.Metrics.TickCount, 10),
	))
}

func handleHealth(src Source, _ Request, _ commandTable) Response {
	snap := src.HealthSnapshot()
	return OK(payload(
		"alive", strconv.FormatBool(snap.Alive),
		"timeout_ms", strconv.FormatUint(snap.TimeoutMS, 10),
	))
}

func handleMetrics(src Source, _ Request, _ commandTable) Response {
	m := src.Metrics()
	return OK(payload(
		"uptime_ms", strconv.FormatUint(m.UptimeMS, 10),
		"tick_count", strconv.FormatUint(m.TickCount, 10),
	))
}

func handleVersion(Source, Request, commandTable) Response {
	return OK(payload(
		"version", DaemonVersion,
		"protocol", ProtocolVersion,
		"build", Build,
	))
}

func handleHelp(_ Source, req Request, table commandTable) Response {
	var b strings.Builder
	if !req.HasArgument {
		b.WriteString("commands:\n")
		for _, name := range commandOrder {
			fmt.Fprintf(&b, "  %-8s - %s\n", name, table[name].Description)
		}
		return OK(b.String())
	}

	desc, ok := table[req.Argument]
	if !ok {
		return Failure(CodeUnknownCommand, fmt.Sprintf("unknown command: %s", req.Argument))
	}
	b.WriteString("command=" + desc.Name + "\n")
	b.WriteString("description=" + desc.Description + "\n")
	b.WriteString("fields:\n")
	for _, field := range desc.Fields {
		b.WriteString("  " + field + "\n")
	}
	return OK(b.String())
}

// payload joins key/value pairs into key=value lines.
func payload(kv ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteString(kv[i])
		b.WriteByte('=')
		b.WriteString(kv[i+1])
		b.WriteByte('\n')
	}
	return b.String()
}
