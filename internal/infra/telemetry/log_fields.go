package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldScanID     = "scan_id"
	FieldBuildID    = "build_id"
	FieldTool       = "tool"
	FieldStatus     = "status"
	FieldDurationMs = "duration_ms"
	FieldLogSource  = "log_source"
)

const (
	EventScanStart     = "scan_start"
	EventScanComplete  = "scan_complete"
	EventBuildStart    = "build_start"
	EventBuildStep     = "build_step"
	EventBuildSuccess  = "build_success"
	EventBuildFailure  = "build_failure"
	EventWatchTrigger  = "watch_trigger"
	EventScheduledScan = "scheduled_scan"
	EventToolCall      = "tool_call"
)

const (
	LogSourceCore = "core"
	LogSourceCLI  = "cli"
	LogSourceMCP  = "mcp"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ScanIDField(id string) zap.Field {
	return zap.String(FieldScanID, id)
}

func BuildIDField(id string) zap.Field {
	return zap.String(FieldBuildID, id)
}

func ToolField(name string) zap.Field {
	return zap.String(FieldTool, name)
}

func StatusField(status string) zap.Field {
	return zap.String(FieldStatus, status)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}
