package constants

// AppName is used as the Prometheus metric namespace. The Server
// response header's product token is pkg/httpcodec.ServerToken, which
// holds the same string.
const AppName = "relay"

// Internal-only header/log-field names. None of these are ever
// written onto the wire toward the client or the origin — they exist
// purely for internal log/metric correlation (spec.md §9's note that
// thread_id and its trace-id analogue are "not semantically
// significant to protocol behavior").
const (
	TraceIDField      = "trace_id"
	ThreadIDField     = "thread_id"
	CacheStatusField  = "cache_status"
	RemoteAddrField   = "remote_addr"
)

// CacheStatus values used only in structured log lines.
const (
	CacheStatusHit    = "HIT"
	CacheStatusMiss   = "MISS"
	CacheStatusBypass = "BYPASS"
)
