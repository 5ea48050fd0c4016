package internaldefs

import (
	goBlade "github.com/MrEthical07/goBlade"
)

type CounterDef struct {
	ID   goBlade.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   goBlade.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goBlade.MetricLoginSuccess, Name: "goblade_login_success_total", Help: "Successful logins."},
	{ID: goBlade.MetricLoginFailure, Name: "goblade_login_failure_total", Help: "Failed logins of any kind."},
	{ID: goBlade.MetricLoginCredentialRejected, Name: "goblade_login_credential_rejected_total", Help: "Logins refused by the auth service."},
	{ID: goBlade.MetricLoginNetworkFailure, Name: "goblade_login_network_failure_total", Help: "Logins that could not reach the auth service."},
	{ID: goBlade.MetricLoginConcurrentRejected, Name: "goblade_login_concurrent_rejected_total", Help: "Logins refused because another was in flight."},
	{ID: goBlade.MetricProfileFetchFailure, Name: "goblade_profile_fetch_failure_total", Help: "Logins whose profile fetch failed."},
	{ID: goBlade.MetricLogout, Name: "goblade_logout_total", Help: "Logouts."},
	{ID: goBlade.MetricLogoutRemoteFailure, Name: "goblade_logout_remote_failure_total", Help: "Logouts whose server call failed."},
	{ID: goBlade.MetricSessionExpired, Name: "goblade_session_expired_total", Help: "Sessions that expired."},
	{ID: goBlade.MetricSessionRecovered, Name: "goblade_session_recovered_total", Help: "Expired sessions that became valid again."},
	{ID: goBlade.MetricRefreshSuccess, Name: "goblade_refresh_success_total", Help: "Successful token refreshes."},
	{ID: goBlade.MetricRefreshFailure, Name: "goblade_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: goBlade.MetricSessionRestored, Name: "goblade_session_restored_total", Help: "Sessions reloaded from persistence."},
	{ID: goBlade.MetricNavigationFailure, Name: "goblade_navigation_failure_total", Help: "Navigations that the navigator refused."},
}

var HistogramDefs = []HistogramDef{
	{ID: goBlade.MetricLoginLatency, Name: "goblade_login_latency_seconds", Help: "Login latency including the profile fetch."},
}

// HistogramBounds are the upper bounds of the eight latency buckets in
// seconds. The last is +Inf.
var HistogramBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HistogramBoundLabels render HistogramBounds plus +Inf as le label values.
var HistogramBoundLabels = []string{"0.05", "0.1", "0.25", "0.5", "1", "2.5", "5", "+Inf"}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}

// HistogramBoundSuffix renders the bounds as instrument-name suffixes for
// backends without a native bucket label.
var HistogramBoundSuffix = []string{"0_05", "0_1", "0_25", "0_5", "1", "2_5", "5", "inf"}

const (
	AuditDroppedName = "goblade_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."
)
