package internaldefs

import (
	"strconv"
	"strings"

	goAdmin "github.com/MrEthical07/goAdmin"
)

// BucketCount is the number of histogram buckets, the unbounded one included.
const BucketCount = len(goAdmin.LatencyBucketBounds) + 1

// CounterDef maps a client counter to its exported series.
type CounterDef struct {
	ID   goAdmin.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goAdmin.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	counter(goAdmin.MetricLoginOTPRequired, "Credential submissions accepted by the backend."),
	counter(goAdmin.MetricLoginLocked, "Login replies that locked the login type."),
	counter(goAdmin.MetricLoginInvalidCredentials, "Login replies reporting remaining attempts."),
	counter(goAdmin.MetricLoginFailure, "Other failed logins, transport errors included."),
	counter(goAdmin.MetricLoginRefusedLocked, "Submissions refused by a stored lockout."),
	counter(goAdmin.MetricOTPSuccess, "Successful OTP verifications."),
	counter(goAdmin.MetricOTPFailure, "Failed OTP verifications."),
	counter(goAdmin.MetricSessionValidated, "Stored sessions confirmed by the probe."),
	counter(goAdmin.MetricSessionInvalidated, "Stored sessions dropped as invalid."),
	counter(goAdmin.MetricSessionProbeFailOpen, "Probe errors treated as a valid session."),
	counter(goAdmin.MetricLogout, "Operator logouts."),
	counter(goAdmin.MetricGuardRedirect, "Route guard redirects."),
}

var HistogramDefs = []HistogramDef{
	{
		ID:   goAdmin.MetricBackendLatency,
		Name: "goadmin_backend_latency_seconds",
		Help: "Backend round trip latency.",
	},
}

// HistogramBounds are the Prometheus "le" labels, ending with +Inf.
var HistogramBounds = func() []string {
	out := make([]string, 0, BucketCount)
	for _, b := range goAdmin.LatencyBucketBounds {
		out = append(out, strconv.FormatFloat(b.Seconds(), 'f', -1, 64))
	}
	return append(out, "+Inf")
}()

// HistogramBoundSuffix are HistogramBounds made safe for instrument names.
var HistogramBoundSuffix = func() []string {
	out := make([]string, 0, BucketCount)
	for _, le := range HistogramBounds {
		if le == "+Inf" {
			out = append(out, "inf")
			continue
		}
		out = append(out, strings.ReplaceAll(le, ".", "_"))
	}
	return out
}()

func counter(id goAdmin.MetricID, help string) CounterDef {
	return CounterDef{ID: id, Name: "goadmin_" + id.Name() + "_total", Help: help}
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling short input.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
