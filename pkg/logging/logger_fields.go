package logging

import (
	"math"
	"time"
)

func String(key, value string) Field     { return Field{Key: key, Value: value} }
func Int(key string, value int) Field    { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field  { return Field{Key: key, Value: value} }
func Ints(key string, value []int) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field    { return Field{Key: key, Value: value} }

// Float64 records a float. Infinite values are rendered as strings because
// JSON has no representation for them.
func Float64(key string, value float64) Field {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return Field{Key: key, Value: formatSpecial(value)}
	}
	return Field{Key: key, Value: value}
}

func formatSpecial(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	default:
		return "NaN"
	}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Component(name string) Field   { return String("component", name) }
func Operation(op string) Field     { return String("operation", op) }
func InstanceID(id string) Field    { return String("instance_id", id) }
func Entities(n int) Field          { return Int("entities", n) }
func Statements(n int) Field        { return Int("statements", n) }
func Components(n int) Field        { return Int("components", n) }
func Candidate(ids []int) Field     { return Ints("candidate", ids) }
func Cost(c float64) Field          { return Float64("cost", c) }
func Depth(d int) Field             { return Int("depth", d) }
func Count(n int) Field             { return Int("count", n) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
