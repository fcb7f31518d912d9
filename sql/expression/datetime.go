// Copyright 2024 The flowql Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package expression

import (
	"fmt"
	"time"

	"github.com/lukoou3/flowql/sql"
)

// Timestamps are microseconds since the Unix epoch, UTC.
const microsPerSecond = int64(time.Second / time.Microsecond)
const microsPerMilli = int64(time.Millisecond / time.Microsecond)

// CurrentTimestamp implements current_timestamp()/now(): the wall-clock
// instant at evaluation time, not at plan construction.
type CurrentTimestamp struct{}

func NewCurrentTimestamp() *CurrentTimestamp { return &CurrentTimestamp{} }

func (CurrentTimestamp) Resolved() bool             { return true }
func (CurrentTimestamp) Type() sql.Type             { return sql.Timestamp }
func (CurrentTimestamp) Nullable() bool             { return false }
func (CurrentTimestamp) String() string             { return "current_timestamp()" }
func (CurrentTimestamp) Children() []sql.Expression { return nil }
func (c CurrentTimestamp) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("flowql: CurrentTimestamp takes no children")
	}
	return c, nil
}
func (CurrentTimestamp) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return sql.TimestampValue(time.Now().UnixMicro()), nil
}

// FromUnixtime implements from_unixtime(sec, fmt): formats a Unix-seconds
// timestamp using a Go reference-time layout translated from fmt.
type FromUnixtime struct {
	Seconds, Format sql.Expression
	millis          bool
}

func NewFromUnixtime(seconds, format sql.Expression, millis bool) *FromUnixtime {
	return &FromUnixtime{Seconds: seconds, Format: format, millis: millis}
}

func (f *FromUnixtime) Resolved() bool { return f.Seconds.Resolved() && f.Format.Resolved() }
func (f *FromUnixtime) Type() sql.Type { return sql.String }
func (f *FromUnixtime) Nullable() bool { return true }
func (f *FromUnixtime) String() string {
	return fmt.Sprintf("from_unixtime(%s, %s)", f.Seconds, f.Format)
}
func (f *FromUnixtime) Children() []sql.Expression { return []sql.Expression{f.Seconds, f.Format} }
func (f *FromUnixtime) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: FromUnixtime takes exactly 2 children, got %d", len(children))
	}
	return &FromUnixtime{Seconds: children[0], Format: children[1], millis: f.millis}, nil
}
func (f *FromUnixtime) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	sv, err := f.Seconds.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	fv, err := f.Format.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if sv.IsNull() || fv.IsNull() {
		return sql.NullValue(), nil
	}
	sec := sv.Long()
	if f.millis {
		sec /= 1000
	}
	t := time.Unix(sec, 0).UTC()
	return sql.StringValue(t.Format(javaLikeLayout(fv.String()))), nil
}

// ToUnixTimestamp implements to_unix_timestamp(s, fmt): parses s using
// fmt, returning Null on parse failure.
type ToUnixTimestamp struct {
	Str, Format sql.Expression
	millis      bool
}

func NewToUnixTimestamp(str, format sql.Expression, millis bool) *ToUnixTimestamp {
	return &ToUnixTimestamp{Str: str, Format: format, millis: millis}
}

func (t *ToUnixTimestamp) Resolved() bool { return t.Str.Resolved() && t.Format.Resolved() }
func (t *ToUnixTimestamp) Type() sql.Type { return sql.Long }
func (t *ToUnixTimestamp) Nullable() bool { return true }
func (t *ToUnixTimestamp) String() string {
	return fmt.Sprintf("to_unix_timestamp(%s, %s)", t.Str, t.Format)
}
func (t *ToUnixTimestamp) Children() []sql.Expression { return []sql.Expression{t.Str, t.Format} }
func (t *ToUnixTimestamp) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: ToUnixTimestamp takes exactly 2 children, got %d", len(children))
	}
	return &ToUnixTimestamp{Str: children[0], Format: children[1], millis: t.millis}, nil
}
func (tu *ToUnixTimestamp) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	sv, err := tu.Str.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	fv, err := tu.Format.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if sv.IsNull() || fv.IsNull() {
		return sql.NullValue(), nil
	}
	parsed, err := time.Parse(javaLikeLayout(fv.String()), sv.String())
	if err != nil {
		return sql.NullValue(), nil
	}
	sec := parsed.Unix()
	if tu.millis {
		return sql.LongValue(sec * 1000), nil
	}
	return sql.LongValue(sec), nil
}

// javaLikeLayout translates a small set of strftime/Java-style tokens to
// Go's reference-time layout, enough for the common "yyyy-MM-dd
// HH:mm:ss" family used by from_unixtime/to_unix_timestamp.
func javaLikeLayout(format string) string {
	replacer := []struct{ from, to string }{
		{"yyyy", "2006"}, {"MM", "01"}, {"dd", "02"},
		{"HH", "15"}, {"mm", "04"}, {"ss", "05"},
	}
	out := format
	for _, r := range replacer {
		out = replaceAll(out, r.from, r.to)
	}
	return out
}

func replaceAll(s, from, to string) string {
	for {
		i := indexOf(s, from)
		if i < 0 {
			return s
		}
		s = s[:i] + to + s[i+len(from):]
	}
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

// DateTruncUnit enumerates date_trunc's floor granularity.
type DateTruncUnit int

const (
	UnitMicrosecond DateTruncUnit = iota
	UnitMillisecond
	UnitSecond
	UnitMinute
	UnitHour
	UnitDay
)

var truncMicros = map[DateTruncUnit]int64{
	UnitMicrosecond: 1,
	UnitMillisecond: microsPerMilli,
	UnitSecond:      microsPerSecond,
	UnitMinute:      60 * microsPerSecond,
	UnitHour:        3600 * microsPerSecond,
	UnitDay:         86400 * microsPerSecond,
}

// DateTrunc implements date_trunc(unit, ts): floors a microsecond
// timestamp to the named granularity.
type DateTrunc struct {
	Ts   sql.Expression
	Unit DateTruncUnit
}

func NewDateTrunc(unit DateTruncUnit, ts sql.Expression) *DateTrunc {
	return &DateTrunc{Ts: ts, Unit: unit}
}

func (d *DateTrunc) Resolved() bool             { return d.Ts.Resolved() }
func (d *DateTrunc) Type() sql.Type             { return sql.Timestamp }
func (d *DateTrunc) Nullable() bool             { return true }
func (d *DateTrunc) String() string             { return fmt.Sprintf("date_trunc(%s)", d.Ts) }
func (d *DateTrunc) Children() []sql.Expression { return []sql.Expression{d.Ts} }
func (d *DateTrunc) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: DateTrunc takes exactly 1 child, got %d", len(children))
	}
	return &DateTrunc{Ts: children[0], Unit: d.Unit}, nil
}
func (d *DateTrunc) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	v, err := d.Ts.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if v.IsNull() {
		return sql.NullValue(), nil
	}
	step := truncMicros[d.Unit]
	ts := v.Timestamp()
	return sql.TimestampValue(ts - (ts % step)), nil
}

// TimeFloor implements time_floor(ts, interval_micros): floors ts to the
// nearest multiple of an arbitrary bucket width.
type TimeFloor struct {
	Ts, Interval sql.Expression
}

func NewTimeFloor(ts, interval sql.Expression) *TimeFloor {
	return &TimeFloor{Ts: ts, Interval: interval}
}

func (t *TimeFloor) Resolved() bool             { return t.Ts.Resolved() && t.Interval.Resolved() }
func (t *TimeFloor) Type() sql.Type             { return sql.Timestamp }
func (t *TimeFloor) Nullable() bool             { return true }
func (t *TimeFloor) String() string             { return fmt.Sprintf("time_floor(%s, %s)", t.Ts, t.Interval) }
func (t *TimeFloor) Children() []sql.Expression { return []sql.Expression{t.Ts, t.Interval} }
func (t *TimeFloor) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: TimeFloor takes exactly 2 children, got %d", len(children))
	}
	return &TimeFloor{Ts: children[0], Interval: children[1]}, nil
}
func (t *TimeFloor) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	tv, err := t.Ts.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	iv, err := t.Interval.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if tv.IsNull() || iv.IsNull() {
		return sql.NullValue(), nil
	}
	ts, interval := tv.Timestamp(), iv.Long()
	if interval == 0 {
		return sql.NullValue(), nil
	}
	return sql.TimestampValue(ts - (ts % interval)), nil
}
