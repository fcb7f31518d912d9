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

// Package function wires every built-in scalar, generator, and aggregate
// function into a sql.Catalog.
package function

import (
	"fmt"

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
)

// DefaultCatalog is pre-populated with every built-in named in the
// function reference; analyzers that need a restricted surface can start
// from sql.NewCatalog() and Register selectively instead.
var DefaultCatalog = buildDefaultCatalog()

func arity(name string, args []sql.Expression, n int) error {
	if len(args) != n {
		return sql.ErrBadArguments.New(fmt.Sprintf("%s expects %d argument(s), got %d", name, n, len(args)))
	}
	return nil
}

func arityRange(name string, args []sql.Expression, min, max int) error {
	if len(args) < min || len(args) > max {
		return sql.ErrBadArguments.New(fmt.Sprintf("%s expects between %d and %d arguments, got %d", name, min, max, len(args)))
	}
	return nil
}

func buildDefaultCatalog() *sql.Catalog {
	c := sql.NewCatalog()

	c.Register("if", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("if", args, 3); err != nil {
			return nil, err
		}
		return expression.NewIf(args[0], args[1], args[2]), nil
	})
	c.Register("coalesce", func(args []sql.Expression) (sql.Expression, error) {
		if len(args) == 0 {
			return nil, sql.ErrBadArguments.New("coalesce expects at least 1 argument")
		}
		return expression.NewCoalesce(args), nil
	})
	c.Register("greatest", func(args []sql.Expression) (sql.Expression, error) {
		if len(args) == 0 {
			return nil, sql.ErrBadArguments.New("greatest expects at least 1 argument")
		}
		return expression.NewGreatest(args), nil
	})
	c.Register("least", func(args []sql.Expression) (sql.Expression, error) {
		if len(args) == 0 {
			return nil, sql.ErrBadArguments.New("least expects at least 1 argument")
		}
		return expression.NewLeast(args), nil
	})

	c.Register("length", oneArg("length", expression.NewLength))
	c.Register("char_length", oneArg("char_length", expression.NewCharLength))
	c.Register("lower", oneArg("lower", expression.NewLower))
	c.Register("upper", oneArg("upper", expression.NewUpper))
	c.Register("trim", oneArg("trim", expression.NewTrim))
	c.Register("to_base64", oneArg("to_base64", expression.NewToBase64))
	c.Register("from_base64", oneArg("from_base64", expression.NewFromBase64))
	c.Register("hex", oneArg("hex", expression.NewHex))
	c.Register("unhex", oneArg("unhex", expression.NewUnhex))
	c.Register("round", oneArg("round", expression.NewRound))
	c.Register("floor", oneArg("floor", expression.NewFloor))
	c.Register("ceil", oneArg("ceil", expression.NewCeil))
	c.Register("array_size", oneArg("array_size", func(e sql.Expression) sql.Expression { return expression.NewArraySize(e) }))
	c.Register("cardinality", oneArg("cardinality", func(e sql.Expression) sql.Expression { return expression.NewArraySize(e) }))

	c.Register("concat", func(args []sql.Expression) (sql.Expression, error) {
		return expression.NewConcat(args), nil
	})
	c.Register("concat_ws", func(args []sql.Expression) (sql.Expression, error) {
		if len(args) < 1 {
			return nil, sql.ErrBadArguments.New("concat_ws expects at least 1 argument")
		}
		return expression.NewConcatWs(args[0], args[1:]), nil
	})
	c.Register("substring", func(args []sql.Expression) (sql.Expression, error) {
		if err := arityRange("substring", args, 2, 3); err != nil {
			return nil, err
		}
		if len(args) == 2 {
			return expression.NewSubstring(args[0], args[1], nil), nil
		}
		return expression.NewSubstring(args[0], args[1], args[2]), nil
	})
	c.Register("substr", func(args []sql.Expression) (sql.Expression, error) {
		b, _ := c.Function("substring")
		return b(args)
	})
	c.Register("split", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("split", args, 2); err != nil {
			return nil, err
		}
		return expression.NewSplit(args[0], args[1]), nil
	})
	c.Register("split_part", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("split_part", args, 3); err != nil {
			return nil, err
		}
		return expression.NewSplitPart(args[0], args[1], args[2]), nil
	})
	c.Register("replace", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("replace", args, 3); err != nil {
			return nil, err
		}
		return expression.NewReplace(args[0], args[1], args[2]), nil
	})
	c.Register("regexp_replace", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("regexp_replace", args, 3); err != nil {
			return nil, err
		}
		return expression.NewRegexpReplace(args[0], args[1], args[2]), nil
	})
	c.Register("regexp_extract", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("regexp_extract", args, 3); err != nil {
			return nil, err
		}
		return expression.NewRegexpExtract(args[0], args[1], args[2]), nil
	})

	c.Register("pow", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("pow", args, 2); err != nil {
			return nil, err
		}
		return expression.NewPow(args[0], args[1]), nil
	})
	c.Register("power", func(args []sql.Expression) (sql.Expression, error) {
		b, _ := c.Function("pow")
		return b(args)
	})
	c.Register("bin", oneArg("bin", func(e sql.Expression) sql.Expression { return expression.NewBin(e) }))

	c.Register("current_timestamp", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("current_timestamp", args, 0); err != nil {
			return nil, err
		}
		return expression.NewCurrentTimestamp(), nil
	})
	c.Register("now", func(args []sql.Expression) (sql.Expression, error) {
		b, _ := c.Function("current_timestamp")
		return b(args)
	})
	c.Register("from_unixtime", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("from_unixtime", args, 2); err != nil {
			return nil, err
		}
		return expression.NewFromUnixtime(args[0], args[1], false), nil
	})
	c.Register("from_unixtime_millis", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("from_unixtime_millis", args, 2); err != nil {
			return nil, err
		}
		return expression.NewFromUnixtime(args[0], args[1], true), nil
	})
	c.Register("to_unix_timestamp", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("to_unix_timestamp", args, 2); err != nil {
			return nil, err
		}
		return expression.NewToUnixTimestamp(args[0], args[1], false), nil
	})
	c.Register("unix_timestamp", func(args []sql.Expression) (sql.Expression, error) {
		b, _ := c.Function("to_unix_timestamp")
		return b(args)
	})
	c.Register("to_unix_timestamp_millis", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("to_unix_timestamp_millis", args, 2); err != nil {
			return nil, err
		}
		return expression.NewToUnixTimestamp(args[0], args[1], true), nil
	})
	c.Register("unix_timestamp_millis", func(args []sql.Expression) (sql.Expression, error) {
		b, _ := c.Function("to_unix_timestamp_millis")
		return b(args)
	})
	c.Register("date_floor", func(args []sql.Expression) (sql.Expression, error) {
		return dateTruncBuilder("date_floor", args)
	})
	c.Register("date_trunc", func(args []sql.Expression) (sql.Expression, error) {
		return dateTruncBuilder("date_trunc", args)
	})
	c.Register("time_floor", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("time_floor", args, 2); err != nil {
			return nil, err
		}
		return expression.NewTimeFloor(args[0], args[1]), nil
	})

	c.Register("get_json_object", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("get_json_object", args, 2); err != nil {
			return nil, err
		}
		return expression.NewGetJsonObject(args[0], args[1]), nil
	})
	c.Register("get_json_int", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("get_json_int", args, 2); err != nil {
			return nil, err
		}
		return expression.NewGetJsonInt(args[0], args[1]), nil
	})

	c.Register("array_contains", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("array_contains", args, 2); err != nil {
			return nil, err
		}
		return expression.NewArrayContains(args[0], args[1]), nil
	})

	c.Register("aes_encrypt", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("aes_encrypt", args, 2); err != nil {
			return nil, err
		}
		return expression.NewAesEncrypt(args[0], args[1]), nil
	})
	c.Register("aes_decrypt", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("aes_decrypt", args, 2); err != nil {
			return nil, err
		}
		return expression.NewAesDecrypt(args[0], args[1]), nil
	})

	c.Register("explode", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("explode", args, 1); err != nil {
			return nil, err
		}
		return expression.NewExplode(args[0]), nil
	})
	c.Register("path_file_unroll", func(args []sql.Expression) (sql.Expression, error) {
		if err := arity("path_file_unroll", args, 1); err != nil {
			return nil, err
		}
		return expression.NewPathFileUnroll(args[0]), nil
	})

	c.Register("sum", oneArg("sum", func(e sql.Expression) sql.Expression { return expression.NewSum(e) }))
	c.Register("avg", oneArg("avg", func(e sql.Expression) sql.Expression { return expression.NewAvg(e) }))
	c.Register("min", oneArg("min", expression.NewMin))
	c.Register("max", oneArg("max", expression.NewMax))
	c.Register("first", oneArg("first", expression.NewFirst))
	c.Register("last", oneArg("last", expression.NewLast))
	c.Register("collect_list", oneArg("collect_list", func(e sql.Expression) sql.Expression { return expression.NewCollectList(e) }))
	c.Register("collect_set", oneArg("collect_set", func(e sql.Expression) sql.Expression { return expression.NewCollectSet(e) }))
	c.Register("count", func(args []sql.Expression) (sql.Expression, error) {
		if len(args) == 0 {
			return expression.NewCount(nil), nil
		}
		if err := arity("count", args, 1); err != nil {
			return nil, err
		}
		return expression.NewCount(args[0]), nil
	})

	return c
}

func oneArg(name string, build func(sql.Expression) sql.Expression) sql.FunctionBuilder {
	return func(args []sql.Expression) (sql.Expression, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		return build(args[0]), nil
	}
}

func dateTruncBuilder(name string, args []sql.Expression) (sql.Expression, error) {
	if err := arity(name, args, 2); err != nil {
		return nil, err
	}
	lit, ok := expression.IsFoldable(args[0])
	if !ok {
		return nil, sql.ErrBadArguments.New(name + " requires a literal unit as its first argument")
	}
	unit, err := parseDateTruncUnit(lit.Value.String())
	if err != nil {
		return nil, err
	}
	return expression.NewDateTrunc(unit, args[1]), nil
}

func parseDateTruncUnit(s string) (expression.DateTruncUnit, error) {
	switch s {
	case "microsecond":
		return expression.UnitMicrosecond, nil
	case "millisecond":
		return expression.UnitMillisecond, nil
	case "second":
		return expression.UnitSecond, nil
	case "minute":
		return expression.UnitMinute, nil
	case "hour":
		return expression.UnitHour, nil
	case "day":
		return expression.UnitDay, nil
	default:
		return 0, sql.ErrBadArguments.New("unknown date_trunc unit " + s)
	}
}
