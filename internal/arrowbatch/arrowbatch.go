// Package arrowbatch implements the Arrow serializer component (spec §4.5):
// converting the expanded InputData model into an ordered list of named
// Arrow record batches with a fixed schema per name. Grounded on
// event_loop/arrow_input.rs; uses github.com/apache/arrow-go/v18 as the
// canonical Go analog of the Rust arrow/arrow-ipc crates it was built with.
package arrowbatch

import (
	"bytes"
	"sort"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rotisserie/eris"
)

// Batch is one named record batch in the serialized output, preserving the
// ordered-list contract from spec §4.5.
type Batch struct {
	Key    string
	Record arrow.Record
}

// Pool is the shared allocator used by every batch builder.
var Pool = memory.NewGoAllocator()

func timestampField() arrow.Field {
	return arrow.Field{Name: "t", Type: arrow.FixedWidthTypes.Timestamp_ms, Nullable: false}
}

func timestampArray(stamps []time.Time) arrow.Array {
	b := array.NewTimestampBuilder(Pool, arrow.FixedWidthTypes.Timestamp_ms)
	defer b.Release()
	for _, s := range stamps {
		b.Append(arrow.Timestamp(s.UnixMilli()))
	}
	return b.NewArray()
}

func float64Field(name string) arrow.Field {
	return arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true}
}

func float64Array(values []float64, valid []bool) arrow.Array {
	b := array.NewFloat64Builder(Pool)
	defer b.Release()
	for i, v := range values {
		if valid != nil && !valid[i] {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}
	return b.NewArray()
}

func utf8Field(name string) arrow.Field {
	return arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: false}
}

func utf8Array(values []string) arrow.Array {
	b := array.NewStringBuilder(Pool)
	defer b.Release()
	for _, v := range values {
		b.Append(v)
	}
	return b.NewArray()
}

func boolField(name string) arrow.Field {
	return arrow.Field{Name: name, Type: arrow.FixedWidthTypes.Boolean, Nullable: false}
}

func boolArray(values []bool) arrow.Array {
	b := array.NewBooleanBuilder(Pool)
	defer b.Release()
	for _, v := range values {
		b.Append(v)
	}
	return b.NewArray()
}

func int64Field(name string) arrow.Field {
	return arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64, Nullable: false}
}

func int64Array(values []int64) arrow.Array {
	b := array.NewInt64Builder(Pool)
	defer b.Release()
	for _, v := range values {
		b.Append(v)
	}
	return b.NewArray()
}

func int32Field(name string) arrow.Field {
	return arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int32, Nullable: false}
}

func int32Array(values []int32) arrow.Array {
	b := array.NewInt32Builder(Pool)
	defer b.Release()
	for _, v := range values {
		b.Append(v)
	}
	return b.NewArray()
}

func newBatch(key string, fields []arrow.Field, cols []arrow.Array, rows int64) Batch {
	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, cols, rows)
	return Batch{Key: key, Record: rec}
}

// sortedKeys returns the keys of m in lexicographic order, the default
// determinism rule from spec §4.5 ("Columns must be emitted in
// lexicographically sorted order").
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SerializeStream writes rec using the Arrow IPC streaming writer (not the
// file format), per spec §6 "Arrow stream IPC".
func SerializeStream(rec arrow.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(Pool))
	if err := w.Write(rec); err != nil {
		return nil, eris.Wrap(err, "failed to write arrow record batch")
	}
	if err := w.Close(); err != nil {
		return nil, eris.Wrap(err, "failed to close arrow stream writer")
	}
	return buf.Bytes(), nil
}

// DeserializeStreamSingle reads exactly one record batch from an IPC stream.
// More than one batch is an error, matching the Solver transport's
// recv_results contract in spec §4.6.
func DeserializeStreamSingle(data []byte) (arrow.Record, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(Pool))
	if err != nil {
		return nil, eris.Wrap(err, "failed to open arrow stream reader")
	}
	defer reader.Release()

	if !reader.Next() {
		return nil, eris.New("expected a single record batch, got 0")
	}
	first := reader.Record()
	first.Retain()

	count := 1
	for reader.Next() {
		count++
	}
	if count != 1 {
		first.Release()
		return nil, eris.Errorf("expected a single record batch, got %d", count)
	}
	return first, nil
}
