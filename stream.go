package fixedwidth

import (
	"context"
	"iter"
)

// Parse parses data, a complete input in the layout encoding, and returns
// every record.
func Parse(data []byte, opts Options) ([]Record, error) {
	l, err := Compile(opts)
	if err != nil {
		return nil, err
	}
	return l.Parse(data)
}

// ParseString is like Parse for already decoded text.
func ParseString(text string, opts Options) ([]Record, error) {
	l, err := Compile(opts)
	if err != nil {
		return nil, err
	}
	p := l.NewParser()
	return collect(concat(p.WriteString(text), p.End()))
}

// Parse parses data, a complete input, and returns every record.
func (l *Layout) Parse(data []byte) ([]Record, error) {
	p := l.NewParser()
	return collect(concat(p.Write(data), p.End()))
}

// ParseSeq returns a sequence of the records parsed from chunks. Each
// record is parsed as it is pulled, reading no more chunks than needed.
// The sequence stops after the first error.
func ParseSeq(chunks iter.Seq[[]byte], opts Options) (iter.Seq2[Record, error], error) {
	l, err := Compile(opts)
	if err != nil {
		return nil, err
	}
	return l.ParseSeq(chunks), nil
}

// ParseSeq is the Layout form of the package level ParseSeq.
func (l *Layout) ParseSeq(chunks iter.Seq[[]byte]) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		p := l.NewParser()
		for chunk := range chunks {
			for rec, err := range p.Write(chunk) {
				if !yield(rec, err) || err != nil {
					return
				}
			}
		}
		for rec, err := range p.End() {
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Result is a record, or the error that ended parsing, delivered over a
// channel.
type Result struct {
	Record Record
	Err    error
}

// ParseChan parses chunks received from in on a new goroutine. The returned
// channel is unbuffered and closed once in is closed and drained, after the
// first error, or when ctx is done.
func ParseChan(ctx context.Context, in <-chan []byte, opts Options) (<-chan Result, error) {
	l, err := Compile(opts)
	if err != nil {
		return nil, err
	}
	return l.ParseChan(ctx, in), nil
}

// ParseChan is the Layout form of the package level ParseChan.
func (l *Layout) ParseChan(ctx context.Context, in <-chan []byte) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)

		send := func(seq iter.Seq2[Record, error]) bool {
			for rec, err := range seq {
				select {
				case out <- Result{Record: rec, Err: err}:
				case <-ctx.Done():
					return false
				}
				if err != nil {
					return false
				}
			}
			return true
		}

		p := l.NewParser()
		for {
			select {
			case <-ctx.Done():
				return
			case chunk, ok := <-in:
				if !ok {
					send(p.End())
					return
				}
				if !send(p.Write(chunk)) {
					return
				}
			}
		}
	}()
	return out
}

// Stringify renders records and returns the complete output.
func Stringify[T any](records []T, opts Options) ([]byte, error) {
	l, err := Compile(opts)
	if err != nil {
		return nil, err
	}
	s := l.NewStringifier()
	var out []byte
	for _, r := range records {
		b, err := s.Write(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return append(out, s.End()...), nil
}

// StringifySeq returns a sequence of the output of each record of seq,
// rendered as it is pulled. The sequence stops after the first error.
func StringifySeq[T any](seq iter.Seq[T], opts Options) (iter.Seq2[[]byte, error], error) {
	l, err := Compile(opts)
	if err != nil {
		return nil, err
	}
	return stringifySeq(l, seq), nil
}

func stringifySeq[T any](l *Layout, seq iter.Seq[T]) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		s := l.NewStringifier()
		for r := range seq {
			b, err := s.Write(r)
			if !yield(b, err) || err != nil {
				return
			}
		}
		if tail := s.End(); len(tail) > 0 {
			yield(tail, nil)
		}
	}
}

// Chunk is a piece of output, or the error that ended stringifying,
// delivered over a channel.
type Chunk struct {
	Data []byte
	Err  error
}

// StringifyChan renders records received from in on a new goroutine. The
// returned channel is unbuffered and closed once in is closed and drained,
// after the first error, or when ctx is done.
func StringifyChan[T any](ctx context.Context, in <-chan T, opts Options) (<-chan Chunk, error) {
	l, err := Compile(opts)
	if err != nil {
		return nil, err
	}
	out := make(chan Chunk)
	go func() {
		defer close(out)
		for b, err := range stringifySeq(l, chanSeq(ctx, in)) {
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- Chunk{Data: b, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// chanSeq yields the values received from ch until it is closed or ctx
// is done.
func chanSeq[T any](ctx context.Context, ch <-chan T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-ch:
				if !ok || !yield(v) {
					return
				}
			}
		}
	}
}

func concat[K, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for k, v := range seq {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

func collect(seq iter.Seq2[Record, error]) ([]Record, error) {
	var records []Record
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
