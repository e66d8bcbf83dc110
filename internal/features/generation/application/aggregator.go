package application

import (
	"context"
	"errors"
	"io"
	"strings"

	"codecraft/backend/internal/features/generation/infrastructure"
)

// Aggregator accumulates fragment text in arrival order.
type Aggregator struct {
	buf strings.Builder
}

// Apply appends a fragment and returns the buffer so far.
func (a *Aggregator) Apply(f infrastructure.Fragment) string {
	a.buf.WriteString(f.Text)
	return a.buf.String()
}

// Buffer returns the text accumulated so far.
func (a *Aggregator) Buffer() string {
	return a.buf.String()
}

// Aggregate drains stream, calling onSnapshot with the full buffer after each
// non-empty fragment. On error it returns the partial buffer with the error.
func Aggregate(ctx context.Context, stream infrastructure.FragmentStream, onSnapshot func(string)) (string, error) {
	var agg Aggregator
	for {
		if err := ctx.Err(); err != nil {
			return agg.Buffer(), err
		}
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return agg.Buffer(), nil
		}
		if err != nil {
			return agg.Buffer(), err
		}
		if frag.Text != "" {
			snapshot := agg.Apply(frag)
			if onSnapshot != nil {
				onSnapshot(snapshot)
			}
		}
		if frag.Done {
			return agg.Buffer(), nil
		}
	}
}
