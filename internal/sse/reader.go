package sse

import (
	"bytes"
	"context"
	"io"

	"github.com/blueprinthub/gateway/internal/model"
)

// Parser normalizes one upstream `data:` payload into zero or more
// StreamEvents. Parsers may carry per-stream state (Anthropic's stop
// reason arrives one event before the terminal), so a fresh parser is
// built for every stream.
type Parser interface {
	Parse(payload []byte) []model.StreamEvent
}

// EmitFunc delivers one normalized event to the downstream consumer.
type EmitFunc func(model.StreamEvent) error

const readChunkSize = 4096

// Reframe consumes an upstream SSE-formatted body and re-emits normalized
// events via emit. Incoming bytes are buffered and split on '\n' only:
// upstream chunks do not align with logical SSE lines, so a line is never
// handed to the parser until it is complete. Reading stops after the first
// terminal event. A clean EOF without a terminal frame yields a `done`
// event with an empty finish reason so the caller always sees a terminal.
//
// The body is closed on every exit path. A non-nil return means the
// consumer got no terminal event from us (reader failure or emit failure);
// the caller decides whether an in-band error event can still be sent.
func Reframe(ctx context.Context, body io.ReadCloser, parser Parser, emit EmitFunc) error {
	defer body.Close()

	var buf []byte
	chunk := make([]byte, readChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := body.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			terminal, err := drainLines(&buf, parser, emit)
			if err != nil {
				return err
			}
			if terminal {
				return nil
			}
		}

		if readErr == io.EOF {
			// The final line may arrive without a trailing newline.
			if len(buf) > 0 {
				events := parseLine(buf, parser)
				for _, ev := range events {
					if err := emit(ev); err != nil {
						return err
					}
					if ev.Terminal() {
						return nil
					}
				}
			}
			return emit(model.DoneEvent("", false))
		}
		if readErr != nil {
			return readErr
		}
	}
}

// drainLines processes every complete line currently buffered. Returns
// whether a terminal event was emitted.
func drainLines(buf *[]byte, parser Parser, emit EmitFunc) (bool, error) {
	for {
		idx := bytes.IndexByte(*buf, '\n')
		if idx < 0 {
			return false, nil
		}
		line := (*buf)[:idx]
		*buf = (*buf)[idx+1:]

		for _, ev := range parseLine(line, parser) {
			if err := emit(ev); err != nil {
				return false, err
			}
			if ev.Terminal() {
				return true, nil
			}
		}
	}
}

func parseLine(line []byte, parser Parser) []model.StreamEvent {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 || line[0] == ':' {
		return nil
	}
	payload, ok := bytes.CutPrefix(line, []byte("data: "))
	if !ok {
		return nil
	}
	if bytes.Equal(payload, []byte("[DONE]")) {
		// OpenAI-style end sentinel; the terminal was already carried by
		// the finish_reason chunk before it.
		return nil
	}
	return parser.Parse(payload)
}
