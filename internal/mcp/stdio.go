package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// maxLineBytes bounds a single newline-delimited JSON-RPC message.
const maxLineBytes = 4 << 20

// ServeStdio reads newline-delimited JSON-RPC requests from r and
// writes responses to w until r is exhausted or ctx is cancelled.
// This is the transport used when the server runs as a subprocess of
// the MCP host.
func ServeStdio(ctx context.Context, s *Server, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	writeResponse := func(resp *Response) error {
		data, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		return nil
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.logger.Debug("skipping unparseable line on stdin", "error", err)
			if err := writeResponse(NewErrorResponse(nil, codeParseError, "parse error")); err != nil {
				return err
			}
			continue
		}

		resp := s.Handle(ctx, &req)
		if resp == nil {
			continue
		}
		if err := writeResponse(resp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	s.logger.Info("stdin closed, stopping")
	return nil
}
