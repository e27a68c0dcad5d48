package mcpserver

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Messages arrive either as newline-delimited JSON or with LSP-style
// Content-Length headers. Replies use whichever style the client opened with.
type framing int

const (
	framingHeaders framing = iota
	framingJSONLine
)

func (f framing) String() string {
	if f == framingJSONLine {
		return "jsonline"
	}
	return "framed"
}

var errMissingContentLength = errors.New("missing Content-Length header")

// readMessage returns the next payload and how it was framed.
func readMessage(r *bufio.Reader) ([]byte, framing, error) {
	var line string
	var err error

	// skip blank separators between messages
	for {
		line, err = r.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			return nil, framingHeaders, err
		}
		if strings.TrimSpace(line) != "" {
			break
		}
	}

	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		payload, err := readJSONLine(r, line)
		return payload, framingJSONLine, err
	}

	payload, err := readFramed(r, line)
	return payload, framingHeaders, err
}

// readJSONLine accumulates lines while they form an unfinished JSON value,
// so pretty printed objects spanning lines still parse. Malformed input is
// returned as soon as it is known to be malformed and the caller answers it
// with a parse error.
func readJSONLine(r *bufio.Reader, first string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(first)
	for {
		candidate := bytes.TrimSpace(buf.Bytes())
		if !incompleteJSON(candidate) {
			return candidate, nil
		}
		line, err := r.ReadString('\n')
		buf.WriteString(line)
		if err != nil {
			if err == io.EOF {
				return bytes.TrimSpace(buf.Bytes()), nil
			}
			return nil, err
		}
	}
}

// incompleteJSON reports whether b is a valid prefix of a JSON value that
// ends before the value does.
func incompleteJSON(b []byte) bool {
	var v any
	err := json.Unmarshal(b, &v)
	var syntaxErr *json.SyntaxError
	return errors.As(err, &syntaxErr) && syntaxErr.Error() == "unexpected end of JSON input"
}

func readFramed(r *bufio.Reader, first string) ([]byte, error) {
	contentLength := -1
	line := first
	for {
		header := strings.TrimSpace(line)
		if header == "" {
			break
		}
		if key, value, ok := strings.Cut(header, ":"); ok && strings.EqualFold(strings.TrimSpace(key), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid Content-Length %q", strings.TrimSpace(value))
			}
			contentLength = n
		}

		var err error
		line, err = r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}

	if contentLength < 0 {
		return nil, errMissingContentLength
	}

	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func writeMessage(w *bufio.Writer, mode framing, payload []byte) error {
	if mode == framingJSONLine {
		if _, err := w.Write(payload); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		return w.Flush()
	}

	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return w.Flush()
}
