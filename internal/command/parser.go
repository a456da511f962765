package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// payload mirrors the wire object. Pointer and raw fields let decoding tell
// a missing member apart from a mistyped one.
type payload struct {
	Tool *string         `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// Parse looks for the first complete command object in text.
//
// It returns (cmd, nil) when a command is found, (nil, nil) when the text
// holds no command, and (nil, *ParseError) when the only command-looking
// objects fail strict decoding.
func Parse(text string) (*Command, error) {
	var firstErr *ParseError

	for start := strings.IndexByte(text, '{'); start >= 0; {
		end, ok := matchObject(text, start)
		if ok {
			fragment := text[start : end+1]
			cmd, err := decode(fragment)
			switch {
			case err == nil && cmd != nil:
				return cmd, nil
			case err != nil && firstErr == nil:
				firstErr = err
			}
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return nil, nil
}

// matchObject scans from the '{' at start and returns the index of the
// matching '}'. Braces inside JSON string literals are ignored. The second
// result is false when the object never closes.
func matchObject(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// decode turns an object fragment into a command. It returns (nil, nil) for
// objects that are not tool commands at all.
func decode(fragment string) (*Command, *ParseError) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(fragment), &probe); err != nil {
		if hasToolKey(fragment) {
			return nil, &ParseError{Fragment: fragment, Reason: err.Error()}
		}
		return nil, nil
	}
	if _, ok := probe["tool"]; !ok {
		return nil, nil
	}

	var p payload
	if err := json.Unmarshal([]byte(fragment), &p); err != nil {
		return nil, &ParseError{Fragment: fragment, Reason: err.Error()}
	}
	if p.Tool == nil || strings.TrimSpace(*p.Tool) == "" {
		return nil, &ParseError{Fragment: fragment, Reason: `"tool" must be a non-empty string`}
	}

	args, err := decodeArgs(p.Args)
	if err != nil {
		return nil, &ParseError{Fragment: fragment, Reason: err.Error()}
	}

	return &Command{
		Name: Name(strings.TrimSpace(*p.Tool)),
		Args: args,
		Raw:  fragment,
	}, nil
}

// hasToolKey reports whether fragment holds a quoted "tool" in key
// position: right after '{' or ',' and followed by ':'. Single quotes count
// so that near-JSON still gets corrected. Prose that merely mentions the
// word does not count.
func hasToolKey(fragment string) bool {
	prev := byte(0)
	for i := 0; i < len(fragment); i++ {
		c := fragment[i]
		switch {
		case c == '"' || c == '\'':
			end := closingQuote(fragment, i+1, c)
			if end < 0 {
				prev = c
				continue
			}
			if fragment[i+1:end] == "tool" && (prev == '{' || prev == ',') && nextNonSpace(fragment, end+1) == ':' {
				return true
			}
			i = end
			prev = c
		case !isSpace(c):
			prev = c
		}
	}
	return false
}

// closingQuote returns the index of the quote ending the literal whose
// content starts at from, or -1.
func closingQuote(s string, from int, quote byte) int {
	escaped := false
	for i := from; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == quote:
			return i
		}
	}
	return -1
}

func nextNonSpace(s string, from int) byte {
	for i := from; i < len(s); i++ {
		if !isSpace(s[i]) {
			return s[i]
		}
	}
	return 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func decodeArgs(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return args, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf(`"args" must be an object`)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("invalid args: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid args: trailing data")
	}
	return args, nil
}
