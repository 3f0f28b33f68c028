package xui

import (
	json "github.com/goccy/go-json"
)

// response is the common 3x-ui envelope. Obj stays raw: depending on the
// endpoint it carries an object, an array, or a JSON-encoded string.
type response struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Obj     json.RawMessage `json:"obj"`
}

// xraySetting is the wrapper the panel nests the daemon config blob in.
type xraySetting struct {
	XraySetting json.RawMessage `json:"xraySetting"`
}
