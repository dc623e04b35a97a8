package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/interopctl/internal/testutil/testlog"
)

func TestCallFrameRoundTrip(t *testing.T) {
	testlog.Start(t)
	frame, err := NewCallFrame("ws_1700000000000_a1b2c3d4", "ts-module", "processData", map[string]any{
		"data": []int{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("build call frame: %v", err)
	}
	data, err := Encode(frame)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != FrameCall || got.ID != frame.ID || got.Target != "ts-module" || got.Method != "processData" {
		t.Fatalf("unexpected frame: %+v", got)
	}
	if !bytes.Equal(got.Params, frame.Params) {
		t.Fatalf("params changed: %s != %s", got.Params, frame.Params)
	}
}

func TestCallFrameNilParamsBecomeEmptyObject(t *testing.T) {
	testlog.Start(t)
	frame, err := NewCallFrame("ws_1_abcd0123", "go-module", "ping", nil)
	if err != nil {
		t.Fatalf("build call frame: %v", err)
	}
	if string(frame.Params) != "{}" {
		t.Fatalf("unexpected params: %s", frame.Params)
	}
}

func TestResponseFrameMatchesCallIdentifier(t *testing.T) {
	testlog.Start(t)
	raw := []byte(`{"type":"response","id":"ws_1700000000000_a1b2c3d4","result":{"id":1}}`)
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != FrameResponse || got.ID != "ws_1700000000000_a1b2c3d4" {
		t.Fatalf("unexpected frame: %+v", got)
	}
	var result struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(got.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.ID != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestValidateRejectsIncompleteFrames(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name  string
		frame Frame
		want  error
	}{
		{"call missing id", Frame{Type: FrameCall, Target: "a", Method: "b"}, ErrMissingCallID},
		{"call missing target", Frame{Type: FrameCall, ID: "x", Method: "b"}, ErrMissingTarget},
		{"call missing method", Frame{Type: FrameCall, ID: "x", Target: "a"}, ErrMissingMethod},
		{"subscribe missing target", Frame{Type: FrameSubscribe}, ErrMissingTarget},
		{"response missing id", Frame{Type: FrameResponse}, ErrMissingCallID},
		{"empty tag", Frame{}, ErrMissingFrameType},
		{"unknown tag", Frame{Type: "gossip"}, ErrUnknownFrameType},
	}
	for _, tc := range cases {
		if err := tc.frame.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, err, tc.want)
		}
	}
}

func TestErrorFrameMayOmitIdentifier(t *testing.T) {
	testlog.Start(t)
	got, err := Decode([]byte(`{"type":"error","error":"target module offline"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "" || got.Error != "target module offline" {
		t.Fatalf("unexpected frame: %+v", got)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestDecodeUnknownTagSucceeds(t *testing.T) {
	testlog.Start(t)
	got, err := Decode([]byte(`{"type":"topology","data":{"nodes":3}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type.Known() {
		t.Fatalf("tag should be unknown: %q", got.Type)
	}
}

func TestDecodeMalformedAndOversized(t *testing.T) {
	testlog.Start(t)
	if _, err := Decode([]byte(`{"type":`)); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("malformed: got %v", err)
	}
	if _, err := Decode([]byte(`{"result":{}}`)); !errors.Is(err, ErrMissingFrameType) {
		t.Fatalf("missing tag: got %v", err)
	}
	huge := []byte(`{"type":"broadcast","data":"` + strings.Repeat("x", MaxFrameSize) + `"}`)
	if _, err := Decode(huge); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("oversized: got %v", err)
	}
}
