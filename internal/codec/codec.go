package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/tidwall/gjson"

	"querylog/pkg/types"
)

// PayloadVersion is the envelope version written by Encode. Decode accepts
// any version up to and including it.
const PayloadVersion = 1

// Envelope is the wire form of an encoded event.
type Envelope struct {
	Version int             `json:"version"`
	Kind    string          `json:"kind"`
	Event   json.RawMessage `json:"event"`
}

// Header is the part of a payload needed to route it without decoding the event.
type Header struct {
	Version int
	Kind    types.EventKind
}

// Encode produces the payload for ev. It fails with an EncodingError for nil
// events, unknown kinds and values JSON cannot represent (NaN, ±Inf, years
// outside 0..9999); it never panics.
func Encode(ev types.Event) (string, error) {
	if isNil(ev) {
		return "", ErrEncoding("event", errors.New("nil event"))
	}
	kind := ev.EventKind()
	if !kind.Valid() {
		return "", ErrEncoding(kind.String(), errors.New("unknown event kind"))
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return "", ErrEncoding(kind.String(), err)
	}
	out, err := json.Marshal(Envelope{Version: PayloadVersion, Kind: kind.String(), Event: body})
	if err != nil {
		return "", ErrEncoding(kind.String(), err)
	}
	return string(out), nil
}

// EncodeConfig encodes listener configuration as a JSON object with sorted keys.
// A nil map encodes as "{}".
func EncodeConfig(cfg map[string]string) (string, error) {
	cp := make(map[string]string, len(cfg))
	for k, v := range cfg {
		cp[k] = v
	}
	b, err := json.Marshal(cp)
	if err != nil {
		return "", ErrEncoding("config", err)
	}
	return string(b), nil
}

// DecodeConfig is the inverse of EncodeConfig.
func DecodeConfig(s string) (map[string]string, error) {
	cfg := map[string]string{}
	if err := json.Unmarshal([]byte(s), &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Peek reads the envelope header without decoding the event body.
func Peek(payload string) (Header, error) {
	if !gjson.Valid(payload) {
		return Header{}, errors.New("payload is not valid JSON")
	}
	res := gjson.GetMany(payload, "version", "kind")
	if !res[0].Exists() || res[0].Type != gjson.Number {
		return Header{}, errors.New("payload has no numeric version")
	}
	kind, err := types.ParseEventKind(res[1].String())
	if err != nil {
		return Header{}, err
	}
	return Header{Version: int(res[0].Int()), Kind: kind}, nil
}

// Decode parses a payload produced by Encode back into a typed event.
func Decode(payload string) (types.Event, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version < 1 || env.Version > PayloadVersion {
		return nil, fmt.Errorf("unsupported payload version %d", env.Version)
	}
	kind, err := types.ParseEventKind(env.Kind)
	if err != nil {
		return nil, err
	}
	return DecodeEvent(kind, env.Event)
}

// DecodeEvent decodes a bare event body of the given kind.
func DecodeEvent(kind types.EventKind, body []byte) (types.Event, error) {
	var ev types.Event
	switch kind {
	case types.KindQueryCreated:
		ev = &types.QueryCreatedEvent{}
	case types.KindQueryCompleted:
		ev = &types.QueryCompletedEvent{}
	case types.KindSplitCompleted:
		ev = &types.SplitCompletedEvent{}
	default:
		return nil, fmt.Errorf("unknown event kind: %s", kind)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("decode %s: empty event", kind)
	}
	if err := json.Unmarshal(body, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return ev, nil
}

func isNil(ev types.Event) bool {
	if ev == nil {
		return true
	}
	v := reflect.ValueOf(ev)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
