// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package dispatcher

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/pedalbridge/internal/audio"
	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/eventbus"
	"github.com/tomtom215/pedalbridge/internal/health"
	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/metrics"
	"github.com/tomtom215/pedalbridge/internal/plugins"
	"github.com/tomtom215/pedalbridge/internal/protocol"
)

// HostCaller sends one command line and returns the host reply whatever its code.
type HostCaller interface {
	Call(ctx context.Context, line string) (protocol.Response, error)
}

// Options wires a Dispatcher.
type Options struct {
	Conn    *natsgo.Conn
	Subject string
	Poll    time.Duration

	Host    HostCaller
	Plugins *plugins.Manager
	Audio   audio.Manager
	Health  *health.State
}

// methodFunc handles one envelope method. body is the whole request.
type methodFunc func(ctx context.Context, body []byte) (interface{}, error)

// Dispatcher answers command requests.
type Dispatcher struct {
	conn    *natsgo.Conn
	subject string
	poll    time.Duration

	host    HostCaller
	plugins *plugins.Manager
	audio   audio.Manager
	health  *health.State

	pluginMethods map[string]methodFunc
	audioMethods  map[string]methodFunc
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	if opts.Poll <= 0 {
		opts.Poll = 500 * time.Millisecond
	}
	d := &Dispatcher{
		conn:    opts.Conn,
		subject: opts.Subject,
		poll:    opts.Poll,
		host:    opts.Host,
		plugins: opts.Plugins,
		audio:   opts.Audio,
		health:  opts.Health,
	}
	d.pluginMethods = d.pluginTable()
	d.audioMethods = d.audioTable()
	return d
}

// Serve implements suture.Service.
func (d *Dispatcher) Serve(ctx context.Context) error {
	if err := eventbus.ServeEndpoint(ctx, d.conn, d.subject, d.poll, d.Handle); err != nil {
		return err
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (d *Dispatcher) String() string {
	return "command-dispatcher"
}

// RawReply answers a raw or structured pass-through command.
type RawReply struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Raw     string `json:"raw"`
	Payload string `json:"payload"`
}

// Handle answers one request. The reply is always valid JSON.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) (out []byte) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	start := time.Now()
	req := request{kind: kindInvalid, action: methodInvalid, method: methodInvalid}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("internal error handling %s.%s: %v", req.action, req.method, r)
			logging.Ctx(ctx).Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered panic in command handler")
			metrics.RecordRequest(req.action, methodLabel(req, err), time.Since(start), err)
			out = encode(ctx, bridgeerr.Reply{Error: err.Error(), Kind: bridgeerr.KindInternal})
		}
	}()

	decoded, err := decodeRequest(data)
	if err == nil {
		req = decoded
	}

	var result interface{}
	if err == nil {
		logging.Ctx(ctx).Debug().Str("action", req.action).Str("method", req.method).Msg("Dispatching request")
		result, err = d.dispatch(ctx, req)
	}
	metrics.RecordRequest(req.action, methodLabel(req, err), time.Since(start), err)

	if err != nil {
		logFailure(ctx, req, err)
		return encode(ctx, bridgeerr.NewReply(err))
	}
	return encode(ctx, result)
}

func (d *Dispatcher) dispatch(ctx context.Context, req request) (interface{}, error) {
	switch req.kind {
	case kindRaw, kindStructured:
		return d.passThrough(ctx, req.line)
	case kindHealth:
		return d.health.Query(), nil
	case kindPlugin:
		return call(ctx, d.pluginMethods, req)
	case kindAudio:
		return call(ctx, d.audioMethods, req)
	default:
		return nil, bridgeerr.Protocolf("unsupported request")
	}
}

func call(ctx context.Context, table map[string]methodFunc, req request) (interface{}, error) {
	fn, ok := table[req.method]
	if !ok {
		return nil, bridgeerr.UnknownMethod(req.action, req.method)
	}
	return fn(ctx, req.body)
}

// passThrough forwards line unchanged. A non-zero code is still a reply,
// not an error.
func (d *Dispatcher) passThrough(ctx context.Context, line string) (interface{}, error) {
	resp, err := d.host.Call(ctx, line)
	if err != nil {
		return nil, err
	}
	reply := RawReply{Status: "ok", Code: resp.Code, Raw: rawText(resp), Payload: resp.Payload}
	if !resp.OK() {
		reply.Status = "error"
	}
	return reply, nil
}

// rawText rebuilds the host reply line.
func rawText(resp protocol.Response) string {
	if resp.Payload == "" {
		return fmt.Sprintf("resp %d", resp.Code)
	}
	return fmt.Sprintf("resp %d %s", resp.Code, resp.Payload)
}

func logFailure(ctx context.Context, req request, err error) {
	kind := bridgeerr.Kind(err)
	ev := logging.Ctx(ctx).Warn()
	if kind == bridgeerr.KindInternal {
		ev = logging.Ctx(ctx).Error()
	}
	ev.Err(err).Str("action", req.action).Str("method", req.method).Str("kind", kind).Msg("Request failed")
}

func encode(ctx context.Context, v interface{}) []byte {
	out, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to encode reply")
		return []byte(`{"error":"failed to encode reply","kind":"internal"}`)
	}
	return out
}

// decodeParams decodes method fields from the request body.
func decodeParams(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return bridgeerr.Protocolf("invalid parameters: %v", err)
	}
	return nil
}
