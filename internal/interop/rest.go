package interop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

const maxErrorBody = 64 * 1024

// Register announces this module to the broker. No retry: a failure is the
// caller's decision to handle.
func (c *Client) Register(ctx context.Context) error {
	body := map[string]any{
		"name":      c.cfg.ModuleName,
		"language":  c.cfg.Language,
		"endpoints": []string{"rpc"},
	}
	if c.cfg.Port > 0 {
		body["port"] = c.cfg.Port
	} else {
		body["port"] = nil
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/register", body, &out); err != nil {
		return &RegistrationError{Op: "register", Cause: err}
	}
	log.Info().Str("module", c.cfg.ModuleName).Str("message", out.Message).Msg("interop: module registered")
	return nil
}

// Unregister removes this module's broker registration.
func (c *Client) Unregister(ctx context.Context) error {
	var out struct {
		Message string `json:"message"`
	}
	path := "/register/" + c.cfg.ModuleName
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return &RegistrationError{Op: "unregister", Cause: err}
	}
	log.Info().Str("module", c.cfg.ModuleName).Msg("interop: module unregistered")
	return nil
}

// Call invokes target.method over the request/reply channel and waits for
// the single round-trip result.
func (c *Client) Call(ctx context.Context, target, method string, params any) (json.RawMessage, error) {
	if params == nil {
		params = map[string]any{}
	}
	body := map[string]any{
		"target": target,
		"method": method,
		"params": params,
	}
	var out struct {
		Result json.RawMessage `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/rpc", body, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// Send enqueues a fire-and-forget message on the broker and returns the
// broker's message identifier. Priority is an integer hint consumed by the
// broker and is not validated client-side.
func (c *Client) Send(ctx context.Context, target, method string, params any, priority int) (string, error) {
	if params == nil {
		params = map[string]any{}
	}
	body := map[string]any{
		"target":   target,
		"method":   method,
		"params":   params,
		"priority": priority,
	}
	var out struct {
		MessageID string `json:"messageId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/queue", body, &out); err != nil {
		return "", err
	}
	log.Debug().Str("message_id", out.MessageID).Str("target", target).Str("method", method).Msg("interop: message queued")
	return out.MessageID, nil
}

// Queue lists the broker's current message queue.
func (c *Client) Queue(ctx context.Context) ([]QueuedMessage, error) {
	var out struct {
		Queue []QueuedMessage `json:"queue"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/queue", nil, &out); err != nil {
		return nil, err
	}
	return out.Queue, nil
}

// ProcessQueue asks the broker to drain up to limit queued messages.
func (c *Client) ProcessQueue(ctx context.Context, limit int) (ProcessResult, error) {
	body := map[string]any{"limit": limit}
	var out ProcessResult
	if err := c.doJSON(ctx, http.MethodPost, "/queue/process", body, &out); err != nil {
		return ProcessResult{}, err
	}
	return out, nil
}

// Modules lists every module currently registered with the broker.
func (c *Client) Modules(ctx context.Context) ([]ModuleDescriptor, error) {
	var out struct {
		Modules []ModuleDescriptor `json:"modules"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/modules", nil, &out); err != nil {
		return nil, err
	}
	return out.Modules, nil
}

// Health returns the broker's health payload untouched; its shape is
// broker-defined.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("interop: marshal %s body: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.ServerURL+path, reader)
	if err != nil {
		return fmt.Errorf("interop: build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteCallError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("interop: decode %s response: %w", op, err)
	}
	return nil
}
