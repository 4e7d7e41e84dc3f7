// Package client provides the JSON-RPC A2A client used by the supervisor to
// invoke worker agents.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/errors"
	"github.com/tradewind-ai/tradewind/pkg/resilience"
)

// Client wraps the JSON-RPC binding for A2A.
type Client struct {
	endpoint   string
	httpClient *http.Client
	headers    map[string]string
	retry      *resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
}

// Option configures the client.
type Option func(*Client)

// New creates a JSON-RPC client bound to an HTTP endpoint.
func New(endpoint string, opts ...Option) *Client {
	client := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// WithHeaders sets default headers for each request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = cloneHeaders(headers)
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRetry retries unary calls using the provided config.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = &cfg
	}
}

// WithCircuitBreaker guards unary calls with a circuit breaker.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// SendMessage invokes the message/send JSON-RPC method.
func (c *Client) SendMessage(ctx context.Context, req *types.SendMessageRequest) (*types.SendMessageResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	resp := &types.SendMessageResponse{}
	if err := c.call(ctx, "message/send", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SendStreamingMessage invokes message/stream and streams responses via SSE.
func (c *Client) SendStreamingMessage(ctx context.Context, req *types.SendMessageRequest) (<-chan *types.StreamResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	return c.stream(ctx, "message/stream", req)
}

// GetTask invokes the tasks/get method.
func (c *Client) GetTask(ctx context.Context, req *types.GetTaskRequest) (*types.Task, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	resp := &types.Task{}
	if err := c.call(ctx, "tasks/get", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListTasks invokes the tasks/list method.
func (c *Client) ListTasks(ctx context.Context, req *types.ListTasksRequest) (*types.ListTasksResponse, error) {
	if req == nil {
		req = &types.ListTasksRequest{}
	}
	resp := &types.ListTasksResponse{}
	if err := c.call(ctx, "tasks/list", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CancelTask invokes the tasks/cancel method.
func (c *Client) CancelTask(ctx context.Context, req *types.CancelTaskRequest) (*types.Task, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	resp := &types.Task{}
	if err := c.call(ctx, "tasks/cancel", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetExtendedAgentCard invokes agent/getAuthenticatedExtendedCard.
func (c *Client) GetExtendedAgentCard(ctx context.Context) (*types.AgentCard, error) {
	resp := &types.AgentCard{}
	if err := c.call(ctx, "agent/getAuthenticatedExtendedCard", struct{}{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	invoke := func() error {
		return c.doCall(ctx, method, params, result)
	}
	if c.breaker != nil {
		wrapped := invoke
		invoke = func() error {
			return c.breaker.Call(ctx, wrapped)
		}
	}
	if c.retry != nil {
		return c.retry.Do(ctx, invoke)
	}
	return invoke()
}

func (c *Client) doCall(ctx context.Context, method string, params any, result any) error {
	payload, err := json.Marshal(params)
	if err != nil {
		return err
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  json.RawMessage(payload),
	})
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	c.applyHeaders(ctx, request)

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return errors.New(errors.CodeStageFailure, "agent unreachable", err).
			WithContext("endpoint", c.endpoint).
			WithRecoverable(true)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseHTTPError(resp)
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return err
	}
	if decoded.Error != nil {
		return rpcErrorToTyped(decoded.Error)
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(decoded.Result, result)
}

func (c *Client) stream(ctx context.Context, method string, params any) (<-chan *types.StreamResponse, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  json.RawMessage(payload),
	})
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "text/event-stream")
	c.applyHeaders(ctx, request)

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return nil, errors.New(errors.CodeStageFailure, "agent unreachable", err).
			WithContext("endpoint", c.endpoint).
			WithRecoverable(true)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	out := make(chan *types.StreamResponse)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		_ = readSSE(ctx, resp.Body, func(payload []byte) error {
			var decoded rpcResponse
			if err := json.Unmarshal(payload, &decoded); err != nil {
				return err
			}
			if decoded.Error != nil {
				return rpcErrorToTyped(decoded.Error)
			}
			streamResp := &types.StreamResponse{}
			if err := json.Unmarshal(decoded.Result, streamResp); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- streamResp:
				return nil
			}
		})
	}()
	return out, nil
}

func (c *Client) applyHeaders(ctx context.Context, request *http.Request) {
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(request.Header))
}

func readSSE(ctx context.Context, body io.Reader, handle func([]byte) error) error {
	reader := bufio.NewReader(body)
	var buffer bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				if buffer.Len() > 0 {
					_ = handle(buffer.Bytes())
				}
				return nil
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if buffer.Len() == 0 {
				continue
			}
			if err := handle(buffer.Bytes()); err != nil {
				return err
			}
			buffer.Reset()
			continue
		}
		if strings.HasPrefix(line, "data:") {
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if buffer.Len() > 0 {
				buffer.WriteByte('\n')
			}
			buffer.WriteString(payload)
		}
	}
}

// rpcErrorToTyped maps JSON-RPC error codes back onto typed errors so callers
// can branch on the same codes the server raised.
func rpcErrorToTyped(rpcErr *rpcError) error {
	code := errors.CodeStageFailure
	recoverable := true
	switch rpcErr.Code {
	case -32602, -32600, -32700:
		code = errors.CodeInvalidInput
		recoverable = false
	case -32004:
		code = errors.CodeNotFound
		recoverable = false
	case -32001:
		code = errors.CodeUnauthorized
		recoverable = false
	case -32002:
		code = errors.CodeDuplicateWorkflow
		recoverable = false
	case -32601:
		code = errors.CodeInvalidInput
		recoverable = false
	}
	return errors.New(code, rpcErr.Message, nil).
		WithContext("rpc_code", rpcErr.Code).
		WithRecoverable(recoverable)
}

func parseHTTPError(response *http.Response) error {
	payload, _ := io.ReadAll(response.Body)
	message := strings.TrimSpace(string(payload))
	if message == "" {
		message = response.Status
	}
	return errors.New(errors.CodeStageFailure, message, nil).
		WithContext("http_status", response.StatusCode).
		WithRecoverable(response.StatusCode >= 500)
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func cloneHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		out[key] = value
	}
	return out
}
