// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tradewind-ai/tradewind/pkg/core"
	"github.com/tradewind-ai/tradewind/pkg/llm"
)

// OpenAPISpec is the subset of an OpenAPI 3 document the connector reads.
type OpenAPISpec struct {
	OpenAPI string              `json:"openapi" yaml:"openapi"`
	Info    SpecInfo            `json:"info" yaml:"info"`
	Servers []SpecServer        `json:"servers" yaml:"servers"`
	Paths   map[string]PathItem `json:"paths" yaml:"paths"`
}

type SpecInfo struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Version     string `json:"version" yaml:"version"`
}

type SpecServer struct {
	URL string `json:"url" yaml:"url"`
}

// PathItem holds the operations defined on one path.
type PathItem struct {
	Get    *Operation `json:"get" yaml:"get"`
	Post   *Operation `json:"post" yaml:"post"`
	Put    *Operation `json:"put" yaml:"put"`
	Patch  *Operation `json:"patch" yaml:"patch"`
	Delete *Operation `json:"delete" yaml:"delete"`
}

type Operation struct {
	OperationID string       `json:"operationId" yaml:"operationId"`
	Summary     string       `json:"summary" yaml:"summary"`
	Description string       `json:"description" yaml:"description"`
	Parameters  []Parameter  `json:"parameters" yaml:"parameters"`
	RequestBody *RequestBody `json:"requestBody" yaml:"requestBody"`
}

type Parameter struct {
	Name        string  `json:"name" yaml:"name"`
	In          string  `json:"in" yaml:"in"` // path, query, header
	Description string  `json:"description" yaml:"description"`
	Required    bool    `json:"required" yaml:"required"`
	Schema      *Schema `json:"schema" yaml:"schema"`
}

type RequestBody struct {
	Required bool                 `json:"required" yaml:"required"`
	Content  map[string]MediaType `json:"content" yaml:"content"`
}

type MediaType struct {
	Schema *Schema `json:"schema" yaml:"schema"`
}

type Schema struct {
	Type        string             `json:"type" yaml:"type"`
	Format      string             `json:"format" yaml:"format"`
	Description string             `json:"description" yaml:"description"`
	Enum        []any              `json:"enum" yaml:"enum"`
	Default     any                `json:"default" yaml:"default"`
	Items       *Schema            `json:"items" yaml:"items"`
	Properties  map[string]*Schema `json:"properties" yaml:"properties"`
	Required    []string           `json:"required" yaml:"required"`
}

type authType int

const (
	authNone authType = iota
	authAPIKey
	authBearer
	authBasic
)

type authConfig struct {
	kind     authType
	header   string
	key      string
	user     string
	password string
}

// OpenAPIConnector turns a REST API described by an OpenAPI document into
// agent tools, one per operation. Quote feeds and market-data services
// published this way become callable without hand-written bindings.
type OpenAPIConnector struct {
	spec    *OpenAPISpec
	baseURL string
	client  *http.Client
	auth    authConfig
	ops     map[string]restOperation
	defs    []llm.Tool
}

// restOperation is one resolved path operation keyed by tool name.
type restOperation struct {
	method string
	path   string
	op     *Operation
}

type OpenAPIOption func(*OpenAPIConnector)

// WithBaseURL overrides the server URL from the spec.
func WithBaseURL(baseURL string) OpenAPIOption {
	return func(c *OpenAPIConnector) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithAPIKey sends the key in the named header on every request.
func WithAPIKey(header, key string) OpenAPIOption {
	return func(c *OpenAPIConnector) {
		c.auth = authConfig{kind: authAPIKey, header: header, key: key}
	}
}

// WithBearerToken sends an Authorization: Bearer header on every request.
func WithBearerToken(token string) OpenAPIOption {
	return func(c *OpenAPIConnector) {
		c.auth = authConfig{kind: authBearer, key: token}
	}
}

// WithBasicAuth sends HTTP basic credentials on every request.
func WithBasicAuth(user, password string) OpenAPIOption {
	return func(c *OpenAPIConnector) {
		c.auth = authConfig{kind: authBasic, user: user, password: password}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) OpenAPIOption {
	return func(c *OpenAPIConnector) { c.client = client }
}

// NewFromFile loads an OpenAPI document from disk.
func NewFromFile(path string, opts ...OpenAPIOption) (*OpenAPIConnector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi connector: read %s: %w", path, err)
	}
	return NewFromBytes(data, opts...)
}

// NewFromURL fetches an OpenAPI document over HTTP.
func NewFromURL(specURL string, opts ...OpenAPIOption) (*OpenAPIConnector, error) {
	resp, err := http.Get(specURL)
	if err != nil {
		return nil, fmt.Errorf("openapi connector: fetch %s: %w", specURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openapi connector: fetch %s: status %d", specURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return NewFromBytes(data, opts...)
}

// NewFromBytes parses an OpenAPI document, JSON or YAML, and builds the
// connector.
func NewFromBytes(data []byte, opts ...OpenAPIOption) (*OpenAPIConnector, error) {
	var spec OpenAPISpec
	if err := json.Unmarshal(data, &spec); err != nil {
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("openapi connector: document is neither JSON nor YAML: %w", err)
		}
	}
	if len(spec.Paths) == 0 {
		return nil, fmt.Errorf("openapi connector: document has no paths")
	}

	c := &OpenAPIConnector{
		spec:   &spec,
		client: &http.Client{Timeout: 30 * time.Second},
		ops:    make(map[string]restOperation),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" && len(spec.Servers) > 0 {
		c.baseURL = strings.TrimRight(spec.Servers[0].URL, "/")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("openapi connector: no server URL in spec and no WithBaseURL")
	}

	c.generateTools()
	return c, nil
}

// Tools returns one tool per operation in the spec.
func (c *OpenAPIConnector) Tools() []core.Tool {
	return coreToolsFromDefinitions(c.defs, c)
}

func (c *OpenAPIConnector) generateTools() {
	for path, item := range c.spec.Paths {
		for method, op := range map[string]*Operation{
			http.MethodGet:    item.Get,
			http.MethodPost:   item.Post,
			http.MethodPut:    item.Put,
			http.MethodPatch:  item.Patch,
			http.MethodDelete: item.Delete,
		} {
			if op == nil {
				continue
			}
			name := op.OperationID
			if name == "" {
				name = toolNameFromPath(method, path)
			}
			c.ops[name] = restOperation{method: method, path: path, op: op}
			c.defs = append(c.defs, llm.Tool{
				Type: llm.ToolTypeFunction,
				Function: llm.FunctionDef{
					Name:        name,
					Description: operationDescription(op),
					Parameters:  operationParameters(op),
				},
			})
		}
	}
}

func operationDescription(op *Operation) string {
	if op.Summary != "" {
		return op.Summary
	}
	return op.Description
}

// operationParameters flattens path, query, and header parameters plus the
// JSON request body properties into one parameter object.
func operationParameters(op *Operation) map[string]any {
	props := make(map[string]any)
	var required []string

	for _, param := range op.Parameters {
		props[param.Name] = schemaToMap(param.Schema, param.Description)
		if param.Required {
			required = append(required, param.Name)
		}
	}
	if body := bodySchema(op); body != nil {
		for name, schema := range body.Properties {
			props[name] = schemaToMap(schema, "")
		}
		required = append(required, body.Required...)
	}

	params := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		params["required"] = required
	}
	return params
}

func bodySchema(op *Operation) *Schema {
	if op.RequestBody == nil {
		return nil
	}
	media, ok := op.RequestBody.Content["application/json"]
	if !ok || media.Schema == nil {
		return nil
	}
	return media.Schema
}

func schemaToMap(schema *Schema, description string) map[string]any {
	out := map[string]any{"type": "string"}
	if schema != nil {
		if schema.Type != "" {
			out["type"] = schema.Type
		}
		if schema.Format != "" {
			out["format"] = schema.Format
		}
		if schema.Description != "" {
			out["description"] = schema.Description
		}
		if len(schema.Enum) > 0 {
			out["enum"] = schema.Enum
		}
		if schema.Default != nil {
			out["default"] = schema.Default
		}
		if schema.Items != nil {
			out["items"] = schemaToMap(schema.Items, "")
		}
	}
	if description != "" {
		out["description"] = description
	}
	return out
}

// Execute performs the HTTP request for the named operation. Path, query,
// and header parameters are taken from args by name; for operations with a
// request body the remaining args become the JSON payload.
func (c *OpenAPIConnector) Execute(ctx context.Context, toolName string, args map[string]any) (any, error) {
	rop, ok := c.ops[toolName]
	if !ok {
		return nil, fmt.Errorf("openapi connector: unknown tool %q", toolName)
	}

	path := rop.path
	query := url.Values{}
	headers := make(map[string]string)
	body := make(map[string]any, len(args))
	for k, v := range args {
		body[k] = v
	}

	for _, param := range rop.op.Parameters {
		val, present := args[param.Name]
		if !present {
			if param.Required {
				return nil, fmt.Errorf("openapi connector: %s: missing required parameter %q", toolName, param.Name)
			}
			continue
		}
		delete(body, param.Name)
		switch param.In {
		case "path":
			path = strings.ReplaceAll(path, "{"+param.Name+"}", url.PathEscape(fmt.Sprint(val)))
		case "query":
			query.Set(param.Name, fmt.Sprint(val))
		case "header":
			headers[param.Name] = fmt.Sprint(val)
		}
	}

	reqURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	var reqBody io.Reader
	if bodySchema(rop.op) != nil && len(body) > 0 {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("openapi connector: %s: encode body: %w", toolName, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, rop.method, reqURL, reqBody)
	if err != nil {
		return nil, err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for name, val := range headers {
		req.Header.Set(name, val)
	}
	c.applyAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openapi connector: %s: %w", toolName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("openapi connector: %s: status %d: %s", toolName, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if len(data) == 0 {
		return map[string]any{"status": resp.StatusCode}, nil
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return string(data), nil
	}
	return decoded, nil
}

func (c *OpenAPIConnector) applyAuth(req *http.Request) {
	switch c.auth.kind {
	case authAPIKey:
		req.Header.Set(c.auth.header, c.auth.key)
	case authBearer:
		req.Header.Set("Authorization", "Bearer "+c.auth.key)
	case authBasic:
		req.SetBasicAuth(c.auth.user, c.auth.password)
	}
}

// toolNameFromPath derives a tool name for operations without an
// operationId, e.g. GET /quotes/{symbol} becomes get_quotes_symbol.
func toolNameFromPath(method, path string) string {
	cleaned := strings.NewReplacer("{", "", "}", "", "/", "_", "-", "_", ".", "_").Replace(strings.Trim(path, "/"))
	return strings.ToLower(method) + "_" + cleaned
}
