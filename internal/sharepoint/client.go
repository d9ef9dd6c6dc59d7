// Package sharepoint is the client for the hosted list store that holds
// equipment requests and their items.
package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"equipment-requests-api-server/config"
	"equipment-requests-api-server/internal/models"

	"go.uber.org/zap"
)

const verboseJSON = "application/json;odata=verbose"

// Conn holds what every session shares: transport, credential and list names.
type Conn struct {
	httpClient   *http.Client
	accessToken  string
	requestsList string
	itemsList    string
	authorField  string
	logger       *zap.Logger
}

// NewConn creates a connection to the list store.
func NewConn(cfg config.SharePointConfig, logger *zap.Logger) *Conn {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	authorField := cfg.AuthorField
	if authorField == "" {
		authorField = builtinAuthor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conn{
		httpClient:   &http.Client{Timeout: timeout},
		accessToken:  cfg.AccessToken,
		requestsList: cfg.RequestsList,
		itemsList:    cfg.ItemsList,
		authorField:  authorField,
		logger:       logger,
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *Conn) WithHTTPClient(hc *http.Client) *Conn {
	c.httpClient = hc
	return c
}

// Store returns a store bound to one caller's identity and site.
func (c *Conn) Store(sess models.SessionContext) *Store {
	return &Store{conn: c, sess: sess}
}

// Store performs list operations on behalf of one session.
type Store struct {
	conn *Conn
	sess models.SessionContext
}

// Session returns the identity this store acts for.
func (s *Store) Session() models.SessionContext {
	return s.sess
}

// do executes one call against the site. body is JSON-encoded when non-nil,
// out receives the content of the verbose "d" envelope when non-nil.
func (s *Store) do(ctx context.Context, method, endpoint string, headers map[string]string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	reqURL := strings.TrimRight(s.sess.SiteURL, "/") + endpoint
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", verboseJSON)
	req.Header.Set("Content-Type", verboseJSON)
	if s.conn.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.conn.accessToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.conn.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	s.conn.logger.Debug("sharepoint call",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp.StatusCode, respBody)
	}
	if resp.StatusCode == http.StatusNoContent || out == nil || len(respBody) == 0 {
		return nil
	}

	var env struct {
		D json.RawMessage `json:"d"`
	}
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.D) == 0 {
		return fmt.Errorf("decode envelope: missing \"d\"")
	}
	if err := json.Unmarshal(env.D, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// formDigest fetches a fresh security token for the next write.
func (s *Store) formDigest(ctx context.Context) (string, error) {
	var info struct {
		GetContextWebInformation struct {
			FormDigestValue          string `json:"FormDigestValue"`
			FormDigestTimeoutSeconds int    `json:"FormDigestTimeoutSeconds"`
		} `json:"GetContextWebInformation"`
	}
	if err := s.do(ctx, http.MethodPost, "/_api/contextinfo", nil, nil, &info); err != nil {
		return "", fmt.Errorf("acquire form digest: %w", err)
	}
	return info.GetContextWebInformation.FormDigestValue, nil
}

// create POSTs a new list item with a fresh digest.
func (s *Store) create(ctx context.Context, endpoint string, body, out interface{}) error {
	digest, err := s.formDigest(ctx)
	if err != nil {
		return err
	}
	return s.do(ctx, http.MethodPost, endpoint, map[string]string{
		"X-RequestDigest": digest,
	}, body, out)
}

// merge overwrites fields of an existing list item. IF-MATCH: * disables the
// store's optimistic concurrency check, so the last writer wins.
func (s *Store) merge(ctx context.Context, endpoint string, body interface{}) error {
	digest, err := s.formDigest(ctx)
	if err != nil {
		return err
	}
	return s.do(ctx, http.MethodPost, endpoint, map[string]string{
		"X-RequestDigest": digest,
		"IF-MATCH":        "*",
		"X-HTTP-Method":   "MERGE",
	}, body, nil)
}

// odataQuery renders ordered OData query options, encoding spaces as %20.
func odataQuery(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(pairs[i])
		b.WriteByte('=')
		b.WriteString(strings.ReplaceAll(url.QueryEscape(pairs[i+1]), "+", "%20"))
	}
	if b.Len() == 0 {
		return ""
	}
	return "?" + b.String()
}

// odataLiteral quotes s as an OData string literal usable inside a path segment.
func odataLiteral(s string) string {
	return "'" + url.PathEscape(strings.ReplaceAll(s, "'", "''")) + "'"
}
