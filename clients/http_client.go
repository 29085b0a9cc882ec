package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/utils"
	"github.com/Leitan123/SmartScholarsPAF/utils/flag"
	Logger "github.com/Leitan123/SmartScholarsPAF/utils/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	httptrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"
)

const (
	RequestIdHeader = "X-Request-Id"
)

// TokenSource supplies the bearer token attached to every request. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// HttpClient issues requests against a fixed base url. It never retries,
// deduplicates or caches: one call is exactly one request.
type HttpClient struct {
	baseURL string
	header  http.Header
	tokens  TokenSource

	client *http.Client
}

type Option func(*HttpClient)

// WithTimeout bounds every request, 0 means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HttpClient) {
		c.client.Timeout = d
	}
}

// WithHttpClient replaces the underlying client, it is used as is (no tracing
// wrapper is added).
func WithHttpClient(client *http.Client) Option {
	return func(c *HttpClient) {
		c.client = client
	}
}

func WithHeader(key string, value string) Option {
	return func(c *HttpClient) {
		c.header.Set(key, value)
	}
}

func WithTokenSource(tokens TokenSource) Option {
	return func(c *HttpClient) {
		c.tokens = tokens
	}
}

func NewHttpClient(baseURL string, opts ...Option) *HttpClient {
	c := &HttpClient{
		baseURL: baseURL,
		header:  http.Header{},
		client:  httptrace.WrapClient(&http.Client{}, httptrace.RTWithServiceName(flag.ServiceName)),
	}
	c.header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HttpClient) BaseURL() string {
	return c.baseURL
}

func (c *HttpClient) Get(ctx context.Context, route Route, out interface{}) error {
	return c.Do(ctx, http.MethodGet, route, nil, "", out)
}

func (c *HttpClient) Delete(ctx context.Context, route Route, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, route, nil, "", out)
}

func (c *HttpClient) Post(ctx context.Context, route Route, in interface{}, out interface{}) error {
	return c.SendJSON(ctx, http.MethodPost, route, in, out)
}

func (c *HttpClient) Put(ctx context.Context, route Route, in interface{}, out interface{}) error {
	return c.SendJSON(ctx, http.MethodPut, route, in, out)
}

// SendJSON encodes in as the json body, a nil in sends no body at all.
func (c *HttpClient) SendJSON(ctx context.Context, method string, route Route, in interface{}, out interface{}) error {
	if in == nil {
		return c.Do(ctx, method, route, nil, "", out)
	}
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "fail to encode body of %s %s", method, route)
	}
	return c.Do(ctx, method, route, bytes.NewReader(body), "application/json", out)
}

func (c *HttpClient) SendMultipart(ctx context.Context, method string, route Route, form *MultipartForm, out interface{}) error {
	body, contentType, err := form.encode()
	if err != nil {
		return errors.Wrapf(err, "fail to encode form of %s %s", method, route)
	}
	return c.Do(ctx, method, route, body, contentType, out)
}

// Do sends a single request and, on a 2XX response, parses the body as json
// into out. out may be nil, otherwise it must be a pointer. Any non 2XX
// response is returned as *APIError.
func (c *HttpClient) Do(ctx context.Context, method string, route Route, body io.Reader, contentType string, out interface{}) error {
	if out != nil && reflect.ValueOf(out).Type().Kind() != reflect.Ptr {
		return errors.New("the passed in variable must be a pointer")
	}

	req, err := http.NewRequestWithContext(ctx, method, utils.ConcateUrlBaseAndRelativePath(c.baseURL, route.Path), body)
	if err != nil {
		return errors.Wrapf(err, "fail to build request %s %s", method, route)
	}
	req.Header = c.header.Clone()
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	requestId := uuid.NewString()
	req.Header.Set(RequestIdHeader, requestId)

	log := Logger.Log.WithFields(logrus.Fields{
		"method":     method,
		"route":      route.Template,
		"request_id": requestId,
	})

	started := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		observe(method, route, 0, started)
		log.WithError(err).Debug("request failed before any response")
		return errors.Wrapf(err, "%s %s", method, route)
	}
	defer res.Body.Close()
	observe(method, route, res.StatusCode, started)

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "fail to read response of %s %s", method, route)
	}

	if IsNon200HttpResponse(res) {
		log.Errorf("non-200 http code: %d, response body is: %s", res.StatusCode, string(resBody))
		return newAPIError(method, route.Path, res.StatusCode, resBody)
	}
	log.WithField("code", res.StatusCode).Debug("request done")

	if out == nil {
		return nil
	}
	// Remove BOM before parsing, see https://en.wikipedia.org/wiki/Byte_order_mark for details.
	resBody = bytes.TrimPrefix(resBody, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(resBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resBody, out); err != nil {
		log.Errorf("fail to parse response: %s, type: %T", resBody, out)
		return errors.Wrapf(err, "fail to parse response of %s %s", method, route)
	}
	return nil
}

func IsNon200HttpResponse(res *http.Response) bool {
	return res.StatusCode < 200 || res.StatusCode >= 300
}
