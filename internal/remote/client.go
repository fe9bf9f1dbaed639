package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/tripcraft/itinerary-editor/internal/itinerary"
)

const (
	pathCustomize      = "/api/itineraries/{id}/customize"
	pathCustomized     = "/api/itineraries/customized/{id}"
	pathActivity       = "/api/itineraries/customized/{id}/activities/{activityId}"
	defaultHTTPTimeout = 30 * time.Second
)

// Client is the HTTP implementation of Store.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	rc      *resty.Client
	log     zerolog.Logger

	loadAttempts int
	loadBackoff  time.Duration
}

var _ Store = (*Client)(nil)

// envelope is the JSON body shape shared by every endpoint.
type envelope struct {
	Success     *bool          `json:"success"`
	Data        map[string]any `json:"data"`
	Message     string         `json:"message"`
	Code        string         `json:"code"`
	ItineraryID string         `json:"itineraryId"`
}

// NewClient constructs a Client for baseURL authenticating with the bearer
// token of the logged-in user.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("baseURL cannot be empty")
	}
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}

	c := &Client{
		baseURL:      baseURL,
		token:        token,
		http:         &http.Client{Timeout: defaultHTTPTimeout},
		log:          zerolog.Nop(),
		loadAttempts: 3,
		loadBackoff:  200 * time.Millisecond,
	}

	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.wrapTransportWithToken()
	c.rc = resty.NewWithClient(c.http).
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json")
	return c, nil
}

// wrapTransportWithToken adds the Authorization header to every request.
func (c *Client) wrapTransportWithToken() {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.Transport = &tokenTransport{base: base, token: c.token}
}

type tokenTransport struct {
	base  http.RoundTripper
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(cloned)
}

// LoadCustomizable POST /api/itineraries/{id}/customize
func (c *Client) LoadCustomizable(ctx context.Context, itineraryID string) (*LoadResult, error) {
	if err := validateID(itineraryID, "load customizable"); err != nil {
		return nil, err
	}
	var out *LoadResult
	err := c.retryLoad(ctx, func() error {
		resp, err := c.rc.R().
			SetContext(ctx).
			SetPathParam("id", itineraryID).
			Post(pathCustomize)
		res, err := c.decodeLoad("load customizable", resp, err)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

// LoadExisting GET /api/itineraries/customized/{id}
func (c *Client) LoadExisting(ctx context.Context, itineraryID string, opts LoadOptions) (*LoadResult, error) {
	if err := validateID(itineraryID, "load"); err != nil {
		return nil, err
	}
	var out *LoadResult
	err := c.retryLoad(ctx, func() error {
		req := c.rc.R().SetContext(ctx).SetPathParam("id", itineraryID)
		if opts.NoCache {
			req.SetQueryParam("noCache", "true").SetHeader("Cache-Control", "no-cache")
		}
		resp, err := req.Get(pathCustomized)
		res, err := c.decodeLoad("load", resp, err)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

// SaveDocument PUT /api/itineraries/customized/{id}
func (c *Client) SaveDocument(ctx context.Context, itineraryID string, doc itinerary.Document) (*SaveResult, error) {
	const op = "save"
	if err := validateID(itineraryID, op); err != nil {
		return nil, err
	}
	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("id", itineraryID).
		SetHeader("Content-Type", "application/json").
		SetBody(doc).
		Put(pathCustomized)
	env, err := c.decode(op, resp, err)
	if err != nil {
		return nil, err
	}
	res := &SaveResult{Success: true, Data: env.Data, Message: env.Message, ItineraryID: env.ItineraryID}
	if env.Success != nil && !*env.Success {
		return nil, failure(op, resp.StatusCode(), env)
	}
	c.log.Debug().Str("itinerary_id", itineraryID).Bool("has_data", res.Data != nil).Msg("document saved")
	return res, nil
}

// DeleteActivity DELETE /api/itineraries/customized/{id}/activities/{activityId}
func (c *Client) DeleteActivity(ctx context.Context, itineraryID, activityID string) error {
	const op = "delete activity"
	if err := validateID(itineraryID, op); err != nil {
		return err
	}
	if err := validateID(activityID, op); err != nil {
		return err
	}
	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"id": itineraryID, "activityId": activityID}).
		Delete(pathActivity)
	env, err := c.decode(op, resp, err)
	if err != nil {
		return err
	}
	if env.Success != nil && !*env.Success {
		return failure(op, resp.StatusCode(), env)
	}
	return nil
}

// ------------------------- internals -------------------------

// retryLoad retries idempotent loads on recoverable failures.
func (c *Client) retryLoad(ctx context.Context, op func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.loadBackoff
	exp.Multiplier = 2
	exp.Reset()

	var b backoff.BackOff = exp
	if c.loadAttempts > 0 {
		b = backoff.WithMaxRetries(exp, uint64(c.loadAttempts-1))
	}
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !IsRecoverable(err) {
			return backoff.Permanent(err)
		}
		if err != nil {
			c.log.Debug().Err(err).Msg("load failed, retrying")
		}
		return err
	}, backoff.WithContext(b, ctx))
}

func (c *Client) decodeLoad(op string, resp *resty.Response, reqErr error) (*LoadResult, error) {
	env, err := c.decode(op, resp, reqErr)
	if err != nil {
		return nil, err
	}
	if env.Success != nil && !*env.Success {
		return nil, failure(op, resp.StatusCode(), env)
	}
	raw := env.Data
	if raw == nil && env.Success == nil {
		// Bare document without an envelope.
		raw = map[string]any{}
		if err := json.Unmarshal(resp.Body(), &raw); err != nil {
			return nil, &Error{Op: op, Kind: KindGeneric, Status: resp.StatusCode(), Message: "invalid response body", Err: err}
		}
	}
	if raw == nil {
		return nil, &Error{Op: op, Kind: KindNotFound, Status: resp.StatusCode(), Message: "itinerary not found"}
	}
	return NewLoadResult(raw), nil
}

// decode turns a resty response into an envelope, classifying transport and
// HTTP failures into *Error.
func (c *Client) decode(op string, resp *resty.Response, reqErr error) (envelope, error) {
	var env envelope
	if reqErr != nil {
		if errors.Is(reqErr, context.Canceled) || errors.Is(reqErr, context.DeadlineExceeded) {
			return env, &Error{Op: op, Kind: KindGeneric, Message: reqErr.Error(), Err: reqErr}
		}
		return env, networkError(op, reqErr)
	}
	body := resp.Body()
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil && !resp.IsError() {
			return env, &Error{Op: op, Kind: KindGeneric, Status: resp.StatusCode(), Message: "invalid response body", Err: err}
		}
	}
	if resp.IsError() {
		return env, failure(op, resp.StatusCode(), env)
	}
	return env, nil
}

func failure(op string, status int, env envelope) *Error {
	kind, ok := KindFromCode(env.Code)
	if !ok {
		kind = kindFromStatus(status)
	}
	msg := env.Message
	if msg == "" {
		if status > 0 {
			msg = fmt.Sprintf("%s failed: %s", op, http.StatusText(status))
		} else {
			msg = op + " failed"
		}
	}
	return &Error{Op: op, Kind: kind, Status: status, Message: msg}
}

func validateID(id, op string) error {
	if id == "" {
		return &Error{Op: op, Kind: KindNotFound, Message: "identifier is required"}
	}
	return nil
}
