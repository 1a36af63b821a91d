// Package api is the fetch/mutation layer: one method per backend call, each
// translating a typed request into exactly one HTTP request.
package api

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

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/pkg/configuration"
	"github.com/iota-uz/taskdesk/pkg/httpapi"
	"github.com/iota-uz/taskdesk/pkg/serrors"
)

const (
	OpListPositions      = "positions.list"
	OpListSupervisors    = "positions.supervisors"
	OpPositionHierarchy  = "positions.hierarchy"
	OpCreatePosition     = "positions.create"
	OpUpdatePosition     = "positions.update"
	OpDeletePosition     = "positions.delete"
	OpGetPosition        = "positions.get"
	OpTeamTasks          = "tasks.team"
	OpHierarchicalTasks  = "tasks.hierarchical"
	OpTeamMembers        = "members.team"
	OpSubmitReview       = "review.submit"
	OpUserTaskReport     = "tasks.user_report"
	OpTeamsDailyTasks    = "tasks.teams_daily"
	OpAdminDailyTasks    = "tasks.admin_daily"
	OpFurtherReviewQueue = "review.further_queue"
)

var tracer = otel.Tracer("github.com/iota-uz/taskdesk/modules/review/infrastructure/api")

type Options struct {
	BaseURL         string
	HTTPClient      *http.Client
	RequestIDHeader string
	Logger          *logrus.Logger
}

// Client calls the task/position/user backend. It is stateless: calls are
// independent, never retried, de-duplicated or coalesced.
type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	requestIDHeader string
	log             *logrus.Logger
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url: %q", raw)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:         u,
		httpClient:      httpClient,
		requestIDHeader: opts.RequestIDHeader,
		log:             log,
	}, nil
}

func NewFromConfig(cfg *configuration.Configuration) (*Client, error) {
	return New(Options{
		BaseURL:         cfg.API.URL,
		HTTPClient:      &http.Client{Timeout: cfg.API.RequestTimeout},
		RequestIDHeader: cfg.RequestIDHeader,
		Logger:          cfg.Logger(),
	})
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
}

func requireToken(sess domain.Session) error {
	if strings.TrimSpace(sess.Token) == "" {
		return serrors.NewPreconditionError("authentication token is missing")
	}
	return nil
}

func requireOrg(sess domain.Session) error {
	if err := requireToken(sess); err != nil {
		return err
	}
	if sess.OrgID.IsZero() {
		return serrors.NewPreconditionError("organization id is missing; load the organization before fetching")
	}
	return nil
}

func requireID(name string, id domain.ID) error {
	if id.IsZero() {
		return serrors.NewFieldRequiredError(name, "")
	}
	return nil
}

// orSelf defaults an empty supervisor id to the session user.
func orSelf(sess domain.Session, id domain.ID) domain.ID {
	if id.IsZero() {
		return sess.UserID
	}
	return id
}

func seg(id domain.ID) string {
	return url.PathEscape(string(id))
}

// do performs one request and decodes the envelope data into out.
// The envelope pagination, when present, is returned.
func (c *Client) do(ctx context.Context, sess domain.Session, cl call, out any) (_ *domain.Pagination, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "taskdesk.api."+cl.op, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		result := resultLabel(err)
		apiRequests.WithLabelValues(cl.op, result).Inc()
		apiLatency.WithLabelValues(cl.op, result).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, Message(err, Fallback(cl.op)))
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("taskdesk.operation", cl.op),
		attribute.String("http.method", cl.method),
	)

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + cl.path
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, gerrors.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return nil, gerrors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	logger := c.log.WithFields(logrus.Fields{
		"operation": cl.op,
		"method":    cl.method,
		"path":      u.Path,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Warn("backend request failed")
		return nil, &Error{
			Operation:        cl.op,
			TransportMessage: err.Error(),
			Fallback:         Fallback(cl.op),
			Err:              err,
		}
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			Operation:        cl.op,
			Status:           resp.StatusCode,
			TransportMessage: err.Error(),
			Fallback:         Fallback(cl.op),
			Err:              err,
		}
	}

	var env envelope
	envErr := decodeEnvelope(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WithField("status", resp.StatusCode).Warn("backend returned an error status")
		return nil, &Error{
			Operation:        cl.op,
			Status:           resp.StatusCode,
			ServerMessage:    strings.TrimSpace(env.Message),
			TransportMessage: statusMessage(resp.StatusCode),
			Fallback:         Fallback(cl.op),
		}
	}
	if envErr != nil {
		logger.WithError(envErr).Warn("malformed response envelope")
		return nil, &Error{
			Operation: cl.op,
			Status:    resp.StatusCode,
			Fallback:  Fallback(cl.op),
			Err:       envErr,
		}
	}
	if env.Success != nil && !*env.Success {
		return nil, &Error{
			Operation:     cl.op,
			Status:        resp.StatusCode,
			ServerMessage: strings.TrimSpace(env.Message),
			Fallback:      Fallback(cl.op),
		}
	}

	if out != nil && len(env.Data) > 0 && !bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			logger.WithError(err).Warn("unexpected response data")
			return nil, &Error{
				Operation: cl.op,
				Status:    resp.StatusCode,
				Fallback:  Fallback(cl.op),
				Err:       gerrors.Wrap(err, "decode data"),
			}
		}
	}
	logger.WithField("status", resp.StatusCode).Debug("backend request done")

	if env.Pagination == nil {
		return nil, nil
	}
	return &domain.Pagination{
		CurrentPage: env.Pagination.CurrentPage,
		TotalPages:  env.Pagination.TotalPages,
		TotalItems:  env.Pagination.TotalItems,
	}, nil
}

// envelope is the client view of httpapi.Envelope; an absent success flag
// counts as success.
type envelope struct {
	Success    *bool               `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Message    string              `json:"message"`
	Pagination *httpapi.Pagination `json:"pagination"`
}

// decodeEnvelope tolerates an empty body.
func decodeEnvelope(raw []byte, env *envelope) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, env); err != nil {
		return gerrors.Wrap(err, "decode envelope")
	}
	return nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return q
}

func merge(dst url.Values, src url.Values) url.Values {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
	return dst
}
