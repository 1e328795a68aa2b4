// Package natsqa answers questions over NATS request/reply with
// OpenTelemetry trace propagation in message headers.
package natsqa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/ppiankov/askroute/internal/model"
	"github.com/ppiankov/askroute/internal/validate"
	"github.com/ppiankov/askroute/internal/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultSubject is the subject questions are served on
const DefaultSubject = "askroute.ask"

// AskRequest is the request payload. Q is accepted as an alias for Question.
type AskRequest struct {
	Question string `json:"question"`
	Q        string `json:"q,omitempty"`
	TopK     *int   `json:"top_k,omitempty"`
}

// RemoteError is an error envelope returned by the responder
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "remote: " + e.Message
}

// headerCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Serve subscribes to subject and replies to every request with a Result
// or an ErrorResponse. defaultTopK applies when a request omits top_k.
func Serve(nc *nats.Conn, subject string, answerer worker.Answerer, defaultTopK int, logger *zap.Logger) (*nats.Subscription, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("nats")

	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
		reply := handle(ctx, msg.Data, answerer, defaultTopK, logger)

		data, err := json.Marshal(reply)
		if err != nil {
			logger.Error("encode reply", zap.Error(err))
			return
		}
		if err := msg.Respond(data); err != nil {
			logger.Warn("send reply", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	logger.Info("answering questions", zap.String("subject", subject))
	return sub, nil
}

func handle(ctx context.Context, data []byte, answerer worker.Answerer, defaultTopK int, logger *zap.Logger) any {
	var req AskRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return model.ErrorResponse{Error: "invalid request body", Source: model.SourceUnknown}
	}

	question := req.Question
	if strings.TrimSpace(question) == "" {
		question = req.Q
	}
	topK := defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	result, err := answerer.Answer(question, topK)
	if err != nil {
		if errors.Is(err, validate.ErrEmptyQuestion) {
			return model.ErrorResponse{Error: validate.ErrEmptyQuestion.Error(), Source: model.SourceUnknown}
		}
		logger.Error("answer question", zap.Error(err))
		return model.ErrorResponse{Error: "failed to process question", Source: model.SourceUnknown}
	}

	if ce := logger.Check(zap.DebugLevel, "answered"); ce != nil {
		ce.Write(
			zap.String("source", string(result.Source)),
			zap.String("trace_id", trace.SpanContextFromContext(ctx).TraceID().String()),
		)
	}
	return result
}

// Ask sends req to subject and waits for the answer. The deadline comes
// from ctx, or nats.DefaultTimeout when ctx has none. An error envelope in
// the reply is returned as a *RemoteError.
func Ask(ctx context.Context, nc *nats.Conn, subject string, req AskRequest) (*model.Result, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
	}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, nats.DefaultTimeout)
		defer cancel()
	}

	resp, err := nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", subject, err)
	}

	return decodeReply(resp.Data)
}

func decodeReply(data []byte) (*model.Result, error) {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if envelope.Error != "" {
		return nil, &RemoteError{Message: envelope.Error}
	}

	var result model.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if !result.Source.Valid() {
		return nil, fmt.Errorf("decode reply: unknown source %q", result.Source)
	}
	return &result, nil
}

// Connect dials url with reconnect settings suited to a long-running responder
func Connect(url string, logger *zap.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return nats.Connect(url,
		nats.Name("askroute"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
}

// Drain stops taking requests, lets in-flight handlers reply and waits for
// the connection to close. The connection is closed outright after timeout.
func Drain(nc *nats.Conn, timeout time.Duration) error {
	closed := make(chan struct{})
	var once sync.Once
	nc.SetClosedHandler(func(*nats.Conn) {
		once.Do(func() { close(closed) })
	})

	if err := nc.Drain(); err != nil {
		return fmt.Errorf("drain: %w", err)
	}

	select {
	case <-closed:
		return nil
	case <-time.After(timeout):
		nc.Close()
		return fmt.Errorf("drain: timed out after %v", timeout)
	}
}
