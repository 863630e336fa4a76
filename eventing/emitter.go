package eventing

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"
	"github.com/pkg/errors"
	uuid "github.com/satori/uuid"
	"go.uber.org/zap"

	"github.com/ndau/simple-dao/dao"
	"github.com/ndau/simple-dao/models"
	"github.com/ndau/simple-dao/tracking"
)

const (
	defaultSource = "simple-dao"

	// TypePrefix is prepended to the engine event type, e.g.
	// org.simpledao.vote.cast.
	TypePrefix = "org.simpledao."

	queueSize          = 256
	maxDeliveryRetries = 5
)

type sender interface {
	Send(ctx context.Context, event cloudevents.Event) cloudevents.Result
}

type envelope struct {
	trackingNumber string
	event          dao.Event
}

// Emitter publishes committed engine events to a CloudEvents sink. Notify
// only queues; Run delivers. When the queue is full the event is dropped.
type Emitter struct {
	client sender
	target string
	source string
	queue  chan envelope

	newBackOff func() backoff.BackOff

	Log *zap.SugaredLogger
}

func NewEmitter(cfg *models.Config, loggers ...*zap.SugaredLogger) (*Emitter, error) {
	if cfg.SinkURL == "" {
		return nil, errors.New("no sink url configured")
	}
	client, err := cloudevents.NewClientHTTP()
	if err != nil {
		return nil, errors.Wrap(err, "Failed creating the cloudevents client")
	}
	return newEmitter(client, cfg.SinkURL, cfg.Source, queueSize, loggers...), nil
}

func newEmitter(client sender, target, source string, size int, loggers ...*zap.SugaredLogger) *Emitter {
	log := zap.NewNop().Sugar()
	if len(loggers) > 0 {
		log = loggers[0]
	}
	if source == "" {
		source = defaultSource
	}
	return &Emitter{
		client: client,
		target: target,
		source: source,
		queue:  make(chan envelope, size),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = time.Minute
			return b
		},
		Log: log,
	}
}

func (e *Emitter) Notify(ctx context.Context, ev dao.Event) {
	env := envelope{trackingNumber: tracking.From(ctx), event: ev}
	select {
	case e.queue <- env:
	default:
		e.Log.Warnf("%s | Event queue is full, dropping %s", env.trackingNumber, ev.EventType())
	}
}

// Run delivers queued events until ctx is done.
func (e *Emitter) Run(ctx context.Context) {
	e.Log.Infof("Emitting events to %s", e.target)
	for {
		select {
		case <-ctx.Done():
			e.Log.Infof("Emitter stopped with %d events pending", len(e.queue))
			return
		case env := <-e.queue:
			if err := e.deliver(ctx, env); err != nil {
				e.Log.Errorf("%s | Failed delivering %s: %v", env.trackingNumber, env.event.EventType(), err)
			}
		}
	}
}

func (e *Emitter) toCloudEvent(env envelope) (cloudevents.Event, error) {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewV4().String())
	event.SetType(TypePrefix + env.event.EventType())
	event.SetSource(e.source)
	event.SetExtension(TrackingExtension, env.trackingNumber)
	if err := event.SetData(cloudevents.ApplicationJSON, env.event); err != nil {
		return event, errors.Wrap(err, "Failed encoding event data")
	}
	return event, nil
}

func (e *Emitter) deliver(ctx context.Context, env envelope) error {
	event, err := e.toCloudEvent(env)
	if err != nil {
		return err
	}
	ctx = cloudevents.ContextWithTarget(tracking.With(ctx, env.trackingNumber), e.target)

	send := func() error {
		res := e.client.Send(ctx, event)
		if cloudevents.IsACK(res) {
			return nil
		}
		// The sink understood and refused the event.
		var httpResult *cehttp.Result
		if errors.As(res, &httpResult) && httpResult.StatusCode >= 400 && httpResult.StatusCode < 500 {
			return backoff.Permanent(res)
		}
		return res
	}
	notify := func(err error, wait time.Duration) {
		e.Log.Warnf("%s | Delivery of %s failed, retrying in %s: %v", env.trackingNumber, event.ID(), wait, err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(e.newBackOff(), maxDeliveryRetries), ctx)
	if err := backoff.RetryNotify(send, b, notify); err != nil {
		return err
	}
	e.Log.Infof("%s | Delivered %s as %s", env.trackingNumber, event.Type(), event.ID())
	return nil
}
