package eventing

import (
	"context"
	"net/http"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/pkg/errors"
	uuid "github.com/satori/uuid"
	"go.uber.org/zap"

	"github.com/ndau/simple-dao/commands"
	"github.com/ndau/simple-dao/models"
	"github.com/ndau/simple-dao/tracking"
)

const (
	defaultPort = 8080

	// Inbound command types.
	TypeCreateProposal = "org.simpledao.proposal.create"
	TypeVote           = "org.simpledao.proposal.vote"
	TypeDistribute     = "org.simpledao.tokens.distribute"

	// TypeProposalAccepted is the reply to a successful create.
	TypeProposalAccepted = "org.simpledao.proposal.accepted"

	CallerExtension   = "caller"
	TrackingExtension = "trackingnumber"
)

// KnClient -
type KnClient struct {
	client     cloudevents.Client
	dispatcher *commands.Dispatcher
	port       int
	source     string

	// Optional: logging
	Log *zap.SugaredLogger
}

// NewKnClient -
func NewKnClient(cfg *models.Config, dispatcher *commands.Dispatcher, loggers ...*zap.SugaredLogger) (knc *KnClient, err error) {
	port := cfg.EventPort
	if port == 0 {
		port = defaultPort
	}

	client, err := cloudevents.NewClientHTTP(cloudevents.WithPort(port))
	if err != nil {
		return nil, err
	}

	knc = newKnClient(dispatcher, cfg.Source, loggers...)
	knc.client = client
	knc.port = port
	return knc, nil
}

func newKnClient(dispatcher *commands.Dispatcher, source string, loggers ...*zap.SugaredLogger) *KnClient {
	// Attach an optional logger
	log := zap.NewNop().Sugar()
	if len(loggers) > 0 {
		log = loggers[0]
	}
	if source == "" {
		source = defaultSource
	}

	return &KnClient{
		dispatcher: dispatcher,
		source:     source,

		// Optional: logging
		Log: log,
	}
}

// Run blocks receiving commands until ctx is done.
func (k *KnClient) Run(ctx context.Context) error {
	k.Log.Infof("knative is listening on port %d", k.port)
	if err := k.client.StartReceiver(ctx, k.Receive); err != nil {
		k.Log.Errorf("Failed to start a Receiver: %v", err)
		return err
	}
	return nil
}

// Receive dispatches one command event. A create is answered with an event
// carrying the new proposal id.
func (k *KnClient) Receive(ctx context.Context, event cloudevents.Event) (*cloudevents.Event, cloudevents.Result) {
	// Let's create traceable context
	evtExt := event.Extensions()
	trackingNumber, ok := evtExt[TrackingExtension].(string)
	if !ok || trackingNumber == "" {
		trackingNumber = uuid.NewV4().String()
	}
	ctx = tracking.With(ctx, trackingNumber)

	k.Log.Infof("%s | Start processing knative event %s of type %s", trackingNumber, event.ID(), event.Type())

	callerHex, _ := evtExt[CallerExtension].(string)
	caller, err := commands.ParseAddress(callerHex)
	if err != nil {
		k.Log.Errorf("%s | Event %s has no valid caller: %v", trackingNumber, event.ID(), err)
		return nil, cloudevents.NewHTTPResult(http.StatusBadRequest, "missing or invalid '%s' extension", CallerExtension)
	}

	var reply *cloudevents.Event
	switch event.Type() {
	case TypeCreateProposal:
		var data models.ProposalData
		if err = decode(event, &data); err != nil {
			break
		}
		var id uint32
		if id, err = k.dispatcher.CreateProposal(ctx, caller, data); err == nil {
			reply, err = k.accepted(trackingNumber, id)
		}
	case TypeVote:
		var data models.VoteData
		if err = decode(event, &data); err != nil {
			break
		}
		err = k.dispatcher.Vote(ctx, caller, data)
	case TypeDistribute:
		var data models.DistributionData
		if err = decode(event, &data); err != nil {
			break
		}
		err = k.dispatcher.Distribute(ctx, caller, data)
	default:
		k.Log.Warnf("%s | Unsupported event type %s", trackingNumber, event.Type())
		return nil, cloudevents.NewHTTPResult(http.StatusBadRequest, "unsupported event type '%s'", event.Type())
	}

	if err != nil {
		status := commands.StatusCode(err)
		k.Log.Errorf("%s | Process event failed with status %d: %v", trackingNumber, status, err)
		return nil, cloudevents.NewHTTPResult(status, "%s", err.Error())
	}

	k.Log.Infof("%s | Processed event: %s", trackingNumber, event.ID())
	return reply, cloudevents.ResultACK
}

func decode(event cloudevents.Event, data interface{}) error {
	if err := event.DataAs(data); err != nil {
		return errors.Wrap(commands.ErrMalformed, err.Error())
	}
	return nil
}

func (k *KnClient) accepted(trackingNumber string, id uint32) (*cloudevents.Event, error) {
	reply := cloudevents.NewEvent()
	reply.SetID(uuid.NewV4().String())
	reply.SetType(TypeProposalAccepted)
	reply.SetSource(k.source)
	reply.SetExtension(TrackingExtension, trackingNumber)
	if err := reply.SetData(cloudevents.ApplicationJSON, map[string]uint32{"id": id}); err != nil {
		return nil, err
	}
	return &reply, nil
}
