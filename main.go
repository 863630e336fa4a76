package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ndau/simple-dao/chain"
	"github.com/ndau/simple-dao/commands"
	config "github.com/ndau/simple-dao/configuration"
	"github.com/ndau/simple-dao/dal"
	"github.com/ndau/simple-dao/dao"
	"github.com/ndau/simple-dao/eventing"
	"github.com/ndau/simple-dao/metrics"
	"github.com/ndau/simple-dao/models"
	"github.com/ndau/simple-dao/serving"
	"github.com/ndau/simple-dao/tracking"
)

// main wires storage, the engine and both transports, then blocks until
// SIGINT or SIGTERM.
func main() {
	// Load logger and configurator
	zl, err := zap.NewProduction()
	if err != nil {
		fmt.Println("failed to create logger ", err)
		return
	}
	defer zl.Sync() //nolint:errcheck
	log := zl.Sugar().Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infof("Initializing config...")
	cfg, err := config.New()
	if err != nil {
		log.Error(err)
		return
	}

	log.Infof("Loading config...")
	cf, err := config.LoadConfig(ctx, cfg, log.Named("config"))
	if err != nil {
		log.Error(err)
		return
	}

	var repo dal.Repo
	err = backoff.Retry(func() error {
		repo, err = dal.NewDb(cf, zl.Sugar().Named("dal"))
		if err != nil {
			log.Errorf("Failed to initialize db client: %v", err)
		}

		return err
	}, backoff.WithContext(backoff.NewConstantBackOff(4*time.Second), ctx))
	if err != nil {
		return
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		log.Error(err)
		return
	}

	clock, closeClock, err := newClock(ctx, cf, log)
	if err != nil {
		log.Error(err)
		return
	}
	defer closeClock()

	recorder := metrics.NewRecorder()
	notifiers := dao.Notifiers{recorder}

	g, gctx := errgroup.WithContext(ctx)

	if cf.SinkURL != "" {
		emitter, err := eventing.NewEmitter(cf, zl.Sugar().Named("emitter"))
		if err != nil {
			log.Error(err)
			return
		}
		notifiers = append(notifiers, emitter)
		g.Go(func() error {
			emitter.Run(gctx)
			return nil
		})
	}

	engine, err := loadEngine(ctx, repo, cf, recorder,
		dao.WithJournal(repo),
		dao.WithNotifier(notifiers),
		dao.WithLogger(zl.Sugar().Named("dao")),
	)
	if err != nil {
		log.Errorf("Failed to load the organization: %v", err)
		stop()
		_ = g.Wait()
		return
	}

	var organization common.Address
	if cf.Organization != "" {
		organization = common.HexToAddress(cf.Organization)
	}
	dispatcher := commands.NewDispatcher(engine, clock, organization, zl.Sugar().Named("commands"))

	server := serving.NewServer(cf, dispatcher, recorder, zl.Sugar().Named("serving"))
	kn, err := eventing.NewKnClient(cf, dispatcher, zl.Sugar().Named("knative"))
	if err != nil {
		log.Errorf("Failed to initialize knative client: %v", err)
		stop()
		_ = g.Wait()
		return
	}

	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return kn.Run(gctx) })

	log.Info("waiting on context Done channel ...")
	if err := g.Wait(); err != nil {
		log.Errorf("Stopped with error: %v", err)
		return
	}
	log.Info("cancelled context...")
}

// newClock dials the chain node when one is configured. Otherwise heights are
// counted in BlockInterval seconds since the Unix epoch, which keeps them
// increasing across restarts.
func newClock(ctx context.Context, cf *models.Config, log *zap.SugaredLogger) (chain.Clock, func(), error) {
	if cf.ChainURL != "" {
		log.Infof("Reading block heights from %s", cf.ChainURL)
		c, err := chain.DialNodeClock(ctx, cf.ChainURL, log.Named("clock"))
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}

	interval := time.Duration(cf.BlockInterval) * time.Second
	log.Infof("No chain node configured, one block every %s", interval)
	c, err := chain.NewIntervalClock(time.Unix(0, 0), interval)
	if err != nil {
		return nil, nil, err
	}
	return c, func() {}, nil
}

// loadEngine restores the organization from the store, or creates it from the
// configuration on first start.
func loadEngine(ctx context.Context, repo dal.Repo, cf *models.Config, recorder *metrics.Recorder, opts ...dao.Option) (*dao.Engine, error) {
	ctx = tracking.With(ctx, "startup")
	snapshot, err := repo.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	if snapshot != nil {
		engine, err := dao.Restore(snapshot, opts...)
		if err != nil {
			return nil, err
		}
		recorder.Prime(len(engine.Members()), engine.TotalSupply())
		return engine, nil
	}

	members := make([]common.Address, 0, len(cf.Members))
	for _, m := range cf.Members {
		addr, err := commands.ParseAddress(m)
		if err != nil {
			return nil, err
		}
		members = append(members, addr)
	}
	return dao.New(ctx, dao.Params{
		Members:          members,
		TotalSupply:      cf.TotalSupply,
		VotingPeriod:     cf.VotingPeriod,
		MinVotesRequired: cf.MinVotesRequired,
	}, opts...)
}
