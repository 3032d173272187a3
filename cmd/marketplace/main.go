package main

import (
	biddinghandler "gemnet/internal/bidding/handler"
	biddingrepo "gemnet/internal/bidding/repository"
	biddingservice "gemnet/internal/bidding/service"
	biddingvalidator "gemnet/internal/bidding/validator"
	"gemnet/internal/bidding/events"
	listinghandler "gemnet/internal/listings/handler"
	listingrepo "gemnet/internal/listings/repository"
	listingservice "gemnet/internal/listings/service"
	listingvalidator "gemnet/internal/listings/validator"
	"gemnet/pkg/app"
	"gemnet/pkg/cache"
	"gemnet/pkg/clock"
	"gemnet/pkg/config"
	"gemnet/pkg/kafka"
	kafka_config "gemnet/pkg/kafka/config"
)

const ServiceName = "marketplace"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Marketplace service")

	cfg.SetMongo()
	cfg.SetRedis()

	sink := initEventSink(cfg)
	listingService, bidService := initServices(cfg, sink)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		listinghandler.NewListingHandler(listingService, cfg.Log),
		biddinghandler.NewBidHandler(bidService, cfg.Log),
	)
	serverApp.AddWorker(biddingservice.NewSweeper(bidService, cfg))
	serverApp.Run()
}

// initEventSink builds the Kafka sink for bid events. A broker that cannot
// be reached degrades to dropped events; bids still work.
func initEventSink(cfg *config.Config) events.Sink {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Warn("Invalid Kafka configuration, bid events disabled", "error", err)
		return events.NopSink{}
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BidEventsTopic, cfg.BidEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Warn("Failed to create Kafka producer, bid events disabled", "error", err)
		return events.NopSink{}
	}

	cfg.Log.Info("Bid event publishing enabled", "topic", cfg.BidEventsTopic)
	return events.NewKafkaSink(producer, ServiceName, cfg.Log)
}

func initServices(cfg *config.Config, sink events.Sink) (listingservice.ListingService, biddingservice.BidService) {
	clk := clock.System{}

	listingRepo := listingrepo.NewMongoListingRepository(cfg)
	listingService := listingservice.NewListingService(
		listingRepo,
		listingvalidator.NewListingValidator(cfg.Log),
		cfg,
	)

	bidService := biddingservice.NewBidService(
		biddingrepo.NewMongoBidRepository(cfg),
		biddingrepo.NewAuctionListingRepository(cfg),
		biddingrepo.NewBidLockRepository(cfg),
		biddingvalidator.NewBidValidator(cfg.Log),
		sink,
		cache.NewStatsCache(cfg.Client.Redis, cfg.StatsCacheTTL, cfg.Log),
		clk,
		cfg,
	)

	cfg.Log.Info("Marketplace services initialized", "database", cfg.MongoDatabaseName)
	return listingService, bidService
}
