package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/infra/consumer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_decorator"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/job"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	event_handler "github.com/RoyceAzure/lab/storefront/internal/handler/event"
)

func main() {
	cf := config.GetConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.GetDbConn(cf.DbName, cf.DbHost, cf.DbPort, cf.DbUser, cf.DbPas)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres failed")
	}

	dao := db.NewDbDao(conn)
	if err := dao.InitMigrate(); err != nil {
		log.Fatal().Err(err).Msg("migrate schema failed")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cf.RedisAddr})
	productCache := redis_repo.NewProductRedisRepo(redisClient, 30*time.Second)

	productRepo := db.NewProductRepo(dao)
	cartRepo := db.NewCartRepo(dao)
	orderRepo := db.NewOrderRepo(dao)
	userRepo := db.NewUserRepo(dao)

	// 瀏覽路徑走快取，結帳路徑直連db
	browseProductRepo := redis_decorator.NewCacheAsideProductRepo(productRepo, productCache)

	stockService := service.NewStockService(cf.LowStockThreshold)
	cartService := service.NewCartService(cartRepo, productRepo, stockService)
	mailService := service.NewMailService(cf.SenderName, cf.EmailAccount, cf.SmtpAuthKey)
	reportService := service.NewSalesReportService(dao, orderRepo)
	productService := service.NewProductService(browseProductRepo)

	if products, err := productService.GetProductsInStock(ctx); err != nil {
		log.Warn().Err(err).Msg("list in-stock products failed")
	} else {
		log.Info().Int("count", len(products)).Msg("products in stock")
	}

	orderEventProducer := producer.NewOrderEventProducer(cf.Brokers(), cf.KafkaTopic)
	defer orderEventProducer.Close()

	checkoutService := service.NewCheckoutService(dao, cartService, stockService, cartRepo, orderRepo, productRepo, orderEventProducer)

	orderEventHandler := event_handler.NewOrderEventHandler(
		mailService,
		checkoutService,
		stockService,
		orderRepo,
		userRepo,
		cf.AdminEmail,
		time.Duration(cf.NewOrderNotifyDelaySec)*time.Second,
		time.Duration(cf.OrderConfirmationDelaySec)*time.Second,
	)

	orderEventConsumer := consumer.NewOrderEventConsumer(cf.Brokers(), cf.KafkaTopic, cf.KafkaGroupID, orderEventHandler)
	if err := orderEventConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start order event consumer failed")
	}
	defer orderEventConsumer.Stop()

	reportJob := job.NewDailySalesReportJob(reportService, mailService, cf.AdminEmail)
	scheduler := job.NewScheduler(reportJob, cf.DailyReportHour)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	log.Info().Msg("storefront started")
	<-ctx.Done()
	log.Info().Msg("storefront shutting down")
}
