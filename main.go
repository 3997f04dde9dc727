package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/brewcraft/restaurant-backend/cache"
	"github.com/brewcraft/restaurant-backend/chat"
	"github.com/brewcraft/restaurant-backend/config"
	"github.com/brewcraft/restaurant-backend/database"
	"github.com/brewcraft/restaurant-backend/hub"
	"github.com/brewcraft/restaurant-backend/notify"
	"github.com/brewcraft/restaurant-backend/reservation"
	"github.com/brewcraft/restaurant-backend/router"
	"github.com/brewcraft/restaurant-backend/services"
	"github.com/brewcraft/restaurant-backend/storage"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/brewcraft/restaurant-backend/workflow"
	"github.com/gin-gonic/gin"
)

func main() {
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.SetLogLevel(cfg.Server.LogLevel)
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.Expiration)
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize DB
	db, err := database.Open(cfg.Database, !cfg.IsRelease())
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	if err := database.EnsureAdmin(db, cfg.Admin); err != nil {
		utils.ErrorLogger.Fatalf("Failed to create admin account: %v", err)
	}

	awsCfg, awsOK := loadAWS(ctx, cfg)

	appCache, err := cache.NewFromURL(ctx, cfg.Redis.URL, cfg.Redis.TTL)
	if err != nil {
		utils.ErrorLogger.Printf("Redis unavailable, caching disabled: %v", err)
		appCache = cache.New(nil, cfg.Redis.TTL)
	}
	defer appCache.Close()

	wsHub := hub.New()
	notificationLog := database.NewNotificationLog(db)
	dispatcher := notify.NewDispatcher(buildNotifier(cfg, awsCfg, awsOK, wsHub), notificationLog, cfg.Notify.Timeout)
	defer dispatcher.Flush()

	reservations := reservation.NewService(db, dispatcher)
	chatSvc := chat.NewService(db, wsHub)

	var store storage.ObjectStore
	if awsOK && cfg.AWS.ImageBucket != "" {
		store = storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.AWS.ImageBucket)
	}

	var contact workflow.Starter = workflow.InlineStarter{Sender: dispatcher}
	if awsOK && cfg.AWS.ContactQueueURL != "" {
		sqsClient := sqs.NewFromConfig(awsCfg)
		contact = workflow.NewSQSStarter(sqsClient, cfg.AWS.ContactQueueURL)
		worker := workflow.NewContactWorker(sqsClient, cfg.AWS.ContactQueueURL, dispatcher)
		go worker.Run(ctx)
	}

	monitor := services.NewReconcileMonitor(reservations, appCache, wsHub, cfg.Reconcile.Interval)
	if err := monitor.Start(); err != nil {
		utils.ErrorLogger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer monitor.Stop()

	r := router.SetupRouter(router.Dependencies{
		DB:              db,
		Reservations:    reservations,
		Chat:            chatSvc,
		Hub:             wsHub,
		Cache:           appCache,
		Store:           store,
		Contact:         contact,
		Notifier:        dispatcher,
		NotificationLog: notificationLog,
		Reconciler:      monitor,
		Server:          cfg.Server,
		RateLimit:       cfg.RateLimit,
		Auth:            cfg.Auth,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
}

// loadAWS builds the shared SDK config when any AWS backed feature is on.
func loadAWS(ctx context.Context, cfg *config.Config) (aws.Config, bool) {
	needed := cfg.Notify.HasDriver("sns") || cfg.AWS.ImageBucket != "" || cfg.AWS.ContactQueueURL != ""
	if !needed {
		return aws.Config{}, false
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		utils.ErrorLogger.Printf("AWS config unavailable, AWS features disabled: %v", err)
		return aws.Config{}, false
	}
	return awsCfg, true
}

// buildNotifier assembles the configured backends into one fan-out.
func buildNotifier(cfg *config.Config, awsCfg aws.Config, awsOK bool, h *hub.Hub) notify.Notifier {
	var backends notify.Multi
	for _, driver := range cfg.Notify.Drivers {
		switch driver {
		case "log":
			backends = append(backends, notify.LogNotifier{})
		case "hub":
			backends = append(backends, notify.NewHubNotifier(h))
		case "sns":
			if !awsOK {
				utils.ErrorLogger.Println("sns notifier skipped: no AWS config")
				continue
			}
			backends = append(backends, notify.NewSNSNotifier(sns.NewFromConfig(awsCfg), map[notify.Channel]string{
				notify.ChannelAdmin:    cfg.AWS.AdminTopicARN,
				notify.ChannelContact:  cfg.AWS.AdminTopicARN,
				notify.ChannelCustomer: cfg.AWS.CustomerTopicARN,
			}))
		case "amqp":
			if cfg.AMQP.URL == "" {
				utils.ErrorLogger.Println("amqp notifier skipped: AMQP_URL not set")
				continue
			}
			backends = append(backends, notify.NewAMQPNotifier(cfg.AMQP.URL, cfg.AMQP.Queue))
		case "mail":
			if cfg.SMTP.Host == "" {
				utils.ErrorLogger.Println("mail notifier skipped: SMTP_HOST not set")
				continue
			}
			backends = append(backends, notify.NewMailNotifier(notify.MailConfig{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Username: cfg.SMTP.Username,
				Password: cfg.SMTP.Password,
				From:     cfg.SMTP.From,
				AdminTo:  cfg.SMTP.AdminTo,
			}))
		}
	}
	if len(backends) == 0 {
		return nil
	}
	utils.InfoLogger.Printf("Notifier backends: %v", cfg.Notify.Drivers)
	return backends
}
