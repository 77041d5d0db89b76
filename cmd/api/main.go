package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/cache"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/mail"
	"app/internal/payment"
	"app/internal/queue"
	"app/internal/server"
	"app/internal/usecase"
	"app/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	//.envはローカル開発用。本番は環境変数のみ。
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.CartLine{},
		&model.PsvStage{},
		&model.Order{},
		&model.OrderItem{},
		&model.Transaction{},
	); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	//Redis（ロック・staging・queueで共用）
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := cache.NewRedisStore(rdb)

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	stageRepo := infraRepo.NewPsvStageGormRepository(gormDB)
	txRepo := infraRepo.NewTransactionGormRepository(gormDB)

	//Queue
	paymentQueue := queue.New(rdb, "payments", log)
	emailQueue := queue.New(rdb, "emails", log)

	//支払いまわりの部品
	gw := payment.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecret)
	poller := payment.NewPoller(gw)
	guard := usecase.NewIdempotencyGuard(store)
	staging := usecase.NewOrderStagingStore(store)
	dispatcher := usecase.NewQueuePaymentDispatcher(paymentQueue)
	emails := usecase.NewQueueEmailEnqueuer(emailQueue)
	materializer := usecase.NewOrderMaterializer(orderRepo, orderItemRepo, cartRepo, log)

	//JWT issuer
	issuer := &jwtIssuer{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: 15 * time.Minute,
	}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, issuer)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, store)
	stageUC := usecase.NewStageUsecase(stageRepo)
	checkoutUC := usecase.NewCheckoutUsecase(cartRepo, productRepo, stageRepo, userRepo, guard, staging, dispatcher, log)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo)
	paymentUC := usecase.NewPaymentUsecase(userRepo, guard, staging, dispatcher, poller, materializer, emails, log)
	webhookUC := usecase.NewWebhookUsecase(userRepo, orderRepo, cartRepo, txRepo, staging, guard, materializer, log)
	adminUC := usecase.NewAdminOrderUsecase(orderRepo, txRepo)

	//Worker起動
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	paymentWorker := queue.NewWorker(paymentQueue, cfg.QueueConcurrency, log)
	paymentWorker.Register(queue.JobTypePayment, worker.NewPaymentWorker(gw, guard, log).Handle)

	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	emailWorker := queue.NewWorker(emailQueue, 1, log)
	emailWorker.Register(queue.JobTypeEmail, worker.NewEmailWorker(mailer, log).Handle)

	go func() {
		if err := paymentWorker.Run(ctx); err != nil {
			log.Error().Err(err).Msg("payment worker stopped")
		}
	}()
	go func() {
		if err := emailWorker.Run(ctx); err != nil {
			log.Error().Err(err).Msg("email worker stopped")
		}
	}()

	//Handler生成
	h := server.Handlers{
		Auth:    handler.NewAuthHandler(authUC),
		Cart:    handler.NewCartHandler(cartUC),
		Order:   handler.NewOrderHandler(checkoutUC, orderUC),
		Payment: handler.NewPaymentHandler(paymentUC, webhookUC, cfg.PaystackSecret, log),
		Stage:   handler.NewStageHandler(stageUC),
		Admin:   handler.NewAdminOrderHandler(adminUC),
	}

	//Server起動
	srv := server.New(cfg, log)
	srv.RegisterRoutes(h)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
