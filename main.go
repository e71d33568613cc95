package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "studio-admin-backend/cmd/api"
	auditDomain "studio-admin-backend/internal/audit/domain"
	auditRepo "studio-admin-backend/internal/audit/repository"
	auditScheduler "studio-admin-backend/internal/audit/scheduler"
	auditUsecase "studio-admin-backend/internal/audit/usecase"
	authdomain "studio-admin-backend/internal/auth/domain"
	authRepo "studio-admin-backend/internal/auth/repository"
	authUsecase "studio-admin-backend/internal/auth/usecase"
	messageDomain "studio-admin-backend/internal/message/domain"
	messageRepo "studio-admin-backend/internal/message/repository"
	messageUsecase "studio-admin-backend/internal/message/usecase"
	"studio-admin-backend/internal/notification"
	projectDomain "studio-admin-backend/internal/project/domain"
	projectRepo "studio-admin-backend/internal/project/repository"
	projectUsecase "studio-admin-backend/internal/project/usecase"
	"studio-admin-backend/pkg/config"
	"studio-admin-backend/pkg/database"
	"studio-admin-backend/pkg/docstore"
	"studio-admin-backend/pkg/fcm"
	"studio-admin-backend/pkg/firebaseapp"
	"studio-admin-backend/pkg/livequery"
	"studio-admin-backend/pkg/logger"
	"studio-admin-backend/pkg/sse"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.FirestoreEmulatorHost != "" {
		log.Info("using firestore emulator", zap.String("host", cfg.FirestoreEmulatorHost))
	}

	// Initialize Firebase and the document store
	app, err := firebaseapp.NewApp(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentials)
	if err != nil {
		log.Fatal("failed to initialize firebase", zap.Error(err))
	}
	firestoreClient, err := firebaseapp.Firestore(ctx, app)
	if err != nil {
		log.Fatal("failed to initialize firestore", zap.Error(err))
	}
	defer firestoreClient.Close()
	store := docstore.NewFirestoreStore(firestoreClient)

	// Live lists
	projectLive := livequery.New[projectDomain.Project](store, projectRepo.LiveQuery(cfg.ProjectListCap), projectRepo.ProjectDecoder(log), log.Named("livequery"))
	messageLive := livequery.New[messageDomain.Message](store, messageRepo.LiveQuery(cfg.MessageListCap), messageRepo.MessageDecoder(log), log.Named("livequery"))

	// Optional relational store for the audit log and admin devices
	var (
		observers   []projectUsecase.MutationObserver
		deviceRepo  authRepo.DeviceTokenRepository
		deviceUc    authUsecase.DeviceUsecase
		auditReader *auditUsecase.Recorder
	)
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(&auditDomain.Entry{}, &authdomain.DeviceToken{}); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}

		entryRepo := auditRepo.NewGormEntryRepository(db)
		auditReader = auditUsecase.NewRecorder(entryRepo)
		observers = append(observers, auditReader)
		deviceRepo = authRepo.NewDeviceTokenRepository(db)
		deviceUc = authUsecase.NewDeviceUsecase(deviceRepo)

		retention := auditScheduler.NewRetentionScheduler(entryRepo, cfg.AuditRetention, time.Hour, log)
		retention.Start()
		defer retention.Stop()
	} else {
		log.Warn("DATABASE_URL not configured, audit log and push devices disabled")
	}

	// Project change events (Pub/Sub)
	if cfg.PubSubTopic != "" {
		var opts []option.ClientOption
		if cfg.FirebaseCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentials))
		}
		pubsubClient, err := pubsub.NewClient(ctx, cfg.FirebaseProjectID, opts...)
		if err != nil {
			log.Error("failed to create pubsub client, change events disabled", zap.Error(err))
		} else {
			defer pubsubClient.Close()
			topic, stopTopic, err := notification.NewPubSubTopic(ctx, pubsubClient, cfg.PubSubTopic)
			if err != nil {
				log.Error("pubsub topic unavailable, change events disabled", zap.Error(err))
			} else {
				defer stopTopic()
				observers = append(observers, notification.NewChangePublisher(topic, log))
				log.Info("publishing project changes", zap.String("topic", cfg.PubSubTopic))
			}
		}
	}

	// Initialize use cases (dependency injection)
	gateway := projectUsecase.NewMutationGateway(projectRepo.NewDocstoreProjectRepository(store), projectLive, log.Named("gateway"), observers...)
	defer gateway.Wait()
	projectUc := projectUsecase.NewProjectUsecase(projectLive, gateway)
	messageUc := messageUsecase.NewMessageUsecase(messageLive, messageRepo.NewDocstoreMessageRepository(store), log.Named("messages"))

	var verifier authUsecase.TokenVerifier
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		log.Warn("using locally signed tokens, do not use in production")
		verifier = authUsecase.NewJWTVerifier(cfg.JWTSecret)
	default:
		authClient, err := firebaseapp.Auth(ctx, app)
		if err != nil {
			log.Fatal("failed to initialize firebase auth", zap.Error(err))
		}
		verifier = authUsecase.NewFirebaseVerifier(authClient)
	}

	// Push alerts for new contact messages
	if deviceRepo != nil {
		fcmClient, err := fcm.NewClient(ctx, app, log)
		if err != nil {
			log.Warn("failed to initialize FCM client, push notifications disabled", zap.Error(err))
		} else {
			go notification.NewMessageAlerter(messageUc, deviceRepo, fcmClient, log).Run(ctx)
		}
	}

	sseManager := sse.NewManager(log)
	go sseManager.Run(ctx)

	projectLive.Start(ctx)
	defer projectLive.Close()
	messageLive.Start(ctx)
	defer messageLive.Close()

	deps := api.Dependencies{
		Verifier:       verifier,
		ProjectUsecase: projectUc,
		MessageUsecase: messageUc,
		DeviceUsecase:  deviceUc,
	}
	if auditReader != nil {
		deps.AuditReader = auditReader
	}

	handler := api.NewHandler(deps, sseManager, cfg, log)
	if err := handler.Start(ctx, ":"+cfg.Port); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}
