package startup

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casbin/casbin"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/yijiasang/glamap/cache"
	"github.com/yijiasang/glamap/casbinAuthorization"
	"github.com/yijiasang/glamap/handlers"
	application "github.com/yijiasang/glamap/service"
	"github.com/yijiasang/glamap/startup/config"
	"github.com/yijiasang/glamap/store"
)

type Server struct {
	config *config.Config
}

var Logger = logrus.New()

const LogFilePath = "/app/logs/glamap.log"

type CustomFormatter struct{}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	msg := fmt.Sprintf("[%s] [%s] %s\n",
		entry.Time.Format("2006-01-02T15:04:05Z07:00"),
		entry.Level,
		entry.Message,
	)
	return []byte(msg), nil
}

func initLogger() {
	writer, err := rotatelogs.New(
		LogFilePath+"_%Y%m%d%H%M",
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		// Local runs have no /app/logs; stay on stderr.
		Logger.Warnf("failed to create rotatelogs writer: %v", err)
	} else {
		Logger.SetOutput(writer)
	}

	Logger.SetFormatter(&CustomFormatter{})
}

func NewServer(config *config.Config) *Server {
	return &Server{
		config: config,
	}
}

func (server *Server) initMongoClient(ctx context.Context) *mongo.Client {
	client, err := store.GetClient(ctx, server.config.GlamapDBHost, server.config.GlamapDBPort)
	if err != nil {
		log.Fatal(err)
	}
	return client
}

func (server *Server) Start() {
	initLogger()

	ctx := context.Background()

	mongoClient := server.initMongoClient(ctx)
	defer func(mongoClient *mongo.Client, ctx context.Context) {
		if err := mongoClient.Disconnect(ctx); err != nil {
			Logger.Warnf("mongo disconnect: %s", err)
		}
	}(mongoClient, ctx)

	indexCtx, cancelIndexes := context.WithTimeout(ctx, 30*time.Second)
	defer cancelIndexes()
	if err := store.EnsureProfileIndexes(indexCtx, mongoClient); err != nil {
		log.Fatalf("profile indexes: %v", err)
	}
	if err := store.EnsureServiceIndexes(indexCtx, mongoClient); err != nil {
		log.Fatalf("service indexes: %v", err)
	}
	if err := store.EnsureReviewIndexes(indexCtx, mongoClient); err != nil {
		log.Fatalf("review indexes: %v", err)
	}

	exp, err := newExporter(server.config.JaegerAddress)
	if err != nil {
		log.Fatalf("Failed to Initialize Exporter: %v", err)
	}

	tp := newTraceProvider(exp)
	defer func() { _ = tp.Shutdown(ctx) }()
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer("glamap_service")
	otel.SetTextMapPropagator(propagation.TraceContext{})

	profileStore := store.NewProfileMongoDBStore(mongoClient, tracer, Logger)
	serviceStore := store.NewServiceMongoDBStore(mongoClient, tracer, Logger)
	reviewStore := store.NewReviewMongoDBStore(mongoClient, tracer, Logger)
	messageStore := store.NewMessageMongoDBStore(mongoClient, tracer, Logger)
	notificationStore := store.NewNotificationMongoDBStore(mongoClient, tracer, Logger)
	visitStore := store.NewVisitMongoDBStore(mongoClient, tracer, Logger)

	directoryCache := cache.New(server.config.DirectoryCacheHost, server.config.DirectoryCachePort, tracer, Logger)
	directoryCache.Ping()

	mailer := application.NewMailer()

	profileService := application.NewProfileService(profileStore, serviceStore, reviewStore, messageStore, notificationStore, directoryCache, tracer, Logger)
	catalogService := application.NewCatalogService(serviceStore, directoryCache, tracer, Logger)
	reviewService := application.NewReviewService(reviewStore, profileStore, tracer, Logger)
	messageService := application.NewMessageService(messageStore, notificationStore, profileStore, mailer, tracer, Logger)
	notificationService := application.NewNotificationService(notificationStore, tracer, Logger)
	adminService := application.NewAdminService(profileStore, messageStore, visitStore, profileService, tracer, Logger)
	storageService := application.NewStorageService(server.config.StorageServiceHost, server.config.StorageServicePort, tracer, Logger)

	router := mux.NewRouter()
	router.Use(MiddlewareContentTypeSet)
	router.Use(handlers.RequestIDMiddleware)
	router.Use(handlers.ExtractTraceInfoMiddleware)

	handlers.NewProfileHandler(profileService, tracer, Logger).Init(router)
	handlers.NewCatalogHandler(catalogService, profileService, tracer, Logger).Init(router)
	handlers.NewReviewHandler(reviewService, profileService, tracer, Logger).Init(router)
	handlers.NewMessageHandler(messageService, profileService, tracer, Logger).Init(router)
	handlers.NewNotificationHandler(notificationService, profileService, tracer, Logger).Init(router)
	handlers.NewAdminHandler(adminService, profileService, tracer, Logger).Init(router)
	handlers.NewUploadHandler(storageService, profileService, tracer, Logger).Init(router)

	enforcer, err := casbin.NewEnforcerSafe("./rbac_model.conf", "./policy.csv")
	if err != nil {
		log.Fatal(err)
	}
	Logger.Info("successful init of casbin enforcer")

	cors := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", server.config.Port),
		Handler:     cors(casbinAuthorization.CasbinMiddleware(enforcer)(router)),
		IdleTimeout: 120 * time.Second,
	}

	wait := time.Second * 15
	go func() {
		Logger.Infof("server listening on port %s", server.config.Port)
		if err := srv.ListenAndServe(); err != nil {
			log.Println(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	<-c

	shutdownCtx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Error Shutting Down Server %s", err)
	}
	log.Println("Server Gracefully Stopped")
}

func newExporter(address string) (*jaeger.Exporter, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(address)))
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func newTraceProvider(exp sdktrace.SpanExporter) *sdktrace.TracerProvider {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("glamap_service"),
		),
	)
	if err != nil {
		panic(err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(r),
	)
}

func MiddlewareContentTypeSet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, h *http.Request) {
		rw.Header().Add("Content-Type", "application/json")
		rw.Header().Set("X-Content-Type-Options", "nosniff")
		rw.Header().Set("X-Frame-Options", "DENY")

		next.ServeHTTP(rw, h)
	})
}
