package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/openhire/openhire/core"
	"github.com/openhire/openhire/core/backend"
	"github.com/openhire/openhire/core/csql"
	"github.com/openhire/openhire/core/logger"
)

// Service holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres password=docker dbname=postgres sslmode=disable"
type Service struct {
	Postgres     string `env:"POSTGRES,required" description:"the connection string for the Postgres DB"`
	Port         string `env:"PORT,default=3000" description:"the port to listen on"`
	TokenKey     string `env:"TOKEN_KEY,required" description:"the HS256 signing key for authentication tokens"`
	KafkaBrokers string `env:"KAFKA_BROKERS,optional" description:"comma separated kafka brokers for mutation notifications"`
}

func main() {
	logger.InitLogger(logrus.InfoLevel)
	rlog := logger.Default()

	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}

	db := csql.OpenWithSchema(service.Postgres, "jobboard")
	defer db.Close()

	var notifier core.Notifier
	if service.KafkaBrokers != "" {
		kafkaNotifier := backend.NewKafkaNotifier(strings.Split(service.KafkaBrokers, ","), "resource_notification")
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	}

	router := mux.NewRouter()
	backend.New(&backend.Builder{
		DB:       db,
		Router:   router,
		TokenKey: []byte(service.TokenKey),
		Notifier: notifier,
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	rlog.Infoln("listen on port :" + service.Port)
	err := http.ListenAndServe(":"+service.Port, cors(handlers.CombinedLoggingHandler(os.Stdout, router)))
	if err != nil {
		rlog.WithError(err).Fatalln("server stopped")
	}
}
