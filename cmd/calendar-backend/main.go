package main

import (
	"context"
	"log"
	"net/http"

	"github.com/rosterhq/crm-calendar-backend/internal/api"
	"github.com/rosterhq/crm-calendar-backend/internal/calendar"
	"github.com/rosterhq/crm-calendar-backend/internal/config"
	"github.com/rosterhq/crm-calendar-backend/internal/reminders"
	"github.com/xlab/closer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx := context.Background()

	logger, err := initLogger()
	if err != nil {
		log.Fatalf("unable to initialize logger: %v", err)
	}

	notifier := reminders.NewLogNotifier(logger)
	scheduler := reminders.NewScheduler(logger, notifier, config.ReminderPollPeriod())
	go scheduler.Start(ctx)

	engine := calendar.NewEngine(logger, calendar.Config{
		WorkingHoursStart:       config.WorkingHoursStart(),
		WorkingHoursEnd:         config.WorkingHoursEnd(),
		SlotStep:                config.SlotStep(),
		SuggestionWindowDays:    config.SuggestionWindowDays(),
		SuggestionMaxSlots:      config.SuggestionMaxSlots(),
		SuggestionMaxPerDay:     config.SuggestionMaxPerDay(),
		ConflictRecheckOnUpdate: config.ConflictRecheckOnUpdate(),
		ExpansionHorizon:        config.RecurrenceExpansionLimit(),
	}, scheduler)

	api, err := api.NewApi(logger, engine)
	if err != nil {
		logger.Fatalw("error initiating api", "err", err)
	}

	errLogger, err := zap.NewStdLogAt(logger.Desugar(), zap.ErrorLevel)
	if err != nil {
		logger.Fatalw("error initiating server logger", "err", err)
	}

	server := &http.Server{
		Addr:     ":" + config.Port(),
		Handler:  api,
		ErrorLog: errLogger,
	}

	logger.Infow("Started server", "port", config.Port())
	logger.Fatalw("server error", "err", server.ListenAndServe())
}

func initLogger() (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error

	if config.Production() {
		logger, err = zap.NewProduction()
	} else {
		conf := zap.NewDevelopmentConfig()
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err = conf.Build()
	}

	if err != nil {
		return nil, err
	}

	closer.Bind(func() {
		_ = logger.Sync()
	})

	return logger.Sugar(), nil
}
