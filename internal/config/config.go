package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

type config struct {
	Production               bool          `env:"PRODUCTION" envDefault:"false"`
	Port                     string        `env:"PORT" envDefault:"80"`
	WorkingHoursStart        int           `env:"WORKING_HOURS_START" envDefault:"9"`
	WorkingHoursEnd          int           `env:"WORKING_HOURS_END" envDefault:"18"`
	SlotStep                 time.Duration `env:"SLOT_STEP" envDefault:"30m"`
	SuggestionWindowDays     int           `env:"SUGGESTION_WINDOW_DAYS" envDefault:"7"`
	SuggestionMaxSlots       int           `env:"SUGGESTION_MAX_SLOTS" envDefault:"5"`
	SuggestionMaxPerDay      int           `env:"SUGGESTION_MAX_PER_DAY" envDefault:"2"`
	ConflictRecheckOnUpdate  bool          `env:"CONFLICT_RECHECK_ON_UPDATE" envDefault:"true"`
	ReminderPollPeriod       time.Duration `env:"REMINDER_POLL_PERIOD" envDefault:"30s"`
	RecurrenceExpansionLimit time.Duration `env:"RECURRENCE_EXPANSION_LIMIT" envDefault:"8760h"`
}

var conf config

func init() {
	if err := env.Parse(&conf); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
}

func Production() bool {
	return conf.Production
}

func Port() string {
	return conf.Port
}

func WorkingHoursStart() int {
	return conf.WorkingHoursStart
}

func WorkingHoursEnd() int {
	return conf.WorkingHoursEnd
}

func SlotStep() time.Duration {
	return conf.SlotStep
}

func SuggestionWindowDays() int {
	return conf.SuggestionWindowDays
}

func SuggestionMaxSlots() int {
	return conf.SuggestionMaxSlots
}

func SuggestionMaxPerDay() int {
	return conf.SuggestionMaxPerDay
}

func ConflictRecheckOnUpdate() bool {
	return conf.ConflictRecheckOnUpdate
}

func ReminderPollPeriod() time.Duration {
	return conf.ReminderPollPeriod
}

func RecurrenceExpansionLimit() time.Duration {
	return conf.RecurrenceExpansionLimit
}
