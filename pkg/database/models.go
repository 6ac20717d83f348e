package database

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is one train number within one timetable year. Created on the
// first sighting of a train number, never updated or deleted afterwards.
type Service struct {
	ID            string `gorm:"column:id;primaryKey"`
	TrainNumber   string `gorm:"column:train_number;uniqueIndex:service_year_train_number"`
	TimetableYear string `gorm:"column:timetable_year;uniqueIndex:service_year_train_number"`
	Type          string `gorm:"column:type"`
	Provider      string `gorm:"column:provider"`
}

func (Service) TableName() string { return "service" }

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Journey is one run of a Service on one calendar date (YYYY-MM-DD).
type Journey struct {
	ID        string `gorm:"column:id;primaryKey"`
	ServiceID string `gorm:"column:service_id;uniqueIndex:journey_service_running_on"`
	RunningOn string `gorm:"column:running_on;uniqueIndex:journey_service_running_on;index"`

	Attributes datatypes.JSONSlice[string] `gorm:"column:attributes"`
	SourceIDs  datatypes.JSONSlice[string] `gorm:"column:source_ids"`
}

func (Journey) TableName() string { return "journey" }

func (j *Journey) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// JourneyEvent is one stop (or passage) of a Journey. The whole stop set of
// a journey is replaced in one transaction whenever a trip-composition
// message is reconciled; ids do not survive a replacement, merged attributes
// do. Times are local time-of-day strings (HH:MM:SS), platforms are display
// strings (track number plus optional phase suffix).
type JourneyEvent struct {
	ID        string `gorm:"column:id;primaryKey"`
	JourneyID string `gorm:"column:journey_id;index;uniqueIndex:journey_event_journey_stop_order"`
	Station   string `gorm:"column:station;index"`

	EventTypePlanned *string `gorm:"column:event_type_planned"`
	EventTypeActual  *string `gorm:"column:event_type_actual"`

	StopOrder int `gorm:"column:stop_order;uniqueIndex:journey_event_journey_stop_order"`

	ArrivalTimePlanned     *string `gorm:"column:arrival_time_planned"`
	ArrivalTimeActual      *string `gorm:"column:arrival_time_actual"`
	ArrivalPlatformPlanned *string `gorm:"column:arrival_platform_planned"`
	ArrivalPlatformActual  *string `gorm:"column:arrival_platform_actual"`
	ArrivalCancelled       bool    `gorm:"column:arrival_cancelled"`

	DepartureTimePlanned     *string `gorm:"column:departure_time_planned"`
	DepartureTimeActual      *string `gorm:"column:departure_time_actual"`
	DeparturePlatformPlanned *string `gorm:"column:departure_platform_planned"`
	DeparturePlatformActual  *string `gorm:"column:departure_platform_actual"`
	DepartureCancelled       bool    `gorm:"column:departure_cancelled"`

	// Legacy progression marker written by the arrival/departure status
	// handlers. Only ever increases for the lifetime of a stop row.
	Status int `gorm:"column:status"`

	Attributes datatypes.JSONSlice[string] `gorm:"column:attributes"`
}

func (JourneyEvent) TableName() string { return "journey_event" }

// RollingStock is one physical unit departing from one stop.
type RollingStock struct {
	JourneyID      string `gorm:"column:journey_id;index"`
	JourneyEventID string `gorm:"column:journey_event_id;uniqueIndex:rolling_stock_event_departure_order"`
	DepartureOrder int    `gorm:"column:departure_order;uniqueIndex:rolling_stock_event_departure_order"`

	MaterialType    string `gorm:"column:material_type"`
	MaterialSubtype string `gorm:"column:material_subtype"`
	MaterialNumber  string `gorm:"column:material_number"`
}

func (RollingStock) TableName() string { return "rolling_stock" }
