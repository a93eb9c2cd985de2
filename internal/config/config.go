package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"timetabler/internal/domain"
)

type Config struct {
	WorkingHours WorkingHours      `mapstructure:"working_hours" validate:"required"`
	Breaks       []BreakConfig     `mapstructure:"breaks" validate:"dive"`
	Rooms        []RoomConfig      `mapstructure:"rooms" validate:"min=1,dive"`
	Professors   []ProfessorConfig `mapstructure:"professors" validate:"min=1,dive"`
	Sessions     []SessionConfig   `mapstructure:"sessions" validate:"min=1,dive"`
	Groups       []GroupConfig     `mapstructure:"groups" validate:"min=1,dive"`
	Objective    ObjectiveConfig   `mapstructure:"objective"`
	Solver       SolverConfig      `mapstructure:"solver"`
}

type WorkingHours struct {
	SlotMinutes int         `mapstructure:"slot_minutes" validate:"gt=0"`
	Days        []DayWindow `mapstructure:"days" validate:"min=1,dive"`
}

type DayWindow struct {
	Day   int    `mapstructure:"day" validate:"gte=0,lte=6"`
	Start string `mapstructure:"start" validate:"required"`
	End   string `mapstructure:"end" validate:"required"`
}

type BreakConfig struct {
	// Day of the break; omitted means the break applies to every day.
	Day   *int   `mapstructure:"day"`
	Start string `mapstructure:"start" validate:"required"`
	End   string `mapstructure:"end" validate:"required"`
}

type RoomConfig struct {
	ID       string   `mapstructure:"id" validate:"required"`
	Type     string   `mapstructure:"type" validate:"required"`
	Capacity int      `mapstructure:"capacity" validate:"gt=0"`
	Features []string `mapstructure:"features"`
}

type AvailabilityConfig struct {
	Day   int   `mapstructure:"day" validate:"gte=0,lte=6"`
	Slots []int `mapstructure:"slots" validate:"min=1"`
}

type ProfessorConfig struct {
	ID           string               `mapstructure:"id" validate:"required"`
	Subjects     []string             `mapstructure:"subjects" validate:"min=1"`
	Availability []AvailabilityConfig `mapstructure:"availability" validate:"dive"`
	MaxHoursDay  int                  `mapstructure:"max_hours_day" validate:"gte=0"`
	MaxHoursWeek int                  `mapstructure:"max_hours_week" validate:"gte=0"`
}

type RoomRequirements struct {
	Type     string   `mapstructure:"type" validate:"required"`
	Features []string `mapstructure:"features"`
}

type SessionConfig struct {
	ID               string           `mapstructure:"id" validate:"required"`
	Type             string           `mapstructure:"type" validate:"required"`
	Subject          string           `mapstructure:"subject" validate:"required"`
	Duration         int              `mapstructure:"duration" validate:"gt=0"`
	Frequency        string           `mapstructure:"frequency" validate:"required"`
	RoomRequirements RoomRequirements `mapstructure:"room_requirements"`
	ProfessorID      string           `mapstructure:"professor_id"`
	GroupIDs         []string         `mapstructure:"group_ids" validate:"min=1"`
	Priority         int              `mapstructure:"priority" validate:"gte=0"`
}

type GroupConfig struct {
	ID       string `mapstructure:"id" validate:"required"`
	Size     int    `mapstructure:"size" validate:"gt=0"`
	ParentID string `mapstructure:"parent_id"`
}

type ObjectiveConfig struct {
	// Priorities orders soft-constraint families, most important first.
	Priorities []string `mapstructure:"priorities"`
}

type SolverConfig struct {
	Backend       string `mapstructure:"backend"`
	BudgetSeconds int    `mapstructure:"budget_seconds" validate:"gte=0"`
}

func (s SolverConfig) Budget() time.Duration {
	return time.Duration(s.BudgetSeconds) * time.Second
}

// Load reads and validates a configuration file. Every failure is a
// ConfigurationError: nothing reaches modeling with a malformed input.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, domain.Configurationf("", "cannot read %v: %v", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (Config, error) {
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return Config{}, domain.Configurationf("", "invalid JSON: %v", err)
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &cfg})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(tree); err != nil {
		return Config{}, domain.Configurationf("", "cannot decode configuration: %v", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if ok := errors.As(err, &errs); ok && len(errs) > 0 {
			first := errs[0]
			return Config{}, domain.Configurationf(first.Namespace(), "failed %q validation", first.Tag())
		}
		return Config{}, domain.Configurationf("", "%v", err)
	}

	return cfg, nil
}

// BuildModel converts the validated configuration into the read-only
// domain model of one solve.
func (cfg Config) BuildModel() (*domain.Model, error) {
	calendar := domain.Calendar{SlotMinutes: cfg.WorkingHours.SlotMinutes}
	for _, window := range cfg.WorkingHours.Days {
		start, err := parseMinutes(window.Start)
		if err != nil {
			return nil, domain.Configurationf("working_hours", "day %d: %v", window.Day, err)
		}
		end, err := parseMinutes(window.End)
		if err != nil {
			return nil, domain.Configurationf("working_hours", "day %d: %v", window.Day, err)
		}
		calendar.Windows = append(calendar.Windows, domain.Window{Day: window.Day, Start: start, End: end})
	}
	for i, interval := range cfg.Breaks {
		start, err := parseMinutes(interval.Start)
		if err != nil {
			return nil, domain.Configurationf("breaks", "break %d: %v", i, err)
		}
		end, err := parseMinutes(interval.End)
		if err != nil {
			return nil, domain.Configurationf("breaks", "break %d: %v", i, err)
		}
		day := -1
		if interval.Day != nil {
			day = *interval.Day
		}
		calendar.Breaks = append(calendar.Breaks, domain.Break{Day: day, Start: start, End: end})
	}

	rooms := make([]domain.Room, 0, len(cfg.Rooms))
	for _, room := range cfg.Rooms {
		roomType, err := domain.ParseRoomType(room.Type)
		if err != nil {
			return nil, domain.Configurationf("rooms", "room %q: %v", room.ID, err)
		}
		features := make(map[string]bool, len(room.Features))
		for _, feature := range room.Features {
			features[feature] = true
		}
		rooms = append(rooms, domain.Room{
			ID:       room.ID,
			Type:     roomType,
			Capacity: room.Capacity,
			Features: features,
		})
	}

	professors := make([]domain.Professor, 0, len(cfg.Professors))
	for _, professor := range cfg.Professors {
		subjects := make(map[string]bool, len(professor.Subjects))
		for _, subject := range professor.Subjects {
			subjects[subject] = true
		}
		availability := make(map[domain.SlotRef]bool)
		for _, window := range professor.Availability {
			for _, slot := range window.Slots {
				if slot < 0 {
					return nil, domain.Configurationf("professors", "professor %q: negative slot index %d", professor.ID, slot)
				}
				availability[domain.SlotRef{Day: window.Day, Slot: slot}] = true
			}
		}
		professors = append(professors, domain.Professor{
			ID:           professor.ID,
			Subjects:     subjects,
			Availability: availability,
			MaxHoursDay:  professor.MaxHoursDay,
			MaxHoursWeek: professor.MaxHoursWeek,
		})
	}

	groups := make([]domain.StudentGroup, 0, len(cfg.Groups))
	for _, group := range cfg.Groups {
		groups = append(groups, domain.StudentGroup{
			ID:       group.ID,
			Size:     group.Size,
			ParentID: group.ParentID,
		})
	}

	sessions := make([]domain.Session, 0, len(cfg.Sessions))
	for _, session := range cfg.Sessions {
		sessionType, err := domain.ParseSessionType(session.Type)
		if err != nil {
			return nil, domain.Configurationf("sessions", "session %q: %v", session.ID, err)
		}
		roomType, err := domain.ParseRoomType(session.RoomRequirements.Type)
		if err != nil {
			return nil, domain.Configurationf("sessions", "session %q: %v", session.ID, err)
		}
		frequency, err := domain.ParseFrequency(session.Frequency)
		if err != nil {
			return nil, domain.Configurationf("sessions", "session %q: %v", session.ID, err)
		}
		sessions = append(sessions, domain.Session{
			ID:               session.ID,
			Type:             sessionType,
			Subject:          session.Subject,
			RoomType:         roomType,
			RequiredFeatures: session.RoomRequirements.Features,
			Duration:         session.Duration,
			Frequency:        frequency,
			ProfessorID:      session.ProfessorID,
			GroupIDs:         session.GroupIDs,
			Priority:         session.Priority,
		})
	}

	return domain.NewModel(calendar, rooms, professors, groups, sessions)
}

// parseMinutes converts "HH:MM" to minutes from midnight.
func parseMinutes(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hours*60 + minutes, nil
}
