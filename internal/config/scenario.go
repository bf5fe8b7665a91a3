package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"transit-demand/internal/itinerary"
)

// Scenario describes one study area: where its input files live, where the
// outputs go, and the constants of the demand model.
type Scenario struct {
	Name   string                `yaml:"name"`
	Inputs Inputs                `yaml:"inputs"`
	Output string                `yaml:"output_dir"`
	Policy itinerary.ScorePolicy `yaml:"policy"`
	Walk   Walk                  `yaml:"walk"`
	Demand Demand                `yaml:"demand"`
	Fleet  string                `yaml:"fleet" validate:"required"`
}

type Inputs struct {
	Network     string `yaml:"network"`
	Stops       string `yaml:"stops"`
	Trips       string `yaml:"trips"`
	Matrix      string `yaml:"matrix"`
	Houses      string `yaml:"houses"`
	Attractions string `yaml:"attractions"`
	TripInfo    string `yaml:"tripinfo"`
	Statistics  string `yaml:"statistics"`
}

type Walk struct {
	Speed   float64 `yaml:"speed" validate:"gte=0"`
	MaxDist float64 `yaml:"max_distance" validate:"gte=0"`
}

type Demand struct {
	LocalArea        float64 `yaml:"local_area" validate:"gte=0"`
	DistrictArea     float64 `yaml:"district_area" validate:"gte=0"`
	LocalName        string  `yaml:"local_name"`
	DistrictName     string  `yaml:"district_name"`
	LocalKey         string  `yaml:"local_key"`
	DistrictKey      string  `yaml:"district_key"`
	ActivityDuration float64 `yaml:"activity_duration" validate:"gte=0"`
	StartHour        int     `yaml:"start_hour" validate:"gte=0,lte=23"`
}

// DefaultScenario carries the constants of the reference study area.
func DefaultScenario() Scenario {
	return Scenario{
		Output: "results",
		Policy: itinerary.DefaultPolicy(),
		Walk:   Walk{Speed: itinerary.DefaultWalkSpeed, MaxDist: itinerary.DefaultMaxWalk},
		Demand: Demand{
			LocalArea:        7825.4,
			DistrictArea:     22925.227,
			LocalName:        "Local Center",
			DistrictName:     "District Center",
			LocalKey:         "local",
			DistrictKey:      "district",
			ActivityDuration: 1140,
			StartHour:        6,
		},
		Fleet: "drt",
	}
}

// ParseScenario decodes YAML over the defaults and validates the result.
func ParseScenario(data []byte) (*Scenario, error) {
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	v := validator.New()
	if err := v.Struct(sc); err != nil {
		return nil, fmt.Errorf("validate scenario: %w", err)
	}
	if sc.Policy == (itinerary.ScorePolicy{}) {
		sc.Policy = itinerary.DefaultPolicy()
	}
	return &sc, nil
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}
