// Package catalog holds the consular fee schedule and service descriptions.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"consular/internal/domain"
	"consular/pkg/errors"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed fees.yaml
var defaultSchedule []byte

type ServiceInfo struct {
	Type        domain.ServiceType `yaml:"type" json:"type"`
	Name        string             `yaml:"name" json:"name"`
	Description string             `yaml:"description" json:"description"`
}

// Quote is the fee for one passport selection.
type Quote struct {
	PassportType   domain.PassportType    `json:"passport_type"`
	Speed          domain.ProcessingSpeed `json:"processing_speed"`
	Amount         decimal.Decimal        `json:"amount"`
	Currency       string                 `json:"currency"`
	ProcessingDays int                    `json:"processing_days"`
}

type Schedule struct {
	currency   string
	services   []ServiceInfo
	processing map[domain.ProcessingSpeed]int
	passport   map[domain.PassportType]map[domain.ProcessingSpeed]decimal.Decimal
}

type scheduleFile struct {
	Currency   string                       `yaml:"currency"`
	Services   []ServiceInfo                `yaml:"services"`
	Processing map[string]int               `yaml:"processing"`
	Passport   map[string]map[string]string `yaml:"passport"`
}

// Default returns the schedule compiled into the binary.
func Default() *Schedule {
	s, err := Parse(defaultSchedule)
	if err != nil {
		panic(fmt.Sprintf("embedded fee schedule: %v", err))
	}
	return s
}

// Parse reads a YAML fee schedule. Amounts are decimal strings and must not be negative.
func Parse(data []byte) (*Schedule, error) {
	var f scheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fee schedule: %w", err)
	}
	if strings.TrimSpace(f.Currency) == "" {
		return nil, fmt.Errorf("fee schedule has no currency")
	}

	s := &Schedule{
		currency:   strings.ToUpper(f.Currency),
		services:   f.Services,
		processing: make(map[domain.ProcessingSpeed]int, len(f.Processing)),
		passport:   make(map[domain.PassportType]map[domain.ProcessingSpeed]decimal.Decimal, len(f.Passport)),
	}
	for speed, days := range f.Processing {
		s.processing[domain.ProcessingSpeed(speed)] = days
	}
	for pt, speeds := range f.Passport {
		row := make(map[domain.ProcessingSpeed]decimal.Decimal, len(speeds))
		for speed, raw := range speeds {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("fee %s/%s: %w", pt, speed, err)
			}
			if amount.IsNegative() {
				return nil, fmt.Errorf("fee %s/%s is negative", pt, speed)
			}
			row[domain.ProcessingSpeed(speed)] = amount
		}
		s.passport[domain.PassportType(pt)] = row
	}
	return s, nil
}

func (s *Schedule) Currency() string {
	return s.currency
}

func (s *Schedule) Services() []ServiceInfo {
	return append([]ServiceInfo(nil), s.services...)
}

// Quote prices a passport application.
func (s *Schedule) Quote(pt domain.PassportType, speed domain.ProcessingSpeed) (Quote, error) {
	amount, ok := s.passport[pt][speed]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s/%s", errors.ErrFeeNotFound, pt, speed)
	}
	return Quote{
		PassportType:   pt,
		Speed:          speed,
		Amount:         amount,
		Currency:       s.currency,
		ProcessingDays: s.processing[speed],
	}, nil
}
