// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

type Config struct {
	MaxConcurrentPDFs int            `yaml:"max_concurrent_pdfs" validate:"min=1,max=10"`
	MaxWorkersPerPDF  int            `yaml:"max_workers_per_pdf" validate:"min=1,max=10"`
	PageTimeout       time.Duration  `yaml:"page_timeout" validate:"required"`
	ParsingMode       ParsingMode    `yaml:"parsing_mode" validate:"oneof=strict best-effort"`
	GroupText         bool           `yaml:"group_text"`
	WordMargin        float64        `yaml:"word_margin" validate:"gt=0"`
	DebugOn           bool           `yaml:"debug"`
	Logger            logger.LogFunc `yaml:"-"`
	Substitute        SubstituteFunc `yaml:"-"`
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentPDFs: 5,
		MaxWorkersPerPDF:  1,
		PageTimeout:       30 * time.Second,
		ParsingMode:       BestEffort,
		GroupText:         true,
		WordMargin:        DefaultWordMargin,
		DebugOn:           false,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}

// LayoutOptions returns the layout settings of cfg.
func (cfg *Config) LayoutOptions() LayoutOptions {
	return LayoutOptions{
		GroupText:  cfg.GroupText,
		WordMargin: cfg.WordMargin,
		Substitute: cfg.Substitute,
	}
}

// LoadConfig reads a YAML configuration file on top of NewDefaultConfig
// and validates the result. Durations use Go syntax, e.g. "30s".
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig for YAML already in memory.
func ParseConfig(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
