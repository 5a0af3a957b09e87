// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"github.com/go-playground/validator/v10"

	"github.com/herryqg/pdf-parser/logger"
)

type Config struct {
	MaxConcurrentPages int            `validate:"min=1,max=64"`
	Verbosity          int            `validate:"min=0,max=3"`
	GeometryOrigin     GeometryOrigin `validate:"oneof=top-down bottom-up"`
	AutoInsertFloor    int            `validate:"min=33,max=255"`
	Logger             logger.LogFunc
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentPages: 8,
		Verbosity:          1,
		GeometryOrigin:     OriginTopDown,
		AutoInsertFloor:    0xB0,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}
