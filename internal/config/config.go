// config.go
//
// A test case management data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of testcasedb.
// testcasedb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// testcasedb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with testcasedb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Allocator strategies for test case codes.
const (
	AllocatorCounter = "counter"
	AllocatorMax     = "max"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port           string
	Env            string
	LogLevel       string
	UploadMaxBytes int

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Auth configuration
	JWTSecret string

	// Domain configuration
	IDAllocator     string
	ActivityTimeout time.Duration
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load loads configuration from the environment. When envFile is non-empty it
// is read first with godotenv; variables already set in the environment win.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:              v.GetString("PORT"),
		Env:               strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:          v.GetString("LOG_LEVEL"),
		UploadMaxBytes:    v.GetInt("UPLOAD_MAX_BYTES"),
		DBType:            strings.ToLower(v.GetString("DB_TYPE")),
		DBHost:            v.GetString("DB_HOST"),
		DBPort:            v.GetString("DB_PORT"),
		DBDatabase:        v.GetString("DB_DATABASE"),
		DBUser:            v.GetString("DB_USER"),
		DBPassword:        v.GetString("DB_PASSWORD"),
		DBConnectionLimit: v.GetInt("DB_CONNECTION_LIMIT"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		IDAllocator:       strings.ToLower(v.GetString("ID_ALLOCATOR")),
		ActivityTimeout:   v.GetDuration("ACTIVITY_TIMEOUT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("UPLOAD_MAX_BYTES", 10*1024*1024)
	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_CONNECTION_LIMIT", 5)
	v.SetDefault("ID_ALLOCATOR", AllocatorCounter)
	v.SetDefault("ACTIVITY_TIMEOUT", "5s")
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	switch c.IDAllocator {
	case AllocatorCounter, AllocatorMax:
	default:
		return fmt.Errorf("ID_ALLOCATOR must be %q or %q, got %q", AllocatorCounter, AllocatorMax, c.IDAllocator)
	}
	if c.DBConnectionLimit < 1 {
		c.DBConnectionLimit = 1
	}
	if c.ActivityTimeout <= 0 {
		c.ActivityTimeout = 5 * time.Second
	}
	return nil
}
