// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the vidfolio daemon configuration.
//
// Precedence is ENV > file > defaults. The YAML file is decoded strictly: unknown
// keys are rejected. Environment variables use the VIDFOLIO_ prefix.
package config
