// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package models defines the persisted entities of the election service.
package models
