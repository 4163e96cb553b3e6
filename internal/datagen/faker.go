//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package datagen provides data generation utilities.
package datagen

import (
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Faker provides seeded fake data generation using gofakeit.
//
// gofakeit and the normal-variate generator draw from the same PCG
// source, so a Faker built from a given seed always yields the same
// sequence for the same sequence of calls.
type Faker struct {
	faker *gofakeit.Faker
	rng   *rand.Rand
}

// NewFaker creates a new Faker with a random seed.
func NewFaker() *Faker {
	return NewFakerWithSeed(uint64(time.Now().UnixNano()))
}

// NewFakerWithSeed creates a new Faker with a specific seed for reproducibility.
func NewFakerWithSeed(seed uint64) *Faker {
	src := rand.NewPCG(seed, seed)
	return &Faker{
		faker: gofakeit.NewFaker(src, false),
		rng:   rand.New(src),
	}
}

// Int generates a random integer between min and max (inclusive).
func (f *Faker) Int(min, max int) int {
	return f.faker.IntRange(min, max)
}

// Float64 generates a random float64 in [min, max).
func (f *Faker) Float64(min, max float64) float64 {
	return f.faker.Float64Range(min, max)
}

// Normal draws from a normal distribution with the given mean and
// standard deviation. A zero stddev returns mean without consuming
// randomness.
func (f *Faker) Normal(mean, stddev float64) float64 {
	if stddev == 0 {
		return mean
	}
	return mean + stddev*f.rng.NormFloat64()
}

// Chance returns true with probability p.
func (f *Faker) Chance(p float64) bool {
	return f.Float64(0, 1) < p
}

// Date generates a random time within a range.
func (f *Faker) Date(start, end time.Time) time.Time {
	return f.faker.DateRange(start, end)
}

// Choose returns a random element from the given slice.
func Choose[T any](f *Faker, items []T) T {
	if len(items) == 0 {
		var zero T
		return zero
	}
	return items[f.Int(0, len(items)-1)]
}

// ChooseWeighted returns a random element based on weights.
func ChooseWeighted[T any](f *Faker, items []T, weights []int) T {
	if len(items) == 0 || len(weights) == 0 {
		var zero T
		return zero
	}

	totalWeight := 0
	for _, w := range weights {
		totalWeight += w
	}

	r := f.Int(1, totalWeight)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return items[i]
		}
	}

	return items[len(items)-1]
}

// Sample returns k distinct elements of items in draw order. If k exceeds
// len(items) every element is returned. items is not modified.
func Sample[T any](f *Faker, items []T, k int) []T {
	pool := make([]T, len(items))
	copy(pool, items)
	k = min(k, len(pool))

	// Partial Fisher-Yates
	for i := 0; i < k; i++ {
		j := f.Int(i, len(pool)-1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
