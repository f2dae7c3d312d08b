package test

import (
	"math/rand"

	"github.com/jaswdr/faker"
	"github.com/onsi/ginkgo/v2"
)

// Randomness is seeded from ginkgo so failures reproduce with --seed.
var (
	Source = rand.NewSource(ginkgo.GinkgoRandomSeed())
	Rand   = rand.New(Source)
	Faker  = faker.NewWithSeed(Source)
)
