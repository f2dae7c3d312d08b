package test

import (
	"time"

	"github.com/medsync-org/medsync/patients"
	"github.com/medsync-org/medsync/pointer"
	"github.com/medsync-org/medsync/test"
)

var bloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func RandomPatient() patients.Patient {
	return patients.Patient{
		UserId:    pointer.FromAny(test.Faker.UUID().V4()),
		FullName:  pointer.FromAny(test.Faker.Person().Name()),
		Email:     pointer.FromAny(test.Faker.Internet().Email()),
		BirthDate: pointer.FromAny(test.Faker.Time().ISO8601(time.Now())[:10]),
		Mrn:       pointer.FromAny(test.Faker.UUID().V4()),
		BloodType: pointer.FromAny(bloodTypes[test.Rand.Intn(len(bloodTypes))]),
		Allergies: pointer.FromAny([]string{test.Faker.Lorem().Word()}),
	}
}
