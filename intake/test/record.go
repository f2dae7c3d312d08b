package test

import (
	"github.com/medsync-org/medsync/intake"
	"github.com/medsync-org/medsync/pointer"
	"github.com/medsync-org/medsync/test"
)

func RandomRecord(patientId string) intake.Record {
	return intake.Record{
		Id:                pointer.FromAny(patientId),
		PatientId:         pointer.FromAny(patientId),
		IsCompleted:       pointer.FromAny(test.Rand.Intn(2) == 0),
		Allergies:         pointer.FromAny([]string{test.Faker.Lorem().Word()}),
		Medications:       pointer.FromAny([]string{test.Faker.Lorem().Word()}),
		ChronicConditions: pointer.FromAny([]string{test.Faker.Lorem().Word()}),
		BloodType:         pointer.FromAny("O+"),
		Notes:             pointer.FromAny(test.Faker.Lorem().Sentence(5)),
	}
}
