package test

import (
	"time"

	"github.com/medsync-org/medsync/accounts"
	"github.com/medsync-org/medsync/pointer"
	"github.com/medsync-org/medsync/test"
)

func RandomAccount() accounts.Account {
	return accounts.Account{
		UserId:    pointer.FromAny(test.Faker.UUID().V4()),
		FullName:  pointer.FromAny(test.Faker.Person().Name()),
		Email:     pointer.FromAny(test.Faker.Internet().Email()),
		BirthDate: pointer.FromAny(test.Faker.Time().ISO8601(time.Now())[:10]),
		Phone:     pointer.FromAny(test.Faker.Phone().Number()),
		Role:      pointer.FromAny("patient"),
	}
}
