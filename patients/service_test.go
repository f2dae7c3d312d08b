package patients_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/accounts"
	accountsTest "github.com/medsync-org/medsync/accounts/test"
	"github.com/medsync-org/medsync/patients"
	"github.com/medsync-org/medsync/pointer"
)

var _ = Describe("Service", func() {
	var repo *fakeRepository
	var accountsRepo *fakeAccounts
	var service patients.Service

	BeforeEach(func() {
		repo = newFakeRepository()
		accountsRepo = &fakeAccounts{accounts: map[string]*accounts.Account{}}

		var err error
		service, err = patients.NewService(patients.Params{
			Repo:     repo,
			Accounts: accountsRepo,
			Logger:   zap.NewNop().Sugar(),
		})
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("EnsureExists", func() {
		It("creates the clinical record from the account document", func() {
			account := accountsTest.RandomAccount()
			accountsRepo.accounts[*account.UserId] = &account

			Expect(service.EnsureExists(context.Background(), *account.UserId)).To(Succeed())

			created := repo.patients[*account.UserId]
			Expect(created).ToNot(BeNil())
			Expect(created.FullName).To(Equal(account.FullName))
			Expect(created.Email).To(Equal(account.Email))
			Expect(created.BirthDate).To(Equal(account.BirthDate))
			Expect(created.Mrn).To(BeNil())
		})

		It("leaves an existing clinical record untouched", func() {
			existing := patients.Patient{
				UserId:   pointer.FromAny("patient-1"),
				FullName: pointer.FromAny("Existing Name"),
			}
			repo.patients["patient-1"] = &existing

			Expect(service.EnsureExists(context.Background(), "patient-1")).To(Succeed())

			Expect(repo.creates).To(Equal(0))
			Expect(*repo.patients["patient-1"].FullName).To(Equal("Existing Name"))
		})

		It("fails when the account document is missing", func() {
			err := service.EnsureExists(context.Background(), "patient-1")
			Expect(err).To(MatchError(accounts.ErrNotFound))
		})

		It("tolerates a concurrent create of the same record", func() {
			account := accountsTest.RandomAccount()
			accountsRepo.accounts[*account.UserId] = &account
			repo.createErr = patients.ErrDuplicate

			Expect(service.EnsureExists(context.Background(), *account.UserId)).To(Succeed())
		})

		It("propagates lookup failures", func() {
			repo.getErr = errors.New("database unavailable")

			err := service.EnsureExists(context.Background(), "patient-1")
			Expect(err).To(MatchError(repo.getErr))
		})
	})

	Describe("ApplyIntake", func() {
		It("cascades the intake answers into the clinical record", func() {
			repo.patients["patient-1"] = &patients.Patient{UserId: pointer.FromAny("patient-1")}

			update := patients.IntakeUpdate{
				Allergies: pointer.FromAny([]string{"penicillin"}),
				BloodType: pointer.FromAny("AB+"),
			}
			Expect(service.ApplyIntake(context.Background(), "patient-1", update)).To(Succeed())

			Expect(repo.patients["patient-1"].Allergies).To(Equal(update.Allergies))
			Expect(repo.patients["patient-1"].BloodType).To(Equal(update.BloodType))
		})

		It("fails when the clinical record does not exist", func() {
			err := service.ApplyIntake(context.Background(), "patient-1", patients.IntakeUpdate{})
			Expect(err).To(MatchError(patients.ErrNotFound))
		})
	})
})

type fakeRepository struct {
	patients  map[string]*patients.Patient
	creates   int
	getErr    error
	createErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{patients: map[string]*patients.Patient{}}
}

func (f *fakeRepository) Get(_ context.Context, userId string) (*patients.Patient, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	patient, ok := f.patients[userId]
	if !ok {
		return nil, patients.ErrNotFound
	}
	return patient, nil
}

func (f *fakeRepository) Create(_ context.Context, patient patients.Patient) (*patients.Patient, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.creates++
	f.patients[*patient.UserId] = &patient
	return &patient, nil
}

func (f *fakeRepository) Update(_ context.Context, userId string, update patients.Patient) (*patients.Patient, error) {
	patient, ok := f.patients[userId]
	if !ok {
		return nil, patients.ErrNotFound
	}
	if update.Allergies != nil {
		patient.Allergies = update.Allergies
	}
	if update.Medications != nil {
		patient.Medications = update.Medications
	}
	if update.ChronicConditions != nil {
		patient.ChronicConditions = update.ChronicConditions
	}
	if update.BloodType != nil {
		patient.BloodType = update.BloodType
	}
	return patient, nil
}

func (f *fakeRepository) Watch(_ context.Context, _ string) (<-chan bson.M, func(), error) {
	ch := make(chan bson.M)
	return ch, func() {}, nil
}

type fakeAccounts struct {
	accounts map[string]*accounts.Account
}

func (f *fakeAccounts) Get(_ context.Context, userId string) (*accounts.Account, error) {
	account, ok := f.accounts[userId]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	return account, nil
}

func (f *fakeAccounts) Update(_ context.Context, userId string, account accounts.Account) (*accounts.Account, error) {
	f.accounts[userId] = &account
	return &account, nil
}

func (f *fakeAccounts) Watch(_ context.Context, _ string) (<-chan bson.M, func(), error) {
	ch := make(chan bson.M)
	return ch, func() {}, nil
}
