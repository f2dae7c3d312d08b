package patients_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/patients"
	patientsTest "github.com/medsync-org/medsync/patients/test"
	"github.com/medsync-org/medsync/pointer"
	storeTest "github.com/medsync-org/medsync/store/test"
)

var _ = Describe("Patients Repository", func() {
	var repo patients.Repository
	var database *mongo.Database

	BeforeEach(func() {
		var err error
		database = storeTest.GetTestDatabase()
		lifecycle := fxtest.NewLifecycle(GinkgoT())
		repo, err = patients.NewRepository(database, zap.NewNop().Sugar(), lifecycle)
		Expect(err).ToNot(HaveOccurred())
		Expect(repo).ToNot(BeNil())
		lifecycle.RequireStart()
	})

	AfterEach(func() {
		Expect(database.Collection(patients.CollectionName).Drop(context.Background())).To(Succeed())
	})

	Describe("Create", func() {
		It("creates a patient that can be fetched by user id", func() {
			patient := patientsTest.RandomPatient()

			created, err := repo.Create(context.Background(), patient)
			Expect(err).ToNot(HaveOccurred())
			Expect(created.Id).ToNot(BeNil())

			found, err := repo.Get(context.Background(), *patient.UserId)
			Expect(err).ToNot(HaveOccurred())
			Expect(found.FullName).To(Equal(patient.FullName))
			Expect(found.BloodType).To(Equal(patient.BloodType))
		})

		It("returns a duplicate error when the user id is taken", func() {
			patient := patientsTest.RandomPatient()
			_, err := repo.Create(context.Background(), patient)
			Expect(err).ToNot(HaveOccurred())

			_, err = repo.Create(context.Background(), patient)
			Expect(err).To(MatchError(patients.ErrDuplicate))
		})

		It("requires a user id", func() {
			patient := patientsTest.RandomPatient()
			patient.UserId = nil

			_, err := repo.Create(context.Background(), patient)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Get", func() {
		It("returns a not found error for unknown patients", func() {
			_, err := repo.Get(context.Background(), "unknown")
			Expect(err).To(MatchError(patients.ErrNotFound))
		})
	})

	Describe("Update", func() {
		It("sets only the fields carried by the update", func() {
			patient := patientsTest.RandomPatient()
			_, err := repo.Create(context.Background(), patient)
			Expect(err).ToNot(HaveOccurred())

			updated, err := repo.Update(context.Background(), *patient.UserId, patients.Patient{
				BloodType: pointer.FromAny("AB-"),
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.BloodType).To(Equal(pointer.FromAny("AB-")))
			Expect(updated.FullName).To(Equal(patient.FullName))
		})

		It("returns a not found error for unknown patients", func() {
			_, err := repo.Update(context.Background(), "unknown", patients.Patient{
				BloodType: pointer.FromAny("O+"),
			})
			Expect(err).To(MatchError(patients.ErrNotFound))
		})
	})
})
