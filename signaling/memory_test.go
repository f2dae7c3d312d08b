package signaling_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/medsync-org/medsync/signaling"
)

var _ = Describe("MemoryRelay", func() {
	var relay signaling.Relay

	BeforeEach(func() {
		relay = signaling.NewMemoryRelay()
	})

	It("delivers messages to every subscriber of a session, including the author", func() {
		first, cancelFirst, err := relay.Subscribe(context.Background(), "session-1")
		Expect(err).ToNot(HaveOccurred())
		defer cancelFirst()
		second, cancelSecond, err := relay.Subscribe(context.Background(), "session-1")
		Expect(err).ToNot(HaveOccurred())
		defer cancelSecond()

		message := signaling.Message{
			Type:    signaling.MessageTypeOffer,
			From:    "peer-a",
			Payload: json.RawMessage(`{"sdp":""}`),
		}
		Expect(relay.Publish(context.Background(), "session-1", message)).To(Succeed())

		Eventually(first).Should(Receive(Equal(message)))
		Eventually(second).Should(Receive(Equal(message)))
	})

	It("keeps sessions isolated", func() {
		other, cancel, err := relay.Subscribe(context.Background(), "session-2")
		Expect(err).ToNot(HaveOccurred())
		defer cancel()

		message := signaling.Message{Type: signaling.MessageTypeHangup, From: "peer-a"}
		Expect(relay.Publish(context.Background(), "session-1", message)).To(Succeed())

		Consistently(other).ShouldNot(Receive())
	})

	It("survives a cancel racing an in-flight publish", func() {
		messages, cancel, err := relay.Subscribe(context.Background(), "session-1")
		Expect(err).ToNot(HaveOccurred())

		// Stall the subscriber until its buffer is full, then keep
		// publishing; delivery must degrade to drops, never block.
		for i := 0; i < 70; i++ {
			Expect(relay.Publish(context.Background(), "session-1", signaling.Message{
				Type: signaling.MessageTypeCandidate,
				From: "peer-a",
			})).To(Succeed())
		}

		cancel()

		Expect(relay.Publish(context.Background(), "session-1", signaling.Message{
			Type: signaling.MessageTypeHangup,
			From: "peer-a",
		})).To(Succeed())

		received := 0
		for range messages {
			received++
		}
		Expect(received).To(BeNumerically("<=", 64))
	})

	It("stops delivery after cancel", func() {
		messages, cancel, err := relay.Subscribe(context.Background(), "session-1")
		Expect(err).ToNot(HaveOccurred())

		cancel()
		cancel()

		Expect(relay.Publish(context.Background(), "session-1", signaling.Message{
			Type: signaling.MessageTypeHangup,
			From: "peer-a",
		})).To(Succeed())
		Eventually(messages).Should(BeClosed())
	})
})
