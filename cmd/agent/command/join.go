package command

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/calls"
	"github.com/medsync-org/medsync/config"
	"github.com/medsync-org/medsync/signaling"
)

var (
	sessionId string
	peerId    string
	role      string
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join a call session and stream local capture devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(func(relay signaling.Relay, cfg *config.Config, logger *zap.SugaredLogger) error {
			session := calls.NewSession(calls.SessionParams{
				SessionId:   sessionId,
				SelfId:      peerId,
				Role:        calls.Role(role),
				Relay:       relay,
				Media:       calls.NewDeviceMediaProvider(logger),
				StunServers: strings.Split(cfg.StunServers, ","),
				Logger:      logger,
				OnError: func(err error) {
					logger.Errorw("call failed", "sessionId", sessionId, "error", err)
				},
				OnStateChange: func(state calls.State) {
					logger.Infow("call state changed", "sessionId", sessionId, "state", state)
				},
			})

			if err := session.Setup(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			session.Hangup()
			return nil
		})
	},
}

func init() {
	joinCmd.Flags().StringVar(&sessionId, "session", "", "Call session id")
	joinCmd.Flags().StringVar(&peerId, "peer-id", "", "Identity to sign signaling messages with")
	joinCmd.Flags().StringVar(&role, "role", string(calls.RoleCallee), "caller or callee")
	_ = joinCmd.MarkFlagRequired("session")
	_ = joinCmd.MarkFlagRequired("peer-id")
	rootCmd.AddCommand(joinCmd)
}
