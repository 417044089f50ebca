package policy

import (
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

// ResolveSendMode picks the mode for a send to a peer advertising
// peerMax as its highest supported mode.
//
// The configured mode is the starting point. If the peer supports more
// and AllowAutoUpgrade is set, the send upgrades to the peer's maximum.
// If the peer supports less than the configured mode, the send fails
// with IncompatiblePeerMode; resolution never downgrades, even above
// the floor, because a peer observed at a lower capability than
// configured is indistinguishable from a rollback attempt.
func ResolveSendMode(c Config, peerMax mode.Mode) (mode.Mode, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if !peerMax.IsValid() {
		return 0, qerrors.NewPolicyError("peer_mode", qerrors.ErrInvalidMode)
	}

	if peerMax < c.Mode {
		return 0, qerrors.NewPolicyError("peer_mode", qerrors.ErrIncompatiblePeerMode)
	}

	target := c.Mode
	if c.AllowAutoUpgrade && peerMax > target {
		target = peerMax
	}

	if !c.Mode.CanTransitionTo(target) {
		return 0, qerrors.NewPolicyError("transition", qerrors.ErrDowngradeRejected)
	}
	return target, nil
}
