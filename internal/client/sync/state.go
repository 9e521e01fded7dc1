package sync

// Phase: фаза цикла синхронизации
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseProbing
	PhasePushing
	PhasePulling
	PhaseReconciling
	PhaseReplayingLogins
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseProbing:
		return "probing"
	case PhasePushing:
		return "pushing"
	case PhasePulling:
		return "pulling"
	case PhaseReconciling:
		return "reconciling deletions"
	case PhaseReplayingLogins:
		return "replaying offline logins"
	default:
		return "unknown"
	}
}
