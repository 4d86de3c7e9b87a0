package deploy

// ModelKind is the training task a model was produced by.
type ModelKind string

const (
	KindGenerate ModelKind = "generate"
	KindClassify ModelKind = "classify"
	KindDetect   ModelKind = "detect"
)

// Servable reports whether models of this kind can be brought up locally.
// Only generative models ship a serving stack.
func (k ModelKind) Servable() bool { return k == KindGenerate }

// DesiredState is the caller's intent for a target.
type DesiredState string

const (
	DesiredUp   DesiredState = "up"
	DesiredDown DesiredState = "down"
)

// DeploymentTarget identifies one servable model and what the caller wants for it.
type DeploymentTarget struct {
	ModelName    string
	ModelKind    ModelKind
	DesiredState DesiredState
}

// Phase is the observed lifecycle phase of a stack.
type Phase string

const (
	PhaseAbsent   Phase = "absent"
	PhaseStarting Phase = "starting"
	PhaseReady    Phase = "ready"
	PhaseStopping Phase = "stopping"
	PhaseFailed   Phase = "failed"
)

var transitions = map[Phase][]Phase{
	PhaseAbsent:   {PhaseStarting},
	// Starting->Stopping covers a stack launched by another process that is
	// torn down before it finished loading.
	PhaseStarting: {PhaseReady, PhaseFailed, PhaseStopping},
	PhaseReady:    {PhaseStopping},
	PhaseStopping: {PhaseAbsent, PhaseFailed},
	PhaseFailed:   {PhaseStarting, PhaseStopping},
}

// CanTransition reports whether moving from p to next is a legal step.
func (p Phase) CanTransition(next Phase) bool {
	for _, n := range transitions[p] {
		if n == next {
			return true
		}
	}
	return false
}

// DeploymentStatus is the observed state of a model's stack.
// Endpoint is set if and only if Phase is PhaseReady; statuses are only
// built through the constructors below to keep that invariant.
type DeploymentStatus struct {
	Model     string `json:"model"`
	Phase     Phase  `json:"phase"`
	Endpoint  string `json:"endpoint,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Ready reports whether the stack answers inference requests.
func (s DeploymentStatus) Ready() bool { return s.Phase == PhaseReady && s.Endpoint != "" }

func absentStatus(model string) DeploymentStatus {
	return DeploymentStatus{Model: model, Phase: PhaseAbsent}
}

func transientStatus(model string, phase Phase) DeploymentStatus {
	return DeploymentStatus{Model: model, Phase: phase}
}

func readyStatus(model, endpoint string) DeploymentStatus {
	return DeploymentStatus{Model: model, Phase: PhaseReady, Endpoint: endpoint}
}

func failedStatus(model string, err error) DeploymentStatus {
	s := DeploymentStatus{Model: model, Phase: PhaseFailed}
	if err != nil {
		s.LastError = err.Error()
	}
	return s
}
