package nn

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
)

// Expected model interface. Exported with input_names=["state"] and
// output_names=["policy", "value"]; policy is 1024 logits over the
// move-index space, value a single scalar in (-1, 1).
const (
	onnxInputName  = "state"
	onnxPolicyName = "policy"
	onnxValueName  = "value"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// initRuntime loads the onnxruntime shared library once per process.
// ONNXRUNTIME_SHARED_LIBRARY_PATH overrides the default library name.
func initRuntime() error {
	ortOnce.Do(func() {
		if p := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); p != "" {
			ort.SetSharedLibraryPath(p)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			ortErr = fmt.Errorf("InitializeEnvironment: %w", err)
		}
	})
	return ortErr
}

// Session wraps one ONNX inference session with pre-bound input and
// output tensors. The bound tensors make Run zero-allocation but also
// stateful, so calls are serialized with a mutex; use one Session per
// concurrent game for parallel self-play.
type Session struct {
	mu   sync.Mutex
	sess *ort.AdvancedSession

	in   *ort.Tensor[float32]
	outP *ort.Tensor[float32]
	outV *ort.Tensor[float32]
}

// NewSession loads the model at path and binds the I/O tensors.
func NewSession(path string) (*Session, error) {
	if err := initRuntime(); err != nil {
		return nil, err
	}

	in, err := ort.NewTensor(ort.NewShape(1, FeatPlanes, GridRanks, GridFiles),
		make([]float32, FeatSize))
	if err != nil {
		return nil, err
	}
	outP, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(dama.ActionSpace)))
	if err != nil {
		in.Destroy()
		return nil, err
	}
	outV, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		in.Destroy()
		outP.Destroy()
		return nil, err
	}

	sess, err := ort.NewAdvancedSession(path,
		[]string{onnxInputName}, []string{onnxPolicyName, onnxValueName},
		[]ort.Value{in}, []ort.Value{outP, outV}, nil)
	if err != nil {
		in.Destroy()
		outP.Destroy()
		outV.Destroy()
		return nil, fmt.Errorf("NewAdvancedSession: %w", err)
	}

	return &Session{sess: sess, in: in, outP: outP, outV: outV}, nil
}

// Infer runs the network on state. The returned policy slice is owned
// by the caller; logits come back raw, masking and normalization over
// legal moves happen in the search.
func (s *Session) Infer(state dama.Position, history []dama.Position) ([]float32, float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	Encode(state, history, s.in.GetData())
	if err := s.sess.Run(); err != nil {
		return nil, 0, fmt.Errorf("onnx run: %w", err)
	}

	policy := make([]float32, dama.ActionSpace)
	copy(policy, s.outP.GetData())
	return policy, s.outV.GetData()[0], nil
}

// Close destroys the session and its tensors.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess != nil {
		s.sess.Destroy()
		s.sess = nil
	}
	if s.in != nil {
		s.in.Destroy()
	}
	if s.outP != nil {
		s.outP.Destroy()
	}
	if s.outV != nil {
		s.outV.Destroy()
	}
}
