package main

import (
	"sync"

	"go.uber.org/zap"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/control"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/runner"
)

type ScriptRunnerServiceServer struct {
	apiv1.UnimplementedScriptRunnerServiceServer
	controller *control.Controller
	runner     *runner.Runner
	signalPath string
	logger     *zap.SugaredLogger

	mu        sync.RWMutex
	ownersMap map[string]string
}

func NewScriptRunnerServiceServer(c *control.Controller, r *runner.Runner, signalPath string) *ScriptRunnerServiceServer {
	return &ScriptRunnerServiceServer{
		controller: c,
		runner:     r,
		signalPath: signalPath,
		logger:     logging.ComponentLogger("server"),
		ownersMap:  make(map[string]string),
	}
}

// setOwner records owner for id and forgets owners of runs the runner no longer remembers.
func (s *ScriptRunnerServiceServer) setOwner(id, owner string) {
	known := make(map[string]bool)
	for _, st := range s.runner.List() {
		known[st.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.ownersMap {
		if !known[k] {
			delete(s.ownersMap, k)
		}
	}
	s.ownersMap[id] = owner
}
