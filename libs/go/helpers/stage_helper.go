package helpers

import (
	"fmt"

	"github.com/cyphera/cyphera-delegation/libs/go/constants"
)

// Stage constants define the possible deployment/runtime environments.
const (
	StageProd  = constants.ProdEnvironment
	StageDev   = constants.DevEnvironment
	StageLocal = constants.LocalEnvironment
)

// IsValidStage checks if the provided stage string is one of the defined valid stages.
func IsValidStage(stage string) bool {
	switch stage {
	case StageProd, StageDev, StageLocal:
		return true
	default:
		return false
	}
}

// ResolveStage returns the stage to run under. An empty value means local.
func ResolveStage(stage string) (string, error) {
	if stage == "" {
		return StageLocal, nil
	}
	if !IsValidStage(stage) {
		return "", fmt.Errorf("invalid STAGE %q: must be one of %s, %s, %s", stage, StageProd, StageDev, StageLocal)
	}
	return stage, nil
}
