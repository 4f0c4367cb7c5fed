package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/config"
	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/services"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

// Exit codes for the install and revoke commands
const (
	ExitOK       = 0
	ExitFailed   = 1
	ExitReverted = 2
)

// RunCLI performs op once using the environment configuration and prints a
// summary to out. It returns the process exit code.
func RunCLI(ctx context.Context, op config.Operation, verbose bool, out io.Writer) int {
	var options []services.WorkflowOption
	if verbose {
		options = append(options, services.WithEnvelopeHook(DumpEnvelope))
	}

	rt, err := Setup(ctx, op, options...)
	if err != nil {
		printError(out, err)
		return ExitFailed
	}
	defer rt.Close()

	return Execute(ctx, rt.Workflow, op, rt.Config.Request(op, rt.Owner.Address()), out)
}

// Execute runs one install or revoke and prints the outcome. A transaction
// still pending when the wait ends is not a failure.
func Execute(ctx context.Context, runner interfaces.DelegationRunner, op config.Operation, req business.DelegationRequest, out io.Writer) int {
	var (
		outcome *business.DelegationOutcome
		err     error
	)
	switch op {
	case config.OperationInstall:
		outcome, err = runner.Install(ctx, req)
	case config.OperationRevoke:
		outcome, err = runner.Revoke(ctx, req)
	default:
		err = apperrors.Newf(apperrors.KindConfiguration, "cli", "unsupported operation %q", op)
	}

	if outcome != nil {
		PrintOutcome(out, outcome)
	}
	if err != nil {
		printError(out, err)
		return ExitFailed
	}

	switch outcome.Status {
	case business.InclusionPending:
		fmt.Fprintln(out, "Transaction not yet mined, check the explorer later.")
	case business.InclusionReverted:
		return ExitReverted
	default:
		if verr := outcome.Verify(); verr != nil {
			fmt.Fprintf(out, "Warning: %v\n", verr)
			return ExitFailed
		}
	}
	return ExitOK
}

// PrintOutcome writes a human-readable summary of a delegation run.
func PrintOutcome(out io.Writer, outcome *business.DelegationOutcome) {
	fmt.Fprintf(out, "Owner:               %s\n", outcome.Owner.Hex())
	if outcome.FeePayer != outcome.Owner && outcome.FeePayer != (common.Address{}) {
		fmt.Fprintf(out, "Fee payer:           %s\n", outcome.FeePayer.Hex())
	}
	fmt.Fprintf(out, "Delegate:            %s\n", outcome.Delegate.Hex())
	fmt.Fprintf(out, "Authorization nonce: %d\n", outcome.AuthorizationNonce)
	fmt.Fprintf(out, "Transaction:         %s\n", outcome.TransactionHash.Hex())
	fmt.Fprintf(out, "Status:              %s\n", outcome.Status)
	if outcome.BlockNumber != 0 {
		fmt.Fprintf(out, "Block:               %d (gas used %d)\n", outcome.BlockNumber, outcome.GasUsed)
	}
	fmt.Fprintf(out, "Code before:         %s\n", outcome.CodeBefore.String())
	if outcome.Status != business.InclusionPending {
		fmt.Fprintf(out, "Code after:          %s\n", outcome.CodeAfter.String())
	}
	if outcome.ExplorerURL != "" {
		fmt.Fprintf(out, "Explorer:            %s\n", outcome.ExplorerURL)
	}
}

func printError(out io.Writer, err error) {
	fmt.Fprintf(out, "Error: %v\n", err)
	if apperrors.IsTransient(err) {
		fmt.Fprintln(out, "The failure may be transient; rerunning is safe once the account nonce is checked.")
	}
}
