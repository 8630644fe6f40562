package brickfolio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// EncodeOp writes one operation as a single JSONL line.
func EncodeOp(w io.Writer, op Operation) error {
	b, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("encoding %s operation: %w", op.What(), err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("writing %s operation: %w", op.What(), err)
	}
	return nil
}

// EncodeOps writes a sequence of operations in JSONL.
func EncodeOps(w io.Writer, ops []Operation) error {
	for _, op := range ops {
		if err := EncodeOp(w, op); err != nil {
			return err
		}
	}
	return nil
}

// EncodeEvent writes one event record as a single JSONL line, suitable for
// external indexers.
func EncodeEvent(w io.Writer, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ev.Kind(), err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("writing %s event: %w", ev.Kind(), err)
	}
	return nil
}

// DecodeJournal decodes operations from a stream of JSONL data, one
// operation per line, in journal order. Replaying the result through a
// fresh engine reproduces the journaled state.
func DecodeJournal(r io.Reader) ([]Operation, error) {
	var ops []Operation
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var identifier struct {
			Op OpType `json:"op"`
		}
		if err := json.Unmarshal(lineBytes, &identifier); err != nil {
			return nil, fmt.Errorf("could not identify operation in line %q: %w", string(lineBytes), err)
		}

		op, err := decodeOp(identifier.Op, lineBytes)
		if err != nil {
			return nil, fmt.Errorf("decoding %s operation: %w", identifier.Op, err)
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return ops, nil
}

func decodeOp(kind OpType, line []byte) (Operation, error) {
	var decoded Operation
	var err error

	switch kind {
	case OpMint:
		var op MintProperty
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpPurchaseShares:
		var op PurchaseShares
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpTransferShares:
		var op TransferShares
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpSetListed:
		var op SetListed
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpUpdateProperty:
		var op UpdateProperty
		err = json.Unmarshal(line, &op)
		decoded = op

	case OpCreateListing:
		var op CreateListing
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpPurchaseListing:
		var op PurchaseListing
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpCancelListing:
		var op CancelListing
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpMakeOffer:
		var op MakeOffer
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpAcceptOffer:
		var op AcceptOffer
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpWithdrawOffer:
		var op WithdrawOffer
		err = json.Unmarshal(line, &op)
		decoded = op

	case OpCreateYieldPool:
		var op CreateYieldPool
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpDepositYield:
		var op DepositYield
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpDistributeYield:
		var op DistributeYield
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpClaimYield:
		var op ClaimYield
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpClaimMultiple:
		var op ClaimMultiple
		err = json.Unmarshal(line, &op)
		decoded = op

	case OpCreateStakingPool:
		var op CreateStakingPool
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpStake:
		var op Stake
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpWithdrawStake:
		var op WithdrawStake
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpGetReward:
		var op GetReward
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpExit:
		var op Exit
		err = json.Unmarshal(line, &op)
		decoded = op

	case OpSetPlatformFee:
		var op SetPlatformFee
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpSetMinDistribution:
		var op SetMinDistribution
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpSetPenalty:
		var op SetPenalty
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpAddStakingTier:
		var op AddStakingTier
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpTransferAdmin:
		var op TransferAdmin
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpEmergencyWithdraw:
		var op EmergencyWithdraw
		err = json.Unmarshal(line, &op)
		decoded = op
	case OpSetPoolActive:
		var op SetPoolActive
		err = json.Unmarshal(line, &op)
		decoded = op

	default:
		return nil, fmt.Errorf("%w: unknown operation kind %q", ErrValidation, kind)
	}

	if err != nil {
		return nil, err
	}
	return decoded, nil
}
