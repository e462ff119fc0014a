// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package ledger

import (
	"math/big"

	"github.com/the-protocol/the-core/common"
)

// Header is the canonical block header (spec §3, §6). Miner is carried on
// the header but deliberately excluded from the canonical hash formula
// (spec §4.8): who gets credited for a block is not part of what a miner
// is proving work over.
type Header struct {
	Height       common.Height
	ParentHash   *common.Hash // nil only at genesis' child
	TimestampSec int64
	Nonce        *big.Int
	ExtraData    []byte
	Miner        common.Address
}

// Body carries the ordered transaction sequence.
type Body struct {
	Txs []TheTx
}

// Block is a header/body pair plus its claimed hash; BlockApply recomputes
// the canonical hash and requires it to match (spec §4.11 step 3).
type Block struct {
	Header Header
	Body   Body
	Hash   common.Hash
}

// TxKind tags the TheTx union (spec §3). The VM's dispatch switch in
// core/vm is exhaustive over these constants.
type TxKind byte

const (
	TxTransferTHE TxKind = iota + 1
	TxVaultCreate
	TxVaultDeposit
	TxVaultWithdraw
	TxMintEU
	TxRedeemEU
	TxSplitAward
	TxInternalReward
)

func (k TxKind) String() string {
	switch k {
	case TxTransferTHE:
		return "TRANSFER_THE"
	case TxVaultCreate:
		return "VAULT_CREATE"
	case TxVaultDeposit:
		return "VAULT_DEPOSIT"
	case TxVaultWithdraw:
		return "VAULT_WITHDRAW"
	case TxMintEU:
		return "MINT_EU"
	case TxRedeemEU:
		return "REDEEM_EU"
	case TxSplitAward:
		return "SPLIT_AWARD"
	case TxInternalReward:
		return "INTERNAL_REWARD"
	default:
		return "UNKNOWN"
	}
}

// AllTxKinds lists every tag the VM switch must handle; used by the
// exhaustiveness meta-test in core/vm.
var AllTxKinds = []TxKind{
	TxTransferTHE, TxVaultCreate, TxVaultDeposit, TxVaultWithdraw,
	TxMintEU, TxRedeemEU, TxSplitAward, TxInternalReward,
}

// TheTx is the tagged sum over every transaction variant. Only the fields
// relevant to Kind are populated; this mirrors the wire encoding directly
// (one JSON object per tx, discriminated by a "type" field) rather than
// introducing a Go sum-type emulation with interfaces, since every variant
// here is a flat data record with no behavior of its own.
type TheTx struct {
	Kind TxKind

	// TRANSFER_THE
	From       common.Address
	To         common.Address
	AmountTHE  common.Amount

	// VAULT_CREATE / shared owner field for MINT_EU
	VaultID VaultID
	Owner   common.Address

	// VAULT_DEPOSIT / VAULT_WITHDRAW share AmountTHE and VaultID above.

	// MINT_EU
	EuCertificateID          CertID
	BackingVaultID           VaultID
	ActivatedByInstitutionID string
	PhysicalBearer           bool
	OracleValueEUAtIssuance  common.Amount
	ChainHashProof           common.Hash

	// REDEEM_EU
	// EuCertificateID reused above.

	// SPLIT_AWARD
	Factor int64

	// INTERNAL_REWARD
	Miner common.Address
	// AmountTHE reused above.
}
