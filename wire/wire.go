// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package wire is the canonical JSON encoding for blocks and transactions
// (spec §6): amounts, heights and nonces are always decimal strings, never
// raw JSON numbers, and every transaction is tagged by its kind name
// rather than its numeric byte value, so the wire format is stable across
// a TxKind renumbering.
package wire

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/ledger"
)

// strictUnmarshal decodes data into v, failing on any field absent from v's
// struct tags instead of silently dropping it — the wire codec treats an
// unrecognized field as malformed input, not forward-compatible noise.
func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type wireTx struct {
	Type string `json:"type"`

	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	AmountTHE string `json:"amountThe,omitempty"`

	VaultID string `json:"vaultId,omitempty"`
	Owner   string `json:"owner,omitempty"`

	EuCertificateID          string `json:"euCertificateId,omitempty"`
	BackingVaultID           string `json:"backingVaultId,omitempty"`
	ActivatedByInstitutionID string `json:"activatedByInstitutionId,omitempty"`
	PhysicalBearer           bool   `json:"physicalBearer,omitempty"`
	OracleValueEUAtIssuance  string `json:"oracleValueEuAtIssuance,omitempty"`
	ChainHashProof           string `json:"chainHashProof,omitempty"`

	Factor int64 `json:"factor,omitempty"`

	Miner string `json:"miner,omitempty"`
}

var kindToName = map[ledger.TxKind]string{
	ledger.TxTransferTHE:    "TRANSFER_THE",
	ledger.TxVaultCreate:    "VAULT_CREATE",
	ledger.TxVaultDeposit:   "VAULT_DEPOSIT",
	ledger.TxVaultWithdraw:  "VAULT_WITHDRAW",
	ledger.TxMintEU:         "MINT_EU",
	ledger.TxRedeemEU:       "REDEEM_EU",
	ledger.TxSplitAward:     "SPLIT_AWARD",
	ledger.TxInternalReward: "INTERNAL_REWARD",
}

var nameToKind = func() map[string]ledger.TxKind {
	out := make(map[string]ledger.TxKind, len(kindToName))
	for k, v := range kindToName {
		out[v] = k
	}
	return out
}()

// EncodeTx marshals tx into its canonical wire form.
func EncodeTx(tx ledger.TheTx) ([]byte, error) {
	name, ok := kindToName[tx.Kind]
	if !ok {
		return nil, chainerrs.New(chainerrs.WireUnknownTx, "cannot encode unrecognized tx kind", map[string]any{"kind": byte(tx.Kind)})
	}
	w := wireTx{
		Type:                     name,
		From:                     hexOrEmpty(tx.From),
		To:                       hexOrEmpty(tx.To),
		AmountTHE:                amountOrEmpty(tx.AmountTHE),
		VaultID:                  string(tx.VaultID),
		Owner:                    hexOrEmpty(tx.Owner),
		EuCertificateID:          string(tx.EuCertificateID),
		BackingVaultID:           string(tx.BackingVaultID),
		ActivatedByInstitutionID: tx.ActivatedByInstitutionID,
		PhysicalBearer:           tx.PhysicalBearer,
		OracleValueEUAtIssuance:  amountOrEmpty(tx.OracleValueEUAtIssuance),
		ChainHashProof:           hashOrEmpty(tx.ChainHashProof),
		Factor:                   tx.Factor,
		Miner:                    hexOrEmpty(tx.Miner),
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, chainerrs.Wrap(err, chainerrs.WireMalformed, "failed to marshal transaction", nil)
	}
	return data, nil
}

// DecodeTx parses data produced by EncodeTx. Fails WIRE_MALFORMED on
// invalid JSON or an unparseable numeric field, WIRE_UNKNOWN_TX when the
// type tag does not name a known TxKind.
func DecodeTx(data []byte) (ledger.TheTx, error) {
	var w wireTx
	if err := strictUnmarshal(data, &w); err != nil {
		return ledger.TheTx{}, chainerrs.Wrap(err, chainerrs.WireMalformed, "failed to unmarshal transaction", nil)
	}
	kind, ok := nameToKind[w.Type]
	if !ok {
		return ledger.TheTx{}, chainerrs.New(chainerrs.WireUnknownTx, "unrecognized transaction type tag", map[string]any{"type": w.Type})
	}

	amount, err := amountOrZero(w.AmountTHE)
	if err != nil {
		return ledger.TheTx{}, err
	}
	oracleValue, err := amountOrZero(w.OracleValueEUAtIssuance)
	if err != nil {
		return ledger.TheTx{}, err
	}

	return ledger.TheTx{
		Kind:                     kind,
		From:                     common.HexToAddress(w.From),
		To:                       common.HexToAddress(w.To),
		AmountTHE:                amount,
		VaultID:                  ledger.VaultID(w.VaultID),
		Owner:                    common.HexToAddress(w.Owner),
		EuCertificateID:          ledger.CertID(w.EuCertificateID),
		BackingVaultID:           ledger.VaultID(w.BackingVaultID),
		ActivatedByInstitutionID: w.ActivatedByInstitutionID,
		PhysicalBearer:           w.PhysicalBearer,
		OracleValueEUAtIssuance:  oracleValue,
		ChainHashProof:           common.HexToHash(w.ChainHashProof),
		Factor:                   w.Factor,
		Miner:                    common.HexToAddress(w.Miner),
	}, nil
}

type wireHeader struct {
	Height       string `json:"height"`
	ParentHash   string `json:"parentHash,omitempty"`
	TimestampSec int64  `json:"timestampSec"`
	Nonce        string `json:"nonce"`
	ExtraData    string `json:"extraData,omitempty"`
	Miner        string `json:"miner,omitempty"`
}

type wireBlock struct {
	Header wireHeader `json:"header"`
	Txs    []wireTx   `json:"txs"`
	Hash   string     `json:"hash"`
}

// EncodeBlock marshals a full block into its canonical wire form.
func EncodeBlock(b ledger.Block) ([]byte, error) {
	txs := make([]wireTx, 0, len(b.Body.Txs))
	for _, tx := range b.Body.Txs {
		enc, err := EncodeTx(tx)
		if err != nil {
			return nil, err
		}
		var w wireTx
		if err := json.Unmarshal(enc, &w); err != nil {
			return nil, chainerrs.Wrap(err, chainerrs.WireMalformed, "internal re-decode of encoded tx failed", nil)
		}
		txs = append(txs, w)
	}

	var parentHex string
	if b.Header.ParentHash != nil {
		parentHex = b.Header.ParentHash.Hex()
	}
	nonce := "0"
	if b.Header.Nonce != nil {
		nonce = b.Header.Nonce.String()
	}
	wb := wireBlock{
		Header: wireHeader{
			Height:       strconv.FormatUint(uint64(b.Header.Height), 10),
			ParentHash:   parentHex,
			TimestampSec: b.Header.TimestampSec,
			Nonce:        nonce,
			ExtraData:    string(b.Header.ExtraData),
			Miner:        b.Header.Miner.Hex(),
		},
		Txs:  txs,
		Hash: b.Hash.Hex(),
	}
	data, err := json.Marshal(wb)
	if err != nil {
		return nil, chainerrs.Wrap(err, chainerrs.WireMalformed, "failed to marshal block", nil)
	}
	return data, nil
}

// DecodeBlock parses data produced by EncodeBlock.
func DecodeBlock(data []byte) (ledger.Block, error) {
	var wb wireBlock
	if err := strictUnmarshal(data, &wb); err != nil {
		return ledger.Block{}, chainerrs.Wrap(err, chainerrs.WireMalformed, "failed to unmarshal block", nil)
	}

	height, err := strconv.ParseUint(wb.Header.Height, 10, 64)
	if err != nil {
		return ledger.Block{}, chainerrs.Wrap(err, chainerrs.WireMalformed, "invalid block height", map[string]any{"value": wb.Header.Height})
	}
	nonce, ok := new(big.Int).SetString(wb.Header.Nonce, 10)
	if !ok {
		return ledger.Block{}, chainerrs.New(chainerrs.WireMalformed, "invalid nonce", map[string]any{"value": wb.Header.Nonce})
	}
	var parentHash *common.Hash
	if wb.Header.ParentHash != "" {
		h := common.HexToHash(wb.Header.ParentHash)
		parentHash = &h
	}

	txs := make([]ledger.TheTx, 0, len(wb.Txs))
	for _, w := range wb.Txs {
		encoded, err := json.Marshal(w)
		if err != nil {
			return ledger.Block{}, chainerrs.Wrap(err, chainerrs.WireMalformed, "failed to re-marshal transaction", nil)
		}
		tx, err := DecodeTx(encoded)
		if err != nil {
			return ledger.Block{}, err
		}
		txs = append(txs, tx)
	}

	return ledger.Block{
		Header: ledger.Header{
			Height:       common.Height(height),
			ParentHash:   parentHash,
			TimestampSec: wb.Header.TimestampSec,
			Nonce:        nonce,
			ExtraData:    []byte(wb.Header.ExtraData),
			Miner:        common.HexToAddress(wb.Header.Miner),
		},
		Body: ledger.Body{Txs: txs},
		Hash: common.HexToHash(wb.Hash),
	}, nil
}

func hexOrEmpty(a common.Address) string {
	if a.IsZero() {
		return ""
	}
	return a.Hex()
}

func hashOrEmpty(h common.Hash) string {
	if h.IsZero() {
		return ""
	}
	return h.Hex()
}

func amountOrEmpty(a common.Amount) string {
	if a.IsZero() {
		return ""
	}
	return a.String()
}

func amountOrZero(s string) (common.Amount, error) {
	if s == "" {
		return common.ZeroAmount(), nil
	}
	amt, err := common.AmountFromString(s)
	if err != nil {
		return common.Amount{}, chainerrs.Wrap(err, chainerrs.WireMalformed, "invalid decimal amount", map[string]any{"value": s})
	}
	return amt, nil
}
