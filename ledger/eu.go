// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package ledger

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/common"
)

// CertID identifies an EU certificate.
type CertID string

// CertStatus is the certificate lifecycle state (spec §3). ACTIVE->REDEEMED
// is the only transition the VM performs; the rest are reserved for a
// governance/operator flow outside this core.
type CertStatus string

const (
	CertActive   CertStatus = "ACTIVE"
	CertRedeemed CertStatus = "REDEEMED"
	CertLost     CertStatus = "LOST"
	CertStolen   CertStatus = "STOLEN"
	CertFraud    CertStatus = "FRAUD"
	CertReissued CertStatus = "REISSUED"
)

// EuCertificate is a bearer certificate backed 1:1 by a vault while ACTIVE.
type EuCertificate struct {
	ID                       CertID
	Owner                    common.Address
	ActivatedByInstitutionID string
	PhysicalBearer           bool
	IssuedAtHeight           common.Height
	ChainHashProof           common.Hash
	OracleValueEUAtIssuance  common.Amount
	BackingVaultID           VaultID
	Status                   CertStatus
	DamagedFlag              bool
	ReissueParentID          CertID
	InstitutionSignature     []byte
}

// EuRegistry holds the certificate-by-id index; byOwner is a derived
// projection, recomputed from byId after every mutation (spec §3, §9).
type EuRegistry struct {
	byID    map[CertID]*EuCertificate
	byOwner map[common.Address][]CertID
}

func NewEuRegistry() *EuRegistry {
	return &EuRegistry{
		byID:    make(map[CertID]*EuCertificate),
		byOwner: make(map[common.Address][]CertID),
	}
}

func (r *EuRegistry) Clone() *EuRegistry {
	out := NewEuRegistry()
	for id, cert := range r.byID {
		cp := *cert
		out.byID[id] = &cp
	}
	out.rebuildOwnerIndex()
	return out
}

// rebuildOwnerIndex recomputes byOwner from byID deterministically: owners
// are visited in sorted-address order and each owner's certs in
// sorted-id order, so two registries with the same byId content always
// produce byte-identical owner-index iteration, independent of Go's
// randomized map order.
func (r *EuRegistry) rebuildOwnerIndex() {
	r.byOwner = make(map[common.Address][]CertID)
	ids := make([]CertID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		cert := r.byID[id]
		r.byOwner[cert.Owner] = append(r.byOwner[cert.Owner], id)
	}
}

func (r *EuRegistry) Get(id CertID) (EuCertificate, bool) {
	cert, ok := r.byID[id]
	if !ok {
		return EuCertificate{}, false
	}
	return *cert, true
}

func (r *EuRegistry) ByOwner(owner common.Address) []CertID {
	ids := r.byOwner[owner]
	out := make([]CertID, len(ids))
	copy(out, ids)
	return out
}

func (r *EuRegistry) All() map[CertID]*EuCertificate { return r.byID }

// Register inserts a new ACTIVE certificate. Fails EU_CERT_EXISTS if the id
// is taken, EU_BACKING_VAULT_MISSING if the vault does not exist, or
// EU_VAULT_ALREADY_BOUND if the vault already backs another ACTIVE cert
// (invariant 2).
func (r *EuRegistry) Register(cert EuCertificate, vaults Vaults) error {
	if _, exists := r.byID[cert.ID]; exists {
		return chainerrs.New(chainerrs.EuCertExists, "certificate already registered", map[string]any{"certId": string(cert.ID)})
	}
	vault, ok := vaults.Get(cert.BackingVaultID)
	if !ok {
		return chainerrs.New(chainerrs.EuBackingVaultMissing, "backing vault does not exist", map[string]any{
			"certId":  string(cert.ID),
			"vaultId": string(cert.BackingVaultID),
		})
	}
	if bound, boundCertID := r.vaultBoundToActiveCert(cert.BackingVaultID); bound {
		return chainerrs.New(chainerrs.EuVaultAlreadyBound, "vault already backs an active certificate", map[string]any{
			"vaultId":       string(cert.BackingVaultID),
			"existingCertId": string(boundCertID),
		})
	}
	_ = vault // existence already checked; owner/balance constraints enforced by AssertInvariants
	cert.Status = CertActive
	cp := cert
	r.byID[cert.ID] = &cp
	r.rebuildOwnerIndex()
	return nil
}

// vaultBoundToActiveCert scans for an existing ACTIVE cert bound to vaultID,
// using a set for the "seen vaults" accumulation below in AssertInvariants;
// this single lookup just scans byId directly since it runs per-register,
// not per-block.
func (r *EuRegistry) vaultBoundToActiveCert(vaultID VaultID) (bool, CertID) {
	ids := make([]CertID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		cert := r.byID[id]
		if cert.Status == CertActive && cert.BackingVaultID == vaultID {
			return true, id
		}
	}
	return false, ""
}

// MarkRedeemed flips ACTIVE->REDEEMED; idempotent on REDEEMED; fails
// EU_UNKNOWN for any other state or a missing id.
func (r *EuRegistry) MarkRedeemed(id CertID) error {
	cert, ok := r.byID[id]
	if !ok {
		return chainerrs.New(chainerrs.EuUnknown, "certificate not found", map[string]any{"certId": string(id)})
	}
	if cert.Status == CertRedeemed {
		return nil
	}
	if cert.Status != CertActive {
		return chainerrs.New(chainerrs.EuUnknown, "certificate is not active or redeemed", map[string]any{
			"certId": string(id),
			"status": string(cert.Status),
		})
	}
	cert.Status = CertRedeemed
	return nil
}

// AssertInvariants enforces invariant 2: every ACTIVE cert's backing vault
// exists, is owned by the cert's owner, has a positive balance, and no two
// ACTIVE certs share a backing vault. The uniqueness check uses a set
// rather than a nested scan, since this runs at every block boundary.
func (r *EuRegistry) AssertInvariants(vaults Vaults) error {
	seenVaults := mapset.NewThreadUnsafeSet[VaultID]()
	ids := make([]CertID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		cert := r.byID[id]
		if cert.Status != CertActive {
			continue
		}
		if seenVaults.Contains(cert.BackingVaultID) {
			return chainerrs.New(chainerrs.EuInvariantViolation, "two active certificates share a backing vault", map[string]any{
				"vaultId": string(cert.BackingVaultID),
			})
		}
		seenVaults.Add(cert.BackingVaultID)

		vault, ok := vaults.Get(cert.BackingVaultID)
		if !ok {
			return chainerrs.New(chainerrs.EuInvariantViolation, "active certificate's backing vault is missing", map[string]any{
				"certId":  string(id),
				"vaultId": string(cert.BackingVaultID),
			})
		}
		if vault.Owner != cert.Owner {
			return chainerrs.New(chainerrs.EuInvariantViolation, "backing vault owner does not match certificate owner", map[string]any{
				"certId":     string(id),
				"vaultId":    string(cert.BackingVaultID),
				"vaultOwner": vault.Owner.Hex(),
				"certOwner":  cert.Owner.Hex(),
			})
		}
		if vault.BalanceTHE.Sign() <= 0 {
			return chainerrs.New(chainerrs.EuInvariantViolation, "backing vault has non-positive balance", map[string]any{
				"certId":  string(id),
				"vaultId": string(cert.BackingVaultID),
				"balance": vault.BalanceTHE.String(),
			})
		}
	}
	return nil
}
