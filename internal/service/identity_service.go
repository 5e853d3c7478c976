package service

import (
	"crypto/subtle"

	"github.com/donalab/dona-backend/internal/domain"
)

// IdentityService maps transport credentials onto ledger identities. The
// ledger itself only sees addresses; which key or JWT subject speaks for
// which address is decided here, from configuration. Authorization stays
// with the ledger: a mapped identity still has to hold the role it is
// exercising.
type IdentityService struct {
	keys     []keyIdentity
	subjects map[string]domain.Address
}

type keyIdentity struct {
	key      []byte
	identity domain.Address
}

// NewIdentityService creates a new IdentityService. Empty keys are
// skipped, so an unset credential can never be presented.
func NewIdentityService(subjects map[string]domain.Address) *IdentityService {
	return &IdentityService{subjects: subjects}
}

// AddKey registers an API key for an identity
func (s *IdentityService) AddKey(key string, identity domain.Address) {
	if key == "" || identity.IsZero() {
		return
	}
	s.keys = append(s.keys, keyIdentity{key: []byte(key), identity: identity})
}

// IdentityForKey resolves an API key to its ledger identity. Comparison
// is constant-time per registered key.
func (s *IdentityService) IdentityForKey(key string) (domain.Address, bool) {
	if key == "" {
		return domain.ZeroAddress, false
	}
	presented := []byte(key)
	for _, k := range s.keys {
		if len(k.key) == len(presented) && subtle.ConstantTimeCompare(k.key, presented) == 1 {
			return k.identity, true
		}
	}
	return domain.ZeroAddress, false
}

// IdentityForSubject resolves a JWT subject to its ledger identity.
func (s *IdentityService) IdentityForSubject(sub string) (domain.Address, bool) {
	identity, ok := s.subjects[sub]
	if !ok || identity.IsZero() {
		return domain.ZeroAddress, false
	}
	return identity, true
}
