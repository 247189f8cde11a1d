package identitysvc

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/trezcool/darasa/core/session"
)

// dummyProvider accepts any password and rotates token strings on refresh.
// DEV/TEST only.
type dummyProvider struct {
	mu         sync.Mutex
	seq        int
	identities map[string]session.Identity // keyed by phone
	expiresIn  time.Duration
}

var _ session.Provider = (*dummyProvider)(nil)

func NewDummyProvider(expiresIn time.Duration, identities ...session.Identity) *dummyProvider {
	p := &dummyProvider{
		identities: make(map[string]session.Identity, len(identities)),
		expiresIn:  expiresIn,
	}
	for _, id := range identities {
		p.identities[id.Phone] = id
	}
	return p
}

func (p *dummyProvider) SignIn(_ context.Context, phone, pwd string) (session.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.identities[phone]
	if !ok || pwd == "" {
		return session.Identity{}, session.ErrInvalidGrant
	}
	return p.issue(id), nil
}

func (p *dummyProvider) Refresh(_ context.Context, refreshToken string) (session.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range p.identities {
		if id.RefreshToken == refreshToken {
			return p.issue(id), nil
		}
	}
	return session.Identity{}, session.ErrInvalidGrant
}

func (p *dummyProvider) issue(id session.Identity) session.Identity {
	p.seq++
	id.AccessToken = "dummy-access-" + strconv.Itoa(p.seq)
	id.RefreshToken = "dummy-refresh-" + strconv.Itoa(p.seq)
	id.ExpiresIn = p.expiresIn
	p.identities[id.Phone] = id
	return id
}
