package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	authcore "github.com/NordCoder/Placement/internal/auth"
	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"github.com/NordCoder/Placement/internal/domain/outbox"
	"github.com/NordCoder/Placement/internal/domain/principal"
	"github.com/NordCoder/Placement/internal/obs"
	"github.com/NordCoder/Placement/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var authOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "auth_operations_total",
	Help: "Auth operations by operation and outcome kind.",
}, []string{"op", "role", "outcome"})

type Config struct {
	AccessTTL time.Duration
	Now       func() time.Time
}

type Deps struct {
	Principals principal.Repo
	Hasher     authcore.PasswordHasher
	Issuer     *authcore.TokenIssuer
	Ledger     *authcore.Ledger
	Transactor authcore.Transactor
	Outbox     outbox.Repository
	ReadPolicy retry.Policy
	Logger     *zap.Logger
}

type Usecase struct {
	principals principal.Repo
	hasher     authcore.PasswordHasher
	issuer     *authcore.TokenIssuer
	ledger     *authcore.Ledger
	tx         authcore.Transactor
	outbox     outbox.Repository
	readPolicy retry.Policy
	log        *zap.Logger
	cfg        Config
}

func NewUseCase(d Deps, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.ReadPolicy.Attempts == 0 {
		d.ReadPolicy = retry.StoreReadPolicy(d.Logger)
	}
	return &Usecase{
		principals: d.Principals,
		hasher:     d.Hasher,
		issuer:     d.Issuer,
		ledger:     d.Ledger,
		tx:         d.Transactor,
		outbox:     d.Outbox,
		readPolicy: d.ReadPolicy,
		log:        d.Logger,
		cfg:        cfg,
	}
}

func observe(op string, role principal.Role, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(domainauth.KindOf(err))
	}
	authOutcomes.WithLabelValues(op, role.String(), outcome).Inc()
}

// Login checks a role-tagged credential and issues a token pair. Unknown ids and wrong
// passwords are indistinguishable to the caller.
func (u *Usecase) Login(ctx context.Context, roleName string, id int64, password string) (pair domainauth.TokenPair, err error) {
	role, err := principal.ParseRole(roleName)
	if err != nil {
		observe("login", role, err)
		return pair, err
	}
	defer func() { observe("login", role, err) }()

	if id <= 0 {
		return pair, domainauth.NewValidationError("identifier", "must be greater than 0")
	}
	if password == "" {
		return pair, domainauth.NewValidationError("password", "is required")
	}

	var cred principal.Credential
	err = retry.Do(ctx, func() error {
		var lerr error
		cred, lerr = u.principals.Lookup(ctx, role, id)
		return lerr
	}, u.readPolicy)
	if errors.Is(err, domainauth.ErrNotFound) {
		return pair, domainauth.ErrInvalidCredentials
	}
	if err != nil {
		return pair, err
	}

	ok, err := u.hasher.Verify(password, cred.Hash)
	if err != nil {
		obs.WithTrace(ctx, u.log).Error("stored credential unusable",
			zap.String("role", role.String()), zap.Int64("principal_id", id), zap.Error(err))
		return pair, err
	}
	if !ok {
		return pair, domainauth.ErrInvalidCredentials
	}

	return u.issuePair(ctx, cred.PrincipalID, role)
}

func (u *Usecase) issuePair(ctx context.Context, id int64, role principal.Role) (domainauth.TokenPair, error) {
	access, err := u.issuer.Mint(id, role, u.cfg.AccessTTL)
	if err != nil {
		return domainauth.TokenPair{}, err
	}
	refresh, err := u.ledger.Issue(ctx, id, role)
	if err != nil {
		return domainauth.TokenPair{}, err
	}
	return domainauth.TokenPair{AccessToken: access, RefreshToken: refresh, PrincipalID: id, Role: role}, nil
}

// Refresh spends a refresh token and returns a fresh pair for the same principal.
func (u *Usecase) Refresh(ctx context.Context, raw string) (pair domainauth.TokenPair, err error) {
	var role principal.Role
	defer func() { observe("refresh", role, err) }()

	next, rec, err := u.ledger.Rotate(ctx, raw)
	if err != nil {
		return pair, err
	}
	role = rec.Role

	access, err := u.issuer.Mint(rec.PrincipalID, rec.Role, u.cfg.AccessTTL)
	if err != nil {
		return pair, err
	}
	return domainauth.TokenPair{AccessToken: access, RefreshToken: next, PrincipalID: rec.PrincipalID, Role: rec.Role}, nil
}

func (u *Usecase) Logout(ctx context.Context, raw string) (err error) {
	defer func() { observe("logout", principal.RoleUnknown, err) }()
	return u.ledger.Revoke(ctx, raw)
}

// Register validates the input, then writes the principal, its satellites, its credential
// and an account_registered outbox row in one transaction.
func (u *Usecase) Register(ctx context.Context, reg principal.Registration) (id int64, err error) {
	role := reg.Role()
	defer func() { observe("register", role, err) }()

	if err := validateStruct(reg); err != nil {
		return 0, err
	}

	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := u.principals.Exists(ctx, reg)
		if err != nil {
			return err
		}
		if exists {
			return domainauth.ErrConflict
		}

		hash, err := u.hasher.Hash(reg.Secret())
		if err != nil {
			return err
		}

		id, err = u.principals.Create(ctx, reg, hash)
		if err != nil {
			return err
		}

		data, err := json.Marshal(outbox.AccountRegisteredPayload{
			PrincipalID:  id,
			Role:         role.String(),
			Email:        principal.NormalizeEmail(reg.ContactEmail()),
			RegisteredAt: u.cfg.Now(),
		})
		if err != nil {
			return fmt.Errorf("marshal account registered: %w", err)
		}
		key := fmt.Sprintf("%s:%s:%d", outbox.KindAccountRegistered, role, id)
		return u.outbox.Enqueue(ctx, key, outbox.KindAccountRegistered, data)
	})
	if err != nil {
		return 0, err
	}

	obs.WithTrace(ctx, u.log).Info("principal registered",
		zap.String("role", role.String()), zap.Int64("principal_id", id))
	return id, nil
}

// Profile returns the public profile of the subject of a valid access token.
func (u *Usecase) Profile(ctx context.Context, accessToken string) (*principal.Profile, error) {
	claims, err := u.issuer.Verify(accessToken)
	if err != nil {
		return nil, err
	}

	var p *principal.Profile
	err = retry.Do(ctx, func() error {
		var perr error
		p, perr = u.principals.Profile(ctx, claims.Role, claims.SubjectID)
		return perr
	}, u.readPolicy)
	if err != nil {
		return nil, err
	}
	return p, nil
}
