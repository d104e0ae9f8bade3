package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cdash.org/internal/ids"
)

// Provisioner runs the one-time join and organization-creation workflows for
// authenticated subjects that have no organization yet.
type Provisioner struct {
	store Store
	sync  *Synchronizer
}

// NewProvisioner constructs a Provisioner.
func NewProvisioner(store Store, sync *Synchronizer) *Provisioner {
	return &Provisioner{store: store, sync: sync}
}

// JoinResult reports the membership the batch settled on plus the refreshed
// session carrying the new claims.
type JoinResult struct {
	Membership Membership
	Created    bool
	Session    Session
}

// Join validates the invite code (the organization id), applies the
// membership batch atomically, and re-synchronizes claims. A duplicate join
// by the same subject is an idempotent success: the existing membership is
// kept and a fresh session is still minted.
func (p *Provisioner) Join(ctx context.Context, ident Identity, inviteCode string) (JoinResult, error) {
	code := strings.TrimSpace(inviteCode)
	if code == "" {
		return JoinResult{}, ErrInvalidInviteCode
	}

	org, err := p.store.Organizations(ctx).Find(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return JoinResult{}, ErrInvalidInviteCode
	}
	if err != nil {
		return JoinResult{}, fmt.Errorf("look up organization: %w", err)
	}

	membership, created, err := p.store.Join(ctx, JoinRequest{
		SubjectID:      ident.SubjectID,
		OrganizationID: org.ID,
		Email:          ident.Email,
		DisplayName:    ident.DisplayName,
		AvatarURL:      ident.AvatarURL,
	})
	if err != nil {
		return JoinResult{}, fmt.Errorf("apply membership batch: %w", err)
	}

	session, err := p.sync.Synchronize(ctx, ident.SubjectID)
	if err != nil {
		return JoinResult{}, err
	}
	return JoinResult{Membership: membership, Created: created, Session: session}, nil
}

// CreateOrganization registers a new tenant and joins the creator as its
// first administrator through the same batch the join flow uses.
func (p *Provisioner) CreateOrganization(ctx context.Context, ident Identity, name string) (Organization, JoinResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Organization{}, JoinResult{}, errors.New("auth: organization name is required")
	}

	org := &Organization{
		ID:        ids.New(),
		Name:      name,
		CreatedBy: ident.SubjectID,
	}
	if err := p.store.Organizations(ctx).Create(ctx, org); err != nil {
		return Organization{}, JoinResult{}, fmt.Errorf("create organization: %w", err)
	}

	result, err := p.Join(ctx, ident, org.ID)
	if err != nil {
		return Organization{}, JoinResult{}, err
	}
	return *org, result, nil
}
